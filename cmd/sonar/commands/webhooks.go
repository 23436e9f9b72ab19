package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// NewWebhooksCommand creates the webhooks command group.
func NewWebhooksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "webhooks",
		Aliases: []string{"webhook", "hooks"},
		Short:   "Manage webhooks",
		Long:    "List, create and delete webhooks and inspect their deliveries",
	}

	cmd.AddCommand(newWebhooksListCommand())
	cmd.AddCommand(newWebhooksCreateCommand())
	cmd.AddCommand(newWebhooksDeleteCommand())
	cmd.AddCommand(newWebhooksDeliveriesCommand())

	return cmd
}

func newWebhooksListCommand() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List webhooks",
		Long:    "List global webhooks, or the webhooks of a project with --project",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			webhooks, err := client.Webhooks().List(cmd.Context(), project)
			if err != nil {
				return fmt.Errorf("failed to list webhooks: %w", err)
			}

			return render(cmd, webhooks, func(w io.Writer, webhooks []sonar.Webhook) error {
				if len(webhooks) == 0 {
					fmt.Fprintln(w, "No webhooks found")

					return nil
				}

				table := newTable(w, "Key", "Name", "URL", "Secret")
				for _, webhook := range webhooks {
					_ = table.Append(webhook.Key, webhook.Name, webhook.URL, yesNo(webhook.HasSecret))
				}

				return renderTable(table)
			})
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "project key")

	return cmd
}

func newWebhooksCreateCommand() *cobra.Command {
	var (
		url     string
		project string
		secret  string
	)

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a webhook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			webhook, err := client.Webhooks().Create(cmd.Context(), &sonar.WebhookCreateRequest{
				Name:    args[0],
				URL:     url,
				Project: project,
				Secret:  secret,
			})
			if err != nil {
				return fmt.Errorf("failed to create webhook: %w", err)
			}

			return render(cmd, webhook, func(w io.Writer, webhook *sonar.Webhook) error {
				fmt.Fprintf(w, "Created webhook %s (%s)\n", webhook.Name, webhook.Key)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&url, "target-url", "", "URL the webhook posts to")
	cmd.Flags().StringVarP(&project, "project", "p", "", "project key (global when omitted)")
	cmd.Flags().StringVar(&secret, "secret", "", "HMAC secret, at least 16 characters")
	_ = cmd.MarkFlagRequired("target-url")

	return cmd
}

func newWebhooksDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete WEBHOOK_KEY",
		Short: "Delete a webhook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			if err := client.Webhooks().Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete webhook: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted webhook %s\n", args[0])

			return nil
		},
	}
}

func newWebhooksDeliveriesCommand() *cobra.Command {
	var (
		webhook   string
		component string
		task      string
		paging    pageFlags
	)

	cmd := &cobra.Command{
		Use:   "deliveries",
		Short: "List webhook deliveries",
		Long:  "List recent deliveries of a webhook, a project or a compute engine task",
		RunE: func(cmd *cobra.Command, args []string) error {
			if webhook == "" && component == "" && task == "" {
				return ErrDeliveryFilterNeeded
			}

			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			search := client.Webhooks().Deliveries()
			if webhook != "" {
				search.Webhook(webhook)
			}

			if component != "" {
				search.ComponentKey(component)
			}

			if task != "" {
				search.CETaskID(task)
			}

			result, err := fetchPaged(cmd.Context(), &search.Builder, &paging)
			if err != nil {
				return fmt.Errorf("failed to list deliveries: %w", err)
			}

			return renderList(cmd, result, "No deliveries found", func(w io.Writer, deliveries []sonar.WebhookDelivery) error {
				table := newTable(w, "ID", "Name", "At", "Success", "HTTP Status", "Duration (ms)")
				for _, delivery := range deliveries {
					_ = table.Append(delivery.ID, orNotAvailable(delivery.Name), delivery.At, yesNo(delivery.Success),
						strconv.Itoa(delivery.HTTPStatus), strconv.Itoa(delivery.DurationMs))
				}

				return renderTable(table)
			})
		},
	}

	cmd.Flags().StringVar(&webhook, "webhook", "", "webhook key")
	cmd.Flags().StringVar(&component, "component", "", "project key")
	cmd.Flags().StringVar(&task, "task", "", "compute engine task ID")
	addPageFlags(cmd, &paging)

	return cmd
}
