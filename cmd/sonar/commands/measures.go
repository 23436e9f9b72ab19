package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// NewMetricsCommand creates the metrics command group.
func NewMetricsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "metrics",
		Aliases: []string{"metric"},
		Short:   "Browse metric definitions",
	}

	cmd.AddCommand(newMetricsListCommand())

	return cmd
}

func newMetricsListCommand() *cobra.Command {
	var paging pageFlags

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			search := client.Metrics().Search()

			result, err := fetchPaged(cmd.Context(), &search.Builder, &paging)
			if err != nil {
				return fmt.Errorf("failed to list metrics: %w", err)
			}

			return renderList(cmd, result, "No metrics found", func(w io.Writer, metrics []sonar.Metric) error {
				table := newTable(w, "Key", "Name", "Type", "Domain")
				for _, metric := range metrics {
					_ = table.Append(metric.Key, metric.Name, metric.Type, orNotAvailable(metric.Domain))
				}

				return renderTable(table)
			})
		},
	}

	addPageFlags(cmd, &paging)

	return cmd
}

// NewMeasuresCommand creates the measures command group.
func NewMeasuresCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "measures",
		Aliases: []string{"measure"},
		Short:   "Read component measures",
	}

	cmd.AddCommand(newMeasuresGetCommand())

	return cmd
}

func newMeasuresGetCommand() *cobra.Command {
	var (
		metrics     []string
		branch      string
		pullRequest string
	)

	cmd := &cobra.Command{
		Use:   "get COMPONENT",
		Short: "Get measures of a component",
		Long:  "Display the latest values of the given metrics for a project, directory or file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			response, err := client.Measures().Component(cmd.Context(), &sonar.MeasuresComponentRequest{
				Component:   args[0],
				MetricKeys:  metrics,
				Branch:      branch,
				PullRequest: pullRequest,
			})
			if err != nil {
				return fmt.Errorf("failed to get measures: %w", err)
			}

			return render(cmd, response, func(w io.Writer, response *sonar.MeasuresComponentResponse) error {
				table := newTable(w, "Metric", "Value")
				for _, measure := range response.Component.Measures {
					value := measure.Value
					if value == "" && measure.Period != nil {
						value = measure.Period.Value
					}

					_ = table.Append(measure.Metric, orNotAvailable(value))
				}

				return renderTable(table)
			})
		},
	}

	cmd.Flags().StringSliceVarP(&metrics, "metrics", "m",
		[]string{"bugs", "vulnerabilities", "code_smells", "coverage", "duplicated_lines_density", "ncloc"},
		"metric keys")
	cmd.Flags().StringVar(&branch, "branch", "", "branch name")
	cmd.Flags().StringVar(&pullRequest, "pull-request", "", "pull request ID")

	return cmd
}
