package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// NewTokensCommand creates the tokens command group.
func NewTokensCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tokens",
		Aliases: []string{"token"},
		Short:   "Manage user tokens",
		Long:    "List, generate and revoke user tokens. --login acts on another user and needs admin rights.",
	}

	cmd.AddCommand(newTokensListCommand())
	cmd.AddCommand(newTokensGenerateCommand())
	cmd.AddCommand(newTokensRevokeCommand())

	return cmd
}

func newTokensListCommand() *cobra.Command {
	var login string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			tokens, err := client.UserTokens().Search(cmd.Context(), login)
			if err != nil {
				return fmt.Errorf("failed to list tokens: %w", err)
			}

			return render(cmd, tokens, func(w io.Writer, tokens []sonar.UserToken) error {
				if len(tokens) == 0 {
					fmt.Fprintln(w, "No tokens found")

					return nil
				}

				table := newTable(w, "Name", "Type", "Project", "Created", "Expires")
				for _, token := range tokens {
					_ = table.Append(token.Name, humanize(token.Type), orNotAvailable(token.ProjectKey),
						token.CreatedAt, orNotAvailable(token.ExpirationDate))
				}

				return renderTable(table)
			})
		},
	}

	cmd.Flags().StringVar(&login, "login", "", "user login")

	return cmd
}

func newTokensGenerateCommand() *cobra.Command {
	var (
		login      string
		tokenType  string
		project    string
		expiration string
	)

	cmd := &cobra.Command{
		Use:   "generate NAME",
		Short: "Generate a token",
		Long:  "Generate a token. The value is only shown once.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			token, err := client.UserTokens().Generate(cmd.Context(), &sonar.TokenGenerateRequest{
				Name:           args[0],
				Login:          login,
				Type:           tokenType,
				ProjectKey:     project,
				ExpirationDate: expiration,
			})
			if err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}

			return render(cmd, token, func(w io.Writer, token *sonar.GeneratedToken) error {
				fmt.Fprintf(w, "Generated token %s for %s\n%s\n", token.Name, token.Login, token.Token)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&login, "login", "", "user login")
	cmd.Flags().StringVar(&tokenType, "type", "", "USER_TOKEN, GLOBAL_ANALYSIS_TOKEN or PROJECT_ANALYSIS_TOKEN")
	cmd.Flags().StringVarP(&project, "project", "p", "", "project key for project analysis tokens")
	cmd.Flags().StringVar(&expiration, "expires", "", "expiration date (YYYY-MM-DD)")

	return cmd
}

func newTokensRevokeCommand() *cobra.Command {
	var login string

	cmd := &cobra.Command{
		Use:   "revoke NAME",
		Short: "Revoke a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			if err := client.UserTokens().Revoke(cmd.Context(), args[0], login); err != nil {
				return fmt.Errorf("failed to revoke token: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Revoked token %s\n", args[0])

			return nil
		},
	}

	cmd.Flags().StringVar(&login, "login", "", "user login")

	return cmd
}
