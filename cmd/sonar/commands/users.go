package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// NewUsersCommand creates the users command group.
func NewUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Browse users",
	}

	cmd.AddCommand(newUsersSearchCommand())

	return cmd
}

func newUsersSearchCommand() *cobra.Command {
	var (
		query       string
		deactivated bool
		paging      pageFlags
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search users",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			search := client.Users().Search()
			if query != "" {
				search.Query(query)
			}

			if deactivated {
				search.Deactivated(true)
			}

			result, err := fetchPaged(cmd.Context(), &search.Builder, &paging)
			if err != nil {
				return fmt.Errorf("failed to search users: %w", err)
			}

			return renderList(cmd, result, "No users found", func(w io.Writer, users []sonar.User) error {
				table := newTable(w, "Login", "Name", "Email", "Active", "Local")
				for _, user := range users {
					_ = table.Append(user.Login, user.Name, orNotAvailable(user.Email), yesNo(user.Active), yesNo(user.Local))
				}

				return renderTable(table)
			})
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by login, name or email")
	cmd.Flags().BoolVar(&deactivated, "deactivated", false, "list deactivated users")
	addPageFlags(cmd, &paging)

	return cmd
}
