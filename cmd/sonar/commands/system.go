package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// NewSystemCommand creates the system command group.
func NewSystemCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "system",
		Aliases: []string{"sys"},
		Short:   "Inspect server state",
		Long:    "Query server status, health and version",
	}

	cmd.AddCommand(newSystemStatusCommand())
	cmd.AddCommand(newSystemHealthCommand())
	cmd.AddCommand(newSystemPingCommand())
	cmd.AddCommand(newSystemVersionCommand())

	return cmd
}

func newSystemStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server status",
		Long:  "Display the server ID, version and status (UP, STARTING, DOWN, ...)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			status, err := client.System().Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get system status: %w", err)
			}

			return render(cmd, status, func(w io.Writer, status *sonar.SystemStatus) error {
				return renderProperties(w, [][2]string{
					{"ID", orNotAvailable(status.ID)},
					{"Version", orNotAvailable(status.Version)},
					{"Status", orNotAvailable(status.Status)},
				})
			})
		},
	}
}

func newSystemHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server health",
		Long:  "Display the health of the server. Requires a system passcode (SONAR_PASSCODE) or an admin token.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			health, err := client.System().Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get system health: %w", err)
			}

			return render(cmd, health, func(w io.Writer, health *sonar.SystemHealth) error {
				fmt.Fprintf(w, "Health: %s\n", health.Health)

				if len(health.Causes) == 0 {
					return nil
				}

				table := newTable(w, "Cause")
				for _, cause := range health.Causes {
					_ = table.Append(cause.Message)
				}

				return renderTable(table)
			})
		},
	}
}

func newSystemPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			pong, err := client.System().Ping(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to ping server: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), pong)

			return nil
		},
	}
}

func newSystemVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show server version",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			version, err := client.System().Version(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get server version: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), version)

			return nil
		},
	}
}
