package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

const gateStatusError = "ERROR"

// NewQualityGatesCommand creates the quality-gates command group.
func NewQualityGatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "quality-gates",
		Aliases: []string{"qg", "gates"},
		Short:   "Inspect quality gates",
		Long:    "List quality gates and check the gate status of projects",
	}

	cmd.AddCommand(newQualityGatesListCommand())
	cmd.AddCommand(newQualityGatesStatusCommand())

	return cmd
}

func newQualityGatesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List quality gates",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			response, err := client.QualityGates().List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list quality gates: %w", err)
			}

			return render(cmd, response, func(w io.Writer, response *sonar.QualityGatesListResponse) error {
				table := newTable(w, "Name", "Default", "Built-in")
				for _, gate := range response.QualityGates {
					_ = table.Append(gate.Name, yesNo(gate.IsDefault), yesNo(gate.IsBuiltIn))
				}

				return renderTable(table)
			})
		},
	}
}

func newQualityGatesStatusCommand() *cobra.Command {
	var (
		branch      string
		pullRequest string
		failOnError bool
	)

	cmd := &cobra.Command{
		Use:   "status PROJECT_KEY...",
		Short: "Show the quality gate status of projects",
		Long: `Show the quality gate status of one or more projects.

With one project the individual conditions are listed. Several projects are
fetched concurrently. --fail-on-error exits non-zero when a gate is ERROR.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			var statuses []sonar.ProjectGateStatus

			if len(args) == 1 {
				status, err := client.QualityGates().ProjectStatus(cmd.Context(), &sonar.ProjectStatusRequest{
					ProjectKey:  args[0],
					Branch:      branch,
					PullRequest: pullRequest,
				})
				if err != nil {
					return fmt.Errorf("failed to get quality gate status: %w", err)
				}

				statuses = []sonar.ProjectGateStatus{{Project: args[0], Status: status}}

				if err := render(cmd, status, renderGateConditions); err != nil {
					return err
				}
			} else {
				// Failed projects are listed as NONE; the aggregated error follows the table.
				var statusErr error

				statuses, statusErr = client.QualityGates().ProjectStatuses(cmd.Context(), args)

				if err := render(cmd, statuses, renderGateStatuses); err != nil {
					return err
				}

				if statusErr != nil {
					return fmt.Errorf("failed to get quality gate statuses: %w", statusErr)
				}
			}

			if failOnError {
				for _, status := range statuses {
					if status.Status != nil && status.Status.Status == gateStatusError {
						return fmt.Errorf("%w: %s", ErrQualityGateFailed, status.Project)
					}
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&branch, "branch", "", "branch name (single project only)")
	cmd.Flags().StringVar(&pullRequest, "pull-request", "", "pull request ID (single project only)")
	cmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "exit with an error when a gate failed")

	return cmd
}

func renderGateConditions(w io.Writer, status *sonar.ProjectStatus) error {
	fmt.Fprintf(w, "Quality gate: %s\n", status.Status)

	if len(status.Conditions) == 0 {
		return nil
	}

	table := newTable(w, "Metric", "Comparator", "Threshold", "Actual", "Status")
	for _, condition := range status.Conditions {
		_ = table.Append(condition.MetricKey, condition.Comparator, orNotAvailable(condition.ErrorThreshold),
			orNotAvailable(condition.ActualValue), condition.Status)
	}

	return renderTable(table)
}

func renderGateStatuses(w io.Writer, statuses []sonar.ProjectGateStatus) error {
	table := newTable(w, "Project", "Status")
	for _, status := range statuses {
		value := "NONE"
		if status.Status != nil {
			value = status.Status.Status
		}

		_ = table.Append(status.Project, value)
	}

	return renderTable(table)
}
