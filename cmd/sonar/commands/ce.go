package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/sonar-client/internal/constants"
	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// NewCECommand creates the ce command group.
func NewCECommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ce",
		Aliases: []string{"tasks"},
		Short:   "Inspect compute engine tasks",
		Long:    "Show background analysis tasks and wait for them to finish",
	}

	cmd.AddCommand(newCETaskCommand())
	cmd.AddCommand(newCEWaitCommand())

	return cmd
}

func newCETaskCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "task TASK_ID",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			task, err := client.CE().Task(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get task: %w", err)
			}

			return render(cmd, task, renderTask)
		},
	}
}

func newCEWaitCommand() *cobra.Command {
	var (
		timeout  time.Duration
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "wait TASK_ID",
		Short: "Wait for a task to finish",
		Long: `Poll a task until it is SUCCESS, FAILED or CANCELED.

Exits with an error when the task did not succeed or the timeout expired.
The ID is printed by the scanner in report-task.txt (ceTaskId).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			task, waitErr := client.CE().WaitForTask(cmd.Context(), args[0], &sonar.WaitOptions{
				InitialInterval: interval,
				MaxInterval:     constants.MaxPollInterval,
				Timeout:         timeout,
			})

			if task != nil {
				if err := render(cmd, task, renderTask); err != nil {
					return err
				}
			}

			if waitErr != nil {
				return fmt.Errorf("waiting for task %s: %w", args[0], waitErr)
			}

			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "wait-timeout", constants.DefaultTaskPollTimeout, "maximum time to wait")
	cmd.Flags().DurationVar(&interval, "interval", constants.DefaultPollInterval, "first polling interval")

	return cmd
}

func renderTask(w io.Writer, task *sonar.Task) error {
	rows := [][2]string{
		{"ID", task.ID},
		{"Type", task.Type},
		{"Component", orNotAvailable(task.ComponentKey)},
		{"Status", task.Status},
		{"Submitted", orNotAvailable(task.SubmittedAt)},
		{"Executed", orNotAvailable(task.ExecutedAt)},
	}

	if task.ErrorMessage != "" {
		rows = append(rows, [2]string{"Error", task.ErrorMessage})
	}

	return renderProperties(w, rows)
}
