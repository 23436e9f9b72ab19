package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/sonar-client/internal/constants"
	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// NewIssuesCommand creates the issues command group.
func NewIssuesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "issues",
		Aliases: []string{"issue"},
		Short:   "Search and triage issues",
		Long:    "Search issues and change their assignee, status or comments",
	}

	cmd.AddCommand(newIssuesSearchCommand())
	cmd.AddCommand(newIssuesAssignCommand())
	cmd.AddCommand(newIssuesTransitionCommand())
	cmd.AddCommand(newIssuesCommentCommand())

	return cmd
}

func newIssuesSearchCommand() *cobra.Command {
	var (
		projects   []string
		severities []string
		types      []string
		statuses   []string
		assignees  []string
		branch     string
		resolved   bool
		paging     pageFlags
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search issues",
		Long:  "Search issues. Results past the first 10,000 are not reachable; narrow the filters instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			search := client.Issues().Search()
			if len(projects) > 0 {
				search.Projects(projects...)
			}

			if len(severities) > 0 {
				search.Severities(severities...)
			}

			if len(types) > 0 {
				search.Types(types...)
			}

			if len(statuses) > 0 {
				search.Statuses(statuses...)
			}

			if len(assignees) > 0 {
				search.Assignees(assignees...)
			}

			if branch != "" {
				search.Branch(branch)
			}

			if cmd.Flags().Changed("resolved") {
				search.Resolved(resolved)
			}

			result, err := fetchPaged(cmd.Context(), &search.Builder, &paging)
			if err != nil {
				return fmt.Errorf("failed to search issues: %w", err)
			}

			return renderList(cmd, result, "No issues found", func(w io.Writer, issues []sonar.Issue) error {
				table := newTable(w, "Key", "Type", "Severity", "Status", "Component", "Line", "Message")
				for _, issue := range issues {
					line := constants.NotAvailable
					if issue.Line > 0 {
						line = strconv.Itoa(issue.Line)
					}

					_ = table.Append(issue.Key, humanize(issue.Type), humanize(issue.Severity), issue.Status,
						issue.Component, line, truncate(issue.Message, constants.MessageDisplayLength))
				}

				return renderTable(table)
			})
		},
	}

	cmd.Flags().StringSliceVarP(&projects, "project", "p", nil, "project keys")
	cmd.Flags().StringSliceVar(&severities, "severity", nil, "severities (INFO, MINOR, MAJOR, CRITICAL, BLOCKER)")
	cmd.Flags().StringSliceVar(&types, "type", nil, "types (CODE_SMELL, BUG, VULNERABILITY)")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "statuses (OPEN, CONFIRMED, REOPENED, RESOLVED, CLOSED)")
	cmd.Flags().StringSliceVar(&assignees, "assignee", nil, "assignee logins, __me__ for the current user")
	cmd.Flags().StringVar(&branch, "branch", "", "branch name")
	cmd.Flags().BoolVar(&resolved, "resolved", false, "only resolved (true) or unresolved (false) issues")
	addPageFlags(cmd, &paging)

	return cmd
}

func newIssuesAssignCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "assign ISSUE_KEY [LOGIN]",
		Short: "Assign an issue",
		Long:  "Assign an issue to a user. Without a login the issue is unassigned.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			assignee := ""
			if len(args) == 2 {
				assignee = args[1]
			}

			issue, err := client.Issues().Assign(cmd.Context(), args[0], assignee)
			if err != nil {
				return fmt.Errorf("failed to assign issue: %w", err)
			}

			return renderIssueChange(cmd, issue, "Assignee: "+orNotAvailable(issue.Assignee))
		},
	}
}

func newIssuesTransitionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "transition ISSUE_KEY TRANSITION",
		Short: "Apply a workflow transition",
		Long:  "Apply a transition such as confirm, resolve, falsepositive, wontfix or reopen",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			issue, err := client.Issues().DoTransition(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to transition issue: %w", err)
			}

			return renderIssueChange(cmd, issue, "Status: "+issue.Status)
		},
	}
}

func newIssuesCommentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "comment ISSUE_KEY TEXT",
		Short: "Comment on an issue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			issue, err := client.Issues().AddComment(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to comment on issue: %w", err)
			}

			return renderIssueChange(cmd, issue, fmt.Sprintf("Comments: %d", len(issue.Comments)))
		},
	}
}

func renderIssueChange(cmd *cobra.Command, issue *sonar.Issue, detail string) error {
	return render(cmd, issue, func(w io.Writer, issue *sonar.Issue) error {
		fmt.Fprintf(w, "Updated issue %s\n%s\n", issue.Key, detail)

		return nil
	})
}
