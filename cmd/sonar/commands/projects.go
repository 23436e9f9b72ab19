package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// NewProjectsCommand creates the projects command group.
func NewProjectsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "proj"},
		Short:   "Manage projects",
		Long:    "List, create and delete projects",
	}

	cmd.AddCommand(newProjectsListCommand())
	cmd.AddCommand(newProjectsCreateCommand())
	cmd.AddCommand(newProjectsDeleteCommand())

	return cmd
}

func newProjectsListCommand() *cobra.Command {
	var (
		query      string
		visibility string
		paging     pageFlags
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects",
		Long:    "List projects visible to the authenticated user. Requires the Administer permission on SonarQube.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			search := client.Projects().Search()
			if query != "" {
				search.Query(query)
			}

			if visibility != "" {
				search.Visibility(visibility)
			}

			result, err := fetchPaged(cmd.Context(), &search.Builder, &paging)
			if err != nil {
				return fmt.Errorf("failed to list projects: %w", err)
			}

			return renderList(cmd, result, "No projects found", func(w io.Writer, projects []sonar.Project) error {
				table := newTable(w, "Key", "Name", "Visibility", "Last Analysis")
				for _, project := range projects {
					_ = table.Append(project.Key, project.Name, orNotAvailable(project.Visibility), orNotAvailable(project.LastAnalysisDate))
				}

				return renderTable(table)
			})
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by key or name")
	cmd.Flags().StringVar(&visibility, "visibility", "", "filter by visibility (public, private)")
	addPageFlags(cmd, &paging)

	return cmd
}

func newProjectsCreateCommand() *cobra.Command {
	var (
		name       string
		visibility string
		mainBranch string
	)

	cmd := &cobra.Command{
		Use:   "create PROJECT_KEY",
		Short: "Create a project",
		Long:  "Create a project. The name defaults to the key.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			if name == "" {
				name = args[0]
			}

			project, err := client.Projects().Create(cmd.Context(), &sonar.ProjectCreateRequest{
				Project:    args[0],
				Name:       name,
				Visibility: visibility,
				MainBranch: mainBranch,
			})
			if err != nil {
				return fmt.Errorf("failed to create project: %w", err)
			}

			return render(cmd, project, func(w io.Writer, project *sonar.Project) error {
				fmt.Fprintf(w, "Created project %s (%s)\n", project.Key, project.Name)

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "display name")
	cmd.Flags().StringVar(&visibility, "visibility", "", "visibility (public, private)")
	cmd.Flags().StringVar(&mainBranch, "main-branch", "", "name of the main branch")

	return cmd
}

func newProjectsDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete PROJECT_KEY",
		Short: "Delete a project",
		Long:  "Delete a project and all of its analyses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				ok, err := confirm(cmd, fmt.Sprintf("Really delete project %s?", args[0]))
				if err != nil {
					return err
				}

				if !ok {
					return ErrAborted
				}
			}

			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			if err := client.Projects().Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete project: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", args[0])

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")

	return cmd
}
