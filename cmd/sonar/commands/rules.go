package commands

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// NewRulesCommand creates the rules command group.
func NewRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rules",
		Aliases: []string{"rule"},
		Short:   "Browse coding rules",
	}

	cmd.AddCommand(newRulesSearchCommand())
	cmd.AddCommand(newRulesShowCommand())

	return cmd
}

func newRulesSearchCommand() *cobra.Command {
	var (
		query      string
		languages  []string
		severities []string
		types      []string
		paging     pageFlags
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			search := client.Rules().Search()
			if query != "" {
				search.Query(query)
			}

			if len(languages) > 0 {
				search.Languages(languages...)
			}

			if len(severities) > 0 {
				search.Severities(severities...)
			}

			if len(types) > 0 {
				search.Types(types...)
			}

			result, err := fetchPaged(cmd.Context(), &search.Builder, &paging)
			if err != nil {
				return fmt.Errorf("failed to search rules: %w", err)
			}

			return renderList(cmd, result, "No rules found", func(w io.Writer, rules []sonar.Rule) error {
				table := newTable(w, "Key", "Name", "Language", "Type", "Severity")
				for _, rule := range rules {
					_ = table.Append(rule.Key, rule.Name, orNotAvailable(rule.LangName), humanize(rule.Type), humanize(rule.Severity))
				}

				return renderTable(table)
			})
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "text to search in rule names and descriptions")
	cmd.Flags().StringSliceVar(&languages, "language", nil, "language keys (java, go, py, ...)")
	cmd.Flags().StringSliceVar(&severities, "severity", nil, "severities")
	cmd.Flags().StringSliceVar(&types, "type", nil, "types (CODE_SMELL, BUG, VULNERABILITY, SECURITY_HOTSPOT)")
	addPageFlags(cmd, &paging)

	return cmd
}

func newRulesShowCommand() *cobra.Command {
	var actives bool

	cmd := &cobra.Command{
		Use:   "show RULE_KEY",
		Short: "Show a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			response, err := client.Rules().Show(cmd.Context(), args[0], actives)
			if err != nil {
				return fmt.Errorf("failed to get rule: %w", err)
			}

			return render(cmd, response, func(w io.Writer, response *sonar.RuleShowResponse) error {
				rule := response.Rule
				if err := renderProperties(w, [][2]string{
					{"Key", rule.Key},
					{"Name", rule.Name},
					{"Repository", rule.Repo},
					{"Language", orNotAvailable(rule.LangName)},
					{"Type", humanize(rule.Type)},
					{"Severity", humanize(rule.Severity)},
					{"Status", orNotAvailable(rule.Status)},
					{"Tags", orNotAvailable(strings.Join(slices.Concat(rule.SysTags, rule.Tags), ", "))},
				}); err != nil {
					return err
				}

				if len(response.Actives) == 0 {
					return nil
				}

				table := newTable(w, "Quality Profile", "Severity", "Inherit")
				for _, active := range response.Actives {
					_ = table.Append(active.QProfile, humanize(active.Severity), orNotAvailable(active.Inherit))
				}

				return renderTable(table)
			})
		},
	}

	cmd.Flags().BoolVar(&actives, "actives", false, "include quality profile activations")

	return cmd
}
