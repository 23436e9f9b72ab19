package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/sonar-client/internal/constants"
	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

type pageFlags struct {
	page     int
	pageSize int
	all      bool
}

func addPageFlags(cmd *cobra.Command, flags *pageFlags) {
	cmd.Flags().IntVar(&flags.page, "page", 1, "page number")
	cmd.Flags().IntVar(&flags.pageSize, "page-size", constants.StandardPageSize, "results per page (max 500)")
	cmd.Flags().BoolVar(&flags.all, "all", false, "fetch all pages")
}

// listResult is one page of items, or every item when all pages were fetched.
type listResult[T any] struct {
	Items  []T
	Paging sonar.Paging
	All    bool
}

func fetchPaged[B any, T any, R sonar.Pager[T]](
	ctx context.Context,
	builder *sonar.Builder[B, T, R],
	flags *pageFlags,
) (*listResult[T], error) {
	builder.WithPageSize(flags.pageSize)

	if flags.all {
		items, err := builder.Collect(ctx)
		if err != nil {
			return nil, err
		}

		return &listResult[T]{
			Items:  items,
			Paging: sonar.Paging{PageIndex: 1, PageSize: flags.pageSize, Total: len(items)},
			All:    true,
		}, nil
	}

	builder.WithPage(flags.page)

	response, err := builder.Execute(ctx)
	if err != nil {
		return nil, err
	}

	return &listResult[T]{Items: response.PageItems(), Paging: response.PageInfo()}, nil
}

// renderList writes the items as JSON/YAML or through the table callback,
// followed by a hint when more pages exist.
func renderList[T any](cmd *cobra.Command, result *listResult[T], empty string, table func(w io.Writer, items []T) error) error {
	return render(cmd, result.Items, func(w io.Writer, items []T) error {
		if len(items) == 0 {
			fmt.Fprintln(w, empty)

			return nil
		}

		if err := table(w, items); err != nil {
			return err
		}

		if !result.All && result.Paging.Total > result.Paging.PageIndex*result.Paging.PageSize {
			fmt.Fprintf(w, "\nPage %d, %d of %d total. Use --page or --all for more.\n",
				result.Paging.PageIndex, len(items), result.Paging.Total)
		}

		return nil
	})
}
