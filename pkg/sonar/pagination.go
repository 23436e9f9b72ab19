package sonar

import (
	"context"
	"fmt"
	"iter"

	"github.com/fivetwenty-io/sonar-client/internal/constants"
)

// Paging is the page cursor reported by list endpoints.
type Paging struct {
	PageIndex int `json:"pageIndex" yaml:"page_index"`
	PageSize  int `json:"pageSize"  yaml:"page_size"`
	Total     int `json:"total"     yaml:"total"`
}

// HasMore reports whether pages remain after this one.
func (p Paging) HasMore() bool {
	return p.PageIndex*p.PageSize < p.Total
}

// PageEnvelope decodes both paging shapes used by the API: a nested
// "paging" object, or top-level p/ps/total fields. Response types embed it.
type PageEnvelope struct {
	Paging *Paging `json:"paging,omitempty" yaml:"paging,omitempty"`
	P      int     `json:"p,omitempty"      yaml:"p,omitempty"`
	PS     int     `json:"ps,omitempty"     yaml:"ps,omitempty"`
	Total  int     `json:"total,omitempty"  yaml:"total,omitempty"`
}

// PageInfo returns the paging cursor whichever shape was sent.
func (e PageEnvelope) PageInfo() Paging {
	if e.Paging != nil {
		return *e.Paging
	}

	return Paging{PageIndex: e.P, PageSize: e.PS, Total: e.Total}
}

// Pager is implemented by every paginated response.
type Pager[T any] interface {
	PageItems() []T
	PageInfo() Paging
}

// Page is one page of items.
type Page[T any] struct {
	Items  []T
	Paging Paging
}

// PaginationClient fetches a single page for the given parameters.
type PaginationClient[T any] interface {
	FetchPage(ctx context.Context, params *QueryParams) (*Page[T], error)
}

// PageFetcherFunc adapts a function to PaginationClient.
type PageFetcherFunc[T any] func(ctx context.Context, params *QueryParams) (*Page[T], error)

// FetchPage implements PaginationClient.
func (f PageFetcherFunc[T]) FetchPage(ctx context.Context, params *QueryParams) (*Page[T], error) {
	return f(ctx, params)
}

// PaginationOptions controls multi-page fetching.
type PaginationOptions struct {
	// PageSize requested per page; zero keeps the params value or the server default.
	PageSize int
	// MaxPages stops after this many pages; zero means constants.MaxPages.
	MaxPages int
	// MaxResults stops after this many items; zero means unlimited.
	MaxResults int
	// WindowLimit is the highest p*ps the endpoint accepts; zero means none.
	WindowLimit int
}

// DefaultPaginationOptions returns default pagination options.
func DefaultPaginationOptions() *PaginationOptions {
	return &PaginationOptions{
		PageSize: constants.DefaultPageSize,
		MaxPages: constants.MaxPages,
	}
}

// ValidatePageSize rejects sizes outside 1..500.
func ValidatePageSize(pageSize int) error {
	if pageSize < 1 || pageSize > constants.MaxPageSize {
		return NewValidationError("ps", fmt.Sprintf("page size must be between 1 and %d, got %d", constants.MaxPageSize, pageSize))
	}

	return nil
}

// pageCursor walks the pages of one listing.
type pageCursor[T any] struct {
	client  PaginationClient[T]
	params  *QueryParams
	opts    PaginationOptions
	page    int
	fetched int
	items   int
	done    bool
}

func newPageCursor[T any](client PaginationClient[T], params *QueryParams, opts *PaginationOptions) (*pageCursor[T], error) {
	cursor := &pageCursor[T]{
		client: client,
		params: params.Clone(),
		opts:   PaginationOptions{MaxPages: constants.MaxPages},
	}

	if opts != nil {
		cursor.opts = *opts
		if cursor.opts.MaxPages <= 0 {
			cursor.opts.MaxPages = constants.MaxPages
		}
	}

	if cursor.opts.PageSize > 0 {
		cursor.params.PageSize = cursor.opts.PageSize
	}

	if cursor.params.PageSize != 0 {
		err := ValidatePageSize(cursor.params.PageSize)
		if err != nil {
			return nil, err
		}
	}

	cursor.page = cursor.params.Page
	if cursor.page < 1 {
		cursor.page = 1
	}

	return cursor, nil
}

// next fetches the next page, returning nil when the listing is exhausted.
func (c *pageCursor[T]) next(ctx context.Context) (*Page[T], error) {
	if c.done {
		return nil, nil
	}

	if c.fetched >= c.opts.MaxPages || c.beyondWindow() {
		c.done = true

		return nil, nil
	}

	c.params.Page = c.page

	result, err := c.client.FetchPage(ctx, c.params)
	if err != nil {
		c.done = true

		return nil, fmt.Errorf("fetching page %d: %w", c.page, err)
	}

	c.fetched++

	if result == nil || len(result.Items) == 0 {
		c.done = true

		return nil, nil
	}

	if c.opts.MaxResults > 0 && c.items+len(result.Items) >= c.opts.MaxResults {
		result.Items = result.Items[:c.opts.MaxResults-c.items]
		c.done = true
	}

	c.items += len(result.Items)

	if !c.hasMore(result) {
		c.done = true
	}

	c.page++

	return result, nil
}

// hasMore falls back to the requested cursor when the server omits fields.
func (c *pageCursor[T]) hasMore(result *Page[T]) bool {
	paging := result.Paging
	if paging.PageIndex == 0 {
		paging.PageIndex = c.page
	}

	if paging.PageSize == 0 {
		paging.PageSize = c.params.PageSize
	}

	if paging.PageSize == 0 {
		paging.PageSize = len(result.Items)
	}

	return paging.HasMore()
}

func (c *pageCursor[T]) beyondWindow() bool {
	if c.opts.WindowLimit <= 0 {
		return false
	}

	pageSize := c.params.PageSize
	if pageSize == 0 {
		pageSize = constants.DefaultPageSize
	}

	return c.page*pageSize > c.opts.WindowLimit
}

// PaginationIterator provides pull-style iteration over all items.
type PaginationIterator[T any] struct {
	ctx     context.Context
	cursor  *pageCursor[T]
	current []T
	index   int
	err     error
}

// NewPaginationIterator creates a new pagination iterator.
func NewPaginationIterator[T any](ctx context.Context, client PaginationClient[T], params *QueryParams, opts *PaginationOptions) *PaginationIterator[T] {
	cursor, err := newPageCursor(client, params, opts)

	return &PaginationIterator[T]{
		ctx:    ctx,
		cursor: cursor,
		err:    err,
	}
}

// HasNext returns true if there are more items. It fetches the next page
// when the buffered one is consumed.
func (p *PaginationIterator[T]) HasNext() bool {
	if p.err != nil {
		return true
	}

	if p.index < len(p.current) {
		return true
	}

	page, err := p.cursor.next(p.ctx)
	if err != nil {
		p.err = err

		return true
	}

	if page == nil {
		return false
	}

	p.current = page.Items
	p.index = 0

	return len(p.current) > 0
}

// Next returns the next item.
func (p *PaginationIterator[T]) Next() (T, error) {
	var zero T

	if !p.HasNext() {
		return zero, ErrNoMoreItems
	}

	if p.err != nil {
		err := p.err
		p.err = nil
		p.cursor = &pageCursor[T]{done: true}

		return zero, err
	}

	item := p.current[p.index]
	p.index++

	return item, nil
}

// All fetches all remaining items.
func (p *PaginationIterator[T]) All() ([]T, error) {
	var all []T

	for p.HasNext() {
		item, err := p.Next()
		if err != nil {
			return all, err
		}

		all = append(all, item)
	}

	return all, nil
}

// ForEach calls fn for each remaining item, stopping at the first error.
func (p *PaginationIterator[T]) ForEach(fn func(T) error) error {
	for p.HasNext() {
		item, err := p.Next()
		if err != nil {
			return err
		}

		err = fn(item)
		if err != nil {
			return err
		}
	}

	return nil
}

// FetchAllPages fetches every page and returns the concatenated items.
func FetchAllPages[T any](ctx context.Context, client PaginationClient[T], params *QueryParams, opts *PaginationOptions) ([]T, error) {
	cursor, err := newPageCursor(client, params, opts)
	if err != nil {
		return nil, err
	}

	var all []T

	for {
		page, err := cursor.next(ctx)
		if err != nil {
			return all, err
		}

		if page == nil {
			return all, nil
		}

		all = append(all, page.Items...)
	}
}

// PageResult is one element of StreamPages.
type PageResult[T any] struct {
	Items  []T
	Paging Paging
	Err    error
}

// StreamPages fetches pages in a goroutine and delivers them on a channel.
// The channel is closed after the last page, the first error, or when ctx
// is done.
func StreamPages[T any](ctx context.Context, client PaginationClient[T], params *QueryParams, opts *PaginationOptions) <-chan PageResult[T] {
	results := make(chan PageResult[T], constants.SmallBufferSize)

	go func() {
		defer close(results)

		cursor, err := newPageCursor(client, params, opts)
		if err != nil {
			results <- PageResult[T]{Err: err}

			return
		}

		for {
			page, err := cursor.next(ctx)
			if err != nil {
				select {
				case results <- PageResult[T]{Err: err}:
				case <-ctx.Done():
				}

				return
			}

			if page == nil {
				return
			}

			select {
			case results <- PageResult[T]{Items: page.Items, Paging: page.Paging}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return results
}

// Seq returns a lazy sequence over every item. Pages are fetched on demand;
// breaking out of the range loop stops fetching. A fetch error is yielded
// once as the final element.
func Seq[T any](ctx context.Context, client PaginationClient[T], params *QueryParams, opts *PaginationOptions) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		cursor, err := newPageCursor(client, params, opts)
		if err != nil {
			yield(zero, err)

			return
		}

		for {
			page, err := cursor.next(ctx)
			if err != nil {
				yield(zero, err)

				return
			}

			if page == nil {
				return
			}

			for _, item := range page.Items {
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}
