package sonar

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/fivetwenty-io/sonar-client/internal/constants"
)

// Requester performs GET requests for builders. internal/client provides
// the implementation backed by the shared HTTP client.
type Requester interface {
	GetJSON(ctx context.Context, path string, query url.Values, out interface{}) error
}

// Builder accumulates optional parameters for a paginated search endpoint.
// B is the concrete builder type returned by the fluent setters, T the item
// type and R the decoded page response.
type Builder[B any, T any, R Pager[T]] struct {
	self        B
	requester   Requester
	path        string
	params      *QueryParams
	required    []string
	windowLimit int
	newResponse func() R
	checks      []func(*QueryParams) error
	errs        []error
}

// NewBuilder wires a builder. Concrete builders call it from their
// constructor with themselves as self.
func NewBuilder[B any, T any, R Pager[T]](self B, requester Requester, path string, newResponse func() R) Builder[B, T, R] {
	return Builder[B, T, R]{
		self:        self,
		requester:   requester,
		path:        path,
		params:      NewQueryParams(),
		newResponse: newResponse,
	}
}

// Require marks parameters that must be set before Execute.
func (b *Builder[B, T, R]) Require(keys ...string) {
	b.required = append(b.required, keys...)
}

// AddCheck registers a validation run against the parameters before any
// request, for constraints that span several parameters.
func (b *Builder[B, T, R]) AddCheck(check func(*QueryParams) error) {
	b.checks = append(b.checks, check)
}

// LimitWindow stops iteration at the search index result window.
func (b *Builder[B, T, R]) LimitWindow() {
	b.windowLimit = constants.SearchWindowLimit
}

// Params returns the accumulated parameters.
func (b *Builder[B, T, R]) Params() *QueryParams {
	return b.params
}

// WithPage sets the 1-based page index.
func (b *Builder[B, T, R]) WithPage(page int) B {
	if page < 1 {
		b.errs = append(b.errs, NewValidationError("p", "page index must be at least 1, got "+strconv.Itoa(page)))
	}

	b.params.Page = page

	return b.self
}

// WithPageSize sets the page size, 1 to 500.
func (b *Builder[B, T, R]) WithPageSize(pageSize int) B {
	err := ValidatePageSize(pageSize)
	if err != nil {
		b.errs = append(b.errs, err)
	}

	b.params.PageSize = pageSize

	return b.self
}

// WithSort sets the sort field and direction.
func (b *Builder[B, T, R]) WithSort(field string, ascending bool) B {
	b.params.WithSort(field, ascending)

	return b.self
}

// WithParam sets an arbitrary parameter, for options without a dedicated
// setter. Empty values clear it.
func (b *Builder[B, T, R]) WithParam(key, value string) B {
	b.params.Set(key, value)

	return b.self
}

// SetList appends to a comma-joined list parameter.
func (b *Builder[B, T, R]) SetList(key string, values ...string) B {
	b.params.WithFilter(key, values...)

	return b.self
}

// SetBool sets a boolean parameter.
func (b *Builder[B, T, R]) SetBool(key string, value bool) B {
	b.params.SetBool(key, value)

	return b.self
}

// SetInt sets an integer parameter.
func (b *Builder[B, T, R]) SetInt(key string, value int) B {
	b.params.Set(key, strconv.Itoa(value))

	return b.self
}

// SetDate sets a date parameter in the yyyy-MM-dd form.
func (b *Builder[B, T, R]) SetDate(key string, value time.Time) B {
	b.params.Set(key, value.Format(time.DateOnly))

	return b.self
}

// SetEnum validates a value against the allowed set before storing it.
func (b *Builder[B, T, R]) SetEnum(key string, allowed []string, values ...string) B {
	for _, value := range values {
		err := validation.Validate(value, validation.In(toInterfaces(allowed)...))
		if err != nil {
			b.errs = append(b.errs, NewValidationError(key,
				fmt.Sprintf("%q is not one of %s", value, strings.Join(allowed, ", "))))

			return b.self
		}
	}

	b.params.WithFilter(key, values...)

	return b.self
}

// validate reports the first setter error or missing required parameter.
func (b *Builder[B, T, R]) validate() error {
	if len(b.errs) > 0 {
		return b.errs[0]
	}

	for _, key := range b.required {
		err := validation.Validate(b.params.Get(key), validation.Required)
		if err != nil {
			return NewValidationError(key, "parameter is required")
		}
	}

	for _, check := range b.checks {
		err := check(b.params)
		if err != nil {
			return err
		}
	}

	return nil
}

// Execute issues a single request for the current page.
func (b *Builder[B, T, R]) Execute(ctx context.Context) (R, error) {
	var zero R

	err := b.validate()
	if err != nil {
		return zero, err
	}

	return b.fetch(ctx, b.params)
}

func (b *Builder[B, T, R]) fetch(ctx context.Context, params *QueryParams) (R, error) {
	var zero R

	response := b.newResponse()

	err := b.requester.GetJSON(ctx, b.path, params.ToValues(), response)
	if err != nil {
		return zero, fmt.Errorf("searching %s: %w", b.path, err)
	}

	return response, nil
}

// FetchPage implements PaginationClient.
func (b *Builder[B, T, R]) FetchPage(ctx context.Context, params *QueryParams) (*Page[T], error) {
	response, err := b.fetch(ctx, params)
	if err != nil {
		return nil, err
	}

	return &Page[T]{Items: response.PageItems(), Paging: response.PageInfo()}, nil
}

func (b *Builder[B, T, R]) paginationOptions() *PaginationOptions {
	return &PaginationOptions{
		MaxPages:    constants.MaxPages,
		WindowLimit: b.windowLimit,
	}
}

// All returns a lazy sequence across all pages, starting at the configured
// page. Fetching stops when the range loop breaks.
func (b *Builder[B, T, R]) All(ctx context.Context) iter.Seq2[T, error] {
	err := b.validate()
	if err != nil {
		return func(yield func(T, error) bool) {
			var zero T

			yield(zero, err)
		}
	}

	return Seq[T](ctx, b, b.params, b.paginationOptions())
}

// Iterator returns a pull-style iterator across all pages.
func (b *Builder[B, T, R]) Iterator(ctx context.Context) *PaginationIterator[T] {
	err := b.validate()
	if err != nil {
		failing := PageFetcherFunc[T](func(context.Context, *QueryParams) (*Page[T], error) {
			return nil, err
		})

		return NewPaginationIterator[T](ctx, failing, b.params, nil)
	}

	return NewPaginationIterator[T](ctx, b, b.params, b.paginationOptions())
}

// Collect fetches every page and returns all items.
func (b *Builder[B, T, R]) Collect(ctx context.Context) ([]T, error) {
	err := b.validate()
	if err != nil {
		return nil, err
	}

	return FetchAllPages[T](ctx, b, b.params, b.paginationOptions())
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}

	return out
}
