package sonar

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// QueryParams accumulates query-string parameters for list and search
// endpoints. Multi-valued filters are sent comma-separated, the form every
// Web API endpoint accepts.
type QueryParams struct {
	Page      int
	PageSize  int
	Sort      string
	Ascending *bool
	Fields    []string
	Filters   map[string][]string
}

// NewQueryParams creates new query parameters.
func NewQueryParams() *QueryParams {
	return &QueryParams{
		Filters: make(map[string][]string),
	}
}

// WithPage sets the 1-based page index (p).
func (q *QueryParams) WithPage(page int) *QueryParams {
	q.Page = page

	return q
}

// WithPageSize sets the page size (ps).
func (q *QueryParams) WithPageSize(pageSize int) *QueryParams {
	q.PageSize = pageSize

	return q
}

// WithSort sets the sort field (s) and direction (asc).
func (q *QueryParams) WithSort(field string, ascending bool) *QueryParams {
	q.Sort = field
	q.Ascending = &ascending

	return q
}

// WithFields appends response fields (f).
func (q *QueryParams) WithFields(fields ...string) *QueryParams {
	q.Fields = append(q.Fields, fields...)

	return q
}

// WithFilter appends values to a filter.
func (q *QueryParams) WithFilter(key string, values ...string) *QueryParams {
	if q.Filters == nil {
		q.Filters = make(map[string][]string)
	}

	q.Filters[key] = append(q.Filters[key], values...)

	return q
}

// Set replaces a filter with a single value. Empty values remove it.
func (q *QueryParams) Set(key, value string) *QueryParams {
	if q.Filters == nil {
		q.Filters = make(map[string][]string)
	}

	if value == "" {
		delete(q.Filters, key)

		return q
	}

	q.Filters[key] = []string{value}

	return q
}

// SetBool sets a boolean filter.
func (q *QueryParams) SetBool(key string, value bool) *QueryParams {
	return q.Set(key, strconv.FormatBool(value))
}

// Get returns the joined value of a filter.
func (q *QueryParams) Get(key string) string {
	return strings.Join(q.Filters[key], ",")
}

// Has reports whether a filter is set.
func (q *QueryParams) Has(key string) bool {
	return len(q.Filters[key]) > 0
}

// Clone returns a deep copy.
func (q *QueryParams) Clone() *QueryParams {
	if q == nil {
		return NewQueryParams()
	}

	clone := &QueryParams{
		Page:     q.Page,
		PageSize: q.PageSize,
		Sort:     q.Sort,
		Fields:   slices.Clone(q.Fields),
		Filters:  make(map[string][]string, len(q.Filters)),
	}

	if q.Ascending != nil {
		asc := *q.Ascending
		clone.Ascending = &asc
	}

	for key, values := range q.Filters {
		clone.Filters[key] = slices.Clone(values)
	}

	return clone
}

// ToValues converts to url.Values.
func (q *QueryParams) ToValues() url.Values {
	values := url.Values{}

	if q == nil {
		return values
	}

	if q.Page > 0 {
		values.Set("p", strconv.Itoa(q.Page))
	}

	if q.PageSize > 0 {
		values.Set("ps", strconv.Itoa(q.PageSize))
	}

	if q.Sort != "" {
		values.Set("s", q.Sort)
	}

	if q.Ascending != nil {
		values.Set("asc", strconv.FormatBool(*q.Ascending))
	}

	if len(q.Fields) > 0 {
		values.Set("f", strings.Join(q.Fields, ","))
	}

	for key, vals := range q.Filters {
		if len(vals) > 0 {
			values.Set(key, strings.Join(vals, ","))
		}
	}

	return values
}
