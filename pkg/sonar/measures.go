package sonar

import (
	"context"
	"iter"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Common metric keys.
const (
	MetricBugs                   = "bugs"
	MetricVulnerabilities        = "vulnerabilities"
	MetricCodeSmells             = "code_smells"
	MetricCoverage               = "coverage"
	MetricDuplicatedLinesDensity = "duplicated_lines_density"
	MetricNcloc                  = "ncloc"
	MetricAlertStatus            = "alert_status"
	MetricSecurityHotspots       = "security_hotspots"
	MetricSqaleRating            = "sqale_rating"
	MetricReliabilityRating      = "reliability_rating"
	MetricSecurityRating         = "security_rating"
)

// PeriodValue is a measure value on the new code period.
type PeriodValue struct {
	Index     int    `json:"index,omitempty"     yaml:"index,omitempty"`
	Value     string `json:"value"               yaml:"value"`
	BestValue bool   `json:"bestValue,omitempty" yaml:"best_value,omitempty"`
}

// Measure is the value of one metric on a component.
type Measure struct {
	Metric    string        `json:"metric"              yaml:"metric"`
	Value     string        `json:"value,omitempty"     yaml:"value,omitempty"`
	BestValue bool          `json:"bestValue,omitempty" yaml:"best_value,omitempty"`
	Period    *PeriodValue  `json:"period,omitempty"    yaml:"period,omitempty"`
	Periods   []PeriodValue `json:"periods,omitempty"   yaml:"periods,omitempty"`
}

// MeasuredComponent is a component with its measures.
type MeasuredComponent struct {
	Component

	Measures []Measure `json:"measures" yaml:"measures"`
}

// MeasureValue returns the value of metric and whether it was reported.
func (c *MeasuredComponent) MeasureValue(metric string) (string, bool) {
	for _, measure := range c.Measures {
		if measure.Metric == metric {
			return measure.Value, true
		}
	}

	return "", false
}

// Period describes the new code period used for period values.
type Period struct {
	Mode      string `json:"mode"                yaml:"mode"`
	Date      string `json:"date,omitempty"      yaml:"date,omitempty"`
	Parameter string `json:"parameter,omitempty" yaml:"parameter,omitempty"`
}

// MeasuresComponentRequest selects measures of one component.
type MeasuresComponentRequest struct {
	Component        string   `json:"component"                  yaml:"component"`
	MetricKeys       []string `json:"metricKeys"                 yaml:"metric_keys"`
	AdditionalFields []string `json:"additionalFields,omitempty" yaml:"additional_fields,omitempty"`
	Branch           string   `json:"branch,omitempty"           yaml:"branch,omitempty"`
	PullRequest      string   `json:"pullRequest,omitempty"      yaml:"pull_request,omitempty"`
}

// Validate implements validation.Validatable.
func (r *MeasuresComponentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Component, keyRules...),
		validation.Field(&r.MetricKeys, validation.Required, validation.Each(validation.Required)),
		validation.Field(&r.AdditionalFields, validation.Each(validation.In("metrics", "period", "periods"))),
	)
}

// MeasuresComponentResponse holds the measures of one component.
type MeasuresComponentResponse struct {
	Component MeasuredComponent `json:"component"         yaml:"component"`
	Metrics   []Metric          `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Period    *Period           `json:"period,omitempty"  yaml:"period,omitempty"`
}

// ComponentTreeMeasuresResponse is a page of /api/measures/component_tree.
type ComponentTreeMeasuresResponse struct {
	PageEnvelope

	BaseComponent MeasuredComponent   `json:"baseComponent"     yaml:"base_component"`
	Components    []MeasuredComponent `json:"components"        yaml:"components"`
	Metrics       []Metric            `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// PageItems implements Pager.
func (r *ComponentTreeMeasuresResponse) PageItems() []MeasuredComponent { return r.Components }

// ComponentTreeMeasuresBuilder reads measures across a component tree.
type ComponentTreeMeasuresBuilder struct {
	Builder[*ComponentTreeMeasuresBuilder, MeasuredComponent, *ComponentTreeMeasuresResponse]
}

// NewComponentTreeMeasuresBuilder creates a builder for
// /api/measures/component_tree.
func NewComponentTreeMeasuresBuilder(requester Requester, component string, metricKeys ...string) *ComponentTreeMeasuresBuilder {
	b := &ComponentTreeMeasuresBuilder{}
	b.Builder = NewBuilder[*ComponentTreeMeasuresBuilder, MeasuredComponent](b, requester, "/api/measures/component_tree",
		func() *ComponentTreeMeasuresResponse { return &ComponentTreeMeasuresResponse{} })
	b.Require("component", "metricKeys")
	b.WithParam("component", component)
	b.SetList("metricKeys", metricKeys...)
	b.LimitWindow()

	return b
}

// Branch selects a branch.
func (b *ComponentTreeMeasuresBuilder) Branch(branch string) *ComponentTreeMeasuresBuilder {
	return b.WithParam("branch", branch)
}

// Qualifiers restricts the component types.
func (b *ComponentTreeMeasuresBuilder) Qualifiers(values ...string) *ComponentTreeMeasuresBuilder {
	return b.SetEnum("qualifiers", qualifiers, values...)
}

// Strategy is all, children or leaves.
func (b *ComponentTreeMeasuresBuilder) Strategy(strategy string) *ComponentTreeMeasuresBuilder {
	return b.SetEnum("strategy", []string{TreeStrategyAll, TreeStrategyChildren, TreeStrategyLeaves}, strategy)
}

// MetricSort sorts on the value of a metric; use WithSort("metric", asc).
func (b *ComponentTreeMeasuresBuilder) MetricSort(metric string) *ComponentTreeMeasuresBuilder {
	return b.WithParam("metricSort", metric)
}

// AdditionalFields requests metrics, period or periods.
func (b *ComponentTreeMeasuresBuilder) AdditionalFields(fields ...string) *ComponentTreeMeasuresBuilder {
	return b.SetEnum("additionalFields", []string{"metrics", "period", "periods"}, fields...)
}

// HistoryValue is one point of a measure history.
type HistoryValue struct {
	Date  string `json:"date"            yaml:"date"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

// MeasureHistory is the history of one metric.
type MeasureHistory struct {
	Metric  string         `json:"metric"  yaml:"metric"`
	History []HistoryValue `json:"history" yaml:"history"`
}

// MeasuresHistoryResponse is a page of /api/measures/search_history. Pages
// advance through the analyses, each page carrying every metric.
type MeasuresHistoryResponse struct {
	PageEnvelope

	Measures []MeasureHistory `json:"measures" yaml:"measures"`
}

// PageItems implements Pager.
func (r *MeasuresHistoryResponse) PageItems() []MeasureHistory { return r.Measures }

// MeasuresHistoryBuilder reads the history of metrics of a component.
type MeasuresHistoryBuilder struct {
	Builder[*MeasuresHistoryBuilder, MeasureHistory, *MeasuresHistoryResponse]
}

// NewMeasuresHistoryBuilder creates a builder for /api/measures/search_history.
func NewMeasuresHistoryBuilder(requester Requester, component string, metrics ...string) *MeasuresHistoryBuilder {
	b := &MeasuresHistoryBuilder{}
	b.Builder = NewBuilder[*MeasuresHistoryBuilder, MeasureHistory](b, requester, "/api/measures/search_history",
		func() *MeasuresHistoryResponse { return &MeasuresHistoryResponse{} })
	b.Require("component", "metrics")
	b.WithParam("component", component)
	b.SetList("metrics", metrics...)

	return b
}

// Branch selects a branch.
func (b *MeasuresHistoryBuilder) Branch(branch string) *MeasuresHistoryBuilder {
	return b.WithParam("branch", branch)
}

// From keeps analyses on or after date.
func (b *MeasuresHistoryBuilder) From(date time.Time) *MeasuresHistoryBuilder {
	return b.SetDate("from", date)
}

// To keeps analyses on or before date.
func (b *MeasuresHistoryBuilder) To(date time.Time) *MeasuresHistoryBuilder {
	return b.SetDate("to", date)
}

// Collect walks every page and returns one entry per metric, its history
// concatenated in page order.
func (b *MeasuresHistoryBuilder) Collect(ctx context.Context) ([]MeasureHistory, error) {
	fragments, err := b.Builder.Collect(ctx)
	if err != nil {
		return nil, err
	}

	return MergeMeasureHistories(fragments), nil
}

// All yields the merged history of each metric. Every page is fetched
// before the first metric is yielded.
func (b *MeasuresHistoryBuilder) All(ctx context.Context) iter.Seq2[MeasureHistory, error] {
	return func(yield func(MeasureHistory, error) bool) {
		merged, err := b.Collect(ctx)
		if err != nil {
			yield(MeasureHistory{}, err)

			return
		}

		for _, history := range merged {
			if !yield(history, nil) {
				return
			}
		}
	}
}

// Iterator returns a pull-style iterator over the merged histories.
func (b *MeasuresHistoryBuilder) Iterator(ctx context.Context) *PaginationIterator[MeasureHistory] {
	merged := PageFetcherFunc[MeasureHistory](func(ctx context.Context, _ *QueryParams) (*Page[MeasureHistory], error) {
		items, err := b.Collect(ctx)
		if err != nil {
			return nil, err
		}

		return &Page[MeasureHistory]{
			Items:  items,
			Paging: Paging{PageIndex: 1, PageSize: len(items), Total: len(items)},
		}, nil
	})

	return NewPaginationIterator[MeasureHistory](ctx, merged, NewQueryParams(), nil)
}

// MergeMeasureHistories joins the per-page fragments of search_history into
// one entry per metric, keeping first-seen metric order.
func MergeMeasureHistories(fragments []MeasureHistory) []MeasureHistory {
	index := make(map[string]int, len(fragments))
	merged := make([]MeasureHistory, 0, len(fragments))

	for _, fragment := range fragments {
		i, seen := index[fragment.Metric]
		if !seen {
			index[fragment.Metric] = len(merged)
			merged = append(merged, MeasureHistory{Metric: fragment.Metric, History: []HistoryValue{}})
			i = len(merged) - 1
		}

		merged[i].History = append(merged[i].History, fragment.History...)
	}

	return merged
}

// MeasuresClient reads measures.
type MeasuresClient interface {
	Component(ctx context.Context, request *MeasuresComponentRequest) (*MeasuresComponentResponse, error)
	ComponentTree(component string, metricKeys ...string) *ComponentTreeMeasuresBuilder
	SearchHistory(component string, metrics ...string) *MeasuresHistoryBuilder
}

// Metric describes a metric.
type Metric struct {
	ID          string `json:"id,omitempty"          yaml:"id,omitempty"`
	Key         string `json:"key"                   yaml:"key"`
	Name        string `json:"name"                  yaml:"name"`
	Type        string `json:"type"                  yaml:"type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Domain      string `json:"domain,omitempty"      yaml:"domain,omitempty"`
	Direction   int    `json:"direction,omitempty"   yaml:"direction,omitempty"`
	Qualitative bool   `json:"qualitative"           yaml:"qualitative"`
	Hidden      bool   `json:"hidden"                yaml:"hidden"`
	Custom      bool   `json:"custom,omitempty"      yaml:"custom,omitempty"`
}

// MetricsSearchResponse is a page of /api/metrics/search.
type MetricsSearchResponse struct {
	PageEnvelope

	Metrics []Metric `json:"metrics" yaml:"metrics"`
}

// PageItems implements Pager.
func (r *MetricsSearchResponse) PageItems() []Metric { return r.Metrics }

// MetricsSearchBuilder lists metrics.
type MetricsSearchBuilder struct {
	Builder[*MetricsSearchBuilder, Metric, *MetricsSearchResponse]
}

// NewMetricsSearchBuilder creates a builder for /api/metrics/search.
func NewMetricsSearchBuilder(requester Requester) *MetricsSearchBuilder {
	b := &MetricsSearchBuilder{}
	b.Builder = NewBuilder[*MetricsSearchBuilder, Metric](b, requester, "/api/metrics/search",
		func() *MetricsSearchResponse { return &MetricsSearchResponse{} })

	return b
}

// MetricTypesResponse lists metric value types.
type MetricTypesResponse struct {
	Types []string `json:"types" yaml:"types"`
}

// MetricsClient reads metric definitions.
type MetricsClient interface {
	Search() *MetricsSearchBuilder
	Types(ctx context.Context) ([]string, error)
}
