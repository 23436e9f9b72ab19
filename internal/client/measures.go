package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// MeasuresClient implements sonar.MeasuresClient.
type MeasuresClient struct {
	requester *requester
}

// NewMeasuresClient creates a new measures client.
func NewMeasuresClient(r *requester) *MeasuresClient {
	return &MeasuresClient{requester: r}
}

// Component implements sonar.MeasuresClient.Component.
func (c *MeasuresClient) Component(ctx context.Context, request *sonar.MeasuresComponentRequest) (*sonar.MeasuresComponentResponse, error) {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return nil, err
	}

	values := newForm().
		set("component", request.Component).
		list("metricKeys", request.MetricKeys).
		list("additionalFields", request.AdditionalFields).
		set("branch", request.Branch).
		set("pullRequest", request.PullRequest)

	var resp sonar.MeasuresComponentResponse

	err = c.requester.GetJSON(ctx, "/api/measures/component", values.values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("getting component measures: %w", err)
	}

	return &resp, nil
}

// ComponentTree implements sonar.MeasuresClient.ComponentTree.
func (c *MeasuresClient) ComponentTree(component string, metricKeys ...string) *sonar.ComponentTreeMeasuresBuilder {
	return sonar.NewComponentTreeMeasuresBuilder(c.requester, component, metricKeys...)
}

// SearchHistory implements sonar.MeasuresClient.SearchHistory.
func (c *MeasuresClient) SearchHistory(component string, metrics ...string) *sonar.MeasuresHistoryBuilder {
	return sonar.NewMeasuresHistoryBuilder(c.requester, component, metrics...)
}

// MetricsClient implements sonar.MetricsClient.
type MetricsClient struct {
	requester *requester
}

// NewMetricsClient creates a new metrics client.
func NewMetricsClient(r *requester) *MetricsClient {
	return &MetricsClient{requester: r}
}

// Search implements sonar.MetricsClient.Search.
func (c *MetricsClient) Search() *sonar.MetricsSearchBuilder {
	return sonar.NewMetricsSearchBuilder(c.requester)
}

// Types implements sonar.MetricsClient.Types.
func (c *MetricsClient) Types(ctx context.Context) ([]string, error) {
	var resp sonar.MetricTypesResponse

	err := c.requester.GetJSON(ctx, "/api/metrics/types", nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("listing metric types: %w", err)
	}

	return resp.Types, nil
}
