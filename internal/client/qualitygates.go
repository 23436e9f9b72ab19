package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/sonar-client/internal/constants"
	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// QualityGatesClient implements sonar.QualityGatesClient.
type QualityGatesClient struct {
	requester *requester
}

// NewQualityGatesClient creates a new quality gates client.
func NewQualityGatesClient(r *requester) *QualityGatesClient {
	return &QualityGatesClient{requester: r}
}

// List implements sonar.QualityGatesClient.List.
func (c *QualityGatesClient) List(ctx context.Context) (*sonar.QualityGatesListResponse, error) {
	var resp sonar.QualityGatesListResponse

	err := c.requester.GetJSON(ctx, "/api/qualitygates/list", nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("listing quality gates: %w", err)
	}

	return &resp, nil
}

// Show implements sonar.QualityGatesClient.Show.
func (c *QualityGatesClient) Show(ctx context.Context, name string) (*sonar.QualityGate, error) {
	err := requireKey("name", name)
	if err != nil {
		return nil, err
	}

	var gate sonar.QualityGate

	err = c.requester.GetJSON(ctx, "/api/qualitygates/show", url.Values{"name": {name}}, &gate)
	if err != nil {
		return nil, fmt.Errorf("getting quality gate: %w", err)
	}

	return &gate, nil
}

// Create implements sonar.QualityGatesClient.Create.
func (c *QualityGatesClient) Create(ctx context.Context, name string) (*sonar.QualityGateCreateResponse, error) {
	err := requireKey("name", name)
	if err != nil {
		return nil, err
	}

	var resp sonar.QualityGateCreateResponse

	err = c.requester.postForm(ctx, "/api/qualitygates/create", url.Values{"name": {name}}, &resp)
	if err != nil {
		return nil, fmt.Errorf("creating quality gate: %w", err)
	}

	return &resp, nil
}

// Destroy implements sonar.QualityGatesClient.Destroy.
func (c *QualityGatesClient) Destroy(ctx context.Context, name string) error {
	return c.post(ctx, "/api/qualitygates/destroy", "deleting quality gate", map[string]string{"name": name})
}

// Rename implements sonar.QualityGatesClient.Rename.
func (c *QualityGatesClient) Rename(ctx context.Context, currentName, name string) error {
	return c.post(ctx, "/api/qualitygates/rename", "renaming quality gate",
		map[string]string{"currentName": currentName, "name": name})
}

// Copy implements sonar.QualityGatesClient.Copy.
func (c *QualityGatesClient) Copy(ctx context.Context, sourceName, name string) error {
	return c.post(ctx, "/api/qualitygates/copy", "copying quality gate",
		map[string]string{"sourceName": sourceName, "name": name})
}

// SetAsDefault implements sonar.QualityGatesClient.SetAsDefault.
func (c *QualityGatesClient) SetAsDefault(ctx context.Context, name string) error {
	return c.post(ctx, "/api/qualitygates/set_as_default", "setting default quality gate", map[string]string{"name": name})
}

// Select implements sonar.QualityGatesClient.Select.
func (c *QualityGatesClient) Select(ctx context.Context, gateName, project string) error {
	return c.post(ctx, "/api/qualitygates/select", "selecting quality gate",
		map[string]string{"gateName": gateName, "projectKey": project})
}

// Deselect implements sonar.QualityGatesClient.Deselect.
func (c *QualityGatesClient) Deselect(ctx context.Context, project string) error {
	return c.post(ctx, "/api/qualitygates/deselect", "deselecting quality gate", map[string]string{"projectKey": project})
}

// GetByProject implements sonar.QualityGatesClient.GetByProject.
func (c *QualityGatesClient) GetByProject(ctx context.Context, project string) (*sonar.QualityGate, error) {
	err := requireKey("project", project)
	if err != nil {
		return nil, err
	}

	var resp sonar.GateProjectResponse

	err = c.requester.GetJSON(ctx, "/api/qualitygates/get_by_project", url.Values{"project": {project}}, &resp)
	if err != nil {
		return nil, fmt.Errorf("getting project quality gate: %w", err)
	}

	return &resp.QualityGate, nil
}

// CreateCondition implements sonar.QualityGatesClient.CreateCondition.
func (c *QualityGatesClient) CreateCondition(ctx context.Context, request *sonar.ConditionRequest) (*sonar.QualityGateCondition, error) {
	if request != nil && request.ID != "" {
		return nil, sonar.NewValidationError("id", "must be empty when creating a condition")
	}

	err := sonar.ValidateRequest(request)
	if err != nil {
		return nil, err
	}

	values := url.Values{
		"gateName": {request.GateName},
		"metric":   {request.Metric},
		"op":       {request.Op},
		"error":    {request.Error},
	}

	var condition sonar.QualityGateCondition

	err = c.requester.postForm(ctx, "/api/qualitygates/create_condition", values, &condition)
	if err != nil {
		return nil, fmt.Errorf("creating quality gate condition: %w", err)
	}

	return &condition, nil
}

// UpdateCondition implements sonar.QualityGatesClient.UpdateCondition.
func (c *QualityGatesClient) UpdateCondition(ctx context.Context, request *sonar.ConditionRequest) error {
	if request != nil && request.ID == "" {
		return sonar.NewValidationError("id", "parameter is required")
	}

	err := sonar.ValidateRequest(request)
	if err != nil {
		return err
	}

	values := url.Values{
		"id":     {request.ID},
		"metric": {request.Metric},
		"op":     {request.Op},
		"error":  {request.Error},
	}

	err = c.requester.postForm(ctx, "/api/qualitygates/update_condition", values, nil)
	if err != nil {
		return fmt.Errorf("updating quality gate condition: %w", err)
	}

	return nil
}

// DeleteCondition implements sonar.QualityGatesClient.DeleteCondition.
func (c *QualityGatesClient) DeleteCondition(ctx context.Context, id string) error {
	return c.post(ctx, "/api/qualitygates/delete_condition", "deleting quality gate condition", map[string]string{"id": id})
}

// ProjectStatus implements sonar.QualityGatesClient.ProjectStatus.
func (c *QualityGatesClient) ProjectStatus(ctx context.Context, request *sonar.ProjectStatusRequest) (*sonar.ProjectStatus, error) {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return nil, err
	}

	values := newForm().
		set("analysisId", request.AnalysisID).
		set("projectKey", request.ProjectKey).
		set("projectId", request.ProjectID).
		set("branch", request.Branch).
		set("pullRequest", request.PullRequest)

	var resp sonar.ProjectStatusResponse

	err = c.requester.GetJSON(ctx, "/api/qualitygates/project_status", values.values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("getting project status: %w", err)
	}

	return &resp.ProjectStatus, nil
}

// ProjectStatuses implements sonar.QualityGatesClient.ProjectStatuses.
// Projects that fail keep a nil Status and are reported in the aggregated
// error.
func (c *QualityGatesClient) ProjectStatuses(ctx context.Context, projects []string) ([]sonar.ProjectGateStatus, error) {
	statuses, err := sonar.MapConcurrent(ctx, projects, constants.DefaultConcurrencyLimit,
		func(ctx context.Context, project string) (*sonar.ProjectStatus, error) {
			status, statusErr := c.ProjectStatus(ctx, &sonar.ProjectStatusRequest{ProjectKey: project})
			if statusErr != nil {
				return nil, fmt.Errorf("%s: %w", project, statusErr)
			}

			return status, nil
		})

	results := make([]sonar.ProjectGateStatus, len(projects))
	for i, project := range projects {
		results[i] = sonar.ProjectGateStatus{Project: project, Status: statuses[i]}
	}

	return results, err
}

func (c *QualityGatesClient) post(ctx context.Context, path, action string, params map[string]string) error {
	err := c.requester.postRequired(ctx, path, params)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}

	return nil
}
