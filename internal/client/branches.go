package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// ProjectBranchesClient implements sonar.ProjectBranchesClient.
type ProjectBranchesClient struct {
	requester *requester
}

// NewProjectBranchesClient creates a new project branches client.
func NewProjectBranchesClient(r *requester) *ProjectBranchesClient {
	return &ProjectBranchesClient{requester: r}
}

// List implements sonar.ProjectBranchesClient.List.
func (c *ProjectBranchesClient) List(ctx context.Context, project string) ([]sonar.Branch, error) {
	err := requireKey("project", project)
	if err != nil {
		return nil, err
	}

	var resp sonar.BranchesResponse

	err = c.requester.GetJSON(ctx, "/api/project_branches/list", url.Values{"project": {project}}, &resp)
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}

	return resp.Branches, nil
}

// Delete implements sonar.ProjectBranchesClient.Delete.
func (c *ProjectBranchesClient) Delete(ctx context.Context, project, branch string) error {
	return c.post(ctx, "/api/project_branches/delete", "deleting branch",
		map[string]string{"project": project, "branch": branch})
}

// Rename implements sonar.ProjectBranchesClient.Rename.
func (c *ProjectBranchesClient) Rename(ctx context.Context, project, name string) error {
	return c.post(ctx, "/api/project_branches/rename", "renaming branch",
		map[string]string{"project": project, "name": name})
}

// SetAutomaticDeletionProtection implements
// sonar.ProjectBranchesClient.SetAutomaticDeletionProtection.
func (c *ProjectBranchesClient) SetAutomaticDeletionProtection(ctx context.Context, project, branch string, protected bool) error {
	return c.post(ctx, "/api/project_branches/set_automatic_deletion_protection", "setting branch protection",
		map[string]string{"project": project, "branch": branch, "value": strconv.FormatBool(protected)})
}

// SetMain implements sonar.ProjectBranchesClient.SetMain.
func (c *ProjectBranchesClient) SetMain(ctx context.Context, project, branch string) error {
	return c.post(ctx, "/api/project_branches/set_main", "setting main branch",
		map[string]string{"project": project, "branch": branch})
}

func (c *ProjectBranchesClient) post(ctx context.Context, path, action string, params map[string]string) error {
	err := c.requester.postRequired(ctx, path, params)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}

	return nil
}

// ProjectAnalysesClient implements sonar.ProjectAnalysesClient.
type ProjectAnalysesClient struct {
	requester *requester
}

// NewProjectAnalysesClient creates a new project analyses client.
func NewProjectAnalysesClient(r *requester) *ProjectAnalysesClient {
	return &ProjectAnalysesClient{requester: r}
}

// Search implements sonar.ProjectAnalysesClient.Search.
func (c *ProjectAnalysesClient) Search(project string) *sonar.AnalysesSearchBuilder {
	return sonar.NewAnalysesSearchBuilder(c.requester, project)
}

// Delete implements sonar.ProjectAnalysesClient.Delete.
func (c *ProjectAnalysesClient) Delete(ctx context.Context, analysis string) error {
	err := requireKey("analysis", analysis)
	if err != nil {
		return err
	}

	err = c.requester.postForm(ctx, "/api/project_analyses/delete", url.Values{"analysis": {analysis}}, nil)
	if err != nil {
		return fmt.Errorf("deleting analysis: %w", err)
	}

	return nil
}

// CreateEvent implements sonar.ProjectAnalysesClient.CreateEvent.
func (c *ProjectAnalysesClient) CreateEvent(ctx context.Context, request *sonar.AnalysisEventCreateRequest) (*sonar.AnalysisEvent, error) {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return nil, err
	}

	values := newForm().
		set("analysis", request.Analysis).
		set("name", request.Name).
		set("category", request.Category)

	var resp struct {
		Event sonar.AnalysisEvent `json:"event"`
	}

	err = c.requester.postForm(ctx, "/api/project_analyses/create_event", values.values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("creating analysis event: %w", err)
	}

	return &resp.Event, nil
}

// DeleteEvent implements sonar.ProjectAnalysesClient.DeleteEvent.
func (c *ProjectAnalysesClient) DeleteEvent(ctx context.Context, event string) error {
	err := requireKey("event", event)
	if err != nil {
		return err
	}

	err = c.requester.postForm(ctx, "/api/project_analyses/delete_event", url.Values{"event": {event}}, nil)
	if err != nil {
		return fmt.Errorf("deleting analysis event: %w", err)
	}

	return nil
}

// NewCodePeriodsClient implements sonar.NewCodePeriodsClient.
type NewCodePeriodsClient struct {
	requester *requester
}

// NewNewCodePeriodsClient creates a new code periods client.
func NewNewCodePeriodsClient(r *requester) *NewCodePeriodsClient {
	return &NewCodePeriodsClient{requester: r}
}

// Show implements sonar.NewCodePeriodsClient.Show. An empty project shows
// the instance default.
func (c *NewCodePeriodsClient) Show(ctx context.Context, project, branch string) (*sonar.NewCodePeriod, error) {
	values, err := periodScope(project, branch)
	if err != nil {
		return nil, err
	}

	var period sonar.NewCodePeriod

	err = c.requester.GetJSON(ctx, "/api/new_code_periods/show", values, &period)
	if err != nil {
		return nil, fmt.Errorf("getting new code period: %w", err)
	}

	return &period, nil
}

// Set implements sonar.NewCodePeriodsClient.Set.
func (c *NewCodePeriodsClient) Set(ctx context.Context, request *sonar.NewCodePeriodSetRequest) error {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return err
	}

	values := newForm().
		set("project", request.Project).
		set("branch", request.Branch).
		set("type", request.Type).
		set("value", request.Value)

	err = c.requester.postForm(ctx, "/api/new_code_periods/set", values.values(), nil)
	if err != nil {
		return fmt.Errorf("setting new code period: %w", err)
	}

	return nil
}

// Unset implements sonar.NewCodePeriodsClient.Unset.
func (c *NewCodePeriodsClient) Unset(ctx context.Context, project, branch string) error {
	values, err := periodScope(project, branch)
	if err != nil {
		return err
	}

	err = c.requester.postForm(ctx, "/api/new_code_periods/unset", values, nil)
	if err != nil {
		return fmt.Errorf("unsetting new code period: %w", err)
	}

	return nil
}

// List implements sonar.NewCodePeriodsClient.List.
func (c *NewCodePeriodsClient) List(ctx context.Context, project string) ([]sonar.NewCodePeriod, error) {
	err := requireKey("project", project)
	if err != nil {
		return nil, err
	}

	var resp sonar.NewCodePeriodsResponse

	err = c.requester.GetJSON(ctx, "/api/new_code_periods/list", url.Values{"project": {project}}, &resp)
	if err != nil {
		return nil, fmt.Errorf("listing new code periods: %w", err)
	}

	return resp.NewCodePeriods, nil
}

func periodScope(project, branch string) (url.Values, error) {
	if branch != "" && project == "" {
		return nil, sonar.NewValidationError("project", "branch requires project")
	}

	return newForm().set("project", project).set("branch", branch).values(), nil
}
