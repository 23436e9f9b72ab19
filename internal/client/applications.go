package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// ApplicationsClient implements sonar.ApplicationsClient.
type ApplicationsClient struct {
	requester *requester
}

// NewApplicationsClient creates a new applications client.
func NewApplicationsClient(r *requester) *ApplicationsClient {
	return &ApplicationsClient{requester: r}
}

// Create implements sonar.ApplicationsClient.Create.
func (c *ApplicationsClient) Create(ctx context.Context, request *sonar.ApplicationCreateRequest) (*sonar.Application, error) {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return nil, err
	}

	values := newForm().
		set("name", request.Name).
		set("key", request.Key).
		set("description", request.Description).
		set("visibility", request.Visibility)

	var resp sonar.ApplicationResponse

	err = c.requester.postForm(ctx, "/api/applications/create", values.values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("creating application: %w", err)
	}

	return &resp.Application, nil
}

// Show implements sonar.ApplicationsClient.Show. An empty branch shows the
// main branch.
func (c *ApplicationsClient) Show(ctx context.Context, application, branch string) (*sonar.Application, error) {
	err := requireKey("application", application)
	if err != nil {
		return nil, err
	}

	var resp sonar.ApplicationResponse

	err = c.requester.GetJSON(ctx, "/api/applications/show",
		newForm().set("application", application).set("branch", branch).values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("getting application: %w", err)
	}

	return &resp.Application, nil
}

// Update implements sonar.ApplicationsClient.Update.
func (c *ApplicationsClient) Update(ctx context.Context, request *sonar.ApplicationUpdateRequest) error {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return err
	}

	values := newForm().
		set("application", request.Application).
		set("name", request.Name).
		set("description", request.Description)

	err = c.requester.postForm(ctx, "/api/applications/update", values.values(), nil)
	if err != nil {
		return fmt.Errorf("updating application: %w", err)
	}

	return nil
}

// Delete implements sonar.ApplicationsClient.Delete.
func (c *ApplicationsClient) Delete(ctx context.Context, application string) error {
	err := c.requester.postRequired(ctx, "/api/applications/delete", map[string]string{"application": application})
	if err != nil {
		return fmt.Errorf("deleting application: %w", err)
	}

	return nil
}

// AddProject implements sonar.ApplicationsClient.AddProject.
func (c *ApplicationsClient) AddProject(ctx context.Context, application, project string) error {
	err := c.requester.postRequired(ctx, "/api/applications/add_project",
		map[string]string{"application": application, "project": project})
	if err != nil {
		return fmt.Errorf("adding project to application: %w", err)
	}

	return nil
}

// RemoveProject implements sonar.ApplicationsClient.RemoveProject.
func (c *ApplicationsClient) RemoveProject(ctx context.Context, application, project string) error {
	err := c.requester.postRequired(ctx, "/api/applications/remove_project",
		map[string]string{"application": application, "project": project})
	if err != nil {
		return fmt.Errorf("removing project from application: %w", err)
	}

	return nil
}

// SearchProjects implements sonar.ApplicationsClient.SearchProjects.
func (c *ApplicationsClient) SearchProjects(application string) *sonar.ApplicationProjectsBuilder {
	return sonar.NewApplicationProjectsBuilder(c.requester, application)
}

// CreateBranch implements sonar.ApplicationsClient.CreateBranch. Project
// and projectBranch are sent as repeated parameters.
func (c *ApplicationsClient) CreateBranch(ctx context.Context, request *sonar.ApplicationBranchRequest) error {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return err
	}

	values := url.Values{
		"application": {request.Application},
		"branch":      {request.Branch},
	}

	for i, project := range request.Projects {
		values.Add("project", project)

		if i < len(request.ProjectBranches) {
			values.Add("projectBranch", request.ProjectBranches[i])
		} else {
			values.Add("projectBranch", "")
		}
	}

	err = c.requester.postForm(ctx, "/api/applications/create_branch", values, nil)
	if err != nil {
		return fmt.Errorf("creating application branch: %w", err)
	}

	return nil
}

// DeleteBranch implements sonar.ApplicationsClient.DeleteBranch.
func (c *ApplicationsClient) DeleteBranch(ctx context.Context, application, branch string) error {
	err := c.requester.postRequired(ctx, "/api/applications/delete_branch",
		map[string]string{"application": application, "branch": branch})
	if err != nil {
		return fmt.Errorf("deleting application branch: %w", err)
	}

	return nil
}
