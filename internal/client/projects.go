package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

const (
	acceptSVG  = "image/svg+xml"
	acceptText = "text/plain"
)

// ProjectsClient implements sonar.ProjectsClient.
type ProjectsClient struct {
	requester *requester
}

// NewProjectsClient creates a new projects client.
func NewProjectsClient(r *requester) *ProjectsClient {
	return &ProjectsClient{requester: r}
}

// Search implements sonar.ProjectsClient.Search.
func (c *ProjectsClient) Search() *sonar.ProjectsSearchBuilder {
	return sonar.NewProjectsSearchBuilder(c.requester)
}

// Create implements sonar.ProjectsClient.Create.
func (c *ProjectsClient) Create(ctx context.Context, request *sonar.ProjectCreateRequest) (*sonar.Project, error) {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return nil, err
	}

	values := newForm().
		set("project", request.Project).
		set("name", request.Name).
		set("visibility", request.Visibility).
		set("mainBranch", request.MainBranch).
		set("organization", request.Organization).
		set("newCodeDefinitionType", request.NewCodeDefinitionType).
		set("newCodeDefinitionValue", request.NewCodeDefinitionValue)

	var resp sonar.ProjectCreateResponse

	err = c.requester.postForm(ctx, "/api/projects/create", values.values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	return &resp.Project, nil
}

// Delete implements sonar.ProjectsClient.Delete.
func (c *ProjectsClient) Delete(ctx context.Context, project string) error {
	err := requireKey("project", project)
	if err != nil {
		return err
	}

	err = c.requester.postForm(ctx, "/api/projects/delete", url.Values{"project": {project}}, nil)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}

	return nil
}

// BulkDelete implements sonar.ProjectsClient.BulkDelete.
func (c *ProjectsClient) BulkDelete(ctx context.Context, request *sonar.ProjectBulkDeleteRequest) error {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return err
	}

	values := newForm().
		list("projects", request.Projects).
		set("q", request.Query).
		list("qualifiers", request.Qualifiers).
		set("organization", request.Organization)

	if !request.AnalyzedBefore.IsZero() {
		values.set("analyzedBefore", request.AnalyzedBefore.Format(time.DateOnly))
	}

	if request.OnProvisionedOnly {
		values.boolean("onProvisionedOnly", true)
	}

	err = c.requester.postForm(ctx, "/api/projects/bulk_delete", values.values(), nil)
	if err != nil {
		return fmt.Errorf("bulk deleting projects: %w", err)
	}

	return nil
}

// UpdateKey implements sonar.ProjectsClient.UpdateKey.
func (c *ProjectsClient) UpdateKey(ctx context.Context, from, to string) error {
	err := requireKeys(map[string]string{"from": from, "to": to})
	if err != nil {
		return err
	}

	err = c.requester.postForm(ctx, "/api/projects/update_key", url.Values{"from": {from}, "to": {to}}, nil)
	if err != nil {
		return fmt.Errorf("updating project key: %w", err)
	}

	return nil
}

// UpdateVisibility implements sonar.ProjectsClient.UpdateVisibility.
func (c *ProjectsClient) UpdateVisibility(ctx context.Context, project, visibility string) error {
	err := requireKey("project", project)
	if err != nil {
		return err
	}

	if visibility != sonar.VisibilityPublic && visibility != sonar.VisibilityPrivate {
		return sonar.NewValidationError("visibility", "must be public or private")
	}

	values := url.Values{"project": {project}, "visibility": {visibility}}

	err = c.requester.postForm(ctx, "/api/projects/update_visibility", values, nil)
	if err != nil {
		return fmt.Errorf("updating project visibility: %w", err)
	}

	return nil
}

// ProjectTagsClient implements sonar.ProjectTagsClient.
type ProjectTagsClient struct {
	requester *requester
}

// NewProjectTagsClient creates a new project tags client.
func NewProjectTagsClient(r *requester) *ProjectTagsClient {
	return &ProjectTagsClient{requester: r}
}

// Search implements sonar.ProjectTagsClient.Search.
func (c *ProjectTagsClient) Search(ctx context.Context, opts *sonar.ProjectTagsSearchOptions) ([]string, error) {
	values := newForm()

	if opts != nil {
		values.set("q", opts.Query).integer("ps", opts.PageSize).integer("p", opts.Page)
	}

	var resp sonar.ProjectTagsResponse

	err := c.requester.GetJSON(ctx, "/api/project_tags/search", values.values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("searching project tags: %w", err)
	}

	return resp.Tags, nil
}

// Set implements sonar.ProjectTagsClient.Set. An empty list clears the tags.
func (c *ProjectTagsClient) Set(ctx context.Context, project string, tags []string) error {
	err := requireKey("project", project)
	if err != nil {
		return err
	}

	values := url.Values{"project": {project}, "tags": {strings.Join(tags, ",")}}

	err = c.requester.postForm(ctx, "/api/project_tags/set", values, nil)
	if err != nil {
		return fmt.Errorf("setting project tags: %w", err)
	}

	return nil
}

// ProjectLinksClient implements sonar.ProjectLinksClient.
type ProjectLinksClient struct {
	requester *requester
}

// NewProjectLinksClient creates a new project links client.
func NewProjectLinksClient(r *requester) *ProjectLinksClient {
	return &ProjectLinksClient{requester: r}
}

// Search implements sonar.ProjectLinksClient.Search.
func (c *ProjectLinksClient) Search(ctx context.Context, projectKey string) ([]sonar.ProjectLink, error) {
	err := requireKey("projectKey", projectKey)
	if err != nil {
		return nil, err
	}

	var resp sonar.ProjectLinksResponse

	err = c.requester.GetJSON(ctx, "/api/project_links/search", url.Values{"projectKey": {projectKey}}, &resp)
	if err != nil {
		return nil, fmt.Errorf("searching project links: %w", err)
	}

	return resp.Links, nil
}

// Create implements sonar.ProjectLinksClient.Create.
func (c *ProjectLinksClient) Create(ctx context.Context, request *sonar.ProjectLinkCreateRequest) (*sonar.ProjectLink, error) {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return nil, err
	}

	values := url.Values{
		"projectKey": {request.ProjectKey},
		"name":       {request.Name},
		"url":        {request.URL},
	}

	var resp struct {
		Link sonar.ProjectLink `json:"link"`
	}

	err = c.requester.postForm(ctx, "/api/project_links/create", values, &resp)
	if err != nil {
		return nil, fmt.Errorf("creating project link: %w", err)
	}

	return &resp.Link, nil
}

// Delete implements sonar.ProjectLinksClient.Delete.
func (c *ProjectLinksClient) Delete(ctx context.Context, id string) error {
	err := requireKey("id", id)
	if err != nil {
		return err
	}

	err = c.requester.postForm(ctx, "/api/project_links/delete", url.Values{"id": {id}}, nil)
	if err != nil {
		return fmt.Errorf("deleting project link: %w", err)
	}

	return nil
}

// ProjectBadgesClient implements sonar.ProjectBadgesClient.
type ProjectBadgesClient struct {
	requester *requester
}

// NewProjectBadgesClient creates a new project badges client.
func NewProjectBadgesClient(r *requester) *ProjectBadgesClient {
	return &ProjectBadgesClient{requester: r}
}

// Measure implements sonar.ProjectBadgesClient.Measure.
func (c *ProjectBadgesClient) Measure(ctx context.Context, project, metric string, opts *sonar.BadgeOptions) (string, error) {
	err := requireKeys(map[string]string{"project": project, "metric": metric})
	if err != nil {
		return "", err
	}

	values := badgeValues(project, opts)
	values.Set("metric", metric)

	svg, err := c.requester.getText(ctx, "/api/project_badges/measure", values, acceptSVG)
	if err != nil {
		return "", fmt.Errorf("getting measure badge: %w", err)
	}

	return svg, nil
}

// QualityGate implements sonar.ProjectBadgesClient.QualityGate.
func (c *ProjectBadgesClient) QualityGate(ctx context.Context, project string, opts *sonar.BadgeOptions) (string, error) {
	err := requireKey("project", project)
	if err != nil {
		return "", err
	}

	svg, err := c.requester.getText(ctx, "/api/project_badges/quality_gate", badgeValues(project, opts), acceptSVG)
	if err != nil {
		return "", fmt.Errorf("getting quality gate badge: %w", err)
	}

	return svg, nil
}

func badgeValues(project string, opts *sonar.BadgeOptions) url.Values {
	values := newForm().set("project", project)

	if opts != nil {
		values.set("branch", opts.Branch).set("token", opts.Token)
	}

	return values.values()
}
