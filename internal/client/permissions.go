package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// PermissionsClient implements sonar.PermissionsClient.
type PermissionsClient struct {
	requester *requester
}

// NewPermissionsClient creates a new permissions client.
func NewPermissionsClient(r *requester) *PermissionsClient {
	return &PermissionsClient{requester: r}
}

// AddUser implements sonar.PermissionsClient.AddUser.
func (c *PermissionsClient) AddUser(ctx context.Context, login string, target sonar.PermissionTarget) error {
	return c.change(ctx, "/api/permissions/add_user", "granting user permission", "login", login, target)
}

// RemoveUser implements sonar.PermissionsClient.RemoveUser.
func (c *PermissionsClient) RemoveUser(ctx context.Context, login string, target sonar.PermissionTarget) error {
	return c.change(ctx, "/api/permissions/remove_user", "revoking user permission", "login", login, target)
}

// AddGroup implements sonar.PermissionsClient.AddGroup.
func (c *PermissionsClient) AddGroup(ctx context.Context, group string, target sonar.PermissionTarget) error {
	return c.change(ctx, "/api/permissions/add_group", "granting group permission", "groupName", group, target)
}

// RemoveGroup implements sonar.PermissionsClient.RemoveGroup.
func (c *PermissionsClient) RemoveGroup(ctx context.Context, group string, target sonar.PermissionTarget) error {
	return c.change(ctx, "/api/permissions/remove_group", "revoking group permission", "groupName", group, target)
}

func (c *PermissionsClient) change(ctx context.Context, path, action, field, value string, target sonar.PermissionTarget) error {
	err := requireKey(field, value)
	if err != nil {
		return err
	}

	err = sonar.ValidateRequest(&target)
	if err != nil {
		return err
	}

	values := newForm().
		set(field, value).
		set("permission", target.Permission).
		set("projectKey", target.ProjectKey).
		set("organization", target.Organization)

	err = c.requester.postForm(ctx, path, values.values(), nil)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}

	return nil
}

// Users implements sonar.PermissionsClient.Users.
func (c *PermissionsClient) Users() *sonar.PermissionUsersBuilder {
	return sonar.NewPermissionUsersBuilder(c.requester)
}

// Groups implements sonar.PermissionsClient.Groups.
func (c *PermissionsClient) Groups() *sonar.PermissionGroupsBuilder {
	return sonar.NewPermissionGroupsBuilder(c.requester)
}

// SearchTemplates implements sonar.PermissionsClient.SearchTemplates.
func (c *PermissionsClient) SearchTemplates(ctx context.Context, query string) (*sonar.PermissionTemplatesResponse, error) {
	var resp sonar.PermissionTemplatesResponse

	err := c.requester.GetJSON(ctx, "/api/permissions/search_templates", newForm().set("q", query).values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("searching permission templates: %w", err)
	}

	return &resp, nil
}

// CreateTemplate implements sonar.PermissionsClient.CreateTemplate.
func (c *PermissionsClient) CreateTemplate(ctx context.Context, request *sonar.PermissionTemplateCreateRequest) (*sonar.PermissionTemplate, error) {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return nil, err
	}

	values := newForm().
		set("name", request.Name).
		set("description", request.Description).
		set("projectKeyPattern", request.ProjectKeyPattern).
		set("organization", request.Organization)

	var resp sonar.PermissionTemplateResponse

	err = c.requester.postForm(ctx, "/api/permissions/create_template", values.values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("creating permission template: %w", err)
	}

	return &resp.PermissionTemplate, nil
}

// DeleteTemplate implements sonar.PermissionsClient.DeleteTemplate.
func (c *PermissionsClient) DeleteTemplate(ctx context.Context, templateName string) error {
	err := c.requester.postRequired(ctx, "/api/permissions/delete_template",
		map[string]string{"templateName": templateName})
	if err != nil {
		return fmt.Errorf("deleting permission template: %w", err)
	}

	return nil
}

// ApplyTemplate implements sonar.PermissionsClient.ApplyTemplate.
func (c *PermissionsClient) ApplyTemplate(ctx context.Context, templateName, projectKey string) error {
	err := c.requester.postRequired(ctx, "/api/permissions/apply_template",
		map[string]string{"templateName": templateName, "projectKey": projectKey})
	if err != nil {
		return fmt.Errorf("applying permission template: %w", err)
	}

	return nil
}
