package sonar

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Permissions.
const (
	PermissionAdmin              = "admin"
	PermissionCodeViewer         = "codeviewer"
	PermissionIssueAdmin         = "issueadmin"
	PermissionSecurityHotspotAdm = "securityhotspotadmin"
	PermissionScan               = "scan"
	PermissionUser               = "user"
	PermissionGateAdmin          = "gateadmin"
	PermissionProfileAdmin       = "profileadmin"
	PermissionProvisioning       = "provisioning"
)

var permissionValues = []string{
	PermissionAdmin, PermissionCodeViewer, PermissionIssueAdmin, PermissionSecurityHotspotAdm,
	PermissionScan, PermissionUser, PermissionGateAdmin, PermissionProfileAdmin, PermissionProvisioning,
}

// PermissionTarget grants or revokes a permission, globally or on a project.
type PermissionTarget struct {
	Permission   string `json:"permission"             yaml:"permission"`
	ProjectKey   string `json:"projectKey,omitempty"   yaml:"project_key,omitempty"`
	Organization string `json:"organization,omitempty" yaml:"organization,omitempty"`
}

// Validate implements validation.Validatable.
func (t *PermissionTarget) Validate() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.Permission, validation.Required, validation.In(toInterfaces(permissionValues)...)),
	)
}

// PermissionHolder is a user with its permissions.
type PermissionHolder struct {
	Login       string   `json:"login"           yaml:"login"`
	Name        string   `json:"name"            yaml:"name"`
	Email       string   `json:"email,omitempty" yaml:"email,omitempty"`
	Permissions []string `json:"permissions"     yaml:"permissions"`
}

// PermissionUsersResponse is a page of /api/permissions/users.
type PermissionUsersResponse struct {
	PageEnvelope

	Users []PermissionHolder `json:"users" yaml:"users"`
}

// PageItems implements Pager.
func (r *PermissionUsersResponse) PageItems() []PermissionHolder { return r.Users }

// PermissionUsersBuilder lists users with permissions.
type PermissionUsersBuilder struct {
	Builder[*PermissionUsersBuilder, PermissionHolder, *PermissionUsersResponse]
}

// NewPermissionUsersBuilder creates a builder for /api/permissions/users.
func NewPermissionUsersBuilder(requester Requester) *PermissionUsersBuilder {
	b := &PermissionUsersBuilder{}
	b.Builder = NewBuilder[*PermissionUsersBuilder, PermissionHolder](b, requester, "/api/permissions/users",
		func() *PermissionUsersResponse { return &PermissionUsersResponse{} })

	return b
}

// Permission keeps users holding a permission.
func (b *PermissionUsersBuilder) Permission(permission string) *PermissionUsersBuilder {
	return b.SetEnum("permission", permissionValues, permission)
}

// ProjectKey lists project permissions instead of global ones.
func (b *PermissionUsersBuilder) ProjectKey(key string) *PermissionUsersBuilder {
	return b.WithParam("projectKey", key)
}

// Query filters on login, name or email.
func (b *PermissionUsersBuilder) Query(q string) *PermissionUsersBuilder {
	return b.WithParam("q", q)
}

// PermissionGroup is a group with its permissions.
type PermissionGroup struct {
	ID          string   `json:"id,omitempty"          yaml:"id,omitempty"`
	Name        string   `json:"name"                  yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Permissions []string `json:"permissions"           yaml:"permissions"`
}

// PermissionGroupsResponse is a page of /api/permissions/groups.
type PermissionGroupsResponse struct {
	PageEnvelope

	Groups []PermissionGroup `json:"groups" yaml:"groups"`
}

// PageItems implements Pager.
func (r *PermissionGroupsResponse) PageItems() []PermissionGroup { return r.Groups }

// PermissionGroupsBuilder lists groups with permissions.
type PermissionGroupsBuilder struct {
	Builder[*PermissionGroupsBuilder, PermissionGroup, *PermissionGroupsResponse]
}

// NewPermissionGroupsBuilder creates a builder for /api/permissions/groups.
func NewPermissionGroupsBuilder(requester Requester) *PermissionGroupsBuilder {
	b := &PermissionGroupsBuilder{}
	b.Builder = NewBuilder[*PermissionGroupsBuilder, PermissionGroup](b, requester, "/api/permissions/groups",
		func() *PermissionGroupsResponse { return &PermissionGroupsResponse{} })

	return b
}

// Permission keeps groups holding a permission.
func (b *PermissionGroupsBuilder) Permission(permission string) *PermissionGroupsBuilder {
	return b.SetEnum("permission", permissionValues, permission)
}

// ProjectKey lists project permissions instead of global ones.
func (b *PermissionGroupsBuilder) ProjectKey(key string) *PermissionGroupsBuilder {
	return b.WithParam("projectKey", key)
}

// Query filters on group name.
func (b *PermissionGroupsBuilder) Query(q string) *PermissionGroupsBuilder {
	return b.WithParam("q", q)
}

// PermissionTemplate is a set of permissions applied to new projects.
type PermissionTemplate struct {
	ID                string `json:"id"                          yaml:"id"`
	Name              string `json:"name"                        yaml:"name"`
	Description       string `json:"description,omitempty"       yaml:"description,omitempty"`
	ProjectKeyPattern string `json:"projectKeyPattern,omitempty" yaml:"project_key_pattern,omitempty"`
	CreatedAt         string `json:"createdAt,omitempty"         yaml:"created_at,omitempty"`
	UpdatedAt         string `json:"updatedAt,omitempty"         yaml:"updated_at,omitempty"`
}

// DefaultTemplate maps a qualifier to its default template.
type DefaultTemplate struct {
	TemplateID string `json:"templateId" yaml:"template_id"`
	Qualifier  string `json:"qualifier"  yaml:"qualifier"`
}

// PermissionTemplatesResponse lists permission templates.
type PermissionTemplatesResponse struct {
	PermissionTemplates []PermissionTemplate `json:"permissionTemplates"        yaml:"permission_templates"`
	DefaultTemplates    []DefaultTemplate    `json:"defaultTemplates,omitempty" yaml:"default_templates,omitempty"`
}

// PermissionTemplateCreateRequest creates a template.
type PermissionTemplateCreateRequest struct {
	Name              string `json:"name"                        yaml:"name"`
	Description       string `json:"description,omitempty"       yaml:"description,omitempty"`
	ProjectKeyPattern string `json:"projectKeyPattern,omitempty" yaml:"project_key_pattern,omitempty"`
	Organization      string `json:"organization,omitempty"      yaml:"organization,omitempty"`
}

// Validate implements validation.Validatable.
func (r *PermissionTemplateCreateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
	)
}

// PermissionTemplateResponse wraps a created template.
type PermissionTemplateResponse struct {
	PermissionTemplate PermissionTemplate `json:"permissionTemplate" yaml:"permission_template"`
}

// PermissionsClient manages permissions and permission templates.
type PermissionsClient interface {
	AddUser(ctx context.Context, login string, target PermissionTarget) error
	RemoveUser(ctx context.Context, login string, target PermissionTarget) error
	AddGroup(ctx context.Context, group string, target PermissionTarget) error
	RemoveGroup(ctx context.Context, group string, target PermissionTarget) error
	Users() *PermissionUsersBuilder
	Groups() *PermissionGroupsBuilder

	SearchTemplates(ctx context.Context, query string) (*PermissionTemplatesResponse, error)
	CreateTemplate(ctx context.Context, request *PermissionTemplateCreateRequest) (*PermissionTemplate, error)
	DeleteTemplate(ctx context.Context, templateName string) error
	ApplyTemplate(ctx context.Context, templateName, projectKey string) error
}
