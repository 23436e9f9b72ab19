package sonar

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ApplicationProject is a project aggregated by an application.
type ApplicationProject struct {
	Key       string `json:"key"                 yaml:"key"`
	Name      string `json:"name"                yaml:"name"`
	Branch    string `json:"branch,omitempty"    yaml:"branch,omitempty"`
	IsMain    bool   `json:"isMain,omitempty"    yaml:"is_main,omitempty"`
	Enabled   bool   `json:"enabled,omitempty"   yaml:"enabled,omitempty"`
	Selected  bool   `json:"selected,omitempty"  yaml:"selected,omitempty"`
	Qualifier string `json:"qualifier,omitempty" yaml:"qualifier,omitempty"`
}

// ApplicationBranch is a branch of an application.
type ApplicationBranch struct {
	Name   string `json:"name"   yaml:"name"`
	IsMain bool   `json:"isMain" yaml:"is_main"`
}

// Application is a portfolio of projects.
type Application struct {
	Key         string               `json:"key"                   yaml:"key"`
	Name        string               `json:"name"                  yaml:"name"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	Visibility  string               `json:"visibility"            yaml:"visibility"`
	Branch      string               `json:"branch,omitempty"      yaml:"branch,omitempty"`
	IsMain      bool                 `json:"isMain,omitempty"      yaml:"is_main,omitempty"`
	Projects    []ApplicationProject `json:"projects,omitempty"    yaml:"projects,omitempty"`
	Branches    []ApplicationBranch  `json:"branches,omitempty"    yaml:"branches,omitempty"`
	Tags        []string             `json:"tags,omitempty"        yaml:"tags,omitempty"`
}

// ApplicationResponse wraps an application.
type ApplicationResponse struct {
	Application Application `json:"application" yaml:"application"`
}

// ApplicationCreateRequest creates an application.
type ApplicationCreateRequest struct {
	Name        string `json:"name"                  yaml:"name"`
	Key         string `json:"key,omitempty"         yaml:"key,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Visibility  string `json:"visibility,omitempty"  yaml:"visibility,omitempty"`
}

// Validate implements validation.Validatable.
func (r *ApplicationCreateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Key, validation.Length(1, 400)),
		validation.Field(&r.Description, validation.Length(0, 256)),
		validation.Field(&r.Visibility, validation.In(VisibilityPublic, VisibilityPrivate)),
	)
}

// ApplicationUpdateRequest changes the name or description.
type ApplicationUpdateRequest struct {
	Application string `json:"application"           yaml:"application"`
	Name        string `json:"name"                  yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Validate implements validation.Validatable.
func (r *ApplicationUpdateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Application, keyRules...),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
	)
}

// ApplicationBranchRequest creates an application branch. Projects and
// ProjectBranches are paired by index.
type ApplicationBranchRequest struct {
	Application     string   `json:"application"   yaml:"application"`
	Branch          string   `json:"branch"        yaml:"branch"`
	Projects        []string `json:"project"       yaml:"projects"`
	ProjectBranches []string `json:"projectBranch" yaml:"project_branches"`
}

// Validate implements validation.Validatable.
func (r *ApplicationBranchRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Application, keyRules...),
		validation.Field(&r.Branch, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Projects, validation.Required, validation.Each(validation.Required)),
		validation.Field(&r.ProjectBranches, validation.Length(len(r.Projects), len(r.Projects))),
	)
}

// ApplicationProjectsResponse is a page of /api/applications/search_projects.
type ApplicationProjectsResponse struct {
	PageEnvelope

	Projects []ApplicationProject `json:"projects" yaml:"projects"`
}

// PageItems implements Pager.
func (r *ApplicationProjectsResponse) PageItems() []ApplicationProject { return r.Projects }

// ApplicationProjectsBuilder lists projects that can be added to an
// application.
type ApplicationProjectsBuilder struct {
	Builder[*ApplicationProjectsBuilder, ApplicationProject, *ApplicationProjectsResponse]
}

// NewApplicationProjectsBuilder creates a builder for
// /api/applications/search_projects.
func NewApplicationProjectsBuilder(requester Requester, application string) *ApplicationProjectsBuilder {
	b := &ApplicationProjectsBuilder{}
	b.Builder = NewBuilder[*ApplicationProjectsBuilder, ApplicationProject](b, requester, "/api/applications/search_projects",
		func() *ApplicationProjectsResponse { return &ApplicationProjectsResponse{} })
	b.Require("application")
	b.WithParam("application", application)

	return b
}

// Query filters on project name.
func (b *ApplicationProjectsBuilder) Query(q string) *ApplicationProjectsBuilder {
	return b.WithParam("q", q)
}

// Selected is selected, deselected or all.
func (b *ApplicationProjectsBuilder) Selected(membership string) *ApplicationProjectsBuilder {
	return b.SetEnum("selected", memberships, membership)
}

// ApplicationsClient manages applications.
type ApplicationsClient interface {
	Create(ctx context.Context, request *ApplicationCreateRequest) (*Application, error)
	Show(ctx context.Context, application, branch string) (*Application, error)
	Update(ctx context.Context, request *ApplicationUpdateRequest) error
	Delete(ctx context.Context, application string) error
	AddProject(ctx context.Context, application, project string) error
	RemoveProject(ctx context.Context, application, project string) error
	SearchProjects(application string) *ApplicationProjectsBuilder
	CreateBranch(ctx context.Context, request *ApplicationBranchRequest) error
	DeleteBranch(ctx context.Context, application, branch string) error
}
