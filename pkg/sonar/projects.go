package sonar

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Project visibilities.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Component qualifiers.
const (
	QualifierProject     = "TRK"
	QualifierApplication = "APP"
	QualifierPortfolio   = "VW"
	QualifierSubView     = "SVW"
	QualifierDirectory   = "DIR"
	QualifierFile        = "FIL"
	QualifierUnitTest    = "UTS"
)

var qualifiers = []string{
	QualifierProject, QualifierApplication, QualifierPortfolio, QualifierSubView,
	QualifierDirectory, QualifierFile, QualifierUnitTest,
}

// Project is a project as returned by search and create.
type Project struct {
	Key              string `json:"key"                        yaml:"key"`
	Name             string `json:"name"                       yaml:"name"`
	Qualifier        string `json:"qualifier,omitempty"        yaml:"qualifier,omitempty"`
	Visibility       string `json:"visibility,omitempty"       yaml:"visibility,omitempty"`
	LastAnalysisDate string `json:"lastAnalysisDate,omitempty" yaml:"last_analysis_date,omitempty"`
	Revision         string `json:"revision,omitempty"         yaml:"revision,omitempty"`
	Organization     string `json:"organization,omitempty"     yaml:"organization,omitempty"`
	Managed          bool   `json:"managed,omitempty"          yaml:"managed,omitempty"`
}

// ProjectsSearchResponse is a page of /api/projects/search.
type ProjectsSearchResponse struct {
	PageEnvelope

	Components []Project `json:"components" yaml:"components"`
}

// PageItems implements Pager.
func (r *ProjectsSearchResponse) PageItems() []Project { return r.Components }

// ProjectsSearchBuilder searches projects.
type ProjectsSearchBuilder struct {
	Builder[*ProjectsSearchBuilder, Project, *ProjectsSearchResponse]
}

// NewProjectsSearchBuilder creates a builder for /api/projects/search.
func NewProjectsSearchBuilder(requester Requester) *ProjectsSearchBuilder {
	b := &ProjectsSearchBuilder{}
	b.Builder = NewBuilder[*ProjectsSearchBuilder, Project](b, requester, "/api/projects/search",
		func() *ProjectsSearchResponse { return &ProjectsSearchResponse{} })

	return b
}

// Query filters on key or name (at least two characters).
func (b *ProjectsSearchBuilder) Query(q string) *ProjectsSearchBuilder {
	return b.WithParam("q", q)
}

// Projects restricts the search to the given keys.
func (b *ProjectsSearchBuilder) Projects(keys ...string) *ProjectsSearchBuilder {
	return b.SetList("projects", keys...)
}

// Qualifiers restricts the component types.
func (b *ProjectsSearchBuilder) Qualifiers(values ...string) *ProjectsSearchBuilder {
	return b.SetEnum("qualifiers", qualifiers, values...)
}

// Visibility keeps public or private projects only.
func (b *ProjectsSearchBuilder) Visibility(visibility string) *ProjectsSearchBuilder {
	return b.SetEnum("visibility", []string{VisibilityPublic, VisibilityPrivate}, visibility)
}

// AnalyzedBefore keeps projects whose last analysis is older than date.
func (b *ProjectsSearchBuilder) AnalyzedBefore(date time.Time) *ProjectsSearchBuilder {
	return b.SetDate("analyzedBefore", date)
}

// OnProvisionedOnly keeps projects that were never analyzed.
func (b *ProjectsSearchBuilder) OnProvisionedOnly(value bool) *ProjectsSearchBuilder {
	return b.SetBool("onProvisionedOnly", value)
}

// Organization overrides the configured organization.
func (b *ProjectsSearchBuilder) Organization(organization string) *ProjectsSearchBuilder {
	return b.WithParam("organization", organization)
}

// ProjectCreateRequest creates a project.
type ProjectCreateRequest struct {
	Project                string `json:"project"                          yaml:"project"`
	Name                   string `json:"name"                             yaml:"name"`
	Visibility             string `json:"visibility,omitempty"             yaml:"visibility,omitempty"`
	MainBranch             string `json:"mainBranch,omitempty"             yaml:"main_branch,omitempty"`
	Organization           string `json:"organization,omitempty"           yaml:"organization,omitempty"`
	NewCodeDefinitionType  string `json:"newCodeDefinitionType,omitempty"  yaml:"new_code_definition_type,omitempty"`
	NewCodeDefinitionValue string `json:"newCodeDefinitionValue,omitempty" yaml:"new_code_definition_value,omitempty"`
}

// Validate implements validation.Validatable.
func (r *ProjectCreateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Project, keyRules...),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.Visibility, validation.In(VisibilityPublic, VisibilityPrivate)),
		validation.Field(&r.NewCodeDefinitionType,
			validation.In(NewCodePeriodPreviousVersion, NewCodePeriodNumberOfDays, NewCodePeriodReferenceBranch)),
	)
}

// ProjectCreateResponse wraps the created project.
type ProjectCreateResponse struct {
	Project Project `json:"project" yaml:"project"`
}

// ProjectBulkDeleteRequest deletes every project matching the filters. At
// least one filter is required.
type ProjectBulkDeleteRequest struct {
	Projects          []string  `json:"projects,omitempty"          yaml:"projects,omitempty"`
	Query             string    `json:"q,omitempty"                 yaml:"q,omitempty"`
	Qualifiers        []string  `json:"qualifiers,omitempty"        yaml:"qualifiers,omitempty"`
	AnalyzedBefore    time.Time `json:"analyzedBefore,omitempty"    yaml:"analyzed_before,omitempty"`
	OnProvisionedOnly bool      `json:"onProvisionedOnly,omitempty" yaml:"on_provisioned_only,omitempty"`
	Organization      string    `json:"organization,omitempty"      yaml:"organization,omitempty"`
}

// Validate implements validation.Validatable.
func (r *ProjectBulkDeleteRequest) Validate() error {
	if len(r.Projects) == 0 && r.Query == "" && r.AnalyzedBefore.IsZero() && !r.OnProvisionedOnly {
		return NewValidationError("projects", "at least one of projects, q, analyzedBefore or onProvisionedOnly is required")
	}

	return validation.ValidateStruct(r,
		validation.Field(&r.Query, validation.When(r.Query != "", validation.Length(2, 0))),
		validation.Field(&r.Qualifiers, validation.Each(validation.In(toInterfaces(qualifiers)...))),
	)
}

// ProjectsClient manages projects.
type ProjectsClient interface {
	Search() *ProjectsSearchBuilder
	Create(ctx context.Context, request *ProjectCreateRequest) (*Project, error)
	Delete(ctx context.Context, project string) error
	BulkDelete(ctx context.Context, request *ProjectBulkDeleteRequest) error
	UpdateKey(ctx context.Context, from, to string) error
	UpdateVisibility(ctx context.Context, project, visibility string) error
}

// ProjectTagsResponse lists project tags.
type ProjectTagsResponse struct {
	Tags []string `json:"tags" yaml:"tags"`
}

// ProjectTagsSearchOptions filters project tags.
type ProjectTagsSearchOptions struct {
	Query    string
	PageSize int
	Page     int
}

// ProjectTagsClient manages project tags.
type ProjectTagsClient interface {
	Search(ctx context.Context, opts *ProjectTagsSearchOptions) ([]string, error)
	Set(ctx context.Context, project string, tags []string) error
}

// ProjectLink is an external link attached to a project.
type ProjectLink struct {
	ID   string `json:"id"             yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Type string `json:"type"           yaml:"type"`
	URL  string `json:"url"            yaml:"url"`
}

// ProjectLinksResponse lists project links.
type ProjectLinksResponse struct {
	Links []ProjectLink `json:"links" yaml:"links"`
}

// ProjectLinkCreateRequest creates a project link.
type ProjectLinkCreateRequest struct {
	ProjectKey string `json:"projectKey" yaml:"project_key"`
	Name       string `json:"name"       yaml:"name"`
	URL        string `json:"url"        yaml:"url"`
}

// Validate implements validation.Validatable.
func (r *ProjectLinkCreateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectKey, keyRules...),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.URL, validation.Required, validation.Length(1, 2048)),
	)
}

// ProjectLinksClient manages project links.
type ProjectLinksClient interface {
	Search(ctx context.Context, projectKey string) ([]ProjectLink, error)
	Create(ctx context.Context, request *ProjectLinkCreateRequest) (*ProjectLink, error)
	Delete(ctx context.Context, id string) error
}

// BadgeOptions select the branch and authorize private projects.
type BadgeOptions struct {
	Branch string
	Token  string
}

// ProjectBadgesClient renders SVG badges.
type ProjectBadgesClient interface {
	Measure(ctx context.Context, project, metric string, opts *BadgeOptions) (string, error)
	QualityGate(ctx context.Context, project string, opts *BadgeOptions) (string, error)
}
