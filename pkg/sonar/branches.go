package sonar

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// New code period types.
const (
	NewCodePeriodPreviousVersion  = "PREVIOUS_VERSION"
	NewCodePeriodNumberOfDays     = "NUMBER_OF_DAYS"
	NewCodePeriodReferenceBranch  = "REFERENCE_BRANCH"
	NewCodePeriodSpecificAnalysis = "SPECIFIC_ANALYSIS"
)

// Analysis event categories. Only VERSION and OTHER can be created.
const (
	AnalysisEventCategoryVersion     = "VERSION"
	AnalysisEventCategoryOther       = "OTHER"
	AnalysisEventCategoryQualityGate = "QUALITY_GATE"
)

// BranchStatus summarizes the last analysis of a branch.
type BranchStatus struct {
	QualityGateStatus string `json:"qualityGateStatus,omitempty" yaml:"quality_gate_status,omitempty"`
	Bugs              int    `json:"bugs,omitempty"              yaml:"bugs,omitempty"`
	Vulnerabilities   int    `json:"vulnerabilities,omitempty"   yaml:"vulnerabilities,omitempty"`
	CodeSmells        int    `json:"codeSmells,omitempty"        yaml:"code_smells,omitempty"`
}

// Branch is a project branch.
type Branch struct {
	Name              string        `json:"name"                   yaml:"name"`
	IsMain            bool          `json:"isMain"                 yaml:"is_main"`
	Type              string        `json:"type"                   yaml:"type"`
	Status            *BranchStatus `json:"status,omitempty"       yaml:"status,omitempty"`
	AnalysisDate      string        `json:"analysisDate,omitempty" yaml:"analysis_date,omitempty"`
	ExcludedFromPurge bool          `json:"excludedFromPurge"      yaml:"excluded_from_purge"`
	BranchID          string        `json:"branchId,omitempty"     yaml:"branch_id,omitempty"`
}

// BranchesResponse lists the branches of a project.
type BranchesResponse struct {
	Branches []Branch `json:"branches" yaml:"branches"`
}

// ProjectBranchesClient manages project branches.
type ProjectBranchesClient interface {
	List(ctx context.Context, project string) ([]Branch, error)
	Delete(ctx context.Context, project, branch string) error
	// Rename renames the main branch.
	Rename(ctx context.Context, project, name string) error
	SetAutomaticDeletionProtection(ctx context.Context, project, branch string, protected bool) error
	SetMain(ctx context.Context, project, branch string) error
}

// AnalysisEvent is an event attached to an analysis.
type AnalysisEvent struct {
	Key         string `json:"key"                   yaml:"key"`
	Analysis    string `json:"analysis,omitempty"    yaml:"analysis,omitempty"`
	Category    string `json:"category"              yaml:"category"`
	Name        string `json:"name"                  yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Analysis is a past analysis of a project.
type Analysis struct {
	Key                         string          `json:"key"                                   yaml:"key"`
	Date                        string          `json:"date"                                  yaml:"date"`
	ProjectVersion              string          `json:"projectVersion,omitempty"              yaml:"project_version,omitempty"`
	BuildString                 string          `json:"buildString,omitempty"                 yaml:"build_string,omitempty"`
	Revision                    string          `json:"revision,omitempty"                    yaml:"revision,omitempty"`
	ManualNewCodePeriodBaseline bool            `json:"manualNewCodePeriodBaseline,omitempty" yaml:"manual_new_code_period_baseline,omitempty"`
	Events                      []AnalysisEvent `json:"events,omitempty"                      yaml:"events,omitempty"`
}

// AnalysesSearchResponse is a page of /api/project_analyses/search.
type AnalysesSearchResponse struct {
	PageEnvelope

	Analyses []Analysis `json:"analyses" yaml:"analyses"`
}

// PageItems implements Pager.
func (r *AnalysesSearchResponse) PageItems() []Analysis { return r.Analyses }

// AnalysesSearchBuilder searches the analyses of a project.
type AnalysesSearchBuilder struct {
	Builder[*AnalysesSearchBuilder, Analysis, *AnalysesSearchResponse]
}

// NewAnalysesSearchBuilder creates a builder for /api/project_analyses/search.
func NewAnalysesSearchBuilder(requester Requester, project string) *AnalysesSearchBuilder {
	b := &AnalysesSearchBuilder{}
	b.Builder = NewBuilder[*AnalysesSearchBuilder, Analysis](b, requester, "/api/project_analyses/search",
		func() *AnalysesSearchResponse { return &AnalysesSearchResponse{} })
	b.Require("project")
	b.WithParam("project", project)

	return b
}

// Branch selects a branch.
func (b *AnalysesSearchBuilder) Branch(branch string) *AnalysesSearchBuilder {
	return b.WithParam("branch", branch)
}

// Category keeps analyses with an event of the category.
func (b *AnalysesSearchBuilder) Category(category string) *AnalysesSearchBuilder {
	return b.SetEnum("category", []string{
		AnalysisEventCategoryVersion, AnalysisEventCategoryOther, AnalysisEventCategoryQualityGate,
		"QUALITY_PROFILE", "DEFINITION_CHANGE", "ISSUE_DETECTION", "SQ_UPGRADE",
	}, category)
}

// From keeps analyses on or after date.
func (b *AnalysesSearchBuilder) From(date time.Time) *AnalysesSearchBuilder {
	return b.SetDate("from", date)
}

// To keeps analyses on or before date.
func (b *AnalysesSearchBuilder) To(date time.Time) *AnalysesSearchBuilder {
	return b.SetDate("to", date)
}

// AnalysisEventCreateRequest attaches an event to an analysis.
type AnalysisEventCreateRequest struct {
	Analysis string `json:"analysis"           yaml:"analysis"`
	Name     string `json:"name"               yaml:"name"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

// Validate implements validation.Validatable.
func (r *AnalysisEventCreateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Analysis, validation.Required),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 400)),
		validation.Field(&r.Category, validation.In(AnalysisEventCategoryVersion, AnalysisEventCategoryOther)),
	)
}

// ProjectAnalysesClient manages project analyses and their events.
type ProjectAnalysesClient interface {
	Search(project string) *AnalysesSearchBuilder
	Delete(ctx context.Context, analysis string) error
	CreateEvent(ctx context.Context, request *AnalysisEventCreateRequest) (*AnalysisEvent, error)
	DeleteEvent(ctx context.Context, event string) error
}

// NewCodePeriod is the new code definition of a project or branch.
type NewCodePeriod struct {
	ProjectKey     string `json:"projectKey,omitempty"     yaml:"project_key,omitempty"`
	BranchKey      string `json:"branchKey,omitempty"      yaml:"branch_key,omitempty"`
	Type           string `json:"type"                     yaml:"type"`
	Value          string `json:"value,omitempty"          yaml:"value,omitempty"`
	EffectiveValue string `json:"effectiveValue,omitempty" yaml:"effective_value,omitempty"`
	Inherited      bool   `json:"inherited"                yaml:"inherited"`
}

// NewCodePeriodsResponse lists the new code definitions of a project.
type NewCodePeriodsResponse struct {
	NewCodePeriods []NewCodePeriod `json:"newCodePeriods" yaml:"new_code_periods"`
}

// NewCodePeriodSetRequest sets a new code definition. Without Project the
// instance default is changed.
type NewCodePeriodSetRequest struct {
	Project string `json:"project,omitempty" yaml:"project,omitempty"`
	Branch  string `json:"branch,omitempty"  yaml:"branch,omitempty"`
	Type    string `json:"type"              yaml:"type"`
	Value   string `json:"value,omitempty"   yaml:"value,omitempty"`
}

// Validate implements validation.Validatable.
func (r *NewCodePeriodSetRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Type, validation.Required, validation.In(
			NewCodePeriodPreviousVersion, NewCodePeriodNumberOfDays,
			NewCodePeriodReferenceBranch, NewCodePeriodSpecificAnalysis)),
		validation.Field(&r.Value, validation.When(r.Type != NewCodePeriodPreviousVersion, validation.Required)),
		validation.Field(&r.Branch, validation.When(r.Branch != "", validation.By(requireProject(r.Project)))),
	)
}

func requireProject(project string) validation.RuleFunc {
	return func(interface{}) error {
		if project == "" {
			return validation.NewError("validation_project_required", "requires project")
		}

		return nil
	}
}

// NewCodePeriodsClient manages new code definitions.
type NewCodePeriodsClient interface {
	Show(ctx context.Context, project, branch string) (*NewCodePeriod, error)
	Set(ctx context.Context, request *NewCodePeriodSetRequest) error
	Unset(ctx context.Context, project, branch string) error
	List(ctx context.Context, project string) ([]NewCodePeriod, error)
}
