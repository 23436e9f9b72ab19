package sonar

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Quality gate statuses.
const (
	GateStatusOK    = "OK"
	GateStatusWarn  = "WARN"
	GateStatusError = "ERROR"
	GateStatusNone  = "NONE"
)

// Condition operators.
const (
	OperatorLessThan    = "LT"
	OperatorGreaterThan = "GT"
)

// QualityGateCondition is a threshold on a metric.
type QualityGateCondition struct {
	ID     string `json:"id"     yaml:"id"`
	Metric string `json:"metric" yaml:"metric"`
	Op     string `json:"op"     yaml:"op"`
	Error  string `json:"error"  yaml:"error"`
}

// QualityGate is a named set of conditions.
type QualityGate struct {
	ID         string                 `json:"id,omitempty"         yaml:"id,omitempty"`
	Name       string                 `json:"name"                 yaml:"name"`
	IsDefault  bool                   `json:"isDefault"            yaml:"is_default"`
	IsBuiltIn  bool                   `json:"isBuiltIn"            yaml:"is_built_in"`
	Conditions []QualityGateCondition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// QualityGatesListResponse lists quality gates.
type QualityGatesListResponse struct {
	QualityGates []QualityGate `json:"qualitygates" yaml:"quality_gates"`
	Default      string        `json:"default"      yaml:"default"`
}

// QualityGateCreateResponse is returned on creation.
type QualityGateCreateResponse struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name"         yaml:"name"`
}

// ConditionRequest creates or updates a gate condition. ID is only used on
// update and GateName only on create.
type ConditionRequest struct {
	ID       string `json:"id,omitempty"       yaml:"id,omitempty"`
	GateName string `json:"gateName,omitempty" yaml:"gate_name,omitempty"`
	Metric   string `json:"metric"             yaml:"metric"`
	Op       string `json:"op"                 yaml:"op"`
	Error    string `json:"error"              yaml:"error"`
}

// Validate implements validation.Validatable.
func (r *ConditionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.GateName, validation.When(r.ID == "", validation.Required)),
		validation.Field(&r.Metric, validation.Required),
		validation.Field(&r.Op, validation.Required, validation.In(OperatorLessThan, OperatorGreaterThan)),
		validation.Field(&r.Error, validation.Required, validation.Length(1, 64)),
	)
}

// GateConditionStatus is the evaluation of one condition.
type GateConditionStatus struct {
	Status         string `json:"status"                   yaml:"status"`
	MetricKey      string `json:"metricKey"                yaml:"metric_key"`
	Comparator     string `json:"comparator"               yaml:"comparator"`
	ErrorThreshold string `json:"errorThreshold,omitempty" yaml:"error_threshold,omitempty"`
	ActualValue    string `json:"actualValue,omitempty"    yaml:"actual_value,omitempty"`
}

// ProjectStatus is the quality gate status of an analysis.
type ProjectStatus struct {
	Status            string                `json:"status"                      yaml:"status"`
	IgnoredConditions bool                  `json:"ignoredConditions,omitempty" yaml:"ignored_conditions,omitempty"`
	Conditions        []GateConditionStatus `json:"conditions,omitempty"        yaml:"conditions,omitempty"`
	Period            *Period               `json:"period,omitempty"            yaml:"period,omitempty"`
}

// ProjectStatusResponse wraps ProjectStatus.
type ProjectStatusResponse struct {
	ProjectStatus ProjectStatus `json:"projectStatus" yaml:"project_status"`
}

// ProjectStatusRequest selects the analysis to evaluate. Exactly one of
// AnalysisID, ProjectKey or ProjectID is required.
type ProjectStatusRequest struct {
	AnalysisID  string `json:"analysisId,omitempty"  yaml:"analysis_id,omitempty"`
	ProjectKey  string `json:"projectKey,omitempty"  yaml:"project_key,omitempty"`
	ProjectID   string `json:"projectId,omitempty"   yaml:"project_id,omitempty"`
	Branch      string `json:"branch,omitempty"      yaml:"branch,omitempty"`
	PullRequest string `json:"pullRequest,omitempty" yaml:"pull_request,omitempty"`
}

// Validate implements validation.Validatable.
func (r *ProjectStatusRequest) Validate() error {
	set := 0

	for _, value := range []string{r.AnalysisID, r.ProjectKey, r.ProjectID} {
		if value != "" {
			set++
		}
	}

	if set != 1 {
		return NewValidationError("projectKey", "exactly one of analysisId, projectKey or projectId is required")
	}

	return nil
}

// ProjectGateStatus pairs a project with its gate status, as returned by
// ProjectStatuses.
type ProjectGateStatus struct {
	Project string         `json:"project"          yaml:"project"`
	Status  *ProjectStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

// GateProjectResponse is the gate associated with a project.
type GateProjectResponse struct {
	QualityGate QualityGate `json:"qualityGate" yaml:"quality_gate"`
}

// QualityGatesClient manages quality gates.
type QualityGatesClient interface {
	List(ctx context.Context) (*QualityGatesListResponse, error)
	Show(ctx context.Context, name string) (*QualityGate, error)
	Create(ctx context.Context, name string) (*QualityGateCreateResponse, error)
	Destroy(ctx context.Context, name string) error
	Rename(ctx context.Context, currentName, name string) error
	Copy(ctx context.Context, sourceName, name string) error
	SetAsDefault(ctx context.Context, name string) error

	// Select associates a project with a gate.
	Select(ctx context.Context, gateName, project string) error
	Deselect(ctx context.Context, project string) error
	GetByProject(ctx context.Context, project string) (*QualityGate, error)

	CreateCondition(ctx context.Context, request *ConditionRequest) (*QualityGateCondition, error)
	UpdateCondition(ctx context.Context, request *ConditionRequest) error
	DeleteCondition(ctx context.Context, id string) error

	ProjectStatus(ctx context.Context, request *ProjectStatusRequest) (*ProjectStatus, error)
	// ProjectStatuses fetches the gate status of many projects concurrently.
	// Results keep the order of projects.
	ProjectStatuses(ctx context.Context, projects []string) ([]ProjectGateStatus, error)
}
