package sonar

import (
	"context"
	"time"

	"github.com/fivetwenty-io/sonar-client/internal/constants"
)

var taskStatuses = []string{
	constants.TaskStatusPending, constants.TaskStatusInProgress, constants.TaskStatusSuccess,
	constants.TaskStatusFailed, constants.TaskStatusCanceled,
}

// Task is a compute engine background task.
type Task struct {
	ID                string   `json:"id"                          yaml:"id"`
	Type              string   `json:"type"                        yaml:"type"`
	ComponentKey      string   `json:"componentKey,omitempty"      yaml:"component_key,omitempty"`
	ComponentName     string   `json:"componentName,omitempty"     yaml:"component_name,omitempty"`
	Organization      string   `json:"organization,omitempty"      yaml:"organization,omitempty"`
	Status            string   `json:"status"                      yaml:"status"`
	AnalysisID        string   `json:"analysisId,omitempty"        yaml:"analysis_id,omitempty"`
	Branch            string   `json:"branch,omitempty"            yaml:"branch,omitempty"`
	PullRequest       string   `json:"pullRequest,omitempty"       yaml:"pull_request,omitempty"`
	SubmittedAt       string   `json:"submittedAt"                 yaml:"submitted_at"`
	SubmitterLogin    string   `json:"submitterLogin,omitempty"    yaml:"submitter_login,omitempty"`
	StartedAt         string   `json:"startedAt,omitempty"         yaml:"started_at,omitempty"`
	ExecutedAt        string   `json:"executedAt,omitempty"        yaml:"executed_at,omitempty"`
	ExecutionTimeMs   int64    `json:"executionTimeMs,omitempty"   yaml:"execution_time_ms,omitempty"`
	ErrorMessage      string   `json:"errorMessage,omitempty"      yaml:"error_message,omitempty"`
	ErrorType         string   `json:"errorType,omitempty"         yaml:"error_type,omitempty"`
	HasScannerContext bool     `json:"hasScannerContext,omitempty" yaml:"has_scanner_context,omitempty"`
	WarningCount      int      `json:"warningCount,omitempty"      yaml:"warning_count,omitempty"`
	Warnings          []string `json:"warnings,omitempty"          yaml:"warnings,omitempty"`
	NodeName          string   `json:"nodeName,omitempty"          yaml:"node_name,omitempty"`
	InfoMessages      []string `json:"infoMessages,omitempty"      yaml:"info_messages,omitempty"`
}

// Done reports whether the task reached a final status.
func (t *Task) Done() bool {
	switch t.Status {
	case constants.TaskStatusSuccess, constants.TaskStatusFailed, constants.TaskStatusCanceled:
		return true
	default:
		return false
	}
}

// TaskResponse wraps a task.
type TaskResponse struct {
	Task Task `json:"task" yaml:"task"`
}

// ComponentTasksResponse is the queue and last task of a component.
type ComponentTasksResponse struct {
	Queue   []Task `json:"queue"             yaml:"queue"`
	Current *Task  `json:"current,omitempty" yaml:"current,omitempty"`
}

// ActivityStatusResponse counts tasks by state.
type ActivityStatusResponse struct {
	Pending     int   `json:"pending"               yaml:"pending"`
	InProgress  int   `json:"inProgress"            yaml:"in_progress"`
	Failing     int   `json:"failing"               yaml:"failing"`
	PendingTime int64 `json:"pendingTime,omitempty" yaml:"pending_time,omitempty"`
}

// ActivityResponse is a page of /api/ce/activity.
type ActivityResponse struct {
	PageEnvelope

	Tasks []Task `json:"tasks" yaml:"tasks"`
}

// PageItems implements Pager.
func (r *ActivityResponse) PageItems() []Task { return r.Tasks }

// ActivityBuilder searches past and queued tasks.
type ActivityBuilder struct {
	Builder[*ActivityBuilder, Task, *ActivityResponse]
}

// NewActivityBuilder creates a builder for /api/ce/activity.
func NewActivityBuilder(requester Requester) *ActivityBuilder {
	b := &ActivityBuilder{}
	b.Builder = NewBuilder[*ActivityBuilder, Task](b, requester, "/api/ce/activity",
		func() *ActivityResponse { return &ActivityResponse{} })

	return b
}

// Component restricts to one component.
func (b *ActivityBuilder) Component(key string) *ActivityBuilder {
	return b.WithParam("component", key)
}

// Status filters on task status.
func (b *ActivityBuilder) Status(values ...string) *ActivityBuilder {
	return b.SetEnum("status", taskStatuses, values...)
}

// Type filters on task type, such as REPORT.
func (b *ActivityBuilder) Type(taskType string) *ActivityBuilder {
	return b.WithParam("type", taskType)
}

// OnlyCurrents keeps the last task of each component.
func (b *ActivityBuilder) OnlyCurrents(value bool) *ActivityBuilder {
	return b.SetBool("onlyCurrents", value)
}

// MinSubmittedAt keeps tasks submitted at or after t.
func (b *ActivityBuilder) MinSubmittedAt(t time.Time) *ActivityBuilder {
	return b.WithParam("minSubmittedAt", t.Format(constants.DateTimeFormat))
}

// MaxExecutedAt keeps tasks executed at or before t.
func (b *ActivityBuilder) MaxExecutedAt(t time.Time) *ActivityBuilder {
	return b.WithParam("maxExecutedAt", t.Format(constants.DateTimeFormat))
}

// WaitOptions tunes WaitForTask. Zero values use the defaults.
type WaitOptions struct {
	// InitialInterval is the first wait between polls.
	InitialInterval time.Duration
	// MaxInterval caps the wait between polls.
	MaxInterval time.Duration
	// Timeout bounds the whole wait.
	Timeout time.Duration
}

// CEClient reads compute engine tasks.
type CEClient interface {
	Activity() *ActivityBuilder
	Task(ctx context.Context, id string) (*Task, error)
	Component(ctx context.Context, component string) (*ComponentTasksResponse, error)
	ActivityStatus(ctx context.Context, component string) (*ActivityStatusResponse, error)
	// WaitForTask polls until the task is done. FAILED and CANCELED tasks
	// return the task together with an error wrapping ErrTaskFailed.
	WaitForTask(ctx context.Context, id string, opts *WaitOptions) (*Task, error)
}
