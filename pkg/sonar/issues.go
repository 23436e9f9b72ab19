package sonar

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Issue severities.
const (
	SeverityInfo     = "INFO"
	SeverityMinor    = "MINOR"
	SeverityMajor    = "MAJOR"
	SeverityCritical = "CRITICAL"
	SeverityBlocker  = "BLOCKER"
)

// Issue types.
const (
	IssueTypeCodeSmell     = "CODE_SMELL"
	IssueTypeBug           = "BUG"
	IssueTypeVulnerability = "VULNERABILITY"
)

// Issue transitions.
const (
	TransitionConfirm     = "confirm"
	TransitionUnconfirm   = "unconfirm"
	TransitionReopen      = "reopen"
	TransitionResolve     = "resolve"
	TransitionFalsePos    = "falsepositive"
	TransitionWontFix     = "wontfix"
	TransitionAccept      = "accept"
	TransitionClose       = "close"
	TransitionSetReviewed = "resolveasreviewed"
)

var (
	severities   = []string{SeverityInfo, SeverityMinor, SeverityMajor, SeverityCritical, SeverityBlocker}
	issueTypes   = []string{IssueTypeCodeSmell, IssueTypeBug, IssueTypeVulnerability}
	issueStatus  = []string{"OPEN", "CONFIRMED", "REOPENED", "RESOLVED", "CLOSED", "ACCEPTED", "FALSE_POSITIVE", "FIXED", "IN_SANDBOX"}
	resolutions  = []string{"FALSE-POSITIVE", "WONTFIX", "FIXED", "REMOVED"}
	transitions  = []string{TransitionConfirm, TransitionUnconfirm, TransitionReopen, TransitionResolve, TransitionFalsePos, TransitionWontFix, TransitionAccept, TransitionClose, TransitionSetReviewed}
	impactLevels = []string{"INFO", "LOW", "MEDIUM", "HIGH", "BLOCKER"}
	qualities    = []string{"MAINTAINABILITY", "RELIABILITY", "SECURITY"}
)

// TextRange locates an issue in its file.
type TextRange struct {
	StartLine   int `json:"startLine"   yaml:"start_line"`
	EndLine     int `json:"endLine"     yaml:"end_line"`
	StartOffset int `json:"startOffset" yaml:"start_offset"`
	EndOffset   int `json:"endOffset"   yaml:"end_offset"`
}

// Impact is the effect of an issue on a software quality.
type Impact struct {
	SoftwareQuality string `json:"softwareQuality" yaml:"software_quality"`
	Severity        string `json:"severity"        yaml:"severity"`
}

// IssueComment is a comment on an issue.
type IssueComment struct {
	Key       string `json:"key"       yaml:"key"`
	Login     string `json:"login"     yaml:"login"`
	HTMLText  string `json:"htmlText"  yaml:"html_text"`
	Markdown  string `json:"markdown"  yaml:"markdown"`
	CreatedAt string `json:"createdAt" yaml:"created_at"`
}

// Issue is a code issue.
type Issue struct {
	Key                string         `json:"key"                          yaml:"key"`
	Rule               string         `json:"rule"                         yaml:"rule"`
	Severity           string         `json:"severity,omitempty"           yaml:"severity,omitempty"`
	Component          string         `json:"component"                    yaml:"component"`
	Project            string         `json:"project"                      yaml:"project"`
	Organization       string         `json:"organization,omitempty"       yaml:"organization,omitempty"`
	Line               int            `json:"line,omitempty"               yaml:"line,omitempty"`
	Hash               string         `json:"hash,omitempty"               yaml:"hash,omitempty"`
	TextRange          *TextRange     `json:"textRange,omitempty"          yaml:"text_range,omitempty"`
	Status             string         `json:"status"                       yaml:"status"`
	IssueStatus        string         `json:"issueStatus,omitempty"        yaml:"issue_status,omitempty"`
	Resolution         string         `json:"resolution,omitempty"         yaml:"resolution,omitempty"`
	Message            string         `json:"message"                      yaml:"message"`
	Effort             string         `json:"effort,omitempty"             yaml:"effort,omitempty"`
	Debt               string         `json:"debt,omitempty"               yaml:"debt,omitempty"`
	Assignee           string         `json:"assignee,omitempty"           yaml:"assignee,omitempty"`
	Author             string         `json:"author,omitempty"             yaml:"author,omitempty"`
	Tags               []string       `json:"tags,omitempty"               yaml:"tags,omitempty"`
	Transitions        []string       `json:"transitions,omitempty"        yaml:"transitions,omitempty"`
	Actions            []string       `json:"actions,omitempty"            yaml:"actions,omitempty"`
	Comments           []IssueComment `json:"comments,omitempty"           yaml:"comments,omitempty"`
	CreationDate       string         `json:"creationDate"                 yaml:"creation_date"`
	UpdateDate         string         `json:"updateDate,omitempty"         yaml:"update_date,omitempty"`
	CloseDate          string         `json:"closeDate,omitempty"          yaml:"close_date,omitempty"`
	Type               string         `json:"type,omitempty"               yaml:"type,omitempty"`
	Scope              string         `json:"scope,omitempty"              yaml:"scope,omitempty"`
	CleanCodeAttribute string         `json:"cleanCodeAttribute,omitempty" yaml:"clean_code_attribute,omitempty"`
	Impacts            []Impact       `json:"impacts,omitempty"            yaml:"impacts,omitempty"`
}

// FacetValue is one bucket of a facet.
type FacetValue struct {
	Val   string `json:"val"   yaml:"val"`
	Count int    `json:"count" yaml:"count"`
}

// Facet is a distribution of matching issues over one property.
type Facet struct {
	Property string       `json:"property" yaml:"property"`
	Values   []FacetValue `json:"values"   yaml:"values"`
}

// IssuesSearchResponse is a page of /api/issues/search.
type IssuesSearchResponse struct {
	PageEnvelope

	Issues     []Issue     `json:"issues"               yaml:"issues"`
	Components []Component `json:"components,omitempty" yaml:"components,omitempty"`
	Facets     []Facet     `json:"facets,omitempty"     yaml:"facets,omitempty"`
}

// PageItems implements Pager.
func (r *IssuesSearchResponse) PageItems() []Issue { return r.Issues }

// IssuesSearchBuilder searches issues.
type IssuesSearchBuilder struct {
	Builder[*IssuesSearchBuilder, Issue, *IssuesSearchResponse]
}

// NewIssuesSearchBuilder creates a builder for /api/issues/search.
func NewIssuesSearchBuilder(requester Requester) *IssuesSearchBuilder {
	b := &IssuesSearchBuilder{}
	b.Builder = NewBuilder[*IssuesSearchBuilder, Issue](b, requester, "/api/issues/search",
		func() *IssuesSearchResponse { return &IssuesSearchResponse{} })
	b.LimitWindow()

	return b
}

// Issues restricts the search to issue keys.
func (b *IssuesSearchBuilder) Issues(keys ...string) *IssuesSearchBuilder {
	return b.SetList("issues", keys...)
}

// Projects restricts the search to project keys.
func (b *IssuesSearchBuilder) Projects(keys ...string) *IssuesSearchBuilder {
	return b.SetList("projects", keys...)
}

// Components restricts the search to component keys.
func (b *IssuesSearchBuilder) Components(keys ...string) *IssuesSearchBuilder {
	return b.SetList("components", keys...)
}

// Branch selects a branch.
func (b *IssuesSearchBuilder) Branch(branch string) *IssuesSearchBuilder {
	return b.WithParam("branch", branch)
}

// PullRequest selects a pull request.
func (b *IssuesSearchBuilder) PullRequest(id string) *IssuesSearchBuilder {
	return b.WithParam("pullRequest", id)
}

// Severities filters on legacy severities.
func (b *IssuesSearchBuilder) Severities(values ...string) *IssuesSearchBuilder {
	return b.SetEnum("severities", severities, values...)
}

// ImpactSeverities filters on impact severities.
func (b *IssuesSearchBuilder) ImpactSeverities(values ...string) *IssuesSearchBuilder {
	return b.SetEnum("impactSeverities", impactLevels, values...)
}

// ImpactSoftwareQualities filters on impacted software qualities.
func (b *IssuesSearchBuilder) ImpactSoftwareQualities(values ...string) *IssuesSearchBuilder {
	return b.SetEnum("impactSoftwareQualities", qualities, values...)
}

// Types filters on issue types.
func (b *IssuesSearchBuilder) Types(values ...string) *IssuesSearchBuilder {
	return b.SetEnum("types", issueTypes, values...)
}

// Statuses filters on statuses.
func (b *IssuesSearchBuilder) Statuses(values ...string) *IssuesSearchBuilder {
	return b.SetEnum("statuses", issueStatus, values...)
}

// Resolutions filters on resolutions.
func (b *IssuesSearchBuilder) Resolutions(values ...string) *IssuesSearchBuilder {
	return b.SetEnum("resolutions", resolutions, values...)
}

// Resolved keeps resolved or unresolved issues.
func (b *IssuesSearchBuilder) Resolved(resolved bool) *IssuesSearchBuilder {
	return b.SetBool("resolved", resolved)
}

// Rules filters on rule keys.
func (b *IssuesSearchBuilder) Rules(keys ...string) *IssuesSearchBuilder {
	return b.SetList("rules", keys...)
}

// Tags filters on tags.
func (b *IssuesSearchBuilder) Tags(tags ...string) *IssuesSearchBuilder {
	return b.SetList("tags", tags...)
}

// Assignees filters on assignee logins; "__me__" means the current user.
func (b *IssuesSearchBuilder) Assignees(logins ...string) *IssuesSearchBuilder {
	return b.SetList("assignees", logins...)
}

// Assigned keeps assigned or unassigned issues.
func (b *IssuesSearchBuilder) Assigned(assigned bool) *IssuesSearchBuilder {
	return b.SetBool("assigned", assigned)
}

// Author filters on SCM author.
func (b *IssuesSearchBuilder) Author(author string) *IssuesSearchBuilder {
	return b.SetList("author", author)
}

// Languages filters on languages.
func (b *IssuesSearchBuilder) Languages(languages ...string) *IssuesSearchBuilder {
	return b.SetList("languages", languages...)
}

// CreatedAfter keeps issues created on or after date.
func (b *IssuesSearchBuilder) CreatedAfter(date time.Time) *IssuesSearchBuilder {
	return b.SetDate("createdAfter", date)
}

// CreatedBefore keeps issues created before date.
func (b *IssuesSearchBuilder) CreatedBefore(date time.Time) *IssuesSearchBuilder {
	return b.SetDate("createdBefore", date)
}

// CreatedInLast keeps issues created in a span such as "1m2w".
func (b *IssuesSearchBuilder) CreatedInLast(span string) *IssuesSearchBuilder {
	return b.WithParam("createdInLast", span)
}

// InNewCodePeriod keeps issues of the new code period.
func (b *IssuesSearchBuilder) InNewCodePeriod(value bool) *IssuesSearchBuilder {
	return b.SetBool("inNewCodePeriod", value)
}

// Facets requests facet distributions.
func (b *IssuesSearchBuilder) Facets(facets ...string) *IssuesSearchBuilder {
	return b.SetList("facets", facets...)
}

// AdditionalFields requests extra fields such as "_all" or "comments".
func (b *IssuesSearchBuilder) AdditionalFields(fields ...string) *IssuesSearchBuilder {
	return b.SetList("additionalFields", fields...)
}

// Organization overrides the configured organization.
func (b *IssuesSearchBuilder) Organization(organization string) *IssuesSearchBuilder {
	return b.WithParam("organization", organization)
}

// IssueResponse wraps a single changed issue.
type IssueResponse struct {
	Issue Issue `json:"issue" yaml:"issue"`
}

// ChangelogDiff is one changed field.
type ChangelogDiff struct {
	Key      string `json:"key"                yaml:"key"`
	NewValue string `json:"newValue,omitempty" yaml:"new_value,omitempty"`
	OldValue string `json:"oldValue,omitempty" yaml:"old_value,omitempty"`
}

// ChangelogEntry is one change to an issue.
type ChangelogEntry struct {
	User         string          `json:"user,omitempty"     yaml:"user,omitempty"`
	UserName     string          `json:"userName,omitempty" yaml:"user_name,omitempty"`
	CreationDate string          `json:"creationDate"       yaml:"creation_date"`
	Diffs        []ChangelogDiff `json:"diffs"              yaml:"diffs"`
}

// IssueChangelogResponse lists the changes of an issue.
type IssueChangelogResponse struct {
	Changelog []ChangelogEntry `json:"changelog" yaml:"changelog"`
}

// IssueTagsOptions filters issue tags.
type IssueTagsOptions struct {
	Query    string
	Project  string
	PageSize int
}

// IssueTagsResponse lists issue tags.
type IssueTagsResponse struct {
	Tags []string `json:"tags" yaml:"tags"`
}

// IssuesBulkChangeRequest changes many issues at once.
type IssuesBulkChangeRequest struct {
	Issues            []string `json:"issues"                      yaml:"issues"`
	AddTags           []string `json:"add_tags,omitempty"          yaml:"add_tags,omitempty"`
	RemoveTags        []string `json:"remove_tags,omitempty"       yaml:"remove_tags,omitempty"`
	Assign            string   `json:"assign,omitempty"            yaml:"assign,omitempty"`
	SetSeverity       string   `json:"set_severity,omitempty"      yaml:"set_severity,omitempty"`
	SetType           string   `json:"set_type,omitempty"          yaml:"set_type,omitempty"`
	DoTransition      string   `json:"do_transition,omitempty"     yaml:"do_transition,omitempty"`
	Comment           string   `json:"comment,omitempty"           yaml:"comment,omitempty"`
	SendNotifications bool     `json:"sendNotifications,omitempty" yaml:"send_notifications,omitempty"`
}

// Validate implements validation.Validatable.
func (r *IssuesBulkChangeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Issues, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.SetSeverity, validation.In(toInterfaces(severities)...)),
		validation.Field(&r.SetType, validation.In(toInterfaces(issueTypes)...)),
		validation.Field(&r.DoTransition, validation.In(toInterfaces(transitions)...)),
	)
}

// IssuesBulkChangeResponse reports how many issues changed.
type IssuesBulkChangeResponse struct {
	Total    int `json:"total"    yaml:"total"`
	Success  int `json:"success"  yaml:"success"`
	Ignored  int `json:"ignored"  yaml:"ignored"`
	Failures int `json:"failures" yaml:"failures"`
}

// IssuesClient searches and changes issues.
type IssuesClient interface {
	Search() *IssuesSearchBuilder
	// Assign assigns an issue; an empty assignee unassigns it.
	Assign(ctx context.Context, issue, assignee string) (*Issue, error)
	AddComment(ctx context.Context, issue, text string) (*Issue, error)
	DoTransition(ctx context.Context, issue, transition string) (*Issue, error)
	SetSeverity(ctx context.Context, issue, severity string) (*Issue, error)
	SetType(ctx context.Context, issue, issueType string) (*Issue, error)
	SetTags(ctx context.Context, issue string, tags []string) (*Issue, error)
	Changelog(ctx context.Context, issue string) ([]ChangelogEntry, error)
	Tags(ctx context.Context, opts *IssueTagsOptions) ([]string, error)
	BulkChange(ctx context.Context, request *IssuesBulkChangeRequest) (*IssuesBulkChangeResponse, error)
}

// FixChange replaces a line range with new code.
type FixChange struct {
	StartLine int    `json:"startLine" yaml:"start_line"`
	EndLine   int    `json:"endLine"   yaml:"end_line"`
	NewCode   string `json:"newCode"   yaml:"new_code"`
}

// FixSuggestion is an AI generated fix for an issue.
type FixSuggestion struct {
	ID          string      `json:"id"          yaml:"id"`
	IssueID     string      `json:"issueId"     yaml:"issue_id"`
	Explanation string      `json:"explanation" yaml:"explanation"`
	Changes     []FixChange `json:"changes"     yaml:"changes"`
}

// FixSuggestionRequest asks for a fix of one issue.
type FixSuggestionRequest struct {
	IssueID string `json:"issueId" yaml:"issue_id"`
}

// Validate implements validation.Validatable.
func (r *FixSuggestionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.IssueID, validation.Required),
	)
}

// FixSuggestionAvailability tells whether a fix can be generated.
type FixSuggestionAvailability struct {
	IssueID      string `json:"issueId,omitempty" yaml:"issue_id,omitempty"`
	AISuggestion string `json:"aiSuggestion"      yaml:"ai_suggestion"`
	ID           string `json:"id,omitempty"      yaml:"id,omitempty"`
}

// Available reports whether a suggestion can be requested.
func (a *FixSuggestionAvailability) Available() bool {
	return a.AISuggestion == "AVAILABLE"
}

// FixSuggestionsClient requests AI fix suggestions through the v2 API.
type FixSuggestionsClient interface {
	Create(ctx context.Context, request *FixSuggestionRequest) (*FixSuggestion, error)
	IssueAvailability(ctx context.Context, issueID string) (*FixSuggestionAvailability, error)
}
