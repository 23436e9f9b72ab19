package client

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/fivetwenty-io/sonar-client/internal/constants"
	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// IssuesClient implements sonar.IssuesClient.
type IssuesClient struct {
	requester *requester
}

// NewIssuesClient creates a new issues client.
func NewIssuesClient(r *requester) *IssuesClient {
	return &IssuesClient{requester: r}
}

// Search implements sonar.IssuesClient.Search.
func (c *IssuesClient) Search() *sonar.IssuesSearchBuilder {
	return sonar.NewIssuesSearchBuilder(c.requester)
}

// Assign implements sonar.IssuesClient.Assign.
func (c *IssuesClient) Assign(ctx context.Context, issue, assignee string) (*sonar.Issue, error) {
	return c.change(ctx, "/api/issues/assign", "assigning issue", issue, newForm().set("assignee", assignee))
}

// AddComment implements sonar.IssuesClient.AddComment.
func (c *IssuesClient) AddComment(ctx context.Context, issue, text string) (*sonar.Issue, error) {
	err := requireKey("text", text)
	if err != nil {
		return nil, err
	}

	return c.change(ctx, "/api/issues/add_comment", "commenting issue", issue, newForm().set("text", text))
}

// DoTransition implements sonar.IssuesClient.DoTransition.
func (c *IssuesClient) DoTransition(ctx context.Context, issue, transition string) (*sonar.Issue, error) {
	if !slices.Contains(issueTransitions, transition) {
		return nil, sonar.NewValidationError("transition", fmt.Sprintf("%q is not a valid transition", transition))
	}

	return c.change(ctx, "/api/issues/do_transition", "transitioning issue", issue, newForm().set("transition", transition))
}

// SetSeverity implements sonar.IssuesClient.SetSeverity.
func (c *IssuesClient) SetSeverity(ctx context.Context, issue, severity string) (*sonar.Issue, error) {
	if !slices.Contains(issueSeverities, severity) {
		return nil, sonar.NewValidationError("severity", fmt.Sprintf("%q is not a valid severity", severity))
	}

	return c.change(ctx, "/api/issues/set_severity", "setting issue severity", issue, newForm().set("severity", severity))
}

// SetType implements sonar.IssuesClient.SetType.
func (c *IssuesClient) SetType(ctx context.Context, issue, issueType string) (*sonar.Issue, error) {
	if !slices.Contains(issueTypes, issueType) {
		return nil, sonar.NewValidationError("type", fmt.Sprintf("%q is not a valid issue type", issueType))
	}

	return c.change(ctx, "/api/issues/set_type", "setting issue type", issue, newForm().set("type", issueType))
}

// SetTags implements sonar.IssuesClient.SetTags. An empty list clears the tags.
func (c *IssuesClient) SetTags(ctx context.Context, issue string, tags []string) (*sonar.Issue, error) {
	values := newForm()
	url.Values(values).Set("tags", strings.Join(tags, ","))

	return c.change(ctx, "/api/issues/set_tags", "setting issue tags", issue, values)
}

func (c *IssuesClient) change(ctx context.Context, path, action, issue string, values form) (*sonar.Issue, error) {
	err := requireKey("issue", issue)
	if err != nil {
		return nil, err
	}

	values.set("issue", issue)

	var resp sonar.IssueResponse

	err = c.requester.postForm(ctx, path, values.values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}

	return &resp.Issue, nil
}

// Changelog implements sonar.IssuesClient.Changelog.
func (c *IssuesClient) Changelog(ctx context.Context, issue string) ([]sonar.ChangelogEntry, error) {
	err := requireKey("issue", issue)
	if err != nil {
		return nil, err
	}

	var resp sonar.IssueChangelogResponse

	err = c.requester.GetJSON(ctx, "/api/issues/changelog", url.Values{"issue": {issue}}, &resp)
	if err != nil {
		return nil, fmt.Errorf("getting issue changelog: %w", err)
	}

	return resp.Changelog, nil
}

// Tags implements sonar.IssuesClient.Tags.
func (c *IssuesClient) Tags(ctx context.Context, opts *sonar.IssueTagsOptions) ([]string, error) {
	values := newForm()

	if opts != nil {
		if opts.PageSize > constants.MaxPageSize {
			return nil, sonar.NewValidationError("ps", fmt.Sprintf("must be at most %d", constants.MaxPageSize))
		}

		values.set("q", opts.Query).set("project", opts.Project).integer("ps", opts.PageSize)
	}

	var resp sonar.IssueTagsResponse

	err := c.requester.GetJSON(ctx, "/api/issues/tags", values.values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("listing issue tags: %w", err)
	}

	return resp.Tags, nil
}

// BulkChange implements sonar.IssuesClient.BulkChange.
func (c *IssuesClient) BulkChange(ctx context.Context, request *sonar.IssuesBulkChangeRequest) (*sonar.IssuesBulkChangeResponse, error) {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return nil, err
	}

	values := newForm().
		list("issues", request.Issues).
		list("add_tags", request.AddTags).
		list("remove_tags", request.RemoveTags).
		set("assign", request.Assign).
		set("set_severity", request.SetSeverity).
		set("set_type", request.SetType).
		set("do_transition", request.DoTransition).
		set("comment", request.Comment)

	if request.SendNotifications {
		values.boolean("sendNotifications", true)
	}

	var resp sonar.IssuesBulkChangeResponse

	err = c.requester.postForm(ctx, "/api/issues/bulk_change", values.values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("bulk changing issues: %w", err)
	}

	return &resp, nil
}

var (
	issueSeverities = []string{
		sonar.SeverityInfo, sonar.SeverityMinor, sonar.SeverityMajor, sonar.SeverityCritical, sonar.SeverityBlocker,
	}
	issueTypes = []string{
		sonar.IssueTypeCodeSmell, sonar.IssueTypeBug, sonar.IssueTypeVulnerability,
	}
	issueTransitions = []string{
		sonar.TransitionConfirm, sonar.TransitionUnconfirm, sonar.TransitionReopen, sonar.TransitionResolve,
		sonar.TransitionFalsePos, sonar.TransitionWontFix, sonar.TransitionAccept, sonar.TransitionClose,
		sonar.TransitionSetReviewed,
	}
)

// FixSuggestionsClient implements sonar.FixSuggestionsClient against the
// v2 API.
type FixSuggestionsClient struct {
	requester *requester
}

// NewFixSuggestionsClient creates a new fix suggestions client.
func NewFixSuggestionsClient(r *requester) *FixSuggestionsClient {
	return &FixSuggestionsClient{requester: r}
}

// Create implements sonar.FixSuggestionsClient.Create.
func (c *FixSuggestionsClient) Create(ctx context.Context, request *sonar.FixSuggestionRequest) (*sonar.FixSuggestion, error) {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return nil, err
	}

	var suggestion sonar.FixSuggestion

	err = c.requester.postJSON(ctx, "/fix-suggestions/ai-suggestions", request, &suggestion)
	if err != nil {
		return nil, fmt.Errorf("creating fix suggestion: %w", err)
	}

	return &suggestion, nil
}

// IssueAvailability implements sonar.FixSuggestionsClient.IssueAvailability.
func (c *FixSuggestionsClient) IssueAvailability(ctx context.Context, issueID string) (*sonar.FixSuggestionAvailability, error) {
	err := requireKey("issueId", issueID)
	if err != nil {
		return nil, err
	}

	var availability sonar.FixSuggestionAvailability

	err = c.requester.getV2(ctx, "/fix-suggestions/issues/"+url.PathEscape(issueID), nil, &availability)
	if err != nil {
		return nil, fmt.Errorf("getting fix suggestion availability: %w", err)
	}

	return &availability, nil
}
