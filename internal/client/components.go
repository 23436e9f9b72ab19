package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/fivetwenty-io/sonar-client/internal/constants"
	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// ComponentsClient implements sonar.ComponentsClient.
type ComponentsClient struct {
	requester *requester
}

// NewComponentsClient creates a new components client.
func NewComponentsClient(r *requester) *ComponentsClient {
	return &ComponentsClient{requester: r}
}

// Show implements sonar.ComponentsClient.Show.
func (c *ComponentsClient) Show(ctx context.Context, ref sonar.ComponentRef) (*sonar.ComponentShowResponse, error) {
	values, err := componentValues("component", ref)
	if err != nil {
		return nil, err
	}

	var resp sonar.ComponentShowResponse

	err = c.requester.GetJSON(ctx, "/api/components/show", values, &resp)
	if err != nil {
		return nil, fmt.Errorf("getting component: %w", err)
	}

	return &resp, nil
}

// Search implements sonar.ComponentsClient.Search.
func (c *ComponentsClient) Search() *sonar.ComponentsSearchBuilder {
	return sonar.NewComponentsSearchBuilder(c.requester)
}

// Tree implements sonar.ComponentsClient.Tree.
func (c *ComponentsClient) Tree(component string) *sonar.ComponentTreeBuilder {
	return sonar.NewComponentTreeBuilder(c.requester, component)
}

// SourcesClient implements sonar.SourcesClient.
type SourcesClient struct {
	requester *requester
}

// NewSourcesClient creates a new sources client.
func NewSourcesClient(r *requester) *SourcesClient {
	return &SourcesClient{requester: r}
}

// Raw implements sonar.SourcesClient.Raw.
func (c *SourcesClient) Raw(ctx context.Context, ref sonar.ComponentRef) (string, error) {
	values, err := componentValues("key", ref)
	if err != nil {
		return "", err
	}

	source, err := c.requester.getText(ctx, "/api/sources/raw", values, acceptText)
	if err != nil {
		return "", fmt.Errorf("getting raw source: %w", err)
	}

	return source, nil
}

// Show implements sonar.SourcesClient.Show.
func (c *SourcesClient) Show(ctx context.Context, key string, lines *sonar.LineRange) ([]sonar.SourceLine, error) {
	err := requireKey("key", key)
	if err != nil {
		return nil, err
	}

	values, err := lineValues(url.Values{"key": {key}}, lines)
	if err != nil {
		return nil, err
	}

	var resp sonar.SourcesShowResponse

	err = c.requester.GetJSON(ctx, "/api/sources/show", values, &resp)
	if err != nil {
		return nil, fmt.Errorf("getting source lines: %w", err)
	}

	return resp.Sources, nil
}

// SCM implements sonar.SourcesClient.SCM.
func (c *SourcesClient) SCM(ctx context.Context, key string, lines *sonar.LineRange, commitsByLine bool) ([]sonar.SCMLine, error) {
	err := requireKey("key", key)
	if err != nil {
		return nil, err
	}

	values, err := lineValues(url.Values{"key": {key}}, lines)
	if err != nil {
		return nil, err
	}

	if commitsByLine {
		values.Set("commits_by_line", constants.BooleanTrue)
	}

	var resp sonar.SCMResponse

	err = c.requester.GetJSON(ctx, "/api/sources/scm", values, &resp)
	if err != nil {
		return nil, fmt.Errorf("getting scm information: %w", err)
	}

	return resp.SCM, nil
}

// DuplicationsClient implements sonar.DuplicationsClient.
type DuplicationsClient struct {
	requester *requester
}

// NewDuplicationsClient creates a new duplications client.
func NewDuplicationsClient(r *requester) *DuplicationsClient {
	return &DuplicationsClient{requester: r}
}

// Show implements sonar.DuplicationsClient.Show.
func (c *DuplicationsClient) Show(ctx context.Context, ref sonar.ComponentRef) (*sonar.DuplicationsResponse, error) {
	values, err := componentValues("key", ref)
	if err != nil {
		return nil, err
	}

	var resp sonar.DuplicationsResponse

	err = c.requester.GetJSON(ctx, "/api/duplications/show", values, &resp)
	if err != nil {
		return nil, fmt.Errorf("getting duplications: %w", err)
	}

	return &resp, nil
}

// componentValues encodes a component reference; the key parameter name
// differs between endpoints.
func componentValues(keyParam string, ref sonar.ComponentRef) (url.Values, error) {
	err := requireKey(keyParam, ref.Component)
	if err != nil {
		return nil, err
	}

	if ref.Branch != "" && ref.PullRequest != "" {
		return nil, sonar.NewValidationError("branch", "branch and pullRequest are mutually exclusive")
	}

	return newForm().
		set(keyParam, ref.Component).
		set("branch", ref.Branch).
		set("pullRequest", ref.PullRequest).
		values(), nil
}

func lineValues(values url.Values, lines *sonar.LineRange) (url.Values, error) {
	if lines == nil {
		return values, nil
	}

	if lines.From < 0 || lines.To < 0 || (lines.To > 0 && lines.To < lines.From) {
		return nil, sonar.NewValidationError("to", fmt.Sprintf("invalid line range %d-%d", lines.From, lines.To))
	}

	if lines.From > 0 {
		values.Set("from", strconv.Itoa(lines.From))
	}

	if lines.To > 0 {
		values.Set("to", strconv.Itoa(lines.To))
	}

	return values, nil
}
