package client

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/sonar-client/internal/constants"
	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// RulesClient implements sonar.RulesClient.
type RulesClient struct {
	requester *requester
}

// NewRulesClient creates a new rules client.
func NewRulesClient(r *requester) *RulesClient {
	return &RulesClient{requester: r}
}

// Search implements sonar.RulesClient.Search.
func (c *RulesClient) Search() *sonar.RulesSearchBuilder {
	return sonar.NewRulesSearchBuilder(c.requester)
}

// Show implements sonar.RulesClient.Show.
func (c *RulesClient) Show(ctx context.Context, key string, actives bool) (*sonar.RuleShowResponse, error) {
	err := requireKey("key", key)
	if err != nil {
		return nil, err
	}

	values := url.Values{"key": {key}}
	if actives {
		values.Set("actives", constants.BooleanTrue)
	}

	var resp sonar.RuleShowResponse

	err = c.requester.GetJSON(ctx, "/api/rules/show", values, &resp)
	if err != nil {
		return nil, fmt.Errorf("getting rule: %w", err)
	}

	return &resp, nil
}

// Create implements sonar.RulesClient.Create.
func (c *RulesClient) Create(ctx context.Context, request *sonar.RuleCreateRequest) (*sonar.Rule, error) {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return nil, err
	}

	values := newForm().
		set("customKey", request.CustomKey).
		set("name", request.Name).
		set("markdownDescription", request.MarkdownDescription).
		set("templateKey", request.TemplateKey).
		set("severity", request.Severity).
		set("status", request.Status).
		set("type", request.Type).
		set("params", encodeParams(request.Params))

	var resp sonar.RuleResponse

	err = c.requester.postForm(ctx, "/api/rules/create", values.values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("creating rule: %w", err)
	}

	return &resp.Rule, nil
}

// Update implements sonar.RulesClient.Update. Nil fields are left unchanged.
func (c *RulesClient) Update(ctx context.Context, request *sonar.RuleUpdateRequest) (*sonar.Rule, error) {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return nil, err
	}

	values := url.Values{"key": {request.Key}}
	setOptional(values, "name", request.Name)
	setOptional(values, "markdown_description", request.MarkdownDescription)
	setOptional(values, "severity", request.Severity)
	setOptional(values, "status", request.Status)

	if request.Tags != nil {
		values.Set("tags", strings.Join(request.Tags, ","))
	}

	if len(request.Params) > 0 {
		values.Set("params", encodeParams(request.Params))
	}

	var resp sonar.RuleResponse

	err = c.requester.postForm(ctx, "/api/rules/update", values, &resp)
	if err != nil {
		return nil, fmt.Errorf("updating rule: %w", err)
	}

	return &resp.Rule, nil
}

// Delete implements sonar.RulesClient.Delete.
func (c *RulesClient) Delete(ctx context.Context, key string) error {
	err := requireKey("key", key)
	if err != nil {
		return err
	}

	err = c.requester.postForm(ctx, "/api/rules/delete", url.Values{"key": {key}}, nil)
	if err != nil {
		return fmt.Errorf("deleting rule: %w", err)
	}

	return nil
}

// Tags implements sonar.RulesClient.Tags.
func (c *RulesClient) Tags(ctx context.Context, query string, pageSize int) ([]string, error) {
	values := newForm().set("q", query).integer("ps", pageSize)

	var resp sonar.RuleTagsResponse

	err := c.requester.GetJSON(ctx, "/api/rules/tags", values.values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("listing rule tags: %w", err)
	}

	return resp.Tags, nil
}

// Repositories implements sonar.RulesClient.Repositories.
func (c *RulesClient) Repositories(ctx context.Context, language, query string) ([]sonar.RuleRepository, error) {
	values := newForm().set("language", language).set("q", query)

	var resp sonar.RuleRepositoriesResponse

	err := c.requester.GetJSON(ctx, "/api/rules/repositories", values.values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("listing rule repositories: %w", err)
	}

	return resp.Repositories, nil
}

// encodeParams renders rule parameters as "key1=value1;key2=value2" with
// keys in sorted order.
func encodeParams(params map[string]string) string {
	pairs := make([]string, 0, len(params))

	for _, key := range slices.Sorted(maps.Keys(params)) {
		pairs = append(pairs, key+"="+params[key])
	}

	return strings.Join(pairs, ";")
}

// setOptional sets a parameter when the pointer is non-nil, including to
// the empty string.
func setOptional(values url.Values, key string, value *string) {
	if value != nil {
		values.Set(key, *value)
	}
}

func setOptionalBool(values url.Values, key string, value *bool) {
	if value != nil {
		values.Set(key, strconv.FormatBool(*value))
	}
}
