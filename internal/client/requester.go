package client

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/sonar-client/internal/http"
	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// organizationScoped lists the endpoints that accept an organization on
// SonarCloud. Prefixes ending in "/" cover a whole API area.
var organizationScoped = []string{
	"/api/projects/search",
	"/api/projects/create",
	"/api/projects/bulk_delete",
	"/api/project_tags/search",
	"/api/components/search",
	"/api/issues/search",
	"/api/issues/tags",
	"/api/rules/",
	"/api/qualitygates/",
	"/api/qualityprofiles/",
	"/api/user_groups/",
	"/api/permissions/",
	"/api/webhooks/create",
	"/api/webhooks/list",
}

// requester is shared by every resource client. It implements
// sonar.Requester for the builders.
type requester struct {
	httpClient   *http.Client
	organization string
	v2BaseURL    string
}

// GetJSON implements sonar.Requester.
func (r *requester) GetJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	resp, err := r.httpClient.Get(ctx, path, r.withOrganization(path, query))
	if err != nil {
		return err
	}

	return decode(path, resp.Body, out)
}

// getText fetches a plain text or SVG body.
func (r *requester) getText(ctx context.Context, path string, query url.Values, accept string) (string, error) {
	resp, err := r.httpClient.Do(ctx, &http.Request{
		Method: "GET",
		Path:   path,
		Query:  r.withOrganization(path, query),
		Accept: accept,
	})
	if err != nil {
		return "", err
	}

	return string(resp.Body), nil
}

// postForm posts a form body and decodes the response into out when both
// are non-empty.
func (r *requester) postForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	resp, err := r.httpClient.PostForm(ctx, path, r.withOrganization(path, form))
	if err != nil {
		return err
	}

	return decode(path, resp.Body, out)
}

// postJSON posts a JSON body to a v2 endpoint.
func (r *requester) postJSON(ctx context.Context, path string, body, out interface{}) error {
	resp, err := r.httpClient.Post(ctx, r.v2URL(path), body)
	if err != nil {
		return err
	}

	return decode(path, resp.Body, out)
}

// getV2 fetches a v2 endpoint.
func (r *requester) getV2(ctx context.Context, path string, query url.Values, out interface{}) error {
	resp, err := r.httpClient.Get(ctx, r.v2URL(path), query)
	if err != nil {
		return err
	}

	return decode(path, resp.Body, out)
}

// postRequired posts params as a form after checking that none is empty.
func (r *requester) postRequired(ctx context.Context, path string, params map[string]string) error {
	err := requireKeys(params)
	if err != nil {
		return err
	}

	values := url.Values{}
	for key, value := range params {
		values.Set(key, value)
	}

	return r.postForm(ctx, path, values, nil)
}

func (r *requester) v2URL(path string) string {
	return r.v2BaseURL + path
}

// withOrganization adds the configured organization to scoped endpoints
// unless the caller already set one.
func (r *requester) withOrganization(path string, values url.Values) url.Values {
	if r.organization == "" || !isOrganizationScoped(path) {
		return values
	}

	if values == nil {
		values = url.Values{}
	}

	if values.Get("organization") == "" {
		values.Set("organization", r.organization)
	}

	return values
}

func isOrganizationScoped(path string) bool {
	for _, prefix := range organizationScoped {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}

func decode(path string, body []byte, out interface{}) error {
	if out == nil || len(body) == 0 {
		return nil
	}

	err := json.Unmarshal(body, out)
	if err != nil {
		return fmt.Errorf("parsing %s response: %w", path, err)
	}

	return nil
}

// form is a url.Values builder that skips empty values.
type form url.Values

func newForm() form {
	return form{}
}

func (f form) set(key, value string) form {
	if value != "" {
		url.Values(f).Set(key, value)
	}

	return f
}

func (f form) list(key string, values []string) form {
	if len(values) > 0 {
		url.Values(f).Set(key, strings.Join(values, ","))
	}

	return f
}

func (f form) boolean(key string, value bool) form {
	url.Values(f).Set(key, strconv.FormatBool(value))

	return f
}

func (f form) integer(key string, value int) form {
	if value > 0 {
		url.Values(f).Set(key, strconv.Itoa(value))
	}

	return f
}

func (f form) values() url.Values {
	return url.Values(f)
}

// requireKey rejects an empty identifier before any request is sent.
func requireKey(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return sonar.NewValidationError(field, "parameter is required")
	}

	return nil
}

func requireKeys(fields map[string]string) error {
	for _, field := range slices.Sorted(maps.Keys(fields)) {
		err := requireKey(field, fields[field])
		if err != nil {
			return err
		}
	}

	return nil
}
