package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/fivetwenty-io/sonar-client/internal/client"
	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestRulesClient(t *testing.T) {
	t.Parallel()

	RunOperationTests(t, []TestOperation{
		{
			Name: "search",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Rules().Search().
					Languages("java").
					Types("SECURITY_HOTSPOT").
					Activation(true).
					QualityProfile("qp1").
					Execute(ctx)

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/rules/search",
			Params: map[string]string{"languages": "java", "types": "SECURITY_HOTSPOT", "activation": "true", "qprofile": "qp1"},
		},
		{
			Name: "show with actives",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Rules().Show(ctx, "java:S1234", true)

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/rules/show",
			Params: map[string]string{"key": "java:S1234", "actives": "true"},
		},
		{
			Name: "create custom rule",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Rules().Create(ctx, &sonar.RuleCreateRequest{
					CustomKey:           "no_todo",
					Name:                "No TODO",
					MarkdownDescription: "Remove TODO comments",
					TemplateKey:         "java:XPath",
					Severity:            sonar.SeverityMinor,
					Params:              map[string]string{"xpath": "//todo", "message": "fix"},
				})

				return err
			},
			Method: http.MethodPost,
			Path:   "/api/rules/create",
			Params: map[string]string{
				"customKey":   "no_todo",
				"templateKey": "java:XPath",
				"severity":    "MINOR",
				"params":      "message=fix;xpath=//todo",
			},
		},
		{
			Name: "create without template",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Rules().Create(ctx, &sonar.RuleCreateRequest{
					CustomKey:           "no_todo",
					Name:                "No TODO",
					MarkdownDescription: "Remove TODO comments",
				})

				return err
			},
			WantValidation: true,
		},
		{
			Name: "update clears description",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Rules().Update(ctx, &sonar.RuleUpdateRequest{
					Key:                 "java:no_todo",
					Name:                StringPtr("No TODO left"),
					MarkdownDescription: StringPtr(""),
					Tags:                []string{"convention"},
				})

				return err
			},
			Method: http.MethodPost,
			Path:   "/api/rules/update",
			Params: map[string]string{
				"key":                  "java:no_todo",
				"name":                 "No TODO left",
				"markdown_description": "",
				"tags":                 "convention",
			},
		},
		{
			Name: "update rejects unknown severity",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Rules().Update(ctx, &sonar.RuleUpdateRequest{Key: "java:no_todo", Severity: StringPtr("URGENT")})

				return err
			},
			WantValidation: true,
		},
		{
			Name: "delete",
			Call: func(ctx context.Context, client *Client) error {
				return client.Rules().Delete(ctx, "java:no_todo")
			},
			Method: http.MethodPost,
			Path:   "/api/rules/delete",
			Params: map[string]string{"key": "java:no_todo"},
		},
		{
			Name: "tags",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Rules().Tags(ctx, "conv", 10)

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/rules/tags",
			Params: map[string]string{"q": "conv", "ps": "10"},
		},
		{
			Name: "repositories",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Rules().Repositories(ctx, "java", "")

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/rules/repositories",
			Params: map[string]string{"language": "java"},
		},
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestQualityProfilesClient(t *testing.T) {
	t.Parallel()

	profile := sonar.ProfileRef{Language: "java", Name: "Strict"}

	RunOperationTests(t, []TestOperation{
		{
			Name: "search defaults",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.QualityProfiles().Search(ctx, &sonar.QualityProfilesSearchOptions{Language: "java", Defaults: true})

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/qualityprofiles/search",
			Params: map[string]string{"language": "java", "defaults": "true"},
		},
		{
			Name: "create",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.QualityProfiles().Create(ctx, &sonar.QualityProfileCreateRequest{Name: "Strict", Language: "java"})

				return err
			},
			Method: http.MethodPost,
			Path:   "/api/qualityprofiles/create",
			Params: map[string]string{"name": "Strict", "language": "java"},
		},
		{
			Name: "create without language",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.QualityProfiles().Create(ctx, &sonar.QualityProfileCreateRequest{Name: "Strict"})

				return err
			},
			WantValidation: true,
		},
		{
			Name: "delete",
			Call: func(ctx context.Context, client *Client) error {
				return client.QualityProfiles().Delete(ctx, profile)
			},
			Method: http.MethodPost,
			Path:   "/api/qualityprofiles/delete",
			Params: map[string]string{"language": "java", "qualityProfile": "Strict"},
		},
		{
			Name: "set default needs name",
			Call: func(ctx context.Context, client *Client) error {
				return client.QualityProfiles().SetDefault(ctx, sonar.ProfileRef{Language: "java"})
			},
			WantValidation: true,
		},
		{
			Name: "add project",
			Call: func(ctx context.Context, client *Client) error {
				return client.QualityProfiles().AddProject(ctx, profile, "core")
			},
			Method: http.MethodPost,
			Path:   "/api/qualityprofiles/add_project",
			Params: map[string]string{"language": "java", "qualityProfile": "Strict", "project": "core"},
		},
		{
			Name: "remove project without project",
			Call: func(ctx context.Context, client *Client) error {
				return client.QualityProfiles().RemoveProject(ctx, profile, "")
			},
			WantValidation: true,
		},
		{
			Name: "activate rule",
			Call: func(ctx context.Context, client *Client) error {
				return client.QualityProfiles().ActivateRule(ctx, &sonar.RuleActivationRequest{
					Key:      "qp1",
					Rule:     "java:S1234",
					Severity: sonar.SeverityMajor,
					Params:   map[string]string{"max": "10"},
				})
			},
			Method: http.MethodPost,
			Path:   "/api/qualityprofiles/activate_rule",
			Params: map[string]string{"key": "qp1", "rule": "java:S1234", "severity": "MAJOR", "params": "max=10"},
		},
		{
			Name: "deactivate rule without rule",
			Call: func(ctx context.Context, client *Client) error {
				return client.QualityProfiles().DeactivateRule(ctx, "qp1", "")
			},
			WantValidation: true,
		},
		{
			Name: "changelog",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.QualityProfiles().Changelog("java", "Strict").Execute(ctx)

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/qualityprofiles/changelog",
			Params: map[string]string{"language": "java", "qualityProfile": "Strict"},
		},
		{
			Name: "changelog needs profile",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.QualityProfiles().Changelog("java", "").Execute(ctx)

				return err
			},
			WantValidation: true,
		},
	})
}

func TestQualityProfilesClient_Backup(t *testing.T) {
	t.Parallel()

	server := NewFakeServer(t, map[string]Route{
		"/api/qualityprofiles/backup": {Text: "<profile><name>Strict</name></profile>"},
	})
	client := NewTestClient(t, server.URL)

	backup, err := client.QualityProfiles().Backup(context.Background(), sonar.ProfileRef{Language: "java", Name: "Strict"})
	require.NoError(t, err)
	assert.Equal(t, "<profile><name>Strict</name></profile>", backup)
	assert.Equal(t, "application/xml", server.Last().Header.Get("Accept"))
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestQualityGatesClient(t *testing.T) {
	t.Parallel()

	RunOperationTests(t, []TestOperation{
		{
			Name: "list",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.QualityGates().List(ctx)

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/qualitygates/list",
		},
		{
			Name: "create",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.QualityGates().Create(ctx, "Strict")

				return err
			},
			Method: http.MethodPost,
			Path:   "/api/qualitygates/create",
			Params: map[string]string{"name": "Strict"},
		},
		{
			Name: "rename",
			Call: func(ctx context.Context, client *Client) error {
				return client.QualityGates().Rename(ctx, "Strict", "Stricter")
			},
			Method: http.MethodPost,
			Path:   "/api/qualitygates/rename",
			Params: map[string]string{"currentName": "Strict", "name": "Stricter"},
		},
		{
			Name: "copy without target",
			Call: func(ctx context.Context, client *Client) error {
				return client.QualityGates().Copy(ctx, "Strict", "")
			},
			WantValidation: true,
		},
		{
			Name: "select",
			Call: func(ctx context.Context, client *Client) error {
				return client.QualityGates().Select(ctx, "Strict", "core")
			},
			Method: http.MethodPost,
			Path:   "/api/qualitygates/select",
			Params: map[string]string{"gateName": "Strict", "projectKey": "core"},
		},
		{
			Name: "deselect",
			Call: func(ctx context.Context, client *Client) error {
				return client.QualityGates().Deselect(ctx, "core")
			},
			Method: http.MethodPost,
			Path:   "/api/qualitygates/deselect",
			Params: map[string]string{"projectKey": "core"},
		},
		{
			Name: "get by project",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.QualityGates().GetByProject(ctx, "core")

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/qualitygates/get_by_project",
			Params: map[string]string{"project": "core"},
		},
		{
			Name: "create condition",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.QualityGates().CreateCondition(ctx, &sonar.ConditionRequest{
					GateName: "Strict",
					Metric:   "new_coverage",
					Op:       sonar.OperatorLessThan,
					Error:    "80",
				})

				return err
			},
			Method: http.MethodPost,
			Path:   "/api/qualitygates/create_condition",
			Params: map[string]string{"gateName": "Strict", "metric": "new_coverage", "op": "LT", "error": "80"},
		},
		{
			Name: "create condition rejects id",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.QualityGates().CreateCondition(ctx, &sonar.ConditionRequest{
					ID:     "12",
					Metric: "new_coverage",
					Op:     sonar.OperatorLessThan,
					Error:  "80",
				})

				return err
			},
			WantValidation: true,
		},
		{
			Name: "create condition rejects operator",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.QualityGates().CreateCondition(ctx, &sonar.ConditionRequest{
					GateName: "Strict",
					Metric:   "new_coverage",
					Op:       "EQ",
					Error:    "80",
				})

				return err
			},
			WantValidation: true,
		},
		{
			Name: "update condition",
			Call: func(ctx context.Context, client *Client) error {
				return client.QualityGates().UpdateCondition(ctx, &sonar.ConditionRequest{
					ID:     "12",
					Metric: "new_bugs",
					Op:     sonar.OperatorGreaterThan,
					Error:  "0",
				})
			},
			Method: http.MethodPost,
			Path:   "/api/qualitygates/update_condition",
			Params: map[string]string{"id": "12", "metric": "new_bugs", "op": "GT", "error": "0"},
		},
		{
			Name: "update condition needs id",
			Call: func(ctx context.Context, client *Client) error {
				return client.QualityGates().UpdateCondition(ctx, &sonar.ConditionRequest{
					Metric: "new_bugs",
					Op:     sonar.OperatorGreaterThan,
					Error:  "0",
				})
			},
			WantValidation: true,
		},
		{
			Name: "delete condition",
			Call: func(ctx context.Context, client *Client) error {
				return client.QualityGates().DeleteCondition(ctx, "12")
			},
			Method: http.MethodPost,
			Path:   "/api/qualitygates/delete_condition",
			Params: map[string]string{"id": "12"},
		},
		{
			Name: "project status on branch",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.QualityGates().ProjectStatus(ctx, &sonar.ProjectStatusRequest{ProjectKey: "core", Branch: "develop"})

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/qualitygates/project_status",
			Params: map[string]string{"projectKey": "core", "branch": "develop"},
		},
		{
			Name: "project status with two selectors",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.QualityGates().ProjectStatus(ctx, &sonar.ProjectStatusRequest{ProjectKey: "core", AnalysisID: "A1"})

				return err
			},
			WantValidation: true,
		},
	})
}

func TestQualityGatesClient_ProjectStatuses(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")

		switch request.URL.Query().Get("projectKey") {
		case "gone":
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{"errors":[{"msg":"Project 'gone' not found"}]}`))
		case "failing":
			_, _ = writer.Write([]byte(`{"projectStatus":{"status":"ERROR"}}`))
		default:
			_, _ = writer.Write([]byte(`{"projectStatus":{"status":"OK"}}`))
		}
	}))
	defer server.Close()

	client := NewTestClient(t, server.URL)

	results, err := client.QualityGates().ProjectStatuses(context.Background(), []string{"core", "gone", "failing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gone")
	assert.True(t, sonar.IsNotFound(err))

	require.Len(t, results, 3)
	assert.Equal(t, "core", results[0].Project)
	require.NotNil(t, results[0].Status)
	assert.Equal(t, sonar.GateStatusOK, results[0].Status.Status)
	assert.Equal(t, "gone", results[1].Project)
	assert.Nil(t, results[1].Status)
	assert.Equal(t, "failing", results[2].Project)
	require.NotNil(t, results[2].Status)
	assert.Equal(t, sonar.GateStatusError, results[2].Status.Status)
}
