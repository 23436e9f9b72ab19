package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/fivetwenty-io/sonar-client/internal/client"
	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

func TestSystemClient(t *testing.T) {
	t.Parallel()

	server := NewFakeServer(t, map[string]Route{
		"/api/system/status":  {JSON: map[string]string{"id": "sq1", "version": "10.4", "status": "UP"}},
		"/api/system/ping":    {Text: "pong\n"},
		"/api/server/version": {Text: "10.4.1.88267"},
		"/api/system/info":    {JSON: map[string]interface{}{"System": map[string]string{"Edition": "Community"}}},
	})
	client := NewTestClient(t, server.URL)
	ctx := context.Background()

	status, err := client.System().Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "UP", status.Status)
	assert.Equal(t, "10.4", status.Version)

	pong, err := client.System().Ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pong", pong)
	assert.Equal(t, "text/plain", server.Last().Header.Get("Accept"))

	version, err := client.System().Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10.4.1.88267", version)

	info, err := client.System().Info(ctx)
	require.NoError(t, err)
	assert.Contains(t, info, "System")
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestSettingsClient(t *testing.T) {
	t.Parallel()

	RunOperationTests(t, []TestOperation{
		{
			Name: "values",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Settings().Values(ctx, "core", "sonar.exclusions", "sonar.coverage.exclusions")

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/settings/values",
			Params: map[string]string{"component": "core", "keys": "sonar.exclusions,sonar.coverage.exclusions"},
		},
		{
			Name: "set single value",
			Call: func(ctx context.Context, client *Client) error {
				return client.Settings().Set(ctx, &sonar.SettingSetRequest{Key: "sonar.links.ci", Value: "https://ci.example.com"})
			},
			Method: http.MethodPost,
			Path:   "/api/settings/set",
			Params: map[string]string{"key": "sonar.links.ci", "value": "https://ci.example.com"},
		},
		{
			Name: "set without value",
			Call: func(ctx context.Context, client *Client) error {
				return client.Settings().Set(ctx, &sonar.SettingSetRequest{Key: "sonar.links.ci"})
			},
			WantValidation: true,
		},
		{
			Name: "set value and values",
			Call: func(ctx context.Context, client *Client) error {
				return client.Settings().Set(ctx, &sonar.SettingSetRequest{
					Key:    "sonar.exclusions",
					Value:  "a",
					Values: []string{"b"},
				})
			},
			WantValidation: true,
		},
		{
			Name: "reset",
			Call: func(ctx context.Context, client *Client) error {
				return client.Settings().Reset(ctx, "core", "sonar.exclusions")
			},
			Method: http.MethodPost,
			Path:   "/api/settings/reset",
			Params: map[string]string{"component": "core", "keys": "sonar.exclusions"},
		},
		{
			Name: "reset without keys",
			Call: func(ctx context.Context, client *Client) error {
				return client.Settings().Reset(ctx, "core")
			},
			WantValidation: true,
		},
		{
			Name: "list definitions",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Settings().ListDefinitions(ctx, "core")

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/settings/list_definitions",
			Params: map[string]string{"component": "core"},
		},
	})
}

func TestSettingsClient_SetRepeatsValues(t *testing.T) {
	t.Parallel()

	server := NewFakeServer(t, nil)
	client := NewTestClient(t, server.URL)
	ctx := context.Background()

	err := client.Settings().Set(ctx, &sonar.SettingSetRequest{
		Key:    "sonar.exclusions",
		Values: []string{"**/vendor/**", "**/*.pb.go"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"**/vendor/**", "**/*.pb.go"}, server.Last().Params["values"])

	err = client.Settings().Set(ctx, &sonar.SettingSetRequest{
		Key: "sonar.issue.ignore.multicriteria",
		FieldValues: []map[string]string{
			{"ruleKey": "go:S1234", "resourceKey": "**/gen/**"},
			{"ruleKey": "go:S100", "resourceKey": "**"},
		},
	})
	require.NoError(t, err)

	fieldValues := server.Last().Params["fieldValues"]
	require.Len(t, fieldValues, 2)

	var first map[string]string
	require.NoError(t, json.Unmarshal([]byte(fieldValues[0]), &first))
	assert.Equal(t, "go:S1234", first["ruleKey"])
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestAdministrationClients(t *testing.T) {
	t.Parallel()

	RunOperationTests(t, []TestOperation{
		{
			Name: "languages",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Languages().List(ctx, "ja")

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/languages/list",
			Params: map[string]string{"q": "ja"},
		},
		{
			Name: "installed plugins",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Plugins().Installed(ctx)

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/plugins/installed",
		},
		{
			Name: "available plugins",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Plugins().Available(ctx)

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/plugins/available",
		},
		{
			Name: "install plugin",
			Call: func(ctx context.Context, client *Client) error {
				return client.Plugins().Install(ctx, "sonar-go")
			},
			Method: http.MethodPost,
			Path:   "/api/plugins/install",
			Params: map[string]string{"key": "sonar-go"},
		},
		{
			Name: "uninstall plugin without key",
			Call: func(ctx context.Context, client *Client) error {
				return client.Plugins().Uninstall(ctx, "")
			},
			WantValidation: true,
		},
		{
			Name: "web services with internals",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Webservices().List(ctx, true)

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/webservices/list",
			Params: map[string]string{"include_internals": "true"},
		},
		{
			Name: "add favorite",
			Call: func(ctx context.Context, client *Client) error {
				return client.Favorites().Add(ctx, "core")
			},
			Method: http.MethodPost,
			Path:   "/api/favorites/add",
			Params: map[string]string{"component": "core"},
		},
		{
			Name: "remove favorite",
			Call: func(ctx context.Context, client *Client) error {
				return client.Favorites().Remove(ctx, "core")
			},
			Method: http.MethodPost,
			Path:   "/api/favorites/remove",
			Params: map[string]string{"component": "core"},
		},
		{
			Name: "search favorites",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Favorites().Search().Execute(ctx)

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/favorites/search",
		},
		{
			Name: "list notifications",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Notifications().List(ctx, "jdoe")

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/notifications/list",
			Params: map[string]string{"login": "jdoe"},
		},
		{
			Name: "add notification",
			Call: func(ctx context.Context, client *Client) error {
				return client.Notifications().Add(ctx, &sonar.NotificationRequest{
					Type:    "NewAlerts",
					Channel: "EmailNotificationChannel",
					Project: "core",
				})
			},
			Method: http.MethodPost,
			Path:   "/api/notifications/add",
			Params: map[string]string{"type": "NewAlerts", "channel": "EmailNotificationChannel", "project": "core"},
		},
		{
			Name: "remove notification without type",
			Call: func(ctx context.Context, client *Client) error {
				return client.Notifications().Remove(ctx, &sonar.NotificationRequest{Project: "core"})
			},
			WantValidation: true,
		},
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestCEClient(t *testing.T) {
	t.Parallel()

	RunOperationTests(t, []TestOperation{
		{
			Name: "task",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.CE().Task(ctx, "T1")

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/ce/task",
			Params: map[string]string{"id": "T1"},
		},
		{
			Name: "task without id",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.CE().Task(ctx, "")

				return err
			},
			WantValidation: true,
		},
		{
			Name: "component",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.CE().Component(ctx, "core")

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/ce/component",
			Params: map[string]string{"component": "core"},
		},
		{
			Name: "activity status across instance",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.CE().ActivityStatus(ctx, "")

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/ce/activity_status",
		},
		{
			Name: "activity",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.CE().Activity().Component("core").OnlyCurrents(true).Execute(ctx)

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/ce/activity",
			Params: map[string]string{"component": "core", "onlyCurrents": "true"},
		},
	})
}

// taskServer reports the given statuses in order, repeating the last one.
func taskServer(t *testing.T, statuses ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		call := int(calls.Add(1)) - 1
		if call >= len(statuses) {
			call = len(statuses) - 1
		}

		task := map[string]string{"id": request.URL.Query().Get("id"), "status": statuses[call]}
		if statuses[call] == "FAILED" {
			task["errorMessage"] = "Unsupported language"
		}

		writer.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(writer).Encode(map[string]interface{}{"task": task})
	}))
	t.Cleanup(server.Close)

	return server, &calls
}

func TestCEClient_WaitForTask(t *testing.T) {
	t.Parallel()

	fast := &sonar.WaitOptions{InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond, Timeout: 5 * time.Second}

	t.Run("polls until success", func(t *testing.T) {
		t.Parallel()

		server, calls := taskServer(t, "PENDING", "IN_PROGRESS", "SUCCESS")
		client := NewTestClient(t, server.URL)

		task, err := client.CE().WaitForTask(context.Background(), "T1", fast)
		require.NoError(t, err)
		assert.Equal(t, "SUCCESS", task.Status)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("failed task", func(t *testing.T) {
		t.Parallel()

		server, _ := taskServer(t, "IN_PROGRESS", "FAILED")
		client := NewTestClient(t, server.URL)

		task, err := client.CE().WaitForTask(context.Background(), "T1", fast)
		require.Error(t, err)
		assert.True(t, errors.Is(err, sonar.ErrTaskFailed))
		assert.Contains(t, err.Error(), "Unsupported language")
		require.NotNil(t, task)
		assert.Equal(t, "FAILED", task.Status)
	})

	t.Run("canceled task", func(t *testing.T) {
		t.Parallel()

		server, _ := taskServer(t, "CANCELED")
		client := NewTestClient(t, server.URL)

		_, err := client.CE().WaitForTask(context.Background(), "T1", fast)
		assert.ErrorIs(t, err, sonar.ErrTaskFailed)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		server, _ := taskServer(t, "IN_PROGRESS")
		client := NewTestClient(t, server.URL)

		task, err := client.CE().WaitForTask(context.Background(), "T1", &sonar.WaitOptions{
			InitialInterval: 5 * time.Millisecond,
			MaxInterval:     10 * time.Millisecond,
			Timeout:         60 * time.Millisecond,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Contains(t, err.Error(), "timeout waiting for task T1")
		require.NotNil(t, task)
		assert.Equal(t, "IN_PROGRESS", task.Status)
	})

	t.Run("lookup failure", func(t *testing.T) {
		t.Parallel()

		server := NewFakeServer(t, map[string]Route{
			"/api/ce/task": {Status: http.StatusNotFound, JSON: map[string]interface{}{"errors": []map[string]string{{"msg": "No activity found"}}}},
		})
		client := NewTestClient(t, server.URL)

		task, err := client.CE().WaitForTask(context.Background(), "T1", fast)
		require.Error(t, err)
		assert.Nil(t, task)
		assert.True(t, sonar.IsNotFound(err))
	})
}
