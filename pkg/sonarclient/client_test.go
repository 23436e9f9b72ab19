package sonarclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
	"github.com/fivetwenty-io/sonar-client/pkg/sonarclient"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("creates client with config", func(t *testing.T) {
		t.Parallel()

		client, err := sonarclient.New(context.Background(), &sonar.Config{BaseURL: "https://sonar.example.com"})
		require.NoError(t, err)
		assert.Equal(t, "https://sonar.example.com", client.BaseURL())
	})

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()

		_, err := sonarclient.New(context.Background(), nil)
		require.ErrorIs(t, err, sonar.ErrConfigRequired)
	})

	t.Run("missing base url", func(t *testing.T) {
		t.Parallel()

		_, err := sonarclient.New(context.Background(), &sonar.Config{BaseURL: "  "})
		require.ErrorIs(t, err, sonar.ErrBaseURLRequired)
	})

	t.Run("does not modify config", func(t *testing.T) {
		t.Parallel()

		config := &sonar.Config{BaseURL: "sonar.example.com/"}

		client, err := sonarclient.New(context.Background(), config)
		require.NoError(t, err)
		assert.Equal(t, "https://sonar.example.com", client.BaseURL())
		assert.Equal(t, "sonar.example.com/", config.BaseURL)
		assert.Zero(t, config.RetryMax)
	})
}

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare host", "sonar.example.com", "https://sonar.example.com"},
		{"trailing slash", "https://sonar.example.com/", "https://sonar.example.com"},
		{"context path", "http://localhost:9000/sonarqube//", "http://localhost:9000/sonarqube"},
		{"whitespace", " sonarcloud.io ", "https://sonarcloud.io"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, sonarclient.NormalizeURL(tt.input))
		})
	}
}

func TestNewWithToken(t *testing.T) {
	t.Parallel()

	client, err := sonarclient.NewWithToken(context.Background(), "https://sonar.example.com", "squ_test")
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNewWithPassword(t *testing.T) {
	t.Parallel()

	client, err := sonarclient.NewWithPassword(context.Background(), "https://sonar.example.com", "admin", "admin")
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNewSonarCloud(t *testing.T) {
	t.Parallel()

	t.Run("scoped to organization", func(t *testing.T) {
		t.Parallel()

		client, err := sonarclient.NewSonarCloud(context.Background(), "squ_test", "acme")
		require.NoError(t, err)
		assert.Equal(t, "https://sonarcloud.io", client.BaseURL())
		assert.Equal(t, "acme", client.Organization())
	})

	t.Run("requires organization", func(t *testing.T) {
		t.Parallel()

		_, err := sonarclient.NewSonarCloud(context.Background(), "squ_test", "")
		require.Error(t, err)
		assert.True(t, sonar.IsValidation(err))
	})
}

func TestClientIntegration(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.URL.Path {
		case "/api/system/status":
			assert.Equal(t, "Bearer squ_test", request.Header.Get("Authorization"))

			writer.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(writer).Encode(sonar.SystemStatus{ID: "20240101", Version: "10.4.1", Status: "UP"})
		default:
			writer.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client, err := sonarclient.NewWithToken(context.Background(), server.URL, "squ_test")
	require.NoError(t, err)

	status, err := client.System().Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "UP", status.Status)
	assert.Equal(t, "10.4.1", status.Version)
}

func TestNew_DefaultRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			writer.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"id":"1","version":"10.4","status":"UP"}`))
	}))
	defer server.Close()

	client, err := sonarclient.New(context.Background(), &sonar.Config{
		BaseURL:      server.URL,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
	})
	require.NoError(t, err)

	status, err := client.System().Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "UP", status.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestNew_NegativeRetryMaxDisablesRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writer.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := sonarclient.New(context.Background(), &sonar.Config{BaseURL: server.URL, RetryMax: -1})
	require.NoError(t, err)

	_, err = client.System().Status(context.Background())
	require.Error(t, err)
	assert.True(t, sonar.IsServerError(err))
	assert.Equal(t, int32(1), calls.Load())
}
