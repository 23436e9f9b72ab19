package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/sonar-client/internal/auth"
	sonarhttp "github.com/fivetwenty-io/sonar-client/internal/http"
	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// MockLogger for testing.
type MockLogger struct {
	logs []map[string]interface{}
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "debug", "msg": msg, "fields": fields})
}

func (l *MockLogger) Info(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "info", "msg": msg, "fields": fields})
}

func (l *MockLogger) Warn(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "warn", "msg": msg, "fields": fields})
}

func (l *MockLogger) Error(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "error", "msg": msg, "fields": fields})
}

func fastRetries() sonarhttp.Option {
	return sonarhttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond)
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()
	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/api/projects/search", request.URL.Path)
			assert.Equal(t, http.MethodGet, request.Method)
			assert.Equal(t, "Bearer test-token", request.Header.Get("Authorization"))
			assert.Equal(t, "application/json", request.Header.Get("Accept"))

			_ = json.NewEncoder(writer).Encode(map[string]string{"key": "my-project"})
		}))
		defer server.Close()

		client := sonarhttp.NewClient(server.URL, auth.NewBearerProvider("test-token"))

		resp, err := client.Do(context.Background(), &sonarhttp.Request{
			Method: http.MethodGet,
			Path:   "/api/projects/search",
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result map[string]string

		err = json.Unmarshal(resp.Body, &result)
		require.NoError(t, err)
		assert.Equal(t, "my-project", result["key"])
	})

	t.Run("request with query parameters", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "BUG,VULNERABILITY", request.URL.Query().Get("types"))
			assert.Equal(t, "2", request.URL.Query().Get("p"))

			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := sonarhttp.NewClient(server.URL, nil)

		resp, err := client.Get(context.Background(), "/api/issues/search", url.Values{
			"types": []string{"BUG,VULNERABILITY"},
			"p":     []string{"2"},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("request with JSON body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

			var body map[string]string

			err := json.NewDecoder(request.Body).Decode(&body)
			assert.NoError(t, err)
			assert.Equal(t, "AX-1", body["issueId"])

			writer.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := sonarhttp.NewClient(server.URL, nil)

		resp, err := client.Post(context.Background(), "/fix-suggestions/ai-suggestions", map[string]string{"issueId": "AX-1"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("request with form body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "application/x-www-form-urlencoded", request.Header.Get("Content-Type"))
			assert.NoError(t, request.ParseForm())
			assert.Equal(t, "my-project", request.PostForm.Get("project"))
			assert.Equal(t, "My Project", request.PostForm.Get("name"))

			writer.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client := sonarhttp.NewClient(server.URL, nil)

		resp, err := client.PostForm(context.Background(), "/api/projects/create", url.Values{
			"project": []string{"my-project"},
			"name":    []string{"My Project"},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("error response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{"errors":[{"msg":"Component key 'nope' not found"}]}`))
		}))
		defer server.Close()

		client := sonarhttp.NewClient(server.URL, nil)

		resp, err := client.Get(context.Background(), "/api/components/show", url.Values{"component": []string{"nope"}})
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var notFound *sonar.NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "/api/components/show", notFound.Path)
		assert.Contains(t, err.Error(), "Component key 'nope' not found")
		assert.True(t, sonar.IsNotFound(err))
	})

	t.Run("custom headers", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "custom-value", request.Header.Get("X-Custom-Header"))
			assert.Equal(t, "text/plain", request.Header.Get("Accept"))
			assert.Equal(t, "my-agent", request.Header.Get("User-Agent"))

			_, _ = writer.Write([]byte("pong"))
		}))
		defer server.Close()

		client := sonarhttp.NewClient(server.URL, nil, sonarhttp.WithUserAgent("my-agent"))

		resp, err := client.Do(context.Background(), &sonarhttp.Request{
			Method:  http.MethodGet,
			Path:    "/api/system/ping",
			Headers: map[string]string{"X-Custom-Header": "custom-value"},
			Accept:  "text/plain",
		})
		require.NoError(t, err)
		assert.Equal(t, "pong", string(resp.Body))
	})

	t.Run("absolute URL", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/fix-suggestions/issues/AX-1", request.URL.Path)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := sonarhttp.NewClient("https://unused.example.com", nil)

		resp, err := client.Get(context.Background(), server.URL+"/fix-suggestions/issues/AX-1", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("with debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := sonarhttp.NewClient(server.URL, nil,
			sonarhttp.WithLogger(logger),
			sonarhttp.WithDebug(true),
		)

		_, err := client.Get(context.Background(), "/api/languages/list", nil)
		require.NoError(t, err)

		require.Len(t, logger.logs, 2)
		assert.Equal(t, "HTTP Request", logger.logs[0]["msg"])
		assert.Equal(t, "HTTP Response", logger.logs[1]["msg"])
	})
}

func TestClient_Methods(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		call   func(ctx context.Context, client *sonarhttp.Client) (*sonarhttp.Response, error)
	}{
		{
			name:   "GET",
			method: http.MethodGet,
			call: func(ctx context.Context, client *sonarhttp.Client) (*sonarhttp.Response, error) {
				return client.Get(ctx, "/test", nil)
			},
		},
		{
			name:   "POST",
			method: http.MethodPost,
			call: func(ctx context.Context, client *sonarhttp.Client) (*sonarhttp.Response, error) {
				return client.Post(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "PUT",
			method: http.MethodPut,
			call: func(ctx context.Context, client *sonarhttp.Client) (*sonarhttp.Response, error) {
				return client.Put(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "PATCH",
			method: http.MethodPatch,
			call: func(ctx context.Context, client *sonarhttp.Client) (*sonarhttp.Response, error) {
				return client.Patch(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "DELETE",
			method: http.MethodDelete,
			call: func(ctx context.Context, client *sonarhttp.Client) (*sonarhttp.Response, error) {
				return client.Delete(ctx, "/test")
			},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, testCase.method, request.Method)
				writer.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := sonarhttp.NewClient(server.URL, nil)

			resp, err := testCase.call(context.Background(), client)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_RetryLogic(t *testing.T) {
	t.Parallel()
	t.Run("retries on 5xx errors", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if attempts.Add(1) < 3 {
				writer.WriteHeader(http.StatusBadGateway)

				return
			}

			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := sonarhttp.NewClient(server.URL, nil, fastRetries(), sonarhttp.WithLogger(logger))

		resp, err := client.Get(context.Background(), "/api/issues/search", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int32(3), attempts.Load())

		warnings := 0

		for _, entry := range logger.logs {
			if entry["msg"] == "Retrying HTTP request" {
				warnings++
			}
		}

		assert.Equal(t, 2, warnings)
	})

	t.Run("retries on rate limiting", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if attempts.Add(1) < 2 {
				writer.Header().Set("Retry-After", "0")
				writer.WriteHeader(http.StatusTooManyRequests)

				return
			}

			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := sonarhttp.NewClient(server.URL, nil, fastRetries())

		resp, err := client.PostForm(context.Background(), "/api/issues/add_comment", url.Values{"issue": []string{"AX-1"}})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int32(2), attempts.Load())
	})

	t.Run("does not retry on client errors", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusBadRequest)
			_, _ = writer.Write([]byte(`{"errors":[{"msg":"The 'project' parameter is missing"}]}`))
		}))
		defer server.Close()

		client := sonarhttp.NewClient(server.URL, nil, fastRetries())

		resp, err := client.Get(context.Background(), "/api/projects/search", nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
		assert.True(t, sonar.IsValidation(err))
	})

	t.Run("does not retry POST on 5xx", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := sonarhttp.NewClient(server.URL, nil, fastRetries())

		resp, err := client.PostForm(context.Background(), "/api/projects/create", url.Values{})
		require.Error(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
		assert.True(t, sonar.IsServerError(err))
	})

	t.Run("returns last response when retries are exhausted", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusInternalServerError)
			_, _ = writer.Write([]byte(`{"errors":[{"msg":"boom"}]}`))
		}))
		defer server.Close()

		client := sonarhttp.NewClient(server.URL, nil, sonarhttp.WithRetryConfig(2, time.Millisecond, 5*time.Millisecond))

		resp, err := client.Get(context.Background(), "/api/issues/search", nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, int32(3), attempts.Load())
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("zero retries", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := sonarhttp.NewClient(server.URL, nil, sonarhttp.WithRetryConfig(0, time.Millisecond, time.Millisecond))

		_, err := client.Get(context.Background(), "/api/issues/search", nil)
		require.Error(t, err)
		assert.Equal(t, int32(1), attempts.Load())
	})
}

func TestClient_NetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {}))
	serverURL := server.URL
	server.Close()

	client := sonarhttp.NewClient(serverURL, nil, sonarhttp.WithRetryConfig(0, time.Millisecond, time.Millisecond))

	resp, err := client.Get(context.Background(), "/api/server/version", nil)
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, sonar.IsNetwork(err))
}

func TestClient_AuthError(t *testing.T) {
	t.Parallel()

	called := false
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		called = true
	}))
	defer server.Close()

	errNoToken := errors.New("no token")
	provider := auth.ProviderFunc(func(_ context.Context, _ http.Header) error {
		return errNoToken
	})

	client := sonarhttp.NewClient(server.URL, provider)

	_, err := client.Get(context.Background(), "/api/issues/search", nil)
	require.ErrorIs(t, err, errNoToken)
	assert.False(t, called)
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Cache(t *testing.T) {
	t.Parallel()
	t.Run("serves repeated GETs from cache", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			hits.Add(1)
			_, _ = writer.Write([]byte(`{"languages":[{"key":"go","name":"Go"}]}`))
		}))
		defer server.Close()

		manager := sonar.NewCacheManager(nil, nil)
		client := sonarhttp.NewClient(server.URL, nil, sonarhttp.WithCache(manager, nil))

		for range 3 {
			resp, err := client.Get(context.Background(), "/api/languages/list", nil)
			require.NoError(t, err)
			assert.JSONEq(t, `{"languages":[{"key":"go","name":"Go"}]}`, string(resp.Body))
		}

		assert.Equal(t, int32(1), hits.Load())
		assert.Equal(t, int64(2), manager.GetStats().Hits)
	})

	t.Run("cache hits bypass interceptors", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			_, _ = io.WriteString(writer, `{"languages":[]}`)
		}))
		defer server.Close()

		collector := sonar.NewMetricsCollector()
		chain := sonar.NewInterceptorChain()
		collector.Install(chain)

		client := sonarhttp.NewClient(server.URL, nil,
			sonarhttp.WithInterceptors(chain),
			sonarhttp.WithCache(sonar.NewCacheManager(nil, nil), nil))

		resp, err := client.Get(context.Background(), "/api/languages/list", nil)
		require.NoError(t, err)
		assert.Empty(t, resp.Headers.Get("X-Cache"))

		for range 2 {
			resp, err = client.Get(context.Background(), "/api/languages/list", nil)
			require.NoError(t, err)
			assert.Equal(t, "HIT", resp.Headers.Get("X-Cache"))
		}

		stats := collector.GetMetrics("GET /api/languages/list")
		require.NotNil(t, stats)
		assert.Equal(t, int64(1), stats.Requests)
	})

	t.Run("mutations invalidate the area", func(t *testing.T) {
		t.Parallel()

		var searches atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.Method == http.MethodGet {
				searches.Add(1)
			}

			writer.WriteHeader(http.StatusOK)
			_, _ = writer.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := sonarhttp.NewClient(server.URL, nil, sonarhttp.WithCache(sonar.NewCacheManager(nil, nil), nil))
		ctx := context.Background()

		_, err := client.Get(ctx, "/api/projects/search", nil)
		require.NoError(t, err)
		_, err = client.Get(ctx, "/api/projects/search", nil)
		require.NoError(t, err)
		assert.Equal(t, int32(1), searches.Load())

		_, err = client.PostForm(ctx, "/api/projects/create", url.Values{"project": []string{"p"}})
		require.NoError(t, err)

		_, err = client.Get(ctx, "/api/projects/search", nil)
		require.NoError(t, err)
		assert.Equal(t, int32(2), searches.Load())
	})

	t.Run("excluded paths are not cached", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			hits.Add(1)
			_, _ = writer.Write([]byte(`{"status":"UP"}`))
		}))
		defer server.Close()

		client := sonarhttp.NewClient(server.URL, nil, sonarhttp.WithCache(sonar.NewCacheManager(nil, nil), nil))

		for range 2 {
			_, err := client.Get(context.Background(), "/api/system/status", nil)
			require.NoError(t, err)
		}

		assert.Equal(t, int32(2), hits.Load())
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Interceptors(t *testing.T) {
	t.Parallel()
	t.Run("request interceptors modify headers", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "trace-1", request.Header.Get("X-Trace-Id"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		chain := sonar.NewInterceptorChain()
		chain.AddRequestInterceptor(sonar.HeaderInterceptor(map[string]string{"X-Trace-Id": "trace-1"}))

		client := sonarhttp.NewClient(server.URL, nil, sonarhttp.WithInterceptors(chain))

		_, err := client.Get(context.Background(), "/api/issues/search", nil)
		require.NoError(t, err)
	})

	t.Run("request interceptor error aborts", func(t *testing.T) {
		t.Parallel()

		called := false
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			called = true
		}))
		defer server.Close()

		errBlocked := errors.New("blocked")
		chain := sonar.NewInterceptorChain()
		chain.AddRequestInterceptor(func(_ context.Context, _ *sonar.Request) error {
			return errBlocked
		})

		client := sonarhttp.NewClient(server.URL, nil, sonarhttp.WithInterceptors(chain))

		_, err := client.Get(context.Background(), "/api/issues/search", nil)
		require.ErrorIs(t, err, errBlocked)
		assert.False(t, called)
	})

	t.Run("response interceptors see status and errors", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		var seen *sonar.Response

		chain := sonar.NewInterceptorChain()
		chain.AddResponseInterceptor(func(_ context.Context, _ *sonar.Request, resp *sonar.Response) error {
			seen = resp

			return nil
		})

		client := sonarhttp.NewClient(server.URL, nil, sonarhttp.WithInterceptors(chain))

		_, err := client.Get(context.Background(), "/api/settings/values", nil)
		require.Error(t, err)
		require.NotNil(t, seen)
		assert.Equal(t, http.StatusForbidden, seen.StatusCode)
		assert.True(t, sonar.IsForbidden(seen.Error))
	})

	t.Run("metrics collector", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			_, _ = io.WriteString(writer, `{}`)
		}))
		defer server.Close()

		collector := sonar.NewMetricsCollector()
		chain := sonar.NewInterceptorChain()
		collector.Install(chain)

		client := sonarhttp.NewClient(server.URL, nil, sonarhttp.WithInterceptors(chain), sonarhttp.WithRateLimit(100))

		for range 2 {
			_, err := client.Get(context.Background(), "/api/metrics/search", nil)
			require.NoError(t, err)
		}

		stats := collector.GetMetrics("GET /api/metrics/search")
		require.NotNil(t, stats)
		assert.Equal(t, int64(2), stats.Requests)
		assert.Positive(t, stats.TotalLatency)

		area := collector.AreaMetrics("api/metrics")
		require.NotNil(t, area)
		assert.Equal(t, int64(2), area.Requests)
	})
}
