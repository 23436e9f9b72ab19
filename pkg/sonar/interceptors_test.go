package sonar

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedLog struct {
	level  string
	msg    string
	fields map[string]interface{}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []recordedLog
}

func (l *recordingLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, recordedLog{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) Debug(msg string, fields map[string]interface{}) { l.record("debug", msg, fields) }
func (l *recordingLogger) Info(msg string, fields map[string]interface{})  { l.record("info", msg, fields) }
func (l *recordingLogger) Warn(msg string, fields map[string]interface{})  { l.record("warn", msg, fields) }
func (l *recordingLogger) Error(msg string, fields map[string]interface{}) { l.record("error", msg, fields) }

func TestInterceptorChain(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	chain := NewInterceptorChain()

	var order []string

	chain.AddRequestInterceptor(func(context.Context, *Request) error {
		order = append(order, "first")

		return nil
	})
	chain.AddRequestInterceptor(func(context.Context, *Request) error {
		order = append(order, "second")

		return nil
	})
	chain.AddResponseInterceptor(func(context.Context, *Request, *Response) error {
		order = append(order, "response")

		return nil
	})

	requests, responses := chain.Len()
	assert.Equal(t, 2, requests)
	assert.Equal(t, 1, responses)

	req := &Request{Method: http.MethodGet, Path: "/api/issues/search"}
	require.NoError(t, chain.ExecuteRequestInterceptors(ctx, req))
	require.NoError(t, chain.ExecuteResponseInterceptors(ctx, req, &Response{StatusCode: http.StatusOK}))
	assert.Equal(t, []string{"first", "second", "response"}, order)

	stop := errors.New("stop")
	chain.AddRequestInterceptor(func(context.Context, *Request) error { return stop })

	err := chain.ExecuteRequestInterceptors(ctx, req)
	require.ErrorIs(t, err, stop)
	assert.Contains(t, err.Error(), "request interceptor failed")
}

func TestHeaderInterceptor(t *testing.T) {
	t.Parallel()

	req := &Request{}
	require.NoError(t, HeaderInterceptor(map[string]string{"X-Trace": "abc"})(context.Background(), req))
	assert.Equal(t, "abc", req.Headers.Get("X-Trace"))
}

func TestLoggingInterceptors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	logger := &recordingLogger{}
	req := &Request{Method: http.MethodGet, Path: "/api/rules/show"}

	require.NoError(t, LoggingInterceptor(logger)(ctx, req))
	require.NoError(t, LoggingResponseInterceptor(logger)(ctx, req, &Response{StatusCode: http.StatusOK}))
	require.NoError(t, LoggingResponseInterceptor(logger)(ctx, req, &Response{
		StatusCode: http.StatusNotFound,
		Error:      errors.New("not found"),
	}))

	require.Len(t, logger.entries, 3)
	assert.Equal(t, "API Request", logger.entries[0].msg)
	assert.Equal(t, "debug", logger.entries[1].level)
	assert.Equal(t, "error", logger.entries[2].level)
	assert.Equal(t, "not found", logger.entries[2].fields["error"])
}

func TestRateLimitInterceptor(t *testing.T) {
	t.Parallel()

	interceptor := RateLimitInterceptor(1)
	req := &Request{}

	require.NoError(t, interceptor(context.Background(), req))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := interceptor(ctx, req)
	require.Error(t, err, "second request within the same second must wait past the deadline")
}

func TestLoggingResponseInterceptor_RateLimited(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{}
	req := &Request{Method: http.MethodGet, Path: "/api/issues/search"}
	resp := &Response{
		StatusCode: http.StatusTooManyRequests,
		Error:      &RateLimitError{APIError: APIError{StatusCode: http.StatusTooManyRequests}, RetryAfter: 3 * time.Second},
	}

	require.NoError(t, LoggingResponseInterceptor(logger)(context.Background(), req, resp))
	require.Len(t, logger.entries, 1)
	assert.Equal(t, "warn", logger.entries[0].level)
	assert.Equal(t, "3s", logger.entries[0].fields["retry_after"])
}

func TestMetricsInterceptors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	collector := NewMetricsCollector()
	chain := NewInterceptorChain()
	collector.Install(chain)

	var changes int

	collector.SetOnChange(func(endpoint string, _ EndpointStats) {
		changes++

		assert.Equal(t, "GET /api/issues/search", endpoint)
	})

	for _, status := range []int{http.StatusOK, http.StatusBadRequest, http.StatusTooManyRequests} {
		req := &Request{Method: http.MethodGet, Path: "/api/issues/search"}
		require.NoError(t, chain.ExecuteRequestInterceptors(ctx, req))
		require.NoError(t, chain.ExecuteResponseInterceptors(ctx, req, &Response{StatusCode: status}))
	}

	stats := collector.GetMetrics("GET /api/issues/search")
	require.NotNil(t, stats)
	assert.Equal(t, int64(3), stats.Requests)
	assert.Equal(t, int64(2), stats.Errors)
	assert.Equal(t, int64(1), stats.RateLimited)
	assert.False(t, stats.LastRequest.IsZero())
	assert.Equal(t, 3, changes)
	assert.Nil(t, collector.GetMetrics("POST /api/x"))

	area := collector.AreaMetrics("api/issues")
	require.NotNil(t, area)
	assert.Equal(t, int64(3), area.Requests)
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestCircuitBreaker(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	var transitions []string

	breaker := NewCircuitBreaker(&CircuitBreakerConfig{
		Threshold:        2,
		Timeout:          20 * time.Millisecond,
		SuccessThreshold: 1,
		OnStateChange: func(from, to BreakerState) {
			transitions = append(transitions, string(from)+">"+string(to))
		},
	})
	chain := NewInterceptorChain()
	breaker.Install(chain)

	req := &Request{}

	assert.Equal(t, BreakerClosed, breaker.State())

	require.NoError(t, chain.ExecuteRequestInterceptors(ctx, req))
	require.NoError(t, chain.ExecuteResponseInterceptors(ctx, req, &Response{StatusCode: http.StatusTooManyRequests}))
	assert.Equal(t, BreakerClosed, breaker.State(), "throttling is not a server failure")

	for range 2 {
		require.NoError(t, chain.ExecuteRequestInterceptors(ctx, req))
		require.NoError(t, chain.ExecuteResponseInterceptors(ctx, req, &Response{StatusCode: http.StatusBadGateway}))
	}

	assert.Equal(t, BreakerOpen, breaker.State())
	require.ErrorIs(t, chain.ExecuteRequestInterceptors(ctx, req), ErrCircuitBreakerOpen)

	time.Sleep(30 * time.Millisecond)

	require.NoError(t, chain.ExecuteRequestInterceptors(ctx, req))
	assert.Equal(t, BreakerHalfOpen, breaker.State())

	require.NoError(t, chain.ExecuteResponseInterceptors(ctx, req, &Response{StatusCode: http.StatusOK}))
	assert.Equal(t, BreakerClosed, breaker.State())

	assert.Equal(t, []string{"closed>open", "open>half-open", "half-open>closed"}, transitions)
	assert.Equal(t, BreakerClosed, NewCircuitBreaker(nil).State())
}

func TestCircuitBreaker_NetworkFailures(t *testing.T) {
	t.Parallel()

	breaker := NewCircuitBreaker(&CircuitBreakerConfig{Threshold: 1, Timeout: time.Minute, SuccessThreshold: 1})
	after := CircuitBreakerResponseInterceptor(breaker)

	err := after(context.Background(), &Request{}, &Response{Error: &NetworkError{Err: errors.New("connection refused")}})
	require.NoError(t, err)
	assert.Equal(t, BreakerOpen, breaker.State())
}
