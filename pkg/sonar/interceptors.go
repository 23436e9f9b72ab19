package sonar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/fivetwenty-io/sonar-client/internal/constants"
)

var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

const startTimeKey = "start_time"

// Request is the view of an outgoing call that interceptors may inspect and
// change. Only Headers changes reach the wire.
type Request struct {
	Method string
	Path   string
	// Area is the API area of Path, see CacheArea.
	Area     string
	Query    url.Values
	Headers  http.Header
	Body     []byte
	Metadata map[string]interface{}
}

// Response is what came back for a Request. Error is set for transport
// failures and for non-2xx statuses.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Error      error
}

// RequestInterceptor is called before a request is sent. Returning an error aborts it.
type RequestInterceptor func(ctx context.Context, req *Request) error

// ResponseInterceptor is called after a response is received.
type ResponseInterceptor func(ctx context.Context, req *Request, resp *Response) error

// InterceptorChain holds interceptors in registration order. It is safe to
// add interceptors while requests are in flight.
type InterceptorChain struct {
	mu        sync.RWMutex
	onRequest []RequestInterceptor
	onReply   []ResponseInterceptor
}

// NewInterceptorChain creates an empty interceptor chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{}
}

// AddRequestInterceptor appends a request interceptor to the chain.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) {
	c.mu.Lock()
	c.onRequest = append(c.onRequest, interceptor)
	c.mu.Unlock()
}

// AddResponseInterceptor appends a response interceptor to the chain.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) {
	c.mu.Lock()
	c.onReply = append(c.onReply, interceptor)
	c.mu.Unlock()
}

// Len returns the number of request and response interceptors.
func (c *InterceptorChain) Len() (int, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.onRequest), len(c.onReply)
}

// ExecuteRequestInterceptors stops at the first error; the request is not
// sent.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *Request) error {
	c.mu.RLock()
	interceptors := c.onRequest
	c.mu.RUnlock()

	for _, interceptor := range interceptors {
		if err := interceptor(ctx, req); err != nil {
			return fmt.Errorf("%s %s rejected before sending: %w", req.Method, req.Path, err)
		}
	}

	return nil
}

// ExecuteResponseInterceptors runs all response interceptors, stopping at the first error.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *Request, resp *Response) error {
	c.mu.RLock()
	interceptors := c.onReply
	c.mu.RUnlock()

	for _, interceptor := range interceptors {
		if err := interceptor(ctx, req, resp); err != nil {
			return fmt.Errorf("%s %s response interceptor: %w", req.Method, req.Path, err)
		}
	}

	return nil
}

// LoggingInterceptor logs each call at debug level.
func LoggingInterceptor(logger Logger) RequestInterceptor {
	return func(_ context.Context, req *Request) error {
		fields := map[string]interface{}{
			"method": req.Method,
			"path":   req.Path,
			"area":   req.Area,
		}
		if len(req.Query) > 0 {
			fields["query"] = req.Query.Encode()
		}

		logger.Debug("API Request", fields)

		return nil
	}
}

// LoggingResponseInterceptor logs throttling at warn level and other
// failures at error level.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(_ context.Context, req *Request, resp *Response) error {
		fields := map[string]interface{}{
			"method":      req.Method,
			"path":        req.Path,
			"status_code": resp.StatusCode,
		}

		var limited *RateLimitError

		switch {
		case errors.As(resp.Error, &limited):
			fields["retry_after"] = limited.RetryAfter.String()
			logger.Warn("API Rate Limited", fields)
		case resp.Error != nil:
			fields["error"] = resp.Error.Error()
			logger.Error("API Response Error", fields)
		default:
			logger.Debug("API Response", fields)
		}

		return nil
	}
}

// RateLimitInterceptor spaces requests with a token bucket whose burst is
// one second of requests, at least one.
func RateLimitInterceptor(requestsPerSecond float64) RequestInterceptor {
	burst := max(int(requestsPerSecond), 1)
	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), burst)

	return func(ctx context.Context, _ *Request) error {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		return nil
	}
}

// HeaderInterceptor adds custom headers to requests.
func HeaderInterceptor(headers map[string]string) RequestInterceptor {
	return func(_ context.Context, req *Request) error {
		if req.Headers == nil {
			req.Headers = make(http.Header)
		}

		for key, value := range headers {
			req.Headers.Set(key, value)
		}

		return nil
	}
}

// EndpointStats counts calls to one endpoint or API area.
type EndpointStats struct {
	Requests       int64
	Errors         int64
	RateLimited    int64
	TotalLatency   time.Duration
	AverageLatency time.Duration
	LastRequest    time.Time
}

func (s *EndpointStats) record(latency time.Duration, resp *Response) {
	s.Requests++
	s.LastRequest = time.Now()

	if latency > 0 {
		s.TotalLatency += latency
		s.AverageLatency = s.TotalLatency / time.Duration(s.Requests)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		s.RateLimited++
		s.Errors++
	case resp.Error != nil || resp.StatusCode >= http.StatusBadRequest:
		s.Errors++
	}
}

// MetricsCollector keeps call statistics keyed by "METHOD /path" and by API
// area.
type MetricsCollector struct {
	mu        sync.Mutex
	endpoints map[string]*EndpointStats
	areas     map[string]*EndpointStats
	onChange  func(endpoint string, stats EndpointStats)
}

// NewMetricsCollector creates an empty metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		endpoints: make(map[string]*EndpointStats),
		areas:     make(map[string]*EndpointStats),
	}
}

// SetOnChange registers a callback run after every recorded call.
func (m *MetricsCollector) SetOnChange(fn func(endpoint string, stats EndpointStats)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// GetMetrics returns a copy of the statistics for "METHOD /path", or nil.
func (m *MetricsCollector) GetMetrics(endpoint string) *EndpointStats {
	return m.lookup(m.endpoints, endpoint)
}

// AreaMetrics returns a copy of the statistics of an API area such as
// "api/issues", or nil.
func (m *MetricsCollector) AreaMetrics(area string) *EndpointStats {
	return m.lookup(m.areas, area)
}

func (m *MetricsCollector) lookup(from map[string]*EndpointStats, key string) *EndpointStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := from[key]
	if !ok {
		return nil
	}

	snapshot := *stats

	return &snapshot
}

// Install adds the collector's interceptors to chain.
func (m *MetricsCollector) Install(chain *InterceptorChain) {
	chain.AddRequestInterceptor(MetricsRequestInterceptor(m))
	chain.AddResponseInterceptor(MetricsResponseInterceptor(m))
}

func (m *MetricsCollector) record(req *Request, resp *Response) {
	endpoint := req.Method + " " + req.Path

	area := req.Area
	if area == "" {
		area = CacheArea(req.Path)
	}

	var latency time.Duration
	if started, ok := req.Metadata[startTimeKey].(time.Time); ok {
		latency = time.Since(started)
	}

	m.mu.Lock()

	for key, into := range map[string]map[string]*EndpointStats{endpoint: m.endpoints, area: m.areas} {
		stats, ok := into[key]
		if !ok {
			stats = &EndpointStats{}
			into[key] = stats
		}

		stats.record(latency, resp)
	}

	snapshot := *m.endpoints[endpoint]
	onChange := m.onChange

	m.mu.Unlock()

	if onChange != nil {
		onChange(endpoint, snapshot)
	}
}

// MetricsRequestInterceptor stamps the request start time.
func MetricsRequestInterceptor(_ *MetricsCollector) RequestInterceptor {
	return func(_ context.Context, req *Request) error {
		if req.Metadata == nil {
			req.Metadata = make(map[string]interface{})
		}

		req.Metadata[startTimeKey] = time.Now()

		return nil
	}
}

// MetricsResponseInterceptor records latency and outcome of each call.
func MetricsResponseInterceptor(collector *MetricsCollector) ResponseInterceptor {
	return func(_ context.Context, req *Request, resp *Response) error {
		collector.record(req, resp)

		return nil
	}
}

// BreakerState is the state of a CircuitBreaker.
type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"
	BreakerOpen     BreakerState = "open"
	BreakerHalfOpen BreakerState = "half-open"
)

// CircuitBreakerConfig configures a CircuitBreaker. A nil config gets the defaults.
type CircuitBreakerConfig struct {
	Threshold        int           // consecutive failures before opening
	Timeout          time.Duration // time open before a probe is allowed
	SuccessThreshold int           // probe successes needed to close
	// OnStateChange is called with the breaker lock released.
	OnStateChange func(from, to BreakerState)
}

// CircuitBreaker stops calling a server that keeps failing. Server errors
// and transport failures count as failures; throttling (429) and client
// errors do not.
type CircuitBreaker struct {
	mu          sync.Mutex
	config      CircuitBreakerConfig
	failures    int
	successes   int
	state       BreakerState
	lastFailure time.Time
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(config *CircuitBreakerConfig) *CircuitBreaker {
	cfg := CircuitBreakerConfig{
		Threshold:        constants.CircuitBreakerThreshold,
		Timeout:          constants.CircuitBreakerTimeout,
		SuccessThreshold: constants.CircuitBreakerSuccessThreshold,
	}
	if config != nil {
		cfg = *config
	}

	return &CircuitBreaker{config: cfg, state: BreakerClosed}
}

// State returns the current breaker state.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

// Install adds the breaker's interceptors to chain.
func (b *CircuitBreaker) Install(chain *InterceptorChain) {
	chain.AddRequestInterceptor(CircuitBreakerRequestInterceptor(b))
	chain.AddResponseInterceptor(CircuitBreakerResponseInterceptor(b))
}

// transition must be called with b.mu held; it returns the notification to
// run once the lock is released.
func (b *CircuitBreaker) transition(to BreakerState) func() {
	from := b.state
	if from == to {
		return func() {}
	}

	b.state = to

	if b.config.OnStateChange == nil {
		return func() {}
	}

	return func() { b.config.OnStateChange(from, to) }
}

func (b *CircuitBreaker) before() error {
	b.mu.Lock()

	if b.state != BreakerOpen {
		b.mu.Unlock()

		return nil
	}

	if time.Since(b.lastFailure) <= b.config.Timeout {
		b.mu.Unlock()

		return ErrCircuitBreakerOpen
	}

	b.successes = 0
	notify := b.transition(BreakerHalfOpen)
	b.mu.Unlock()
	notify()

	return nil
}

func (b *CircuitBreaker) after(resp *Response) {
	b.mu.Lock()

	notify := func() {}

	if (resp.Error != nil && resp.StatusCode == 0) || resp.StatusCode >= http.StatusInternalServerError {
		b.failures++
		b.lastFailure = time.Now()

		if b.failures >= b.config.Threshold || b.state == BreakerHalfOpen {
			notify = b.transition(BreakerOpen)
		}
	} else {
		switch b.state {
		case BreakerHalfOpen:
			b.successes++
			if b.successes >= b.config.SuccessThreshold {
				b.failures = 0
				notify = b.transition(BreakerClosed)
			}
		case BreakerClosed:
			b.failures = 0
		case BreakerOpen:
		}
	}

	b.mu.Unlock()
	notify()
}

// CircuitBreakerRequestInterceptor rejects requests while the breaker is open.
func CircuitBreakerRequestInterceptor(breaker *CircuitBreaker) RequestInterceptor {
	return func(context.Context, *Request) error {
		return breaker.before()
	}
}

// CircuitBreakerResponseInterceptor feeds response outcomes to the breaker.
func CircuitBreakerResponseInterceptor(breaker *CircuitBreaker) ResponseInterceptor {
	return func(_ context.Context, _ *Request, resp *Response) error {
		breaker.after(resp)

		return nil
	}
}
