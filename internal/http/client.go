package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/sonar-client/internal/auth"
	"github.com/fivetwenty-io/sonar-client/internal/constants"
	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// Logger is the structured logger used by the client.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Client is the HTTP client shared by every resource client.
type Client struct {
	baseURL      string
	httpClient   *retryablehttp.Client
	authProvider auth.Provider
	logger       Logger
	debug        bool
	userAgent    string
	interceptors []*sonar.InterceptorChain
	cache        *sonar.CacheManager
	cachePolicy  *sonar.CachingPolicy
}

// Request is an API request. Path is relative to the base URL unless it is
// an absolute URL. Form takes precedence over Body; Body is sent as JSON.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Form    url.Values
	Headers map[string]string
	// Accept overrides the default application/json.
	Accept string
}

// Response is a fully read API response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Option configures the client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithRetryConfig sets the retry budget and backoff bounds. A retryMax of
// zero or less disables retries.
func WithRetryConfig(retryMax int, retryWaitMin, retryWaitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = max(retryMax, 0)

		if retryWaitMin > 0 {
			c.httpClient.RetryWaitMin = retryWaitMin
		}

		if retryWaitMax > 0 {
			c.httpClient.RetryWaitMax = retryWaitMax
		}
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.HTTPClient.Timeout = timeout
		}
	}
}

// WithInterceptors adds an interceptor chain. Chains run in the order added
// and only for requests that reach the network; cache hits skip them.
func WithInterceptors(chain *sonar.InterceptorChain) Option {
	return func(c *Client) {
		if chain != nil {
			c.interceptors = append(c.interceptors, chain)
		}
	}
}

// WithRateLimit limits outgoing requests per second.
func WithRateLimit(requestsPerSecond float64) Option {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			return
		}

		chain := sonar.NewInterceptorChain()
		chain.AddRequestInterceptor(sonar.RateLimitInterceptor(requestsPerSecond))
		c.interceptors = append(c.interceptors, chain)
	}
}

// WithCache caches GET responses. A nil policy uses sonar.DefaultCachingPolicy.
// Hits are answered before any interceptor runs, carry an X-Cache: HIT header
// and are served even while a circuit breaker is open.
func WithCache(manager *sonar.CacheManager, policy *sonar.CachingPolicy) Option {
	return func(c *Client) {
		if policy == nil {
			policy = sonar.DefaultCachingPolicy()
		}

		c.cache = manager
		c.cachePolicy = policy
	}
}

// NewClient creates a new HTTP client. A nil provider sends anonymous
// requests.
func NewClient(baseURL string, authProvider auth.Provider, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.Logger = nil
	retryClient.CheckRetry = checkRetry
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   retryClient,
		authProvider: authProvider,
		userAgent:    constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.logger != nil {
		retryClient.Logger = &retryLogger{logger: client.logger}
		retryClient.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
			if attempt > 0 {
				client.logger.Warn("Retrying HTTP request", map[string]interface{}{
					"method":  req.Method,
					"url":     req.URL.String(),
					"attempt": attempt,
				})
			}
		}
	}

	return client
}

// BaseURL returns the server URL without trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs a request. Non-2xx responses return both the response and a
// typed error from the sonar package.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL := c.resolveURL(req.Path, req.Query)

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	cacheKey := c.cacheKey(req)
	if cacheKey != "" {
		data, cacheErr := c.cache.Get(ctx, cacheKey)
		if cacheErr == nil {
			c.logDebug("Cache hit", map[string]interface{}{"path": req.Path})

			return &Response{
				StatusCode: http.StatusOK,
				Body:       data,
				Headers:    http.Header{"X-Cache": []string{"HIT"}},
			}, nil
		}
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	err = c.setHeaders(ctx, httpReq, req, contentType)
	if err != nil {
		return nil, err
	}

	intercepted := &sonar.Request{
		Method:   req.Method,
		Path:     req.Path,
		Area:     sonar.CacheArea(req.Path),
		Query:    req.Query,
		Headers:  httpReq.Header,
		Body:     body,
		Metadata: make(map[string]interface{}),
	}

	for _, chain := range c.interceptors {
		err = chain.ExecuteRequestInterceptors(ctx, intercepted)
		if err != nil {
			return nil, err
		}
	}

	httpReq.Header = intercepted.Headers

	c.logDebug("HTTP Request", map[string]interface{}{
		"method": req.Method,
		"url":    fullURL,
	})

	start := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		netErr := &sonar.NetworkError{Method: req.Method, URL: fullURL, Err: err}
		_ = c.runResponseInterceptors(ctx, intercepted, &sonar.Response{Error: netErr})

		return nil, netErr
	}

	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &sonar.NetworkError{Method: req.Method, URL: fullURL, Err: fmt.Errorf("reading response body: %w", err)}
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
		Headers:    httpResp.Header,
	}

	c.logDebug("HTTP Response", map[string]interface{}{
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	})

	var respErr error
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respErr = sonar.NewResponseError(resp.StatusCode, resp.Headers, respBody, req.Method, req.Path)
	}

	err = c.runResponseInterceptors(ctx, intercepted, &sonar.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       respBody,
		Error:      respErr,
	})
	if err != nil {
		return resp, err
	}

	if respErr != nil {
		return resp, respErr
	}

	c.updateCache(ctx, req, cacheKey, resp)

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
	})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
}

// PostForm performs a POST request with a form body.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values) (*Response, error) {
	if form == nil {
		form = url.Values{}
	}

	return c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   path,
		Form:   form,
	})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPut,
		Path:   path,
		Body:   body,
	})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPatch,
		Path:   path,
		Body:   body,
	})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodDelete,
		Path:   path,
	})
}

func (c *Client) resolveURL(path string, query url.Values) string {
	fullURL := path
	if !isAbsolute(path) {
		fullURL = c.baseURL + path
	}

	if len(query) == 0 {
		return fullURL
	}

	separator := "?"
	if strings.Contains(fullURL, "?") {
		separator = "&"
	}

	return fullURL + separator + query.Encode()
}

func (c *Client) setHeaders(ctx context.Context, httpReq *retryablehttp.Request, req *Request, contentType string) error {
	accept := req.Accept
	if accept == "" {
		accept = contentTypeJSON
	}

	httpReq.Header.Set("Accept", accept)
	httpReq.Header.Set("User-Agent", c.userAgent)

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if c.authProvider != nil {
		err := c.authProvider.Apply(ctx, httpReq.Header)
		if err != nil {
			return fmt.Errorf("applying credentials: %w", err)
		}
	}

	return nil
}

func (c *Client) runResponseInterceptors(ctx context.Context, req *sonar.Request, resp *sonar.Response) error {
	for _, chain := range c.interceptors {
		err := chain.ExecuteResponseInterceptors(ctx, req, resp)
		if err != nil {
			return err
		}
	}

	return nil
}

func (c *Client) cacheKey(req *Request) string {
	if c.cache == nil || req.Method != http.MethodGet || isAbsolute(req.Path) {
		return ""
	}

	return c.cache.GetCacheKey(req.Method, req.Path, req.Query)
}

func (c *Client) updateCache(ctx context.Context, req *Request, cacheKey string, resp *Response) {
	if c.cache == nil || isAbsolute(req.Path) {
		return
	}

	if req.Method != http.MethodGet {
		err := c.cache.InvalidatePath(ctx, req.Path)
		if err != nil {
			c.logWarn("Cache invalidation failed", map[string]interface{}{"path": req.Path, "error": err.Error()})
		}

		return
	}

	if cacheKey == "" || !c.cachePolicy.ShouldCache(req.Method, req.Path, resp.StatusCode) {
		return
	}

	err := c.cache.SetWithETag(ctx, cacheKey, resp.Body, resp.Headers.Get("ETag"), 0)
	if err != nil {
		c.logWarn("Cache store failed", map[string]interface{}{"path": req.Path, "error": err.Error()})
	}
}

func (c *Client) logDebug(msg string, fields map[string]interface{}) {
	if c.debug && c.logger != nil {
		c.logger.Debug(msg, fields)
	}
}

func (c *Client) logWarn(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, fields)
	}
}

func encodeBody(req *Request) ([]byte, string, error) {
	if req.Form != nil {
		return []byte(req.Form.Encode()), contentTypeForm, nil
	}

	if req.Body == nil {
		return nil, "", nil
	}

	data, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", fmt.Errorf("encoding request body: %w", err)
	}

	return data, contentTypeJSON, nil
}

func isAbsolute(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// checkRetry retries connection errors and 429 for every method, and 5xx
// (except 501) only for idempotent methods.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return true, nil
	}

	if resp.StatusCode >= http.StatusInternalServerError && resp.StatusCode != http.StatusNotImplemented {
		return isIdempotent(resp.Request), nil
	}

	return false, nil
}

func isIdempotent(req *http.Request) bool {
	if req == nil {
		return false
	}

	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}

// retryLogger forwards retryablehttp warnings and errors to Logger.
type retryLogger struct {
	logger Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, toFields(keysAndValues))
}

func (l *retryLogger) Info(string, ...interface{}) {}

func (l *retryLogger) Debug(string, ...interface{}) {}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, toFields(keysAndValues))
}

func toFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}

		fields[key] = keysAndValues[i+1]
	}

	return fields
}

var _ retryablehttp.LeveledLogger = (*retryLogger)(nil)
