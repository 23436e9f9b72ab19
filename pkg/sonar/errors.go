package sonar

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorMessage is a single entry of the server's {"errors":[{"msg":...}]} payload.
type ErrorMessage struct {
	Msg string `json:"msg" yaml:"msg"`
}

// APIError is returned for every non-2xx response. The concrete error types
// below embed it and unwrap to it, so errors.As with an *APIError target
// matches any of them.
type APIError struct {
	StatusCode int            `json:"status_code" yaml:"status_code"`
	Method     string         `json:"method"      yaml:"method"`
	Path       string         `json:"path"        yaml:"path"`
	Messages   []ErrorMessage `json:"errors"      yaml:"errors"`
	Body       string         `json:"-"           yaml:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	var builder strings.Builder

	if e.Method != "" || e.Path != "" {
		_, _ = fmt.Fprintf(&builder, "%s %s: ", e.Method, e.Path)
	}

	_, _ = fmt.Fprintf(&builder, "status %d", e.StatusCode)

	if msg := e.Message(); msg != "" {
		builder.WriteString(": ")
		builder.WriteString(msg)
	}

	return builder.String()
}

// Message joins the server messages, falling back to the raw body.
func (e *APIError) Message() string {
	if len(e.Messages) == 0 {
		return strings.TrimSpace(e.Body)
	}

	msgs := make([]string, 0, len(e.Messages))
	for _, m := range e.Messages {
		msgs = append(msgs, m.Msg)
	}

	return strings.Join(msgs, "; ")
}

// AuthenticationError is returned for 401 responses.
type AuthenticationError struct {
	APIError
}

// Unwrap exposes the embedded APIError.
func (e *AuthenticationError) Unwrap() error { return &e.APIError }

// AuthorizationError is returned for 403 responses.
type AuthorizationError struct {
	APIError
}

// Unwrap exposes the embedded APIError.
func (e *AuthorizationError) Unwrap() error { return &e.APIError }

// NotFoundError is returned for 404 responses.
type NotFoundError struct {
	APIError
}

// Unwrap exposes the embedded APIError.
func (e *NotFoundError) Unwrap() error { return &e.APIError }

// RateLimitError is returned for 429 responses.
type RateLimitError struct {
	APIError

	// RetryAfter is the server-requested delay, zero when not provided.
	RetryAfter time.Duration
}

// Unwrap exposes the embedded APIError.
func (e *RateLimitError) Unwrap() error { return &e.APIError }

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s (retry after %s)", e.APIError.Error(), e.RetryAfter)
	}

	return e.APIError.Error()
}

// ServerError is returned for 5xx responses.
type ServerError struct {
	APIError
}

// Unwrap exposes the embedded APIError.
func (e *ServerError) Unwrap() error { return &e.APIError }

// ValidationError is returned for 400 responses and for parameters rejected
// before a request is sent. StatusCode is zero for client-side failures.
type ValidationError struct {
	APIError

	Field string
}

// Unwrap exposes the embedded APIError.
func (e *ValidationError) Unwrap() error { return &e.APIError }

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.StatusCode == 0 {
		if e.Field != "" {
			return fmt.Sprintf("invalid parameter %q: %s", e.Field, e.Message())
		}

		return "invalid request: " + e.Message()
	}

	return e.APIError.Error()
}

// NewValidationError creates a client-side validation error.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{
		APIError: APIError{Messages: []ErrorMessage{{Msg: msg}}},
		Field:    field,
	}
}

// NetworkError is returned when no HTTP response was received.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Method, e.URL, e.Err)
}

// Unwrap returns the transport error.
func (e *NetworkError) Unwrap() error { return e.Err }

// NewResponseError maps a non-2xx response onto the error taxonomy.
func NewResponseError(statusCode int, header http.Header, body []byte, method, path string) error {
	base := APIError{
		StatusCode: statusCode,
		Method:     method,
		Path:       path,
		Body:       string(body),
	}

	if parsed, err := ParseErrorMessages(body); err == nil {
		base.Messages = parsed
	}

	switch {
	case statusCode == http.StatusBadRequest:
		return &ValidationError{APIError: base}
	case statusCode == http.StatusUnauthorized:
		return &AuthenticationError{APIError: base}
	case statusCode == http.StatusForbidden:
		return &AuthorizationError{APIError: base}
	case statusCode == http.StatusNotFound:
		return &NotFoundError{APIError: base}
	case statusCode == http.StatusTooManyRequests:
		return &RateLimitError{APIError: base, RetryAfter: parseRetryAfter(header.Get("Retry-After"))}
	case statusCode >= http.StatusInternalServerError:
		return &ServerError{APIError: base}
	default:
		return &base
	}
}

// ParseErrorMessages parses the {"errors":[{"msg":...}]} payload.
func ParseErrorMessages(data []byte) ([]ErrorMessage, error) {
	var payload struct {
		Errors []ErrorMessage `json:"errors"`
	}

	err := json.Unmarshal(data, &payload)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal error payload: %w", err)
	}

	return payload.Errors, nil
}

func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}

	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}

	return 0
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	var target *NotFoundError

	return errors.As(err, &target)
}

// IsUnauthorized checks if the error is an authentication error.
func IsUnauthorized(err error) bool {
	var target *AuthenticationError

	return errors.As(err, &target)
}

// IsForbidden checks if the error is an authorization error.
func IsForbidden(err error) bool {
	var target *AuthorizationError

	return errors.As(err, &target)
}

// IsRateLimited checks if the error is a rate limit error.
func IsRateLimited(err error) bool {
	var target *RateLimitError

	return errors.As(err, &target)
}

// IsServerError checks if the error is a server error.
func IsServerError(err error) bool {
	var target *ServerError

	return errors.As(err, &target)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	var target *ValidationError

	return errors.As(err, &target)
}

// IsNetwork checks if the error is a network error.
func IsNetwork(err error) bool {
	var target *NetworkError

	return errors.As(err, &target)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}

	return 0
}

// Common static errors that can be wrapped with context.
var (
	ErrConfigRequired     = errors.New("config is required")
	ErrBaseURLRequired    = errors.New("base URL is required")
	ErrInvalidBaseURL     = errors.New("invalid base URL")
	ErrTaskFailed         = errors.New("compute engine task failed")
	ErrNoMoreItems        = errors.New("no more items")
	ErrCacheMiss          = errors.New("key not found")
	ErrCacheEntryExpired  = errors.New("entry expired")
	ErrUnexpectedResponse = errors.New("unexpected response")
)
