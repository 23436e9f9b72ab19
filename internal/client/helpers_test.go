package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// Route is a canned reply of the fake server.
type Route struct {
	Status int
	// JSON is encoded as the body when set.
	JSON interface{}
	// Text is written verbatim when JSON is nil.
	Text string
}

// RecordedRequest is a request seen by the fake server. Params holds the
// query for GET and the form for POST.
type RecordedRequest struct {
	Method string
	Path   string
	Params url.Values
	Header http.Header
	Body   []byte
}

// FakeServer answers Sonar API calls from routes keyed by path and records
// every request. Unknown paths answer 200 with an empty object.
type FakeServer struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]Route
	requests []RecordedRequest
}

// NewFakeServer starts a fake server that is closed with the test.
func NewFakeServer(t *testing.T, routes map[string]Route) *FakeServer {
	t.Helper()

	server := &FakeServer{routes: routes}
	server.Server = httptest.NewServer(http.HandlerFunc(server.handle))
	t.Cleanup(server.Close)

	return server
}

func (s *FakeServer) handle(writer http.ResponseWriter, request *http.Request) {
	body, _ := io.ReadAll(request.Body)

	params := request.URL.Query()
	if request.Header.Get("Content-Type") == "application/x-www-form-urlencoded" {
		params, _ = url.ParseQuery(string(body))
	}

	s.mu.Lock()
	s.requests = append(s.requests, RecordedRequest{
		Method: request.Method,
		Path:   request.URL.Path,
		Params: params,
		Header: request.Header.Clone(),
		Body:   body,
	})
	route, ok := s.routes[request.URL.Path]
	s.mu.Unlock()

	if !ok {
		route = Route{JSON: map[string]interface{}{}}
	}

	status := route.Status
	if status == 0 {
		status = http.StatusOK
	}

	if route.JSON != nil {
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(status)
		_ = json.NewEncoder(writer).Encode(route.JSON)

		return
	}

	writer.WriteHeader(status)
	_, _ = io.WriteString(writer, route.Text)
}

// Requests returns every recorded request.
func (s *FakeServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]RecordedRequest(nil), s.requests...)
}

// Last returns the last recorded request, or a zero value.
func (s *FakeServer) Last() RecordedRequest {
	requests := s.Requests()
	if len(requests) == 0 {
		return RecordedRequest{}
	}

	return requests[len(requests)-1]
}

// NewTestClient creates a client against baseURL with retries disabled.
// Options adjust the config before the client is built.
func NewTestClient(t *testing.T, baseURL string, options ...func(*sonar.Config)) *Client {
	t.Helper()

	config := &sonar.Config{BaseURL: baseURL, Token: "test-token"}
	for _, option := range options {
		option(config)
	}

	client, err := New(context.Background(), config)
	require.NoError(t, err)

	return client
}

// WithOrganization sets the organization of a test client.
func WithOrganization(organization string) func(*sonar.Config) {
	return func(config *sonar.Config) {
		config.Organization = organization
	}
}

// TestOperation is a table entry for RunOperationTests.
type TestOperation struct {
	Name string
	// Call invokes the operation under test.
	Call func(ctx context.Context, client *Client) error
	// Method and Path are the expected request line; an empty Path means no
	// request is expected.
	Method string
	Path   string
	// Params must all be present with these values.
	Params map[string]string
	// Route overrides the reply for Path.
	Route *Route
	// WantValidation expects a validation error before any request.
	WantValidation bool
	WantErr        bool
	ErrMessage     string
}

// RunOperationTests runs each operation against its own fake server and
// checks the request it sent.
func RunOperationTests(t *testing.T, tests []TestOperation) {
	t.Helper()

	for _, testCase := range tests {
		t.Run(testCase.Name, func(t *testing.T) {
			t.Parallel()

			routes := map[string]Route{}
			if testCase.Route != nil {
				routes[testCase.Path] = *testCase.Route
			}

			server := NewFakeServer(t, routes)
			client := NewTestClient(t, server.URL)

			err := testCase.Call(context.Background(), client)

			if testCase.WantValidation {
				require.Error(t, err)
				assert.True(t, sonar.IsValidation(err), "expected validation error, got %v", err)
				assert.Empty(t, server.Requests(), "no request expected")

				return
			}

			if testCase.WantErr {
				require.Error(t, err)

				if testCase.ErrMessage != "" {
					assert.Contains(t, err.Error(), testCase.ErrMessage)
				}
			} else {
				require.NoError(t, err)
			}

			if testCase.Path == "" {
				return
			}

			request := server.Last()
			assert.Equal(t, testCase.Method, request.Method)
			assert.Equal(t, testCase.Path, request.Path)

			for key, want := range testCase.Params {
				assert.Equal(t, want, request.Params.Get(key), "parameter %s", key)
			}
		})
	}
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}
