package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

func subcommandNames(cmd *cobra.Command) []string {
	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}

	return names
}

// cliEnv isolates a CLI run: a fresh viper, a private HOME and config file,
// and no SONAR_* variables leaking in from the environment.
type cliEnv struct {
	t          *testing.T
	configFile string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("HOME", dir)

	for _, name := range []string{"SONAR_URL", "SONAR_HOST_URL", "SONAR_TOKEN", "SONAR_ORGANIZATION", "SONAR_PASSWORD", "SONAR_PASSCODE", "SONAR_OUTPUT"} {
		t.Setenv(name, "")
	}

	return &cliEnv{t: t, configFile: filepath.Join(dir, "config.yml")}
}

// run executes the root command with stdin and returns everything written to stdout.
func (e *cliEnv) run(stdin string, args ...string) (string, error) {
	e.t.Helper()

	viper.Reset()

	root := NewRootCommand("1.2.3", "abc123", "2024-05-01")

	var out, errOut bytes.Buffer

	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", e.configFile}, args...))

	err := root.Execute()

	return out.String(), err
}

func (e *cliEnv) configContents() string {
	e.t.Helper()

	data, err := os.ReadFile(e.configFile)
	require.NoError(e.t, err)

	return string(data)
}

type recordedRequest struct {
	Method string
	Path   string
	Form   map[string]string
	Auth   string
}

// fakeSonar is a minimal Web API server keyed by path.
type fakeSonar struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

func newFakeSonar(t *testing.T, routes map[string]interface{}) *fakeSonar {
	t.Helper()

	fake := &fakeSonar{}
	fake.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()

		form := map[string]string{}
		for key := range r.Form {
			form[key] = r.Form.Get(key)
		}

		fake.mu.Lock()
		fake.requests = append(fake.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Form:   form,
			Auth:   r.Header.Get("Authorization"),
		})
		fake.mu.Unlock()

		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNoContent)

			return
		}

		if text, isText := body.(string); isText {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte(text))

			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(fake.Close)

	return fake
}

func (f *fakeSonar) calls(path string) []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []recordedRequest

	for _, request := range f.requests {
		if request.Path == path {
			matched = append(matched, request)
		}
	}

	return matched
}
