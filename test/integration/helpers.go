//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
	"github.com/fivetwenty-io/sonar-client/pkg/sonarclient"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	URL          string
	Token        string
	Organization string
	SonarPath    string
	Verbose      bool
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		URL:          os.Getenv("SONAR_URL"),
		Token:        os.Getenv("SONAR_TOKEN"),
		Organization: os.Getenv("SONAR_ORGANIZATION"),
		SonarPath:    getSonarPath(),
		Verbose:      os.Getenv("SONAR_VERBOSE") == "true",
	}
}

func getSonarPath() string {
	if path := os.Getenv("SONAR_BINARY_PATH"); path != "" {
		return path
	}

	candidates := []string{
		"../../sonar",
		"./sonar",
		"../sonar",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "sonar"
}

// SkipIfMissingConfig skips the test unless a server and token are configured.
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.URL == "" || config.Token == "" {
		t.Skip("SONAR_URL or SONAR_TOKEN not set, skipping integration test")
	}
}

// SkipIfMissingBinary skips the test when the sonar binary was not built.
func (config *TestConfig) SkipIfMissingBinary(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath(config.SonarPath); err != nil {
		t.Skipf("sonar binary not found at %s, skipping integration test", config.SonarPath)
	}
}

// NewClient creates a library client against the configured server.
func (config *TestConfig) NewClient(t *testing.T) sonar.Client {
	t.Helper()

	client, err := sonarclient.New(context.Background(), &sonar.Config{
		BaseURL:      config.URL,
		Token:        config.Token,
		Organization: config.Organization,
		UserAgent:    "sonar-client-integration",
	})
	require.NoError(t, err)

	return client
}

// CommandRunner runs sonar CLI commands with an isolated config file.
type CommandRunner struct {
	config     *TestConfig
	configFile string
	t          *testing.T
}

// NewCommandRunner creates a new command runner.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{
		config:     config,
		configFile: filepath.Join(t.TempDir(), "config.yml"),
		t:          t,
	}
}

// Run executes a sonar command and returns its output.
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	return runner.RunWithInput("", args...)
}

// RunWithInput executes a sonar command with stdin input.
func (runner *CommandRunner) RunWithInput(input string, args ...string) (stdout, stderr string, err error) {
	args = append([]string{"--config", runner.configFile}, args...)

	//nolint:gosec // The binary path comes from the test environment
	cmd := exec.Command(runner.config.SonarPath, args...)
	cmd.Env = append(os.Environ(),
		"SONAR_URL="+runner.config.URL,
		"SONAR_TOKEN="+runner.config.Token,
		"SONAR_ORGANIZATION="+runner.config.Organization,
	)
	cmd.Stdin = strings.NewReader(input)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.SonarPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// GenerateTestName creates a unique test resource name.
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// CleanupResource attempts to delete a test resource.
func (runner *CommandRunner) CleanupResource(resourceType, name string) {
	var args []string

	switch resourceType {
	case "project":
		args = []string{"projects", "delete", name, "--force"}
	case "webhook":
		args = []string{"webhooks", "delete", name}
	case "token":
		args = []string{"tokens", "revoke", name}
	default:
		runner.t.Logf("Unknown resource type for cleanup: %s", resourceType)

		return
	}

	stdout, stderr, err := runner.Run(args...)
	if err != nil && runner.config.Verbose {
		runner.t.Logf("Cleanup warning for %s %s: %s\nStderr: %s", resourceType, name, stdout, stderr)
	}
}

// AssertJSONOutput verifies command output is valid JSON.
func AssertJSONOutput(t *testing.T, output string) {
	t.Helper()

	require.True(t, json.Valid([]byte(strings.TrimSpace(output))), "output is not JSON: %s", output)
}

// AssertYAMLOutput verifies command output is valid YAML.
func AssertYAMLOutput(t *testing.T, output string) {
	t.Helper()

	var decoded interface{}
	require.NoError(t, yaml.Unmarshal([]byte(output), &decoded), "output is not YAML: %s", output)
	require.NotNil(t, decoded)
}
