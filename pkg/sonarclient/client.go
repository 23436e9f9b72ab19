// Package sonarclient provides the main entry point for creating SonarQube
// and SonarCloud API clients.
package sonarclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/sonar-client/internal/client"
	"github.com/fivetwenty-io/sonar-client/internal/constants"
	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// New creates a new Sonar API client. The base URL gets an https scheme when
// it has none, and transient failures are retried unless RetryMax is
// negative. The config is not modified.
func New(ctx context.Context, config *sonar.Config) (sonar.Client, error) {
	if config == nil {
		return nil, sonar.ErrConfigRequired
	}

	if strings.TrimSpace(config.BaseURL) == "" {
		return nil, sonar.ErrBaseURLRequired
	}

	normalized := *config
	normalized.BaseURL = NormalizeURL(config.BaseURL)

	if normalized.RetryMax == 0 {
		normalized.RetryMax = constants.DefaultRetryMax
	}

	c, err := client.New(ctx, &normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NormalizeURL adds the https scheme to bare hosts and trims trailing
// slashes.
func NormalizeURL(baseURL string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	return baseURL
}

// NewWithToken creates a new client authenticating with a bearer token.
func NewWithToken(ctx context.Context, baseURL, token string) (sonar.Client, error) {
	return New(ctx, &sonar.Config{
		BaseURL: baseURL,
		Token:   token,
	})
}

// NewWithPassword creates a new client using basic credentials.
func NewWithPassword(ctx context.Context, baseURL, username, password string) (sonar.Client, error) {
	return New(ctx, &sonar.Config{
		BaseURL:  baseURL,
		Username: username,
		Password: password,
	})
}

// NewSonarCloud creates a client for sonarcloud.io scoped to an
// organization.
func NewSonarCloud(ctx context.Context, token, organization string) (sonar.Client, error) {
	if organization == "" {
		return nil, sonar.NewValidationError("organization", "organization is required for SonarCloud")
	}

	return New(ctx, &sonar.Config{
		BaseURL:      constants.SonarCloudURL,
		Token:        token,
		Organization: organization,
	})
}
