package client_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/fivetwenty-io/sonar-client/internal/client"
	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestMeasuresClient(t *testing.T) {
	t.Parallel()

	RunOperationTests(t, []TestOperation{
		{
			Name: "component",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Measures().Component(ctx, &sonar.MeasuresComponentRequest{
					Component:        "core",
					MetricKeys:       []string{"coverage", "bugs"},
					AdditionalFields: []string{"metrics"},
					PullRequest:      "42",
				})

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/measures/component",
			Params: map[string]string{
				"component":        "core",
				"metricKeys":       "coverage,bugs",
				"additionalFields": "metrics",
				"pullRequest":      "42",
			},
		},
		{
			Name: "component without metrics",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Measures().Component(ctx, &sonar.MeasuresComponentRequest{Component: "core"})

				return err
			},
			WantValidation: true,
		},
		{
			Name: "component tree",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Measures().ComponentTree("core", "ncloc").
					Strategy(sonar.TreeStrategyLeaves).
					Qualifiers(sonar.QualifierFile).
					MetricSort("ncloc").
					WithSort("metric", false).
					Execute(ctx)

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/measures/component_tree",
			Params: map[string]string{
				"component":  "core",
				"metricKeys": "ncloc",
				"strategy":   "leaves",
				"qualifiers": "FIL",
				"metricSort": "ncloc",
				"s":          "metric",
				"asc":        "false",
			},
		},
		{
			Name: "component tree rejects strategy",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Measures().ComponentTree("core", "ncloc").Strategy("deep").Execute(ctx)

				return err
			},
			WantValidation: true,
		},
		{
			Name: "component tree needs metrics",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Measures().ComponentTree("core").Execute(ctx)

				return err
			},
			WantValidation: true,
		},
		{
			Name: "search history",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Measures().SearchHistory("core", "coverage").
					From(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)).
					Execute(ctx)

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/measures/search_history",
			Params: map[string]string{"component": "core", "metrics": "coverage", "from": "2024-01-01"},
		},
		{
			Name: "metrics search",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Metrics().Search().WithPage(2).Execute(ctx)

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/metrics/search",
			Params: map[string]string{"p": "2"},
		},
		{
			Name: "metric types",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Metrics().Types(ctx)

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/metrics/types",
		},
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestComponentsClient(t *testing.T) {
	t.Parallel()

	RunOperationTests(t, []TestOperation{
		{
			Name: "show on branch",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Components().Show(ctx, sonar.ComponentRef{Component: "core", Branch: "develop"})

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/components/show",
			Params: map[string]string{"component": "core", "branch": "develop"},
		},
		{
			Name: "show with branch and pull request",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Components().Show(ctx, sonar.ComponentRef{Component: "core", Branch: "develop", PullRequest: "7"})

				return err
			},
			WantValidation: true,
		},
		{
			Name: "search",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Components().Search().Qualifiers(sonar.QualifierProject).Query("co").Execute(ctx)

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/components/search",
			Params: map[string]string{"qualifiers": "TRK", "q": "co"},
		},
		{
			Name: "search needs qualifiers",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Components().Search().Query("co").Execute(ctx)

				return err
			},
			WantValidation: true,
		},
		{
			Name: "tree",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Components().Tree("core").Strategy(sonar.TreeStrategyChildren).Execute(ctx)

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/components/tree",
			Params: map[string]string{"component": "core", "strategy": "children"},
		},
		{
			Name: "tree needs component",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Components().Tree("").Execute(ctx)

				return err
			},
			WantValidation: true,
		},
		{
			Name: "source lines",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Sources().Show(ctx, "core:src/Main.java", &sonar.LineRange{From: 10, To: 20})

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/sources/show",
			Params: map[string]string{"key": "core:src/Main.java", "from": "10", "to": "20"},
		},
		{
			Name: "source lines with inverted range",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Sources().Show(ctx, "core:src/Main.java", &sonar.LineRange{From: 20, To: 10})

				return err
			},
			WantValidation: true,
		},
		{
			Name: "scm by line",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Sources().SCM(ctx, "core:src/Main.java", nil, true)

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/sources/scm",
			Params: map[string]string{"key": "core:src/Main.java", "commits_by_line": "true"},
		},
		{
			Name: "duplications",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Duplications().Show(ctx, sonar.ComponentRef{Component: "core:src/Main.java"})

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/duplications/show",
			Params: map[string]string{"key": "core:src/Main.java"},
		},
	})
}

func TestSourcesClient_Raw(t *testing.T) {
	t.Parallel()

	server := NewFakeServer(t, map[string]Route{
		"/api/sources/raw": {Text: "package main\n"},
	})
	client := NewTestClient(t, server.URL)

	source, err := client.Sources().Raw(context.Background(), sonar.ComponentRef{Component: "core:main.go"})
	require.NoError(t, err)
	assert.Equal(t, "package main\n", source)
	assert.Equal(t, "core:main.go", server.Last().Params.Get("key"))
	assert.Equal(t, "text/plain", server.Last().Header.Get("Accept"))
}
