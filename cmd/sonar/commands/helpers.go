package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/sonar-client/internal/constants"
	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
	"github.com/fivetwenty-io/sonar-client/pkg/sonarclient"
)

// Common static errors used throughout the commands package.
var (
	ErrServerURLRequired    = errors.New("server URL is required (use --url or sonar login)")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUnknownConfigKey     = errors.New("unknown configuration key")
	ErrQualityGateFailed    = errors.New("quality gate failed")
	ErrDeliveryFilterNeeded = errors.New("one of --webhook, --component or --task is required")
	ErrAborted              = errors.New("aborted")
)

// StandardJSONRenderer writes data as indented JSON.
func StandardJSONRenderer[T any](w io.Writer, data T) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to JSON: %w", err)
	}

	return nil
}

// StandardYAMLRenderer writes data as YAML.
func StandardYAMLRenderer[T any](w io.Writer, data T) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(constants.JSONIndentSize)

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to YAML: %w", err)
	}

	return encoder.Close()
}

// StandardOutputRenderer handles common JSON/YAML/table output logic.
type StandardOutputRenderer[T any] struct {
	RenderTable func(w io.Writer, data T) error
}

// Render writes data in the format selected by --output.
func (r *StandardOutputRenderer[T]) Render(cmd *cobra.Command, data T) error {
	w := cmd.OutOrStdout()

	switch format := viper.GetString("output"); format {
	case constants.FormatJSON:
		return StandardJSONRenderer(w, data)
	case constants.FormatYAML:
		return StandardYAMLRenderer(w, data)
	case constants.FormatTable, "":
		return r.RenderTable(w, data)
	default:
		return fmt.Errorf("%w: %q", constants.ErrInvalidOutputFormat, format)
	}
}

func render[T any](cmd *cobra.Command, data T, table func(w io.Writer, data T) error) error {
	renderer := &StandardOutputRenderer[T]{RenderTable: table}

	return renderer.Render(cmd, data)
}

func newTable(w io.Writer, headers ...any) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.Header(headers...)

	return table
}

func renderTable(table *tablewriter.Table) error {
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func renderProperties(w io.Writer, rows [][2]string) error {
	table := newTable(w, "Property", "Value")
	for _, row := range rows {
		_ = table.Append(row[0], row[1])
	}

	return renderTable(table)
}

// humanize turns API enum values such as CODE_SMELL into "Code Smell".
func humanize(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return cases.Title(language.English).String(strings.ReplaceAll(strings.ToLower(value), "_", " "))
}

func orNotAvailable(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}

func truncate(value string, length int) string {
	runes := []rune(value)
	if len(runes) <= length {
		return value
	}

	return string(runes[:length-3]) + "..."
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}

	return "no"
}

func maskSecret(value string) string {
	if value == "" {
		return ""
	}

	return constants.MaskedSecret
}

// newLogger returns the zerolog logger used for --verbose request tracing.
func newLogger(w io.Writer) sonar.Logger {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(zerolog.DebugLevel).
		With().Timestamp().Logger()

	return sonar.NewZerologLogger(logger)
}

// clientConfigFromViper builds the client configuration from flags, env and the config file.
func clientConfigFromViper(cmd *cobra.Command) (*sonar.Config, error) {
	config := loadConfig()
	if config.URL == "" {
		return nil, ErrServerURLRequired
	}

	clientConfig := &sonar.Config{
		BaseURL:      config.URL,
		Token:        config.Token,
		AuthScheme:   config.AuthScheme,
		Username:     config.Username,
		Password:     viper.GetString("password"),
		Passcode:     viper.GetString("passcode"),
		Organization: config.Organization,
		HTTPTimeout:  viper.GetDuration("timeout"),
		UserAgent:    "sonar-cli",
	}

	if viper.GetBool("verbose") {
		clientConfig.Debug = true
		clientConfig.Logger = newLogger(cmd.ErrOrStderr())
	}

	return clientConfig, nil
}

func createClient(cmd *cobra.Command) (sonar.Client, error) {
	clientConfig, err := clientConfigFromViper(cmd)
	if err != nil {
		return nil, err
	}

	client, err := sonarclient.New(cmd.Context(), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}
