package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ExtendedHTTPTimeout is used for longer operations.
	ExtendedHTTPTimeout = 45 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry and concurrency limits.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 3

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second

	// ExtendedRetryWaitMax is used for operations that need longer waits.
	ExtendedRetryWaitMax = 30 * time.Second

	// DefaultConcurrencyLimit limits concurrent operations.
	DefaultConcurrencyLimit = 4

	// SmallBufferSize is used for smaller buffers.
	SmallBufferSize = 10
)

// Pagination limits enforced by the server.
const (
	// DefaultPageSize is the page size the server uses when ps is omitted.
	DefaultPageSize = 100

	// MaxPageSize is the largest ps value accepted by search endpoints.
	MaxPageSize = 500

	// SearchWindowLimit is the maximum p*ps reachable on index-backed searches.
	SearchWindowLimit = 10000

	// MaxPages is used to prevent infinite loops in pagination.
	MaxPages = 1000

	// StandardPageSize is the page size used by the CLI.
	StandardPageSize = 50
)

// Compute engine task polling.
const (
	// DefaultPollInterval is the first wait between task polls.
	DefaultPollInterval = 1 * time.Second

	// MaxPollInterval caps the wait between task polls.
	MaxPollInterval = 15 * time.Second

	// DefaultTaskPollTimeout is the default timeout for WaitForTask.
	DefaultTaskPollTimeout = 10 * time.Minute
)

// DateTimeFormat is the datetime layout accepted by the API.
const DateTimeFormat = "2006-01-02T15:04:05-0700"

// Compute engine task states.
const (
	TaskStatusPending    = "PENDING"
	TaskStatusInProgress = "IN_PROGRESS"
	TaskStatusSuccess    = "SUCCESS"
	TaskStatusFailed     = "FAILED"
	TaskStatusCanceled   = "CANCELED"
)

// Cache settings.
const (
	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default cache time-to-live.
	DefaultCacheTTL = 5 * time.Minute

	// MaxCacheValueSize is the maximum size for cached values (1MB).
	MaxCacheValueSize = 1024 * 1024

	// DefaultNATSBucket is the JetStream KV bucket used by the NATS cache.
	DefaultNATSBucket = "sonar_client_cache"
)

// Server defaults.
const (
	// SonarCloudURL is the public SonarCloud endpoint.
	SonarCloudURL = "https://sonarcloud.io"

	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "sonar-client-go/1.0"

	// PasscodeHeader carries the system passcode used by monitoring endpoints.
	PasscodeHeader = "X-Sonar-Passcode"
)

// Auth schemes.
const (
	AuthSchemeBearer = "bearer"
	AuthSchemeBasic  = "basic"
)

// Output formats and display.
const (
	// FormatTable for table output format.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2

	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// MessageDisplayLength is the default length for displaying issue messages.
	MessageDisplayLength = 60

	// BooleanTrue string representation.
	BooleanTrue = "true"
)

// Circuit breaker settings.
const (
	// CircuitBreakerThreshold is the number of failures before opening.
	CircuitBreakerThreshold = 5

	// CircuitBreakerTimeout is the time before a half-open probe.
	CircuitBreakerTimeout = 60 * time.Second

	// CircuitBreakerSuccessThreshold is the number of successes to close.
	CircuitBreakerSuccessThreshold = 2
)
