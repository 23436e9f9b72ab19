package sonar

import (
	"time"
)

// ProjectClients provides access to project-scoped resource clients.
type ProjectClients interface {
	Projects() ProjectsClient
	Components() ComponentsClient
	ProjectBranches() ProjectBranchesClient
	ProjectAnalyses() ProjectAnalysesClient
	ProjectTags() ProjectTagsClient
	ProjectLinks() ProjectLinksClient
	ProjectBadges() ProjectBadgesClient
	Applications() ApplicationsClient
	NewCodePeriods() NewCodePeriodsClient
}

// QualityClients provides access to analysis results and quality configuration.
type QualityClients interface {
	Issues() IssuesClient
	Hotspots() HotspotsClient
	Rules() RulesClient
	QualityGates() QualityGatesClient
	QualityProfiles() QualityProfilesClient
	Measures() MeasuresClient
	Metrics() MetricsClient
	Sources() SourcesClient
	Duplications() DuplicationsClient
	FixSuggestions() FixSuggestionsClient
}

// AccessClients provides access to identity and permission clients.
type AccessClients interface {
	Authentication() AuthenticationClient
	Users() UsersClient
	UserGroups() UserGroupsClient
	UserTokens() UserTokensClient
	Permissions() PermissionsClient
}

// AdministrationClients provides access to instance administration clients.
type AdministrationClients interface {
	System() SystemClient
	Settings() SettingsClient
	Languages() LanguagesClient
	Webhooks() WebhooksClient
	CE() CEClient
	Plugins() PluginsClient
	Webservices() WebservicesClient
	Favorites() FavoritesClient
	Notifications() NotificationsClient
}

// ResourceClients provides access to all resource-specific clients.
type ResourceClients interface {
	ProjectClients
	QualityClients
	AccessClients
	AdministrationClients
}

// Client is the root of the API surface.
type Client interface {
	ResourceClients

	// BaseURL returns the normalized server URL.
	BaseURL() string
	// Organization returns the organization injected into scoped calls.
	Organization() string
	// ServerVersion returns the version detected on init, or "".
	ServerVersion() string
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a sonar.Client.
//
// # Authentication precedence
//
//  1. Token with AuthScheme "bearer" (the default): sent as
//     "Authorization: Bearer <token>".
//  2. Token with AuthScheme "basic": sent as the basic-auth login with an
//     empty password, which older servers require.
//  3. Username/Password: basic credentials.
//  4. No credentials: anonymous requests.
//
// Passcode is independent of the above and adds the X-Sonar-Passcode header
// accepted by the monitoring endpoints.
//
// # Retries
//
// RetryMax of zero disables retries in the internal client; sonarclient.New
// replaces it with a default. A negative value always disables retries.
type Config struct {
	// BaseURL: server URL, e.g. "https://sonarcloud.io" or
	// "https://sonar.example.com/sonarqube".
	BaseURL string

	// Token: user, project analysis or global analysis token.
	Token string
	// AuthScheme: "bearer" or "basic". Empty means bearer.
	AuthScheme string
	// Username: login for basic credentials.
	Username string
	// Password: password for basic credentials.
	Password string
	// Passcode: system passcode for monitoring endpoints.
	Passcode string

	// Organization: SonarCloud organization key added to scoped operations.
	Organization string

	// HTTPTimeout: per-attempt timeout of the underlying HTTP client.
	HTTPTimeout time.Duration
	// RetryMax: maximum number of retries for transient failures.
	RetryMax int
	// RetryWaitMin: minimum backoff between retries.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between retries.
	RetryWaitMax time.Duration
	// RateLimit: client-side requests per second; zero means unlimited.
	RateLimit float64

	// Debug: enables request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger.
	Logger Logger
	// UserAgent: overrides the default User-Agent header.
	UserAgent string

	// Cache: optional response cache for GET requests. Cache hits bypass
	// Interceptors.
	Cache Cache
	// CacheTTL: lifetime of cached responses; zero uses the default.
	CacheTTL time.Duration
	// Interceptors: optional extra request/response interceptors, run only
	// for requests sent to the server.
	Interceptors *InterceptorChain

	// DetectVersionOnInit: when true, /api/server/version is fetched on
	// creation and exposed through Client.ServerVersion.
	DetectVersionOnInit bool
	// V2BaseURL: base URL for v2 endpoints. Empty means BaseURL + "/api/v2",
	// except for SonarCloud where api.sonarcloud.io is used.
	V2BaseURL string
}
