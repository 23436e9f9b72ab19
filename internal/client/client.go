package client

import (
	"context"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/sonar-client/internal/auth"
	"github.com/fivetwenty-io/sonar-client/internal/constants"
	"github.com/fivetwenty-io/sonar-client/internal/http"
	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

const sonarCloudAPIURL = "https://api.sonarcloud.io"

// Client implements the sonar.Client interface.
type Client struct {
	httpClient    *http.Client
	requester     *requester
	baseURL       string
	organization  string
	serverVersion string
	logger        sonar.Logger

	// Resource clients
	authentication  sonar.AuthenticationClient
	system          sonar.SystemClient
	projects        sonar.ProjectsClient
	components      sonar.ComponentsClient
	projectBranches sonar.ProjectBranchesClient
	projectAnalyses sonar.ProjectAnalysesClient
	projectTags     sonar.ProjectTagsClient
	projectLinks    sonar.ProjectLinksClient
	projectBadges   sonar.ProjectBadgesClient
	applications    sonar.ApplicationsClient
	newCodePeriods  sonar.NewCodePeriodsClient
	issues          sonar.IssuesClient
	hotspots        sonar.HotspotsClient
	rules           sonar.RulesClient
	qualityGates    sonar.QualityGatesClient
	qualityProfiles sonar.QualityProfilesClient
	measures        sonar.MeasuresClient
	metrics         sonar.MetricsClient
	sources         sonar.SourcesClient
	duplications    sonar.DuplicationsClient
	fixSuggestions  sonar.FixSuggestionsClient
	users           sonar.UsersClient
	userGroups      sonar.UserGroupsClient
	userTokens      sonar.UserTokensClient
	permissions     sonar.PermissionsClient
	settings        sonar.SettingsClient
	languages       sonar.LanguagesClient
	webhooks        sonar.WebhooksClient
	ce              sonar.CEClient
	plugins         sonar.PluginsClient
	webservices     sonar.WebservicesClient
	favorites       sonar.FavoritesClient
	notifications   sonar.NotificationsClient
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *sonar.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(&loggerAdapter{logger: config.Logger}))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	retryWaitMin := constants.DefaultRetryWaitMin
	retryWaitMax := constants.ExtendedRetryWaitMax

	if config.RetryWaitMin > 0 {
		retryWaitMin = config.RetryWaitMin
	}

	if config.RetryWaitMax > 0 {
		retryWaitMax = config.RetryWaitMax
	}

	httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))

	if config.RateLimit > 0 {
		httpOpts = append(httpOpts, http.WithRateLimit(config.RateLimit))
	}

	if config.Interceptors != nil {
		httpOpts = append(httpOpts, http.WithInterceptors(config.Interceptors))
	}

	if config.Cache != nil {
		options := sonar.DefaultCacheOptions()
		if config.CacheTTL > 0 {
			options.TTL = config.CacheTTL
		}

		httpOpts = append(httpOpts, http.WithCache(sonar.NewCacheManager(config.Cache, options), nil))
	}

	return httpOpts
}

// New creates a new SonarQube API client. A RetryMax of zero or less
// disables retries.
func New(ctx context.Context, config *sonar.Config) (*Client, error) {
	if config == nil {
		return nil, sonar.ErrConfigRequired
	}

	if config.BaseURL == "" {
		return nil, sonar.ErrBaseURLRequired
	}

	provider, err := auth.NewProvider(auth.Credentials{
		Token:      config.Token,
		AuthScheme: config.AuthScheme,
		Username:   config.Username,
		Password:   config.Password,
		Passcode:   config.Passcode,
	})
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimSuffix(config.BaseURL, "/")
	httpClient := http.NewClient(baseURL, provider, createHTTPClientOptions(config)...)

	client := &Client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		organization: config.Organization,
		logger:       config.Logger,
		requester: &requester{
			httpClient:   httpClient,
			organization: config.Organization,
			v2BaseURL:    v2BaseURL(baseURL, config.V2BaseURL),
		},
	}

	client.initializeResourceClients()

	if config.DetectVersionOnInit {
		version, versionErr := client.system.Version(ctx)
		if versionErr != nil && client.logger != nil {
			client.logger.Warn("Server version detection failed", map[string]interface{}{"error": versionErr.Error()})
		}

		client.serverVersion = version
	}

	return client, nil
}

// v2BaseURL resolves the base URL of v2 endpoints. SonarCloud serves them
// from a separate host.
func v2BaseURL(baseURL, override string) string {
	if override != "" {
		return strings.TrimSuffix(override, "/")
	}

	parsed, err := url.Parse(baseURL)
	if err == nil && parsed.Host == "sonarcloud.io" {
		return sonarCloudAPIURL
	}

	return baseURL + "/api/v2"
}

func (c *Client) initializeResourceClients() {
	r := c.requester

	c.authentication = NewAuthenticationClient(r)
	c.system = NewSystemClient(r)
	c.projects = NewProjectsClient(r)
	c.components = NewComponentsClient(r)
	c.projectBranches = NewProjectBranchesClient(r)
	c.projectAnalyses = NewProjectAnalysesClient(r)
	c.projectTags = NewProjectTagsClient(r)
	c.projectLinks = NewProjectLinksClient(r)
	c.projectBadges = NewProjectBadgesClient(r)
	c.applications = NewApplicationsClient(r)
	c.newCodePeriods = NewNewCodePeriodsClient(r)
	c.issues = NewIssuesClient(r)
	c.hotspots = NewHotspotsClient(r)
	c.rules = NewRulesClient(r)
	c.qualityGates = NewQualityGatesClient(r)
	c.qualityProfiles = NewQualityProfilesClient(r)
	c.measures = NewMeasuresClient(r)
	c.metrics = NewMetricsClient(r)
	c.sources = NewSourcesClient(r)
	c.duplications = NewDuplicationsClient(r)
	c.fixSuggestions = NewFixSuggestionsClient(r)
	c.users = NewUsersClient(r)
	c.userGroups = NewUserGroupsClient(r)
	c.userTokens = NewUserTokensClient(r)
	c.permissions = NewPermissionsClient(r)
	c.settings = NewSettingsClient(r)
	c.languages = NewLanguagesClient(r)
	c.webhooks = NewWebhooksClient(r)
	c.ce = NewCEClient(r)
	c.plugins = NewPluginsClient(r)
	c.webservices = NewWebservicesClient(r)
	c.favorites = NewFavoritesClient(r)
	c.notifications = NewNotificationsClient(r)
}

// BaseURL implements sonar.Client.BaseURL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Organization implements sonar.Client.Organization.
func (c *Client) Organization() string {
	return c.organization
}

// ServerVersion implements sonar.Client.ServerVersion.
func (c *Client) ServerVersion() string {
	return c.serverVersion
}

// Resource client accessors

// Authentication implements sonar.Client.Authentication.
func (c *Client) Authentication() sonar.AuthenticationClient {
	return c.authentication
}

// System implements sonar.Client.System.
func (c *Client) System() sonar.SystemClient {
	return c.system
}

// Projects implements sonar.Client.Projects.
func (c *Client) Projects() sonar.ProjectsClient {
	return c.projects
}

// Components implements sonar.Client.Components.
func (c *Client) Components() sonar.ComponentsClient {
	return c.components
}

// ProjectBranches implements sonar.Client.ProjectBranches.
func (c *Client) ProjectBranches() sonar.ProjectBranchesClient {
	return c.projectBranches
}

// ProjectAnalyses implements sonar.Client.ProjectAnalyses.
func (c *Client) ProjectAnalyses() sonar.ProjectAnalysesClient {
	return c.projectAnalyses
}

// ProjectTags implements sonar.Client.ProjectTags.
func (c *Client) ProjectTags() sonar.ProjectTagsClient {
	return c.projectTags
}

// ProjectLinks implements sonar.Client.ProjectLinks.
func (c *Client) ProjectLinks() sonar.ProjectLinksClient {
	return c.projectLinks
}

// ProjectBadges implements sonar.Client.ProjectBadges.
func (c *Client) ProjectBadges() sonar.ProjectBadgesClient {
	return c.projectBadges
}

// Applications implements sonar.Client.Applications.
func (c *Client) Applications() sonar.ApplicationsClient {
	return c.applications
}

// NewCodePeriods implements sonar.Client.NewCodePeriods.
func (c *Client) NewCodePeriods() sonar.NewCodePeriodsClient {
	return c.newCodePeriods
}

// Issues implements sonar.Client.Issues.
func (c *Client) Issues() sonar.IssuesClient {
	return c.issues
}

// Hotspots implements sonar.Client.Hotspots.
func (c *Client) Hotspots() sonar.HotspotsClient {
	return c.hotspots
}

// Rules implements sonar.Client.Rules.
func (c *Client) Rules() sonar.RulesClient {
	return c.rules
}

// QualityGates implements sonar.Client.QualityGates.
func (c *Client) QualityGates() sonar.QualityGatesClient {
	return c.qualityGates
}

// QualityProfiles implements sonar.Client.QualityProfiles.
func (c *Client) QualityProfiles() sonar.QualityProfilesClient {
	return c.qualityProfiles
}

// Measures implements sonar.Client.Measures.
func (c *Client) Measures() sonar.MeasuresClient {
	return c.measures
}

// Metrics implements sonar.Client.Metrics.
func (c *Client) Metrics() sonar.MetricsClient {
	return c.metrics
}

// Sources implements sonar.Client.Sources.
func (c *Client) Sources() sonar.SourcesClient {
	return c.sources
}

// Duplications implements sonar.Client.Duplications.
func (c *Client) Duplications() sonar.DuplicationsClient {
	return c.duplications
}

// FixSuggestions implements sonar.Client.FixSuggestions.
func (c *Client) FixSuggestions() sonar.FixSuggestionsClient {
	return c.fixSuggestions
}

// Users implements sonar.Client.Users.
func (c *Client) Users() sonar.UsersClient {
	return c.users
}

// UserGroups implements sonar.Client.UserGroups.
func (c *Client) UserGroups() sonar.UserGroupsClient {
	return c.userGroups
}

// UserTokens implements sonar.Client.UserTokens.
func (c *Client) UserTokens() sonar.UserTokensClient {
	return c.userTokens
}

// Permissions implements sonar.Client.Permissions.
func (c *Client) Permissions() sonar.PermissionsClient {
	return c.permissions
}

// Settings implements sonar.Client.Settings.
func (c *Client) Settings() sonar.SettingsClient {
	return c.settings
}

// Languages implements sonar.Client.Languages.
func (c *Client) Languages() sonar.LanguagesClient {
	return c.languages
}

// Webhooks implements sonar.Client.Webhooks.
func (c *Client) Webhooks() sonar.WebhooksClient {
	return c.webhooks
}

// CE implements sonar.Client.CE.
func (c *Client) CE() sonar.CEClient {
	return c.ce
}

// Plugins implements sonar.Client.Plugins.
func (c *Client) Plugins() sonar.PluginsClient {
	return c.plugins
}

// Webservices implements sonar.Client.Webservices.
func (c *Client) Webservices() sonar.WebservicesClient {
	return c.webservices
}

// Favorites implements sonar.Client.Favorites.
func (c *Client) Favorites() sonar.FavoritesClient {
	return c.favorites
}

// Notifications implements sonar.Client.Notifications.
func (c *Client) Notifications() sonar.NotificationsClient {
	return c.notifications
}

// loggerAdapter adapts sonar.Logger to http.Logger.
type loggerAdapter struct {
	logger sonar.Logger
}

func (l *loggerAdapter) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, fields)
}

func (l *loggerAdapter) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, fields)
}

func (l *loggerAdapter) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, fields)
}

func (l *loggerAdapter) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, fields)
}

var _ sonar.Client = (*Client)(nil)
