package sonar

import (
	"context"
	"encoding/json"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Server statuses reported by /api/system/status.
const (
	SystemStatusStarting   = "STARTING"
	SystemStatusUp         = "UP"
	SystemStatusDown       = "DOWN"
	SystemStatusRestarting = "RESTARTING"
	SystemStatusDBMigrate  = "DB_MIGRATION_NEEDED"
)

// Health values.
const (
	HealthGreen  = "GREEN"
	HealthYellow = "YELLOW"
	HealthRed    = "RED"
)

// SystemStatus is the state of the server.
type SystemStatus struct {
	ID      string `json:"id"      yaml:"id"`
	Version string `json:"version" yaml:"version"`
	Status  string `json:"status"  yaml:"status"`
}

// HealthCause explains a non-green health.
type HealthCause struct {
	Message string `json:"message" yaml:"message"`
}

// NodeHealth is the health of one cluster node.
type NodeHealth struct {
	Name   string        `json:"name"             yaml:"name"`
	Type   string        `json:"type"             yaml:"type"`
	Host   string        `json:"host,omitempty"   yaml:"host,omitempty"`
	Port   int           `json:"port,omitempty"   yaml:"port,omitempty"`
	Health string        `json:"health"           yaml:"health"`
	Causes []HealthCause `json:"causes,omitempty" yaml:"causes,omitempty"`
}

// SystemHealth is the health of the server and its nodes.
type SystemHealth struct {
	Health string        `json:"health"           yaml:"health"`
	Causes []HealthCause `json:"causes,omitempty" yaml:"causes,omitempty"`
	Nodes  []NodeHealth  `json:"nodes,omitempty"  yaml:"nodes,omitempty"`
}

// SystemInfo is the free-form system information; sections vary across
// versions.
type SystemInfo map[string]json.RawMessage

// SystemClient reads server state. Health requires a passcode or an
// administrator.
type SystemClient interface {
	Status(ctx context.Context) (*SystemStatus, error)
	Health(ctx context.Context) (*SystemHealth, error)
	// Ping returns "pong" when the server is reachable.
	Ping(ctx context.Context) (string, error)
	Info(ctx context.Context) (SystemInfo, error)
	// Version returns the server version as plain text.
	Version(ctx context.Context) (string, error)
}

// Setting is the value of a setting.
type Setting struct {
	Key         string              `json:"key"                   yaml:"key"`
	Value       string              `json:"value,omitempty"       yaml:"value,omitempty"`
	Values      []string            `json:"values,omitempty"      yaml:"values,omitempty"`
	FieldValues []map[string]string `json:"fieldValues,omitempty" yaml:"field_values,omitempty"`
	Inherited   bool                `json:"inherited,omitempty"   yaml:"inherited,omitempty"`
}

// SettingsValuesResponse lists setting values.
type SettingsValuesResponse struct {
	Settings []Setting `json:"settings" yaml:"settings"`
}

// SettingSetRequest sets a setting, globally or on a component. Exactly one
// of Value, Values or FieldValues is used.
type SettingSetRequest struct {
	Key         string              `json:"key"                   yaml:"key"`
	Value       string              `json:"value,omitempty"       yaml:"value,omitempty"`
	Values      []string            `json:"values,omitempty"      yaml:"values,omitempty"`
	FieldValues []map[string]string `json:"fieldValues,omitempty" yaml:"field_values,omitempty"`
	Component   string              `json:"component,omitempty"   yaml:"component,omitempty"`
}

// Validate implements validation.Validatable.
func (r *SettingSetRequest) Validate() error {
	set := 0
	if r.Value != "" {
		set++
	}

	if len(r.Values) > 0 {
		set++
	}

	if len(r.FieldValues) > 0 {
		set++
	}

	err := validation.ValidateStruct(r,
		validation.Field(&r.Key, validation.Required),
	)
	if err != nil {
		return err
	}

	if set != 1 {
		return NewValidationError("value", "exactly one of value, values or fieldValues is required")
	}

	return nil
}

// SettingDefinition describes a setting.
type SettingDefinition struct {
	Key          string   `json:"key"                    yaml:"key"`
	Name         string   `json:"name,omitempty"         yaml:"name,omitempty"`
	Description  string   `json:"description,omitempty"  yaml:"description,omitempty"`
	Type         string   `json:"type,omitempty"         yaml:"type,omitempty"`
	Category     string   `json:"category,omitempty"     yaml:"category,omitempty"`
	SubCategory  string   `json:"subCategory,omitempty"  yaml:"sub_category,omitempty"`
	DefaultValue string   `json:"defaultValue,omitempty" yaml:"default_value,omitempty"`
	MultiValues  bool     `json:"multiValues,omitempty"  yaml:"multi_values,omitempty"`
	Options      []string `json:"options,omitempty"      yaml:"options,omitempty"`
}

// SettingDefinitionsResponse lists setting definitions.
type SettingDefinitionsResponse struct {
	Definitions []SettingDefinition `json:"definitions" yaml:"definitions"`
}

// SettingsClient reads and writes settings. An empty component means global
// settings.
type SettingsClient interface {
	Values(ctx context.Context, component string, keys ...string) ([]Setting, error)
	Set(ctx context.Context, request *SettingSetRequest) error
	Reset(ctx context.Context, component string, keys ...string) error
	ListDefinitions(ctx context.Context, component string) ([]SettingDefinition, error)
}

// Language is a supported language.
type Language struct {
	Key  string `json:"key"  yaml:"key"`
	Name string `json:"name" yaml:"name"`
}

// LanguagesResponse lists languages.
type LanguagesResponse struct {
	Languages []Language `json:"languages" yaml:"languages"`
}

// LanguagesClient lists languages.
type LanguagesClient interface {
	List(ctx context.Context, query string) ([]Language, error)
}

// Plugin is an installed or available plugin.
type Plugin struct {
	Key                string `json:"key"                          yaml:"key"`
	Name               string `json:"name"                         yaml:"name"`
	Description        string `json:"description,omitempty"        yaml:"description,omitempty"`
	Version            string `json:"version,omitempty"            yaml:"version,omitempty"`
	Category           string `json:"category,omitempty"           yaml:"category,omitempty"`
	License            string `json:"license,omitempty"            yaml:"license,omitempty"`
	OrganizationName   string `json:"organizationName,omitempty"   yaml:"organization_name,omitempty"`
	EditionBundled     bool   `json:"editionBundled,omitempty"     yaml:"edition_bundled,omitempty"`
	SonarLintSupported bool   `json:"sonarLintSupported,omitempty" yaml:"sonarlint_supported,omitempty"`
	Type               string `json:"type,omitempty"               yaml:"type,omitempty"`
	UpdatedAt          int64  `json:"updatedAt,omitempty"          yaml:"updated_at,omitempty"`
	RequiresRestart    bool   `json:"requiresRestart,omitempty"    yaml:"requires_restart,omitempty"`
	HomepageURL        string `json:"homepageUrl,omitempty"        yaml:"homepage_url,omitempty"`
	IssueTrackerURL    string `json:"issueTrackerUrl,omitempty"    yaml:"issue_tracker_url,omitempty"`
}

// PluginsResponse lists plugins.
type PluginsResponse struct {
	Plugins []Plugin `json:"plugins" yaml:"plugins"`
}

// PluginsClient manages plugins.
type PluginsClient interface {
	Installed(ctx context.Context) ([]Plugin, error)
	Available(ctx context.Context) ([]Plugin, error)
	Install(ctx context.Context, key string) error
	Uninstall(ctx context.Context, key string) error
}

// WebserviceParam is a parameter of a web service action.
type WebserviceParam struct {
	Key          string   `json:"key"                      yaml:"key"`
	Description  string   `json:"description,omitempty"    yaml:"description,omitempty"`
	Required     bool     `json:"required"                 yaml:"required"`
	Internal     bool     `json:"internal,omitempty"       yaml:"internal,omitempty"`
	DefaultValue string   `json:"defaultValue,omitempty"   yaml:"default_value,omitempty"`
	PossibleVals []string `json:"possibleValues,omitempty" yaml:"possible_values,omitempty"`
}

// WebserviceAction is one endpoint of a web service.
type WebserviceAction struct {
	Key                string            `json:"key"                          yaml:"key"`
	Description        string            `json:"description,omitempty"        yaml:"description,omitempty"`
	Since              string            `json:"since,omitempty"              yaml:"since,omitempty"`
	DeprecatedSince    string            `json:"deprecatedSince,omitempty"    yaml:"deprecated_since,omitempty"`
	Internal           bool              `json:"internal"                     yaml:"internal"`
	Post               bool              `json:"post"                         yaml:"post"`
	HasResponseExample bool              `json:"hasResponseExample,omitempty" yaml:"has_response_example,omitempty"`
	Params             []WebserviceParam `json:"params,omitempty"             yaml:"params,omitempty"`
}

// Webservice is an API area.
type Webservice struct {
	Path        string             `json:"path"                  yaml:"path"`
	Since       string             `json:"since,omitempty"       yaml:"since,omitempty"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Actions     []WebserviceAction `json:"actions"               yaml:"actions"`
}

// WebservicesResponse is the API self-description.
type WebservicesResponse struct {
	WebServices []Webservice `json:"webServices" yaml:"web_services"`
}

// WebservicesClient reads the API self-description.
type WebservicesClient interface {
	List(ctx context.Context, includeInternals bool) ([]Webservice, error)
}

// Favorite is a favorite component of the caller.
type Favorite struct {
	Key          string `json:"key"                    yaml:"key"`
	Name         string `json:"name"                   yaml:"name"`
	Qualifier    string `json:"qualifier"              yaml:"qualifier"`
	Organization string `json:"organization,omitempty" yaml:"organization,omitempty"`
}

// FavoritesSearchResponse is a page of /api/favorites/search.
type FavoritesSearchResponse struct {
	PageEnvelope

	Favorites []Favorite `json:"favorites" yaml:"favorites"`
}

// PageItems implements Pager.
func (r *FavoritesSearchResponse) PageItems() []Favorite { return r.Favorites }

// FavoritesSearchBuilder lists favorites.
type FavoritesSearchBuilder struct {
	Builder[*FavoritesSearchBuilder, Favorite, *FavoritesSearchResponse]
}

// NewFavoritesSearchBuilder creates a builder for /api/favorites/search.
func NewFavoritesSearchBuilder(requester Requester) *FavoritesSearchBuilder {
	b := &FavoritesSearchBuilder{}
	b.Builder = NewBuilder[*FavoritesSearchBuilder, Favorite](b, requester, "/api/favorites/search",
		func() *FavoritesSearchResponse { return &FavoritesSearchResponse{} })

	return b
}

// FavoritesClient manages the caller's favorites.
type FavoritesClient interface {
	Add(ctx context.Context, component string) error
	Remove(ctx context.Context, component string) error
	Search() *FavoritesSearchBuilder
}

// Notification is a subscription of the caller.
type Notification struct {
	Channel      string `json:"channel"                yaml:"channel"`
	Type         string `json:"type"                   yaml:"type"`
	Project      string `json:"project,omitempty"      yaml:"project,omitempty"`
	ProjectName  string `json:"projectName,omitempty"  yaml:"project_name,omitempty"`
	Organization string `json:"organization,omitempty" yaml:"organization,omitempty"`
}

// NotificationsResponse lists subscriptions and the available types.
type NotificationsResponse struct {
	Notifications   []Notification `json:"notifications"             yaml:"notifications"`
	Channels        []string       `json:"channels,omitempty"        yaml:"channels,omitempty"`
	GlobalTypes     []string       `json:"globalTypes,omitempty"     yaml:"global_types,omitempty"`
	PerProjectTypes []string       `json:"perProjectTypes,omitempty" yaml:"per_project_types,omitempty"`
}

// NotificationRequest adds or removes a subscription. An empty Project means
// a global notification; Channel defaults to email on the server.
type NotificationRequest struct {
	Type    string `json:"type"              yaml:"type"`
	Channel string `json:"channel,omitempty" yaml:"channel,omitempty"`
	Project string `json:"project,omitempty" yaml:"project,omitempty"`
	Login   string `json:"login,omitempty"   yaml:"login,omitempty"`
}

// Validate implements validation.Validatable.
func (r *NotificationRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Type, validation.Required),
	)
}

// NotificationsClient manages notification subscriptions. An empty login
// means the caller.
type NotificationsClient interface {
	List(ctx context.Context, login string) (*NotificationsResponse, error)
	Add(ctx context.Context, request *NotificationRequest) error
	Remove(ctx context.Context, request *NotificationRequest) error
}
