package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/sonar-client/internal/constants"
	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// SystemClient implements sonar.SystemClient.
type SystemClient struct {
	requester *requester
}

// NewSystemClient creates a new system client.
func NewSystemClient(r *requester) *SystemClient {
	return &SystemClient{requester: r}
}

// Status implements sonar.SystemClient.Status.
func (c *SystemClient) Status(ctx context.Context) (*sonar.SystemStatus, error) {
	var status sonar.SystemStatus

	err := c.requester.GetJSON(ctx, "/api/system/status", nil, &status)
	if err != nil {
		return nil, fmt.Errorf("getting system status: %w", err)
	}

	return &status, nil
}

// Health implements sonar.SystemClient.Health.
func (c *SystemClient) Health(ctx context.Context) (*sonar.SystemHealth, error) {
	var health sonar.SystemHealth

	err := c.requester.GetJSON(ctx, "/api/system/health", nil, &health)
	if err != nil {
		return nil, fmt.Errorf("getting system health: %w", err)
	}

	return &health, nil
}

// Ping implements sonar.SystemClient.Ping.
func (c *SystemClient) Ping(ctx context.Context) (string, error) {
	pong, err := c.requester.getText(ctx, "/api/system/ping", nil, acceptText)
	if err != nil {
		return "", fmt.Errorf("pinging server: %w", err)
	}

	return strings.TrimSpace(pong), nil
}

// Info implements sonar.SystemClient.Info.
func (c *SystemClient) Info(ctx context.Context) (sonar.SystemInfo, error) {
	var info sonar.SystemInfo

	err := c.requester.GetJSON(ctx, "/api/system/info", nil, &info)
	if err != nil {
		return nil, fmt.Errorf("getting system info: %w", err)
	}

	return info, nil
}

// Version implements sonar.SystemClient.Version.
func (c *SystemClient) Version(ctx context.Context) (string, error) {
	version, err := c.requester.getText(ctx, "/api/server/version", nil, acceptText)
	if err != nil {
		return "", fmt.Errorf("getting server version: %w", err)
	}

	return strings.TrimSpace(version), nil
}

// SettingsClient implements sonar.SettingsClient.
type SettingsClient struct {
	requester *requester
}

// NewSettingsClient creates a new settings client.
func NewSettingsClient(r *requester) *SettingsClient {
	return &SettingsClient{requester: r}
}

// Values implements sonar.SettingsClient.Values. No keys returns every
// setting with a value.
func (c *SettingsClient) Values(ctx context.Context, component string, keys ...string) ([]sonar.Setting, error) {
	values := newForm().set("component", component).list("keys", keys)

	var resp sonar.SettingsValuesResponse

	err := c.requester.GetJSON(ctx, "/api/settings/values", values.values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("getting settings: %w", err)
	}

	return resp.Settings, nil
}

// Set implements sonar.SettingsClient.Set. Multi-values and field values
// are sent as repeated parameters.
func (c *SettingsClient) Set(ctx context.Context, request *sonar.SettingSetRequest) error {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return err
	}

	values := newForm().
		set("key", request.Key).
		set("component", request.Component).
		set("value", request.Value).
		values()

	for _, value := range request.Values {
		values.Add("values", value)
	}

	for _, fields := range request.FieldValues {
		encoded, marshalErr := json.Marshal(fields)
		if marshalErr != nil {
			return fmt.Errorf("encoding field values: %w", marshalErr)
		}

		values.Add("fieldValues", string(encoded))
	}

	err = c.requester.postForm(ctx, "/api/settings/set", values, nil)
	if err != nil {
		return fmt.Errorf("setting %s: %w", request.Key, err)
	}

	return nil
}

// Reset implements sonar.SettingsClient.Reset.
func (c *SettingsClient) Reset(ctx context.Context, component string, keys ...string) error {
	if len(keys) == 0 {
		return sonar.NewValidationError("keys", "at least one key is required")
	}

	values := newForm().set("component", component).list("keys", keys)

	err := c.requester.postForm(ctx, "/api/settings/reset", values.values(), nil)
	if err != nil {
		return fmt.Errorf("resetting settings: %w", err)
	}

	return nil
}

// ListDefinitions implements sonar.SettingsClient.ListDefinitions.
func (c *SettingsClient) ListDefinitions(ctx context.Context, component string) ([]sonar.SettingDefinition, error) {
	var resp sonar.SettingDefinitionsResponse

	err := c.requester.GetJSON(ctx, "/api/settings/list_definitions", newForm().set("component", component).values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("listing setting definitions: %w", err)
	}

	return resp.Definitions, nil
}

// LanguagesClient implements sonar.LanguagesClient.
type LanguagesClient struct {
	requester *requester
}

// NewLanguagesClient creates a new languages client.
func NewLanguagesClient(r *requester) *LanguagesClient {
	return &LanguagesClient{requester: r}
}

// List implements sonar.LanguagesClient.List.
func (c *LanguagesClient) List(ctx context.Context, query string) ([]sonar.Language, error) {
	var resp sonar.LanguagesResponse

	err := c.requester.GetJSON(ctx, "/api/languages/list", newForm().set("q", query).values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("listing languages: %w", err)
	}

	return resp.Languages, nil
}

// PluginsClient implements sonar.PluginsClient.
type PluginsClient struct {
	requester *requester
}

// NewPluginsClient creates a new plugins client.
func NewPluginsClient(r *requester) *PluginsClient {
	return &PluginsClient{requester: r}
}

// Installed implements sonar.PluginsClient.Installed.
func (c *PluginsClient) Installed(ctx context.Context) ([]sonar.Plugin, error) {
	return c.list(ctx, "/api/plugins/installed", "listing installed plugins")
}

// Available implements sonar.PluginsClient.Available.
func (c *PluginsClient) Available(ctx context.Context) ([]sonar.Plugin, error) {
	return c.list(ctx, "/api/plugins/available", "listing available plugins")
}

func (c *PluginsClient) list(ctx context.Context, path, action string) ([]sonar.Plugin, error) {
	var resp sonar.PluginsResponse

	err := c.requester.GetJSON(ctx, path, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}

	return resp.Plugins, nil
}

// Install implements sonar.PluginsClient.Install.
func (c *PluginsClient) Install(ctx context.Context, key string) error {
	err := c.requester.postRequired(ctx, "/api/plugins/install", map[string]string{"key": key})
	if err != nil {
		return fmt.Errorf("installing plugin: %w", err)
	}

	return nil
}

// Uninstall implements sonar.PluginsClient.Uninstall.
func (c *PluginsClient) Uninstall(ctx context.Context, key string) error {
	err := c.requester.postRequired(ctx, "/api/plugins/uninstall", map[string]string{"key": key})
	if err != nil {
		return fmt.Errorf("uninstalling plugin: %w", err)
	}

	return nil
}

// WebservicesClient implements sonar.WebservicesClient.
type WebservicesClient struct {
	requester *requester
}

// NewWebservicesClient creates a new webservices client.
func NewWebservicesClient(r *requester) *WebservicesClient {
	return &WebservicesClient{requester: r}
}

// List implements sonar.WebservicesClient.List.
func (c *WebservicesClient) List(ctx context.Context, includeInternals bool) ([]sonar.Webservice, error) {
	var values url.Values
	if includeInternals {
		values = url.Values{"include_internals": {constants.BooleanTrue}}
	}

	var resp sonar.WebservicesResponse

	err := c.requester.GetJSON(ctx, "/api/webservices/list", values, &resp)
	if err != nil {
		return nil, fmt.Errorf("listing web services: %w", err)
	}

	return resp.WebServices, nil
}

// FavoritesClient implements sonar.FavoritesClient.
type FavoritesClient struct {
	requester *requester
}

// NewFavoritesClient creates a new favorites client.
func NewFavoritesClient(r *requester) *FavoritesClient {
	return &FavoritesClient{requester: r}
}

// Add implements sonar.FavoritesClient.Add.
func (c *FavoritesClient) Add(ctx context.Context, component string) error {
	err := c.requester.postRequired(ctx, "/api/favorites/add", map[string]string{"component": component})
	if err != nil {
		return fmt.Errorf("adding favorite: %w", err)
	}

	return nil
}

// Remove implements sonar.FavoritesClient.Remove.
func (c *FavoritesClient) Remove(ctx context.Context, component string) error {
	err := c.requester.postRequired(ctx, "/api/favorites/remove", map[string]string{"component": component})
	if err != nil {
		return fmt.Errorf("removing favorite: %w", err)
	}

	return nil
}

// Search implements sonar.FavoritesClient.Search.
func (c *FavoritesClient) Search() *sonar.FavoritesSearchBuilder {
	return sonar.NewFavoritesSearchBuilder(c.requester)
}

// NotificationsClient implements sonar.NotificationsClient.
type NotificationsClient struct {
	requester *requester
}

// NewNotificationsClient creates a new notifications client.
func NewNotificationsClient(r *requester) *NotificationsClient {
	return &NotificationsClient{requester: r}
}

// List implements sonar.NotificationsClient.List.
func (c *NotificationsClient) List(ctx context.Context, login string) (*sonar.NotificationsResponse, error) {
	var resp sonar.NotificationsResponse

	err := c.requester.GetJSON(ctx, "/api/notifications/list", newForm().set("login", login).values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}

	return &resp, nil
}

// Add implements sonar.NotificationsClient.Add.
func (c *NotificationsClient) Add(ctx context.Context, request *sonar.NotificationRequest) error {
	return c.change(ctx, "/api/notifications/add", "adding notification", request)
}

// Remove implements sonar.NotificationsClient.Remove.
func (c *NotificationsClient) Remove(ctx context.Context, request *sonar.NotificationRequest) error {
	return c.change(ctx, "/api/notifications/remove", "removing notification", request)
}

func (c *NotificationsClient) change(ctx context.Context, path, action string, request *sonar.NotificationRequest) error {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return err
	}

	values := newForm().
		set("type", request.Type).
		set("channel", request.Channel).
		set("project", request.Project).
		set("login", request.Login)

	err = c.requester.postForm(ctx, path, values.values(), nil)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}

	return nil
}
