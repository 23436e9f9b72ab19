package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// QualityProfilesClient implements sonar.QualityProfilesClient.
type QualityProfilesClient struct {
	requester *requester
}

// NewQualityProfilesClient creates a new quality profiles client.
func NewQualityProfilesClient(r *requester) *QualityProfilesClient {
	return &QualityProfilesClient{requester: r}
}

// Search implements sonar.QualityProfilesClient.Search.
func (c *QualityProfilesClient) Search(ctx context.Context, opts *sonar.QualityProfilesSearchOptions) ([]sonar.QualityProfile, error) {
	values := newForm()

	if opts != nil {
		values.set("language", opts.Language).
			set("project", opts.Project).
			set("qualityProfile", opts.QualityProfile)

		if opts.Defaults {
			values.boolean("defaults", true)
		}
	}

	var resp sonar.QualityProfilesSearchResponse

	err := c.requester.GetJSON(ctx, "/api/qualityprofiles/search", values.values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("searching quality profiles: %w", err)
	}

	return resp.Profiles, nil
}

// Create implements sonar.QualityProfilesClient.Create.
func (c *QualityProfilesClient) Create(ctx context.Context, request *sonar.QualityProfileCreateRequest) (*sonar.QualityProfile, error) {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return nil, err
	}

	values := url.Values{"name": {request.Name}, "language": {request.Language}}

	var resp sonar.QualityProfileCreateResponse

	err = c.requester.postForm(ctx, "/api/qualityprofiles/create", values, &resp)
	if err != nil {
		return nil, fmt.Errorf("creating quality profile: %w", err)
	}

	return &resp.Profile, nil
}

// Delete implements sonar.QualityProfilesClient.Delete.
func (c *QualityProfilesClient) Delete(ctx context.Context, profile sonar.ProfileRef) error {
	return c.postProfile(ctx, "/api/qualityprofiles/delete", "deleting quality profile", profile, nil)
}

// SetDefault implements sonar.QualityProfilesClient.SetDefault.
func (c *QualityProfilesClient) SetDefault(ctx context.Context, profile sonar.ProfileRef) error {
	return c.postProfile(ctx, "/api/qualityprofiles/set_default", "setting default quality profile", profile, nil)
}

// AddProject implements sonar.QualityProfilesClient.AddProject.
func (c *QualityProfilesClient) AddProject(ctx context.Context, profile sonar.ProfileRef, project string) error {
	err := requireKey("project", project)
	if err != nil {
		return err
	}

	return c.postProfile(ctx, "/api/qualityprofiles/add_project", "adding project to quality profile", profile,
		url.Values{"project": {project}})
}

// RemoveProject implements sonar.QualityProfilesClient.RemoveProject.
func (c *QualityProfilesClient) RemoveProject(ctx context.Context, profile sonar.ProfileRef, project string) error {
	err := requireKey("project", project)
	if err != nil {
		return err
	}

	return c.postProfile(ctx, "/api/qualityprofiles/remove_project", "removing project from quality profile", profile,
		url.Values{"project": {project}})
}

func (c *QualityProfilesClient) postProfile(ctx context.Context, path, action string, profile sonar.ProfileRef, values url.Values) error {
	err := sonar.ValidateRequest(&profile)
	if err != nil {
		return err
	}

	if values == nil {
		values = url.Values{}
	}

	values.Set("language", profile.Language)
	values.Set("qualityProfile", profile.Name)

	err = c.requester.postForm(ctx, path, values, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}

	return nil
}

// ActivateRule implements sonar.QualityProfilesClient.ActivateRule.
func (c *QualityProfilesClient) ActivateRule(ctx context.Context, request *sonar.RuleActivationRequest) error {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return err
	}

	values := newForm().
		set("key", request.Key).
		set("rule", request.Rule).
		set("severity", request.Severity).
		set("params", encodeParams(request.Params))

	if request.Reset {
		values.boolean("reset", true)
	}

	err = c.requester.postForm(ctx, "/api/qualityprofiles/activate_rule", values.values(), nil)
	if err != nil {
		return fmt.Errorf("activating rule: %w", err)
	}

	return nil
}

// DeactivateRule implements sonar.QualityProfilesClient.DeactivateRule.
func (c *QualityProfilesClient) DeactivateRule(ctx context.Context, key, rule string) error {
	err := requireKeys(map[string]string{"key": key, "rule": rule})
	if err != nil {
		return err
	}

	err = c.requester.postForm(ctx, "/api/qualityprofiles/deactivate_rule", url.Values{"key": {key}, "rule": {rule}}, nil)
	if err != nil {
		return fmt.Errorf("deactivating rule: %w", err)
	}

	return nil
}

// Backup implements sonar.QualityProfilesClient.Backup. It returns the
// profile as XML.
func (c *QualityProfilesClient) Backup(ctx context.Context, profile sonar.ProfileRef) (string, error) {
	err := sonar.ValidateRequest(&profile)
	if err != nil {
		return "", err
	}

	values := url.Values{"language": {profile.Language}, "qualityProfile": {profile.Name}}

	backup, err := c.requester.getText(ctx, "/api/qualityprofiles/backup", values, "application/xml")
	if err != nil {
		return "", fmt.Errorf("backing up quality profile: %w", err)
	}

	return backup, nil
}

// Changelog implements sonar.QualityProfilesClient.Changelog.
func (c *QualityProfilesClient) Changelog(language, name string) *sonar.QualityProfileChangelogBuilder {
	return sonar.NewQualityProfileChangelogBuilder(c.requester, language, name)
}
