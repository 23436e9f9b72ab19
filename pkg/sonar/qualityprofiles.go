package sonar

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// QualityProfile is a set of activated rules for one language.
type QualityProfile struct {
	Key                       string `json:"key"                                 yaml:"key"`
	Name                      string `json:"name"                                yaml:"name"`
	Language                  string `json:"language"                            yaml:"language"`
	LanguageName              string `json:"languageName,omitempty"              yaml:"language_name,omitempty"`
	IsInherited               bool   `json:"isInherited"                         yaml:"is_inherited"`
	ParentKey                 string `json:"parentKey,omitempty"                 yaml:"parent_key,omitempty"`
	IsDefault                 bool   `json:"isDefault"                           yaml:"is_default"`
	IsBuiltIn                 bool   `json:"isBuiltIn"                           yaml:"is_built_in"`
	ActiveRuleCount           int    `json:"activeRuleCount"                     yaml:"active_rule_count"`
	ActiveDeprecatedRuleCount int    `json:"activeDeprecatedRuleCount,omitempty" yaml:"active_deprecated_rule_count,omitempty"`
	ProjectCount              int    `json:"projectCount,omitempty"              yaml:"project_count,omitempty"`
	RuleUpdatedAt             string `json:"ruleUpdatedAt,omitempty"             yaml:"rule_updated_at,omitempty"`
	LastUsed                  string `json:"lastUsed,omitempty"                  yaml:"last_used,omitempty"`
	Organization              string `json:"organization,omitempty"              yaml:"organization,omitempty"`
}

// QualityProfilesSearchOptions filters /api/qualityprofiles/search.
type QualityProfilesSearchOptions struct {
	Language       string
	Project        string
	QualityProfile string
	Defaults       bool
}

// QualityProfilesSearchResponse lists quality profiles.
type QualityProfilesSearchResponse struct {
	Profiles []QualityProfile `json:"profiles" yaml:"profiles"`
}

// QualityProfileCreateRequest creates an empty profile.
type QualityProfileCreateRequest struct {
	Name     string `json:"name"     yaml:"name"`
	Language string `json:"language" yaml:"language"`
}

// Validate implements validation.Validatable.
func (r *QualityProfileCreateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Language, validation.Required),
	)
}

// QualityProfileCreateResponse wraps the created profile.
type QualityProfileCreateResponse struct {
	Profile QualityProfile `json:"profile" yaml:"profile"`
}

// ProfileRef names a profile by language and name.
type ProfileRef struct {
	Language string
	Name     string
}

// Validate implements validation.Validatable.
func (r *ProfileRef) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Language, validation.Required),
		validation.Field(&r.Name, validation.Required),
	)
}

// RuleActivationRequest activates a rule in a profile.
type RuleActivationRequest struct {
	Key      string            `json:"key"                yaml:"key"`
	Rule     string            `json:"rule"               yaml:"rule"`
	Severity string            `json:"severity,omitempty" yaml:"severity,omitempty"`
	Reset    bool              `json:"reset,omitempty"    yaml:"reset,omitempty"`
	Params   map[string]string `json:"params,omitempty"   yaml:"params,omitempty"`
}

// Validate implements validation.Validatable.
func (r *RuleActivationRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Key, validation.Required),
		validation.Field(&r.Rule, validation.Required),
		validation.Field(&r.Severity, validation.In(toInterfaces(severities)...)),
	)
}

// ProfileChange is a changelog event of a profile.
type ProfileChange struct {
	Date       string            `json:"date"                 yaml:"date"`
	Action     string            `json:"action"               yaml:"action"`
	AuthorName string            `json:"authorName,omitempty" yaml:"author_name,omitempty"`
	RuleKey    string            `json:"ruleKey"              yaml:"rule_key"`
	RuleName   string            `json:"ruleName,omitempty"   yaml:"rule_name,omitempty"`
	Params     map[string]string `json:"params,omitempty"     yaml:"params,omitempty"`
}

// QualityProfileChangelogResponse is a page of /api/qualityprofiles/changelog.
type QualityProfileChangelogResponse struct {
	PageEnvelope

	Events []ProfileChange `json:"events" yaml:"events"`
}

// PageItems implements Pager.
func (r *QualityProfileChangelogResponse) PageItems() []ProfileChange { return r.Events }

// QualityProfileChangelogBuilder reads profile changes.
type QualityProfileChangelogBuilder struct {
	Builder[*QualityProfileChangelogBuilder, ProfileChange, *QualityProfileChangelogResponse]
}

// NewQualityProfileChangelogBuilder creates a builder for
// /api/qualityprofiles/changelog.
func NewQualityProfileChangelogBuilder(requester Requester, language, name string) *QualityProfileChangelogBuilder {
	b := &QualityProfileChangelogBuilder{}
	b.Builder = NewBuilder[*QualityProfileChangelogBuilder, ProfileChange](b, requester, "/api/qualityprofiles/changelog",
		func() *QualityProfileChangelogResponse { return &QualityProfileChangelogResponse{} })
	b.Require("language", "qualityProfile")
	b.WithParam("language", language)
	b.WithParam("qualityProfile", name)

	return b
}

// Since keeps changes on or after date.
func (b *QualityProfileChangelogBuilder) Since(date time.Time) *QualityProfileChangelogBuilder {
	return b.SetDate("since", date)
}

// To keeps changes before date.
func (b *QualityProfileChangelogBuilder) To(date time.Time) *QualityProfileChangelogBuilder {
	return b.SetDate("to", date)
}

// QualityProfilesClient manages quality profiles.
type QualityProfilesClient interface {
	Search(ctx context.Context, opts *QualityProfilesSearchOptions) ([]QualityProfile, error)
	Create(ctx context.Context, request *QualityProfileCreateRequest) (*QualityProfile, error)
	Delete(ctx context.Context, profile ProfileRef) error
	SetDefault(ctx context.Context, profile ProfileRef) error
	AddProject(ctx context.Context, profile ProfileRef, project string) error
	RemoveProject(ctx context.Context, profile ProfileRef, project string) error
	ActivateRule(ctx context.Context, request *RuleActivationRequest) error
	DeactivateRule(ctx context.Context, key, rule string) error
	// Backup returns the profile as XML.
	Backup(ctx context.Context, profile ProfileRef) (string, error)
	Changelog(language, name string) *QualityProfileChangelogBuilder
}
