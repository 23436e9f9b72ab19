package sonar

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Rule statuses.
const (
	RuleStatusReady      = "READY"
	RuleStatusBeta       = "BETA"
	RuleStatusDeprecated = "DEPRECATED"
	RuleStatusRemoved    = "REMOVED"
)

var ruleStatuses = []string{RuleStatusReady, RuleStatusBeta, RuleStatusDeprecated, RuleStatusRemoved}

// RuleParam is a parameter of a rule.
type RuleParam struct {
	Key          string `json:"key"                    yaml:"key"`
	Description  string `json:"htmlDesc,omitempty"     yaml:"description,omitempty"`
	DefaultValue string `json:"defaultValue,omitempty" yaml:"default_value,omitempty"`
	Type         string `json:"type,omitempty"         yaml:"type,omitempty"`
}

// Rule is a coding rule.
type Rule struct {
	Key                string      `json:"key"                          yaml:"key"`
	Repo               string      `json:"repo"                         yaml:"repo"`
	Name               string      `json:"name"                         yaml:"name"`
	CreatedAt          string      `json:"createdAt,omitempty"          yaml:"created_at,omitempty"`
	HTMLDesc           string      `json:"htmlDesc,omitempty"           yaml:"html_desc,omitempty"`
	MarkdownDesc       string      `json:"mdDesc,omitempty"             yaml:"markdown_desc,omitempty"`
	Severity           string      `json:"severity,omitempty"           yaml:"severity,omitempty"`
	Status             string      `json:"status"                       yaml:"status"`
	IsTemplate         bool        `json:"isTemplate"                   yaml:"is_template"`
	TemplateKey        string      `json:"templateKey,omitempty"        yaml:"template_key,omitempty"`
	Tags               []string    `json:"tags,omitempty"               yaml:"tags,omitempty"`
	SysTags            []string    `json:"sysTags,omitempty"            yaml:"sys_tags,omitempty"`
	Lang               string      `json:"lang,omitempty"               yaml:"lang,omitempty"`
	LangName           string      `json:"langName,omitempty"           yaml:"lang_name,omitempty"`
	Params             []RuleParam `json:"params,omitempty"             yaml:"params,omitempty"`
	Type               string      `json:"type,omitempty"               yaml:"type,omitempty"`
	Scope              string      `json:"scope,omitempty"              yaml:"scope,omitempty"`
	CleanCodeAttribute string      `json:"cleanCodeAttribute,omitempty" yaml:"clean_code_attribute,omitempty"`
	Impacts            []Impact    `json:"impacts,omitempty"            yaml:"impacts,omitempty"`
}

// RulesSearchResponse is a page of /api/rules/search.
type RulesSearchResponse struct {
	PageEnvelope

	Rules  []Rule  `json:"rules"            yaml:"rules"`
	Facets []Facet `json:"facets,omitempty" yaml:"facets,omitempty"`
}

// PageItems implements Pager.
func (r *RulesSearchResponse) PageItems() []Rule { return r.Rules }

// RulesSearchBuilder searches rules.
type RulesSearchBuilder struct {
	Builder[*RulesSearchBuilder, Rule, *RulesSearchResponse]
}

// NewRulesSearchBuilder creates a builder for /api/rules/search.
func NewRulesSearchBuilder(requester Requester) *RulesSearchBuilder {
	b := &RulesSearchBuilder{}
	b.Builder = NewBuilder[*RulesSearchBuilder, Rule](b, requester, "/api/rules/search",
		func() *RulesSearchResponse { return &RulesSearchResponse{} })
	b.LimitWindow()

	return b
}

// Query matches rule names and descriptions.
func (b *RulesSearchBuilder) Query(q string) *RulesSearchBuilder {
	return b.WithParam("q", q)
}

// Languages filters on languages.
func (b *RulesSearchBuilder) Languages(languages ...string) *RulesSearchBuilder {
	return b.SetList("languages", languages...)
}

// Repositories filters on rule repositories.
func (b *RulesSearchBuilder) Repositories(repositories ...string) *RulesSearchBuilder {
	return b.SetList("repositories", repositories...)
}

// RuleKey selects one rule.
func (b *RulesSearchBuilder) RuleKey(key string) *RulesSearchBuilder {
	return b.WithParam("rule_key", key)
}

// Severities filters on default severities.
func (b *RulesSearchBuilder) Severities(values ...string) *RulesSearchBuilder {
	return b.SetEnum("severities", severities, values...)
}

// Statuses filters on statuses.
func (b *RulesSearchBuilder) Statuses(values ...string) *RulesSearchBuilder {
	return b.SetEnum("statuses", ruleStatuses, values...)
}

// Types filters on rule types.
func (b *RulesSearchBuilder) Types(values ...string) *RulesSearchBuilder {
	return b.SetEnum("types", append([]string{"SECURITY_HOTSPOT"}, issueTypes...), values...)
}

// Tags filters on tags.
func (b *RulesSearchBuilder) Tags(tags ...string) *RulesSearchBuilder {
	return b.SetList("tags", tags...)
}

// Activation keeps rules active (true) or inactive (false) in QualityProfile.
func (b *RulesSearchBuilder) Activation(active bool) *RulesSearchBuilder {
	return b.SetBool("activation", active)
}

// QualityProfile selects the profile used by Activation.
func (b *RulesSearchBuilder) QualityProfile(key string) *RulesSearchBuilder {
	return b.WithParam("qprofile", key)
}

// IsTemplate keeps template rules.
func (b *RulesSearchBuilder) IsTemplate(value bool) *RulesSearchBuilder {
	return b.SetBool("is_template", value)
}

// TemplateKey keeps rules created from a template.
func (b *RulesSearchBuilder) TemplateKey(key string) *RulesSearchBuilder {
	return b.WithParam("template_key", key)
}

// Facets requests facet distributions.
func (b *RulesSearchBuilder) Facets(facets ...string) *RulesSearchBuilder {
	return b.SetList("facets", facets...)
}

// Organization overrides the configured organization.
func (b *RulesSearchBuilder) Organization(organization string) *RulesSearchBuilder {
	return b.WithParam("organization", organization)
}

// ActiveRule is the activation of a rule in a quality profile.
type ActiveRule struct {
	QProfile string              `json:"qProfile"         yaml:"quality_profile"`
	Inherit  string              `json:"inherit"          yaml:"inherit"`
	Severity string              `json:"severity"         yaml:"severity"`
	Params   []map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// RuleShowResponse is a rule with its activations.
type RuleShowResponse struct {
	Rule    Rule         `json:"rule"              yaml:"rule"`
	Actives []ActiveRule `json:"actives,omitempty" yaml:"actives,omitempty"`
}

// RuleCreateRequest creates a custom rule from a template.
type RuleCreateRequest struct {
	CustomKey           string            `json:"custom_key"           yaml:"custom_key"`
	Name                string            `json:"name"                 yaml:"name"`
	MarkdownDescription string            `json:"markdown_description" yaml:"markdown_description"`
	TemplateKey         string            `json:"template_key"         yaml:"template_key"`
	Severity            string            `json:"severity,omitempty"   yaml:"severity,omitempty"`
	Status              string            `json:"status,omitempty"     yaml:"status,omitempty"`
	Type                string            `json:"type,omitempty"       yaml:"type,omitempty"`
	Params              map[string]string `json:"params,omitempty"     yaml:"params,omitempty"`
}

// Validate implements validation.Validatable.
func (r *RuleCreateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.CustomKey, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.MarkdownDescription, validation.Required),
		validation.Field(&r.TemplateKey, validation.Required),
		validation.Field(&r.Severity, validation.In(toInterfaces(severities)...)),
		validation.Field(&r.Status, validation.In(toInterfaces(ruleStatuses)...)),
		validation.Field(&r.Type, validation.In(toInterfaces(issueTypes)...)),
	)
}

// RuleUpdateRequest updates a rule. Nil fields are left unchanged.
type RuleUpdateRequest struct {
	Key                 string            `json:"key"                            yaml:"key"`
	Name                *string           `json:"name,omitempty"                 yaml:"name,omitempty"`
	MarkdownDescription *string           `json:"markdown_description,omitempty" yaml:"markdown_description,omitempty"`
	Severity            *string           `json:"severity,omitempty"             yaml:"severity,omitempty"`
	Status              *string           `json:"status,omitempty"               yaml:"status,omitempty"`
	Tags                []string          `json:"tags,omitempty"                 yaml:"tags,omitempty"`
	Params              map[string]string `json:"params,omitempty"               yaml:"params,omitempty"`
}

// Validate implements validation.Validatable.
func (r *RuleUpdateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Key, validation.Required),
		validation.Field(&r.Severity, validation.NilOrNotEmpty, validation.In(toInterfaces(severities)...)),
		validation.Field(&r.Status, validation.NilOrNotEmpty, validation.In(toInterfaces(ruleStatuses)...)),
	)
}

// RuleResponse wraps a created or updated rule.
type RuleResponse struct {
	Rule Rule `json:"rule" yaml:"rule"`
}

// RuleTagsResponse lists rule tags.
type RuleTagsResponse struct {
	Tags []string `json:"tags" yaml:"tags"`
}

// RuleRepository is a rule repository.
type RuleRepository struct {
	Key      string `json:"key"      yaml:"key"`
	Name     string `json:"name"     yaml:"name"`
	Language string `json:"language" yaml:"language"`
}

// RuleRepositoriesResponse lists rule repositories.
type RuleRepositoriesResponse struct {
	Repositories []RuleRepository `json:"repositories" yaml:"repositories"`
}

// RulesClient reads and manages rules.
type RulesClient interface {
	Search() *RulesSearchBuilder
	Show(ctx context.Context, key string, actives bool) (*RuleShowResponse, error)
	Create(ctx context.Context, request *RuleCreateRequest) (*Rule, error)
	Update(ctx context.Context, request *RuleUpdateRequest) (*Rule, error)
	Delete(ctx context.Context, key string) error
	Tags(ctx context.Context, query string, pageSize int) ([]string, error)
	Repositories(ctx context.Context, language, query string) ([]RuleRepository, error)
}
