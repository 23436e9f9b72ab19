package sonar

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Hotspot statuses and resolutions.
const (
	HotspotStatusToReview         = "TO_REVIEW"
	HotspotStatusReviewed         = "REVIEWED"
	HotspotResolutionFixed        = "FIXED"
	HotspotResolutionSafe         = "SAFE"
	HotspotResolutionAcknowledged = "ACKNOWLEDGED"
)

var hotspotResolutions = []string{HotspotResolutionFixed, HotspotResolutionSafe, HotspotResolutionAcknowledged}

// Hotspot is a security hotspot.
type Hotspot struct {
	Key                      string     `json:"key"                      yaml:"key"`
	Component                string     `json:"component"                yaml:"component"`
	Project                  string     `json:"project"                  yaml:"project"`
	SecurityCategory         string     `json:"securityCategory"         yaml:"security_category"`
	VulnerabilityProbability string     `json:"vulnerabilityProbability" yaml:"vulnerability_probability"`
	Status                   string     `json:"status"                   yaml:"status"`
	Resolution               string     `json:"resolution,omitempty"     yaml:"resolution,omitempty"`
	Line                     int        `json:"line,omitempty"           yaml:"line,omitempty"`
	Message                  string     `json:"message"                  yaml:"message"`
	Assignee                 string     `json:"assignee,omitempty"       yaml:"assignee,omitempty"`
	Author                   string     `json:"author,omitempty"         yaml:"author,omitempty"`
	CreationDate             string     `json:"creationDate"             yaml:"creation_date"`
	UpdateDate               string     `json:"updateDate,omitempty"     yaml:"update_date,omitempty"`
	RuleKey                  string     `json:"ruleKey,omitempty"        yaml:"rule_key,omitempty"`
	TextRange                *TextRange `json:"textRange,omitempty"      yaml:"text_range,omitempty"`
}

// HotspotsSearchResponse is a page of /api/hotspots/search.
type HotspotsSearchResponse struct {
	PageEnvelope

	Hotspots   []Hotspot   `json:"hotspots"             yaml:"hotspots"`
	Components []Component `json:"components,omitempty" yaml:"components,omitempty"`
}

// PageItems implements Pager.
func (r *HotspotsSearchResponse) PageItems() []Hotspot { return r.Hotspots }

// HotspotsSearchBuilder searches security hotspots. Either a project or a
// list of hotspot keys is required.
type HotspotsSearchBuilder struct {
	Builder[*HotspotsSearchBuilder, Hotspot, *HotspotsSearchResponse]
}

// NewHotspotsSearchBuilder creates a builder for /api/hotspots/search.
func NewHotspotsSearchBuilder(requester Requester) *HotspotsSearchBuilder {
	b := &HotspotsSearchBuilder{}
	b.Builder = NewBuilder[*HotspotsSearchBuilder, Hotspot](b, requester, "/api/hotspots/search",
		func() *HotspotsSearchResponse { return &HotspotsSearchResponse{} })
	b.LimitWindow()
	b.AddCheck(func(params *QueryParams) error {
		if !params.Has("project") && !params.Has("hotspots") {
			return NewValidationError("project", "project or hotspots is required")
		}

		return nil
	})

	return b
}

// Project selects the project.
func (b *HotspotsSearchBuilder) Project(project string) *HotspotsSearchBuilder {
	return b.WithParam("project", project)
}

// Hotspots selects hotspot keys.
func (b *HotspotsSearchBuilder) Hotspots(keys ...string) *HotspotsSearchBuilder {
	return b.SetList("hotspots", keys...)
}

// Branch selects a branch.
func (b *HotspotsSearchBuilder) Branch(branch string) *HotspotsSearchBuilder {
	return b.WithParam("branch", branch)
}

// PullRequest selects a pull request.
func (b *HotspotsSearchBuilder) PullRequest(id string) *HotspotsSearchBuilder {
	return b.WithParam("pullRequest", id)
}

// Status is TO_REVIEW or REVIEWED.
func (b *HotspotsSearchBuilder) Status(status string) *HotspotsSearchBuilder {
	return b.SetEnum("status", []string{HotspotStatusToReview, HotspotStatusReviewed}, status)
}

// Resolution filters reviewed hotspots.
func (b *HotspotsSearchBuilder) Resolution(resolution string) *HotspotsSearchBuilder {
	return b.SetEnum("resolution", hotspotResolutions, resolution)
}

// Files restricts to file paths.
func (b *HotspotsSearchBuilder) Files(paths ...string) *HotspotsSearchBuilder {
	return b.SetList("files", paths...)
}

// InNewCodePeriod keeps hotspots of the new code period.
func (b *HotspotsSearchBuilder) InNewCodePeriod(value bool) *HotspotsSearchBuilder {
	return b.SetBool("inNewCodePeriod", value)
}

// OnlyMine keeps hotspots assigned to the current user.
func (b *HotspotsSearchBuilder) OnlyMine(value bool) *HotspotsSearchBuilder {
	return b.SetBool("onlyMine", value)
}

// HotspotRule is the rule that raised a hotspot.
type HotspotRule struct {
	Key                      string `json:"key"                      yaml:"key"`
	Name                     string `json:"name"                     yaml:"name"`
	SecurityCategory         string `json:"securityCategory"         yaml:"security_category"`
	VulnerabilityProbability string `json:"vulnerabilityProbability" yaml:"vulnerability_probability"`
}

// HotspotDetails is the full view of a hotspot.
type HotspotDetails struct {
	Key          string           `json:"key"                  yaml:"key"`
	Component    Component        `json:"component"            yaml:"component"`
	Project      Component        `json:"project"              yaml:"project"`
	Rule         HotspotRule      `json:"rule"                 yaml:"rule"`
	Status       string           `json:"status"               yaml:"status"`
	Resolution   string           `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	Line         int              `json:"line,omitempty"       yaml:"line,omitempty"`
	Hash         string           `json:"hash,omitempty"       yaml:"hash,omitempty"`
	Message      string           `json:"message"              yaml:"message"`
	Assignee     string           `json:"assignee,omitempty"   yaml:"assignee,omitempty"`
	Author       string           `json:"author,omitempty"     yaml:"author,omitempty"`
	CreationDate string           `json:"creationDate"         yaml:"creation_date"`
	UpdateDate   string           `json:"updateDate,omitempty" yaml:"update_date,omitempty"`
	TextRange    *TextRange       `json:"textRange,omitempty"  yaml:"text_range,omitempty"`
	Changelog    []ChangelogEntry `json:"changelog,omitempty"  yaml:"changelog,omitempty"`
	Comment      []IssueComment   `json:"comment,omitempty"    yaml:"comment,omitempty"`
}

// HotspotChangeStatusRequest reviews a hotspot.
type HotspotChangeStatusRequest struct {
	Hotspot    string `json:"hotspot"              yaml:"hotspot"`
	Status     string `json:"status"               yaml:"status"`
	Resolution string `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	Comment    string `json:"comment,omitempty"    yaml:"comment,omitempty"`
}

// Validate implements validation.Validatable. REVIEWED requires a
// resolution and TO_REVIEW forbids one.
func (r *HotspotChangeStatusRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Hotspot, validation.Required),
		validation.Field(&r.Status, validation.Required, validation.In(HotspotStatusToReview, HotspotStatusReviewed)),
		validation.Field(&r.Resolution,
			validation.When(r.Status == HotspotStatusReviewed, validation.Required, validation.In(toInterfaces(hotspotResolutions)...)),
			validation.When(r.Status == HotspotStatusToReview, validation.Empty),
		),
	)
}

// HotspotsClient searches and reviews security hotspots.
type HotspotsClient interface {
	Search() *HotspotsSearchBuilder
	Show(ctx context.Context, hotspot string) (*HotspotDetails, error)
	ChangeStatus(ctx context.Context, request *HotspotChangeStatusRequest) error
}
