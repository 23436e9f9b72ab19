package sonar

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tree strategies.
const (
	TreeStrategyAll      = "all"
	TreeStrategyChildren = "children"
	TreeStrategyLeaves   = "leaves"
)

// Component is a project, directory, file or other node of the component tree.
type Component struct {
	Key            string   `json:"key"                      yaml:"key"`
	Name           string   `json:"name"                     yaml:"name"`
	Qualifier      string   `json:"qualifier"                yaml:"qualifier"`
	Path           string   `json:"path,omitempty"           yaml:"path,omitempty"`
	Language       string   `json:"language,omitempty"       yaml:"language,omitempty"`
	Project        string   `json:"project,omitempty"        yaml:"project,omitempty"`
	Organization   string   `json:"organization,omitempty"   yaml:"organization,omitempty"`
	Description    string   `json:"description,omitempty"    yaml:"description,omitempty"`
	AnalysisDate   string   `json:"analysisDate,omitempty"   yaml:"analysis_date,omitempty"`
	LeakPeriodDate string   `json:"leakPeriodDate,omitempty" yaml:"leak_period_date,omitempty"`
	Version        string   `json:"version,omitempty"        yaml:"version,omitempty"`
	Visibility     string   `json:"visibility,omitempty"     yaml:"visibility,omitempty"`
	Tags           []string `json:"tags,omitempty"           yaml:"tags,omitempty"`
}

// ComponentShowResponse is a component with its ancestors.
type ComponentShowResponse struct {
	Component Component   `json:"component"           yaml:"component"`
	Ancestors []Component `json:"ancestors,omitempty" yaml:"ancestors,omitempty"`
}

// ComponentRef selects a component on a branch or pull request.
type ComponentRef struct {
	Component   string
	Branch      string
	PullRequest string
}

// ComponentsSearchResponse is a page of /api/components/search.
type ComponentsSearchResponse struct {
	PageEnvelope

	Components []Component `json:"components" yaml:"components"`
}

// PageItems implements Pager.
func (r *ComponentsSearchResponse) PageItems() []Component { return r.Components }

// ComponentsSearchBuilder searches components by qualifier.
type ComponentsSearchBuilder struct {
	Builder[*ComponentsSearchBuilder, Component, *ComponentsSearchResponse]
}

// NewComponentsSearchBuilder creates a builder for /api/components/search.
func NewComponentsSearchBuilder(requester Requester) *ComponentsSearchBuilder {
	b := &ComponentsSearchBuilder{}
	b.Builder = NewBuilder[*ComponentsSearchBuilder, Component](b, requester, "/api/components/search",
		func() *ComponentsSearchResponse { return &ComponentsSearchResponse{} })
	b.Require("qualifiers")
	b.LimitWindow()

	return b
}

// Qualifiers sets the component types; required.
func (b *ComponentsSearchBuilder) Qualifiers(values ...string) *ComponentsSearchBuilder {
	return b.SetEnum("qualifiers", qualifiers, values...)
}

// Query filters on key or name.
func (b *ComponentsSearchBuilder) Query(q string) *ComponentsSearchBuilder {
	return b.WithParam("q", q)
}

// Organization overrides the configured organization.
func (b *ComponentsSearchBuilder) Organization(organization string) *ComponentsSearchBuilder {
	return b.WithParam("organization", organization)
}

// ComponentTreeResponse is a page of /api/components/tree.
type ComponentTreeResponse struct {
	PageEnvelope

	BaseComponent Component   `json:"baseComponent" yaml:"base_component"`
	Components    []Component `json:"components"    yaml:"components"`
}

// PageItems implements Pager.
func (r *ComponentTreeResponse) PageItems() []Component { return r.Components }

// ComponentTreeBuilder walks the descendants of a component.
type ComponentTreeBuilder struct {
	Builder[*ComponentTreeBuilder, Component, *ComponentTreeResponse]
}

// NewComponentTreeBuilder creates a builder for /api/components/tree.
func NewComponentTreeBuilder(requester Requester, component string) *ComponentTreeBuilder {
	b := &ComponentTreeBuilder{}
	b.Builder = NewBuilder[*ComponentTreeBuilder, Component](b, requester, "/api/components/tree",
		func() *ComponentTreeResponse { return &ComponentTreeResponse{} })
	b.Require("component")
	b.WithParam("component", component)
	b.LimitWindow()

	return b
}

// Branch selects a branch.
func (b *ComponentTreeBuilder) Branch(branch string) *ComponentTreeBuilder {
	return b.WithParam("branch", branch)
}

// PullRequest selects a pull request.
func (b *ComponentTreeBuilder) PullRequest(id string) *ComponentTreeBuilder {
	return b.WithParam("pullRequest", id)
}

// Qualifiers restricts the component types.
func (b *ComponentTreeBuilder) Qualifiers(values ...string) *ComponentTreeBuilder {
	return b.SetEnum("qualifiers", qualifiers, values...)
}

// Query filters on key or name.
func (b *ComponentTreeBuilder) Query(q string) *ComponentTreeBuilder {
	return b.WithParam("q", q)
}

// Strategy is all, children or leaves.
func (b *ComponentTreeBuilder) Strategy(strategy string) *ComponentTreeBuilder {
	return b.SetEnum("strategy", []string{TreeStrategyAll, TreeStrategyChildren, TreeStrategyLeaves}, strategy)
}

// ComponentsClient reads the component tree.
type ComponentsClient interface {
	Show(ctx context.Context, ref ComponentRef) (*ComponentShowResponse, error)
	Search() *ComponentsSearchBuilder
	Tree(component string) *ComponentTreeBuilder
}

// SourceLine is one numbered line of source code. The server sends it as
// a [line, code] pair.
type SourceLine struct {
	Line int    `json:"line" yaml:"line"`
	Code string `json:"code" yaml:"code"`
}

// UnmarshalJSON decodes the pair form.
func (l *SourceLine) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage

	err := json.Unmarshal(data, &pair)
	if err != nil {
		return fmt.Errorf("decoding source line: %w", err)
	}

	if len(pair) != 2 {
		return fmt.Errorf("%w: source line has %d elements", ErrUnexpectedResponse, len(pair))
	}

	err = json.Unmarshal(pair[0], &l.Line)
	if err != nil {
		return fmt.Errorf("decoding source line number: %w", err)
	}

	err = json.Unmarshal(pair[1], &l.Code)
	if err != nil {
		return fmt.Errorf("decoding source line code: %w", err)
	}

	return nil
}

// SourcesShowResponse holds a range of source lines.
type SourcesShowResponse struct {
	Sources []SourceLine `json:"sources" yaml:"sources"`
}

// SCMLine is the blame of one line, sent as [line, author, date, revision].
type SCMLine struct {
	Line     int    `json:"line"     yaml:"line"`
	Author   string `json:"author"   yaml:"author"`
	Date     string `json:"date"     yaml:"date"`
	Revision string `json:"revision" yaml:"revision"`
}

// UnmarshalJSON decodes the tuple form.
func (l *SCMLine) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage

	err := json.Unmarshal(data, &tuple)
	if err != nil {
		return fmt.Errorf("decoding scm line: %w", err)
	}

	if len(tuple) < 4 {
		return fmt.Errorf("%w: scm line has %d elements", ErrUnexpectedResponse, len(tuple))
	}

	targets := []interface{}{&l.Line, &l.Author, &l.Date, &l.Revision}
	for i, target := range targets {
		err = json.Unmarshal(tuple[i], target)
		if err != nil {
			return fmt.Errorf("decoding scm line element %d: %w", i, err)
		}
	}

	return nil
}

// SCMResponse holds the blame of a range of lines.
type SCMResponse struct {
	SCM []SCMLine `json:"scm" yaml:"scm"`
}

// LineRange bounds a source request; zero values mean the whole file.
type LineRange struct {
	From int
	To   int
}

// SourcesClient reads source code.
type SourcesClient interface {
	// Raw returns the file content as plain text.
	Raw(ctx context.Context, ref ComponentRef) (string, error)
	Show(ctx context.Context, key string, lines *LineRange) ([]SourceLine, error)
	SCM(ctx context.Context, key string, lines *LineRange, commitsByLine bool) ([]SCMLine, error)
}

// DuplicationBlock is one occurrence of a duplicated block.
type DuplicationBlock struct {
	From int    `json:"from" yaml:"from"`
	Size int    `json:"size" yaml:"size"`
	Ref  string `json:"_ref" yaml:"ref"`
}

// Duplication groups the occurrences of one duplicated block.
type Duplication struct {
	Blocks []DuplicationBlock `json:"blocks" yaml:"blocks"`
}

// DuplicatedFile is a file referenced by DuplicationBlock.Ref.
type DuplicatedFile struct {
	Key         string `json:"key"                   yaml:"key"`
	Name        string `json:"name"                  yaml:"name"`
	ProjectName string `json:"projectName,omitempty" yaml:"project_name,omitempty"`
	Project     string `json:"project,omitempty"     yaml:"project,omitempty"`
}

// DuplicationsResponse lists the duplications of a file.
type DuplicationsResponse struct {
	Duplications []Duplication             `json:"duplications" yaml:"duplications"`
	Files        map[string]DuplicatedFile `json:"files"        yaml:"files"`
}

// DuplicationsClient reads duplicated blocks.
type DuplicationsClient interface {
	Show(ctx context.Context, ref ComponentRef) (*DuplicationsResponse, error)
}
