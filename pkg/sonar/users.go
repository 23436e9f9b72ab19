package sonar

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Group membership filters.
const (
	MembershipSelected   = "selected"
	MembershipDeselected = "deselected"
	MembershipAll        = "all"
)

var memberships = []string{MembershipSelected, MembershipDeselected, MembershipAll}

// User is a user account.
type User struct {
	Login              string   `json:"login"                        yaml:"login"`
	Name               string   `json:"name"                         yaml:"name"`
	Email              string   `json:"email,omitempty"              yaml:"email,omitempty"`
	Active             bool     `json:"active"                       yaml:"active"`
	Local              bool     `json:"local"                        yaml:"local"`
	ExternalIdentity   string   `json:"externalIdentity,omitempty"   yaml:"external_identity,omitempty"`
	ExternalProvider   string   `json:"externalProvider,omitempty"   yaml:"external_provider,omitempty"`
	Avatar             string   `json:"avatar,omitempty"             yaml:"avatar,omitempty"`
	Groups             []string `json:"groups,omitempty"             yaml:"groups,omitempty"`
	TokensCount        int      `json:"tokensCount,omitempty"        yaml:"tokens_count,omitempty"`
	LastConnectionDate string   `json:"lastConnectionDate,omitempty" yaml:"last_connection_date,omitempty"`
	Managed            bool     `json:"managed,omitempty"            yaml:"managed,omitempty"`
}

// UsersSearchResponse is a page of /api/users/search.
type UsersSearchResponse struct {
	PageEnvelope

	Users []User `json:"users" yaml:"users"`
}

// PageItems implements Pager.
func (r *UsersSearchResponse) PageItems() []User { return r.Users }

// UsersSearchBuilder searches users.
type UsersSearchBuilder struct {
	Builder[*UsersSearchBuilder, User, *UsersSearchResponse]
}

// NewUsersSearchBuilder creates a builder for /api/users/search.
func NewUsersSearchBuilder(requester Requester) *UsersSearchBuilder {
	b := &UsersSearchBuilder{}
	b.Builder = NewBuilder[*UsersSearchBuilder, User](b, requester, "/api/users/search",
		func() *UsersSearchResponse { return &UsersSearchResponse{} })

	return b
}

// Query matches login, name and email.
func (b *UsersSearchBuilder) Query(q string) *UsersSearchBuilder {
	return b.WithParam("q", q)
}

// Deactivated returns deactivated users instead of active ones.
func (b *UsersSearchBuilder) Deactivated(value bool) *UsersSearchBuilder {
	return b.SetBool("deactivated", value)
}

// UserCreateRequest creates a user. Password is required for local users.
type UserCreateRequest struct {
	Login    string `json:"login"              yaml:"login"`
	Name     string `json:"name"               yaml:"name"`
	Email    string `json:"email,omitempty"    yaml:"email,omitempty"`
	Password string `json:"password,omitempty" yaml:"-"`
	Local    *bool  `json:"local,omitempty"    yaml:"local,omitempty"`
}

// IsLocal reports whether the user is managed by the server; users are
// local unless Local is explicitly false.
func (r *UserCreateRequest) IsLocal() bool {
	return r.Local == nil || *r.Local
}

// Validate implements validation.Validatable.
func (r *UserCreateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Login, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Length(1, 100)),
		validation.Field(&r.Password, validation.When(r.IsLocal(), validation.Required)),
	)
}

// UserResponse wraps a created or updated user.
type UserResponse struct {
	User User `json:"user" yaml:"user"`
}

// UserUpdateRequest updates a user. Nil fields are left unchanged.
type UserUpdateRequest struct {
	Login string  `json:"login"           yaml:"login"`
	Name  *string `json:"name,omitempty"  yaml:"name,omitempty"`
	Email *string `json:"email,omitempty" yaml:"email,omitempty"`
}

// Validate implements validation.Validatable.
func (r *UserUpdateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Login, validation.Required),
	)
}

// PasswordChangeRequest changes a password. PreviousPassword is required
// when changing the caller's own password.
type PasswordChangeRequest struct {
	Login            string `json:"login"                      yaml:"login"`
	Password         string `json:"password"                   yaml:"-"`
	PreviousPassword string `json:"previousPassword,omitempty" yaml:"-"`
}

// Validate implements validation.Validatable.
func (r *PasswordChangeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Login, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// Group is a user group.
type Group struct {
	ID           string `json:"id,omitempty"           yaml:"id,omitempty"`
	Name         string `json:"name"                   yaml:"name"`
	Description  string `json:"description,omitempty"  yaml:"description,omitempty"`
	MembersCount int    `json:"membersCount,omitempty" yaml:"members_count,omitempty"`
	Default      bool   `json:"default,omitempty"      yaml:"default,omitempty"`
	Managed      bool   `json:"managed,omitempty"      yaml:"managed,omitempty"`
	Selected     bool   `json:"selected,omitempty"     yaml:"selected,omitempty"`
}

// UserGroupsResponse is a page of /api/users/groups.
type UserGroupsResponse struct {
	PageEnvelope

	Groups []Group `json:"groups" yaml:"groups"`
}

// PageItems implements Pager.
func (r *UserGroupsResponse) PageItems() []Group { return r.Groups }

// UserGroupsBuilder lists the groups of a user.
type UserGroupsBuilder struct {
	Builder[*UserGroupsBuilder, Group, *UserGroupsResponse]
}

// NewUserGroupsBuilder creates a builder for /api/users/groups.
func NewUserGroupsBuilder(requester Requester, login string) *UserGroupsBuilder {
	b := &UserGroupsBuilder{}
	b.Builder = NewBuilder[*UserGroupsBuilder, Group](b, requester, "/api/users/groups",
		func() *UserGroupsResponse { return &UserGroupsResponse{} })
	b.Require("login")
	b.WithParam("login", login)

	return b
}

// Query filters on group name.
func (b *UserGroupsBuilder) Query(q string) *UserGroupsBuilder {
	return b.WithParam("q", q)
}

// Selected is selected, deselected or all.
func (b *UserGroupsBuilder) Selected(membership string) *UserGroupsBuilder {
	return b.SetEnum("selected", memberships, membership)
}

// UsersClient manages users.
type UsersClient interface {
	Search() *UsersSearchBuilder
	Create(ctx context.Context, request *UserCreateRequest) (*User, error)
	Update(ctx context.Context, request *UserUpdateRequest) (*User, error)
	Deactivate(ctx context.Context, login string, anonymize bool) error
	ChangePassword(ctx context.Context, request *PasswordChangeRequest) error
	Groups(login string) *UserGroupsBuilder
}

// GroupsSearchResponse is a page of /api/user_groups/search.
type GroupsSearchResponse struct {
	PageEnvelope

	Groups []Group `json:"groups" yaml:"groups"`
}

// PageItems implements Pager.
func (r *GroupsSearchResponse) PageItems() []Group { return r.Groups }

// GroupsSearchBuilder searches user groups.
type GroupsSearchBuilder struct {
	Builder[*GroupsSearchBuilder, Group, *GroupsSearchResponse]
}

// NewGroupsSearchBuilder creates a builder for /api/user_groups/search.
func NewGroupsSearchBuilder(requester Requester) *GroupsSearchBuilder {
	b := &GroupsSearchBuilder{}
	b.Builder = NewBuilder[*GroupsSearchBuilder, Group](b, requester, "/api/user_groups/search",
		func() *GroupsSearchResponse { return &GroupsSearchResponse{} })

	return b
}

// Query filters on group name.
func (b *GroupsSearchBuilder) Query(q string) *GroupsSearchBuilder {
	return b.WithParam("q", q)
}

// Organization overrides the configured organization.
func (b *GroupsSearchBuilder) Organization(organization string) *GroupsSearchBuilder {
	return b.WithParam("organization", organization)
}

// GroupCreateRequest creates a group.
type GroupCreateRequest struct {
	Name        string `json:"name"                  yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Validate implements validation.Validatable.
func (r *GroupCreateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Description, validation.Length(0, 200)),
	)
}

// GroupResponse wraps a created group.
type GroupResponse struct {
	Group Group `json:"group" yaml:"group"`
}

// GroupUpdateRequest renames a group or changes its description.
type GroupUpdateRequest struct {
	CurrentName string  `json:"currentName"           yaml:"current_name"`
	Name        *string `json:"name,omitempty"        yaml:"name,omitempty"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Validate implements validation.Validatable.
func (r *GroupUpdateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.CurrentName, validation.Required),
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 255)),
	)
}

// GroupMember is a user in a group.
type GroupMember struct {
	Login    string `json:"login"    yaml:"login"`
	Name     string `json:"name"     yaml:"name"`
	Selected bool   `json:"selected" yaml:"selected"`
}

// GroupUsersResponse is a page of /api/user_groups/users.
type GroupUsersResponse struct {
	PageEnvelope

	Users []GroupMember `json:"users" yaml:"users"`
}

// PageItems implements Pager.
func (r *GroupUsersResponse) PageItems() []GroupMember { return r.Users }

// GroupUsersBuilder lists the members of a group.
type GroupUsersBuilder struct {
	Builder[*GroupUsersBuilder, GroupMember, *GroupUsersResponse]
}

// NewGroupUsersBuilder creates a builder for /api/user_groups/users.
func NewGroupUsersBuilder(requester Requester, group string) *GroupUsersBuilder {
	b := &GroupUsersBuilder{}
	b.Builder = NewBuilder[*GroupUsersBuilder, GroupMember](b, requester, "/api/user_groups/users",
		func() *GroupUsersResponse { return &GroupUsersResponse{} })
	b.Require("name")
	b.WithParam("name", group)

	return b
}

// Query filters on login or name.
func (b *GroupUsersBuilder) Query(q string) *GroupUsersBuilder {
	return b.WithParam("q", q)
}

// Selected is selected, deselected or all.
func (b *GroupUsersBuilder) Selected(membership string) *GroupUsersBuilder {
	return b.SetEnum("selected", memberships, membership)
}

// UserGroupsClient manages user groups.
type UserGroupsClient interface {
	Search() *GroupsSearchBuilder
	Create(ctx context.Context, request *GroupCreateRequest) (*Group, error)
	Update(ctx context.Context, request *GroupUpdateRequest) error
	Delete(ctx context.Context, name string) error
	AddUser(ctx context.Context, group, login string) error
	RemoveUser(ctx context.Context, group, login string) error
	Users(group string) *GroupUsersBuilder
}

// Token types.
const (
	TokenTypeUser            = "USER_TOKEN"
	TokenTypeGlobalAnalysis  = "GLOBAL_ANALYSIS_TOKEN"
	TokenTypeProjectAnalysis = "PROJECT_ANALYSIS_TOKEN"
)

// UserToken describes a token without its secret.
type UserToken struct {
	Name               string `json:"name"                         yaml:"name"`
	Type               string `json:"type,omitempty"               yaml:"type,omitempty"`
	CreatedAt          string `json:"createdAt"                    yaml:"created_at"`
	LastConnectionDate string `json:"lastConnectionDate,omitempty" yaml:"last_connection_date,omitempty"`
	ExpirationDate     string `json:"expirationDate,omitempty"     yaml:"expiration_date,omitempty"`
	IsExpired          bool   `json:"isExpired,omitempty"          yaml:"is_expired,omitempty"`
	ProjectKey         string `json:"projectKey,omitempty"         yaml:"project_key,omitempty"`
}

// UserTokensSearchResponse lists the tokens of a user.
type UserTokensSearchResponse struct {
	Login      string      `json:"login"      yaml:"login"`
	UserTokens []UserToken `json:"userTokens" yaml:"user_tokens"`
}

// TokenGenerateRequest generates a token.
type TokenGenerateRequest struct {
	Name           string `json:"name"                     yaml:"name"`
	Login          string `json:"login,omitempty"          yaml:"login,omitempty"`
	Type           string `json:"type,omitempty"           yaml:"type,omitempty"`
	ProjectKey     string `json:"projectKey,omitempty"     yaml:"project_key,omitempty"`
	ExpirationDate string `json:"expirationDate,omitempty" yaml:"expiration_date,omitempty"`
}

// Validate implements validation.Validatable.
func (r *TokenGenerateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Type, validation.In(TokenTypeUser, TokenTypeGlobalAnalysis, TokenTypeProjectAnalysis)),
		validation.Field(&r.ProjectKey, validation.When(r.Type == TokenTypeProjectAnalysis, validation.Required)),
		validation.Field(&r.ExpirationDate, validation.Date("2006-01-02")),
	)
}

// GeneratedToken carries the secret, which the server returns only once.
type GeneratedToken struct {
	Login          string `json:"login"                    yaml:"login"`
	Name           string `json:"name"                     yaml:"name"`
	Token          string `json:"token"                    yaml:"token"`
	Type           string `json:"type,omitempty"           yaml:"type,omitempty"`
	CreatedAt      string `json:"createdAt"                yaml:"created_at"`
	ExpirationDate string `json:"expirationDate,omitempty" yaml:"expiration_date,omitempty"`
	ProjectKey     string `json:"projectKey,omitempty"     yaml:"project_key,omitempty"`
}

// UserTokensClient manages user tokens. An empty login means the caller.
type UserTokensClient interface {
	Search(ctx context.Context, login string) ([]UserToken, error)
	Generate(ctx context.Context, request *TokenGenerateRequest) (*GeneratedToken, error)
	Revoke(ctx context.Context, name, login string) error
}

// AuthenticationValidateResponse reports whether the credentials are valid.
type AuthenticationValidateResponse struct {
	Valid bool `json:"valid" yaml:"valid"`
}

// AuthenticationClient checks credentials.
type AuthenticationClient interface {
	Validate(ctx context.Context) (bool, error)
	Logout(ctx context.Context) error
}
