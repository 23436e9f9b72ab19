package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// UsersClient implements sonar.UsersClient.
type UsersClient struct {
	requester *requester
}

// NewUsersClient creates a new users client.
func NewUsersClient(r *requester) *UsersClient {
	return &UsersClient{requester: r}
}

// Search implements sonar.UsersClient.Search.
func (c *UsersClient) Search() *sonar.UsersSearchBuilder {
	return sonar.NewUsersSearchBuilder(c.requester)
}

// Create implements sonar.UsersClient.Create.
func (c *UsersClient) Create(ctx context.Context, request *sonar.UserCreateRequest) (*sonar.User, error) {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return nil, err
	}

	values := newForm().
		set("login", request.Login).
		set("name", request.Name).
		set("email", request.Email).
		set("password", request.Password).
		values()
	setOptionalBool(values, "local", request.Local)

	var resp sonar.UserResponse

	err = c.requester.postForm(ctx, "/api/users/create", values, &resp)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return &resp.User, nil
}

// Update implements sonar.UsersClient.Update.
func (c *UsersClient) Update(ctx context.Context, request *sonar.UserUpdateRequest) (*sonar.User, error) {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return nil, err
	}

	values := url.Values{"login": {request.Login}}
	setOptional(values, "name", request.Name)
	setOptional(values, "email", request.Email)

	var resp sonar.UserResponse

	err = c.requester.postForm(ctx, "/api/users/update", values, &resp)
	if err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}

	return &resp.User, nil
}

// Deactivate implements sonar.UsersClient.Deactivate.
func (c *UsersClient) Deactivate(ctx context.Context, login string, anonymize bool) error {
	err := requireKey("login", login)
	if err != nil {
		return err
	}

	values := newForm().set("login", login)
	if anonymize {
		values.boolean("anonymize", true)
	}

	err = c.requester.postForm(ctx, "/api/users/deactivate", values.values(), nil)
	if err != nil {
		return fmt.Errorf("deactivating user: %w", err)
	}

	return nil
}

// ChangePassword implements sonar.UsersClient.ChangePassword.
func (c *UsersClient) ChangePassword(ctx context.Context, request *sonar.PasswordChangeRequest) error {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return err
	}

	values := newForm().
		set("login", request.Login).
		set("password", request.Password).
		set("previousPassword", request.PreviousPassword)

	err = c.requester.postForm(ctx, "/api/users/change_password", values.values(), nil)
	if err != nil {
		return fmt.Errorf("changing password: %w", err)
	}

	return nil
}

// Groups implements sonar.UsersClient.Groups.
func (c *UsersClient) Groups(login string) *sonar.UserGroupsBuilder {
	return sonar.NewUserGroupsBuilder(c.requester, login)
}

// UserGroupsClient implements sonar.UserGroupsClient.
type UserGroupsClient struct {
	requester *requester
}

// NewUserGroupsClient creates a new user groups client.
func NewUserGroupsClient(r *requester) *UserGroupsClient {
	return &UserGroupsClient{requester: r}
}

// Search implements sonar.UserGroupsClient.Search.
func (c *UserGroupsClient) Search() *sonar.GroupsSearchBuilder {
	return sonar.NewGroupsSearchBuilder(c.requester)
}

// Create implements sonar.UserGroupsClient.Create.
func (c *UserGroupsClient) Create(ctx context.Context, request *sonar.GroupCreateRequest) (*sonar.Group, error) {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return nil, err
	}

	values := newForm().set("name", request.Name).set("description", request.Description)

	var resp sonar.GroupResponse

	err = c.requester.postForm(ctx, "/api/user_groups/create", values.values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("creating group: %w", err)
	}

	return &resp.Group, nil
}

// Update implements sonar.UserGroupsClient.Update.
func (c *UserGroupsClient) Update(ctx context.Context, request *sonar.GroupUpdateRequest) error {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return err
	}

	values := url.Values{"currentName": {request.CurrentName}}
	setOptional(values, "name", request.Name)
	setOptional(values, "description", request.Description)

	err = c.requester.postForm(ctx, "/api/user_groups/update", values, nil)
	if err != nil {
		return fmt.Errorf("updating group: %w", err)
	}

	return nil
}

// Delete implements sonar.UserGroupsClient.Delete.
func (c *UserGroupsClient) Delete(ctx context.Context, name string) error {
	err := c.requester.postRequired(ctx, "/api/user_groups/delete", map[string]string{"name": name})
	if err != nil {
		return fmt.Errorf("deleting group: %w", err)
	}

	return nil
}

// AddUser implements sonar.UserGroupsClient.AddUser.
func (c *UserGroupsClient) AddUser(ctx context.Context, group, login string) error {
	err := c.requester.postRequired(ctx, "/api/user_groups/add_user", map[string]string{"name": group, "login": login})
	if err != nil {
		return fmt.Errorf("adding user to group: %w", err)
	}

	return nil
}

// RemoveUser implements sonar.UserGroupsClient.RemoveUser.
func (c *UserGroupsClient) RemoveUser(ctx context.Context, group, login string) error {
	err := c.requester.postRequired(ctx, "/api/user_groups/remove_user", map[string]string{"name": group, "login": login})
	if err != nil {
		return fmt.Errorf("removing user from group: %w", err)
	}

	return nil
}

// Users implements sonar.UserGroupsClient.Users.
func (c *UserGroupsClient) Users(group string) *sonar.GroupUsersBuilder {
	return sonar.NewGroupUsersBuilder(c.requester, group)
}

// UserTokensClient implements sonar.UserTokensClient.
type UserTokensClient struct {
	requester *requester
}

// NewUserTokensClient creates a new user tokens client.
func NewUserTokensClient(r *requester) *UserTokensClient {
	return &UserTokensClient{requester: r}
}

// Search implements sonar.UserTokensClient.Search.
func (c *UserTokensClient) Search(ctx context.Context, login string) ([]sonar.UserToken, error) {
	var resp sonar.UserTokensSearchResponse

	err := c.requester.GetJSON(ctx, "/api/user_tokens/search", newForm().set("login", login).values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("listing tokens: %w", err)
	}

	return resp.UserTokens, nil
}

// Generate implements sonar.UserTokensClient.Generate. The secret in the
// result is not retrievable later.
func (c *UserTokensClient) Generate(ctx context.Context, request *sonar.TokenGenerateRequest) (*sonar.GeneratedToken, error) {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return nil, err
	}

	values := newForm().
		set("name", request.Name).
		set("login", request.Login).
		set("type", request.Type).
		set("projectKey", request.ProjectKey).
		set("expirationDate", request.ExpirationDate)

	var token sonar.GeneratedToken

	err = c.requester.postForm(ctx, "/api/user_tokens/generate", values.values(), &token)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &token, nil
}

// Revoke implements sonar.UserTokensClient.Revoke.
func (c *UserTokensClient) Revoke(ctx context.Context, name, login string) error {
	err := requireKey("name", name)
	if err != nil {
		return err
	}

	err = c.requester.postForm(ctx, "/api/user_tokens/revoke", newForm().set("name", name).set("login", login).values(), nil)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	return nil
}

// AuthenticationClient implements sonar.AuthenticationClient.
type AuthenticationClient struct {
	requester *requester
}

// NewAuthenticationClient creates a new authentication client.
func NewAuthenticationClient(r *requester) *AuthenticationClient {
	return &AuthenticationClient{requester: r}
}

// Validate implements sonar.AuthenticationClient.Validate. Invalid
// credentials are reported as false, not as an error.
func (c *AuthenticationClient) Validate(ctx context.Context) (bool, error) {
	var resp sonar.AuthenticationValidateResponse

	err := c.requester.GetJSON(ctx, "/api/authentication/validate", nil, &resp)
	if err != nil {
		return false, fmt.Errorf("validating credentials: %w", err)
	}

	return resp.Valid, nil
}

// Logout implements sonar.AuthenticationClient.Logout.
func (c *AuthenticationClient) Logout(ctx context.Context) error {
	err := c.requester.postForm(ctx, "/api/authentication/logout", nil, nil)
	if err != nil {
		return fmt.Errorf("logging out: %w", err)
	}

	return nil
}
