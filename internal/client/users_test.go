package client_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/fivetwenty-io/sonar-client/internal/client"
	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestUsersClient(t *testing.T) {
	t.Parallel()

	RunOperationTests(t, []TestOperation{
		{
			Name: "search deactivated",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Users().Search().Query("jdoe").Deactivated(true).Execute(ctx)

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/users/search",
			Params: map[string]string{"q": "jdoe", "deactivated": "true"},
		},
		{
			Name: "create local user",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Users().Create(ctx, &sonar.UserCreateRequest{
					Login:    "jdoe",
					Name:     "John Doe",
					Email:    "jdoe@example.com",
					Password: "s3cret-Passw0rd",
				})

				return err
			},
			Method: http.MethodPost,
			Path:   "/api/users/create",
			Params: map[string]string{"login": "jdoe", "name": "John Doe", "password": "s3cret-Passw0rd"},
		},
		{
			Name: "create local user without password",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Users().Create(ctx, &sonar.UserCreateRequest{Login: "jdoe", Name: "John Doe"})

				return err
			},
			WantValidation: true,
		},
		{
			Name: "create external user",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Users().Create(ctx, &sonar.UserCreateRequest{
					Login: "jdoe",
					Name:  "John Doe",
					Local: BoolPtr(false),
				})

				return err
			},
			Method: http.MethodPost,
			Path:   "/api/users/create",
			Params: map[string]string{"login": "jdoe", "local": "false"},
		},
		{
			Name: "update email",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Users().Update(ctx, &sonar.UserUpdateRequest{Login: "jdoe", Email: StringPtr("john@example.com")})

				return err
			},
			Method: http.MethodPost,
			Path:   "/api/users/update",
			Params: map[string]string{"login": "jdoe", "email": "john@example.com"},
		},
		{
			Name: "deactivate and anonymize",
			Call: func(ctx context.Context, client *Client) error {
				return client.Users().Deactivate(ctx, "jdoe", true)
			},
			Method: http.MethodPost,
			Path:   "/api/users/deactivate",
			Params: map[string]string{"login": "jdoe", "anonymize": "true"},
		},
		{
			Name: "change password",
			Call: func(ctx context.Context, client *Client) error {
				return client.Users().ChangePassword(ctx, &sonar.PasswordChangeRequest{
					Login:            "jdoe",
					Password:         "new-Passw0rd",
					PreviousPassword: "old-Passw0rd",
				})
			},
			Method: http.MethodPost,
			Path:   "/api/users/change_password",
			Params: map[string]string{"login": "jdoe", "password": "new-Passw0rd", "previousPassword": "old-Passw0rd"},
		},
		{
			Name: "change password without password",
			Call: func(ctx context.Context, client *Client) error {
				return client.Users().ChangePassword(ctx, &sonar.PasswordChangeRequest{Login: "jdoe"})
			},
			WantValidation: true,
		},
		{
			Name: "groups of user",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Users().Groups("jdoe").Query("dev").Execute(ctx)

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/users/groups",
			Params: map[string]string{"login": "jdoe", "q": "dev"},
		},
		{
			Name: "groups of nobody",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.Users().Groups("").Execute(ctx)

				return err
			},
			WantValidation: true,
		},
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestUserGroupsClient(t *testing.T) {
	t.Parallel()

	RunOperationTests(t, []TestOperation{
		{
			Name: "search",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.UserGroups().Search().Query("dev").Execute(ctx)

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/user_groups/search",
			Params: map[string]string{"q": "dev"},
		},
		{
			Name: "create",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.UserGroups().Create(ctx, &sonar.GroupCreateRequest{Name: "developers", Description: "All devs"})

				return err
			},
			Method: http.MethodPost,
			Path:   "/api/user_groups/create",
			Params: map[string]string{"name": "developers", "description": "All devs"},
		},
		{
			Name: "update clears description",
			Call: func(ctx context.Context, client *Client) error {
				return client.UserGroups().Update(ctx, &sonar.GroupUpdateRequest{
					CurrentName: "developers",
					Name:        StringPtr("engineers"),
					Description: StringPtr(""),
				})
			},
			Method: http.MethodPost,
			Path:   "/api/user_groups/update",
			Params: map[string]string{"currentName": "developers", "name": "engineers", "description": ""},
		},
		{
			Name: "update to empty name",
			Call: func(ctx context.Context, client *Client) error {
				return client.UserGroups().Update(ctx, &sonar.GroupUpdateRequest{CurrentName: "developers", Name: StringPtr("")})
			},
			WantValidation: true,
		},
		{
			Name: "delete",
			Call: func(ctx context.Context, client *Client) error {
				return client.UserGroups().Delete(ctx, "developers")
			},
			Method: http.MethodPost,
			Path:   "/api/user_groups/delete",
			Params: map[string]string{"name": "developers"},
		},
		{
			Name: "add user",
			Call: func(ctx context.Context, client *Client) error {
				return client.UserGroups().AddUser(ctx, "developers", "jdoe")
			},
			Method: http.MethodPost,
			Path:   "/api/user_groups/add_user",
			Params: map[string]string{"name": "developers", "login": "jdoe"},
		},
		{
			Name: "remove user without login",
			Call: func(ctx context.Context, client *Client) error {
				return client.UserGroups().RemoveUser(ctx, "developers", "")
			},
			WantValidation: true,
		},
		{
			Name: "members",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.UserGroups().Users("developers").Execute(ctx)

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/user_groups/users",
			Params: map[string]string{"name": "developers"},
		},
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestUserTokensClient(t *testing.T) {
	t.Parallel()

	RunOperationTests(t, []TestOperation{
		{
			Name: "search own tokens",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.UserTokens().Search(ctx, "")

				return err
			},
			Method: http.MethodGet,
			Path:   "/api/user_tokens/search",
		},
		{
			Name: "generate project analysis token",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.UserTokens().Generate(ctx, &sonar.TokenGenerateRequest{
					Name:           "ci",
					Type:           sonar.TokenTypeProjectAnalysis,
					ProjectKey:     "core",
					ExpirationDate: "2030-01-31",
				})

				return err
			},
			Method: http.MethodPost,
			Path:   "/api/user_tokens/generate",
			Params: map[string]string{
				"name":           "ci",
				"type":           "PROJECT_ANALYSIS_TOKEN",
				"projectKey":     "core",
				"expirationDate": "2030-01-31",
			},
		},
		{
			Name: "project analysis token needs project",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.UserTokens().Generate(ctx, &sonar.TokenGenerateRequest{Name: "ci", Type: sonar.TokenTypeProjectAnalysis})

				return err
			},
			WantValidation: true,
		},
		{
			Name: "malformed expiration date",
			Call: func(ctx context.Context, client *Client) error {
				_, err := client.UserTokens().Generate(ctx, &sonar.TokenGenerateRequest{Name: "ci", ExpirationDate: "31/01/2030"})

				return err
			},
			WantValidation: true,
		},
		{
			Name: "revoke",
			Call: func(ctx context.Context, client *Client) error {
				return client.UserTokens().Revoke(ctx, "ci", "jdoe")
			},
			Method: http.MethodPost,
			Path:   "/api/user_tokens/revoke",
			Params: map[string]string{"name": "ci", "login": "jdoe"},
		},
		{
			Name: "revoke without name",
			Call: func(ctx context.Context, client *Client) error {
				return client.UserTokens().Revoke(ctx, "", "jdoe")
			},
			WantValidation: true,
		},
	})
}

func TestUserTokensClient_GenerateReturnsSecret(t *testing.T) {
	t.Parallel()

	server := NewFakeServer(t, map[string]Route{
		"/api/user_tokens/generate": {JSON: map[string]string{
			"login": "jdoe",
			"name":  "ci",
			"token": "squ_0123456789",
			"type":  sonar.TokenTypeUser,
		}},
	})
	client := NewTestClient(t, server.URL)

	token, err := client.UserTokens().Generate(context.Background(), &sonar.TokenGenerateRequest{Name: "ci"})
	require.NoError(t, err)
	assert.Equal(t, "squ_0123456789", token.Token)
	assert.Equal(t, "jdoe", token.Login)
}

func TestAuthenticationClient(t *testing.T) {
	t.Parallel()

	t.Run("validate", func(t *testing.T) {
		t.Parallel()

		server := NewFakeServer(t, map[string]Route{
			"/api/authentication/validate": {JSON: map[string]bool{"valid": true}},
		})
		client := NewTestClient(t, server.URL)

		valid, err := client.Authentication().Validate(context.Background())
		require.NoError(t, err)
		assert.True(t, valid)
		assert.Equal(t, "Bearer test-token", server.Last().Header.Get("Authorization"))
	})

	t.Run("invalid credentials are not an error", func(t *testing.T) {
		t.Parallel()

		server := NewFakeServer(t, map[string]Route{
			"/api/authentication/validate": {JSON: map[string]bool{"valid": false}},
		})
		client := NewTestClient(t, server.URL)

		valid, err := client.Authentication().Validate(context.Background())
		require.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("logout", func(t *testing.T) {
		t.Parallel()

		server := NewFakeServer(t, nil)
		client := NewTestClient(t, server.URL)

		require.NoError(t, client.Authentication().Logout(context.Background()))
		assert.Equal(t, http.MethodPost, server.Last().Method)
		assert.Equal(t, "/api/authentication/logout", server.Last().Path)
	})
}
