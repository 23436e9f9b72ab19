package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fivetwenty-io/sonar-client/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrEmptyToken       = errors.New("token is empty")
	ErrEmptyCredentials = errors.New("username is empty")
	ErrEmptyPasscode    = errors.New("passcode is empty")
	ErrUnknownScheme    = errors.New("unknown auth scheme")
)

// Provider sets authentication headers on outgoing requests.
type Provider interface {
	Apply(ctx context.Context, header http.Header) error
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, header http.Header) error

// Apply implements Provider.
func (f ProviderFunc) Apply(ctx context.Context, header http.Header) error {
	return f(ctx, header)
}

// BearerProvider sends "Authorization: Bearer <token>".
type BearerProvider struct {
	token string
}

// NewBearerProvider creates a bearer token provider.
func NewBearerProvider(token string) *BearerProvider {
	return &BearerProvider{token: token}
}

// Apply implements Provider.
func (p *BearerProvider) Apply(_ context.Context, header http.Header) error {
	if p.token == "" {
		return ErrEmptyToken
	}

	header.Set("Authorization", "Bearer "+p.token)

	return nil
}

// BasicProvider sends basic credentials. Older servers accept a token as
// the login with an empty password.
type BasicProvider struct {
	username string
	password string
}

// NewBasicProvider creates a basic credentials provider.
func NewBasicProvider(username, password string) *BasicProvider {
	return &BasicProvider{username: username, password: password}
}

// NewTokenAsBasicProvider sends a token as the basic-auth login.
func NewTokenAsBasicProvider(token string) *BasicProvider {
	return &BasicProvider{username: token}
}

// Apply implements Provider.
func (p *BasicProvider) Apply(_ context.Context, header http.Header) error {
	if p.username == "" {
		return ErrEmptyCredentials
	}

	credentials := base64.StdEncoding.EncodeToString([]byte(p.username + ":" + p.password))
	header.Set("Authorization", "Basic "+credentials)

	return nil
}

// PasscodeProvider sends the system passcode header.
type PasscodeProvider struct {
	passcode string
}

// NewPasscodeProvider creates a passcode provider.
func NewPasscodeProvider(passcode string) *PasscodeProvider {
	return &PasscodeProvider{passcode: passcode}
}

// Apply implements Provider.
func (p *PasscodeProvider) Apply(_ context.Context, header http.Header) error {
	if p.passcode == "" {
		return ErrEmptyPasscode
	}

	header.Set(constants.PasscodeHeader, p.passcode)

	return nil
}

// Chain applies several providers in order.
type Chain []Provider

// Apply implements Provider. The first failure stops the chain.
func (c Chain) Apply(ctx context.Context, header http.Header) error {
	for _, provider := range c {
		if provider == nil {
			continue
		}

		err := provider.Apply(ctx, header)
		if err != nil {
			return err
		}
	}

	return nil
}

// Credentials are the authentication settings of a client.
type Credentials struct {
	Token      string
	AuthScheme string
	Username   string
	Password   string
	Passcode   string
}

// NewProvider selects the provider for the given credentials: a token wins
// over a username, and the passcode is added on top. It returns nil when no
// credentials are set.
func NewProvider(creds Credentials) (Provider, error) {
	var chain Chain

	switch {
	case creds.Token != "":
		switch strings.ToLower(creds.AuthScheme) {
		case "", constants.AuthSchemeBearer:
			chain = append(chain, NewBearerProvider(creds.Token))
		case constants.AuthSchemeBasic:
			chain = append(chain, NewTokenAsBasicProvider(creds.Token))
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, creds.AuthScheme)
		}
	case creds.Username != "":
		chain = append(chain, NewBasicProvider(creds.Username, creds.Password))
	}

	if creds.Passcode != "" {
		chain = append(chain, NewPasscodeProvider(creds.Passcode))
	}

	switch len(chain) {
	case 0:
		return nil, nil //nolint:nilnil
	case 1:
		return chain[0], nil
	default:
		return chain, nil
	}
}
