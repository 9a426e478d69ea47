// Package auth resolves the configured authentication mode into concrete
// outbound credentials. Secret material is held in process memory only and is
// never logged or echoed.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/viant/scy/auth/authorizer"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/viant/mcpadapter/fault"
)

// Mode selects how outbound requests are authenticated.
type Mode string

const (
	// ModeNone attaches no credentials.
	ModeNone Mode = "none"
	// ModeBearer attaches Authorization: Bearer <token>.
	ModeBearer Mode = "bearer"
	// ModeHeaders attaches each configured header verbatim.
	ModeHeaders Mode = "headers"
	// ModeOAuth2 obtains tokens via the OAuth2 client-credentials flow.
	ModeOAuth2 Mode = "oauth2"
)

// reservedHeaders are transport-controlled; configuring them is a
// configuration error surfaced before the first request.
var reservedHeaders = map[string]bool{
	"Host":              true,
	"Content-Length":    true,
	"Content-Type":      true,
	"Accept":            true,
	"Connection":        true,
	"Transfer-Encoding": true,
	"Upgrade":           true,
	"Mcp-Session-Id":    true,
}

// OAuth2Config locates an OAuth2 client configuration; the config URL may point
// to a scy-encrypted resource, decrypted with EncryptionKey.
type OAuth2Config struct {
	ConfigURL     string   `yaml:"configURL" json:"configURL"`
	EncryptionKey string   `yaml:"encryptionKey,omitempty" json:"encryptionKey,omitempty"`
	Scopes        []string `yaml:"scopes,omitempty" json:"scopes,omitempty"`
}

// Config is the authentication configuration supplied by the credential
// collaborator. Values are treated as opaque secrets.
type Config struct {
	Mode    Mode              `yaml:"mode" json:"mode"`
	Token   string            `yaml:"token,omitempty" json:"token,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	OAuth2  *OAuth2Config     `yaml:"oauth2,omitempty" json:"oauth2,omitempty"`
}

// None returns a configuration attaching no credentials.
func None() *Config {
	return &Config{Mode: ModeNone}
}

// Bearer returns a bearer-token configuration.
func Bearer(token string) *Config {
	return &Config{Mode: ModeBearer, Token: token}
}

// Headers returns a configuration attaching the given headers verbatim.
func Headers(headers map[string]string) *Config {
	return &Config{Mode: ModeHeaders, Headers: headers}
}

// Validate checks the configuration synchronously so a misconfiguration is
// reported at configure time, not at first request.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	switch c.Mode {
	case "", ModeNone:
		return nil
	case ModeBearer:
		if c.Token == "" {
			return fault.New(fault.AuthConfig, "bearer mode requires a token")
		}
		return c.validateBearerExpiry()
	case ModeHeaders:
		if len(c.Headers) == 0 {
			return fault.New(fault.AuthConfig, "headers mode requires at least one header")
		}
		for name := range c.Headers {
			if name == "" {
				return fault.New(fault.AuthConfig, "empty header name")
			}
			if reservedHeaders[http.CanonicalHeaderKey(name)] {
				return fault.Newf(fault.AuthConfig, "header %q is reserved for the transport", name)
			}
		}
		return nil
	case ModeOAuth2:
		if c.OAuth2 == nil || c.OAuth2.ConfigURL == "" {
			return fault.New(fault.AuthConfig, "oauth2 mode requires a config URL")
		}
		return nil
	}
	return fault.Newf(fault.AuthConfig, "unsupported auth mode %q", c.Mode)
}

// validateBearerExpiry inspects a JWT-shaped bearer token without verifying its
// signature; an already-expired credential is a configuration error.
func (c *Config) validateBearerExpiry() error {
	if strings.Count(c.Token, ".") != 2 {
		return nil // opaque token, nothing to inspect
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.Token, claims); err != nil {
		return nil // not a parseable JWT, treat as opaque
	}
	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return nil
	}
	if expiry.Before(time.Now()) {
		return fault.New(fault.AuthConfig, "bearer token is expired")
	}
	return nil
}

// tokenSource resolves the OAuth2 client configuration (optionally
// scy-encrypted) into a client-credentials token source.
func (c *Config) tokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	configURL := c.OAuth2.ConfigURL
	if c.OAuth2.EncryptionKey != "" {
		configURL += "|" + c.OAuth2.EncryptionKey
	}
	oauthCfg := &authorizer.OAuthConfig{ConfigURL: configURL}
	if err := authorizer.New().EnsureConfig(ctx, oauthCfg); err != nil {
		return nil, fault.Wrap(fault.AuthConfig, fmt.Sprintf("failed to load oauth2 config %q", c.OAuth2.ConfigURL), err)
	}
	clientConfig := oauthCfg.Config
	credentials := &clientcredentials.Config{
		ClientID:     clientConfig.ClientID,
		ClientSecret: clientConfig.ClientSecret,
		TokenURL:     clientConfig.Endpoint.TokenURL,
		Scopes:       c.OAuth2.Scopes,
	}
	return credentials.TokenSource(ctx), nil
}

// String implements fmt.Stringer with secrets redacted.
func (c *Config) String() string {
	if c == nil {
		return "auth(none)"
	}
	switch c.Mode {
	case ModeBearer:
		return "auth(bearer:***)"
	case ModeHeaders:
		names := make([]string, 0, len(c.Headers))
		for name := range c.Headers {
			names = append(names, name)
		}
		return fmt.Sprintf("auth(headers:%v)", names)
	case ModeOAuth2:
		return "auth(oauth2)"
	}
	return "auth(none)"
}
