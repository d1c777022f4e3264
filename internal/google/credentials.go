package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Credentials is the OAuth client identity of the gateway, read from a Google
// client secrets file.
type Credentials struct {
	// Kind is "web" or "installed", whichever section the file carried.
	Kind string

	config *oauth2.Config
}

type clientSecretsFile struct {
	Web       *clientSecrets `json:"web"`
	Installed *clientSecrets `json:"installed"`
}

type clientSecrets struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	RedirectURIs []string `json:"redirect_uris"`
	AuthURI      string   `json:"auth_uri"`
	TokenURI     string   `json:"token_uri"`
}

// LoadCredentials reads a client secrets file. Exactly one of the "web" or
// "installed" sections must be present; anything else yields a *ConfigError.
func LoadCredentials(path string, scopes ...string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return ParseCredentials(path, data, scopes...)
}

// ParseCredentials parses client secrets already read from path.
func ParseCredentials(path string, data []byte, scopes ...string) (*Credentials, error) {
	var f clientSecretsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("malformed JSON: %w", err)}
	}

	var (
		kind    string
		secrets *clientSecrets
	)
	switch {
	case f.Web != nil && f.Installed != nil:
		return nil, &ConfigError{Path: path, Err: errors.New(`both "web" and "installed" sections are present`)}
	case f.Web != nil:
		kind, secrets = "web", f.Web
	case f.Installed != nil:
		kind, secrets = "installed", f.Installed
	default:
		return nil, &ConfigError{Path: path, Err: errors.New(`missing "web" or "installed" section`)}
	}
	if secrets.ClientID == "" {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("%s.client_id is empty", kind)}
	}

	if len(scopes) == 0 {
		scopes = DefaultOAuthScopes
	}
	conf, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	return &Credentials{Kind: kind, config: conf}, nil
}

// ClientID returns the OAuth client id.
func (c *Credentials) ClientID() string {
	return c.config.ClientID
}

// Config returns a copy of the underlying OAuth2 configuration.
func (c *Credentials) Config() *oauth2.Config {
	conf := *c.config
	conf.Scopes = append([]string(nil), c.config.Scopes...)
	return &conf
}

// AuthCodeURL returns the consent URL the user visits to authorize the gateway.
// Offline access is requested so the resulting token carries a refresh token.
func (c *Credentials) AuthCodeURL(state, redirectURL string) string {
	conf := c.Config()
	if redirectURL != "" {
		conf.RedirectURL = redirectURL
	}
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token.
func (c *Credentials) Exchange(ctx context.Context, code, redirectURL string) (*oauth2.Token, error) {
	conf := c.Config()
	if redirectURL != "" {
		conf.RedirectURL = redirectURL
	}
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return tok, nil
}
