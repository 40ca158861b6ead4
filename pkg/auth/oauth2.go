package auth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/siphon-data/siphon/pkg/config"
	"github.com/siphon-data/siphon/pkg/errors"
)

// OAuth2Authenticator signs requests with bearer tokens obtained through the
// client-credentials flow. Token caching and refresh are handled by the
// token source.
type OAuth2Authenticator struct {
	source oauth2.TokenSource
}

// Configure implements Authenticator
func (a *OAuth2Authenticator) Configure(cfg *config.SourceConfig) error {
	if cfg.Auth.ClientID == "" {
		return errors.New(errors.ErrorTypeConfig, "auth.client_id is required for oauth2 auth")
	}
	if cfg.Auth.ClientSecret == "" {
		return errors.New(errors.ErrorTypeConfig, "auth.client_secret is required for oauth2 auth")
	}
	if cfg.Auth.TokenURL == "" {
		return errors.New(errors.ErrorTypeConfig, "auth.token_url is required for oauth2 auth")
	}

	conf := &clientcredentials.Config{
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		TokenURL:     cfg.Auth.TokenURL,
		Scopes:       cfg.Auth.Scopes,
	}
	a.source = oauth2.ReuseTokenSource(nil, conf.TokenSource(context.Background()))
	return nil
}

// Apply implements Authenticator
func (a *OAuth2Authenticator) Apply(req *http.Request) error {
	tok, err := a.source.Token()
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeAuthentication, "failed to obtain oauth2 token")
	}
	tok.SetAuthHeader(req)
	return nil
}

// Transport implements Authenticator
func (a *OAuth2Authenticator) Transport(base http.RoundTripper) http.RoundTripper { return base }
