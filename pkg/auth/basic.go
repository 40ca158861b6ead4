package auth

import (
	"net/http"

	"github.com/siphon-data/siphon/pkg/config"
	"github.com/siphon-data/siphon/pkg/errors"
)

// BasicAuthenticator signs requests with HTTP basic credentials
type BasicAuthenticator struct {
	username string
	password string
}

// Configure implements Authenticator
func (a *BasicAuthenticator) Configure(cfg *config.SourceConfig) error {
	if cfg.Auth.Username == "" {
		return errors.New(errors.ErrorTypeConfig, "auth.username is required for basic auth")
	}
	if cfg.Auth.Password == "" {
		return errors.New(errors.ErrorTypeConfig, "auth.password is required for basic auth")
	}
	a.username = cfg.Auth.Username
	a.password = cfg.Auth.Password
	return nil
}

// Apply implements Authenticator
func (a *BasicAuthenticator) Apply(req *http.Request) error {
	req.SetBasicAuth(a.username, a.password)
	return nil
}

// Transport implements Authenticator
func (a *BasicAuthenticator) Transport(base http.RoundTripper) http.RoundTripper { return base }
