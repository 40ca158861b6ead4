package auth

import (
	"net/http"

	"github.com/Azure/go-ntlmssp"

	"github.com/siphon-data/siphon/pkg/config"
	"github.com/siphon-data/siphon/pkg/errors"
)

// NTLMAuthenticator negotiates NTLM on the transport. Credentials travel as
// basic auth on the request; the ntlmssp negotiator intercepts the 401
// challenge and completes the handshake.
type NTLMAuthenticator struct {
	username string
	password string
}

// Configure implements Authenticator
func (a *NTLMAuthenticator) Configure(cfg *config.SourceConfig) error {
	if cfg.Auth.Username == "" {
		return errors.New(errors.ErrorTypeConfig, "auth.username is required for ntlm auth")
	}
	if cfg.Auth.Password == "" {
		return errors.New(errors.ErrorTypeConfig, "auth.password is required for ntlm auth")
	}
	a.username = cfg.Auth.Username
	if cfg.Auth.Domain != "" {
		a.username = cfg.Auth.Domain + `\` + cfg.Auth.Username
	}
	a.password = cfg.Auth.Password
	return nil
}

// Apply implements Authenticator
func (a *NTLMAuthenticator) Apply(req *http.Request) error {
	req.SetBasicAuth(a.username, a.password)
	return nil
}

// Transport implements Authenticator
func (a *NTLMAuthenticator) Transport(base http.RoundTripper) http.RoundTripper {
	return ntlmssp.Negotiator{RoundTripper: base}
}
