// Package auth provides request authentication strategies for HTTP polling
// sources. A strategy is resolved once at configure time and applied to
// every outgoing request for the lifetime of the client.
package auth

import (
	"net/http"
	"sync"

	"github.com/siphon-data/siphon/pkg/config"
	"github.com/siphon-data/siphon/pkg/errors"
)

// Authenticator signs outgoing requests. Implementations self-validate their
// required configuration fields in Configure. Transport lets strategies that
// operate below the request level (NTLM handshakes, token refresh) wrap the
// RoundTripper; most strategies return base unchanged.
type Authenticator interface {
	Configure(cfg *config.SourceConfig) error
	Apply(req *http.Request) error
	Transport(base http.RoundTripper) http.RoundTripper
}

// Factory creates an unconfigured Authenticator instance
type Factory func() Authenticator

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a custom authenticator factory available under name.
// Registration happens in init functions of strategy packages; duplicate
// names fail.
func Register(name string, factory Factory) error {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[name]; exists {
		return errors.Newf(errors.ErrorTypeConfig, "authenticator %q already registered", name)
	}
	registry[name] = factory
	return nil
}

// Resolve returns the configured Authenticator selected by cfg.Auth.Type.
// Resolution happens exactly once during source configuration, not per poll.
func Resolve(cfg *config.SourceConfig) (Authenticator, error) {
	var a Authenticator

	switch cfg.Auth.Type {
	case "", "none":
		a = &NoneAuthenticator{}
	case "basic":
		a = &BasicAuthenticator{}
	case "ntlm":
		a = &NTLMAuthenticator{}
	case "oauth2":
		a = &OAuth2Authenticator{}
	case "custom":
		registryMu.RLock()
		factory, ok := registry[cfg.Auth.Strategy]
		registryMu.RUnlock()
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeConfig, "custom authenticator %q is not registered", cfg.Auth.Strategy)
		}
		a = factory()
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown auth type %q", cfg.Auth.Type)
	}

	if err := a.Configure(cfg); err != nil {
		return nil, err
	}
	return a, nil
}

// NoneAuthenticator leaves requests unsigned
type NoneAuthenticator struct{}

// Configure implements Authenticator
func (a *NoneAuthenticator) Configure(*config.SourceConfig) error { return nil }

// Apply implements Authenticator
func (a *NoneAuthenticator) Apply(*http.Request) error { return nil }

// Transport implements Authenticator
func (a *NoneAuthenticator) Transport(base http.RoundTripper) http.RoundTripper { return base }
