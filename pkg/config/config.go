// Package config provides the configuration system for Siphon sources.
// A single SourceConfig structure describes one HTTP polling source: the
// target endpoint, authentication, extraction strategy, poll cadence and
// transport tuning.
package config

import (
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/siphon-data/siphon/pkg/errors"
)

// Duration is a time.Duration that reads YAML values like "30s"
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Newf(errors.ErrorTypeConfig, "invalid duration %q", raw)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

// SourceConfig is the configuration for one HTTP polling source
type SourceConfig struct {
	// Name identifies the source instance
	Name string `yaml:"name" json:"name"`

	// ServerURI is the base address used for partition URL construction
	ServerURI string `yaml:"server_uri" json:"server_uri"`
	// Endpoint is the path appended to ServerURI
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	// Method is the HTTP method used for polls. Default: GET
	Method string `yaml:"method" json:"method"`
	// Topic is the delivery topic. Default: derived from the endpoint path
	Topic string `yaml:"topic" json:"topic"`

	// Auth selects and configures the request authentication strategy
	Auth AuthConfig `yaml:"auth" json:"auth"`

	// Extractor selects the response-to-items extraction strategy
	Extractor ExtractorConfig `yaml:"extractor" json:"extractor"`

	// Poll controls scheduling of the poll loop
	Poll PollConfig `yaml:"poll" json:"poll"`

	// HTTP tunes the shared transport client
	HTTP HTTPConfig `yaml:"http" json:"http"`
}

// AuthConfig configures the Authenticator strategy. Each strategy validates
// its own required fields at configure time.
type AuthConfig struct {
	// Type is one of: none, basic, ntlm, oauth2, custom. Default: none
	Type string `yaml:"type" json:"type"`

	// Username and Password for basic and ntlm
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	// Domain for ntlm
	Domain string `yaml:"domain" json:"domain"`

	// OAuth2 client-credentials settings
	ClientID     string   `yaml:"client_id" json:"client_id"`
	ClientSecret string   `yaml:"client_secret" json:"client_secret"`
	TokenURL     string   `yaml:"token_url" json:"token_url"`
	Scopes       []string `yaml:"scopes" json:"scopes"`

	// Strategy names a registered custom authenticator factory
	Strategy string `yaml:"strategy" json:"strategy"`
}

// ExtractorConfig selects the DataExtractor implementation
type ExtractorConfig struct {
	// Type names the extractor. Default: json
	Type string `yaml:"type" json:"type"`
	// Path is a dot path to the array of items inside the response body.
	// Empty means the body itself is the array (or a single item).
	Path string `yaml:"path" json:"path"`
}

// PollConfig controls the poll loop cadence
type PollConfig struct {
	// Interval between poll invocations. Default: 30s
	Interval Duration `yaml:"interval" json:"interval"`
	// Items is the poll size hint passed to the request builder. Default: 100
	Items int `yaml:"items" json:"items"`
	// Timeout bounds one poll invocation. Default: 30s
	Timeout Duration `yaml:"timeout" json:"timeout"`
}

// HTTPConfig tunes the shared HTTP client
type HTTPConfig struct {
	MaxIdleConns        int      `yaml:"max_idle_conns" json:"max_idle_conns"`
	MaxIdleConnsPerHost int      `yaml:"max_idle_conns_per_host" json:"max_idle_conns_per_host"`
	MaxConnsPerHost     int      `yaml:"max_conns_per_host" json:"max_conns_per_host"`
	IdleConnTimeout     Duration `yaml:"idle_conn_timeout" json:"idle_conn_timeout"`
	RequestTimeout      Duration `yaml:"request_timeout" json:"request_timeout"`
	EnableHTTP2         bool     `yaml:"enable_http2" json:"enable_http2"`
	InsecureSkipVerify  bool     `yaml:"insecure_skip_verify" json:"insecure_skip_verify"`
	// RateLimit caps outgoing requests per second. 0 disables limiting
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit"`
	RateBurst int     `yaml:"rate_burst" json:"rate_burst"`
	// CircuitBreaker enables the failure-threshold breaker
	CircuitBreaker   bool `yaml:"circuit_breaker" json:"circuit_breaker"`
	FailureThreshold int  `yaml:"failure_threshold" json:"failure_threshold"`
}

// NewSourceConfig returns a SourceConfig with defaults applied
func NewSourceConfig(name string) *SourceConfig {
	cfg := &SourceConfig{Name: name}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields with their default values
func (c *SourceConfig) ApplyDefaults() {
	if c.Method == "" {
		c.Method = "GET"
	}
	if c.Auth.Type == "" {
		c.Auth.Type = "none"
	}
	if c.Extractor.Type == "" {
		c.Extractor.Type = "json"
	}
	if c.Poll.Interval <= 0 {
		c.Poll.Interval = Duration(30 * time.Second)
	}
	if c.Poll.Items <= 0 {
		c.Poll.Items = 100
	}
	if c.Poll.Timeout <= 0 {
		c.Poll.Timeout = Duration(30 * time.Second)
	}
	if c.HTTP.MaxIdleConns <= 0 {
		c.HTTP.MaxIdleConns = 100
	}
	if c.HTTP.MaxIdleConnsPerHost <= 0 {
		c.HTTP.MaxIdleConnsPerHost = 10
	}
	if c.HTTP.MaxConnsPerHost <= 0 {
		c.HTTP.MaxConnsPerHost = 100
	}
	if c.HTTP.IdleConnTimeout <= 0 {
		c.HTTP.IdleConnTimeout = Duration(90 * time.Second)
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = Duration(30 * time.Second)
	}
	if c.HTTP.RateBurst <= 0 {
		c.HTTP.RateBurst = 10
	}
	if c.HTTP.FailureThreshold <= 0 {
		c.HTTP.FailureThreshold = 5
	}
	if c.Topic == "" && c.Endpoint != "" {
		c.Topic = strings.Trim(strings.ReplaceAll(c.Endpoint, "/", "."), ".")
	}
}

// Validate checks required fields. Invalid configuration prevents startup.
func (c *SourceConfig) Validate() error {
	if c.ServerURI == "" {
		return errors.New(errors.ErrorTypeConfig, "server_uri is required")
	}
	if c.Endpoint == "" {
		return errors.New(errors.ErrorTypeConfig, "endpoint is required")
	}
	switch c.Auth.Type {
	case "", "none", "basic", "ntlm", "oauth2", "custom":
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown auth type %q", c.Auth.Type)
	}
	if c.Auth.Type == "custom" && c.Auth.Strategy == "" {
		return errors.New(errors.ErrorTypeConfig, "auth.strategy is required for custom auth")
	}
	return nil
}
