package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siphon-data/siphon/pkg/errors"
)

func validConfig() *SourceConfig {
	cfg := NewSourceConfig("test")
	cfg.ServerURI = "http://api.example.com"
	cfg.Endpoint = "/items"
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	assert.Equal(t, "GET", cfg.Method)
	assert.Equal(t, "none", cfg.Auth.Type)
	assert.Equal(t, "json", cfg.Extractor.Type)
	assert.Equal(t, 30*time.Second, cfg.Poll.Interval.Std())
	assert.Equal(t, 100, cfg.Poll.Items)
	assert.Equal(t, 30*time.Second, cfg.HTTP.RequestTimeout.Std())
}

func TestTopicDerivedFromEndpoint(t *testing.T) {
	cfg := &SourceConfig{ServerURI: "http://api.example.com", Endpoint: "/v1/items"}
	cfg.ApplyDefaults()

	assert.Equal(t, "v1.items", cfg.Topic)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SourceConfig)
		wantErr bool
	}{
		{"valid", func(*SourceConfig) {}, false},
		{"missing server_uri", func(c *SourceConfig) { c.ServerURI = "" }, true},
		{"missing endpoint", func(c *SourceConfig) { c.Endpoint = "" }, true},
		{"unknown auth type", func(c *SourceConfig) { c.Auth.Type = "kerberos" }, true},
		{"custom without strategy", func(c *SourceConfig) { c.Auth.Type = "custom" }, true},
		{"custom with strategy", func(c *SourceConfig) {
			c.Auth.Type = "custom"
			c.Auth.Strategy = "my-auth"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsConfig(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("SIPHON_TEST_PASSWORD", "s3cret")

	content := `
name: jira
server_uri: http://api.example.com
endpoint: /items
auth:
  type: basic
  username: bot
  password: ${SIPHON_TEST_PASSWORD}
poll:
  interval: 5s
`
	path := filepath.Join(t.TempDir(), "siphon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "jira", cfg.Name)
	assert.Equal(t, "http://api.example.com", cfg.ServerURI)
	assert.Equal(t, "basic", cfg.Auth.Type)
	assert.Equal(t, "s3cret", cfg.Auth.Password)
	assert.Equal(t, 5*time.Second, cfg.Poll.Interval.Std())
	// Defaults still applied
	assert.Equal(t, "GET", cfg.Method)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "siphon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("endpoint: /items\n"), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := validConfig()
	cfg.Topic = "items"
	cfg.Poll.Interval = Duration(5 * time.Second)

	path := filepath.Join(t.TempDir(), "siphon.yaml")
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.ServerURI, loaded.ServerURI)
	assert.Equal(t, cfg.Endpoint, loaded.Endpoint)
	assert.Equal(t, "items", loaded.Topic)
	assert.Equal(t, 5*time.Second, loaded.Poll.Interval.Std())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
