package runner

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siphon-data/siphon/pkg/config"
	"github.com/siphon-data/siphon/pkg/connector/core"
	httpsource "github.com/siphon-data/siphon/pkg/connector/sources/http"
	"github.com/siphon-data/siphon/pkg/errors"
)

func TestCheckpointRoundTrip(t *testing.T) {
	store := NewCheckpointStore(filepath.Join(t.TempDir(), "checkpoints.yaml"))
	p := core.NewPartition("http://api.example.com/items", http.MethodGet, nil)

	// No checkpoint yet
	offset, err := store.Load(p)
	require.NoError(t, err)
	assert.Nil(t, offset)

	saved := core.Offset{"cursor": "abc", "page": 3}
	require.NoError(t, store.Save(p, saved))

	loaded, err := store.Load(p)
	require.NoError(t, err)
	assert.Equal(t, "abc", loaded["cursor"])
	assert.Equal(t, 3, loaded["page"])
}

func TestCheckpointDisabled(t *testing.T) {
	store := NewCheckpointStore("")
	p := core.NewPartition("http://api.example.com/items", http.MethodGet, nil)

	require.NoError(t, store.Save(p, core.Offset{"cursor": "abc"}))
	offset, err := store.Load(p)
	require.NoError(t, err)
	assert.Nil(t, offset)
}

func TestJSONLinesSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONLinesSink(&buf)

	records := []*core.SourceRecord{
		{ID: "1", Topic: "items", Value: "a", Headers: map[string]string{core.HeaderHTTPSource: "http://x/items"}},
		{ID: "2", Topic: "items", Value: "b", Headers: map[string]string{core.HeaderHTTPSource: "http://x/items"}},
	}
	require.NoError(t, sink.Deliver(records))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "a", first["value"])
	assert.Equal(t, "items", first["topic"])
}

func TestRunnerOnce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`["a","b"]`))
	}))
	defer server.Close()

	cfg := config.NewSourceConfig("runner-test")
	cfg.ServerURI = server.URL
	cfg.Endpoint = "/items"
	cfg.ApplyDefaults()

	source := httpsource.NewSource()
	require.NoError(t, source.Configure(cfg))
	defer func() { _ = source.Close() }()

	var buf bytes.Buffer
	sink := NewJSONLinesSink(&buf)
	store := NewCheckpointStore(filepath.Join(t.TempDir(), "checkpoints.yaml"))

	r := New(cfg, source, sink, store)
	r.Once = true

	require.NoError(t, r.Run(context.Background()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)

	// Offset checkpoint was written even though the offset stayed empty
	partitions, err := source.Partitions()
	require.NoError(t, err)
	offset, err := store.Load(partitions[0])
	require.NoError(t, err)
	assert.NotNil(t, offset)
	assert.Empty(t, offset)
}

func TestRunnerOncePollFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := config.NewSourceConfig("runner-test")
	cfg.ServerURI = server.URL
	cfg.Endpoint = "/items"
	cfg.ApplyDefaults()

	source := httpsource.NewSource()
	require.NoError(t, source.Configure(cfg))
	defer func() { _ = source.Close() }()

	r := New(cfg, source, NewJSONLinesSink(&bytes.Buffer{}), NewCheckpointStore(""))
	r.Once = true

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, errors.IsAPI(err))
	case <-time.After(5 * time.Second):
		t.Fatal("Run with Once=true did not return against a failing endpoint")
	}
}

func TestRunnerStopsOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	cfg := config.NewSourceConfig("runner-test")
	cfg.ServerURI = server.URL
	cfg.Endpoint = "/items"
	cfg.ApplyDefaults()

	source := httpsource.NewSource()
	require.NoError(t, source.Configure(cfg))
	defer func() { _ = source.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(cfg, source, NewJSONLinesSink(&bytes.Buffer{}), NewCheckpointStore(""))
	require.NoError(t, r.Run(ctx))
}
