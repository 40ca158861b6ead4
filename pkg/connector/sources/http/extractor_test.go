package http

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siphon-data/siphon/pkg/config"
	"github.com/siphon-data/siphon/pkg/connector/core"
	"github.com/siphon-data/siphon/pkg/errors"
)

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func extract(t *testing.T, path, body string) ([]interface{}, error) {
	t.Helper()
	e := &JSONExtractor{Path: path}
	return e.Extract(core.Partition{}, core.NewOffset(), jsonResponse(body))
}

func TestJSONExtractor(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		want []interface{}
	}{
		{
			name: "top-level array",
			body: `["a","b"]`,
			want: []interface{}{"a", "b"},
		},
		{
			name: "empty array",
			body: `[]`,
			want: []interface{}{},
		},
		{
			name: "single object is one item",
			body: `{"id":1}`,
			want: []interface{}{map[string]interface{}{"id": float64(1)}},
		},
		{
			name: "nested path",
			path: "data.results",
			body: `{"data":{"results":["x","y"]}}`,
			want: []interface{}{"x", "y"},
		},
		{
			name: "null body",
			body: `null`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extract(t, tt.path, tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONExtractorErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
	}{
		{"invalid json", "", `not json`},
		{"path element missing", "data.results", `{"data":{}}`},
		{"path through non-object", "data.results", `{"data":[1,2]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extract(t, tt.path, tt.body)
			assert.Error(t, err)
		})
	}
}

func TestResolveExtractor(t *testing.T) {
	cfg := config.NewSourceConfig("test")
	cfg.Extractor.Type = "json"
	cfg.Extractor.Path = "data"

	e, err := ResolveExtractor(cfg)
	require.NoError(t, err)

	jsonExtractor, ok := e.(*JSONExtractor)
	require.True(t, ok)
	assert.Equal(t, "data", jsonExtractor.Path)
}

func TestResolveExtractorUnknown(t *testing.T) {
	cfg := config.NewSourceConfig("test")
	cfg.Extractor.Type = "xml"

	_, err := ResolveExtractor(cfg)
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}

func TestRegisterExtractorDuplicate(t *testing.T) {
	err := RegisterExtractor("json", func(*config.SourceConfig) (core.DataExtractor, error) {
		return &JSONExtractor{}, nil
	})
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}
