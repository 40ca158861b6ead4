package http

import (
	"net/http"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/siphon-data/siphon/pkg/config"
	"github.com/siphon-data/siphon/pkg/connector/core"
	"github.com/siphon-data/siphon/pkg/errors"
)

// ExtractorFactory creates a DataExtractor from source configuration
type ExtractorFactory func(cfg *config.SourceConfig) (core.DataExtractor, error)

var (
	extractorMu       sync.RWMutex
	extractorRegistry = map[string]ExtractorFactory{
		"json": newJSONExtractor,
	}
)

// RegisterExtractor makes an extractor factory available under name
func RegisterExtractor(name string, factory ExtractorFactory) error {
	extractorMu.Lock()
	defer extractorMu.Unlock()

	if _, exists := extractorRegistry[name]; exists {
		return errors.Newf(errors.ErrorTypeConfig, "extractor %q already registered", name)
	}
	extractorRegistry[name] = factory
	return nil
}

// ResolveExtractor returns the extractor selected by cfg.Extractor.Type
func ResolveExtractor(cfg *config.SourceConfig) (core.DataExtractor, error) {
	extractorMu.RLock()
	factory, ok := extractorRegistry[cfg.Extractor.Type]
	extractorMu.RUnlock()
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeConfig, "extractor %q is not registered", cfg.Extractor.Type)
	}
	return factory(cfg)
}

// JSONExtractor decodes the response body as JSON and yields the elements of
// the array found at Path. An empty path selects the body itself; a single
// object is treated as one item.
type JSONExtractor struct {
	// Path is a dot path to the array of items, e.g. "data.results"
	Path string
}

func newJSONExtractor(cfg *config.SourceConfig) (core.DataExtractor, error) {
	return &JSONExtractor{Path: cfg.Extractor.Path}, nil
}

// Extract implements core.DataExtractor
func (e *JSONExtractor) Extract(_ core.Partition, _ core.Offset, resp *http.Response) ([]interface{}, error) {
	var body interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode json body")
	}

	node := body
	if e.Path != "" {
		for _, key := range strings.Split(e.Path, ".") {
			obj, ok := node.(map[string]interface{})
			if !ok {
				return nil, errors.Newf(errors.ErrorTypeData, "path %q does not resolve to an object", e.Path)
			}
			node, ok = obj[key]
			if !ok {
				return nil, errors.Newf(errors.ErrorTypeData, "path element %q not found", key)
			}
		}
	}

	switch v := node.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		return v, nil
	default:
		// A single object counts as one item
		return []interface{}{v}, nil
	}
}
