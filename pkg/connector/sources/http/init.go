package http

import (
	"github.com/siphon-data/siphon/pkg/config"
	"github.com/siphon-data/siphon/pkg/connector/core"
	"github.com/siphon-data/siphon/pkg/connector/registry"
)

func init() {
	// Register the generic HTTP source connector
	_ = registry.RegisterSource("http", func(cfg *config.SourceConfig) (core.PollableSource, error) {
		s := NewSource()
		if err := s.Configure(cfg); err != nil {
			return nil, err
		}
		return s, nil
	})
}
