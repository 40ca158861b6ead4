package runner

import (
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/siphon-data/siphon/pkg/connector/core"
	"github.com/siphon-data/siphon/pkg/errors"
)

// CheckpointStore persists partition offsets between runs. Offsets are keyed
// by partition URL and written wholesale after each successful poll; a
// missing file means no checkpoints yet.
type CheckpointStore struct {
	path string
	mu   sync.Mutex
}

// NewCheckpointStore creates a store backed by the given YAML file. An empty
// path disables persistence.
func NewCheckpointStore(path string) *CheckpointStore {
	return &CheckpointStore{path: path}
}

// Load returns the persisted offset for a partition, or nil when none exists
func (s *CheckpointStore) Load(p core.Partition) (core.Offset, error) {
	if s.path == "" {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return nil, err
	}
	saved, ok := all[p.URL]
	if !ok {
		return nil, nil
	}
	offset := core.NewOffset()
	offset.Replace(saved)
	return offset, nil
}

// Save persists the offset for a partition
func (s *CheckpointStore) Save(p core.Partition, o core.Offset) error {
	if s.path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return err
	}
	all[p.URL] = o.Clone()

	data, err := yaml.Marshal(all)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to marshal checkpoints")
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write checkpoint file")
	}
	return nil
}

func (s *CheckpointStore) read() (map[string]map[string]interface{}, error) {
	all := make(map[string]map[string]interface{})
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return all, nil
		}
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to read checkpoint file")
	}
	if err := yaml.Unmarshal(data, &all); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to parse checkpoint file")
	}
	return all, nil
}
