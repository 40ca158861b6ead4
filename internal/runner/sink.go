package runner

import (
	"io"
	"sync"

	"github.com/goccy/go-json"

	"github.com/siphon-data/siphon/pkg/connector/core"
	"github.com/siphon-data/siphon/pkg/errors"
)

// Sink delivers assembled records. The runner is a minimal stand-in for a
// full ingestion framework, so the built-in sink writes JSON lines.
type Sink interface {
	Deliver(records []*core.SourceRecord) error
	Close() error
}

// deliveredRecord is the wire shape of one delivered record
type deliveredRecord struct {
	ID        string                 `json:"id"`
	Topic     string                 `json:"topic"`
	Value     interface{}            `json:"value"`
	Headers   map[string]string      `json:"headers"`
	Offset    map[string]interface{} `json:"offset,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// JSONLinesSink writes one JSON object per record
type JSONLinesSink struct {
	mu  sync.Mutex
	w   io.Writer
	c   io.Closer
	enc *json.Encoder
}

// NewJSONLinesSink creates a sink writing to w. If w is also an io.Closer it
// is closed with the sink.
func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	s := &JSONLinesSink{w: w, enc: json.NewEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

// Deliver implements Sink
func (s *JSONLinesSink) Deliver(records []*core.SourceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		out := deliveredRecord{
			ID:        r.ID,
			Topic:     r.Topic,
			Value:     r.Value,
			Headers:   r.Headers,
			Offset:    r.Offset,
			Timestamp: r.Timestamp.UnixMilli(),
		}
		if err := s.enc.Encode(out); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "failed to encode record")
		}
	}
	return nil
}

// Close implements Sink
func (s *JSONLinesSink) Close() error {
	if s.c != nil {
		return s.c.Close()
	}
	return nil
}
