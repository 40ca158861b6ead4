package core

import (
	"context"
	"net/http"

	"github.com/siphon-data/siphon/pkg/config"
)

// PollableSource is the contract between the host framework and a polling
// source connector. The framework enumerates partitions once, obtains an
// initial offset per partition, and thereafter drives Poll on its own
// schedule, persisting the offset after each successful call.
//
// Poll is synchronous; the framework may run polls for distinct partitions
// concurrently but must keep at most one in-flight poll per partition. The
// context is the advisory stop signal, observed between polls.
type PollableSource interface {
	// Configure prepares the source. Called exactly once, before any other
	// method; configuration failures prevent startup.
	Configure(cfg *config.SourceConfig) error

	// Partitions returns the logical polling targets this source exposes.
	// Repeated calls under unchanged configuration yield equal results.
	Partitions() ([]Partition, error)

	// InitialOffset returns the starting offset for a partition, used when
	// the framework has no persisted offset for it
	InitialOffset(p Partition) (Offset, error)

	// Poll executes one poll cycle and returns the assembled records. The
	// offset is mutated in place when the cycle produces new offset data;
	// on failure it is left untouched so the next poll retries from the
	// same position.
	Poll(ctx context.Context, topic string, p Partition, o Offset, itemsToPoll int) ([]*SourceRecord, error)

	// Close releases held resources. Idempotent.
	Close() error
}

// DataExtractor converts a validated response body into an ordered sequence
// of opaque items. This is the sole required extension point for concrete
// connectors.
type DataExtractor interface {
	Extract(p Partition, o Offset, resp *http.Response) ([]interface{}, error)
}

// ExtractorFunc adapts a function to the DataExtractor interface
type ExtractorFunc func(p Partition, o Offset, resp *http.Response) ([]interface{}, error)

// Extract implements DataExtractor
func (f ExtractorFunc) Extract(p Partition, o Offset, resp *http.Response) ([]interface{}, error) {
	return f(p, o, resp)
}

// RequestBuilder produces the request descriptor for one poll. Returning
// skip=true terminates the poll early with zero records and no offset
// change; it is a normal outcome, not an error.
type RequestBuilder interface {
	BuildRequest(p Partition, o Offset, itemsToPoll int) (spec *RequestSpec, skip bool, err error)
}

// OffsetUpdater computes the next offset after a successful poll by mutating
// the given offset in place. Updates are full replacement of the keys the
// updater owns. The default updater leaves the offset unchanged.
type OffsetUpdater interface {
	UpdateOffset(topic string, p Partition, o Offset, resp *http.Response, records []*SourceRecord) error
}
