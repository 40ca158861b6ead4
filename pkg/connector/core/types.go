package core

import (
	"time"
)

// HeaderHTTPSource is the provenance header attached to every record. Its
// value is the URL of the partition the record was polled from. The key name
// and semantics are part of the compatibility contract.
const HeaderHTTPSource = "http.source"

// Partition identifies one logical polling target. A partition is created
// once by the source and must not be mutated afterwards; one partition maps
// to many offsets over time.
type Partition struct {
	// URL is the fully built target URL
	URL string
	// Method is the HTTP method used for polls
	Method string
	// Meta carries optional routing metadata
	Meta map[string]string
}

// NewPartition creates a partition, copying meta so the caller cannot alias
// the stored map
func NewPartition(url, method string, meta map[string]string) Partition {
	p := Partition{URL: url, Method: method}
	if len(meta) > 0 {
		p.Meta = make(map[string]string, len(meta))
		for k, v := range meta {
			p.Meta[k] = v
		}
	}
	return p
}

// Equal reports whether two partitions identify the same polling target
func (p Partition) Equal(other Partition) bool {
	if p.URL != other.URL || p.Method != other.Method {
		return false
	}
	if len(p.Meta) != len(other.Meta) {
		return false
	}
	for k, v := range p.Meta {
		if other.Meta[k] != v {
			return false
		}
	}
	return true
}

// Offset is the progress marker for one partition. It is replaced wholesale
// after each poll that produces new offset data; the zero-length offset is
// the initial position. The host framework persists it, the core never does.
type Offset map[string]interface{}

// NewOffset returns an empty offset
func NewOffset() Offset {
	return Offset{}
}

// Clone returns a shallow copy of the offset
func (o Offset) Clone() Offset {
	c := make(Offset, len(o))
	for k, v := range o {
		c[k] = v
	}
	return c
}

// Replace drops all existing keys and copies in the given ones. Offset
// updates are full replacement, not field-level merge.
func (o Offset) Replace(next map[string]interface{}) {
	for k := range o {
		delete(o, k)
	}
	for k, v := range next {
		o[k] = v
	}
}

// RequestSpec is the ephemeral request descriptor built per poll. It is
// never persisted.
type RequestSpec struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// SourceRecord is the delivery unit handed to the host framework. Partition
// and Offset reflect the state before the poll that produced the record; the
// updated offset travels separately.
type SourceRecord struct {
	// ID is a unique identifier for the record
	ID string
	// Topic is the delivery topic
	Topic string
	// Partition identifies the polling target the record came from
	Partition Partition
	// Offset is a snapshot of the pre-poll offset
	Offset Offset
	// Key is the record key; HTTP sources produce keyless records
	Key interface{}
	// Value is the opaque extracted item
	Value interface{}
	// Headers carries record metadata, including the provenance header
	Headers map[string]string
	// Timestamp is when the record was assembled
	Timestamp time.Time
}

// Header returns the header value for key, or the empty string
func (r *SourceRecord) Header(key string) string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers[key]
}
