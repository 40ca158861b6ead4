package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPartitionCopiesMeta(t *testing.T) {
	meta := map[string]string{"region": "eu"}
	p := NewPartition("http://api.example.com/items", "GET", meta)

	meta["region"] = "us"
	assert.Equal(t, "eu", p.Meta["region"])
}

func TestPartitionEqual(t *testing.T) {
	a := NewPartition("http://api.example.com/items", "GET", map[string]string{"k": "v"})
	b := NewPartition("http://api.example.com/items", "GET", map[string]string{"k": "v"})
	c := NewPartition("http://api.example.com/items", "POST", nil)
	d := NewPartition("http://api.example.com/other", "GET", map[string]string{"k": "v"})

	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
}

func TestOffsetClone(t *testing.T) {
	o := Offset{"cursor": "abc"}
	c := o.Clone()

	c["cursor"] = "def"
	assert.Equal(t, "abc", o["cursor"])
}

func TestOffsetReplace(t *testing.T) {
	o := Offset{"cursor": "abc", "page": 3}
	o.Replace(map[string]interface{}{"cursor": "def"})

	assert.Equal(t, Offset{"cursor": "def"}, o)
}

func TestNewOffsetEmpty(t *testing.T) {
	assert.Empty(t, NewOffset())
	assert.Equal(t, NewOffset(), NewOffset())
}

func TestRecordHeader(t *testing.T) {
	r := &SourceRecord{Headers: map[string]string{HeaderHTTPSource: "http://api.example.com/items"}}
	assert.Equal(t, "http://api.example.com/items", r.Header(HeaderHTTPSource))
	assert.Equal(t, "", r.Header("missing"))

	empty := &SourceRecord{}
	assert.Equal(t, "", empty.Header(HeaderHTTPSource))
}
