package realtime

import (
	"bytes"
	"encoding/json"
	"strings"
)

var jsonNull = []byte("null")

// Snapshot is the value of a node at the time it was read.
type Snapshot struct {
	path string
	raw  json.RawMessage
}

// NewSnapshot builds a snapshot from the raw JSON read at path.
func NewSnapshot(path string, raw json.RawMessage) Snapshot {
	return Snapshot{path: path, raw: raw}
}

// Path returns the absolute path that was read.
func (s Snapshot) Path() string {
	return s.path
}

// Key returns the last path segment, or "" at the root.
func (s Snapshot) Key() string {
	p := strings.Trim(s.path, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Exists reports whether the node held any data.
func (s Snapshot) Exists() bool {
	raw := bytes.TrimSpace(s.raw)
	return len(raw) > 0 && !bytes.Equal(raw, jsonNull)
}

// Raw returns the JSON as received, "null" when the node is absent.
func (s Snapshot) Raw() json.RawMessage {
	if !s.Exists() {
		return json.RawMessage(jsonNull)
	}
	return s.raw
}

// Decode unmarshals the snapshot into v. An absent node leaves v untouched.
func (s Snapshot) Decode(v any) error {
	if !s.Exists() {
		return nil
	}
	return json.Unmarshal(s.raw, v)
}

// Value decodes the snapshot into generic Go values.
func (s Snapshot) Value() (any, error) {
	var v any
	if err := s.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
