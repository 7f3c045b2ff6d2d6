// Package docstore is the document database popreel is built on: named collections
// of JSON-like documents keyed by opaque ids, with field transforms, atomic batches,
// ordered queries and live subscriptions
package docstore

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Fields is the body of a document
// Values are nil, bool, int64, float64, string, []string, []any or Fields
type Fields = map[string]any

// Ref addresses one document
type Ref struct {
	Collection string
	ID         string
}

// Path renders the ref as collection/id for logs and errors
func (r Ref) Path() string { return r.Collection + "/" + r.ID }

// NewID mints a document id
var NewID = func() string { return uuid.NewString() }

// NewRef returns a ref with a fresh id in collection
func NewRef(collection string) Ref { return Ref{Collection: collection, ID: NewID()} }

// Doc is a snapshot of a stored document
type Doc struct {
	Ref        Ref
	Fields     Fields
	Version    int64
	CreateTime time.Time
	UpdateTime time.Time
}

// ID is shorthand for d.Ref.ID
func (d Doc) ID() string { return d.Ref.ID }

// Get reads a dotted path
func (d Doc) Get(path string) (any, bool) {
	if path == IDPath {
		return d.Ref.ID, true
	}
	return getPath(d.Fields, path)
}

// Str reads a string field, "" when absent or not a string
func (d Doc) Str(path string) string {
	v, _ := d.Get(path)
	s, _ := v.(string)
	return s
}

// Int reads a numeric field as int64, 0 when absent
func (d Doc) Int(path string) int64 {
	v, _ := d.Get(path)
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

// Float reads a numeric field as float64, 0 when absent
func (d Doc) Float(path string) float64 {
	v, _ := d.Get(path)
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

// Bool reads a boolean field
func (d Doc) Bool(path string) bool {
	v, _ := d.Get(path)
	b, _ := v.(bool)
	return b
}

// Strings reads an array of strings; non-string elements are skipped
func (d Doc) Strings(path string) []string {
	v, _ := d.Get(path)
	switch a := v.(type) {
	case []string:
		return append([]string(nil), a...)
	case []any:
		out := make([]string, 0, len(a))
		for _, e := range a {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Contains reports whether the array at path holds s
func (d Doc) Contains(path, s string) bool {
	for _, v := range d.Strings(path) {
		if v == s {
			return true
		}
	}
	return false
}

// DataTo decodes the fields into dst through their json form
// the document id fills an "id" key the fields leave empty
func (d Doc) DataTo(dst any) error {
	m := make(Fields, len(d.Fields)+1)
	for k, v := range d.Fields {
		m[k] = v
	}
	if id, _ := m["id"].(string); id == "" {
		m["id"] = d.Ref.ID
	}
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// Decode is DataTo for a typed result
func Decode[T any](d Doc) (T, error) {
	var v T
	err := d.DataTo(&v)
	return v, err
}

// FieldsOf converts a json-tagged struct into Fields
func FieldsOf(v any) (Fields, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return DecodeJSON(b)
}

// DecodeJSON parses a json object into normalized Fields
func DecodeJSON(b []byte) (Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		return Fields{}, nil
	}
	return Normalize(m).(Fields), nil
}
