package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Record is an ordered mapping from field name to Value.
// Iteration and JSON encoding follow insertion order.
type Record struct {
	fields []string
	values map[string]Value
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]Value)}
}

// Set inserts a value for a new field. Setting a field that already exists
// returns a *DuplicateFieldError and leaves the record unchanged.
func (r *Record) Set(field string, v Value) error {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[field]; ok {
		return &DuplicateFieldError{Field: field, Index: len(r.fields)}
	}
	r.fields = append(r.fields, field)
	r.values[field] = v
	return nil
}

// Get returns the value for field.
func (r *Record) Get(field string) (Value, bool) {
	v, ok := r.values[field]
	return v, ok
}

// Fields returns the field names in insertion order.
func (r *Record) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// Values returns the values in insertion order.
func (r *Record) Values() []Value {
	out := make([]Value, len(r.fields))
	for i, f := range r.fields {
		out[i] = r.values[f]
	}
	return out
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.fields)
}

// Map returns the record as a plain map of nil, string or []string values.
// Order is lost; use Fields for ordering.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.fields))
	for _, f := range r.fields {
		m[f] = r.values[f].Any()
	}
	return m
}

// MarshalJSON writes the record as an object with keys in insertion order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := r.values[f].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML writes the record as a mapping with keys in insertion order.
// Absent values encode as null.
func (r *Record) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range r.fields {
		var val yaml.Node
		if err := val.Encode(r.values[f].Any()); err != nil {
			return nil, fmt.Errorf("field %q: %w", f, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f},
			&val,
		)
	}
	return node, nil
}

// UnmarshalJSON reads an object, keeping the key order of the document.
// Duplicate keys are rejected.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decode record: expected object, got %v", tok)
	}

	out := NewRecord()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode record: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("decode record: expected key, got %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode record field %q: %w", key, err)
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("decode record field %q: %w", key, err)
		}
		if err := out.Set(key, v); err != nil {
			return fmt.Errorf("decode record: %w", err)
		}
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}

	*r = *out
	return nil
}

// Indent returns the record as indented JSON.
func (r *Record) Indent() ([]byte, error) {
	raw, err := r.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveRecord writes the record to path as indented JSON, creating parent
// directories as needed.
func SaveRecord(r *Record, path string) error {
	data, err := r.Indent()
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// LoadRecord reads a record previously written by SaveRecord.
func LoadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	r := NewRecord()
	if err := r.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return r, nil
}
