package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	// KindAbsent means the model found nothing for the field.
	KindAbsent Kind = iota
	// KindScalar is a single string value.
	KindScalar
	// KindList is an ordered list of strings (plural fields).
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ListSeparator joins list items when a value must be shown as one string.
const ListSeparator = "; "

// Value is the normalized result for one field.
// The zero value is Absent.
type Value struct {
	kind   Kind
	scalar string
	items  []string
}

// Absent returns the "not found" value.
func Absent() Value {
	return Value{kind: KindAbsent}
}

// Scalar returns a single-string value.
func Scalar(s string) Value {
	return Value{kind: KindScalar, scalar: s}
}

// List returns a list value. The items slice is copied.
func List(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{kind: KindList, items: cp}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether v is the absent value.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Scalar returns the scalar string and true if v is a scalar.
func (v Value) Scalar() (string, bool) {
	return v.scalar, v.kind == KindScalar
}

// Items returns a copy of the list items and true if v is a list.
func (v Value) Items() ([]string, bool) {
	if v.kind != KindList {
		return nil, false
	}
	cp := make([]string, len(v.items))
	copy(cp, v.items)
	return cp, true
}

// Text renders v as a single display string: absent is empty, lists are
// joined with ListSeparator.
func (v Value) Text() string {
	switch v.kind {
	case KindScalar:
		return v.scalar
	case KindList:
		return strings.Join(v.items, ListSeparator)
	default:
		return ""
	}
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindScalar:
		return v.scalar == o.scalar
	case KindList:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if v.items[i] != o.items[i] {
				return false
			}
		}
	}
	return true
}

// Any returns the value in its natural Go form: nil, string or []string.
func (v Value) Any() any {
	switch v.kind {
	case KindScalar:
		return v.scalar
	case KindList:
		items, _ := v.Items()
		return items
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindScalar:
		return fmt.Sprintf("Scalar(%q)", v.scalar)
	case KindList:
		return fmt.Sprintf("List(%q)", v.items)
	default:
		return "Absent"
	}
}

// MarshalJSON encodes absent as null, scalars as strings and lists as arrays.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindScalar:
		return json.Marshal(v.scalar)
	case KindList:
		if v.items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.items)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = Absent()
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("decode list value: %w", err)
		}
		*v = List(items...)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode scalar value: %w", err)
	}
	*v = Scalar(s)
	return nil
}
