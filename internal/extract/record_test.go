package extract

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestRecord_Set(t *testing.T) {
	r := NewRecord()
	if err := r.Set("name", Scalar("x")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	err := r.Set("name", Scalar("y"))
	var dup *DuplicateFieldError
	if !errors.As(err, &dup) {
		t.Fatalf("error = %v, want *DuplicateFieldError", err)
	}
	if !errors.Is(err, ErrDuplicateField) {
		t.Error("errors.Is(err, ErrDuplicateField) = false")
	}
	if dup.Field != "name" {
		t.Errorf("Field = %q", dup.Field)
	}

	v, _ := r.Get("name")
	if s, _ := v.Scalar(); s != "x" {
		t.Errorf("value overwritten: %v", v)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRecord_ZeroValue(t *testing.T) {
	var r Record
	if err := r.Set("a", Absent()); err != nil {
		t.Fatalf("Set() on zero Record error = %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d", r.Len())
	}
}

func TestRecord_JSONOrder(t *testing.T) {
	r := NewRecord()
	r.Set("zeta", Scalar("z"))
	r.Set("alpha", Absent())
	r.Set("mid", List("a", "b"))

	data, err := r.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	want := `{"zeta":"z","alpha":null,"mid":["a","b"]}`
	if string(data) != want {
		t.Errorf("MarshalJSON() = %s, want %s", data, want)
	}

	back := NewRecord()
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	fields := back.Fields()
	if len(fields) != 3 || fields[0] != "zeta" || fields[1] != "alpha" || fields[2] != "mid" {
		t.Errorf("Fields() = %q, order not preserved", fields)
	}
	for _, f := range r.Fields() {
		a, _ := r.Get(f)
		b, _ := back.Get(f)
		if !a.Equal(b) {
			t.Errorf("field %q: %v != %v", f, a, b)
		}
	}
}

func TestRecord_UnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"array", `["a"]`},
		{"duplicate key", `{"a":"x","a":"y"}`},
		{"number value", `{"a":1}`},
		{"truncated", `{"a":"x"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecord()
			if err := r.UnmarshalJSON([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRecord_Map(t *testing.T) {
	r := NewRecord()
	r.Set("a", Scalar("x"))
	r.Set("b", Absent())
	r.Set("c", List("1", "2"))

	m := r.Map()
	if m["a"] != "x" {
		t.Errorf("a = %v", m["a"])
	}
	if v, ok := m["b"]; !ok || v != nil {
		t.Errorf("b = %v, %v", v, ok)
	}
	if items, ok := m["c"].([]string); !ok || len(items) != 2 {
		t.Errorf("c = %v", m["c"])
	}
}

func TestSaveLoadRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "record.json")

	r := NewRecord()
	r.Set("Employee's name", Scalar("John Doe"))
	r.Set("Witnesses", List("Ann", "Bob"))
	r.Set("Badge", Absent())

	if err := SaveRecord(r, path); err != nil {
		t.Fatalf("SaveRecord() error = %v", err)
	}

	got, err := LoadRecord(path)
	if err != nil {
		t.Fatalf("LoadRecord() error = %v", err)
	}
	if got.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", got.Len())
	}
	for i, f := range r.Fields() {
		if got.Fields()[i] != f {
			t.Errorf("field %d = %q, want %q", i, got.Fields()[i], f)
		}
		a, _ := r.Get(f)
		b, _ := got.Get(f)
		if !a.Equal(b) {
			t.Errorf("field %q: %v != %v", f, b, a)
		}
	}

	if _, err := LoadRecord(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRecord_YAMLOrder(t *testing.T) {
	r := NewRecord()
	r.Set("zeta", Scalar("1"))
	r.Set("alpha", List("a", "b"))
	r.Set("mid", Absent())

	out, err := yaml.Marshal(r)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}
	s := string(out)
	z, a, m := strings.Index(s, "zeta:"), strings.Index(s, "alpha:"), strings.Index(s, "mid:")
	if z != 0 || a < z || m < a {
		t.Errorf("keys out of order:\n%s", s)
	}
	if !strings.Contains(s, "mid: null") {
		t.Errorf("absent should encode as null:\n%s", s)
	}

	var back map[string]any
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatal(err)
	}
	if back["zeta"] != "1" {
		t.Errorf("zeta = %#v, want string \"1\"", back["zeta"])
	}
}
