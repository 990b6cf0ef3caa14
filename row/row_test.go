package row

import (
	"reflect"
	"testing"
)

func TestFromValues(t *testing.T) {
	r, err := FromValues([]any{1, "two", 3.0}, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("FromValues failed: %v", err)
	}
	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3", r.Len())
	}
	for i, want := range []any{1, "two", 3.0} {
		if got := r.Value(i); got != want {
			t.Errorf("Value(%d) = %v, want %v", i, got, want)
		}
	}
	for name, want := range map[string]any{"a": 1, "b": "two", "c": 3.0} {
		got, ok := r.Get(name)
		if !ok {
			t.Fatalf("Get(%q) reported missing field", name)
		}
		if got != want {
			t.Errorf("Get(%q) = %v, want %v", name, got, want)
		}
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get returned ok for an unknown field")
	}
}

func TestFromValuesLengthMismatch(t *testing.T) {
	if _, err := FromValues([]any{1, 2}, []string{"a"}); err == nil {
		t.Error("expected error for 2 values and 1 field")
	}
}

func TestFromRecordRoundTrip(t *testing.T) {
	fields := []string{"id", "name", "score"}
	record := map[string]any{"id": 7, "name": "x", "score": 1.5}

	r, err := FromRecord(record, fields)
	if err != nil {
		t.Fatalf("FromRecord failed: %v", err)
	}
	if !reflect.DeepEqual(r.Values(), []any{7, "x", 1.5}) {
		t.Errorf("Values() = %v", r.Values())
	}
	if !reflect.DeepEqual(r.Record(), record) {
		t.Errorf("Record() = %v, want %v", r.Record(), record)
	}
}

func TestFromRecordMissingKey(t *testing.T) {
	r, err := FromRecord(map[string]any{"a": 1}, []string{"a", "b"})
	if err != nil {
		t.Fatalf("FromRecord failed: %v", err)
	}
	if got := r.Value(1); got != nil {
		t.Errorf("missing key should scan as nil, got %v", got)
	}
}

func TestImmutability(t *testing.T) {
	values := []any{1, 2}
	r, err := FromValues(values, []string{"a", "b"})
	if err != nil {
		t.Fatalf("FromValues failed: %v", err)
	}
	values[0] = 99
	if got := r.Value(0); got != 1 {
		t.Errorf("row shares caller slice: Value(0) = %v", got)
	}
	r.Values()[1] = 99
	if got := r.Value(1); got != 2 {
		t.Errorf("Values() leaks internal slice: Value(1) = %v", got)
	}
}

func TestFields(t *testing.T) {
	cols := []Column{{Name: "a", TypeName: "INT"}, {Name: "b", TypeName: "TEXT", Nullable: true}}
	if got := Fields(cols); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Fields() = %v", got)
	}
}
