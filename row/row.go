// Package row defines the value model shared by stream producers and
// consumers: an immutable Row and the Column metadata that names its fields.
package row

import "fmt"

// Column describes one field of a result set.
type Column struct {
	Name     string
	TypeName string
	Nullable bool
}

// Fields returns the names of the given columns, in order.
func Fields(columns []Column) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}

// Row is one result row: an ordered sequence of values plus a
// positional-to-named mapping. A Row is immutable once constructed.
type Row struct {
	values []any
	fields []string
	index  map[string]int
}

// New builds a Row directly from values and the column set that names them.
func New(values []any, columns []Column) (Row, error) {
	return FromValues(values, Fields(columns))
}

// FromValues builds a Row from a plain value slice and known field names.
// The i-th value is addressable by position i and by fields[i].
func FromValues(values []any, fields []string) (Row, error) {
	if len(values) != len(fields) {
		return Row{}, fmt.Errorf("row: %d values for %d fields", len(values), len(fields))
	}
	r := Row{
		values: make([]any, len(values)),
		fields: make([]string, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	copy(r.values, values)
	copy(r.fields, fields)
	for i, name := range fields {
		r.index[name] = i
	}
	return r, nil
}

// FromRecord builds a Row from a keyed record. Field names supply the value
// order; keys missing from the record become nil values.
func FromRecord(record map[string]any, fields []string) (Row, error) {
	values := make([]any, len(fields))
	for i, name := range fields {
		values[i] = record[name]
	}
	return FromValues(values, fields)
}

// Len returns the number of values in the row.
func (r Row) Len() int {
	return len(r.values)
}

// Value returns the value at position i.
func (r Row) Value(i int) any {
	return r.values[i]
}

// Get returns the value for the named field and whether the field exists.
func (r Row) Get(name string) (any, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

// Values returns a copy of the row's values in field order.
func (r Row) Values() []any {
	out := make([]any, len(r.values))
	copy(out, r.values)
	return out
}

// Fields returns a copy of the row's field names in order.
func (r Row) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// Record returns the row as a keyed record.
func (r Row) Record() map[string]any {
	out := make(map[string]any, len(r.fields))
	for i, name := range r.fields {
		out[name] = r.values[i]
	}
	return out
}
