package pump

import (
	"fmt"
	"reflect"

	"github.com/go-data-exporter/rowstream/row"
)

// sliceSource serves rows from memory. Useful for tests and small static
// data sets.
type sliceSource struct {
	rows    [][]any
	columns []row.Column
	current []any
	cursor  int
}

// FromData builds a Source from a 2D slice; each inner slice is one row.
// Column names are synthesized and types inferred from the first row.
func FromData(rows [][]any) Source {
	s := &sliceSource{rows: rows}
	if len(rows) != 0 {
		for i, v := range rows[0] {
			col := row.Column{Name: fmt.Sprintf("column_%d", i), Nullable: true}
			if v == nil {
				col.TypeName = "nil"
			} else {
				col.TypeName = reflect.TypeOf(v).String()
			}
			s.columns = append(s.columns, col)
		}
	}
	return s
}

// FromRecords builds a Source from keyed records; fields fixes the column
// order. Types are inferred from the first record, keys missing from a
// record scan as nil.
func FromRecords(records []map[string]any, fields []string) Source {
	rows := make([][]any, len(records))
	for i, rec := range records {
		values := make([]any, len(fields))
		for j, name := range fields {
			values[j] = rec[name]
		}
		rows[i] = values
	}
	s := &sliceSource{rows: rows}
	for _, name := range fields {
		col := row.Column{Name: name, Nullable: true, TypeName: "nil"}
		if len(records) != 0 && records[0][name] != nil {
			col.TypeName = reflect.TypeOf(records[0][name]).String()
		}
		s.columns = append(s.columns, col)
	}
	return s
}

func (s *sliceSource) Columns() ([]row.Column, error) {
	return s.columns, nil
}

func (s *sliceSource) Next() bool {
	if s.cursor >= len(s.rows) {
		return false
	}
	s.current = s.rows[s.cursor]
	s.cursor++
	return true
}

func (s *sliceSource) Scan() ([]any, error) {
	if s.current == nil {
		return nil, fmt.Errorf("pump: scan called before Next")
	}
	if len(s.current) != len(s.columns) {
		return nil, fmt.Errorf("pump: row %d has %d values, want %d", s.cursor, len(s.current), len(s.columns))
	}
	return s.current, nil
}

func (s *sliceSource) Err() error {
	return nil
}

func (s *sliceSource) Driver() string {
	return "go-slice"
}
