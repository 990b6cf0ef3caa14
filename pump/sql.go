package pump

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/go-data-exporter/rowstream/row"
)

// sqlSource wraps a *sql.Rows so database/sql result sets can feed a stream.
type sqlSource struct {
	rows   *sql.Rows
	driver string

	columns []row.Column
	values  []any
	ptrs    []any
}

// FromSQL wraps a *sql.Rows result set. The driver name is only used for
// diagnostics.
func FromSQL(rows *sql.Rows, driver string) Source {
	return &sqlSource{rows: rows, driver: driver}
}

func (s *sqlSource) Columns() ([]row.Column, error) {
	if s.columns != nil {
		return s.columns, nil
	}
	types, err := s.rows.ColumnTypes()
	if err != nil {
		return nil, errors.Wrap(err, "pump: column types")
	}
	s.columns = make([]row.Column, 0, len(types))
	for _, ct := range types {
		nullable, _ := ct.Nullable()
		s.columns = append(s.columns, row.Column{
			Name:     ct.Name(),
			TypeName: ct.DatabaseTypeName(),
			Nullable: nullable,
		})
	}
	return s.columns, nil
}

func (s *sqlSource) Next() bool {
	return s.rows.Next()
}

func (s *sqlSource) Scan() ([]any, error) {
	if s.columns == nil {
		if _, err := s.Columns(); err != nil {
			return nil, err
		}
	}
	if s.values == nil {
		s.values = make([]any, len(s.columns))
		s.ptrs = make([]any, len(s.columns))
	}
	for i := range s.values {
		s.ptrs[i] = &s.values[i]
	}
	if err := s.rows.Scan(s.ptrs...); err != nil {
		return nil, errors.Wrap(err, "pump: scan")
	}
	return s.values, nil
}

func (s *sqlSource) Err() error {
	return s.rows.Err()
}

func (s *sqlSource) Driver() string {
	return s.driver
}
