package pump

import (
	"context"
	"strings"

	"github.com/beltran/gohive"
	"github.com/pkg/errors"

	"github.com/go-data-exporter/rowstream/row"
)

// hiveSource wraps a *gohive.Cursor. Hive has no server-side streaming
// protocol for clients like this one, which is exactly the producer the
// stream package buffers for.
type hiveSource struct {
	cursor *gohive.Cursor
	ctx    context.Context

	columns []row.Column
	values  []any
	ptrs    []any
}

// FromHive wraps an already-executed gohive cursor.
func FromHive(ctx context.Context, cursor *gohive.Cursor) Source {
	return &hiveSource{cursor: cursor, ctx: ctx}
}

func (h *hiveSource) Columns() ([]row.Column, error) {
	if h.columns != nil {
		return h.columns, nil
	}
	for _, desc := range h.cursor.Description() {
		if len(desc) == 0 {
			continue
		}
		col := row.Column{Name: desc[0]}
		if len(desc) > 1 {
			col.TypeName = strings.TrimSuffix(desc[1], "_TYPE")
		}
		// Hive qualifies names as "table.column"; keep the column part.
		if _, name, ok := strings.Cut(col.Name, "."); ok {
			col.Name = name
		}
		h.columns = append(h.columns, col)
	}
	return h.columns, nil
}

func (h *hiveSource) Next() bool {
	return h.cursor.HasMore(h.ctx)
}

func (h *hiveSource) Scan() ([]any, error) {
	if h.values == nil {
		h.values = make([]any, len(h.columns))
		h.ptrs = make([]any, len(h.columns))
	}
	for i := range h.values {
		h.ptrs[i] = &h.values[i]
	}
	h.cursor.FetchOne(h.ctx, h.ptrs...)
	if h.cursor.Err != nil {
		return nil, errors.Wrap(h.cursor.Err, "pump: fetch")
	}
	return h.values, nil
}

func (h *hiveSource) Err() error {
	return h.cursor.Error()
}

func (h *hiveSource) Driver() string {
	return "gohive"
}
