// Package htmlcodec writes a row stream as a self-contained HTML table.
package htmlcodec

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-data-exporter/rowstream/row"
	"github.com/go-data-exporter/rowstream/stream"
	"github.com/go-data-exporter/rowstream/tostring"
)

type htmlCodec struct {
	customMapper     map[reflect.Type]func(any, row.Column) tostring.String
	preProcessorFunc func(record []string) ([]string, bool)
	toStringFunc     func(v any) tostring.String
	writeHeader      bool
	nullValue        string
}

type Option func(*htmlCodec)

func New(opts ...Option) *htmlCodec {
	c := &htmlCodec{
		customMapper: make(map[reflect.Type]func(any, row.Column) tostring.String),
		toStringFunc: tostring.ToString,
		writeHeader:  true,
		nullValue:    `<span style="color:#aaaaaa;">[NULL]</span>`,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithCustomType[T any](fn func(v T, column row.Column) tostring.String) Option {
	return func(c *htmlCodec) {
		var zero T
		c.customMapper[reflect.TypeOf(zero)] = func(v any, column row.Column) tostring.String {
			return fn(v.(T), column)
		}
	}
}

func WithPreProcessorFunc(fn func(record []string) ([]string, bool)) Option {
	return func(c *htmlCodec) {
		c.preProcessorFunc = fn
	}
}

func WithCustomToStringFunc(fn func(v any) tostring.String) Option {
	return func(c *htmlCodec) {
		c.toStringFunc = fn
	}
}

func WithHeader(writeHeader bool) Option {
	return func(c *htmlCodec) {
		c.writeHeader = writeHeader
	}
}

func WithCustomNULL(nullValue string) Option {
	return func(c *htmlCodec) {
		c.nullValue = nullValue
	}
}

var htmlPrefix = strings.Join(strings.Fields(`<!DOCTYPE html><html><head><meta charset="utf-8"><title>Row Export</title><style>
	body, html { margin: 0; padding: 0; }
	table { width: 100%; border-spacing: 0; }
	th, td { border: 1px solid #dedede; padding: 10px; }
	td { max-width: 700px; overflow-x: auto; white-space: nowrap; }
	p.typ { margin-top: 5px; color: #333; }
	</style></head><body><table>`), " ")

// Write drains the stream into writer as an HTML table. The stream is
// closed before Write returns.
func (c *htmlCodec) Write(ctx context.Context, rows *stream.Rows, writer io.Writer) error {
	defer rows.Close(ctx)

	var cols []row.Column
	started := false
	defer func() {
		if started {
			writer.Write([]byte("</tbody></table></body></html>"))
		}
	}()
	for {
		ok, err := rows.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if cols == nil {
			if cols, err = rows.Columns(); err != nil {
				return err
			}
			c.start(cols, writer)
			started = true
		}
		r, err := rows.Row()
		if err != nil {
			return err
		}
		record := make([]string, r.Len())
		for i := range record {
			record[i] = c.cell(r.Value(i), cols[i])
		}
		keep := true
		if c.preProcessorFunc != nil {
			record, keep = c.preProcessorFunc(record)
		}
		if !keep {
			continue
		}
		writer.Write([]byte("<tr>"))
		for _, cell := range record {
			fmt.Fprintf(writer, "<td>%s</td>", cell)
		}
		writer.Write([]byte("</tr>"))
	}
	if cols == nil {
		// Empty result set: emit the bare table shell once the schema is known.
		if cols, err := rows.Columns(); err == nil && len(cols) != 0 {
			c.start(cols, writer)
			started = true
		}
	}
	return rows.Err()
}

func (c *htmlCodec) start(cols []row.Column, writer io.Writer) {
	writer.Write([]byte(htmlPrefix))
	if c.writeHeader {
		writer.Write([]byte("<thead>"))
		for _, col := range cols {
			fmt.Fprintf(writer, "<th><p>%s</p><p class=typ>%s</p></th>",
				col.Name, strings.ToLower(col.TypeName))
		}
		writer.Write([]byte("</thead>"))
	}
	writer.Write([]byte("<tbody>"))
}

func (c *htmlCodec) cell(v any, column row.Column) string {
	if v == nil {
		return c.nullValue
	}
	var s tostring.String
	if fn, ok := c.customMapper[reflect.TypeOf(v)]; ok {
		s = fn(v, column)
	} else {
		s = c.toStringFunc(v)
	}
	if s.IsNULL {
		return c.nullValue
	}
	return s.String
}
