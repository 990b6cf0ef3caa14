// Package csvcodec writes a row stream as CSV.
package csvcodec

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/go-data-exporter/rowstream/row"
	"github.com/go-data-exporter/rowstream/stream"
	"github.com/go-data-exporter/rowstream/tostring"
)

type csvCodec struct {
	customMapper     map[reflect.Type]func(any, row.Column) tostring.String
	preProcessorFunc func(record []string) ([]string, bool)
	delimiter        rune
	useCRLF          bool
	writeHeader      bool
	customHeader     []string
	nullValue        string
}

type Option func(*csvCodec)

func New(opts ...Option) *csvCodec {
	c := &csvCodec{
		customMapper: make(map[reflect.Type]func(any, row.Column) tostring.String),
		delimiter:    ',',
		writeHeader:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithCustomType overrides rendering for values of type T.
func WithCustomType[T any](fn func(v T, column row.Column) tostring.String) Option {
	return func(c *csvCodec) {
		var zero T
		c.customMapper[reflect.TypeOf(zero)] = func(v any, column row.Column) tostring.String {
			return fn(v.(T), column)
		}
	}
}

// WithPreProcessorFunc runs on each rendered record; returning false skips
// the record.
func WithPreProcessorFunc(fn func(record []string) ([]string, bool)) Option {
	return func(c *csvCodec) {
		c.preProcessorFunc = fn
	}
}

func WithCustomDelimiter(delimiter rune) Option {
	return func(c *csvCodec) {
		c.delimiter = delimiter
	}
}

func WithCRLF(useCRLF bool) Option {
	return func(c *csvCodec) {
		c.useCRLF = useCRLF
	}
}

func WithHeader(writeHeader bool) Option {
	return func(c *csvCodec) {
		c.writeHeader = writeHeader
	}
}

func WithCustomHeader(customHeader []string) Option {
	return func(c *csvCodec) {
		c.customHeader = customHeader
	}
}

func WithCustomNULL(nullValue string) Option {
	return func(c *csvCodec) {
		c.nullValue = nullValue
	}
}

// Write drains the stream into writer as CSV. The header is written once
// column metadata is available, which is guaranteed by the time the first
// pull resolves. The stream is closed before Write returns.
func (c *csvCodec) Write(ctx context.Context, rows *stream.Rows, writer io.Writer) error {
	defer rows.Close(ctx)

	out := csv.NewWriter(writer)
	if c.delimiter != 0 {
		out.Comma = c.delimiter
	}
	out.UseCRLF = c.useCRLF
	defer out.Flush()

	var cols []row.Column
	for {
		ok, err := rows.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if cols == nil {
			if cols, err = c.writeHeaderRow(rows, out); err != nil {
				return err
			}
		}
		r, err := rows.Row()
		if err != nil {
			return err
		}
		record := make([]string, r.Len())
		for i := range record {
			record[i] = c.toString(r.Value(i), cols[i])
		}
		writeRecord := true
		if c.preProcessorFunc != nil {
			record, writeRecord = c.preProcessorFunc(record)
		}
		if writeRecord {
			if err := out.Write(record); err != nil {
				return err
			}
		}
	}
	if cols == nil {
		// Empty result set; the schema is still known once the stream ends.
		if _, err := c.writeHeaderRow(rows, out); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (c *csvCodec) writeHeaderRow(rows *stream.Rows, out *csv.Writer) ([]row.Column, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if !c.writeHeader {
		return cols, nil
	}
	header := row.Fields(cols)
	if c.customHeader != nil {
		if len(c.customHeader) != len(header) {
			return nil, errors.New("csvcodec: invalid header length")
		}
		header = c.customHeader
	}
	if len(header) == 0 {
		return cols, nil
	}
	if err := out.Write(header); err != nil {
		return nil, fmt.Errorf("csvcodec: failed to write header: %w", err)
	}
	return cols, nil
}

func (c *csvCodec) toString(v any, column row.Column) string {
	if v == nil {
		return c.nullValue
	}
	if fn, ok := c.customMapper[reflect.TypeOf(v)]; ok {
		return c.render(fn(v, column))
	}
	return c.render(tostring.ToString(v))
}

func (c *csvCodec) render(s tostring.String) string {
	if s.IsNULL {
		return c.nullValue
	}
	return s.String
}
