// Package jsoncodec writes a row stream as a JSON array or as
// newline-delimited JSON objects.
package jsoncodec

import (
	"context"
	"io"
	"reflect"

	jsoniter "github.com/json-iterator/go"

	"github.com/go-data-exporter/rowstream/row"
	"github.com/go-data-exporter/rowstream/stream"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type jsonCodec struct {
	customMapper     map[reflect.Type]func(any, row.Column) any
	preProcessorFunc func(rowID int, record map[string]any) (map[string]any, bool)
	newlineDelimited bool
	limit            int
}

type Option func(*jsonCodec)

func New(opts ...Option) *jsonCodec {
	c := &jsonCodec{
		customMapper: make(map[reflect.Type]func(any, row.Column) any),
		limit:        -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithCustomType replaces values of type T before marshaling.
func WithCustomType[T any](fn func(v T, column row.Column) any) Option {
	return func(c *jsonCodec) {
		var zero T
		c.customMapper[reflect.TypeOf(zero)] = func(v any, column row.Column) any {
			return fn(v.(T), column)
		}
	}
}

// WithPreProcessorFunc runs on each record before marshaling; returning
// false skips the record. rowID counts delivered rows from 1.
func WithPreProcessorFunc(fn func(rowID int, record map[string]any) (map[string]any, bool)) Option {
	return func(c *jsonCodec) {
		c.preProcessorFunc = fn
	}
}

// WithNewlineDelimited switches output from one JSON array to one object
// per line.
func WithNewlineDelimited(newlineDelimited bool) Option {
	return func(c *jsonCodec) {
		c.newlineDelimited = newlineDelimited
	}
}

// WithLimit caps the number of rows written; negative means no cap.
func WithLimit(limit int) Option {
	return func(c *jsonCodec) {
		c.limit = limit
	}
}

// Write drains the stream into writer. Iteration closes the stream on any
// exit path, including an early stop at the configured limit.
func (c *jsonCodec) Write(ctx context.Context, rows *stream.Rows, writer io.Writer) error {
	if c.limit == 0 {
		return rows.Close(ctx)
	}
	var cols []row.Column
	rowID := 0
	defer func() {
		if !c.newlineDelimited && rowID != 0 {
			writer.Write([]byte("\n]\n"))
		}
	}()
	for r, err := range rows.All(ctx) {
		if err != nil {
			return err
		}
		if cols == nil {
			if cols, err = rows.Columns(); err != nil {
				return err
			}
		}
		record := r.Record()
		for i, name := range r.Fields() {
			v := record[name]
			if v == nil {
				continue
			}
			if fn, ok := c.customMapper[reflect.TypeOf(v)]; ok {
				record[name] = fn(v, cols[i])
			}
		}
		keep := true
		if c.preProcessorFunc != nil {
			record, keep = c.preProcessorFunc(rowID+1, record)
		}
		if !keep {
			continue
		}
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		if c.newlineDelimited {
			writer.Write(data)
			writer.Write([]byte("\n"))
		} else {
			if rowID == 0 {
				writer.Write([]byte("[\n"))
			} else {
				writer.Write([]byte(",\n"))
			}
			writer.Write(data)
		}
		rowID++
		if c.limit > 0 && rowID >= c.limit {
			break
		}
	}
	return rows.Err()
}
