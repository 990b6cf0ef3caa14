package jsoncodec

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/go-data-exporter/rowstream/pump"
	"github.com/go-data-exporter/rowstream/row"
	"github.com/go-data-exporter/rowstream/stream"
)

func feed(t *testing.T, data [][]any) *stream.Rows {
	t.Helper()
	rows, ctrl, err := stream.New()
	if err != nil {
		t.Fatalf("stream.New failed: %v", err)
	}
	go pump.Run(context.Background(), pump.FromData(data), ctrl)
	return rows
}

func write(t *testing.T, c *jsonCodec, data [][]any) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Write(context.Background(), feed(t, data), &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	return buf.String()
}

func TestWriteArray(t *testing.T) {
	got := write(t, New(), [][]any{{1, "a"}, {2, "b"}})
	want := "[\n{\"column_0\":1,\"column_1\":\"a\"},\n{\"column_0\":2,\"column_1\":\"b\"}\n]\n"
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestWriteEmptyArray(t *testing.T) {
	got := write(t, New(), [][]any{})
	if got != "" {
		t.Errorf("output for empty data = %q, want empty", got)
	}
}

func TestWithNewlineDelimited(t *testing.T) {
	got := write(t, New(WithNewlineDelimited(true)), [][]any{{1}, {2}})
	want := "{\"column_0\":1}\n{\"column_0\":2}\n"
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestWithLimit(t *testing.T) {
	got := write(t, New(WithNewlineDelimited(true), WithLimit(2)), [][]any{{1}, {2}, {3}, {4}})
	if strings.Count(got, "\n") != 2 {
		t.Errorf("limit not applied: %q", got)
	}
}

func TestWithLimitZero(t *testing.T) {
	got := write(t, New(WithLimit(0)), [][]any{{1}})
	if got != "" {
		t.Errorf("output with zero limit = %q, want empty", got)
	}
}

func TestWithCustomType(t *testing.T) {
	custom := func(v int, column row.Column) any {
		return map[string]any{"n": v, "typ": column.TypeName}
	}
	got := write(t, New(WithNewlineDelimited(true), WithCustomType(custom)), [][]any{{5}})
	want := "{\"column_0\":{\"n\":5,\"typ\":\"int\"}}\n"
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestWithPreProcessorFunc(t *testing.T) {
	skip := func(rowID int, record map[string]any) (map[string]any, bool) {
		return record, record["column_0"] != 2
	}
	got := write(t, New(WithNewlineDelimited(true), WithPreProcessorFunc(skip)), [][]any{{1}, {2}, {3}})
	want := "{\"column_0\":1}\n{\"column_0\":3}\n"
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}
