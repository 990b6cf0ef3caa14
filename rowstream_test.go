package rowstream

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-data-exporter/rowstream/codec"
	"github.com/go-data-exporter/rowstream/pump"
	"github.com/go-data-exporter/rowstream/row"
	"github.com/go-data-exporter/rowstream/stream"
)

func TestWriteCSV(t *testing.T) {
	e := New(pump.FromData([][]any{{1, "a"}, {2, "b"}}), codec.CSV())
	var buf bytes.Buffer
	if err := e.Write(context.Background(), &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	want := "column_0,column_1\n1,a\n2,b\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestWriteJSONWithWatermarks(t *testing.T) {
	data := make([][]any, 200)
	for i := range data {
		data[i] = []any{i}
	}
	e := New(pump.FromData(data), codec.JSON(), stream.WithWatermarks(8, 2))
	var buf bytes.Buffer
	if err := e.Write(context.Background(), &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("{\"column_0\":199}")) {
		t.Error("last row missing from output")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	e := New(pump.FromData([][]any{{1}}), codec.CSV())
	if err := e.WriteFile(context.Background(), path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "column_0\n1\n" {
		t.Errorf("file contents = %q", data)
	}
}

func TestWriteInvalidWatermarks(t *testing.T) {
	e := New(pump.FromData(nil), codec.CSV(), stream.WithWatermarks(1, 0))
	var verr *stream.ValidationError
	if err := e.Write(context.Background(), &bytes.Buffer{}); !errors.As(err, &verr) {
		t.Errorf("Write = %v, want ValidationError", err)
	}
}

type brokenSource struct {
	err error
}

func (b *brokenSource) Columns() ([]row.Column, error) {
	return []row.Column{{Name: "n", TypeName: "int"}}, nil
}

func (b *brokenSource) Next() bool {
	return true
}

func (b *brokenSource) Scan() ([]any, error) {
	return nil, b.err
}

func (b *brokenSource) Err() error {
	return nil
}

func (b *brokenSource) Driver() string {
	return "broken"
}

func TestWritePropagatesSourceError(t *testing.T) {
	boom := errors.New("network down")
	e := New(&brokenSource{err: boom}, codec.CSV())
	if err := e.Write(context.Background(), &bytes.Buffer{}); !errors.Is(err, boom) {
		t.Errorf("Write = %v, want %v", err, boom)
	}
}

func TestWriteCanceledContext(t *testing.T) {
	data := make([][]any, 10000)
	for i := range data {
		data[i] = []any{i}
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := New(pump.FromData(data), codec.CSV())
	if err := e.Write(ctx, &bytes.Buffer{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Write = %v, want context.Canceled", err)
	}
}
