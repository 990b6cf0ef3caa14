package htmlcodec

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/go-data-exporter/rowstream/pump"
	"github.com/go-data-exporter/rowstream/stream"
)

func write(t *testing.T, c *htmlCodec, data [][]any) string {
	t.Helper()
	rows, ctrl, err := stream.New()
	if err != nil {
		t.Fatalf("stream.New failed: %v", err)
	}
	go pump.Run(context.Background(), pump.FromData(data), ctrl)
	var buf bytes.Buffer
	if err := c.Write(context.Background(), rows, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	return buf.String()
}

func TestWrite(t *testing.T) {
	got := write(t, New(), [][]any{{1, "a"}})
	for _, want := range []string{
		"<!DOCTYPE html>",
		"<th><p>column_0</p><p class=typ>int</p></th>",
		"<tr><td>1</td><td>a</td></tr>",
		"</table></body></html>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestWriteNoHeader(t *testing.T) {
	got := write(t, New(WithHeader(false)), [][]any{{1}})
	if strings.Contains(got, "<thead>") {
		t.Errorf("header written despite WithHeader(false):\n%s", got)
	}
}

func TestNULLRendering(t *testing.T) {
	got := write(t, New(WithCustomNULL("[null]")), [][]any{{1, nil}})
	if !strings.Contains(got, "<td>[null]</td>") {
		t.Errorf("output missing NULL cell:\n%s", got)
	}
}

func TestWriteEmptyData(t *testing.T) {
	got := write(t, New(), [][]any{})
	if got != "" {
		t.Errorf("output for empty data = %q, want empty", got)
	}
}
