// Package rowstream streams rows from a producer source to an encoder
// through a buffered, cancelable cursor. The source runs on its own
// goroutine and is throttled by the stream's backpressure watermarks; the
// codec pulls rows one at a time and encodes them as they arrive.
package rowstream

import (
	"context"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/go-data-exporter/rowstream/codec"
	"github.com/go-data-exporter/rowstream/pump"
	"github.com/go-data-exporter/rowstream/stream"
)

type Exporter struct {
	source pump.Source
	codec  codec.Codec
	opts   []stream.Option
}

// New binds a source to a codec. Stream options (watermarks) apply to every
// Write call.
func New(source pump.Source, codec codec.Codec, opts ...stream.Option) *Exporter {
	return &Exporter{
		source: source,
		codec:  codec,
		opts:   opts,
	}
}

// Write pumps the source through a fresh stream into writer. It returns the
// first failure from either side; cancellation of ctx tears the stream down
// and stops the source.
func (e *Exporter) Write(ctx context.Context, writer io.Writer) error {
	opts := make([]stream.Option, 0, len(e.opts)+1)
	opts = append(opts, e.opts...)
	opts = append(opts, stream.WithContext(ctx))
	rows, ctrl, err := stream.New(opts...)
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pump.Run(gctx, e.source, ctrl)
	})
	g.Go(func() error {
		return e.codec.Write(gctx, rows, writer)
	})
	return g.Wait()
}

// WriteFile exports to a file, failing if the export or the final close
// fails.
func (e *Exporter) WriteFile(ctx context.Context, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := e.Write(ctx, f); err != nil {
		return err
	}
	return f.Close()
}
