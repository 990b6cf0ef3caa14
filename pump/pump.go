// Package pump adapts synchronous row sources — database/sql result sets,
// gohive cursors, in-memory slices — into producers that drive a
// stream.Controller. Run is the canonical producer loop: it honors the
// stream's pause/resume watermarks, stops when the consumer cancels, and
// always confirms shutdown with End so close handshakes complete.
package pump

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/go-data-exporter/rowstream/row"
	"github.com/go-data-exporter/rowstream/stream"
)

// Source is a synchronous, pull-based row source.
type Source interface {
	// Columns returns the source's column metadata. Called once, before
	// the first Scan.
	Columns() ([]row.Column, error)
	// Next reports whether another row is available.
	Next() bool
	// Scan reads the current row's values. The returned slice may be
	// reused between calls.
	Scan() ([]any, error)
	// Err returns the error that terminated iteration, if any.
	Err() error
	// Driver names the underlying driver, for diagnostics.
	Driver() string
}

var errStopped = errors.New("pump: stopped by cancel")

// Run drives ctrl from src until the source is exhausted, the source or a
// push fails, ctx expires, or the consumer cancels the stream. Failures are
// reported to the stream via Controller.Error and returned; consumer
// cancellation is a clean stop and returns nil. Run always leaves the
// stream ended.
func Run(ctx context.Context, src Source, ctrl *stream.Controller) error {
	cols, err := src.Columns()
	if err != nil {
		err = errors.Wrapf(err, "pump: read columns from %s source", src.Driver())
		ctrl.Error(err)
		return err
	}
	if err := ctrl.SetColumns(cols); err != nil {
		ctrl.Error(err)
		return err
	}

	g := newGate()
	stop := make(chan struct{})
	var stopOnce sync.Once
	pauseTok := ctrl.On(stream.EventPause, g.pause)
	resumeTok := ctrl.On(stream.EventResume, g.resume)
	cancelTok := ctrl.On(stream.EventCancel, func() {
		stopOnce.Do(func() { close(stop) })
	})
	defer func() {
		ctrl.Off(stream.EventPause, pauseTok)
		ctrl.Off(stream.EventResume, resumeTok)
		ctrl.Off(stream.EventCancel, cancelTok)
	}()

	for src.Next() {
		if err := g.wait(ctx, stop); err != nil {
			if errors.Is(err, errStopped) {
				ctrl.End()
				return nil
			}
			ctrl.Error(err)
			return err
		}
		values, err := src.Scan()
		if err != nil {
			err = errors.Wrapf(err, "pump: scan row from %s source", src.Driver())
			ctrl.Error(err)
			return err
		}
		if err := ctrl.PushValues(values); err != nil {
			ctrl.Error(err)
			return err
		}
	}
	if err := src.Err(); err != nil {
		err = errors.Wrapf(err, "pump: %s source failed", src.Driver())
		ctrl.Error(err)
		return err
	}
	ctrl.End()
	return nil
}

// gate blocks the producer loop while the stream is paused. It starts open;
// pause and resume are driven by the stream's events.
type gate struct {
	mu     sync.Mutex
	paused bool
	ch     chan struct{} // non-nil while paused; closed on resume
}

func newGate() *gate {
	return &gate{}
}

func (g *gate) pause() {
	g.mu.Lock()
	if !g.paused {
		g.paused = true
		g.ch = make(chan struct{})
	}
	g.mu.Unlock()
}

func (g *gate) resume() {
	g.mu.Lock()
	if g.paused {
		g.paused = false
		close(g.ch)
	}
	g.mu.Unlock()
}

// wait returns once the gate is open, errStopped on stop, or the context
// error on expiry.
func (g *gate) wait(ctx context.Context, stop <-chan struct{}) error {
	for {
		select {
		case <-stop:
			return errStopped
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		g.mu.Lock()
		paused, ch := g.paused, g.ch
		g.mu.Unlock()
		if !paused {
			return nil
		}
		select {
		case <-ch:
		case <-stop:
			return errStopped
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
