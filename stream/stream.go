// Package stream implements a buffered, cancelable, backpressure-aware row
// cursor. A producer (typically a database driver with no native streaming
// support) pushes rows through a Controller while a single consumer pulls
// them through Rows, one at a time, in push order.
//
// Four independent completion sources converge on one terminal state:
// consumer Close, producer End, producer Error, and cancellation of the
// context given via WithContext. Whichever runs first wins; the rest become
// no-ops.
package stream

import (
	"context"
	"sync"

	"github.com/go-data-exporter/rowstream/row"
)

type config struct {
	pauseCount   int
	resumeCount  int
	resumeSet    bool
	backpressure bool
	ctx          context.Context
}

// Option configures a stream at construction time.
type Option func(*config)

// WithPauseAt enables backpressure: EventPause fires when the buffer grows
// to pauseCount rows. The resume watermark defaults to pauseCount/2.
func WithPauseAt(pauseCount int) Option {
	return func(c *config) {
		c.backpressure = true
		c.pauseCount = pauseCount
	}
}

// WithWatermarks enables backpressure with explicit pause and resume
// watermarks. resumeCount must be non-negative and strictly less than
// pauseCount.
func WithWatermarks(pauseCount, resumeCount int) Option {
	return func(c *config) {
		c.backpressure = true
		c.pauseCount = pauseCount
		c.resumeCount = resumeCount
		c.resumeSet = true
	}
}

// WithContext binds the stream to an external cancellation source: when ctx
// is canceled the stream cancels with a *CancelError and ends. The callback
// is de-registered on close or on firing.
func WithContext(ctx context.Context) Option {
	return func(c *config) {
		c.ctx = ctx
	}
}

func (c *config) validate() error {
	if !c.backpressure {
		return nil
	}
	if c.pauseCount < 2 {
		return validationErrorf("pause watermark must be at least 2, got %d", c.pauseCount)
	}
	if !c.resumeSet {
		c.resumeCount = c.pauseCount / 2
		return nil
	}
	if c.resumeCount < 0 || c.resumeCount >= c.pauseCount {
		return validationErrorf("resume watermark must be in [0, %d), got %d", c.pauseCount, c.resumeCount)
	}
	return nil
}

// pullResult resolves one pending Next call. A direct handoff carries the
// row so the consumer side alone writes the current-row slot.
type pullResult struct {
	r      row.Row
	loaded bool
	err    error
}

// Rows is the consumer half of the cursor. All methods are safe for use by
// one consumer goroutine concurrently with the producer goroutine; at most
// one Next may be outstanding at a time.
type Rows struct {
	mu     sync.Mutex
	events *emitter

	backpressure bool
	pauseCount   int
	resumeCount  int

	buf        []row.Row
	columns    []row.Column
	fields     []string
	hasColumns bool
	current    row.Row
	hasCurrent bool
	err        error

	ready    bool
	readyErr error
	readyCh  chan struct{}

	done      bool
	closing   bool
	closed    bool
	canceling bool
	paused    bool
	completed bool

	pull    chan pullResult // single slot; nil when no Next is pending
	closeCh chan struct{}   // created on first Close; closed at finalize

	stopCancel func() bool // de-registers the WithContext callback
}

// New constructs a stream and its producer-facing Controller. The two are
// bound one-to-one for their whole lifetime. Invalid backpressure options
// fail with a *ValidationError and construct nothing.
func New(opts ...Option) (*Rows, *Controller, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, nil, err
	}
	s := &Rows{
		events:       newEmitter(),
		backpressure: cfg.backpressure,
		pauseCount:   cfg.pauseCount,
		resumeCount:  cfg.resumeCount,
		readyCh:      make(chan struct{}),
	}
	if cfg.ctx != nil {
		ctx := cfg.ctx
		// The callback can fire immediately on its own goroutine when ctx
		// is already canceled; publish the stop hook under the lock it is
		// read under.
		s.mu.Lock()
		s.stopCancel = context.AfterFunc(ctx, func() {
			s.cancelWith(&CancelError{cause: context.Cause(ctx)})
			s.end()
		})
		s.mu.Unlock()
	}
	return s, &Controller{rows: s}, nil
}

// Next advances the cursor. It reports true when a row has been loaded and
// is available via Row, false when the stream is exhausted or closed. When
// the producer has finished and the buffer is drained, Next finalizes the
// stream before reporting false. Issuing a second Next while one is pending
// fails with a *StateError.
func (s *Rows) Next(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, nil
	}
	if s.closing {
		ch := s.closeCh
		s.mu.Unlock()
		select {
		case <-ch:
			return false, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	if s.pull != nil {
		s.mu.Unlock()
		return false, stateErrorf("Next called while a previous Next is still outstanding")
	}
	if len(s.buf) > 0 {
		var resumed bool
		if s.backpressure && s.paused && len(s.buf) <= s.resumeCount {
			s.paused = false
			resumed = true
		}
		s.current = s.buf[0]
		s.hasCurrent = true
		s.buf = s.buf[1:]
		if s.backpressure && s.paused && len(s.buf) == 0 {
			// A resume watermark of 0 is only satisfied once the buffer is
			// fully drained, which the entry check above cannot observe.
			s.paused = false
			resumed = true
		}
		s.mu.Unlock()
		if resumed {
			s.events.emit(EventResume)
		}
		return true, nil
	}
	if s.done {
		// Exhaustion implies automatic finalization.
		s.finalizeLocked()
		s.mu.Unlock()
		return false, nil
	}
	ch := make(chan pullResult, 1)
	s.pull = ch
	s.mu.Unlock()
	select {
	case res := <-ch:
		if res.loaded {
			s.mu.Lock()
			s.current = res.r
			s.hasCurrent = true
			s.mu.Unlock()
		}
		return res.loaded, res.err
	case <-ctx.Done():
		s.mu.Lock()
		if s.pull == ch {
			s.pull = nil
		} else {
			// A push raced the cancellation; put the handed-off row back
			// at the head so it is not lost.
			select {
			case res := <-ch:
				if res.loaded {
					s.buf = append([]row.Row{res.r}, s.buf...)
				}
			default:
			}
		}
		s.mu.Unlock()
		return false, ctx.Err()
	}
}

// Row returns the row loaded by the last successful Next. It fails with a
// *StateError if no row is loaded.
func (s *Rows) Row() (row.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasCurrent {
		return row.Row{}, stateErrorf("no row loaded; call Next first")
	}
	return s.current, nil
}

// Columns returns the column set. It fails with a *StateError before the
// producer has set columns.
func (s *Rows) Columns() ([]row.Column, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasColumns {
		return nil, stateErrorf("columns are not yet known")
	}
	out := make([]row.Column, len(s.columns))
	copy(out, s.columns)
	return out, nil
}

// Types returns the column type names, in column order. It fails with a
// *StateError before the producer has set columns.
func (s *Rows) Types() ([]string, error) {
	cols, err := s.Columns()
	if err != nil {
		return nil, err
	}
	types := make([]string, len(cols))
	for i, c := range cols {
		types[i] = c.TypeName
	}
	return types, nil
}

// Err returns the terminal error, or nil. It is the only way to distinguish
// a stream that closed cleanly from one torn down by a producer error or
// cancellation.
func (s *Rows) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close shuts the stream down from the consumer side. It is idempotent: a
// second call after closure returns immediately and a call during an
// in-flight close waits on the same finalization. If the producer has not
// yet ended, Close emits EventCancel and does not return until the producer
// confirms via End, so the producer can release its own resources first.
// Close never fails on the stream's account; the returned error is only the
// caller's context expiring while waiting.
func (s *Rows) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if s.closing {
		ch := s.closeCh
		s.mu.Unlock()
		select {
		case <-ch:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if !s.ready {
		s.resolveReadyLocked(nil)
	}
	if s.stopCancel != nil {
		s.stopCancel()
		s.stopCancel = nil
	}
	if s.done {
		s.finalizeLocked()
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	s.closeCh = make(chan struct{})
	ch := s.closeCh
	var fireCancel bool
	if !s.canceling {
		s.canceling = true
		fireCancel = true
	}
	s.mu.Unlock()
	if fireCancel {
		s.events.emit(EventCancel)
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// On subscribes fn to an event and returns a de-registration token.
func (s *Rows) On(ev Event, fn func()) int {
	return s.events.on(ev, fn)
}

// Off removes the subscription identified by token.
func (s *Rows) Off(ev Event, token int) {
	s.events.off(ev, token)
}

func (s *Rows) resolveReadyLocked(err error) {
	if s.ready {
		return
	}
	s.ready = true
	s.readyErr = err
	close(s.readyCh)
}

func (s *Rows) awaitReady(ctx context.Context) error {
	select {
	case <-s.readyCh:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.readyErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finalizeLocked moves the stream to its terminal state: resolves a pending
// pull to false, releases close waiters and drops the cancellation hook.
// Idempotent; events are never emitted here.
func (s *Rows) finalizeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	s.closing = false
	if !s.ready {
		s.resolveReadyLocked(s.err)
	}
	if s.stopCancel != nil {
		s.stopCancel()
		s.stopCancel = nil
	}
	if s.pull != nil {
		ch := s.pull
		s.pull = nil
		ch <- pullResult{}
	}
	if s.closeCh != nil {
		close(s.closeCh)
	}
}

func (s *Rows) setColumns(cols []row.Column) error {
	s.mu.Lock()
	if s.closed || s.canceling {
		s.mu.Unlock()
		return nil
	}
	if s.hasColumns {
		s.mu.Unlock()
		return stateErrorf("columns already set")
	}
	s.columns = make([]row.Column, len(cols))
	copy(s.columns, cols)
	s.fields = row.Fields(s.columns)
	s.hasColumns = true
	s.resolveReadyLocked(nil)
	s.mu.Unlock()
	return nil
}

func (s *Rows) fieldNames() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasColumns {
		return nil, stateErrorf("row pushed before columns were set")
	}
	return s.fields, nil
}

func (s *Rows) push(r row.Row) error {
	s.mu.Lock()
	if !s.hasColumns {
		s.mu.Unlock()
		return stateErrorf("row pushed before columns were set")
	}
	if s.canceling || s.closed || s.done {
		// The producer has been asked to stop or already finished; late
		// rows are dropped, never buffered.
		s.mu.Unlock()
		return nil
	}
	if s.pull != nil && len(s.buf) == 0 {
		// Direct handoff: skip the buffer when a pull is already waiting.
		// The slot is buffered, so the send cannot block; sending under
		// the lock keeps it ordered with the consumer's abandon path.
		ch := s.pull
		s.pull = nil
		ch <- pullResult{r: r, loaded: true}
		s.mu.Unlock()
		return nil
	}
	s.buf = append(s.buf, r)
	var pausing bool
	if s.backpressure && !s.paused && len(s.buf) >= s.pauseCount {
		s.paused = true
		pausing = true
	}
	s.mu.Unlock()
	if pausing {
		s.events.emit(EventPause)
	}
	return nil
}

// cancelWith starts cancellation with a cause. Monotonic: the first caller
// wins, later calls are ignored. The pending pull, if any, is rejected with
// the recorded error.
func (s *Rows) cancelWith(err error) {
	s.mu.Lock()
	if s.canceling || s.closed {
		s.mu.Unlock()
		return
	}
	s.canceling = true
	if s.err == nil {
		s.err = err
	}
	if s.stopCancel != nil {
		s.stopCancel()
		s.stopCancel = nil
	}
	if !s.ready {
		s.resolveReadyLocked(s.err)
	}
	if s.pull != nil {
		ch := s.pull
		s.pull = nil
		ch <- pullResult{err: s.err}
	}
	s.mu.Unlock()
	s.events.emit(EventCancel)
}

// end records that the producer will push no further rows. EventComplete is
// emitted immediately: the underlying resource is considered released even
// if buffered rows remain for the consumer to drain. Repeated calls after
// the first are no-ops.
func (s *Rows) end() {
	s.mu.Lock()
	if s.closed || s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	if !s.hasColumns {
		// No columns ever arrived; an empty schema still lets ready resolve.
		s.columns = []row.Column{}
		s.fields = []string{}
		s.hasColumns = true
	}
	if !s.ready {
		s.resolveReadyLocked(s.err)
	}
	var fireComplete bool
	if !s.completed {
		s.completed = true
		fireComplete = true
	}
	switch {
	case s.closing:
		s.finalizeLocked()
	case s.err != nil:
		// A terminal error means no further consumer interaction is
		// meaningful; finalize without waiting for a Close.
		s.finalizeLocked()
	case s.pull != nil && len(s.buf) == 0:
		s.finalizeLocked()
	}
	s.mu.Unlock()
	if fireComplete {
		s.events.emit(EventComplete)
	}
}
