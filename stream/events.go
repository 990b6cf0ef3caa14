package stream

import "sync"

// Event identifies a lifecycle notification emitted by a stream.
type Event uint8

const (
	// EventPause asks the producer to stop emitting rows: the buffer has
	// grown to the configured pause watermark.
	EventPause Event = iota
	// EventResume tells the producer the buffer has drained to the resume
	// watermark and emission may continue.
	EventResume
	// EventCancel asks the producer to stop emitting and finalize. Fired at
	// most once, from whichever cancellation path runs first.
	EventCancel
	// EventComplete signals that the producer has finished and the
	// underlying transport resource may be reclaimed, even if buffered rows
	// remain undelivered. Fired exactly once.
	EventComplete
)

func (e Event) String() string {
	switch e {
	case EventPause:
		return "pause"
	case EventResume:
		return "resume"
	case EventCancel:
		return "cancel"
	case EventComplete:
		return "complete"
	}
	return "unknown"
}

// emitter keeps one observer list per event kind. Delivery is synchronous,
// in subscription order. Handlers run without the stream mutex held, so they
// may call back into the stream.
type emitter struct {
	mu   sync.Mutex
	next int
	subs map[Event][]subscription
}

type subscription struct {
	id int
	fn func()
}

func newEmitter() *emitter {
	return &emitter{subs: make(map[Event][]subscription)}
}

func (e *emitter) on(ev Event, fn func()) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.next++
	e.subs[ev] = append(e.subs[ev], subscription{id: e.next, fn: fn})
	return e.next
}

func (e *emitter) off(ev Event, id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	subs := e.subs[ev]
	for i, s := range subs {
		if s.id == id {
			e.subs[ev] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	subs := make([]subscription, len(e.subs[ev]))
	copy(subs, e.subs[ev])
	e.mu.Unlock()
	for _, s := range subs {
		s.fn()
	}
}
