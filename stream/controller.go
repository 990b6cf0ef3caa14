package stream

import (
	"context"
	"errors"

	"github.com/go-data-exporter/rowstream/row"
)

// Controller is the producer-facing half of a stream: the only way a
// producer mutates cursor state. It is a capability bound to exactly one
// Rows at construction and carries no state of its own. A Controller must
// never be shared across streams.
type Controller struct {
	rows *Rows
}

// Ready blocks until columns are known or the stream has ended, errored or
// been closed. It returns the terminal error if one caused readiness, else
// nil. Safe to call any number of times; once resolved it returns
// immediately.
func (c *Controller) Ready(ctx context.Context) error {
	return c.rows.awaitReady(ctx)
}

// SetColumns records the column set and the field order used to interpret
// PushValues and PushRecord. It must be called before any push; calling it
// twice fails with a *StateError. After cancellation or closure it is a
// no-op.
func (c *Controller) SetColumns(columns []row.Column) error {
	return c.rows.setColumns(columns)
}

// PushRow enqueues a row. It fails with a *StateError if columns have not
// been set. Once cancellation has begun the row is silently dropped.
func (c *Controller) PushRow(r row.Row) error {
	return c.rows.push(r)
}

// PushValues enqueues a row built from a plain value slice, interpreted in
// column order.
func (c *Controller) PushValues(values []any) error {
	fields, err := c.rows.fieldNames()
	if err != nil {
		return err
	}
	r, err := row.FromValues(values, fields)
	if err != nil {
		return err
	}
	return c.rows.push(r)
}

// PushRecord enqueues a row built from a keyed record, interpreted in
// column order; keys absent from the record become nil values.
func (c *Controller) PushRecord(record map[string]any) error {
	fields, err := c.rows.fieldNames()
	if err != nil {
		return err
	}
	r, err := row.FromRecord(record, fields)
	if err != nil {
		return err
	}
	return c.rows.push(r)
}

// Error records err as the stream's terminal error, cancels, then ends. A
// pending Next is rejected with the same err; the Err accessor returns it
// afterwards. A nil err is normalized to a generic producer error.
func (c *Controller) Error(err error) {
	if err == nil {
		err = errors.New("stream: producer signaled an unspecified error")
	}
	c.rows.cancelWith(err)
	c.rows.end()
}

// End signals that no further rows will arrive. If columns were never set,
// an empty schema is recorded so Ready resolves. EventComplete fires
// immediately, even if buffered rows remain. Calling End again after the
// first call is a no-op.
func (c *Controller) End() {
	c.rows.end()
}

// On subscribes fn to one of the stream's events and returns a token for Off.
func (c *Controller) On(ev Event, fn func()) int {
	return c.rows.On(ev, fn)
}

// Off removes the subscription identified by token.
func (c *Controller) Off(ev Event, token int) {
	c.rows.Off(ev, token)
}
