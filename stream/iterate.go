package stream

import (
	"context"
	"iter"

	"github.com/go-data-exporter/rowstream/row"
)

// All returns a lazy, single-pass, forward-only sequence over the stream's
// rows. The stream is closed when the loop finishes, whether by exhaustion,
// break, or a panic in the loop body. A failed pull is yielded once as a
// zero row with the error, then the sequence stops.
//
//	for r, err := range rows.All(ctx) {
//		if err != nil {
//			return err
//		}
//		// use r
//	}
func (s *Rows) All(ctx context.Context) iter.Seq2[row.Row, error] {
	return func(yield func(row.Row, error) bool) {
		defer s.Close(ctx)
		for {
			ok, err := s.Next(ctx)
			if err != nil {
				yield(row.Row{}, err)
				return
			}
			if !ok {
				return
			}
			r, err := s.Row()
			if err != nil {
				yield(row.Row{}, err)
				return
			}
			if !yield(r, nil) {
				return
			}
		}
	}
}
