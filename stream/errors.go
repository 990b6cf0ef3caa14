package stream

import "fmt"

// ValidationError reports an invalid backpressure configuration.
// It is returned synchronously by New; no stream is constructed.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: "stream: " + fmt.Sprintf(format, args...)}
}

// StateError reports an API call that is invalid for the stream's current
// phase: pushing before columns are set, reading the row before one is
// loaded, or issuing a second Next while one is outstanding. A StateError
// never mutates stream state.
type StateError struct {
	msg string
}

func (e *StateError) Error() string {
	return e.msg
}

func stateErrorf(format string, args ...any) *StateError {
	return &StateError{msg: "stream: " + fmt.Sprintf(format, args...)}
}

// CancelError is the terminal error recorded when the stream's context is
// canceled. The context's cause is available via Unwrap.
type CancelError struct {
	cause error
}

func (e *CancelError) Error() string {
	return "stream: canceled: " + e.cause.Error()
}

func (e *CancelError) Unwrap() error {
	return e.cause
}
