package ir

import (
	"errors"
	"fmt"
)

// PayloadError reports an event whose payload cannot be used.
// Replay skips such events instead of failing.
type PayloadError struct {
	Seq       int64
	EventType EventType
	Err       error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("malformed %s payload (seq=%d): %v", e.EventType, e.Seq, e.Err)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// IsPayloadError returns true if err wraps a *PayloadError.
func IsPayloadError(err error) bool {
	var pe *PayloadError
	return errors.As(err, &pe)
}
