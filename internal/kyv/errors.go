package kyv

import (
	"errors"
	"fmt"
)

var (
	// ErrUndefinedAPR means the APR denominator is zero: no elapsed time
	// or nothing delegated at the later snapshot.
	ErrUndefinedAPR = errors.New("apr undefined: zero elapsed time or zero delegation")
	// ErrNoSnapshot means the contract returned no metric for a timestamp.
	ErrNoSnapshot = errors.New("no snapshot recorded")
	// ErrInvalidAmount means a metric amount is missing or not a decimal.
	ErrInvalidAmount = errors.New("invalid amount")
)

// IntervalError aborts an interval chain at the element that failed.
type IntervalError struct {
	Index     int
	Timestamp uint64
	Err       error
}

func (e *IntervalError) Error() string {
	return fmt.Sprintf("interval %d (timestamp %d): %v", e.Index, e.Timestamp, e.Err)
}

func (e *IntervalError) Unwrap() error { return e.Err }
