package domain

import "fmt"

// FetchError describes a failed call to an upstream capability
type FetchError struct {
	Op  string // e.g. "fetch page", "hot listing"
	URL string
	Err error
}

func (e *FetchError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Result is returned by components calling unreliable upstreams. It lets callers tell
// "nothing there" (Attempted, no Err, zero Value) from "call failed" (Err set)
// and from "call skipped" (not Attempted).
type Result[T any] struct {
	Value     T
	Err       error
	Attempted bool
}

// Ok makes a successful result
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v, Attempted: true}
}

// Failed makes a result for an attempted call which failed
func Failed[T any](op, url string, err error) Result[T] {
	return Result[T]{Err: &FetchError{Op: op, URL: url, Err: err}, Attempted: true}
}

// Skipped makes a result for a call which was not attempted
func Skipped[T any]() Result[T] {
	return Result[T]{}
}

// OrZero returns the value, or zero value if the call failed
func (r Result[T]) OrZero() T {
	if r.Err != nil {
		var zero T
		return zero
	}
	return r.Value
}
