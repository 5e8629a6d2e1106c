package feed

import "time"

// Status is the render branch a feed is currently in.
type Status int

const (
	// StatusLoading means no fetch has completed yet.
	StatusLoading Status = iota
	// StatusError means the last fetch failed after all retries.
	StatusError
	// StatusLoaded means the last fetch succeeded.
	StatusLoaded
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// State is a snapshot of a feed. Exactly one of the three branches applies,
// selected by Status. On StatusError, Data still holds the last good value, if any.
type State[T any] struct {
	Status    Status
	Data      T
	Err       error
	UpdatedAt time.Time
}

// Loading reports whether the feed has not completed a fetch yet.
func (s State[T]) Loading() bool { return s.Status == StatusLoading }

// Failed reports whether the feed is in the error branch.
func (s State[T]) Failed() bool { return s.Status == StatusError }

// Loaded reports whether Data holds the value of the last fetch.
func (s State[T]) Loaded() bool { return s.Status == StatusLoaded }
