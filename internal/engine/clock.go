package engine

import "sync/atomic"

// Clock is a monotonic logical clock numbering trace events.
//
// Sequence numbers are strictly increasing per engine, so a trace orders
// calls without relying on wall-clock time.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}
