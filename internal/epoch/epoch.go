// Package epoch implements the monotonic epoch counter used to invalidate
// stale scheduled events and reclaim swapped sample buffers / released
// voices without the audio thread ever taking a lock (spec.md §5, §9
// "Object-pool and epoch reclamation").
//
// The owner bumps the counter (via Advance) whenever it observes a boundary
// that invalidates older state; in this engine the transport does so on a
// Stop and a seek (control thread) and on a loop wrap (audio thread).
// The control thread stamps resources it hands to the audio thread with the
// epoch current at submission time (Stamp) and later asks whether that
// stamp is still current (Current) before reclaiming the resource (e.g.
// freeing a swapped-out sample buffer).
package epoch

import "sync/atomic"

// Counter is safe for concurrent writers (via Advance, an atomic add) and
// readers (via Current) on any thread.
type Counter struct {
	v atomic.Uint64
}

// Current returns the current epoch value.
func (c *Counter) Current() uint64 {
	return c.v.Load()
}

// Advance bumps the epoch and returns the new value.
func (c *Counter) Advance() uint64 {
	return c.v.Add(1)
}

// Stamped pairs a value with the epoch it was submitted under.
type Stamped[T any] struct {
	Epoch uint64
	Value T
}

// Stamp wraps v with epoch e. Go forbids type parameters on methods, so
// stamping with a counter's current value is two steps:
// epoch.Stamp(counter.Current(), v).
func Stamp[T any](e uint64, v T) Stamped[T] {
	return Stamped[T]{Epoch: e, Value: v}
}

// Stale reports whether s was stamped under a strictly older epoch than
// current. The engine's command drain does not call it: commands are applied
// whatever their Epoch stamp.
func (s Stamped[T]) Stale(current uint64) bool {
	return s.Epoch < current
}

// Reclaimable is a single pending reclamation: a resource (e.g. a released
// sample buffer pointer) along with the epoch from which on no voice can
// still be referencing it.
type Reclaimable[T any] struct {
	SafeAfter uint64
	Value     T
}

// Queue accumulates Reclaimable entries and lets the control thread sweep
// out the ones that are now safe to free, once it has observed the epoch
// reach SafeAfter.
type Queue[T any] struct {
	pending []Reclaimable[T]
}

// Push enqueues v for reclamation once the epoch counter reaches safeAfter.
func (q *Queue[T]) Push(safeAfter uint64, v T) {
	q.pending = append(q.pending, Reclaimable[T]{SafeAfter: safeAfter, Value: v})
}

// Sweep removes every entry whose SafeAfter is now <= current,
// calling free on each (e.g. to drop a reference or nil out a pointer).
func (q *Queue[T]) Sweep(current uint64, free func(T)) {
	kept := q.pending[:0]
	for _, r := range q.pending {
		if r.SafeAfter <= current {
			free(r.Value)
		} else {
			kept = append(kept, r)
		}
	}
	q.pending = kept
}

// Len reports the number of entries still awaiting reclamation.
func (q *Queue[T]) Len() int {
	return len(q.pending)
}
