// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package window provides a fixed-capacity FIFO of the most recent samples.
package window

// Rolling keeps at most Cap() items; pushing onto a full window drops the
// oldest. It is not safe for concurrent use.
type Rolling[T any] struct {
	buf   []T
	start int
	size  int
}

// New returns an empty window. capacity must be positive.
func New[T any](capacity int) *Rolling[T] {
	if capacity <= 0 {
		panic("window: capacity must be positive")
	}
	return &Rolling[T]{buf: make([]T, capacity)}
}

// Push appends v, evicting the oldest item when the window is full.
// It reports the evicted item, if any.
func (r *Rolling[T]) Push(v T) (evicted T, ok bool) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = v
		r.size++
		return evicted, false
	}
	evicted = r.buf[r.start]
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
	return evicted, true
}

// Len is the number of items held.
func (r *Rolling[T]) Len() int { return r.size }

// Cap is the fixed capacity.
func (r *Rolling[T]) Cap() int { return len(r.buf) }

// Full reports whether Len() == Cap().
func (r *Rolling[T]) Full() bool { return r.size == len(r.buf) }

// At returns the i-th item, 0 being the oldest.
func (r *Rolling[T]) At(i int) T {
	if i < 0 || i >= r.size {
		panic("window: index out of range")
	}
	return r.buf[(r.start+i)%len(r.buf)]
}

// Oldest returns the oldest item, ok is false when empty.
func (r *Rolling[T]) Oldest() (v T, ok bool) {
	if r.size == 0 {
		return v, false
	}
	return r.buf[r.start], true
}

// Newest returns the most recently pushed item, ok is false when empty.
func (r *Rolling[T]) Newest() (v T, ok bool) {
	if r.size == 0 {
		return v, false
	}
	return r.At(r.size - 1), true
}

// Items returns a copy of the contents, oldest first.
func (r *Rolling[T]) Items() []T {
	out := make([]T, r.size)
	for i := range out {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

// Reset empties the window without changing its capacity.
func (r *Rolling[T]) Reset() {
	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.start, r.size = 0, 0
}
