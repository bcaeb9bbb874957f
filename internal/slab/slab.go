// Package slab provides a fixed-capacity collection with stable integer
// handles. Removing an element frees its slot for reuse, and the lowest
// free slot is always filled first, so handles stay small and dense and
// can be cached by other structures as cheap pointers.
//
// A Registry is not safe for concurrent use; callers guard it with a
// read-write lock scoped to the owning subsystem.
package slab

import (
	"errors"
	"fmt"
)

// Index is a stable handle into a Registry. It is assigned at insertion,
// stays valid until the element is removed, and is only reused after.
type Index uint32

// DefaultLimit mirrors the historical 8-bit slot bound. Registries that
// need more slots are created with NewWithLimit.
const DefaultLimit = 255

// ErrFull is reported when a push would exceed the registry's slot limit.
var ErrFull = errors.New("slab: registry full")

// Element is the capability a stored type must expose so the registry can
// record the element's own location. Only the registry calls SetIndex and
// ClearIndex; everything else treats the reported index as a read-only
// cached position.
type Element interface {
	Index() (Index, bool)
	SetIndex(Index)
	ClearIndex()
}

// Entry implements Element and is meant to be embedded:
//
//	type Link struct {
//	    slab.Entry
//	    Alias string
//	}
//
// The methods use pointer receivers, so registries hold pointer types
// (*Link, not Link).
type Entry struct {
	idx Index
	has bool
}

// Index reports the slot this element occupies, or false if it is not
// currently stored in any registry.
func (e *Entry) Index() (Index, bool) { return e.idx, e.has }

// SetIndex records the element's slot. Reserved for the registry.
func (e *Entry) SetIndex(i Index) { e.idx, e.has = i, true }

// ClearIndex marks the element as not stored. Reserved for the registry.
func (e *Entry) ClearIndex() { e.idx, e.has = 0, false }

type cell[T any] struct {
	value T
	live  bool
}

// Registry stores elements in a dense sequence of recyclable slots.
//
// Invariants: the backing sequence never ends in a free slot, every live
// element's self-reported index equals its slot position, and Len counts
// live elements rather than slots.
type Registry[T Element] struct {
	cells []cell[T]
	live  int
	limit int
}

// New returns a registry bounded by DefaultLimit.
func New[T Element]() *Registry[T] { return NewWithLimit[T](DefaultLimit) }

// NewWithLimit returns a registry holding at most limit concurrent
// elements. Non-positive limits fall back to DefaultLimit.
func NewWithLimit[T Element](limit int) *Registry[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Registry[T]{limit: limit}
}

// Push stores v in the lowest free slot, growing the backing sequence
// only when no slot is free. It records the assigned index on v and
// returns it. When the registry already holds its limit, Push reports an
// error wrapping ErrFull and leaves the registry unchanged.
func (r *Registry[T]) Push(v T) (Index, error) {
	for i := range r.cells {
		if !r.cells[i].live {
			r.cells[i] = cell[T]{value: v, live: true}
			r.live++
			v.SetIndex(Index(i))
			return Index(i), nil
		}
	}
	if len(r.cells) >= r.limit {
		return 0, fmt.Errorf("%w: limit %d reached", ErrFull, r.limit)
	}
	idx := Index(len(r.cells))
	r.cells = append(r.cells, cell[T]{value: v, live: true})
	r.live++
	v.SetIndex(idx)
	return idx, nil
}

// Get returns the element at i. A free or out-of-range index yields
// (zero, false); that is an expected outcome, not an error.
func (r *Registry[T]) Get(i Index) (T, bool) {
	if int(i) >= len(r.cells) || !r.cells[i].live {
		var zero T
		return zero, false
	}
	return r.cells[i].value, true
}

// Remove frees slot i and returns the element that occupied it, with its
// self-reported index cleared. Trailing free slots are trimmed so the
// backing sequence always ends at the highest live index. Removing a free
// or out-of-range index is a no-op returning (zero, false).
func (r *Registry[T]) Remove(i Index) (T, bool) {
	if int(i) >= len(r.cells) || !r.cells[i].live {
		var zero T
		return zero, false
	}
	v := r.cells[i].value
	r.cells[i] = cell[T]{}
	r.live--
	for n := len(r.cells); n > 0 && !r.cells[n-1].live; n = len(r.cells) {
		r.cells = r.cells[:n-1]
	}
	v.ClearIndex()
	return v, true
}

// Len reports the number of live elements.
func (r *Registry[T]) Len() int { return r.live }

// IsEmpty reports whether no element is stored.
func (r *Registry[T]) IsEmpty() bool { return r.live == 0 }

// Slots reports the backing-sequence length, which equals one plus the
// highest live index (zero when empty).
func (r *Registry[T]) Slots() int { return len(r.cells) }

// Limit reports the maximum number of concurrent elements.
func (r *Registry[T]) Limit() int { return r.limit }

// Range calls fn for each live (index, element) pair in ascending index
// order, stopping early if fn returns false.
func (r *Registry[T]) Range(fn func(Index, T) bool) {
	for i := range r.cells {
		if r.cells[i].live {
			if !fn(Index(i), r.cells[i].value) {
				return
			}
		}
	}
}

// Drain empties the registry, calling fn for each live pair in ascending
// index order. Every drained element has its self-reported index cleared
// before fn sees it.
func (r *Registry[T]) Drain(fn func(Index, T)) {
	cells := r.cells
	r.cells = nil
	r.live = 0
	for i := range cells {
		if cells[i].live {
			cells[i].value.ClearIndex()
			fn(Index(i), cells[i].value)
		}
	}
}
