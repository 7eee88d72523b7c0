// Package pool implements a fixed-capacity slot pool: preallocate N
// slots of type T up front, then allocate and free individual slots in
// O(1) through a free list of slot indices. The links are kept in an
// index array beside the slab, not in the slots' own storage.
//
// Unlike the stack and arena packages, Pool's backing store is a plain
// []T slice, so T is free to contain Go pointers, slices or interfaces
// — the garbage collector scans the slab normally. Use Pool when the
// element type isn't blittable, or when fixed-size, non-relocating
// slots are all that's needed.
//
// Pool is not safe for concurrent use.
package pool

import (
	"unsafe"

	"github.com/pkg/errors"
)

// ErrExhausted is returned by Allocate when no free slot remains.
var ErrExhausted = errors.New("pool: exhausted")

const freeListEnd = -1

// Pool holds n preallocated slots of T, threading free slots together
// through an index-based free list.
type Pool[T any] struct {
	slab []T
	// next[i] is the free-list successor of slot i, or freeListEnd.
	// Only meaningful for slots currently free.
	next []int32
	head int32 // index of the first free slot, or freeListEnd
	live int   // count of allocated slots, for Release's assertion

	// allocated tracks per-slot liveness for checkLive's double-free
	// assertion. Maintained in both build modes; only consulted in
	// debug builds (see pool_debug.go / pool_production.go).
	allocated []bool
}

// New preallocates a pool of n slots of T.
func New[T any](n int) *Pool[T] {
	if n <= 0 {
		panic(errors.Errorf("pool: invalid capacity %d", n))
	}
	p := &Pool[T]{
		slab:      make([]T, n),
		next:      make([]int32, n),
		allocated: make([]bool, n),
	}
	for i := 0; i < n-1; i++ {
		p.next[i] = int32(i + 1)
	}
	p.next[n-1] = freeListEnd
	p.head = 0
	return p
}

// Allocate pops a free slot, copies value into it, and returns a pointer
// to the slot. The pointer is valid until the slot is freed.
func (p *Pool[T]) Allocate(value T) (*T, error) {
	if p.head == freeListEnd {
		return nil, ErrExhausted
	}
	i := p.head
	p.head = p.next[i]
	p.slab[i] = value
	p.allocated[i] = true
	p.live++
	return &p.slab[i], nil
}

// Deallocate returns the slot backing ptr to the free list, resetting
// it to T's zero value. ptr must have been returned by Allocate on this
// pool and not already freed; nil is a no-op.
func (p *Pool[T]) Deallocate(ptr *T) {
	if ptr == nil {
		return
	}
	i := p.indexOf(ptr)
	p.checkLive(i)
	p.slab[i] = *new(T)
	p.allocated[i] = false
	p.next[i] = p.head
	p.head = i
	p.live--
}

// Release returns the pool to its initial, fully-free state. In debug
// builds it panics if any slot is still allocated; in production builds
// it silently resets every slot.
func (p *Pool[T]) Release() {
	p.checkEmpty()
	for i := range p.slab {
		p.slab[i] = *new(T)
		p.allocated[i] = false
		if i < len(p.slab)-1 {
			p.next[i] = int32(i + 1)
		} else {
			p.next[i] = freeListEnd
		}
	}
	p.head, p.live = 0, 0
}

// Cap returns the pool's total slot count.
func (p *Pool[T]) Cap() int {
	return len(p.slab)
}

// Len returns the number of slots currently allocated.
func (p *Pool[T]) Len() int {
	return p.live
}

func (p *Pool[T]) indexOf(ptr *T) int32 {
	base := uintptr(unsafe.Pointer(&p.slab[0]))
	target := uintptr(unsafe.Pointer(ptr))
	size := unsafe.Sizeof(p.slab[0])
	if target < base || size == 0 {
		panic(errors.Errorf("pool: pointer %p does not belong to this pool", ptr))
	}
	off := (target - base) / size
	if off >= uintptr(len(p.slab)) || base+off*size != target {
		panic(errors.Errorf("pool: pointer %p does not belong to this pool", ptr))
	}
	return int32(off)
}
