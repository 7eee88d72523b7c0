package arena

import (
	"unsafe"

	"github.com/pkg/errors"
)

// Handle is an opaque reference to a block of elements living in an
// Allocator. It is a small value type, safe to copy and to pass by
// value; it carries no destructor of its own — call arena.Deallocate
// when done with it.
//
// A raw pointer obtained from Get or At is invalidated by the next
// Defragment, Allocate, or Deallocate call on the same allocator.
type Handle[T any] struct {
	a   *Allocator
	idx int
}

func (h Handle[T]) slot() (*slot, error) {
	if h.a == nil || h.idx < 0 || h.idx >= len(h.a.slots) || !h.a.slots[h.idx].live {
		return nil, ErrInvalidHandle
	}
	return &h.a.slots[h.idx], nil
}

// Valid reports whether h still refers to a live allocation.
func (h Handle[T]) Valid() bool {
	_, err := h.slot()
	return err == nil
}

// Len returns the number of elements h refers to, or 0 if h is invalid.
func (h Handle[T]) Len() int {
	s, err := h.slot()
	if err != nil {
		return 0
	}
	return s.count
}

// Get returns a pointer to the first element h refers to.
func (h Handle[T]) Get() (*T, error) {
	return h.At(0)
}

// At returns a pointer to the i'th element h refers to. It panics if i
// is out of range for a valid handle.
func (h Handle[T]) At(i int) (*T, error) {
	s, err := h.slot()
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= s.count {
		panic(errors.Errorf("arena: index %d out of range [0,%d)", i, s.count))
	}
	buf := h.a.seg.Bytes()
	ptr := unsafe.Add(unsafe.Pointer(&buf[s.addr]), uintptr(i)*uintptr(s.elemSize))
	return (*T)(ptr), nil
}

// Stats returns h's allocation metadata.
func (h Handle[T]) Stats() (Stats, error) {
	s, err := h.slot()
	if err != nil {
		return Stats{}, err
	}
	return Stats{Count: s.count, ElemSize: s.elemSize, TotalSize: s.totalSize}, nil
}
