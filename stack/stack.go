// Package stack implements a LIFO allocator: a contiguous buffer with a
// monotonically advancing cursor, alignment-aware placement, and
// marker-based rewind that runs destructors for everything allocated
// after the marker.
//
// Stack's backing buffer is an internal/memseg.Segment, which on most
// platforms lives outside the Go heap and is never scanned by the
// garbage collector. Types passed to Allocate must therefore be
// blittable: no Go pointers, slices, maps, channels or interfaces.
//
// Stack is not safe for concurrent use.
package stack

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/bnclabs/memarena/internal/memseg"
)

// ErrExhausted is returned by Allocate when the remaining buffer is too
// small for the (aligned) request.
var ErrExhausted = errors.New("stack: exhausted")

// Destructible is implemented by element types that need cleanup when
// the region they were allocated in is rewound. Types that don't
// implement it cost nothing extra: no destructor entry is recorded for
// them.
type Destructible interface {
	Destroy()
}

// Marker is a snapshot of a Stack's state, obtained from GetMarker and
// later passed to Deallocate to rewind to that point.
type Marker struct {
	head            int
	destructorCount int
}

type destructorEntry struct {
	destroy func()
}

// Stack is a LIFO allocator over a fixed-size buffer.
type Stack struct {
	seg   *memseg.Segment
	head  int
	dtors []destructorEntry
}

// New allocates a stack with the given buffer size in bytes.
func New(size int) (*Stack, error) {
	seg, err := memseg.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "stack: new")
	}
	return &Stack{seg: seg}, nil
}

// Allocate reserves space for count contiguous copies of value, aligned
// to T's natural alignment, and returns a pointer to the first one. The
// returned pointer is invalidated by the next call to Deallocate,
// DeallocateAll or Release on the same stack.
func Allocate[T any](s *Stack, count int, value T) (*T, error) {
	if count <= 0 {
		panic(errors.Errorf("stack: invalid count %d", count))
	}

	var zero T
	align := unsafe.Alignof(zero)
	size := unsafe.Sizeof(zero)

	aligned := alignUp(s.head, int(align))
	need := aligned + int(size)*count
	if need > s.seg.Len() {
		return nil, ErrExhausted
	}

	buf := s.seg.Bytes()
	first := (*T)(unsafe.Pointer(&buf[aligned]))
	elem := first
	for i := 0; i < count; i++ {
		*elem = value
		if d, ok := any(elem).(Destructible); ok {
			s.dtors = append(s.dtors, destructorEntry{destroy: d.Destroy})
		}
		elem = (*T)(unsafe.Add(unsafe.Pointer(elem), size))
	}

	s.head = need
	return first, nil
}

// GetMarker snapshots the stack's current state for a later rewind.
func (s *Stack) GetMarker() Marker {
	return Marker{head: s.head, destructorCount: len(s.dtors)}
}

// Deallocate runs the destructors of everything allocated after m, in
// reverse (most-recently-allocated-first) order, then rewinds the
// cursor to m. It panics if m does not describe a valid earlier state
// of this stack.
func (s *Stack) Deallocate(m Marker) {
	if m.head < 0 || m.head > s.head || m.destructorCount > len(s.dtors) {
		panic(errors.Errorf("stack: invalid marker %+v", m))
	}
	for i := len(s.dtors) - 1; i >= m.destructorCount; i-- {
		s.dtors[i].destroy()
	}
	s.dtors = s.dtors[:m.destructorCount]
	s.head = m.head
}

// DeallocateAll rewinds the stack to empty, running every outstanding
// destructor in reverse allocation order.
func (s *Stack) DeallocateAll() {
	s.Deallocate(Marker{})
}

// Release asserts the stack is empty. It panics if anything is still
// allocated.
func (s *Stack) Release() {
	if s.head != 0 {
		panic(errors.Errorf("stack: Release called with %d bytes still allocated", s.head))
	}
}

func alignUp(offset, align int) int {
	if align <= 1 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}
