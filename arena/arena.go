// Package arena implements a relocating general-purpose allocator:
// variable-size allocation from one contiguous buffer with first-fit
// placement, coalescing free, handle-mediated references, and online
// defragmentation.
//
// Like the stack package, arena's backing buffer is an
// internal/memseg.Segment and is not scanned by the garbage collector,
// so element types used with Allocate must be blittable.
//
// Allocator is not safe for concurrent use.
package arena

import (
	"sort"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/bnclabs/memarena/internal/alloclog"
	"github.com/bnclabs/memarena/internal/memseg"
)

// chunk is a run of free bytes at addr, sorted and coalesced against
// its neighbors by insertFree.
type chunk struct {
	addr int
	size int
}

// slot is a handle record: where an allocation currently lives, how big
// it is, and the type-erased callbacks needed to destroy or relocate it
// without the allocator knowing its element type.
type slot struct {
	addr       int
	count      int
	elemSize   int
	totalSize  int
	live       bool
	destroyAt  func(buf []byte, addr int)
	relocateAt func(buf []byte, newAddr int)
}

// Stats describes a handle's allocation.
type Stats struct {
	Count     int
	ElemSize  int
	TotalSize int
}

// Allocator is a single contiguous arena with handle-mediated,
// relocatable allocations.
type Allocator struct {
	seg  *memseg.Segment
	free []chunk

	slots     []slot
	freeSlots []int
	maxSlots  int // 0 means unlimited

	handleTable map[int]int // current address -> slot index

	logger alloclog.Logger
}

// New creates an allocator over a buffer of size bytes.
func New(size int, opts ...Option) (*Allocator, error) {
	seg, err := memseg.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "arena: new")
	}
	a := &Allocator{
		seg:         seg,
		free:        []chunk{{addr: 0, size: size}},
		handleTable: make(map[int]int),
		logger:      alloclog.Default("info"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// AvailableMemory returns the total bytes currently free across every
// chunk in the allocator's free list.
func (a *Allocator) AvailableMemory() int {
	total := 0
	for _, c := range a.free {
		total += c.size
	}
	return total
}

// DebugChunks logs one line per free chunk through the allocator's
// logger. This is the non-normative debugging hook; it has no effect on
// allocator state.
func (a *Allocator) DebugChunks() {
	for _, c := range a.free {
		a.logger.Debugf("arena: free chunk addr=%d size=%d", c.addr, c.size)
	}
}

// Defragment walks every live handle in ascending current-address
// order, relocates each one that is not already packed against its
// predecessor, and replaces the free list with a single trailing
// chunk. Handles remain valid across a Defragment call; only the raw
// pointers obtained from Get/At are invalidated.
func (a *Allocator) Defragment() {
	type liveEntry struct {
		addr int
		idx  int
	}
	live := make([]liveEntry, 0, len(a.slots))
	for idx := range a.slots {
		if a.slots[idx].live {
			live = append(live, liveEntry{addr: a.slots[idx].addr, idx: idx})
		}
	}
	sort.Slice(live, func(i, j int) bool { return live[i].addr < live[j].addr })

	buf := a.seg.Bytes()
	cursor, moved := 0, 0
	for _, e := range live {
		s := &a.slots[e.idx]
		if s.addr != cursor {
			copy(buf[cursor:cursor+s.totalSize], buf[s.addr:s.addr+s.totalSize])
			if s.relocateAt != nil {
				s.relocateAt(buf, cursor)
			}
			s.addr = cursor
			moved++
		}
		cursor += s.totalSize
	}

	table := make(map[int]int, len(live))
	for _, e := range live {
		table[a.slots[e.idx].addr] = e.idx
	}
	a.handleTable = table

	reclaimed := len(buf) - cursor
	if reclaimed > 0 {
		a.free = []chunk{{addr: cursor, size: reclaimed}}
	} else {
		a.free = nil
	}
	a.logger.Infof("arena: defragment moved=%d reclaimed=%d", moved, reclaimed)
}

func (a *Allocator) firstFit(size int) int {
	for i, c := range a.free {
		if c.size >= size {
			return i
		}
	}
	return -1
}

// insertFree inserts c into the sorted free list, coalescing with
// whichever address-adjacent neighbors it touches.
func (a *Allocator) insertFree(c chunk) {
	i := sort.Search(len(a.free), func(i int) bool { return a.free[i].addr >= c.addr })

	mergeLeft := i > 0 && a.free[i-1].addr+a.free[i-1].size == c.addr
	mergeRight := i < len(a.free) && c.addr+c.size == a.free[i].addr

	switch {
	case mergeLeft && mergeRight:
		a.free[i-1].size += c.size + a.free[i].size
		a.free = append(a.free[:i], a.free[i+1:]...)
	case mergeLeft:
		a.free[i-1].size += c.size
	case mergeRight:
		a.free[i].addr = c.addr
		a.free[i].size += c.size
	default:
		a.free = append(a.free, chunk{})
		copy(a.free[i+1:], a.free[i:])
		a.free[i] = c
	}
}

func (a *Allocator) newSlot() (int, error) {
	if n := len(a.freeSlots); n > 0 {
		idx := a.freeSlots[n-1]
		a.freeSlots = a.freeSlots[:n-1]
		return idx, nil
	}
	if a.maxSlots > 0 && len(a.slots) >= a.maxSlots {
		return 0, ErrOutOfHandles
	}
	a.slots = append(a.slots, slot{})
	return len(a.slots) - 1, nil
}

func (a *Allocator) freeSlot(idx int) {
	a.slots[idx] = slot{}
	a.freeSlots = append(a.freeSlots, idx)
}

// Destructible is implemented by element types that need cleanup when
// their handle is deallocated.
type Destructible interface {
	Destroy()
}

// Relocatable is implemented by element types that need to fix up
// self-referential state after Defragment byte-copies them to a new
// address. The byte-copy itself always happens regardless; Relocate is
// an optional hook layered on top of it.
type Relocatable interface {
	Relocate(newAddr unsafe.Pointer)
}

func destroyerFor[T any](count int, elemSize uintptr) func(buf []byte, addr int) {
	if _, ok := any((*T)(nil)).(Destructible); !ok {
		return nil
	}
	return func(buf []byte, addr int) {
		base := unsafe.Pointer(&buf[addr])
		for i := 0; i < count; i++ {
			e := (*T)(unsafe.Add(base, uintptr(i)*elemSize))
			any(e).(Destructible).Destroy()
		}
	}
}

func relocatorFor[T any](count int, elemSize uintptr) func(buf []byte, newAddr int) {
	if _, ok := any((*T)(nil)).(Relocatable); !ok {
		return nil
	}
	return func(buf []byte, newAddr int) {
		base := unsafe.Pointer(&buf[newAddr])
		for i := 0; i < count; i++ {
			e := (*T)(unsafe.Add(base, uintptr(i)*elemSize))
			any(e).(Relocatable).Relocate(unsafe.Pointer(e))
		}
	}
}

// Allocate carves space for count contiguous copies of value from the
// first free chunk that fits, and returns a handle to them.
//
// Handle-pool exhaustion (ErrOutOfHandles) is checked before any free
// chunk is carved, so either error leaves the allocator's state
// unchanged.
func Allocate[T any](a *Allocator, count int, value T) (Handle[T], error) {
	if count <= 0 {
		panic(errors.Errorf("arena: invalid count %d", count))
	}

	elemSize := int(unsafe.Sizeof(value))
	total := elemSize * count

	idx, err := a.newSlot()
	if err != nil {
		return Handle[T]{}, err
	}

	ci := a.firstFit(total)
	if ci < 0 {
		a.freeSlot(idx)
		a.logger.Warnf("arena: out of memory requesting %d bytes", total)
		return Handle[T]{}, ErrOutOfMemory
	}

	addr := a.free[ci].addr
	if a.free[ci].size == total {
		a.free = append(a.free[:ci], a.free[ci+1:]...)
	} else {
		a.free[ci].addr += total
		a.free[ci].size -= total
	}

	buf := a.seg.Bytes()
	base := unsafe.Pointer(&buf[addr])
	for i := 0; i < count; i++ {
		e := (*T)(unsafe.Add(base, uintptr(i)*uintptr(elemSize)))
		*e = value
	}

	s := &a.slots[idx]
	*s = slot{
		addr:       addr,
		count:      count,
		elemSize:   elemSize,
		totalSize:  total,
		live:       true,
		destroyAt:  destroyerFor[T](count, uintptr(elemSize)),
		relocateAt: relocatorFor[T](count, uintptr(elemSize)),
	}
	a.handleTable[addr] = idx

	return Handle[T]{a: a, idx: idx}, nil
}

// Deallocate destroys every element referenced by h (for types
// implementing Destructible), frees and coalesces its memory, and
// recycles its handle slot.
func Deallocate[T any](a *Allocator, h Handle[T]) error {
	if h.a != a {
		return ErrInvalidHandle
	}
	s, err := h.slot()
	if err != nil {
		return err
	}
	if s.destroyAt != nil {
		s.destroyAt(a.seg.Bytes(), s.addr)
	}
	a.insertFree(chunk{addr: s.addr, size: s.totalSize})
	delete(a.handleTable, s.addr)
	a.freeSlot(h.idx)
	return nil
}
