// Package memseg provides the raw byte-slab backing store used by the
// stack and arena allocators. A Segment is plain bytes with no Go
// pointers inside it and, where the platform allows, lives outside the
// Go heap entirely (see memseg_unix.go) so the garbage collector never
// has to scan it.
//
// Values placed into a Segment by the stack or arena allocator must be
// blittable: no pointers, slices, maps, channels or interfaces. Nothing
// in this package enforces that; it is the caller's contract.
package memseg

// Segment is a fixed-size byte buffer. Bytes() exposes it for direct
// placement; Release returns the backing memory.
type Segment struct {
	bytes []byte
}

// Bytes returns the segment's backing buffer. The returned slice is
// valid until Release is called.
func (s *Segment) Bytes() []byte {
	return s.bytes
}

// Len returns the segment size in bytes.
func (s *Segment) Len() int {
	return len(s.bytes)
}
