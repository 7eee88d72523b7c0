//go:build !unix

package memseg

import "github.com/pkg/errors"

// New allocates size bytes on the Go heap for a new Segment. On
// platforms without an mmap-family syscall this is the only backing
// store available; the blittability contract in the package doc still
// applies, since the stack and arena allocators do their own byte-level
// placement into this buffer regardless of where it came from.
func New(size int) (*Segment, error) {
	if size <= 0 {
		return nil, errors.Errorf("memseg: invalid size %d", size)
	}
	return &Segment{bytes: make([]byte, size)}, nil
}

// Release drops the segment's reference to its backing buffer so it can
// be garbage collected. The segment must not be used afterwards.
func (s *Segment) Release() error {
	s.bytes = nil
	return nil
}
