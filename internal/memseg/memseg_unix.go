//go:build unix

package memseg

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// New maps size bytes of anonymous, private memory for a new Segment.
// The mapping is outside the Go heap: the garbage collector will never
// scan it for pointers.
func New(size int) (*Segment, error) {
	if size <= 0 {
		return nil, errors.Errorf("memseg: invalid size %d", size)
	}
	b, err := unix.Mmap(
		-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE,
	)
	if err != nil {
		return nil, errors.Wrap(err, "memseg: mmap failed")
	}
	return &Segment{bytes: b}, nil
}

// Release unmaps the segment's memory. The segment must not be used
// afterwards.
func (s *Segment) Release() error {
	if s.bytes == nil {
		return nil
	}
	err := unix.Munmap(s.bytes)
	s.bytes = nil
	if err != nil {
		return errors.Wrap(err, "memseg: munmap failed")
	}
	return nil
}
