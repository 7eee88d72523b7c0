package arena

import "github.com/pkg/errors"

// ErrOutOfMemory is returned by Allocate when no free chunk is large
// enough for the request. The allocator's state is left unchanged.
var ErrOutOfMemory = errors.New("arena: out of memory")

// ErrOutOfHandles is returned by Allocate when a WithMaxHandles cap has
// been configured and is exhausted. The allocator's state is left
// unchanged; this is checked before any free chunk is carved.
var ErrOutOfHandles = errors.New("arena: out of handles")

// ErrInvalidHandle is returned by Deallocate and by Handle's accessors
// when the handle does not refer to a live allocation on the allocator
// it is used with.
var ErrInvalidHandle = errors.New("arena: invalid handle")
