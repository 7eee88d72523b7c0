package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocateAndGetRoundTrip(t *testing.T) {
	a, err := New(1024)
	require.NoError(t, err)

	h, err := Allocate(a, 1, int64(42))
	require.NoError(t, err)

	p, err := h.Get()
	require.NoError(t, err)
	require.Equal(t, int64(42), *p)
}

func TestAllocateArrayIndexing(t *testing.T) {
	a, err := New(1024)
	require.NoError(t, err)

	h, err := Allocate(a, 4, int32(0))
	require.NoError(t, err)
	require.Equal(t, 4, h.Len())

	for i := 0; i < 4; i++ {
		p, err := h.At(i)
		require.NoError(t, err)
		*p = int32(i * 10)
	}
	for i := 0; i < 4; i++ {
		p, err := h.At(i)
		require.NoError(t, err)
		require.Equal(t, int32(i*10), *p)
	}
}

func TestOutOfMemory(t *testing.T) {
	a, err := New(8)
	require.NoError(t, err)

	_, err = Allocate(a, 1, int64(1))
	require.NoError(t, err)

	_, err = Allocate(a, 1, int64(1))
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.Equal(t, 0, a.AvailableMemory())
}

func TestOutOfHandlesWhenCapped(t *testing.T) {
	a, err := New(1024, WithMaxHandles(1))
	require.NoError(t, err)

	_, err = Allocate(a, 1, int8(1))
	require.NoError(t, err)

	_, err = Allocate(a, 1, int8(1))
	require.ErrorIs(t, err, ErrOutOfHandles)
	// state unchanged: still one chunk's worth of memory reserved, rest free
	require.Equal(t, 1023, a.AvailableMemory())
}

func TestDeallocateCoalescesWithBothNeighbors(t *testing.T) {
	a, err := New(24)
	require.NoError(t, err)

	h1, err := Allocate(a, 1, int64(1)) // [0,8)
	require.NoError(t, err)
	h2, err := Allocate(a, 1, int64(2)) // [8,16)
	require.NoError(t, err)
	h3, err := Allocate(a, 1, int64(3)) // [16,24)
	require.NoError(t, err)

	require.NoError(t, Deallocate(a, h1))
	require.NoError(t, Deallocate(a, h3))
	require.Equal(t, 16, a.AvailableMemory())

	require.NoError(t, Deallocate(a, h2))
	require.Equal(t, 24, a.AvailableMemory())
	require.Len(t, a.free, 1)
	require.Equal(t, chunk{addr: 0, size: 24}, a.free[0])
}

func TestInvalidHandleAfterDeallocate(t *testing.T) {
	a, err := New(64)
	require.NoError(t, err)

	h, err := Allocate(a, 1, int64(1))
	require.NoError(t, err)
	require.NoError(t, Deallocate(a, h))

	require.False(t, h.Valid())
	_, err = h.Get()
	require.ErrorIs(t, err, ErrInvalidHandle)
	require.ErrorIs(t, Deallocate(a, h), ErrInvalidHandle)
}

func TestDefragmentPacksLiveHandlesAndPreservesIdentity(t *testing.T) {
	a, err := New(32)
	require.NoError(t, err)

	h1, err := Allocate(a, 1, int64(1)) // [0,8)
	require.NoError(t, err)
	h2, err := Allocate(a, 1, int64(2)) // [8,16)
	require.NoError(t, err)
	h3, err := Allocate(a, 1, int64(3)) // [16,24)
	require.NoError(t, err)

	require.NoError(t, Deallocate(a, h2))

	a.Defragment()

	require.True(t, h1.Valid())
	require.True(t, h3.Valid())

	p1, err := h1.Get()
	require.NoError(t, err)
	require.Equal(t, int64(1), *p1)

	p3, err := h3.Get()
	require.NoError(t, err)
	require.Equal(t, int64(3), *p3)

	require.Len(t, a.free, 1)
	require.Equal(t, 16, a.AvailableMemory())
	require.Equal(t, chunk{addr: 16, size: 16}, a.free[0])
}

type tracker struct {
	destroyed *bool
}

func (t tracker) Destroy() {
	*t.destroyed = true
}

func TestDeallocateRunsDestructor(t *testing.T) {
	a, err := New(64)
	require.NoError(t, err)

	destroyed := false
	h, err := Allocate(a, 1, tracker{destroyed: &destroyed})
	require.NoError(t, err)

	require.NoError(t, Deallocate(a, h))
	require.True(t, destroyed)
}

func TestHandlesFromDifferentAllocatorsAreInvalid(t *testing.T) {
	a1, err := New(64)
	require.NoError(t, err)
	a2, err := New(64)
	require.NoError(t, err)

	h, err := Allocate(a1, 1, int64(1))
	require.NoError(t, err)

	require.ErrorIs(t, Deallocate(a2, h), ErrInvalidHandle)
}
