package stack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type vec3 struct{ X, Y, Z float64 }

type counter struct {
	n *int
}

func (c counter) Destroy() {
	*c.n++
}

func TestAllocateWritesValue(t *testing.T) {
	s, err := New(1024)
	require.NoError(t, err)

	p, err := Allocate(s, 1, vec3{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, vec3{1, 2, 3}, *p)
}

func TestAllocateArrayAdvancesHeadBySize(t *testing.T) {
	s, err := New(1024)
	require.NoError(t, err)

	before := s.head
	_, err = Allocate(s, 4, int64(7))
	require.NoError(t, err)
	require.Equal(t, before+32, s.head)
}

func TestMarkerRewindRunsDestructorsInReverse(t *testing.T) {
	s, err := New(1024)
	require.NoError(t, err)

	m := s.GetMarker()

	var order []int
	c1 := counter{n: new(int)}
	c2 := counter{n: new(int)}
	_, err = Allocate(s, 1, c1)
	require.NoError(t, err)
	_, err = Allocate(s, 1, c2)
	require.NoError(t, err)
	require.Equal(t, 2, len(s.dtors))

	// Wrap destroy to record call order without changing Deallocate's
	// mechanics: replace the recorded closures directly.
	s.dtors[0].destroy = func() { order = append(order, 1) }
	s.dtors[1].destroy = func() { order = append(order, 2) }

	s.Deallocate(m)

	require.Equal(t, []int{2, 1}, order)
	require.Equal(t, m.head, s.head)
	require.Equal(t, 0, len(s.dtors))
}

func TestExhaustedWhenTooSmall(t *testing.T) {
	s, err := New(8)
	require.NoError(t, err)

	_, err = Allocate(s, 1, int64(1))
	require.NoError(t, err)

	_, err = Allocate(s, 1, int64(1))
	require.ErrorIs(t, err, ErrExhausted)
}

func TestReleasePanicsWhenNotEmpty(t *testing.T) {
	s, err := New(64)
	require.NoError(t, err)

	_, err = Allocate(s, 1, int32(1))
	require.NoError(t, err)

	require.Panics(t, func() { s.Release() })
}

func TestDeallocateAllResetsToZero(t *testing.T) {
	s, err := New(64)
	require.NoError(t, err)

	_, err = Allocate(s, 1, int32(1))
	require.NoError(t, err)
	_, err = Allocate(s, 1, int32(2))
	require.NoError(t, err)

	s.DeallocateAll()
	require.Equal(t, 0, s.head)
	s.Release()
}

func TestInvalidMarkerPanics(t *testing.T) {
	s, err := New(64)
	require.NoError(t, err)

	require.Panics(t, func() { s.Deallocate(Marker{head: 100}) })
}
