//go:build debug

package pool

import "github.com/pkg/errors"

// checkLive panics if slot i is not currently allocated, catching
// double-frees and frees of bogus pointers that nonetheless land on a
// slot boundary.
func (p *Pool[T]) checkLive(i int32) {
	if !p.allocated[i] {
		panic(errors.Errorf("pool: double free of slot %d", i))
	}
}

// checkEmpty panics if any slot is still allocated.
func (p *Pool[T]) checkEmpty() {
	if p.live != 0 {
		panic(errors.Errorf("pool: Release called with %d slots still allocated", p.live))
	}
}
