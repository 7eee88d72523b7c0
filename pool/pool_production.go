//go:build !debug

package pool

// checkLive is a no-op in production builds: double-free of a slot is
// undefined behaviour, not a checked error, matching the original
// allocator's contract.
func (p *Pool[T]) checkLive(i int32) {}

// checkEmpty is a no-op in production builds.
func (p *Pool[T]) checkEmpty() {}
