package arena

import (
	"github.com/bnclabs/memarena/internal/alloclog"
	"github.com/bnclabs/memarena/internal/lib"
)

// Option configures an Allocator at construction time.
type Option func(*Allocator)

// WithLogger overrides the allocator's default stderr logger.
func WithLogger(l alloclog.Logger) Option {
	return func(a *Allocator) { a.logger = l }
}

// WithMaxHandles caps the number of live handles the allocator will
// grow its handle pool to. Zero (the default) means unlimited: the
// handle pool grows with demand and never returns ErrOutOfHandles.
func WithMaxHandles(n int) Option {
	return func(a *Allocator) { a.maxSlots = n }
}

// WithSettings reads "log.level" and "maxhandles" out of s, applying
// whichever keys are present.
func WithSettings(s lib.Settings) Option {
	return func(a *Allocator) {
		if lvl, ok := s.String("log.level"); ok {
			a.logger.SetLogLevel(lvl)
		}
		if n, ok := s.Int("maxhandles"); ok {
			a.maxSlots = n
		}
	}
}
