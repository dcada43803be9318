// Package lifecycle exposes notebox event streams as lifecycle sources.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/notebox/pkg/core"
)

type source[E fmt.Stringer] struct {
	events <-chan E
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that emits store events (core.Event).
func NewSource(events <-chan core.Event) lifecycle.Source {
	return newSource(events)
}

// NewStorageSource creates a lifecycle.Source that emits storage changes
// (core.StorageEvent) reported by a core.Watchable.
func NewStorageSource(events <-chan core.StorageEvent) lifecycle.Source {
	return newSource(events)
}

func newSource[E fmt.Stringer](events <-chan E) *source[E] {
	return &source[E]{
		events: events,
		out:    make(chan lifecycle.Event),
	}
}

func (s *source[E]) Events() <-chan lifecycle.Event {
	return s.out
}

// Start forwards events until ctx is done or the input closes, then closes
// the output channel.
func (s *source[E]) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
