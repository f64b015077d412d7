// Package snapshot delivers full-state snapshots of a changing value to a
// single consumer.
package snapshot

import (
	"context"
	"sync"
)

// Subscription is a live stream of snapshots. It holds at most one unread
// snapshot: a newer one replaces it, so a slow consumer never stalls the
// producer and always reads the latest state. The consumer must call Close
// when done; the Updates channel is closed afterwards.
type Subscription[T any] struct {
	updates chan T
	cancel  context.CancelFunc
	done    chan struct{}

	mu  sync.Mutex
	err error
}

// Producer pushes snapshots through emit until ctx is cancelled. emit
// returns false once the subscription is closed.
type Producer[T any] func(ctx context.Context, emit func(T) bool) error

func Start[T any](ctx context.Context, produce Producer[T]) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)

	s := &Subscription[T]{
		updates: make(chan T, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		defer close(s.updates)

		err := produce(ctx, s.emitter(ctx))
		if err != nil && ctx.Err() == nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
		}
	}()

	return s
}

// emitter replaces an unread snapshot instead of waiting for the consumer.
// Only the producer goroutine sends, so the drained slot stays free.
func (s *Subscription[T]) emitter(ctx context.Context) func(T) bool {
	return func(v T) bool {
		if ctx.Err() != nil {
			return false
		}

		for {
			select {
			case s.updates <- v:
				return true
			default:
			}

			select {
			case <-s.updates:
			default:
			}
		}
	}
}

func (s *Subscription[T]) Updates() <-chan T {
	return s.updates
}

// Err reports why the stream ended on its own. It is nil after Close.
func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops the producer and waits for it to exit.
func (s *Subscription[T]) Close() {
	s.cancel()
	<-s.done
}
