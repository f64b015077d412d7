package service

import (
	"context"

	"github.com/alimikegami/quicart/internal/repository"
	"github.com/alimikegami/quicart/pkg/snapshot"
	"github.com/rs/zerolog/log"
)

// watch emits load's result now and again after every change on the feed.
// The feed is opened before the first load so no change is missed.
func watch[T any](ctx context.Context, open func(ctx context.Context) (repository.ChangeFeed, error), load func(ctx context.Context) (T, error)) (*snapshot.Subscription[T], error) {
	feed, err := open(ctx)
	if err != nil {
		return nil, err
	}

	initial, err := load(ctx)
	if err != nil {
		feed.Close(context.Background())
		return nil, err
	}

	return snapshot.Start(ctx, func(ctx context.Context, emit func(T) bool) error {
		defer feed.Close(context.Background())

		if !emit(initial) {
			return nil
		}

		for feed.Next(ctx) {
			v, err := load(ctx)
			if err != nil {
				log.Ctx(ctx).Error().Err(err).Str("component", "watch").Msg("")
				return err
			}
			if !emit(v) {
				return nil
			}
		}

		return feed.Err()
	}), nil
}
