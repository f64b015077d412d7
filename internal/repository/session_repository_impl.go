package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alimikegami/quicart/pkg/errs"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const (
	revokedTokenPrefix  = "session:revoked"
	passwordResetPrefix = "password-reset"
)

type RedisSessionRepositoryImpl struct {
	client *redis.Client
}

func CreateSessionRepository(client *redis.Client) SessionRepository {
	return &RedisSessionRepositoryImpl{client: client}
}

func (r *RedisSessionRepositoryImpl) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) (err error) {
	if ttl <= 0 {
		return nil
	}

	err = r.client.Set(ctx, revokedTokenKey(tokenID), 1, ttl).Err()
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "RevokeToken").Msg("")
		return errs.Gateway(err)
	}

	return nil
}

func (r *RedisSessionRepositoryImpl) IsTokenRevoked(ctx context.Context, tokenID string) (revoked bool, err error) {
	n, err := r.client.Exists(ctx, revokedTokenKey(tokenID)).Result()
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "IsTokenRevoked").Msg("")
		return false, errs.Gateway(err)
	}

	return n > 0, nil
}

func (r *RedisSessionRepositoryImpl) SavePasswordResetToken(ctx context.Context, token string, userID string, ttl time.Duration) (err error) {
	err = r.client.Set(ctx, passwordResetKey(token), userID, ttl).Err()
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "SavePasswordResetToken").Msg("")
		return errs.Gateway(err)
	}

	return nil
}

func (r *RedisSessionRepositoryImpl) ConsumePasswordResetToken(ctx context.Context, token string) (userID string, err error) {
	userID, err = r.client.GetDel(ctx, passwordResetKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", errs.ErrTokenExpired
		}

		log.Ctx(ctx).Error().Err(err).Str("component", "ConsumePasswordResetToken").Msg("")
		return "", errs.Gateway(err)
	}

	return userID, nil
}

func revokedTokenKey(tokenID string) string {
	return fmt.Sprintf("%s:%s", revokedTokenPrefix, tokenID)
}

func passwordResetKey(token string) string {
	return fmt.Sprintf("%s:%s", passwordResetPrefix, token)
}
