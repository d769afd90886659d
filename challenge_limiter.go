package authguard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var errChallengeRateLimited = errors.New("challenge rate limited")

// challengeLimiter budgets failed two-factor challenges per user: INCR with
// a cooldown expiry on first failure, reset on success. It protects the
// code space from online guessing independently of IP reputation.
type challengeLimiter struct {
	redis       redis.UniversalClient
	maxAttempts int64
	cooldown    time.Duration
}

func newChallengeLimiter(redisClient redis.UniversalClient, cfg TOTPConfig) *challengeLimiter {
	return &challengeLimiter{
		redis:       redisClient,
		maxAttempts: int64(cfg.MaxAttempts),
		cooldown:    cfg.Cooldown,
	}
}

func (l *challengeLimiter) key(userID string) string {
	return "tfa:att:" + userID
}

func (l *challengeLimiter) Check(ctx context.Context, userID string) error {
	count, err := l.redis.Get(ctx, l.key(userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrCredentialUnavailable, err)
	}
	if count >= l.maxAttempts {
		return errChallengeRateLimited
	}
	return nil
}

func (l *challengeLimiter) RecordFailure(ctx context.Context, userID string) error {
	count, err := l.redis.Incr(ctx, l.key(userID)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCredentialUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, l.key(userID), l.cooldown).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrCredentialUnavailable, err)
		}
	}
	if count >= l.maxAttempts {
		return errChallengeRateLimited
	}
	return nil
}

func (l *challengeLimiter) Reset(ctx context.Context, userID string) error {
	if err := l.redis.Del(ctx, l.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCredentialUnavailable, err)
	}
	return nil
}
