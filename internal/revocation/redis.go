package revocation

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "revoked_token:"

// RedisStore is a shared revocation set for multi-node deployments. Each
// entry is written with a TTL equal to the token's remaining lifetime, so
// Redis expires it exactly when the expiry check would start rejecting the
// token anyway.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// Revoke writes the token id with the remaining-lifetime TTL. Tokens that
// have already expired are not recorded.
func (s *RedisStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	remaining := expiresAt.Sub(s.now())
	if remaining <= 0 {
		return nil
	}
	return s.client.Set(ctx, redisKeyPrefix+tokenID, "1", remaining).Err()
}

// IsRevoked checks for the token id. Errors propagate so the verifier can
// fail closed instead of treating an unreachable store as "not revoked".
func (s *RedisStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, redisKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
