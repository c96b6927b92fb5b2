package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList is a Redis implementation of app.RevocationRepository.
// Each revoked token ID is a key that expires together with the token,
// so every instance behind a load balancer sees the same logouts.
type RevocationList struct {
	client *redis.Client
}

func NewRevocationList(client *redis.Client) *RevocationList {
	return &RevocationList{client: client}
}

func (l *RevocationList) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return l.client.Set(ctx, l.key(tokenID), "1", ttl).Err()
}

func (l *RevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := l.client.Get(ctx, l.key(tokenID)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, err
	}
}

func (l *RevocationList) key(tokenID string) string {
	return "auth:revoked:" + tokenID
}
