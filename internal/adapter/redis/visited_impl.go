package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/revenue-tracker/pkg/utils"
)

const seenURLPrefix = "tracker:seen:"

// SeenIndexImpl implements repository.SeenIndex on Redis string keys.
type SeenIndexImpl struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSeenIndex creates a SeenIndexImpl. A zero ttl keeps keys forever.
func NewSeenIndex(client *redis.Client, ttl time.Duration) *SeenIndexImpl {
	return &SeenIndexImpl{client: client, ttl: ttl}
}

// generateKey creates a consistent Redis key for a given URL by hashing it.
func (r *SeenIndexImpl) generateKey(url string) string {
	return fmt.Sprintf("%s%s", seenURLPrefix, utils.HashURL(url))
}

// Claim records url with SETNX so that concurrent claims have one winner.
func (r *SeenIndexImpl) Claim(ctx context.Context, url string) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.generateKey(url), time.Now().UTC().Format(time.RFC3339), r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (r *SeenIndexImpl) Exists(ctx context.Context, url string) (bool, error) {
	val, err := r.client.Exists(ctx, r.generateKey(url)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return val == 1, nil
}

// Release removes a URL so the next run processes it again.
func (r *SeenIndexImpl) Release(ctx context.Context, url string) error {
	if err := r.client.Del(ctx, r.generateKey(url)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
