package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore maps client-supplied idempotency keys to the ID of the
// record they created. Key format: idem:<scope>:<key>
type IdempotencyStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewIdempotencyStore wraps client. Keys expire after ttl, or after
// defaultIdempotencyTTL when ttl is not positive.
func NewIdempotencyStore(client redis.Cmdable, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Lookup returns the record ID stored for key, if any.
func (s *IdempotencyStore) Lookup(ctx context.Context, scope, key string) (int64, bool, error) {
	raw, err := s.client.Get(ctx, s.key(scope, key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("idempotency lookup: %w", err)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("idempotency lookup: corrupt value %q: %w", raw, err)
	}
	return id, true, nil
}

// Remember stores id for key. An existing mapping is kept.
func (s *IdempotencyStore) Remember(ctx context.Context, scope, key string, id int64) error {
	if err := s.client.SetNX(ctx, s.key(scope, key), strconv.FormatInt(id, 10), s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency remember: %w", err)
	}
	return nil
}

// Forget deletes the mapping for key. A missing key is not an error.
func (s *IdempotencyStore) Forget(ctx context.Context, scope, key string) error {
	if err := s.client.Del(ctx, s.key(scope, key)).Err(); err != nil {
		return fmt.Errorf("idempotency forget: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}
