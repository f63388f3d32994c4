package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/crmhub/crm-backend/internal/core/ports"
)

// idempotencyKeys scopes an IdempotencyStore to one kind of record. Store
// failures are logged and swallowed: the create proceeds as if no key was sent.
type idempotencyKeys struct {
	store  ports.IdempotencyStore
	scope  string
	logger zerolog.Logger
}

func (k idempotencyKeys) lookup(ctx context.Context, key string) (int64, bool) {
	if key == "" || k.store == nil {
		return 0, false
	}
	id, found, err := k.store.Lookup(ctx, k.scope, key)
	if err != nil {
		k.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency lookup failed, creating anyway")
		return 0, false
	}
	return id, found
}

func (k idempotencyKeys) remember(ctx context.Context, key string, id int64) {
	if key == "" || k.store == nil {
		return
	}
	if err := k.store.Remember(ctx, k.scope, key, id); err != nil {
		k.logger.Warn().Err(err).Str("idempotency_key", key).Msg("failed to store idempotency key")
	}
}

// forget drops a mapping whose record no longer exists, so the next create
// with the same key can claim it.
func (k idempotencyKeys) forget(ctx context.Context, key string) {
	if key == "" || k.store == nil {
		return
	}
	if err := k.store.Forget(ctx, k.scope, key); err != nil {
		k.logger.Warn().Err(err).Str("idempotency_key", key).Msg("failed to drop stale idempotency key")
	}
}
