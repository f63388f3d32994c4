package ports

import "context"

// IdempotencyStore remembers which record a client-supplied idempotency key
// produced, so a retried create can return it instead of creating twice.
type IdempotencyStore interface {
	// Lookup returns the record ID stored for key within scope, if any.
	Lookup(ctx context.Context, scope, key string) (id int64, found bool, err error)
	// Remember stores id for key. An existing mapping is kept.
	Remember(ctx context.Context, scope, key string, id int64) error
	// Forget removes the mapping for key.
	Forget(ctx context.Context, scope, key string) error
}
