package stripewebhook

import (
	"context"
	"time"
)

const guardScope = "stripe-event"

type idempotencyStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// Guard deduplicates webhook deliveries. Stripe retries events until
// acknowledged, so each event ID is claimed before processing and released
// again if processing fails.
type Guard struct {
	store idempotencyStore
	ttl   time.Duration
}

// NewGuard builds a guard; claims expire after ttl so storage cannot grow
// without bound.
func NewGuard(store idempotencyStore, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Guard{store: store, ttl: ttl}
}

// CheckAndMark claims the event ID. It returns true when this delivery is the
// first, false when the event was already handled.
func (g *Guard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	return g.store.SetNX(ctx, g.store.IdempotencyKey(guardScope, eventID), "1", g.ttl)
}

// Release drops the claim so a retried delivery can run after a failure.
func (g *Guard) Release(ctx context.Context, eventID string) error {
	return g.store.Del(ctx, g.store.IdempotencyKey(guardScope, eventID))
}
