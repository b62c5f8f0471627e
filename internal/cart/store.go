package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/farmbasket/farmbasket-backend/pkg/logger"
	"github.com/farmbasket/farmbasket-backend/pkg/metrics"
	redispkg "github.com/farmbasket/farmbasket-backend/pkg/redis"
)

// Store is the durable holder of a cart's line items, one JSON array per cart
// key. It is the sole source of truth for cart contents; every mutation reads
// the full list, transforms it, and writes the full list back.
type Store interface {
	// Read returns the current items for the key. It fails soft: a missing
	// key, a non-array payload, or a decode error all yield an empty list and
	// a nil error.
	Read(ctx context.Context, key string) ([]LineItem, error)
	// Write replaces the stored items wholesale and signals the Notifier.
	Write(ctx context.Context, key string, items []LineItem) error
	// AddItem merges the item into the stored list (quantity accumulates per
	// ID) and persists the result.
	AddItem(ctx context.Context, key string, item LineItem) error
	// Clear writes the empty list.
	Clear(ctx context.Context, key string) error
}

type kvBackend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CartKey(cartKey string) string
}

type changeNotifier interface {
	Notify(ctx context.Context, cartKey string)
}

// RedisStore persists carts in Redis under fb:cart:<key>.
type RedisStore struct {
	kv       kvBackend
	notifier changeNotifier
	logg     *logger.Logger
	metrics  *metrics.CartMetrics
	ttl      time.Duration
}

// NewRedisStore builds the Redis-backed cart store.
func NewRedisStore(kv kvBackend, notifier changeNotifier, logg *logger.Logger, cartMetrics *metrics.CartMetrics, ttl time.Duration) (*RedisStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv backend required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &RedisStore{
		kv:       kv,
		notifier: notifier,
		logg:     logg,
		metrics:  cartMetrics,
		ttl:      ttl,
	}, nil
}

func (s *RedisStore) Read(ctx context.Context, key string) ([]LineItem, error) {
	if key == "" {
		return []LineItem{}, nil
	}

	raw, err := s.kv.Get(ctx, s.kv.CartKey(key))
	if err != nil {
		if errors.Is(err, redispkg.ErrNil) {
			return []LineItem{}, nil
		}
		// Backend unavailable is a real error; only decode problems fail soft.
		return nil, err
	}

	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.metrics.IncDecodeFailure()
		if s.logg != nil {
			s.logg.Warn(s.logg.WithCartKey(ctx, key), "cart payload failed to decode, treating as empty")
		}
		return []LineItem{}, nil
	}
	if items == nil {
		items = []LineItem{}
	}
	return items, nil
}

func (s *RedisStore) Write(ctx context.Context, key string, items []LineItem) error {
	if key == "" {
		return fmt.Errorf("cart key required")
	}
	if items == nil {
		items = []LineItem{}
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.kv.Set(ctx, s.kv.CartKey(key), string(payload), s.ttl); err != nil {
		return err
	}

	s.metrics.IncWrite("write")
	// The signal follows the completed write so any subscriber that re-reads
	// observes state at least as new as this write.
	s.notifier.Notify(ctx, key)
	return nil
}

func (s *RedisStore) AddItem(ctx context.Context, key string, item LineItem) error {
	items, err := s.Read(ctx, key)
	if err != nil {
		return err
	}
	s.metrics.IncWrite("add_item")
	return s.Write(ctx, key, MergeItem(items, item))
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	s.metrics.IncWrite("clear")
	return s.Write(ctx, key, []LineItem{})
}
