package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	redispkg "github.com/farmbasket/farmbasket-backend/pkg/redis"
)

type fakeKV struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
	setErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: make(map[string]string)}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", f.getErr
	}
	raw, ok := f.values[key]
	if !ok {
		return "", redispkg.ErrNil
	}
	return raw, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value.(string)
	return nil
}

func (f *fakeKV) CartKey(cartKey string) string {
	return "fb:cart:" + cartKey
}

type recordingNotifier struct {
	mu   sync.Mutex
	keys []string
}

func (r *recordingNotifier) Notify(_ context.Context, cartKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, cartKey)
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}

func newTestStore(t *testing.T) (*RedisStore, *fakeKV, *recordingNotifier) {
	t.Helper()
	kv := newFakeKV()
	notifier := &recordingNotifier{}
	store, err := NewRedisStore(kv, notifier, nil, nil, 0)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	return store, kv, notifier
}

func TestRedisStoreReadMissingKeyIsEmpty(t *testing.T) {
	t.Parallel()

	store, _, _ := newTestStore(t)
	items, err := store.Read(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty cart, got %+v", items)
	}
}

func TestRedisStoreReadMalformedPayloadIsEmpty(t *testing.T) {
	t.Parallel()

	store, kv, _ := newTestStore(t)
	kv.values["fb:cart:abc"] = "not-a-cart"

	items, err := store.Read(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected malformed payload to read as empty, got %+v", items)
	}
}

func TestRedisStoreReadNonArrayPayloadIsEmpty(t *testing.T) {
	t.Parallel()

	store, kv, _ := newTestStore(t)
	kv.values["fb:cart:abc"] = `{"id":"p1"}`

	items, err := store.Read(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected non-array payload to read as empty, got %+v", items)
	}
}

func TestRedisStoreWriteRoundTrip(t *testing.T) {
	t.Parallel()

	store, _, notifier := newTestStore(t)
	ctx := context.Background()

	want := []LineItem{
		{ID: "p1", Name: "Heirloom Tomatoes", Price: 4.99, Quantity: 2},
		{ID: "p2", Name: "Wildflower Honey", Price: 11.00, Quantity: 1},
	}
	if err := store.Write(ctx, "abc", want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := store.Read(ctx, "abc")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if notifier.count() != 1 {
		t.Fatalf("expected one change signal, got %d", notifier.count())
	}
}

func TestRedisStoreAddItemMerges(t *testing.T) {
	t.Parallel()

	store, _, notifier := newTestStore(t)
	ctx := context.Background()
	line := LineItem{ID: "p1", Name: "Heirloom Tomatoes", Price: 4.99, Quantity: 1}

	if err := store.AddItem(ctx, "abc", line); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := store.AddItem(ctx, "abc", line); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	items, err := store.Read(ctx, "abc")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 2 {
		t.Fatalf("expected one line at quantity 2, got %+v", items)
	}
	if notifier.count() != 2 {
		t.Fatalf("expected a signal per write, got %d", notifier.count())
	}
}

func TestRedisStoreClearIsIdempotent(t *testing.T) {
	t.Parallel()

	store, kv, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.AddItem(ctx, "abc", LineItem{ID: "p1", Quantity: 1}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := store.Clear(ctx, "abc"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := store.Clear(ctx, "abc"); err != nil {
		t.Fatalf("second Clear: %v", err)
	}

	if kv.values["fb:cart:abc"] != "[]" {
		t.Fatalf("expected stored empty array, got %q", kv.values["fb:cart:abc"])
	}
	items, err := store.Read(ctx, "abc")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty cart after clear, got %+v", items)
	}
}

func TestRedisStoreEmptyKeyReadsEmpty(t *testing.T) {
	t.Parallel()

	store, _, _ := newTestStore(t)
	items, err := store.Read(context.Background(), "")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty cart for empty key, got %+v", items)
	}

	if err := store.Write(context.Background(), "", nil); err == nil {
		t.Fatal("expected write with empty key to fail")
	}
}
