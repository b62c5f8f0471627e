package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeFanout struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeFanout) Publish(_ context.Context, _ string, message any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, message.(string))
	return nil
}

func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change signal")
	}
}

func TestNotifierDeliversToSubscribers(t *testing.T) {
	t.Parallel()

	n := NewNotifier(nil, nil)
	first, cancelFirst := n.Subscribe("abc")
	second, cancelSecond := n.Subscribe("abc")
	defer cancelFirst()
	defer cancelSecond()

	n.Notify(context.Background(), "abc")

	waitSignal(t, first)
	waitSignal(t, second)
}

func TestNotifierScopesSignalsToKey(t *testing.T) {
	t.Parallel()

	n := NewNotifier(nil, nil)
	other, cancel := n.Subscribe("other")
	defer cancel()

	n.Notify(context.Background(), "abc")

	select {
	case <-other:
		t.Fatal("subscriber for a different cart received a signal")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotifierCoalescesPendingSignals(t *testing.T) {
	t.Parallel()

	n := NewNotifier(nil, nil)
	signals, cancel := n.Subscribe("abc")
	defer cancel()

	ctx := context.Background()
	n.Notify(ctx, "abc")
	n.Notify(ctx, "abc")
	n.Notify(ctx, "abc")

	waitSignal(t, signals)
	select {
	case <-signals:
		// A second pending signal is allowed but not required.
	default:
	}
}

func TestNotifierCancelStopsDelivery(t *testing.T) {
	t.Parallel()

	n := NewNotifier(nil, nil)
	signals, cancel := n.Subscribe("abc")
	cancel()
	cancel() // idempotent

	n.Notify(context.Background(), "abc")

	select {
	case <-signals:
		t.Fatal("canceled subscriber received a signal")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotifierPublishesKeyToFanout(t *testing.T) {
	t.Parallel()

	fanout := &fakeFanout{}
	n := NewNotifier(fanout, nil)

	n.Notify(context.Background(), "abc")

	fanout.mu.Lock()
	defer fanout.mu.Unlock()
	if len(fanout.messages) != 1 || fanout.messages[0] != "abc" {
		t.Fatalf("expected the cart key published once, got %v", fanout.messages)
	}
}

func TestFanoutBridgeRelaysToLocalSubscribers(t *testing.T) {
	t.Parallel()

	n := NewNotifier(nil, nil)
	signals, cancel := n.Subscribe("abc")
	defer cancel()

	bridge := NewFanoutBridge(n, nil)
	messages := make(chan *redis.Message, 2)
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		bridge.Run(ctx, messages)
	}()

	messages <- &redis.Message{Payload: "abc"}
	waitSignal(t, signals)

	messages <- &redis.Message{Payload: ""}
	stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("bridge did not stop on context cancel")
	}
}
