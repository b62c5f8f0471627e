package cart

import (
	"context"
	"sync"

	"github.com/farmbasket/farmbasket-backend/pkg/logger"
	redispkg "github.com/farmbasket/farmbasket-backend/pkg/redis"
	"github.com/redis/go-redis/v9"
)

// Fanout broadcasts a change signal beyond this process. The message is the
// cart key and nothing else; it routes the signal, it does not carry cart data.
type Fanout interface {
	Publish(ctx context.Context, channel string, message any) error
}

// Notifier delivers payload-less "this cart changed" signals to subscribers.
// Signals coalesce: a subscriber that misses one learns nothing it would not
// learn from the next, because every signal means the same thing, re-read the
// store.
type Notifier struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string]map[uint64]chan struct{}
	fanout Fanout
	logg   *logger.Logger
}

// NewNotifier builds a notifier. fanout may be nil for single-process use.
func NewNotifier(fanout Fanout, logg *logger.Logger) *Notifier {
	return &Notifier{
		subs:   make(map[string]map[uint64]chan struct{}),
		fanout: fanout,
		logg:   logg,
	}
}

// Subscribe registers interest in changes to one cart key. The returned channel
// receives a signal after every write to that cart until cancel is called.
// cancel is idempotent.
func (n *Notifier) Subscribe(key string) (<-chan struct{}, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	ch := make(chan struct{}, 1)

	if n.subs[key] == nil {
		n.subs[key] = make(map[uint64]chan struct{})
	}
	n.subs[key][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs[key], id)
			if len(n.subs[key]) == 0 {
				delete(n.subs, key)
			}
		})
	}
	return ch, cancel
}

// Notify signals every local subscriber of the key and, when a fanout is
// configured, publishes the key on the shared channel so other processes can
// relay it to their own subscribers.
func (n *Notifier) Notify(ctx context.Context, key string) {
	n.NotifyLocal(key)
	if n.fanout == nil {
		return
	}
	if err := n.fanout.Publish(ctx, redispkg.CartChangedChannel, key); err != nil && n.logg != nil {
		// Remote delivery is best effort; local subscribers already got the
		// signal and remote ones recover on their next read.
		n.logg.Warn(n.logg.WithCartKey(ctx, key), "cart change fanout publish failed")
	}
}

// NotifyLocal signals only in-process subscribers. The fanout bridge calls
// this when relaying signals that originated elsewhere, so they are not
// re-published.
func (n *Notifier) NotifyLocal(key string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs[key] {
		select {
		case ch <- struct{}{}:
		default:
			// A signal is already pending; the subscriber will re-read anyway.
		}
	}
}

// FanoutBridge relays cart-changed signals from the shared Redis channel into
// the local notifier.
type FanoutBridge struct {
	notifier *Notifier
	logg     *logger.Logger
}

// NewFanoutBridge builds the relay.
func NewFanoutBridge(notifier *Notifier, logg *logger.Logger) *FanoutBridge {
	return &FanoutBridge{notifier: notifier, logg: logg}
}

// Run consumes pub/sub messages until the channel closes or ctx is canceled.
// The message payload is the cart key.
func (b *FanoutBridge) Run(ctx context.Context, messages <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			if msg == nil || msg.Payload == "" {
				continue
			}
			b.notifier.NotifyLocal(msg.Payload)
		}
	}
}
