package cart

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	apperrors "github.com/farmbasket/farmbasket-backend/pkg/errors"
	"github.com/farmbasket/farmbasket-backend/pkg/logger"
)

// ErrViewNotStarted is returned when Snapshot is called on a view that was
// never started or has been stopped.
var ErrViewNotStarted = apperrors.New(apperrors.CodeStateConflict, "cart view is not running")

// Snapshot is a consistent picture of one cart at a point in time: the items
// plus the derived total and item count.
type Snapshot struct {
	Items []LineItem
	Total decimal.Decimal
	Count int
}

// View maintains a live read model of one cart. It loads the cart on Start,
// re-reads it on every change signal, and serves the latest state through
// Snapshot. One view per cart key.
type View struct {
	store    Store
	notifier *Notifier
	logg     *logger.Logger
	key      string

	mu      sync.RWMutex
	current Snapshot
	started bool

	cancelSub func()
	stop      context.CancelFunc
	done      chan struct{}
}

// NewView builds a view over the given cart key. Call Start before Snapshot.
func NewView(store Store, notifier *Notifier, logg *logger.Logger, key string) *View {
	return &View{
		store:    store,
		notifier: notifier,
		logg:     logg,
		key:      key,
	}
}

// Start loads the cart and begins following change signals. Starting an
// already-started view is a no-op.
func (v *View) Start(ctx context.Context) error {
	v.mu.Lock()
	if v.started {
		v.mu.Unlock()
		return nil
	}
	v.mu.Unlock()

	items, err := v.store.Read(ctx, v.key)
	if err != nil {
		return err
	}

	signals, cancelSub := v.notifier.Subscribe(v.key)
	runCtx, stop := context.WithCancel(context.Background())

	v.mu.Lock()
	v.setLocked(items)
	v.started = true
	v.cancelSub = cancelSub
	v.stop = stop
	v.done = make(chan struct{})
	v.mu.Unlock()

	go v.follow(runCtx, signals)
	return nil
}

func (v *View) follow(ctx context.Context, signals <-chan struct{}) {
	defer close(v.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-signals:
			items, err := v.store.Read(ctx, v.key)
			if err != nil {
				if v.logg != nil {
					v.logg.Warn(v.logg.WithCartKey(ctx, v.key), "cart view refresh failed, keeping previous snapshot")
				}
				continue
			}
			v.mu.Lock()
			v.setLocked(items)
			v.mu.Unlock()
		}
	}
}

func (v *View) setLocked(items []LineItem) {
	total, count := Totals(items)
	v.current = Snapshot{Items: items, Total: total, Count: count}
}

// Snapshot returns the latest observed state. It fails loud when the view is
// not running rather than serving a stale or zero cart.
func (v *View) Snapshot() (Snapshot, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.started {
		return Snapshot{}, ErrViewNotStarted
	}
	snap := v.current
	snap.Items = append([]LineItem(nil), v.current.Items...)
	return snap, nil
}

// Stop ends the subscription and the follower goroutine. Stopping a view that
// never started is a no-op.
func (v *View) Stop() {
	v.mu.Lock()
	if !v.started {
		v.mu.Unlock()
		return
	}
	v.started = false
	cancelSub := v.cancelSub
	stop := v.stop
	done := v.done
	v.mu.Unlock()

	cancelSub()
	stop()
	<-done
}
