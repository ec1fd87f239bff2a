// Package conflict watches the reservation feed and flags cart items whose
// billboard and dates collide with reservations made by someone else while
// the cart is open. Detection is push-driven; nothing here polls.
package conflict

import (
	"context"
	"sync"

	"github.com/vallamarket/cartsync/internal/logging"
	"github.com/vallamarket/cartsync/internal/models"
)

// Feed is a push subscription to reservation create/update events. The
// returned channel closes when the subscription dies; cancelling the
// context tears it down.
type Feed interface {
	Subscribe(ctx context.Context) (<-chan models.ReservationEvent, error)
}

// ItemSource exposes the current cart contents. The watcher reads it fresh
// on every event so it never acts on a stale list.
type ItemSource interface {
	Items() []models.CartItem
}

// AffectedItems returns the ids of cart items whose billboard matches the
// event and whose own date range overlaps it (inclusive). Events for
// cancelled or rejected reservations never match.
func AffectedItems(items []models.CartItem, ev models.ReservationEvent) []string {
	if !ev.Status.Blocking() {
		return nil
	}

	var ids []string
	for _, it := range items {
		if it.BillboardID != ev.Config.BillboardID {
			continue
		}
		if it.Range().Overlaps(ev.Range()) {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// Watcher owns the subscription lifecycle. SetActive(true) subscribes,
// SetActive(false) tears down; the engine drives it from its item-count
// callback so the feed is only held while the cart is non-empty.
//
// The flag callback may re-enter SetActive (the item-count wiring does),
// so the lifecycle is guarded by a generation counter plus a closed flag:
// once Close has started, SetActive(true) is refused, otherwise an
// in-flight event handler could resubscribe underneath Close and leave it
// waiting on a loop nothing will ever stop.
type Watcher struct {
	feed   Feed
	source ItemSource
	flag   func(itemIDs []string)
	log    logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	gen    int
	closed bool
	wg     sync.WaitGroup
}

func NewWatcher(feed Feed, source ItemSource, flag func(itemIDs []string), log logging.Logger) *Watcher {
	return &Watcher{
		feed:   feed,
		source: source,
		flag:   flag,
		log:    log.With("module", "conflict_watcher"),
	}
}

// SetActive subscribes or unsubscribes. Calls are idempotent, and
// activation is refused once Close has begun.
func (w *Watcher) SetActive(active bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !active {
		if w.cancel != nil {
			w.cancel()
			w.cancel = nil
		}
		return
	}

	if w.closed || w.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.gen++
	w.wg.Add(1)
	go w.run(ctx, cancel, w.gen)
}

// Close tears down any active subscription and waits for the loop to exit.
// The watcher cannot be reactivated afterwards.
func (w *Watcher) Close() {
	w.mu.Lock()
	w.closed = true
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Watcher) run(ctx context.Context, cancel context.CancelFunc, gen int) {
	defer w.wg.Done()
	defer func() {
		// release the context and, unless a newer subscription has taken
		// over, mark the watcher inactive so it can resubscribe later
		cancel()
		w.mu.Lock()
		if w.gen == gen {
			w.cancel = nil
		}
		w.mu.Unlock()
	}()

	events, err := w.feed.Subscribe(ctx)
	if err != nil {
		w.log.Error(ctx, "subscribing to reservation feed failed", "error", err.Error())
		return
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				w.log.Warn(ctx, "reservation feed closed")
				return
			}
			if ids := AffectedItems(w.source.Items(), ev); len(ids) > 0 {
				w.log.Info(ctx, "reservation conflicts with cart",
					"billboard_id", ev.Config.BillboardID, "items", len(ids))
				w.flag(ids)
			}
		case <-ctx.Done():
			return
		}
	}
}
