package conflict

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vallamarket/cartsync/internal/logging"
	"github.com/vallamarket/cartsync/internal/models"
)

func item(id, billboardID string, start, end models.Date) models.CartItem {
	return models.CartItem{ID: id, BillboardID: billboardID, StartDate: start, EndDate: end}
}

func event(billboardID string, start, end models.Date, status models.ReservationStatus) models.ReservationEvent {
	ev := models.ReservationEvent{Type: "INSERT", Start: start, End: end, Status: status}
	ev.Config.BillboardID = billboardID
	return ev
}

func TestAffectedItems(t *testing.T) {
	d := func(day int) models.Date { return models.NewDate(2025, time.March, day) }

	items := []models.CartItem{
		item("a", "bb-1", d(10), d(20)),
		item("b", "bb-1", d(25), d(28)),
		item("c", "bb-2", d(10), d(20)),
	}

	tests := []struct {
		name string
		ev   models.ReservationEvent
		want []string
	}{
		{name: "overlap flags matching billboard only",
			ev: event("bb-1", d(15), d(17), models.ReservationActive), want: []string{"a"}},
		{name: "shared endpoint counts",
			ev: event("bb-1", d(20), d(25), models.ReservationActive), want: []string{"a", "b"}},
		{name: "pending blocks too",
			ev: event("bb-2", d(1), d(10), models.ReservationPending), want: []string{"c"}},
		{name: "disjoint range flags nothing",
			ev: event("bb-1", d(1), d(5), models.ReservationActive), want: nil},
		{name: "cancelled never flags",
			ev: event("bb-1", d(15), d(17), models.ReservationCancelled), want: nil},
		{name: "rejected never flags",
			ev: event("bb-1", d(15), d(17), models.ReservationRejected), want: nil},
		{name: "unknown billboard flags nothing",
			ev: event("bb-9", d(15), d(17), models.ReservationActive), want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AffectedItems(items, tt.ev))
		})
	}
}

type stubFeed struct {
	mu         sync.Mutex
	events     chan models.ReservationEvent
	subscribes int
	lastCtx    context.Context
}

func newStubFeed() *stubFeed {
	return &stubFeed{events: make(chan models.ReservationEvent)}
}

func (f *stubFeed) Subscribe(ctx context.Context) (<-chan models.ReservationEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribes++
	f.lastCtx = ctx
	return f.events, nil
}

func (f *stubFeed) subscribeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribes
}

func (f *stubFeed) ctx() context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastCtx
}

type stubSource struct {
	mu    sync.Mutex
	items []models.CartItem
}

func (s *stubSource) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestWatcherFlagsOnEvent(t *testing.T) {
	d := func(day int) models.Date { return models.NewDate(2025, time.March, day) }

	feed := newStubFeed()
	source := &stubSource{items: []models.CartItem{item("a", "bb-1", d(10), d(20))}}

	flagged := make(chan []string, 1)
	w := NewWatcher(feed, source, func(ids []string) { flagged <- ids }, testLogger())
	defer w.Close()

	w.SetActive(true)

	feed.events <- event("bb-1", d(12), d(14), models.ReservationActive)

	select {
	case ids := <-flagged:
		assert.Equal(t, []string{"a"}, ids)
	case <-time.After(time.Second):
		t.Fatal("conflict was never flagged")
	}

	// a non-blocking event for the same billboard passes through silently
	feed.events <- event("bb-1", d(12), d(14), models.ReservationCancelled)
	select {
	case ids := <-flagged:
		t.Fatalf("unexpected flag for cancelled reservation: %v", ids)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWatcherLifecycle(t *testing.T) {
	feed := newStubFeed()
	source := &stubSource{}

	w := NewWatcher(feed, source, func([]string) {}, testLogger())
	defer w.Close()

	w.SetActive(true)
	w.SetActive(true) // idempotent

	require.Eventually(t, func() bool { return feed.subscribeCount() == 1 },
		time.Second, 10*time.Millisecond)

	w.SetActive(false)
	w.SetActive(false) // idempotent

	select {
	case <-feed.ctx().Done():
	case <-time.After(time.Second):
		t.Fatal("deactivating did not cancel the subscription")
	}

	// reactivating opens a fresh subscription
	w.SetActive(true)
	require.Eventually(t, func() bool { return feed.subscribeCount() == 2 },
		time.Second, 10*time.Millisecond)
}

func TestWatcherStopsWhenFeedCloses(t *testing.T) {
	feed := newStubFeed()
	w := NewWatcher(feed, &stubSource{}, func([]string) {}, testLogger())

	w.SetActive(true)
	require.Eventually(t, func() bool { return feed.subscribeCount() == 1 },
		time.Second, 10*time.Millisecond)

	close(feed.events)
	w.Close()
}

func TestWatcherCloseWhileEventInFlight(t *testing.T) {
	d := func(day int) models.Date { return models.NewDate(2025, time.March, day) }

	feed := newStubFeed()
	source := &stubSource{items: []models.CartItem{item("a", "bb-1", d(10), d(20))}}

	// the item-count wiring can re-enter SetActive(true) from inside the
	// flag callback; Close must still return
	var w *Watcher
	entered := make(chan struct{})
	release := make(chan struct{})
	w = NewWatcher(feed, source, func([]string) {
		entered <- struct{}{}
		<-release
		w.SetActive(true)
	}, testLogger())

	w.SetActive(true)
	feed.events <- event("bb-1", d(12), d(14), models.ReservationActive)
	<-entered

	done := make(chan struct{})
	go func() {
		w.Close()
		close(done)
	}()

	// give Close time to reach its wait before the callback resumes
	time.Sleep(50 * time.Millisecond)
	close(release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return after a flag callback re-entered SetActive")
	}
	assert.Equal(t, 1, feed.subscribeCount(), "closed watcher must refuse to resubscribe")
}

func TestWatcherReactivatesAfterFeedDies(t *testing.T) {
	feed := newStubFeed()
	w := NewWatcher(feed, &stubSource{}, func([]string) {}, testLogger())
	defer w.Close()

	w.SetActive(true)
	require.Eventually(t, func() bool { return feed.subscribeCount() == 1 },
		time.Second, 10*time.Millisecond)

	close(feed.events)

	// the dead loop releases its subscription context on the way out
	select {
	case <-feed.ctx().Done():
	case <-time.After(time.Second):
		t.Fatal("dead feed did not release its subscription context")
	}

	// and frees the active slot, so activation works again
	require.Eventually(t, func() bool {
		w.SetActive(true)
		return feed.subscribeCount() >= 2
	}, time.Second, 10*time.Millisecond)
}
