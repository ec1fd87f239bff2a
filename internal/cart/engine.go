package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vallamarket/cartsync/internal/common"
	"github.com/vallamarket/cartsync/internal/localstore"
	"github.com/vallamarket/cartsync/internal/logging"
	"github.com/vallamarket/cartsync/internal/models"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// User-facing validation messages attached to flagged items.
const (
	msgUnavailableForDates = "no longer available for the selected dates"
	msgReservedByAnother   = "reserved by another advertiser while in your cart"
	msgLostAtCheckout      = "became unavailable during checkout"
)

// AddParams describes the billboard being added; the engine mints the item
// id and stamps the dates.
type AddParams struct {
	BillboardID string
	Name        string
	Location    string
	Category    string
	Price       models.Money
	OwnerID     string
	Dimensions  string
	PhotoRef    string
}

// TransferResult reports the outcome of a checkout handoff. Proceed tells
// the caller whether to navigate on; a partial transfer still proceeds and
// reports the shortfall through Dropped.
type TransferResult struct {
	Proceed     bool
	Requested   int
	Transferred int
	Dropped     int
}

// Engine owns the in-memory cart state for the lifetime of one session.
// All mutating methods check the session role first; failures come back as
// sentinel errors, never panics. Persistence is a side effect of mutation:
// local writes are immediate, remote writes are debounced single-slot.
type Engine struct {
	session Session
	local   LocalStore
	remote  RemoteStore
	oracle  Oracle
	handoff HandoffWriter
	log     logging.Logger
	cfg     Config

	mu           sync.Mutex
	items        []models.CartItem
	activeDates  *models.DateRange
	updatedAt    time.Time
	hydrated     bool
	remoteLoaded bool
	validating   bool
	transferring bool
	loadingRem   bool
	hasConflicts bool
	syncTimer    *time.Timer
	pendingSync  bool
	closed       bool

	hydrateGroup singleflight.Group

	onChange func(itemCount int)
}

func NewEngine(session Session, local LocalStore, remote RemoteStore, oracle Oracle,
	handoff HandoffWriter, log logging.Logger, cfg Config) *Engine {

	return &Engine{
		session: session,
		local:   local,
		remote:  remote,
		oracle:  oracle,
		handoff: handoff,
		log:     log.With("module", "cart_engine", "user_id", session.UserID),
		cfg:     cfg.withDefaults(),
	}
}

// SetOnChange registers a callback invoked with the item count after every
// state change. The conflict watcher uses it to tie its subscription
// lifecycle to cart-non-empty. Set it before Hydrate.
func (e *Engine) SetOnChange(fn func(itemCount int)) {
	e.onChange = fn
}

func (e *Engine) namespace() string {
	return localstore.Namespace(e.cfg.Scope, e.session.UserID)
}

// guard is the single authorization check every mutating operation runs
// first.
func (e *Engine) guard() error {
	if !e.session.Permitted() {
		return common.ErrNotPermitted
	}
	return nil
}

// Hydrate runs the session's hydration protocol: the local snapshot is
// loaded into memory first so the cart is usable before any network, then
// (for permitted sessions) the remote row is fetched exactly once and
// reconciled by timestamp. The engine is marked hydrated unconditionally at
// the end, errors included; persistence side effects stay suppressed until
// then so the initial empty state can never clobber a saved cart.
func (e *Engine) Hydrate(ctx context.Context) {
	local, err := e.local.Load(ctx, e.namespace())
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		e.log.Warn(ctx, "local snapshot unreadable", "error", err.Error())
		local = nil
	}

	e.mu.Lock()
	if local != nil {
		e.items = local.Items
		e.activeDates = local.ActiveDates
		e.updatedAt = local.UpdatedAt
		e.hasConflicts = anyInvalid(e.items)
	}
	alreadyLoaded := e.remoteLoaded
	e.mu.Unlock()

	if !e.session.Permitted() {
		e.mu.Lock()
		e.hydrated = true
		e.mu.Unlock()
		e.notifyChange()
		return
	}

	defer func() {
		e.mu.Lock()
		e.hydrated = true
		e.mu.Unlock()
		e.notifyChange()
	}()

	if alreadyLoaded {
		return
	}

	_, err, _ = e.hydrateGroup.Do("hydrate", func() (any, error) {
		e.setLoadingRemote(true)
		defer e.setLoadingRemote(false)

		rem, err := e.remote.Fetch(ctx, e.session.UserID)
		if errors.Is(err, common.ErrorNotFound) {
			rem, err = nil, nil
		}
		if err != nil {
			return nil, err
		}

		e.mu.Lock()
		e.remoteLoaded = true
		e.mu.Unlock()

		if Reconcile(local, rem) == TakeRemote {
			e.mu.Lock()
			e.items = rem.Items
			e.activeDates = rem.ActiveDates
			e.updatedAt = rem.UpdatedAt
			e.hasConflicts = anyInvalid(e.items)
			e.mu.Unlock()

			if err := e.local.Save(ctx, e.namespace(), rem); err != nil {
				e.log.Warn(ctx, "saving hydrated snapshot locally failed", "error", err.Error())
			}
		}
		return nil, nil
	})
	if err != nil {
		e.log.Warn(ctx, "remote hydrate failed, keeping local cart", "error", err.Error())
	}
}

// AddToCart validates the billboard against the oracle and appends it. The
// active range becomes the range this add used. Duplicates are an explicit
// rejection, not a silent dedup.
func (e *Engine) AddToCart(ctx context.Context, params AddParams, dates models.DateRange) error {
	if err := e.guard(); err != nil {
		return err
	}
	if !dates.Complete() {
		return common.ErrMissingDates
	}

	e.mu.Lock()
	dup := hasBillboard(e.items, params.BillboardID)
	e.mu.Unlock()
	if dup {
		return common.ErrDuplicateItem
	}

	e.setValidating(true)
	available, err := e.oracle.IsAvailable(ctx, params.BillboardID, dates)
	e.setValidating(false)
	if err != nil {
		e.log.Error(ctx, "availability check failed", "billboard_id", params.BillboardID, "error", err.Error())
		return common.ErrUnavailable
	}
	if !available {
		return common.ErrUnavailable
	}

	item := models.CartItem{
		ID:          uuid.NewString(),
		BillboardID: params.BillboardID,
		Name:        params.Name,
		Location:    params.Location,
		Category:    params.Category,
		Price:       params.Price,
		StartDate:   dates.Start,
		EndDate:     dates.End,
		IsValid:     true,
		OwnerID:     params.OwnerID,
		Dimensions:  params.Dimensions,
		PhotoRef:    params.PhotoRef,
	}

	e.mu.Lock()
	// the oracle call dropped the lock; a concurrent add may have won
	if hasBillboard(e.items, params.BillboardID) {
		e.mu.Unlock()
		return common.ErrDuplicateItem
	}
	e.items = append(e.items, item)
	r := dates
	e.activeDates = &r
	e.touchLocked()
	snap, hydrated := e.snapshotLocked()
	e.mu.Unlock()

	e.persist(ctx, snap, hydrated)
	e.notifyChange()
	return nil
}

// RemoveFromCart drops the item. No oracle call; the local write is
// immediate and the remote write rides the debounce.
func (e *Engine) RemoveFromCart(ctx context.Context, itemID string) error {
	if err := e.guard(); err != nil {
		return err
	}

	e.mu.Lock()
	kept := e.items[:0:0]
	for _, it := range e.items {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	e.items = kept
	e.hasConflicts = anyInvalid(e.items)
	e.touchLocked()
	snap, hydrated := e.snapshotLocked()
	e.mu.Unlock()

	e.persist(ctx, snap, hydrated)
	e.notifyChange()
	return nil
}

// ClearCart empties the cart everywhere: pending debounced writes are
// cancelled, local storage is cleared, and the remote row is emptied
// immediately rather than debounced.
func (e *Engine) ClearCart(ctx context.Context) error {
	if err := e.guard(); err != nil {
		return err
	}

	e.mu.Lock()
	e.cancelPendingSyncLocked()
	e.items = nil
	e.activeDates = nil
	e.hasConflicts = false
	e.touchLocked()
	snap, _ := e.snapshotLocked()
	e.mu.Unlock()

	if err := e.local.Clear(ctx, e.namespace()); err != nil {
		e.log.Warn(ctx, "clearing local snapshot failed", "error", err.Error())
	}
	if e.session.Authenticated() {
		if err := e.remote.Upsert(ctx, e.session.UserID, snap); err != nil {
			e.log.Error(ctx, "emptying remote cart failed", "error", err.Error())
		}
	}

	e.notifyChange()
	return nil
}

// RevalidateCart re-runs the oracle for every item against the new range,
// in parallel, and rewrites every item's dates to that range along with its
// fresh validity. An empty cart just moves the active range.
func (e *Engine) RevalidateCart(ctx context.Context, dates models.DateRange) error {
	if err := e.guard(); err != nil {
		return err
	}
	if !dates.Complete() {
		return common.ErrMissingDates
	}

	e.mu.Lock()
	checked := make([]models.CartItem, len(e.items))
	copy(checked, e.items)
	e.mu.Unlock()

	if len(checked) == 0 {
		e.mu.Lock()
		r := dates
		e.activeDates = &r
		e.touchLocked()
		snap, hydrated := e.snapshotLocked()
		e.mu.Unlock()

		e.persist(ctx, snap, hydrated)
		return nil
	}

	e.setValidating(true)
	validity := e.checkAll(ctx, checked, func(models.CartItem) models.DateRange { return dates })
	e.setValidating(false)

	e.mu.Lock()
	for i := range e.items {
		it := &e.items[i]
		it.StartDate = dates.Start
		it.EndDate = dates.End
		ok, known := validity[it.ID]
		if !known {
			continue
		}
		it.IsValid = ok
		if ok {
			it.ValidationError = ""
		} else {
			it.ValidationError = msgUnavailableForDates
		}
	}
	r := dates
	e.activeDates = &r
	e.hasConflicts = anyInvalid(e.items)
	e.touchLocked()
	snap, hydrated := e.snapshotLocked()
	e.mu.Unlock()

	e.persist(ctx, snap, hydrated)
	e.notifyChange()
	return nil
}

// TransferToCheckout runs the final availability pass over the still-valid
// items and hands the survivors to the booking wizard. Losing some items is
// a warning, not a failure; losing all of them fails and flags them.
func (e *Engine) TransferToCheckout(ctx context.Context) (TransferResult, error) {
	var res TransferResult

	if err := e.guard(); err != nil {
		return res, err
	}

	e.mu.Lock()
	var valid []models.CartItem
	for _, it := range e.items {
		if it.IsValid {
			valid = append(valid, it)
		}
	}
	e.mu.Unlock()

	res.Requested = len(valid)
	if len(valid) == 0 {
		return res, common.ErrNoValidItems
	}

	e.setTransferring(true)
	defer e.setTransferring(false)

	validity := e.checkAll(ctx, valid, models.CartItem.Range)

	var survivors []models.CartItem
	lost := make(map[string]bool)
	for _, it := range valid {
		if validity[it.ID] {
			survivors = append(survivors, it)
		} else {
			lost[it.ID] = true
		}
	}

	if len(lost) > 0 {
		e.mu.Lock()
		for i := range e.items {
			if lost[e.items[i].ID] {
				e.items[i].IsValid = false
				e.items[i].ValidationError = msgLostAtCheckout
			}
		}
		e.hasConflicts = anyInvalid(e.items)
		e.touchLocked()
		snap, hydrated := e.snapshotLocked()
		e.mu.Unlock()

		e.persist(ctx, snap, hydrated)
		e.notifyChange()
	}

	res.Dropped = len(lost)
	if len(survivors) == 0 {
		return res, common.ErrAllUnavailable
	}

	if err := e.handoff.WriteHandoff(ctx, e.namespace(), survivors); err != nil {
		e.log.Error(ctx, "checkout handoff failed", "error", err.Error())
		return res, err
	}

	if res.Dropped > 0 {
		e.log.Warn(ctx, "transferring partial cart", "requested", res.Requested, "transferred", len(survivors))
	}

	res.Transferred = len(survivors)
	res.Proceed = true
	return res, nil
}

// LoadFromProposal replaces the whole cart with an externally saved
// snapshot. Items are trusted as provided until the next revalidation or
// transfer.
func (e *Engine) LoadFromProposal(ctx context.Context, items []models.CartItem, dates *models.DateRange) error {
	if err := e.guard(); err != nil {
		return err
	}

	e.mu.Lock()
	e.items = make([]models.CartItem, len(items))
	copy(e.items, items)
	if dates != nil {
		r := *dates
		e.activeDates = &r
	} else {
		e.activeDates = nil
	}
	e.hasConflicts = anyInvalid(e.items)
	e.touchLocked()
	snap, hydrated := e.snapshotLocked()
	e.mu.Unlock()

	e.persist(ctx, snap, hydrated)
	e.notifyChange()
	return nil
}

// FlagConflicts marks the given items invalid after an out-of-band
// reservation clash. Items are flagged, never removed; the user has to act.
func (e *Engine) FlagConflicts(itemIDs []string) {
	if len(itemIDs) == 0 {
		return
	}
	flagged := make(map[string]bool, len(itemIDs))
	for _, id := range itemIDs {
		flagged[id] = true
	}

	e.mu.Lock()
	changed := false
	for i := range e.items {
		if flagged[e.items[i].ID] && e.items[i].IsValid {
			e.items[i].IsValid = false
			e.items[i].ValidationError = msgReservedByAnother
			changed = true
		}
	}
	if changed {
		e.hasConflicts = true
		e.touchLocked()
	}
	snap, hydrated := e.snapshotLocked()
	e.mu.Unlock()

	if changed {
		e.persist(context.Background(), snap, hydrated)
		e.notifyChange()
	}
}

// Close cancels any pending debounced write. The snapshot already sits in
// local storage; the remote copy catches up through reconciliation on the
// next session.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelPendingSyncLocked()
	e.closed = true
}

// --- accessors ---

func (e *Engine) Items() []models.CartItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.CartItem, len(e.items))
	copy(out, e.items)
	return out
}

func (e *Engine) ActiveDates() *models.DateRange {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.activeDates == nil {
		return nil
	}
	r := *e.activeDates
	return &r
}

func (e *Engine) IsHydrated() bool     { e.mu.Lock(); defer e.mu.Unlock(); return e.hydrated }
func (e *Engine) IsValidating() bool   { e.mu.Lock(); defer e.mu.Unlock(); return e.validating }
func (e *Engine) IsTransferring() bool { e.mu.Lock(); defer e.mu.Unlock(); return e.transferring }
func (e *Engine) HasConflicts() bool   { e.mu.Lock(); defer e.mu.Unlock(); return e.hasConflicts }

func (e *Engine) IsLoadingFromRemote() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadingRem
}

func (e *Engine) Session() Session { return e.session }

// --- internals ---

// checkAll fans out one oracle call per item and collects validity by item
// id. Oracle failures count as unavailable; the calls are issued together
// to bound latency, not sequentially.
func (e *Engine) checkAll(ctx context.Context, items []models.CartItem,
	rangeOf func(models.CartItem) models.DateRange) map[string]bool {

	validity := make([]bool, len(items))

	var g errgroup.Group
	for i, it := range items {
		g.Go(func() error {
			ok, err := e.oracle.IsAvailable(ctx, it.BillboardID, rangeOf(it))
			if err != nil {
				e.log.Error(ctx, "availability check failed", "billboard_id", it.BillboardID, "error", err.Error())
				ok = false
			}
			validity[i] = ok
			return nil
		})
	}
	_ = g.Wait()

	byID := make(map[string]bool, len(items))
	for i, it := range items {
		byID[it.ID] = validity[i]
	}
	return byID
}

// touchLocked stamps the snapshot's tie-break timestamp. Callers hold mu.
func (e *Engine) touchLocked() {
	e.updatedAt = e.cfg.Now()
}

// snapshotLocked copies the current state for persistence. Callers hold mu.
func (e *Engine) snapshotLocked() (*models.CartSnapshot, bool) {
	items := make([]models.CartItem, len(e.items))
	copy(items, e.items)

	snap := &models.CartSnapshot{Items: items, UpdatedAt: e.updatedAt}
	if e.activeDates != nil {
		r := *e.activeDates
		snap.ActiveDates = &r
	}
	return snap, e.hydrated
}

// persist writes the snapshot locally right away and schedules the
// debounced remote write. Suppressed entirely until hydration completes so
// pre-hydration state can never destroy a previously saved cart. Local
// failures do not roll anything back; memory is the source of truth.
func (e *Engine) persist(ctx context.Context, snap *models.CartSnapshot, hydrated bool) {
	if !hydrated {
		return
	}

	if err := e.local.Save(ctx, e.namespace(), snap); err != nil {
		e.log.Warn(ctx, "local save failed", "error", err.Error())
	}

	e.scheduleRemoteSync()
}

// scheduleRemoteSync arms the single-slot debounce timer. Each new mutation
// replaces any pending write, so only the latest snapshot after a burst of
// edits reaches the remote store.
func (e *Engine) scheduleRemoteSync() {
	if !e.session.Authenticated() {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if e.syncTimer != nil {
		e.syncTimer.Stop()
	}
	e.pendingSync = true
	e.syncTimer = time.AfterFunc(e.cfg.SyncDebounce, e.flushRemote)
}

func (e *Engine) flushRemote() {
	e.mu.Lock()
	if !e.pendingSync {
		e.mu.Unlock()
		return
	}
	e.pendingSync = false
	snap, _ := e.snapshotLocked()
	e.mu.Unlock()

	ctx := context.Background()
	if err := e.remote.Upsert(ctx, e.session.UserID, snap); err != nil {
		// not retried; the next mutation schedules a fresh write
		e.log.Error(ctx, "remote sync failed", "error", err.Error())
	}
}

func (e *Engine) cancelPendingSyncLocked() {
	if e.syncTimer != nil {
		e.syncTimer.Stop()
	}
	e.pendingSync = false
}

func (e *Engine) setValidating(v bool) {
	e.mu.Lock()
	e.validating = v
	e.mu.Unlock()
}

func (e *Engine) setTransferring(v bool) {
	e.mu.Lock()
	e.transferring = v
	e.mu.Unlock()
}

func (e *Engine) setLoadingRemote(v bool) {
	e.mu.Lock()
	e.loadingRem = v
	e.mu.Unlock()
}

func (e *Engine) notifyChange() {
	if e.onChange == nil {
		return
	}
	e.mu.Lock()
	n := len(e.items)
	e.mu.Unlock()
	e.onChange(n)
}

func hasBillboard(items []models.CartItem, billboardID string) bool {
	for _, it := range items {
		if it.BillboardID == billboardID {
			return true
		}
	}
	return false
}

func anyInvalid(items []models.CartItem) bool {
	for _, it := range items {
		if !it.IsValid {
			return true
		}
	}
	return false
}
