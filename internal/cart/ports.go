// Package cart implements the client-side cart engine: it owns the
// in-memory cart for the life of a session, reconciles the local and remote
// copies, debounces remote writes, validates items against the availability
// oracle, and hands surviving items to the checkout collaborator.
package cart

import (
	"context"
	"time"

	"github.com/vallamarket/cartsync/internal/common"
	"github.com/vallamarket/cartsync/internal/models"
)

// LocalStore is the device-local snapshot adapter. It has no mutation
// authority of its own; the engine decides what gets written.
type LocalStore interface {
	Load(ctx context.Context, namespace string) (*models.CartSnapshot, error)
	Save(ctx context.Context, namespace string, snap *models.CartSnapshot) error
	Clear(ctx context.Context, namespace string) error
}

// RemoteStore is the backend cart row, one record per user with upsert
// semantics. Like LocalStore it is a passive collaborator.
type RemoteStore interface {
	Fetch(ctx context.Context, userID string) (*models.CartSnapshot, error)
	Upsert(ctx context.Context, userID string, snap *models.CartSnapshot) error
}

// Oracle answers whether a billboard is free for a range. Authoritative,
// idempotent and side-effect-free from the engine's perspective.
type Oracle interface {
	IsAvailable(ctx context.Context, billboardID string, r models.DateRange) (bool, error)
}

// HandoffWriter delivers the surviving items to the downstream checkout
// collaborator. The engine's only contract with it is "write a well-formed
// payload, then signal success".
type HandoffWriter interface {
	WriteHandoff(ctx context.Context, namespace string, items []models.CartItem) error
}

// Session is the authenticated identity the engine was built for. An empty
// UserID means an anonymous session.
type Session struct {
	UserID string
	Role   string
}

func (s Session) Authenticated() bool {
	return s.UserID != ""
}

// Permitted reports whether this session may mutate a cart. Only
// advertisers can.
func (s Session) Permitted() bool {
	return s.Authenticated() && s.Role == common.RoleAdvertiser
}

// Config tunes the engine. Zero values fall back to the package defaults.
type Config struct {
	// Scope namespaces local storage keys (cart_<scope>_<user>).
	Scope string

	// SyncDebounce is how long the engine waits after the last mutation
	// before pushing the snapshot remotely.
	SyncDebounce time.Duration

	// Now is the clock, injectable for tests.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Scope == "" {
		c.Scope = common.DefaultCartScope
	}
	if c.SyncDebounce <= 0 {
		c.SyncDebounce = common.DefaultSyncDebounce
	}
	if c.Now == nil {
		c.Now = func() time.Time { return time.Now().UTC() }
	}
	return c
}
