// Package remote is the client for the marketplace backend. The backend's
// data plane is Postgres, so the cart row, the availability function and the
// reservation notification feed are all reached through pgx.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vallamarket/cartsync/internal/common"
	"github.com/vallamarket/cartsync/internal/models"
)

// Store reads and upserts the single cart row each user owns.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a pool against the backend DSN and verifies it is
// reachable.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrBackendUnavailable, err)
	}
	return NewStore(pool), nil
}

func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) Close() {
	s.pool.Close()
}

// Fetch reads the user's cart row. Returns common.ErrorNotFound when the
// user has never persisted a cart.
func (s *Store) Fetch(ctx context.Context, userID string) (*models.CartSnapshot, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID is empty")
	}

	query := `SELECT items, active_dates, updated_at FROM carts WHERE user_id = $1`

	var itemsJSON []byte
	var datesJSON []byte
	var updatedAt time.Time

	err := s.pool.QueryRow(ctx, query, userID).Scan(&itemsJSON, &datesJSON, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}

	snap := &models.CartSnapshot{UpdatedAt: updatedAt}

	if err := json.Unmarshal(itemsJSON, &snap.Items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}

	if len(datesJSON) > 0 {
		var r models.DateRange
		if err := json.Unmarshal(datesJSON, &r); err != nil {
			return nil, fmt.Errorf("failed to decode active dates: %w", err)
		}
		snap.ActiveDates = &r
	}

	return snap, nil
}

// Upsert writes the snapshot into the user's cart row, creating it on first
// use. The row is never deleted, only emptied; last_activity_at is refreshed
// on every write.
func (s *Store) Upsert(ctx context.Context, userID string, snap *models.CartSnapshot) error {
	if userID == "" {
		return fmt.Errorf("userID is empty")
	}

	itemsJSON, err := json.Marshal(snap.Items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}

	var datesJSON []byte
	if snap.ActiveDates != nil {
		datesJSON, err = json.Marshal(snap.ActiveDates)
		if err != nil {
			return fmt.Errorf("failed to encode active dates: %w", err)
		}
	}

	query := `INSERT INTO carts (user_id, items, active_dates, updated_at, last_activity_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id) DO UPDATE SET
			items = excluded.items,
			active_dates = excluded.active_dates,
			updated_at = excluded.updated_at,
			last_activity_at = now()`

	_, err = s.pool.Exec(ctx, query, userID, itemsJSON, datesJSON, snap.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}

	return nil
}
