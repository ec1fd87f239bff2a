// Package localstore is the device-local persistence adapter. It keeps one
// cart snapshot per namespace in SQLite, plus the handoff payload consumed
// by the external booking wizard. Namespaces are keyed per user so carts
// never bleed across accounts on a shared machine.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/vallamarket/cartsync/internal/common"
	"github.com/vallamarket/cartsync/internal/dbx"
	"github.com/vallamarket/cartsync/internal/localstore/migrations"
	"github.com/vallamarket/cartsync/internal/models"
)

// Namespace builds the per-user storage key: cart_<scope>_<userIdOrAnonymous>.
func Namespace(scope, userID string) string {
	if userID == "" {
		userID = common.AnonymousUserID
	}
	return fmt.Sprintf("cart_%s_%s", scope, userID)
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (creating if needed) the local cart database and applies
// pending migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return NewStore(db), nil
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads the snapshot stored under namespace. Returns
// common.ErrorNotFound when no snapshot exists.
func (s *Store) Load(ctx context.Context, namespace string) (*models.CartSnapshot, error) {

	query := `SELECT items, active_dates, updated_at FROM cart_snapshots WHERE namespace = ?`
	row := s.db.QueryRowContext(ctx, query, namespace)

	var itemsJSON string
	var datesJSON sql.NullString
	var updatedAt string

	err := row.Scan(&itemsJSON, &datesJSON, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	snap := &models.CartSnapshot{}

	if err := json.Unmarshal([]byte(itemsJSON), &snap.Items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}

	if datesJSON.Valid && datesJSON.String != "" {
		var r models.DateRange
		if err := json.Unmarshal([]byte(datesJSON.String), &r); err != nil {
			return nil, fmt.Errorf("failed to decode active dates: %w", err)
		}
		snap.ActiveDates = &r
	}

	snap.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return snap, nil
}

// Save upserts the snapshot under namespace.
func (s *Store) Save(ctx context.Context, namespace string, snap *models.CartSnapshot) error {

	itemsJSON, err := json.Marshal(snap.Items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}

	var datesJSON any
	if snap.ActiveDates != nil {
		b, err := json.Marshal(snap.ActiveDates)
		if err != nil {
			return fmt.Errorf("failed to encode active dates: %w", err)
		}
		datesJSON = string(b)
	}

	query := `INSERT INTO cart_snapshots (namespace, items, active_dates, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET
			items = excluded.items,
			active_dates = excluded.active_dates,
			updated_at = excluded.updated_at`

	_, err = s.db.ExecContext(ctx, query, namespace, string(itemsJSON), datesJSON,
		snap.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// Clear removes the snapshot stored under namespace along with any stale
// checkout handoff, so an emptied cart can never leave an outdated payload
// behind for the booking wizard. Both deletes run in one transaction.
func (s *Store) Clear(ctx context.Context, namespace string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_snapshots WHERE namespace = ?`, namespace); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM checkout_handoffs WHERE namespace = ?`, namespace)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}
	return nil
}

// SaveHandoff stores the payload the booking wizard reads on its side of
// the checkout boundary. A later handoff replaces any previous one.
func (s *Store) SaveHandoff(ctx context.Context, namespace string, payload []byte) error {

	query := `INSERT INTO checkout_handoffs (namespace, payload, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at`

	_, err := s.db.ExecContext(ctx, query, namespace, string(payload),
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save handoff: %w", err)
	}

	return nil
}

// LoadHandoff reads back the checkout payload. Returns common.ErrorNotFound
// when none was written.
func (s *Store) LoadHandoff(ctx context.Context, namespace string) ([]byte, error) {
	var payload string

	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM checkout_handoffs WHERE namespace = ?`, namespace).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load handoff: %w", err)
	}

	return []byte(payload), nil
}
