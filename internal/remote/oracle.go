package remote

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vallamarket/cartsync/internal/models"
)

// Oracle answers "is this billboard free for this range" by calling the
// backend's availability function. The call is read-only and idempotent;
// the engine treats the answer as authoritative.
type Oracle struct {
	pool *pgxpool.Pool
}

func NewOracle(pool *pgxpool.Pool) *Oracle {
	return &Oracle{pool: pool}
}

func (o *Oracle) IsAvailable(ctx context.Context, billboardID string, r models.DateRange) (bool, error) {
	if billboardID == "" {
		return false, fmt.Errorf("billboardID is empty")
	}

	var available bool
	err := o.pool.QueryRow(ctx,
		`SELECT is_billboard_available($1, $2, $3)`,
		billboardID, r.Start.Time, r.End.Time).Scan(&available)
	if err != nil {
		return false, fmt.Errorf("availability check failed: %w", err)
	}

	return available, nil
}
