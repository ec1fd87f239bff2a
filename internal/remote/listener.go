package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vallamarket/cartsync/internal/logging"
	"github.com/vallamarket/cartsync/internal/models"
)

// ReservationChannel is the NOTIFY channel the backend trigger publishes
// reservation create/update events on.
const ReservationChannel = "cart_reservation_events"

// Listener turns Postgres LISTEN/NOTIFY into a stream of reservation
// events. Each Subscribe call holds a dedicated connection for the life of
// the given context; cancelling the context tears the subscription down.
type Listener struct {
	dsn string
	log logging.Logger
}

func NewListener(dsn string, log logging.Logger) *Listener {
	return &Listener{dsn: dsn, log: log.With("module", "reservation_feed")}
}

func (l *Listener) Subscribe(ctx context.Context) (<-chan models.ReservationEvent, error) {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect listener: %w", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+ReservationChannel); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("failed to listen on %s: %w", ReservationChannel, err)
	}

	ch := make(chan models.ReservationEvent)

	go func() {
		defer close(ch)
		defer func() { _ = conn.Close(context.Background()) }()

		for {
			n, err := conn.WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					l.log.Error(ctx, "feed interrupted", "error", err.Error())
				}
				return
			}

			var ev models.ReservationEvent
			if err := json.Unmarshal([]byte(n.Payload), &ev); err != nil {
				l.log.Warn(ctx, "dropping malformed event", "payload", n.Payload)
				continue
			}

			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}
