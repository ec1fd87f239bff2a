package remote_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/vallamarket/cartsync/internal/common"
	"github.com/vallamarket/cartsync/internal/logging"
	"github.com/vallamarket/cartsync/internal/models"
	"github.com/vallamarket/cartsync/internal/remote"
)

func startPostgres(ctx context.Context) (*postgres.PostgresContainer, string, error) {
	postgresContainer, err := postgres.Run(ctx, "postgres:17.6-alpine3.22",
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, "", fmt.Errorf("postgres.Run: %w", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", fmt.Errorf("pc.ConnectionString: %w", err)
	}

	if err := remote.Migrate(ctx, connStr); err != nil {
		return nil, "", fmt.Errorf("remote.Migrate: %w", err)
	}

	return postgresContainer, connStr, nil
}

type remoteSuite struct {
	suite.Suite

	connStr string
	pool    *pgxpool.Pool
	store   *remote.Store
	oracle  *remote.Oracle
}

func TestRemoteSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed tests in short mode")
	}
	suite.Run(t, new(remoteSuite))
}

func (s *remoteSuite) SetupSuite() {
	ctx := s.T().Context()

	_, connStr, err := startPostgres(ctx)
	s.Require().NoError(err)
	s.connStr = connStr

	s.pool, err = pgxpool.New(ctx, connStr)
	s.Require().NoError(err)

	s.store = remote.NewStore(s.pool)
	s.oracle = remote.NewOracle(s.pool)
}

func (s *remoteSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *remoteSuite) deleteAll() {
	_, err := s.pool.Exec(context.Background(), `DELETE FROM reservations; DELETE FROM carts`)
	s.Require().NoError(err)
}

func (s *remoteSuite) addReservation(billboardID string, start, end models.Date, status models.ReservationStatus) {
	_, err := s.pool.Exec(context.Background(),
		`INSERT INTO reservations (billboard_id, start_date, end_date, status) VALUES ($1, $2, $3, $4)`,
		billboardID, start.Time, end.Time, string(status))
	s.Require().NoError(err)
}

func randomSnapshot() *models.CartSnapshot {
	price, _ := models.NewMoney("780.00", "EUR")
	item := models.CartItem{
		ID:          uuid.NewString(),
		BillboardID: uuid.NewString(),
		Name:        gofakeit.Street(),
		Location:    gofakeit.City(),
		Category:    "static",
		Price:       price,
		StartDate:   models.NewDate(2025, time.April, 1),
		EndDate:     models.NewDate(2025, time.April, 30),
		IsValid:     true,
	}
	dates := item.Range()
	return &models.CartSnapshot{
		Items:       []models.CartItem{item},
		ActiveDates: &dates,
		UpdatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *remoteSuite) TestConnect() {
	ctx := context.Background()

	store, err := remote.Connect(ctx, s.connStr)
	s.Require().NoError(err)
	store.Close()

	_, err = remote.Connect(ctx, "postgres://nobody@127.0.0.1:1/nowhere")
	s.ErrorIs(err, common.ErrBackendUnavailable)
}

func (s *remoteSuite) TestFetch_NoRow() {
	defer s.deleteAll()

	_, err := s.store.Fetch(context.Background(), gofakeit.UUID())
	s.ErrorIs(err, common.ErrorNotFound)
}

func (s *remoteSuite) TestUpsertAndFetch() {
	defer s.deleteAll()
	ctx := context.Background()

	userID := gofakeit.UUID()
	snap := randomSnapshot()

	s.Require().NoError(s.store.Upsert(ctx, userID, snap))

	got, err := s.store.Fetch(ctx, userID)
	s.Require().NoError(err)

	s.Empty(cmp.Diff(snap.Items, got.Items,
		cmp.Comparer(func(a, b models.Money) bool { return a.Equal(b) }),
		cmp.Comparer(func(a, b models.Date) bool { return a.Equal(b) })))
	s.Require().NotNil(got.ActiveDates)
	s.True(snap.ActiveDates.Equal(*got.ActiveDates))
	s.True(snap.UpdatedAt.Equal(got.UpdatedAt))
}

func (s *remoteSuite) TestUpsert_SecondWriteWinsAndRefreshesActivity() {
	defer s.deleteAll()
	ctx := context.Background()

	userID := gofakeit.UUID()
	s.Require().NoError(s.store.Upsert(ctx, userID, randomSnapshot()))

	var firstActivity time.Time
	s.Require().NoError(s.pool.QueryRow(ctx,
		`SELECT last_activity_at FROM carts WHERE user_id = $1`, userID).Scan(&firstActivity))

	empty := &models.CartSnapshot{Items: nil, UpdatedAt: time.Now().UTC()}
	s.Require().NoError(s.store.Upsert(ctx, userID, empty))

	got, err := s.store.Fetch(ctx, userID)
	s.Require().NoError(err)
	s.Empty(got.Items)
	s.Nil(got.ActiveDates)

	var secondActivity time.Time
	s.Require().NoError(s.pool.QueryRow(ctx,
		`SELECT last_activity_at FROM carts WHERE user_id = $1`, userID).Scan(&secondActivity))
	s.False(secondActivity.Before(firstActivity))
}

func (s *remoteSuite) TestOracle() {
	defer s.deleteAll()
	ctx := context.Background()

	billboard := gofakeit.UUID()
	queried := models.DateRange{
		Start: models.NewDate(2025, time.May, 10),
		End:   models.NewDate(2025, time.May, 20),
	}

	// nothing reserved
	free, err := s.oracle.IsAvailable(ctx, billboard, queried)
	s.Require().NoError(err)
	s.True(free)

	// cancelled reservations do not block
	s.addReservation(billboard, queried.Start, queried.End, models.ReservationCancelled)
	free, err = s.oracle.IsAvailable(ctx, billboard, queried)
	s.Require().NoError(err)
	s.True(free)

	// an overlapping pending reservation blocks, endpoints inclusive
	s.addReservation(billboard,
		models.NewDate(2025, time.May, 20), models.NewDate(2025, time.May, 25),
		models.ReservationPending)
	free, err = s.oracle.IsAvailable(ctx, billboard, queried)
	s.Require().NoError(err)
	s.False(free)

	// a different billboard is unaffected
	free, err = s.oracle.IsAvailable(ctx, gofakeit.UUID(), queried)
	s.Require().NoError(err)
	s.True(free)
}

func (s *remoteSuite) TestListener_ReceivesReservationInsert() {
	defer s.deleteAll()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	events, err := remote.NewListener(s.connStr, log).Subscribe(ctx)
	s.Require().NoError(err)

	billboard := gofakeit.UUID()
	s.addReservation(billboard,
		models.NewDate(2025, time.June, 1), models.NewDate(2025, time.June, 15),
		models.ReservationActive)

	select {
	case ev := <-events:
		s.Equal("INSERT", ev.Type)
		s.Equal(billboard, ev.Config.BillboardID)
		s.Equal(models.ReservationActive, ev.Status)
		s.True(ev.Start.Equal(models.NewDate(2025, time.June, 1)))
		s.True(ev.End.Equal(models.NewDate(2025, time.June, 15)))
	case <-ctx.Done():
		s.Fail("timed out waiting for reservation event")
	}
}
