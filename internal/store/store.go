package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"order-insights/internal/engine"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ErrOrderNotFound is returned when no order matches the lookup key
var ErrOrderNotFound = errors.New("order not found")

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// NewStoreFromDB wraps an existing connection
func NewStoreFromDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ReadSnapshot loads the orders and spend records for a report inside one
// read-only repeatable-read transaction, so both feeds see the same state.
// start and end bound the order timestamp selected by filter as [start, end).
func (s *Store) ReadSnapshot(ctx context.Context, start, end time.Time, filter engine.DateFilter) (engine.Snapshot, error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("failed to begin snapshot: %w", err)
	}
	defer tx.Rollback()

	orders, err := listOrdersInRange(ctx, tx, start, end, filter)
	if err != nil {
		return engine.Snapshot{}, err
	}

	spend, err := listSpendInRange(ctx, tx, start.Format(engine.DayLayout), end.AddDate(0, 0, -1).Format(engine.DayLayout))
	if err != nil {
		return engine.Snapshot{}, err
	}

	if err := tx.Commit(); err != nil {
		return engine.Snapshot{}, fmt.Errorf("failed to close snapshot: %w", err)
	}
	return engine.Snapshot{Orders: orders, Spend: spend}, nil
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
