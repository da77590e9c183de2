package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"tourbooking-backend/internal/repository"
)

// PostgreSQL error codes we translate into domain errors.
const (
	pqUniqueViolation = "23505"
	pqCheckViolation  = "23514"
)

type Store struct {
	db *sql.DB
	repository.UserRepository
	repository.TourRepository
	repository.AddOnRepository
	repository.BookingRepository
	repository.WeatherSnapshotRepository
	repository.ReviewRepository
	repository.OutboxRepository
	repository.EmailLogRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                        db,
		UserRepository:            NewUserRepository(db),
		TourRepository:            NewTourRepository(db),
		AddOnRepository:           NewAddOnRepository(db),
		BookingRepository:         NewBookingRepository(db),
		WeatherSnapshotRepository: NewWeatherSnapshotRepository(db),
		ReviewRepository:          NewReviewRepository(db),
		OutboxRepository:          NewOutboxRepository(db),
		EmailLogRepository:        NewEmailLogRepository(db),
	}
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// withTx runs fn inside a transaction, committing only when fn succeeds.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
