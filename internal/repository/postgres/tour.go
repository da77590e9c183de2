package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/logger"
	"tourbooking-backend/internal/repository"
)

const tourColumns = `id, guide_id, title, status, capacity, current_headcount, price_cents,
	starts_at, ends_at, booking_deadline_hours, latitude, longitude, created_at, updated_at`

type tourRepository struct {
	db *sql.DB
}

func NewTourRepository(db *sql.DB) repository.TourRepository {
	return &tourRepository{db: db}
}

func scanTour(row rowScanner) (*domain.Tour, error) {
	var (
		t        domain.Tour
		deadline sql.NullInt64
		lat, lng sql.NullFloat64
	)
	err := row.Scan(&t.ID, &t.GuideID, &t.Title, &t.Status, &t.Capacity, &t.CurrentHeadcount, &t.PriceCents,
		&t.StartsAt, &t.EndsAt, &deadline, &lat, &lng, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if deadline.Valid {
		h := int(deadline.Int64)
		t.BookingDeadlineHours = &h
	}
	if lat.Valid {
		t.Latitude = &lat.Float64
	}
	if lng.Valid {
		t.Longitude = &lng.Float64
	}
	return &t, nil
}

func (r *tourRepository) Create(ctx context.Context, t *domain.Tour) error {
	query := `INSERT INTO tours (guide_id, title, status, capacity, current_headcount, price_cents, starts_at, ends_at,
	          booking_deadline_hours, latitude, longitude, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, 0, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	return r.db.QueryRowContext(ctx, query, t.GuideID, t.Title, t.Status, t.Capacity, t.PriceCents, t.StartsAt, t.EndsAt,
		t.BookingDeadlineHours, t.Latitude, t.Longitude, t.CreatedAt, t.UpdatedAt).Scan(&t.ID)
}

func (r *tourRepository) GetByID(ctx context.Context, id int64) (*domain.Tour, error) {
	query := `SELECT ` + tourColumns + ` FROM tours WHERE id = $1`
	t, err := scanTour(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tour %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *tourRepository) Update(ctx context.Context, t *domain.Tour) error {
	logger.EnterMethod("tourRepository.Update", "tourID", t.ID)

	query := `UPDATE tours SET title = $1, capacity = $2, price_cents = $3, starts_at = $4, ends_at = $5,
	          booking_deadline_hours = $6, latitude = $7, longitude = $8, updated_at = $9
	          WHERE id = $10 AND status = ANY($11) AND current_headcount <= $2`
	result, err := r.db.ExecContext(ctx, query, t.Title, t.Capacity, t.PriceCents, t.StartsAt, t.EndsAt,
		t.BookingDeadlineHours, t.Latitude, t.Longitude, t.UpdatedAt, t.ID,
		pq.Array([]string{string(domain.TourStatusScheduled), string(domain.TourStatusOngoing)}))
	if err != nil {
		logger.ExitMethodWithError("tourRepository.Update", err, "tourID", t.ID)
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		err = fmt.Errorf("%w: tour %d is finished, cancelled or already holds more people than the new capacity", domain.ErrConflict, t.ID)
		logger.ExitMethodWithError("tourRepository.Update", err, "tourID", t.ID)
		return err
	}

	logger.ExitMethod("tourRepository.Update", "tourID", t.ID)
	return nil
}

func (r *tourRepository) Cancel(ctx context.Context, id int64, now time.Time) (bool, error) {
	query := `UPDATE tours SET status = $1, updated_at = $2 WHERE id = $3 AND status = ANY($4)`
	result, err := r.db.ExecContext(ctx, query, domain.TourStatusCancelled, now, id,
		pq.Array([]string{string(domain.TourStatusScheduled), string(domain.TourStatusOngoing)}))
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *tourRepository) StartDue(ctx context.Context, now time.Time) ([]int64, error) {
	query := `UPDATE tours SET status = $1, updated_at = $2
	          WHERE status = $3 AND starts_at <= $2
	          RETURNING id`
	return r.transition(ctx, query, domain.TourStatusOngoing, now, domain.TourStatusScheduled)
}

func (r *tourRepository) FinishDue(ctx context.Context, now time.Time) ([]int64, error) {
	query := `UPDATE tours SET status = $1, updated_at = $2
	          WHERE status = $3 AND ends_at < $2
	          RETURNING id`
	return r.transition(ctx, query, domain.TourStatusDone, now, domain.TourStatusOngoing)
}

// transition runs one bulk status update and collects the affected ids.
func (r *tourRepository) transition(ctx context.Context, query string, to domain.TourStatus, now time.Time, from domain.TourStatus) ([]int64, error) {
	logger.DatabaseCall("UPDATE", "tours", "from", from, "to", to)

	rows, err := r.db.QueryContext(ctx, query, to, now, from)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "from", from, "to", to)
		return nil, fmt.Errorf("move tours from %s to %s: %w", from, to, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tour id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate moved tours: %w", err)
	}

	logger.DatabaseResult("UPDATE", int64(len(ids)), nil, "from", from, "to", to)
	return ids, nil
}

func (r *tourRepository) ListForWeather(ctx context.Context, horizon time.Time) ([]domain.Tour, error) {
	query := `SELECT ` + tourColumns + ` FROM tours
	          WHERE status = ANY($1) AND starts_at <= $2
	            AND latitude IS NOT NULL AND longitude IS NOT NULL
	          ORDER BY starts_at, id`
	rows, err := r.db.QueryContext(ctx, query,
		pq.Array([]string{string(domain.TourStatusScheduled), string(domain.TourStatusOngoing)}), horizon)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tours []domain.Tour
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, err
		}
		tours = append(tours, *t)
	}
	return tours, rows.Err()
}
