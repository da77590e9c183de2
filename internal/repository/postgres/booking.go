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

const bookingColumns = `id, tour_id, user_id, spots, status, booked_email, booked_name, total_cents, cancelled_at, created_at, updated_at`

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) repository.BookingRepository {
	return &bookingRepository{db: db}
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		b           domain.Booking
		cancelledAt sql.NullTime
	)
	if err := row.Scan(&b.ID, &b.TourID, &b.UserID, &b.Spots, &b.Status, &b.BookedEmail, &b.BookedName,
		&b.TotalCents, &cancelledAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if cancelledAt.Valid {
		b.CancelledAt = &cancelledAt.Time
	}
	return &b, nil
}

// CreateWithinCapacity locks the tour row so that concurrent bookings for the
// last spots are serialized; the headcount check, the inserts and the counter
// bump commit together or not at all.
func (r *bookingRepository) CreateWithinCapacity(ctx context.Context, b *domain.Booking) error {
	logger.EnterMethod("bookingRepository.CreateWithinCapacity", "tourID", b.TourID, "spots", b.Spots)

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var (
			capacity  int
			headcount int
			status    domain.TourStatus
		)
		lockQuery := `SELECT capacity, current_headcount, status FROM tours WHERE id = $1 FOR UPDATE`
		if err := tx.QueryRowContext(ctx, lockQuery, b.TourID).Scan(&capacity, &headcount, &status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("tour %d: %w", b.TourID, domain.ErrNotFound)
			}
			return fmt.Errorf("lock tour: %w", err)
		}

		if status != domain.TourStatusScheduled {
			return fmt.Errorf("%w: tour %d is %s", domain.ErrValidation, b.TourID, status)
		}
		if headcount+b.Spots > capacity {
			return fmt.Errorf("%w: %d spots requested, %d left", domain.ErrCapacity, b.Spots, capacity-headcount)
		}

		insertBooking := `INSERT INTO bookings (tour_id, user_id, spots, status, booked_email, booked_name, total_cents, created_at, updated_at)
		                  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
		if err := tx.QueryRowContext(ctx, insertBooking, b.TourID, b.UserID, b.Spots, b.Status, b.BookedEmail, b.BookedName,
			b.TotalCents, b.CreatedAt, b.UpdatedAt).Scan(&b.ID); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}

		insertAddOn := `INSERT INTO booking_add_ons (booking_id, tour_add_on_id, quantity, price_cents_at_booking)
		                VALUES ($1, $2, $3, $4) RETURNING id`
		for i := range b.AddOns {
			a := &b.AddOns[i]
			a.BookingID = b.ID
			if err := tx.QueryRowContext(ctx, insertAddOn, a.BookingID, a.TourAddOnID, a.Quantity, a.PriceCentsAtBooking).Scan(&a.ID); err != nil {
				if pqCode(err) == pqUniqueViolation {
					return fmt.Errorf("%w: add-on %d selected twice", domain.ErrValidation, a.TourAddOnID)
				}
				return fmt.Errorf("insert booking add-on: %w", err)
			}
		}

		bump := `UPDATE tours SET current_headcount = current_headcount + $1, updated_at = $2 WHERE id = $3`
		if _, err := tx.ExecContext(ctx, bump, b.Spots, b.UpdatedAt, b.TourID); err != nil {
			if pqCode(err) == pqCheckViolation {
				return fmt.Errorf("%w: headcount would exceed capacity", domain.ErrCapacity)
			}
			return fmt.Errorf("increment headcount: %w", err)
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingRepository.CreateWithinCapacity", err, "tourID", b.TourID)
		return err
	}

	logger.ExitMethod("bookingRepository.CreateWithinCapacity", "bookingID", b.ID)
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	addOnQuery := `SELECT id, booking_id, tour_add_on_id, quantity, price_cents_at_booking
	               FROM booking_add_ons WHERE booking_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, addOnQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var a domain.BookingAddOn
		if err := rows.Scan(&a.ID, &a.BookingID, &a.TourAddOnID, &a.Quantity, &a.PriceCentsAtBooking); err != nil {
			return nil, err
		}
		b.AddOns = append(b.AddOns, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return b, nil
}

// Cancel keeps the row for the audit trail and gives the spots back exactly
// once: the booking row lock makes a second concurrent cancel see the
// cancelled status.
func (r *bookingRepository) Cancel(ctx context.Context, id int64, now time.Time) (bool, error) {
	logger.EnterMethod("bookingRepository.Cancel", "bookingID", id)

	changed := false
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var (
			tourID int64
			spots  int
			status domain.BookingStatus
		)
		lockQuery := `SELECT tour_id, spots, status FROM bookings WHERE id = $1 FOR UPDATE`
		if err := tx.QueryRowContext(ctx, lockQuery, id).Scan(&tourID, &spots, &status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
			}
			return fmt.Errorf("lock booking: %w", err)
		}
		if status == domain.BookingStatusCancelled {
			return nil
		}

		cancel := `UPDATE bookings SET status = $1, cancelled_at = $2, updated_at = $2 WHERE id = $3`
		if _, err := tx.ExecContext(ctx, cancel, domain.BookingStatusCancelled, now, id); err != nil {
			return fmt.Errorf("cancel booking: %w", err)
		}

		release := `UPDATE tours SET current_headcount = current_headcount - $1, updated_at = $2 WHERE id = $3`
		if _, err := tx.ExecContext(ctx, release, spots, now, tourID); err != nil {
			return fmt.Errorf("decrement headcount: %w", err)
		}
		changed = true
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingRepository.Cancel", err, "bookingID", id)
		return false, err
	}

	logger.ExitMethod("bookingRepository.Cancel", "bookingID", id, "changed", changed)
	return changed, nil
}

func (r *bookingRepository) Confirm(ctx context.Context, id int64, now time.Time) (bool, error) {
	query := `UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, domain.BookingStatusConfirmed, now, id, domain.BookingStatusPending)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows > 0 {
		return true, nil
	}

	var status domain.BookingStatus
	err = r.db.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return false, err
	}
	if status == domain.BookingStatusCancelled {
		return false, fmt.Errorf("%w: booking %d is cancelled", domain.ErrConflict, id)
	}
	return false, nil
}

func (r *bookingRepository) ListActiveByTour(ctx context.Context, tourID int64) ([]domain.Booking, error) {
	return r.listByTour(ctx, tourID, domain.BookingStatusPending, domain.BookingStatusConfirmed)
}

func (r *bookingRepository) ListConfirmedByTour(ctx context.Context, tourID int64) ([]domain.Booking, error) {
	return r.listByTour(ctx, tourID, domain.BookingStatusConfirmed)
}

func (r *bookingRepository) listByTour(ctx context.Context, tourID int64, statuses ...domain.BookingStatus) ([]domain.Booking, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE tour_id = $1 AND status = ANY($2) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, tourID, pq.Array(values))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepository) ListConfirmedStartingBetween(ctx context.Context, from, to time.Time) ([]domain.BookingReminder, error) {
	query := `SELECT b.id, b.tour_id, t.title, t.starts_at, b.spots, b.booked_email, b.booked_name
	          FROM bookings b
	          JOIN tours t ON t.id = b.tour_id
	          WHERE b.status = $1 AND t.status = $2
	            AND t.starts_at >= $3 AND t.starts_at < $4
	          ORDER BY t.starts_at, b.id`
	rows, err := r.db.QueryContext(ctx, query, domain.BookingStatusConfirmed, domain.TourStatusScheduled, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []domain.BookingReminder
	for rows.Next() {
		var br domain.BookingReminder
		if err := rows.Scan(&br.BookingID, &br.TourID, &br.TourTitle, &br.StartsAt, &br.Spots, &br.BookedEmail, &br.BookedName); err != nil {
			return nil, err
		}
		reminders = append(reminders, br)
	}
	return reminders, rows.Err()
}
