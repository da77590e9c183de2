package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/repository"
)

type reviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) repository.ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	query := `INSERT INTO reviews (booking_id, rating, comment, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, rv.BookingID, rv.Rating, rv.Comment, rv.CreatedAt).Scan(&rv.ID)
	if pqCode(err) == pqUniqueViolation {
		return fmt.Errorf("%w: booking %d already has a review", domain.ErrConflict, rv.BookingID)
	}
	return err
}

func (r *reviewRepository) GetByBooking(ctx context.Context, bookingID int64) (*domain.Review, error) {
	rv := &domain.Review{}
	query := `SELECT id, booking_id, rating, comment, created_at FROM reviews WHERE booking_id = $1`
	err := r.db.QueryRowContext(ctx, query, bookingID).Scan(&rv.ID, &rv.BookingID, &rv.Rating, &rv.Comment, &rv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("review for booking %d: %w", bookingID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return rv, nil
}
