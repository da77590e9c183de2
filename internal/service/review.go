package service

import (
	"context"
	"fmt"
	"strings"

	"tourbooking-backend/internal/clock"
	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/repository"
)

type reviewService struct {
	reviewRepo  repository.ReviewRepository
	bookingRepo repository.BookingRepository
	tourRepo    repository.TourRepository
	clock       clock.Clock
}

func NewReviewService(reviewRepo repository.ReviewRepository, bookingRepo repository.BookingRepository, tourRepo repository.TourRepository, clk clock.Clock) ReviewService {
	return &reviewService{reviewRepo: reviewRepo, bookingRepo: bookingRepo, tourRepo: tourRepo, clock: clk}
}

func (s *reviewService) CreateReview(ctx context.Context, userID, bookingID int64, rating int, comment string) (*domain.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", domain.ErrValidation)
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, fmt.Errorf("%w: booking %d belongs to another user", domain.ErrForbidden, bookingID)
	}
	if booking.Status != domain.BookingStatusConfirmed {
		return nil, fmt.Errorf("%w: only confirmed bookings can be reviewed", domain.ErrValidation)
	}

	tour, err := s.tourRepo.GetByID(ctx, booking.TourID)
	if err != nil {
		return nil, err
	}
	if tour.Status != domain.TourStatusDone {
		return nil, fmt.Errorf("%w: tour %d has not finished yet", domain.ErrValidation, tour.ID)
	}

	review := &domain.Review{
		BookingID: bookingID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: s.clock.Now(),
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}
