package service

import (
	"context"

	"tourbooking-backend/internal/domain"
)

type NotificationService interface {
	// EnqueueEmail stores an email in the outbox. It reports false when a
	// message with the same key was already enqueued.
	EnqueueEmail(ctx context.Context, key, recipient, template string, payload map[string]any) (bool, error)
	// EnqueueTask stores a background task in the outbox.
	EnqueueTask(ctx context.Context, key, task string, payload map[string]any) (bool, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, tourID, userID int64, spots int, selections []domain.AddOnSelection, booker domain.BookerInfo) (*domain.Booking, error)
	CancelBooking(ctx context.Context, bookingID int64) (*domain.Booking, error)
	ConfirmBooking(ctx context.Context, bookingID int64) (*domain.Booking, error)
	GetBooking(ctx context.Context, bookingID int64) (*domain.Booking, error)
}

type TourService interface {
	CreateTour(ctx context.Context, tour *domain.Tour) error
	UpdateTour(ctx context.Context, tour *domain.Tour) error
	CancelTour(ctx context.Context, tourID int64) (*domain.Tour, error)
	GetTour(ctx context.Context, tourID int64) (*domain.Tour, error)
}

type AddOnService interface {
	CreateAddOn(ctx context.Context, addOn *domain.TourAddOn) error
	UpdateAddOn(ctx context.Context, addOn *domain.TourAddOn) error
	ListAddOns(ctx context.Context, tourID int64) ([]domain.TourAddOn, error)
}

type ReviewService interface {
	CreateReview(ctx context.Context, userID, bookingID int64, rating int, comment string) (*domain.Review, error)
}

// CompletionService runs the follow-up of a finished tour: the guide summary
// and one review invite per confirmed booking.
type CompletionService interface {
	CompleteTour(ctx context.Context, tourID int64) error
}
