package repository

import (
	"context"
	"time"

	"tourbooking-backend/internal/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type TourRepository interface {
	Create(ctx context.Context, tour *domain.Tour) error
	GetByID(ctx context.Context, id int64) (*domain.Tour, error)
	// Update rewrites guide-editable fields; done and cancelled tours are
	// left untouched and reported as domain.ErrConflict.
	Update(ctx context.Context, tour *domain.Tour) error
	// Cancel moves a scheduled or ongoing tour to cancelled. It reports false
	// when the tour was not in a cancellable status.
	Cancel(ctx context.Context, id int64, now time.Time) (bool, error)

	// StartDue moves scheduled tours with starts_at <= now to ongoing.
	StartDue(ctx context.Context, now time.Time) ([]int64, error)
	// FinishDue moves ongoing tours with ends_at < now to done.
	FinishDue(ctx context.Context, now time.Time) ([]int64, error)
	// ListForWeather returns scheduled/ongoing tours with coordinates that
	// start no later than horizon.
	ListForWeather(ctx context.Context, horizon time.Time) ([]domain.Tour, error)
}

type AddOnRepository interface {
	Create(ctx context.Context, addOn *domain.TourAddOn) error
	GetByID(ctx context.Context, id int64) (*domain.TourAddOn, error)
	Update(ctx context.Context, addOn *domain.TourAddOn) error
	ListByTour(ctx context.Context, tourID int64) ([]domain.TourAddOn, error)
}

type BookingRepository interface {
	// CreateWithinCapacity inserts the booking and its add-on selections and
	// bumps the tour headcount in one transaction. It fails with
	// domain.ErrCapacity when the tour cannot hold booking.Spots more people.
	CreateWithinCapacity(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	// Cancel marks the booking cancelled and gives its spots back. It reports
	// false when the booking was already cancelled.
	Cancel(ctx context.Context, id int64, now time.Time) (bool, error)
	// Confirm moves a pending booking to confirmed. It reports false when the
	// booking was already confirmed.
	Confirm(ctx context.Context, id int64, now time.Time) (bool, error)
	ListActiveByTour(ctx context.Context, tourID int64) ([]domain.Booking, error)
	ListConfirmedByTour(ctx context.Context, tourID int64) ([]domain.Booking, error)
	// ListConfirmedStartingBetween returns confirmed bookings on scheduled
	// tours with from <= starts_at < to.
	ListConfirmedStartingBetween(ctx context.Context, from, to time.Time) ([]domain.BookingReminder, error)
}

type WeatherSnapshotRepository interface {
	// Get returns nil, nil when no snapshot exists for the tour and date.
	Get(ctx context.Context, tourID int64, date time.Time) (*domain.WeatherSnapshot, error)
	Upsert(ctx context.Context, snapshot *domain.WeatherSnapshot) error
	ListByTour(ctx context.Context, tourID int64) ([]domain.WeatherSnapshot, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	GetByBooking(ctx context.Context, bookingID int64) (*domain.Review, error)
}

type OutboxRepository interface {
	// Enqueue stores the message unless its idempotency key is already known.
	// It reports whether a new row was written.
	Enqueue(ctx context.Context, msg *domain.OutboxMessage) (bool, error)
	// ClaimDue locks up to limit due messages and hides them until
	// now+visibility so other dispatchers skip them.
	ClaimDue(ctx context.Context, now time.Time, limit int, visibility time.Duration) ([]domain.OutboxMessage, error)
	MarkDelivered(ctx context.Context, id int64, now time.Time) error
	// MarkFailed records a failed attempt. When retryAt is nil the message is
	// given up on.
	MarkFailed(ctx context.Context, id int64, attempts int, lastErr string, retryAt *time.Time) error
}

type EmailLogRepository interface {
	Create(ctx context.Context, entry *domain.EmailLog) error
	ListByRecipient(ctx context.Context, recipient string, limit int) ([]domain.EmailLog, error)
}
