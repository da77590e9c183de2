package service

import (
	"context"
	"fmt"
	"strings"

	"tourbooking-backend/internal/clock"
	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/logger"
	"tourbooking-backend/internal/queue"
	"tourbooking-backend/internal/repository"
)

type tourService struct {
	tourRepo    repository.TourRepository
	bookingRepo repository.BookingRepository
	userRepo    repository.UserRepository
	notifier    NotificationService
	events      queue.Publisher
	clock       clock.Clock
}

func NewTourService(
	tourRepo repository.TourRepository,
	bookingRepo repository.BookingRepository,
	userRepo repository.UserRepository,
	notifier NotificationService,
	events queue.Publisher,
	clk clock.Clock,
) TourService {
	return &tourService{
		tourRepo:    tourRepo,
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		events:      events,
		clock:       clk,
	}
}

func validateTour(t *domain.Tour) error {
	t.Title = strings.TrimSpace(t.Title)
	switch {
	case t.Title == "":
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	case t.Capacity <= 0:
		return fmt.Errorf("%w: capacity must be positive", domain.ErrValidation)
	case t.PriceCents < 0:
		return fmt.Errorf("%w: price cannot be negative", domain.ErrValidation)
	case !t.EndsAt.After(t.StartsAt):
		return fmt.Errorf("%w: tour must end after it starts", domain.ErrValidation)
	case t.BookingDeadlineHours != nil && *t.BookingDeadlineHours < 0:
		return fmt.Errorf("%w: booking deadline cannot be negative", domain.ErrValidation)
	case (t.Latitude == nil) != (t.Longitude == nil):
		return fmt.Errorf("%w: latitude and longitude go together", domain.ErrValidation)
	}
	if t.HasCoordinates() {
		if *t.Latitude < -90 || *t.Latitude > 90 || *t.Longitude < -180 || *t.Longitude > 180 {
			return fmt.Errorf("%w: coordinates out of range", domain.ErrValidation)
		}
	}
	return nil
}

func (s *tourService) CreateTour(ctx context.Context, t *domain.Tour) error {
	logger.EnterMethod("tourService.CreateTour", "guideID", t.GuideID)

	if err := validateTour(t); err != nil {
		logger.ExitMethodWithError("tourService.CreateTour", err)
		return err
	}
	guide, err := s.userRepo.GetByID(ctx, t.GuideID)
	if err != nil {
		return err
	}
	if guide.Role != domain.UserRoleGuide {
		return fmt.Errorf("%w: only guides can publish tours", domain.ErrForbidden)
	}

	now := s.clock.Now()
	t.Status = domain.TourStatusScheduled
	t.CurrentHeadcount = 0
	t.CreatedAt = now
	t.UpdatedAt = now
	if err := s.tourRepo.Create(ctx, t); err != nil {
		logger.ExitMethodWithError("tourService.CreateTour", err)
		return err
	}

	logger.ExitMethod("tourService.CreateTour", "tourID", t.ID)
	return nil
}

// UpdateTour rewrites the editable fields. Status, guide and headcount always
// come from the stored tour.
func (s *tourService) UpdateTour(ctx context.Context, t *domain.Tour) error {
	existing, err := s.tourRepo.GetByID(ctx, t.ID)
	if err != nil {
		return err
	}
	if existing.Status.IsTerminal() {
		return fmt.Errorf("%w: tour %d is %s", domain.ErrConflict, existing.ID, existing.Status)
	}
	if err := validateTour(t); err != nil {
		return err
	}
	if existing.Status == domain.TourStatusOngoing && !t.StartsAt.Equal(existing.StartsAt) {
		return fmt.Errorf("%w: tour %d has already started", domain.ErrValidation, existing.ID)
	}
	if t.Capacity < existing.CurrentHeadcount {
		return fmt.Errorf("%w: capacity %d is below the %d people already booked", domain.ErrValidation, t.Capacity, existing.CurrentHeadcount)
	}

	t.GuideID = existing.GuideID
	t.Status = existing.Status
	t.CurrentHeadcount = existing.CurrentHeadcount
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = s.clock.Now()
	return s.tourRepo.Update(ctx, t)
}

// CancelTour is idempotent for an already cancelled tour. Bookings keep their
// status; every active booker is told the tour will not happen.
func (s *tourService) CancelTour(ctx context.Context, tourID int64) (*domain.Tour, error) {
	logger.EnterMethod("tourService.CancelTour", "tourID", tourID)

	tour, err := s.tourRepo.GetByID(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if tour.Status == domain.TourStatusCancelled {
		logger.ExitMethod("tourService.CancelTour", "tourID", tourID, "changed", false)
		return tour, nil
	}

	now := s.clock.Now()
	changed, err := s.tourRepo.Cancel(ctx, tourID, now)
	if err != nil {
		logger.ExitMethodWithError("tourService.CancelTour", err, "tourID", tourID)
		return nil, err
	}
	if !changed {
		err := fmt.Errorf("%w: tour %d can no longer be cancelled", domain.ErrConflict, tourID)
		logger.ExitMethodWithError("tourService.CancelTour", err, "tourID", tourID)
		return nil, err
	}
	previous := tour.Status
	tour.Status = domain.TourStatusCancelled
	tour.UpdatedAt = now

	bookings, err := s.bookingRepo.ListActiveByTour(ctx, tourID)
	if err != nil {
		logger.Error("Failed to list bookings of cancelled tour", "tourID", tourID, "error", err)
	}
	for _, b := range bookings {
		payload := bookingPayload(&b, tour)
		if _, err := s.notifier.EnqueueEmail(ctx, domain.TourCancelledKey(tourID, b.ID), b.BookedEmail,
			domain.TemplateTourCancelled, payload); err != nil {
			logger.Error("Failed to enqueue tour cancellation email", "tourID", tourID, "bookingID", b.ID, "error", err)
		}
	}

	if err := s.events.Publish(ctx, queue.NewEvent(queue.EventTourStatusChanged, now, map[string]any{
		"tour_id": tourID,
		"from":    previous,
		"to":      domain.TourStatusCancelled,
	})); err != nil {
		logger.Warn("Failed to publish event", "type", queue.EventTourStatusChanged, "error", err)
	}

	logger.ExitMethod("tourService.CancelTour", "tourID", tourID, "notified", len(bookings))
	return tour, nil
}

func (s *tourService) GetTour(ctx context.Context, tourID int64) (*domain.Tour, error) {
	return s.tourRepo.GetByID(ctx, tourID)
}
