package service

import (
	"context"
	"errors"
	"fmt"

	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/logger"
	"tourbooking-backend/internal/repository"
)

type completionService struct {
	tourRepo    repository.TourRepository
	bookingRepo repository.BookingRepository
	userRepo    repository.UserRepository
	notifier    NotificationService
}

func NewCompletionService(
	tourRepo repository.TourRepository,
	bookingRepo repository.BookingRepository,
	userRepo repository.UserRepository,
	notifier NotificationService,
) CompletionService {
	return &completionService{
		tourRepo:    tourRepo,
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		notifier:    notifier,
	}
}

// CompleteTour can run any number of times: every email it enqueues has a
// fixed idempotency key. A partial failure is returned so the task is retried.
func (s *completionService) CompleteTour(ctx context.Context, tourID int64) error {
	logger.EnterMethod("completionService.CompleteTour", "tourID", tourID)

	tour, err := s.tourRepo.GetByID(ctx, tourID)
	if err != nil {
		return err
	}
	if tour.Status != domain.TourStatusDone {
		return fmt.Errorf("%w: tour %d is %s, not done", domain.ErrConflict, tourID, tour.Status)
	}

	bookings, err := s.bookingRepo.ListConfirmedByTour(ctx, tourID)
	if err != nil {
		return err
	}

	var errs []error

	guide, err := s.userRepo.GetByID(ctx, tour.GuideID)
	if err != nil {
		errs = append(errs, fmt.Errorf("load guide %d: %w", tour.GuideID, err))
	} else {
		spots := 0
		for _, b := range bookings {
			spots += b.Spots
		}
		_, err := s.notifier.EnqueueEmail(ctx, domain.TourCompletedGuideKey(tourID), guide.Email, domain.TemplateTourCompleted,
			map[string]any{
				"tour_id":    tour.ID,
				"tour_title": tour.Title,
				"name":       guide.Name,
				"bookings":   len(bookings),
				"spots":      spots,
			})
		if err != nil {
			errs = append(errs, err)
		}
	}

	for _, b := range bookings {
		payload := bookingPayload(&b, tour)
		if _, err := s.notifier.EnqueueEmail(ctx, domain.ReviewInviteKey(b.ID), b.BookedEmail, domain.TemplateReviewInvite, payload); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		logger.ExitMethodWithError("completionService.CompleteTour", err, "tourID", tourID)
		return err
	}
	logger.ExitMethod("completionService.CompleteTour", "tourID", tourID, "invites", len(bookings))
	return nil
}
