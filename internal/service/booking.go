package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"tourbooking-backend/internal/clock"
	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/logger"
	"tourbooking-backend/internal/metrics"
	"tourbooking-backend/internal/queue"
	"tourbooking-backend/internal/repository"
	"tourbooking-backend/internal/utils"
)

type bookingService struct {
	bookingRepo repository.BookingRepository
	tourRepo    repository.TourRepository
	addOnRepo   repository.AddOnRepository
	userRepo    repository.UserRepository
	notifier    NotificationService
	events      queue.Publisher
	clock       clock.Clock
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	tourRepo repository.TourRepository,
	addOnRepo repository.AddOnRepository,
	userRepo repository.UserRepository,
	notifier NotificationService,
	events queue.Publisher,
	clk clock.Clock,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		tourRepo:    tourRepo,
		addOnRepo:   addOnRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		events:      events,
		clock:       clk,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, tourID, userID int64, spots int, selections []domain.AddOnSelection, booker domain.BookerInfo) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.CreateBooking", "tourID", tourID, "userID", userID, "spots", spots)

	booking, tour, err := s.createBooking(ctx, tourID, userID, spots, selections, booker)
	if err != nil {
		metrics.Bookings.WithLabelValues(domain.ErrorKind(err)).Inc()
		logger.ExitMethodWithError("bookingService.CreateBooking", err, "tourID", tourID)
		return nil, err
	}
	metrics.Bookings.WithLabelValues(string(booking.Status)).Inc()

	s.notifyCreated(ctx, booking, tour)
	s.publish(ctx, queue.EventBookingCreated, map[string]any{
		"booking_id":  booking.ID,
		"tour_id":     booking.TourID,
		"spots":       booking.Spots,
		"status":      booking.Status,
		"total_cents": booking.TotalCents,
	})

	logger.ExitMethod("bookingService.CreateBooking", "bookingID", booking.ID, "status", booking.Status)
	return booking, nil
}

func (s *bookingService) createBooking(ctx context.Context, tourID, userID int64, spots int, selections []domain.AddOnSelection, booker domain.BookerInfo) (*domain.Booking, *domain.Tour, error) {
	if spots < 1 {
		return nil, nil, fmt.Errorf("%w: spots must be at least 1", domain.ErrValidation)
	}
	booker.Email = strings.TrimSpace(booker.Email)
	booker.Name = strings.TrimSpace(booker.Name)
	if booker.Name == "" {
		return nil, nil, fmt.Errorf("%w: booker name is required", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(booker.Email); err != nil {
		return nil, nil, fmt.Errorf("%w: booker email %q is invalid", domain.ErrValidation, booker.Email)
	}

	tour, err := s.tourRepo.GetByID(ctx, tourID)
	if err != nil {
		return nil, nil, err
	}
	if tour.Status != domain.TourStatusScheduled {
		return nil, nil, fmt.Errorf("%w: tour %d is %s", domain.ErrValidation, tour.ID, tour.Status)
	}

	now := s.clock.Now()
	if tour.BookingClosed(now) {
		closesAt, _ := tour.BookingClosesAt()
		return nil, nil, fmt.Errorf("%w: booking closed at %s", domain.ErrDeadline, closesAt.Format("2006-01-02 15:04 MST"))
	}
	// Fast path only; the repository re-checks under the tour row lock.
	if spots > tour.SpotsLeft() {
		return nil, nil, fmt.Errorf("%w: %d spots requested, %d left", domain.ErrCapacity, spots, tour.SpotsLeft())
	}

	addOns, err := s.priceAddOns(ctx, tour, spots, selections)
	if err != nil {
		return nil, nil, err
	}

	cost, err := utils.CalculateBookingCost(tour.PriceCents, spots, addOns)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	total := cost.TotalCost

	status := domain.BookingStatusPending
	if total == 0 {
		status = domain.BookingStatusConfirmed
	}

	booking := &domain.Booking{
		TourID:      tour.ID,
		UserID:      userID,
		Spots:       spots,
		Status:      status,
		BookedEmail: booker.Email,
		BookedName:  booker.Name,
		TotalCents:  total,
		AddOns:      addOns,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.bookingRepo.CreateWithinCapacity(ctx, booking); err != nil {
		return nil, nil, err
	}
	return booking, tour, nil
}

// priceAddOns validates the selections against the tour's add-ons and
// snapshots the current prices.
func (s *bookingService) priceAddOns(ctx context.Context, tour *domain.Tour, spots int, selections []domain.AddOnSelection) ([]domain.BookingAddOn, error) {
	if len(selections) == 0 {
		return nil, nil
	}

	available, err := s.addOnRepo.ListByTour(ctx, tour.ID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*domain.TourAddOn, len(available))
	for i := range available {
		byID[available[i].ID] = &available[i]
	}

	seen := make(map[int64]bool, len(selections))
	result := make([]domain.BookingAddOn, 0, len(selections))
	for _, sel := range selections {
		addOn, ok := byID[sel.AddOnID]
		if !ok {
			return nil, fmt.Errorf("%w: add-on %d does not belong to tour %d", domain.ErrValidation, sel.AddOnID, tour.ID)
		}
		if seen[sel.AddOnID] {
			return nil, fmt.Errorf("%w: add-on %d selected more than once", domain.ErrValidation, sel.AddOnID)
		}
		seen[sel.AddOnID] = true

		if !addOn.Active {
			return nil, fmt.Errorf("%w: add-on %q is no longer offered", domain.ErrValidation, addOn.Name)
		}
		if sel.Quantity < 1 {
			return nil, fmt.Errorf("%w: add-on %q quantity must be at least 1", domain.ErrValidation, addOn.Name)
		}
		// Effective quantity is never below the requested one.
		if sel.Quantity > addOn.MaximumQuantity {
			return nil, fmt.Errorf("%w: add-on %q allows at most %d, got %d", domain.ErrValidation, addOn.Name, addOn.MaximumQuantity, sel.Quantity)
		}
		quantity := addOn.EffectiveQuantity(sel.Quantity, spots)
		if quantity > addOn.MaximumQuantity {
			return nil, fmt.Errorf("%w: add-on %q allows at most %d, got %d", domain.ErrValidation, addOn.Name, addOn.MaximumQuantity, quantity)
		}

		result = append(result, domain.BookingAddOn{
			TourAddOnID:         addOn.ID,
			Quantity:            quantity,
			PriceCentsAtBooking: addOn.PriceCents,
		})
	}
	return result, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.CancelBooking", "bookingID", bookingID)

	changed, err := s.bookingRepo.Cancel(ctx, bookingID, s.clock.Now())
	if err != nil {
		logger.ExitMethodWithError("bookingService.CancelBooking", err, "bookingID", bookingID)
		return nil, err
	}
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if changed {
		metrics.Bookings.WithLabelValues(string(domain.BookingStatusCancelled)).Inc()
		payload := s.payloadFor(ctx, booking)
		if _, err := s.notifier.EnqueueEmail(ctx, domain.BookingCancelledKey(booking.ID), booking.BookedEmail,
			domain.TemplateBookingCancelled, payload); err != nil {
			logger.Error("Failed to enqueue cancellation email", "bookingID", booking.ID, "error", err)
		}
		s.publish(ctx, queue.EventBookingCancelled, map[string]any{
			"booking_id": booking.ID,
			"tour_id":    booking.TourID,
			"spots":      booking.Spots,
		})
	}

	logger.ExitMethod("bookingService.CancelBooking", "bookingID", bookingID, "changed", changed)
	return booking, nil
}

func (s *bookingService) ConfirmBooking(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	changed, err := s.bookingRepo.Confirm(ctx, bookingID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if changed {
		if _, err := s.notifier.EnqueueEmail(ctx, domain.BookingConfirmedKey(booking.ID), booking.BookedEmail,
			domain.TemplateBookingConfirmed, s.payloadFor(ctx, booking)); err != nil {
			logger.Error("Failed to enqueue confirmation email", "bookingID", booking.ID, "error", err)
		}
		s.publish(ctx, queue.EventBookingConfirmed, map[string]any{"booking_id": booking.ID, "tour_id": booking.TourID})
	}
	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	return s.bookingRepo.GetByID(ctx, bookingID)
}

func (s *bookingService) notifyCreated(ctx context.Context, booking *domain.Booking, tour *domain.Tour) {
	payload := bookingPayload(booking, tour)

	if _, err := s.notifier.EnqueueEmail(ctx, domain.BookingCreatedKey(booking.ID), booking.BookedEmail,
		domain.TemplateBookingCreated, payload); err != nil {
		logger.Error("Failed to enqueue booking email", "bookingID", booking.ID, "error", err)
	}

	guide, err := s.userRepo.GetByID(ctx, tour.GuideID)
	if err != nil {
		logger.Error("Failed to load guide for booking notification", "tourID", tour.ID, "guideID", tour.GuideID, "error", err)
		return
	}
	if _, err := s.notifier.EnqueueEmail(ctx, domain.BookingReceivedKey(booking.ID), guide.Email,
		domain.TemplateBookingReceived, payload); err != nil {
		logger.Error("Failed to enqueue guide booking email", "bookingID", booking.ID, "error", err)
	}
}

// payloadFor looks the tour up for the title; a failed lookup only makes the
// email less descriptive.
func (s *bookingService) payloadFor(ctx context.Context, booking *domain.Booking) map[string]any {
	tour, err := s.tourRepo.GetByID(ctx, booking.TourID)
	if err != nil {
		logger.Warn("Tour lookup failed for notification payload", "tourID", booking.TourID, "error", err)
		return bookingPayload(booking, nil)
	}
	return bookingPayload(booking, tour)
}

func bookingPayload(booking *domain.Booking, tour *domain.Tour) map[string]any {
	payload := map[string]any{
		"booking_id":  booking.ID,
		"tour_id":     booking.TourID,
		"name":        booking.BookedName,
		"email":       booking.BookedEmail,
		"spots":       booking.Spots,
		"status":      string(booking.Status),
		"total_cents": booking.TotalCents,
	}
	if tour != nil {
		payload["tour_title"] = tour.Title
		payload["starts_at"] = tour.StartsAt.Format("2006-01-02 15:04 MST")
	}
	return payload
}

func (s *bookingService) publish(ctx context.Context, eventType string, data map[string]any) {
	if err := s.events.Publish(ctx, queue.NewEvent(eventType, s.clock.Now(), data)); err != nil {
		logger.Warn("Failed to publish event", "type", eventType, "error", err)
	}
}
