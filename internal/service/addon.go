package service

import (
	"context"
	"fmt"
	"strings"

	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/repository"
)

type addOnService struct {
	addOnRepo repository.AddOnRepository
	tourRepo  repository.TourRepository
}

func NewAddOnService(addOnRepo repository.AddOnRepository, tourRepo repository.TourRepository) AddOnService {
	return &addOnService{addOnRepo: addOnRepo, tourRepo: tourRepo}
}

func validateAddOn(a *domain.TourAddOn) error {
	a.Name = strings.TrimSpace(a.Name)
	switch {
	case a.Name == "":
		return fmt.Errorf("%w: add-on name is required", domain.ErrValidation)
	case a.PriceCents < 0:
		return fmt.Errorf("%w: add-on price cannot be negative", domain.ErrValidation)
	case a.PricingType != domain.PricingTypeFlat && a.PricingType != domain.PricingTypePerPerson:
		return fmt.Errorf("%w: unknown pricing type %q", domain.ErrValidation, a.PricingType)
	case a.MaximumQuantity < 1:
		return fmt.Errorf("%w: maximum quantity must be at least 1", domain.ErrValidation)
	}
	return nil
}

func (s *addOnService) CreateAddOn(ctx context.Context, a *domain.TourAddOn) error {
	if err := validateAddOn(a); err != nil {
		return err
	}
	tour, err := s.tourRepo.GetByID(ctx, a.TourID)
	if err != nil {
		return err
	}
	if tour.Status.IsTerminal() {
		return fmt.Errorf("%w: tour %d is %s", domain.ErrConflict, tour.ID, tour.Status)
	}
	return s.addOnRepo.Create(ctx, a)
}

// UpdateAddOn changes the offer for future bookings. Existing bookings keep
// the price they were charged.
func (s *addOnService) UpdateAddOn(ctx context.Context, a *domain.TourAddOn) error {
	existing, err := s.addOnRepo.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	if err := validateAddOn(a); err != nil {
		return err
	}
	a.TourID = existing.TourID
	return s.addOnRepo.Update(ctx, a)
}

func (s *addOnService) ListAddOns(ctx context.Context, tourID int64) ([]domain.TourAddOn, error) {
	return s.addOnRepo.ListByTour(ctx, tourID)
}
