package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"tourbooking-backend/internal/domain"
)

func TestAddOnService_CreateAddOn(t *testing.T) {
	addOns := new(MockAddOnRepo)
	tours := new(MockTourRepo)
	svc := NewAddOnService(addOns, tours)

	tours.On("GetByID", mock.Anything, int64(3)).
		Return(&domain.Tour{ID: 3, Status: domain.TourStatusScheduled}, nil)
	addOns.On("Create", mock.Anything, mock.AnythingOfType("*domain.TourAddOn")).Return(nil)

	a := &domain.TourAddOn{TourID: 3, Name: "  Lunch box ", PriceCents: 1200, PricingType: domain.PricingTypePerPerson, MaximumQuantity: 2}
	err := svc.CreateAddOn(context.Background(), a)

	assert.NoError(t, err)
	assert.Equal(t, "Lunch box", a.Name)
	addOns.AssertExpectations(t)
}

func TestAddOnService_CreateAddOn_Validation(t *testing.T) {
	svc := NewAddOnService(new(MockAddOnRepo), new(MockTourRepo))

	tests := []struct {
		name  string
		addOn domain.TourAddOn
	}{
		{"missing name", domain.TourAddOn{PricingType: domain.PricingTypeFlat, MaximumQuantity: 1}},
		{"negative price", domain.TourAddOn{Name: "x", PriceCents: -1, PricingType: domain.PricingTypeFlat, MaximumQuantity: 1}},
		{"unknown pricing", domain.TourAddOn{Name: "x", PricingType: "per_hour", MaximumQuantity: 1}},
		{"zero maximum", domain.TourAddOn{Name: "x", PricingType: domain.PricingTypeFlat}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.addOn
			assert.ErrorIs(t, svc.CreateAddOn(context.Background(), &a), domain.ErrValidation)
		})
	}
}

func TestAddOnService_CreateAddOn_FinishedTour(t *testing.T) {
	addOns := new(MockAddOnRepo)
	tours := new(MockTourRepo)
	svc := NewAddOnService(addOns, tours)

	tours.On("GetByID", mock.Anything, int64(3)).
		Return(&domain.Tour{ID: 3, Status: domain.TourStatusDone}, nil)

	a := &domain.TourAddOn{TourID: 3, Name: "Photos", PricingType: domain.PricingTypeFlat, MaximumQuantity: 1}
	assert.ErrorIs(t, svc.CreateAddOn(context.Background(), a), domain.ErrConflict)
	addOns.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAddOnService_UpdateAddOn_KeepsTour(t *testing.T) {
	addOns := new(MockAddOnRepo)
	svc := NewAddOnService(addOns, new(MockTourRepo))

	addOns.On("GetByID", mock.Anything, int64(9)).
		Return(&domain.TourAddOn{ID: 9, TourID: 3, Name: "Photos", PriceCents: 500, PricingType: domain.PricingTypeFlat, MaximumQuantity: 1}, nil)
	addOns.On("Update", mock.Anything, mock.MatchedBy(func(a *domain.TourAddOn) bool {
		return a.ID == 9 && a.TourID == 3 && a.PriceCents == 800
	})).Return(nil)

	a := &domain.TourAddOn{ID: 9, TourID: 99, Name: "Photos", PriceCents: 800, PricingType: domain.PricingTypeFlat, MaximumQuantity: 1}
	assert.NoError(t, svc.UpdateAddOn(context.Background(), a))
	addOns.AssertExpectations(t)
}
