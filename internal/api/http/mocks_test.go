package http

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"tourbooking-backend/internal/domain"
)

type MockTourService struct {
	mock.Mock
}

func (m *MockTourService) CreateTour(ctx context.Context, tour *domain.Tour) error {
	args := m.Called(ctx, tour)
	return args.Error(0)
}
func (m *MockTourService) UpdateTour(ctx context.Context, tour *domain.Tour) error {
	args := m.Called(ctx, tour)
	return args.Error(0)
}
func (m *MockTourService) CancelTour(ctx context.Context, tourID int64) (*domain.Tour, error) {
	args := m.Called(ctx, tourID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tour), args.Error(1)
}
func (m *MockTourService) GetTour(ctx context.Context, tourID int64) (*domain.Tour, error) {
	args := m.Called(ctx, tourID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tour), args.Error(1)
}

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) CreateBooking(ctx context.Context, tourID, userID int64, spots int, selections []domain.AddOnSelection, booker domain.BookerInfo) (*domain.Booking, error) {
	args := m.Called(ctx, tourID, userID, spots, selections, booker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingService) CancelBooking(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingService) ConfirmBooking(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingService) GetBooking(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type MockAddOnService struct {
	mock.Mock
}

func (m *MockAddOnService) CreateAddOn(ctx context.Context, addOn *domain.TourAddOn) error {
	args := m.Called(ctx, addOn)
	return args.Error(0)
}
func (m *MockAddOnService) UpdateAddOn(ctx context.Context, addOn *domain.TourAddOn) error {
	args := m.Called(ctx, addOn)
	return args.Error(0)
}
func (m *MockAddOnService) ListAddOns(ctx context.Context, tourID int64) ([]domain.TourAddOn, error) {
	args := m.Called(ctx, tourID)
	return args.Get(0).([]domain.TourAddOn), args.Error(1)
}

type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) CreateReview(ctx context.Context, userID, bookingID int64, rating int, comment string) (*domain.Review, error) {
	args := m.Called(ctx, userID, bookingID, rating, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockSnapshotRepo struct {
	mock.Mock
}

func (m *MockSnapshotRepo) Get(ctx context.Context, tourID int64, date time.Time) (*domain.WeatherSnapshot, error) {
	args := m.Called(ctx, tourID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WeatherSnapshot), args.Error(1)
}
func (m *MockSnapshotRepo) Upsert(ctx context.Context, snapshot *domain.WeatherSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}
func (m *MockSnapshotRepo) ListByTour(ctx context.Context, tourID int64) ([]domain.WeatherSnapshot, error) {
	args := m.Called(ctx, tourID)
	return args.Get(0).([]domain.WeatherSnapshot), args.Error(1)
}

type MockEmailLogRepo struct {
	mock.Mock
}

func (m *MockEmailLogRepo) Create(ctx context.Context, entry *domain.EmailLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
func (m *MockEmailLogRepo) ListByRecipient(ctx context.Context, recipient string, limit int) ([]domain.EmailLog, error) {
	args := m.Called(ctx, recipient, limit)
	return args.Get(0).([]domain.EmailLog), args.Error(1)
}
