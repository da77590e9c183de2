package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/queue"
)

// MockUserRepo
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

// MockTourRepo
type MockTourRepo struct {
	mock.Mock
}

func (m *MockTourRepo) Create(ctx context.Context, tour *domain.Tour) error {
	args := m.Called(ctx, tour)
	return args.Error(0)
}
func (m *MockTourRepo) GetByID(ctx context.Context, id int64) (*domain.Tour, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tour), args.Error(1)
}
func (m *MockTourRepo) Update(ctx context.Context, tour *domain.Tour) error {
	args := m.Called(ctx, tour)
	return args.Error(0)
}
func (m *MockTourRepo) Cancel(ctx context.Context, id int64, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}
func (m *MockTourRepo) StartDue(ctx context.Context, now time.Time) ([]int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]int64), args.Error(1)
}
func (m *MockTourRepo) FinishDue(ctx context.Context, now time.Time) ([]int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]int64), args.Error(1)
}
func (m *MockTourRepo) ListForWeather(ctx context.Context, horizon time.Time) ([]domain.Tour, error) {
	args := m.Called(ctx, horizon)
	return args.Get(0).([]domain.Tour), args.Error(1)
}

// MockAddOnRepo
type MockAddOnRepo struct {
	mock.Mock
}

func (m *MockAddOnRepo) Create(ctx context.Context, addOn *domain.TourAddOn) error {
	args := m.Called(ctx, addOn)
	return args.Error(0)
}
func (m *MockAddOnRepo) GetByID(ctx context.Context, id int64) (*domain.TourAddOn, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TourAddOn), args.Error(1)
}
func (m *MockAddOnRepo) Update(ctx context.Context, addOn *domain.TourAddOn) error {
	args := m.Called(ctx, addOn)
	return args.Error(0)
}
func (m *MockAddOnRepo) ListByTour(ctx context.Context, tourID int64) ([]domain.TourAddOn, error) {
	args := m.Called(ctx, tourID)
	return args.Get(0).([]domain.TourAddOn), args.Error(1)
}

// MockBookingRepo
type MockBookingRepo struct {
	mock.Mock
}

func (m *MockBookingRepo) CreateWithinCapacity(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}
func (m *MockBookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) Cancel(ctx context.Context, id int64, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}
func (m *MockBookingRepo) Confirm(ctx context.Context, id int64, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}
func (m *MockBookingRepo) ListActiveByTour(ctx context.Context, tourID int64) ([]domain.Booking, error) {
	args := m.Called(ctx, tourID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) ListConfirmedByTour(ctx context.Context, tourID int64) ([]domain.Booking, error) {
	args := m.Called(ctx, tourID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) ListConfirmedStartingBetween(ctx context.Context, from, to time.Time) ([]domain.BookingReminder, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]domain.BookingReminder), args.Error(1)
}

// MockReviewRepo
type MockReviewRepo struct {
	mock.Mock
}

func (m *MockReviewRepo) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}
func (m *MockReviewRepo) GetByBooking(ctx context.Context, bookingID int64) (*domain.Review, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

// MockOutboxRepo
type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Enqueue(ctx context.Context, msg *domain.OutboxMessage) (bool, error) {
	args := m.Called(ctx, msg)
	return args.Bool(0), args.Error(1)
}
func (m *MockOutboxRepo) ClaimDue(ctx context.Context, now time.Time, limit int, visibility time.Duration) ([]domain.OutboxMessage, error) {
	args := m.Called(ctx, now, limit, visibility)
	return args.Get(0).([]domain.OutboxMessage), args.Error(1)
}
func (m *MockOutboxRepo) MarkDelivered(ctx context.Context, id int64, now time.Time) error {
	args := m.Called(ctx, id, now)
	return args.Error(0)
}
func (m *MockOutboxRepo) MarkFailed(ctx context.Context, id int64, attempts int, lastErr string, retryAt *time.Time) error {
	args := m.Called(ctx, id, attempts, lastErr, retryAt)
	return args.Error(0)
}

// MockNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) EnqueueEmail(ctx context.Context, key, recipient, template string, payload map[string]any) (bool, error) {
	args := m.Called(ctx, key, recipient, template, payload)
	return args.Bool(0), args.Error(1)
}
func (m *MockNotifier) EnqueueTask(ctx context.Context, key, task string, payload map[string]any) (bool, error) {
	args := m.Called(ctx, key, task, payload)
	return args.Bool(0), args.Error(1)
}

// recordingPublisher keeps published events for assertions.
type recordingPublisher struct {
	events []queue.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event queue.Event) error {
	p.events = append(p.events, event)
	return nil
}
func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

// lockedPublisher is a recordingPublisher safe for concurrent use.
type lockedPublisher struct {
	mu sync.Mutex
	recordingPublisher
}

func (p *lockedPublisher) Publish(ctx context.Context, event queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.recordingPublisher.Publish(ctx, event)
}
