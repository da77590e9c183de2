package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tourbooking-backend/internal/clock"
	"tourbooking-backend/internal/domain"
)

func TestCreateTour(t *testing.T) {
	ctx := context.Background()
	lat, lng := 41.39, 2.17

	valid := func() *domain.Tour {
		return &domain.Tour{
			GuideID:    2,
			Title:      "  Gothic quarter  ",
			Capacity:   12,
			PriceCents: 3000,
			StartsAt:   testNow.Add(72 * time.Hour),
			EndsAt:     testNow.Add(75 * time.Hour),
			Latitude:   &lat,
			Longitude:  &lng,
		}
	}

	t.Run("Success", func(t *testing.T) {
		tours, users := new(MockTourRepo), new(MockUserRepo)
		svc := NewTourService(tours, new(MockBookingRepo), users, new(MockNotifier), &recordingPublisher{}, clock.NewMock(testNow))

		users.On("GetByID", ctx, int64(2)).Return(&domain.User{ID: 2, Role: domain.UserRoleGuide}, nil)
		tours.On("Create", ctx, mock.AnythingOfType("*domain.Tour")).Return(nil)

		tour := valid()
		require.NoError(t, svc.CreateTour(ctx, tour))
		assert.Equal(t, "Gothic quarter", tour.Title)
		assert.Equal(t, domain.TourStatusScheduled, tour.Status)
		assert.Equal(t, testNow, tour.CreatedAt)
	})

	t.Run("tourists cannot publish", func(t *testing.T) {
		users := new(MockUserRepo)
		svc := NewTourService(new(MockTourRepo), new(MockBookingRepo), users, new(MockNotifier), &recordingPublisher{}, clock.NewMock(testNow))
		users.On("GetByID", ctx, int64(2)).Return(&domain.User{ID: 2, Role: domain.UserRoleTourist}, nil)

		assert.ErrorIs(t, svc.CreateTour(ctx, valid()), domain.ErrForbidden)
	})

	invalid := map[string]func(*domain.Tour){
		"zero capacity":       func(t *domain.Tour) { t.Capacity = 0 },
		"ends before start":   func(t *domain.Tour) { t.EndsAt = t.StartsAt },
		"negative deadline":   func(t *domain.Tour) { h := -1; t.BookingDeadlineHours = &h },
		"latitude only":       func(t *domain.Tour) { t.Longitude = nil },
		"latitude off planet": func(t *domain.Tour) { bad := 91.0; t.Latitude = &bad },
		"blank title":         func(t *domain.Tour) { t.Title = "   " },
	}
	for name, mutate := range invalid {
		t.Run(name, func(t *testing.T) {
			svc := NewTourService(new(MockTourRepo), new(MockBookingRepo), new(MockUserRepo), new(MockNotifier), &recordingPublisher{}, clock.NewMock(testNow))
			tour := valid()
			mutate(tour)
			assert.ErrorIs(t, svc.CreateTour(ctx, tour), domain.ErrValidation)
		})
	}
}

func TestUpdateTour(t *testing.T) {
	ctx := context.Background()

	t.Run("done tour is immutable", func(t *testing.T) {
		tours := new(MockTourRepo)
		svc := NewTourService(tours, new(MockBookingRepo), new(MockUserRepo), new(MockNotifier), &recordingPublisher{}, clock.NewMock(testNow))
		done := scheduledTour(10, 4)
		done.Status = domain.TourStatusDone
		tours.On("GetByID", ctx, int64(7)).Return(done, nil)

		update := *scheduledTour(20, 0)
		assert.ErrorIs(t, svc.UpdateTour(ctx, &update), domain.ErrConflict)
		tours.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("capacity cannot drop below headcount", func(t *testing.T) {
		tours := new(MockTourRepo)
		svc := NewTourService(tours, new(MockBookingRepo), new(MockUserRepo), new(MockNotifier), &recordingPublisher{}, clock.NewMock(testNow))
		tours.On("GetByID", ctx, int64(7)).Return(scheduledTour(10, 6), nil)

		update := *scheduledTour(5, 0)
		assert.ErrorIs(t, svc.UpdateTour(ctx, &update), domain.ErrValidation)
	})

	t.Run("ongoing tour keeps its start", func(t *testing.T) {
		tours := new(MockTourRepo)
		svc := NewTourService(tours, new(MockBookingRepo), new(MockUserRepo), new(MockNotifier), &recordingPublisher{}, clock.NewMock(testNow))
		ongoing := scheduledTour(10, 4)
		ongoing.Status = domain.TourStatusOngoing
		ongoing.StartsAt = testNow.Add(-time.Hour)
		ongoing.EndsAt = testNow.Add(2 * time.Hour)
		tours.On("GetByID", ctx, int64(7)).Return(ongoing, nil)
		tours.On("Update", ctx, mock.Anything).Return(nil)

		moved := *ongoing
		moved.StartsAt = testNow.Add(time.Hour)
		assert.ErrorIs(t, svc.UpdateTour(ctx, &moved), domain.ErrValidation)
		tours.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)

		extended := *ongoing
		extended.EndsAt = testNow.Add(3 * time.Hour)
		require.NoError(t, svc.UpdateTour(ctx, &extended))
		assert.Equal(t, domain.TourStatusOngoing, extended.Status)
	})

	t.Run("keeps stored status and headcount", func(t *testing.T) {
		tours := new(MockTourRepo)
		svc := NewTourService(tours, new(MockBookingRepo), new(MockUserRepo), new(MockNotifier), &recordingPublisher{}, clock.NewMock(testNow))
		tours.On("GetByID", ctx, int64(7)).Return(scheduledTour(10, 6), nil)
		tours.On("Update", ctx, mock.Anything).Return(nil)

		update := *scheduledTour(14, 0)
		update.Status = domain.TourStatusDone
		update.GuideID = 99
		require.NoError(t, svc.UpdateTour(ctx, &update))
		assert.Equal(t, domain.TourStatusScheduled, update.Status)
		assert.Equal(t, 6, update.CurrentHeadcount)
		assert.Equal(t, int64(2), update.GuideID)
	})
}

func TestCancelTour(t *testing.T) {
	ctx := context.Background()

	t.Run("notifies active bookings", func(t *testing.T) {
		tours, bookings, notifier, events := new(MockTourRepo), new(MockBookingRepo), new(MockNotifier), &recordingPublisher{}
		svc := NewTourService(tours, bookings, new(MockUserRepo), notifier, events, clock.NewMock(testNow))

		tours.On("GetByID", ctx, int64(7)).Return(scheduledTour(10, 3), nil)
		tours.On("Cancel", ctx, int64(7), testNow).Return(true, nil)
		bookings.On("ListActiveByTour", ctx, int64(7)).Return([]domain.Booking{
			{ID: 1, TourID: 7, Spots: 1, BookedEmail: "a@example.com"},
			{ID: 2, TourID: 7, Spots: 2, BookedEmail: "b@example.com"},
		}, nil)
		notifier.On("EnqueueEmail", ctx, "tour-cancelled:7:1", "a@example.com", domain.TemplateTourCancelled, mock.Anything).Return(true, nil)
		notifier.On("EnqueueEmail", ctx, "tour-cancelled:7:2", "b@example.com", domain.TemplateTourCancelled, mock.Anything).Return(true, nil)

		tour, err := svc.CancelTour(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, domain.TourStatusCancelled, tour.Status)
		notifier.AssertExpectations(t)
		require.Len(t, events.events, 1)
		assert.Equal(t, domain.TourStatusScheduled, events.events[0].Data["from"])
	})

	t.Run("already cancelled is a no-op", func(t *testing.T) {
		tours := new(MockTourRepo)
		svc := NewTourService(tours, new(MockBookingRepo), new(MockUserRepo), new(MockNotifier), &recordingPublisher{}, clock.NewMock(testNow))
		cancelled := scheduledTour(10, 0)
		cancelled.Status = domain.TourStatusCancelled
		tours.On("GetByID", ctx, int64(7)).Return(cancelled, nil)

		tour, err := svc.CancelTour(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, domain.TourStatusCancelled, tour.Status)
		tours.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("done tour cannot be cancelled", func(t *testing.T) {
		tours := new(MockTourRepo)
		svc := NewTourService(tours, new(MockBookingRepo), new(MockUserRepo), new(MockNotifier), &recordingPublisher{}, clock.NewMock(testNow))
		done := scheduledTour(10, 0)
		done.Status = domain.TourStatusDone
		tours.On("GetByID", ctx, int64(7)).Return(done, nil)
		tours.On("Cancel", ctx, int64(7), testNow).Return(false, nil)

		_, err := svc.CancelTour(ctx, 7)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})
}
