package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tourbooking-backend/internal/clock"
	"tourbooking-backend/internal/domain"
)

func TestNotificationService_EnqueueEmail(t *testing.T) {
	ctx := context.Background()
	outbox := new(MockOutboxRepo)
	svc := NewNotificationService(outbox, clock.NewMock(testNow))

	outbox.On("Enqueue", ctx, mock.MatchedBy(func(m *domain.OutboxMessage) bool {
		return m.Kind == domain.OutboxKindEmail &&
			m.IdempotencyKey == "reminder:42:3" &&
			m.AvailableAt.Equal(testNow) &&
			m.Template == domain.TemplateTourReminder
	})).Return(true, nil).Once()
	outbox.On("Enqueue", ctx, mock.Anything).Return(false, nil).Once()

	created, err := svc.EnqueueEmail(ctx, "reminder:42:3", "ana@example.com", domain.TemplateTourReminder, map[string]any{"days": 3})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnqueueEmail(ctx, "reminder:42:3", "ana@example.com", domain.TemplateTourReminder, map[string]any{"days": 3})
	require.NoError(t, err)
	assert.False(t, created)
}

func TestNotificationService_EnqueueEmailNeedsRecipient(t *testing.T) {
	svc := NewNotificationService(new(MockOutboxRepo), clock.NewMock(testNow))

	_, err := svc.EnqueueEmail(context.Background(), "booking-created:1", "", domain.TemplateBookingCreated, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNotificationService_EnqueueTask(t *testing.T) {
	ctx := context.Background()
	outbox := new(MockOutboxRepo)
	svc := NewNotificationService(outbox, clock.NewMock(testNow))

	outbox.On("Enqueue", ctx, mock.MatchedBy(func(m *domain.OutboxMessage) bool {
		return m.Kind == domain.OutboxKindTask && m.Template == domain.TaskTourCompletion && m.Recipient == ""
	})).Return(true, nil)

	created, err := svc.EnqueueTask(ctx, "tour-completed:7", domain.TaskTourCompletion, map[string]any{"tour_id": int64(7)})
	require.NoError(t, err)
	assert.True(t, created)
}
