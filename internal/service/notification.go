package service

import (
	"context"
	"fmt"

	"tourbooking-backend/internal/clock"
	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/logger"
	"tourbooking-backend/internal/repository"
)

type notificationService struct {
	outboxRepo repository.OutboxRepository
	clock      clock.Clock
}

func NewNotificationService(outboxRepo repository.OutboxRepository, clk clock.Clock) NotificationService {
	return &notificationService{outboxRepo: outboxRepo, clock: clk}
}

func (s *notificationService) EnqueueEmail(ctx context.Context, key, recipient, template string, payload map[string]any) (bool, error) {
	if recipient == "" {
		return false, fmt.Errorf("%w: email %s has no recipient", domain.ErrValidation, key)
	}
	return s.enqueue(ctx, &domain.OutboxMessage{
		Kind:           domain.OutboxKindEmail,
		IdempotencyKey: key,
		Recipient:      recipient,
		Template:       template,
		Payload:        payload,
	})
}

func (s *notificationService) EnqueueTask(ctx context.Context, key, task string, payload map[string]any) (bool, error) {
	return s.enqueue(ctx, &domain.OutboxMessage{
		Kind:           domain.OutboxKindTask,
		IdempotencyKey: key,
		Template:       task,
		Payload:        payload,
	})
}

func (s *notificationService) enqueue(ctx context.Context, msg *domain.OutboxMessage) (bool, error) {
	now := s.clock.Now()
	msg.AvailableAt = now
	msg.CreatedAt = now

	created, err := s.outboxRepo.Enqueue(ctx, msg)
	if err != nil {
		return false, fmt.Errorf("enqueue %s: %w", msg.IdempotencyKey, err)
	}
	if !created {
		logger.Debug("Outbox message already enqueued", "key", msg.IdempotencyKey)
	}
	return created, nil
}
