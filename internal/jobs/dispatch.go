package jobs

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/logger"
	"tourbooking-backend/internal/mailer"
	"tourbooking-backend/internal/metrics"
)

// DispatchResult summarizes one dispatch sweep.
type DispatchResult struct {
	Claimed   int
	Delivered int
	Retried   int
	Failed    int
}

type deliveryOutcome int

const (
	outcomeDelivered deliveryOutcome = iota
	outcomeRetried
	outcomeFailed
)

// DispatchNotifications claims due outbox rows and delivers them with a
// bounded worker pool. Delivery is at-least-once: a crash after sending but
// before marking leaves the row to reappear after the visibility timeout.
func (jr *JobRunner) DispatchNotifications(ctx context.Context) (DispatchResult, error) {
	var res DispatchResult
	cfg := jr.config.Dispatch

	messages, err := jr.repos.Outbox.ClaimDue(ctx, jr.clock.Now(), cfg.BatchSize, cfg.VisibilityTimeout)
	if err != nil {
		return res, err
	}
	res.Claimed = len(messages)
	if len(messages) == 0 {
		return res, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, msg := range messages {
		msg := msg
		g.Go(func() error {
			outcome := jr.deliver(gctx, msg)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeDelivered:
				res.Delivered++
			case outcomeRetried:
				res.Retried++
			case outcomeFailed:
				res.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("Dispatched notifications",
		"claimed", res.Claimed,
		"delivered", res.Delivered,
		"retried", res.Retried,
		"failed", res.Failed)
	return res, nil
}

// attempt runs one delivery. Worker goroutines sit outside the sweep's
// recovery, so a panic is turned into an ordinary failed attempt here.
func (jr *JobRunner) attempt(ctx context.Context, msg domain.OutboxMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic while delivering outbox message",
				"outbox_id", msg.ID, "template", msg.Template, "panic", r, "stack", string(debug.Stack()))
			err = &panicError{value: r}
		}
	}()

	switch msg.Kind {
	case domain.OutboxKindEmail:
		return jr.sendEmail(ctx, msg)
	case domain.OutboxKindTask:
		return jr.runTask(ctx, msg)
	default:
		return fmt.Errorf("%w: unknown outbox kind %q", domain.ErrValidation, msg.Kind)
	}
}

func (jr *JobRunner) deliver(ctx context.Context, msg domain.OutboxMessage) deliveryOutcome {
	err := jr.attempt(ctx, msg)

	now := jr.clock.Now()
	if err == nil {
		if markErr := jr.repos.Outbox.MarkDelivered(ctx, msg.ID, now); markErr != nil {
			logger.Error("Failed to mark outbox message delivered", "outbox_id", msg.ID, "error", markErr)
		}
		metrics.Notifications.WithLabelValues(msg.Template, string(domain.OutboxStatusDelivered)).Inc()
		return outcomeDelivered
	}

	attempts := msg.Attempts + 1
	if attempts >= jr.config.Dispatch.MaxAttempts || errors.Is(err, domain.ErrValidation) {
		logger.Error("Giving up on outbox message",
			"outbox_id", msg.ID, "template", msg.Template, "attempts", attempts, "error", err)
		if markErr := jr.repos.Outbox.MarkFailed(ctx, msg.ID, attempts, err.Error(), nil); markErr != nil {
			logger.Error("Failed to mark outbox message failed", "outbox_id", msg.ID, "error", markErr)
		}
		metrics.Notifications.WithLabelValues(msg.Template, string(domain.OutboxStatusFailed)).Inc()
		return outcomeFailed
	}

	retryAt := now.Add(Backoff(attempts))
	logger.Warn("Outbox delivery failed, will retry",
		"outbox_id", msg.ID, "template", msg.Template, "attempts", attempts, "retry_at", retryAt, "error", err)
	if markErr := jr.repos.Outbox.MarkFailed(ctx, msg.ID, attempts, err.Error(), &retryAt); markErr != nil {
		logger.Error("Failed to reschedule outbox message", "outbox_id", msg.ID, "error", markErr)
	}
	metrics.Notifications.WithLabelValues(msg.Template, "retried").Inc()
	return outcomeRetried
}

// Backoff is the delay before retry number attempts: attempts² minutes.
func Backoff(attempts int) time.Duration {
	return time.Duration(attempts*attempts) * time.Minute
}

func (jr *JobRunner) sendEmail(ctx context.Context, msg domain.OutboxMessage) error {
	subject, body, err := jr.renderer.Render(msg.Template, msg.Payload)
	if err != nil {
		jr.logEmail(ctx, msg, domain.DeliveryStatusFailed, err)
		return err
	}

	name, _ := msg.Payload["name"].(string)
	status, err := jr.mail.Send(ctx, mailer.Message{
		To:      msg.Recipient,
		ToName:  name,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		status = domain.DeliveryStatusFailed
	}
	jr.logEmail(ctx, msg, status, err)
	return err
}

func (jr *JobRunner) logEmail(ctx context.Context, msg domain.OutboxMessage, status domain.DeliveryStatus, sendErr error) {
	entry := &domain.EmailLog{
		OutboxID:  msg.ID,
		Recipient: msg.Recipient,
		Template:  msg.Template,
		Payload:   msg.Payload,
		Status:    status,
		CreatedAt: jr.clock.Now(),
	}
	if sendErr != nil {
		entry.Error = sendErr.Error()
	}
	if err := jr.repos.EmailLogs.Create(ctx, entry); err != nil {
		logger.Warn("Failed to write email log", "outbox_id", msg.ID, "error", err)
	}
}

func (jr *JobRunner) runTask(ctx context.Context, msg domain.OutboxMessage) error {
	handler, ok := jr.tasks[msg.Template]
	if !ok {
		return fmt.Errorf("%w: no handler for task %q", domain.ErrValidation, msg.Template)
	}
	return handler(ctx, msg.Payload)
}

func (jr *JobRunner) handleTourCompletion(ctx context.Context, payload map[string]any) error {
	tourID, ok := payloadID(payload["tour_id"])
	if !ok {
		return fmt.Errorf("%w: tour_completion payload without tour_id", domain.ErrValidation)
	}
	return jr.services.Completion.CompleteTour(ctx, tourID)
}

// payloadID reads an id that may have been decoded from JSON as float64.
func payloadID(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}
