package domain

import "time"

type OutboxKind string

const (
	OutboxKindEmail OutboxKind = "email"
	OutboxKindTask  OutboxKind = "task"
)

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusDelivered  OutboxStatus = "delivered"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// Email templates.
const (
	TemplateBookingCreated   = "booking_created"
	TemplateBookingReceived  = "booking_received"
	TemplateBookingConfirmed = "booking_confirmed"
	TemplateBookingCancelled = "booking_cancelled"
	TemplateTourCancelled    = "tour_cancelled"
	TemplateTourCompleted    = "tour_completed"
	TemplateReviewInvite     = "review_invite"
	TemplateWeatherAlert     = "weather_alert"
	TemplateTourReminder     = "tour_reminder"
)

// Background tasks carried by the outbox.
const (
	TaskTourCompletion = "tour_completion"
)

// OutboxMessage is a pending notification or task. IdempotencyKey is unique,
// so enqueueing the same key twice keeps the first message only.
type OutboxMessage struct {
	ID             int64          `json:"id"`
	Kind           OutboxKind     `json:"kind"`
	IdempotencyKey string         `json:"idempotency_key"`
	Recipient      string         `json:"recipient"`
	Template       string         `json:"template"`
	Payload        map[string]any `json:"payload"`
	Status         OutboxStatus   `json:"status"`
	Attempts       int            `json:"attempts"`
	LastError      string         `json:"last_error,omitempty"`
	AvailableAt    time.Time      `json:"available_at"`
	CreatedAt      time.Time      `json:"created_at"`
	DeliveredAt    *time.Time     `json:"delivered_at,omitempty"`
}

type DeliveryStatus string

const (
	DeliveryStatusSent      DeliveryStatus = "sent"
	DeliveryStatusSandboxed DeliveryStatus = "sandboxed"
	DeliveryStatusFailed    DeliveryStatus = "failed"
)

// EmailLog is the append-only audit entry for each attempted email.
type EmailLog struct {
	ID        int64          `json:"id"`
	OutboxID  int64          `json:"outbox_id"`
	Recipient string         `json:"recipient"`
	Template  string         `json:"template"`
	Payload   map[string]any `json:"payload"`
	Status    DeliveryStatus `json:"status"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
