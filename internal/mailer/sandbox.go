package mailer

import (
	"context"

	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/logger"
)

// SandboxTransport only logs. Used in development and tests.
type SandboxTransport struct{}

func NewSandboxTransport() *SandboxTransport {
	return &SandboxTransport{}
}

func (t *SandboxTransport) Name() string { return "sandbox" }

func (t *SandboxTransport) Send(_ context.Context, msg Message) (domain.DeliveryStatus, error) {
	logger.Info("Sandboxed email", "to", msg.To, "subject", msg.Subject)
	logger.Debug("Sandboxed email body", "to", msg.To, "body", msg.Body)
	return domain.DeliveryStatusSandboxed, nil
}
