// Package mailer renders notification templates and hands them to the
// configured delivery transport.
package mailer

import (
	"context"
	"fmt"

	"tourbooking-backend/internal/config"
	"tourbooking-backend/internal/domain"
)

type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// Transport delivers one message and reports how it was handled.
type Transport interface {
	Send(ctx context.Context, msg Message) (domain.DeliveryStatus, error)
	Name() string
}

// NewTransport builds the transport selected by mail.transport.
func NewTransport(cfg *config.Config) (Transport, error) {
	switch cfg.Mail.Transport {
	case "smtp":
		return NewSMTPTransport(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.Mail.From, cfg.Mail.FromName), nil
	case "sendgrid":
		return NewSendGridTransport(cfg.SendGrid.APIKey, cfg.Mail.From, cfg.Mail.FromName), nil
	case "sandbox", "":
		return NewSandboxTransport(), nil
	default:
		return nil, fmt.Errorf("unknown mail transport: %s", cfg.Mail.Transport)
	}
}
