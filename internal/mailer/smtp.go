package mailer

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/logger"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPTransport struct {
	dialer   dialer
	from     string
	fromName string
}

func NewSMTPTransport(host string, port int, username, password, from, fromName string) *SMTPTransport {
	return &SMTPTransport{
		dialer:   gomail.NewDialer(host, port, username, password),
		from:     from,
		fromName: fromName,
	}
}

func (t *SMTPTransport) Name() string { return "smtp" }

func (t *SMTPTransport) Send(ctx context.Context, msg Message) (domain.DeliveryStatus, error) {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", t.from, t.fromName)
	if msg.ToName != "" {
		m.SetAddressHeader("To", msg.To, msg.ToName)
	} else {
		m.SetHeader("To", msg.To)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	logger.ExternalServiceCall("smtp", "DialAndSend", "to", msg.To)
	err := t.dialer.DialAndSend(m)
	logger.ExternalServiceResult("smtp", "DialAndSend", err, "to", msg.To)
	if err != nil {
		return domain.DeliveryStatusFailed, fmt.Errorf("failed to send email via gomail: %w", err)
	}
	return domain.DeliveryStatusSent, nil
}
