package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/logger"
)

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type SendGridTransport struct {
	client   sendClient
	from     string
	fromName string
}

func NewSendGridTransport(apiKey, from, fromName string) *SendGridTransport {
	return &SendGridTransport{
		client:   sendgrid.NewSendClient(apiKey),
		from:     from,
		fromName: fromName,
	}
}

func (t *SendGridTransport) Name() string { return "sendgrid" }

func (t *SendGridTransport) Send(ctx context.Context, msg Message) (domain.DeliveryStatus, error) {
	message := mail.NewSingleEmail(
		mail.NewEmail(t.fromName, t.from),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.To),
		msg.Body,
		"",
	)

	logger.ExternalServiceCall("sendgrid", "Send", "to", msg.To)
	response, err := t.client.SendWithContext(ctx, message)
	if err == nil && response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.ExternalServiceResult("sendgrid", "Send", err, "to", msg.To)
	if err != nil {
		return domain.DeliveryStatusFailed, fmt.Errorf("failed to send email: %w", err)
	}
	return domain.DeliveryStatusSent, nil
}
