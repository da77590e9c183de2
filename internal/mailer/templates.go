package mailer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"text/template"

	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/utils"
)

type emailTemplate struct {
	subject *template.Template
	body    *template.Template
}

// Renderer turns a template name and its outbox payload into a message.
// Payloads may have gone through JSON, so numbers can arrive as float64.
type Renderer struct {
	templates map[string]emailTemplate
}

var funcs = template.FuncMap{
	"money":   money,
	"percent": percent,
	"num":     num,
}

var sources = map[string][2]string{
	domain.TemplateBookingCreated: {
		`Your booking for {{.tour_title}}`,
		`Hello {{.name}},

we received your booking for {{.tour_title}}{{with .starts_at}} on {{.}}{{end}}.
Spots: {{num .spots}}
Total: {{money .total_cents}}
Status: {{.status}}
{{if eq .status "pending"}}
Your booking will be confirmed once the payment arrives.
{{end}}`,
	},
	domain.TemplateBookingReceived: {
		`New booking for {{.tour_title}}`,
		`{{.name}} ({{.email}}) booked {{num .spots}} spot(s) on {{.tour_title}}.
Total: {{money .total_cents}}`,
	},
	domain.TemplateBookingConfirmed: {
		`Booking confirmed: {{.tour_title}}`,
		`Hello {{.name}},

your booking for {{.tour_title}}{{with .starts_at}} on {{.}}{{end}} is confirmed.
Spots: {{num .spots}}`,
	},
	domain.TemplateBookingCancelled: {
		`Booking cancelled: {{.tour_title}}`,
		`Hello {{.name}},

your booking for {{.tour_title}} has been cancelled.`,
	},
	domain.TemplateTourCancelled: {
		`{{.tour_title}} has been cancelled`,
		`Hello {{.name}},

unfortunately the guide cancelled {{.tour_title}}{{with .starts_at}} planned for {{.}}{{end}}.
We are sorry for the inconvenience.`,
	},
	domain.TemplateTourCompleted: {
		`{{.tour_title}} is complete`,
		`Hello {{.name}},

{{.tour_title}} is over. {{num .bookings}} booking(s) with {{num .spots}} guest(s) were confirmed.
They will be invited to leave a review.`,
	},
	domain.TemplateReviewInvite: {
		`How was {{.tour_title}}?`,
		`Hello {{.name}},

thanks for joining {{.tour_title}}. We would love to hear how it went.
Leave a review for booking #{{num .booking_id}}.`,
	},
	domain.TemplateWeatherAlert: {
		`Weather change for {{.tour_title}} on {{.date}}`,
		`Hello {{.name}},

the forecast for {{.tour_title}} on {{.date}} changed to {{.description}}.
Chance of rain: {{percent .pop}} (was {{percent .previous_pop}})
Temperature: {{num .min_temp}} to {{num .max_temp}} °C
Wind: {{num .wind_speed}} m/s`,
	},
	domain.TemplateTourReminder: {
		`{{.tour_title}} starts in {{num .days}} day(s)`,
		`Hello {{.name}},

a reminder that {{.tour_title}} starts on {{.starts_at}}.
Spots booked: {{num .spots}}`,
	},
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]emailTemplate, len(sources))}
	for name, src := range sources {
		subject, err := template.New(name + ".subject").Funcs(funcs).Parse(src[0])
		if err != nil {
			return nil, fmt.Errorf("parse %s subject: %w", name, err)
		}
		body, err := template.New(name + ".body").Funcs(funcs).Parse(src[1])
		if err != nil {
			return nil, fmt.Errorf("parse %s body: %w", name, err)
		}
		r.templates[name] = emailTemplate{subject: subject, body: body}
	}
	return r, nil
}

// Render fills the named template. Unknown templates are a validation error
// so the dispatcher gives up on them instead of retrying.
func (r *Renderer) Render(name string, payload map[string]any) (subject, body string, err error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", "", fmt.Errorf("%w: unknown email template %q", domain.ErrValidation, name)
	}
	if payload == nil {
		payload = map[string]any{}
	}

	var buf bytes.Buffer
	if err := tmpl.subject.Execute(&buf, payload); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", name, err)
	}
	subject = strings.TrimSpace(buf.String())

	buf.Reset()
	if err := tmpl.body.Execute(&buf, payload); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", name, err)
	}
	return subject, strings.TrimSpace(buf.String()) + "\n", nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func money(v any) string {
	f, ok := toFloat(v)
	if !ok {
		return "-"
	}
	return utils.FormatCents(int64(math.Round(f)))
}

func percent(v any) string {
	f, ok := toFloat(v)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", f*100)
}

// num prints whole numbers without a fraction and others with one decimal.
func num(v any) string {
	f, ok := toFloat(v)
	if !ok {
		return fmt.Sprint(v)
	}
	if f == math.Trunc(f) {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprintf("%.1f", f)
}
