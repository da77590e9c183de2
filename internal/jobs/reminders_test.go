package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourbooking-backend/internal/domain"
)

func reminder(bookingID int64, startsAt time.Time) domain.BookingReminder {
	return domain.BookingReminder{
		BookingID:   bookingID,
		TourID:      1,
		TourTitle:   "Old Town Food Tour",
		StartsAt:    startsAt,
		Spots:       2,
		BookedEmail: "ana@example.com",
		BookedName:  "Ana",
	}
}

func TestSendTourReminders_ThreeDayReminderIsSentOnce(t *testing.T) {
	h := newHarness()
	startsAt := testNow.Add(72*time.Hour + 30*time.Minute)
	h.bookings.reminders = []domain.BookingReminder{reminder(11, startsAt)}

	res, err := h.runner.SendTourReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Enqueued)

	msg := h.outbox.byKey(domain.ReminderKey(11, 3))
	require.NotNil(t, msg)
	assert.Equal(t, "ana@example.com", msg.Recipient)
	assert.Equal(t, domain.TemplateTourReminder, msg.Template)
	assert.Equal(t, 3, msg.Payload["days"])
	assert.Equal(t, "Old Town Food Tour", msg.Payload["tour_title"])

	h.clock.Advance(10 * time.Minute)
	res, err = h.runner.SendTourReminders(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Enqueued)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 1, h.outbox.count(domain.TemplateTourReminder))
}

func TestSendTourReminders_Windows(t *testing.T) {
	tests := []struct {
		name   string
		offset time.Duration
		days   int
	}{
		{"three day window start is inclusive", 72 * time.Hour, 3},
		{"three day window end is exclusive", 73 * time.Hour, 0},
		{"one day window", 24*time.Hour + 59*time.Minute, 1},
		{"between windows", 48 * time.Hour, 0},
		{"too close", 23 * time.Hour, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.bookings.reminders = []domain.BookingReminder{reminder(5, testNow.Add(tt.offset))}

			res, err := h.runner.SendTourReminders(context.Background())
			require.NoError(t, err)

			if tt.days == 0 {
				assert.Zero(t, res.Enqueued)
				return
			}
			assert.Equal(t, 1, res.Enqueued)
			assert.NotNil(t, h.outbox.byKey(domain.ReminderKey(5, tt.days)))
		})
	}
}

func TestSendTourReminders_BothWindowsPerBooking(t *testing.T) {
	h := newHarness()
	startsAt := testNow.Add(72*time.Hour + 10*time.Minute)
	h.bookings.reminders = []domain.BookingReminder{reminder(3, startsAt)}

	_, err := h.runner.SendTourReminders(context.Background())
	require.NoError(t, err)

	h.clock.Set(startsAt.Add(-24*time.Hour - 10*time.Minute))
	_, err = h.runner.SendTourReminders(context.Background())
	require.NoError(t, err)

	assert.NotNil(t, h.outbox.byKey(domain.ReminderKey(3, 3)))
	assert.NotNil(t, h.outbox.byKey(domain.ReminderKey(3, 1)))
	assert.Equal(t, 2, h.outbox.count(domain.TemplateTourReminder))
}

func TestSendTourReminders_MissingEmailIsCounted(t *testing.T) {
	h := newHarness()
	r := reminder(8, testNow.Add(24*time.Hour+time.Minute))
	r.BookedEmail = ""
	h.bookings.reminders = []domain.BookingReminder{r}

	res, err := h.runner.SendTourReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
}
