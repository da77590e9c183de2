package jobs

import (
	"context"
	"time"

	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/logger"
)

// reminderWindow selects tours starting in [now+from, now+to). Windows are
// one hour wide to match the hourly schedule.
type reminderWindow struct {
	days int
	from time.Duration
	to   time.Duration
}

var reminderWindows = []reminderWindow{
	{days: 3, from: 72 * time.Hour, to: 73 * time.Hour},
	{days: 1, from: 24 * time.Hour, to: 25 * time.Hour},
}

// ReminderResult summarizes one reminder sweep.
type ReminderResult struct {
	Enqueued   int
	Duplicates int
	Failed     int
}

// SendTourReminders enqueues a reminder for each confirmed booking whose
// tour starts inside one of the reminder windows. Re-running inside the same
// window is a no-op thanks to the per-booking outbox key.
func (jr *JobRunner) SendTourReminders(ctx context.Context) (ReminderResult, error) {
	var res ReminderResult
	now := jr.clock.Now()

	for _, w := range reminderWindows {
		due, err := jr.repos.Bookings.ListConfirmedStartingBetween(ctx, now.Add(w.from), now.Add(w.to))
		if err != nil {
			return res, err
		}

		for _, b := range due {
			created, err := jr.services.Notifications.EnqueueEmail(ctx,
				domain.ReminderKey(b.BookingID, w.days),
				b.BookedEmail,
				domain.TemplateTourReminder,
				map[string]any{
					"booking_id": b.BookingID,
					"tour_id":    b.TourID,
					"tour_title": b.TourTitle,
					"starts_at":  b.StartsAt.UTC().Format("2006-01-02 15:04 MST"),
					"spots":      b.Spots,
					"name":       b.BookedName,
					"days":       w.days,
				},
			)
			switch {
			case err != nil:
				logger.Error("Failed to enqueue tour reminder",
					"booking_id", b.BookingID, "days", w.days, "error", err)
				res.Failed++
			case created:
				res.Enqueued++
			default:
				res.Duplicates++
			}
		}
	}

	logger.Info("Sent tour reminders",
		"enqueued", res.Enqueued,
		"duplicates", res.Duplicates,
		"failed", res.Failed)
	return res, nil
}
