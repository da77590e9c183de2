package domain

import "time"

type TourStatus string

const (
	TourStatusScheduled TourStatus = "scheduled"
	TourStatusOngoing   TourStatus = "ongoing"
	TourStatusDone      TourStatus = "done"
	TourStatusCancelled TourStatus = "cancelled"
)

type Tour struct {
	ID                   int64      `json:"id"`
	GuideID              int64      `json:"guide_id"`
	Title                string     `json:"title"`
	Status               TourStatus `json:"status"`
	Capacity             int        `json:"capacity"`
	CurrentHeadcount     int        `json:"current_headcount"`
	PriceCents           int64      `json:"price_cents"`
	StartsAt             time.Time  `json:"starts_at"`
	EndsAt               time.Time  `json:"ends_at"`
	BookingDeadlineHours *int       `json:"booking_deadline_hours,omitempty"`
	Latitude             *float64   `json:"latitude,omitempty"`
	Longitude            *float64   `json:"longitude,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// SpotsLeft is the number of spots still available.
func (t *Tour) SpotsLeft() int {
	return t.Capacity - t.CurrentHeadcount
}

// BookingClosesAt returns the instant after which booking is refused, or
// false when the tour has no booking deadline.
func (t *Tour) BookingClosesAt() (time.Time, bool) {
	if t.BookingDeadlineHours == nil {
		return time.Time{}, false
	}
	return t.StartsAt.Add(-time.Duration(*t.BookingDeadlineHours) * time.Hour), true
}

// BookingClosed reports whether now is strictly past the booking deadline.
func (t *Tour) BookingClosed(now time.Time) bool {
	closesAt, ok := t.BookingClosesAt()
	return ok && now.After(closesAt)
}

// HasCoordinates is true when both latitude and longitude are known.
func (t *Tour) HasCoordinates() bool {
	return t.Latitude != nil && t.Longitude != nil
}

// IsTerminal reports whether the status can no longer change.
func (s TourStatus) IsTerminal() bool {
	return s == TourStatusDone || s == TourStatusCancelled
}
