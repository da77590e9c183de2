package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID          int64          `json:"id"`
	TourID      int64          `json:"tour_id"`
	UserID      int64          `json:"user_id"`
	Spots       int            `json:"spots"`
	Status      BookingStatus  `json:"status"`
	BookedEmail string         `json:"booked_email"`
	BookedName  string         `json:"booked_name"`
	TotalCents  int64          `json:"total_cents"`
	AddOns      []BookingAddOn `json:"add_ons,omitempty"`
	CancelledAt *time.Time     `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// BookerInfo is the contact snapshot stored on the booking, independent of
// the user record.
type BookerInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// BookingReminder is a confirmed booking joined with its tour, as read by the
// reminder sweep.
type BookingReminder struct {
	BookingID   int64
	TourID      int64
	TourTitle   string
	StartsAt    time.Time
	Spots       int
	BookedEmail string
	BookedName  string
}
