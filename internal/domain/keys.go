package domain

import (
	"fmt"
	"time"
)

// Outbox idempotency keys. A key identifies one logical notification, so
// retries and overlapping sweeps collapse onto the first enqueue.

func BookingCreatedKey(bookingID int64) string   { return fmt.Sprintf("booking-created:%d", bookingID) }
func BookingReceivedKey(bookingID int64) string  { return fmt.Sprintf("booking-received:%d", bookingID) }
func BookingConfirmedKey(bookingID int64) string { return fmt.Sprintf("booking-confirmed:%d", bookingID) }
func BookingCancelledKey(bookingID int64) string { return fmt.Sprintf("booking-cancelled:%d", bookingID) }

func TourCancelledKey(tourID, bookingID int64) string {
	return fmt.Sprintf("tour-cancelled:%d:%d", tourID, bookingID)
}

// TourCompletedKey keys the completion task; the guide summary uses the
// ":guide" suffix.
func TourCompletedKey(tourID int64) string      { return fmt.Sprintf("tour-completed:%d", tourID) }
func TourCompletedGuideKey(tourID int64) string { return TourCompletedKey(tourID) + ":guide" }

func ReviewInviteKey(bookingID int64) string { return fmt.Sprintf("review-invite:%d", bookingID) }

func ReminderKey(bookingID int64, days int) string {
	return fmt.Sprintf("reminder:%d:%d", bookingID, days)
}

// WeatherAlertKey names the snapshot version the change was detected
// against, so a retried sweep reuses the key while a later change gets a
// new one.
func WeatherAlertKey(tourID int64, date, previousFetch time.Time) string {
	return fmt.Sprintf("weather:%d:%s:%d", tourID, date.Format("2006-01-02"), previousFetch.Unix())
}
