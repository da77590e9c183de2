package http

import (
	"context"
	"fmt"
	"net/http"

	"tourbooking-backend/internal/domain"
)

const myEmailsLimit = 50

// CreateBooking books spots for the caller. Booker contact details default
// to the caller's profile.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	tourID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, _ := UserIDFromContext(r.Context())

	var req bookingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	booker := domain.BookerInfo{Email: req.Email, Name: req.Name}
	if booker.Email == "" || booker.Name == "" {
		user, err := h.users.GetByID(r.Context(), userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if booker.Email == "" {
			booker.Email = user.Email
		}
		if booker.Name == "" {
			booker.Name = user.Name
		}
	}

	booking, err := h.bookings.CreateBooking(r.Context(), tourID, userID, req.Spots, req.AddOns, booker)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.visibleBooking(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	existing, err := h.visibleBooking(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	booking, err := h.bookings.CancelBooking(r.Context(), existing.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// ConfirmBooking is the payment callback; only the tour's guide may call it.
func (h *Handler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	existing, err := h.bookings.GetBooking(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.ownedTour(r.Context(), existing.TourID); err != nil {
		writeError(w, r, err)
		return
	}
	booking, err := h.bookings.ConfirmBooking(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	bookingID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, _ := UserIDFromContext(r.Context())

	var req reviewRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	review, err := h.reviews.CreateReview(r.Context(), userID, bookingID, req.Rating, req.Comment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

// ListMyEmails returns the latest delivery log entries sent to the caller.
func (h *Handler) ListMyEmails(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := h.emailLogs.ListByRecipient(r.Context(), user.Email, myEmailsLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.EmailLog{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// visibleBooking loads the booking in the path if the caller booked it or
// guides its tour.
func (h *Handler) visibleBooking(r *http.Request) (*domain.Booking, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}
	booking, err := h.bookings.GetBooking(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := h.canSeeBooking(r.Context(), booking); err != nil {
		return nil, err
	}
	return booking, nil
}

func (h *Handler) canSeeBooking(ctx context.Context, booking *domain.Booking) error {
	userID, _ := UserIDFromContext(ctx)
	if booking.UserID == userID {
		return nil
	}
	if _, err := h.ownedTour(ctx, booking.TourID); err != nil {
		return fmt.Errorf("%w: booking %d belongs to another user", domain.ErrForbidden, booking.ID)
	}
	return nil
}
