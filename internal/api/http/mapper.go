package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"tourbooking-backend/internal/domain"
)

type tourRequest struct {
	Title                string    `json:"title"`
	Capacity             int       `json:"capacity"`
	PriceCents           int64     `json:"price_cents"`
	StartsAt             time.Time `json:"starts_at"`
	EndsAt               time.Time `json:"ends_at"`
	BookingDeadlineHours *int      `json:"booking_deadline_hours"`
	Latitude             *float64  `json:"latitude"`
	Longitude            *float64  `json:"longitude"`
}

func (req tourRequest) toDomain() *domain.Tour {
	return &domain.Tour{
		Title:                req.Title,
		Capacity:             req.Capacity,
		PriceCents:           req.PriceCents,
		StartsAt:             req.StartsAt.UTC(),
		EndsAt:               req.EndsAt.UTC(),
		BookingDeadlineHours: req.BookingDeadlineHours,
		Latitude:             req.Latitude,
		Longitude:            req.Longitude,
	}
}

type addOnRequest struct {
	Name            string             `json:"name"`
	PriceCents      int64              `json:"price_cents"`
	PricingType     domain.PricingType `json:"pricing_type"`
	MaximumQuantity int                `json:"maximum_quantity"`
	Active          *bool              `json:"active"`
	Position        int                `json:"position"`
}

func (req addOnRequest) toDomain(tourID int64) *domain.TourAddOn {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return &domain.TourAddOn{
		TourID:          tourID,
		Name:            req.Name,
		PriceCents:      req.PriceCents,
		PricingType:     req.PricingType,
		MaximumQuantity: req.MaximumQuantity,
		Active:          active,
		Position:        req.Position,
	}
}

type bookingRequest struct {
	Spots  int                     `json:"spots"`
	AddOns []domain.AddOnSelection `json:"add_ons"`
	Email  string                  `json:"email"`
	Name   string                  `json:"name"`
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// tourResponse adds the derived availability to the stored tour.
type tourResponse struct {
	*domain.Tour
	SpotsLeft int `json:"spots_left"`
}

func mapTour(t *domain.Tour) tourResponse {
	return tourResponse{Tour: t, SpotsLeft: t.SpotsLeft()}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", domain.ErrValidation, name, raw)
	}
	return id, nil
}
