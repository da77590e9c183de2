package domain

type PricingType string

const (
	PricingTypeFlat      PricingType = "flat"
	PricingTypePerPerson PricingType = "per_person"
)

// TourAddOn is an optional purchasable extra attached to a tour.
type TourAddOn struct {
	ID              int64       `json:"id"`
	TourID          int64       `json:"tour_id"`
	Name            string      `json:"name"`
	PriceCents      int64       `json:"price_cents"`
	PricingType     PricingType `json:"pricing_type"`
	MaximumQuantity int         `json:"maximum_quantity"`
	Active          bool        `json:"active"`
	Position        int         `json:"position"`
}

// AddOnSelection is what a tourist asks for when booking.
type AddOnSelection struct {
	AddOnID  int64 `json:"add_on_id"`
	Quantity int   `json:"quantity"`
}

// BookingAddOn records a purchased add-on. PriceCentsAtBooking is a snapshot
// and never follows later TourAddOn price changes.
type BookingAddOn struct {
	ID                  int64 `json:"id"`
	BookingID           int64 `json:"booking_id"`
	TourAddOnID         int64 `json:"tour_add_on_id"`
	Quantity            int   `json:"quantity"`
	PriceCentsAtBooking int64 `json:"price_cents_at_booking"`
}

// EffectiveQuantity converts a requested unit count to the purchased quantity.
// Per-person add-ons are bought once per booked spot.
func (a *TourAddOn) EffectiveQuantity(requested, spots int) int {
	if a.PricingType == PricingTypePerPerson {
		return requested * spots
	}
	return requested
}

func (b BookingAddOn) TotalCents() int64 {
	return b.PriceCentsAtBooking * int64(b.Quantity)
}
