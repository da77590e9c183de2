package utils

import (
	"fmt"

	"tourbooking-backend/internal/domain"
)

// BookingCostBreakdown provides detailed cost breakdown
type BookingCostBreakdown struct {
	Spots       int
	SpotsCost   int64
	AddOnsCost  int64
	TotalCost   int64
	AddOnCounts int
}

// CalculateBookingCost prices a booking as the per-spot price times spots
// plus each add-on line at its snapshotted price.
func CalculateBookingCost(pricePerSpot int64, spots int, addOns []domain.BookingAddOn) (BookingCostBreakdown, error) {
	if pricePerSpot < 0 {
		return BookingCostBreakdown{}, fmt.Errorf("price per spot must not be negative")
	}
	if spots < 1 {
		return BookingCostBreakdown{}, fmt.Errorf("spots must be at least 1")
	}

	b := BookingCostBreakdown{
		Spots:       spots,
		SpotsCost:   pricePerSpot * int64(spots),
		AddOnCounts: len(addOns),
	}
	for _, a := range addOns {
		if a.PriceCentsAtBooking < 0 || a.Quantity < 1 {
			return BookingCostBreakdown{}, fmt.Errorf("invalid add-on line %d", a.TourAddOnID)
		}
		b.AddOnsCost += a.TotalCents()
	}
	b.TotalCost = b.SpotsCost + b.AddOnsCost
	return b, nil
}

// FormatCents renders an amount in cents as a decimal string, e.g. "12.50".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
