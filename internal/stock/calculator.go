// Package stock computes a lot's quantity figures from its recorded
// quantities and the reservations claiming it. All functions are pure and
// safe to call inside or outside a transaction.
package stock

import (
	"github.com/lotwise-io/lotwisego/internal/models"
)

// Quantities is the full quantity picture of one lot at one point in time.
type Quantities struct {
	Reserved    float64 `json:"reserved"`    // sum of CONFIRMED reservations
	Provisional float64 `json:"provisional"` // sum of ACTIVE soft holds, visibility only
	Available   float64 `json:"available"`   // on hand - locked - reserved, floored at 0
	Allocatable float64 `json:"allocatable"` // on hand - reserved, ignores the administrative lock
}

// Reserved sums the quantity of CONFIRMED reservations on the lot. ACTIVE
// and TEMPORARY holds are deliberately excluded: they are overbookable
// intent, not committed demand.
func Reserved(reservations []models.Reservation) float64 {
	var sum float64
	for _, r := range reservations {
		if r.Status == models.ReservationConfirmed {
			sum += r.ReservedQty
		}
	}
	return sum
}

// Provisional sums the quantity of ACTIVE soft holds on the lot.
func Provisional(reservations []models.Reservation) float64 {
	var sum float64
	for _, r := range reservations {
		if r.Status == models.ReservationActive {
			sum += r.ReservedQty
		}
	}
	return sum
}

// Available is the quantity a new commitment may claim:
// received - consumed - locked - reserved, never negative.
func Available(lot *models.Lot, reservations []models.Reservation) float64 {
	avail := lot.OnHandQty() - lot.LockedQty - Reserved(reservations)
	if avail < 0 {
		return 0
	}
	return avail
}

// Allocatable is like Available but ignores the administrative lock. Used by
// operations explicitly permitted to consume locked stock.
func Allocatable(lot *models.Lot, reservations []models.Reservation) float64 {
	return lot.OnHandQty() - Reserved(reservations)
}

// Compute returns all four figures in one pass.
func Compute(lot *models.Lot, reservations []models.Reservation) Quantities {
	var reserved, provisional float64
	for _, r := range reservations {
		switch r.Status {
		case models.ReservationConfirmed:
			reserved += r.ReservedQty
		case models.ReservationActive:
			provisional += r.ReservedQty
		}
	}

	onHand := lot.OnHandQty()
	avail := onHand - lot.LockedQty - reserved
	if avail < 0 {
		avail = 0
	}

	return Quantities{
		Reserved:    reserved,
		Provisional: provisional,
		Available:   avail,
		Allocatable: onHand - reserved,
	}
}
