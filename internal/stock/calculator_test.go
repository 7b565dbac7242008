package stock

import (
	"testing"

	"github.com/lotwise-io/lotwisego/internal/models"
)

func lotWith(received, consumed, locked float64) *models.Lot {
	return &models.Lot{ReceivedQty: received, ConsumedQty: consumed, LockedQty: locked}
}

func TestCompute_AllStatuses(t *testing.T) {
	lot := lotWith(100, 20, 10)
	reservations := []models.Reservation{
		{Status: models.ReservationConfirmed, ReservedQty: 30},
		{Status: models.ReservationConfirmed, ReservedQty: 5},
		{Status: models.ReservationActive, ReservedQty: 15},
		{Status: models.ReservationTemporary, ReservedQty: 50}, // no lot claim yet
		{Status: models.ReservationReleased, ReservedQty: 99},  // history, must not count
	}

	q := Compute(lot, reservations)

	if q.Reserved != 35 {
		t.Errorf("Reserved = %.1f, want 35", q.Reserved)
	}
	if q.Provisional != 15 {
		t.Errorf("Provisional = %.1f, want 15", q.Provisional)
	}
	// 80 on hand - 10 locked - 35 confirmed
	if q.Available != 35 {
		t.Errorf("Available = %.1f, want 35", q.Available)
	}
	// Allocatable ignores the administrative lock
	if q.Allocatable != 45 {
		t.Errorf("Allocatable = %.1f, want 45", q.Allocatable)
	}
}

func TestAvailable_NeverNegative(t *testing.T) {
	// Confirmed claims exceed the physical balance after a withdrawal
	lot := lotWith(50, 40, 5)
	reservations := []models.Reservation{
		{Status: models.ReservationConfirmed, ReservedQty: 20},
	}

	if got := Available(lot, reservations); got != 0 {
		t.Errorf("Available = %.1f, want 0 (floored)", got)
	}

	// Allocatable is allowed to go negative so callers can see the deficit
	if got := Allocatable(lot, reservations); got != -10 {
		t.Errorf("Allocatable = %.1f, want -10", got)
	}
}

func TestCompute_NoReservations(t *testing.T) {
	q := Compute(lotWith(100, 0, 0), nil)

	if q.Reserved != 0 || q.Provisional != 0 {
		t.Errorf("expected zero claims, got reserved=%.1f provisional=%.1f", q.Reserved, q.Provisional)
	}
	if q.Available != 100 || q.Allocatable != 100 {
		t.Errorf("expected full availability, got available=%.1f allocatable=%.1f", q.Available, q.Allocatable)
	}
}

func TestCompute_MatchesIndividualFunctions(t *testing.T) {
	lot := lotWith(200, 30, 15)
	reservations := []models.Reservation{
		{Status: models.ReservationConfirmed, ReservedQty: 60},
		{Status: models.ReservationActive, ReservedQty: 25},
	}

	q := Compute(lot, reservations)

	if q.Reserved != Reserved(reservations) {
		t.Errorf("Compute.Reserved = %.1f, Reserved() = %.1f", q.Reserved, Reserved(reservations))
	}
	if q.Provisional != Provisional(reservations) {
		t.Errorf("Compute.Provisional = %.1f, Provisional() = %.1f", q.Provisional, Provisional(reservations))
	}
	if q.Available != Available(lot, reservations) {
		t.Errorf("Compute.Available = %.1f, Available() = %.1f", q.Available, Available(lot, reservations))
	}
	if q.Allocatable != Allocatable(lot, reservations) {
		t.Errorf("Compute.Allocatable = %.1f, Allocatable() = %.1f", q.Allocatable, Allocatable(lot, reservations))
	}
}
