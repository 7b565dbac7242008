package allocation

import (
	"time"

	"github.com/lotwise-io/lotwisego/internal/models"
)

// transitions lists every legal state change. RELEASED is terminal;
// CONFIRMED can only move to RELEASED through the explicit reversal flow.
var transitions = map[models.ReservationStatus][]models.ReservationStatus{
	models.ReservationTemporary: {models.ReservationActive, models.ReservationReleased},
	models.ReservationActive:    {models.ReservationConfirmed, models.ReservationReleased},
	models.ReservationConfirmed: {models.ReservationReleased},
	models.ReservationReleased:  {},
}

// CanTransition reports whether from -> to is a legal state change.
func CanTransition(from, to models.ReservationStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition applies a state change in memory, stamping the matching
// timestamp. It never touches the database; callers persist the record.
// Illegal changes return a StateError and leave the reservation untouched.
func Transition(r *models.Reservation, to models.ReservationStatus, at time.Time) error {
	if !CanTransition(r.Status, to) {
		reason := ReasonInvalidTransition
		if r.Status == models.ReservationReleased {
			reason = ReasonAlreadyReleased
		}
		return &StateError{Reason: reason, Current: r.Status, Requested: to}
	}

	r.Status = to
	switch to {
	case models.ReservationConfirmed:
		r.ConfirmedAt = &at
	case models.ReservationReleased:
		r.ReleasedAt = &at
	}
	return nil
}
