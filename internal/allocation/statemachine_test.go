package allocation

import (
	"errors"
	"testing"
	"time"

	"github.com/lotwise-io/lotwisego/internal/models"
)

func TestCanTransition_LegalMoves(t *testing.T) {
	legal := []struct {
		from, to models.ReservationStatus
	}{
		{models.ReservationTemporary, models.ReservationActive},
		{models.ReservationTemporary, models.ReservationReleased},
		{models.ReservationActive, models.ReservationConfirmed},
		{models.ReservationActive, models.ReservationReleased},
		{models.ReservationConfirmed, models.ReservationReleased},
	}
	for _, tc := range legal {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("CanTransition(%s, %s) = false, want true", tc.from, tc.to)
		}
	}
}

func TestCanTransition_IllegalMoves(t *testing.T) {
	illegal := []struct {
		from, to models.ReservationStatus
	}{
		{models.ReservationTemporary, models.ReservationConfirmed}, // must bind a lot first
		{models.ReservationConfirmed, models.ReservationActive},    // no demotion
		{models.ReservationConfirmed, models.ReservationTemporary},
		{models.ReservationReleased, models.ReservationActive}, // terminal
		{models.ReservationReleased, models.ReservationConfirmed},
		{models.ReservationReleased, models.ReservationTemporary},
		{models.ReservationActive, models.ReservationTemporary},
	}
	for _, tc := range illegal {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("CanTransition(%s, %s) = true, want false", tc.from, tc.to)
		}
	}
}

func TestTransition_StampsTimestamps(t *testing.T) {
	at := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	r := &models.Reservation{Status: models.ReservationActive}
	if err := Transition(r, models.ReservationConfirmed, at); err != nil {
		t.Fatalf("Transition to CONFIRMED failed: %v", err)
	}
	if r.ConfirmedAt == nil || !r.ConfirmedAt.Equal(at) {
		t.Errorf("ConfirmedAt = %v, want %v", r.ConfirmedAt, at)
	}

	later := at.Add(time.Hour)
	if err := Transition(r, models.ReservationReleased, later); err != nil {
		t.Fatalf("Transition to RELEASED failed: %v", err)
	}
	if r.ReleasedAt == nil || !r.ReleasedAt.Equal(later) {
		t.Errorf("ReleasedAt = %v, want %v", r.ReleasedAt, later)
	}
}

func TestTransition_IllegalLeavesReservationUntouched(t *testing.T) {
	r := &models.Reservation{Status: models.ReservationTemporary}

	err := Transition(r, models.ReservationConfirmed, time.Now())
	if err == nil {
		t.Fatal("expected error for TEMPORARY -> CONFIRMED")
	}

	var st *StateError
	if !errors.As(err, &st) {
		t.Fatalf("expected StateError, got %T", err)
	}
	if st.Reason != ReasonInvalidTransition {
		t.Errorf("Reason = %s, want %s", st.Reason, ReasonInvalidTransition)
	}
	if r.Status != models.ReservationTemporary {
		t.Errorf("Status changed to %s on failed transition", r.Status)
	}
	if r.ConfirmedAt != nil {
		t.Error("ConfirmedAt stamped on failed transition")
	}
}

func TestTransition_ReleasedIsTerminal(t *testing.T) {
	r := &models.Reservation{Status: models.ReservationReleased}

	err := Transition(r, models.ReservationActive, time.Now())
	var st *StateError
	if !errors.As(err, &st) {
		t.Fatalf("expected StateError, got %v", err)
	}
	if st.Reason != ReasonAlreadyReleased {
		t.Errorf("Reason = %s, want %s", st.Reason, ReasonAlreadyReleased)
	}
	if CodeOf(err) != CodeStateViolation {
		t.Errorf("CodeOf = %s, want %s", CodeOf(err), CodeStateViolation)
	}
}
