package allocation

import (
	"context"
	"testing"
	"time"

	"github.com/lotwise-io/lotwisego/internal/models"
)

func day(offset int) *time.Time {
	d := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
	return &d
}

func asOf() time.Time {
	return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
}

func candidateIDs(candidates []Candidate) []uint {
	ids := make([]uint, len(candidates))
	for i, c := range candidates {
		ids[i] = c.Lot.ID
	}
	return ids
}

func TestSelectCandidates_FEFOOrder(t *testing.T) {
	db := newMemDB()
	// Received order disagrees with expiry order on purpose
	db.addLot(models.Lot{ID: 1, ProductID: 7, ReceivedQty: 10, ExpiryDate: day(30), ReceivedDate: *day(-10)})
	db.addLot(models.Lot{ID: 2, ProductID: 7, ReceivedQty: 10, ExpiryDate: day(5), ReceivedDate: *day(-1)})
	db.addLot(models.Lot{ID: 3, ProductID: 7, ReceivedQty: 10, ReceivedDate: *day(-20)}) // no expiry, sorts last
	db.addLot(models.Lot{ID: 4, ProductID: 7, ReceivedQty: 10, ExpiryDate: day(5), ReceivedDate: *day(-3)})

	candidates, err := SelectCandidates(context.Background(), db.Stores(), DefaultQuery(7, FEFO), asOf())
	if err != nil {
		t.Fatalf("SelectCandidates failed: %v", err)
	}

	want := []uint{4, 2, 1, 3} // equal expiry breaks on received date, undated last
	got := candidateIDs(candidates)
	if len(got) != len(want) {
		t.Fatalf("got %d candidates, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: lot %d, want %d (order %v)", i, got[i], want[i], got)
		}
	}
}

func TestSelectCandidates_FIFOIgnoresExpiry(t *testing.T) {
	db := newMemDB()
	db.addLot(models.Lot{ID: 1, ProductID: 7, ReceivedQty: 10, ExpiryDate: day(5), ReceivedDate: *day(-1)})
	db.addLot(models.Lot{ID: 2, ProductID: 7, ReceivedQty: 10, ExpiryDate: day(60), ReceivedDate: *day(-9)})

	candidates, err := SelectCandidates(context.Background(), db.Stores(), DefaultQuery(7, FIFO), asOf())
	if err != nil {
		t.Fatalf("SelectCandidates failed: %v", err)
	}

	got := candidateIDs(candidates)
	if len(got) != 2 || got[0] != 2 || got[1] != 1 {
		t.Errorf("FIFO order = %v, want [2 1]", got)
	}
}

func TestSelectCandidates_EligibilityFilters(t *testing.T) {
	db := newMemDB()
	db.addLot(models.Lot{ID: 1, ProductID: 7, ReceivedQty: 10, ExpiryDate: day(-1), ReceivedDate: *day(-30)}) // expired
	db.addLot(models.Lot{ID: 2, ProductID: 7, ReceivedQty: 10, LockedQty: 3, ReceivedDate: *day(-5)})         // locked
	db.addLot(models.Lot{ID: 3, ProductID: 7, ReceivedQty: 10, Origin: models.LotOriginSample, ReceivedDate: *day(-5)})
	db.addLot(models.Lot{ID: 4, ProductID: 7, ReceivedQty: 10, Origin: models.LotOriginAdhoc, ReceivedDate: *day(-5)})
	db.addLot(models.Lot{ID: 5, ProductID: 7, ReceivedQty: 10, Status: models.LotStatusDepleted, ReceivedDate: *day(-5)})
	db.addLot(models.Lot{ID: 6, ProductID: 7, ReceivedQty: 10, ReceivedDate: *day(-5)})
	db.addLot(models.Lot{ID: 7, ProductID: 9, ReceivedQty: 10, ReceivedDate: *day(-5)}) // other product

	candidates, err := SelectCandidates(context.Background(), db.Stores(), DefaultQuery(7, FEFO), asOf())
	if err != nil {
		t.Fatalf("SelectCandidates failed: %v", err)
	}
	if got := candidateIDs(candidates); len(got) != 1 || got[0] != 6 {
		t.Errorf("default filters kept %v, want [6]", got)
	}

	// Loosen the filters and the special lots come back
	q := DefaultQuery(7, FEFO)
	q.ExcludeExpired = false
	q.ExcludeLocked = false
	q.IncludeSample = true
	q.IncludeAdhoc = true
	candidates, err = SelectCandidates(context.Background(), db.Stores(), q, asOf())
	if err != nil {
		t.Fatalf("SelectCandidates failed: %v", err)
	}
	if got := candidateIDs(candidates); len(got) != 5 {
		t.Errorf("loosened filters kept %v, want 5 lots", got)
	}
}

func TestSelectCandidates_SafetyDaysShiftCutoff(t *testing.T) {
	db := newMemDB()
	db.addLot(models.Lot{ID: 1, ProductID: 7, ReceivedQty: 10, ExpiryDate: day(4), ReceivedDate: *day(-5)})

	q := DefaultQuery(7, FEFO)
	candidates, err := SelectCandidates(context.Background(), db.Stores(), q, asOf())
	if err != nil {
		t.Fatalf("SelectCandidates failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("lot expiring in 4 days should be eligible without safety margin")
	}

	q.SafetyDays = 7
	candidates, err = SelectCandidates(context.Background(), db.Stores(), q, asOf())
	if err != nil {
		t.Fatalf("SelectCandidates failed: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("7-day safety margin should exclude a lot expiring in 4 days")
	}
}

func TestSelectCandidates_AvailableSubtractsConfirmed(t *testing.T) {
	db := newMemDB()
	lot := db.addLot(models.Lot{ID: 1, ProductID: 7, ReceivedQty: 100, ConsumedQty: 10, ReceivedDate: *day(-5)})
	db.addReservation(models.Reservation{LotID: &lot.ID, Status: models.ReservationConfirmed, ReservedQty: 30})
	// ACTIVE soft holds do not reduce selector availability
	db.addReservation(models.Reservation{LotID: &lot.ID, Status: models.ReservationActive, ReservedQty: 50})

	candidates, err := SelectCandidates(context.Background(), db.Stores(), DefaultQuery(7, FEFO), asOf())
	if err != nil {
		t.Fatalf("SelectCandidates failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	if candidates[0].Available != 60 {
		t.Errorf("Available = %.1f, want 60 (90 on hand - 30 confirmed)", candidates[0].Available)
	}
}

func TestSelectCandidates_FullyClaimedLotDropped(t *testing.T) {
	db := newMemDB()
	lot := db.addLot(models.Lot{ID: 1, ProductID: 7, ReceivedQty: 30, ReceivedDate: *day(-5)})
	db.addReservation(models.Reservation{LotID: &lot.ID, Status: models.ReservationConfirmed, ReservedQty: 30})

	candidates, err := SelectCandidates(context.Background(), db.Stores(), DefaultQuery(7, FEFO), asOf())
	if err != nil {
		t.Fatalf("SelectCandidates failed: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("fully claimed lot should be dropped, got %v", candidateIDs(candidates))
	}
}

func TestSelectCandidates_MinAvailable(t *testing.T) {
	db := newMemDB()
	db.addLot(models.Lot{ID: 1, ProductID: 7, ReceivedQty: 5, ReceivedDate: *day(-5)})
	db.addLot(models.Lot{ID: 2, ProductID: 7, ReceivedQty: 50, ReceivedDate: *day(-5)})

	q := DefaultQuery(7, FEFO)
	q.MinAvailable = 10
	candidates, err := SelectCandidates(context.Background(), db.Stores(), q, asOf())
	if err != nil {
		t.Fatalf("SelectCandidates failed: %v", err)
	}
	if got := candidateIDs(candidates); len(got) != 1 || got[0] != 2 {
		t.Errorf("MinAvailable=10 kept %v, want [2]", got)
	}
}

func TestSelectCandidates_WarehouseFilter(t *testing.T) {
	db := newMemDB()
	db.addLot(models.Lot{ID: 1, ProductID: 7, WarehouseID: 1, ReceivedQty: 10, ReceivedDate: *day(-5)})
	db.addLot(models.Lot{ID: 2, ProductID: 7, WarehouseID: 2, ReceivedQty: 10, ReceivedDate: *day(-5)})

	wh := uint(2)
	q := DefaultQuery(7, FEFO)
	q.WarehouseID = &wh
	candidates, err := SelectCandidates(context.Background(), db.Stores(), q, asOf())
	if err != nil {
		t.Fatalf("SelectCandidates failed: %v", err)
	}
	if got := candidateIDs(candidates); len(got) != 1 || got[0] != 2 {
		t.Errorf("warehouse filter kept %v, want [2]", got)
	}
}
