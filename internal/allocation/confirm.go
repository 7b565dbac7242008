package allocation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lotwise-io/lotwisego/internal/models"
)

// Confirmer drives the reservation lifecycle: creating holds, binding lots,
// and the confirmation protocol that coordinates a local stock commitment
// with the ERP's acknowledgement.
//
// Lock order is always reservation first, then lot, so concurrent
// confirmations touching the same pair cannot deadlock.
type Confirmer struct {
	db       DB
	gateway  AllocationGateway
	reverser AllocationReverser
	events   EventSink
	now      func() time.Time
}

// NewConfirmer wires the orchestrator. reverser and events may be nil.
func NewConfirmer(db DB, gateway AllocationGateway, reverser AllocationReverser, events EventSink) *Confirmer {
	return &Confirmer{
		db:       db,
		gateway:  gateway,
		reverser: reverser,
		events:   events,
		now:      time.Now,
	}
}

// ReserveRequest describes a new hold
type ReserveRequest struct {
	LotID      *uint // nil creates a TEMPORARY forecast-only hold
	SourceType models.ReservationSource
	SourceID   uint
	Quantity   float64
}

// Reserve creates a soft hold: ACTIVE when a lot is given, TEMPORARY when
// not. Soft holds are overbookable by design, so no availability check runs
// here; the check happens at confirmation under the lot lock.
func (c *Confirmer) Reserve(ctx context.Context, req ReserveRequest) (*models.Reservation, error) {
	if req.Quantity <= 0 {
		return nil, &ValidationError{Message: fmt.Sprintf("reservation quantity must be positive, got %.3f", req.Quantity)}
	}

	status := models.ReservationTemporary
	if req.LotID != nil {
		status = models.ReservationActive
	}

	r := &models.Reservation{
		LotID:       req.LotID,
		SourceType:  req.SourceType,
		SourceID:    req.SourceID,
		ReservedQty: req.Quantity,
		Status:      status,
	}

	err := c.db.InTx(ctx, func(s Stores) error {
		if req.LotID != nil {
			lot, err := s.Lots().Get(ctx, *req.LotID, LockNone)
			if err != nil {
				return err
			}
			if lot.Status != models.LotStatusActive {
				return &StateError{Reason: ReasonLotNotActive, Detail: fmt.Sprintf("lot %d is %s", lot.ID, lot.Status)}
			}
		}
		return s.Reservations().Create(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// BindLot moves a TEMPORARY forecast hold onto a concrete lot (-> ACTIVE).
func (c *Confirmer) BindLot(ctx context.Context, reservationID, lotID uint) (*models.Reservation, error) {
	var bound *models.Reservation
	err := c.db.InTx(ctx, func(s Stores) error {
		r, err := s.Reservations().Get(ctx, reservationID, LockWait)
		if err != nil {
			return err
		}
		lot, err := s.Lots().Get(ctx, lotID, LockNone)
		if err != nil {
			return err
		}
		if lot.Status != models.LotStatusActive {
			return &StateError{Reason: ReasonLotNotActive, Detail: fmt.Sprintf("lot %d is %s", lot.ID, lot.Status)}
		}
		if err := Transition(r, models.ReservationActive, c.now()); err != nil {
			return err
		}
		r.LotID = &lotID
		bound = r
		return s.Reservations().Save(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	return bound, nil
}

// Release cancels an ACTIVE or TEMPORARY hold. Releasing a CONFIRMED
// reservation must go through Reverse instead.
func (c *Confirmer) Release(ctx context.Context, reservationID uint) error {
	return c.db.InTx(ctx, func(s Stores) error {
		r, err := s.Reservations().Get(ctx, reservationID, LockWait)
		if err != nil {
			return err
		}
		if r.Status == models.ReservationConfirmed {
			return &StateError{
				Reason:    ReasonInvalidTransition,
				Current:   r.Status,
				Requested: models.ReservationReleased,
				Detail:    "confirmed reservations require an explicit reversal",
			}
		}
		if err := Transition(r, models.ReservationReleased, c.now()); err != nil {
			return err
		}
		return s.Reservations().Save(ctx, r)
	})
}

// Confirm turns one ACTIVE reservation into CONFIRMED. Re-confirming an
// already CONFIRMED reservation is a successful no-op; every other
// out-of-order call fails per the state machine.
func (c *Confirmer) Confirm(ctx context.Context, reservationID uint) error {
	var events []Event
	err := c.db.InTx(ctx, func(s Stores) error {
		evs, err := c.confirmOne(ctx, s, reservationID)
		if err != nil {
			return err
		}
		events = evs
		return nil
	})
	if err != nil {
		return err
	}
	c.publish(events)
	return nil
}

// ConfirmBatch processes each reservation independently inside one outer
// transaction: per-item savepoints isolate failures, the commit happens once
// for all successes. Every input id lands in exactly one result bucket.
func (c *Confirmer) ConfirmBatch(ctx context.Context, reservationIDs []uint) (*BatchResult, error) {
	result := &BatchResult{Confirmed: []uint{}, Failures: []Failure{}}
	var events []Event

	err := c.db.InTx(ctx, func(s Stores) error {
		for _, id := range reservationIDs {
			var itemEvents []Event
			itemErr := s.InTx(ctx, func(sp Stores) error {
				evs, err := c.confirmOne(ctx, sp, id)
				if err != nil {
					return err
				}
				itemEvents = evs
				return nil
			})
			if itemErr != nil {
				code := CodeOf(itemErr)
				if code == "" {
					// Unexpected store error: don't bury it in the result.
					return itemErr
				}
				result.Failures = append(result.Failures, Failure{
					ReservationID: id,
					Code:          code,
					Message:       itemErr.Error(),
				})
				continue
			}
			result.Confirmed = append(result.Confirmed, id)
			events = append(events, itemEvents...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.publish(events)
	return result, nil
}

// confirmOne runs steps 1-7 of the confirmation protocol inside the caller's
// transaction and returns the events to publish after commit.
func (c *Confirmer) confirmOne(ctx context.Context, s Stores, reservationID uint) ([]Event, error) {
	now := c.now()

	// 1. Lock the reservation row first.
	r, err := s.Reservations().Get(ctx, reservationID, LockWait)
	if err != nil {
		return nil, err
	}
	if r.Status == models.ReservationConfirmed {
		// Idempotent: already done, nothing to change.
		return nil, nil
	}
	if r.Status == models.ReservationReleased {
		return nil, &StateError{
			Reason:    ReasonAlreadyReleased,
			Current:   r.Status,
			Requested: models.ReservationConfirmed,
		}
	}

	// 2. Forecast-only holds cannot be confirmed directly.
	if r.LotID == nil {
		return nil, &StateError{
			Reason:    ReasonNoLotBound,
			Current:   r.Status,
			Requested: models.ReservationConfirmed,
			Detail:    "bind a lot before confirming",
		}
	}

	// 3. Lock the lot and re-validate it.
	lot, err := s.Lots().Get(ctx, *r.LotID, LockWait)
	if err != nil {
		return nil, err
	}
	if lot.Status != models.LotStatusActive {
		return nil, &StateError{
			Reason: ReasonLotNotActive,
			Detail: fmt.Sprintf("lot %d is %s", lot.ID, lot.Status),
		}
	}
	if lot.IsExpired(now, 0) {
		return nil, &StateError{
			Reason: ReasonLotExpired,
			Detail: fmt.Sprintf("lot %d expired %s", lot.ID, lot.ExpiryDate.Format("2006-01-02")),
		}
	}

	// 4. Recompute competing claims under the lock. The hard ceiling is
	// received - consumed - locked - confirmed: confirmation may never dip
	// into administratively frozen stock. Strictly lower-priority ACTIVE
	// holds count against this confirmation too, but they can be preempted
	// to make room; equal and higher priority holds neither block nor get
	// preempted.
	sums, err := s.Reservations().ConfirmedSums(ctx, []uint{lot.ID})
	if err != nil {
		return nil, err
	}
	reserved := sums[lot.ID]
	available := lot.OnHandQty() - lot.LockedQty - reserved

	holds, err := s.Reservations().ListActiveByLot(ctx, lot.ID)
	if err != nil {
		return nil, err
	}
	var lowerHolds float64
	for _, h := range holds {
		if h.ID != r.ID && h.SourceType.Priority() < r.SourceType.Priority() {
			lowerHolds += h.ReservedQty
		}
	}

	var events []Event
	if free := available - lowerHolds; r.ReservedQty > free {
		preempted, freed, err := c.preempt(ctx, s, holds, r, r.ReservedQty-free, now)
		if err != nil {
			return nil, err
		}
		if freed < r.ReservedQty-free {
			return nil, &InsufficientStockError{
				LotID:     lot.ID,
				LotNumber: lot.LotMaster.LotNumber,
				Required:  r.ReservedQty,
				Available: available,
			}
		}
		events = append(events, preempted...)
	}

	// 5. External acknowledgement before any local persist. A gateway
	// failure aborts the whole item with no state change.
	ack, err := c.gateway.RegisterAllocation(ctx, r, lot)
	if err != nil {
		return nil, &AckError{Message: "gateway call failed", Err: err}
	}
	if !ack.Success {
		return nil, &AckError{Message: ack.ErrorMessage}
	}

	// 6. Persist the confirmed state.
	if err := Transition(r, models.ReservationConfirmed, now); err != nil {
		return nil, err
	}
	r.AckReference = ack.DocumentRef
	ackedAt := ack.AckedAt
	if ackedAt.IsZero() {
		ackedAt = now
	}
	r.AckedAt = &ackedAt
	if payload, err := json.Marshal(ack); err == nil {
		r.AckPayload = payload
	}
	if err := s.Reservations().Save(ctx, r); err != nil {
		return nil, err
	}

	lot.UpdatedAt = now
	if err := s.Lots().Save(ctx, lot); err != nil {
		return nil, err
	}

	if r.SourceType == models.SourceOrder {
		if err := s.OrderLines().RecomputeFulfillment(ctx, r.SourceID); err != nil {
			return nil, err
		}
	}

	events = append(events, Event{
		ID:            uuid.New().String(),
		Type:          EventConfirmed,
		At:            now,
		LotID:         lot.ID,
		ReservationID: r.ID,
		Quantity:      r.ReservedQty,
	})
	return events, nil
}

// preempt releases strictly lower-priority ACTIVE holds until the
// shortfall is covered. Equal and higher priority holds are never
// preempted. Victim order favors retaining higher-priority demand: lowest
// source priority first (forecast < manual < order), then newest first,
// then highest id. Returns the events for the released holds and the
// quantity actually freed.
func (c *Confirmer) preempt(ctx context.Context, s Stores, holds []models.Reservation, keep *models.Reservation, shortfall float64, now time.Time) ([]Event, float64, error) {
	victims := make([]models.Reservation, 0, len(holds))
	for _, h := range holds {
		if h.ID != keep.ID && h.SourceType.Priority() < keep.SourceType.Priority() {
			victims = append(victims, h)
		}
	}
	sort.Slice(victims, func(i, j int) bool {
		a, b := &victims[i], &victims[j]
		if pa, pb := a.SourceType.Priority(), b.SourceType.Priority(); pa != pb {
			return pa < pb
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	var events []Event
	var freed float64
	for i := range victims {
		if freed >= shortfall {
			break
		}
		v := &victims[i]
		if err := Transition(v, models.ReservationReleased, now); err != nil {
			return nil, 0, err
		}
		if err := s.Reservations().Save(ctx, v); err != nil {
			return nil, 0, err
		}
		freed += v.ReservedQty
		events = append(events, Event{
			ID:            uuid.New().String(),
			Type:          EventPreempted,
			At:            now,
			LotID:         *keep.LotID,
			ReservationID: v.ID,
			Quantity:      v.ReservedQty,
		})
	}
	return events, freed, nil
}

// Reverse is the compensating operation for a confirmed reservation
// (e.g. order cancellation after confirmation). The ERP is notified before
// any local change; a notification failure aborts the reversal.
func (c *Confirmer) Reverse(ctx context.Context, reservationID uint) error {
	var events []Event
	err := c.db.InTx(ctx, func(s Stores) error {
		r, err := s.Reservations().Get(ctx, reservationID, LockWait)
		if err != nil {
			return err
		}
		if r.Status != models.ReservationConfirmed {
			return &StateError{
				Reason:    ReasonInvalidTransition,
				Current:   r.Status,
				Requested: models.ReservationReleased,
				Detail:    "only confirmed reservations can be reversed",
			}
		}

		if c.reverser != nil {
			if err := c.reverser.ReverseAllocation(ctx, r); err != nil {
				return &AckError{Message: "reversal not acknowledged", Err: err}
			}
		}

		now := c.now()
		if err := Transition(r, models.ReservationReleased, now); err != nil {
			return err
		}
		if err := s.Reservations().Save(ctx, r); err != nil {
			return err
		}
		if r.SourceType == models.SourceOrder {
			if err := s.OrderLines().RecomputeFulfillment(ctx, r.SourceID); err != nil {
				return err
			}
		}

		lotID := uint(0)
		if r.LotID != nil {
			lotID = *r.LotID
		}
		events = append(events, Event{
			ID:            uuid.New().String(),
			Type:          EventReversed,
			At:            now,
			LotID:         lotID,
			ReservationID: r.ID,
			Quantity:      r.ReservedQty,
		})
		return nil
	})
	if err != nil {
		return err
	}
	c.publish(events)
	return nil
}

func (c *Confirmer) publish(events []Event) {
	if c.events == nil {
		return
	}
	for _, e := range events {
		c.events.Publish(e)
	}
	if len(events) > 0 {
		log.Printf("📣 Published %d allocation event(s)", len(events))
	}
}
