package allocation

import (
	"context"
	"fmt"
	"time"

	"github.com/lotwise-io/lotwisego/internal/models"
	"github.com/lotwise-io/lotwisego/internal/stock"
)

// LotOps covers the lot lifecycle outside allocation proper: receipt,
// withdrawal and the administrative lock. Every mutation re-checks the
// quantity invariant under a row lock and rejects violations instead of
// clamping.
type LotOps struct {
	db  DB
	now func() time.Time
}

// NewLotOps creates the lot lifecycle operations over the given database
func NewLotOps(db DB) *LotOps {
	return &LotOps{db: db, now: time.Now}
}

// ReceiveRequest describes one inbound receipt
type ReceiveRequest struct {
	LotNumber   string
	ProductID   uint
	WarehouseID uint
	SupplierID  *uint
	Quantity    float64
	ExpiryDate  *time.Time
	Origin      models.LotOrigin
}

// Receive books a receipt into a new lot under the business lot number's
// master, creating the master on first receipt.
func (o *LotOps) Receive(ctx context.Context, req ReceiveRequest) (*models.Lot, error) {
	if req.Quantity <= 0 {
		return nil, &ValidationError{Message: fmt.Sprintf("received quantity must be positive, got %.3f", req.Quantity)}
	}
	if req.LotNumber == "" {
		return nil, &ValidationError{Message: "lot number is required"}
	}

	origin := req.Origin
	if origin == "" {
		origin = models.LotOriginOrder
	}

	var lot *models.Lot
	err := o.db.InTx(ctx, func(s Stores) error {
		master, err := s.Lots().GetOrCreateMaster(ctx, req.ProductID, req.LotNumber)
		if err != nil {
			return err
		}
		lot = &models.Lot{
			LotMasterID:  master.ID,
			ProductID:    req.ProductID,
			WarehouseID:  req.WarehouseID,
			SupplierID:   req.SupplierID,
			ReceivedQty:  req.Quantity,
			Status:       models.LotStatusActive,
			Origin:       origin,
			ExpiryDate:   req.ExpiryDate,
			ReceivedDate: o.now(),
		}
		return s.Lots().Create(ctx, lot)
	})
	if err != nil {
		return nil, err
	}
	return lot, nil
}

// Withdraw consumes quantity from a lot (shipment or internal usage). With
// allowLocked the administrative lock is ignored, per the allocatable rule.
// A withdrawal that would break the quantity invariant is rejected.
func (o *LotOps) Withdraw(ctx context.Context, lotID uint, qty float64, allowLocked bool) (*models.Lot, error) {
	if qty <= 0 {
		return nil, &ValidationError{Message: fmt.Sprintf("withdrawal quantity must be positive, got %.3f", qty)}
	}

	var updated *models.Lot
	err := o.db.InTx(ctx, func(s Stores) error {
		lot, err := s.Lots().Get(ctx, lotID, LockWait)
		if err != nil {
			return err
		}
		if lot.Status != models.LotStatusActive {
			return &StateError{Reason: ReasonLotNotActive, Detail: fmt.Sprintf("lot %d is %s", lot.ID, lot.Status)}
		}

		reservations, err := s.Reservations().ListByLot(ctx, lotID)
		if err != nil {
			return err
		}

		limit := stock.Available(lot, reservations)
		if allowLocked {
			limit = stock.Allocatable(lot, reservations)
		}
		if qty > limit {
			return &InsufficientStockError{
				LotID:     lot.ID,
				LotNumber: lot.LotMaster.LotNumber,
				Required:  qty,
				Available: limit,
			}
		}

		lot.ConsumedQty += qty
		if lot.OnHandQty() <= 0 {
			lot.Status = models.LotStatusDepleted
		}
		if err := s.Lots().Save(ctx, lot); err != nil {
			return err
		}
		updated = lot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetLockedQty freezes (or unfreezes) part of a lot for inspection. The new
// lock may not push the invariant negative against confirmed reservations.
func (o *LotOps) SetLockedQty(ctx context.Context, lotID uint, qty float64) (*models.Lot, error) {
	if qty < 0 {
		return nil, &ValidationError{Message: fmt.Sprintf("locked quantity cannot be negative, got %.3f", qty)}
	}

	var updated *models.Lot
	err := o.db.InTx(ctx, func(s Stores) error {
		lot, err := s.Lots().Get(ctx, lotID, LockWait)
		if err != nil {
			return err
		}

		sums, err := s.Reservations().ConfirmedSums(ctx, []uint{lot.ID})
		if err != nil {
			return err
		}
		if lot.OnHandQty()-qty-sums[lot.ID] < 0 {
			return &InsufficientStockError{
				LotID:     lot.ID,
				LotNumber: lot.LotMaster.LotNumber,
				Required:  qty,
				Available: lot.OnHandQty() - sums[lot.ID],
			}
		}

		lot.LockedQty = qty
		if err := s.Lots().Save(ctx, lot); err != nil {
			return err
		}
		updated = lot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Archive soft-removes a lot. Lots with reservation history are never
// physically deleted; this status flip is the only removal path.
func (o *LotOps) Archive(ctx context.Context, lotID uint) error {
	return o.db.InTx(ctx, func(s Stores) error {
		lot, err := s.Lots().Get(ctx, lotID, LockWait)
		if err != nil {
			return err
		}
		lot.Status = models.LotStatusArchived
		return s.Lots().Save(ctx, lot)
	})
}
