package store

import (
	"context"
	"errors"

	"github.com/lotwise-io/lotwisego/internal/allocation"
	"github.com/lotwise-io/lotwisego/internal/models"
	"gorm.io/gorm"
)

type orderLineStore struct {
	db *gorm.DB
}

// RecomputeFulfillment re-derives an order line's fulfillment state from its
// confirmed reservations, then rolls the parent order's status up from its
// lines.
func (s *orderLineStore) RecomputeFulfillment(ctx context.Context, lineID uint) error {
	db := s.db.WithContext(ctx)

	var line models.SalesOrderLine
	if err := db.First(&line, lineID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &allocation.NotFoundError{Entity: "order line", ID: lineID}
		}
		return err
	}

	var confirmed float64
	err := db.Model(&models.Reservation{}).
		Select("COALESCE(SUM(reserved_qty), 0)").
		Where("source_type = ? AND source_id = ? AND status = ?",
			models.SourceOrder, lineID, models.ReservationConfirmed).
		Scan(&confirmed).Error
	if err != nil {
		return err
	}

	switch {
	case confirmed <= 0:
		line.Fulfillment = models.LineUnallocated
	case confirmed < line.OrderedQty:
		line.Fulfillment = models.LinePartial
	default:
		line.Fulfillment = models.LineAllocated
	}
	if err := db.Save(&line).Error; err != nil {
		return err
	}

	return s.rollUpOrder(ctx, line.OrderID)
}

// rollUpOrder derives the order status from its lines' fulfillment states.
func (s *orderLineStore) rollUpOrder(ctx context.Context, orderID uint) error {
	db := s.db.WithContext(ctx)

	var order models.SalesOrder
	if err := db.First(&order, orderID).Error; err != nil {
		return err
	}
	if order.Status == models.OrderStatusCancelled {
		return nil
	}

	var lines []models.SalesOrderLine
	if err := db.Where("order_id = ?", orderID).Find(&lines).Error; err != nil {
		return err
	}

	allocated, any := 0, false
	for _, l := range lines {
		if l.Fulfillment == models.LineAllocated {
			allocated++
		}
		if l.Fulfillment != models.LineUnallocated {
			any = true
		}
	}

	status := models.OrderStatusPending
	switch {
	case len(lines) > 0 && allocated == len(lines):
		status = models.OrderStatusConfirmed
	case any:
		status = models.OrderStatusPartial
	}

	if status == order.Status {
		return nil
	}
	order.Status = status
	return db.Save(&order).Error
}
