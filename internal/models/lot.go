package models

import (
	"time"

	"gorm.io/gorm"
)

// LotStatus defines possible lot statuses
type LotStatus string

const (
	LotStatusActive   LotStatus = "active"   // Receipted, allocatable
	LotStatusDepleted LotStatus = "depleted" // Fully consumed
	LotStatusExpired  LotStatus = "expired"  // Past expiry date
	LotStatusArchived LotStatus = "archived" // Soft-removed, kept for traceability
)

// LotOrigin defines how a lot entered the warehouse
type LotOrigin string

const (
	LotOriginOrder  LotOrigin = "order"  // Receipted against a purchase order
	LotOriginAdhoc  LotOrigin = "adhoc"  // Receipted without an order
	LotOriginSample LotOrigin = "sample" // Supplier sample, normally not sellable
)

// LotMaster groups receipts that share one business lot number. A supplier
// delivery split across trucks produces multiple Lot rows under one master.
type LotMaster struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LotNumber string    `gorm:"uniqueIndex;not null" json:"lot_number"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Lots    []Lot   `gorm:"foreignKey:LotMasterID" json:"lots,omitempty"`
}

func (LotMaster) TableName() string { return "lot_masters" }

// Lot represents one physically receipted batch of a product at a warehouse.
//
// Quantity invariant, enforced before every commit:
//
//	ReceivedQty - ConsumedQty - LockedQty - confirmed reserved >= 0
//
// ReceivedQty is immutable after receipt; ConsumedQty only grows.
type Lot struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	LotMasterID uint      `gorm:"not null;index" json:"lot_master_id"`
	ProductID   uint      `gorm:"not null;index" json:"product_id"`
	WarehouseID uint      `gorm:"not null;index" json:"warehouse_id"`
	SupplierID  *uint     `gorm:"index" json:"supplier_id,omitempty"`

	ReceivedQty float64 `gorm:"not null" json:"received_qty"`
	ConsumedQty float64 `gorm:"not null;default:0" json:"consumed_qty"`
	LockedQty   float64 `gorm:"not null;default:0" json:"locked_qty"` // administratively frozen (inspection)

	Status       LotStatus  `gorm:"default:active;index" json:"status"`
	Origin       LotOrigin  `gorm:"default:order;index" json:"origin"`
	ExpiryDate   *time.Time `gorm:"index" json:"expiry_date,omitempty"`
	ReceivedDate time.Time  `gorm:"not null;index" json:"received_date"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	LotMaster LotMaster `gorm:"foreignKey:LotMasterID" json:"lot_master,omitempty"`
	Product   Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Warehouse Warehouse `gorm:"foreignKey:WarehouseID" json:"warehouse,omitempty"`
	Supplier  *Partner  `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
}

// TableName specifies the table name for Lot model
func (Lot) TableName() string {
	return "lots"
}

// IsExpired reports whether the lot's expiry date, shifted back by
// safetyDays, lies before asOf. Lots without an expiry date never expire.
func (l *Lot) IsExpired(asOf time.Time, safetyDays int) bool {
	if l.ExpiryDate == nil {
		return false
	}
	return l.ExpiryDate.AddDate(0, 0, -safetyDays).Before(asOf)
}

// OnHandQty is the physical balance: received minus consumed.
func (l *Lot) OnHandQty() float64 {
	return l.ReceivedQty - l.ConsumedQty
}
