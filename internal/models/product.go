package models

import (
	"time"

	"gorm.io/gorm"
)

// Product represents a sellable, lot-tracked article
type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	SKU         string         `gorm:"uniqueIndex;not null" json:"sku"`
	Barcode     string         `gorm:"index" json:"barcode"` // EAN13
	Name        string         `gorm:"not null" json:"name"`
	Unit        string         `gorm:"default:'pcs'" json:"unit"` // pcs, kg, l
	ShelfLifeDays int          `json:"shelf_life_days"`           // 0 = non-perishable
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Lots []Lot `gorm:"foreignKey:ProductID" json:"lots,omitempty"`
}

// TableName specifies the table name for Product model
func (Product) TableName() string {
	return "products"
}
