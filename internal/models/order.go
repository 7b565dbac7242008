package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OrderStatus defines possible sales order statuses
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"   // Awaiting allocation
	OrderStatusPartial   OrderStatus = "partial"   // Some lines confirmed
	OrderStatusConfirmed OrderStatus = "confirmed" // All lines confirmed
	OrderStatusCancelled OrderStatus = "cancelled" // Cancelled
)

// LineFulfillment defines the fulfillment state of one order line
type LineFulfillment string

const (
	LineUnallocated LineFulfillment = "unallocated" // no reservation confirmed
	LinePartial     LineFulfillment = "partial"     // confirmed < ordered
	LineAllocated   LineFulfillment = "allocated"   // confirmed >= ordered
)

// SalesOrder represents a customer order whose lines drive hard reservations
type SalesOrder struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	OrderNumber string      `gorm:"uniqueIndex;not null" json:"order_number"`
	CustomerID  uint        `gorm:"not null;index" json:"customer_id"`
	Status      OrderStatus `gorm:"default:pending;index" json:"status"`
	Priority    string      `gorm:"default:normal" json:"priority"` // low | normal | high | urgent

	Notes    string         `gorm:"type:text" json:"notes"`
	Metadata datatypes.JSON `json:"metadata"`

	DeliveryDate *time.Time     `json:"delivery_date,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Customer Partner          `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Lines    []SalesOrderLine `gorm:"foreignKey:OrderID" json:"lines,omitempty"`
}

// TableName specifies the table name for SalesOrder model
func (SalesOrder) TableName() string {
	return "sales_orders"
}

// BeforeCreate generates order number before creating
func (o *SalesOrder) BeforeCreate(tx *gorm.DB) error {
	if o.OrderNumber == "" {
		o.OrderNumber = generateOrderNumber("SO")
	}
	return nil
}

// SalesOrderLine is the demand source a confirmed reservation points back to
type SalesOrderLine struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"not null;index" json:"order_id"`
	ProductID   uint            `gorm:"not null;index" json:"product_id"`
	OrderedQty  float64         `gorm:"not null" json:"ordered_qty"`
	Fulfillment LineFulfillment `gorm:"default:unallocated;index" json:"fulfillment"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Order   SalesOrder `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Product Product    `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName specifies the table name for SalesOrderLine model
func (SalesOrderLine) TableName() string {
	return "sales_order_lines"
}

// generateOrderNumber creates a unique order number
func generateOrderNumber(prefix string) string {
	return prefix + time.Now().Format("20060102") + "-" + randomString(4)
}

// randomString generates a random string of given length
func randomString(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	now := time.Now().UnixNano()
	for i := 0; i < length; i++ {
		result[i] = charset[(now+int64(i))%int64(len(charset))]
	}
	return string(result)
}
