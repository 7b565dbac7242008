package models

import (
	"time"

	"gorm.io/datatypes"
)

// ReservationStatus defines the reservation lifecycle states
type ReservationStatus string

const (
	ReservationTemporary ReservationStatus = "TEMPORARY" // forecast hold, no lot bound yet
	ReservationActive    ReservationStatus = "ACTIVE"    // soft hold against a specific lot
	ReservationConfirmed ReservationStatus = "CONFIRMED" // hard, ERP-acknowledged commitment
	ReservationReleased  ReservationStatus = "RELEASED"  // terminal
)

// ReservationSource defines the demand origin of a reservation
type ReservationSource string

const (
	SourceOrder    ReservationSource = "order"
	SourceForecast ReservationSource = "forecast"
	SourceManual   ReservationSource = "manual"
)

// Priority ranks demand sources for preemption. Higher wins: an order-backed
// soft hold outlives a forecast-backed one when stock runs short.
func (s ReservationSource) Priority() int {
	switch s {
	case SourceOrder:
		return 3
	case SourceManual:
		return 2
	case SourceForecast:
		return 1
	}
	return 0
}

// Reservation is a claim against a specific lot, or against no lot yet for
// forecast-only holds. Quantity is immutable after creation; a change is
// modeled as release plus re-create so history survives.
type Reservation struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	LotID      *uint             `gorm:"index" json:"lot_id,omitempty"` // nil while TEMPORARY
	SourceType ReservationSource `gorm:"not null;index" json:"source_type"`
	SourceID   uint              `gorm:"not null;index" json:"source_id"` // order line / forecast row id

	ReservedQty float64           `gorm:"not null" json:"reserved_qty"`
	Status      ReservationStatus `gorm:"default:ACTIVE;index" json:"status"`

	// ERP linkage, populated only on confirmation
	AckReference string         `json:"ack_reference,omitempty"`
	AckedAt      *time.Time     `json:"acked_at,omitempty"`
	AckPayload   datatypes.JSON `json:"ack_payload,omitempty"` // raw gateway response, diagnostics only

	CreatedAt   time.Time  `json:"created_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	ReleasedAt  *time.Time `json:"released_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Lot *Lot `gorm:"foreignKey:LotID" json:"lot,omitempty"`
}

// TableName specifies the table name for Reservation model
func (Reservation) TableName() string {
	return "reservations"
}

// IsTerminal reports whether the reservation can never change state again.
func (r *Reservation) IsTerminal() bool {
	return r.Status == ReservationReleased
}
