package models

import (
	"time"

	"gorm.io/datatypes"
)

// ForecastDemand is one expected-sales row: a customer is expected to take
// Quantity of a product at a delivery place within a period.
type ForecastDemand struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CustomerID      uint      `gorm:"not null;index" json:"customer_id"`
	DeliveryPlaceID uint      `gorm:"not null;index" json:"delivery_place_id"`
	ProductID       uint      `gorm:"not null;index" json:"product_id"`
	Period          string    `gorm:"index" json:"period"` // e.g. "2026-09"
	DemandDate      time.Time `gorm:"not null;index" json:"demand_date"`
	Quantity        float64   `gorm:"not null" json:"quantity"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Customer      Partner       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	DeliveryPlace DeliveryPlace `gorm:"foreignKey:DeliveryPlaceID" json:"delivery_place,omitempty"`
	Product       Product       `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (ForecastDemand) TableName() string { return "forecast_demands" }

// AllocationSuggestion is an ephemeral soft allocation tying one forecast
// demand row to a candidate lot. Not authoritative: the whole scope is
// deleted and regenerated on every run.
type AllocationSuggestion struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	RunID           string    `gorm:"type:uuid;index" json:"run_id"`
	DemandID        uint      `gorm:"not null;index" json:"demand_id"`
	CustomerID      uint      `gorm:"not null;index" json:"customer_id"`
	DeliveryPlaceID uint      `gorm:"not null;index" json:"delivery_place_id"`
	ProductID       uint      `gorm:"not null;index" json:"product_id"`
	Period          string    `gorm:"index" json:"period"`
	LotID           uint      `gorm:"not null;index" json:"lot_id"`
	Quantity        float64   `gorm:"not null" json:"quantity"`
	CreatedAt       time.Time `json:"created_at"`

	Demand ForecastDemand `gorm:"foreignKey:DemandID" json:"demand,omitempty"`
	Lot    Lot            `gorm:"foreignKey:LotID" json:"lot,omitempty"`
}

func (AllocationSuggestion) TableName() string { return "allocation_suggestions" }

// SuggestionRun records one regeneration pass for audit: which scope ran,
// when, and the aggregated totals as JSON.
type SuggestionRun struct {
	ID              string         `gorm:"primaryKey;type:uuid" json:"id"`
	CustomerID      uint           `gorm:"index" json:"customer_id"`
	DeliveryPlaceID uint           `gorm:"index" json:"delivery_place_id"`
	ProductID       uint           `gorm:"index" json:"product_id"`
	Period          string         `json:"period"`
	Summary         datatypes.JSON `json:"summary"`
	CreatedAt       time.Time      `json:"created_at"`
}

func (SuggestionRun) TableName() string { return "suggestion_runs" }
