package models

import (
	"time"
)

// Partner represents a customer or supplier
type Partner struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"index;not null" json:"name"`
	Street     string    `json:"street"`
	Zip        string    `json:"zip"`
	City       string    `json:"city"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	Vat        string    `json:"vat"` // Tax ID
	IsCustomer bool      `gorm:"default:false;index" json:"is_customer"`
	IsSupplier bool      `gorm:"default:false;index" json:"is_supplier"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	DeliveryPlaces []DeliveryPlace `gorm:"foreignKey:PartnerID" json:"delivery_places,omitempty"`
}

func (Partner) TableName() string { return "partners" }

// DeliveryPlace is a customer's ship-to address. Forecast demand and
// allocation suggestions are scoped per (customer, delivery place, product).
type DeliveryPlace struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PartnerID uint      `gorm:"not null;index" json:"partner_id"`
	Name      string    `gorm:"not null" json:"name"`
	Street    string    `json:"street"`
	Zip       string    `json:"zip"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Partner Partner `gorm:"foreignKey:PartnerID" json:"partner,omitempty"`
}

func (DeliveryPlace) TableName() string { return "delivery_places" }
