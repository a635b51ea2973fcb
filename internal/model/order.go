package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is a client request for crates in a zone. Status follows the
// orderflow transition table; Number is CMD-YYYY-NNNNNN from a sequence.
type Order struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Number          string    `gorm:"uniqueIndex;not null"`
	ClientOrgID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ZoneID          uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedBy       uuid.UUID `gorm:"type:uuid;not null"`
	DeliveryAddress string    `gorm:"not null"`
	Status          string    `gorm:"type:varchar(20);not null;default:'pending';index"`

	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ConsigneTotal decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	// Set when an offer is accepted
	SupplierOrgID   *uuid.UUID       `gorm:"type:uuid;index"`
	AcceptedOfferID *uuid.UUID       `gorm:"type:uuid"`
	AmountHT        *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Commission      decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	Total           decimal.Decimal  `gorm:"type:decimal(12,2);not null"`

	PaidAt             *time.Time
	DeliveredAt        *time.Time
	CancelledAt        *time.Time
	CancellationReason *string
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Items       []OrderItem   `gorm:"foreignKey:OrderID"`
	Offers      []Offer       `gorm:"foreignKey:OrderID"`
	ClientOrg   *Organization `gorm:"foreignKey:ClientOrgID"`
	SupplierOrg *Organization `gorm:"foreignKey:SupplierOrgID"`
	Zone        *Zone         `gorm:"foreignKey:ZoneID"`
}

type OrderItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName   string          `gorm:"not null"`
	Quantity      int             `gorm:"not null"`
	CratePrice    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ConsignePrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	WithConsigne  bool            `gorm:"not null;default:false"`
}

// Offer statuses
const (
	OfferPending  = "pending"
	OfferAccepted = "accepted"
	OfferRejected = "rejected"
)

// Offer is a supplier's quote on an order, excluding commission and consigne.
type Offer struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	SupplierOrgID    uuid.UUID       `gorm:"type:uuid;not null"`
	AmountHT         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	EstimatedMinutes int             `gorm:"not null"`
	Message          *string
	Status           string `gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt        time.Time
}

type Rating struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	ClientOrgID   uuid.UUID `gorm:"type:uuid;not null"`
	SupplierOrgID uuid.UUID `gorm:"type:uuid;not null;index"`
	Score         int       `gorm:"not null"`
	Comment       *string
	CreatedAt     time.Time
}
