package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry sold by the crate. ConsignePrice is the refundable
// deposit for the crate and its bottles; zero means the packaging is not
// returnable.
type Product struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Reference     string          `gorm:"uniqueIndex;not null"`
	Name          string          `gorm:"index;not null"`
	Brand         string          `gorm:"not null"`
	Category      string          `gorm:"not null"`
	CrateType     string          `gorm:"type:varchar(20);not null"`
	CratePrice    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ConsignePrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Active        bool            `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Consignable reports whether the product's crate is returned for a deposit.
func (p Product) Consignable() bool { return p.ConsignePrice.IsPositive() }

// OrganizationProduct is the price a client organization sells a product at.
type OrganizationProduct struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_org_product"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_org_product"`
	SellingPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	UpdatedAt      time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}
