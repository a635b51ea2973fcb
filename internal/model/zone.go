package model

import (
	"time"

	"github.com/google/uuid"
)

// Zone is a delivery area. Suppliers only see orders from zones they were
// approved into.
type Zone struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"uniqueIndex;not null"`
	Description *string
	Active      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Supplier zone request statuses
const (
	SupplierZonePending  = "pending"
	SupplierZoneApproved = "approved"
	SupplierZoneRejected = "rejected"
)

type SupplierZone struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SupplierOrgID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_supplier_zone"`
	ZoneID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_supplier_zone"`
	Status          string    `gorm:"type:varchar(20);not null;default:'pending'"`
	ReviewedAt      *time.Time
	RejectionReason *string
	CreatedAt       time.Time

	Zone *Zone `gorm:"foreignKey:ZoneID"`
}
