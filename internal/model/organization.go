package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	OrgTypeClient   = "client"
	OrgTypeSupplier = "supplier"
	OrgTypeAdmin    = "admin"
)

// Organization is a bar/maquis (client), a depot (supplier) or the platform
// itself (admin). Every user belongs to exactly one.
type Organization struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string     `gorm:"not null"`
	Type      string     `gorm:"type:varchar(20);not null;index"`
	OwnerID   *uuid.UUID `gorm:"type:uuid"`
	Phone     *string
	Address   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
