package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles
const (
	RoleAdmin    = "admin"
	RoleClient   = "client"
	RoleSupplier = "supplier"
)

// Account statuses. Only approved users can log in.
const (
	UserPending   = "pending"
	UserApproved  = "approved"
	UserRejected  = "rejected"
	UserSuspended = "suspended"
)

type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email          string    `gorm:"uniqueIndex;not null"`
	Phone          string    `gorm:"type:varchar(10);not null"`
	FullName       string    `gorm:"not null"`
	PasswordHash   string    `gorm:"not null"`
	Role           string    `gorm:"type:varchar(20);not null"`
	Status         string    `gorm:"type:varchar(20);not null;default:'pending';index"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index"`
	// SalesRepresentativeID is the rep who brought the account in, if any
	SalesRepresentativeID *uuid.UUID `gorm:"type:uuid"`
	RejectionReason       *string
	ApprovedAt            *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time

	Organization *Organization `gorm:"foreignKey:OrganizationID"`
}

// SalesRepresentative is a field agent clients can name when registering.
type SalesRepresentative struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string     `gorm:"not null"`
	Phone     *string    `gorm:"type:varchar(10)"`
	ZoneID    *uuid.UUID `gorm:"type:uuid"`
	Active    bool       `gorm:"not null;default:true"`
	CreatedAt time.Time
}
