package repository

import (
	"context"

	"ravito/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrganizationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, o *model.Organization) error
	SetOwner(ctx context.Context, tx *gorm.DB, orgID, userID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Organization, error)
}

type organizationRepo struct{ db *gorm.DB }

func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepo{db: db}
}

func (r *organizationRepo) Create(ctx context.Context, tx *gorm.DB, o *model.Organization) error {
	return conn(ctx, r.db, tx).Create(o).Error
}

func (r *organizationRepo) SetOwner(ctx context.Context, tx *gorm.DB, orgID, userID uuid.UUID) error {
	return conn(ctx, r.db, tx).Model(&model.Organization{}).Where("id = ?", orgID).Update("owner_id", userID).Error
}

func (r *organizationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	var o model.Organization
	err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error
	return &o, err
}

// ── Sales representatives ─────────────────────────────────────────────────────

type SalesRepRepository interface {
	ListActive(ctx context.Context) ([]model.SalesRepresentative, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.SalesRepresentative, error)
	Create(ctx context.Context, rep *model.SalesRepresentative) error
}

type salesRepRepo struct{ db *gorm.DB }

func NewSalesRepRepository(db *gorm.DB) SalesRepRepository { return &salesRepRepo{db: db} }

func (r *salesRepRepo) ListActive(ctx context.Context) ([]model.SalesRepresentative, error) {
	var reps []model.SalesRepresentative
	err := r.db.WithContext(ctx).Where("active = true").Order("name ASC").Find(&reps).Error
	return reps, err
}

func (r *salesRepRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.SalesRepresentative, error) {
	var rep model.SalesRepresentative
	err := r.db.WithContext(ctx).First(&rep, "id = ?", id).Error
	return &rep, err
}

func (r *salesRepRepo) Create(ctx context.Context, rep *model.SalesRepresentative) error {
	return r.db.WithContext(ctx).Create(rep).Error
}
