package repository

import (
	"context"

	"ravito/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	ListActive(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error

	UpsertOrganizationPrice(ctx context.Context, op *model.OrganizationProduct) error
	// ListOrganizationProducts returns an organization's priced products with
	// the Product preloaded, ordered by product name.
	ListOrganizationProducts(ctx context.Context, orgID uuid.UUID) ([]model.OrganizationProduct, error)
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) ListActive(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Where("active = true").Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepo) UpsertOrganizationPrice(ctx context.Context, op *model.OrganizationProduct) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "organization_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"selling_price", "updated_at"}),
	}).Omit("Product").Create(op).Error
}

func (r *productRepo) ListOrganizationProducts(ctx context.Context, orgID uuid.UUID) ([]model.OrganizationProduct, error) {
	var out []model.OrganizationProduct
	err := r.db.WithContext(ctx).
		Joins("Product").
		Where("organization_products.organization_id = ?", orgID).
		Order(`"Product"."name" ASC`).
		Find(&out).Error
	return out, err
}
