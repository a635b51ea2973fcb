package repository

import (
	"context"
	"fmt"
	"time"

	"ravito/internal/dto"
	"ravito/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderScope restricts order listings to what one organization may see.
type OrderScope struct {
	ClientOrgID *uuid.UUID
	// Supplier view: orders it won plus open orders of its approved zones
	SupplierOrgID *uuid.UUID
	ZoneIDs       []uuid.UUID
}

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, o *model.Order) error
	// NextNumber returns CMD-<year>-NNNNNN from the orders_number_seq sequence.
	NextNumber(ctx context.Context, tx *gorm.DB, year int) (string, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	Update(ctx context.Context, tx *gorm.DB, o *model.Order) error
	List(ctx context.Context, scope OrderScope, filter dto.OrderFilter) ([]model.Order, int64, error)

	CreateOffer(ctx context.Context, tx *gorm.DB, of *model.Offer) error
	FindOffer(ctx context.Context, id uuid.UUID) (*model.Offer, error)
	// SettleOffers marks acceptedID accepted and every other offer of the order rejected.
	SettleOffers(ctx context.Context, tx *gorm.DB, orderID, acceptedID uuid.UUID) error

	CreateRating(ctx context.Context, tx *gorm.DB, r *model.Rating) error
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) Create(ctx context.Context, tx *gorm.DB, o *model.Order) error {
	return conn(ctx, r.db, tx).Create(o).Error
}

func (r *orderRepo) NextNumber(ctx context.Context, tx *gorm.DB, year int) (string, error) {
	var num int64
	if err := conn(ctx, r.db, tx).Raw("SELECT nextval('orders_number_seq')").Scan(&num).Error; err != nil {
		return "", err
	}
	return FormatOrderNumber(year, num), nil
}

// FormatOrderNumber renders CMD-2025-000042.
func FormatOrderNumber(year int, seq int64) string {
	return fmt.Sprintf("CMD-%d-%06d", year, seq)
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Offers", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("ClientOrg").Preload("SupplierOrg").Preload("Zone").
		First(&o, "id = ?", id).Error
	return &o, err
}

func (r *orderRepo) Update(ctx context.Context, tx *gorm.DB, o *model.Order) error {
	return conn(ctx, r.db, tx).
		Omit("Items", "Offers", "ClientOrg", "SupplierOrg", "Zone").
		Save(o).Error
}

func (r *orderRepo) List(ctx context.Context, scope OrderScope, filter dto.OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Order{})
	switch {
	case scope.ClientOrgID != nil:
		q = q.Where("client_org_id = ?", *scope.ClientOrgID)
	case scope.SupplierOrgID != nil:
		if len(scope.ZoneIDs) > 0 {
			q = q.Where("(supplier_org_id = ? OR (zone_id IN ? AND status IN ?))",
				*scope.SupplierOrgID, scope.ZoneIDs, []string{"pending", "offers-received"})
		} else {
			q = q.Where("supplier_org_id = ?", *scope.SupplierOrgID)
		}
	}

	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.From != "" {
		if from, err := time.Parse("2006-01-02", filter.From); err == nil {
			q = q.Where("created_at >= ?", from)
		}
	}
	if filter.To != "" {
		if to, err := time.Parse("2006-01-02", filter.To); err == nil {
			q = q.Where("created_at < ?", to.AddDate(0, 0, 1))
		}
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q = q.Preload("Items").Preload("Offers").Preload("ClientOrg").Preload("SupplierOrg").
		Order("created_at DESC").Order("id DESC")
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		q = q.Offset((page - 1) * filter.Limit).Limit(filter.Limit)
	}
	err := q.Find(&orders).Error
	return orders, total, err
}

func (r *orderRepo) CreateOffer(ctx context.Context, tx *gorm.DB, of *model.Offer) error {
	return conn(ctx, r.db, tx).Create(of).Error
}

func (r *orderRepo) FindOffer(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	var of model.Offer
	err := r.db.WithContext(ctx).First(&of, "id = ?", id).Error
	return &of, err
}

func (r *orderRepo) SettleOffers(ctx context.Context, tx *gorm.DB, orderID, acceptedID uuid.UUID) error {
	db := conn(ctx, r.db, tx)
	if err := db.Model(&model.Offer{}).
		Where("order_id = ? AND id <> ?", orderID, acceptedID).
		Update("status", model.OfferRejected).Error; err != nil {
		return err
	}
	return db.Model(&model.Offer{}).Where("id = ?", acceptedID).Update("status", model.OfferAccepted).Error
}

func (r *orderRepo) CreateRating(ctx context.Context, tx *gorm.DB, rt *model.Rating) error {
	return conn(ctx, r.db, tx).Create(rt).Error
}
