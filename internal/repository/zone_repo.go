package repository

import (
	"context"

	"ravito/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ZoneRepository interface {
	List(ctx context.Context, activeOnly bool) ([]model.Zone, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Zone, error)
	Create(ctx context.Context, z *model.Zone) error
	Update(ctx context.Context, z *model.Zone) error
	Delete(ctx context.Context, id uuid.UUID) error
	// CountOpenOrders counts orders of the zone that are not delivered or cancelled.
	CountOpenOrders(ctx context.Context, zoneID uuid.UUID) (int64, error)

	CreateSupplierZone(ctx context.Context, tx *gorm.DB, sz *model.SupplierZone) error
	FindSupplierZone(ctx context.Context, id uuid.UUID) (*model.SupplierZone, error)
	FindSupplierZoneByPair(ctx context.Context, supplierOrgID, zoneID uuid.UUID) (*model.SupplierZone, error)
	ListSupplierZones(ctx context.Context, supplierOrgID uuid.UUID) ([]model.SupplierZone, error)
	ListSupplierZoneRequests(ctx context.Context, status string) ([]model.SupplierZone, error)
	UpdateSupplierZone(ctx context.Context, sz *model.SupplierZone) error
	// ApprovedZoneIDs lists the zones a supplier may receive orders from.
	ApprovedZoneIDs(ctx context.Context, supplierOrgID uuid.UUID) ([]uuid.UUID, error)
}

type zoneRepo struct{ db *gorm.DB }

func NewZoneRepository(db *gorm.DB) ZoneRepository { return &zoneRepo{db: db} }

func (r *zoneRepo) List(ctx context.Context, activeOnly bool) ([]model.Zone, error) {
	var zones []model.Zone
	q := r.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		q = q.Where("active = true")
	}
	err := q.Find(&zones).Error
	return zones, err
}

func (r *zoneRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Zone, error) {
	var z model.Zone
	err := r.db.WithContext(ctx).First(&z, "id = ?", id).Error
	return &z, err
}

func (r *zoneRepo) Create(ctx context.Context, z *model.Zone) error {
	return r.db.WithContext(ctx).Create(z).Error
}

func (r *zoneRepo) Update(ctx context.Context, z *model.Zone) error {
	return r.db.WithContext(ctx).Save(z).Error
}

// Delete removes the zone together with its supplier registrations.
func (r *zoneRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("zone_id = ?", id).Delete(&model.SupplierZone{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Zone{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *zoneRepo) CountOpenOrders(ctx context.Context, zoneID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("zone_id = ? AND status NOT IN ?", zoneID, []string{"delivered", "cancelled"}).
		Count(&n).Error
	return n, err
}

func (r *zoneRepo) CreateSupplierZone(ctx context.Context, tx *gorm.DB, sz *model.SupplierZone) error {
	return conn(ctx, r.db, tx).Create(sz).Error
}

func (r *zoneRepo) FindSupplierZone(ctx context.Context, id uuid.UUID) (*model.SupplierZone, error) {
	var sz model.SupplierZone
	err := r.db.WithContext(ctx).Preload("Zone").First(&sz, "id = ?", id).Error
	return &sz, err
}

func (r *zoneRepo) FindSupplierZoneByPair(ctx context.Context, supplierOrgID, zoneID uuid.UUID) (*model.SupplierZone, error) {
	var sz model.SupplierZone
	err := r.db.WithContext(ctx).
		Where("supplier_org_id = ? AND zone_id = ?", supplierOrgID, zoneID).
		First(&sz).Error
	return &sz, err
}

func (r *zoneRepo) ListSupplierZones(ctx context.Context, supplierOrgID uuid.UUID) ([]model.SupplierZone, error) {
	var out []model.SupplierZone
	err := r.db.WithContext(ctx).Preload("Zone").
		Where("supplier_org_id = ?", supplierOrgID).
		Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *zoneRepo) ListSupplierZoneRequests(ctx context.Context, status string) ([]model.SupplierZone, error) {
	var out []model.SupplierZone
	q := r.db.WithContext(ctx).Preload("Zone").Order("created_at ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *zoneRepo) UpdateSupplierZone(ctx context.Context, sz *model.SupplierZone) error {
	return r.db.WithContext(ctx).Omit("Zone").Save(sz).Error
}

func (r *zoneRepo) ApprovedZoneIDs(ctx context.Context, supplierOrgID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.SupplierZone{}).
		Where("supplier_org_id = ? AND status = ?", supplierOrgID, model.SupplierZoneApproved).
		Pluck("zone_id", &ids).Error
	return ids, err
}
