package repository

import (
	"context"
	"time"

	"ravito/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	List(ctx context.Context, status string) ([]model.User, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, reason *string) error
	// FindOwnerEmail returns the e-mail of the organization's owner, "" if none.
	FindOwnerEmail(ctx context.Context, orgID uuid.UUID) (string, error)
}

type userRepo struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepo{db: db} }

func (r *userRepo) Create(ctx context.Context, tx *gorm.DB, u *model.User) error {
	return conn(ctx, r.db, tx).Create(u).Error
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).Preload("Organization").Where("LOWER(email) = LOWER(?)", email).First(&u).Error
	return &u, err
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).Preload("Organization").First(&u, "id = ?", id).Error
	return &u, err
}

func (r *userRepo) List(ctx context.Context, status string) ([]model.User, error) {
	var users []model.User
	q := r.db.WithContext(ctx).Preload("Organization").Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&users).Error
	return users, err
}

func (r *userRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, reason *string) error {
	updates := map[string]interface{}{
		"status":           status,
		"rejection_reason": reason,
	}
	if status == model.UserApproved {
		updates["approved_at"] = time.Now()
	}
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepo) FindOwnerEmail(ctx context.Context, orgID uuid.UUID) (string, error) {
	var email string
	err := r.db.WithContext(ctx).Raw(
		`SELECT u.email FROM users u JOIN organizations o ON o.owner_id = u.id WHERE o.id = ?`, orgID,
	).Scan(&email).Error
	return email, err
}
