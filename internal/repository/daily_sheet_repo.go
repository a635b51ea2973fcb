package repository

import (
	"context"
	"errors"
	"time"

	"ravito/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSheetNotOpen is returned by the entry writes when the sheet was closed
// before the write landed.
var ErrSheetNotOpen = errors.New("daily sheet is not open")

type DailySheetRepository interface {
	Create(ctx context.Context, tx *gorm.DB, s *model.DailySheet) error
	// FindByID loads the sheet with stock lines, expenses and packaging.
	FindByID(ctx context.Context, id uuid.UUID) (*model.DailySheet, error)
	FindByDate(ctx context.Context, orgID uuid.UUID, date time.Time) (*model.DailySheet, error)
	// FindPreviousClosed returns the latest closed sheet strictly before date.
	FindPreviousClosed(ctx context.Context, orgID uuid.UUID, before time.Time) (*model.DailySheet, error)
	// ListRange returns the sheets in [from, to) ordered by date, without children.
	ListRange(ctx context.Context, orgID uuid.UUID, from, to time.Time, status string) ([]model.DailySheet, error)
	// ListClosedWithLines is ListRange for closed sheets with stock lines preloaded.
	ListClosedWithLines(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]model.DailySheet, error)
	// UpdateCredit writes the credit columns of an open sheet and reports
	// false when the sheet is closed.
	UpdateCredit(ctx context.Context, s *model.DailySheet) (bool, error)
	// CloseIfOpen persists the closure fields only if the row is still open.
	// It reports false when another request closed the sheet first.
	CloseIfOpen(ctx context.Context, s *model.DailySheet) (bool, error)

	// The entry writes below lock the sheet row and fail with ErrSheetNotOpen
	// once it is closed.
	FindStockLine(ctx context.Context, sheetID, lineID uuid.UUID) (*model.DailyStockLine, error)
	UpdateStockLine(ctx context.Context, l *model.DailyStockLine) error
	CreateExpense(ctx context.Context, e *model.DailyExpense) error
	DeleteExpense(ctx context.Context, sheetID, expenseID uuid.UUID) error
	FindPackaging(ctx context.Context, sheetID, packagingID uuid.UUID) (*model.DailyPackaging, error)
	UpdatePackaging(ctx context.Context, p *model.DailyPackaging) error

	// ListPendingReports returns closed sheets whose report is not stored yet and is due.
	ListPendingReports(ctx context.Context, now time.Time, maxAttempts, limit int) ([]model.DailySheet, error)
	RecordReport(ctx context.Context, sheetID uuid.UUID, path string) error
	// DeferReport pushes the next retry time without counting an attempt.
	DeferReport(ctx context.Context, sheetID uuid.UUID, next time.Time) error
	RecordReportFailure(ctx context.Context, sheetID uuid.UUID, reason string, next time.Time) error
}

type dailySheetRepo struct{ db *gorm.DB }

func NewDailySheetRepository(db *gorm.DB) DailySheetRepository { return &dailySheetRepo{db: db} }

// Create inserts the sheet and its stock lines and packaging rows.
func (r *dailySheetRepo) Create(ctx context.Context, tx *gorm.DB, s *model.DailySheet) error {
	return conn(ctx, r.db, tx).Create(s).Error
}

func (r *dailySheetRepo) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("StockLines", func(db *gorm.DB) *gorm.DB { return db.Order("product_name ASC") }).
		Preload("Expenses", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Packaging", func(db *gorm.DB) *gorm.DB { return db.Order("crate_type ASC") })
}

func (r *dailySheetRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.DailySheet, error) {
	var s model.DailySheet
	err := r.preloaded(ctx).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *dailySheetRepo) FindByDate(ctx context.Context, orgID uuid.UUID, date time.Time) (*model.DailySheet, error) {
	var s model.DailySheet
	err := r.preloaded(ctx).
		Where("organization_id = ? AND sheet_date = ?", orgID, date.Format("2006-01-02")).
		First(&s).Error
	return &s, err
}

func (r *dailySheetRepo) FindPreviousClosed(ctx context.Context, orgID uuid.UUID, before time.Time) (*model.DailySheet, error) {
	var s model.DailySheet
	err := r.preloaded(ctx).
		Where("organization_id = ? AND status = ? AND sheet_date < ?", orgID, model.SheetClosed, before.Format("2006-01-02")).
		Order("sheet_date DESC").
		First(&s).Error
	return &s, err
}

func (r *dailySheetRepo) ListRange(ctx context.Context, orgID uuid.UUID, from, to time.Time, status string) ([]model.DailySheet, error) {
	var sheets []model.DailySheet
	q := r.db.WithContext(ctx).
		Where("organization_id = ? AND sheet_date >= ? AND sheet_date < ?",
			orgID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("sheet_date ASC").Find(&sheets).Error
	return sheets, err
}

func (r *dailySheetRepo) ListClosedWithLines(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]model.DailySheet, error) {
	var sheets []model.DailySheet
	err := r.db.WithContext(ctx).
		Preload("StockLines").
		Preload("Expenses").
		Where("organization_id = ? AND status = ? AND sheet_date >= ? AND sheet_date < ?",
			orgID, model.SheetClosed, from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("sheet_date ASC").
		Find(&sheets).Error
	return sheets, err
}

func (r *dailySheetRepo) UpdateCredit(ctx context.Context, s *model.DailySheet) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.DailySheet{}).
		Where("id = ? AND status = ?", s.ID, model.SheetOpen).
		Updates(map[string]interface{}{
			"credit_sales":    s.CreditSales,
			"credit_payments": s.CreditPayments,
			"credit_balance":  s.CreditBalance,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// whileOpen runs fn in a transaction holding the sheet row lock, so a
// concurrent close waits for it or is seen by it.
func (r *dailySheetRepo) whileOpen(ctx context.Context, sheetID uuid.UUID, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row model.DailySheet
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "status").Where("id = ?", sheetID).First(&row).Error
		if err != nil {
			return err
		}
		if row.Status != model.SheetOpen {
			return ErrSheetNotOpen
		}
		return fn(tx)
	})
}

func (r *dailySheetRepo) CloseIfOpen(ctx context.Context, s *model.DailySheet) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.DailySheet{}).
		Where("id = ? AND status = ?", s.ID, model.SheetOpen).
		Updates(map[string]interface{}{
			"status":              model.SheetClosed,
			"theoretical_revenue": s.TheoreticalRevenue,
			"total_expenses":      s.TotalExpenses,
			"closing_cash":        s.ClosingCash,
			"cash_difference":     s.CashDifference,
			"notes":               s.Notes,
			"closed_at":           s.ClosedAt,
			"closed_by":           s.ClosedBy,
			"next_report_at":      s.NextReportAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *dailySheetRepo) FindStockLine(ctx context.Context, sheetID, lineID uuid.UUID) (*model.DailyStockLine, error) {
	var l model.DailyStockLine
	err := r.db.WithContext(ctx).Where("sheet_id = ? AND id = ?", sheetID, lineID).First(&l).Error
	return &l, err
}

func (r *dailySheetRepo) UpdateStockLine(ctx context.Context, l *model.DailyStockLine) error {
	return r.whileOpen(ctx, l.SheetID, func(tx *gorm.DB) error { return tx.Save(l).Error })
}

func (r *dailySheetRepo) CreateExpense(ctx context.Context, e *model.DailyExpense) error {
	return r.whileOpen(ctx, e.SheetID, func(tx *gorm.DB) error { return tx.Create(e).Error })
}

func (r *dailySheetRepo) DeleteExpense(ctx context.Context, sheetID, expenseID uuid.UUID) error {
	return r.whileOpen(ctx, sheetID, func(tx *gorm.DB) error {
		res := tx.Where("sheet_id = ? AND id = ?", sheetID, expenseID).Delete(&model.DailyExpense{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *dailySheetRepo) FindPackaging(ctx context.Context, sheetID, packagingID uuid.UUID) (*model.DailyPackaging, error) {
	var p model.DailyPackaging
	err := r.db.WithContext(ctx).Where("sheet_id = ? AND id = ?", sheetID, packagingID).First(&p).Error
	return &p, err
}

func (r *dailySheetRepo) UpdatePackaging(ctx context.Context, p *model.DailyPackaging) error {
	return r.whileOpen(ctx, p.SheetID, func(tx *gorm.DB) error { return tx.Save(p).Error })
}

func (r *dailySheetRepo) ListPendingReports(ctx context.Context, now time.Time, maxAttempts, limit int) ([]model.DailySheet, error) {
	var sheets []model.DailySheet
	err := r.db.WithContext(ctx).
		Where("status = ? AND report_path IS NULL AND report_attempts < ? AND (next_report_at IS NULL OR next_report_at <= ?)",
			model.SheetClosed, maxAttempts, now).
		Order("closed_at ASC").
		Limit(limit).
		Find(&sheets).Error
	return sheets, err
}

func (r *dailySheetRepo) RecordReport(ctx context.Context, sheetID uuid.UUID, path string) error {
	return r.db.WithContext(ctx).Model(&model.DailySheet{}).Where("id = ?", sheetID).
		Updates(map[string]interface{}{
			"report_path":       path,
			"last_report_error": nil,
			"next_report_at":    nil,
		}).Error
}

func (r *dailySheetRepo) DeferReport(ctx context.Context, sheetID uuid.UUID, next time.Time) error {
	return r.db.WithContext(ctx).Model(&model.DailySheet{}).Where("id = ?", sheetID).
		Update("next_report_at", next).Error
}

func (r *dailySheetRepo) RecordReportFailure(ctx context.Context, sheetID uuid.UUID, reason string, next time.Time) error {
	return r.db.WithContext(ctx).Model(&model.DailySheet{}).Where("id = ?", sheetID).
		Updates(map[string]interface{}{
			"report_attempts":   gorm.Expr("report_attempts + 1"),
			"last_report_error": reason,
			"next_report_at":    next,
		}).Error
}
