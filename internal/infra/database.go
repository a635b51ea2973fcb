package infra

import (
	"fmt"

	"ravito/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the GORM connection, migrates every model and applies the
// SQL patches AutoMigrate cannot express.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Models lists every persisted type in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.Organization{},
		&model.SalesRepresentative{},
		&model.User{},
		&model.Zone{},
		&model.SupplierZone{},
		&model.Product{},
		&model.OrganizationProduct{},
		&model.Order{},
		&model.OrderItem{},
		&model.Offer{},
		&model.Rating{},
		&model.DailySheet{},
		&model.DailyStockLine{},
		&model.DailyExpense{},
		&model.DailyPackaging{},
	}
}

// RunMigrations is used by NewDatabase and by the integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot handle.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"orders number sequence",
			`CREATE SEQUENCE IF NOT EXISTS orders_number_seq START 1`},
		// retry cron query: closed sheets with no stored report
		{"pending report index", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_daily_sheets_pending_report') THEN
    CREATE INDEX idx_daily_sheets_pending_report
        ON daily_sheets (next_report_at)
        WHERE status = 'closed' AND report_path IS NULL;
  END IF;
END $$`},
		{"expense amount check", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_daily_expenses_amount_positive') THEN
    ALTER TABLE daily_expenses ADD CONSTRAINT chk_daily_expenses_amount_positive CHECK (amount > 0);
  END IF;
END $$`},
		{"rating score check", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_ratings_score_range') THEN
    ALTER TABLE ratings ADD CONSTRAINT chk_ratings_score_range CHECK (score BETWEEN 1 AND 5);
  END IF;
END $$`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
