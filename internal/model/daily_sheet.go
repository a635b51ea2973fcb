package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sheet statuses. A sheet goes from open to closed exactly once.
const (
	SheetOpen   = "open"
	SheetClosed = "closed"
)

// DailySheet is one business day of one organization. Financial fields are
// frozen once Status is closed.
type DailySheet struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sheet_org_date"`
	SheetDate      time.Time `gorm:"type:date;not null;uniqueIndex:idx_sheet_org_date"`
	Status         string    `gorm:"type:varchar(10);not null;default:'open';index"`

	OpeningCash        decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	TheoreticalRevenue decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	TotalExpenses      decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	ClosingCash        *decimal.Decimal `gorm:"type:decimal(12,2)"`
	// CashDifference = ClosingCash - (OpeningCash + TheoreticalRevenue - TotalExpenses).
	// Rows closed before the column existed have it NULL.
	CashDifference *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Notes          *string

	CreditSales    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreditPayments decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreditBalance  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	ClosedAt *time.Time
	ClosedBy *uuid.UUID `gorm:"type:uuid"`

	// Closure report bookkeeping, driven by the closure_report worker and the retry cron
	ReportPath      *string
	ReportAttempts  int `gorm:"not null;default:0"`
	NextReportAt    *time.Time
	LastReportError *string

	CreatedAt time.Time
	UpdatedAt time.Time

	StockLines []DailyStockLine `gorm:"foreignKey:SheetID"`
	Expenses   []DailyExpense   `gorm:"foreignKey:SheetID"`
	Packaging  []DailyPackaging `gorm:"foreignKey:SheetID"`
}

// DailyStockLine tracks one product over the day. SellingPrice is copied from
// the organization's price when the sheet is opened.
type DailyStockLine struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SheetID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_sheet_product"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_sheet_product"`
	ProductName    string    `gorm:"not null"`
	InitialStock   int       `gorm:"not null;default:0"`
	SupplyQuantity int       `gorm:"not null;default:0"`
	FinalStock     *int
	SellingPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
}

// SoldQuantity is initial + supply - final, 0 while the final count is missing.
func (l DailyStockLine) SoldQuantity() int {
	if l.FinalStock == nil {
		return 0
	}
	return l.InitialStock + l.SupplyQuantity - *l.FinalStock
}

func (l DailyStockLine) Revenue() decimal.Decimal {
	return l.SellingPrice.Mul(decimal.NewFromInt(int64(l.SoldQuantity())))
}

// Expense categories
const (
	ExpenseSupplies    = "supplies"
	ExpenseSalaries    = "salaries"
	ExpenseTransport   = "transport"
	ExpenseUtilities   = "utilities"
	ExpenseMaintenance = "maintenance"
	ExpenseOther       = "other"
)

var expenseCategoryLabels = map[string]string{
	ExpenseSupplies:    "Approvisionnement",
	ExpenseSalaries:    "Salaires",
	ExpenseTransport:   "Transport",
	ExpenseUtilities:   "Eau et électricité",
	ExpenseMaintenance: "Entretien",
	ExpenseOther:       "Autres",
}

// ExpenseCategoryLabel returns the French label of a category.
func ExpenseCategoryLabel(category string) string {
	if l, ok := expenseCategoryLabels[category]; ok {
		return l
	}
	return category
}

// ValidExpenseCategory reports whether category is one of the Expense* values.
func ValidExpenseCategory(category string) bool {
	_, ok := expenseCategoryLabels[category]
	return ok
}

type DailyExpense struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SheetID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Label     string          `gorm:"not null"`
	Category  string          `gorm:"type:varchar(20);not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time
}

// DailyPackaging counts returnable crates of one type over the day.
type DailyPackaging struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SheetID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_packaging_sheet_crate"`
	CrateType  string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_packaging_sheet_crate"`
	FullStart  int       `gorm:"not null;default:0"`
	EmptyStart int       `gorm:"not null;default:0"`
	Received   int       `gorm:"not null;default:0"`
	Returned   int       `gorm:"not null;default:0"`
	FullEnd    *int
	EmptyEnd   *int
}

// Difference is (full end + empty end) - (full start + empty start + received - returned).
// It is 0 while an end count is missing.
func (p DailyPackaging) Difference() int {
	if p.FullEnd == nil || p.EmptyEnd == nil {
		return 0
	}
	expected := p.FullStart + p.EmptyStart + p.Received - p.Returned
	return *p.FullEnd + *p.EmptyEnd - expected
}
