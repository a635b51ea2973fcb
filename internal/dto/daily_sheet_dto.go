package dto

import (
	"ravito/internal/closure"

	"github.com/shopspring/decimal"
)

type OpenSheetRequest struct {
	// Date defaults to today
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	// OpeningCash defaults to the previous closing cash
	OpeningCash *decimal.Decimal `json:"opening_cash" validate:"omitempty,min=0"`
}

// StockLineRequest updates the counts of one product. InitialStock can only be
// corrected when no previous sheet exists to carry it from.
type StockLineRequest struct {
	InitialStock   *int `json:"initial_stock" validate:"omitempty,min=0"`
	SupplyQuantity *int `json:"supply_quantity" validate:"omitempty,min=0"`
	FinalStock     *int `json:"final_stock" validate:"omitempty,min=0"`
}

type ExpenseRequest struct {
	Label    string          `json:"label" validate:"required,min=2,max=120"`
	Category string          `json:"category" validate:"required,oneof=supplies salaries transport utilities maintenance other"`
	Amount   decimal.Decimal `json:"amount" validate:"required,gt=0"`
}

type PackagingRequest struct {
	FullStart  *int `json:"full_start" validate:"omitempty,min=0"`
	EmptyStart *int `json:"empty_start" validate:"omitempty,min=0"`
	Received   *int `json:"received" validate:"omitempty,min=0"`
	Returned   *int `json:"returned" validate:"omitempty,min=0"`
	FullEnd    *int `json:"full_end" validate:"omitempty,min=0"`
	EmptyEnd   *int `json:"empty_end" validate:"omitempty,min=0"`
}

type CreditRequest struct {
	CreditSales    *decimal.Decimal `json:"credit_sales" validate:"omitempty,min=0"`
	CreditPayments *decimal.Decimal `json:"credit_payments" validate:"omitempty,min=0"`
}

type CloseSheetRequest struct {
	ClosingCash *decimal.Decimal `json:"closing_cash" validate:"omitempty,min=0"`
	Notes       *string          `json:"notes" validate:"omitempty,max=1000"`
	Confirm     bool             `json:"confirm"`
}

type ExpenseResponse struct {
	ID            string          `json:"id"`
	Label         string          `json:"label"`
	Category      string          `json:"category"`
	CategoryLabel string          `json:"category_label"`
	Amount        decimal.Decimal `json:"amount"`
}

type DailySheetResponse struct {
	ID             string            `json:"id"`
	Date           string            `json:"date"` // YYYY-MM-DD
	Status         string            `json:"status"`
	OpeningCash    decimal.Decimal   `json:"opening_cash"`
	CreditSales    decimal.Decimal   `json:"credit_sales"`
	CreditPayments decimal.Decimal   `json:"credit_payments"`
	CreditBalance  decimal.Decimal   `json:"credit_balance"`
	Notes          *string           `json:"notes"`
	ClosedAt       *string           `json:"closed_at"`
	Expenses       []ExpenseResponse `json:"expenses"`
	Summary        closure.Summary   `json:"summary"`
}

// DailySheetListItem is one row of the monthly list.
type DailySheetListItem struct {
	ID             string           `json:"id"`
	Date           string           `json:"date"`
	Status         string           `json:"status"`
	Revenue        decimal.Decimal  `json:"revenue"`
	Expenses       decimal.Decimal  `json:"expenses"`
	CashDifference *decimal.Decimal `json:"cash_difference"`
}

type ClosureCheckResponse struct {
	Closeable bool            `json:"closeable"`
	Missing   []string        `json:"missing"`
	Alerts    []closure.Alert `json:"alerts"`
	Expected  decimal.Decimal `json:"expected_cash"`
}
