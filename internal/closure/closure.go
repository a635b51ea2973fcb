// Package closure computes the summary of a daily sheet and performs the
// open → closed transition. It works on fully loaded sheets (stock lines,
// expenses and packaging preloaded) and never touches storage.
package closure

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"ravito/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrAlreadyClosed = errors.New("la fiche journalière est déjà clôturée")

// IncompleteError lists the counts that must be entered before closing.
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	return "clôture impossible, saisies manquantes: " + strings.Join(e.Missing, ", ")
}

// Alert kinds
const (
	AlertPackagingDifference = "packaging_difference"
	AlertLowStock            = "low_stock"
	AlertStockInconsistency  = "stock_inconsistency"
)

// Alert is informative only; alerts never block a closure.
type Alert struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type SaleLine struct {
	LineID       uuid.UUID       `json:"line_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	InitialStock int             `json:"initial_stock"`
	Supply       int             `json:"supply_quantity"`
	FinalStock   *int            `json:"final_stock"`
	Sold         int             `json:"sold_quantity"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type PackagingLine struct {
	ID         uuid.UUID `json:"id"`
	CrateType  string    `json:"crate_type"`
	FullStart  int       `json:"full_start"`
	EmptyStart int       `json:"empty_start"`
	Received   int       `json:"received"`
	Returned   int       `json:"returned"`
	FullEnd    *int      `json:"full_end"`
	EmptyEnd   *int      `json:"empty_end"`
	Difference int       `json:"difference"`
}

type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// Summary is everything the closing screen and the sheet PDF show.
type Summary struct {
	Status         string           `json:"status"`
	OpeningCash    decimal.Decimal  `json:"opening_cash"`
	TotalRevenue   decimal.Decimal  `json:"total_revenue"`
	TotalExpenses  decimal.Decimal  `json:"total_expenses"`
	ExpectedCash   decimal.Decimal  `json:"expected_cash"`
	ClosingCash    *decimal.Decimal `json:"closing_cash"`
	CashDifference *decimal.Decimal `json:"cash_difference"`
	SoldUnits      int              `json:"sold_units"`

	Sales     []SaleLine      `json:"sales"`
	Expenses  []CategoryTotal `json:"expenses_by_category"`
	Packaging []PackagingLine `json:"packaging"`
	Missing   []string        `json:"missing"`
	Alerts    []Alert         `json:"alerts"`
	Closeable bool            `json:"closeable"`
}

// ExpectedCash is opening + revenue - expenses.
func ExpectedCash(opening, revenue, expenses decimal.Decimal) decimal.Decimal {
	return opening.Add(revenue).Sub(expenses)
}

// CreditBalance carries the customer credit over from the previous day.
func CreditBalance(previous, sales, payments decimal.Decimal) decimal.Decimal {
	return previous.Add(sales).Sub(payments)
}

// Missing enumerates the counts still required, stock lines first, in the
// order they are stored.
func Missing(sheet *model.DailySheet) []string {
	missing := make([]string, 0)
	for _, l := range sheet.StockLines {
		if l.FinalStock == nil {
			missing = append(missing, "Stock final manquant: "+l.ProductName)
		}
	}
	for _, p := range sheet.Packaging {
		if p.FullEnd == nil {
			missing = append(missing, "Casiers pleins manquants: "+p.CrateType)
		}
		if p.EmptyEnd == nil {
			missing = append(missing, "Casiers vides manquants: "+p.CrateType)
		}
	}
	return missing
}

// Revenue is the theoretical revenue of the counted stock lines.
func Revenue(lines []model.DailyStockLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Revenue())
	}
	return total
}

func TotalExpenses(expenses []model.DailyExpense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// CashDifference returns the stored difference of a closed sheet, recomputing
// it for legacy rows closed before the value was persisted. It is nil while no
// closing cash is known.
func CashDifference(sheet *model.DailySheet) *decimal.Decimal {
	if sheet.CashDifference != nil {
		d := *sheet.CashDifference
		return &d
	}
	if sheet.ClosingCash == nil {
		return nil
	}
	d := sheet.ClosingCash.Sub(ExpectedCash(sheet.OpeningCash, sheet.TheoreticalRevenue, sheet.TotalExpenses))
	return &d
}

// Summarize computes the closing view. For an open sheet revenue and expenses
// come from the lines; a closed sheet reports its frozen totals.
func Summarize(sheet *model.DailySheet, lowStockThreshold int) Summary {
	s := Summary{
		Status:      sheet.Status,
		OpeningCash: sheet.OpeningCash,
		Sales:       make([]SaleLine, 0, len(sheet.StockLines)),
		Packaging:   make([]PackagingLine, 0, len(sheet.Packaging)),
		Alerts:      make([]Alert, 0),
	}

	for _, l := range sheet.StockLines {
		sold := l.SoldQuantity()
		s.Sales = append(s.Sales, SaleLine{
			LineID:       l.ID,
			ProductID:    l.ProductID,
			ProductName:  l.ProductName,
			InitialStock: l.InitialStock,
			Supply:       l.SupplyQuantity,
			FinalStock:   l.FinalStock,
			Sold:         sold,
			SellingPrice: l.SellingPrice,
			Revenue:      l.Revenue(),
		})
		s.SoldUnits += sold
		if l.FinalStock == nil {
			continue
		}
		if sold < 0 {
			s.Alerts = append(s.Alerts, Alert{
				Kind:    AlertStockInconsistency,
				Message: fmt.Sprintf("Stock final supérieur au disponible: %s", l.ProductName),
			})
		}
		if *l.FinalStock < lowStockThreshold {
			s.Alerts = append(s.Alerts, Alert{
				Kind:    AlertLowStock,
				Message: fmt.Sprintf("Stock bas: %s (%d)", l.ProductName, *l.FinalStock),
			})
		}
	}

	for _, p := range sheet.Packaging {
		diff := p.Difference()
		s.Packaging = append(s.Packaging, PackagingLine{
			ID:         p.ID,
			CrateType:  p.CrateType,
			FullStart:  p.FullStart,
			EmptyStart: p.EmptyStart,
			Received:   p.Received,
			Returned:   p.Returned,
			FullEnd:    p.FullEnd,
			EmptyEnd:   p.EmptyEnd,
			Difference: diff,
		})
		if diff != 0 {
			s.Alerts = append(s.Alerts, Alert{
				Kind:    AlertPackagingDifference,
				Message: fmt.Sprintf("Écart d'emballages %s: %+d", p.CrateType, diff),
			})
		}
	}

	s.Expenses = byCategory(sheet.Expenses)

	if sheet.Status == model.SheetClosed {
		s.TotalRevenue = sheet.TheoreticalRevenue
		s.TotalExpenses = sheet.TotalExpenses
		s.ClosingCash = sheet.ClosingCash
		s.CashDifference = CashDifference(sheet)
		s.Missing = []string{}
	} else {
		s.TotalRevenue = Revenue(sheet.StockLines)
		s.TotalExpenses = TotalExpenses(sheet.Expenses)
		s.Missing = Missing(sheet)
		s.Closeable = len(s.Missing) == 0
	}
	s.ExpectedCash = ExpectedCash(s.OpeningCash, s.TotalRevenue, s.TotalExpenses)
	return s
}

// Close freezes an open sheet with the counted cash. It refuses a sheet that
// is already closed or still has missing counts, and leaves sheet untouched in
// that case.
func Close(sheet *model.DailySheet, closingCash decimal.Decimal, notes *string, by uuid.UUID, now time.Time) error {
	if sheet.Status == model.SheetClosed {
		return ErrAlreadyClosed
	}
	if missing := Missing(sheet); len(missing) > 0 {
		return &IncompleteError{Missing: missing}
	}

	revenue := Revenue(sheet.StockLines)
	expenses := TotalExpenses(sheet.Expenses)
	diff := closingCash.Sub(ExpectedCash(sheet.OpeningCash, revenue, expenses))

	sheet.TheoreticalRevenue = revenue
	sheet.TotalExpenses = expenses
	sheet.ClosingCash = &closingCash
	sheet.CashDifference = &diff
	if notes != nil && strings.TrimSpace(*notes) != "" {
		sheet.Notes = notes
	}
	sheet.Status = model.SheetClosed
	sheet.ClosedAt = &now
	sheet.ClosedBy = &by
	return nil
}

func byCategory(expenses []model.DailyExpense) []CategoryTotal {
	sums := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		sums[e.Category] = sums[e.Category].Add(e.Amount)
	}
	out := make([]CategoryTotal, 0, len(sums))
	for c, a := range sums {
		out = append(out, CategoryTotal{Category: c, Amount: a})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].Category < out[j].Category
	})
	return out
}
