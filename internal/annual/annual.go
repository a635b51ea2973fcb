// Package annual rolls closed daily sheets up into yearly KPIs, monthly rows,
// expenses by category and best-selling products. Nothing here is persisted;
// reports are recomputed on every request.
package annual

import (
	"sort"

	"ravito/internal/activity"
	"ravito/internal/closure"
	"ravito/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TopProductsLimit is the number of products kept in the ranking.
const TopProductsLimit = 15

var hundred = decimal.NewFromInt(100)

type MonthRef struct {
	Month   int             `json:"month"`
	Name    string          `json:"name"`
	Revenue decimal.Decimal `json:"revenue"`
}

type KPIs struct {
	Year                int             `json:"year"`
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	TotalExpenses       decimal.Decimal `json:"total_expenses"`
	TotalCashDifference decimal.Decimal `json:"total_cash_difference"`
	Margin              decimal.Decimal `json:"margin"`
	MarginRate          decimal.Decimal `json:"margin_rate"`
	DaysWorked          int             `json:"days_worked"`
	DaysInYear          int             `json:"days_in_year"`
	CompletionRate      decimal.Decimal `json:"completion_rate"`
	MonthsWithData      int             `json:"months_with_data"`
	AvgMonthlyRevenue   decimal.Decimal `json:"avg_monthly_revenue"`
	AvgMonthlyExpenses  decimal.Decimal `json:"avg_monthly_expenses"`
	AvgDailyRevenue     decimal.Decimal `json:"avg_daily_revenue"`
	BestMonth           *MonthRef       `json:"best_month"`
	WorstMonth          *MonthRef       `json:"worst_month"`
	PositiveMonths      int             `json:"positive_months"`
	NegativeMonths      int             `json:"negative_months"`
}

type MonthlyData struct {
	Month          int             `json:"month"`
	Name           string          `json:"name"`
	Revenue        decimal.Decimal `json:"revenue"`
	Expenses       decimal.Decimal `json:"expenses"`
	Margin         decimal.Decimal `json:"margin"`
	CashDifference decimal.Decimal `json:"cash_difference"`
	DaysWorked     int             `json:"days_worked"`
}

type CategoryShare struct {
	Category string          `json:"category"`
	Label    string          `json:"label"`
	Amount   decimal.Decimal `json:"amount"`
	Share    decimal.Decimal `json:"share"`
}

type ProductRevenue struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// Evolution compares a year with the previous one, in percent.
type Evolution struct {
	PreviousYear int             `json:"previous_year"`
	Revenue      decimal.Decimal `json:"revenue"`
	Expenses     decimal.Decimal `json:"expenses"`
	Margin       decimal.Decimal `json:"margin"`
}

// Report bundles every view of the annual screen and exports.
type Report struct {
	Organization string           `json:"organization"`
	KPIs         KPIs             `json:"kpis"`
	Monthly      []MonthlyData    `json:"monthly"`
	Expenses     []CategoryShare  `json:"expenses_by_category"`
	TopProducts  []ProductRevenue `json:"top_products"`
	Evolution    *Evolution       `json:"evolution,omitempty"`
}

// Monthly returns twelve rows, January first, summing the given sheets by the
// month of their date. Months without sheets are zero rows.
func Monthly(sheets []model.DailySheet) []MonthlyData {
	rows := make([]MonthlyData, 12)
	for i := range rows {
		rows[i] = MonthlyData{
			Month:          i + 1,
			Name:           activity.MonthName(i + 1),
			Revenue:        decimal.Zero,
			Expenses:       decimal.Zero,
			Margin:         decimal.Zero,
			CashDifference: decimal.Zero,
		}
	}
	for i := range sheets {
		sh := &sheets[i]
		r := &rows[int(sh.SheetDate.Month())-1]
		r.Revenue = r.Revenue.Add(sh.TheoreticalRevenue)
		r.Expenses = r.Expenses.Add(sh.TotalExpenses)
		if d := closure.CashDifference(sh); d != nil {
			r.CashDifference = r.CashDifference.Add(*d)
		}
		r.DaysWorked++
	}
	for i := range rows {
		rows[i].Margin = rows[i].Revenue.Sub(rows[i].Expenses)
	}
	return rows
}

// ComputeKPIs aggregates the closed sheets of one year. Best and worst months
// are picked among months with at least one sheet; on equal revenue the
// earliest month wins.
func ComputeKPIs(year int, sheets []model.DailySheet) KPIs {
	k := KPIs{
		Year:                year,
		DaysInYear:          activity.DaysInYear(year),
		TotalRevenue:        decimal.Zero,
		TotalExpenses:       decimal.Zero,
		TotalCashDifference: decimal.Zero,
		MarginRate:          decimal.Zero,
		CompletionRate:      decimal.Zero,
		AvgMonthlyRevenue:   decimal.Zero,
		AvgMonthlyExpenses:  decimal.Zero,
		AvgDailyRevenue:     decimal.Zero,
	}

	for _, m := range Monthly(sheets) {
		k.TotalRevenue = k.TotalRevenue.Add(m.Revenue)
		k.TotalExpenses = k.TotalExpenses.Add(m.Expenses)
		k.TotalCashDifference = k.TotalCashDifference.Add(m.CashDifference)
		k.DaysWorked += m.DaysWorked
		if m.DaysWorked == 0 {
			continue
		}
		k.MonthsWithData++
		ref := &MonthRef{Month: m.Month, Name: m.Name, Revenue: m.Revenue}
		if k.BestMonth == nil || m.Revenue.GreaterThan(k.BestMonth.Revenue) {
			k.BestMonth = ref
		}
		if k.WorstMonth == nil || m.Revenue.LessThan(k.WorstMonth.Revenue) {
			k.WorstMonth = ref
		}
		switch m.CashDifference.Sign() {
		case 1:
			k.PositiveMonths++
		case -1:
			k.NegativeMonths++
		}
	}

	k.Margin = k.TotalRevenue.Sub(k.TotalExpenses)
	if !k.TotalRevenue.IsZero() {
		k.MarginRate = k.Margin.Div(k.TotalRevenue).Mul(hundred).Round(2)
	}
	k.CompletionRate = decimal.NewFromInt(int64(k.DaysWorked)).
		Div(decimal.NewFromInt(int64(k.DaysInYear))).Mul(hundred).Round(2)
	if k.MonthsWithData > 0 {
		months := decimal.NewFromInt(int64(k.MonthsWithData))
		k.AvgMonthlyRevenue = k.TotalRevenue.Div(months).Round(2)
		k.AvgMonthlyExpenses = k.TotalExpenses.Div(months).Round(2)
	}
	if k.DaysWorked > 0 {
		k.AvgDailyRevenue = k.TotalRevenue.Div(decimal.NewFromInt(int64(k.DaysWorked))).Round(2)
	}
	return k
}

// ExpensesByCategory sums expenses per category, largest first, with each
// category's share of the total rounded to one decimal.
func ExpensesByCategory(expenses []model.DailyExpense) []CategoryShare {
	sums := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, e := range expenses {
		sums[e.Category] = sums[e.Category].Add(e.Amount)
		total = total.Add(e.Amount)
	}
	out := make([]CategoryShare, 0, len(sums))
	for c, amount := range sums {
		share := decimal.Zero
		if !total.IsZero() {
			share = amount.Div(total).Mul(hundred).Round(1)
		}
		out = append(out, CategoryShare{
			Category: c,
			Label:    model.ExpenseCategoryLabel(c),
			Amount:   amount,
			Share:    share,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// TopProducts ranks products by revenue over the given stock lines. Lines
// without a final count are ignored. A line's own selling price is used when
// set, otherwise the organization's current price from prices.
func TopProducts(lines []model.DailyStockLine, prices map[uuid.UUID]decimal.Decimal, limit int) []ProductRevenue {
	byProduct := make(map[uuid.UUID]*ProductRevenue)
	order := make([]uuid.UUID, 0)
	for _, l := range lines {
		if l.FinalStock == nil {
			continue
		}
		price := l.SellingPrice
		if price.IsZero() {
			price = prices[l.ProductID]
		}
		sold := l.SoldQuantity()
		p, ok := byProduct[l.ProductID]
		if !ok {
			p = &ProductRevenue{ProductID: l.ProductID, Name: l.ProductName, Revenue: decimal.Zero}
			byProduct[l.ProductID] = p
			order = append(order, l.ProductID)
		}
		p.Quantity += sold
		p.Revenue = p.Revenue.Add(price.Mul(decimal.NewFromInt(int64(sold))))
	}

	out := make([]ProductRevenue, 0, len(order))
	for _, id := range order {
		out = append(out, *byProduct[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Revenue.Equal(out[j].Revenue) {
			return out[i].Revenue.GreaterThan(out[j].Revenue)
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Compare computes the evolution of current against previous.
func Compare(current, previous KPIs) *Evolution {
	return &Evolution{
		PreviousYear: previous.Year,
		Revenue:      activity.Evolution(current.TotalRevenue, previous.TotalRevenue),
		Expenses:     activity.Evolution(current.TotalExpenses, previous.TotalExpenses),
		Margin:       activity.Evolution(current.Margin, previous.Margin),
	}
}

// Build assembles a full report from the year's sheets (with expenses and
// stock lines preloaded) and, when available, the previous year's sheets.
func Build(year int, org string, sheets, previous []model.DailySheet, prices map[uuid.UUID]decimal.Decimal) Report {
	var expenses []model.DailyExpense
	var lines []model.DailyStockLine
	for _, s := range sheets {
		expenses = append(expenses, s.Expenses...)
		lines = append(lines, s.StockLines...)
	}

	r := Report{
		Organization: org,
		KPIs:         ComputeKPIs(year, sheets),
		Monthly:      Monthly(sheets),
		Expenses:     ExpensesByCategory(expenses),
		TopProducts:  TopProducts(lines, prices, TopProductsLimit),
	}
	if previous != nil {
		r.Evolution = Compare(r.KPIs, ComputeKPIs(year-1, previous))
	}
	return r
}
