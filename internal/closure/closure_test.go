package closure

import (
	"testing"
	"time"

	"ravito/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// sheetFixture: opening 20 000; Flag sells 10 × 1 000, Castel sells 4 × 1 500;
// expenses 5 000; one C12 crate type balanced.
func sheetFixture() *model.DailySheet {
	return &model.DailySheet{
		ID:          uuid.New(),
		Status:      model.SheetOpen,
		OpeningCash: dec(20000),
		StockLines: []model.DailyStockLine{
			{ProductID: uuid.New(), ProductName: "Flag 65cl", InitialStock: 24, SupplyQuantity: 12, FinalStock: intp(26), SellingPrice: dec(1000)},
			{ProductID: uuid.New(), ProductName: "Castel 65cl", InitialStock: 6, SupplyQuantity: 0, FinalStock: intp(2), SellingPrice: dec(1500)},
		},
		Expenses: []model.DailyExpense{
			{Label: "Glace", Category: model.ExpenseSupplies, Amount: dec(3000)},
			{Label: "Taxi", Category: model.ExpenseTransport, Amount: dec(2000)},
		},
		Packaging: []model.DailyPackaging{
			{CrateType: "C12", FullStart: 3, EmptyStart: 2, Received: 2, Returned: 1, FullEnd: intp(4), EmptyEnd: intp(2)},
		},
	}
}

func TestSummarize_OpenSheet(t *testing.T) {
	s := Summarize(sheetFixture(), 5)

	assert.True(t, s.TotalRevenue.Equal(dec(16000)), s.TotalRevenue.String())
	assert.True(t, s.TotalExpenses.Equal(dec(5000)))
	// 20 000 + 16 000 - 5 000
	assert.True(t, s.ExpectedCash.Equal(dec(31000)))
	assert.Equal(t, 14, s.SoldUnits)
	assert.True(t, s.Closeable)
	assert.Empty(t, s.Missing)
	assert.Nil(t, s.CashDifference)

	require.Len(t, s.Expenses, 2)
	assert.Equal(t, model.ExpenseSupplies, s.Expenses[0].Category)
}

func TestSummarize_LowStockAlert(t *testing.T) {
	s := Summarize(sheetFixture(), 5)

	require.Len(t, s.Alerts, 1)
	assert.Equal(t, AlertLowStock, s.Alerts[0].Kind)
	assert.Contains(t, s.Alerts[0].Message, "Castel 65cl")
}

func TestSummarize_PackagingDifferenceAlert(t *testing.T) {
	sheet := sheetFixture()
	// expected 3+2+2-1 = 6, counted 4+3 = 7
	sheet.Packaging[0].EmptyEnd = intp(3)

	s := Summarize(sheet, 0)
	require.Len(t, s.Alerts, 1)
	assert.Equal(t, AlertPackagingDifference, s.Alerts[0].Kind)
	assert.Equal(t, 1, s.Packaging[0].Difference)
	assert.Contains(t, s.Alerts[0].Message, "+1")
	assert.True(t, s.Closeable, "alerts never block closing")
}

func TestMissing_ListsEveryCount(t *testing.T) {
	sheet := sheetFixture()
	sheet.StockLines[0].FinalStock = nil
	sheet.Packaging[0].FullEnd = nil
	sheet.Packaging[0].EmptyEnd = nil

	assert.Equal(t, []string{
		"Stock final manquant: Flag 65cl",
		"Casiers pleins manquants: C12",
		"Casiers vides manquants: C12",
	}, Missing(sheet))

	s := Summarize(sheet, 5)
	assert.False(t, s.Closeable)
	assert.Len(t, s.Missing, 3)
}

func TestClose(t *testing.T) {
	sheet := sheetFixture()
	by := uuid.New()
	now := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)
	notes := "RAS"

	require.NoError(t, Close(sheet, dec(30500), &notes, by, now))

	assert.Equal(t, model.SheetClosed, sheet.Status)
	assert.True(t, sheet.TheoreticalRevenue.Equal(dec(16000)))
	assert.True(t, sheet.TotalExpenses.Equal(dec(5000)))
	require.NotNil(t, sheet.CashDifference)
	// 30 500 - 31 000
	assert.True(t, sheet.CashDifference.Equal(dec(-500)), sheet.CashDifference.String())
	assert.Equal(t, &by, sheet.ClosedBy)
	assert.Equal(t, now, *sheet.ClosedAt)
	assert.Equal(t, "RAS", *sheet.Notes)
}

func TestClose_RefusesIncomplete(t *testing.T) {
	sheet := sheetFixture()
	sheet.StockLines[1].FinalStock = nil

	err := Close(sheet, dec(1), nil, uuid.New(), time.Now())
	var inc *IncompleteError
	require.ErrorAs(t, err, &inc)
	assert.Equal(t, []string{"Stock final manquant: Castel 65cl"}, inc.Missing)
	assert.Equal(t, model.SheetOpen, sheet.Status)
	assert.Nil(t, sheet.ClosingCash)
}

func TestClose_IsIrreversible(t *testing.T) {
	sheet := sheetFixture()
	require.NoError(t, Close(sheet, dec(31000), nil, uuid.New(), time.Now()))
	before := *sheet.ClosingCash

	err := Close(sheet, dec(99999), nil, uuid.New(), time.Now())
	assert.ErrorIs(t, err, ErrAlreadyClosed)
	assert.True(t, sheet.ClosingCash.Equal(before))
}

func TestSummarize_ClosedSheetUsesFrozenTotals(t *testing.T) {
	sheet := sheetFixture()
	require.NoError(t, Close(sheet, dec(31000), nil, uuid.New(), time.Now()))
	// a later edit of a line must not change the reported revenue
	sheet.StockLines[0].SellingPrice = dec(5000)

	s := Summarize(sheet, 5)
	assert.True(t, s.TotalRevenue.Equal(dec(16000)))
	assert.True(t, s.CashDifference.IsZero())
	assert.False(t, s.Closeable)
}

func TestCashDifference_LegacyFallback(t *testing.T) {
	closing := dec(12000)
	legacy := &model.DailySheet{
		Status:             model.SheetClosed,
		OpeningCash:        dec(5000),
		TheoreticalRevenue: dec(10000),
		TotalExpenses:      dec(2000),
		ClosingCash:        &closing,
	}
	diff := CashDifference(legacy)
	require.NotNil(t, diff)
	assert.True(t, diff.Equal(dec(-1000)))

	assert.Nil(t, CashDifference(&model.DailySheet{Status: model.SheetOpen}))
}

func TestCreditBalance(t *testing.T) {
	assert.True(t, CreditBalance(dec(10000), dec(4000), dec(6000)).Equal(dec(8000)))
}
