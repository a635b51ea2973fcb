package infra

import (
	"fmt"

	"ravito/internal/annual"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary  = "Synthèse"
	sheetMonthly  = "Mensuel"
	sheetExpenses = "Dépenses"
	sheetProducts = "Produits"
)

// AnnualXLSX writes the annual report as a workbook with one sheet per section.
func AnnualXLSX(r annual.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}
	for _, name := range []string{sheetMonthly, sheetExpenses, sheetProducts} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	k := r.KPIs
	summary := [][]interface{}{
		{"Établissement", r.Organization},
		{"Année", k.Year},
		{"Chiffre d'affaires", num(k.TotalRevenue)},
		{"Dépenses", num(k.TotalExpenses)},
		{"Marge", num(k.Margin)},
		{"Taux de marge (%)", num(k.MarginRate)},
		{"Jours travaillés", k.DaysWorked},
		{"Taux de remplissage (%)", num(k.CompletionRate)},
		{"Mois avec activité", k.MonthsWithData},
		{"CA mensuel moyen", num(k.AvgMonthlyRevenue)},
		{"Dépenses mensuelles moyennes", num(k.AvgMonthlyExpenses)},
		{"CA journalier moyen", num(k.AvgDailyRevenue)},
		{"Écart de caisse cumulé", num(k.TotalCashDifference)},
		{"Mois positifs", k.PositiveMonths},
		{"Mois négatifs", k.NegativeMonths},
	}
	if k.BestMonth != nil {
		summary = append(summary, []interface{}{"Meilleur mois", k.BestMonth.Name})
	}
	if k.WorstMonth != nil {
		summary = append(summary, []interface{}{"Mois le plus faible", k.WorstMonth.Name})
	}
	if r.Evolution != nil {
		summary = append(summary, []interface{}{fmt.Sprintf("Évolution CA vs %d (%%)", r.Evolution.PreviousYear), num(r.Evolution.Revenue)})
	}
	if err := writeRows(f, sheetSummary, nil, summary); err != nil {
		return nil, err
	}

	monthly := make([][]interface{}, 0, len(r.Monthly))
	for _, m := range r.Monthly {
		monthly = append(monthly, []interface{}{m.Name, num(m.Revenue), num(m.Expenses), num(m.Margin), num(m.CashDifference), m.DaysWorked})
	}
	if err := writeRows(f, sheetMonthly, []interface{}{"Mois", "Recettes", "Dépenses", "Marge", "Écart de caisse", "Jours"}, monthly); err != nil {
		return nil, err
	}

	expenses := make([][]interface{}, 0, len(r.Expenses))
	for _, e := range r.Expenses {
		expenses = append(expenses, []interface{}{e.Label, num(e.Amount), num(e.Share)})
	}
	if err := writeRows(f, sheetExpenses, []interface{}{"Catégorie", "Montant", "Part (%)"}, expenses); err != nil {
		return nil, err
	}

	products := make([][]interface{}, 0, len(r.TopProducts))
	for _, p := range r.TopProducts {
		products = append(products, []interface{}{p.Name, p.Quantity, num(p.Revenue)})
	}
	if err := writeRows(f, sheetProducts, []interface{}{"Produit", "Quantité", "Recette"}, products); err != nil {
		return nil, err
	}

	for _, name := range []string{sheetSummary, sheetMonthly, sheetExpenses, sheetProducts} {
		if err := f.SetColWidth(name, "A", "A", 32); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(name, "A1", "F1", bold); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, head []interface{}, rows [][]interface{}) error {
	start := 1
	if head != nil {
		if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
			return err
		}
		start = 2
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, start+i)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func num(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}
