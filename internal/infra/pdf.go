package infra

// pdf.go renders the daily sheet closure report and the annual report with
// go-pdf/fpdf. Both are A4 portrait and return the document bytes; storing or
// mailing them is the caller's concern.

import (
	"bytes"
	"fmt"
	"time"

	"ravito/internal/activity"
	"ravito/internal/annual"
	"ravito/internal/closure"
	"ravito/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const (
	pdfMargin   = 12.0
	pdfRowH     = 6.0
	pdfFontBody = 9.0
)

type pdfDoc struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
	w   float64 // content width
}

func newPDFDoc(title string) *pdfDoc {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin+4)
	pdf.SetTitle(title, true)
	pdf.AliasNbPages("{nb}")

	d := &pdfDoc{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pageW, _ := pdf.GetPageSize()
	d.w = pageW - 2*pdfMargin

	pdf.SetFooterFunc(func() {
		pdf.SetY(-(pdfMargin + 2))
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	return d
}

func (d *pdfDoc) header(name, subtitle string) {
	d.pdf.SetFont("Helvetica", "B", 15)
	d.pdf.CellFormat(d.w, 8, d.tr(name), "", 1, "C", false, 0, "")
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.CellFormat(d.w, 6, d.tr(subtitle), "", 1, "C", false, 0, "")
	d.pdf.Ln(4)
}

func (d *pdfDoc) section(title string) {
	d.pdf.Ln(2)
	d.pdf.SetFont("Helvetica", "B", 11)
	d.pdf.CellFormat(d.w, 7, d.tr(title), "B", 1, "L", false, 0, "")
	d.pdf.Ln(1)
}

// table draws a header row and body rows. widths are fractions of the content
// width; the first column is left aligned, the others right aligned.
func (d *pdfDoc) table(widths []float64, head []string, rows [][]string) {
	d.pdf.SetFont("Helvetica", "B", pdfFontBody)
	d.pdf.SetFillColor(235, 235, 235)
	for i, h := range head {
		d.pdf.CellFormat(d.w*widths[i], pdfRowH, d.tr(h), "1", 0, align(i), true, 0, "")
	}
	d.pdf.Ln(-1)

	d.pdf.SetFont("Helvetica", "", pdfFontBody)
	for _, row := range rows {
		for i, cell := range row {
			d.pdf.CellFormat(d.w*widths[i], pdfRowH, d.tr(cell), "1", 0, align(i), false, 0, "")
		}
		d.pdf.Ln(-1)
	}
}

// keyValues draws two-column label/value lines.
func (d *pdfDoc) keyValues(pairs [][2]string) {
	d.pdf.SetFont("Helvetica", "", pdfFontBody+1)
	for _, p := range pairs {
		d.pdf.CellFormat(d.w*0.6, pdfRowH, d.tr(p[0]), "", 0, "L", false, 0, "")
		d.pdf.CellFormat(d.w*0.4, pdfRowH, d.tr(p[1]), "", 1, "R", false, 0, "")
	}
}

func (d *pdfDoc) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}

func align(col int) string {
	if col == 0 {
		return "L"
	}
	return "R"
}

func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func optMoney(v *decimal.Decimal) string {
	if v == nil {
		return "-"
	}
	return activity.FormatCurrency(*v)
}

// ── Daily sheet ───────────────────────────────────────────────────────────────

// DailySheetPDF renders the closure report of a sheet.
func DailySheetPDF(establishment string, sheet *model.DailySheet, s closure.Summary) ([]byte, error) {
	d := newPDFDoc("Fiche journalière " + activity.FormatDate(sheet.SheetDate))
	d.header(establishment, "Fiche journalière du "+activity.FormatDate(sheet.SheetDate))

	d.section("Ventes")
	sales := make([][]string, 0, len(s.Sales))
	for _, l := range s.Sales {
		sales = append(sales, []string{
			l.ProductName,
			fmt.Sprintf("%d", l.InitialStock),
			fmt.Sprintf("%d", l.Supply),
			optInt(l.FinalStock),
			fmt.Sprintf("%d", l.Sold),
			activity.FormatCurrency(l.SellingPrice),
			activity.FormatCurrency(l.Revenue),
		})
	}
	d.table(
		[]float64{0.28, 0.09, 0.09, 0.09, 0.09, 0.18, 0.18},
		[]string{"Produit", "Initial", "Appro.", "Final", "Vendu", "Prix", "Recette"},
		sales,
	)

	d.section("Dépenses")
	expenses := make([][]string, 0, len(sheet.Expenses))
	for _, e := range sheet.Expenses {
		expenses = append(expenses, []string{e.Label, model.ExpenseCategoryLabel(e.Category), activity.FormatCurrency(e.Amount)})
	}
	d.table([]float64{0.5, 0.25, 0.25}, []string{"Libellé", "Catégorie", "Montant"}, expenses)

	d.section("Caisse")
	d.keyValues([][2]string{
		{"Fond de caisse", activity.FormatCurrency(s.OpeningCash)},
		{"Recette théorique", activity.FormatCurrency(s.TotalRevenue)},
		{"Total dépenses", activity.FormatCurrency(s.TotalExpenses)},
		{"Caisse attendue", activity.FormatCurrency(s.ExpectedCash)},
		{"Caisse comptée", optMoney(s.ClosingCash)},
		{"Écart de caisse", optMoney(s.CashDifference)},
		{"Solde crédit clients", activity.FormatCurrency(sheet.CreditBalance)},
	})

	if len(s.Packaging) > 0 {
		d.section("Emballages")
		rows := make([][]string, 0, len(s.Packaging))
		for _, p := range s.Packaging {
			rows = append(rows, []string{
				p.CrateType,
				fmt.Sprintf("%d", p.FullStart),
				fmt.Sprintf("%d", p.EmptyStart),
				fmt.Sprintf("%d", p.Received),
				fmt.Sprintf("%d", p.Returned),
				optInt(p.FullEnd),
				optInt(p.EmptyEnd),
				fmt.Sprintf("%+d", p.Difference),
			})
		}
		d.table(
			[]float64{0.16, 0.12, 0.12, 0.12, 0.12, 0.12, 0.12, 0.12},
			[]string{"Casier", "Pleins déb.", "Vides déb.", "Reçus", "Rendus", "Pleins fin", "Vides fin", "Écart"},
			rows,
		)
	}

	if sheet.Notes != nil && *sheet.Notes != "" {
		d.section("Notes")
		d.pdf.SetFont("Helvetica", "", pdfFontBody)
		d.pdf.MultiCell(d.w, 5, d.tr(*sheet.Notes), "", "L", false)
	}
	if sheet.ClosedAt != nil {
		d.pdf.Ln(3)
		d.pdf.SetFont("Helvetica", "I", 8)
		d.pdf.CellFormat(d.w, 5, d.tr("Clôturée le "+sheet.ClosedAt.Format("02/01/2006 à 15:04")), "", 1, "R", false, 0, "")
	}
	return d.bytes()
}

// ── Annual report ─────────────────────────────────────────────────────────────

// AnnualPDF renders the yearly rollup.
func AnnualPDF(r annual.Report, generatedAt time.Time) ([]byte, error) {
	k := r.KPIs
	d := newPDFDoc(fmt.Sprintf("Rapport annuel %d", k.Year))
	d.header(r.Organization, fmt.Sprintf("Rapport d'activité %d", k.Year))

	d.section("Indicateurs clés")
	pairs := [][2]string{
		{"Chiffre d'affaires", activity.FormatCurrency(k.TotalRevenue)},
		{"Dépenses", activity.FormatCurrency(k.TotalExpenses)},
		{"Marge", activity.FormatCurrency(k.Margin)},
		{"Taux de marge", k.MarginRate.StringFixed(2) + " %"},
		{"Jours travaillés", fmt.Sprintf("%d / %d", k.DaysWorked, k.DaysInYear)},
		{"Taux de remplissage", k.CompletionRate.StringFixed(2) + " %"},
		{"CA mensuel moyen", activity.FormatCurrency(k.AvgMonthlyRevenue)},
		{"CA journalier moyen", activity.FormatCurrency(k.AvgDailyRevenue)},
		{"Écart de caisse cumulé", activity.FormatCurrency(k.TotalCashDifference)},
	}
	if k.BestMonth != nil {
		pairs = append(pairs, [2]string{"Meilleur mois", k.BestMonth.Name + " (" + activity.FormatCurrency(k.BestMonth.Revenue) + ")"})
	}
	if k.WorstMonth != nil {
		pairs = append(pairs, [2]string{"Mois le plus faible", k.WorstMonth.Name + " (" + activity.FormatCurrency(k.WorstMonth.Revenue) + ")"})
	}
	if r.Evolution != nil {
		pairs = append(pairs, [2]string{
			fmt.Sprintf("Évolution du CA vs %d", r.Evolution.PreviousYear),
			r.Evolution.Revenue.StringFixed(1) + " %",
		})
	}
	d.keyValues(pairs)

	d.section("Activité mensuelle")
	monthly := make([][]string, 0, len(r.Monthly))
	for _, m := range r.Monthly {
		monthly = append(monthly, []string{
			m.Name,
			activity.FormatCurrency(m.Revenue),
			activity.FormatCurrency(m.Expenses),
			activity.FormatCurrency(m.Margin),
			activity.FormatCurrency(m.CashDifference),
			fmt.Sprintf("%d", m.DaysWorked),
		})
	}
	d.table(
		[]float64{0.16, 0.2, 0.2, 0.18, 0.16, 0.1},
		[]string{"Mois", "Recettes", "Dépenses", "Marge", "Écart", "Jours"},
		monthly,
	)

	if len(r.Expenses) > 0 {
		d.section("Dépenses par catégorie")
		rows := make([][]string, 0, len(r.Expenses))
		for _, e := range r.Expenses {
			rows = append(rows, []string{e.Label, activity.FormatCurrency(e.Amount), e.Share.StringFixed(1) + " %"})
		}
		d.table([]float64{0.5, 0.3, 0.2}, []string{"Catégorie", "Montant", "Part"}, rows)
	}

	if len(r.TopProducts) > 0 {
		d.section("Meilleurs produits")
		rows := make([][]string, 0, len(r.TopProducts))
		for _, p := range r.TopProducts {
			rows = append(rows, []string{p.Name, fmt.Sprintf("%d", p.Quantity), activity.FormatCurrency(p.Revenue)})
		}
		d.table([]float64{0.5, 0.2, 0.3}, []string{"Produit", "Quantité", "Recette"}, rows)
	}

	d.pdf.Ln(3)
	d.pdf.SetFont("Helvetica", "I", 8)
	d.pdf.CellFormat(d.w, 5, d.tr("Généré le "+generatedAt.Format("02/01/2006 à 15:04")), "", 1, "R", false, 0, "")
	return d.bytes()
}
