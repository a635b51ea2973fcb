package infra

import (
	"bytes"
	"encoding/csv"
	"time"

	"github.com/shopspring/decimal"
)

// utf8BOM makes spreadsheet software detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var orderCSVHeader = []string{"Date", "N° commande", "Contrepartie", "Montant HT", "Commission", "Total", "Statut"}

// OrderCSVRow is one exported order, seen from the requesting organization.
type OrderCSVRow struct {
	Date         time.Time
	Number       string
	Counterparty string
	AmountHT     decimal.Decimal
	Commission   decimal.Decimal
	Total        decimal.Decimal
	Status       string
}

// OrdersCSV renders semicolon-separated rows prefixed with a UTF-8 BOM.
func OrdersCSV(rows []OrderCSVRow) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	w.Comma = ';'
	if err := w.Write(orderCSVHeader); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := w.Write([]string{
			r.Date.Format("02/01/2006"),
			r.Number,
			r.Counterparty,
			r.AmountHT.StringFixed(0),
			r.Commission.StringFixed(0),
			r.Total.StringFixed(0),
			r.Status,
		}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
