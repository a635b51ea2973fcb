package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"ravito/internal/closure"
	"ravito/internal/config"
	"ravito/internal/dto"
	"ravito/internal/infra"
	"ravito/internal/model"
	"ravito/internal/repository"
	"ravito/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type DailySheetService interface {
	// Open creates the sheet of a day, carrying stock, cash and credit over
	// from the previous closed sheet.
	Open(ctx context.Context, actor Actor, req dto.OpenSheetRequest) (*dto.DailySheetResponse, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*dto.DailySheetResponse, error)
	GetByDate(ctx context.Context, actor Actor, date string) (*dto.DailySheetResponse, error)
	ListMonth(ctx context.Context, actor Actor, year, month int) ([]dto.DailySheetListItem, error)

	UpdateStockLine(ctx context.Context, actor Actor, sheetID, lineID uuid.UUID, req dto.StockLineRequest) (*dto.DailySheetResponse, error)
	AddExpense(ctx context.Context, actor Actor, sheetID uuid.UUID, req dto.ExpenseRequest) (*dto.DailySheetResponse, error)
	DeleteExpense(ctx context.Context, actor Actor, sheetID, expenseID uuid.UUID) (*dto.DailySheetResponse, error)
	UpdatePackaging(ctx context.Context, actor Actor, sheetID, packagingID uuid.UUID, req dto.PackagingRequest) (*dto.DailySheetResponse, error)
	UpdateCredit(ctx context.Context, actor Actor, sheetID uuid.UUID, req dto.CreditRequest) (*dto.DailySheetResponse, error)

	Check(ctx context.Context, actor Actor, id uuid.UUID) (*dto.ClosureCheckResponse, error)
	// Close is irreversible and requires an explicit confirmation.
	Close(ctx context.Context, actor Actor, id uuid.UUID, req dto.CloseSheetRequest) (*dto.DailySheetResponse, error)
	// PDF returns the stored closure report, rendering it when not stored yet.
	PDF(ctx context.Context, actor Actor, id uuid.UUID) ([]byte, string, error)
}

type dailySheetService struct {
	sheets   repository.DailySheetRepository
	products repository.ProductRepository
	orgs     repository.OrganizationRepository
	locker   Locker
	jobs     Jobs
	objects  Objects
	cfg      *config.Config
	now      func() time.Time
}

func NewDailySheetService(
	sheets repository.DailySheetRepository,
	products repository.ProductRepository,
	orgs repository.OrganizationRepository,
	locker Locker,
	jobs Jobs,
	objects Objects,
	cfg *config.Config,
) DailySheetService {
	return &dailySheetService{
		sheets:   sheets,
		products: products,
		orgs:     orgs,
		locker:   locker,
		jobs:     jobs,
		objects:  objects,
		cfg:      cfg,
		now:      time.Now,
	}
}

// ── Open & read ──────────────────────────────────────────────────────────────

func (s *dailySheetService) Open(ctx context.Context, actor Actor, req dto.OpenSheetRequest) (*dto.DailySheetResponse, error) {
	date := truncateDay(s.now())
	if req.Date != "" {
		d, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			return nil, newError(ErrInvalid, "Date invalide")
		}
		date = d
	}

	if _, err := s.sheets.FindByDate(ctx, actor.OrgID, date); err == nil {
		return nil, ErrSheetExists
	} else if !isNotFound(err) {
		return nil, err
	}

	prev, err := s.sheets.FindPreviousClosed(ctx, actor.OrgID, date)
	if err != nil {
		if !isNotFound(err) {
			return nil, err
		}
		prev = nil
	}

	catalog, err := s.sheetProducts(ctx, actor.OrgID)
	if err != nil {
		return nil, err
	}

	sheet := BuildSheet(actor.OrgID, date, catalog, prev)
	if req.OpeningCash != nil {
		sheet.OpeningCash = *req.OpeningCash
	}
	if err := s.sheets.Create(ctx, nil, sheet); err != nil {
		// another request opened the same date after our lookup
		if isDuplicate(err) {
			return nil, ErrSheetExists
		}
		return nil, err
	}
	log.Info().Str("org_id", actor.OrgID.String()).Str("date", date.Format(dateLayout)).
		Int("lines", len(sheet.StockLines)).Msg("daily sheet opened")

	return s.reload(ctx, sheet.ID)
}

// SheetProduct is a product as it enters a new sheet, with the organization's
// selling price.
type SheetProduct struct {
	Product      model.Product
	SellingPrice decimal.Decimal
}

// sheetProducts lists the organization's priced products, or the whole active
// catalog at unit price when the organization has not set any price yet.
func (s *dailySheetService) sheetProducts(ctx context.Context, orgID uuid.UUID) ([]SheetProduct, error) {
	priced, err := s.products.ListOrganizationProducts(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]SheetProduct, 0, len(priced))
	for _, op := range priced {
		if op.Product == nil || !op.Product.Active {
			continue
		}
		out = append(out, SheetProduct{Product: *op.Product, SellingPrice: op.SellingPrice})
	}
	if len(out) > 0 {
		return out, nil
	}
	active, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range active {
		out = append(out, SheetProduct{Product: p, SellingPrice: p.UnitPrice})
	}
	return out, nil
}

// BuildSheet prepares a new open sheet. Initial stock and packaging start
// counts come from prev's end counts; opening cash defaults to prev's closing
// cash and the credit balance is carried over. prev may be nil.
func BuildSheet(orgID uuid.UUID, date time.Time, catalog []SheetProduct, prev *model.DailySheet) *model.DailySheet {
	sheet := &model.DailySheet{
		OrganizationID: orgID,
		SheetDate:      date,
		Status:         model.SheetOpen,
		OpeningCash:    decimal.Zero,
		CreditSales:    decimal.Zero,
		CreditPayments: decimal.Zero,
		CreditBalance:  decimal.Zero,
	}

	prevFinal := make(map[uuid.UUID]int)
	prevPack := make(map[string]model.DailyPackaging)
	if prev != nil {
		if prev.ClosingCash != nil {
			sheet.OpeningCash = *prev.ClosingCash
		}
		sheet.CreditBalance = prev.CreditBalance
		for _, l := range prev.StockLines {
			if l.FinalStock != nil {
				prevFinal[l.ProductID] = *l.FinalStock
			}
		}
		for _, p := range prev.Packaging {
			prevPack[p.CrateType] = p
		}
	}

	crates := make(map[string]bool)
	for _, sp := range catalog {
		sheet.StockLines = append(sheet.StockLines, model.DailyStockLine{
			ProductID:    sp.Product.ID,
			ProductName:  sp.Product.Name,
			InitialStock: prevFinal[sp.Product.ID],
			SellingPrice: sp.SellingPrice,
		})
		if sp.Product.Consignable() {
			crates[sp.Product.CrateType] = true
		}
	}

	types := make([]string, 0, len(crates))
	for c := range crates {
		types = append(types, c)
	}
	sort.Strings(types)
	for _, c := range types {
		row := model.DailyPackaging{CrateType: c}
		if p, ok := prevPack[c]; ok {
			if p.FullEnd != nil {
				row.FullStart = *p.FullEnd
			}
			if p.EmptyEnd != nil {
				row.EmptyStart = *p.EmptyEnd
			}
		}
		sheet.Packaging = append(sheet.Packaging, row)
	}
	return sheet
}

func (s *dailySheetService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*dto.DailySheetResponse, error) {
	sheet, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(sheet)
	return &resp, nil
}

func (s *dailySheetService) GetByDate(ctx context.Context, actor Actor, date string) (*dto.DailySheetResponse, error) {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, newError(ErrInvalid, "Date invalide")
	}
	sheet, err := s.sheets.FindByDate(ctx, actor.OrgID, d)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrSheetNotFound
		}
		return nil, err
	}
	resp := s.toResponse(sheet)
	return &resp, nil
}

func (s *dailySheetService) ListMonth(ctx context.Context, actor Actor, year, month int) ([]dto.DailySheetListItem, error) {
	if month < 1 || month > 12 {
		return nil, newError(ErrInvalid, "Mois invalide")
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	sheets, err := s.sheets.ListRange(ctx, actor.OrgID, from, from.AddDate(0, 1, 0), "")
	if err != nil {
		return nil, err
	}
	items := make([]dto.DailySheetListItem, len(sheets))
	for i := range sheets {
		sh := &sheets[i]
		items[i] = dto.DailySheetListItem{
			ID:             sh.ID.String(),
			Date:           sh.SheetDate.Format(dateLayout),
			Status:         sh.Status,
			Revenue:        sh.TheoreticalRevenue,
			Expenses:       sh.TotalExpenses,
			CashDifference: closure.CashDifference(sh),
		}
	}
	return items, nil
}

// load fetches a sheet of the actor's organization.
func (s *dailySheetService) load(ctx context.Context, actor Actor, id uuid.UUID) (*model.DailySheet, error) {
	sheet, err := s.sheets.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrSheetNotFound
		}
		return nil, err
	}
	if sheet.OrganizationID != actor.OrgID {
		return nil, ErrSheetNotFound
	}
	return sheet, nil
}

func sheetLockKey(id uuid.UUID) string { return "daily-sheet:close:" + id.String() }

func (s *dailySheetService) lock(ctx context.Context, id uuid.UUID) (func(), error) {
	release, err := s.locker.Obtain(ctx, sheetLockKey(id), time.Duration(s.cfg.CloseLockTTLSeconds)*time.Second)
	if errors.Is(err, infra.ErrLockBusy) {
		return nil, ErrSheetBusy
	}
	return release, err
}

// edit runs fn on the open sheet while holding the lock Close takes, then
// returns the reloaded sheet. An entry write refused because the sheet closed
// in between surfaces as ErrSheetClosed.
func (s *dailySheetService) edit(ctx context.Context, actor Actor, id uuid.UUID, fn func(sheet *model.DailySheet) error) (*dto.DailySheetResponse, error) {
	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	sheet, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if sheet.Status == model.SheetClosed {
		return nil, ErrSheetClosed
	}
	if err := fn(sheet); err != nil {
		if errors.Is(err, repository.ErrSheetNotOpen) {
			return nil, ErrSheetClosed
		}
		return nil, err
	}
	return s.reload(ctx, sheet.ID)
}

func (s *dailySheetService) reload(ctx context.Context, id uuid.UUID) (*dto.DailySheetResponse, error) {
	sheet, err := s.sheets.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(sheet)
	return &resp, nil
}

// ── Entries ──────────────────────────────────────────────────────────────────

func (s *dailySheetService) UpdateStockLine(ctx context.Context, actor Actor, sheetID, lineID uuid.UUID, req dto.StockLineRequest) (*dto.DailySheetResponse, error) {
	return s.edit(ctx, actor, sheetID, func(sheet *model.DailySheet) error {
		line, err := s.sheets.FindStockLine(ctx, sheet.ID, lineID)
		if err != nil {
			if isNotFound(err) {
				return ErrLineNotFound
			}
			return err
		}

		if req.InitialStock != nil && *req.InitialStock != line.InitialStock {
			if _, err := s.sheets.FindPreviousClosed(ctx, sheet.OrganizationID, sheet.SheetDate); err == nil {
				return ErrInitialStockLocked
			} else if !isNotFound(err) {
				return err
			}
			line.InitialStock = *req.InitialStock
		}
		if req.SupplyQuantity != nil {
			line.SupplyQuantity = *req.SupplyQuantity
		}
		if req.FinalStock != nil {
			line.FinalStock = req.FinalStock
		}
		return s.sheets.UpdateStockLine(ctx, line)
	})
}

func (s *dailySheetService) AddExpense(ctx context.Context, actor Actor, sheetID uuid.UUID, req dto.ExpenseRequest) (*dto.DailySheetResponse, error) {
	if !model.ValidExpenseCategory(req.Category) {
		return nil, ErrExpenseCategory
	}
	if !req.Amount.IsPositive() {
		return nil, newError(ErrInvalid, "Le montant doit être positif")
	}
	return s.edit(ctx, actor, sheetID, func(sheet *model.DailySheet) error {
		return s.sheets.CreateExpense(ctx, &model.DailyExpense{
			SheetID:  sheet.ID,
			Label:    strings.TrimSpace(req.Label),
			Category: req.Category,
			Amount:   req.Amount,
		})
	})
}

func (s *dailySheetService) DeleteExpense(ctx context.Context, actor Actor, sheetID, expenseID uuid.UUID) (*dto.DailySheetResponse, error) {
	return s.edit(ctx, actor, sheetID, func(sheet *model.DailySheet) error {
		err := s.sheets.DeleteExpense(ctx, sheet.ID, expenseID)
		if isNotFound(err) {
			return ErrLineNotFound
		}
		return err
	})
}

func (s *dailySheetService) UpdatePackaging(ctx context.Context, actor Actor, sheetID, packagingID uuid.UUID, req dto.PackagingRequest) (*dto.DailySheetResponse, error) {
	return s.edit(ctx, actor, sheetID, func(sheet *model.DailySheet) error {
		p, err := s.sheets.FindPackaging(ctx, sheet.ID, packagingID)
		if err != nil {
			if isNotFound(err) {
				return ErrLineNotFound
			}
			return err
		}
		setInt(&p.FullStart, req.FullStart)
		setInt(&p.EmptyStart, req.EmptyStart)
		setInt(&p.Received, req.Received)
		setInt(&p.Returned, req.Returned)
		if req.FullEnd != nil {
			p.FullEnd = req.FullEnd
		}
		if req.EmptyEnd != nil {
			p.EmptyEnd = req.EmptyEnd
		}
		return s.sheets.UpdatePackaging(ctx, p)
	})
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func (s *dailySheetService) UpdateCredit(ctx context.Context, actor Actor, sheetID uuid.UUID, req dto.CreditRequest) (*dto.DailySheetResponse, error) {
	return s.edit(ctx, actor, sheetID, func(sheet *model.DailySheet) error {
		// the balance carried in from the previous day
		carried := sheet.CreditBalance.Sub(sheet.CreditSales).Add(sheet.CreditPayments)
		if req.CreditSales != nil {
			sheet.CreditSales = *req.CreditSales
		}
		if req.CreditPayments != nil {
			sheet.CreditPayments = *req.CreditPayments
		}
		sheet.CreditBalance = closure.CreditBalance(carried, sheet.CreditSales, sheet.CreditPayments)
		ok, err := s.sheets.UpdateCredit(ctx, sheet)
		if err != nil {
			return err
		}
		if !ok {
			return ErrSheetClosed
		}
		return nil
	})
}

// ── Closure ──────────────────────────────────────────────────────────────────

func (s *dailySheetService) Check(ctx context.Context, actor Actor, id uuid.UUID) (*dto.ClosureCheckResponse, error) {
	sheet, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	sum := closure.Summarize(sheet, s.cfg.LowStockThreshold)
	return &dto.ClosureCheckResponse{
		Closeable: sum.Closeable,
		Missing:   sum.Missing,
		Alerts:    sum.Alerts,
		Expected:  sum.ExpectedCash,
	}, nil
}

func (s *dailySheetService) Close(ctx context.Context, actor Actor, id uuid.UUID, req dto.CloseSheetRequest) (*dto.DailySheetResponse, error) {
	if !req.Confirm {
		return nil, ErrConfirmRequired
	}
	if req.ClosingCash == nil {
		return nil, ErrClosingCashNeeds
	}

	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	sheet, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := closure.Close(sheet, *req.ClosingCash, req.Notes, actor.UserID, now); err != nil {
		var incomplete *closure.IncompleteError
		switch {
		case errors.Is(err, closure.ErrAlreadyClosed):
			return nil, ErrSheetClosed
		case errors.As(err, &incomplete):
			return nil, &IncompleteSheetError{Missing: incomplete.Missing}
		}
		return nil, err
	}
	// the retry cron picks the report up if the queued job never lands
	next := now.Add(worker.ReportGrace)
	sheet.NextReportAt = &next

	ok, err := s.sheets.CloseIfOpen(ctx, sheet)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSheetClosed
	}
	log.Info().Str("sheet_id", sheet.ID.String()).Str("revenue", sheet.TheoreticalRevenue.String()).
		Str("cash_difference", sheet.CashDifference.String()).Msg("daily sheet closed")

	if err := s.jobs.EnqueueClosureReport(ctx, worker.ClosureReportPayload{SheetID: sheet.ID.String()}); err != nil {
		log.Error().Err(err).Str("sheet_id", sheet.ID.String()).Msg("could not enqueue closure report")
	}
	resp := s.toResponse(sheet)
	return &resp, nil
}

func (s *dailySheetService) PDF(ctx context.Context, actor Actor, id uuid.UUID) ([]byte, string, error) {
	sheet, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}
	if sheet.Status != model.SheetClosed {
		return nil, "", ErrSheetNotClosed
	}
	filename := "fiche-" + sheet.SheetDate.Format(dateLayout) + ".pdf"

	if sheet.ReportPath != nil {
		data, err := s.objects.Get(ctx, worker.ReportName(sheet))
		if err == nil {
			return data, filename, nil
		}
		log.Warn().Err(err).Str("sheet_id", sheet.ID.String()).Msg("stored report unavailable, rendering")
	}

	name := s.cfg.EstablishmentFallback
	if org, err := s.orgs.FindByID(ctx, sheet.OrganizationID); err == nil && org.Name != "" {
		name = org.Name
	}
	data, err := infra.DailySheetPDF(name, sheet, closure.Summarize(sheet, s.cfg.LowStockThreshold))
	if err != nil {
		return nil, "", err
	}
	return data, filename, nil
}

func (s *dailySheetService) toResponse(sheet *model.DailySheet) dto.DailySheetResponse {
	resp := dto.DailySheetResponse{
		ID:             sheet.ID.String(),
		Date:           sheet.SheetDate.Format(dateLayout),
		Status:         sheet.Status,
		OpeningCash:    sheet.OpeningCash,
		CreditSales:    sheet.CreditSales,
		CreditPayments: sheet.CreditPayments,
		CreditBalance:  sheet.CreditBalance,
		Notes:          sheet.Notes,
		ClosedAt:       tsPtr(sheet.ClosedAt),
		Expenses:       make([]dto.ExpenseResponse, len(sheet.Expenses)),
		Summary:        closure.Summarize(sheet, s.cfg.LowStockThreshold),
	}
	for i, e := range sheet.Expenses {
		resp.Expenses[i] = dto.ExpenseResponse{
			ID:            e.ID.String(),
			Label:         e.Label,
			Category:      e.Category,
			CategoryLabel: model.ExpenseCategoryLabel(e.Category),
			Amount:        e.Amount,
		}
	}
	return resp
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
