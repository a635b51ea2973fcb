package service

import (
	"context"
	"fmt"
	"time"

	"ravito/internal/annual"
	"ravito/internal/config"
	"ravito/internal/infra"
	"ravito/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type AnnualService interface {
	Report(ctx context.Context, orgID uuid.UUID, year int) (*annual.Report, error)
	PDF(ctx context.Context, orgID uuid.UUID, year int) ([]byte, error)
	XLSX(ctx context.Context, orgID uuid.UUID, year int) ([]byte, error)
}

type annualService struct {
	sheets   repository.DailySheetRepository
	products repository.ProductRepository
	orgs     repository.OrganizationRepository
	cfg      *config.Config
	now      func() time.Time
}

func NewAnnualService(
	sheets repository.DailySheetRepository,
	products repository.ProductRepository,
	orgs repository.OrganizationRepository,
	cfg *config.Config,
) AnnualService {
	return &annualService{sheets: sheets, products: products, orgs: orgs, cfg: cfg, now: time.Now}
}

// Report aggregates the closed sheets of a year. Any load failure discards
// the whole report.
func (s *annualService) Report(ctx context.Context, orgID uuid.UUID, year int) (*annual.Report, error) {
	if year < 2000 || year > s.now().Year()+1 {
		return nil, newError(ErrInvalid, "Année invalide")
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	sheets, err := s.sheets.ListClosedWithLines(ctx, orgID, from, from.AddDate(1, 0, 0))
	if err != nil {
		return nil, s.loadFailed(orgID, year, fmt.Errorf("sheets: %w", err))
	}
	previous, err := s.sheets.ListClosedWithLines(ctx, orgID, from.AddDate(-1, 0, 0), from)
	if err != nil {
		return nil, s.loadFailed(orgID, year, fmt.Errorf("previous sheets: %w", err))
	}
	priced, err := s.products.ListOrganizationProducts(ctx, orgID)
	if err != nil {
		return nil, s.loadFailed(orgID, year, fmt.Errorf("prices: %w", err))
	}
	prices := make(map[uuid.UUID]decimal.Decimal, len(priced))
	for _, op := range priced {
		prices[op.ProductID] = op.SellingPrice
	}

	name := s.cfg.EstablishmentFallback
	if org, err := s.orgs.FindByID(ctx, orgID); err == nil && org.Name != "" {
		name = org.Name
	}

	if len(previous) == 0 {
		previous = nil
	}
	r := annual.Build(year, name, sheets, previous, prices)
	return &r, nil
}

func (s *annualService) loadFailed(orgID uuid.UUID, year int, err error) error {
	log.Error().Err(err).Str("org_id", orgID.String()).Int("year", year).Msg("annual report load failed")
	return ErrAnnualLoad
}

func (s *annualService) PDF(ctx context.Context, orgID uuid.UUID, year int) ([]byte, error) {
	r, err := s.Report(ctx, orgID, year)
	if err != nil {
		return nil, err
	}
	return infra.AnnualPDF(*r, s.now())
}

func (s *annualService) XLSX(ctx context.Context, orgID uuid.UUID, year int) ([]byte, error) {
	r, err := s.Report(ctx, orgID, year)
	if err != nil {
		return nil, err
	}
	return infra.AnnualXLSX(*r)
}
