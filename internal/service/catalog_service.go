package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"ravito/internal/config"
	"ravito/internal/dto"
	"ravito/internal/model"
	"ravito/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const catalogCacheKey = "catalog:products"

type CatalogService interface {
	// ListProducts returns the active catalog, served from cache when warm.
	ListProducts(ctx context.Context) ([]dto.ProductResponse, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	CreateProduct(ctx context.Context, req dto.ProductRequest) (*dto.ProductResponse, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req dto.ProductRequest) (*dto.ProductResponse, error)

	SetOrganizationPrice(ctx context.Context, orgID, productID uuid.UUID, req dto.OrganizationPriceRequest) (*dto.OrganizationPriceResponse, error)
	ListOrganizationPrices(ctx context.Context, orgID uuid.UUID) ([]dto.OrganizationPriceResponse, error)
}

type catalogService struct {
	products repository.ProductRepository
	cache    Cache
	ttl      time.Duration
}

func NewCatalogService(products repository.ProductRepository, cache Cache, cfg *config.Config) CatalogService {
	return &catalogService{
		products: products,
		cache:    cache,
		ttl:      time.Duration(cfg.CatalogCacheTTLMinutes) * time.Minute,
	}
}

func (s *catalogService) ListProducts(ctx context.Context) ([]dto.ProductResponse, error) {
	if raw, err := s.cache.Get(ctx, catalogCacheKey); err == nil {
		var cached []dto.ProductResponse
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	products, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ProductResponse, len(products))
	for i := range products {
		resp[i] = toProductResponse(&products[i])
	}

	if raw, err := json.Marshal(resp); err == nil {
		if err := s.cache.Set(ctx, catalogCacheKey, raw, s.ttl); err != nil {
			log.Warn().Err(err).Msg("catalog: cache write failed")
		}
	}
	return resp, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toProductResponse(p)
	return &resp, nil
}

func (s *catalogService) find(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, req dto.ProductRequest) (*dto.ProductResponse, error) {
	p := &model.Product{Active: true}
	applyProduct(p, req)
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	resp := toProductResponse(p)
	return &resp, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req dto.ProductRequest) (*dto.ProductResponse, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	applyProduct(p, req)
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	resp := toProductResponse(p)
	return &resp, nil
}

func (s *catalogService) invalidate(ctx context.Context) {
	if err := s.cache.Del(ctx, catalogCacheKey); err != nil {
		log.Warn().Err(err).Msg("catalog: cache invalidation failed")
	}
}

func (s *catalogService) SetOrganizationPrice(ctx context.Context, orgID, productID uuid.UUID, req dto.OrganizationPriceRequest) (*dto.OrganizationPriceResponse, error) {
	p, err := s.find(ctx, productID)
	if err != nil {
		return nil, err
	}
	op := &model.OrganizationProduct{OrganizationID: orgID, ProductID: productID, SellingPrice: req.SellingPrice}
	if err := s.products.UpsertOrganizationPrice(ctx, op); err != nil {
		return nil, err
	}
	return &dto.OrganizationPriceResponse{
		ProductID:    p.ID.String(),
		ProductName:  p.Name,
		CrateType:    p.CrateType,
		SellingPrice: req.SellingPrice,
	}, nil
}

func (s *catalogService) ListOrganizationPrices(ctx context.Context, orgID uuid.UUID) ([]dto.OrganizationPriceResponse, error) {
	rows, err := s.products.ListOrganizationProducts(ctx, orgID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.OrganizationPriceResponse, 0, len(rows))
	for _, r := range rows {
		if r.Product == nil {
			continue
		}
		resp = append(resp, dto.OrganizationPriceResponse{
			ProductID:    r.ProductID.String(),
			ProductName:  r.Product.Name,
			CrateType:    r.Product.CrateType,
			SellingPrice: r.SellingPrice,
		})
	}
	return resp, nil
}

func applyProduct(p *model.Product, req dto.ProductRequest) {
	p.Reference = strings.ToUpper(strings.TrimSpace(req.Reference))
	p.Name = strings.TrimSpace(req.Name)
	p.Brand = strings.TrimSpace(req.Brand)
	p.Category = strings.TrimSpace(req.Category)
	p.CrateType = strings.ToUpper(strings.TrimSpace(req.CrateType))
	p.CratePrice = req.CratePrice
	p.ConsignePrice = req.ConsignePrice
	p.UnitPrice = req.UnitPrice
	if req.Active != nil {
		p.Active = *req.Active
	}
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:            p.ID.String(),
		Reference:     p.Reference,
		Name:          p.Name,
		Brand:         p.Brand,
		Category:      p.Category,
		CrateType:     p.CrateType,
		CratePrice:    p.CratePrice,
		ConsignePrice: p.ConsignePrice,
		UnitPrice:     p.UnitPrice,
		Consignable:   p.Consignable(),
		Active:        p.Active,
	}
}
