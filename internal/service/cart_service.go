package service

import (
	"context"
	"errors"

	"ravito/internal/cart"
	"ravito/internal/dto"
	"ravito/internal/repository"

	"github.com/google/uuid"
)

type CartService interface {
	Get(ctx context.Context, userID uuid.UUID) (*dto.CartResponse, error)
	// Apply runs one action through the cart reducer and persists the result.
	Apply(ctx context.Context, userID uuid.UUID, req dto.CartActionRequest) (*dto.CartResponse, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type cartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository) CartService {
	return &cartService{carts: carts, products: products}
}

func (s *cartService) Get(ctx context.Context, userID uuid.UUID) (*dto.CartResponse, error) {
	st, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toCartResponse(st), nil
}

func (s *cartService) Apply(ctx context.Context, userID uuid.UUID, req dto.CartActionRequest) (*dto.CartResponse, error) {
	action := cart.Action{Type: cart.ActionType(req.Type), Quantity: req.Quantity}
	if req.ProductID != "" {
		id, err := uuid.Parse(req.ProductID)
		if err != nil {
			return nil, ErrProductNotFound
		}
		action.ProductID = id
	}

	if action.Type == cart.AddItem {
		p, err := s.products.FindByID(ctx, action.ProductID)
		if err != nil {
			if isNotFound(err) {
				return nil, ErrProductNotFound
			}
			return nil, err
		}
		if !p.Active {
			return nil, ErrProductInactive
		}
		action.Item = &cart.Item{
			ProductID:     p.ID,
			Reference:     p.Reference,
			Name:          p.Name,
			CrateType:     p.CrateType,
			CratePrice:    p.CratePrice,
			ConsignePrice: p.ConsignePrice,
			Quantity:      req.Quantity,
			WithConsigne:  req.WithConsigne && p.Consignable(),
		}
	}

	st, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	next, err := cart.Reduce(st, action)
	if err != nil {
		return nil, cartError(err)
	}
	if err := s.carts.Save(ctx, userID, next); err != nil {
		return nil, err
	}
	return toCartResponse(next), nil
}

func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.carts.Delete(ctx, userID)
}

func cartError(err error) error {
	switch {
	case errors.Is(err, cart.ErrItemNotInCart):
		return newError(ErrNotFound, cart.ErrItemNotInCart.Error())
	case errors.Is(err, cart.ErrInvalidQuantity):
		return newError(ErrInvalid, cart.ErrInvalidQuantity.Error())
	case errors.Is(err, cart.ErrUnknownAction):
		return newError(ErrInvalid, cart.ErrUnknownAction.Error())
	}
	return err
}

func toCartResponse(st cart.State) *dto.CartResponse {
	items := st.Items
	if items == nil {
		items = []cart.Item{}
	}
	return &dto.CartResponse{Items: items, Totals: cart.ComputeTotals(st)}
}
