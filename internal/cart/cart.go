// Package cart is the client's basket as an explicit store: a State value and
// the typed actions that transform it. Reduce never mutates its input.
package cart

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ActionType string

const (
	AddItem        ActionType = "add_item"
	UpdateQuantity ActionType = "update_quantity"
	ToggleConsigne ActionType = "toggle_consigne"
	RemoveItem     ActionType = "remove_item"
	Clear          ActionType = "clear"
)

var (
	ErrUnknownAction   = errors.New("action de panier inconnue")
	ErrItemNotInCart   = errors.New("produit absent du panier")
	ErrInvalidQuantity = errors.New("la quantité doit être positive")
)

// Item is one product line. Prices are per crate.
type Item struct {
	ProductID     uuid.UUID       `json:"product_id"`
	Reference     string          `json:"reference"`
	Name          string          `json:"name"`
	CrateType     string          `json:"crate_type"`
	CratePrice    decimal.Decimal `json:"crate_price"`
	ConsignePrice decimal.Decimal `json:"consigne_price"`
	Quantity      int             `json:"quantity"`
	WithConsigne  bool            `json:"with_consigne"`
}

type State struct {
	Items []Item `json:"items"`
}

// Action is a single cart command. Item is read by add_item, Quantity by
// add_item and update_quantity, ProductID by every action except clear.
type Action struct {
	Type      ActionType `json:"type"`
	ProductID uuid.UUID  `json:"product_id"`
	Quantity  int        `json:"quantity"`
	Item      *Item      `json:"item,omitempty"`
}

// Reduce applies a to s and returns the new state. Adding a product already in
// the cart increases its quantity; setting a quantity of zero removes the line.
func Reduce(s State, a Action) (State, error) {
	items := make([]Item, len(s.Items))
	copy(items, s.Items)

	switch a.Type {
	case AddItem:
		if a.Item == nil {
			return s, fmt.Errorf("%w: item manquant", ErrUnknownAction)
		}
		qty := a.Quantity
		if qty == 0 {
			qty = a.Item.Quantity
		}
		if qty <= 0 {
			return s, ErrInvalidQuantity
		}
		if i := indexOf(items, a.Item.ProductID); i >= 0 {
			items[i].Quantity += qty
			return State{Items: items}, nil
		}
		it := *a.Item
		it.Quantity = qty
		return State{Items: append(items, it)}, nil

	case UpdateQuantity:
		i := indexOf(items, a.ProductID)
		if i < 0 {
			return s, ErrItemNotInCart
		}
		if a.Quantity < 0 {
			return s, ErrInvalidQuantity
		}
		if a.Quantity == 0 {
			return State{Items: append(items[:i], items[i+1:]...)}, nil
		}
		items[i].Quantity = a.Quantity
		return State{Items: items}, nil

	case ToggleConsigne:
		i := indexOf(items, a.ProductID)
		if i < 0 {
			return s, ErrItemNotInCart
		}
		items[i].WithConsigne = !items[i].WithConsigne
		return State{Items: items}, nil

	case RemoveItem:
		i := indexOf(items, a.ProductID)
		if i < 0 {
			return s, ErrItemNotInCart
		}
		return State{Items: append(items[:i], items[i+1:]...)}, nil

	case Clear:
		return State{Items: []Item{}}, nil
	}
	return s, fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
}

func indexOf(items []Item, id uuid.UUID) int {
	for i := range items {
		if items[i].ProductID == id {
			return i
		}
	}
	return -1
}

type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	ConsigneTotal decimal.Decimal `json:"consigne_total"`
	Total         decimal.Decimal `json:"total"`
	ItemCount     int             `json:"item_count"`
}

// ComputeTotals sums crate prices for every line and consigne prices only for
// lines flagged WithConsigne.
func ComputeTotals(s State) Totals {
	t := Totals{Subtotal: decimal.Zero, ConsigneTotal: decimal.Zero}
	for _, it := range s.Items {
		q := decimal.NewFromInt(int64(it.Quantity))
		t.Subtotal = t.Subtotal.Add(it.CratePrice.Mul(q))
		if it.WithConsigne {
			t.ConsigneTotal = t.ConsigneTotal.Add(it.ConsignePrice.Mul(q))
		}
		t.ItemCount += it.Quantity
	}
	t.Total = t.Subtotal.Add(t.ConsigneTotal)
	return t
}

// Empty reports whether the cart holds no line.
func (s State) Empty() bool { return len(s.Items) == 0 }
