package dto

import "ravito/internal/cart"

// CartActionRequest carries one cart action. Product details are resolved from
// the catalog on add_item, the client only sends the product id.
type CartActionRequest struct {
	Type      string `json:"type" validate:"required,oneof=add_item update_quantity toggle_consigne remove_item clear"`
	ProductID string `json:"product_id" validate:"required_unless=Type clear,omitempty,uuid"`
	Quantity  int    `json:"quantity" validate:"min=0,max=1000"`
	// WithConsigne applies to add_item only
	WithConsigne bool `json:"with_consigne"`
}

type CartResponse struct {
	Items  []cart.Item `json:"items"`
	Totals cart.Totals `json:"totals"`
}
