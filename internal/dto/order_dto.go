package dto

import "github.com/shopspring/decimal"

type CheckoutRequest struct {
	ZoneID          string `json:"zone_id" validate:"required,uuid"`
	DeliveryAddress string `json:"delivery_address" validate:"required,min=3,max=255"`
}

type OfferRequest struct {
	AmountHT         decimal.Decimal `json:"amount_ht" validate:"required,gt=0"`
	EstimatedMinutes int             `json:"estimated_minutes" validate:"required,min=1,max=1440"`
	Message          *string         `json:"message" validate:"omitempty,max=500"`
}

// StatusRequest advances a paid order through delivery.
type StatusRequest struct {
	Event string `json:"event" validate:"required,oneof=preparation_started delivery_started delivery_confirmed"`
}

type CancelRequest struct {
	Confirm bool    `json:"confirm"`
	Reason  *string `json:"reason" validate:"omitempty,max=500"`
}

type RatingRequest struct {
	Score   int     `json:"score" validate:"required,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=1000"`
}

// OrderFilter is bound from the query string of GET /v1/orders.
type OrderFilter struct {
	Status string `form:"status"`
	From   string `form:"from"` // YYYY-MM-DD
	To     string `form:"to"`   // YYYY-MM-DD
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=20"`
}

type OrderItemResponse struct {
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Quantity      int             `json:"quantity"`
	CratePrice    decimal.Decimal `json:"crate_price"`
	ConsignePrice decimal.Decimal `json:"consigne_price"`
	WithConsigne  bool            `json:"with_consigne"`
}

type OfferResponse struct {
	ID               string          `json:"id"`
	SupplierOrgID    string          `json:"supplier_org_id"`
	AmountHT         decimal.Decimal `json:"amount_ht"`
	EstimatedMinutes int             `json:"estimated_minutes"`
	Message          *string         `json:"message,omitempty"`
	Status           string          `json:"status"`
	CreatedAt        string          `json:"created_at"`
}

type OrderResponse struct {
	ID                 string              `json:"id"`
	Number             string              `json:"number"`
	Status             string              `json:"status"`
	StatusLabel        string              `json:"status_label"`
	ClientOrgID        string              `json:"client_org_id"`
	ClientName         string              `json:"client_name,omitempty"`
	SupplierOrgID      *string             `json:"supplier_org_id"`
	SupplierName       string              `json:"supplier_name,omitempty"`
	ZoneID             string              `json:"zone_id"`
	DeliveryAddress    string              `json:"delivery_address"`
	Items              []OrderItemResponse `json:"items"`
	Offers             []OfferResponse     `json:"offers"`
	Subtotal           decimal.Decimal     `json:"subtotal"`
	ConsigneTotal      decimal.Decimal     `json:"consigne_total"`
	AmountHT           *decimal.Decimal    `json:"amount_ht"`
	Commission         decimal.Decimal     `json:"commission"`
	Total              decimal.Decimal     `json:"total"`
	AllowedEvents      []string            `json:"allowed_events"`
	CancellationReason *string             `json:"cancellation_reason,omitempty"`
	CreatedAt          string              `json:"created_at"`
	PaidAt             *string             `json:"paid_at,omitempty"`
	DeliveredAt        *string             `json:"delivered_at,omitempty"`
}

type OrderListResponse struct {
	Data  []OrderResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
