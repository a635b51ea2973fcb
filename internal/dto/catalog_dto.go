package dto

import "github.com/shopspring/decimal"

type ProductRequest struct {
	Reference     string          `json:"reference" validate:"required,min=2,max=40"`
	Name          string          `json:"name" validate:"required,min=2,max=120"`
	Brand         string          `json:"brand" validate:"required,max=80"`
	Category      string          `json:"category" validate:"required,max=60"`
	CrateType     string          `json:"crate_type" validate:"required,max=20"`
	CratePrice    decimal.Decimal `json:"crate_price" validate:"required,gt=0"`
	ConsignePrice decimal.Decimal `json:"consigne_price" validate:"min=0"`
	UnitPrice     decimal.Decimal `json:"unit_price" validate:"required,gt=0"`
	Active        *bool           `json:"active"`
}

type ProductResponse struct {
	ID            string          `json:"id"`
	Reference     string          `json:"reference"`
	Name          string          `json:"name"`
	Brand         string          `json:"brand"`
	Category      string          `json:"category"`
	CrateType     string          `json:"crate_type"`
	CratePrice    decimal.Decimal `json:"crate_price"`
	ConsignePrice decimal.Decimal `json:"consigne_price"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Consignable   bool            `json:"consignable"`
	Active        bool            `json:"active"`
}

type OrganizationPriceRequest struct {
	SellingPrice decimal.Decimal `json:"selling_price" validate:"required,gt=0"`
}

type OrganizationPriceResponse struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	CrateType    string          `json:"crate_type"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}
