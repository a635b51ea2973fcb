package dto

type ZoneRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=80"`
	Description *string `json:"description" validate:"omitempty,max=255"`
	Active      *bool   `json:"active"`
}

type ZoneResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Active      bool    `json:"active"`
}

type SupplierZoneRequest struct {
	ZoneID string `json:"zone_id" validate:"required,uuid"`
}

type SupplierZoneResponse struct {
	ID              string  `json:"id"`
	SupplierOrgID   string  `json:"supplier_org_id"`
	ZoneID          string  `json:"zone_id"`
	ZoneName        string  `json:"zone_name"`
	Status          string  `json:"status"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	CreatedAt       string  `json:"created_at"`
}
