package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// RegisterRequest opens an account for a client (bar, maquis) or a supplier
// (depot). Suppliers list the delivery zones they want to serve.
type RegisterRequest struct {
	Email                 string   `json:"email" validate:"required,email_basic"`
	Phone                 string   `json:"phone" validate:"required,phone_ci"`
	FullName              string   `json:"full_name" validate:"required,fullname"`
	Password              string   `json:"password" validate:"required,password_policy"`
	Role                  string   `json:"role" validate:"required,oneof=client supplier"`
	OrganizationName      string   `json:"organization_name" validate:"required,min=2,max=120"`
	Address               *string  `json:"address" validate:"omitempty,max=255"`
	SalesRepresentativeID *string  `json:"sales_representative_id" validate:"omitempty,uuid"`
	ZoneIDs               []string `json:"zone_ids" validate:"omitempty,dive,uuid"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email_basic"`
	Password string `json:"password" validate:"required,min=1"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// ConfirmRequest guards irreversible actions.
type ConfirmRequest struct {
	Confirm bool `json:"confirm"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UserResponse struct {
	ID               string  `json:"id"`
	Email            string  `json:"email"`
	Phone            string  `json:"phone"`
	FullName         string  `json:"full_name"`
	Role             string  `json:"role"`
	Status           string  `json:"status"`
	OrganizationID   string  `json:"organization_id"`
	OrganizationName string  `json:"organization_name,omitempty"`
	RejectionReason  *string `json:"rejection_reason,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // seconds
	User         UserResponse `json:"user"`
}

type SalesRepresentativeResponse struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Phone *string `json:"phone"`
}

type OrganizationNameResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
