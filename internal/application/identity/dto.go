package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/propledger/backend/internal/domain/tenancy"
	"github.com/shopspring/decimal"
)

// CreateUserRequest contains input for creating a user.
// Tenant is only honoured for the tenant role and registers the tenancy in the same unit of work.
type CreateUserRequest struct {
	Username    string
	Password    string
	Role        identity.Role
	Email       string
	FirstName   string
	LastName    string
	Phone       string
	CreditLimit decimal.Decimal
	Tenant      *TenantProfile
}

// TenantProfile describes the tenancy opened alongside a tenant user
type TenantProfile struct {
	UnitID              *uuid.UUID
	MonthlyRentOverride *decimal.Decimal
	LeaseStartDate      *time.Time
	LeaseEndDate        *time.Time
	Activate            bool
}

// UserResponse represents a user with the account opened for it
type UserResponse struct {
	ID        uuid.UUID  `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email,omitempty"`
	FirstName string     `json:"first_name,omitempty"`
	LastName  string     `json:"last_name,omitempty"`
	FullName  string     `json:"full_name"`
	Phone     string     `json:"phone,omitempty"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	AccountID uuid.UUID  `json:"account_id"`
	TenantID  *uuid.UUID `json:"tenant_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func toUserResponse(u *identity.User, account *finance.Account, tenant *tenancy.Tenant) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Phone:     u.Phone,
		Role:      u.Role.String(),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
	if account != nil {
		resp.AccountID = account.ID
	}
	if tenant != nil {
		resp.TenantID = &tenant.ID
	}
	return resp
}
