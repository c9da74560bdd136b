package tenancy

import (
	"context"

	"github.com/google/uuid"
)

// PropertyRepository defines the interface for property persistence
type PropertyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Property, error)
	Save(ctx context.Context, property *Property) error
}

// UnitRepository defines the interface for unit persistence
type UnitRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Unit, error)
	Save(ctx context.Context, unit *Unit) error
}

// TenantRepository defines the interface for tenant persistence.
// Tenants are returned with their Unit loaded.
type TenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Tenant, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Tenant, error)
	FindActive(ctx context.Context) ([]Tenant, error)
	Save(ctx context.Context, tenant *Tenant) error
}
