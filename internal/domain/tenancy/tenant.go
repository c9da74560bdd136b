package tenancy

import (
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CodeRentUnavailable is returned when a tenant's rent cannot be resolved
const CodeRentUnavailable = "RENT_UNAVAILABLE"

// TenantStatus represents the lifecycle status of a tenant
type TenantStatus string

const (
	TenantStatusPending   TenantStatus = "pending"
	TenantStatusActive    TenantStatus = "active"
	TenantStatusInactive  TenantStatus = "inactive"
	TenantStatusSuspended TenantStatus = "suspended"
	TenantStatusMovedOut  TenantStatus = "moved_out"
)

// IsValid checks if the status is known
func (s TenantStatus) IsValid() bool {
	switch s {
	case TenantStatusPending, TenantStatusActive, TenantStatusInactive, TenantStatusSuspended, TenantStatusMovedOut:
		return true
	}
	return false
}

// Tenant is a renter occupying a unit. The tenant's ledger account belongs to UserID.
type Tenant struct {
	shared.BaseEntity
	UserID              uuid.UUID
	UnitID              *uuid.UUID
	Status              TenantStatus
	MonthlyRentOverride *decimal.Decimal
	LeaseStartDate      *time.Time
	LeaseEndDate        *time.Time
	Notes               string

	// Unit is loaded by the repository when UnitID is set
	Unit *Unit
}

// NewTenant creates a pending tenant for a user
func NewTenant(userID uuid.UUID, unit *Unit) (*Tenant, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	t := &Tenant{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		Status:     TenantStatusPending,
	}
	if unit != nil {
		t.UnitID = &unit.ID
		t.Unit = unit
	}
	return t, nil
}

// Activate moves the tenant into the active status
func (t *Tenant) Activate() {
	t.Status = TenantStatusActive
	t.Touch()
}

// IsActive reports whether the tenant is billed
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// SetRentOverride sets or clears (nil) the tenant's monthly rent override
func (t *Tenant) SetRentOverride(rent *decimal.Decimal) error {
	if rent != nil {
		if rent.IsNegative() {
			return shared.NewDomainError("INVALID_AMOUNT", "Monthly rent override cannot be negative")
		}
		rounded := shared.RoundMoney(*rent)
		rent = &rounded
	}
	t.MonthlyRentOverride = rent
	t.Touch()
	return nil
}

// SetLease sets the lease dates. The end date, when given, must be after the start.
func (t *Tenant) SetLease(start time.Time, end *time.Time) error {
	if end != nil && !end.After(start) {
		return shared.NewDomainError("INVALID_DATE_RANGE", "Lease end date must be after start date")
	}
	t.LeaseStartDate = &start
	t.LeaseEndDate = end
	t.Touch()
	return nil
}

// EffectiveMonthlyRent returns the override when set, otherwise the unit's rent.
// A tenant with neither has no resolvable rent.
func (t *Tenant) EffectiveMonthlyRent() (decimal.Decimal, error) {
	if t.MonthlyRentOverride != nil {
		return *t.MonthlyRentOverride, nil
	}
	if t.Unit == nil {
		return decimal.Zero, shared.NewDomainError(CodeRentUnavailable, "Tenant has no unit and no rent override")
	}
	return t.Unit.MonthlyRent, nil
}

// IsLeaseActive reports whether the lease covers the given day
func (t *Tenant) IsLeaseActive(on time.Time) bool {
	if t.LeaseStartDate != nil && on.Before(*t.LeaseStartDate) {
		return false
	}
	return t.LeaseEndDate == nil || !on.After(*t.LeaseEndDate)
}
