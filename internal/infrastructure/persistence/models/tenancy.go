package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/tenancy"
	"github.com/shopspring/decimal"
)

// PropertyModel is the persistence model for a managed property
type PropertyModel struct {
	BaseModel
	Name      string     `gorm:"type:varchar(200);not null"`
	Address   string     `gorm:"type:text"`
	ManagerID *uuid.UUID `gorm:"type:uuid;index"`
	IsActive  bool       `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (PropertyModel) TableName() string {
	return "properties"
}

// ToDomain converts the persistence model to a domain Property
func (m *PropertyModel) ToDomain() *tenancy.Property {
	return &tenancy.Property{
		BaseEntity: m.entity(),
		Name:       m.Name,
		Address:    m.Address,
		ManagerID:  m.ManagerID,
		IsActive:   m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Property
func (m *PropertyModel) FromDomain(p *tenancy.Property) {
	m.setEntity(p.BaseEntity)
	m.Name = p.Name
	m.Address = p.Address
	m.ManagerID = p.ManagerID
	m.IsActive = p.IsActive
}

// UnitModel is the persistence model for a rentable unit
type UnitModel struct {
	BaseModel
	PropertyID     uuid.UUID              `gorm:"type:uuid;not null;index;uniqueIndex:idx_unit_property_number,priority:1"`
	Name           string                 `gorm:"type:varchar(100)"`
	UnitNumber     string                 `gorm:"type:varchar(20);not null;uniqueIndex:idx_unit_property_number,priority:2"`
	OccupiedStatus tenancy.OccupiedStatus `gorm:"type:varchar(20);not null;default:'vacant'"`
	MonthlyRent    decimal.Decimal        `gorm:"type:decimal(12,2);not null"`
	DepositAmount  decimal.Decimal        `gorm:"type:decimal(12,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (UnitModel) TableName() string {
	return "units"
}

// ToDomain converts the persistence model to a domain Unit
func (m *UnitModel) ToDomain() *tenancy.Unit {
	return &tenancy.Unit{
		BaseEntity:     m.entity(),
		PropertyID:     m.PropertyID,
		Name:           m.Name,
		UnitNumber:     m.UnitNumber,
		OccupiedStatus: m.OccupiedStatus,
		MonthlyRent:    m.MonthlyRent,
		DepositAmount:  m.DepositAmount,
	}
}

// FromDomain populates the persistence model from a domain Unit
func (m *UnitModel) FromDomain(u *tenancy.Unit) {
	m.setEntity(u.BaseEntity)
	m.PropertyID = u.PropertyID
	m.Name = u.Name
	m.UnitNumber = u.UnitNumber
	m.OccupiedStatus = u.OccupiedStatus
	m.MonthlyRent = u.MonthlyRent
	m.DepositAmount = u.DepositAmount
}

// TenantModel is the persistence model for a tenant.
// Unit is preloaded when UnitID is set.
type TenantModel struct {
	BaseModel
	UserID              uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex"`
	UnitID              *uuid.UUID           `gorm:"type:uuid;index"`
	Status              tenancy.TenantStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	MonthlyRentOverride *decimal.Decimal     `gorm:"type:decimal(12,2)"`
	LeaseStartDate      *time.Time           `gorm:"type:date"`
	LeaseEndDate        *time.Time           `gorm:"type:date"`
	Notes               string               `gorm:"type:text"`
	Unit                *UnitModel           `gorm:"foreignKey:UnitID;references:ID"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant
func (m *TenantModel) ToDomain() *tenancy.Tenant {
	t := &tenancy.Tenant{
		BaseEntity:          m.entity(),
		UserID:              m.UserID,
		UnitID:              m.UnitID,
		Status:              m.Status,
		MonthlyRentOverride: m.MonthlyRentOverride,
		LeaseStartDate:      m.LeaseStartDate,
		LeaseEndDate:        m.LeaseEndDate,
		Notes:               m.Notes,
	}
	if m.Unit != nil {
		t.Unit = m.Unit.ToDomain()
	}
	return t
}

// FromDomain populates the persistence model from a domain Tenant.
// The unit association is never written through the tenant.
func (m *TenantModel) FromDomain(t *tenancy.Tenant) {
	m.setEntity(t.BaseEntity)
	m.UserID = t.UserID
	m.UnitID = t.UnitID
	m.Status = t.Status
	m.MonthlyRentOverride = t.MonthlyRentOverride
	m.LeaseStartDate = t.LeaseStartDate
	m.LeaseEndDate = t.LeaseEndDate
	m.Notes = t.Notes
}
