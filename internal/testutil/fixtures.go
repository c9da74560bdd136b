package testutil

import (
	"testing"
	"time"

	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/propledger/backend/internal/domain/tenancy"
	"github.com/propledger/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// TenantFixture is a tenant with its user, unit and opened account
type TenantFixture struct {
	User    *identity.User
	Account *finance.Account
	Unit    *tenancy.Unit
	Tenant  *tenancy.Tenant
}

// SeedTenant inserts an active tenant renting a unit at the given monthly rent.
// A zero-value rent string leaves the unit at 0.
func SeedTenant(t *testing.T, db *gorm.DB, username, monthlyRent string) *TenantFixture {
	t.Helper()

	user := SeedUser(t, db, username, identity.RoleTenant)
	account, err := finance.NewAccount(user.ID, decimal.Zero)
	require.NoError(t, err)
	accountModel := &models.AccountModel{}
	accountModel.FromDomain(account)
	require.NoError(t, db.Create(accountModel).Error)

	property, err := tenancy.NewProperty("Riverside Court", "1 River Road")
	require.NoError(t, err)
	propertyModel := &models.PropertyModel{}
	propertyModel.FromDomain(property)
	require.NoError(t, db.Create(propertyModel).Error)

	rent := decimal.Zero
	if monthlyRent != "" {
		rent = decimal.RequireFromString(monthlyRent)
	}
	unit, err := tenancy.NewUnit(property.ID, "U-"+username, rent)
	require.NoError(t, err)
	unitModel := &models.UnitModel{}
	unitModel.FromDomain(unit)
	require.NoError(t, db.Create(unitModel).Error)

	tenant, err := tenancy.NewTenant(user.ID, unit)
	require.NoError(t, err)
	tenant.Activate()
	tenantModel := &models.TenantModel{}
	tenantModel.FromDomain(tenant)
	require.NoError(t, db.Omit("Unit").Create(tenantModel).Error)

	return &TenantFixture{User: user, Account: account, Unit: unit, Tenant: tenant}
}

// SeedUser inserts a user without an account
func SeedUser(t *testing.T, db *gorm.DB, username string, role identity.Role) *identity.User {
	t.Helper()

	user, err := identity.NewUser(username, role, "")
	require.NoError(t, err)
	require.NoError(t, db.Create(models.UserModelFromDomain(user)).Error)
	return user
}

// SeedMonthlyPeriod inserts the open monthly billing period for year and month
func SeedMonthlyPeriod(t *testing.T, db *gorm.DB, year int, month time.Month) *finance.BillingPeriod {
	t.Helper()

	period := finance.NewMonthlyBillingPeriod(year, month)
	m := &models.BillingPeriodModel{}
	m.FromDomain(period)
	require.NoError(t, db.Create(m).Error)
	return period
}

// Actor resolves an actor for tests; it fails the test on an unknown role
func Actor(t *testing.T, user *identity.User) identity.Actor {
	t.Helper()

	actor, err := identity.NewActor(user.ID, user.Role)
	require.NoError(t, err)
	return actor
}
