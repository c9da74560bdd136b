package tenancy

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUnit(t *testing.T, rent string) *Unit {
	t.Helper()
	unit, err := NewUnit(uuid.New(), "A1", decimal.RequireFromString(rent))
	require.NoError(t, err)
	return unit
}

func TestTenant_EffectiveMonthlyRent(t *testing.T) {
	t.Run("uses unit rent", func(t *testing.T) {
		tenant, err := NewTenant(uuid.New(), newUnit(t, "1000.00"))
		require.NoError(t, err)

		rent, err := tenant.EffectiveMonthlyRent()
		require.NoError(t, err)
		assert.True(t, rent.Equal(decimal.RequireFromString("1000")))
	})

	t.Run("override wins over unit rent", func(t *testing.T) {
		tenant, err := NewTenant(uuid.New(), newUnit(t, "1000.00"))
		require.NoError(t, err)
		override := decimal.RequireFromString("850.505")
		require.NoError(t, tenant.SetRentOverride(&override))

		rent, err := tenant.EffectiveMonthlyRent()
		require.NoError(t, err)
		assert.Equal(t, "850.51", rent.StringFixed(2))
	})

	t.Run("zero override is a real value", func(t *testing.T) {
		tenant, err := NewTenant(uuid.New(), newUnit(t, "1000.00"))
		require.NoError(t, err)
		zero := decimal.Zero
		require.NoError(t, tenant.SetRentOverride(&zero))

		rent, err := tenant.EffectiveMonthlyRent()
		require.NoError(t, err)
		assert.True(t, rent.IsZero())
	})

	t.Run("no unit and no override is unavailable", func(t *testing.T) {
		tenant, err := NewTenant(uuid.New(), nil)
		require.NoError(t, err)

		_, err = tenant.EffectiveMonthlyRent()
		assert.True(t, shared.HasCode(err, CodeRentUnavailable))
	})

	t.Run("negative override rejected", func(t *testing.T) {
		tenant, err := NewTenant(uuid.New(), nil)
		require.NoError(t, err)
		negative := decimal.NewFromInt(-1)

		assert.Error(t, tenant.SetRentOverride(&negative))
		assert.Nil(t, tenant.MonthlyRentOverride)
	})
}

func TestTenant_Lease(t *testing.T) {
	tenant, err := NewTenant(uuid.New(), nil)
	require.NoError(t, err)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	bad := start
	assert.True(t, shared.HasCode(tenant.SetLease(start, &bad), "INVALID_DATE_RANGE"))

	require.NoError(t, tenant.SetLease(start, &end))
	assert.True(t, tenant.IsLeaseActive(start.AddDate(0, 6, 0)))
	assert.False(t, tenant.IsLeaseActive(start.AddDate(0, 0, -1)))
	assert.False(t, tenant.IsLeaseActive(end.AddDate(0, 0, 1)))
}

func TestTenant_Status(t *testing.T) {
	tenant, err := NewTenant(uuid.New(), nil)
	require.NoError(t, err)
	assert.False(t, tenant.IsActive())

	tenant.Activate()
	assert.True(t, tenant.IsActive())

	_, err = NewTenant(uuid.Nil, nil)
	assert.Error(t, err)
}

func TestNewUnit(t *testing.T) {
	_, err := NewUnit(uuid.New(), "B2", decimal.NewFromInt(-5))
	assert.True(t, shared.HasCode(err, "INVALID_AMOUNT"))

	_, err = NewUnit(uuid.Nil, "B2", decimal.Zero)
	assert.Error(t, err)

	unit := newUnit(t, "1200")
	assert.Equal(t, UnitVacant, unit.OccupiedStatus)
	require.NoError(t, unit.SetMonthlyRent(decimal.RequireFromString("1300")))
	assert.Equal(t, "1300.00", unit.MonthlyRent.StringFixed(2))
}
