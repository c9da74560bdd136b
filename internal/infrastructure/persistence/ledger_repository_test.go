package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/domain/tenancy"
	"github.com/propledger/backend/internal/infrastructure/persistence"
	"github.com/propledger/backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_SaveWithLock(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	fx := testutil.SeedTenant(t, db, "alice", "1000")
	repo := persistence.NewGormAccountRepository(db)

	first, err := repo.FindByUserID(ctx, fx.User.ID)
	require.NoError(t, err)
	stale, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)

	charge, err := finance.NewTransaction(first.ID, finance.TransactionTypeCharge, decimal.NewFromInt(250), finance.TransactionDetails{})
	require.NoError(t, err)
	require.NoError(t, first.Apply(charge))
	require.NoError(t, repo.SaveWithLock(ctx, first))

	require.NoError(t, stale.Apply(charge))
	err = repo.SaveWithLock(ctx, stale)
	assert.True(t, shared.HasCode(err, shared.ErrConcurrencyConflict.Code))

	reloaded, err := repo.FindByIDForUpdate(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "-250.00", reloaded.Balance.StringFixed(2))
	assert.Equal(t, first.Version, reloaded.Version)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestChargeTypeRepository_CreateDuplicate(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	repo := persistence.NewGormChargeTypeRepository(db)

	rent, err := finance.NewChargeType(finance.MonthlyRentChargeName, "", finance.ChargeFrequencyRecurring, true)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, rent))

	again, err := finance.NewChargeType(finance.MonthlyRentChargeName, "", finance.ChargeFrequencyRecurring, true)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(ctx, again), shared.ErrAlreadyExists)

	found, err := repo.FindByName(ctx, finance.MonthlyRentChargeName)
	require.NoError(t, err)
	assert.Equal(t, rent.ID, found.ID)
}

func TestInvoiceRepository_SaveReplacesItems(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	fx := testutil.SeedTenant(t, db, "bob", "1000")
	period := testutil.SeedMonthlyPeriod(t, db, 2025, time.January)

	chargeTypes := persistence.NewGormChargeTypeRepository(db)
	rent, err := finance.NewChargeType(finance.MonthlyRentChargeName, "", finance.ChargeFrequencyRecurring, true)
	require.NoError(t, err)
	require.NoError(t, chargeTypes.Create(ctx, rent))
	water, err := finance.NewChargeType("Water Bill", "", finance.ChargeFrequencyRecurring, true)
	require.NoError(t, err)
	require.NoError(t, chargeTypes.Create(ctx, water))

	invoice, err := finance.NewInvoice("INV-202501-0001", fx.Tenant.ID, period, period.StartDate)
	require.NoError(t, err)
	_, err = invoice.AddItem(rent.ID, "Rent for January 2025", decimal.NewFromInt(1), decimal.NewFromInt(1000))
	require.NoError(t, err)
	waterItem, err := invoice.AddItem(water.ID, "Water for January 2025", decimal.NewFromInt(1), decimal.RequireFromString("45.50"))
	require.NoError(t, err)
	invoice.RecalculateTotals()

	repo := persistence.NewGormInvoiceRepository(db)
	require.NoError(t, repo.Save(ctx, invoice))

	loaded, err := repo.FindByTenantAndPeriod(ctx, fx.Tenant.ID, period.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, "1045.50", loaded.TotalAmount.StringFixed(2))

	_, err = loaded.RemoveItem(waterItem.ID)
	require.NoError(t, err)
	loaded.RecalculateTotals()
	require.NoError(t, repo.Save(ctx, loaded))

	byNumber, err := repo.FindByNumber(ctx, "INV-202501-0001")
	require.NoError(t, err)
	require.Len(t, byNumber.Items, 1)
	assert.Equal(t, "1000.00", byNumber.TotalAmount.StringFixed(2))

	duplicate, err := finance.NewInvoice("INV-202501-0002", fx.Tenant.ID, period, period.StartDate)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Save(ctx, duplicate), shared.ErrAlreadyExists)
}

func TestBillingPeriodRepository_FindCurrent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	jan := testutil.SeedMonthlyPeriod(t, db, 2025, time.January)
	testutil.SeedMonthlyPeriod(t, db, 2025, time.February)
	repo := persistence.NewGormBillingPeriodRepository(db)

	current, err := repo.FindCurrent(ctx, time.Date(2025, time.January, 31, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, jan.ID, current.ID)

	byStart, err := repo.FindByStartDate(ctx, jan.StartDate)
	require.NoError(t, err)
	assert.Equal(t, "January 2025", byStart.Name)

	_, err = repo.FindCurrent(ctx, time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestTransactionRepository_NetEffectBefore(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	fx := testutil.SeedTenant(t, db, "carol", "1000")
	repo := persistence.NewGormTransactionRepository(db)

	cutoff := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	post := func(txType finance.TransactionType, amount string, at time.Time) *finance.Transaction {
		tx, err := finance.NewTransaction(fx.Account.ID, txType, decimal.RequireFromString(amount), finance.TransactionDetails{})
		require.NoError(t, err)
		tx.CreatedAt = at
		tx.UpdatedAt = at
		require.NoError(t, repo.Create(ctx, tx))
		return tx
	}

	post(finance.TransactionTypeCharge, "1000", cutoff.AddDate(0, 0, -20))
	post(finance.TransactionTypePayment, "600", cutoff.AddDate(0, 0, -10))
	reversed := post(finance.TransactionTypePayment, "50", cutoff.AddDate(0, 0, -5))
	post(finance.TransactionTypePayment, "400", cutoff.AddDate(0, 0, 3))

	reversal, err := reversed.Reverse(uuid.Nil, "bounced")
	require.NoError(t, err)
	reversal.CreatedAt = cutoff.AddDate(0, 0, -4)
	require.NoError(t, repo.Save(ctx, reversed))
	require.NoError(t, repo.Create(ctx, reversal))

	net, err := repo.NetEffectBefore(ctx, fx.Account.ID, cutoff)
	require.NoError(t, err)
	assert.Equal(t, "-400.00", net.StringFixed(2))

	inRange, err := repo.FindInRange(ctx, fx.Account.ID, cutoff, cutoff.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Len(t, inRange, 1)

	byTxID, err := repo.FindByTransactionID(ctx, reversal.TransactionID)
	require.NoError(t, err)
	assert.True(t, byTxID.IsReversal())
}

func TestGormSequenceAllocator_NextAndCurrent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	alloc := persistence.NewGormSequenceAllocator(db)

	current, err := alloc.Current(ctx, "INV-202501")
	require.NoError(t, err)
	assert.Zero(t, current)

	for want := int64(1); want <= 3; want++ {
		got, err := alloc.Next(ctx, "INV-202501")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	other, err := alloc.Next(ctx, "RCT-202501")
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)

	current, err = alloc.Current(ctx, "INV-202501")
	require.NoError(t, err)
	assert.Equal(t, int64(3), current)
}

func TestPropertyAndUnitRepositories(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := testutil.ContextWithTimeout(t, 5*time.Second)
	properties := persistence.NewGormPropertyRepository(db)
	units := persistence.NewGormUnitRepository(db)

	property, err := tenancy.NewProperty("Harbour View", "12 Quay Street")
	require.NoError(t, err)
	require.NoError(t, properties.Save(ctx, property))

	unit, err := tenancy.NewUnit(property.ID, "4B", decimal.RequireFromString("950.00"))
	require.NoError(t, err)
	require.NoError(t, units.Save(ctx, unit))

	require.NoError(t, unit.SetMonthlyRent(decimal.RequireFromString("1025.00")))
	require.NoError(t, units.Save(ctx, unit))

	loadedUnit, err := units.FindByID(ctx, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, property.ID, loadedUnit.PropertyID)
	assert.Equal(t, "1025.00", loadedUnit.MonthlyRent.StringFixed(2))
	assert.Equal(t, tenancy.UnitVacant, loadedUnit.OccupiedStatus)

	loadedProperty, err := properties.FindByID(ctx, property.ID)
	require.NoError(t, err)
	assert.Equal(t, "Harbour View", loadedProperty.Name)

	_, err = properties.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
