//go:build integration

package persistence_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/infrastructure/persistence"
	"github.com/propledger/backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPostgres_ConcurrentChargesSerializeOnAccountRow(t *testing.T) {
	db := testutil.NewPostgresDB(t)
	fx := testutil.SeedTenant(t, db, "dora", "1000")
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				accounts := persistence.NewGormAccountRepository(tx)
				account, err := accounts.FindByIDForUpdate(ctx, fx.Account.ID)
				if err != nil {
					return err
				}
				charge, err := finance.NewTransaction(account.ID, finance.TransactionTypeCharge, decimal.NewFromInt(10), finance.TransactionDetails{})
				if err != nil {
					return err
				}
				if err := persistence.NewGormTransactionRepository(tx).Create(ctx, charge); err != nil {
					return err
				}
				if err := account.Apply(charge); err != nil {
					return err
				}
				return accounts.SaveWithLock(ctx, account)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	account, err := persistence.NewGormAccountRepository(db).FindByID(ctx, fx.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, "-200.00", account.Balance.StringFixed(2))
	assert.Equal(t, fx.Account.Version+workers, account.Version)
}

func TestPostgres_SequenceAllocatorHandsOutDistinctNumbers(t *testing.T) {
	db := testutil.NewPostgresDB(t)
	ctx := context.Background()

	const workers = 25
	var (
		mu  sync.Mutex
		got []int64
		wg  sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Transaction(func(tx *gorm.DB) error {
				n, err := persistence.NewGormSequenceAllocator(db).WithTx(tx).Next(ctx, "INV-202501")
				if err != nil {
					return err
				}
				mu.Lock()
				got = append(got, n)
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	require.Len(t, got, workers)
	for i, n := range got {
		assert.Equal(t, int64(i+1), n)
	}
}
