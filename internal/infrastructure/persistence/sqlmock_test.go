package persistence_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/persistence"
	"github.com/propledger/backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_SaveWithLock_StaleVersion(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	defer mdb.Close()

	account, err := finance.NewAccount(uuid.New(), decimal.Zero)
	require.NoError(t, err)
	account.MarkModified()

	mdb.Mock.ExpectExec(`UPDATE "accounts" SET .* WHERE id = \$5 AND version = \$6`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), account.Version, account.ID, account.Version-1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = persistence.NewGormAccountRepository(mdb.DB).SaveWithLock(context.Background(), account)
	assert.True(t, shared.HasCode(err, shared.ErrConcurrencyConflict.Code))
	mdb.ExpectationsWereMet(t)
}

func TestGormSequenceAllocator_LocksCounterRow(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	defer mdb.Close()

	mdb.Mock.ExpectBegin()
	mdb.Mock.ExpectExec(`INSERT INTO "document_sequences" .* ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mdb.Mock.ExpectExec(`UPDATE "document_sequences" SET "last_value"=last_value \+ 1,"updated_at"=\$1 WHERE scope = \$2`).
		WithArgs(sqlmock.AnyArg(), "RCT-202501").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mdb.Mock.ExpectQuery(`SELECT .*last_value.* FROM "document_sequences" WHERE scope = \$1`).
		WithArgs("RCT-202501").
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(17))
	mdb.Mock.ExpectCommit()

	n, err := persistence.NewGormSequenceAllocator(mdb.DB).Next(context.Background(), "RCT-202501")
	require.NoError(t, err)
	assert.Equal(t, int64(17), n)
	mdb.ExpectationsWereMet(t)
}

func TestTransactionRepository_Save_Missing(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	defer mdb.Close()

	tx := &finance.Transaction{BaseEntity: shared.NewBaseEntity(), IsReversed: true}
	mdb.Mock.ExpectExec(`UPDATE "transactions" SET "is_reversed"=\$1,"updated_at"=\$2 WHERE id = \$3`).
		WithArgs(true, sqlmock.AnyArg(), tx.ID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := persistence.NewGormTransactionRepository(mdb.DB).Save(context.Background(), tx)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	mdb.ExpectationsWereMet(t)
}
