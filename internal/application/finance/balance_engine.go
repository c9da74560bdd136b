package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/finance"
	"go.uber.org/zap"
)

// BalanceEngine is the only code path that moves an account balance.
// Both operations must run inside a LedgerTransactionScope so the transaction row,
// the reversal flag and the balance commit together.
type BalanceEngine struct {
	logger *zap.Logger
}

// NewBalanceEngine creates a BalanceEngine
func NewBalanceEngine(logger *zap.Logger) *BalanceEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BalanceEngine{logger: logger}
}

// Post persists tx and applies its balance effect to the locked account
func (e *BalanceEngine) Post(ctx context.Context, repos LedgerRepositories, tx *finance.Transaction) (*finance.Account, error) {
	account, err := repos.AccountRepo().FindByIDForUpdate(ctx, tx.AccountID)
	if err != nil {
		return nil, fmt.Errorf("lock account %s: %w", tx.AccountID, err)
	}

	if err := repos.TransactionRepo().Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	if err := account.Apply(tx); err != nil {
		return nil, err
	}
	if err := repos.AccountRepo().SaveWithLock(ctx, account); err != nil {
		return nil, err
	}

	e.logger.Debug("Transaction posted",
		zap.String("transaction_id", tx.TransactionID.String()),
		zap.String("account_id", account.ID.String()),
		zap.String("type", tx.TransactionType.String()),
		zap.String("amount", tx.Amount.StringFixed(2)),
		zap.String("balance", account.Balance.StringFixed(2)),
	)
	return account, nil
}

// Reverse flags the original transaction reversed, records the offsetting reversal
// and undoes the original's balance effect. A second call fails with ALREADY_REVERSED
// and changes nothing.
func (e *BalanceEngine) Reverse(ctx context.Context, repos LedgerRepositories, originalID uuid.UUID, actor uuid.UUID, reason string) (*finance.Transaction, *finance.Account, error) {
	original, err := repos.TransactionRepo().FindByIDForUpdate(ctx, originalID)
	if err != nil {
		return nil, nil, err
	}

	reversal, err := original.Reverse(actor, reason)
	if err != nil {
		return nil, nil, err
	}

	account, err := repos.AccountRepo().FindByIDForUpdate(ctx, original.AccountID)
	if err != nil {
		return nil, nil, fmt.Errorf("lock account %s: %w", original.AccountID, err)
	}

	if err := repos.TransactionRepo().Save(ctx, original); err != nil {
		return nil, nil, fmt.Errorf("flag transaction reversed: %w", err)
	}
	if err := repos.TransactionRepo().Create(ctx, reversal); err != nil {
		return nil, nil, fmt.Errorf("create reversal: %w", err)
	}
	if err := account.Revert(original); err != nil {
		return nil, nil, err
	}
	if err := repos.AccountRepo().SaveWithLock(ctx, account); err != nil {
		return nil, nil, err
	}

	e.logger.Info("Transaction reversed",
		zap.String("transaction_id", original.TransactionID.String()),
		zap.String("reversal_id", reversal.TransactionID.String()),
		zap.String("account_id", account.ID.String()),
		zap.String("balance", account.Balance.StringFixed(2)),
	)
	return reversal, account, nil
}
