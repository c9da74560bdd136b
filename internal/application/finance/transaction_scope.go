package finance

import (
	"context"

	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/domain/tenancy"
)

// LedgerTransactionScope provides transactional access to the ledger repositories.
// Every repository handed to fn shares one database transaction: when fn returns an
// error nothing it wrote is kept.
type LedgerTransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos LedgerRepositories) error) error
}

// LedgerRepositories provides access to all ledger repositories within a transaction.
//
// Aggregate boundary notes:
//   - AccountRepo is only written through the BalanceEngine.
//   - InvoiceRepo saves invoices together with their items.
//   - TransactionRepo and ReceiptRepo are append-only apart from the reversal flag.
//   - Sequences allocates document numbers that commit or roll back with the documents using them.
type LedgerRepositories interface {
	AccountRepo() finance.AccountRepository
	TransactionRepo() finance.TransactionRepository
	BillingPeriodRepo() finance.BillingPeriodRepository
	ChargeTypeRepo() finance.ChargeTypeRepository
	InvoiceRepo() finance.InvoiceRepository
	UtilityChargeRepo() finance.UtilityChargeRepository
	PaymentRepo() finance.PaymentRepository
	RentPaymentRepo() finance.RentPaymentRepository
	ReceiptRepo() finance.ReceiptRepository
	TenantRepo() tenancy.TenantRepository
	Sequences() finance.SequenceAllocator
}

// NoOpLedgerTransactionScope runs the callback against a fixed set of repositories
// without opening a transaction. Useful in tests and read paths.
type NoOpLedgerTransactionScope struct {
	repos LedgerRepositories
}

// NewNoOpLedgerTransactionScope creates a NoOpLedgerTransactionScope over repos
func NewNoOpLedgerTransactionScope(repos LedgerRepositories) *NoOpLedgerTransactionScope {
	return &NoOpLedgerTransactionScope{repos: repos}
}

// Execute runs fn without a real transaction
func (s *NoOpLedgerTransactionScope) Execute(_ context.Context, fn func(repos LedgerRepositories) error) error {
	return fn(s.repos)
}

var _ LedgerTransactionScope = (*NoOpLedgerTransactionScope)(nil)
