package persistence

import (
	"context"

	appfin "github.com/propledger/backend/internal/application/finance"
	appid "github.com/propledger/backend/internal/application/identity"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/propledger/backend/internal/domain/tenancy"
	"gorm.io/gorm"
)

// RepositoryOption customizes the repositories handed out by scopes
type RepositoryOption func(*repositoryConfig)

type repositoryConfig struct {
	sequences finance.SequenceAllocator
	counters  *GormSequenceAllocator
}

// WithSequenceAllocator replaces the counter-table allocator, e.g. with the Redis one.
// The replacement does not take part in the database transaction.
func WithSequenceAllocator(alloc finance.SequenceAllocator) RepositoryOption {
	return func(c *repositoryConfig) {
		c.sequences = alloc
	}
}

func newRepositoryConfig(db *gorm.DB, opts []RepositoryOption) repositoryConfig {
	cfg := repositoryConfig{counters: NewGormSequenceAllocator(db)}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// GormLedgerTransactionScope implements LedgerTransactionScope using GORM transactions.
type GormLedgerTransactionScope struct {
	db  *gorm.DB
	cfg repositoryConfig
}

// NewGormLedgerTransactionScope creates a new GormLedgerTransactionScope.
func NewGormLedgerTransactionScope(db *gorm.DB, opts ...RepositoryOption) *GormLedgerTransactionScope {
	return &GormLedgerTransactionScope{db: db, cfg: newRepositoryConfig(db, opts)}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
func (s *GormLedgerTransactionScope) Execute(ctx context.Context, fn func(repos appfin.LedgerRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepositories{tx: tx, cfg: s.cfg})
	})
}

// GormAccountOpeningScope implements AccountOpeningScope using GORM transactions.
type GormAccountOpeningScope struct {
	db *gorm.DB
}

// NewGormAccountOpeningScope creates a new GormAccountOpeningScope.
func NewGormAccountOpeningScope(db *gorm.DB) *GormAccountOpeningScope {
	return &GormAccountOpeningScope{db: db}
}

// Execute runs fn within a database transaction.
func (s *GormAccountOpeningScope) Execute(ctx context.Context, fn func(repos appid.AccountOpeningRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepositories{tx: tx, cfg: newRepositoryConfig(tx, nil)})
	})
}

// NewGormLedgerRepositories returns repositories bound to db itself, for reads outside a unit of work.
func NewGormLedgerRepositories(db *gorm.DB, opts ...RepositoryOption) appfin.LedgerRepositories {
	return &gormRepositories{tx: db, cfg: newRepositoryConfig(db, opts)}
}

// NewGormAccountOpeningRepositories returns the user-creation repositories over db for reads outside a unit of work.
func NewGormAccountOpeningRepositories(db *gorm.DB) appid.AccountOpeningRepositories {
	return &gormRepositories{tx: db, cfg: newRepositoryConfig(db, nil)}
}

// gormRepositories provides every repository over one *gorm.DB, usually a transaction.
type gormRepositories struct {
	tx  *gorm.DB
	cfg repositoryConfig
}

// AccountRepo returns the account repository scoped to the current transaction.
func (r *gormRepositories) AccountRepo() finance.AccountRepository {
	return NewGormAccountRepository(r.tx)
}

// TransactionRepo returns the ledger transaction repository scoped to the current transaction.
func (r *gormRepositories) TransactionRepo() finance.TransactionRepository {
	return NewGormTransactionRepository(r.tx)
}

// BillingPeriodRepo returns the billing period repository scoped to the current transaction.
func (r *gormRepositories) BillingPeriodRepo() finance.BillingPeriodRepository {
	return NewGormBillingPeriodRepository(r.tx)
}

// ChargeTypeRepo returns the charge type repository scoped to the current transaction.
func (r *gormRepositories) ChargeTypeRepo() finance.ChargeTypeRepository {
	return NewGormChargeTypeRepository(r.tx)
}

// InvoiceRepo returns the invoice repository scoped to the current transaction.
func (r *gormRepositories) InvoiceRepo() finance.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// UtilityChargeRepo returns the utility charge repository scoped to the current transaction.
func (r *gormRepositories) UtilityChargeRepo() finance.UtilityChargeRepository {
	return NewGormUtilityChargeRepository(r.tx)
}

// PaymentRepo returns the payment repository scoped to the current transaction.
func (r *gormRepositories) PaymentRepo() finance.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// RentPaymentRepo returns the rent payment repository scoped to the current transaction.
func (r *gormRepositories) RentPaymentRepo() finance.RentPaymentRepository {
	return NewGormRentPaymentRepository(r.tx)
}

// ReceiptRepo returns the receipt repository scoped to the current transaction.
func (r *gormRepositories) ReceiptRepo() finance.ReceiptRepository {
	return NewGormReceiptRepository(r.tx)
}

// TenantRepo returns the tenant repository scoped to the current transaction.
func (r *gormRepositories) TenantRepo() tenancy.TenantRepository {
	return NewGormTenantRepository(r.tx)
}

// UnitRepo returns the unit repository scoped to the current transaction.
func (r *gormRepositories) UnitRepo() tenancy.UnitRepository {
	return NewGormUnitRepository(r.tx)
}

// UserRepo returns the user repository scoped to the current transaction.
func (r *gormRepositories) UserRepo() identity.UserRepository {
	return NewGormUserRepository(r.tx)
}

// Sequences returns the document number allocator.
func (r *gormRepositories) Sequences() finance.SequenceAllocator {
	if r.cfg.sequences != nil {
		return r.cfg.sequences
	}
	return r.cfg.counters.WithTx(r.tx)
}

var (
	_ appfin.LedgerTransactionScope    = (*GormLedgerTransactionScope)(nil)
	_ appid.AccountOpeningScope        = (*GormAccountOpeningScope)(nil)
	_ appfin.LedgerRepositories        = (*gormRepositories)(nil)
	_ appid.AccountOpeningRepositories = (*gormRepositories)(nil)
)
