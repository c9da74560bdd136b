package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AccountFilter defines filtering options for account queries
type AccountFilter struct {
	shared.Filter
	InDebt *bool
}

// AccountRepository defines the interface for account persistence
type AccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Account, error)

	// FindByIDForUpdate loads the account and holds a row lock until the surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Account, error)

	FindAll(ctx context.Context, filter AccountFilter) ([]Account, error)
	Count(ctx context.Context, filter AccountFilter) (int64, error)

	// Save creates or updates an account without a version check
	Save(ctx context.Context, account *Account) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, account *Account) error
}

// TransactionFilter defines filtering options for transaction queries
type TransactionFilter struct {
	shared.Filter
	AccountID       *uuid.UUID
	InvoiceID       *uuid.UUID
	TransactionType *TransactionType
	From            *time.Time // inclusive
	To              *time.Time // exclusive
}

// TransactionRepository defines the interface for ledger transaction persistence.
// Transactions are never deleted.
type TransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Transaction, error)
	FindByTransactionID(ctx context.Context, transactionID uuid.UUID) (*Transaction, error)
	FindAll(ctx context.Context, filter TransactionFilter) ([]Transaction, error)
	Count(ctx context.Context, filter TransactionFilter) (int64, error)

	// FindInRange returns every transaction on the account created in [from, to), oldest first
	FindInRange(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]Transaction, error)

	// NetEffectBefore sums the signed effect of transactions created before the cutoff,
	// leaving out reversed originals and reversals since each pair nets to zero
	NetEffectBefore(ctx context.Context, accountID uuid.UUID, before time.Time) (decimal.Decimal, error)

	Create(ctx context.Context, tx *Transaction) error
	Save(ctx context.Context, tx *Transaction) error
}

// BillingPeriodFilter defines filtering options for billing period queries
type BillingPeriodFilter struct {
	shared.Filter
	IsClosed *bool
	IsActive *bool
}

// BillingPeriodRepository defines the interface for billing period persistence
type BillingPeriodRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BillingPeriod, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*BillingPeriod, error)
	FindByStartDate(ctx context.Context, start time.Time) (*BillingPeriod, error)

	// FindCurrent finds the active period containing the given date
	FindCurrent(ctx context.Context, on time.Time) (*BillingPeriod, error)

	FindAll(ctx context.Context, filter BillingPeriodFilter) ([]BillingPeriod, error)
	Count(ctx context.Context, filter BillingPeriodFilter) (int64, error)
	Save(ctx context.Context, period *BillingPeriod) error
}

// ChargeTypeRepository defines the interface for charge type persistence
type ChargeTypeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ChargeType, error)
	FindByName(ctx context.Context, name string) (*ChargeType, error)
	FindAll(ctx context.Context, activeOnly bool) ([]ChargeType, error)

	// Create inserts a new charge type; a duplicate name surfaces as a unique violation
	Create(ctx context.Context, chargeType *ChargeType) error
	Save(ctx context.Context, chargeType *ChargeType) error
}

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	TenantID        *uuid.UUID
	BillingPeriodID *uuid.UUID
	Statuses        []InvoiceStatus
	DueBefore       *time.Time // exclusive
}

// InvoiceStatusTotal is an aggregate of invoices in one status
type InvoiceStatusTotal struct {
	Status      InvoiceStatus
	Count       int64
	TotalAmount decimal.Decimal
	AmountPaid  decimal.Decimal
}

// InvoiceRepository defines the interface for invoice persistence.
// Invoices are loaded and saved together with their items.
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByNumber(ctx context.Context, invoiceNumber string) (*Invoice, error)
	FindByTenantAndPeriod(ctx context.Context, tenantID, periodID uuid.UUID) (*Invoice, error)
	FindAll(ctx context.Context, filter InvoiceFilter) ([]Invoice, error)
	Count(ctx context.Context, filter InvoiceFilter) (int64, error)

	// SummarizeByStatus aggregates counts and amounts per status for a billing period
	SummarizeByStatus(ctx context.Context, periodID uuid.UUID) ([]InvoiceStatusTotal, error)

	// Save upserts the invoice and its items and deletes items no longer on the invoice
	Save(ctx context.Context, invoice *Invoice) error
}

// UtilityChargeFilter defines filtering options for utility charge queries
type UtilityChargeFilter struct {
	shared.Filter
	TenantID        *uuid.UUID
	BillingPeriodID *uuid.UUID
	UtilityType     *UtilityType
	IsBilled        *bool
}

// UtilityChargeRepository defines the interface for utility charge persistence
type UtilityChargeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*UtilityCharge, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]UtilityCharge, error)
	FindUnbilled(ctx context.Context, tenantID, periodID uuid.UUID) ([]UtilityCharge, error)
	FindAll(ctx context.Context, filter UtilityChargeFilter) ([]UtilityCharge, error)
	Count(ctx context.Context, filter UtilityChargeFilter) (int64, error)
	ExistsFor(ctx context.Context, tenantID uuid.UUID, utilityType UtilityType, periodID uuid.UUID) (bool, error)
	Save(ctx context.Context, charge *UtilityCharge) error
}

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	shared.Filter
	TenantID  *uuid.UUID
	InvoiceID *uuid.UUID
	Status    *PaymentStatus
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindAll(ctx context.Context, filter PaymentFilter) ([]Payment, error)
	Count(ctx context.Context, filter PaymentFilter) (int64, error)
	Save(ctx context.Context, payment *Payment) error
}

// RentPaymentFilter defines filtering options for rent payment queries
type RentPaymentFilter struct {
	shared.Filter
	TenantID        *uuid.UUID
	BillingPeriodID *uuid.UUID
	Statuses        []PaymentStatus
	DueBefore       *time.Time // exclusive
}

// RentPaymentRepository defines the interface for rent payment persistence
type RentPaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*RentPayment, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*RentPayment, error)
	FindByTenantAndPeriod(ctx context.Context, tenantID, periodID uuid.UUID) (*RentPayment, error)
	FindAll(ctx context.Context, filter RentPaymentFilter) ([]RentPayment, error)
	Count(ctx context.Context, filter RentPaymentFilter) (int64, error)
	Save(ctx context.Context, payment *RentPayment) error
}

// ReceiptFilter defines filtering options for receipt queries
type ReceiptFilter struct {
	shared.Filter
	TenantID  *uuid.UUID
	InvoiceID *uuid.UUID
}

// ReceiptRepository defines the interface for receipt persistence.
// Receipts are created once and never updated.
type ReceiptRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Receipt, error)
	FindByNumber(ctx context.Context, receiptNumber string) (*Receipt, error)
	FindByTransactionID(ctx context.Context, transactionID uuid.UUID) (*Receipt, error)
	FindAll(ctx context.Context, filter ReceiptFilter) ([]Receipt, error)
	Count(ctx context.Context, filter ReceiptFilter) (int64, error)
	Create(ctx context.Context, receipt *Receipt) error
}
