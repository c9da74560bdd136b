package finance_test

import (
	"context"
	"errors"
	"testing"

	financeapp "github.com/propledger/backend/internal/application/finance"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSequencesDown = errors.New("sequence store unavailable")

// downSequences fails every allocation
type downSequences struct{}

func (downSequences) Next(context.Context, string) (int64, error) {
	return 0, errSequencesDown
}

func TestPaymentService_CreateThenProcess(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	inv := f.generate(t)

	created, err := f.svc.Payments.Create(ctx, f.admin, financeapp.CreatePaymentRequest{
		TenantID:        f.tenant.Tenant.ID,
		InvoiceID:       &inv.ID,
		Amount:          amount("400"),
		PaymentMethod:   finance.PaymentMethodBankTransfer,
		ReferenceNumber: "BT-1001",
	})
	require.NoError(t, err)
	assert.Equal(t, string(finance.PaymentStatusPending), created.Status)
	assert.Nil(t, created.TransactionID)

	account, err := f.svc.Accounts.Get(ctx, f.admin, f.tenant.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.00", account.Balance.StringFixed(2), "creating a payment posts nothing")

	res, err := f.svc.Payments.Process(ctx, f.admin, created.ID, financeapp.ProcessOptions{})
	require.NoError(t, err)
	assert.Equal(t, string(finance.PaymentStatusCompleted), res.Payment.Status)
	assert.Equal(t, "400.00", res.Transaction.Amount.StringFixed(2))
	assert.Equal(t, "400.00", res.Account.Balance.StringFixed(2))
	require.NotNil(t, res.Invoice)
	assert.Equal(t, string(finance.InvoiceStatusPartial), res.Invoice.Status)
	assert.Equal(t, "600.00", res.Invoice.BalanceDue.StringFixed(2))
	require.NotNil(t, res.Receipt)
	assert.Equal(t, "400.00", res.Receipt.AmountAllocatedToInvoice.StringFixed(2))
	assert.True(t, res.Receipt.AmountToAccount.IsZero())
	require.NotNil(t, res.Payment.ReceiptID)
	assert.Equal(t, res.Receipt.ID, *res.Payment.ReceiptID)
	require.NotNil(t, res.Payment.TransactionID)
	assert.Equal(t, res.Transaction.ID, *res.Payment.TransactionID)

	_, err = f.svc.Payments.Process(ctx, f.admin, created.ID, financeapp.ProcessOptions{})
	assertCode(t, err, shared.ErrInvalidState.Code)

	stored, err := f.svc.Payments.Get(ctx, f.admin, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(finance.PaymentStatusCompleted), stored.Status)
}

func TestPaymentService_Create_Validation(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	inv := f.generate(t)

	_, err := f.svc.Payments.Create(ctx, f.admin, financeapp.CreatePaymentRequest{
		TenantID:      f.tenant.Tenant.ID,
		PaymentMethod: finance.PaymentMethodCash,
	})
	assertCode(t, err, "VALIDATION_ERROR")

	_, err = f.svc.Payments.Create(ctx, f.admin, financeapp.CreatePaymentRequest{
		TenantID:      f.tenant.Tenant.ID,
		InvoiceID:     &inv.ID,
		Amount:        amount("1000.50"),
		PaymentMethod: finance.PaymentMethodCash,
	})
	assertCode(t, err, finance.CodeAmountExceedsBalance)

	// nil amount with an invoice takes the balance due
	full, err := f.svc.Payments.Create(ctx, f.admin, financeapp.CreatePaymentRequest{
		TenantID:      f.tenant.Tenant.ID,
		InvoiceID:     &inv.ID,
		PaymentMethod: finance.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, "1000.00", full.Amount.StringFixed(2))
}

func TestPaymentService_Process_WithoutInvoice(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	created, err := f.svc.Payments.Create(ctx, f.admin, financeapp.CreatePaymentRequest{
		TenantID:      f.tenant.Tenant.ID,
		Amount:        amount("250"),
		PaymentMethod: finance.PaymentMethodMobileMoney,
	})
	require.NoError(t, err)

	res, err := f.svc.Payments.Process(ctx, f.admin, created.ID, financeapp.ProcessOptions{})
	require.NoError(t, err)
	assert.Nil(t, res.Invoice)
	assert.Equal(t, "250.00", res.Account.Balance.StringFixed(2))
	require.NotNil(t, res.Receipt)
	assert.True(t, res.Receipt.AmountAllocatedToInvoice.IsZero())
	assert.Equal(t, "250.00", res.Receipt.AmountToAccount.StringFixed(2))
}

func TestPaymentService_Process_SkipReceipt(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	created, err := f.svc.Payments.Create(ctx, f.admin, financeapp.CreatePaymentRequest{
		TenantID:      f.tenant.Tenant.ID,
		Amount:        amount("90"),
		PaymentMethod: finance.PaymentMethodCash,
	})
	require.NoError(t, err)

	res, err := f.svc.Payments.Process(ctx, f.admin, created.ID, financeapp.ProcessOptions{SkipReceipt: true})
	require.NoError(t, err)
	assert.Nil(t, res.Receipt)
	assert.Nil(t, res.Payment.ReceiptID)
	assert.Equal(t, string(finance.PaymentStatusCompleted), res.Payment.Status)
	assert.Equal(t, "90.00", res.Account.Balance.StringFixed(2))

	receipts, err := f.svc.Receipts.List(ctx, f.admin, financeapp.ReceiptListFilter{})
	require.NoError(t, err)
	assert.Zero(t, receipts.Total)
}

func TestPaymentService_Process_RollsBackOnFailure(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	inv := f.generate(t)

	created, err := f.svc.Payments.Create(ctx, f.admin, financeapp.CreatePaymentRequest{
		TenantID:      f.tenant.Tenant.ID,
		InvoiceID:     &inv.ID,
		PaymentMethod: finance.PaymentMethodCash,
	})
	require.NoError(t, err)

	// receipt numbering fails after the transaction and allocation are written
	broken := financeapp.NewServices(financeapp.Dependencies{
		Repos: persistence.NewGormLedgerRepositories(f.db),
		Scope: persistence.NewGormLedgerTransactionScope(f.db, persistence.WithSequenceAllocator(downSequences{})),
	})
	_, err = broken.Payments.Process(ctx, f.admin, created.ID, financeapp.ProcessOptions{})
	require.ErrorIs(t, err, errSequencesDown)

	account, err := f.svc.Accounts.Get(ctx, f.admin, f.tenant.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.00", account.Balance.StringFixed(2))
	assert.Equal(t, f.tenant.Account.Version, account.Version)

	txs, err := f.svc.Transactions.List(ctx, f.admin, financeapp.TransactionListFilter{AccountID: &f.tenant.Account.ID})
	require.NoError(t, err)
	assert.Zero(t, txs.Total)

	invoice, err := f.svc.Invoices.Get(ctx, f.admin, inv.ID)
	require.NoError(t, err)
	assert.True(t, invoice.AmountPaid.IsZero())
	assert.Equal(t, inv.Status, invoice.Status)

	payment, err := f.svc.Payments.Get(ctx, f.admin, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(finance.PaymentStatusPending), payment.Status)

	// the untouched payment can still be processed normally
	res, err := f.svc.Payments.Process(ctx, f.admin, created.ID, financeapp.ProcessOptions{})
	require.NoError(t, err)
	assert.Equal(t, string(finance.InvoiceStatusPaid), res.Invoice.Status)
	assert.Equal(t, "1000.00", res.Account.Balance.StringFixed(2))
}
