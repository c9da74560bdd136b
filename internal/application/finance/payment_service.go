package finance

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/domain/tenancy"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// PaymentService records payments and processes them into the ledger
type PaymentService struct {
	repos   LedgerRepositories
	scope   LedgerTransactionScope
	engine  *BalanceEngine
	metrics *telemetry.LedgerMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(deps Dependencies, engine *BalanceEngine) *PaymentService {
	deps = deps.withDefaults()
	return &PaymentService{
		repos:   deps.Repos,
		scope:   deps.Scope,
		engine:  engine,
		metrics: deps.Metrics,
		logger:  deps.Logger,
		now:     deps.Clock,
	}
}

// CreatePaymentRequest is a request to pay for a tenant. With an invoice, a nil Amount
// pays the invoice's balance due; without one, Amount is required and credits the account.
type CreatePaymentRequest struct {
	TenantID        uuid.UUID
	InvoiceID       *uuid.UUID
	Amount          *decimal.Decimal
	PaymentMethod   finance.PaymentMethod
	ReferenceNumber string
	Notes           string
}

// ProcessOptions tunes payment processing
type ProcessOptions struct {
	SkipReceipt bool
}

// PaymentListFilter defines filtering options for payment listings
type PaymentListFilter struct {
	Page      int
	PageSize  int
	TenantID  *uuid.UUID
	InvoiceID *uuid.UUID
	Status    *finance.PaymentStatus
}

// Create records a pending payment
func (s *PaymentService) Create(ctx context.Context, actor identity.Actor, req CreatePaymentRequest) (*PaymentResponse, error) {
	ctx, span := startSpan(ctx, "payment", "create", actor)
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrTenantID, req.TenantID.String())

	payment, _, err := s.prepare(ctx, actor, req)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := s.repos.PaymentRepo().Save(ctx, payment); err != nil {
		return nil, fail(span, err)
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrPaymentID, payment.ID.String())
	resp := ToPaymentResponse(payment)
	return &resp, nil
}

// prepare validates the request and builds the pending payment
func (s *PaymentService) prepare(ctx context.Context, actor identity.Actor, req CreatePaymentRequest) (*finance.Payment, *tenancy.Tenant, error) {
	tenant, err := s.repos.TenantRepo().FindByID(ctx, req.TenantID)
	if err != nil {
		return nil, nil, err
	}
	if err := identity.RequireCapability(actor.CanPayOnBehalfOf(tenant.UserID), "pay for this tenant"); err != nil {
		return nil, nil, err
	}

	var amount decimal.Decimal
	if req.InvoiceID != nil {
		invoice, err := s.repos.InvoiceRepo().FindByID(ctx, *req.InvoiceID)
		if err != nil {
			return nil, nil, err
		}
		if err := invoice.EnsureTenant(tenant.ID); err != nil {
			return nil, nil, err
		}
		if !invoice.Status.AcceptsPayments() {
			return nil, nil, shared.NewDomainError(shared.ErrInvalidState.Code,
				"Invoice "+invoice.InvoiceNumber+" is "+invoice.Status.String()+" and does not accept payments")
		}
		amount = invoice.BalanceDue()
		if req.Amount != nil {
			amount = shared.RoundMoney(*req.Amount)
		}
		if err := finance.ValidatePaymentAgainstBalance(amount, invoice.BalanceDue()); err != nil {
			return nil, nil, err
		}
	} else {
		if req.Amount == nil {
			return nil, nil, shared.NewDomainError("VALIDATION_ERROR", "Amount is required when no invoice is given")
		}
		amount = *req.Amount
	}

	payment, err := finance.NewPayment(tenant.ID, req.InvoiceID, amount, req.PaymentMethod, req.ReferenceNumber)
	if err != nil {
		return nil, nil, err
	}
	payment.Notes = strings.TrimSpace(req.Notes)
	return payment, tenant, nil
}

// Process posts a pending payment: one payment transaction, the invoice allocation,
// the receipt and the completed status all commit together.
func (s *PaymentService) Process(ctx context.Context, actor identity.Actor, paymentID uuid.UUID, opts ProcessOptions) (*PaymentResult, error) {
	ctx, span := startSpan(ctx, "payment", "process", actor)
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrPaymentID, paymentID.String())

	payment, err := s.repos.PaymentRepo().FindByID(ctx, paymentID)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := payment.EnsurePending(); err != nil {
		return nil, fail(span, err)
	}
	tenant, err := s.repos.TenantRepo().FindByID(ctx, payment.TenantID)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := identity.RequireCapability(actor.CanPayOnBehalfOf(tenant.UserID), "pay for this tenant"); err != nil {
		return nil, fail(span, err)
	}
	account, err := s.repos.AccountRepo().FindByUserID(ctx, tenant.UserID)
	if err != nil {
		return nil, fail(span, err)
	}

	var result *PaymentResult
	err = s.scope.Execute(ctx, func(repos LedgerRepositories) error {
		locked, err := repos.PaymentRepo().FindByIDForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if err := locked.EnsurePending(); err != nil {
			return err
		}
		result, err = s.settle(ctx, repos, locked, account.ID, actor, opts)
		return err
	})
	if err != nil {
		return nil, fail(span, err)
	}

	s.recordProcessed(ctx, span, result)
	return result, nil
}

// QuickPay creates and processes a payment in one unit of work
func (s *PaymentService) QuickPay(ctx context.Context, actor identity.Actor, req CreatePaymentRequest) (*PaymentResult, error) {
	ctx, span := startSpan(ctx, "payment", "quick_pay", actor)
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrTenantID, req.TenantID.String())

	payment, tenant, err := s.prepare(ctx, actor, req)
	if err != nil {
		return nil, fail(span, err)
	}
	account, err := s.repos.AccountRepo().FindByUserID(ctx, tenant.UserID)
	if err != nil {
		return nil, fail(span, err)
	}

	var result *PaymentResult
	err = s.scope.Execute(ctx, func(repos LedgerRepositories) error {
		if err := repos.PaymentRepo().Save(ctx, payment); err != nil {
			return err
		}
		result, err = s.settle(ctx, repos, payment, account.ID, actor, ProcessOptions{})
		return err
	})
	if err != nil {
		return nil, fail(span, err)
	}

	s.recordProcessed(ctx, span, result)
	return result, nil
}

// settle runs inside the unit of work on a pending, locked payment
func (s *PaymentService) settle(ctx context.Context, repos LedgerRepositories, payment *finance.Payment, accountID uuid.UUID, actor identity.Actor, opts ProcessOptions) (*PaymentResult, error) {
	var invoice *finance.Invoice
	if payment.InvoiceID != nil {
		inv, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, *payment.InvoiceID)
		if err != nil {
			return nil, err
		}
		invoice = inv
	}

	tx, err := finance.NewTransaction(accountID, finance.TransactionTypePayment, payment.Amount, finance.TransactionDetails{
		PaymentMethod:   payment.PaymentMethod,
		InvoiceID:       payment.InvoiceID,
		ReferenceNumber: payment.ReferenceNumber,
		Description:     payment.TransactionDescription(),
		ProcessedBy:     actorIDPtr(actor),
	})
	if err != nil {
		return nil, err
	}
	account, err := s.engine.Post(ctx, repos, tx)
	if err != nil {
		return nil, err
	}

	// an invoice settled since the payment was created takes nothing more
	allocTarget := invoice
	if invoice != nil && invoice.Status == finance.InvoiceStatusPaid {
		allocTarget = nil
	}
	allocation, err := payment.Allocate(allocTarget)
	if err != nil {
		return nil, err
	}
	if allocTarget != nil {
		if err := repos.InvoiceRepo().Save(ctx, allocTarget); err != nil {
			return nil, err
		}
	}

	var receipt *finance.Receipt
	if !opts.SkipReceipt {
		receipt, err = issueReceipt(ctx, repos, s.now(), finance.ReceiptInput{
			Transaction:   tx,
			TenantID:      payment.TenantID,
			InvoiceID:     payment.InvoiceID,
			Allocation:    allocation,
			PaymentDate:   payment.PaymentDate,
			PaymentMethod: payment.PaymentMethod,
			Notes:         payment.Notes,
			IssuedBy:      actorIDPtr(actor),
		})
		if err != nil {
			return nil, err
		}
	}

	var receiptID *uuid.UUID
	if receipt != nil {
		receiptID = &receipt.ID
	}
	if err := payment.Complete(tx.ID, receiptID, actor.UserID()); err != nil {
		return nil, err
	}
	if err := repos.PaymentRepo().Save(ctx, payment); err != nil {
		return nil, err
	}

	now := s.now()
	paymentResp := ToPaymentResponse(payment)
	result := &PaymentResult{
		Payment:     &paymentResp,
		Transaction: ToTransactionResponse(tx),
		Account:     ToAccountResponse(account),
	}
	if receipt != nil {
		r := ToReceiptResponse(receipt)
		result.Receipt = &r
	}
	if invoice != nil {
		inv := ToInvoiceResponse(invoice, now)
		result.Invoice = &inv
	}
	return result, nil
}

func (s *PaymentService) recordProcessed(ctx context.Context, span trace.Span, result *PaymentResult) {
	p := result.Payment
	s.metrics.RecordTransactionPosted(ctx, finance.TransactionTypePayment.String())
	s.metrics.RecordPaymentProcessed(ctx, telemetry.PaymentKindInvoice, p.PaymentMethod, p.Amount.Decimal)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTransactionID, result.Transaction.TransactionID.String(),
		telemetry.SpanAttrAmount, p.Amount.StringFixed(2),
		telemetry.SpanAttrPaymentMethod, p.PaymentMethod,
	)

	fields := []zap.Field{
		zap.String("payment_id", p.ID.String()),
		zap.String("reference", p.ReferenceNumber),
		zap.String("amount", p.Amount.StringFixed(2)),
		zap.String("transaction_id", result.Transaction.TransactionID.String()),
	}
	if result.Receipt != nil {
		fields = append(fields, zap.String("receipt_number", result.Receipt.ReceiptNumber))
	}
	s.logger.Info("Payment processed", fields...)
}

// Get returns a payment the actor may view
func (s *PaymentService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.repos.PaymentRepo().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanViewAllAccounts() {
		tenant, err := s.repos.TenantRepo().FindByID(ctx, payment.TenantID)
		if err != nil {
			return nil, err
		}
		if err := requireViewer(actor, tenant); err != nil {
			return nil, err
		}
	}
	resp := ToPaymentResponse(payment)
	return &resp, nil
}

// List returns payments; tenants only see their own
func (s *PaymentService) List(ctx context.Context, actor identity.Actor, filter PaymentListFilter) (*shared.Paginated[PaymentResponse], error) {
	tenantID, err := tenantScope(ctx, s.repos, actor, filter.TenantID)
	if err != nil {
		return nil, err
	}
	f := finance.PaymentFilter{
		Filter:    shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalized(),
		TenantID:  tenantID,
		InvoiceID: filter.InvoiceID,
		Status:    filter.Status,
	}
	payments, err := s.repos.PaymentRepo().FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.repos.PaymentRepo().Count(ctx, f)
	if err != nil {
		return nil, err
	}

	items := make([]PaymentResponse, len(payments))
	for i := range payments {
		items[i] = ToPaymentResponse(&payments[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// issueReceipt numbers and stores a receipt inside the caller's unit of work
func issueReceipt(ctx context.Context, repos LedgerRepositories, now time.Time, in finance.ReceiptInput) (*finance.Receipt, error) {
	number, err := finance.NextDocumentNumber(ctx, repos.Sequences(), finance.DocumentKindReceipt, now)
	if err != nil {
		return nil, err
	}
	in.ReceiptNumber = number
	receipt, err := finance.NewReceipt(in)
	if err != nil {
		return nil, err
	}
	if err := repos.ReceiptRepo().Create(ctx, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}
