package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RentPaymentService tracks per-period rent and settles it, possibly in several instalments
type RentPaymentService struct {
	repos   LedgerRepositories
	scope   LedgerTransactionScope
	engine  *BalanceEngine
	metrics *telemetry.LedgerMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewRentPaymentService creates a new RentPaymentService
func NewRentPaymentService(deps Dependencies, engine *BalanceEngine) *RentPaymentService {
	deps = deps.withDefaults()
	return &RentPaymentService{
		repos:   deps.Repos,
		scope:   deps.Scope,
		engine:  engine,
		metrics: deps.Metrics,
		logger:  deps.Logger,
		now:     deps.Clock,
	}
}

// CreateRentPaymentRequest opens the rent record of a tenant for a period.
// A nil Amount uses the tenant's effective monthly rent; a nil InvoiceID links the
// tenant's invoice for the period when there is one.
type CreateRentPaymentRequest struct {
	TenantID        uuid.UUID
	BillingPeriodID uuid.UUID
	InvoiceID       *uuid.UUID
	Amount          *decimal.Decimal
	PaymentMethod   finance.PaymentMethod
	ReferenceNumber string
	Notes           string
}

// RentPaymentListFilter defines filtering options for rent payment listings
type RentPaymentListFilter struct {
	Page            int
	PageSize        int
	TenantID        *uuid.UUID
	BillingPeriodID *uuid.UUID
	Status          *finance.PaymentStatus
}

// Create opens a pending rent payment, one per tenant and period
func (s *RentPaymentService) Create(ctx context.Context, actor identity.Actor, req CreateRentPaymentRequest) (*RentPaymentResponse, error) {
	ctx, span := startSpan(ctx, "rent_payment", "create", actor)
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, req.TenantID.String(),
		telemetry.SpanAttrBillingPeriodID, req.BillingPeriodID.String(),
	)

	if err := identity.RequireCapability(actor.CanManageBilling(), "create rent payments"); err != nil {
		return nil, fail(span, err)
	}

	period, err := s.repos.BillingPeriodRepo().FindByID(ctx, req.BillingPeriodID)
	if err != nil {
		return nil, fail(span, err)
	}
	tenant, err := s.repos.TenantRepo().FindByID(ctx, req.TenantID)
	if err != nil {
		return nil, fail(span, err)
	}
	if _, err := s.repos.RentPaymentRepo().FindByTenantAndPeriod(ctx, tenant.ID, period.ID); err == nil {
		return nil, fail(span, shared.NewDomainError(shared.ErrAlreadyExists.Code,
			fmt.Sprintf("Rent payment for %s already exists for this tenant", period.Name)))
	} else if !isNotFound(err) {
		return nil, fail(span, err)
	}

	var amount decimal.Decimal
	if req.Amount != nil {
		amount = *req.Amount
	} else {
		amount, err = tenant.EffectiveMonthlyRent()
		if err != nil {
			return nil, fail(span, err)
		}
	}

	invoiceID := req.InvoiceID
	if invoiceID != nil {
		invoice, err := s.repos.InvoiceRepo().FindByID(ctx, *invoiceID)
		if err != nil {
			return nil, fail(span, err)
		}
		if err := invoice.EnsureTenant(tenant.ID); err != nil {
			return nil, fail(span, err)
		}
	} else if invoice, err := s.repos.InvoiceRepo().FindByTenantAndPeriod(ctx, tenant.ID, period.ID); err == nil {
		invoiceID = &invoice.ID
	} else if !isNotFound(err) {
		return nil, fail(span, err)
	}

	rent, err := finance.NewRentPayment(tenant.ID, period, amount, req.PaymentMethod)
	if err != nil {
		return nil, fail(span, err)
	}
	rent.InvoiceID = invoiceID
	rent.SetReference(req.ReferenceNumber)
	rent.Notes = strings.TrimSpace(req.Notes)

	if err := s.repos.RentPaymentRepo().Save(ctx, rent); err != nil {
		return nil, fail(span, err)
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrRentPaymentID, rent.ID.String())
	resp := ToRentPaymentResponse(rent, s.now())
	return &resp, nil
}

// ProcessPayment pays amount towards the rent, or everything still due when amount is nil.
// The amount may not exceed what is outstanding.
func (s *RentPaymentService) ProcessPayment(ctx context.Context, actor identity.Actor, id uuid.UUID, amount *decimal.Decimal, createReceipt bool) (*PaymentResult, error) {
	ctx, span := startSpan(ctx, "rent_payment", "process_payment", actor)
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrRentPaymentID, id.String())

	rent, err := s.repos.RentPaymentRepo().FindByID(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}
	tenant, err := s.repos.TenantRepo().FindByID(ctx, rent.TenantID)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := identity.RequireCapability(actor.CanPayOnBehalfOf(tenant.UserID), "pay for this tenant"); err != nil {
		return nil, fail(span, err)
	}
	if _, err := rent.ResolveAmount(amount); err != nil {
		return nil, fail(span, err)
	}
	account, err := s.repos.AccountRepo().FindByUserID(ctx, tenant.UserID)
	if err != nil {
		return nil, fail(span, err)
	}
	period, err := s.repos.BillingPeriodRepo().FindByID(ctx, rent.BillingPeriodID)
	if err != nil {
		return nil, fail(span, err)
	}

	now := s.now()
	var result *PaymentResult
	var paid decimal.Decimal
	err = s.scope.Execute(ctx, func(repos LedgerRepositories) error {
		locked, err := repos.RentPaymentRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		paid, err = locked.ResolveAmount(amount)
		if err != nil {
			return err
		}

		var invoice *finance.Invoice
		if locked.InvoiceID != nil {
			invoice, err = repos.InvoiceRepo().FindByIDForUpdate(ctx, *locked.InvoiceID)
			if err != nil {
				return err
			}
		}

		tx, err := finance.NewTransaction(account.ID, finance.TransactionTypePayment, paid, finance.TransactionDetails{
			PaymentMethod:   locked.PaymentMethod,
			InvoiceID:       locked.InvoiceID,
			ReferenceNumber: locked.ReferenceNumber,
			Description:     locked.TransactionDescription(period.Name),
			ProcessedBy:     actorIDPtr(actor),
		})
		if err != nil {
			return err
		}
		posted, err := s.engine.Post(ctx, repos, tx)
		if err != nil {
			return err
		}

		allocation := finance.PaymentAllocation{ToInvoice: decimal.Zero, ToAccount: paid}
		if invoice != nil && invoice.Status.AcceptsPayments() {
			toInvoice, err := invoice.ApplyPayment(paid)
			if err != nil {
				return err
			}
			allocation = finance.PaymentAllocation{ToInvoice: toInvoice, ToAccount: paid.Sub(toInvoice)}
			if err := repos.InvoiceRepo().Save(ctx, invoice); err != nil {
				return err
			}
		}

		if err := locked.RecordPayment(paid, tx.ID, actor.UserID()); err != nil {
			return err
		}
		if err := repos.RentPaymentRepo().Save(ctx, locked); err != nil {
			return err
		}

		rentResp := ToRentPaymentResponse(locked, now)
		result = &PaymentResult{
			RentPayment: &rentResp,
			Transaction: ToTransactionResponse(tx),
			Account:     ToAccountResponse(posted),
		}
		if invoice != nil {
			inv := ToInvoiceResponse(invoice, now)
			result.Invoice = &inv
		}

		if !createReceipt {
			return nil
		}
		receipt, err := issueReceipt(ctx, repos, now, finance.ReceiptInput{
			Transaction:   tx,
			TenantID:      locked.TenantID,
			InvoiceID:     locked.InvoiceID,
			Allocation:    allocation,
			PaymentDate:   locked.PaymentDate,
			PaymentMethod: locked.PaymentMethod,
			Notes:         "Payment for " + period.Name,
			IssuedBy:      actorIDPtr(actor),
		})
		if err != nil {
			return err
		}
		r := ToReceiptResponse(receipt)
		result.Receipt = &r
		return nil
	})
	if err != nil {
		return nil, fail(span, err)
	}

	s.metrics.RecordTransactionPosted(ctx, finance.TransactionTypePayment.String())
	s.metrics.RecordPaymentProcessed(ctx, telemetry.PaymentKindRent, result.RentPayment.PaymentMethod, paid)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTransactionID, result.Transaction.TransactionID.String(),
		telemetry.SpanAttrAmount, paid.StringFixed(2),
	)
	s.logger.Info("Rent payment processed",
		zap.String("rent_payment_id", id.String()),
		zap.String("amount", paid.StringFixed(2)),
		zap.String("status", result.RentPayment.Status),
		zap.String("outstanding", result.RentPayment.OutstandingAmount.StringFixed(2)),
	)
	return result, nil
}

// PayRemaining pays everything still outstanding and issues a receipt
func (s *RentPaymentService) PayRemaining(ctx context.Context, actor identity.Actor, id uuid.UUID) (*PaymentResult, error) {
	return s.ProcessPayment(ctx, actor, id, nil, true)
}

// Get returns a rent payment the actor may view
func (s *RentPaymentService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*RentPaymentResponse, error) {
	rent, err := s.repos.RentPaymentRepo().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanViewAllAccounts() {
		tenant, err := s.repos.TenantRepo().FindByID(ctx, rent.TenantID)
		if err != nil {
			return nil, err
		}
		if err := requireViewer(actor, tenant); err != nil {
			return nil, err
		}
	}
	resp := ToRentPaymentResponse(rent, s.now())
	return &resp, nil
}

// List returns rent payments; tenants only see their own
func (s *RentPaymentService) List(ctx context.Context, actor identity.Actor, filter RentPaymentListFilter) (*shared.Paginated[RentPaymentResponse], error) {
	tenantID, err := tenantScope(ctx, s.repos, actor, filter.TenantID)
	if err != nil {
		return nil, err
	}
	f := finance.RentPaymentFilter{
		Filter:          shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalized(),
		TenantID:        tenantID,
		BillingPeriodID: filter.BillingPeriodID,
	}
	if filter.Status != nil {
		f.Statuses = []finance.PaymentStatus{*filter.Status}
	}
	return s.page(ctx, f)
}

// Pending returns rent that is unpaid or partly paid
func (s *RentPaymentService) Pending(ctx context.Context, actor identity.Actor, page, pageSize int) (*shared.Paginated[RentPaymentResponse], error) {
	tenantID, err := tenantScope(ctx, s.repos, actor, nil)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, finance.RentPaymentFilter{
		Filter:   shared.Filter{Page: page, PageSize: pageSize, OrderBy: "due_date", OrderDir: "asc"}.Normalized(),
		TenantID: tenantID,
		Statuses: []finance.PaymentStatus{finance.PaymentStatusPending, finance.PaymentStatusPartial},
	})
}

// Overdue returns unpaid or partly paid rent whose due date has passed
func (s *RentPaymentService) Overdue(ctx context.Context, actor identity.Actor, page, pageSize int) (*shared.Paginated[RentPaymentResponse], error) {
	tenantID, err := tenantScope(ctx, s.repos, actor, nil)
	if err != nil {
		return nil, err
	}
	today := finance.DateOnly(s.now())
	return s.page(ctx, finance.RentPaymentFilter{
		Filter:    shared.Filter{Page: page, PageSize: pageSize, OrderBy: "due_date", OrderDir: "asc"}.Normalized(),
		TenantID:  tenantID,
		Statuses:  []finance.PaymentStatus{finance.PaymentStatusPending, finance.PaymentStatusPartial},
		DueBefore: &today,
	})
}

func (s *RentPaymentService) page(ctx context.Context, f finance.RentPaymentFilter) (*shared.Paginated[RentPaymentResponse], error) {
	payments, err := s.repos.RentPaymentRepo().FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.repos.RentPaymentRepo().Count(ctx, f)
	if err != nil {
		return nil, err
	}
	result := shared.NewPaginated(toRentPaymentResponses(payments, s.now()), total, f.Page, f.PageSize)
	return &result, nil
}
