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
	"github.com/propledger/backend/internal/domain/tenancy"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoiceService orchestrates invoice generation, editing and settlement
type InvoiceService struct {
	repos       LedgerRepositories
	scope       LedgerTransactionScope
	chargeTypes *ChargeTypeService
	payments    *PaymentService
	metrics     *telemetry.LedgerMetrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(deps Dependencies, chargeTypes *ChargeTypeService, payments *PaymentService) *InvoiceService {
	deps = deps.withDefaults()
	return &InvoiceService{
		repos:       deps.Repos,
		scope:       deps.Scope,
		chargeTypes: chargeTypes,
		payments:    payments,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		now:         deps.Clock,
	}
}

// GenerateInvoiceResult is the outcome of generating one tenant's invoice
type GenerateInvoiceResult struct {
	Invoice InvoiceResponse `json:"invoice"`
	Created bool            `json:"created"`
}

// GenerateForPeriodRequest selects the tenants to invoice. An empty TenantIDs means every active tenant.
type GenerateForPeriodRequest struct {
	TenantIDs []uuid.UUID
	AutoSend  bool
}

// GenerationError is a per-tenant failure during batch generation
type GenerationError struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
}

// GenerateForPeriodResult summarises a batch generation run
type GenerateForPeriodResult struct {
	Created  int               `json:"created"`
	Existing int               `json:"existing"`
	Invoices []InvoiceResponse `json:"invoices"`
	Errors   []GenerationError `json:"errors"`
}

// AddChargeRequest adds a line to an invoice. The charge type is picked by ID or,
// when ChargeTypeID is nil, found or created by name.
type AddChargeRequest struct {
	ChargeTypeID   *uuid.UUID
	ChargeTypeName string
	Description    string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
}

// InvoiceListFilter defines filtering options for invoice listings
type InvoiceListFilter struct {
	Page            int
	PageSize        int
	TenantID        *uuid.UUID
	BillingPeriodID *uuid.UUID
	Status          *finance.InvoiceStatus
}

// ApplyPaymentRequest pays an invoice directly. A nil Amount pays the balance due.
type ApplyPaymentRequest struct {
	Amount          *decimal.Decimal
	PaymentMethod   finance.PaymentMethod
	ReferenceNumber string
	Notes           string
}

// InvoicePaymentHistory lists the money received against an invoice
type InvoicePaymentHistory struct {
	Invoice      InvoiceResponse       `json:"invoice"`
	Transactions []TransactionResponse `json:"transactions"`
	Receipts     []ReceiptResponse     `json:"receipts"`
}

// GenerateForTenant creates the tenant's invoice for the period with a rent line and every
// unbilled utility charge. Calling it again returns the existing invoice unchanged.
func (s *InvoiceService) GenerateForTenant(ctx context.Context, actor identity.Actor, tenantID, periodID uuid.UUID) (*GenerateInvoiceResult, error) {
	ctx, span := startSpan(ctx, "invoice", "generate_for_tenant", actor)
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrBillingPeriodID, periodID.String(),
	)

	if err := identity.RequireCapability(actor.CanManageBilling(), "generate invoices"); err != nil {
		return nil, fail(span, err)
	}

	period, err := s.repos.BillingPeriodRepo().FindByID(ctx, periodID)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := period.EnsureCanAddCharges(); err != nil {
		return nil, fail(span, err)
	}
	tenant, err := s.repos.TenantRepo().FindByID(ctx, tenantID)
	if err != nil {
		return nil, fail(span, err)
	}

	if existing, err := s.repos.InvoiceRepo().FindByTenantAndPeriod(ctx, tenantID, periodID); err == nil {
		return &GenerateInvoiceResult{Invoice: ToInvoiceResponse(existing, s.now()), Created: false}, nil
	} else if !isNotFound(err) {
		return nil, fail(span, err)
	}

	rent, err := tenant.EffectiveMonthlyRent()
	if err != nil {
		if !shared.HasCode(err, tenancy.CodeRentUnavailable) {
			return nil, fail(span, err)
		}
		s.logger.Warn("Tenant has no unit, invoice generated without rent",
			zap.String("tenant_id", tenant.ID.String()))
		rent = decimal.Zero
	}
	rentType, err := s.chargeTypes.GetOrCreate(ctx, finance.RentChargeTypeDefinition())
	if err != nil {
		return nil, fail(span, err)
	}
	unbilled, err := s.repos.UtilityChargeRepo().FindUnbilled(ctx, tenantID, periodID)
	if err != nil {
		return nil, fail(span, err)
	}
	utilityTypes, err := s.resolveUtilityChargeTypes(ctx, unbilled)
	if err != nil {
		return nil, fail(span, err)
	}

	now := s.now()
	var invoice *finance.Invoice
	created := true
	err = s.scope.Execute(ctx, func(repos LedgerRepositories) error {
		if existing, err := repos.InvoiceRepo().FindByTenantAndPeriod(ctx, tenantID, periodID); err == nil {
			invoice, created = existing, false
			return nil
		} else if !isNotFound(err) {
			return err
		}

		number, err := finance.NextDocumentNumber(ctx, repos.Sequences(), finance.DocumentKindInvoice, now)
		if err != nil {
			return err
		}
		inv, err := finance.NewInvoice(number, tenantID, period, now)
		if err != nil {
			return err
		}
		inv.CreatedBy = actorIDPtr(actor)

		if rent.IsPositive() {
			item, err := inv.AddItem(rentType.ID, "Rent for "+period.Name, decimal.NewFromInt(1), rent)
			if err != nil {
				return err
			}
			item.ChargeTypeName = rentType.Name
		}

		// charges recorded since the first read still get billed
		charges, err := repos.UtilityChargeRepo().FindUnbilled(ctx, tenantID, periodID)
		if err != nil {
			return err
		}
		if err := resolveMissingChargeTypes(ctx, repos.ChargeTypeRepo(), utilityTypes, charges); err != nil {
			return err
		}
		if err := billCharges(inv, charges, utilityTypes, period.Name); err != nil {
			return err
		}

		if err := repos.InvoiceRepo().Save(ctx, inv); err != nil {
			return err
		}
		for i := range charges {
			if err := repos.UtilityChargeRepo().Save(ctx, &charges[i]); err != nil {
				return err
			}
		}
		invoice = inv
		return nil
	})
	if err != nil {
		if shared.HasCode(err, shared.ErrAlreadyExists.Code) {
			existing, findErr := s.repos.InvoiceRepo().FindByTenantAndPeriod(ctx, tenantID, periodID)
			if findErr == nil {
				return &GenerateInvoiceResult{Invoice: ToInvoiceResponse(existing, now), Created: false}, nil
			}
		}
		return nil, fail(span, err)
	}

	if created {
		s.metrics.RecordInvoicesGenerated(ctx, 1)
		telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceNumber, invoice.InvoiceNumber)
		s.logger.Info("Invoice generated",
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.String("tenant_id", tenantID.String()),
			zap.String("total", invoice.TotalAmount.StringFixed(2)),
		)
	}
	return &GenerateInvoiceResult{Invoice: ToInvoiceResponse(invoice, now), Created: created}, nil
}

// GenerateForPeriod generates invoices for many tenants, collecting failures per tenant
func (s *InvoiceService) GenerateForPeriod(ctx context.Context, actor identity.Actor, periodID uuid.UUID, req GenerateForPeriodRequest) (*GenerateForPeriodResult, error) {
	ctx, span := startSpan(ctx, "invoice", "generate_for_period", actor)
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrBillingPeriodID, periodID.String())

	if err := identity.RequireCapability(actor.CanManageBilling(), "generate invoices"); err != nil {
		return nil, fail(span, err)
	}
	period, err := s.repos.BillingPeriodRepo().FindByID(ctx, periodID)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := period.EnsureCanAddCharges(); err != nil {
		return nil, fail(span, err)
	}

	var tenants []tenancy.Tenant
	if len(req.TenantIDs) == 0 {
		tenants, err = s.repos.TenantRepo().FindActive(ctx)
	} else {
		tenants, err = s.repos.TenantRepo().FindByIDs(ctx, req.TenantIDs)
	}
	if err != nil {
		return nil, fail(span, err)
	}

	result := &GenerateForPeriodResult{
		Invoices: make([]InvoiceResponse, 0, len(tenants)),
		Errors:   make([]GenerationError, 0),
	}
	for i := range tenants {
		tenantID := tenants[i].ID
		generated, err := s.GenerateForTenant(ctx, actor, tenantID, periodID)
		if err != nil {
			result.Errors = append(result.Errors, generationError(tenantID, err))
			continue
		}
		if !generated.Created {
			result.Existing++
			continue
		}

		invoice := generated.Invoice
		if req.AutoSend {
			sent, err := s.Send(ctx, actor, invoice.ID)
			if err != nil {
				result.Errors = append(result.Errors, generationError(tenantID, err))
			} else {
				invoice = *sent
			}
		}
		result.Created++
		result.Invoices = append(result.Invoices, invoice)
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrCount, result.Created)
	s.logger.Info("Invoices generated for period",
		zap.String("billing_period", period.Name),
		zap.Int("created", result.Created),
		zap.Int("existing", result.Existing),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

func generationError(tenantID uuid.UUID, err error) GenerationError {
	code := shared.ErrorCode(err)
	if code == "" {
		code = "INTERNAL_ERROR"
	}
	return GenerationError{TenantID: tenantID, Code: code, Message: err.Error()}
}

// EnsureRentItem adds the rent line to an invoice that lacks one.
// It fails with RENT_UNAVAILABLE when the tenant's rent cannot be resolved; zero rent adds nothing.
func (s *InvoiceService) EnsureRentItem(ctx context.Context, actor identity.Actor, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := startSpan(ctx, "invoice", "ensure_rent_item", actor)
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceID, invoiceID.String())

	if err := identity.RequireCapability(actor.CanManageBilling(), "edit invoices"); err != nil {
		return nil, fail(span, err)
	}

	invoice, err := s.repos.InvoiceRepo().FindByID(ctx, invoiceID)
	if err != nil {
		return nil, fail(span, err)
	}
	tenant, err := s.repos.TenantRepo().FindByID(ctx, invoice.TenantID)
	if err != nil {
		return nil, fail(span, err)
	}
	rent, err := tenant.EffectiveMonthlyRent()
	if err != nil {
		return nil, fail(span, err)
	}
	rentType, err := s.chargeTypes.GetOrCreate(ctx, finance.RentChargeTypeDefinition())
	if err != nil {
		return nil, fail(span, err)
	}
	if invoice.HasRentItem(rentType.ID) || !rent.IsPositive() {
		resp := ToInvoiceResponse(invoice, s.now())
		return &resp, nil
	}
	period, err := s.repos.BillingPeriodRepo().FindByID(ctx, invoice.BillingPeriodID)
	if err != nil {
		return nil, fail(span, err)
	}

	invoice, err = s.mutate(ctx, invoiceID, func(inv *finance.Invoice) error {
		if inv.HasRentItem(rentType.ID) {
			return nil
		}
		item, err := inv.AddItem(rentType.ID, "Rent for "+period.Name, decimal.NewFromInt(1), rent)
		if err != nil {
			return err
		}
		item.ChargeTypeName = rentType.Name
		inv.RecalculateTotals()
		return nil
	})
	if err != nil {
		return nil, fail(span, err)
	}

	resp := ToInvoiceResponse(invoice, s.now())
	return &resp, nil
}

// AddCharge adds a line item to a draft or sent invoice
func (s *InvoiceService) AddCharge(ctx context.Context, actor identity.Actor, invoiceID uuid.UUID, req AddChargeRequest) (*InvoiceResponse, error) {
	ctx, span := startSpan(ctx, "invoice", "add_charge", actor)
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceID, invoiceID.String())

	if err := identity.RequireCapability(actor.CanManageBilling(), "edit invoices"); err != nil {
		return nil, fail(span, err)
	}

	invoice, err := s.repos.InvoiceRepo().FindByID(ctx, invoiceID)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := s.ensurePeriodOpen(ctx, invoice.BillingPeriodID); err != nil {
		return nil, fail(span, err)
	}

	chargeType, err := s.resolveChargeType(ctx, req)
	if err != nil {
		return nil, fail(span, err)
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = chargeType.Name
	}

	invoice, err = s.mutate(ctx, invoiceID, func(inv *finance.Invoice) error {
		item, err := inv.AddItem(chargeType.ID, description, req.Quantity, req.UnitPrice)
		if err != nil {
			return err
		}
		item.ChargeTypeName = chargeType.Name
		inv.RecalculateTotals()
		return nil
	})
	if err != nil {
		return nil, fail(span, err)
	}

	resp := ToInvoiceResponse(invoice, s.now())
	return &resp, nil
}

func (s *InvoiceService) resolveChargeType(ctx context.Context, req AddChargeRequest) (*finance.ChargeType, error) {
	if req.ChargeTypeID != nil {
		return s.repos.ChargeTypeRepo().FindByID(ctx, *req.ChargeTypeID)
	}
	if strings.TrimSpace(req.ChargeTypeName) == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Either charge_type_id or charge_type_name is required")
	}
	return s.chargeTypes.GetOrCreate(ctx, finance.ChargeTypeDefinition{
		Name:      strings.TrimSpace(req.ChargeTypeName),
		Frequency: finance.ChargeFrequencyOneTime,
	})
}

// RemoveCharge removes a line item. A utility charge billed through the item stays billed.
func (s *InvoiceService) RemoveCharge(ctx context.Context, actor identity.Actor, invoiceID, itemID uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := startSpan(ctx, "invoice", "remove_charge", actor)
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, invoiceID.String(), "item_id", itemID.String())

	if err := identity.RequireCapability(actor.CanManageBilling(), "edit invoices"); err != nil {
		return nil, fail(span, err)
	}

	invoice, err := s.mutate(ctx, invoiceID, func(inv *finance.Invoice) error {
		if _, err := inv.RemoveItem(itemID); err != nil {
			if isNotFound(err) {
				return notFound("Invoice item")
			}
			return err
		}
		inv.RecalculateTotals()
		return nil
	})
	if err != nil {
		return nil, fail(span, err)
	}

	resp := ToInvoiceResponse(invoice, s.now())
	return &resp, nil
}

// Send moves a draft invoice to sent
func (s *InvoiceService) Send(ctx context.Context, actor identity.Actor, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := startSpan(ctx, "invoice", "send", actor)
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceID, invoiceID.String())

	if err := identity.RequireCapability(actor.CanManageBilling(), "send invoices"); err != nil {
		return nil, fail(span, err)
	}
	invoice, err := s.mutate(ctx, invoiceID, func(inv *finance.Invoice) error {
		return inv.Send()
	})
	if err != nil {
		return nil, fail(span, err)
	}

	resp := ToInvoiceResponse(invoice, s.now())
	return &resp, nil
}

// Cancel cancels a draft or sent invoice
func (s *InvoiceService) Cancel(ctx context.Context, actor identity.Actor, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := startSpan(ctx, "invoice", "cancel", actor)
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceID, invoiceID.String())

	if err := identity.RequireCapability(actor.CanManageBilling(), "cancel invoices"); err != nil {
		return nil, fail(span, err)
	}
	invoice, err := s.mutate(ctx, invoiceID, func(inv *finance.Invoice) error {
		return inv.Cancel()
	})
	if err != nil {
		return nil, fail(span, err)
	}

	s.logger.Info("Invoice cancelled", zap.String("invoice_number", invoice.InvoiceNumber))
	resp := ToInvoiceResponse(invoice, s.now())
	return &resp, nil
}

// Get returns an invoice the actor may view
func (s *InvoiceService) Get(ctx context.Context, actor identity.Actor, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.loadVisible(ctx, actor, invoiceID)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(invoice, s.now())
	return &resp, nil
}

// List returns invoices; tenants only see their own
func (s *InvoiceService) List(ctx context.Context, actor identity.Actor, filter InvoiceListFilter) (*shared.Paginated[InvoiceResponse], error) {
	tenantID, err := tenantScope(ctx, s.repos, actor, filter.TenantID)
	if err != nil {
		return nil, err
	}
	f := finance.InvoiceFilter{
		Filter:          shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalized(),
		TenantID:        tenantID,
		BillingPeriodID: filter.BillingPeriodID,
	}
	if filter.Status != nil {
		f.Statuses = []finance.InvoiceStatus{*filter.Status}
	}
	return s.page(ctx, f)
}

// Overdue returns unsettled invoices whose due date has passed
func (s *InvoiceService) Overdue(ctx context.Context, actor identity.Actor, page, pageSize int) (*shared.Paginated[InvoiceResponse], error) {
	tenantID, err := tenantScope(ctx, s.repos, actor, nil)
	if err != nil {
		return nil, err
	}
	today := finance.DateOnly(s.now())
	f := finance.InvoiceFilter{
		Filter:    shared.Filter{Page: page, PageSize: pageSize, OrderBy: "due_date", OrderDir: "asc"}.Normalized(),
		TenantID:  tenantID,
		Statuses:  []finance.InvoiceStatus{finance.InvoiceStatusSent, finance.InvoiceStatusPartial, finance.InvoiceStatusOverdue},
		DueBefore: &today,
	}
	return s.page(ctx, f)
}

func (s *InvoiceService) page(ctx context.Context, f finance.InvoiceFilter) (*shared.Paginated[InvoiceResponse], error) {
	invoices, err := s.repos.InvoiceRepo().FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.repos.InvoiceRepo().Count(ctx, f)
	if err != nil {
		return nil, err
	}
	result := shared.NewPaginated(toInvoiceResponses(invoices, s.now()), total, f.Page, f.PageSize)
	return &result, nil
}

// AddUtilityCharges bills the given utility charges onto the invoice.
// Every charge must be unbilled and share the invoice's tenant and period; totals are recomputed once.
func (s *InvoiceService) AddUtilityCharges(ctx context.Context, actor identity.Actor, invoiceID uuid.UUID, chargeIDs []uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := startSpan(ctx, "invoice", "add_utility_charges", actor)
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, invoiceID.String(), telemetry.SpanAttrCount, len(chargeIDs))

	if err := identity.RequireCapability(actor.CanManageBilling(), "bill utility charges"); err != nil {
		return nil, fail(span, err)
	}
	if len(chargeIDs) == 0 {
		return nil, fail(span, shared.NewDomainError("VALIDATION_ERROR", "At least one utility charge is required"))
	}

	invoice, err := s.repos.InvoiceRepo().FindByID(ctx, invoiceID)
	if err != nil {
		return nil, fail(span, err)
	}
	period, err := s.repos.BillingPeriodRepo().FindByID(ctx, invoice.BillingPeriodID)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := period.EnsureCanAddCharges(); err != nil {
		return nil, fail(span, err)
	}

	charges, err := s.repos.UtilityChargeRepo().FindByIDs(ctx, chargeIDs)
	if err != nil {
		return nil, fail(span, err)
	}
	if len(charges) != len(uniqueIDs(chargeIDs)) {
		return nil, fail(span, notFound("Utility charge"))
	}
	for i := range charges {
		if err := checkBillable(&charges[i], invoice); err != nil {
			return nil, fail(span, err)
		}
	}
	chargeTypes, err := s.resolveUtilityChargeTypes(ctx, charges)
	if err != nil {
		return nil, fail(span, err)
	}

	err = s.scope.Execute(ctx, func(repos LedgerRepositories) error {
		inv, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		locked, err := repos.UtilityChargeRepo().FindByIDs(ctx, chargeIDs)
		if err != nil {
			return err
		}
		if err := billCharges(inv, locked, chargeTypes, period.Name); err != nil {
			return err
		}
		if err := repos.InvoiceRepo().Save(ctx, inv); err != nil {
			return err
		}
		for i := range locked {
			if err := repos.UtilityChargeRepo().Save(ctx, &locked[i]); err != nil {
				return err
			}
		}
		invoice = inv
		return nil
	})
	if err != nil {
		return nil, fail(span, err)
	}

	resp := ToInvoiceResponse(invoice, s.now())
	return &resp, nil
}

// UnbilledCharges lists the utility charges that could still be billed onto the invoice
func (s *InvoiceService) UnbilledCharges(ctx context.Context, actor identity.Actor, invoiceID uuid.UUID) ([]UtilityChargeResponse, error) {
	invoice, err := s.loadVisible(ctx, actor, invoiceID)
	if err != nil {
		return nil, err
	}
	charges, err := s.repos.UtilityChargeRepo().FindUnbilled(ctx, invoice.TenantID, invoice.BillingPeriodID)
	if err != nil {
		return nil, err
	}
	return toUtilityChargeResponses(charges), nil
}

// ApplyPayment records and processes a payment against the invoice in one step
func (s *InvoiceService) ApplyPayment(ctx context.Context, actor identity.Actor, invoiceID uuid.UUID, req ApplyPaymentRequest) (*PaymentResult, error) {
	invoice, err := s.repos.InvoiceRepo().FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return s.payments.QuickPay(ctx, actor, CreatePaymentRequest{
		TenantID:        invoice.TenantID,
		InvoiceID:       &invoice.ID,
		Amount:          req.Amount,
		PaymentMethod:   req.PaymentMethod,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
	})
}

// PaymentHistory returns the transactions and receipts recorded against an invoice
func (s *InvoiceService) PaymentHistory(ctx context.Context, actor identity.Actor, invoiceID uuid.UUID) (*InvoicePaymentHistory, error) {
	invoice, err := s.loadVisible(ctx, actor, invoiceID)
	if err != nil {
		return nil, err
	}

	byCreation := shared.Filter{OrderBy: "created_at", OrderDir: "asc"}
	txs, err := collectPages(byCreation, func(page shared.Filter) ([]finance.Transaction, error) {
		return s.repos.TransactionRepo().FindAll(ctx, finance.TransactionFilter{Filter: page, InvoiceID: &invoiceID})
	})
	if err != nil {
		return nil, err
	}
	receipts, err := collectPages(byCreation, func(page shared.Filter) ([]finance.Receipt, error) {
		return s.repos.ReceiptRepo().FindAll(ctx, finance.ReceiptFilter{Filter: page, InvoiceID: &invoiceID})
	})
	if err != nil {
		return nil, err
	}

	return &InvoicePaymentHistory{
		Invoice:      ToInvoiceResponse(invoice, s.now()),
		Transactions: toTransactionResponses(txs),
		Receipts:     toReceiptResponses(receipts),
	}, nil
}

// MarkOverdue flags every sent or partially paid invoice past its due date and returns how many changed
func (s *InvoiceService) MarkOverdue(ctx context.Context, actor identity.Actor) (int, error) {
	ctx, span := startSpan(ctx, "invoice", "mark_overdue", actor)
	defer span.End()

	if err := identity.RequireCapability(actor.CanManageBilling(), "mark invoices overdue"); err != nil {
		return 0, fail(span, err)
	}

	now := s.now()
	today := finance.DateOnly(now)
	// every candidate is read before any status changes so paging is not disturbed
	candidates, err := collectPages(shared.Filter{OrderBy: "due_date", OrderDir: "asc"}, func(page shared.Filter) ([]finance.Invoice, error) {
		return s.repos.InvoiceRepo().FindAll(ctx, finance.InvoiceFilter{
			Filter:    page,
			Statuses:  []finance.InvoiceStatus{finance.InvoiceStatusSent, finance.InvoiceStatusPartial},
			DueBefore: &today,
		})
	})
	if err != nil {
		return 0, fail(span, err)
	}

	marked := 0
	for i := range candidates {
		changed := false
		_, err := s.mutate(ctx, candidates[i].ID, func(inv *finance.Invoice) error {
			changed = inv.MarkOverdue(now)
			return nil
		})
		if err != nil {
			s.logger.Error("Failed to mark invoice overdue",
				zap.String("invoice_number", candidates[i].InvoiceNumber),
				zap.Error(err),
			)
			continue
		}
		if changed {
			marked++
		}
	}

	s.metrics.RecordInvoicesOverdue(ctx, marked)
	telemetry.SetAttribute(span, telemetry.SpanAttrCount, marked)
	if marked > 0 {
		s.logger.Info("Invoices marked overdue", zap.Int("count", marked))
	}
	return marked, nil
}

// mutate locks the invoice, applies fn and saves it in one unit of work
func (s *InvoiceService) mutate(ctx context.Context, invoiceID uuid.UUID, fn func(inv *finance.Invoice) error) (*finance.Invoice, error) {
	var result *finance.Invoice
	err := s.scope.Execute(ctx, func(repos LedgerRepositories) error {
		inv, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if err := fn(inv); err != nil {
			return err
		}
		if err := repos.InvoiceRepo().Save(ctx, inv); err != nil {
			return err
		}
		result = inv
		return nil
	})
	return result, err
}

func (s *InvoiceService) loadVisible(ctx context.Context, actor identity.Actor, invoiceID uuid.UUID) (*finance.Invoice, error) {
	invoice, err := s.repos.InvoiceRepo().FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if actor.CanViewAllAccounts() {
		return invoice, nil
	}
	tenant, err := s.repos.TenantRepo().FindByID(ctx, invoice.TenantID)
	if err != nil {
		return nil, err
	}
	if err := requireViewer(actor, tenant); err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *InvoiceService) ensurePeriodOpen(ctx context.Context, periodID uuid.UUID) error {
	period, err := s.repos.BillingPeriodRepo().FindByID(ctx, periodID)
	if err != nil {
		return err
	}
	return period.EnsureCanAddCharges()
}

// resolveUtilityChargeTypes gets or creates the "<type> Bill" charge type for every utility type present
func (s *InvoiceService) resolveUtilityChargeTypes(ctx context.Context, charges []finance.UtilityCharge) (map[finance.UtilityType]*finance.ChargeType, error) {
	return resolveUtilityChargeTypes(ctx, s.chargeTypes, charges)
}

func resolveUtilityChargeTypes(ctx context.Context, chargeTypes *ChargeTypeService, charges []finance.UtilityCharge) (map[finance.UtilityType]*finance.ChargeType, error) {
	out := make(map[finance.UtilityType]*finance.ChargeType)
	for i := range charges {
		utilityType := charges[i].UtilityType
		if _, ok := out[utilityType]; ok {
			continue
		}
		chargeType, err := chargeTypes.GetOrCreate(ctx, finance.UtilityChargeTypeDefinition(utilityType))
		if err != nil {
			return nil, fmt.Errorf("resolve charge type for %s: %w", utilityType, err)
		}
		out[utilityType] = chargeType
	}
	return out, nil
}

// resolveMissingChargeTypes adds to known the charge type of every utility type it lacks,
// reading or creating it through repo so the lookup joins the caller's unit of work
func resolveMissingChargeTypes(ctx context.Context, repo finance.ChargeTypeRepository, known map[finance.UtilityType]*finance.ChargeType, charges []finance.UtilityCharge) error {
	for i := range charges {
		utilityType := charges[i].UtilityType
		if _, ok := known[utilityType]; ok {
			continue
		}
		def := finance.UtilityChargeTypeDefinition(utilityType)
		chargeType, err := repo.FindByName(ctx, def.Name)
		if isNotFound(err) {
			chargeType, err = finance.NewChargeType(def.Name, def.Description, def.Frequency, def.IsSystemCharge)
			if err == nil {
				err = repo.Create(ctx, chargeType)
			}
		}
		if err != nil {
			return fmt.Errorf("resolve charge type for %s: %w", utilityType, err)
		}
		known[utilityType] = chargeType
	}
	return nil
}

// checkBillable validates a utility charge against an invoice before the unit of work starts
func checkBillable(charge *finance.UtilityCharge, invoice *finance.Invoice) error {
	if charge.IsBilled {
		return shared.NewDomainError(finance.CodeAlreadyBilled,
			fmt.Sprintf("Utility charge %s is already billed", charge.ID))
	}
	if charge.TenantID != invoice.TenantID || charge.BillingPeriodID != invoice.BillingPeriodID {
		return shared.NewDomainError(finance.CodeTenantMismatch,
			"Utility charge must belong to the same tenant and billing period as the invoice")
	}
	return nil
}

// billCharges attaches every charge to the invoice and recalculates once
func billCharges(inv *finance.Invoice, charges []finance.UtilityCharge, chargeTypes map[finance.UtilityType]*finance.ChargeType, periodName string) error {
	for i := range charges {
		chargeType, ok := chargeTypes[charges[i].UtilityType]
		if !ok {
			return fmt.Errorf("no charge type resolved for %s", charges[i].UtilityType)
		}
		item, err := charges[i].BillTo(inv, chargeType, periodName)
		if err != nil {
			return err
		}
		item.ChargeTypeName = chargeType.Name
	}
	inv.RecalculateTotals()
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
