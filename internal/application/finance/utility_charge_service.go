package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UtilityChargeService records utility bills and moves them onto invoices
type UtilityChargeService struct {
	repos    LedgerRepositories
	scope    LedgerTransactionScope
	invoices *InvoiceService
	logger   *zap.Logger
}

// NewUtilityChargeService creates a new UtilityChargeService
func NewUtilityChargeService(deps Dependencies, invoices *InvoiceService) *UtilityChargeService {
	deps = deps.withDefaults()
	return &UtilityChargeService{
		repos:    deps.Repos,
		scope:    deps.Scope,
		invoices: invoices,
		logger:   deps.Logger,
	}
}

// RecordUtilityChargeRequest records one utility bill for a tenant and period
type RecordUtilityChargeRequest struct {
	TenantID        uuid.UUID
	UtilityType     finance.UtilityType
	BillingPeriodID uuid.UUID
	Amount          decimal.Decimal
	Description     string
	ReferenceNumber string
}

// UtilityChargeEntry is one row of a bulk upload into a known period
type UtilityChargeEntry struct {
	TenantID        uuid.UUID
	UtilityType     finance.UtilityType
	Amount          decimal.Decimal
	Description     string
	ReferenceNumber string
}

// UtilityChargeListFilter defines filtering options for utility charge listings
type UtilityChargeListFilter struct {
	Page            int
	PageSize        int
	TenantID        *uuid.UUID
	BillingPeriodID *uuid.UUID
	UtilityType     *finance.UtilityType
	IsBilled        *bool
}

// BulkBillResult is the invoice a tenant's utilities were billed onto
type BulkBillResult struct {
	Invoice        InvoiceResponse `json:"invoice"`
	InvoiceCreated bool            `json:"invoice_created"`
	ChargesBilled  int             `json:"charges_billed"`
}

type chargeKey struct {
	tenantID    uuid.UUID
	utilityType finance.UtilityType
	periodID    uuid.UUID
}

// Record stores a single unbilled utility charge
func (s *UtilityChargeService) Record(ctx context.Context, actor identity.Actor, req RecordUtilityChargeRequest) (*UtilityChargeResponse, error) {
	created, err := s.BulkCreate(ctx, actor, []RecordUtilityChargeRequest{req})
	if err != nil {
		return nil, err
	}
	return &created[0], nil
}

// BulkCreate stores every charge or none of them
func (s *UtilityChargeService) BulkCreate(ctx context.Context, actor identity.Actor, reqs []RecordUtilityChargeRequest) ([]UtilityChargeResponse, error) {
	ctx, span := startSpan(ctx, "utility_charge", "bulk_create", actor)
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrCount, len(reqs))

	if err := identity.RequireCapability(actor.CanRecordUtilities(), "record utility charges"); err != nil {
		return nil, fail(span, err)
	}
	if len(reqs) == 0 {
		return nil, fail(span, shared.NewDomainError("VALIDATION_ERROR", "At least one utility charge is required"))
	}

	periods := make(map[uuid.UUID]*finance.BillingPeriod)
	seen := make(map[chargeKey]struct{}, len(reqs))
	charges := make([]*finance.UtilityCharge, 0, len(reqs))
	for i, req := range reqs {
		period, ok := periods[req.BillingPeriodID]
		if !ok {
			p, err := s.repos.BillingPeriodRepo().FindByID(ctx, req.BillingPeriodID)
			if err != nil {
				return nil, fail(span, err)
			}
			if err := p.EnsureCanAddCharges(); err != nil {
				return nil, fail(span, err)
			}
			periods[p.ID], period = p, p
		}
		if _, err := s.repos.TenantRepo().FindByID(ctx, req.TenantID); err != nil {
			return nil, fail(span, err)
		}

		key := chargeKey{req.TenantID, req.UtilityType, req.BillingPeriodID}
		if _, dup := seen[key]; dup {
			return nil, fail(span, shared.NewDomainError("VALIDATION_ERROR",
				fmt.Sprintf("Entry %d repeats a %s charge for the same tenant", i+1, req.UtilityType)))
		}
		seen[key] = struct{}{}

		charge, err := finance.NewUtilityCharge(req.TenantID, req.UtilityType, period, req.Amount)
		if err != nil {
			return nil, fail(span, err)
		}
		charge.SetDetails(req.Description, req.ReferenceNumber)
		charge.RecordedBy = actorIDPtr(actor)
		charges = append(charges, charge)
	}

	err := s.scope.Execute(ctx, func(repos LedgerRepositories) error {
		for _, charge := range charges {
			exists, err := repos.UtilityChargeRepo().ExistsFor(ctx, charge.TenantID, charge.UtilityType, charge.BillingPeriodID)
			if err != nil {
				return err
			}
			if exists {
				return shared.NewDomainError(shared.ErrAlreadyExists.Code,
					fmt.Sprintf("A %s charge already exists for this tenant and period", charge.UtilityType))
			}
			if err := repos.UtilityChargeRepo().Save(ctx, charge); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fail(span, err)
	}

	out := make([]UtilityChargeResponse, len(charges))
	for i, charge := range charges {
		out[i] = ToUtilityChargeResponse(charge)
	}
	s.logger.Info("Utility charges recorded", zap.Int("count", len(out)))
	return out, nil
}

// BulkAddToPeriod records a batch of charges into one billing period
func (s *UtilityChargeService) BulkAddToPeriod(ctx context.Context, actor identity.Actor, periodID uuid.UUID, entries []UtilityChargeEntry) ([]UtilityChargeResponse, error) {
	reqs := make([]RecordUtilityChargeRequest, len(entries))
	for i, e := range entries {
		reqs[i] = RecordUtilityChargeRequest{
			TenantID:        e.TenantID,
			UtilityType:     e.UtilityType,
			BillingPeriodID: periodID,
			Amount:          e.Amount,
			Description:     e.Description,
			ReferenceNumber: e.ReferenceNumber,
		}
	}
	return s.BulkCreate(ctx, actor, reqs)
}

// AddToInvoice bills one charge onto an invoice. A billed charge fails with ALREADY_BILLED.
func (s *UtilityChargeService) AddToInvoice(ctx context.Context, actor identity.Actor, chargeID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	return s.invoices.AddUtilityCharges(ctx, actor, invoiceID, []uuid.UUID{chargeID})
}

// BulkBill finds or creates the tenant's invoice for the period and bills every unbilled charge onto it
func (s *UtilityChargeService) BulkBill(ctx context.Context, actor identity.Actor, periodID, tenantID uuid.UUID) (*BulkBillResult, error) {
	ctx, span := startSpan(ctx, "utility_charge", "bulk_bill", actor)
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrBillingPeriodID, periodID.String(),
	)

	pending, err := s.repos.UtilityChargeRepo().FindUnbilled(ctx, tenantID, periodID)
	if err != nil {
		return nil, fail(span, err)
	}

	generated, err := s.invoices.GenerateForTenant(ctx, actor, tenantID, periodID)
	if err != nil {
		return nil, fail(span, err)
	}
	result := &BulkBillResult{Invoice: generated.Invoice, InvoiceCreated: generated.Created}
	if generated.Created {
		result.ChargesBilled = countBilledItems(generated.Invoice)
		return result, nil
	}

	// the invoice already existed, so the unbilled charges still need attaching
	if len(pending) == 0 {
		return result, nil
	}
	ids := make([]uuid.UUID, len(pending))
	for i := range pending {
		ids[i] = pending[i].ID
	}
	invoice, err := s.invoices.AddUtilityCharges(ctx, actor, generated.Invoice.ID, ids)
	if err != nil {
		return nil, fail(span, err)
	}
	result.Invoice = *invoice
	result.ChargesBilled = len(ids)
	return result, nil
}

func countBilledItems(inv InvoiceResponse) int {
	n := 0
	for _, item := range inv.Items {
		if item.UtilityChargeID != nil {
			n++
		}
	}
	return n
}

// Get returns a utility charge the actor may view
func (s *UtilityChargeService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*UtilityChargeResponse, error) {
	charge, err := s.repos.UtilityChargeRepo().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanViewAllAccounts() && !actor.CanRecordUtilities() {
		tenant, err := s.repos.TenantRepo().FindByID(ctx, charge.TenantID)
		if err != nil {
			return nil, err
		}
		if err := requireViewer(actor, tenant); err != nil {
			return nil, err
		}
	}
	resp := ToUtilityChargeResponse(charge)
	return &resp, nil
}

// List returns utility charges; tenants only see their own
func (s *UtilityChargeService) List(ctx context.Context, actor identity.Actor, filter UtilityChargeListFilter) (*shared.Paginated[UtilityChargeResponse], error) {
	tenantID := filter.TenantID
	if !actor.CanRecordUtilities() {
		scoped, err := tenantScope(ctx, s.repos, actor, filter.TenantID)
		if err != nil {
			return nil, err
		}
		tenantID = scoped
	}

	f := finance.UtilityChargeFilter{
		Filter:          shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalized(),
		TenantID:        tenantID,
		BillingPeriodID: filter.BillingPeriodID,
		UtilityType:     filter.UtilityType,
		IsBilled:        filter.IsBilled,
	}
	charges, err := s.repos.UtilityChargeRepo().FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.repos.UtilityChargeRepo().Count(ctx, f)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(toUtilityChargeResponses(charges), total, f.Page, f.PageSize)
	return &page, nil
}
