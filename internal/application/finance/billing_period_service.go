package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BillingPeriodService manages billing periods and their close gate
type BillingPeriodService struct {
	repos  LedgerRepositories
	scope  LedgerTransactionScope
	logger *zap.Logger
	now    func() time.Time
}

// NewBillingPeriodService creates a new BillingPeriodService
func NewBillingPeriodService(deps Dependencies) *BillingPeriodService {
	deps = deps.withDefaults()
	return &BillingPeriodService{
		repos:  deps.Repos,
		scope:  deps.Scope,
		logger: deps.Logger,
		now:    deps.Clock,
	}
}

// CreateBillingPeriodRequest is a request to open a billing period
type CreateBillingPeriodRequest struct {
	Name       string
	PeriodType finance.PeriodType
	StartDate  time.Time
	EndDate    time.Time
	DueDate    time.Time
}

// BillingPeriodListFilter defines filtering options for billing period listings
type BillingPeriodListFilter struct {
	Page     int
	PageSize int
	IsClosed *bool
	IsActive *bool
}

// InvoiceStatusTotalResponse is the invoice aggregate for one status
type InvoiceStatusTotalResponse struct {
	Status      string        `json:"status"`
	Count       int64         `json:"count"`
	TotalAmount shared.Amount `json:"total_amount"`
	AmountPaid  shared.Amount `json:"amount_paid"`
}

// BillingPeriodSummaryResponse aggregates the invoices of a period
type BillingPeriodSummaryResponse struct {
	Period           BillingPeriodResponse        `json:"period"`
	ByStatus         []InvoiceStatusTotalResponse `json:"by_status"`
	InvoiceCount     int64                        `json:"invoice_count"`
	TotalBilled      shared.Amount                `json:"total_billed"`
	TotalCollected   shared.Amount                `json:"total_collected"`
	TotalOutstanding shared.Amount                `json:"total_outstanding"`
}

// EnsureUpcomingResult lists the monthly periods created and found
type EnsureUpcomingResult struct {
	Created  []BillingPeriodResponse `json:"created"`
	Existing []BillingPeriodResponse `json:"existing"`
}

// Create opens a billing period
func (s *BillingPeriodService) Create(ctx context.Context, actor identity.Actor, req CreateBillingPeriodRequest) (*BillingPeriodResponse, error) {
	ctx, span := startSpan(ctx, "billing_period", "create", actor)
	defer span.End()

	if err := identity.RequireCapability(actor.CanManageBilling(), "create billing periods"); err != nil {
		return nil, fail(span, err)
	}

	period, err := finance.NewBillingPeriod(req.Name, req.PeriodType, req.StartDate, req.EndDate, req.DueDate)
	if err != nil {
		return nil, fail(span, err)
	}
	period.CreatedBy = actorIDPtr(actor)

	if _, err := s.repos.BillingPeriodRepo().FindByStartDate(ctx, period.StartDate); err == nil {
		return nil, fail(span, shared.NewDomainError(shared.ErrAlreadyExists.Code,
			fmt.Sprintf("A billing period starting %s already exists", period.StartDate.Format(time.DateOnly))))
	} else if !isNotFound(err) {
		return nil, fail(span, err)
	}

	if err := s.repos.BillingPeriodRepo().Save(ctx, period); err != nil {
		return nil, fail(span, err)
	}

	s.logger.Info("Billing period created",
		zap.String("billing_period_id", period.ID.String()),
		zap.String("name", period.Name),
	)
	resp := ToBillingPeriodResponse(period, s.now())
	return &resp, nil
}

// Get returns a billing period
func (s *BillingPeriodService) Get(ctx context.Context, id uuid.UUID) (*BillingPeriodResponse, error) {
	period, err := s.repos.BillingPeriodRepo().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToBillingPeriodResponse(period, s.now())
	return &resp, nil
}

// Current returns the active period containing today
func (s *BillingPeriodService) Current(ctx context.Context) (*BillingPeriodResponse, error) {
	now := s.now()
	period, err := s.repos.BillingPeriodRepo().FindCurrent(ctx, now)
	if err != nil {
		if isNotFound(err) {
			return nil, notFound("Current billing period")
		}
		return nil, err
	}
	resp := ToBillingPeriodResponse(period, now)
	return &resp, nil
}

// List returns billing periods, newest first
func (s *BillingPeriodService) List(ctx context.Context, filter BillingPeriodListFilter) (*shared.Paginated[BillingPeriodResponse], error) {
	f := finance.BillingPeriodFilter{
		Filter:   shared.Filter{Page: filter.Page, PageSize: filter.PageSize, OrderBy: "start_date"}.Normalized(),
		IsClosed: filter.IsClosed,
		IsActive: filter.IsActive,
	}
	periods, err := s.repos.BillingPeriodRepo().FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.repos.BillingPeriodRepo().Count(ctx, f)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]BillingPeriodResponse, len(periods))
	for i := range periods {
		items[i] = ToBillingPeriodResponse(&periods[i], now)
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// Summary aggregates invoice counts and amounts by status for a period
func (s *BillingPeriodService) Summary(ctx context.Context, actor identity.Actor, id uuid.UUID) (*BillingPeriodSummaryResponse, error) {
	ctx, span := startSpan(ctx, "billing_period", "summary", actor)
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrBillingPeriodID, id.String())

	if err := identity.RequireCapability(actor.CanViewAllAccounts(), "view billing summaries"); err != nil {
		return nil, fail(span, err)
	}

	period, err := s.repos.BillingPeriodRepo().FindByID(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}
	totals, err := s.repos.InvoiceRepo().SummarizeByStatus(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}

	summary := &BillingPeriodSummaryResponse{
		Period:   ToBillingPeriodResponse(period, s.now()),
		ByStatus: make([]InvoiceStatusTotalResponse, 0, len(totals)),
	}
	billed, collected := decimal.Zero, decimal.Zero
	for _, t := range totals {
		summary.ByStatus = append(summary.ByStatus, InvoiceStatusTotalResponse{
			Status:      t.Status.String(),
			Count:       t.Count,
			TotalAmount: shared.AmountOf(t.TotalAmount),
			AmountPaid:  shared.AmountOf(t.AmountPaid),
		})
		summary.InvoiceCount += t.Count
		if t.Status == finance.InvoiceStatusCancelled {
			continue
		}
		billed = billed.Add(t.TotalAmount)
		collected = collected.Add(t.AmountPaid)
	}
	summary.TotalBilled = shared.AmountOf(billed)
	summary.TotalCollected = shared.AmountOf(collected)
	summary.TotalOutstanding = shared.AmountOf(billed.Sub(collected))
	return summary, nil
}

// Close closes a period. Unless force is set, it refuses while draft, sent or
// partially paid invoices remain in the period.
func (s *BillingPeriodService) Close(ctx context.Context, actor identity.Actor, id uuid.UUID, force bool) (*BillingPeriodResponse, error) {
	ctx, span := startSpan(ctx, "billing_period", "close", actor)
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrBillingPeriodID, id.String(), "force", force)

	if err := identity.RequireCapability(actor.CanCloseBillingPeriods(), "close billing periods"); err != nil {
		return nil, fail(span, err)
	}

	period, err := s.repos.BillingPeriodRepo().FindByID(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}
	if period.IsClosed {
		return nil, fail(span, shared.NewDomainError(finance.CodeAlreadyClosed,
			fmt.Sprintf("Billing period %s is already closed", period.Name)))
	}

	if !force {
		pending, err := s.repos.InvoiceRepo().Count(ctx, finance.InvoiceFilter{
			BillingPeriodID: &id,
			Statuses:        finance.PendingInvoiceStatuses(),
		})
		if err != nil {
			return nil, fail(span, err)
		}
		if pending > 0 {
			return nil, fail(span, shared.NewDomainError(finance.CodePendingInvoices,
				fmt.Sprintf("Cannot close billing period with %d pending invoices", pending)))
		}
	}

	err = s.scope.Execute(ctx, func(repos LedgerRepositories) error {
		locked, err := repos.BillingPeriodRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := locked.Close(actor.UserID()); err != nil {
			return err
		}
		period = locked
		return repos.BillingPeriodRepo().Save(ctx, locked)
	})
	if err != nil {
		return nil, fail(span, err)
	}

	s.logger.Info("Billing period closed",
		zap.String("billing_period_id", period.ID.String()),
		zap.String("name", period.Name),
		zap.Bool("forced", force),
	)
	resp := ToBillingPeriodResponse(period, s.now())
	return &resp, nil
}

// EnsureUpcoming makes sure monthly periods exist for the current month and the
// following months-1 months
func (s *BillingPeriodService) EnsureUpcoming(ctx context.Context, actor identity.Actor, months int) (*EnsureUpcomingResult, error) {
	ctx, span := startSpan(ctx, "billing_period", "ensure_upcoming", actor)
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrCount, months)

	if err := identity.RequireCapability(actor.CanManageBilling(), "create billing periods"); err != nil {
		return nil, fail(span, err)
	}
	if months < 1 || months > 24 {
		return nil, fail(span, shared.NewDomainError("VALIDATION_ERROR", "Months must be between 1 and 24"))
	}

	now := s.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	result := &EnsureUpcomingResult{
		Created:  make([]BillingPeriodResponse, 0),
		Existing: make([]BillingPeriodResponse, 0),
	}

	for i := 0; i < months; i++ {
		month := first.AddDate(0, i, 0)
		existing, err := s.repos.BillingPeriodRepo().FindByStartDate(ctx, month)
		if err == nil {
			result.Existing = append(result.Existing, ToBillingPeriodResponse(existing, now))
			continue
		}
		if !isNotFound(err) {
			return nil, fail(span, err)
		}

		period := finance.NewMonthlyBillingPeriod(month.Year(), month.Month())
		period.CreatedBy = actorIDPtr(actor)
		if err := s.repos.BillingPeriodRepo().Save(ctx, period); err != nil {
			if shared.HasCode(err, shared.ErrAlreadyExists.Code) {
				continue
			}
			return nil, fail(span, err)
		}
		result.Created = append(result.Created, ToBillingPeriodResponse(period, now))
	}

	if len(result.Created) > 0 {
		s.logger.Info("Billing periods created", zap.Int("count", len(result.Created)))
	}
	return result, nil
}
