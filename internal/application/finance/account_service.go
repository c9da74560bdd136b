package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AccountService exposes read access to accounts
type AccountService struct {
	repos  LedgerRepositories
	logger *zap.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(deps Dependencies) *AccountService {
	deps = deps.withDefaults()
	return &AccountService{repos: deps.Repos, logger: deps.Logger}
}

// AccountListFilter defines filtering options for account listings
type AccountListFilter struct {
	Page     int
	PageSize int
	InDebt   *bool
}

// AccountSummaryResponse is an account with its recent activity and open invoices
type AccountSummaryResponse struct {
	Account             AccountResponse       `json:"account"`
	RecentTransactions  []TransactionResponse `json:"recent_transactions"`
	TransactionCount    int64                 `json:"transaction_count"`
	OutstandingInvoices int64                 `json:"outstanding_invoices"`
	TotalOutstanding    shared.Amount         `json:"total_outstanding"`
}

const recentTransactionLimit = 10

// Get returns an account the actor may view
func (s *AccountService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*AccountResponse, error) {
	ctx, span := startSpan(ctx, "account", "get", actor)
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrAccountID, id.String())

	account, err := s.repos.AccountRepo().FindByID(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := identity.RequireCapability(actor.CanViewAccount(account.UserID), "view this account"); err != nil {
		return nil, fail(span, err)
	}

	resp := ToAccountResponse(account)
	return &resp, nil
}

// GetMine returns the actor's own account
func (s *AccountService) GetMine(ctx context.Context, actor identity.Actor) (*AccountResponse, error) {
	account, err := s.repos.AccountRepo().FindByUserID(ctx, actor.UserID())
	if err != nil {
		return nil, err
	}
	resp := ToAccountResponse(account)
	return &resp, nil
}

// List returns accounts for staff and landlords
func (s *AccountService) List(ctx context.Context, actor identity.Actor, filter AccountListFilter) (*shared.Paginated[AccountResponse], error) {
	ctx, span := startSpan(ctx, "account", "list", actor)
	defer span.End()

	if err := identity.RequireCapability(actor.CanViewAllAccounts(), "list accounts"); err != nil {
		return nil, fail(span, err)
	}

	f := finance.AccountFilter{
		Filter: shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalized(),
		InDebt: filter.InDebt,
	}
	accounts, err := s.repos.AccountRepo().FindAll(ctx, f)
	if err != nil {
		return nil, fail(span, err)
	}
	total, err := s.repos.AccountRepo().Count(ctx, f)
	if err != nil {
		return nil, fail(span, err)
	}

	items := make([]AccountResponse, len(accounts))
	for i := range accounts {
		items[i] = ToAccountResponse(&accounts[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// Summary returns the account with its latest transactions and what its tenant still owes
func (s *AccountService) Summary(ctx context.Context, actor identity.Actor, id uuid.UUID) (*AccountSummaryResponse, error) {
	ctx, span := startSpan(ctx, "account", "summary", actor)
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrAccountID, id.String())

	account, err := s.repos.AccountRepo().FindByID(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := identity.RequireCapability(actor.CanViewAccount(account.UserID), "view this account"); err != nil {
		return nil, fail(span, err)
	}

	txFilter := finance.TransactionFilter{
		Filter:    shared.Filter{Page: 1, PageSize: recentTransactionLimit, OrderBy: "created_at", OrderDir: "desc"},
		AccountID: &account.ID,
	}
	recent, err := s.repos.TransactionRepo().FindAll(ctx, txFilter)
	if err != nil {
		return nil, fail(span, err)
	}
	count, err := s.repos.TransactionRepo().Count(ctx, txFilter)
	if err != nil {
		return nil, fail(span, err)
	}

	summary := &AccountSummaryResponse{
		Account:            ToAccountResponse(account),
		RecentTransactions: toTransactionResponses(recent),
		TransactionCount:   count,
		TotalOutstanding:   shared.AmountOf(decimal.Zero),
	}

	tenant, err := s.repos.TenantRepo().FindByUserID(ctx, account.UserID)
	if err != nil {
		if isNotFound(err) {
			return summary, nil
		}
		return nil, fail(span, err)
	}

	open, err := collectPages(shared.Filter{OrderBy: "due_date", OrderDir: "asc"}, func(page shared.Filter) ([]finance.Invoice, error) {
		return s.repos.InvoiceRepo().FindAll(ctx, finance.InvoiceFilter{
			Filter:   page,
			TenantID: &tenant.ID,
			Statuses: finance.PendingInvoiceStatuses(),
		})
	})
	if err != nil {
		return nil, fail(span, err)
	}
	outstanding := decimal.Zero
	for i := range open {
		summary.OutstandingInvoices++
		outstanding = outstanding.Add(open[i].BalanceDue())
	}
	summary.TotalOutstanding = shared.AmountOf(outstanding)
	return summary, nil
}
