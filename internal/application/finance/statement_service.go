package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/domain/tenancy"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// StatementService builds tenant account statements
type StatementService struct {
	repos  LedgerRepositories
	logger *zap.Logger
	now    func() time.Time
}

// NewStatementService creates a new StatementService
func NewStatementService(deps Dependencies) *StatementService {
	deps = deps.withDefaults()
	return &StatementService{repos: deps.Repos, logger: deps.Logger, now: deps.Clock}
}

// StatementResponse is a tenant's account activity over [from, to)
type StatementResponse struct {
	TenantID       uuid.UUID             `json:"tenant_id"`
	AccountID      uuid.UUID             `json:"account_id"`
	From           time.Time             `json:"from"`
	To             time.Time             `json:"to"`
	OpeningBalance shared.Amount         `json:"opening_balance"`
	TotalCredits   shared.Amount         `json:"total_credits"`
	TotalDebits    shared.Amount         `json:"total_debits"`
	ClosingBalance shared.Amount         `json:"closing_balance"`
	CurrentBalance shared.Amount         `json:"current_balance"`
	Transactions   []TransactionResponse `json:"transactions"`
}

// BalanceResponse is the tenant's live balance
type BalanceResponse struct {
	TenantID uuid.UUID       `json:"tenant_id"`
	Account  AccountResponse `json:"account"`
}

// Generate builds the statement. A zero from defaults to the start of the current month
// and a zero to defaults to now.
func (s *StatementService) Generate(ctx context.Context, actor identity.Actor, tenantID uuid.UUID, from, to time.Time) (*StatementResponse, error) {
	ctx, span := startSpan(ctx, "statement", "generate", actor)
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrTenantID, tenantID.String())

	now := s.now()
	if from.IsZero() {
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	}
	if to.IsZero() {
		to = now
	}

	_, account, err := s.tenantAccount(ctx, actor, tenantID)
	if err != nil {
		return nil, fail(span, err)
	}
	opening, err := s.repos.TransactionRepo().NetEffectBefore(ctx, account.ID, from)
	if err != nil {
		return nil, fail(span, err)
	}
	txs, err := s.repos.TransactionRepo().FindInRange(ctx, account.ID, from, to)
	if err != nil {
		return nil, fail(span, err)
	}
	st, err := finance.NewStatement(account.ID, from, to, opening, txs)
	if err != nil {
		return nil, fail(span, err)
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrCount, len(txs))

	return &StatementResponse{
		TenantID:       tenantID,
		AccountID:      account.ID,
		From:           st.From,
		To:             st.To,
		OpeningBalance: shared.AmountOf(st.OpeningBalance),
		TotalCredits:   shared.AmountOf(st.TotalCredits),
		TotalDebits:    shared.AmountOf(st.TotalDebits),
		ClosingBalance: shared.AmountOf(st.ClosingBalance),
		CurrentBalance: shared.AmountOf(account.Balance),
		Transactions:   toTransactionResponses(st.Transactions),
	}, nil
}

// CurrentBalance returns the tenant's account with its derived debt and credit figures
func (s *StatementService) CurrentBalance(ctx context.Context, actor identity.Actor, tenantID uuid.UUID) (*BalanceResponse, error) {
	_, account, err := s.tenantAccount(ctx, actor, tenantID)
	if err != nil {
		return nil, err
	}
	return &BalanceResponse{TenantID: tenantID, Account: ToAccountResponse(account)}, nil
}

func (s *StatementService) tenantAccount(ctx context.Context, actor identity.Actor, tenantID uuid.UUID) (*tenancy.Tenant, *finance.Account, error) {
	tenant, err := s.repos.TenantRepo().FindByID(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireViewer(actor, tenant); err != nil {
		return nil, nil, err
	}
	account, err := s.repos.AccountRepo().FindByUserID(ctx, tenant.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, notFound("Account")
		}
		return nil, nil, err
	}
	return tenant, account, nil
}
