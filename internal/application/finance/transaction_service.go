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

// TransactionService posts manual ledger entries and reverses transactions
type TransactionService struct {
	repos   LedgerRepositories
	scope   LedgerTransactionScope
	engine  *BalanceEngine
	metrics *telemetry.LedgerMetrics
	logger  *zap.Logger
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(deps Dependencies, engine *BalanceEngine) *TransactionService {
	deps = deps.withDefaults()
	return &TransactionService{
		repos:   deps.Repos,
		scope:   deps.Scope,
		engine:  engine,
		metrics: deps.Metrics,
		logger:  deps.Logger,
	}
}

// PostTransactionRequest is a manual posting by staff.
// Payments are not accepted here; they go through PaymentService.
type PostTransactionRequest struct {
	AccountID       uuid.UUID
	TransactionType finance.TransactionType
	Amount          decimal.Decimal
	PaymentMethod   finance.PaymentMethod
	InvoiceID       *uuid.UUID
	ReferenceNumber string
	Description     string
}

// TransactionListFilter defines filtering options for transaction listings
type TransactionListFilter struct {
	Page            int
	PageSize        int
	AccountID       *uuid.UUID
	TransactionType *finance.TransactionType
	From            *time.Time
	To              *time.Time
}

// TransactionResult is a posted or reversing transaction with the resulting account state
type TransactionResult struct {
	Transaction TransactionResponse `json:"transaction"`
	Account     AccountResponse     `json:"account"`
}

// Post records a manual charge, adjustment, penalty, credit or refund
func (s *TransactionService) Post(ctx context.Context, actor identity.Actor, req PostTransactionRequest) (*TransactionResult, error) {
	ctx, span := startSpan(ctx, "transaction", "post", actor)
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAccountID, req.AccountID.String(),
		telemetry.SpanAttrTransactionType, req.TransactionType.String(),
		telemetry.SpanAttrAmount, req.Amount.StringFixed(2),
	)

	if err := identity.RequireCapability(actor.CanManageBilling(), "post transactions"); err != nil {
		return nil, fail(span, err)
	}
	if req.TransactionType == finance.TransactionTypePayment {
		return nil, fail(span, shared.NewDomainError(finance.CodeInvalidTransactionType,
			"Payments must be recorded through the payments endpoint"))
	}
	if _, err := s.repos.AccountRepo().FindByID(ctx, req.AccountID); err != nil {
		return nil, fail(span, err)
	}
	if strings.TrimSpace(req.Description) == "" {
		req.Description = fmt.Sprintf("Manual %s", req.TransactionType)
	}

	tx, err := finance.NewTransaction(req.AccountID, req.TransactionType, req.Amount, finance.TransactionDetails{
		PaymentMethod:   req.PaymentMethod,
		InvoiceID:       req.InvoiceID,
		ReferenceNumber: req.ReferenceNumber,
		Description:     req.Description,
		ProcessedBy:     actorIDPtr(actor),
	})
	if err != nil {
		return nil, fail(span, err)
	}

	var account *finance.Account
	err = s.scope.Execute(ctx, func(repos LedgerRepositories) error {
		posted, err := s.engine.Post(ctx, repos, tx)
		account = posted
		return err
	})
	if err != nil {
		return nil, fail(span, err)
	}

	s.metrics.RecordTransactionPosted(ctx, tx.TransactionType.String())
	telemetry.SetAttribute(span, telemetry.SpanAttrTransactionID, tx.TransactionID.String())
	s.logger.Info("Manual transaction posted",
		zap.String("transaction_id", tx.TransactionID.String()),
		zap.String("type", tx.TransactionType.String()),
		zap.String("amount", tx.Amount.StringFixed(2)),
		zap.String("posted_by", actor.UserID().String()),
	)
	return &TransactionResult{Transaction: ToTransactionResponse(tx), Account: ToAccountResponse(account)}, nil
}

// Reverse undoes a transaction through an offsetting reversal.
// The id may be the row ID or the public transaction_id.
func (s *TransactionService) Reverse(ctx context.Context, actor identity.Actor, id uuid.UUID, reason string) (*TransactionResult, error) {
	ctx, span := startSpan(ctx, "transaction", "reverse", actor)
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrTransactionID, id.String())

	if err := identity.RequireCapability(actor.CanReverseTransactions(), "reverse transactions"); err != nil {
		return nil, fail(span, err)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fail(span, shared.NewDomainError("VALIDATION_ERROR", "A reason is required to reverse a transaction"))
	}

	original, err := s.find(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}
	if original.IsReversed {
		return nil, fail(span, finance.NewAlreadyReversedError(original.TransactionID))
	}

	var reversal *finance.Transaction
	var account *finance.Account
	err = s.scope.Execute(ctx, func(repos LedgerRepositories) error {
		var err error
		reversal, account, err = s.engine.Reverse(ctx, repos, original.ID, actor.UserID(), reason)
		return err
	})
	if err != nil {
		return nil, fail(span, err)
	}

	s.metrics.RecordTransactionReversed(ctx, original.TransactionType.String())
	return &TransactionResult{Transaction: ToTransactionResponse(reversal), Account: ToAccountResponse(account)}, nil
}

// Get returns a transaction the actor may view
func (s *TransactionService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*TransactionResponse, error) {
	tx, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanViewAllAccounts() {
		account, err := s.repos.AccountRepo().FindByID(ctx, tx.AccountID)
		if err != nil {
			return nil, err
		}
		if err := identity.RequireCapability(actor.CanViewAccount(account.UserID), "view this transaction"); err != nil {
			return nil, err
		}
	}
	resp := ToTransactionResponse(tx)
	return &resp, nil
}

// List returns transactions; callers without wide read access only see their own account
func (s *TransactionService) List(ctx context.Context, actor identity.Actor, filter TransactionListFilter) (*shared.Paginated[TransactionResponse], error) {
	accountID := filter.AccountID
	if !actor.CanViewAllAccounts() {
		own, err := s.repos.AccountRepo().FindByUserID(ctx, actor.UserID())
		if err != nil {
			return nil, err
		}
		if accountID != nil && *accountID != own.ID {
			return nil, identity.RequireCapability(false, "view this account")
		}
		accountID = &own.ID
	}
	if filter.From != nil && filter.To != nil && !filter.To.After(*filter.From) {
		return nil, shared.NewDomainError(finance.CodeInvalidDateRange, "The end of the range must be after its start")
	}

	f := finance.TransactionFilter{
		Filter:          shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalized(),
		AccountID:       accountID,
		TransactionType: filter.TransactionType,
		From:            filter.From,
		To:              filter.To,
	}
	txs, err := s.repos.TransactionRepo().FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.repos.TransactionRepo().Count(ctx, f)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(toTransactionResponses(txs), total, f.Page, f.PageSize)
	return &page, nil
}

func (s *TransactionService) find(ctx context.Context, id uuid.UUID) (*finance.Transaction, error) {
	tx, err := s.repos.TransactionRepo().FindByID(ctx, id)
	if err == nil || !isNotFound(err) {
		return tx, err
	}
	return s.repos.TransactionRepo().FindByTransactionID(ctx, id)
}
