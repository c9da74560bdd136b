package finance

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/propledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ReceiptService reads issued receipts. Receipts are only written while processing a payment.
type ReceiptService struct {
	repos  LedgerRepositories
	logger *zap.Logger
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(deps Dependencies) *ReceiptService {
	deps = deps.withDefaults()
	return &ReceiptService{repos: deps.Repos, logger: deps.Logger}
}

// ReceiptListFilter defines filtering options for receipt listings
type ReceiptListFilter struct {
	Page      int
	PageSize  int
	TenantID  *uuid.UUID
	InvoiceID *uuid.UUID
}

// Get returns a receipt by ID
func (s *ReceiptService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*ReceiptResponse, error) {
	receipt, err := s.repos.ReceiptRepo().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.visible(ctx, actor, receipt)
}

// GetByNumber returns a receipt by its RCP number
func (s *ReceiptService) GetByNumber(ctx context.Context, actor identity.Actor, number string) (*ReceiptResponse, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Receipt number is required")
	}
	receipt, err := s.repos.ReceiptRepo().FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return s.visible(ctx, actor, receipt)
}

// List returns receipts, newest first; tenants only see their own
func (s *ReceiptService) List(ctx context.Context, actor identity.Actor, filter ReceiptListFilter) (*shared.Paginated[ReceiptResponse], error) {
	tenantID, err := tenantScope(ctx, s.repos, actor, filter.TenantID)
	if err != nil {
		return nil, err
	}

	base := shared.Filter{Page: filter.Page, PageSize: filter.PageSize, OrderDir: "desc"}.Normalized()
	f := finance.ReceiptFilter{Filter: base, TenantID: tenantID, InvoiceID: filter.InvoiceID}
	receipts, err := s.repos.ReceiptRepo().FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.repos.ReceiptRepo().Count(ctx, f)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(toReceiptResponses(receipts), total, f.Page, f.PageSize)
	return &page, nil
}

func (s *ReceiptService) visible(ctx context.Context, actor identity.Actor, receipt *finance.Receipt) (*ReceiptResponse, error) {
	if !actor.CanViewAllAccounts() {
		tenant, err := s.repos.TenantRepo().FindByID(ctx, receipt.TenantID)
		if err != nil {
			return nil, err
		}
		if err := requireViewer(actor, tenant); err != nil {
			return nil, err
		}
	}
	resp := ToReceiptResponse(receipt)
	return &resp, nil
}
