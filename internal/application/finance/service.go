package finance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/domain/tenancy"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Dependencies bundles what every ledger service needs.
// Repos serves reads outside a unit of work; Scope opens one for writes.
type Dependencies struct {
	Repos   LedgerRepositories
	Scope   LedgerTransactionScope
	Metrics *telemetry.LedgerMetrics
	Logger  *zap.Logger
	Clock   func() time.Time
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = telemetry.NewNoopLedgerMetrics()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return d
}

// startSpan opens the service span and stamps the actor on it
func startSpan(ctx context.Context, service, method string, actor identity.Actor) (context.Context, trace.Span) {
	ctx, span := telemetry.StartServiceSpan(ctx, service, method)
	if actor != nil {
		telemetry.SetAttributes(span,
			telemetry.SpanAttrUserID, actor.UserID().String(),
			telemetry.SpanAttrActorRole, actor.Role().String(),
		)
	}
	return ctx, span
}

// fail records err on the span and returns it unchanged
func fail(span trace.Span, err error) error {
	telemetry.RecordError(span, err)
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound) || shared.HasCode(err, shared.ErrNotFound.Code)
}

func notFound(what string) *shared.DomainError {
	return shared.NewDomainError(shared.ErrNotFound.Code, what+" not found")
}

// requireViewer fails with FORBIDDEN unless the actor may read the tenant's records
func requireViewer(actor identity.Actor, tenant *tenancy.Tenant) error {
	return identity.RequireCapability(actor.CanViewAccount(tenant.UserID), "view this tenant's records")
}

// tenantScope narrows list queries to the actor's own tenant unless the actor may see every account.
// A nil result with a nil error means no narrowing.
func tenantScope(ctx context.Context, repos LedgerRepositories, actor identity.Actor, requested *uuid.UUID) (*uuid.UUID, error) {
	if actor.CanViewAllAccounts() {
		return requested, nil
	}
	own, err := repos.TenantRepo().FindByUserID(ctx, actor.UserID())
	if err != nil {
		if isNotFound(err) {
			return nil, identity.RequireCapability(false, "list ledger records")
		}
		return nil, err
	}
	if requested != nil && *requested != own.ID {
		return nil, identity.RequireCapability(false, "view this tenant's records")
	}
	return &own.ID, nil
}

// scanPageSize is the page size used when a service reads every matching row
var scanPageSize = 200

// collectPages calls fetch with successive pages of base until a short page comes back.
// base must order on a column that fetch's rows do not change.
func collectPages[T any](base shared.Filter, fetch func(page shared.Filter) ([]T, error)) ([]T, error) {
	var out []T
	base.PageSize = scanPageSize
	for base.Page = 1; ; base.Page++ {
		rows, err := fetch(base)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
		if len(rows) < scanPageSize {
			return out, nil
		}
	}
}

func actorIDPtr(actor identity.Actor) *uuid.UUID {
	id := actor.UserID()
	if id == uuid.Nil {
		return nil
	}
	return &id
}
