package finance

import (
	"context"
	"fmt"

	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/propledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ChargeTypeService maintains the charge type catalog
type ChargeTypeService struct {
	repo   finance.ChargeTypeRepository
	logger *zap.Logger
}

// NewChargeTypeService creates a new ChargeTypeService
func NewChargeTypeService(deps Dependencies) *ChargeTypeService {
	deps = deps.withDefaults()
	return &ChargeTypeService{
		repo:   deps.Repos.ChargeTypeRepo(),
		logger: deps.Logger,
	}
}

// CreateChargeTypeRequest is a request to add a charge type to the catalog
type CreateChargeTypeRequest struct {
	Name        string
	Description string
	Frequency   finance.ChargeFrequency
}

// GetOrCreate returns the charge type with the definition's name, creating it when missing.
// When a concurrent caller wins the insert, the unique violation is answered by a
// second lookup that returns their row.
func (s *ChargeTypeService) GetOrCreate(ctx context.Context, def finance.ChargeTypeDefinition) (*finance.ChargeType, error) {
	existing, err := s.repo.FindByName(ctx, def.Name)
	if err == nil {
		return existing, nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("find charge type %q: %w", def.Name, err)
	}

	chargeType, err := finance.NewChargeType(def.Name, def.Description, def.Frequency, def.IsSystemCharge)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, chargeType); err != nil {
		if !shared.HasCode(err, shared.ErrAlreadyExists.Code) {
			return nil, fmt.Errorf("create charge type %q: %w", def.Name, err)
		}
		s.logger.Debug("Charge type created concurrently, re-reading", zap.String("name", def.Name))
		return s.repo.FindByName(ctx, def.Name)
	}
	return chargeType, nil
}

// Create adds a charge type requested by staff
func (s *ChargeTypeService) Create(ctx context.Context, actor identity.Actor, req CreateChargeTypeRequest) (*ChargeTypeResponse, error) {
	ctx, span := startSpan(ctx, "charge_type", "create", actor)
	defer span.End()

	if err := identity.RequireCapability(actor.CanManageBilling(), "manage charge types"); err != nil {
		return nil, fail(span, err)
	}

	chargeType, err := finance.NewChargeType(req.Name, req.Description, req.Frequency, false)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := s.repo.Create(ctx, chargeType); err != nil {
		return nil, fail(span, err)
	}

	resp := ToChargeTypeResponse(chargeType)
	return &resp, nil
}

// List returns the catalog
func (s *ChargeTypeService) List(ctx context.Context, activeOnly bool) ([]ChargeTypeResponse, error) {
	types, err := s.repo.FindAll(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]ChargeTypeResponse, len(types))
	for i := range types {
		out[i] = ToChargeTypeResponse(&types[i])
	}
	return out, nil
}

// SeedDefaults installs the default catalog and returns how many entries were new
func (s *ChargeTypeService) SeedDefaults(ctx context.Context) (int, error) {
	ctx, span := startSpan(ctx, "charge_type", "seed_defaults", nil)
	defer span.End()

	created := 0
	for _, def := range finance.DefaultChargeTypes() {
		_, err := s.repo.FindByName(ctx, def.Name)
		if err == nil {
			continue
		}
		if !isNotFound(err) {
			return created, fail(span, err)
		}
		if _, err := s.GetOrCreate(ctx, def); err != nil {
			return created, fail(span, err)
		}
		created++
	}

	s.logger.Info("Charge types seeded", zap.Int("created", created))
	return created, nil
}
