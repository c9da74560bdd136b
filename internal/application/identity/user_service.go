package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/domain/tenancy"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// AccountOpeningScope runs user creation and account opening in one database transaction
type AccountOpeningScope interface {
	Execute(ctx context.Context, fn func(repos AccountOpeningRepositories) error) error
}

// AccountOpeningRepositories are the repositories a user creation touches
type AccountOpeningRepositories interface {
	UserRepo() identity.UserRepository
	AccountRepo() finance.AccountRepository
	TenantRepo() tenancy.TenantRepository
	UnitRepo() tenancy.UnitRepository
}

// UserService handles user management operations
type UserService struct {
	repos  AccountOpeningRepositories
	scope  AccountOpeningScope
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(repos AccountOpeningRepositories, scope AccountOpeningScope, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repos: repos, scope: scope, logger: logger}
}

// CreateUser creates a user and opens its ledger account. Either both rows exist afterwards or neither does.
func (s *UserService) CreateUser(ctx context.Context, actor identity.Actor, req CreateUserRequest) (*UserResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "user", "create")
	defer span.End()
	if actor != nil {
		telemetry.SetAttribute(span, telemetry.SpanAttrActorRole, actor.Role().String())
		if err := identity.RequireCapability(actor.CanCreateUsers(), "create users"); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	user, err := identity.NewUser(req.Username, req.Role, req.Password)
	if err != nil {
		return nil, err
	}
	if err := user.SetEmail(req.Email); err != nil {
		return nil, err
	}
	if err := user.SetName(req.FirstName, req.LastName); err != nil {
		return nil, err
	}
	if err := user.SetPhone(req.Phone); err != nil {
		return nil, err
	}

	exists, err := s.repos.UserRepo().ExistsByUsername(ctx, user.Username)
	if err != nil {
		s.logger.Error("Failed to check username existence", zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.ErrAlreadyExists.Code, "Username already exists")
	}

	account, err := finance.NewAccount(user.ID, req.CreditLimit)
	if err != nil {
		return nil, err
	}

	var tenant *tenancy.Tenant
	if req.Role == identity.RoleTenant && req.Tenant != nil {
		tenant, err = s.buildTenant(ctx, user.ID, req.Tenant)
		if err != nil {
			return nil, err
		}
	}

	err = s.scope.Execute(ctx, func(repos AccountOpeningRepositories) error {
		if err := repos.UserRepo().Save(ctx, user); err != nil {
			return err
		}
		if err := repos.AccountRepo().Save(ctx, account); err != nil {
			return err
		}
		if tenant != nil {
			return repos.TenantRepo().Save(ctx, tenant)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			err = shared.NewDomainError(shared.ErrAlreadyExists.Code, "Username already exists")
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("User created with account",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("role", user.Role.String()),
		zap.String("account_id", account.ID.String()),
	)
	resp := toUserResponse(user, account, tenant)
	return &resp, nil
}

func (s *UserService) buildTenant(ctx context.Context, userID uuid.UUID, profile *TenantProfile) (*tenancy.Tenant, error) {
	var unit *tenancy.Unit
	if profile.UnitID != nil {
		u, err := s.repos.UnitRepo().FindByID(ctx, *profile.UnitID)
		if err != nil {
			return nil, err
		}
		unit = u
	}
	tenant, err := tenancy.NewTenant(userID, unit)
	if err != nil {
		return nil, err
	}
	if err := tenant.SetRentOverride(profile.MonthlyRentOverride); err != nil {
		return nil, err
	}
	if profile.LeaseStartDate != nil {
		if err := tenant.SetLease(*profile.LeaseStartDate, profile.LeaseEndDate); err != nil {
			return nil, err
		}
	}
	if profile.Activate {
		tenant.Activate()
	}
	return tenant, nil
}

// Get returns a user with its account. Users may read themselves; staff may read anyone.
func (s *UserService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*UserResponse, error) {
	if err := identity.RequireCapability(actor.CanViewAccount(id), "view this user"); err != nil {
		return nil, err
	}
	user, err := s.repos.UserRepo().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	account, err := s.repos.AccountRepo().FindByUserID(ctx, id)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	var tenant *tenancy.Tenant
	if user.Role == identity.RoleTenant {
		t, err := s.repos.TenantRepo().FindByUserID(ctx, id)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		tenant = t
	}
	resp := toUserResponse(user, account, tenant)
	return &resp, nil
}
