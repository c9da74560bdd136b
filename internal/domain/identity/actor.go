package identity

import (
	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
)

// Actor is the capability set of the authenticated caller.
// It is resolved once at the API boundary and passed into every ledger operation.
type Actor interface {
	UserID() uuid.UUID
	Role() Role

	CanManageBilling() bool
	CanRecordUtilities() bool
	CanReverseTransactions() bool
	CanCloseBillingPeriods() bool
	CanCreateUsers() bool

	// CanPayOnBehalfOf reports whether the actor may pay for the tenant owned by tenantUserID
	CanPayOnBehalfOf(tenantUserID uuid.UUID) bool

	// CanViewAccount reports whether the actor may read ledger data owned by ownerUserID
	CanViewAccount(ownerUserID uuid.UUID) bool

	// CanViewAllAccounts reports whether list queries may span every tenant
	CanViewAllAccounts() bool
}

// NewActor resolves the capability set for a user and role
func NewActor(userID uuid.UUID, role Role) (Actor, error) {
	if userID == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}
	base := actorBase{userID: userID}
	switch role {
	case RoleAdmin:
		return adminActor{base}, nil
	case RolePropertyManager:
		return managerActor{base}, nil
	case RoleLandlord:
		return landlordActor{base}, nil
	case RoleTenant:
		return tenantActor{base}, nil
	case RoleCaretaker:
		return caretakerActor{base}, nil
	case RoleAgent:
		return agentActor{base}, nil
	}
	return nil, shared.NewDomainError("INVALID_ROLE", "Unknown role "+string(role))
}

// SystemActor is the actor used by scheduled jobs and operator commands
func SystemActor() Actor {
	return adminActor{actorBase{userID: uuid.Nil}}
}

// RequireCapability returns FORBIDDEN unless allowed is true
func RequireCapability(allowed bool, action string) error {
	if !allowed {
		return shared.NewDomainError("FORBIDDEN", "You do not have permission to "+action)
	}
	return nil
}

type actorBase struct {
	userID uuid.UUID
}

func (a actorBase) UserID() uuid.UUID { return a.userID }

func (a actorBase) CanManageBilling() bool       { return false }
func (a actorBase) CanRecordUtilities() bool     { return false }
func (a actorBase) CanReverseTransactions() bool { return false }
func (a actorBase) CanCloseBillingPeriods() bool { return false }
func (a actorBase) CanCreateUsers() bool         { return false }

func (a actorBase) CanPayOnBehalfOf(uuid.UUID) bool { return false }

func (a actorBase) CanViewAccount(owner uuid.UUID) bool { return owner == a.userID }
func (a actorBase) CanViewAllAccounts() bool            { return false }

type adminActor struct{ actorBase }

func (adminActor) Role() Role                      { return RoleAdmin }
func (adminActor) CanManageBilling() bool          { return true }
func (adminActor) CanRecordUtilities() bool        { return true }
func (adminActor) CanReverseTransactions() bool    { return true }
func (adminActor) CanCloseBillingPeriods() bool    { return true }
func (adminActor) CanCreateUsers() bool            { return true }
func (adminActor) CanPayOnBehalfOf(uuid.UUID) bool { return true }
func (adminActor) CanViewAccount(uuid.UUID) bool   { return true }
func (adminActor) CanViewAllAccounts() bool        { return true }

type managerActor struct{ actorBase }

func (managerActor) Role() Role                      { return RolePropertyManager }
func (managerActor) CanManageBilling() bool          { return true }
func (managerActor) CanRecordUtilities() bool        { return true }
func (managerActor) CanReverseTransactions() bool    { return true }
func (managerActor) CanCloseBillingPeriods() bool    { return true }
func (managerActor) CanCreateUsers() bool            { return true }
func (managerActor) CanPayOnBehalfOf(uuid.UUID) bool { return true }
func (managerActor) CanViewAccount(uuid.UUID) bool   { return true }
func (managerActor) CanViewAllAccounts() bool        { return true }

// Landlords read the books of their properties but do not post to them
type landlordActor struct{ actorBase }

func (landlordActor) Role() Role                    { return RoleLandlord }
func (landlordActor) CanViewAccount(uuid.UUID) bool { return true }
func (landlordActor) CanViewAllAccounts() bool      { return true }

type tenantActor struct{ actorBase }

func (tenantActor) Role() Role { return RoleTenant }

func (a tenantActor) CanPayOnBehalfOf(tenantUserID uuid.UUID) bool {
	return tenantUserID == a.userID
}

// Caretakers read meters and record utility bills
type caretakerActor struct{ actorBase }

func (caretakerActor) Role() Role               { return RoleCaretaker }
func (caretakerActor) CanRecordUtilities() bool { return true }

type agentActor struct{ actorBase }

func (agentActor) Role() Role { return RoleAgent }
