package identity

import (
	"fmt"
	"strings"

	"github.com/propledger/backend/internal/domain/shared"
)

// Role is the single role a user acts under
type Role string

const (
	RoleAdmin           Role = "admin"
	RolePropertyManager Role = "property_manager"
	RoleLandlord        Role = "landlord"
	RoleTenant          Role = "tenant"
	RoleCaretaker       Role = "caretaker"
	RoleAgent           Role = "agent"
)

// AllRoles returns every role
func AllRoles() []Role {
	return []Role{RoleAdmin, RolePropertyManager, RoleLandlord, RoleTenant, RoleCaretaker, RoleAgent}
}

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	for _, role := range AllRoles() {
		if role == r {
			return true
		}
	}
	return false
}

// String returns the string representation
func (r Role) String() string {
	return string(r)
}

// IsStaff reports roles that run the back office
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RolePropertyManager
}

// ParseRole parses a role name, case-insensitively
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if !role.IsValid() {
		return "", shared.NewDomainError("INVALID_ROLE", fmt.Sprintf("Unknown role %q", s))
	}
	return role, nil
}
