package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewActor_CapabilityMatrix(t *testing.T) {
	tests := []struct {
		role           Role
		manageBilling  bool
		recordUtility  bool
		reverse        bool
		closePeriods   bool
		createUsers    bool
		payForOthers   bool
		viewAnyAccount bool
	}{
		{RoleAdmin, true, true, true, true, true, true, true},
		{RolePropertyManager, true, true, true, true, true, true, true},
		{RoleLandlord, false, false, false, false, false, false, true},
		{RoleCaretaker, false, true, false, false, false, false, false},
		{RoleAgent, false, false, false, false, false, false, false},
		{RoleTenant, false, false, false, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			userID := uuid.New()
			other := uuid.New()

			actor, err := NewActor(userID, tt.role)
			require.NoError(t, err)

			assert.Equal(t, tt.role, actor.Role())
			assert.Equal(t, userID, actor.UserID())
			assert.Equal(t, tt.manageBilling, actor.CanManageBilling())
			assert.Equal(t, tt.recordUtility, actor.CanRecordUtilities())
			assert.Equal(t, tt.reverse, actor.CanReverseTransactions())
			assert.Equal(t, tt.closePeriods, actor.CanCloseBillingPeriods())
			assert.Equal(t, tt.createUsers, actor.CanCreateUsers())
			assert.Equal(t, tt.payForOthers, actor.CanPayOnBehalfOf(other))
			assert.Equal(t, tt.viewAnyAccount, actor.CanViewAccount(other))
			assert.Equal(t, tt.viewAnyAccount, actor.CanViewAllAccounts())

			// everyone can see their own account
			assert.True(t, actor.CanViewAccount(userID))
		})
	}
}

func TestTenantActor_PaysOnlyForSelf(t *testing.T) {
	userID := uuid.New()
	actor, err := NewActor(userID, RoleTenant)
	require.NoError(t, err)

	assert.True(t, actor.CanPayOnBehalfOf(userID))
	assert.False(t, actor.CanPayOnBehalfOf(uuid.New()))
}

func TestNewActor_Errors(t *testing.T) {
	_, err := NewActor(uuid.Nil, RoleAdmin)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	_, err = NewActor(uuid.New(), Role("root"))
	assert.True(t, shared.HasCode(err, "INVALID_ROLE"))
}

func TestRequireCapability(t *testing.T) {
	assert.NoError(t, RequireCapability(true, "close billing periods"))

	err := RequireCapability(false, "close billing periods")
	assert.True(t, shared.HasCode(err, "FORBIDDEN"))
	assert.Contains(t, err.Error(), "close billing periods")
}

func TestSystemActor(t *testing.T) {
	actor := SystemActor()
	assert.Equal(t, RoleAdmin, actor.Role())
	assert.True(t, actor.CanManageBilling())
}
