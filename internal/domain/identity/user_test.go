package identity

import (
	"testing"

	"github.com/propledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	PasswordCost = bcrypt.MinCost
}

func TestNewUser(t *testing.T) {
	t.Run("creates active user without password", func(t *testing.T) {
		user, err := NewUser("tenant.one", RoleTenant, "")

		require.NoError(t, err)
		assert.Equal(t, "tenant.one", user.Username)
		assert.Equal(t, RoleTenant, user.Role)
		assert.True(t, user.IsActive)
		assert.Empty(t, user.PasswordHash)
		assert.Equal(t, 1, user.Version)
		assert.False(t, user.VerifyPassword(""))
	})

	t.Run("hashes the password", func(t *testing.T) {
		user, err := NewUser("manager", RolePropertyManager, "Password123")

		require.NoError(t, err)
		assert.NotEqual(t, "Password123", user.PasswordHash)
		assert.True(t, user.VerifyPassword("Password123"))
		assert.False(t, user.VerifyPassword("password123"))
	})

	t.Run("normalizes username", func(t *testing.T) {
		user, err := NewUser("  TestUser  ", RoleAgent, "")

		require.NoError(t, err)
		assert.Equal(t, "testuser", user.Username)
	})

	t.Run("fails with short username", func(t *testing.T) {
		_, err := NewUser("ab", RoleTenant, "")

		assert.True(t, shared.HasCode(err, "INVALID_USERNAME"))
		assert.Contains(t, err.Error(), "at least 3 characters")
	})

	t.Run("fails with invalid characters", func(t *testing.T) {
		_, err := NewUser("bad user!", RoleTenant, "")

		assert.True(t, shared.HasCode(err, "INVALID_USERNAME"))
	})

	t.Run("fails with unknown role", func(t *testing.T) {
		_, err := NewUser("someone", Role("janitor"), "")

		assert.True(t, shared.HasCode(err, "INVALID_ROLE"))
	})

	t.Run("fails with weak password", func(t *testing.T) {
		_, err := NewUser("someone", RoleTenant, "letters-only")

		assert.True(t, shared.HasCode(err, "INVALID_PASSWORD"))
		assert.Contains(t, err.Error(), "one letter and one number")
	})
}

func TestUser_SetEmail(t *testing.T) {
	user, err := NewUser("someone", RoleTenant, "")
	require.NoError(t, err)

	require.NoError(t, user.SetEmail("Someone@Example.com"))
	assert.Equal(t, "someone@example.com", user.Email)

	err = user.SetEmail("not-an-email")
	assert.True(t, shared.HasCode(err, "INVALID_EMAIL"))
	assert.Equal(t, "someone@example.com", user.Email)

	require.NoError(t, user.SetEmail(""))
	assert.Empty(t, user.Email)
}

func TestUser_FullName(t *testing.T) {
	user, err := NewUser("jdoe", RoleTenant, "")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", user.FullName())

	require.NoError(t, user.SetName("Jane", "Doe"))
	assert.Equal(t, "Jane Doe", user.FullName())
}

func TestUser_Deactivate(t *testing.T) {
	user, err := NewUser("someone", RoleTenant, "")
	require.NoError(t, err)

	require.NoError(t, user.Deactivate())
	assert.False(t, user.IsActive)
	assert.Equal(t, 2, user.Version)

	err = user.Deactivate()
	assert.True(t, shared.HasCode(err, "INVALID_STATE"))
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" Property_Manager ")
	require.NoError(t, err)
	assert.Equal(t, RolePropertyManager, role)
	assert.True(t, role.IsStaff())

	_, err = ParseRole("owner")
	assert.Error(t, err)
}
