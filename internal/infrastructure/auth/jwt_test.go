package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/propledger/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:     "test-secret-that-is-long-enough-for-hs256",
		Issuer:     "propledger",
		Expiration: 15 * time.Minute,
	})
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := newTestService()
	userID := uuid.New()

	token, expiresAt, err := svc.Generate(GenerateTokenInput{UserID: userID, Username: "alice", Role: identity.RoleTenant})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	actor, err := claims.Actor()
	require.NoError(t, err)
	assert.Equal(t, userID, actor.UserID())
	assert.Equal(t, identity.RoleTenant, actor.Role())
	assert.False(t, actor.CanManageBilling())
}

func TestJWTService_Generate_RejectsBadInput(t *testing.T) {
	svc := newTestService()

	_, _, err := svc.Generate(GenerateTokenInput{Role: identity.RoleAdmin})
	assert.ErrorIs(t, err, ErrMissingUserID)

	_, _, err = svc.Generate(GenerateTokenInput{UserID: uuid.New(), Role: "superuser"})
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestJWTService_Validate_Failures(t *testing.T) {
	svc := newTestService()
	userID := uuid.New()

	t.Run("expired", func(t *testing.T) {
		past := newTestService()
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, _, err := past.Generate(GenerateTokenInput{UserID: userID, Role: identity.RoleAdmin})
		require.NoError(t, err)

		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "another-secret-entirely-0123456789", Issuer: "propledger"})
		token, _, err := other.Generate(GenerateTokenInput{UserID: userID, Role: identity.RoleAdmin})
		require.NoError(t, err)

		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "test-secret-that-is-long-enough-for-hs256", Issuer: "someone-else"})
		token, _, err := other.Generate(GenerateTokenInput{UserID: userID, Role: identity.RoleAdmin})
		require.NoError(t, err)

		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: userID.String(), Role: "admin"})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.Validate(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Validate("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestClaims_Actor(t *testing.T) {
	_, err := (&Claims{UserID: "nope", Role: "admin"}).Actor()
	assert.ErrorIs(t, err, ErrMissingUserID)

	_, err = (&Claims{UserID: uuid.NewString(), Role: "janitor"}).Actor()
	assert.ErrorIs(t, err, ErrUnknownRole)
}
