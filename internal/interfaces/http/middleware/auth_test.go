package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/propledger/backend/internal/infrastructure/auth"
	"github.com/propledger/backend/internal/infrastructure/config"
	"github.com/propledger/backend/internal/infrastructure/logger"
	"github.com/propledger/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testSecret = "middleware-test-secret-long-enough"

func newAuthRouter(t *testing.T) (*gin.Engine, *auth.JWTService, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtService := auth.NewJWTService(config.JWTConfig{Secret: testSecret, Expiration: time.Hour})
	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)

	router := gin.New()
	router.Use(RequestID(), logger.GinMiddleware(log))
	router.Use(Authenticate(AuthConfig{
		Validator: jwtService,
		SkipPaths: []string{"/health"},
		Logger:    log,
	}))
	router.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "up") })
	router.GET("/whoami", func(c *gin.Context) {
		actor := GetActor(c)
		logger.GetGinLogger(c).Info("whoami")
		c.JSON(http.StatusOK, gin.H{
			"user_id": actor.UserID().String(),
			"role":    actor.Role().String(),
			"claims":  GetClaims(c) != nil,
		})
	})
	return router, jwtService, logs
}

func bearer(router *gin.Engine, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set(AuthHeaderKey, header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestAuthenticate_ValidToken(t *testing.T) {
	router, jwtService, logs := newAuthRouter(t)
	userID := uuid.New()
	token, _, err := jwtService.Generate(auth.GenerateTokenInput{UserID: userID, Role: identity.RolePropertyManager})
	require.NoError(t, err)

	w := bearer(router, "/whoami", BearerPrefix+token)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, userID.String(), body["user_id"])
	assert.Equal(t, "property_manager", body["role"])
	assert.Equal(t, true, body["claims"])

	// the handler's logger carries the actor
	entries := logs.FilterMessage("whoami").All()
	require.Len(t, entries, 1)
	assert.Equal(t, userID.String(), entries[0].ContextMap()["user_id"])
}

func TestAuthenticate_SkipPath(t *testing.T) {
	router, _, _ := newAuthRouter(t)
	w := bearer(router, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticate_Rejections(t *testing.T) {
	router, _, _ := newAuthRouter(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		UserID: uuid.NewString(),
		Role:   "admin",
	})
	expiredToken, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)

	unknownRole := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{UserID: uuid.NewString(), Role: "superuser"})
	unknownRoleToken, err := unknownRole.SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"missing header", "", dto.ErrCodeUnauthorized},
		{"not bearer", "Basic abc", dto.ErrCodeUnauthorized},
		{"empty token", "Bearer ", dto.ErrCodeUnauthorized},
		{"garbage", "Bearer not.a.jwt", dto.ErrCodeUnauthorized},
		{"expired", BearerPrefix + expiredToken, dto.ErrCodeTokenExpired},
		{"unknown role", BearerPrefix + unknownRoleToken, dto.ErrCodeUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := bearer(router, "/whoami", tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			errInfo := decodeError(t, w)
			assert.Equal(t, tt.wantCode, errInfo.Code)
			assert.NotEmpty(t, errInfo.RequestID)
		})
	}
}

func TestGetActor_Unauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetActor(c))
	assert.Nil(t, GetClaims(c))
}
