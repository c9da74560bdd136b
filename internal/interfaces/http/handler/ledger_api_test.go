package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	financeapp "github.com/propledger/backend/internal/application/finance"
	identityapp "github.com/propledger/backend/internal/application/identity"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/propledger/backend/internal/infrastructure/auth"
	"github.com/propledger/backend/internal/infrastructure/config"
	"github.com/propledger/backend/internal/infrastructure/persistence"
	"github.com/propledger/backend/internal/interfaces/http/dto"
	"github.com/propledger/backend/internal/interfaces/http/middleware"
	"github.com/propledger/backend/internal/interfaces/http/router"
	"github.com/propledger/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

type ledgerAPI struct {
	t      *testing.T
	db     *gorm.DB
	engine *gin.Engine
	jwt    *auth.JWTService
}

func newLedgerAPI(t *testing.T) *ledgerAPI {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	svc := financeapp.NewServices(financeapp.Dependencies{
		Repos: persistence.NewGormLedgerRepositories(db),
		Scope: persistence.NewGormLedgerTransactionScope(db),
	})
	users := identityapp.NewUserService(
		persistence.NewGormAccountOpeningRepositories(db),
		persistence.NewGormAccountOpeningScope(db),
		nil,
	)
	jwt := auth.NewJWTService(config.JWTConfig{
		Secret:     "handler-test-secret-0123456789abcdef",
		Issuer:     "propledger-test",
		Expiration: time.Hour,
	})
	money := dto.MustMoneyFormatter("KES", language.English)

	engine := router.NewEngine(router.EngineConfig{HTTP: config.HTTPConfig{MaxBodySize: 1 << 20}})
	router.NewRouter(engine, router.WithAPIMiddleware(middleware.Authenticate(middleware.AuthConfig{Validator: jwt}))).
		Register(LedgerRegistrars(svc, users, money)...).
		Setup()

	return &ledgerAPI{t: t, db: db, engine: engine, jwt: jwt}
}

func (a *ledgerAPI) token(user *identity.User) string {
	a.t.Helper()
	token, _, err := a.jwt.Generate(auth.GenerateTokenInput{UserID: user.ID, Username: user.Username, Role: user.Role})
	require.NoError(a.t, err)
	return token
}

// do sends a request as user (nil for anonymous) and decodes the envelope data into out when non-nil.
// A string body is sent verbatim.
func (a *ledgerAPI) do(user *identity.User, method, path string, body any, out any) *httptest.ResponseRecorder {
	a.t.Helper()

	var raw []byte
	switch b := body.(type) {
	case nil:
	case string:
		raw = []byte(b)
	default:
		var err error
		raw, err = json.Marshal(b)
		require.NoError(a.t, err)
	}
	reader := bytes.NewReader(raw)
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set(middleware.AuthHeaderKey, middleware.BearerPrefix+a.token(user))
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	if out != nil && w.Code < http.StatusBadRequest {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
		require.NoError(a.t, json.Unmarshal(env.Data, out), string(env.Data))
	}
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Code
}

type invoiceBody struct {
	ID          uuid.UUID `json:"id"`
	Status      string    `json:"status"`
	TotalAmount string    `json:"total_amount"`
	AmountPaid  string    `json:"amount_paid"`
	BalanceDue  string    `json:"balance_due"`
	Currency    string    `json:"currency"`
	Items       []struct {
		Quantity  string `json:"quantity"`
		UnitPrice string `json:"unit_price"`
		LineTotal string `json:"line_total"`
	} `json:"items"`
}

type paymentResultBody struct {
	Transaction struct {
		TransactionType string `json:"transaction_type"`
		Amount          string `json:"amount"`
	} `json:"transaction"`
	Receipt *struct {
		ReceiptNumber            string `json:"receipt_number"`
		Amount                   string `json:"amount"`
		AmountAllocatedToInvoice string `json:"amount_allocated_to_invoice"`
		AmountToAccount          string `json:"amount_to_account"`
	} `json:"receipt"`
	Invoice *invoiceBody `json:"invoice"`
	Account struct {
		Balance        string `json:"balance"`
		BalanceDisplay string `json:"balance_display"`
	} `json:"account"`
}

func TestLedgerAPI_RentInvoicePaidInTwoInstallments(t *testing.T) {
	api := newLedgerAPI(t)
	admin := testutil.SeedUser(t, api.db, "admin", identity.RoleAdmin)
	tenant := testutil.SeedTenant(t, api.db, "tenant1", "1000.00")
	period := testutil.SeedMonthlyPeriod(t, api.db, 2025, time.January)

	var generated struct {
		Invoice invoiceBody `json:"invoice"`
		Created bool        `json:"created"`
	}
	w := api.do(admin, http.MethodPost, "/invoices/generate", gin.H{
		"tenant_id":         tenant.Tenant.ID,
		"billing_period_id": period.ID,
	}, &generated)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, generated.Created)
	inv := generated.Invoice
	assert.Equal(t, "draft", inv.Status)
	assert.Equal(t, "1000.00", inv.TotalAmount)
	assert.Equal(t, "KES", inv.Currency)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "1000.00", inv.Items[0].LineTotal)

	var first paymentResultBody
	w = api.do(admin, http.MethodPost, "/invoices/"+inv.ID.String()+"/apply-payment", gin.H{
		"amount":         "600.00",
		"payment_method": "cash",
	}, &first)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "payment", first.Transaction.TransactionType)
	assert.Equal(t, "600.00", first.Transaction.Amount)
	assert.Equal(t, "600.00", first.Account.Balance)
	assert.Contains(t, first.Account.BalanceDisplay, "600.00")
	require.NotNil(t, first.Invoice)
	assert.Equal(t, "partial", first.Invoice.Status)
	assert.Equal(t, "600.00", first.Invoice.AmountPaid)
	require.NotNil(t, first.Receipt)
	assert.Equal(t, "600.00", first.Receipt.AmountAllocatedToInvoice)
	assert.Equal(t, "0.00", first.Receipt.AmountToAccount)

	var second paymentResultBody
	w = api.do(admin, http.MethodPost, "/invoices/"+inv.ID.String()+"/apply-payment", gin.H{
		"amount":         "400.00",
		"payment_method": "mobile_money",
	}, &second)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, second.Invoice)
	assert.Equal(t, "paid", second.Invoice.Status)
	assert.Equal(t, "0.00", second.Invoice.BalanceDue)
	assert.Equal(t, "1000.00", second.Account.Balance)

	// a paid invoice accepts nothing more
	w = api.do(admin, http.MethodPost, "/invoices/"+inv.ID.String()+"/apply-payment", gin.H{
		"amount":         "1.00",
		"payment_method": "cash",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var history struct {
		Transactions []json.RawMessage `json:"transactions"`
		Receipts     []struct {
			ReceiptNumber string `json:"receipt_number"`
			AmountDisplay string `json:"amount_display"`
		} `json:"receipts"`
	}
	w = api.do(tenant.User, http.MethodGet, "/invoices/"+inv.ID.String()+"/payments", nil, &history)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, history.Transactions, 2)
	require.Len(t, history.Receipts, 2)
	assert.NotEqual(t, history.Receipts[0].ReceiptNumber, history.Receipts[1].ReceiptNumber)

	// the receipt is reachable by its number
	w = api.do(tenant.User, http.MethodGet, "/receipts/number/"+history.Receipts[0].ReceiptNumber, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// generation is idempotent
	w = api.do(admin, http.MethodPost, "/invoices/generate", gin.H{
		"tenant_id":         tenant.Tenant.ID,
		"billing_period_id": period.ID,
	}, &generated)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, generated.Created)
	assert.Equal(t, inv.ID, generated.Invoice.ID)
}

func TestLedgerAPI_Authentication(t *testing.T) {
	api := newLedgerAPI(t)

	w := api.do(nil, http.MethodGet, "/accounts", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, errorCode(t, w))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	req.Header.Set(middleware.AuthHeaderKey, middleware.BearerPrefix+"not-a-token")
	w = httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLedgerAPI_TenantVisibility(t *testing.T) {
	api := newLedgerAPI(t)
	admin := testutil.SeedUser(t, api.db, "admin", identity.RoleAdmin)
	alice := testutil.SeedTenant(t, api.db, "alice", "800.00")
	bob := testutil.SeedTenant(t, api.db, "bob", "900.00")
	period := testutil.SeedMonthlyPeriod(t, api.db, 2025, time.February)

	var generated struct {
		Invoice invoiceBody `json:"invoice"`
	}
	w := api.do(admin, http.MethodPost, "/invoices/generate", gin.H{
		"tenant_id":         bob.Tenant.ID,
		"billing_period_id": period.ID,
	}, &generated)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	bobInvoice := generated.Invoice.ID.String()

	t.Run("tenant cannot generate invoices", func(t *testing.T) {
		w := api.do(alice.User, http.MethodPost, "/invoices/generate", gin.H{
			"tenant_id":         alice.Tenant.ID,
			"billing_period_id": period.ID,
		}, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, dto.ErrCodeForbidden, errorCode(t, w))
	})

	t.Run("tenant cannot read another tenant's invoice", func(t *testing.T) {
		w := api.do(alice.User, http.MethodGet, "/invoices/"+bobInvoice, nil, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("tenant reads own account", func(t *testing.T) {
		var account struct {
			UserID   uuid.UUID `json:"user_id"`
			Balance  string    `json:"balance"`
			Currency string    `json:"currency"`
		}
		w := api.do(alice.User, http.MethodGet, "/accounts/me", nil, &account)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, alice.User.ID, account.UserID)
		assert.Equal(t, "0.00", account.Balance)
		assert.Equal(t, "KES", account.Currency)
	})

	t.Run("tenant list is narrowed to own invoices", func(t *testing.T) {
		var invoices []invoiceBody
		w := api.do(alice.User, http.MethodGet, "/invoices", nil, &invoices)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Empty(t, invoices)

		w = api.do(alice.User, http.MethodGet, "/invoices?tenant_id="+bob.Tenant.ID.String(), nil, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unknown invoice is not found", func(t *testing.T) {
		w := api.do(admin, http.MethodGet, "/invoices/"+uuid.NewString(), nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, errorCode(t, w))
	})

	t.Run("malformed id is a validation error", func(t *testing.T) {
		w := api.do(admin, http.MethodGet, "/invoices/not-a-uuid", nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, errorCode(t, w))
	})
}

func TestLedgerAPI_TransactionReversal(t *testing.T) {
	api := newLedgerAPI(t)
	admin := testutil.SeedUser(t, api.db, "admin", identity.RoleAdmin)
	tenant := testutil.SeedTenant(t, api.db, "tenant1", "1000.00")

	var posted struct {
		Transaction struct {
			ID     uuid.UUID `json:"id"`
			Amount string    `json:"amount"`
		} `json:"transaction"`
		Account struct {
			Balance string `json:"balance"`
		} `json:"account"`
	}
	w := api.do(admin, http.MethodPost, "/transactions", gin.H{
		"account_id":       tenant.Account.ID,
		"transaction_type": "charge",
		"amount":           "250.00",
		"description":      "Late fee",
	}, &posted)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "-250.00", posted.Account.Balance)

	path := "/transactions/" + posted.Transaction.ID.String() + "/reverse"

	w = api.do(tenant.User, http.MethodPost, path, gin.H{"reason": "mistake"}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(admin, http.MethodPost, path, gin.H{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, errorCode(t, w))

	var reversed struct {
		Account struct {
			Balance string `json:"balance"`
		} `json:"account"`
	}
	w = api.do(admin, http.MethodPost, path, gin.H{"reason": "posted to the wrong tenant"}, &reversed)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "0.00", reversed.Account.Balance)

	w = api.do(admin, http.MethodPost, path, gin.H{"reason": "again"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ALREADY_REVERSED", errorCode(t, w))
}

func TestLedgerAPI_Validation(t *testing.T) {
	api := newLedgerAPI(t)
	admin := testutil.SeedUser(t, api.db, "admin", identity.RoleAdmin)
	tenant := testutil.SeedTenant(t, api.db, "tenant1", "1000.00")

	tests := []struct {
		name     string
		path     string
		body     any
		wantCode string
	}{
		{"missing payment method", "/payments", gin.H{"tenant_id": tenant.Tenant.ID, "amount": "10.00"}, dto.ErrCodeValidation},
		{"unknown payment method", "/payments", gin.H{"tenant_id": tenant.Tenant.ID, "amount": "10.00", "payment_method": "barter"}, "INVALID_PAYMENT_METHOD"},
		{"non-positive amount", "/payments", gin.H{"tenant_id": tenant.Tenant.ID, "amount": "0", "payment_method": "cash"}, "INVALID_AMOUNT"},
		{"unknown transaction type", "/transactions", gin.H{"account_id": tenant.Account.ID, "transaction_type": "gift", "amount": "5.00"}, "INVALID_TRANSACTION_TYPE"},
		{"malformed json", "/transactions", `{"account_id":`, dto.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(admin, http.MethodPost, tt.path, tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}
}

func TestLedgerAPI_CreateUser(t *testing.T) {
	api := newLedgerAPI(t)
	admin := testutil.SeedUser(t, api.db, "admin", identity.RoleAdmin)

	body := gin.H{
		"username":     "new.manager",
		"password":     "correct-horse-battery-9",
		"role":         "property_manager",
		"credit_limit": "500.00",
	}
	w := api.do(admin, http.MethodPost, "/users", body, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(admin, http.MethodPost, "/users", body, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeAlreadyExists, errorCode(t, w))

	body["username"] = "someone.else"
	body["role"] = "superuser"
	w = api.do(admin, http.MethodPost, "/users", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ROLE", errorCode(t, w))
}

func TestLedgerAPI_BillingPeriods(t *testing.T) {
	api := newLedgerAPI(t)
	admin := testutil.SeedUser(t, api.db, "admin", identity.RoleAdmin)
	tenant := testutil.SeedTenant(t, api.db, "tenant1", "700.00")
	period := testutil.SeedMonthlyPeriod(t, api.db, 2025, time.March)
	periodPath := "/billing-periods/" + period.ID.String()

	var generated struct {
		Created  int `json:"created"`
		Existing int `json:"existing"`
	}
	w := api.do(admin, http.MethodPost, periodPath+"/generate-invoices", gin.H{}, &generated)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, generated.Created)

	w = api.do(admin, http.MethodPost, periodPath+"/close", gin.H{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "PENDING_INVOICES", errorCode(t, w))

	w = api.do(admin, http.MethodPost, periodPath+"/close", gin.H{"force": true}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(admin, http.MethodPost, periodPath+"/close", gin.H{"force": true}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ALREADY_CLOSED", errorCode(t, w))

	w = api.do(admin, http.MethodPost, "/utility-charges", gin.H{
		"tenant_id":         tenant.Tenant.ID,
		"utility_type":      "Water",
		"billing_period_id": period.ID,
		"amount":            "35.50",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "PERIOD_CLOSED", errorCode(t, w))
}
