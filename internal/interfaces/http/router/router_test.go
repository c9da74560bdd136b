package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func text(body string) gin.HandlerFunc {
	return func(c *gin.Context) { c.String(http.StatusOK, body) }
}

func TestNewRouter_Defaults(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "/api/v1", r.BasePath())

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())

	r = NewRouter(gin.New(), WithAPIVersion(""))
	assert.Equal(t, "/api/v1", r.BasePath())
}

func TestRouter_SetupMountsRegistrars(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	r.Register(
		NewDomainGroup("invoices", "/invoices").GET("", text("list")).GET("/:id", text("one")),
		NewDomainGroup("receipts", "/receipts").GET("/number/:number", text("by-number")),
	)
	r.Setup()

	assert.Equal(t, "list", serve(engine, http.MethodGet, "/api/v1/invoices").Body.String())
	assert.Equal(t, "one", serve(engine, http.MethodGet, "/api/v1/invoices/abc").Body.String())
	assert.Equal(t, "by-number", serve(engine, http.MethodGet, "/api/v1/receipts/number/RCP-1").Body.String())
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/invoices").Code)
}

func TestRouter_APIMiddlewareScopedToPrefix(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", text("ok"))

	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
	r := NewRouter(engine, WithAPIMiddleware(deny))
	r.Register(NewDomainGroup("accounts", "/accounts").GET("", text("accounts")))
	r.Setup()

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/accounts").Code)
}

func TestRouter_Routes(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	r.Register(NewDomainGroup("transactions", "/transactions").
		POST("/:id/reverse", text("")).
		GET("", text("")).
		POST("", text("")))
	r.Setup()

	assert.Equal(t, []RouteInfo{
		{Method: http.MethodGet, Path: "/api/v1/transactions"},
		{Method: http.MethodPost, Path: "/api/v1/transactions"},
		{Method: http.MethodPost, Path: "/api/v1/transactions/:id/reverse"},
	}, r.Routes())
}

func TestDomainGroup_Methods(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("invoices", "/invoices").
		GET("/x", text("get")).
		POST("/x", text("post")).
		PUT("/x", text("put")).
		DELETE("/x", text("delete"))
	g.RegisterRoutes(engine.Group("/api/v1"))

	assert.Equal(t, "invoices", g.Name())
	assert.Equal(t, "/invoices", g.Prefix())
	for method, want := range map[string]string{
		http.MethodGet:    "get",
		http.MethodPost:   "post",
		http.MethodPut:    "put",
		http.MethodDelete: "delete",
	} {
		w := serve(engine, method, "/api/v1/invoices/x")
		require.Equal(t, http.StatusOK, w.Code, method)
		assert.Equal(t, want, w.Body.String())
	}
}

func TestDomainGroup_MiddlewareAndSubgroups(t *testing.T) {
	engine := gin.New()
	var order []string

	g := NewDomainGroup("billing-periods", "/billing-periods").
		Use(func(c *gin.Context) { order = append(order, "group"); c.Next() }).
		GET("", text("periods"))
	g.Group("utilities", "/:id/utility-charges").
		Use(func(c *gin.Context) { order = append(order, "sub"); c.Next() }).
		POST("", func(c *gin.Context) { c.String(http.StatusCreated, c.Param("id")) })
	g.RegisterRoutes(engine.Group("/api/v1"))

	w := serve(engine, http.MethodPost, "/api/v1/billing-periods/p1/utility-charges")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "p1", w.Body.String())
	assert.Equal(t, []string{"group", "sub"}, order)

	order = nil
	serve(engine, http.MethodGet, "/api/v1/billing-periods")
	assert.Equal(t, []string{"group"}, order)
}
