package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/propledger/backend/internal/application/finance"
	"github.com/propledger/backend/internal/interfaces/http/dto"
	"github.com/propledger/backend/internal/interfaces/http/router"
)

// StatementHandler serves tenant statements and balances
type StatementHandler struct {
	BaseHandler
	statements *financeapp.StatementService
	money      *dto.MoneyFormatter
}

// NewStatementHandler creates a new StatementHandler
func NewStatementHandler(statements *financeapp.StatementService, money *dto.MoneyFormatter) *StatementHandler {
	return &StatementHandler{statements: statements, money: money}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *StatementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	router.NewDomainGroup("tenants", "/tenants").
		GET("/:id/statement", h.Statement).
		GET("/:id/balance", h.Balance).
		RegisterRoutes(rg)
}

// Statement handles GET /tenants/:id/statement?from=&to=
func (h *StatementHandler) Statement(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	tenantID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	from, ok := h.queryTime(c, "from")
	if !ok {
		return
	}
	to, ok := h.queryTime(c, "to")
	if !ok {
		return
	}

	statement, err := h.statements.Generate(c.Request.Context(), actor, tenantID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewStatementView(*statement, h.money))
}

// Balance handles GET /tenants/:id/balance
func (h *StatementHandler) Balance(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	tenantID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	balance, err := h.statements.CurrentBalance(c.Request.Context(), actor, tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{
		"tenant_id": balance.TenantID,
		"account":   dto.NewAccountView(balance.Account, h.money),
	})
}
