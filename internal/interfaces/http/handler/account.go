package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/propledger/backend/internal/application/finance"
	"github.com/propledger/backend/internal/interfaces/http/dto"
	"github.com/propledger/backend/internal/interfaces/http/router"
)

// AccountHandler serves ledger accounts
type AccountHandler struct {
	BaseHandler
	accounts *financeapp.AccountService
	money    *dto.MoneyFormatter
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accounts *financeapp.AccountService, money *dto.MoneyFormatter) *AccountHandler {
	return &AccountHandler{accounts: accounts, money: money}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *AccountHandler) RegisterRoutes(rg *gin.RouterGroup) {
	router.NewDomainGroup("accounts", "/accounts").
		GET("", h.List).
		GET("/me", h.GetMine).
		GET("/:id", h.Get).
		GET("/:id/summary", h.Summary).
		RegisterRoutes(rg)
}

// List handles GET /accounts?in_debt=
func (h *AccountHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	page, ok := h.page(c)
	if !ok {
		return
	}
	inDebt, ok := h.queryBool(c, "in_debt")
	if !ok {
		return
	}

	result, err := h.accounts.List(c.Request.Context(), actor, financeapp.AccountListFilter{
		Page:     page.Page,
		PageSize: page.PageSize,
		InDebt:   inDebt,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	successPage(&h.BaseHandler, c, result, func(items []financeapp.AccountResponse) []dto.AccountView {
		return dto.NewAccountViews(items, h.money)
	})
}

// GetMine handles GET /accounts/me
func (h *AccountHandler) GetMine(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	account, err := h.accounts.GetMine(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewAccountView(*account, h.money))
}

// Get handles GET /accounts/:id
func (h *AccountHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	account, err := h.accounts.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewAccountView(*account, h.money))
}

// Summary handles GET /accounts/:id/summary
func (h *AccountHandler) Summary(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	summary, err := h.accounts.Summary(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
