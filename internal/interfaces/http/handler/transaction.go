package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/propledger/backend/internal/application/finance"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/interfaces/http/dto"
	"github.com/propledger/backend/internal/interfaces/http/router"
)

// TransactionHandler serves the ledger's transaction log
type TransactionHandler struct {
	BaseHandler
	transactions *financeapp.TransactionService
	money        *dto.MoneyFormatter
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactions *financeapp.TransactionService, money *dto.MoneyFormatter) *TransactionHandler {
	return &TransactionHandler{transactions: transactions, money: money}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *TransactionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	router.NewDomainGroup("transactions", "/transactions").
		GET("", h.List).
		POST("", h.Post).
		GET("/:id", h.Get).
		POST("/:id/reverse", h.Reverse).
		RegisterRoutes(rg)
}

// List handles GET /transactions?account_id=&transaction_type=&from=&to=
func (h *TransactionHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	page, ok := h.page(c)
	if !ok {
		return
	}
	accountID, ok := h.queryID(c, "account_id")
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

	filter := financeapp.TransactionListFilter{
		Page:            page.Page,
		PageSize:        page.PageSize,
		AccountID:       accountID,
		TransactionType: queryString[finance.TransactionType](c, "transaction_type"),
	}
	if !from.IsZero() {
		filter.From = &from
	}
	if !to.IsZero() {
		filter.To = &to
	}

	result, err := h.transactions.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	successPage(&h.BaseHandler, c, result, identityItems[financeapp.TransactionResponse])
}

// Get handles GET /transactions/:id
func (h *TransactionHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	tx, err := h.transactions.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// Post handles POST /transactions
func (h *TransactionHandler) Post(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req dto.PostTransactionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.transactions.Post(c.Request.Context(), actor, req.ToApp())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, gin.H{
		"transaction": result.Transaction,
		"account":     dto.NewAccountView(result.Account, h.money),
	})
}

// Reverse handles POST /transactions/:id/reverse {reason}
func (h *TransactionHandler) Reverse(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ReverseTransactionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.transactions.Reverse(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, gin.H{
		"transaction": result.Transaction,
		"account":     dto.NewAccountView(result.Account, h.money),
	})
}
