package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/propledger/backend/internal/application/finance"
	"github.com/propledger/backend/internal/interfaces/http/dto"
	"github.com/propledger/backend/internal/interfaces/http/router"
)

// ReceiptHandler serves issued receipts
type ReceiptHandler struct {
	BaseHandler
	receipts *financeapp.ReceiptService
	money    *dto.MoneyFormatter
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(receipts *financeapp.ReceiptService, money *dto.MoneyFormatter) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts, money: money}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *ReceiptHandler) RegisterRoutes(rg *gin.RouterGroup) {
	router.NewDomainGroup("receipts", "/receipts").
		GET("", h.List).
		GET("/number/:number", h.GetByNumber).
		GET("/:id", h.Get).
		RegisterRoutes(rg)
}

// List handles GET /receipts?tenant_id=&invoice_id=
func (h *ReceiptHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	page, ok := h.page(c)
	if !ok {
		return
	}
	tenantID, ok := h.queryID(c, "tenant_id")
	if !ok {
		return
	}
	invoiceID, ok := h.queryID(c, "invoice_id")
	if !ok {
		return
	}

	result, err := h.receipts.List(c.Request.Context(), actor, financeapp.ReceiptListFilter{
		Page:      page.Page,
		PageSize:  page.PageSize,
		TenantID:  tenantID,
		InvoiceID: invoiceID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	successPage(&h.BaseHandler, c, result, func(items []financeapp.ReceiptResponse) []dto.ReceiptView {
		return dto.NewReceiptViews(items, h.money)
	})
}

// Get handles GET /receipts/:id
func (h *ReceiptHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	receipt, err := h.receipts.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewReceiptView(*receipt, h.money))
}

// GetByNumber handles GET /receipts/number/:number
func (h *ReceiptHandler) GetByNumber(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	receipt, err := h.receipts.GetByNumber(c.Request.Context(), actor, c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewReceiptView(*receipt, h.money))
}
