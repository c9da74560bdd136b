package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/propledger/backend/internal/application/finance"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/interfaces/http/dto"
	"github.com/propledger/backend/internal/interfaces/http/router"
)

// UtilityChargeHandler serves recorded utility charges
type UtilityChargeHandler struct {
	BaseHandler
	utilities *financeapp.UtilityChargeService
	money     *dto.MoneyFormatter
}

// NewUtilityChargeHandler creates a new UtilityChargeHandler
func NewUtilityChargeHandler(utilities *financeapp.UtilityChargeService, money *dto.MoneyFormatter) *UtilityChargeHandler {
	return &UtilityChargeHandler{utilities: utilities, money: money}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *UtilityChargeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	router.NewDomainGroup("utility-charges", "/utility-charges").
		GET("", h.List).
		POST("", h.Record).
		POST("/bulk", h.BulkCreate).
		GET("/:id", h.Get).
		POST("/:id/add-to-invoice", h.AddToInvoice).
		RegisterRoutes(rg)
}

// List handles GET /utility-charges?tenant_id=&billing_period_id=&utility_type=&is_billed=
func (h *UtilityChargeHandler) List(c *gin.Context) {
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
	periodID, ok := h.queryID(c, "billing_period_id")
	if !ok {
		return
	}
	isBilled, ok := h.queryBool(c, "is_billed")
	if !ok {
		return
	}

	result, err := h.utilities.List(c.Request.Context(), actor, financeapp.UtilityChargeListFilter{
		Page:            page.Page,
		PageSize:        page.PageSize,
		TenantID:        tenantID,
		BillingPeriodID: periodID,
		UtilityType:     queryString[finance.UtilityType](c, "utility_type"),
		IsBilled:        isBilled,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	successPage(&h.BaseHandler, c, result, identityItems[financeapp.UtilityChargeResponse])
}

// Record handles POST /utility-charges
func (h *UtilityChargeHandler) Record(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req dto.RecordUtilityChargeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	charge, err := h.utilities.Record(c.Request.Context(), actor, req.ToApp())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, charge)
}

// BulkCreate handles POST /utility-charges/bulk. The batch is all-or-nothing.
func (h *UtilityChargeHandler) BulkCreate(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req dto.BulkUtilityChargesRequest
	if !h.bindJSON(c, &req) {
		return
	}
	charges, err := h.utilities.BulkCreate(c.Request.Context(), actor, req.ToApp())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, charges)
}

// Get handles GET /utility-charges/:id
func (h *UtilityChargeHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	charge, err := h.utilities.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, charge)
}

// AddToInvoice handles POST /utility-charges/:id/add-to-invoice {invoice_id}
func (h *UtilityChargeHandler) AddToInvoice(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.AddToInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	inv, err := h.utilities.AddToInvoice(c.Request.Context(), actor, id, req.InvoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewInvoiceView(*inv, h.money))
}
