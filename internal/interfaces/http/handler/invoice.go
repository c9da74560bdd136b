package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/propledger/backend/internal/application/finance"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/interfaces/http/dto"
	"github.com/propledger/backend/internal/interfaces/http/router"
)

// InvoiceHandler serves invoices and their items
type InvoiceHandler struct {
	BaseHandler
	invoices *financeapp.InvoiceService
	money    *dto.MoneyFormatter
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices *financeapp.InvoiceService, money *dto.MoneyFormatter) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, money: money}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	router.NewDomainGroup("invoices", "/invoices").
		GET("", h.List).
		GET("/overdue", h.Overdue).
		POST("/generate", h.Generate).
		GET("/:id", h.Get).
		POST("/:id/send", h.Send).
		POST("/:id/cancel", h.Cancel).
		POST("/:id/ensure-rent", h.EnsureRent).
		POST("/:id/charges", h.AddCharge).
		DELETE("/:id/charges/:item_id", h.RemoveCharge).
		POST("/:id/utility-charges", h.AddUtilityCharges).
		GET("/:id/utility-charges", h.UnbilledUtilityCharges).
		POST("/:id/apply-payment", h.ApplyPayment).
		GET("/:id/payments", h.PaymentHistory).
		RegisterRoutes(rg)
}

func (h *InvoiceHandler) views(items []financeapp.InvoiceResponse) []dto.InvoiceView {
	return dto.NewInvoiceViews(items, h.money)
}

func (h *InvoiceHandler) respond(c *gin.Context, inv *financeapp.InvoiceResponse, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewInvoiceView(*inv, h.money))
}

// List handles GET /invoices?tenant_id=&billing_period_id=&status=
func (h *InvoiceHandler) List(c *gin.Context) {
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

	result, err := h.invoices.List(c.Request.Context(), actor, financeapp.InvoiceListFilter{
		Page:            page.Page,
		PageSize:        page.PageSize,
		TenantID:        tenantID,
		BillingPeriodID: periodID,
		Status:          queryString[finance.InvoiceStatus](c, "status"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	successPage(&h.BaseHandler, c, result, h.views)
}

// Overdue handles GET /invoices/overdue
func (h *InvoiceHandler) Overdue(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	page, ok := h.page(c)
	if !ok {
		return
	}
	result, err := h.invoices.Overdue(c.Request.Context(), actor, page.Page, page.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	successPage(&h.BaseHandler, c, result, h.views)
}

// Generate handles POST /invoices/generate. Repeating the call returns the
// existing invoice with 200 instead of 201.
func (h *InvoiceHandler) Generate(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req dto.GenerateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.invoices.GenerateForTenant(c.Request.Context(), actor, req.TenantID, req.BillingPeriodID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	body := gin.H{
		"invoice": dto.NewInvoiceView(result.Invoice, h.money),
		"created": result.Created,
	}
	if result.Created {
		h.Created(c, body)
		return
	}
	h.Success(c, body)
}

// Get handles GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	inv, err := h.invoices.Get(c.Request.Context(), actor, id)
	h.respond(c, inv, err)
}

// Send handles POST /invoices/:id/send
func (h *InvoiceHandler) Send(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	inv, err := h.invoices.Send(c.Request.Context(), actor, id)
	h.respond(c, inv, err)
}

// Cancel handles POST /invoices/:id/cancel
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	inv, err := h.invoices.Cancel(c.Request.Context(), actor, id)
	h.respond(c, inv, err)
}

// EnsureRent handles POST /invoices/:id/ensure-rent
func (h *InvoiceHandler) EnsureRent(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	inv, err := h.invoices.EnsureRentItem(c.Request.Context(), actor, id)
	h.respond(c, inv, err)
}

// AddCharge handles POST /invoices/:id/charges
func (h *InvoiceHandler) AddCharge(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.AddChargeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	inv, err := h.invoices.AddCharge(c.Request.Context(), actor, id, req.ToApp())
	h.respond(c, inv, err)
}

// RemoveCharge handles DELETE /invoices/:id/charges/:item_id
func (h *InvoiceHandler) RemoveCharge(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "item_id")
	if !ok {
		return
	}
	inv, err := h.invoices.RemoveCharge(c.Request.Context(), actor, id, itemID)
	h.respond(c, inv, err)
}

// AddUtilityCharges handles POST /invoices/:id/utility-charges {charge_ids}
func (h *InvoiceHandler) AddUtilityCharges(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.AddUtilityChargesRequest
	if !h.bindJSON(c, &req) {
		return
	}
	inv, err := h.invoices.AddUtilityCharges(c.Request.Context(), actor, id, req.ChargeIDs)
	h.respond(c, inv, err)
}

// UnbilledUtilityCharges handles GET /invoices/:id/utility-charges:
// the tenant's unbilled charges for the invoice's period
func (h *InvoiceHandler) UnbilledUtilityCharges(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	charges, err := h.invoices.UnbilledCharges(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, charges)
}

// ApplyPayment handles POST /invoices/:id/apply-payment
func (h *InvoiceHandler) ApplyPayment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ApplyPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.invoices.ApplyPayment(c.Request.Context(), actor, id, req.ToApp())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NewPaymentResultView(*result, h.money))
}

// PaymentHistory handles GET /invoices/:id/payments
func (h *InvoiceHandler) PaymentHistory(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	history, err := h.invoices.PaymentHistory(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{
		"invoice":      dto.NewInvoiceView(history.Invoice, h.money),
		"transactions": history.Transactions,
		"receipts":     dto.NewReceiptViews(history.Receipts, h.money),
	})
}
