package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/propledger/backend/internal/application/finance"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/interfaces/http/dto"
	"github.com/propledger/backend/internal/interfaces/http/router"
)

// PaymentHandler serves general payments
type PaymentHandler struct {
	BaseHandler
	payments *financeapp.PaymentService
	money    *dto.MoneyFormatter
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments *financeapp.PaymentService, money *dto.MoneyFormatter) *PaymentHandler {
	return &PaymentHandler{payments: payments, money: money}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	router.NewDomainGroup("payments", "/payments").
		GET("", h.List).
		POST("", h.Create).
		POST("/quick", h.Quick).
		GET("/:id", h.Get).
		POST("/:id/process", h.Process).
		RegisterRoutes(rg)
}

// List handles GET /payments?tenant_id=&invoice_id=&status=
func (h *PaymentHandler) List(c *gin.Context) {
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

	result, err := h.payments.List(c.Request.Context(), actor, financeapp.PaymentListFilter{
		Page:      page.Page,
		PageSize:  page.PageSize,
		TenantID:  tenantID,
		InvoiceID: invoiceID,
		Status:    queryString[finance.PaymentStatus](c, "status"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	successPage(&h.BaseHandler, c, result, identityItems[financeapp.PaymentResponse])
}

// Create handles POST /payments: records a pending payment
func (h *PaymentHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req dto.CreatePaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	payment, err := h.payments.Create(c.Request.Context(), actor, req.ToApp())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payment)
}

// Quick handles POST /payments/quick: create and process in one step
func (h *PaymentHandler) Quick(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req dto.CreatePaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.payments.QuickPay(c.Request.Context(), actor, req.ToApp())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NewPaymentResultView(*result, h.money))
}

// Get handles GET /payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	payment, err := h.payments.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// Process handles POST /payments/:id/process {skip_receipt}
func (h *PaymentHandler) Process(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ProcessPaymentRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	result, err := h.payments.Process(c.Request.Context(), actor, id, financeapp.ProcessOptions{SkipReceipt: req.SkipReceipt})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewPaymentResultView(*result, h.money))
}
