package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/propledger/backend/internal/application/finance"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/interfaces/http/dto"
	"github.com/propledger/backend/internal/interfaces/http/router"
)

// RentPaymentHandler serves rent payments
type RentPaymentHandler struct {
	BaseHandler
	rent  *financeapp.RentPaymentService
	money *dto.MoneyFormatter
}

// NewRentPaymentHandler creates a new RentPaymentHandler
func NewRentPaymentHandler(rent *financeapp.RentPaymentService, money *dto.MoneyFormatter) *RentPaymentHandler {
	return &RentPaymentHandler{rent: rent, money: money}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *RentPaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	router.NewDomainGroup("rent-payments", "/rent-payments").
		GET("", h.List).
		POST("", h.Create).
		GET("/overdue", h.Overdue).
		GET("/pending", h.Pending).
		GET("/:id", h.Get).
		POST("/:id/process", h.Process).
		POST("/:id/pay-remaining", h.PayRemaining).
		RegisterRoutes(rg)
}

// List handles GET /rent-payments?tenant_id=&billing_period_id=&status=
func (h *RentPaymentHandler) List(c *gin.Context) {
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

	result, err := h.rent.List(c.Request.Context(), actor, financeapp.RentPaymentListFilter{
		Page:            page.Page,
		PageSize:        page.PageSize,
		TenantID:        tenantID,
		BillingPeriodID: periodID,
		Status:          queryString[finance.PaymentStatus](c, "status"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	successPage(&h.BaseHandler, c, result, identityItems[financeapp.RentPaymentResponse])
}

// Create handles POST /rent-payments
func (h *RentPaymentHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req dto.CreateRentPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	payment, err := h.rent.Create(c.Request.Context(), actor, req.ToApp())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payment)
}

// Overdue handles GET /rent-payments/overdue
func (h *RentPaymentHandler) Overdue(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	page, ok := h.page(c)
	if !ok {
		return
	}
	result, err := h.rent.Overdue(c.Request.Context(), actor, page.Page, page.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	successPage(&h.BaseHandler, c, result, identityItems[financeapp.RentPaymentResponse])
}

// Pending handles GET /rent-payments/pending
func (h *RentPaymentHandler) Pending(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	page, ok := h.page(c)
	if !ok {
		return
	}
	result, err := h.rent.Pending(c.Request.Context(), actor, page.Page, page.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	successPage(&h.BaseHandler, c, result, identityItems[financeapp.RentPaymentResponse])
}

// Get handles GET /rent-payments/:id
func (h *RentPaymentHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	payment, err := h.rent.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// Process handles POST /rent-payments/:id/process {amount, create_receipt}
func (h *RentPaymentHandler) Process(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ProcessRentPaymentRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	result, err := h.rent.ProcessPayment(c.Request.Context(), actor, id, req.Amount, req.WantsReceipt())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewPaymentResultView(*result, h.money))
}

// PayRemaining handles POST /rent-payments/:id/pay-remaining
func (h *RentPaymentHandler) PayRemaining(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.rent.PayRemaining(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewPaymentResultView(*result, h.money))
}
