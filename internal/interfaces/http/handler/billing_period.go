package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/propledger/backend/internal/application/finance"
	"github.com/propledger/backend/internal/interfaces/http/dto"
	"github.com/propledger/backend/internal/interfaces/http/router"
)

// DefaultUpcomingMonths is used when ensure-upcoming is called without months
const DefaultUpcomingMonths = 3

// BillingPeriodHandler serves billing periods and the per-period bulk operations
type BillingPeriodHandler struct {
	BaseHandler
	periods   *financeapp.BillingPeriodService
	invoices  *financeapp.InvoiceService
	utilities *financeapp.UtilityChargeService
	money     *dto.MoneyFormatter
}

// NewBillingPeriodHandler creates a new BillingPeriodHandler
func NewBillingPeriodHandler(
	periods *financeapp.BillingPeriodService,
	invoices *financeapp.InvoiceService,
	utilities *financeapp.UtilityChargeService,
	money *dto.MoneyFormatter,
) *BillingPeriodHandler {
	return &BillingPeriodHandler{periods: periods, invoices: invoices, utilities: utilities, money: money}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *BillingPeriodHandler) RegisterRoutes(rg *gin.RouterGroup) {
	router.NewDomainGroup("billing-periods", "/billing-periods").
		GET("", h.List).
		POST("", h.Create).
		GET("/current", h.Current).
		POST("/ensure-upcoming", h.EnsureUpcoming).
		GET("/:id", h.Get).
		GET("/:id/summary", h.Summary).
		POST("/:id/close", h.Close).
		POST("/:id/generate-invoices", h.GenerateInvoices).
		POST("/:id/utility-charges", h.AddUtilityCharges).
		POST("/:id/bill-utilities", h.BillUtilities).
		RegisterRoutes(rg)
}

// List handles GET /billing-periods?is_closed=&is_active=
func (h *BillingPeriodHandler) List(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}
	isClosed, ok := h.queryBool(c, "is_closed")
	if !ok {
		return
	}
	isActive, ok := h.queryBool(c, "is_active")
	if !ok {
		return
	}

	result, err := h.periods.List(c.Request.Context(), financeapp.BillingPeriodListFilter{
		Page:     page.Page,
		PageSize: page.PageSize,
		IsClosed: isClosed,
		IsActive: isActive,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	successPage(&h.BaseHandler, c, result, identityItems[financeapp.BillingPeriodResponse])
}

// Create handles POST /billing-periods
func (h *BillingPeriodHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req dto.CreateBillingPeriodRequest
	if !h.bindJSON(c, &req) {
		return
	}
	period, err := h.periods.Create(c.Request.Context(), actor, req.ToApp())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, period)
}

// Current handles GET /billing-periods/current
func (h *BillingPeriodHandler) Current(c *gin.Context) {
	period, err := h.periods.Current(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, period)
}

// Get handles GET /billing-periods/:id
func (h *BillingPeriodHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	period, err := h.periods.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, period)
}

// Summary handles GET /billing-periods/:id/summary
func (h *BillingPeriodHandler) Summary(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	summary, err := h.periods.Summary(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Close handles POST /billing-periods/:id/close {force}
func (h *BillingPeriodHandler) Close(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ClosePeriodRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	period, err := h.periods.Close(c.Request.Context(), actor, id, req.Force)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, period)
}

// EnsureUpcoming handles POST /billing-periods/ensure-upcoming {months}
func (h *BillingPeriodHandler) EnsureUpcoming(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req dto.EnsureUpcomingRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	months := req.Months
	if months == 0 {
		months = DefaultUpcomingMonths
	}
	result, err := h.periods.EnsureUpcoming(c.Request.Context(), actor, months)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GenerateInvoices handles POST /billing-periods/:id/generate-invoices {tenant_ids, auto_send}.
// Per-tenant failures are reported in the result, not as an error response.
func (h *BillingPeriodHandler) GenerateInvoices(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.GenerateInvoicesRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	result, err := h.invoices.GenerateForPeriod(c.Request.Context(), actor, id, financeapp.GenerateForPeriodRequest{
		TenantIDs: req.TenantIDs,
		AutoSend:  req.AutoSend,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{
		"created":  result.Created,
		"existing": result.Existing,
		"invoices": dto.NewInvoiceViews(result.Invoices, h.money),
		"errors":   result.Errors,
	})
}

// AddUtilityCharges handles POST /billing-periods/:id/utility-charges
func (h *BillingPeriodHandler) AddUtilityCharges(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.BulkPeriodChargesRequest
	if !h.bindJSON(c, &req) {
		return
	}
	charges, err := h.utilities.BulkAddToPeriod(c.Request.Context(), actor, id, req.ToApp())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, charges)
}

// BillUtilities handles POST /billing-periods/:id/bill-utilities {tenant_id}
func (h *BillingPeriodHandler) BillUtilities(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.BillUtilitiesRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.utilities.BulkBill(c.Request.Context(), actor, id, req.TenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{
		"invoice":         dto.NewInvoiceView(result.Invoice, h.money),
		"invoice_created": result.InvoiceCreated,
		"charges_billed":  result.ChargesBilled,
	})
}
