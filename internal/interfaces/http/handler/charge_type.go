package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/propledger/backend/internal/application/finance"
	"github.com/propledger/backend/internal/interfaces/http/dto"
	"github.com/propledger/backend/internal/interfaces/http/router"
)

// ChargeTypeHandler serves the charge type catalog
type ChargeTypeHandler struct {
	BaseHandler
	chargeTypes *financeapp.ChargeTypeService
}

// NewChargeTypeHandler creates a new ChargeTypeHandler
func NewChargeTypeHandler(chargeTypes *financeapp.ChargeTypeService) *ChargeTypeHandler {
	return &ChargeTypeHandler{chargeTypes: chargeTypes}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *ChargeTypeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	router.NewDomainGroup("charge-types", "/charge-types").
		GET("", h.List).
		POST("", h.Create).
		RegisterRoutes(rg)
}

// List handles GET /charge-types?active_only=; inactive entries are hidden by default
func (h *ChargeTypeHandler) List(c *gin.Context) {
	activeOnly, ok := h.queryBool(c, "active_only")
	if !ok {
		return
	}
	types, err := h.chargeTypes.List(c.Request.Context(), activeOnly == nil || *activeOnly)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, types)
}

// Create handles POST /charge-types
func (h *ChargeTypeHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req dto.CreateChargeTypeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	chargeType, err := h.chargeTypes.Create(c.Request.Context(), actor, req.ToApp())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, chargeType)
}
