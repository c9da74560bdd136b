package handler

import (
	"github.com/gin-gonic/gin"
	identityapp "github.com/propledger/backend/internal/application/identity"
	"github.com/propledger/backend/internal/interfaces/http/dto"
	"github.com/propledger/backend/internal/interfaces/http/router"
)

// UserHandler opens users together with their ledger account
type UserHandler struct {
	BaseHandler
	users *identityapp.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users *identityapp.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	router.NewDomainGroup("users", "/users").
		POST("", h.Create).
		GET("/:id", h.Get).
		RegisterRoutes(rg)
}

// Create handles POST /users. The account is opened in the same unit of work.
func (h *UserHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req dto.CreateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.users.CreateUser(c.Request.Context(), actor, req.ToApp())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}

// Get handles GET /users/:id
func (h *UserHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}
