package handler

import (
	"github.com/belgrano/backend/internal/application/storefront"
	"github.com/belgrano/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// CustomerHandler handles shopper accounts: sign-up, sessions and profile
type CustomerHandler struct {
	BaseHandler
	customers *storefront.CustomerService
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customers *storefront.CustomerService) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

// CustomerLoginRequest holds shopper credentials
type CustomerLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates a cliente or comerciante account
// POST /auth/register
func (h *CustomerHandler) Register(c *gin.Context) {
	var req storefront.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	profile, err := h.customers.Register(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, profile)
}

// Login opens a shopper session
// POST /auth/login
func (h *CustomerHandler) Login(c *gin.Context) {
	var req CustomerLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.customers.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Logout revokes the current session token
// POST /auth/logout
func (h *CustomerHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	if err := h.customers.Logout(c.Request.Context(), claims); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Sesión cerrada"})
}

// Profile returns the shopper's own account
// GET /perfil
func (h *CustomerHandler) Profile(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	profile, err := h.customers.Profile(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// UpdateProfile edits contact data
// PUT /perfil
func (h *CustomerHandler) UpdateProfile(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	var req storefront.UpdateProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	profile, err := h.customers.UpdateProfile(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// ChangePassword replaces the account password
// POST /perfil/password
func (h *CustomerHandler) ChangePassword(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	var req storefront.ChangePasswordInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if err := h.customers.ChangePassword(c.Request.Context(), id, req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Contraseña actualizada"})
}
