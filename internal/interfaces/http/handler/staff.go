package handler

import (
	"github.com/belgrano/backend/internal/application/ticketing"
	"github.com/belgrano/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// StaffHandler handles dashboard sessions and staff accounts
type StaffHandler struct {
	BaseHandler
	staff *ticketing.StaffService
}

// NewStaffHandler creates a new staff handler
func NewStaffHandler(staff *ticketing.StaffService) *StaffHandler {
	return &StaffHandler{staff: staff}
}

// StaffLoginRequest accepts a username or an email as login
type StaffLoginRequest struct {
	Login    string `json:"login" binding:"required_without=Username"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

// ChangeStaffPasswordRequest replaces the caller's password
type ChangeStaffPasswordRequest struct {
	PasswordActual string `json:"password_actual" binding:"required"`
	PasswordNueva  string `json:"password_nueva" binding:"required,min=6"`
}

// Login opens a dashboard session
// POST /auth/login
func (h *StaffHandler) Login(c *gin.Context) {
	var req StaffLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	login := req.Login
	if login == "" {
		login = req.Username
	}
	result, err := h.staff.Login(c.Request.Context(), login, req.Password)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Logout revokes the session token
// POST /auth/logout
func (h *StaffHandler) Logout(c *gin.Context) {
	if err := h.staff.Logout(c.Request.Context(), middleware.GetJWTClaims(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Sesión cerrada"})
}

// Me returns the logged-in account
// GET /auth/me
func (h *StaffHandler) Me(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	u, err := h.staff.Me(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, u)
}

// List returns the staff accounts
// GET /usuarios
func (h *StaffHandler) List(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	users, err := h.staff.List(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, users)
}

// Create adds an account
// POST /usuarios
func (h *StaffHandler) Create(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	var req ticketing.CreateStaffInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	u, err := h.staff.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, u)
}

// Update edits an account
// PUT /usuarios/:id
func (h *StaffHandler) Update(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid user ID")
		return
	}
	var req ticketing.UpdateStaffInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	u, err := h.staff.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, u)
}

// Delete removes an account
// DELETE /usuarios/:id
func (h *StaffHandler) Delete(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid user ID")
		return
	}
	if err := h.staff.Delete(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ChangePassword replaces the caller's password
// POST /password
func (h *StaffHandler) ChangePassword(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	var req ChangeStaffPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if err := h.staff.ChangePassword(c.Request.Context(), actor, req.PasswordActual, req.PasswordNueva); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Contraseña actualizada"})
}
