// Account HTTP handlers.
//
// This file exposes REST endpoints for registration, login, and the
// refresh-token lifecycle:
//   - POST /auth/register
//   - POST /auth/login
//   - POST /auth/refresh
//   - POST /auth/logout
//   - GET  /users/me        (authenticated)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/denshikawa/go-manga-backend/internal/http/middleware"
)

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest is the JSON payload for logging in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries the opaque refresh token for rotation or logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UserResponse is the public shape of an account.
type UserResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Register handles POST /auth/register.
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid registration payload")
		return
	}

	user, err := h.authSvc.Register(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusCreated, UserResponse{ID: user.ID, Email: user.Email, Username: user.Username, Role: user.Role})
}

// Login handles POST /auth/login.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid login payload")
		return
	}

	pair, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusOK, pair)
}

// RefreshToken handles POST /auth/refresh.
func (h *Handlers) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "refresh_token is required")
		return
	}

	pair, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusOK, pair)
}

// Logout handles POST /auth/logout.
func (h *Handlers) Logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "refresh_token is required")
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		failFromError(c, err)
		return
	}
	noContent(c)
}

// Me handles GET /users/me.
func (h *Handlers) Me(c *gin.Context) {
	user, err := h.authSvc.GetUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusOK, UserResponse{ID: user.ID, Email: user.Email, Username: user.Username, Role: user.Role})
}
