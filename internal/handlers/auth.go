// internal/handlers/auth.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/shop-backend/internal/config"
	"github.com/javajoker/shop-backend/internal/i18n"
	"github.com/javajoker/shop-backend/internal/services"
	"github.com/javajoker/shop-backend/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
	cookie      config.CookieConfig
}

func NewAuthHandler(authService *services.AuthService, cookie config.CookieConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
	}
}

// sendToken sets the session cookie and returns the user with the token.
func (h *AuthHandler) sendToken(c *gin.Context, status int, result *services.AuthResult) {
	maxAge := h.cookie.ExpireDays * 24 * 60 * 60
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, result.Token, maxAge, "/", "", h.cookie.Secure, true)

	utils.JSONResponse(c, status, gin.H{
		"user":  result.User,
		"token": result.Token,
	})
}

// POST /register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	h.sendToken(c, http.StatusCreated, result)
}

// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	h.sendToken(c, http.StatusOK, result)
}

// GET /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthLogoutSuccess),
	})
}

// POST /password/forgot
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req services.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), &req); err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthResetEmailSent, req.Email),
	})
}

// PUT /password/reset/:token
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req services.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.ResetPassword(c.Request.Context(), c.Param("token"), &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	h.sendToken(c, http.StatusOK, result)
}

// PUT /password/update
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	var req services.UpdatePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.UpdatePassword(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	h.sendToken(c, http.StatusOK, result)
}
