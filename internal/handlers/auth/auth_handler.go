// internal/handlers/auth/auth_handler.go
package auth

import (
	"errors"
	"net/http"

	"kunden-service/internal/domain/auth"
	"kunden-service/internal/middleware"
	xerrors "kunden-service/internal/pkg/errors"
	"kunden-service/internal/pkg/response"
	authUsecase "kunden-service/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *authUsecase.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *authUsecase.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// ========== Login ==========

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	req.IPAddress = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	loginResp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.logger.Warn("login failed",
			zap.String("username", req.Username),
			zap.String("ip", req.IPAddress),
			zap.Error(err),
		)
		switch {
		case errors.Is(err, xerrors.ErrRateLimited):
			response.Error(c, http.StatusTooManyRequests, "login failed", err)
		case errors.Is(err, xerrors.ErrUnauthorized):
			response.Unauthorized(c, "login failed", err)
		default:
			response.Error(c, http.StatusInternalServerError, "login failed", err)
		}
		return
	}

	response.Success(c, http.StatusOK, "login successful", loginResp)
}

// ========== Session ==========

// Logout ends the current session and revokes its token
func (h *AuthHandler) Logout(c *gin.Context) {
	username := middleware.MustGetUsername(c)
	jti := middleware.MustGetJTI(c)

	if err := h.authService.Logout(c.Request.Context(), username, jti); err != nil {
		h.logger.Error("logout failed", zap.String("username", username), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "logout failed", err)
		return
	}

	response.Success(c, http.StatusOK, "logout successful", nil)
}

// GetMe returns the logged in user
func (h *AuthHandler) GetMe(c *gin.Context) {
	username := middleware.MustGetUsername(c)

	user, err := h.authService.Me(username)
	if err != nil {
		response.NotFound(c, "user not found", err)
		return
	}

	response.Success(c, http.StatusOK, "user retrieved", user)
}
