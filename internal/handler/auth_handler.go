package handler

import (
	"errors"
	"net/http"

	"github.com/SergeiKhy/qr-tracker/internal/repository"
	"github.com/SergeiKhy/qr-tracker/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	service service.AuthService
	logger  *zap.Logger
}

func NewAuthHandler(authService service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: authService,
		logger:  logger,
	}
}

type credentialsRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token  string `json:"token"`
	UserID int64  `json:"user_id"`
	Login  string `json:"login"`
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	user, err := h.service.Register(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLoginTooShort), errors.Is(err, service.ErrPasswordTooShort):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_credentials", Message: err.Error()})
		case errors.Is(err, repository.ErrLoginTaken):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "login_taken", Message: "Login is already taken"})
		default:
			h.logger.Error("Failed to register user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Failed to register"})
		}
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	token, user, err := h.service.Login(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid_credentials", Message: "Invalid login or password"})
			return
		}
		h.logger.Error("Failed to log in user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Failed to log in"})
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Token:  token,
		UserID: user.ID,
		Login:  user.Login,
	})
}
