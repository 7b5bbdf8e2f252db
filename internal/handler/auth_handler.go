package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acconduty/od-form-api/internal/models"
	appErrors "github.com/acconduty/od-form-api/pkg/errors"
	"github.com/acconduty/od-form-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	EnsureSession(ctx context.Context) (*models.SessionResponse, error)
}

// AuthHandler exposes coordinator login and ambient session endpoints.
type AuthHandler struct {
	service authService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service authService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Login godoc
// @Summary Authenticate a coordinator
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid login payload"))
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Session godoc
// @Summary Issue an anonymous session token
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/session [post]
func (h *AuthHandler) Session(c *gin.Context) {
	resp, err := h.service.EnsureSession(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
