package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acconduty/od-form-api/internal/dto"
	"github.com/acconduty/od-form-api/internal/service"
	appErrors "github.com/acconduty/od-form-api/pkg/errors"
)

type mailDispatcher interface {
	Dispatch(ctx context.Context, id, to, customContent string) (*service.DispatchResult, error)
}

// MailHandler exposes POST /send-email.
//
// This route answers with flat JSON shapes rather than the standard
// envelope: the exact bodies are a compatibility contract with existing
// clients and must not change.
type MailHandler struct {
	service mailDispatcher
}

// NewMailHandler constructs the handler.
func NewMailHandler(service mailDispatcher) *MailHandler {
	return &MailHandler{service: service}
}

// Send godoc
// @Summary Send the email for one submission
// @Tags Mail
// @Accept json
// @Produce json
// @Param payload body dto.SendMailRequest true "Dispatch request"
// @Success 200 {object} dto.SendMailResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /send-email [post]
func (h *MailHandler) Send(c *gin.Context) {
	var req dto.SendMailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing id/to"})
		return
	}
	if req.ID == "" || req.To == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing id/to"})
		return
	}

	res, err := h.service.Dispatch(c.Request.Context(), req.ID, req.To, req.CustomContent)
	if err != nil {
		appErr := appErrors.FromError(err)
		c.JSON(appErr.Status, gin.H{"error": appErr.Message})
		return
	}

	c.JSON(http.StatusOK, dto.SendMailResponse{
		OK:        true,
		MessageID: res.MessageID,
		Preview:   res.Preview,
		HTML:      res.HTML,
		From:      res.From,
		Fallback:  res.Fallback,
		Note:      res.Note,
	})
}
