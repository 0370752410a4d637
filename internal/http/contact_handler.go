package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"calmspace/internal/email"
)

// ContactHandler mantiene dependencias para el formulario de contacto.
type ContactHandler struct {
	logger *zap.Logger
	sender email.Sender
}

func NewContactHandler(logger *zap.Logger, sender email.Sender) *ContactHandler {
	return &ContactHandler{logger: logger, sender: sender}
}

// Submit maneja POST /contact. El despacho es best-effort: el fallo se
// registra y el formulario siempre confirma la recepción.
func (h *ContactHandler) Submit(c *gin.Context) {
	var req struct {
		Name    string `json:"name" binding:"required"`
		Email   string `json:"email" binding:"required,email"`
		Phone   string `json:"phone"`
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid contact request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.sender.SendEnquiry(c.Request.Context(), email.Enquiry{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Message: req.Message,
	}); err != nil {
		h.logger.Warn("enquiry dispatch failed", zap.String("email", req.Email), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
