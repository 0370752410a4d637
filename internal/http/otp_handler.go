package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"calmspace/internal/otp"
)

// OTPHandler mantiene dependencias para los endpoints de verificación OTP.
type OTPHandler struct {
	logger  *zap.Logger
	otpServ *otp.Service
}

func NewOTPHandler(logger *zap.Logger, otpServ *otp.Service) *OTPHandler {
	return &OTPHandler{logger: logger, otpServ: otpServ}
}

// SendCode maneja POST /auth/otp/send.
func (h *OTPHandler) SendCode(c *gin.Context) {
	var req struct {
		Contact     string `json:"contact" binding:"required"`
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid otp send request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.otpServ.SendCode(c.Request.Context(), otp.SendCodeInput{
		Contact:     req.Contact,
		Email:       req.Email,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		switch {
		case errors.Is(err, otp.ErrInvalidContact):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contact"})
		case errors.Is(err, otp.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		default:
			h.logger.Error("otp send failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send otp"})
		}
		return
	}

	// El fallo de despacho viaja en el cuerpo, no como error HTTP.
	c.JSON(http.StatusOK, result)
}

// VerifyCode maneja POST /auth/otp/verify.
func (h *OTPHandler) VerifyCode(c *gin.Context) {
	var req struct {
		Contact string `json:"contact" binding:"required"`
		Code    string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid otp verify request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.otpServ.VerifyCode(c.Request.Context(), req.Contact, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, otp.ErrInvalidContact), errors.Is(err, otp.ErrInvalidCode):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, otp.ErrNoPending), errors.Is(err, otp.ErrExpired), errors.Is(err, otp.ErrCodeMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"verified": false, "error": err.Error()})
		case errors.Is(err, otp.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		default:
			h.logger.Error("otp verify failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify otp"})
		}
		return
	}

	resp := gin.H{"verified": true}
	if user != nil {
		resp["user"] = user
	}
	c.JSON(http.StatusOK, resp)
}
