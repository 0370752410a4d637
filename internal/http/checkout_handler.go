package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"calmspace/internal/payment"
	"calmspace/internal/service"
)

// CheckoutHandler mantiene dependencias para el flujo de checkout y pago.
type CheckoutHandler struct {
	logger       *zap.Logger
	checkoutServ *service.CheckoutService
}

func NewCheckoutHandler(logger *zap.Logger, checkoutServ *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{logger: logger, checkoutServ: checkoutServ}
}

func sessionID(c *gin.Context) (string, bool) {
	id := c.Query("session_id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id required"})
		return "", false
	}
	return id, true
}

// Load maneja GET /checkout.
func (h *CheckoutHandler) Load(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	state, err := h.checkoutServ.LoadDraft(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNoDraft) {
			// Sin borrador no hay checkout: de vuelta al formulario.
			c.JSON(http.StatusNotFound, gin.H{"error": "no booking draft", "redirect": "/booking"})
			return
		}
		h.logger.Error("checkout load failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load checkout"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"checkout": state})
}

// ApplyPromo maneja POST /checkout/promo.
func (h *CheckoutHandler) ApplyPromo(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id" binding:"required"`
		Code      string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid promo request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	state, err := h.checkoutServ.ApplyPromo(c.Request.Context(), req.SessionID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoCheckout):
			c.JSON(http.StatusNotFound, gin.H{"error": "no active checkout"})
		case errors.Is(err, service.ErrInvalidPromo):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid promo code"})
		default:
			h.logger.Error("promo apply failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not apply promo"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"checkout": state})
}

// BeginPayment maneja POST /checkout/payment.
func (h *CheckoutHandler) BeginPayment(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid payment request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	options, err := h.checkoutServ.BeginPayment(c.Request.Context(), req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoCheckout):
			c.JSON(http.StatusNotFound, gin.H{"error": "no active checkout"})
		case errors.Is(err, service.ErrPaymentInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": "payment already in flight"})
		case errors.Is(err, payment.ErrGatewayUnavailable):
			// El widget no pudo cargarse; rama de fallo propia, reintentable.
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment gateway unavailable", "reason": "widget_load"})
		default:
			h.logger.Error("begin payment failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start payment"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"options": options})
}

// PaymentCallback maneja POST /checkout/payment/callback.
func (h *CheckoutHandler) PaymentCallback(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id" binding:"required"`
		PaymentID string `json:"razorpay_payment_id" binding:"required"`
		Signature string `json:"razorpay_signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid payment callback", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	booking, err := h.checkoutServ.HandleSuccess(c.Request.Context(), req.SessionID, req.PaymentID, req.Signature)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoCheckout):
			c.JSON(http.StatusNotFound, gin.H{"error": "no active checkout"})
		case errors.Is(err, service.ErrBadSignature):
			c.JSON(http.StatusBadRequest, gin.H{"error": "signature verification failed"})
		default:
			h.logger.Error("payment callback failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record payment"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking, "redirect": "/payment-success"})
}

// PaymentFailure maneja POST /checkout/payment/failure.
func (h *CheckoutHandler) PaymentFailure(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id" binding:"required"`
		Reason    string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid payment failure request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	reason := service.FailureReason(req.Reason)
	switch reason {
	case service.FailureDeclined, service.FailureDismissed, service.FailureWidgetLoad:
	default:
		reason = service.FailureDeclined
	}

	if err := h.checkoutServ.HandleFailure(c.Request.Context(), req.SessionID, reason); err != nil {
		if errors.Is(err, service.ErrNoCheckout) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active checkout"})
			return
		}
		h.logger.Error("payment failure handling failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record failure"})
		return
	}

	// Los tres disparadores comparten destino.
	c.JSON(http.StatusOK, gin.H{"redirect": "/payment-failed"})
}

// Result maneja GET /checkout/result.
func (h *CheckoutHandler) Result(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	booking, found, err := h.checkoutServ.ConsumeResult(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("checkout result read failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read result"})
		return
	}
	if !found {
		// Sin registro no hay página de éxito: acceso directo o recarga.
		c.JSON(http.StatusNotFound, gin.H{"error": "no payment result", "redirect": "/"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}
