package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"calmspace/internal/domain"
	"calmspace/internal/repository"
	"calmspace/internal/service"
)

// BookingHandler mantiene dependencias para el formulario de reserva.
type BookingHandler struct {
	logger      *zap.Logger
	bookingServ *service.BookingService
	bookings    repository.BookingRepository
}

func NewBookingHandler(logger *zap.Logger, bookingServ *service.BookingService, bookings repository.BookingRepository) *BookingHandler {
	return &BookingHandler{logger: logger, bookingServ: bookingServ, bookings: bookings}
}

// SubmitDraft maneja POST /bookings.
func (h *BookingHandler) SubmitDraft(c *gin.Context) {
	var req struct {
		Name                string `json:"name"`
		Email               string `json:"email"`
		Phone               string `json:"phone"`
		ServiceType         string `json:"service_type"`
		TherapistPreference string `json:"therapist_preference"`
		Concerns            string `json:"concerns"`
		AppointmentDate     string `json:"appointment_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid booking request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	sessionID, err := h.bookingServ.SubmitDraft(c.Request.Context(), domain.BookingDraft{
		Name:                req.Name,
		Email:               req.Email,
		Phone:               req.Phone,
		ServiceType:         domain.ServiceType(req.ServiceType),
		TherapistPreference: req.TherapistPreference,
		Concerns:            req.Concerns,
		AppointmentDate:     req.AppointmentDate,
	})
	if err != nil {
		var fieldErrs service.FieldErrors
		if errors.As(err, &fieldErrs) {
			// Errores por campo: cada uno se muestra y se corrige por separado.
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": fieldErrs})
			return
		}
		h.logger.Error("booking submit failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store booking"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session_id": sessionID, "redirect": "/checkout"})
}

// GetByPayment maneja GET /bookings/:paymentID. La página de éxito muestra
// su registro una sola vez; este es el comprobante durable.
func (h *BookingHandler) GetByPayment(c *gin.Context) {
	if h.bookings == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "booking archive unavailable"})
		return
	}
	paymentID := c.Param("paymentID")
	booking, err := h.bookings.GetByPaymentID(c.Request.Context(), paymentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		h.logger.Error("booking lookup failed", zap.String("payment_id", paymentID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load booking"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}
