package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"calmspace/internal/domain"
	"calmspace/internal/store"
)

// BookingService valida borradores de reserva y los deja en el
// almacenamiento transitorio para el checkout.
type BookingService struct {
	logger    *zap.Logger
	transient store.Transient
}

func NewBookingService(logger *zap.Logger, transient store.Transient) *BookingService {
	return &BookingService{logger: logger, transient: transient}
}

// FieldErrors agrupa errores de validación por campo; cada campo se
// corrige y se limpia por separado.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	return "validation failed: " + strings.Join(fields, ", ")
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateDraft aplica las reglas del formulario de reserva.
func (s *BookingService) ValidateDraft(draft domain.BookingDraft, today time.Time) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(draft.Name) == "" {
		errs["name"] = "Name is required"
	}
	email := strings.TrimSpace(draft.Email)
	if email == "" {
		errs["email"] = "Email is required"
	} else if !emailPattern.MatchString(email) {
		errs["email"] = "Please enter a valid email address"
	}
	if strings.TrimSpace(draft.Phone) == "" {
		errs["phone"] = "Phone number is required"
	}
	if draft.ServiceType == "" {
		errs["serviceType"] = "Please select a revenue stream or service type"
	} else if !draft.ServiceType.Valid() {
		errs["serviceType"] = "Unknown service type"
	}
	if strings.TrimSpace(draft.AppointmentDate) == "" {
		errs["appointmentDate"] = "Please select an appointment date"
	} else if date, err := time.Parse("2006-01-02", draft.AppointmentDate); err != nil {
		errs["appointmentDate"] = "Please enter a valid date"
	} else {
		day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		if date.Before(day) {
			errs["appointmentDate"] = "Appointment date cannot be in the past"
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// SubmitDraft valida y persiste exactamente un registro bookingData; la
// sesión devuelta identifica el checkout que lo consumirá.
func (s *BookingService) SubmitDraft(ctx context.Context, draft domain.BookingDraft) (string, error) {
	if errs := s.ValidateDraft(draft, time.Now().UTC()); errs != nil {
		return "", errs
	}

	draft.Name = strings.TrimSpace(draft.Name)
	draft.Email = strings.ToLower(strings.TrimSpace(draft.Email))
	draft.Phone = strings.TrimSpace(draft.Phone)

	sessionID := uuid.NewString()
	if err := s.transient.PutBookingDraft(ctx, sessionID, draft); err != nil {
		return "", err
	}
	s.logger.Info("booking draft stored",
		zap.String("session_id", sessionID),
		zap.String("service_type", string(draft.ServiceType)))
	return sessionID, nil
}
