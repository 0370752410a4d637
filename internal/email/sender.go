package email

import (
	"context"
	"errors"
	"time"

	"calmspace/internal/domain"
)

// Enquiry es el contenido del formulario de contacto.
type Enquiry struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

// Sender define la interfaz para envio de correos transaccionales.
type Sender interface {
	SendVerificationOTP(ctx context.Context, toEmail string, code string, expiresAt time.Time) error
	SendBookingConfirmation(ctx context.Context, booking domain.ConfirmedBooking) error
	SendEnquiry(ctx context.Context, enquiry Enquiry) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) err() error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}

func (s *disabledSender) SendVerificationOTP(_ context.Context, _ string, _ string, _ time.Time) error {
	return s.err()
}

func (s *disabledSender) SendBookingConfirmation(_ context.Context, _ domain.ConfirmedBooking) error {
	return s.err()
}

func (s *disabledSender) SendEnquiry(_ context.Context, _ Enquiry) error {
	return s.err()
}
