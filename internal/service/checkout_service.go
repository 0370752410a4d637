package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"calmspace/internal/domain"
	"calmspace/internal/email"
	"calmspace/internal/payment"
	"calmspace/internal/repository"
	"calmspace/internal/store"
)

// CheckoutService orquesta el checkout: carga el borrador, resuelve el
// precio, aplica promos y conduce el pago hasta un estado terminal.
type CheckoutService struct {
	logger    *zap.Logger
	transient store.Transient
	gateway   payment.Gateway
	sender    email.Sender
	bookings  repository.BookingRepository
	prices    domain.PriceTable
	promos    domain.PromoTable

	mu     sync.Mutex
	states map[string]*domain.CheckoutState
}

var (
	ErrNoDraft         = errors.New("no booking draft")
	ErrNoCheckout      = errors.New("no active checkout")
	ErrInvalidPromo    = errors.New("invalid promo code")
	ErrPaymentInFlight = errors.New("payment already in flight")
	ErrBadSignature    = errors.New("payment signature mismatch")
)

// NewCheckoutService recibe las tablas de precios y promos como
// configuración; bookings es opcional (archivo durable).
func NewCheckoutService(
	logger *zap.Logger,
	transient store.Transient,
	gateway payment.Gateway,
	sender email.Sender,
	bookings repository.BookingRepository,
	prices domain.PriceTable,
	promos domain.PromoTable,
) *CheckoutService {
	if prices == nil {
		prices = domain.DefaultPriceTable
	}
	if promos == nil {
		promos = domain.DefaultPromoTable
	}
	return &CheckoutService{
		logger:    logger,
		transient: transient,
		gateway:   gateway,
		sender:    sender,
		bookings:  bookings,
		prices:    prices,
		promos:    promos,
		states:    make(map[string]*domain.CheckoutState),
	}
}

// LoadDraft consume el borrador (lectura con borrado) y deja el checkout
// en Ready; si ya hay un checkout activo para la sesión lo devuelve tal
// cual. Sin borrador ni checkout activo, el llamador debe volver al
// formulario de reserva.
func (s *CheckoutService) LoadDraft(ctx context.Context, sessionID string) (domain.CheckoutState, error) {
	s.mu.Lock()
	if state, ok := s.states[sessionID]; ok {
		snapshot := *state
		s.mu.Unlock()
		return snapshot, nil
	}
	s.mu.Unlock()

	draft, ok, err := s.transient.TakeBookingDraft(ctx, sessionID)
	if err != nil {
		return domain.CheckoutState{}, err
	}
	if !ok {
		return domain.CheckoutState{}, ErrNoDraft
	}

	basePrice := s.prices.BasePriceFor(draft.ServiceType)
	state := &domain.CheckoutState{
		SessionID:  sessionID,
		Draft:      draft,
		BasePrice:  basePrice,
		TotalPrice: basePrice,
		Status:     domain.CheckoutReady,
	}

	s.mu.Lock()
	s.states[sessionID] = state
	snapshot := *state
	s.mu.Unlock()
	return snapshot, nil
}

// ApplyPromo aplica un código de la tabla fija, sin distinción de
// mayúsculas. La aplicación es idempotente: con la promo ya aplicada el
// estado no cambia. Un código desconocido se rechaza sin tocar el estado.
func (s *CheckoutService) ApplyPromo(_ context.Context, sessionID, code string) (domain.CheckoutState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[sessionID]
	if !ok {
		return domain.CheckoutState{}, ErrNoCheckout
	}
	if state.PromoApplied {
		return *state, nil
	}

	normalized := strings.ToUpper(strings.TrimSpace(code))
	percent, ok := s.promos[normalized]
	if !ok {
		return *state, ErrInvalidPromo
	}

	state.PromoCode = normalized
	state.PromoDiscount = state.BasePrice * int64(percent) / 100
	state.TotalPrice = state.BasePrice - state.PromoDiscount
	state.PromoApplied = true
	return *state, nil
}

// BeginPayment crea la orden en la pasarela y devuelve la configuración
// del widget. El envío está protegido contra reentradas mientras hay un
// pago en vuelo.
func (s *CheckoutService) BeginPayment(ctx context.Context, sessionID string) (payment.CheckoutOptions, error) {
	s.mu.Lock()
	state, ok := s.states[sessionID]
	if !ok {
		s.mu.Unlock()
		return payment.CheckoutOptions{}, ErrNoCheckout
	}
	if state.Status == domain.CheckoutInFlight {
		s.mu.Unlock()
		return payment.CheckoutOptions{}, ErrPaymentInFlight
	}
	state.Status = domain.CheckoutInFlight
	snapshot := *state
	s.mu.Unlock()

	order, err := s.gateway.CreateOrder(ctx, payment.OrderInput{
		Amount:   snapshot.TotalPrice,
		Currency: "INR",
		Receipt:  uuid.NewString(),
		Notes: map[string]string{
			"service_type":     string(snapshot.Draft.ServiceType),
			"appointment_date": snapshot.Draft.AppointmentDate,
		},
	})
	if err != nil {
		s.mu.Lock()
		state.Status = domain.CheckoutReady
		s.mu.Unlock()
		return payment.CheckoutOptions{}, err
	}

	s.mu.Lock()
	state.OrderID = order.ID
	s.mu.Unlock()

	return payment.CheckoutOptions{
		Key:         s.gateway.KeyID(),
		Amount:      snapshot.TotalPrice,
		Currency:    "INR",
		Name:        "CalmSpace",
		Description: "Booking for " + snapshot.Draft.ServiceType.DisplayName(),
		OrderID:     order.ID,
		Prefill: payment.Prefill{
			Name:    snapshot.Draft.Name,
			Email:   snapshot.Draft.Email,
			Contact: snapshot.Draft.Phone,
		},
		ThemeColor: "#A288E3",
	}, nil
}

// HandleSuccess verifica la firma, persiste el registro de éxito de
// lectura única, archiva la reserva y despacha el correo de confirmación.
// El correo es best-effort: su fallo se registra y no bloquea el avance a
// la página de éxito.
func (s *CheckoutService) HandleSuccess(ctx context.Context, sessionID, paymentID, signature string) (domain.ConfirmedBooking, error) {
	s.mu.Lock()
	state, ok := s.states[sessionID]
	if !ok {
		s.mu.Unlock()
		return domain.ConfirmedBooking{}, ErrNoCheckout
	}
	snapshot := *state
	s.mu.Unlock()

	if !s.gateway.VerifySignature(snapshot.OrderID, paymentID, signature) {
		return domain.ConfirmedBooking{}, ErrBadSignature
	}

	booking := domain.ConfirmedBooking{
		ID:    uuid.NewString(),
		Draft: snapshot.Draft,
		Payment: domain.PaymentResult{
			PaymentID:       paymentID,
			OrderID:         snapshot.OrderID,
			AmountPaid:      snapshot.TotalPrice,
			DiscountApplied: snapshot.PromoDiscount,
			Status:          domain.PaymentCompleted,
		},
		ConfirmedAt: time.Now().UTC(),
	}

	// El registro de éxito se escribe antes de navegar; la página de éxito
	// lo lee y lo borra exactamente una vez.
	if err := s.transient.PutPaymentSuccess(ctx, sessionID, booking); err != nil {
		return domain.ConfirmedBooking{}, err
	}

	if s.bookings != nil {
		if err := s.bookings.Create(ctx, booking); err != nil {
			s.logger.Error("booking archive failed",
				zap.String("payment_id", paymentID), zap.Error(err))
		}
	}

	if err := s.sender.SendBookingConfirmation(ctx, booking); err != nil {
		s.logger.Warn("confirmation email failed",
			zap.String("payment_id", paymentID), zap.Error(err))
	}

	s.mu.Lock()
	state.Status = domain.CheckoutSucceeded
	delete(s.states, sessionID)
	s.mu.Unlock()

	s.logger.Info("payment completed",
		zap.String("payment_id", paymentID),
		zap.Int64("amount_paid", booking.Payment.AmountPaid))
	return booking, nil
}

// FailureReason distingue los tres disparadores que comparten destino.
type FailureReason string

const (
	FailureDeclined   FailureReason = "declined"
	FailureDismissed  FailureReason = "dismissed"
	FailureWidgetLoad FailureReason = "widget_load"
)

// HandleFailure cierra el checkout sin escribir paymentSuccess; rechazo,
// descarte del widget y fallo de carga terminan todos aquí.
func (s *CheckoutService) HandleFailure(_ context.Context, sessionID string, reason FailureReason) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[sessionID]
	if !ok {
		return ErrNoCheckout
	}
	if reason == FailureDismissed {
		state.Status = domain.CheckoutCancelled
	} else {
		state.Status = domain.CheckoutFailed
	}
	delete(s.states, sessionID)

	s.logger.Info("payment not completed",
		zap.String("session_id", sessionID), zap.String("reason", string(reason)))
	return nil
}

// ConsumeResult entrega el registro de éxito a lo sumo una vez.
func (s *CheckoutService) ConsumeResult(ctx context.Context, sessionID string) (domain.ConfirmedBooking, bool, error) {
	return s.transient.TakePaymentSuccess(ctx, sessionID)
}
