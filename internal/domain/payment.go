package domain

import "time"

// PaymentStatus es el resultado terminal reportado por la pasarela.
type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// PaymentResult existe solo después de que la pasarela confirma el cobro.
type PaymentResult struct {
	PaymentID       string        `json:"payment_id"`
	OrderID         string        `json:"order_id,omitempty"`
	AmountPaid      int64         `json:"amount_paid"`
	DiscountApplied int64         `json:"discount_applied"`
	Status          PaymentStatus `json:"status"`
}

// ConfirmedBooking combina el borrador con el pago para la página de éxito,
// el correo de confirmación y el archivo durable.
type ConfirmedBooking struct {
	ID          string        `json:"id"`
	Draft       BookingDraft  `json:"booking_data"`
	Payment     PaymentResult `json:"payment"`
	ConfirmedAt time.Time     `json:"confirmed_at"`
}
