package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"calmspace/internal/domain"
)

// BookingRepository archiva reservas confirmadas; el registro transitorio
// de la página de éxito se borra al leerse, este es el rastro durable.
type BookingRepository interface {
	Create(ctx context.Context, booking domain.ConfirmedBooking) error
	GetByPaymentID(ctx context.Context, paymentID string) (domain.ConfirmedBooking, error)
}

// PgBookingRepository implementa BookingRepository usando pgxpool.
type PgBookingRepository struct {
	pool *pgxpool.Pool
}

func NewPgBookingRepository(pool *pgxpool.Pool) *PgBookingRepository {
	return &PgBookingRepository{pool: pool}
}

func (r *PgBookingRepository) Create(ctx context.Context, booking domain.ConfirmedBooking) error {
	const query = `
		INSERT INTO bookings (id, name, email, phone, service_type, therapist_preference, concerns, appointment_date,
			payment_id, order_id, amount_paid, discount_applied, payment_status, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.pool.Exec(ctx, query,
		booking.ID,
		booking.Draft.Name,
		booking.Draft.Email,
		booking.Draft.Phone,
		string(booking.Draft.ServiceType),
		booking.Draft.TherapistPreference,
		booking.Draft.Concerns,
		booking.Draft.AppointmentDate,
		booking.Payment.PaymentID,
		booking.Payment.OrderID,
		booking.Payment.AmountPaid,
		booking.Payment.DiscountApplied,
		string(booking.Payment.Status),
		booking.ConfirmedAt,
	)
	return err
}

func (r *PgBookingRepository) GetByPaymentID(ctx context.Context, paymentID string) (domain.ConfirmedBooking, error) {
	const query = `
		SELECT id, name, email, phone, service_type, therapist_preference, concerns, appointment_date,
			payment_id, order_id, amount_paid, discount_applied, payment_status, confirmed_at
		FROM bookings
		WHERE payment_id = $1
	`
	var (
		b           domain.ConfirmedBooking
		serviceType string
		status      string
	)
	err := r.pool.QueryRow(ctx, query, paymentID).Scan(
		&b.ID,
		&b.Draft.Name,
		&b.Draft.Email,
		&b.Draft.Phone,
		&serviceType,
		&b.Draft.TherapistPreference,
		&b.Draft.Concerns,
		&b.Draft.AppointmentDate,
		&b.Payment.PaymentID,
		&b.Payment.OrderID,
		&b.Payment.AmountPaid,
		&b.Payment.DiscountApplied,
		&status,
		&b.ConfirmedAt,
	)
	if err != nil {
		return domain.ConfirmedBooking{}, err
	}
	b.Draft.ServiceType = domain.ServiceType(serviceType)
	b.Payment.Status = domain.PaymentStatus(status)
	return b, nil
}
