package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"calmspace/internal/domain"
)

// SMTPSender envia correos via SMTP.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
	useTLS   bool
}

func NewSMTPSender(host string, port int, username, password, from, fromName string, useTLS bool) (*SMTPSender, error) {
	if strings.TrimSpace(host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("smtp from is required")
	}
	if port == 0 {
		port = 587
	}
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		fromName: fromName,
		useTLS:   useTLS,
	}, nil
}

func (s *SMTPSender) SendVerificationOTP(_ context.Context, toEmail string, code string, expiresAt time.Time) error {
	if strings.TrimSpace(toEmail) == "" {
		return fmt.Errorf("to email is required")
	}

	subject := "Your CalmSpace verification code"
	body := fmt.Sprintf(
		"Your verification code is %s.\nIt expires at %s UTC.\n",
		code,
		expiresAt.UTC().Format(time.RFC3339),
	)
	return s.deliver(toEmail, subject, body)
}

func (s *SMTPSender) SendBookingConfirmation(_ context.Context, booking domain.ConfirmedBooking) error {
	if strings.TrimSpace(booking.Draft.Email) == "" {
		return fmt.Errorf("to email is required")
	}

	subject := "Your CalmSpace booking is confirmed"
	// Bolsa fija de parámetros de plantilla: contacto, servicio, fecha,
	// id de pago e importes.
	body := fmt.Sprintf(
		"Hi %s,\n\nYour booking is confirmed.\n\n"+
			"Service: %s\nAppointment date: %s\nTherapist: %s\n"+
			"Phone: %s\nPayment id: %s\nAmount paid: %s\nDiscount applied: %s\n",
		booking.Draft.Name,
		booking.Draft.ServiceType.DisplayName(),
		booking.Draft.AppointmentDate,
		domain.TherapistDisplayName(booking.Draft.TherapistPreference),
		booking.Draft.Phone,
		booking.Payment.PaymentID,
		formatRupees(booking.Payment.AmountPaid),
		formatRupees(booking.Payment.DiscountApplied),
	)
	return s.deliver(booking.Draft.Email, subject, body)
}

func (s *SMTPSender) SendEnquiry(_ context.Context, enquiry Enquiry) error {
	phone := enquiry.Phone
	if strings.TrimSpace(phone) == "" {
		phone = "Not provided"
	}
	subject := "New enquiry from " + enquiry.Name
	body := fmt.Sprintf(
		"From: %s <%s>\nPhone: %s\nDate: %s\n\n%s\n",
		enquiry.Name,
		enquiry.Email,
		phone,
		time.Now().UTC().Format("2006-01-02"),
		enquiry.Message,
	)
	// Las consultas llegan al buzón del sitio, no al remitente.
	return s.deliver(s.from, subject, body)
}

func formatRupees(paise int64) string {
	return fmt.Sprintf("₹%d.%02d", paise/100, paise%100)
}

func (s *SMTPSender) deliver(toEmail, subject, body string) error {
	msg := buildMessage(s.from, s.fromName, toEmail, subject, body)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	if s.useTLS {
		conn, err := tls.Dial("tcp", addr, &tls.Config{
			ServerName: s.host,
		})
		if err != nil {
			return err
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, s.host)
		if err != nil {
			return err
		}
		defer client.Quit()

		if auth != nil {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
		if err := client.Mail(s.from); err != nil {
			return err
		}
		if err := client.Rcpt(toEmail); err != nil {
			return err
		}
		writer, err := client.Data()
		if err != nil {
			return err
		}
		if _, err := writer.Write([]byte(msg)); err != nil {
			_ = writer.Close()
			return err
		}
		return writer.Close()
	}

	return smtp.SendMail(addr, auth, s.from, []string{toEmail}, []byte(msg))
}

func buildMessage(from, fromName, to, subject, body string) string {
	fromHeader := from
	if strings.TrimSpace(fromName) != "" {
		fromHeader = fmt.Sprintf("%s <%s>", fromName, from)
	}

	headers := []string{
		fmt.Sprintf("From: %s", fromHeader),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
	}

	return strings.Join(headers, "\r\n") + "\r\n\r\n" + body
}
