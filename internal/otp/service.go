package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"calmspace/internal/domain"
	"calmspace/internal/email"
	"calmspace/internal/repository"
)

// Service emite y valida códigos de verificación de un solo uso.
type Service struct {
	logger      *zap.Logger
	store       Store
	sender      email.Sender
	limiter     RateLimiter
	users       repository.UserRepository
	countryCode string
}

var (
	ErrInvalidContact = errors.New("invalid contact")
	ErrRateLimited    = errors.New("rate limited")
	ErrNoPending      = errors.New("no pending verification")
	ErrExpired        = errors.New("verification code expired")
	ErrCodeMismatch   = errors.New("verification code mismatch")
	ErrInvalidCode    = errors.New("verification code invalid")
)

// Los códigos expiran a los 15 minutos del envío.
const codeTTL = 15 * time.Minute

// NewService crea el servicio; users es opcional y solo se usa para ligar
// la verificación a una cuenta existente.
func NewService(logger *zap.Logger, store Store, sender email.Sender, limiter RateLimiter, users repository.UserRepository, countryCode string) *Service {
	if limiter == nil {
		limiter = NewRateLimiter(10*time.Minute, 3)
	}
	if countryCode == "" {
		countryCode = "+91"
	}
	return &Service{
		logger:      logger,
		store:       store,
		sender:      sender,
		limiter:     limiter,
		users:       users,
		countryCode: countryCode,
	}
}

// SendResult refleja el contrato de envío: el fallo de despacho no lanza,
// el llamador debe mirar Success.
type SendResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type SendCodeInput struct {
	Contact     string
	Email       string
	DisplayName string
}

// SendCode genera un código, invalida cualquier registro previo del
// contacto y lo despacha por correo. El error de despacho es blando.
func (s *Service) SendCode(ctx context.Context, input SendCodeInput) (SendResult, error) {
	contact, err := s.NormalizeContact(input.Contact)
	if err != nil {
		return SendResult{}, err
	}

	if s.limiter != nil && !s.limiter.Allow(contact) {
		return SendResult{}, ErrRateLimited
	}

	code, hash, err := generateCode()
	if err != nil {
		return SendResult{}, err
	}

	now := time.Now().UTC()
	record := domain.PendingVerification{
		Contact:     contact,
		DisplayName: strings.TrimSpace(input.DisplayName),
		CodeHash:    hash,
		CreatedAt:   now,
		ExpiresAt:   now.Add(codeTTL),
	}
	// Put sobreescribe: el registro anterior del contacto queda invalidado.
	if err := s.store.Put(ctx, record); err != nil {
		return SendResult{}, err
	}

	target := strings.ToLower(strings.TrimSpace(input.Email))
	if target == "" && strings.Contains(contact, "@") {
		target = contact
	}
	if target == "" {
		return SendResult{Success: false, Message: "no deliverable email address for contact"}, nil
	}

	if err := s.sender.SendVerificationOTP(ctx, target, code, record.ExpiresAt); err != nil {
		s.logger.Warn("otp dispatch failed", zap.String("contact", contact), zap.Error(err))
		return SendResult{Success: false, Message: "Failed to send OTP. Please try again later."}, nil
	}

	return SendResult{Success: true, Message: "OTP sent successfully"}, nil
}

// VerifyCode valida el código enviado. Un registro expirado se purga y se
// trata como ausente a efectos de reintentos posteriores.
func (s *Service) VerifyCode(ctx context.Context, contact, code string) (*domain.User, error) {
	normalized, err := s.NormalizeContact(contact)
	if err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if !isValidCode(code) {
		return nil, ErrInvalidCode
	}

	record, ok, err := s.store.Get(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if !ok || record.Consumed {
		return nil, ErrNoPending
	}

	now := time.Now().UTC()
	if now.After(record.ExpiresAt) {
		if err := s.store.Delete(ctx, normalized); err != nil {
			s.logger.Warn("expired otp purge failed", zap.String("contact", normalized), zap.Error(err))
		}
		return nil, ErrExpired
	}

	if !verifyCode(code, record.CodeHash) {
		return nil, ErrCodeMismatch
	}

	if err := s.store.MarkConsumed(ctx, normalized, now); err != nil {
		return nil, err
	}

	// Liga la verificación a la cuenta cuando el contacto es un email conocido.
	if s.users != nil && strings.Contains(normalized, "@") {
		user, err := s.users.GetByEmail(ctx, normalized)
		if err == nil {
			if err := s.users.VerifyEmail(ctx, user.ID, now); err != nil {
				return nil, err
			}
			user.EmailVerifiedAt = &now
			return &user, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	}
	return nil, nil
}

// NormalizeContact aplica la convención documentada: emails en minúsculas;
// los teléfonos sin "+" se asumen locales y reciben el prefijo del país
// por defecto. No es un parser internacional genérico.
func (s *Service) NormalizeContact(contact string) (string, error) {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return "", ErrInvalidContact
	}
	if strings.Contains(contact, "@") {
		return strings.ToLower(contact), nil
	}

	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, contact)

	if strings.HasPrefix(cleaned, "+") {
		if !allDigits(cleaned[1:]) {
			return "", ErrInvalidContact
		}
		return cleaned, nil
	}
	cleaned = strings.TrimLeft(cleaned, "0")
	if cleaned == "" || !allDigits(cleaned) {
		return "", ErrInvalidContact
	}
	return s.countryCode + cleaned, nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isValidCode(code string) bool {
	return len(code) == 6 && allDigits(code)
}

func generateCode() (string, string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", "", err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", "", err
	}
	saltStr := base64.StdEncoding.EncodeToString(salt)
	hashBytes := sha256.Sum256([]byte(saltStr + ":" + code))
	hash := base64.StdEncoding.EncodeToString(hashBytes[:])

	return code, saltStr + ":" + hash, nil
}

func verifyCode(code, stored string) bool {
	parts := strings.Split(stored, ":")
	if len(parts) != 2 {
		return false
	}
	saltStr := parts[0]
	expectedHash := parts[1]
	hashBytes := sha256.Sum256([]byte(saltStr + ":" + code))
	hash := base64.StdEncoding.EncodeToString(hashBytes[:])
	return subtle.ConstantTimeCompare([]byte(hash), []byte(expectedHash)) == 1
}
