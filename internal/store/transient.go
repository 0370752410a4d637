package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"calmspace/internal/domain"
)

// Transient es el almacenamiento efímero compartido entre el formulario de
// reserva y el checkout. Disciplina: un escritor, un lector, borrado al
// leer; si hay escrituras concurrentes gana la última.
type Transient interface {
	PutBookingDraft(ctx context.Context, sessionID string, draft domain.BookingDraft) error
	// TakeBookingDraft lee y borra en un solo paso.
	TakeBookingDraft(ctx context.Context, sessionID string) (domain.BookingDraft, bool, error)
	PutPaymentSuccess(ctx context.Context, sessionID string, booking domain.ConfirmedBooking) error
	// TakePaymentSuccess lee y borra; el registro se muestra a lo sumo una vez.
	TakePaymentSuccess(ctx context.Context, sessionID string) (domain.ConfirmedBooking, bool, error)
}

const (
	bookingDataKey    = "bookingData"
	paymentSuccessKey = "paymentSuccess"

	// Vida máxima de una sesión de checkout abandonada.
	sessionTTL = time.Hour
)

// MemoryTransient es la variante en memoria para tests y despliegues sin redis.
type MemoryTransient struct {
	mu    sync.Mutex
	items map[string][]byte
}

func NewMemoryTransient() *MemoryTransient {
	return &MemoryTransient{items: make(map[string][]byte)}
}

func (s *MemoryTransient) put(key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = payload
	return nil
}

func (s *MemoryTransient) take(key string, out any) (bool, error) {
	s.mu.Lock()
	payload, ok := s.items[key]
	if ok {
		delete(s.items, key)
	}
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(payload, out)
}

func (s *MemoryTransient) PutBookingDraft(_ context.Context, sessionID string, draft domain.BookingDraft) error {
	return s.put(sessionID+":"+bookingDataKey, draft)
}

func (s *MemoryTransient) TakeBookingDraft(_ context.Context, sessionID string) (domain.BookingDraft, bool, error) {
	var draft domain.BookingDraft
	ok, err := s.take(sessionID+":"+bookingDataKey, &draft)
	return draft, ok, err
}

func (s *MemoryTransient) PutPaymentSuccess(_ context.Context, sessionID string, booking domain.ConfirmedBooking) error {
	return s.put(sessionID+":"+paymentSuccessKey, booking)
}

func (s *MemoryTransient) TakePaymentSuccess(_ context.Context, sessionID string) (domain.ConfirmedBooking, bool, error) {
	var booking domain.ConfirmedBooking
	ok, err := s.take(sessionID+":"+paymentSuccessKey, &booking)
	return booking, ok, err
}

// RedisTransient implementa Transient sobre redis con GETDEL para la
// lectura destructiva. Para paymentSuccess (y solo para él) existe un
// fallback en memoria cuando redis no está disponible.
type RedisTransient struct {
	client   *redis.Client
	logger   *zap.Logger
	prefix   string
	fallback *MemoryTransient
}

func NewRedisTransient(client *redis.Client, logger *zap.Logger) *RedisTransient {
	if client == nil {
		return nil
	}
	return &RedisTransient{
		client:   client,
		logger:   logger,
		prefix:   "checkout:",
		fallback: NewMemoryTransient(),
	}
}

func (s *RedisTransient) key(sessionID, name string) string {
	return s.prefix + sessionID + ":" + name
}

func (s *RedisTransient) PutBookingDraft(ctx context.Context, sessionID string, draft domain.BookingDraft) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(sessionID, bookingDataKey), payload, sessionTTL).Err()
}

func (s *RedisTransient) TakeBookingDraft(ctx context.Context, sessionID string) (domain.BookingDraft, bool, error) {
	var draft domain.BookingDraft
	raw, err := s.client.GetDel(ctx, s.key(sessionID, bookingDataKey)).Bytes()
	if err == redis.Nil {
		return domain.BookingDraft{}, false, nil
	}
	if err != nil {
		return domain.BookingDraft{}, false, err
	}
	if err := json.Unmarshal(raw, &draft); err != nil {
		return domain.BookingDraft{}, false, err
	}
	return draft, true, nil
}

func (s *RedisTransient) PutPaymentSuccess(ctx context.Context, sessionID string, booking domain.ConfirmedBooking) error {
	payload, err := json.Marshal(booking)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(sessionID, paymentSuccessKey), payload, sessionTTL).Err(); err != nil {
		s.logger.Warn("payment success write failed, using memory fallback", zap.Error(err))
		return s.fallback.PutPaymentSuccess(ctx, sessionID, booking)
	}
	return nil
}

func (s *RedisTransient) TakePaymentSuccess(ctx context.Context, sessionID string) (domain.ConfirmedBooking, bool, error) {
	raw, err := s.client.GetDel(ctx, s.key(sessionID, paymentSuccessKey)).Bytes()
	if err == nil {
		var booking domain.ConfirmedBooking
		if err := json.Unmarshal(raw, &booking); err != nil {
			return domain.ConfirmedBooking{}, false, err
		}
		return booking, true, nil
	}
	if err != redis.Nil {
		s.logger.Warn("payment success read failed, trying memory fallback", zap.Error(err))
	}
	return s.fallback.TakePaymentSuccess(ctx, sessionID)
}
