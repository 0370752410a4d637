package otp

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"calmspace/internal/domain"
)

// Store guarda el registro de verificación pendiente por contacto.
// Put sobreescribe: un nuevo envío invalida el registro anterior, de modo
// que nunca hay más de uno activo por clave.
type Store interface {
	Put(ctx context.Context, v domain.PendingVerification) error
	Get(ctx context.Context, contact string) (domain.PendingVerification, bool, error)
	MarkConsumed(ctx context.Context, contact string, at time.Time) error
	Delete(ctx context.Context, contact string) error
}

type memoryStore struct {
	mu    sync.Mutex
	items map[string]domain.PendingVerification
}

// NewMemoryStore crea un store en memoria para tests y despliegues sin redis.
func NewMemoryStore() Store {
	return &memoryStore{items: make(map[string]domain.PendingVerification)}
}

func (s *memoryStore) Put(_ context.Context, v domain.PendingVerification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[v.Contact] = v
	return nil
}

func (s *memoryStore) Get(_ context.Context, contact string) (domain.PendingVerification, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[contact]
	return v, ok, nil
}

func (s *memoryStore) MarkConsumed(_ context.Context, contact string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[contact]
	if !ok {
		return nil
	}
	v.Consumed = true
	v.ConsumedAt = &at
	s.items[contact] = v
	return nil
}

func (s *memoryStore) Delete(_ context.Context, contact string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, contact)
	return nil
}

type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore crea el store respaldado en redis; el TTL de la clave es la
// propia expiración del código.
func NewRedisStore(client *redis.Client) Store {
	if client == nil {
		return nil
	}
	return &redisStore{client: client, prefix: "otp:pending:"}
}

func (s *redisStore) key(contact string) string {
	return s.prefix + strings.ToLower(strings.TrimSpace(contact))
}

func (s *redisStore) Put(ctx context.Context, v domain.PendingVerification) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ttl := time.Until(v.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	return s.client.Set(ctx, s.key(v.Contact), payload, ttl).Err()
}

func (s *redisStore) Get(ctx context.Context, contact string) (domain.PendingVerification, bool, error) {
	raw, err := s.client.Get(ctx, s.key(contact)).Bytes()
	if err == redis.Nil {
		return domain.PendingVerification{}, false, nil
	}
	if err != nil {
		return domain.PendingVerification{}, false, err
	}
	var v domain.PendingVerification
	if err := json.Unmarshal(raw, &v); err != nil {
		return domain.PendingVerification{}, false, err
	}
	return v, true, nil
}

func (s *redisStore) MarkConsumed(ctx context.Context, contact string, at time.Time) error {
	v, ok, err := s.Get(ctx, contact)
	if err != nil || !ok {
		return err
	}
	v.Consumed = true
	v.ConsumedAt = &at
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(contact), payload, redis.KeepTTL).Err()
}

func (s *redisStore) Delete(ctx context.Context, contact string) error {
	return s.client.Del(ctx, s.key(contact)).Err()
}
