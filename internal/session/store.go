package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"calmspace/internal/domain"
	"calmspace/internal/identity"
	"calmspace/internal/platform"
)

// Store es el estado de sesión de todo el proceso: una sola instancia se
// monta en la raíz y el resto de componentes observa a través de ella.
type Store struct {
	logger  *zap.Logger
	gateway identity.Gateway
	kind    platform.Kind

	mu      sync.Mutex
	current *domain.User
	loading bool
	subs    map[int]chan *domain.User
	nextSub int

	cancelSub func()
	done      chan struct{}
	started   bool
}

// NewStore crea el store sin arrancarlo; loading empieza en true y pasa a
// false exactamente una vez, con la primera notificación del proveedor.
func NewStore(logger *zap.Logger, gateway identity.Gateway, kind platform.Kind) *Store {
	return &Store{
		logger:  logger,
		gateway: gateway,
		kind:    kind,
		loading: true,
		subs:    make(map[int]chan *domain.User),
	}
}

// Start suscribe al stream de sesión del proveedor (una única suscripción
// por vida del proceso) y, en contextos nativos, hace un único chequeo del
// resultado de redirect pendiente.
func (s *Store) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	if s.kind.IsNative() {
		if result, err := s.gateway.RedirectResult(ctx); err != nil {
			s.logger.Warn("redirect result check failed", zap.Error(err))
		} else if result != nil {
			s.logger.Info("user authenticated via redirect", zap.String("email", result.Email))
		}
	}

	changes, cancel := s.gateway.SessionChanges()
	s.cancelSub = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		for user := range changes {
			s.apply(user)
		}
	}()
}

// apply registra la notificación y la reparte a los observadores en el
// mismo orden en que el proveedor la emitió.
func (s *Store) apply(user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = user
	if s.loading {
		s.loading = false
	}
	for _, ch := range s.subs {
		select {
		case ch <- user:
		default:
			s.logger.Warn("session observer buffer full, dropping notification")
		}
	}
}

// Loading indica si todavía no llegó la primera notificación de sesión.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// CurrentUser devuelve la referencia cacheada de solo lectura.
func (s *Store) CurrentUser() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe registra un observador; la función devuelta lo da de baja.
func (s *Store) Subscribe() (<-chan *domain.User, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan *domain.User, 16)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

// Close cancela la suscripción al proveedor y espera el drenaje.
func (s *Store) Close() {
	if s.cancelSub != nil {
		s.cancelSub()
	}
	if s.done != nil {
		<-s.done
	}
}
