package identity

import (
	"context"
	"sync"

	"calmspace/internal/domain"
)

// Mock permite tests sin proveedor de identidad real.
type Mock struct {
	mu          sync.Mutex
	LoginUser   domain.User
	LoginErr    error
	SignupUser  domain.User
	SignupErr   error
	GoogleUser  *domain.User
	GoogleErr   error
	ResetErr    error
	UpdateErr   error
	Native      bool
	redirectRes *domain.User
	subs        []chan *domain.User
}

func (m *Mock) Login(_ context.Context, _, _ string) (domain.User, error) {
	if m.LoginErr != nil {
		return domain.User{}, m.LoginErr
	}
	m.Emit(&m.LoginUser)
	return m.LoginUser, nil
}

func (m *Mock) Signup(_ context.Context, _, _, displayName string) (domain.User, error) {
	if m.SignupErr != nil {
		return domain.User{}, m.SignupErr
	}
	user := m.SignupUser
	user.DisplayName = displayName
	m.Emit(&user)
	return user, nil
}

func (m *Mock) LoginWithGoogle(_ context.Context, _ string) (*domain.User, error) {
	if m.GoogleErr != nil {
		return nil, m.GoogleErr
	}
	if m.Native {
		return nil, nil
	}
	if m.GoogleUser != nil {
		m.Emit(m.GoogleUser)
	}
	return m.GoogleUser, nil
}

func (m *Mock) GoogleAuthURL(state string) string {
	return "https://accounts.example.test/auth?state=" + state
}

func (m *Mock) ResolveRedirect(_ context.Context, _ string) (domain.User, error) {
	if m.GoogleErr != nil {
		return domain.User{}, m.GoogleErr
	}
	user := domain.User{}
	if m.GoogleUser != nil {
		user = *m.GoogleUser
	}
	m.mu.Lock()
	m.redirectRes = &user
	m.mu.Unlock()
	m.Emit(&user)
	return user, nil
}

func (m *Mock) RedirectResult(_ context.Context) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := m.redirectRes
	m.redirectRes = nil
	return res, nil
}

func (m *Mock) Logout(_ context.Context) error {
	m.Emit(nil)
	return nil
}

func (m *Mock) UpdateName(_ context.Context, _ string) error {
	return m.UpdateErr
}

func (m *Mock) SendPasswordReset(_ context.Context, _ string) error {
	return m.ResetErr
}

func (m *Mock) SessionChanges() (<-chan *domain.User, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan *domain.User, 16)
	m.subs = append(m.subs, ch)
	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, sub := range m.subs {
			if sub == ch {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				close(sub)
				return
			}
		}
	}
}

// Emit difunde una notificación de sesión a todos los suscriptores.
func (m *Mock) Emit(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- user:
		default:
		}
	}
}
