package identity

import (
	"context"
	"errors"

	"calmspace/internal/domain"
)

// Gateway define la interfaz hacia el proveedor de identidad externo.
// El proveedor es dueño del registro User; este servicio solo mantiene
// una referencia normalizada.
type Gateway interface {
	// Login autentica con email y contraseña.
	Login(ctx context.Context, email, password string) (domain.User, error)
	// Signup crea la cuenta y fija el nombre en un segundo paso. Si el
	// segundo paso falla la cuenta creada se elimina (transacción
	// compensatoria) y se devuelve el error.
	Signup(ctx context.Context, email, password, displayName string) (domain.User, error)
	// LoginWithGoogle resuelve el flujo popup en web y devuelve el usuario.
	// En contextos nativos inicia el flujo redirect y devuelve nil sin
	// error: el usuario llega después por el stream de sesión, nunca por
	// este retorno.
	LoginWithGoogle(ctx context.Context, credential string) (*domain.User, error)
	// GoogleAuthURL construye la URL de autorización con la URI de retorno
	// que corresponde a la plataforma detectada al arrancar.
	GoogleAuthURL(state string) string
	// ResolveRedirect completa un flujo redirect con la credencial que
	// entrega el proveedor al volver.
	ResolveRedirect(ctx context.Context, credential string) (domain.User, error)
	// RedirectResult entrega a lo sumo una vez el resultado de un redirect
	// completado; nil cuando no hay ninguno pendiente.
	RedirectResult(ctx context.Context) (*domain.User, error)
	// Logout cierra la sesión del proveedor; el stream emite nil.
	Logout(ctx context.Context) error
	// UpdateName actualiza el nombre visible del usuario autenticado.
	UpdateName(ctx context.Context, displayName string) error
	// SendPasswordReset despacha el correo de restablecimiento.
	SendPasswordReset(ctx context.Context, email string) error
	// SessionChanges entrega las notificaciones de cambio de sesión en el
	// orden en que el proveedor las emite; nil significa sesión cerrada.
	// La función devuelta cancela la suscripción.
	SessionChanges() (<-chan *domain.User, func())
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRateLimited        = errors.New("too many attempts")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrPopupCancelled     = errors.New("popup cancelled")
	ErrEmailInUse         = errors.New("email already in use")
)
