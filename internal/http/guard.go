package http

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"calmspace/internal/platform"
	"calmspace/internal/session"
)

// Guard aplica la tabla de decisión de acceso a rutas usando el estado de
// sesión observable y el detector de plataforma como únicas fuentes.
type Guard struct {
	sessions *session.Store
	detector platform.Detector
}

func NewGuard(sessions *session.Store, detector platform.Detector) *Guard {
	return &Guard{sessions: sessions, detector: detector}
}

func (g *Guard) kind(c *gin.Context) platform.Kind {
	return g.detector.Detect(c.GetHeader(platform.BridgeHeader), c.Request.UserAgent())
}

// gate corta la petición mientras la sesión aún está resolviéndose; el
// cliente debe reintentar, nunca recibe una decisión de acceso provisoria.
func (g *Guard) gate(c *gin.Context) bool {
	if g.sessions.Loading() {
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session resolving"})
		c.Abort()
		return false
	}
	return true
}

func loginRedirect(c *gin.Context) {
	c.Redirect(http.StatusFound, "/login?from="+url.QueryEscape(c.Request.URL.Path))
	c.Abort()
}

// Protected exige sesión iniciada en cualquier plataforma.
func (g *Guard) Protected() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.gate(c) {
			return
		}
		if g.sessions.CurrentUser() == nil {
			loginRedirect(c)
			return
		}
		c.Next()
	}
}

// Public deja pasar en escritorio; en entornos móviles, shell nativo o
// navegador, toda ruta exige sesión.
func (g *Guard) Public() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.gate(c) {
			return
		}
		if g.sessions.CurrentUser() == nil && g.kind(c).IsMobile() {
			loginRedirect(c)
			return
		}
		c.Next()
	}
}

// AuthPage aleja de las páginas de acceso a quien ya tiene sesión.
func (g *Guard) AuthPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.gate(c) {
			return
		}
		if g.sessions.CurrentUser() != nil {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}
