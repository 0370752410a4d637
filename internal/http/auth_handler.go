package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"calmspace/internal/domain"
	"calmspace/internal/identity"
	"calmspace/internal/repository"
	"calmspace/internal/service"
	"calmspace/internal/session"
)

// AuthHandler mantiene dependencias para los endpoints de autenticación.
type AuthHandler struct {
	logger   *zap.Logger
	gateway  identity.Gateway
	sessions *session.Store
	jwtServ  *service.JWTService
	users    repository.UserRepository
}

// NewAuthHandler crea una instancia de AuthHandler con las dependencias necesarias.
func NewAuthHandler(logger *zap.Logger, gateway identity.Gateway, sessions *session.Store, jwtServ *service.JWTService, users repository.UserRepository) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		gateway:  gateway,
		sessions: sessions,
		jwtServ:  jwtServ,
		users:    users,
	}
}

// persistUser replica en la base local la cuenta que el proveedor acaba de
// autenticar. El proveedor es el dueño del registro: un fallo aquí se
// registra pero no corta el inicio de sesión.
func (h *AuthHandler) persistUser(ctx context.Context, user domain.User) {
	if h.users == nil || user.ID == "" {
		return
	}
	if user.AuthProvider != "" && user.AuthSubject != "" {
		if _, err := h.users.GetByAuth(ctx, user.AuthProvider, user.AuthSubject); err == nil {
			return
		} else if !errors.Is(err, pgx.ErrNoRows) {
			h.logger.Warn("user lookup by credential failed", zap.Error(err))
			return
		}
	}
	existing, err := h.users.GetByEmail(ctx, user.Email)
	if err == nil {
		// Mismo correo con otra credencial: se liga al registro existente.
		if user.AuthProvider != "" && user.AuthSubject != "" {
			if err := h.users.LinkOAuth(ctx, existing.ID, user.AuthProvider, user.AuthSubject); err != nil {
				h.logger.Warn("link credential failed", zap.String("user_id", existing.ID), zap.Error(err))
			}
		}
		return
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		h.logger.Warn("user lookup by email failed", zap.Error(err))
		return
	}
	if err := h.users.Create(ctx, user); err != nil {
		h.logger.Warn("user persist failed", zap.String("user_id", user.ID), zap.Error(err))
	}
}

// Login maneja POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.gateway.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.authError(c, "login failed", err)
		return
	}

	h.persistUser(c.Request.Context(), user)
	h.respondWithTokens(c, user)
}

// Signup maneja POST /auth/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required,email"`
		Password    string `json:"password" binding:"required,min=6"`
		DisplayName string `json:"display_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid signup request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.gateway.Signup(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		if errors.Is(err, identity.ErrEmailInUse) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
			return
		}
		h.authError(c, "signup failed", err)
		return
	}

	h.persistUser(c.Request.Context(), user)
	h.respondWithTokens(c, user)
}

// GoogleLogin maneja POST /auth/oauth/google.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req struct {
		Credential string `json:"credential" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid oauth request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.gateway.LoginWithGoogle(c.Request.Context(), req.Credential)
	if err != nil {
		if errors.Is(err, identity.ErrPopupCancelled) {
			// Cancelar el popup no es un fallo del sistema.
			c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
			return
		}
		h.authError(c, "google login failed", err)
		return
	}
	if user == nil {
		// Contexto nativo: el flujo sigue por redirect, sin usuario todavía.
		c.JSON(http.StatusAccepted, gin.H{
			"status":   "redirect_pending",
			"auth_url": h.gateway.GoogleAuthURL(c.Query("state")),
		})
		return
	}

	h.persistUser(c.Request.Context(), *user)
	h.respondWithTokens(c, *user)
}

// GoogleCallback maneja POST /auth/oauth/callback.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	var req struct {
		Credential string `json:"credential" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid oauth callback", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.gateway.ResolveRedirect(c.Request.Context(), req.Credential)
	if err != nil {
		h.authError(c, "oauth callback failed", err)
		return
	}

	h.persistUser(c.Request.Context(), user)
	h.respondWithTokens(c, user)
}

// Session maneja GET /auth/session.
func (h *AuthHandler) Session(c *gin.Context) {
	loading := h.sessions.Loading()
	var user *domain.User
	if !loading {
		user = h.sessions.CurrentUser()
	}
	// La verificación por OTP se asienta en la réplica local; el proveedor
	// no la conoce, así que el estado de sesión se completa desde ahí.
	if user != nil && user.EmailVerifiedAt == nil && h.users != nil {
		if stored, err := h.users.GetByID(c.Request.Context(), user.ID); err == nil && stored.EmailVerifiedAt != nil {
			enriched := *user
			enriched.EmailVerifiedAt = stored.EmailVerifiedAt
			user = &enriched
		}
	}
	c.JSON(http.StatusOK, gin.H{"loading": loading, "user": user})
}

// Logout maneja POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
		AllDevices   bool   `json:"all_devices"`
	}
	_ = c.ShouldBindJSON(&req)

	if err := h.gateway.Logout(c.Request.Context()); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not logout"})
		return
	}
	if h.jwtServ != nil && req.RefreshToken != "" {
		if req.AllDevices {
			_ = h.jwtServ.RevokeAllSessions(req.RefreshToken)
		} else {
			_ = h.jwtServ.RevokeRefresh(req.RefreshToken)
		}
	}
	c.Status(http.StatusNoContent)
}

// RefreshToken maneja POST /auth/refresh.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid refresh request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if h.jwtServ == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
		return
	}
	tokens, err := h.jwtServ.RefreshPair(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// UpdateName maneja PATCH /auth/profile/name.
func (h *AuthHandler) UpdateName(c *gin.Context) {
	var req struct {
		DisplayName string `json:"display_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update name request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.gateway.UpdateName(c.Request.Context(), req.DisplayName); err != nil {
		if errors.Is(err, identity.ErrNotAuthenticated) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		h.logger.Error("update name failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update name"})
		return
	}
	// El proveedor ya aceptó el nombre; la réplica local sigue.
	if h.users != nil {
		if userID, ok := CurrentUserID(c); ok {
			if err := h.users.UpdateName(c.Request.Context(), userID, req.DisplayName); err != nil {
				h.logger.Warn("local name update failed", zap.String("user_id", userID), zap.Error(err))
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// PasswordReset maneja POST /auth/password-reset.
func (h *AuthHandler) PasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid password reset request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	// La respuesta no revela si la cuenta existe; el fallo solo se registra.
	if err := h.gateway.SendPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.logger.Warn("password reset dispatch failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

func (h *AuthHandler) authError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, identity.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts"})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication unavailable"})
	}
}

func (h *AuthHandler) respondWithTokens(c *gin.Context, user domain.User) {
	if h.jwtServ == nil {
		c.JSON(http.StatusOK, gin.H{"user": user})
		return
	}
	tokens, err := h.jwtServ.GeneratePair(user)
	if err != nil {
		h.logger.Error("jwt issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue tokens"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "tokens": tokens})
}
