package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"calmspace/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	guard *Guard,
	authH *AuthHandler,
	otpH *OTPHandler,
	bookingH *BookingHandler,
	checkoutH *CheckoutHandler,
	contactH *ContactHandler,
	catalogH *CatalogHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	auth.POST("/login", guard.AuthPage(), authH.Login)
	auth.POST("/signup", guard.AuthPage(), authH.Signup)
	auth.POST("/oauth/google", guard.AuthPage(), authH.GoogleLogin)
	auth.POST("/oauth/callback", authH.GoogleCallback)
	auth.POST("/password-reset", guard.AuthPage(), authH.PasswordReset)
	auth.GET("/session", authH.Session)
	auth.POST("/logout", authH.Logout)
	auth.POST("/refresh", authH.RefreshToken)
	auth.PATCH("/profile/name", guard.Protected(), JWTAuthMiddleware(jwtSvc), authH.UpdateName)
	auth.POST("/otp/send", otpH.SendCode)
	auth.POST("/otp/verify", otpH.VerifyCode)

	r.POST("/bookings", guard.Public(), bookingH.SubmitDraft)
	r.GET("/bookings/:paymentID", guard.Protected(), bookingH.GetByPayment)

	checkout := r.Group("/checkout", guard.Public())
	checkout.GET("", checkoutH.Load)
	checkout.POST("/promo", checkoutH.ApplyPromo)
	checkout.POST("/payment", checkoutH.BeginPayment)
	checkout.POST("/payment/callback", checkoutH.PaymentCallback)
	checkout.POST("/payment/failure", checkoutH.PaymentFailure)
	checkout.GET("/result", checkoutH.Result)

	r.POST("/contact", guard.Public(), contactH.Submit)

	catalog := r.Group("/catalog")
	catalog.GET("/services", catalogH.Services)
	catalog.GET("/therapists", catalogH.Therapists)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
