package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"calmspace/internal/config"
	"calmspace/internal/db"
	"calmspace/internal/domain"
	"calmspace/internal/email"
	apihttp "calmspace/internal/http"
	"calmspace/internal/identity"
	"calmspace/internal/otp"
	"calmspace/internal/payment"
	"calmspace/internal/platform"
	"calmspace/internal/repository"
	"calmspace/internal/service"
	"calmspace/internal/session"
	"calmspace/internal/store"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	ctxPing, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	if err := db.Ping(ctxPing, pool); err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}
	cancelPing()

	userRepo := repository.NewPgUserRepository(pool)
	bookingRepo := repository.NewPgBookingRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var (
		otpStore    = otp.NewMemoryStore()
		otpLimiter  otp.RateLimiter
		tokenStore  service.RefreshTokenStore
		transient   store.Transient = store.NewMemoryTransient()
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			otpStore = otp.NewRedisStore(redisClient)
			otpLimiter = otp.NewRedisRateLimiter(redisClient, 10*time.Minute, 3)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
			transient = store.NewRedisTransient(redisClient, logger)
		}
		cancel()
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	// La plataforma del proceso se resuelve una sola vez al arrancar; el
	// backend sirve web, los shells nativos se identifican por cabecera.
	detector := platform.NewHeaderDetector()
	kind := platform.DesktopWeb

	gateway := identity.NewClient(cfg.IdentityBaseURL, cfg.IdentityAPIKey, kind, identity.RedirectURIs{
		Web:     cfg.OAuthRedirectWeb,
		Android: cfg.OAuthRedirectAndroid,
		IOS:     cfg.OAuthRedirectIOS,
	}, cfg.AndroidPackageName, logger)

	sessions := session.NewStore(logger, gateway, kind)
	sessions.Start(ctx)
	defer sessions.Close()

	otpSvc := otp.NewService(logger, otpStore, emailSender, otpLimiter, userRepo, cfg.DefaultCountryCode)
	bookingSvc := service.NewBookingService(logger, transient)

	paymentGateway := payment.NewClient(cfg.PaymentBaseURL, cfg.PaymentKeyID, cfg.PaymentKeySecret, logger)
	checkoutSvc := service.NewCheckoutService(logger, transient, paymentGateway, emailSender, bookingRepo,
		domain.DefaultPriceTable, domain.DefaultPromoTable)

	guard := apihttp.NewGuard(sessions, detector)
	authHandler := apihttp.NewAuthHandler(logger, gateway, sessions, jwtSvc, userRepo)
	otpHandler := apihttp.NewOTPHandler(logger, otpSvc)
	bookingHandler := apihttp.NewBookingHandler(logger, bookingSvc, bookingRepo)
	checkoutHandler := apihttp.NewCheckoutHandler(logger, checkoutSvc)
	contactHandler := apihttp.NewContactHandler(logger, emailSender)
	catalogHandler := apihttp.NewCatalogHandler(domain.DefaultPriceTable)

	router := apihttp.NewRouter(logger, jwtSvc, guard, authHandler, otpHandler, bookingHandler, checkoutHandler, contactHandler, catalogHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
