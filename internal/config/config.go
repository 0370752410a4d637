package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	DBMaxConns  int    `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns  int    `env:"DB_MIN_CONNS" envDefault:"1"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"CalmSpace"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`

	IdentityBaseURL string `env:"IDENTITY_BASE_URL" envDefault:"https://identitytoolkit.googleapis.com/v1"`
	IdentityAPIKey  string `env:"IDENTITY_API_KEY"`

	// URIs de retorno OAuth por plataforma; se fijan una sola vez al arrancar.
	OAuthRedirectWeb     string `env:"OAUTH_REDIRECT_WEB" envDefault:"https://calm-space-gamma.vercel.app"`
	OAuthRedirectAndroid string `env:"OAUTH_REDIRECT_ANDROID" envDefault:"https://calm-space-gamma.vercel.app/auth-redirect.html"`
	OAuthRedirectIOS     string `env:"OAUTH_REDIRECT_IOS" envDefault:"https://calm-space-gamma.vercel.app/auth-redirect.html"`
	AndroidPackageName   string `env:"ANDROID_PACKAGE_NAME" envDefault:"com.calmspace.haven"`

	PaymentBaseURL   string `env:"PAYMENT_BASE_URL" envDefault:"https://api.razorpay.com/v1"`
	PaymentKeyID     string `env:"PAYMENT_KEY_ID"`
	PaymentKeySecret string `env:"PAYMENT_KEY_SECRET"`

	DefaultCountryCode string `env:"DEFAULT_COUNTRY_CODE" envDefault:"+91"`

	JWTSecret            string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
