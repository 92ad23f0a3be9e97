package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// devJWTSecret is only used when JWT_SECRET is unset
const devJWTSecret = "canteen-dev-secret-change-me"

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	GinMode  string `env:"GIN_MODE"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DBDriver          string        `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN             string        `env:"DB_DSN" envDefault:"canteen.db"`
	DBConnectAttempts uint          `env:"DB_CONNECT_ATTEMPTS" envDefault:"5"`
	DBConnectBackoff  time.Duration `env:"DB_CONNECT_BACKOFF" envDefault:"3s"`

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"168h"`
	OTPTTL    time.Duration `env:"OTP_TTL" envDefault:"5m"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:3002"`

	SMTPHost     string        `env:"SMTP_HOST"`
	SMTPPort     int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string        `env:"SMTP_USER"`
	SMTPPass     string        `env:"SMTP_PASS"`
	MailFrom     string        `env:"MAIL_FROM"`
	MailAttempts uint          `env:"MAIL_ATTEMPTS" envDefault:"3"`
	MailBackoff  time.Duration `env:"MAIL_BACKOFF" envDefault:"2s"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"canteen-events"`

	// OrdersListRequiresAdmin gates GET /orders behind the admin role
	OrdersListRequiresAdmin bool `env:"ORDERS_LIST_REQUIRES_ADMIN" envDefault:"true"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		slog.Info("no .env file, using process environment", "error", err)
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET not set, falling back to development secret")
		cfg.JWTSecret = devJWTSecret
	}
	return cfg, nil
}

// MailEnabled reports whether outbound mail is configured
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}
