package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Najo0116/AI-Chatbot/internal/auth"
	pkgconfig "github.com/Najo0116/AI-Chatbot/pkg/config"
)

const defaultJWTSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the chatbot API.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"chatbot-api"`

	// HTTP server
	HTTPPort         int           `env:"HTTP_PORT" envDefault:"8000"`
	HTTPReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	HTTPIdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"chatbot"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"chatbot_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"chatbot"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	DBMaxConns        int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns        int32         `env:"DB_MIN_CONNS" envDefault:"1"`
	DBMaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"10m"`
	SlowQueryMS       int           `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`

	// Demo identity
	DemoUsername string `env:"DEMO_USERNAME" envDefault:"demo"`
	DemoPassword string `env:"DEMO_PASSWORD"`

	// JWT
	JWTSecret     string `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTAlgorithm  string `env:"JWT_ALGORITHM" envDefault:"HS256"`
	JWTExpiresMin int    `env:"JWT_EXPIRES_MIN" envDefault:"60"`

	// AuthDemoFallback resolves validly signed tokens whose user no longer
	// exists to the demo user instead of rejecting them.
	AuthDemoFallback bool `env:"AUTH_DEMO_FALLBACK" envDefault:"false"`

	// Gemini
	GeminiAPIKey string        `env:"GEMINI_API_KEY"`
	GeminiModel  string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	AITimeout    time.Duration `env:"AI_TIMEOUT" envDefault:"10s"`
	AIMaxRetries int           `env:"AI_MAX_RETRIES" envDefault:"1"`

	AIBreakerMinRequests  uint32        `env:"AI_BREAKER_MIN_REQUESTS" envDefault:"5"`
	AIBreakerFailureRatio float64       `env:"AI_BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	AIBreakerOpenTimeout  time.Duration `env:"AI_BREAKER_OPEN_TIMEOUT" envDefault:"30s"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// OpenTelemetry
	OTelEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTelInsecure   bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OTelSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// CORS
	CORSAllowedOrigins        []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000,http://127.0.0.1:3000" envSeparator:","`
	CORSAllowedOriginPatterns []string `env:"CORS_ALLOWED_ORIGIN_PATTERNS" envDefault:"^https://.*\\.vercel\\.app$" envSeparator:","`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load chatbot config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if _, err := auth.SigningMethod(c.JWTAlgorithm); err != nil {
		return fmt.Errorf("JWT_ALGORITHM: %w", err)
	}
	if c.JWTExpiresMin <= 0 {
		return fmt.Errorf("JWT_EXPIRES_MIN must be positive, got %d", c.JWTExpiresMin)
	}
	if strings.TrimSpace(c.DemoUsername) == "" || c.DemoPassword == "" {
		return fmt.Errorf("DEMO_USERNAME and DEMO_PASSWORD must be set")
	}
	if c.AITimeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT must be positive, got %s", c.AITimeout)
	}
	if c.HTTPWriteTimeout <= c.AITimeout {
		return fmt.Errorf("HTTP_WRITE_TIMEOUT (%s) must exceed AI_TIMEOUT (%s)", c.HTTPWriteTimeout, c.AITimeout)
	}

	// Outside development, require an explicitly set, strong JWT secret.
	if !pkgconfig.IsDevelopment(c.Environment) {
		if c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", c.Environment)
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret))
		}
	}
	return nil
}

// TokenTTL returns the access-token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpiresMin) * time.Minute
}

// SlowQueryThreshold returns the slow-query logging threshold; 0 disables it.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryMS) * time.Millisecond
}
