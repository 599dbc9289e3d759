package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Najo0116/AI-Chatbot/internal/ai"
	"github.com/Najo0116/AI-Chatbot/internal/auth"
	"github.com/Najo0116/AI-Chatbot/internal/config"
	"github.com/Najo0116/AI-Chatbot/internal/event"
	handler "github.com/Najo0116/AI-Chatbot/internal/handler/http"
	"github.com/Najo0116/AI-Chatbot/internal/repository/postgres"
	"github.com/Najo0116/AI-Chatbot/internal/service"
	"github.com/Najo0116/AI-Chatbot/migrations"
	"github.com/Najo0116/AI-Chatbot/pkg/breaker"
	"github.com/Najo0116/AI-Chatbot/pkg/database"
	"github.com/Najo0116/AI-Chatbot/pkg/health"
	"github.com/Najo0116/AI-Chatbot/pkg/httpclient"
	pkgkafka "github.com/Najo0116/AI-Chatbot/pkg/kafka"
	"github.com/Najo0116/AI-Chatbot/pkg/middleware"
	"github.com/Najo0116/AI-Chatbot/pkg/tracing"
)

const serviceVersion = "0.1.0"

// App wires together all dependencies and runs the chatbot API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		Enabled:        cfg.OTelEnabled,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTelEndpoint,
		Insecure:       cfg.OTelInsecure,
		SampleRate:     cfg.OTelSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	corsConfig, err := newCORSConfig(cfg)
	if err != nil {
		return nil, err
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBMaxConnLifetime,
		MaxConnIdleTime: cfg.DBMaxConnIdleTime,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, cfg.ServiceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	database.SetSlowQueryLogging(cfg.SlowQueryThreshold(), logger)

	// AI provider. Without a key every chat gets the fallback reply.
	var generator ai.Generator
	if cfg.GeminiAPIKey != "" {
		aiClient := httpclient.New(httpclient.Config{
			Timeout:         cfg.AITimeout,
			MaxRetries:      cfg.AIMaxRetries,
			RetryWaitMin:    200 * time.Millisecond,
			RetryWaitMax:    time.Second,
			MaxConnsPerHost: 32,
		})
		generator, err = ai.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, aiClient)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init AI provider: %w", err)
		}
	}

	breakerCfg := breaker.DefaultConfig("gemini")
	breakerCfg.MinRequests = cfg.AIBreakerMinRequests
	breakerCfg.FailureRatio = cfg.AIBreakerFailureRatio
	breakerCfg.Timeout = cfg.AIBreakerOpenTimeout

	gateway := ai.NewGateway(generator, ai.Config{
		Model:   cfg.GeminiModel,
		Timeout: cfg.AITimeout,
		Breaker: breakerCfg,
	}, logger)

	// Kafka producer, optional.
	var producer *pkgkafka.Producer
	eventProducer := event.NewProducer(nil, logger)
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		eventProducer = event.NewProducer(producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Build the dependency graph.
	jwtManager, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.TokenTTL())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init jwt manager: %w", err)
	}
	userRepo := postgres.NewUserRepository(pool)
	chatLogRepo := postgres.NewChatLogRepository(pool)

	creds := service.NewCredentialStore(userRepo, cfg.DemoUsername, cfg.DemoPassword, logger)
	authService := service.NewAuthService(creds, jwtManager, logger)
	chatService := service.NewChatService(chatLogRepo, gateway, eventProducer, logger)
	resolver := service.NewSessionResolver(jwtManager, userRepo, creds, cfg.AuthDemoFallback, logger)
	if cfg.AuthDemoFallback {
		logger.Warn("AUTH_DEMO_FALLBACK enabled: tokens for missing users resolve to the demo user")
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterOptional("gemini", gateway.Check)
	if producer != nil {
		healthHandler.RegisterOptional("kafka", producer.Ping)
	}

	// HTTP router.
	router := handler.NewRouter(authService, chatService, resolver, healthHandler, logger, cfg.ServiceName, corsConfig)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// newCORSConfig builds the CORS policy: the configured origins and origin
// patterns, credentials allowed, any method or header.
func newCORSConfig(cfg *config.Config) (middleware.CORSConfig, error) {
	patterns, err := middleware.CompileOriginPatterns(cfg.CORSAllowedOriginPatterns)
	if err != nil {
		return middleware.CORSConfig{}, fmt.Errorf("CORS_ALLOWED_ORIGIN_PATTERNS: %w", err)
	}
	return middleware.CORSConfig{
		AllowedOrigins:        cfg.CORSAllowedOrigins,
		AllowedOriginPatterns: patterns,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{middleware.CorrelationIDHeader},
		AllowCredentials: true,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer
// 4. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
