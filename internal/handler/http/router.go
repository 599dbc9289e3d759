package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Najo0116/AI-Chatbot/internal/service"
	"github.com/Najo0116/AI-Chatbot/pkg/health"
	"github.com/Najo0116/AI-Chatbot/pkg/middleware"
)

// NewRouter creates a chi router with all chatbot routes registered.
func NewRouter(
	authService *service.AuthService,
	chatService *service.ChatService,
	resolver *service.SessionResolver,
	healthHandler *health.Handler,
	logger *slog.Logger,
	serviceName string,
	corsConfig middleware.CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	authHandler := NewAuthHandler(authService, logger)
	r.Post("/login", authHandler.Login)

	chatHandler := NewChatHandler(chatService, logger)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(Authenticator(resolver)))

		r.Post("/chat", chatHandler.Create)
		r.Get("/chat/logs", chatHandler.List)
	})

	return r
}
