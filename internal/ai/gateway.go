package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/Najo0116/AI-Chatbot/pkg/breaker"
)

// Replies returned in place of model output.
const (
	NoResponseReply  = "There was no response"
	UnavailableReply = "The AI is temporarily unavailable, out for coffee maybe..."
)

const tracerName = "github.com/Najo0116/AI-Chatbot/internal/ai"

var (
	completionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_completions_total",
			Help: "Chat completions by outcome (ok, empty, or a failure kind)",
		},
		[]string{"outcome"},
	)

	completionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_completion_duration_seconds",
			Help:    "Duration of calls to the model provider",
			Buckets: []float64{.1, .25, .5, 1, 2, 4, 8, 15},
		},
		[]string{"outcome"},
	)
)

// Generator is the slice of *genai.Models the gateway calls.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewGeminiGenerator builds a Gemini API client. httpClient may be nil.
func NewGeminiGenerator(ctx context.Context, apiKey string, httpClient *http.Client) (Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client.Models, nil
}

// Config holds AI gateway configuration.
type Config struct {
	Model   string
	Timeout time.Duration
	Breaker breaker.Config
}

// Gateway turns a user message into a reply. Provider failures never reach
// the caller: Complete always returns text.
type Gateway struct {
	gen     Generator
	model   string
	timeout time.Duration
	breaker *breaker.Breaker[string]
	logger  *slog.Logger
}

// NewGateway creates a gateway. A nil gen makes every call fall back.
func NewGateway(gen Generator, cfg Config, logger *slog.Logger) *Gateway {
	if gen == nil {
		logger.Warn("no AI provider configured, chat replies will use the fallback text")
	}
	return &Gateway{
		gen:     gen,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		breaker: breaker.New[string](cfg.Breaker, logger, countsTowardBreaker),
		logger:  logger,
	}
}

// Complete returns the model's trimmed reply, NoResponseReply when the
// model answered with blank text, or UnavailableReply on any failure.
func (g *Gateway) Complete(ctx context.Context, message string) string {
	start := time.Now()
	// Message text is user content and stays out of spans.
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ai.Complete", trace.WithAttributes(
		attribute.String("ai.model", g.model),
		attribute.Int("ai.message_length", len(message)),
	))
	defer span.End()

	text, err := g.generate(ctx, message)
	outcome := "ok"
	reply := text

	var upErr *UpstreamError
	switch {
	case errors.As(err, &upErr):
		outcome = string(upErr.Kind)
		reply = UnavailableReply
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		g.logger.WarnContext(ctx, "ai completion failed, using fallback reply",
			slog.String("kind", outcome),
			slog.String("error", upErr.Err.Error()),
		)
	case text == "":
		outcome = "empty"
		reply = NoResponseReply
	}

	span.SetAttributes(attribute.String("ai.outcome", outcome))
	completionsTotal.WithLabelValues(outcome).Inc()
	completionDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return reply
}

// generate calls the provider through the breaker with the gateway timeout.
// Errors are always *UpstreamError.
func (g *Gateway) generate(ctx context.Context, message string) (string, error) {
	if g.gen == nil {
		return "", &UpstreamError{Kind: FailureProvider, Err: ErrNotConfigured}
	}

	text, err := g.breaker.Execute(func() (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		resp, err := g.gen.GenerateContent(callCtx, g.model, genai.Text(message), nil)
		if err != nil {
			return "", err
		}
		if resp == nil {
			return "", errMalformed
		}
		return strings.TrimSpace(resp.Text()), nil
	})
	if err != nil {
		return "", &UpstreamError{Kind: classify(ctx, err), Err: err}
	}
	return text, nil
}

// Check reports an error while the breaker is open. It backs the optional
// readiness check; it never calls the provider.
func (g *Gateway) Check(context.Context) error {
	if g.gen == nil {
		return ErrNotConfigured
	}
	if g.breaker.Open() {
		return breaker.ErrOpen
	}
	return nil
}

// IsFallback reports whether reply is one of the substitute replies.
func IsFallback(reply string) bool {
	return reply == NoResponseReply || reply == UnavailableReply
}
