package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Najo0116/AI-Chatbot/internal/domain"
	pkgkafka "github.com/Najo0116/AI-Chatbot/pkg/kafka"
	"github.com/Najo0116/AI-Chatbot/pkg/logger"
)

// EventTypeChatLogged names the event emitted after a chat log commit.
const EventTypeChatLogged = "chat.logged"

// TopicChatLogged is the topic chat.logged events are written to.
var TopicChatLogged = pkgkafka.Topic("chat", "logged")

// Aggregate type constant.
const AggregateTypeChatLog = "chat_log"

// Source identifier for events originating from the API.
const SourceChatbotAPI = "chatbot-api"

// publishTimeout bounds a single publish so a slow broker cannot hold the
// chat response open.
const publishTimeout = 2 * time.Second

// EventPublisher is the subset of pkgkafka.Producer used here.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes chat domain events to Kafka. A Producer with no
// publisher, or a nil *Producer, drops every event.
type Producer struct {
	kafka  EventPublisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka EventPublisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishChatLogged publishes a chat.logged event for a committed log.
// The request's cancellation is detached so a client disconnect after the
// commit does not drop the event.
func (p *Producer) PublishChatLogged(ctx context.Context, log *domain.ChatLog, fallback bool) error {
	if p == nil || p.kafka == nil {
		return nil
	}

	data := domain.ChatLoggedEvent{
		ChatLogID: log.ID,
		UserID:    log.UserID,
		Fallback:  fallback,
		CreatedAt: log.CreatedAt,
	}

	evt, err := pkgkafka.NewEvent(EventTypeChatLogged, strconv.FormatInt(log.ID, 10), AggregateTypeChatLog, SourceChatbotAPI, data)
	if err != nil {
		return fmt.Errorf("create chat.logged event: %w", err)
	}
	evt.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.kafka.Publish(pubCtx, TopicChatLogged, evt); err != nil {
		return fmt.Errorf("publish chat.logged event: %w", err)
	}

	p.logger.DebugContext(ctx, "chat.logged event published",
		slog.Int64("chat_log_id", log.ID),
		slog.Bool("fallback", fallback),
	)
	return nil
}
