package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Najo0116/AI-Chatbot/internal/ai"
	"github.com/Najo0116/AI-Chatbot/internal/domain"
	"github.com/Najo0116/AI-Chatbot/internal/repository"
	apperrors "github.com/Najo0116/AI-Chatbot/pkg/errors"
)

// Completer produces a reply for a message and never fails.
type Completer interface {
	Complete(ctx context.Context, message string) string
}

// ChatEventPublisher announces committed chat logs.
type ChatEventPublisher interface {
	PublishChatLogged(ctx context.Context, log *domain.ChatLog, fallback bool) error
}

// ChatService implements chat submission and history.
type ChatService struct {
	logs   repository.ChatLogRepository
	ai     Completer
	events ChatEventPublisher
	logger *slog.Logger
}

// NewChatService creates a new chat service. events may be nil.
func NewChatService(logs repository.ChatLogRepository, completer Completer, events ChatEventPublisher, logger *slog.Logger) *ChatService {
	return &ChatService{logs: logs, ai: completer, events: events, logger: logger}
}

// Submit asks the model for a reply and stores the exchange for user.
// Model failures are already folded into the reply text, so the only
// errors are persistence errors.
func (s *ChatService) Submit(ctx context.Context, user *domain.User, message string) (*domain.ChatLog, error) {
	if strings.TrimSpace(message) == "" {
		return nil, apperrors.InvalidInput("message must not be blank")
	}

	reply := s.ai.Complete(ctx, message)

	// A client disconnect during the model call must not abort the write.
	log, err := s.logs.Append(context.WithoutCancel(ctx), user.ID, message, reply)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		if err := s.events.PublishChatLogged(ctx, log, ai.IsFallback(reply)); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish chat.logged event",
				slog.Int64("chat_log_id", log.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return log, nil
}

// History returns the user's chat logs, oldest first.
func (s *ChatService) History(ctx context.Context, user *domain.User) ([]domain.ChatLog, error) {
	return s.logs.ListByUserID(ctx, user.ID)
}
