package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Najo0116/AI-Chatbot/internal/domain"
	"github.com/Najo0116/AI-Chatbot/internal/service"
	apperrors "github.com/Najo0116/AI-Chatbot/pkg/errors"
	"github.com/Najo0116/AI-Chatbot/pkg/httputil"
	"github.com/Najo0116/AI-Chatbot/pkg/middleware"
	"github.com/Najo0116/AI-Chatbot/pkg/validator"
)

// ChatHandler handles HTTP requests for chat submission and history.
type ChatHandler struct {
	service *service.ChatService
	logger  *slog.Logger
}

// NewChatHandler creates a new chat HTTP handler.
func NewChatHandler(svc *service.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{service: svc, logger: logger}
}

// ChatRequest is the JSON request body for POST /chat.
type ChatRequest struct {
	Message string `json:"message" validate:"required,notblank"`
}

// Create handles POST /chat
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r)
	if !ok {
		httputil.WriteUnauthorized(w, r, "not authenticated")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req ChatRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	log, err := h.service.Submit(r.Context(), user, req.Message)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, log)
}

// List handles GET /chat/logs
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r)
	if !ok {
		httputil.WriteUnauthorized(w, r, "not authenticated")
		return
	}

	logs, err := h.service.History(r.Context(), user)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, logs)
}

func userFromRequest(r *http.Request) (*domain.User, bool) {
	p := middleware.PrincipalFromContext(r.Context())
	if p == nil {
		return nil, false
	}
	return &domain.User{ID: p.UserID, Username: p.Username}, true
}

// Authenticator adapts a SessionResolver to the auth middleware.
func Authenticator(resolver *service.SessionResolver) middleware.Authenticator {
	return func(ctx context.Context, token string) (*middleware.Principal, error) {
		user, err := resolver.ResolveUser(ctx, token)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, apperrors.Unauthorized("could not validate credentials")
		}
		return &middleware.Principal{UserID: user.ID, Username: user.Username}, nil
	}
}
