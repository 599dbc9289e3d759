package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Najo0116/AI-Chatbot/internal/auth"
	"github.com/Najo0116/AI-Chatbot/internal/domain"
	"github.com/Najo0116/AI-Chatbot/internal/repository"
	apperrors "github.com/Najo0116/AI-Chatbot/pkg/errors"
)

const credentialsMessage = "could not validate credentials"

// TokenValidator validates access tokens.
type TokenValidator interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

// DemoProvisioner yields the demo user, creating it if needed.
type DemoProvisioner interface {
	GetOrCreateDemoUser(ctx context.Context) (*domain.User, error)
}

// SessionResolver turns a bearer token into the acting user.
type SessionResolver struct {
	tokens       TokenValidator
	users        repository.UserRepository
	demo         DemoProvisioner
	demoFallback bool
	logger       *slog.Logger
}

// NewSessionResolver creates a resolver. With demoFallback set, a valid
// token whose user no longer exists resolves to the demo user instead of
// being rejected.
func NewSessionResolver(tokens TokenValidator, users repository.UserRepository, demo DemoProvisioner, demoFallback bool, logger *slog.Logger) *SessionResolver {
	return &SessionResolver{
		tokens:       tokens,
		users:        users,
		demo:         demo,
		demoFallback: demoFallback,
		logger:       logger,
	}
}

// ResolveUser validates token and loads the user it names. Token problems
// and unknown users are 401s; store failures are returned wrapped.
func (r *SessionResolver) ResolveUser(ctx context.Context, token string) (*domain.User, error) {
	claims, err := r.tokens.ValidateAccessToken(token)
	if err != nil {
		r.logger.DebugContext(ctx, "access token rejected", slog.String("error", err.Error()))
		return nil, apperrors.Unauthorized(credentialsMessage)
	}
	if claims.Subject == "" || claims.UserID == 0 {
		return nil, apperrors.Unauthorized(credentialsMessage)
	}

	user, err := r.users.GetByIDAndUsername(ctx, claims.UserID, claims.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	if !r.demoFallback {
		return nil, apperrors.Unauthorized(credentialsMessage)
	}

	r.logger.WarnContext(ctx, "token user not found, resolving to demo user",
		slog.Int64("token_user_id", claims.UserID),
		slog.String("token_subject", claims.Subject),
	)
	user, err = r.demo.GetOrCreateDemoUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve user via demo fallback: %w", err)
	}
	return user, nil
}
