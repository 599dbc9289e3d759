package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Najo0116/AI-Chatbot/internal/domain"
	apperrors "github.com/Najo0116/AI-Chatbot/pkg/errors"
)

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	GenerateAccessToken(subject string, userID int64) (string, error)
}

// AuthService implements login.
type AuthService struct {
	creds  *CredentialStore
	tokens TokenIssuer
	logger *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(creds *CredentialStore, tokens TokenIssuer, logger *slog.Logger) *AuthService {
	return &AuthService{creds: creds, tokens: tokens, logger: logger}
}

// Login checks the demo credentials and issues a bearer token for the demo
// user, creating the user row on first login.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.AccessToken, error) {
	if !s.creds.Authenticate(username, password) {
		s.logger.InfoContext(ctx, "login rejected")
		return nil, apperrors.InvalidCredentials()
	}

	user, err := s.creds.GetOrCreateDemoUser(ctx)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateAccessToken(user.Username, user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in", slog.Int64("user_id", user.ID))
	return &domain.AccessToken{AccessToken: token, TokenType: domain.TokenTypeBearer}, nil
}
