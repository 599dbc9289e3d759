package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/Najo0116/AI-Chatbot/internal/domain"
	"github.com/Najo0116/AI-Chatbot/internal/repository"
	apperrors "github.com/Najo0116/AI-Chatbot/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// CredentialStore holds the single demo identity.
type CredentialStore struct {
	users    repository.UserRepository
	username string
	password string
	cost     int
	logger   *slog.Logger
}

// NewCredentialStore creates a store for the configured demo credentials.
func NewCredentialStore(users repository.UserRepository, username, password string, logger *slog.Logger) *CredentialStore {
	return &CredentialStore{
		users:    users,
		username: username,
		password: password,
		cost:     bcryptCost,
		logger:   logger,
	}
}

// Authenticate reports whether both fields match the demo pair exactly.
// Both comparisons always run so timing does not reveal which one failed.
func (s *CredentialStore) Authenticate(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password))
	return userOK&passOK == 1
}

// GetOrCreateDemoUser returns the demo user row, creating it on first use.
// Concurrent first calls are resolved by the unique username constraint:
// the loser of the insert race re-reads the winner's row.
func (s *CredentialStore) GetOrCreateDemoUser(ctx context.Context) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, s.username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("get demo user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	user = &domain.User{Username: s.username, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, fmt.Errorf("create demo user: %w", err)
		}
		existing, err := s.users.GetByUsername(ctx, s.username)
		if err != nil {
			return nil, fmt.Errorf("get demo user after concurrent create: %w", err)
		}
		return existing, nil
	}

	s.logger.InfoContext(ctx, "demo user created", slog.Int64("user_id", user.ID))
	return user, nil
}
