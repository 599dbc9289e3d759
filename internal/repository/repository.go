package repository

import (
	"context"

	"github.com/Najo0116/AI-Chatbot/internal/domain"
)

// UserRepository defines the persistence operations on users.
type UserRepository interface {
	// Create inserts user and fills in ID and CreatedAt. A duplicate
	// username yields an error wrapping apperrors.ErrAlreadyExists.
	Create(ctx context.Context, user *domain.User) error

	// GetByUsername returns apperrors.ErrNotFound when absent.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByIDAndUsername matches both columns; apperrors.ErrNotFound when absent.
	GetByIDAndUsername(ctx context.Context, id int64, username string) (*domain.User, error)
}

// ChatLogRepository defines the persistence operations on chat logs.
type ChatLogRepository interface {
	// Append stores one exchange in its own transaction. An unknown user
	// yields an error wrapping apperrors.ErrForeignKey after rollback.
	Append(ctx context.Context, userID int64, message, reply string) (*domain.ChatLog, error)

	// ListByUserID returns the user's logs oldest first; never nil.
	ListByUserID(ctx context.Context, userID int64) ([]domain.ChatLog, error)
}
