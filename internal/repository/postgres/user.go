package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/Najo0116/AI-Chatbot/internal/domain"
	"github.com/Najo0116/AI-Chatbot/pkg/database"
	apperrors "github.com/Najo0116/AI-Chatbot/pkg/errors"
)

const (
	insertUserQuery = `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at`

	selectUserByUsernameQuery = `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = $1`

	selectUserByIDAndUsernameQuery = `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE id = $1 AND username = $2`
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user and fills in the generated id and timestamp.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateUser", insertUserQuery)
	defer func() { end(err) }()

	err = r.db.QueryRow(ctx, insertUserQuery, u.Username, u.PasswordHash).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "username", u.Username)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.scanUser(ctx, "GetUserByUsername", selectUserByUsernameQuery, username)
}

// GetByIDAndUsername retrieves a user matching both id and username.
func (r *UserRepository) GetByIDAndUsername(ctx context.Context, id int64, username string) (*domain.User, error) {
	u, err := r.scanUser(ctx, "GetUserByIDAndUsername", selectUserByIDAndUsernameQuery, id, username)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.NotFound("user", strconv.FormatInt(id, 10))
	}
	return u, err
}

func (r *UserRepository) scanUser(ctx context.Context, op, query string, args ...any) (*domain.User, error) {
	ctx, end := database.TraceQuery(ctx, op, query)

	var u domain.User
	err := r.db.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		end(nil)
		return nil, apperrors.ErrNotFound
	}
	end(err)
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
