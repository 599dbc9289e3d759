package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Najo0116/AI-Chatbot/internal/domain"
	"github.com/Najo0116/AI-Chatbot/pkg/database"
	apperrors "github.com/Najo0116/AI-Chatbot/pkg/errors"
)

const (
	insertChatLogQuery = `
		INSERT INTO chat_logs (user_id, message, reply)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	listChatLogsQuery = `
		SELECT id, user_id, message, reply, created_at
		FROM chat_logs
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC`
)

// ChatLogRepository implements repository.ChatLogRepository using PostgreSQL.
type ChatLogRepository struct {
	db database.DBTX
}

// NewChatLogRepository creates a new PostgreSQL-backed chat log repository.
func NewChatLogRepository(db database.DBTX) *ChatLogRepository {
	return &ChatLogRepository{db: db}
}

// Append inserts one exchange inside its own transaction. The transaction is
// rolled back before any error is returned.
func (r *ChatLogRepository) Append(ctx context.Context, userID int64, message, reply string) (_ *domain.ChatLog, err error) {
	ctx, end := database.TraceQuery(ctx, "AppendChatLog", insertChatLogQuery)
	defer func() { end(err) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin append chat log: %w", err)
	}

	log := &domain.ChatLog{UserID: userID, Message: message, Reply: reply}
	if err := tx.QueryRow(ctx, insertChatLogQuery, userID, message, reply).Scan(&log.ID, &log.CreatedAt); err != nil {
		_ = tx.Rollback(ctx)
		if database.IsForeignKeyViolation(err) {
			return nil, apperrors.ForeignKeyViolation("chat log", "user", strconv.FormatInt(userID, 10))
		}
		return nil, fmt.Errorf("insert chat log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit chat log: %w", err)
	}
	return log, nil
}

// ListByUserID returns every log owned by userID, oldest first.
func (r *ChatLogRepository) ListByUserID(ctx context.Context, userID int64) (_ []domain.ChatLog, err error) {
	ctx, end := database.TraceQuery(ctx, "ListChatLogs", listChatLogsQuery)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, listChatLogsQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list chat logs: %w", err)
	}
	defer rows.Close()

	logs := make([]domain.ChatLog, 0)
	for rows.Next() {
		var l domain.ChatLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Message, &l.Reply, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat logs: %w", err)
	}
	return logs, nil
}
