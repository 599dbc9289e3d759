package domain

import "time"

// ChatLog is one persisted message/reply exchange owned by a user.
type ChatLog struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	Message   string    `json:"message"`
	Reply     string    `json:"reply"`
	CreatedAt time.Time `json:"timestamp"`
}

// ChatLoggedEvent is published after a chat log row is committed.
type ChatLoggedEvent struct {
	ChatLogID int64     `json:"chat_log_id"`
	UserID    int64     `json:"user_id"`
	Fallback  bool      `json:"fallback"`
	CreatedAt time.Time `json:"created_at"`
}
