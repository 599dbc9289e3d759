package domain

import "time"

// User is a login identity. The service only ever creates the demo user.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "bearer"

// AccessToken is the body returned by a successful login.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
