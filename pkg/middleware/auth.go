package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Najo0116/AI-Chatbot/pkg/httputil"
	"github.com/Najo0116/AI-Chatbot/pkg/logger"
)

type contextKeyType string

const principalKey contextKeyType = "principal"

// Principal is the authenticated caller attached to the request context.
type Principal struct {
	UserID   int64
	Username string
}

// Authenticator turns a raw bearer token into a Principal. Errors are
// written with httputil.WriteError, so a 401 AppError keeps its message
// and anything else becomes a 500.
type Authenticator func(ctx context.Context, token string) (*Principal, error)

// Auth requires a bearer token on every request and injects the resolved
// Principal into the context.
func Auth(authenticate Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				httputil.WriteUnauthorized(w, r, "not authenticated")
				return
			}

			principal, err := authenticate(r.Context(), token)
			if err != nil {
				httputil.WriteError(w, r, err, nil)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			ctx = logger.WithUserID(ctx, principal.UserID)
			ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(slog.Int64("user_id", principal.UserID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// PrincipalFromContext returns the caller set by Auth, or nil.
func PrincipalFromContext(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalKey).(*Principal); ok {
		return p
	}
	return nil
}

// WithPrincipal stores p in ctx. Handlers tested without Auth use it.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}
