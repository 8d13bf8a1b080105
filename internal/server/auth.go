package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/chojar/kuma/internal/config"
	"github.com/chojar/kuma/internal/observability"
)

// User is the authentication signal the pipeline branches on. Permission
// evaluation happens outside this service; only the resulting booleans are
// carried here.
type User struct {
	ID            int64
	Username      string
	Authenticated bool
	CanRestore    bool
	CanMove       bool
}

type userContextKey struct{}

// UserFrom extracts the request's user. The zero User is the anonymous
// caller.
func UserFrom(ctx context.Context) User {
	if u, ok := ctx.Value(userContextKey{}).(User); ok {
		return u
	}
	return User{}
}

// Authenticator resolves bearer tokens to users.
type Authenticator struct {
	tokens map[string]User
}

// NewAuthenticator indexes the configured token table.
func NewAuthenticator(cfg config.AuthConfig) *Authenticator {
	tokens := make(map[string]User, len(cfg.Tokens))
	for _, t := range cfg.Tokens {
		if t.Token == "" {
			continue
		}
		tokens[t.Token] = User{
			ID:            t.UserID,
			Username:      t.Username,
			Authenticated: true,
			CanRestore:    t.CanRestore,
			CanMove:       t.CanMove,
		}
	}
	return &Authenticator{tokens: tokens}
}

// Middleware attaches the resolved user to the request context. Unknown
// tokens fall through to anonymous rather than failing the request.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if ok {
			if user, known := a.tokens[token]; known {
				ctx := context.WithValue(r.Context(), userContextKey{}, user)
				ctx = observability.WithUser(ctx, user.Username)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			slog.Debug("unknown bearer token", "path", r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}

// logContextMiddleware seeds the logging context from request metadata.
func logContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			ctx = observability.WithRequestID(ctx, reqID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func logError(r *http.Request, msg string, err error) {
	observability.ErrorContext(r.Context(), msg,
		slog.String("path", r.URL.Path), slog.String("error", err.Error()))
}
