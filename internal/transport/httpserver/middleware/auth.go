package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"chronos-go/internal/auth"
	"chronos-go/internal/config"
	"chronos-go/pkg/logger"
)

type contextKey int

const (
	userIDKey contextKey = iota
	userKey
)

type User struct {
	ID        string
	Email     string
	Name      string
	AvatarURL string
}

type TokenValidator interface {
	Validate(ctx context.Context, token string) (*auth.Identity, error)
}

// UserEnsurer makes sure the mock user has a row to link participants to.
type UserEnsurer interface {
	EnsureUser(ctx context.Context, id, email, name, avatarURL string) error
}

// Authenticator resolves the caller from a bearer token. Requests without a
// token pass through anonymously; RequireUser rejects them where an account
// is needed.
type Authenticator struct {
	tokens   TokenValidator
	users    UserEnsurer
	skipAuth bool
	mockUser User
	log      logger.Logger
}

func NewAuthenticator(cfg config.AuthConfig, tokens TokenValidator, users UserEnsurer, log logger.Logger) *Authenticator {
	return &Authenticator{
		tokens:   tokens,
		users:    users,
		skipAuth: cfg.SkipAuth,
		mockUser: User{
			ID:        strings.TrimSpace(cfg.MockUserID),
			Email:     strings.TrimSpace(cfg.MockUserEmail),
			Name:      strings.TrimSpace(cfg.MockUserName),
			AvatarURL: strings.TrimSpace(cfg.MockUserAvatar),
		},
		log: log,
	}
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.skipAuth {
			user := a.mockUser
			if user.ID == "" {
				writeError(w, http.StatusInternalServerError, "auth_not_configured", "auth mock user id not configured")
				return
			}
			if a.users != nil {
				if err := a.users.EnsureUser(r.Context(), user.ID, user.Email, user.Name, user.AvatarURL); err != nil {
					a.log.WithContext(r.Context()).InternalError("auth: ensure mock user failed", err, "user_id", user.ID)
				}
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(header)
		if !ok {
			unauthorized(w)
			return
		}
		if a.tokens == nil {
			writeError(w, http.StatusInternalServerError, "auth_not_configured", "auth not configured")
			return
		}

		identity, err := a.tokens.Validate(r.Context(), token)
		if err != nil {
			a.log.WithContext(r.Context()).BusinessError("auth: token rejected", err)
			unauthorized(w)
			return
		}

		user := User{
			ID:    identity.UserID,
			Email: identity.Email,
			Name:  identity.Name,
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireUser answers 401 unless an authenticated user is on the request.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(value string) (string, bool) {
	parts := strings.Fields(value)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
}

func WithUser(ctx context.Context, user User) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, userIDKey, user.ID)
}

func UserFromContext(ctx context.Context) (User, bool) {
	value := ctx.Value(userKey)
	user, ok := value.(User)
	if !ok || user.ID == "" {
		return User{}, false
	}
	return user, true
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(userIDKey)
	userID, ok := value.(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
