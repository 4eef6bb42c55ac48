package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"victim-aid-go/internal/auth"
	"victim-aid-go/internal/domain/access"
	"victim-aid-go/internal/domain/user"
	"victim-aid-go/pkg/logger"
)

// Authenticator resolves a bearer token to the user it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*user.User, *auth.Claims, error)
}

type TokenAuth struct {
	auth Authenticator
	log  logger.Logger
}

type contextKey int

const (
	userKey contextKey = iota
	claimsKey
)

func NewTokenAuth(authenticator Authenticator, log logger.Logger) *TokenAuth {
	return &TokenAuth{auth: authenticator, log: log}
}

func (a *TokenAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			unauthorized(w)
			return
		}

		u, claims, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			if rejected(err) {
				a.log.Debug("auth: token rejected", "err", err)
				unauthorized(w)
				return
			}
			a.log.InternalError("auth: authenticate failed", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			return
		}

		ctx := WithUser(r.Context(), u, claims)
		ctx = logger.IntoContext(ctx, a.log.With("request_id", chimw.GetReqID(ctx), "user_id", u.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func rejected(err error) bool {
	return errors.Is(err, auth.ErrInvalidToken) ||
		errors.Is(err, auth.ErrTokenExpired) ||
		errors.Is(err, auth.ErrTokenRevoked) ||
		errors.Is(err, user.ErrInactive) ||
		errors.Is(err, user.ErrUserNotFound)
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

func WithUser(ctx context.Context, u *user.User, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, userKey, u)
	return context.WithValue(ctx, claimsKey, claims)
}

func UserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(userKey).(*user.User)
	if !ok || u == nil || u.ID == 0 {
		return nil, false
	}
	return u, true
}

// ActorFromContext returns the acting user as the services expect it.
func ActorFromContext(ctx context.Context) (access.Actor, bool) {
	u, ok := UserFromContext(ctx)
	if !ok {
		return access.Actor{}, false
	}
	return u.Actor(), true
}

func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	if !ok || claims == nil {
		return nil, false
	}
	return claims, true
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"code":    code,
		"message": message,
	})
}
