package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/propverse/propverse-be/internal/auth"
	"github.com/propverse/propverse-be/internal/http/respond"
	"github.com/propverse/propverse-be/internal/logutil"
	"github.com/propverse/propverse-be/internal/models"
	"github.com/propverse/propverse-be/internal/storage"
)

type contextKey byte

const (
	userKey    = contextKey(1)
	sessionKey = contextKey(2)
)

// UserFromContext returns the authenticated user attached by RequireUser.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey).(models.User)
	return user, ok
}

// ContextWithUser attaches a user the way RequireUser does; handler tests use
// it to exercise paths behind the middleware.
func ContextWithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// SessionIDFromContext returns the verified session ID attached by
// RequireUser, if the token carried one.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKey).(string)
	return id, ok
}

// RequireUser verifies the bearer token, loads the user, and attaches it to
// the request context. Missing/expired/invalid tokens, unknown or deactivated
// users, and revoked sessions all short-circuit with 401.
func RequireUser(store storage.Store, tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "missing or malformed authorization header")
				return
			}

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrTokenExpired):
					respond.Error(w, http.StatusUnauthorized, "token expired")
				case errors.Is(err, auth.ErrInsecureSecret):
					lg := logutil.GetOrDefault(r.Context())
					lg.Error().Err(err).Msg("token verification misconfigured")
					respond.Error(w, http.StatusInternalServerError, "internal server error")
				default:
					respond.Error(w, http.StatusUnauthorized, "invalid token")
				}
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}

			user, err := store.FindByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					respond.Error(w, http.StatusUnauthorized, "invalid token")
					return
				}
				lg := logutil.GetOrDefault(r.Context())
				lg.Error().Err(err).Int64("user_id", userID).Msg("load user failed")
				respond.Error(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if !user.IsActive {
				respond.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}

			if claims.SessionID != "" {
				session, err := store.FindSession(r.Context(), claims.SessionID)
				if err != nil && !errors.Is(err, storage.ErrNotFound) {
					lg := logutil.GetOrDefault(r.Context())
					lg.Error().Err(err).Msg("load session failed")
					respond.Error(w, http.StatusInternalServerError, "internal server error")
					return
				}
				if err == nil {
					if session.Revoked {
						respond.Error(w, http.StatusUnauthorized, "invalid token")
						return
					}
					if err := store.TouchSession(r.Context(), session.ID, time.Now()); err != nil {
						lg := logutil.GetOrDefault(r.Context())
						lg.Warn().Err(err).Msg("touch session failed")
					}
				}
			}

			ctx := ContextWithUser(r.Context(), user)
			if claims.SessionID != "" {
				ctx = context.WithValue(ctx, sessionKey, claims.SessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin layers an administrative check on top of RequireUser. A valid
// non-admin token gets 403, not 401.
func RequireAdmin(store storage.Store, tokens *auth.TokenManager) func(http.Handler) http.Handler {
	requireUser := RequireUser(store, tokens)
	return func(next http.Handler) http.Handler {
		return requireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "missing or malformed authorization header")
				return
			}
			if !user.IsAdmin && !user.HasRole(models.RoleAdmin) {
				respond.Error(w, http.StatusForbidden, "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
