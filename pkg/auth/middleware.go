package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gusttavosants/StarWars/pkg/apperr"
)

type contextKey string

const userContextKey contextKey = "user"

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated subject, if any.
func UserFromContext(ctx context.Context) (string, bool) {
	user, ok := ctx.Value(userContextKey).(string)
	return user, ok && user != ""
}

// UserOf returns the request's subject or "" for anonymous requests.
func UserOf(r *http.Request) string {
	user, _ := UserFromContext(r.Context())
	return user
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// DenyFunc writes the response for a rejected request.
type DenyFunc func(w http.ResponseWriter, r *http.Request, err error)

// InvalidTokenFunc observes a request that presented a bad token.
type InvalidTokenFunc func(r *http.Request, err error)

// OptionalUser attaches the bearer token's subject to the request context.
// Missing or invalid tokens are treated as anonymous; onInvalid, when
// non-nil, is notified of invalid tokens but cannot reject the request.
func OptionalUser(m *JWTManager, logger zerolog.Logger, onInvalid InvalidTokenFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok || m == nil {
				next.ServeHTTP(w, r)
				return
			}

			subject, err := m.SubjectFromToken(token)
			if err != nil {
				logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Ignoring invalid bearer token")
				if onInvalid != nil {
					onInvalid(r, err)
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), subject)))
		})
	}
}

// RequireUser rejects anonymous requests through deny.
func RequireUser(deny DenyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserFromContext(r.Context()); !ok {
				deny(w, r, apperr.Unauthorized("authentication required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
