package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hongminglow/lapse-be/internal/auth"
	"github.com/hongminglow/lapse-be/internal/http/respond"
	"github.com/hongminglow/lapse-be/internal/logger"
	"github.com/hongminglow/lapse-be/internal/models"
)

// Authenticate requires a valid bearer token and stores its claims in the
// request context. Requests without one never reach next.
func Authenticate(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearerToken(r)
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, err.Error())
				return
			}
			claims, err := tokens.Verify(raw)
			if err != nil {
				logger.Debugf("token rejected for %s %s: %v", r.Method, r.URL.Path, err)
				if errors.Is(err, auth.ErrExpiredToken) {
					respond.Error(w, http.StatusUnauthorized, auth.ErrExpiredToken.Error())
					return
				}
				respond.Error(w, http.StatusUnauthorized, auth.ErrInvalidToken.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole must run after Authenticate: missing claims answer 401, a
// different role answers 403.
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				respond.Error(w, http.StatusUnauthorized, auth.ErrNoToken.Error())
				return
			}
			if claims.Role != role {
				logger.Warningf("user %d with role %q denied %s %s", claims.UserID, claims.Role, r.Method, r.URL.Path)
				respond.Error(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Chain applies middlewares so that the first one listed runs first.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", auth.ErrNoToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", auth.ErrNoToken
	}
	return token, nil
}
