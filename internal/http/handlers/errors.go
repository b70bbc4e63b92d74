package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hongminglow/lapse-be/internal/auth"
	"github.com/hongminglow/lapse-be/internal/http/respond"
	"github.com/hongminglow/lapse-be/internal/logger"
	"github.com/hongminglow/lapse-be/internal/models"
	"github.com/hongminglow/lapse-be/internal/models/dto"
	"github.com/hongminglow/lapse-be/internal/service"
)

const maxBodyBytes = 1 << 20

var errInvalidID = errors.New("invalid id")

// writeError maps service and auth errors onto the response envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, models.ErrInvalidDate), errors.Is(err, errInvalidID):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrConflict):
		respond.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		respond.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrNoToken), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		respond.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		respond.Error(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrNotFound):
		respond.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		logger.Errorf("%s %s timed out: %v", r.Method, r.URL.Path, err)
		respond.Error(w, http.StatusServiceUnavailable, "request timed out")
	default:
		logger.Errorf("%s %s failed: %v", r.Method, r.URL.Path, err)
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := dto.Decode(r.Body, v); err != nil && !errors.Is(err, io.EOF) {
		logger.Debugf("decode %s %s: %v", r.Method, r.URL.Path, err)
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// caller returns the claims placed by the Authenticate middleware.
func caller(r *http.Request) (auth.Claims, error) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return auth.Claims{}, auth.ErrNoToken
	}
	return claims, nil
}

func withTimeout(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), d)
}

// Guards wrap routes with access checks. Authenticated and Admin are
// required; Register panics without them. A nil RateLimited disables throttling.
type Guards struct {
	Authenticated func(http.Handler) http.Handler
	Admin         func(http.Handler) http.Handler
	RateLimited   func(http.Handler) http.Handler
}

func (g Guards) authenticated(h http.HandlerFunc) http.Handler {
	return required("Authenticated", g.Authenticated, h)
}

func (g Guards) admin(h http.HandlerFunc) http.Handler {
	return required("Admin", g.Admin, h)
}

func (g Guards) rateLimited(h http.HandlerFunc) http.Handler {
	if g.RateLimited == nil {
		return h
	}
	return g.RateLimited(h)
}

func required(name string, mw func(http.Handler) http.Handler, h http.HandlerFunc) http.Handler {
	if mw == nil {
		panic("handlers: Guards." + name + " must be set")
	}
	return mw(h)
}
