package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
	"github.com/georgemunganga/precocerto-backend/internal/platform/httpx"
	"github.com/georgemunganga/precocerto-backend/internal/platform/session"
)

// AdminChecker answers whether a user holds the admin role.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

type Middleware struct {
	service Service
	admins  AdminChecker
	log     *zap.Logger
}

func NewMiddleware(service Service, admins AdminChecker, log *zap.Logger) *Middleware {
	return &Middleware{service: service, admins: admins, log: log}
}

// RequireSession rejects requests without a valid bearer token and stores the
// caller's ID in the request context. Cookies are never read.
func (m *Middleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			httpx.Error(w, m.log, apperr.ErrUnauthorized)
			return
		}
		userID, err := m.service.ParseToken(token)
		if err != nil {
			httpx.Error(w, m.log, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(session.WithUserID(r.Context(), userID)))
	})
}

// RequireAdmin must run after RequireSession. Any failure to confirm the role
// denies the request.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := session.UserID(r.Context())
		if !ok {
			httpx.Error(w, m.log, apperr.ErrUnauthorized)
			return
		}
		isAdmin, err := m.admins.IsAdmin(r.Context(), userID)
		if err != nil {
			m.log.Error("admin check failed", zap.Stringer("user_id", userID), zap.Error(err))
			httpx.Error(w, m.log, apperr.ErrForbidden)
			return
		}
		if !isAdmin {
			httpx.Error(w, m.log, apperr.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
