package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/precocerto-backend/internal/modules/user"
	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
	"github.com/georgemunganga/precocerto-backend/internal/platform/session"
)

type userStub struct {
	user.Repository
	byEmail map[string]*user.User
}

func (s userStub) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("user")
}

func newAuthService(t *testing.T) (Service, *user.User) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("segredo123"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &user.User{ID: uuid.New(), Email: "ana@example.com", PasswordHash: string(hash)}
	repo := userStub{byEmail: map[string]*user.User{u.Email: u}}
	return NewService(repo, "test-secret", time.Hour), u
}

func TestLoginIssuesParsableToken(t *testing.T) {
	svc, u := newAuthService(t)

	token, err := svc.Login(context.Background(), " ANA@example.com ", "segredo123")
	require.NoError(t, err)

	id, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Login(context.Background(), "ana@example.com", "errada")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = svc.Login(context.Background(), "ninguem@example.com", "segredo123")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestParseTokenRejectsForeignAndExpiredTokens(t *testing.T) {
	svc, u := newAuthService(t)
	other := NewService(userStub{}, "another-secret", time.Hour)

	foreign, err := other.IssueToken(u.ID)
	require.NoError(t, err)
	_, err = svc.ParseToken(foreign)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	expired := &service{jwtKey: []byte("test-secret"), ttl: time.Minute, now: func() time.Time {
		return time.Now().Add(-time.Hour)
	}}
	old, err := expired.IssueToken(u.ID)
	require.NoError(t, err)
	_, err = svc.ParseToken(old)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

type adminStub struct {
	admins map[uuid.UUID]bool
	err    error
}

func (a adminStub) IsAdmin(_ context.Context, id uuid.UUID) (bool, error) {
	return a.admins[id], a.err
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	id, _ := session.UserID(r.Context())
	w.Write([]byte(id.String()))
}

func TestRequireSession(t *testing.T) {
	svc, u := newAuthService(t)
	mw := NewMiddleware(svc, adminStub{}, zap.NewNop())
	h := mw.RequireSession(http.HandlerFunc(echoUser))
	token, err := svc.IssueToken(u.ID)
	require.NoError(t, err)

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, u.ID.String(), rec.Body.String())
	})

	t.Run("cookie is not a credential", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: token})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	svc, _ := newAuthService(t)
	admin, member := uuid.New(), uuid.New()

	serve := func(checker AdminChecker, id *uuid.UUID) int {
		h := NewMiddleware(svc, checker, zap.NewNop()).RequireAdmin(http.HandlerFunc(echoUser))
		req := httptest.NewRequest(http.MethodGet, "/api/admin/contributions", nil)
		if id != nil {
			req = req.WithContext(session.WithUserID(req.Context(), *id))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	roles := adminStub{admins: map[uuid.UUID]bool{admin: true}}
	assert.Equal(t, http.StatusOK, serve(roles, &admin))
	assert.Equal(t, http.StatusForbidden, serve(roles, &member))
	assert.Equal(t, http.StatusUnauthorized, serve(roles, nil))
	// A failing role store denies, even for a real admin.
	assert.Equal(t, http.StatusForbidden, serve(adminStub{admins: roles.admins, err: errors.New("db down")}, &admin))
}
