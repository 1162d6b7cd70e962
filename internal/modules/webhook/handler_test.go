package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/georgemunganga/precocerto-backend/internal/modules/analytics"
	"github.com/georgemunganga/precocerto-backend/internal/modules/user"
	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
)

var signingKey = []byte("0123456789abcdef0123456789abcdef")

func testSecret() string {
	return "whsec_" + base64.StdEncoding.EncodeToString(signingKey)
}

func sign(id string, ts time.Time, payload string) string {
	mac := hmac.New(sha256.New, signingKey)
	mac.Write([]byte(id + "." + strconv.FormatInt(ts.Unix(), 10) + "." + payload))
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

type syncRecorder struct {
	synced  []user.ExternalProfile
	deleted []string
	delErr  error
}

func (s *syncRecorder) SyncExternal(_ context.Context, p user.ExternalProfile) (*user.User, error) {
	s.synced = append(s.synced, p)
	return &user.User{ID: uuid.New(), Email: p.Email}, nil
}

func (s *syncRecorder) DeleteExternal(_ context.Context, externalID string) error {
	s.deleted = append(s.deleted, externalID)
	return s.delErr
}

func newWebhookRouter(t *testing.T, users UserSync) http.Handler {
	t.Helper()
	verifier, err := NewClerkVerifier(testSecret())
	require.NoError(t, err)
	r := chi.NewRouter()
	NewHandler(verifier, users, analytics.New(nil, ""), zap.NewNop()).RegisterRoutes(r)
	return r
}

func deliver(r http.Handler, payload string, signed bool) *httptest.ResponseRecorder {
	id := "msg_" + uuid.NewString()
	now := time.Now()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/clerk", strings.NewReader(payload))
	req.Header.Set("svix-id", id)
	req.Header.Set("svix-timestamp", strconv.FormatInt(now.Unix(), 10))
	if signed {
		req.Header.Set("svix-signature", sign(id, now, payload))
	} else {
		req.Header.Set("svix-signature", "v1,AAAA")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

const userCreated = `{"type":"user.created","data":{"id":"user_2abc","first_name":"Ana","last_name":"Souza",
"primary_email_address_id":"idn_2","email_addresses":[{"id":"idn_1","email_address":"old@example.com"},
{"id":"idn_2","email_address":"ana@example.com"}]}}`

func TestClerkUserCreated(t *testing.T) {
	users := &syncRecorder{}
	rec := deliver(newWebhookRouter(t, users), userCreated, true)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, users.synced, 1)
	assert.Equal(t, user.ExternalProfile{
		ExternalID: "user_2abc", Email: "ana@example.com", FirstName: "Ana", LastName: "Souza",
	}, users.synced[0])
}

func TestClerkRejectsBadSignature(t *testing.T) {
	users := &syncRecorder{}
	rec := deliver(newWebhookRouter(t, users), userCreated, false)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, users.synced)
}

func TestClerkRequiresSvixHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/clerk", strings.NewReader(userCreated))
	rec := httptest.NewRecorder()
	newWebhookRouter(t, &syncRecorder{}).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClerkUserDeletedIsIdempotent(t *testing.T) {
	users := &syncRecorder{delErr: apperr.NotFound("user")}
	rec := deliver(newWebhookRouter(t, users), `{"type":"user.deleted","data":{"id":"user_2abc","deleted":true}}`, true)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"user_2abc"}, users.deleted)
}

func TestClerkIgnoresOtherEvents(t *testing.T) {
	users := &syncRecorder{}
	rec := deliver(newWebhookRouter(t, users), `{"type":"session.created","data":{"id":"sess_1"}}`, true)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, users.synced)
	assert.Empty(t, users.deleted)
}

func TestClerkDisabledWithoutSecret(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil, &syncRecorder{}, analytics.New(nil, ""), zap.NewNop()).RegisterRoutes(r)
	rec := deliver(r, userCreated, true)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
