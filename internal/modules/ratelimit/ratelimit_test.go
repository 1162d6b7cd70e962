package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/georgemunganga/precocerto-backend/internal/platform/metrics"
)

type fakeCounter struct {
	decision Decision
	err      error
	keys     []string
	opts     []Options
}

func (f *fakeCounter) CheckRateLimit(_ context.Context, key string, opts Options) (Decision, error) {
	f.keys = append(f.keys, key)
	f.opts = append(f.opts, opts)
	return f.decision, f.err
}

func newGate(c Counter) *Gate {
	return NewGate(c, Options{}, metrics.New(), zap.NewNop())
}

func TestCheckFailsOpen(t *testing.T) {
	g := newGate(&fakeCounter{err: errors.New("redis: connection refused")})

	d := g.Check(context.Background(), "product-prices", "uid:1", Options{})
	assert.True(t, d.Allowed)
	assert.Empty(t, d.Message)
}

func TestCheckAppliesDefaults(t *testing.T) {
	c := &fakeCounter{decision: Decision{Allowed: true, Remaining: 9}}
	g := newGate(c)

	d := g.Check(context.Background(), "auth", "ip:10.0.0.1", Options{MaxAttempts: 3})
	assert.True(t, d.Allowed)
	require.Len(t, c.opts, 1)
	assert.Equal(t, 3, c.opts[0].MaxAttempts)
	assert.Equal(t, 60*time.Minute, c.opts[0].Window)
	assert.Equal(t, 30*time.Minute, c.opts[0].Block)
	assert.Equal(t, "ratelimit:auth:ip:10.0.0.1", c.keys[0])
}

func TestCheckDeniedCarriesCooldown(t *testing.T) {
	g := newGate(&fakeCounter{decision: Decision{Allowed: false, RetryAfter: 29*time.Minute + 10*time.Second}})

	d := g.Check(context.Background(), "product-prices", "uid:1", Options{})
	assert.False(t, d.Allowed)
	assert.Equal(t, "Muitas tentativas. Tente novamente em 30 minutos.", d.Message)
}

func TestCheckDeniedWithoutRetryUsesBlock(t *testing.T) {
	g := newGate(&fakeCounter{decision: Decision{Allowed: false}})

	d := g.Check(context.Background(), "auth", "ip:1", Options{Block: 5 * time.Minute})
	assert.Equal(t, 5*time.Minute, d.RetryAfter)
	assert.Contains(t, d.Message, "5 minutos")
}

func TestMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	t.Run("denied", func(t *testing.T) {
		c := &fakeCounter{decision: Decision{Allowed: false, RetryAfter: 2 * time.Minute}}
		h := newGate(c).Middleware("auth", Options{})(ok)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "192.0.2.7:51234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "120", rec.Header().Get("Retry-After"))
		assert.Contains(t, rec.Body.String(), "2 minutos")
		assert.Equal(t, "ratelimit:auth:ip:192.0.2.7", c.keys[0])
	})

	t.Run("forwarding headers do not change the key", func(t *testing.T) {
		c := &fakeCounter{decision: Decision{Allowed: true}}
		h := newGate(c).Middleware("auth", Options{})(ok)

		for _, xff := range []string{"10.0.0.0", "10.0.0.1", "10.0.0.2"} {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
			req.RemoteAddr = "203.0.113.9:40000"
			req.Header.Set("X-Forwarded-For", xff)
			req.Header.Set("X-Real-IP", xff)
			h.ServeHTTP(httptest.NewRecorder(), req)
		}
		assert.Equal(t, []string{
			"ratelimit:auth:ip:203.0.113.9",
			"ratelimit:auth:ip:203.0.113.9",
			"ratelimit:auth:ip:203.0.113.9",
		}, c.keys)
	})

	t.Run("counter down", func(t *testing.T) {
		h := newGate(&fakeCounter{err: errors.New("timeout")}).Middleware("auth", Options{})(ok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
