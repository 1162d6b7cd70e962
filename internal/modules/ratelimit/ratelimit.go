package ratelimit

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/georgemunganga/precocerto-backend/internal/platform/httpx"
	"github.com/georgemunganga/precocerto-backend/internal/platform/metrics"
	"github.com/georgemunganga/precocerto-backend/internal/platform/session"
)

// Options configures the window a subject is counted over and how long it is
// blocked once MaxAttempts is exceeded.
type Options struct {
	MaxAttempts int
	Window      time.Duration
	Block       time.Duration
}

func DefaultOptions() Options {
	return Options{MaxAttempts: 10, Window: 60 * time.Minute, Block: 30 * time.Minute}
}

func (o Options) withDefaults(d Options) Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = d.MaxAttempts
	}
	if o.Window <= 0 {
		o.Window = d.Window
	}
	if o.Block <= 0 {
		o.Block = d.Block
	}
	return o
}

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	Message    string
}

// Counter is the remote procedure that owns the counting and windowing.
type Counter interface {
	CheckRateLimit(ctx context.Context, key string, opts Options) (Decision, error)
}

type Gate struct {
	counter  Counter
	defaults Options
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewGate(counter Counter, defaults Options, m *metrics.Metrics, log *zap.Logger) *Gate {
	return &Gate{
		counter:  counter,
		defaults: defaults.withDefaults(DefaultOptions()),
		metrics:  m,
		log:      log,
	}
}

// Check reports whether subject may call endpoint. Errors from the counter
// allow the call.
func (g *Gate) Check(ctx context.Context, endpoint, subject string, opts Options) Decision {
	opts = opts.withDefaults(g.defaults)
	key := "ratelimit:" + endpoint + ":" + subject

	d, err := g.counter.CheckRateLimit(ctx, key, opts)
	if err != nil {
		g.log.Warn("rate limit check failed, allowing request",
			zap.String("endpoint", endpoint), zap.Error(err))
		return Decision{Allowed: true}
	}
	if !d.Allowed {
		if d.RetryAfter <= 0 {
			d.RetryAfter = opts.Block
		}
		d.Message = blockedMessage(d.RetryAfter)
		g.metrics.RateLimitDenied.WithLabelValues(endpoint).Inc()
	}
	return d
}

func blockedMessage(cooldown time.Duration) string {
	minutes := int(math.Ceil(cooldown.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("Muitas tentativas. Tente novamente em %d minutos.", minutes)
}

// Middleware limits endpoint per authenticated user, or per peer address when
// the request carries no session.
func (g *Gate) Middleware(endpoint string, opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.Check(r.Context(), endpoint, subjectOf(r), opts)
			if !d.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(d.RetryAfter.Seconds())))
				httpx.RespondMessage(w, http.StatusTooManyRequests, d.Message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// subjectOf keys anonymous callers on the connection's peer address only.
// Forwarding headers are honoured upstream by httpx.TrustedRealIP for
// configured proxies.
func subjectOf(r *http.Request) string {
	if id, ok := session.UserID(r.Context()); ok {
		return "uid:" + id.String()
	}
	return "ip:" + httpx.RemoteHost(r.RemoteAddr)
}
