package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrustedRealIP(t *testing.T) {
	var seen string
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { seen = r.RemoteAddr })

	mw, err := TrustedRealIP([]string{"10.1.0.0/16", "192.0.2.1"})
	require.NoError(t, err)
	h := mw(echo)

	tests := []struct {
		name   string
		remote string
		want   string
	}{
		{"untrusted peer keeps its address", "203.0.113.9:40000", "203.0.113.9:40000"},
		{"trusted cidr", "10.1.4.2:5000", "198.51.100.7"},
		{"trusted single address", "192.0.2.1:5000", "198.51.100.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			req.Header.Set("X-Forwarded-For", "198.51.100.7")
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, seen)
		})
	}
}

func TestTrustedRealIPWithoutProxiesIgnoresHeaders(t *testing.T) {
	var seen string
	mw, err := TrustedRealIP(nil)
	require.NoError(t, err)
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { seen = r.RemoteAddr }))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:40000"
	req.Header.Set("X-Real-IP", "10.0.0.1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "203.0.113.9:40000", seen)
}

func TestTrustedRealIPRejectsBadEntries(t *testing.T) {
	_, err := TrustedRealIP([]string{"not-an-ip"})
	assert.Error(t, err)
}
