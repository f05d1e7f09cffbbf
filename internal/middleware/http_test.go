package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticChecker map[string]bool

func (c staticChecker) IsAdmin(username string) bool {
	return c[strings.ToLower(username)]
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRecovery(t *testing.T) {
	h := Recovery(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plugs", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestRequestLogging_AssignsRequestID(t *testing.T) {
	var seen string
	h := RequestLogging(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestRequestLogging_KeepsValidIncomingID(t *testing.T) {
	id := uuid.NewString()
	h := RequestLogging(zap.NewNop())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(RequestIDHeader))
}

func TestAdminOnly(t *testing.T) {
	checker := staticChecker{"lemiel_admin": true}
	h := AdminOnly(checker, zap.NewNop())(okHandler())

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"администратор", "lemiel_admin", http.StatusNoContent},
		{"с @ и регистром", "@Lemiel_Admin", http.StatusNoContent},
		{"чужой", "stranger", http.StatusForbidden},
		{"без заголовка", "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/logs", nil)
			if tt.header != "" {
				req.Header.Set(UsernameHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func sendFrom(h http.Handler, addr, user string) int {
	req := httptest.NewRequest(http.MethodPost, "/reviews", nil)
	req.RemoteAddr = addr
	if user != "" {
		req.Header.Set(UsernameHeader, user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(1, time.Hour, zap.NewNop())
	h := RateLimit(limiter, zap.NewNop())(okHandler())

	assert.Equal(t, http.StatusNoContent, sendFrom(h, "10.0.0.1:4000", "marie"))
	assert.Equal(t, http.StatusTooManyRequests, sendFrom(h, "10.0.0.1:4001", "marie"))
	assert.Equal(t, http.StatusNoContent, sendFrom(h, "10.0.0.2:4000", ""))
	assert.Equal(t, http.StatusTooManyRequests, sendFrom(h, "10.0.0.2:4000", ""))
}

func TestRateLimit_HeaderDoesNotResetLimit(t *testing.T) {
	limiter := NewRateLimiter(2, time.Hour, zap.NewNop())
	h := RateLimit(limiter, zap.NewNop())(okHandler())

	tests := []struct {
		name string
		addr string
		user string
		want int
	}{
		{"первый запрос", "10.0.0.1:4000", "marie", http.StatusNoContent},
		{"другое имя, тот же адрес", "10.0.0.1:4001", "paul", http.StatusNoContent},
		{"третье имя, тот же адрес", "10.0.0.1:4002", "jeanne", http.StatusTooManyRequests},
		{"без заголовка, тот же адрес", "10.0.0.1:4003", "", http.StatusTooManyRequests},
		{"то же имя с другого адреса", "10.0.0.9:4000", "marie", http.StatusNoContent},
		{"имя исчерпано с третьего адреса", "10.0.0.8:4000", "marie", http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sendFrom(h, tt.addr, tt.user), tt.name)
	}
}

func TestClientKeys(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, []string{"ip:10.0.0.1"}, ClientKeys(req))

	req.Header.Set(UsernameHeader, "@marie")
	assert.Equal(t, []string{"ip:10.0.0.1", "user:marie"}, ClientKeys(req))
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(okHandler(), mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

type recordedRequest struct {
	status   int
	duration time.Duration
}

type fakeRequestRecorder struct {
	requests []recordedRequest
}

func (f *fakeRequestRecorder) RecordRequest(status int, duration time.Duration) {
	f.requests = append(f.requests, recordedRequest{status: status, duration: duration})
}

func TestMetrics_RecordsStatus(t *testing.T) {
	recorder := &fakeRequestRecorder{}

	h := Metrics(recorder)(okHandler())
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/plugs", nil))

	implicit := Metrics(recorder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	implicit.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Len(t, recorder.requests, 2)
	assert.Equal(t, http.StatusNoContent, recorder.requests[0].status)
	assert.Equal(t, http.StatusOK, recorder.requests[1].status)
}
