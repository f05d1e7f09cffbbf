package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error { return f.err }
func (f fakePinger) Backend() string            { return "memory" }

func TestServer_Endpoints(t *testing.T) {
	tests := []struct {
		name    string
		backend Pinger
		path    string
		want    int
		status  string
	}{
		{"health ok", fakePinger{}, "/health", http.StatusOK, "healthy"},
		{"health down", fakePinger{err: errors.New("timeout")}, "/health", http.StatusServiceUnavailable, "unhealthy"},
		{"ready ok", fakePinger{}, "/ready", http.StatusOK, "ready"},
		{"ready без хранилища", nil, "/ready", http.StatusServiceUnavailable, "not ready"},
		{"live всегда", fakePinger{err: errors.New("timeout")}, "/live", http.StatusOK, "alive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer("0", zap.NewNop(), tt.backend)

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), `"status":"`+tt.status+`"`)
		})
	}
}

type fakeStats map[string]interface{}

func (f fakeStats) GetStats() map[string]interface{} { return f }

func TestServer_Metrics(t *testing.T) {
	s := NewServer("0", zap.NewNop(), fakePinger{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.SetStats(fakeStats{"plugs": 4})

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"plugs":4}`, rec.Body.String())
}
