package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lemiel/internal/middleware"
	"lemiel/internal/model"
)

var fastRetry = RetryConfig{
	MaxRetries:        2,
	InitialDelay:      time.Millisecond,
	MaxDelay:          5 * time.Millisecond,
	BackoffMultiplier: 2,
}

func TestClient_GetIsRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode([]model.Plug{{ID: 1, Name: "A"}})
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Retry: fastRetry}, zap.NewNop())
	plugs, err := c.UniquePlugs(context.Background())
	require.NoError(t, err)
	assert.Len(t, plugs, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_GetGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Retry: fastRetry}, zap.NewNop())
	_, err := c.Plugs(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_NotFoundIsNotRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"plug \"9\" not found"}`))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Retry: fastRetry}, zap.NewNop())
	_, err := c.Plug(context.Background(), 9)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, `plug "9" not found`, apiErr.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_MutationsAreNotRetried(t *testing.T) {
	var calls int32
	var gotUser, gotMethod, gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		gotUser = r.Header.Get(middleware.UsernameHeader)
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL + "/", Username: "lemiel_admin", Retry: fastRetry}, zap.NewNop())
	_, err := c.ApproveReview(context.Background(), 42)
	require.Error(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "lemiel_admin", gotUser)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/reviews/42/approve", gotPath)
}

func TestClient_ExportReturnsRawBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"plugs":{}}`))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Retry: fastRetry}, zap.NewNop())
	data, err := c.Export(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"plugs":{}}`, string(data))
}

func TestClient_ClearLogsNoContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL}, zap.NewNop())
	assert.NoError(t, c.ClearLogs(context.Background()))
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := WithRetry(ctx, zap.NewNop(), fastRetry, func() error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}
