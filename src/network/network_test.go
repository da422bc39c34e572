package network

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"telemetry-viewer/src/logger"
	"telemetry-viewer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager() *NetworkManager {
	cfg := &models.MConfig{Network: models.MNetworkConfig{RequestTimeout: 2, UserAgent: "viewer-test"}}
	return NewNetworkManager(cfg, logger.NewLoggerWithWriter(io.Discard, "test", logger.LevelError))
}

func TestGetSendsParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc", r.URL.Query().Get("clientId"))
		assert.Equal(t, "1", r.URL.Query().Get("keep"))
		assert.Equal(t, "viewer-test", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	status, body, err := newManager().Get(context.Background(), srv.URL+"/presign?keep=1", map[string]string{"clientId": "abc"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestGetDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	status, body, err := newManager().Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, string(body), "boom")
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, err := newManager().Get(ctx, srv.URL, nil)
	assert.Error(t, err)
}

func TestGetInvalidURL(t *testing.T) {
	_, _, err := newManager().Get(context.Background(), "://bad", nil)
	assert.Error(t, err)
}
