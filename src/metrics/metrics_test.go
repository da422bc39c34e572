package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := NewMetrics()

	m.Drop(DropPaused)
	m.Drop(DropPaused)
	m.Drop(DropDecode)
	m.Transition("connected")
	m.Presign(nil)
	m.Presign(errors.New("boom"))
	m.ActiveSeries.Set(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.MessagesDropped.WithLabelValues(DropPaused)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesDropped.WithLabelValues(DropDecode)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("connected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PresignRequests.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PresignRequests.WithLabelValues("error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ActiveSeries))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.MessagesReceived.Inc()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "telemetry_viewer_messages_received_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestRegistriesAreIndependent(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()
	a.SamplesAppended.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.SamplesAppended))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.SamplesAppended))
}
