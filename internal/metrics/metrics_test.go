package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Post("/upload", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadRequest) })

	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/upload", nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/upload", "400", "POST")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("unmatched", "404", "GET")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inflight))
}

func TestHandler_Exposes(t *testing.T) {
	m := New()
	NewStorageMetrics(m.Registry()).Observe("upload", 10, nil, time.Millisecond)
	NewCompositeMetrics(m.Registry()).ObserveGeneration("ok", 3, time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `flipbook_storage_bytes_total{op="upload"} 10`))
	assert.True(t, strings.Contains(body, `flipbook_composite_generations_total{result="ok"} 1`))
}

func TestStorageMetrics_Observe(t *testing.T) {
	sm := NewStorageMetrics(New().Registry())

	sm.Observe("download", 100, nil, time.Millisecond)
	sm.Observe("download", 0, errors.New("boom"), time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(sm.ops.WithLabelValues("download", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sm.ops.WithLabelValues("download", "error")))
	assert.Equal(t, 100.0, testutil.ToFloat64(sm.bytes.WithLabelValues("download")))
}

func TestCompositeMetrics_Observe(t *testing.T) {
	cm := NewCompositeMetrics(New().Registry())

	cm.ObserveGeneration("ok", 4, time.Second)
	cm.ObserveGeneration("decode", 0, time.Second)
	cm.ObserveGeneration("decode", 0, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(cm.generations.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(cm.generations.WithLabelValues("decode")))
}
