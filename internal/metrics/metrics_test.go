package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAnswer(t *testing.T) {
	m := New()
	m.RecordAnswer("summary", 3, 10*time.Millisecond)
	m.RecordAnswer("summary", 1, time.Millisecond)
	m.RecordAnswer("", 0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.answersTotal.WithLabelValues("summary")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.answersTotal.WithLabelValues("unknown")))
}

func TestRecordCorpusLoad(t *testing.T) {
	m := New()
	m.RecordCorpusLoad(42, nil)
	m.RecordCorpusLoad(0, errors.New("boom"))

	assert.Equal(t, 42.0, testutil.ToFloat64(m.corpusChunks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.corpusReloads.WithLabelValues("error")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), "/ask")
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ask", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestTotal.WithLabelValues("GET", "/ask", "418")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "asknehru_http_requests_total")
}

func TestMiddleware_UnknownPathsShareOneLabel(t *testing.T) {
	m := New()
	h := m.Middleware(http.NotFoundHandler(), "/ask", "/search")
	for _, p := range []string{"/wp-admin", "/random/123", "/ask/extra"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.requestTotal.WithLabelValues("GET", "other", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestTotal))
}
