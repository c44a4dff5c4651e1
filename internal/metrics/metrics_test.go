package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCountsLifecycle(t *testing.T) {
	rec := NewRecorder()
	rec.OnAttempt("products", 1)
	rec.OnRetry("products", 1, 100*time.Millisecond, errors.New("network error"))
	rec.OnAttempt("products", 2)
	rec.OnDone("products", 2, nil)

	rec.OnAttempt("product", 1)
	rec.OnDone("product", 1, errors.New("validation failed"))

	assert.InDelta(t, 2, testutil.ToFloat64(rec.attempts.WithLabelValues("products")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(rec.retries.WithLabelValues("products", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(rec.outcomes.WithLabelValues("products", OutcomeSuccess, "none")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(rec.outcomes.WithLabelValues("product", OutcomeFailure, "permanent")), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(rec.perCall))
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "none", errorCode(nil))
	assert.Equal(t, "error", errorCode(errors.New("x")))
	assert.Equal(t, "5xx", errorCode(statusErr(502)))
	assert.Equal(t, "4xx", errorCode(statusErr(404)))
}

type statusErr int

func (e statusErr) Error() string   { return "status" }
func (e statusErr) StatusCode() int { return int(e) }

func TestServerExposesMetrics(t *testing.T) {
	rec := NewRecorder()
	rec.OnAttempt("products", 1)

	srv := NewServer(rec, ":0")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `storekit_remote_attempts_total{operation="products"} 1`), body)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
