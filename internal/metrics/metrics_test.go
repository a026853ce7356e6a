package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCall(t *testing.T) {
	c := NewCollector(false)

	c.ObserveCall("set_price", true, 3, 2*time.Millisecond)
	c.ObserveCall("set_price", false, 0, time.Millisecond)
	c.ObserveCall("price", false, 0, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.calls.WithLabelValues("set_price", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.calls.WithLabelValues("set_price", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.calls.WithLabelValues("price", "false")))
}

func TestRequestStarted(t *testing.T) {
	c := NewCollector(false)

	done := c.RequestStarted("twap")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.inFlight))
	done("success")
	assert.Equal(t, 0.0, testutil.ToFloat64(c.inFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("twap", "success")))

	c.RequestStarted("")("error")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("unknown", "error")))
}

func TestChargesAndFeeder(t *testing.T) {
	c := NewCollector(false)

	c.ObserveCharge("x_prices", 6)
	c.ObserveCharge("x_prices", 0)
	c.ObserveCharge("x_prices", 2)
	assert.Equal(t, 8.0, testutil.ToFloat64(c.chargedUnits.WithLabelValues("x_prices")))

	c.ObserveFeederRun(true, 3, 1_700_000_100)
	c.ObserveFeederRun(false, 0, 0)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.feederRuns.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.feederRuns.WithLabelValues("failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.feederPriced))
	assert.Equal(t, 1_700_000_100.0, testutil.ToFloat64(c.feederLast))
}

func TestHandler(t *testing.T) {
	c := NewCollector(true)
	c.ObserveCall("config", true, 5, time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `oracled_host_calls_total{committed="true",op="config"} 1`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
