package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	t.Run("Counts", func(t *testing.T) {
		m := New()
		m.UnlockRequest("success")
		m.Settled("CAPTURED", 350)
		m.Settled("CAPTURED", 200)
		m.Dropped("unauthenticated")
		m.GatewayCall("capture", errors.New("declined"), 20*time.Millisecond)

		assert.Equal(t, 1.0, testutil.ToFloat64(m.UnlockRequestsTotal.WithLabelValues("success")))
		assert.Equal(t, 2.0, testutil.ToFloat64(m.SettlementsTotal.WithLabelValues("CAPTURED")))
		assert.Equal(t, 550.0, testutil.ToFloat64(m.SettledAmountTotal.WithLabelValues("CAPTURED")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.DroppedMessagesTotal.WithLabelValues("unauthenticated")))
		assert.Equal(t, 1, testutil.CollectAndCount(m.GatewayDuration))
	})

	t.Run("Nil Is Safe", func(t *testing.T) {
		var m *Metrics
		assert.NotPanics(t, func() {
			m.UnlockRequest("success")
			m.Settled("CAPTURED", 1)
			m.Dropped("stale")
			m.WeightMismatch("veto")
			m.GatewayCall("cancel", nil, time.Millisecond)
		})
	})

	t.Run("Handler", func(t *testing.T) {
		m := New()
		m.Dropped("malformed")

		rr := httptest.NewRecorder()
		m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `kiosk_dropped_messages_total{reason="malformed"} 1`)
	})
}
