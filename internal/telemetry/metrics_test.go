package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestMetricsHandlerExposesCounters checks that incrementing a counter
// surfaces it in the /metrics exposition text.
func TestMetricsHandlerExposesCounters(t *testing.T) {
	m := NewMetrics("server-test-a")
	m.TunTx()
	m.TunTx()
	m.RxDropMAC()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "l2tun_tun_tx_total") {
		t.Fatalf("metrics output missing tun_tx counter:\n%s", body)
	}
	if !strings.Contains(body, "l2tun_rx_dropped_mac_total") {
		t.Fatalf("metrics output missing rx_dropped_mac counter:\n%s", body)
	}
}
