package telemetry

import (
	"net/http"

	"github.com/VictoriaMetrics/metrics"
)

// Metrics exposes the tunnel's counters in Prometheus/VictoriaMetrics
// exposition format, grounded on the metrics-naming helper in
// R2Northstar-Atlas's pkg/metricsx.
type Metrics struct {
	set *metrics.Set

	tunTx       *metrics.Counter
	tunTxDrop   *metrics.Counter
	rxDropAddr  *metrics.Counter
	rxDropMAC   *metrics.Counter
	rxDropClock *metrics.Counter
	connects    *metrics.Counter
	disconnects *metrics.Counter
}

// NewMetrics registers a fresh counter set labeled by role ("server" or
// "client") so a server and client running in the same process (as in
// tests) don't collide on metric names.
func NewMetrics(role string) *Metrics {
	set := metrics.NewSet()
	label := `{role="` + role + `"}`

	m := &Metrics{
		set:         set,
		tunTx:       set.NewCounter("l2tun_tun_tx_total" + label),
		tunTxDrop:   set.NewCounter("l2tun_tun_tx_dropped_total" + label),
		rxDropAddr:  set.NewCounter("l2tun_rx_dropped_addr_total" + label),
		rxDropMAC:   set.NewCounter("l2tun_rx_dropped_mac_total" + label),
		rxDropClock: set.NewCounter("l2tun_rx_dropped_timestamp_total" + label),
		connects:    set.NewCounter("l2tun_connects_total" + label),
		disconnects: set.NewCounter("l2tun_disconnects_total" + label),
	}
	return m
}

func (m *Metrics) TunTx()       { m.tunTx.Inc() }
func (m *Metrics) TunTxDrop()   { m.tunTxDrop.Inc() }
func (m *Metrics) RxDropAddr()  { m.rxDropAddr.Inc() }
func (m *Metrics) RxDropMAC()   { m.rxDropMAC.Inc() }
func (m *Metrics) RxDropClock() { m.rxDropClock.Inc() }
func (m *Metrics) Connect()     { m.connects.Inc() }
func (m *Metrics) Disconnect()  { m.disconnects.Inc() }

// Handler returns an http.Handler serving this set's metrics at /metrics.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.set.WritePrometheus(w)
	})
}
