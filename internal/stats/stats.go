// Package stats tracks the tunnel's per-tick traffic counters and formats
// the periodic stats message the server pushes to the client, grounded on
// packet.c's pkt_print_stats.
package stats

import "fmt"

// Counters accumulates traffic and drop counts. The tun-tx, DNS and ARP
// counts cover the interval since the last Snapshot; the RxDrop* counts are
// cumulative, since Snapshot does not reset them. Every field is mutated only by the event loop goroutine, per the
// single-writer concurrency model the rest of the engine follows.
type Counters struct {
	TunTx           uint64
	TunTxCompressed uint64
	TunTxDropped    uint64

	DNS uint64
	ARP uint64

	RxDropAddr      uint64
	RxDropTimestamp uint64
	RxDropBlake2    uint64
}

// Snapshot is a point-in-time rendering of Counters: tx is a raw count,
// compressed is the percentage of tx that went out compressed, and dropped
// is a raw count, matching pkt_print_stats's own mixed units.
type Snapshot struct {
	TunTx         uint64
	CompressedPct int
	TunTxDropped  uint64
	DNS           uint64
	ARP           uint64
}

// Snapshot computes the compressed percentage and resets the tx/compressed/
// dropped counters to zero, matching pkt_print_stats's reset-after-read
// behaviour so each printed line reports only the most recent interval.
func (c *Counters) Snapshot() Snapshot {
	s := Snapshot{
		TunTx:        c.TunTx,
		TunTxDropped: c.TunTxDropped,
		DNS:          c.DNS,
		ARP:          c.ARP,
	}
	if c.TunTx > 0 {
		s.CompressedPct = int(c.TunTxCompressed * 100 / c.TunTx)
	}

	c.TunTx = 0
	c.TunTxCompressed = 0
	c.TunTxDropped = 0
	c.DNS = 0
	c.ARP = 0

	return s
}

// Format renders a Snapshot exactly as firetunnel's pkt_print_stats does:
// "<label>: tun tx/comp/drop <tx>/<comp>%/<drop>; DNS <dns>; ARP <arp>".
func Format(label string, s Snapshot) string {
	return fmt.Sprintf("%s: tun tx/comp/drop %d/%d%%/%d; DNS %d; ARP %d",
		label, s.TunTx, s.CompressedPct, s.TunTxDropped, s.DNS, s.ARP)
}
