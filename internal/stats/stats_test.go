package stats

import "testing"

// TestSnapshotComputesCompressedPercentage checks the compressed-traffic
// percentage calculation and that dropped is reported as a raw count.
func TestSnapshotComputesCompressedPercentage(t *testing.T) {
	c := Counters{TunTx: 200, TunTxCompressed: 50, TunTxDropped: 3, DNS: 4, ARP: 5}
	s := c.Snapshot()

	if s.TunTx != 200 {
		t.Errorf("TunTx = %d, want 200", s.TunTx)
	}
	if s.CompressedPct != 25 {
		t.Errorf("CompressedPct = %d, want 25", s.CompressedPct)
	}
	if s.TunTxDropped != 3 {
		t.Errorf("TunTxDropped = %d, want 3", s.TunTxDropped)
	}
}

// TestSnapshotResetsCounters checks that taking a snapshot zeroes the
// interval counters, so the next snapshot reports only new traffic.
func TestSnapshotResetsCounters(t *testing.T) {
	c := Counters{TunTx: 10, TunTxCompressed: 5, TunTxDropped: 1, DNS: 2, ARP: 3}
	_ = c.Snapshot()

	if c.TunTx != 0 || c.TunTxCompressed != 0 || c.TunTxDropped != 0 || c.DNS != 0 || c.ARP != 0 {
		t.Fatalf("counters not reset after Snapshot: %+v", c)
	}
}

// TestSnapshotZeroTraffic checks that a zero-tx interval doesn't divide by
// zero computing the compressed percentage.
func TestSnapshotZeroTraffic(t *testing.T) {
	c := Counters{}
	s := c.Snapshot()
	if s.CompressedPct != 0 {
		t.Errorf("CompressedPct = %d, want 0 for zero traffic", s.CompressedPct)
	}
}

// TestFormatMatchesFiretunnelLayout checks the exact printed stats line
// layout: "label: tun tx/comp/drop tx/comp%/drop; DNS n; ARP n".
func TestFormatMatchesFiretunnelLayout(t *testing.T) {
	got := Format("server", Snapshot{TunTx: 100, CompressedPct: 40, TunTxDropped: 2, DNS: 1, ARP: 0})
	want := "server: tun tx/comp/drop 100/40%/2; DNS 1; ARP 0"
	if got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
}
