package auth

import (
	"testing"

	"github.com/shadowmesh/l2tun/internal/keys"
)

func testDict(t *testing.T) *keys.Dictionary {
	t.Helper()
	d, err := keys.Derive([]byte("shared secret for testing"), 7000)
	if err != nil {
		t.Fatalf("keys.Derive: %v", err)
	}
	return d
}

// TestVerifyRoundTrip checks that a MAC computed by Compute is accepted by
// Verify with the same inputs.
func TestVerifyRoundTrip(t *testing.T) {
	d := testDict(t)
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}

	mac, err := Compute(d, 42, 1000, data)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !Verify(d, 42, 1000, data, mac[:]) {
		t.Fatalf("Verify rejected a MAC it just computed")
	}
}

// TestVerifyRejectsTamperedPayload checks that flipping a single payload
// byte invalidates the MAC, the core property that lets a receiver drop a
// forged or corrupted packet.
func TestVerifyRejectsTamperedPayload(t *testing.T) {
	d := testDict(t)
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}

	mac, err := Compute(d, 42, 1000, data)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	tampered := append([]byte(nil), data...)
	tampered[2] ^= 0xFF

	if Verify(d, 42, 1000, tampered, mac[:]) {
		t.Fatalf("Verify accepted a tampered payload")
	}
}

// TestVerifyRejectsWrongKeyIndex checks that a MAC computed under one
// (seq, timestamp) key index is rejected when verified under another, since
// an attacker replaying an old packet with a new header must not pass.
func TestVerifyRejectsWrongKeyIndex(t *testing.T) {
	d := testDict(t)
	data := []byte("hello")

	mac, err := Compute(d, 1, 0, data)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if Verify(d, 2, 0, data, mac[:]) {
		t.Fatalf("Verify accepted a MAC computed under a different key index")
	}
}

// TestVerifyRejectsShortMAC checks that a truncated tag is rejected rather
// than causing a panic or partial comparison.
func TestVerifyRejectsShortMAC(t *testing.T) {
	d := testDict(t)
	if Verify(d, 1, 1, []byte("data"), []byte{0x01, 0x02}) {
		t.Fatalf("Verify accepted a short MAC")
	}
}

// TestSelectIndexWraps checks that the key index rotation wraps at KeyMax,
// matching firetunnel's "(seq+timestamp) % KEY_MAX" selection rule.
func TestSelectIndexWraps(t *testing.T) {
	got := SelectIndex(0, keys.KeyMax+5)
	if got != 5 {
		t.Errorf("SelectIndex(0, KeyMax+5) = %d, want 5", got)
	}
}
