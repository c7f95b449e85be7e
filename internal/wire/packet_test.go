package wire

import (
	"bytes"
	"testing"

	"github.com/shadowmesh/l2tun/internal/keys"
	"github.com/shadowmesh/l2tun/internal/scramble"
)

func testDict(t *testing.T) *keys.Dictionary {
	t.Helper()
	d, err := keys.Derive([]byte("packet pipeline test secret"), 8000)
	if err != nil {
		t.Fatalf("keys.Derive: %v", err)
	}
	return d
}

// TestBuildValidateRoundTrip checks that a packet built by Build passes
// Validate and yields back the original header and payload.
func TestBuildValidateRoundTrip(t *testing.T) {
	d := testDict(t)
	payload := []byte("ethernet frame bytes go here")

	h := Header{Opcode: OpData, Seq: 10, Timestamp: 1_700_000_000}
	buf := make([]byte, HeaderLen+len(payload)+MACLen)
	n, err := Build(d, h, append([]byte(nil), payload...), buf)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	buf = buf[:n]

	gotHeader, gotPayload, reason := Validate(d, buf, h.Timestamp, 30, true)
	if reason != DropNone {
		t.Fatalf("Validate dropped the packet: %s", reason)
	}
	if gotHeader.Opcode != OpData || gotHeader.Seq != 10 {
		t.Fatalf("Validate returned header %+v", gotHeader)
	}

	// The returned payload is still scrambled; descramble it the same way
	// the engine would before comparing against the original.
	if err := scramble.Apply(d, gotHeader.Seq, gotHeader.Timestamp, gotPayload); err != nil {
		t.Fatalf("descrambling: %v", err)
	}
	if !bytes.Equal(gotPayload, payload) {
		t.Fatalf("round-tripped payload = %q, want %q", gotPayload, payload)
	}
}

// TestValidateRejectsShort checks the length check is the first gate.
func TestValidateRejectsShort(t *testing.T) {
	d := testDict(t)
	_, _, reason := Validate(d, make([]byte, MinPacketLen-1), 0, 30, true)
	if reason != DropLength {
		t.Fatalf("reason = %s, want length", reason)
	}
}

// TestValidateRejectsBadOpcode checks the opcode-range gate runs before
// address/timestamp/MAC checks, even on an otherwise well-formed packet.
func TestValidateRejectsBadOpcode(t *testing.T) {
	d := testDict(t)
	buf := make([]byte, MinPacketLen)
	buf[0] = 0xFF // invalid opcode
	_, _, reason := Validate(d, buf, 0, 30, true)
	if reason != DropOpcodeRange {
		t.Fatalf("reason = %s, want opcode_range", reason)
	}
}

// TestValidateRejectsAddrMismatch checks that addrOK=false drops before the
// timestamp and MAC checks run.
func TestValidateRejectsAddrMismatch(t *testing.T) {
	d := testDict(t)
	h := Header{Opcode: OpHello, Seq: 1, Timestamp: 5000}
	buf := make([]byte, HeaderLen+MACLen)
	if _, err := Build(d, h, nil, buf); err != nil {
		t.Fatalf("Build: %v", err)
	}
	_, _, reason := Validate(d, buf, 5000, 30, false)
	if reason != DropAddrMismatch {
		t.Fatalf("reason = %s, want addr_mismatch", reason)
	}
}

// TestValidateRejectsTimestampDrift checks that a header timestamp far from
// now is dropped before the MAC is even checked.
func TestValidateRejectsTimestampDrift(t *testing.T) {
	d := testDict(t)
	h := Header{Opcode: OpHello, Seq: 1, Timestamp: 1000}
	buf := make([]byte, HeaderLen+MACLen)
	if _, err := Build(d, h, nil, buf); err != nil {
		t.Fatalf("Build: %v", err)
	}
	_, _, reason := Validate(d, buf, 1000+1000, 30, true)
	if reason != DropTimestamp {
		t.Fatalf("reason = %s, want timestamp", reason)
	}
}

// TestValidateRejectsTamperedMAC checks that flipping a payload byte after
// Build invalidates the trailing MAC.
func TestValidateRejectsTamperedMAC(t *testing.T) {
	d := testDict(t)
	h := Header{Opcode: OpData, Seq: 1, Timestamp: 2000}
	payload := []byte("abc")
	buf := make([]byte, HeaderLen+len(payload)+MACLen)
	n, err := Build(d, h, append([]byte(nil), payload...), buf)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	buf = buf[:n]
	buf[HeaderLen] ^= 0xFF

	_, _, reason := Validate(d, buf, h.Timestamp, 30, true)
	if reason != DropMAC {
		t.Fatalf("reason = %s, want blake2", reason)
	}
}
