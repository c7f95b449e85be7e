package wire

import (
	"fmt"

	"github.com/shadowmesh/l2tun/internal/auth"
	"github.com/shadowmesh/l2tun/internal/keys"
	"github.com/shadowmesh/l2tun/internal/scramble"
)

// DropReason identifies which inbound validation step rejected a packet.
// The engine maps each reason to the matching drop counter and log line,
// mirroring firetunnel's udp_rx_drop_* counters in packet.c.
type DropReason int

const (
	// DropNone indicates the packet passed every validation step.
	DropNone DropReason = iota
	DropLength
	DropOpcodeRange
	DropAddrMismatch
	DropTimestamp
	DropMAC
)

func (r DropReason) String() string {
	switch r {
	case DropNone:
		return "none"
	case DropLength:
		return "length"
	case DropOpcodeRange:
		return "opcode_range"
	case DropAddrMismatch:
		return "addr_mismatch"
	case DropTimestamp:
		return "timestamp"
	case DropMAC:
		return "blake2"
	default:
		return "unknown"
	}
}

// Build assembles an outbound packet into buf: header, scrambled payload,
// trailing MAC. payload is copied into buf and scrambled there; the
// caller's payload slice is left unchanged. It returns the total number of
// bytes written.
//
// Grounded on packet.c's pkt_send_hello / the shared build path it inlines:
// fill header, scramble payload, append MAC, send.
func Build(dict *keys.Dictionary, h Header, payload []byte, buf []byte) (int, error) {
	total := HeaderLen + len(payload) + MACLen
	if len(buf) < total {
		return 0, fmt.Errorf("wire: output buffer too short: %d < %d", len(buf), total)
	}

	if err := h.Encode(buf[:HeaderLen]); err != nil {
		return 0, err
	}

	body := buf[HeaderLen : HeaderLen+len(payload)]
	copy(body, payload)
	if err := scramble.Apply(dict, h.Seq, h.Timestamp, body); err != nil {
		return 0, fmt.Errorf("wire: scrambling payload: %w", err)
	}

	mac, err := auth.Compute(dict, h.Seq, h.Timestamp, buf[:HeaderLen+len(payload)])
	if err != nil {
		return 0, fmt.Errorf("wire: computing MAC: %w", err)
	}
	copy(buf[HeaderLen+len(payload):total], mac[:])

	return total, nil
}

// Validate runs the inbound validation pipeline, in the normative order:
// length, opcode range, peer binding, timestamp drift, MAC. Peer binding
// cannot be decided from the packet bytes alone (it depends on tunnel
// state), so the caller pre-computes addrOK and passes it through; Validate
// still enforces the check at the correct position in the sequence so the
// reported DropReason matches what firetunnel would have reported.
//
// On success it returns the parsed header and the payload slice (still
// scrambled — callers apply scramble.Apply to descramble it), excluding the
// trailing MAC.
func Validate(dict *keys.Dictionary, pkt []byte, now uint32, maxDelta uint32, addrOK bool) (Header, []byte, DropReason) {
	if len(pkt) < MinPacketLen {
		return Header{}, nil, DropLength
	}

	h, err := DecodeHeader(pkt)
	if err != nil {
		return Header{}, nil, DropLength
	}
	if !h.Opcode.Valid() {
		return Header{}, nil, DropOpcodeRange
	}
	if !addrOK {
		return Header{}, nil, DropAddrMismatch
	}
	if timestampDelta(now, h.Timestamp) > maxDelta {
		return Header{}, nil, DropTimestamp
	}

	macOffset := len(pkt) - MACLen
	body := pkt[:macOffset]
	wantMAC := pkt[macOffset:]
	if !auth.Verify(dict, h.Seq, h.Timestamp, body, wantMAC) {
		return Header{}, nil, DropMAC
	}

	return h, pkt[HeaderLen:macOffset], DropNone
}

// timestampDelta computes |a - b| without relying on signed-overflow
// behaviour, matching firetunnel's diff_uint32 helper.
func timestampDelta(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}
