package engine

import (
	"net"

	"github.com/shadowmesh/l2tun/internal/compress"
	"github.com/shadowmesh/l2tun/internal/scramble"
	"github.com/shadowmesh/l2tun/internal/wire"
)

// handleUDPPacket runs the full inbound pipeline for one UDP datagram:
// validate, then dispatch by opcode (§4.7). addr is the packet's UDP
// source.
func (t *Tunnel) handleUDPPacket(data []byte, addr net.Addr) {
	addrOK := t.peerAddr == nil || addrEqual(t.peerAddr, addr)

	h, body, reason := wire.Validate(t.dict, data, t.now(), t.cfg.TimestampDeltaMax, addrOK)
	if reason != wire.DropNone {
		t.countDrop(reason, addr)
		return
	}

	if h.Flags&wire.FlagSync != 0 {
		t.resetTables()
	}

	switch h.Opcode {
	case wire.OpHello:
		t.handleHello(addr, body)
	case wire.OpMessage:
		t.handleMessage(body)
	case wire.OpData, wire.OpDataCompressedL2, wire.OpDataCompressedL3, wire.OpDataCompressedL4:
		t.handleData(h, body)
	}
}

func (t *Tunnel) countDrop(reason wire.DropReason, addr net.Addr) {
	switch reason {
	case wire.DropAddrMismatch:
		t.stats.RxDropAddr++
		t.cfg.Logger.Printf("l2tun: dropped packet from unbound peer %s", addr)
		t.notifyDrop("addr")
	case wire.DropTimestamp:
		t.stats.RxDropTimestamp++
		t.notifyDrop("timestamp")
	case wire.DropMAC:
		t.stats.RxDropBlake2++
		t.cfg.Logger.Printf("l2tun: dropped packet with invalid MAC from %s", addr)
		t.notifyDrop("mac")
	}
}

func (t *Tunnel) notifyDrop(reason string) {
	if t.cfg.OnDrop != nil {
		t.cfg.OnDrop(reason)
	}
}

// handleMessage implements the MESSAGE branch: a client prints the payload
// while connected; a server (or a disconnected client) drops it silently,
// since O_MESSAGE is a server->client status channel only.
func (t *Tunnel) handleMessage(payload []byte) {
	if t.cfg.Role != RoleClient || t.state != StateConnected {
		return
	}
	if t.cfg.OnMessage != nil {
		t.cfg.OnMessage(string(payload))
	}
}

// handleData implements the DATA/DATA_COMPRESSED_* branch: descramble,
// decompress if needed, reclassify to keep the receive-side table warm, and
// write the reconstructed Ethernet frame to the tap device.
func (t *Tunnel) handleData(h wire.Header, body []byte) {
	payload := append([]byte(nil), body...)
	if err := scramble.Apply(t.dict, h.Seq, h.Timestamp, payload); err != nil {
		t.cfg.Logger.Printf("l2tun: descrambling payload: %v", err)
		return
	}

	table := t.tableFor(layerForOpcode(h.Opcode), t.receiverDirection())

	var frame []byte
	switch h.Opcode {
	case wire.OpData:
		frame = payload
	case wire.OpDataCompressedL2:
		f, ok := compress.DecompressL2(table, h.SID, payload)
		if !ok {
			return
		}
		frame = f
	case wire.OpDataCompressedL3:
		f, ok := compress.DecompressL3(table, h.SID, payload)
		if !ok {
			return
		}
		frame = f
	case wire.OpDataCompressedL4:
		proto, ok := compress.DecompressL4Proto(table, h.SID)
		if !ok {
			return
		}
		f, ok := compress.DecompressL4(table, h.SID, payload, proto)
		if !ok {
			return
		}
		frame = f
	}

	// Reclassify with the frame as received to keep this side's table in
	// the same state the sender's table is in, even though this side
	// didn't originate the compression decision. The table to learn into is
	// selected by the frame's own classification, not by the opcode the
	// packet arrived with, matching child.c's classify_l{2,3,4} calls
	// against the reconstructed frame rather than the wire opcode.
	class := compress.Classify(frame)
	if !class.Drop {
		learnTable := t.tableFor(class.Layer, t.receiverDirection())
		switch class.Layer {
		case compress.LayerL2:
			compress.CompressL2(learnTable, frame)
		case compress.LayerL3:
			compress.CompressL3(learnTable, frame)
		case compress.LayerL4:
			compress.CompressL4(learnTable, frame)
		}
	}

	if _, err := t.cfg.Tap.Write(frame); err != nil {
		t.cfg.Logger.Printf("l2tun: writing frame to tap device: %v", err)
	}
}

func layerForOpcode(op wire.Opcode) compress.Layer {
	switch op {
	case wire.OpDataCompressedL2:
		return compress.LayerL2
	case wire.OpDataCompressedL3:
		return compress.LayerL3
	case wire.OpDataCompressedL4:
		return compress.LayerL4
	default:
		return compress.LayerNone
	}
}
