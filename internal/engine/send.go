package engine

import (
	"github.com/shadowmesh/l2tun/internal/compress"
	"github.com/shadowmesh/l2tun/internal/wire"
)

// minEthernetFrame is the smallest frame worth tunnelling: firetunnel drops
// anything at or under the bare 14-byte Ethernet header as noise.
const minEthernetFrame = 14

// sendFrame runs the classify -> compress -> frame -> send pipeline on one
// frame read from the tap device, per specification §4.8's tap-readable
// branch. It is a no-op (beyond counting the drop) when the tunnel isn't
// connected, since there is nowhere to send the frame yet.
func (t *Tunnel) sendFrame(frame []byte) {
	if t.state != StateConnected {
		t.stats.TunTxDropped++
		t.notifyTunTx(true)
		return
	}
	if len(frame) <= minEthernetFrame {
		t.stats.TunTxDropped++
		t.notifyTunTx(true)
		return
	}

	class := compress.Classify(frame)
	if class.Drop {
		t.stats.TunTxDropped++
		t.notifyTunTx(true)
		return
	}
	if class.IsDNS {
		t.stats.DNS++
	}
	if class.IsARP {
		t.stats.ARP++
	}

	table := t.tableFor(class.Layer, t.senderDirection())

	opcode := wire.OpData
	sid := uint8(0)
	payload := frame
	compressed := false

	switch class.Layer {
	case compress.LayerL2:
		r := compress.CompressL2(table, frame)
		sid, payload, compressed = r.SID, r.Output, r.Compressible
		if compressed {
			opcode = wire.OpDataCompressedL2
		}
	case compress.LayerL3:
		r := compress.CompressL3(table, frame)
		sid, payload, compressed = r.SID, r.Output, r.Compressible
		if compressed {
			opcode = wire.OpDataCompressedL3
		}
	case compress.LayerL4:
		r, ok := compress.CompressL4(table, frame)
		if !ok {
			// Transport protocol this table doesn't handle, or a frame too
			// short for its transport header; fall back to sending the
			// whole frame uncompressed under the plain DATA opcode so the
			// receiver doesn't attempt to decompress it.
			payload = frame
		} else {
			sid, payload, compressed = r.SID, r.Output, r.Compressible
			if compressed {
				opcode = wire.OpDataCompressedL4
			}
		}
	}

	if compressed {
		t.stats.TunTxCompressed++
	}
	t.stats.TunTx++
	t.notifyTunTx(false)

	t.sendPacket(opcode, sid, payload)
}

func (t *Tunnel) notifyTunTx(dropped bool) {
	if t.cfg.OnTunTx != nil {
		t.cfg.OnTunTx(dropped)
	}
}

// tableFor returns the slot table a given layer+direction uses. A server's
// c2s tables track what clients have taught it about client->server
// traffic it is about to relay onward (there is only one peer per tunnel,
// so "relay" here just means mirroring into the outbound path); concretely,
// each role always compresses outbound frames against its own send-side
// table for the flow direction it is the origin of.
func (t *Tunnel) tableFor(layer compress.Layer, dir direction) *compress.Table {
	set := t.c2s
	if dir == dirS2C {
		set = t.s2c
	}
	switch layer {
	case compress.LayerL2:
		return set.l2
	case compress.LayerL3:
		return set.l3
	default:
		return set.l4
	}
}

// senderDirection reports which logical direction this endpoint originates
// when sending a tap-read frame: a server sending is server->client, a
// client sending is client->server.
func (t *Tunnel) senderDirection() direction {
	if t.cfg.Role == RoleServer {
		return dirS2C
	}
	return dirC2S
}

// receiverDirection is the direction a packet travelled to arrive at this
// endpoint: the inverse of senderDirection.
func (t *Tunnel) receiverDirection() direction {
	if t.cfg.Role == RoleServer {
		return dirC2S
	}
	return dirS2C
}

// sendPacket builds and transmits one outbound packet: increments seq,
// fills the header, scrambles payload, appends the MAC, and sends to
// peerAddr. It is also used directly by the handshake/keepalive path for
// HELLO and MESSAGE opcodes.
func (t *Tunnel) sendPacket(opcode wire.Opcode, sid uint8, payload []byte) {
	if t.peerAddr == nil {
		return
	}

	t.seq++
	flags := wire.Flags(0)
	if opcode == wire.OpHello && t.state == StateDisconnected {
		flags = wire.FlagSync
	}

	h := wire.Header{
		Opcode:    opcode,
		Flags:     flags,
		SID:       sid,
		Seq:       t.seq,
		Timestamp: t.now(),
	}

	buf := make([]byte, wire.HeaderLen+len(payload)+wire.MACLen)
	n, err := wire.Build(t.dict, h, append([]byte(nil), payload...), buf)
	if err != nil {
		t.cfg.Logger.Printf("l2tun: building outbound packet: %v", err)
		return
	}

	if _, err := t.cfg.UDP.WriteTo(buf[:n], t.peerAddr); err != nil {
		t.cfg.Logger.Printf("l2tun: sending to %s: %v", t.peerAddr, err)
	}
}
