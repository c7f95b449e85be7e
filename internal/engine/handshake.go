package engine

import (
	"encoding/binary"
	"net"

	"github.com/shadowmesh/l2tun/internal/overlay"
	"github.com/shadowmesh/l2tun/internal/wire"
)

// hostByteOrder is the byte order used on the control socket. Every
// deployment target for this tunnel (amd64, arm64) is little-endian, so we
// fix it rather than detect it at runtime.
var hostByteOrder = binary.LittleEndian

// handleHello implements the HELLO branch of the state machine (§4.6).
// addr is the UDP source address the datagram arrived from.
func (t *Tunnel) handleHello(addr net.Addr, payload []byte) {
	if t.state == StateDisconnected {
		t.seq = 0
		if t.cfg.Role == RoleServer {
			t.peerAddr = addr
		}
		// firetunnel sends two HELLO replies here; the duplicate is load
		// bearing against the first reply being lost before the peer's
		// timer would otherwise re-send.
		t.sendPacket(wire.OpHello, 0, t.helloPayload())
		t.sendPacket(wire.OpHello, 0, t.helloPayload())

		t.state = StateConnected
		t.connectTTL = t.cfg.ConnectTTL
		t.resetTables()
		t.cfg.Logger.Printf("l2tun: %s connected (peer %s)", t.cfg.Role, t.peerAddr)
		if t.cfg.OnConnected != nil {
			t.cfg.OnConnected(t.peerAddr.String())
		}
		return
	}

	t.connectTTL = t.cfg.ConnectTTL

	if t.cfg.Role == RoleClient && len(payload) >= overlay.WireLen {
		cfg, err := overlay.Decode(payload)
		if err == nil {
			t.applyOverlay(cfg)
		}
	}
}

// helloPayload returns the payload to attach to an outbound HELLO: empty
// for the client, the current overlay configuration for the server.
func (t *Tunnel) helloPayload() []byte {
	if t.cfg.Role != RoleServer {
		return nil
	}
	return overlay.Encode(t.cfg.Overlay)
}

// applyOverlay records a newly received overlay configuration and, if it
// differs from the last one applied, relays it to the parent process over
// the control socket (§4.9).
func (t *Tunnel) applyOverlay(cfg overlay.Config) {
	if t.haveOverlay && cfg == t.lastOverlay {
		return
	}
	t.haveOverlay = true
	t.lastOverlay = cfg
	t.overlay = cfg

	if t.cfg.Control == nil {
		return
	}
	msg := overlay.EncodeControlMessage(cfg, hostByteOrder)
	if _, err := t.cfg.Control.Write(msg); err != nil {
		t.cfg.Logger.Printf("l2tun: writing overlay config to control socket: %v", err)
	}
}

// onDisconnectTick runs the timer-tick transition out of CONNECTED: decrement
// connectTTL and, if it reaches zero, drop the connection.
func (t *Tunnel) onDisconnectTick() {
	if t.state != StateConnected {
		return
	}
	t.connectTTL--
	if t.connectTTL > 0 {
		return
	}

	t.state = StateDisconnected
	t.seq = 0
	if t.cfg.Role == RoleServer {
		t.peerAddr = nil
	}
	t.resetTables()
	t.cfg.Logger.Printf("l2tun: %s disconnected", t.cfg.Role)
	if t.cfg.OnDisconnected != nil {
		t.cfg.OnDisconnected()
	}
}
