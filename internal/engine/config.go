// Package engine drives the tunnel's connection state machine, compression
// pipeline, and event loop: the Go-native readiness-multiplex equivalent of
// firetunnel's child.c select() loop, fed by channels instead of raw file
// descriptors.
package engine

import (
	"io"
	"log"
	"net"
	"time"

	"github.com/shadowmesh/l2tun/internal/overlay"
	"github.com/shadowmesh/l2tun/internal/stats"
)

// Role distinguishes the two tunnel endpoints. The server learns its peer's
// address from the first HELLO; the client dials a known endpoint.
type Role int

const (
	RoleServer Role = iota
	RoleClient
)

func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}

// Normative constants from the tunnel specification. Config.withDefaults
// applies each one only where the matching Config field is zero, so a caller
// (or a test) shrinks a timer by setting that field.
const (
	DefaultTimeout            = 5 * time.Second
	DefaultConnectTTL         = 12
	DefaultTimestampDeltaMax  = 30 // seconds
	DefaultStatsTimeoutMax    = 6  // ticks
	DefaultCompressTimeoutMax = 6  // ticks
)

// Config wires the engine to its external collaborators: the virtual
// interface, the bound UDP socket, the shared secret, and the optional
// control-socket writer used to relay overlay changes to the parent
// process. None of these are owned by the engine; callers (cmd/l2tund)
// construct and close them.
type Config struct {
	Role Role

	// Tap is the virtual Ethernet interface: frames read from it are
	// tunnelled out over UDP, frames received over UDP are written to it.
	Tap io.ReadWriter

	// UDP is the bound tunnel socket. The server accepts datagrams from any
	// source until it binds to the first HELLO's sender; the client always
	// sends to Peer.
	UDP net.PacketConn

	// Peer is the remote tunnel endpoint. Required for RoleClient; ignored
	// (and learned dynamically) for RoleServer.
	Peer net.Addr

	// Secret is the shared secret-file contents used to derive the key
	// dictionaries. Must be identical, byte for byte, on both peers.
	Secret []byte

	// BoundPort is folded into key derivation alongside Secret.
	BoundPort uint16

	// Control, if non-nil, receives overlay-change control messages. Only
	// meaningful for RoleClient; the parent process reads from the other
	// end and applies the configuration to the OS network stack.
	Control io.Writer

	// Overlay is the network configuration the server pushes to the client
	// over HELLO. Ignored for RoleClient.
	Overlay overlay.Config

	Logger *log.Logger

	Debug         bool
	DebugCompress bool

	Timeout            time.Duration
	ConnectTTL         int32
	TimestampDeltaMax  uint32
	StatsTimeoutMax    int
	CompressTimeoutMax int

	// OnConnecting is invoked once per timer tick while a client is
	// disconnected, giving the CLI a hook for the "connecting..." dot
	// feedback firetunnel prints to the terminal.
	OnConnecting func()

	// OnMessage is invoked for each MESSAGE opcode payload a client
	// receives while connected (the server's periodic stats line, or any
	// other text the server chooses to push).
	OnMessage func(line string)

	// OnConnected and OnDisconnected, if set, are invoked on the HELLO
	// handshake completing and on TTL-driven disconnection, giving the CLI
	// a hook for audit logging independent of the plain lifecycle lines
	// already sent to Logger.
	OnConnected    func(peerAddr string)
	OnDisconnected func()

	// OnStats, if set, is invoked alongside each periodic stats push the
	// server sends to its client, giving the CLI a hook for publishing
	// snapshots to an external sink without re-deriving them from the log
	// line.
	OnStats func(snapshot stats.Snapshot)

	// OnTunTx, if set, is invoked once per tap-read frame with whether it
	// was tunnelled or dropped, for a live per-packet metrics counter.
	OnTunTx func(dropped bool)

	// OnDrop, if set, is invoked once per inbound packet that wire.Validate
	// rejects for a peer-address, timestamp or MAC failure, naming the
	// reason ("addr", "timestamp", "mac"). Length and opcode-range drops do
	// not invoke it.
	OnDrop func(reason string)
}

func (c *Config) withDefaults() {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ConnectTTL == 0 {
		c.ConnectTTL = DefaultConnectTTL
	}
	if c.TimestampDeltaMax == 0 {
		c.TimestampDeltaMax = DefaultTimestampDeltaMax
	}
	if c.StatsTimeoutMax == 0 {
		c.StatsTimeoutMax = DefaultStatsTimeoutMax
	}
	if c.CompressTimeoutMax == 0 {
		c.CompressTimeoutMax = DefaultCompressTimeoutMax
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
}
