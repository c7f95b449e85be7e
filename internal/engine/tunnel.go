package engine

import (
	"fmt"
	"net"
	"time"

	"github.com/shadowmesh/l2tun/internal/compress"
	"github.com/shadowmesh/l2tun/internal/keys"
	"github.com/shadowmesh/l2tun/internal/overlay"
	"github.com/shadowmesh/l2tun/internal/stats"
)

// State is the tunnel's connection state, per the specification's
// DISCONNECTED/CONNECTED state machine.
type State int

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	if s == StateConnected {
		return "connected"
	}
	return "disconnected"
}

// direction selects which of a compressed layer's two tables (client-to-
// server or server-to-client) a frame belongs to.
type direction int

const (
	dirC2S direction = iota
	dirS2C
)

// tables bundles the three compression layers' slot tables for one
// direction.
type tables struct {
	l2, l3, l4 *compress.Table
}

func newTables() tables {
	return tables{l2: compress.NewTable(), l3: compress.NewTable(), l4: compress.NewTable()}
}

func (t tables) reset() {
	t.l2.Reset()
	t.l3.Reset()
	t.l4.Reset()
}

// Tunnel holds all mutable state for one end of the tunnel. Every field is
// touched only by the event loop goroutine (see loop.go); no locking is
// needed as a result, matching the specification's single-writer
// concurrency model.
type Tunnel struct {
	cfg  Config
	dict *keys.Dictionary

	state      State
	seq        uint16
	connectTTL int32
	peerAddr   net.Addr

	overlay       overlay.Config
	haveOverlay   bool
	lastOverlay   overlay.Config

	stats stats.Counters

	// c2s holds the tables for client->server frames and s2c those for
	// server->client frames. A client compresses into c2s when sending and
	// learns into s2c when receiving; a server does the reverse. A client's
	// c2s and a server's c2s are therefore the sender-side and
	// receiver-side tables for the same logical flow, and likewise for s2c.
	c2s, s2c tables

	ticks uint64

	// clock is overridden in tests; production code always uses time.Now.
	clock func() time.Time
}

// now returns the current time as seconds since the epoch, network-header
// width.
func (t *Tunnel) now() uint32 {
	return uint32(t.clock().Unix())
}

// New builds a Tunnel from cfg, deriving the key dictionaries from the
// shared secret and the bound UDP port. The tunnel starts DISCONNECTED.
func New(cfg Config) (*Tunnel, error) {
	cfg.withDefaults()

	if cfg.Role == RoleClient && cfg.Peer == nil {
		return nil, fmt.Errorf("engine: client role requires Config.Peer")
	}

	dict, err := keys.Derive(cfg.Secret, cfg.BoundPort)
	if err != nil {
		return nil, fmt.Errorf("engine: deriving key dictionary: %w", err)
	}

	t := &Tunnel{
		cfg:        cfg,
		dict:       dict,
		state:      StateDisconnected,
		connectTTL: cfg.ConnectTTL,
		c2s:        newTables(),
		s2c:        newTables(),
		clock:      time.Now,
	}
	if cfg.Role == RoleClient {
		t.peerAddr = cfg.Peer
	}
	return t, nil
}

// resetTables reinitialises every compression table, on F_SYNC, on a fresh
// connection, or on disconnect.
func (t *Tunnel) resetTables() {
	t.c2s.reset()
	t.s2c.reset()
}

// addrEqual reports whether a and b refer to the same UDP endpoint. Used
// for the server's peer-binding check: once peerAddr is set, every inbound
// packet must originate from it.
func addrEqual(a, b net.Addr) bool {
	if a == nil || b == nil {
		return a == b
	}
	ua, okA := a.(*net.UDPAddr)
	ub, okB := b.(*net.UDPAddr)
	if okA && okB {
		return ua.IP.Equal(ub.IP) && ua.Port == ub.Port
	}
	return a.String() == b.String()
}
