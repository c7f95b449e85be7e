package engine

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shadowmesh/l2tun/internal/stats"
	"github.com/shadowmesh/l2tun/internal/wire"
)

// maxFrameSize bounds both the tap read buffer and the UDP read buffer: the
// specification's memory model calls for two frame-sized buffers and no
// per-packet allocation on the steady-state path.
const maxFrameSize = 1514 + wire.HeaderLen + wire.MACLen

type tapRead struct {
	frame []byte
}

type udpRead struct {
	data []byte
	addr net.Addr
}

// Run drives the event loop until ctx is cancelled or a reader goroutine
// exits with a non-recoverable error. It is the Go-native equivalent of
// firetunnel's select(2) loop: two blocking readers (tap, UDP) and a ticker
// feed a single consumer goroutine — this one — which is the sole mutator
// of tunnel state, so no locking is needed anywhere in the engine.
func (t *Tunnel) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tapCh := make(chan tapRead, 4)
	udpCh := make(chan udpRead, 4)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return t.readTapLoop(gctx, tapCh) })
	g.Go(func() error { return t.readUDPLoop(gctx, udpCh) })

	if t.cfg.Role == RoleClient {
		t.sendPacket(wire.OpHello, 0, nil)
	}

	ticker := time.NewTicker(t.cfg.Timeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cancel()
			_ = g.Wait()
			return ctx.Err()

		case r, ok := <-tapCh:
			if !ok {
				cancel()
				return g.Wait()
			}
			t.sendFrame(r.frame)

		case r, ok := <-udpCh:
			if !ok {
				cancel()
				return g.Wait()
			}
			t.handleUDPPacket(r.data, r.addr)

		case <-ticker.C:
			t.onTick()
		}
	}
}

// onTick runs the periodic tasks the specification assigns to each timer
// firing: HELLO keepalive, TTL decrement, and (every StatsTimeoutMax ticks)
// a stats push from the server to the client.
func (t *Tunnel) onTick() {
	t.ticks++

	if t.state == StateConnected || t.cfg.Role == RoleClient {
		t.sendPacket(wire.OpHello, 0, t.helloPayload())
	}
	if t.cfg.Role == RoleClient && t.state == StateDisconnected && t.cfg.OnConnecting != nil {
		t.cfg.OnConnecting()
	}

	t.onDisconnectTick()

	if t.cfg.Role == RoleServer && t.state == StateConnected &&
		t.cfg.StatsTimeoutMax > 0 && t.ticks%uint64(t.cfg.StatsTimeoutMax) == 0 {
		t.sendStats()
	}
}

func (t *Tunnel) sendStats() {
	snap := t.stats.Snapshot()
	line := stats.Format(t.cfg.Role.String(), snap)
	t.sendPacket(wire.OpMessage, 0, []byte(line))
	if t.cfg.OnStats != nil {
		t.cfg.OnStats(snap)
	}
}

func (t *Tunnel) readTapLoop(ctx context.Context, out chan<- tapRead) error {
	defer close(out)
	buf := make([]byte, maxFrameSize)
	for {
		n, err := t.cfg.Tap.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("engine: reading tap device: %w", err)
		}
		frame := append([]byte(nil), buf[:n]...)
		select {
		case out <- tapRead{frame: frame}:
		case <-ctx.Done():
			return nil
		}
	}
}

func (t *Tunnel) readUDPLoop(ctx context.Context, out chan<- udpRead) error {
	defer close(out)
	buf := make([]byte, maxFrameSize)
	for {
		n, addr, err := t.cfg.UDP.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("engine: reading UDP socket: %w", err)
		}
		data := append([]byte(nil), buf[:n]...)
		select {
		case out <- udpRead{data: data, addr: addr}:
		case <-ctx.Done():
			return nil
		}
	}
}
