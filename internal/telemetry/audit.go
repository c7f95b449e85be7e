package telemetry

import (
	"io"

	"github.com/rs/zerolog"
)

// Audit emits structured connection-lifecycle events, in the chained
// zerolog builder style R2Northstar-Atlas's api0 server uses for request
// logging (log.Error().Err(err).Str(...).Msg(...)).
type Audit struct {
	log zerolog.Logger
}

// NewAudit builds an Audit writing to w (typically os.Stdout, or a file
// from LoggingConfig.File).
func NewAudit(w io.Writer, role string) *Audit {
	logger := zerolog.New(w).With().Timestamp().Str("role", role).Logger()
	return &Audit{log: logger}
}

// Connected records a successful handshake.
func (a *Audit) Connected(peerAddr string) {
	a.log.Info().Str("event", "connected").Str("peer_addr", peerAddr).Msg("tunnel connected")
}

// Disconnected records a TTL-driven or administrative disconnect.
func (a *Audit) Disconnected() {
	a.log.Info().Str("event", "disconnected").Msg("tunnel disconnected")
}

// PeerRebind records a server learning a new peer address, replacing a
// previously bound one (can only happen after an intervening disconnect).
func (a *Audit) PeerRebind(oldAddr, newAddr string) {
	a.log.Info().
		Str("event", "peer_rebind").
		Str("old_addr", oldAddr).
		Str("new_addr", newAddr).
		Msg("tunnel peer address changed")
}

// Dropped records count dropped packets for reason. It does no rate
// limiting of its own, and cmd/l2tund calls it once for every dropped
// packet, with count 1.
func (a *Audit) Dropped(reason string, count uint64) {
	a.log.Warn().
		Str("event", "packet_dropped").
		Str("reason", reason).
		Uint64("count", count).
		Msg("packets dropped")
}
