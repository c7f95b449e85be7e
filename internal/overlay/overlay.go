// Package overlay encodes the server-pushed network configuration carried
// inside HELLO payloads, and the control-socket message the client relays
// to its parent process when that configuration changes. Grounded on
// packet.c's overlay fields appended to O_HELLO and child.c's send_config.
package overlay

import (
	"encoding/binary"
	"fmt"
)

// Config is the overlay network configuration the server pushes to the
// client: the seven fields are carried in host byte order on the control
// socket but big-endian on the wire inside HELLO, matching firetunnel.
type Config struct {
	NetAddr   uint32
	NetMask   uint32
	DefaultGW uint32
	MTU       uint32
	DNS1      uint32
	DNS2      uint32
	DNS3      uint32
}

// WireLen is the encoded size of a Config on the wire: seven 32-bit fields.
const WireLen = 7 * 4

// Encode serialises cfg into the HELLO payload's overlay section,
// big-endian, matching every other multi-byte wire field in the tunnel.
func Encode(cfg Config) []byte {
	buf := make([]byte, WireLen)
	fields := [...]uint32{cfg.NetAddr, cfg.NetMask, cfg.DefaultGW, cfg.MTU, cfg.DNS1, cfg.DNS2, cfg.DNS3}
	for i, f := range fields {
		binary.BigEndian.PutUint32(buf[i*4:], f)
	}
	return buf
}

// Decode parses a HELLO overlay section back into a Config.
func Decode(buf []byte) (Config, error) {
	if len(buf) < WireLen {
		return Config{}, fmt.Errorf("overlay: short buffer: %d < %d", len(buf), WireLen)
	}
	return Config{
		NetAddr:   binary.BigEndian.Uint32(buf[0:4]),
		NetMask:   binary.BigEndian.Uint32(buf[4:8]),
		DefaultGW: binary.BigEndian.Uint32(buf[8:12]),
		MTU:       binary.BigEndian.Uint32(buf[12:16]),
		DNS1:      binary.BigEndian.Uint32(buf[16:20]),
		DNS2:      binary.BigEndian.Uint32(buf[20:24]),
		DNS3:      binary.BigEndian.Uint32(buf[24:28]),
	}, nil
}

// controlPrefix is the literal marker firetunnel's child.c prepends to a
// config push on the control socket, before the seven host-order fields.
const controlPrefix = "config "

// EncodeControlMessage serialises cfg for the control socket: the literal
// "config " prefix followed by the seven fields in host byte order (native
// endianness, unlike the wire encoding used inside HELLO).
func EncodeControlMessage(cfg Config, order binary.ByteOrder) []byte {
	buf := make([]byte, len(controlPrefix)+WireLen)
	copy(buf, controlPrefix)
	fields := [...]uint32{cfg.NetAddr, cfg.NetMask, cfg.DefaultGW, cfg.MTU, cfg.DNS1, cfg.DNS2, cfg.DNS3}
	for i, f := range fields {
		order.PutUint32(buf[len(controlPrefix)+i*4:], f)
	}
	return buf
}

// DecodeControlMessage parses a control-socket message produced by
// EncodeControlMessage, for use by the external parent-process collaborator
// (or by tests standing in for it).
func DecodeControlMessage(buf []byte, order binary.ByteOrder) (Config, error) {
	if len(buf) < len(controlPrefix)+WireLen {
		return Config{}, fmt.Errorf("overlay: short control message: %d bytes", len(buf))
	}
	if string(buf[:len(controlPrefix)]) != controlPrefix {
		return Config{}, fmt.Errorf("overlay: missing %q prefix", controlPrefix)
	}
	body := buf[len(controlPrefix):]
	return Config{
		NetAddr:   order.Uint32(body[0:4]),
		NetMask:   order.Uint32(body[4:8]),
		DefaultGW: order.Uint32(body[8:12]),
		MTU:       order.Uint32(body[12:16]),
		DNS1:      order.Uint32(body[16:20]),
		DNS2:      order.Uint32(body[20:24]),
		DNS3:      order.Uint32(body[24:28]),
	}, nil
}
