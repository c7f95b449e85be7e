// Package wire implements the on-wire packet framing for the tunnel: the
// fixed 10-byte header, opcode/flag constants, and the outbound build /
// inbound validate pipelines. It is grounded on firetunnel's packet.c
// (pkt_set_header, pkt_check_header) and styled after the teacher's
// network-byte-order header codec in shared/protocol/header.go.
package wire

import (
	"encoding/binary"
	"fmt"
)

// Opcode identifies the kind of payload a packet carries.
type Opcode uint8

const (
	OpData Opcode = iota
	OpDataCompressedL2
	OpDataCompressedL3
	OpDataCompressedL4
	OpHello
	OpMessage
	// opMax is one past the last valid opcode; any opcode >= opMax fails
	// the inbound opcode-range check and is dropped before dispatch.
	opMax
)

// IsCompressed reports whether the opcode carries a compressed DATA frame
// (any of the L2/L3/L4 opcodes); it does not say which layer.
func (o Opcode) IsCompressed() bool {
	return o == OpDataCompressedL2 || o == OpDataCompressedL3 || o == OpDataCompressedL4
}

// Valid reports whether o is within the dispatchable opcode range.
func (o Opcode) Valid() bool {
	return o < opMax
}

func (o Opcode) String() string {
	switch o {
	case OpData:
		return "DATA"
	case OpDataCompressedL2:
		return "DATA_COMPRESSED_L2"
	case OpDataCompressedL3:
		return "DATA_COMPRESSED_L3"
	case OpDataCompressedL4:
		return "DATA_COMPRESSED_L4"
	case OpHello:
		return "HELLO"
	case OpMessage:
		return "MESSAGE"
	default:
		return fmt.Sprintf("Opcode(%d)", uint8(o))
	}
}

// Flags carried in the header's single flags byte.
type Flags uint8

// FlagSync requests that the receiver reinitialise all compression tables
// before dispatching this packet, and is set on the first HELLO of a fresh
// connection.
const FlagSync Flags = 1 << 0

// HeaderLen is the fixed size in bytes of the wire header, excluding the
// trailing MAC.
const HeaderLen = 10

// MACLen is the size in bytes of the trailing authentication tag.
const MACLen = 16

// MinPacketLen is the smallest legal datagram: an empty-payload header plus
// its MAC.
const MinPacketLen = HeaderLen + MACLen

// Header is the fixed 10-byte packet header:
//
//	opcode[1] | flags[1] | sid[1] | reserved[1] | seq[2] | timestamp[4]
type Header struct {
	Opcode    Opcode
	Flags     Flags
	SID       uint8
	Seq       uint16
	Timestamp uint32
}

// Encode writes the header's wire representation into buf, which must be at
// least HeaderLen bytes.
func (h Header) Encode(buf []byte) error {
	if len(buf) < HeaderLen {
		return fmt.Errorf("wire: header buffer too short: %d < %d", len(buf), HeaderLen)
	}
	buf[0] = byte(h.Opcode)
	buf[1] = byte(h.Flags)
	buf[2] = h.SID
	buf[3] = 0 // reserved
	binary.BigEndian.PutUint16(buf[4:6], h.Seq)
	binary.BigEndian.PutUint32(buf[6:10], h.Timestamp)
	return nil
}

// DecodeHeader parses the fixed header from the front of buf.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderLen {
		return Header{}, fmt.Errorf("wire: short header: %d bytes", len(buf))
	}
	return Header{
		Opcode:    Opcode(buf[0]),
		Flags:     Flags(buf[1]),
		SID:       buf[2],
		Seq:       binary.BigEndian.Uint16(buf[4:6]),
		Timestamp: binary.BigEndian.Uint32(buf[6:10]),
	}, nil
}
