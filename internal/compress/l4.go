package compress

const (
	tcpHeaderLenMin = 20
	udpHeaderLen    = 8
)

// transportVariable returns the L4 header length and the spans (relative to
// the whole frame) that vary packet-to-packet, for the transport protocol
// found at the IP layer: the IPv4 fields listed in l3Variable, followed by
// the transport fields. Ports are the only invariant part of either
// transport header: everything else (sequence numbers, window, checksums,
// UDP length) changes on essentially every packet.
func transportVariable(proto uint8) (headerLen int, variable []span, ok bool) {
	base := l3HeaderLen
	var transport []span
	switch proto {
	case protoTCP:
		headerLen = base + tcpHeaderLenMin
		transport = []span{
			{offset: base + 4, length: 4},  // sequence number
			{offset: base + 8, length: 4},  // ack number
			{offset: base + 12, length: 2}, // data offset + flags
			{offset: base + 14, length: 2}, // window
			{offset: base + 16, length: 2}, // checksum
			{offset: base + 18, length: 2}, // urgent pointer
		}
	case protoUDP:
		headerLen = base + udpHeaderLen
		transport = []span{
			{offset: base + 4, length: 2}, // length
			{offset: base + 6, length: 2}, // checksum
		}
	default:
		return 0, nil, false
	}
	variable = append(append([]span(nil), l3Variable...), transport...)
	return headerLen, variable, true
}

// CompressL4 runs the L4 learning pipeline on a TCP or UDP-over-IPv4 frame.
// ok is false for any other transport protocol, in which case the caller
// should fall back to L3 compression.
func CompressL4(t *Table, frame []byte) (Result, bool) {
	headerLen, variable, ok := transportVariable(ipProtocol(frame))
	if !ok || len(frame) < headerLen {
		return Result{}, false
	}
	return compressHeader(t, frame, headerLen, variable), true
}

// DecompressL4 reconstructs a frame compressed by CompressL4. The protocol
// must be supplied by the caller (recovered from the stored template's IP
// header, since the wire body no longer carries it directly).
func DecompressL4(t *Table, sid uint8, body []byte, proto uint8) ([]byte, bool) {
	headerLen, variable, ok := transportVariable(proto)
	if !ok {
		return nil, false
	}
	return decompressHeader(t, sid, body, headerLen, variable)
}

// DecompressL4Proto recovers the transport protocol of a previously learned
// L4 template so DecompressL4 can be called without the caller tracking
// protocol out of band.
func DecompressL4Proto(t *Table, sid uint8) (uint8, bool) {
	template, ok := t.Template(sid)
	if !ok || len(template) <= ipv4HeaderLenFromEth+ipOffProtocol {
		return 0, false
	}
	return template[ipv4HeaderLenFromEth+ipOffProtocol], true
}
