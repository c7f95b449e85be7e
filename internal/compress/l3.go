package compress

const ipv4HeaderLenMin = 20

// ipv4 header field offsets, relative to the start of the IP header.
const (
	ipOffTotalLen  = 2
	ipOffID        = 4
	ipOffFlagsFrag = 6
	ipOffTTL       = 8
	ipOffProtocol  = 9
	ipOffChecksum  = 10
)

// l3Variable lists the IPv4 header fields that vary packet-to-packet and so
// travel on the wire even on a compression hit: total length, identification,
// flags/fragment offset, TTL, and checksum.
var l3Variable = []span{
	{offset: ipv4HeaderLenFromEth + ipOffTotalLen, length: 2},
	{offset: ipv4HeaderLenFromEth + ipOffID, length: 2},
	{offset: ipv4HeaderLenFromEth + ipOffFlagsFrag, length: 2},
	{offset: ipv4HeaderLenFromEth + ipOffTTL, length: 1},
	{offset: ipv4HeaderLenFromEth + ipOffChecksum, length: 2},
}

// ipv4HeaderLenFromEth is the offset of the IP header within the Ethernet
// frame, i.e. the Ethernet header length.
const ipv4HeaderLenFromEth = ethernetHeaderLen

const l3HeaderLen = ethernetHeaderLen + ipv4HeaderLenMin

// ipv4IHL returns the IPv4 header length in bytes as declared by the frame's
// IHL nibble, or 0 if the frame is too short to contain one.
func ipv4IHL(frame []byte) int {
	if len(frame) < ethernetHeaderLen+1 {
		return 0
	}
	return int(frame[ethernetHeaderLen]&0x0F) * 4
}

// ipv4NoOptions reports whether the frame's IPv4 header carries no options,
// the only shape L3/L4 compression handles: an IP header with options would
// shift every field after it, which the fixed-offset signature can't track.
func ipv4NoOptions(frame []byte) bool {
	return ipv4IHL(frame) == ipv4HeaderLenMin
}

func ipProtocol(frame []byte) uint8 {
	return frame[ipv4HeaderLenFromEth+ipOffProtocol]
}

const (
	protoICMP = 1
	protoTCP  = 6
	protoUDP  = 17
)

// CompressL3 runs the L3 learning pipeline on an Ethernet+IPv4 frame with no
// IP options.
func CompressL3(t *Table, frame []byte) Result {
	return compressHeader(t, frame, l3HeaderLen, l3Variable)
}

// DecompressL3 reconstructs a frame compressed by CompressL3.
func DecompressL3(t *Table, sid uint8, body []byte) ([]byte, bool) {
	return decompressHeader(t, sid, body, l3HeaderLen, l3Variable)
}
