package compress

import "github.com/shadowmesh/l2tun/pkg/layer2"

const ethernetHeaderLen = layer2.EthernetHeaderSize

// EtherType values the classifier and dispatcher need to recognise.
const (
	etherTypeIPv4 = layer2.EtherTypeIPv4
	etherTypeARP  = layer2.EtherTypeARP
	etherTypeIPv6 = layer2.EtherTypeIPv6
)

// l2Variable is empty: the full 14-byte Ethernet header (both MACs and the
// EtherType) is invariant for a given flow, so nothing needs to travel
// alongside a compression hit.
var l2Variable []span

// CompressL2 runs the L2 learning pipeline on an Ethernet frame of at least
// 14 bytes.
func CompressL2(t *Table, frame []byte) Result {
	return compressHeader(t, frame, ethernetHeaderLen, l2Variable)
}

// DecompressL2 reconstructs a frame compressed by CompressL2.
func DecompressL2(t *Table, sid uint8, body []byte) ([]byte, bool) {
	return decompressHeader(t, sid, body, ethernetHeaderLen, l2Variable)
}

// parseEthernet delegates to layer2.ParseFrame for the classifier's EtherType
// checks, rather than re-deriving the header layout here.
func parseEthernet(frame []byte) (*layer2.EthernetFrame, bool) {
	if len(frame) < ethernetHeaderLen {
		return nil, false
	}
	f, err := layer2.ParseFrame(frame)
	if err != nil {
		return nil, false
	}
	return f, true
}

func etherType(frame []byte) uint16 {
	f, ok := parseEthernet(frame)
	if !ok {
		return 0
	}
	return f.EtherType
}

func isARP(frame []byte) bool {
	f, ok := parseEthernet(frame)
	return ok && f.EtherType == layer2.EtherTypeARP
}

func isIPv6(frame []byte) bool {
	f, ok := parseEthernet(frame)
	return ok && f.EtherType == layer2.EtherTypeIPv6
}

func isIPv4(frame []byte) bool {
	f, ok := parseEthernet(frame)
	return ok && f.EtherType == layer2.EtherTypeIPv4
}
