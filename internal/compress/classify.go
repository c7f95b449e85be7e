package compress

// Layer identifies which compression layer (or none) applies to a frame.
type Layer int

const (
	LayerNone Layer = iota
	LayerL2
	LayerL3
	LayerL4
)

// Classification is the outcome of inspecting one outbound Ethernet frame,
// before any learning-table lookup happens.
type Classification struct {
	Layer Layer
	// Drop is true when the frame must never be tunnelled at all (IPv6, or
	// a DNS query for an AAAA record).
	Drop bool
	// IsDNS and IsARP drive the eth_rx_dns / eth_rx_arp counters.
	IsDNS bool
	IsARP bool
}

const dnsPort = 53

// Classify implements the layer-selection rules: IPv6 and DNS-AAAA frames
// are dropped outright; DNS queries are forced to L3 (their ephemeral
// source port would thrash the L4 table); TCP/UDP over IPv4 gets L4; plain
// IPv4 gets L3; everything else (including ARP) gets L2.
func Classify(frame []byte) Classification {
	if len(frame) < ethernetHeaderLen {
		return Classification{Layer: LayerNone, Drop: true}
	}

	if isIPv6(frame) {
		return Classification{Layer: LayerNone, Drop: true}
	}

	if !isIPv4(frame) {
		return Classification{Layer: LayerL2, IsARP: isARP(frame)}
	}

	if !ipv4NoOptions(frame) {
		// Fixed-offset signatures can't track an IP header with options;
		// fall back to the layer below rather than risk misparsing it.
		return Classification{Layer: LayerL2}
	}

	if isDNSQuery(frame) {
		if dnsQueryTypeAAAA(frame) {
			return Classification{Layer: LayerNone, Drop: true, IsDNS: true}
		}
		return Classification{Layer: LayerL3, IsDNS: true}
	}

	switch ipProtocol(frame) {
	case protoTCP, protoUDP:
		return Classification{Layer: LayerL4}
	default:
		return Classification{Layer: LayerL3}
	}
}

// isDNSQuery reports whether frame is a UDP/IPv4 packet addressed to or
// from port 53.
func isDNSQuery(frame []byte) bool {
	if ipProtocol(frame) != protoUDP {
		return false
	}
	transportOff := l3HeaderLen
	if len(frame) < transportOff+4 {
		return false
	}
	srcPort := uint16(frame[transportOff])<<8 | uint16(frame[transportOff+1])
	dstPort := uint16(frame[transportOff+2])<<8 | uint16(frame[transportOff+3])
	return srcPort == dnsPort || dstPort == dnsPort
}

// dnsQueryTypeAAAA inspects the first question in a DNS message for a QTYPE
// of AAAA (28). It is deliberately permissive about malformed messages,
// treating anything it can't parse as "not AAAA" so a truncated capture
// doesn't spuriously drop legitimate traffic.
func dnsQueryTypeAAAA(frame []byte) bool {
	const udpHeaderLen = 8
	const dnsHeaderLen = 12
	payloadOff := l3HeaderLen + udpHeaderLen
	if len(frame) < payloadOff+dnsHeaderLen+1 {
		return false
	}
	dns := frame[payloadOff:]

	// Skip the question name: a sequence of length-prefixed labels ending
	// in a zero byte.
	pos := dnsHeaderLen
	for pos < len(dns) {
		labelLen := int(dns[pos])
		if labelLen == 0 {
			pos++
			break
		}
		pos += 1 + labelLen
	}
	if pos+2 > len(dns) {
		return false
	}
	qtype := uint16(dns[pos])<<8 | uint16(dns[pos+1])
	const dnsTypeAAAA = 28
	return qtype == dnsTypeAAAA
}
