package compress

import "testing"

func ethHeader(dst, src byte, etherType uint16) []byte {
	h := make([]byte, ethernetHeaderLen)
	for i := 0; i < 6; i++ {
		h[i] = dst
		h[6+i] = src
	}
	h[12] = byte(etherType >> 8)
	h[13] = byte(etherType)
	return h
}

func ipv4Header(proto uint8, totalLen uint16, id uint16, ttl uint8) []byte {
	h := make([]byte, ipv4HeaderLenMin)
	h[0] = 0x45 // version 4, IHL 5 (no options)
	h[2] = byte(totalLen >> 8)
	h[3] = byte(totalLen)
	h[4] = byte(id >> 8)
	h[5] = byte(id)
	h[8] = ttl
	h[9] = proto
	h[10] = 0xAB // checksum placeholder
	h[11] = 0xCD
	copy(h[12:16], []byte{10, 0, 0, 1})
	copy(h[16:20], []byte{10, 0, 0, 2})
	return h
}

func udpFrame(srcPort, dstPort uint16, payload []byte) []byte {
	frame := append([]byte(nil), ethHeader(0xAA, 0xBB, etherTypeIPv4)...)
	frame = append(frame, ipv4Header(protoUDP, uint16(8+len(payload)), 1, 64)...)
	udp := make([]byte, udpHeaderLen)
	udp[0] = byte(srcPort >> 8)
	udp[1] = byte(srcPort)
	udp[2] = byte(dstPort >> 8)
	udp[3] = byte(dstPort)
	frame = append(frame, udp...)
	frame = append(frame, payload...)
	return frame
}

// TestL2CompressRoundTrip checks that the second occurrence of an identical
// Ethernet header is reported compressible and decompresses back to the
// original frame.
func TestL2CompressRoundTrip(t *testing.T) {
	tx, rx := NewTable(), NewTable()
	frame := append(ethHeader(0x11, 0x22, 0x9999), []byte("payload one")...)

	r1 := CompressL2(tx, frame)
	if r1.Compressible {
		t.Fatalf("first frame reported compressible")
	}
	rx.Store(r1.SID, buildSignature(frame[:ethernetHeaderLen], l2Variable))

	frame2 := append(ethHeader(0x11, 0x22, 0x9999), []byte("payload two")...)
	r2 := CompressL2(tx, frame2)
	if !r2.Compressible {
		t.Fatalf("second identical-header frame reported not compressible")
	}

	got, ok := DecompressL2(rx, r2.SID, r2.Output)
	if !ok {
		t.Fatalf("DecompressL2 failed")
	}
	if string(got) != string(frame2) {
		t.Fatalf("decompressed frame = %x, want %x", got, frame2)
	}
}

// TestL3CompressExcludesVariableFields checks that total length, id, and
// TTL differences alone don't prevent a signature hit, since those fields
// are excluded from the signature and restored from the wire separately.
func TestL3CompressExcludesVariableFields(t *testing.T) {
	tx, rx := NewTable(), NewTable()

	frame1 := append(ethHeader(1, 2, etherTypeIPv4), ipv4Header(protoICMP, 40, 1, 64)...)
	r1 := CompressL3(tx, frame1)
	rx.Store(r1.SID, buildSignature(frame1[:l3HeaderLen], l3Variable))

	frame2 := append(ethHeader(1, 2, etherTypeIPv4), ipv4Header(protoICMP, 60, 2, 32)...)
	r2 := CompressL3(tx, frame2)
	if !r2.Compressible {
		t.Fatalf("frame with only variable-field differences reported not compressible")
	}

	got, ok := DecompressL3(rx, r2.SID, r2.Output)
	if !ok {
		t.Fatalf("DecompressL3 failed")
	}
	if string(got) != string(frame2) {
		t.Fatalf("decompressed frame = %x, want %x", got, frame2)
	}
}

// TestL4CompressRoundTripUDP checks a full UDP compression hit, including
// recovering the transport protocol from the stored template.
func TestL4CompressRoundTripUDP(t *testing.T) {
	tx, rx := NewTable(), NewTable()

	frame1 := udpFrame(4000, 53, []byte("a"))
	r1, ok := CompressL4(tx, frame1)
	if !ok {
		t.Fatalf("CompressL4 rejected a valid UDP frame")
	}
	rx.Store(r1.SID, buildSignature(frame1[:l3HeaderLen+udpHeaderLen], mustTransportVariable(t, protoUDP)))

	frame2 := udpFrame(4000, 53, []byte("bb"))
	r2, ok := CompressL4(tx, frame2)
	if !ok || !r2.Compressible {
		t.Fatalf("second identical-flow UDP frame not compressed: ok=%v compressible=%v", ok, r2.Compressible)
	}

	proto, ok := DecompressL4Proto(rx, r2.SID)
	if !ok || proto != protoUDP {
		t.Fatalf("DecompressL4Proto = (%d, %v), want (%d, true)", proto, ok, protoUDP)
	}
	got, ok := DecompressL4(rx, r2.SID, r2.Output, proto)
	if !ok {
		t.Fatalf("DecompressL4 failed")
	}
	if string(got) != string(frame2) {
		t.Fatalf("decompressed frame = %x, want %x", got, frame2)
	}
}

func mustTransportVariable(t *testing.T, proto uint8) []span {
	t.Helper()
	_, v, ok := transportVariable(proto)
	if !ok {
		t.Fatalf("transportVariable(%d) not ok", proto)
	}
	return v
}

// TestClassifyDropsIPv6 checks that an IPv6 frame is never assigned a
// compression layer.
func TestClassifyDropsIPv6(t *testing.T) {
	frame := ethHeader(1, 2, etherTypeIPv6)
	c := Classify(frame)
	if !c.Drop {
		t.Fatalf("IPv6 frame not dropped")
	}
}

// TestClassifyForcesDNSToL3 checks that a DNS query (UDP port 53) is
// classified as L3 even though it would otherwise qualify for L4.
func TestClassifyForcesDNSToL3(t *testing.T) {
	frame := udpFrame(5353, 53, []byte{0, 1, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 3, 'w', 'w', 'w', 0, 0, 1, 0, 1})
	c := Classify(frame)
	if c.Layer != LayerL3 || !c.IsDNS {
		t.Fatalf("Classify(DNS A query) = %+v, want L3/IsDNS", c)
	}
}

// TestClassifyDropsDNSAAAA checks that a DNS query for an AAAA record is
// dropped outright rather than tunnelled, since the tunnel never carries
// IPv6 addressing.
func TestClassifyDropsDNSAAAA(t *testing.T) {
	// Question: 3www0, QTYPE=28 (AAAA), QCLASS=1.
	question := []byte{3, 'w', 'w', 'w', 0, 0, 28, 0, 1}
	dnsMsg := append([]byte{0, 1, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0}, question...)
	frame := udpFrame(5353, 53, dnsMsg)

	c := Classify(frame)
	if !c.Drop || !c.IsDNS {
		t.Fatalf("Classify(DNS AAAA query) = %+v, want Drop/IsDNS", c)
	}
}

// TestClassifyTCPGetsL4 checks that plain TCP/IPv4 traffic is routed to L4.
func TestClassifyTCPGetsL4(t *testing.T) {
	frame := append(ethHeader(1, 2, etherTypeIPv4), ipv4Header(protoTCP, 40, 1, 64)...)
	c := Classify(frame)
	if c.Layer != LayerL4 {
		t.Fatalf("Classify(TCP) layer = %v, want L4", c.Layer)
	}
}

// TestClassifyARPGetsL2 checks that ARP frames are routed to L2 and counted.
func TestClassifyARPGetsL2(t *testing.T) {
	frame := ethHeader(1, 2, etherTypeARP)
	c := Classify(frame)
	if c.Layer != LayerL2 || !c.IsARP {
		t.Fatalf("Classify(ARP) = %+v, want L2/IsARP", c)
	}
}

// TestTableEvictsLRU checks that once a table is full, the least-recently
// touched slot is evicted to make room for a new signature.
func TestTableEvictsLRU(t *testing.T) {
	tbl := NewTable()
	for i := 0; i < TableSize; i++ {
		tbl.Classify([]byte{byte(i)})
	}
	// Touch every slot but the first, so slot 0 becomes the LRU victim.
	for i := 1; i < TableSize; i++ {
		tbl.Classify([]byte{byte(i)})
	}

	newSig := []byte{0xFF}
	sid, hit := tbl.Classify(newSig)
	if hit {
		t.Fatalf("brand new signature reported as a hit")
	}
	if sid != 0 {
		t.Fatalf("evicted sid = %d, want 0 (the untouched slot)", sid)
	}

	if _, ok := tbl.Template(0); !ok {
		t.Fatalf("slot 0 not populated after eviction")
	}
}
