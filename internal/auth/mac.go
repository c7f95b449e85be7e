// Package auth computes and verifies the keyed BLAKE2 message authentication
// code carried on every tunnel packet, grounded on firetunnel's secret.c
// get_hash() and the MAC placement described in packet.c's pkt_check_header.
package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/shadowmesh/l2tun/internal/keys"
)

// MACLen is the size in bytes of the trailing authentication tag.
const MACLen = 16

// SelectIndex computes the dictionary index used to authenticate a packet
// with the given sequence number and timestamp, matching firetunnel's
// "(seq+timestamp) mod KEY_MAX" key-rotation rule.
func SelectIndex(seq uint16, timestamp uint32) uint32 {
	return (uint32(seq) + timestamp) % keys.KeyMax
}

// Compute returns the 16-byte keyed BLAKE2 MAC over data, using the auth key
// selected by seq and timestamp.
func Compute(dict *keys.Dictionary, seq uint16, timestamp uint32, data []byte) ([MACLen]byte, error) {
	key := dict.Auth(SelectIndex(seq, timestamp))

	h, err := blake2b.New(MACLen, key)
	if err != nil {
		return [MACLen]byte{}, fmt.Errorf("auth: blake2b init: %w", err)
	}
	h.Write(data)

	var out [MACLen]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

// Verify recomputes the MAC over data and compares it against want in
// constant time, returning true only on an exact match.
func Verify(dict *keys.Dictionary, seq uint16, timestamp uint32, data []byte, want []byte) bool {
	if len(want) != MACLen {
		return false
	}
	got, err := Compute(dict, seq, timestamp, data)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(got[:], want) == 1
}
