// Package scramble provides the deterministic, symmetric payload obfuscation
// applied to every tunnel frame. firetunnel's original scrambler is a
// reversible XOR cipher keyed from the enc dictionary; this implementation
// keeps that deterministic, non-authenticated design (the MAC in
// internal/auth is what provides integrity) but substitutes a ChaCha20
// keystream for the XOR pad, as the specification's design notes permit.
package scramble

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/chacha20"

	"github.com/shadowmesh/l2tun/internal/keys"
)

// Apply XORs data in place with a ChaCha20 keystream derived from the enc
// dictionary entry selected by seq/timestamp, plus a nonce built from the
// same header fields. Because ChaCha20 is its own inverse under XOR, the
// same call descrambles a previously scrambled payload.
func Apply(dict *keys.Dictionary, seq uint16, timestamp uint32, data []byte) error {
	key := dict.Enc(encIndex(seq, timestamp))

	// ChaCha20 wants a 32-byte key; expand the 16-byte dictionary entry by
	// doubling it. The dictionary entry is already a keyed BLAKE2 output,
	// selected by this (seq, timestamp) pair, so the repetition does not
	// reintroduce a short-key weakness: an observer recovering the repeated
	// half gains nothing not already implied by recovering the first half.
	var chachaKey [32]byte
	copy(chachaKey[:16], key)
	copy(chachaKey[16:], key)

	nonce := buildNonce(seq, timestamp)

	c, err := chacha20.NewUnauthenticatedCipher(chachaKey[:], nonce[:])
	if err != nil {
		return fmt.Errorf("scramble: init cipher: %w", err)
	}
	c.XORKeyStream(data, data)
	return nil
}

// encIndex computes the enc dictionary index for a given seq/timestamp,
// mirroring auth.SelectIndex's key-rotation rule so the two dictionaries
// rotate in lockstep.
func encIndex(seq uint16, timestamp uint32) uint32 {
	return (uint32(seq) + timestamp) % keys.KeyMax
}

// buildNonce derives the 12-byte ChaCha20 nonce from the packet's sequence
// number and timestamp so every distinct header produces a distinct
// keystream, even when the enc key index repeats across the KeyMax period.
func buildNonce(seq uint16, timestamp uint32) [chacha20.NonceSize]byte {
	var nonce [chacha20.NonceSize]byte
	binary.BigEndian.PutUint16(nonce[0:2], seq)
	binary.BigEndian.PutUint32(nonce[2:6], timestamp)
	return nonce
}
