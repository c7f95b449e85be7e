// Package keys derives the authentication and encryption key dictionaries
// shared by both tunnel endpoints from a pre-shared secret and the bound UDP
// port. Both peers must compute byte-identical dictionaries without any
// network exchange; §4.1 of the tunnel specification fixes the derivation.
package keys

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// KeyLen is the size in bytes of every entry in the auth and enc dictionaries.
const KeyLen = 16

// KeyMax is the number of entries in each dictionary. Both peers must agree
// on this value; it is not negotiated.
const KeyMax = 256

// Dictionary holds the two key tables derived from the shared secret. It is
// immutable once built and safe for concurrent read-only use by multiple
// goroutines (the engine's reader and event-loop goroutines in particular).
type Dictionary struct {
	auth [KeyMax][KeyLen]byte
	enc  [KeyMax][KeyLen]byte
}

// Auth returns the 16-byte auth key selected by index, wrapping modulo KeyMax.
func (d *Dictionary) Auth(index uint32) []byte {
	k := d.auth[index%KeyMax]
	return k[:]
}

// Enc returns the 16-byte encryption key selected by index, wrapping modulo KeyMax.
func (d *Dictionary) Enc(index uint32) []byte {
	k := d.enc[index%KeyMax]
	return k[:]
}

// Derive builds the auth and enc dictionaries from the secret-file bytes and
// the UDP port the tunnel is bound to. The port is folded into the keying
// material so two tunnels sharing a secret but bound to different ports
// never collide.
//
// auth[i] = BLAKE2b-128(secret, key = 16-byte big-endian encoding of i)
// enc[i]  = BLAKE2b-128(secret, key = 16-byte big-endian encoding of i+KeyMax)
//
// Every entry of both tables is then rehashed keyed with itself over the
// big-endian port (see mix).
//
// This mirrors firetunnel's secret.c, which keys BLAKE2 off an incrementing
// counter and derives the enc dictionary from key indices past the auth
// counters so the two tables never reuse a keying input.
func Derive(secret []byte, port uint16) (*Dictionary, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("keys: empty secret")
	}

	d := &Dictionary{}
	for i := uint32(0); i < KeyMax; i++ {
		k, err := counterHash(secret, i)
		if err != nil {
			return nil, fmt.Errorf("keys: deriving auth[%d]: %w", i, err)
		}
		d.auth[i] = k
	}
	for i := uint32(0); i < KeyMax; i++ {
		k, err := counterHash(secret, i+KeyMax)
		if err != nil {
			return nil, fmt.Errorf("keys: deriving enc[%d]: %w", i, err)
		}
		d.enc[i] = k
	}

	// Fold the bound port into every entry of both dictionaries so tunnels
	// on different ports with the same secret never share keying material.
	var portSeed [2]byte
	binary.BigEndian.PutUint16(portSeed[:], port)
	for i := range d.auth {
		d.auth[i] = mix(d.auth[i], portSeed[:])
		d.enc[i] = mix(d.enc[i], portSeed[:])
	}

	return d, nil
}

// counterHash computes BLAKE2b-128(secret, key = 16-byte big-endian counter).
func counterHash(secret []byte, counter uint32) ([KeyLen]byte, error) {
	var keyBuf [KeyLen]byte
	binary.BigEndian.PutUint32(keyBuf[KeyLen-4:], counter)

	h, err := blake2b.New(KeyLen, keyBuf[:])
	if err != nil {
		return [KeyLen]byte{}, err
	}
	h.Write(secret)

	var out [KeyLen]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

// mix folds extra bytes into a derived key without weakening it, by
// rehashing the key keyed with itself and the extra bytes appended.
func mix(key [KeyLen]byte, extra []byte) [KeyLen]byte {
	h, err := blake2b.New(KeyLen, key[:])
	if err != nil {
		// blake2b.New only fails for an out-of-range key/size, which cannot
		// happen here: KeyLen is a compile-time constant within bounds.
		panic(fmt.Sprintf("keys: unreachable blake2b error: %v", err))
	}
	h.Write(extra)
	var out [KeyLen]byte
	copy(out[:], h.Sum(nil))
	return out
}
