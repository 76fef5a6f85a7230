package transport

import (
	"crypto/rand"
	"fmt"

	"github.com/danmuck/tlvwire/internal/protocol/packet"
)

// RandomKey returns a fresh obfuscation key. Zero bytes are avoided so that
// no part of the packet passes through untouched.
func RandomKey() (packet.Key, error) {
	var k packet.Key
	if _, err := rand.Read(k[:]); err != nil {
		return packet.Key{}, fmt.Errorf("transport: read random key: %w", err)
	}
	for i := range k {
		if k[i] == 0 {
			k[i] = 0x01
		}
	}
	return k, nil
}

// Obfuscate XORs every byte after the header key with the key in buf[0:4],
// cycling. Applying it twice restores the input. Buffers shorter than a key
// are left unchanged.
func Obfuscate(buf []byte) {
	if len(buf) < packet.KeySize {
		return
	}
	var k packet.Key
	copy(k[:], buf[:packet.KeySize])
	body := buf[packet.KeySize:]
	for i := range body {
		body[i] ^= k[i%packet.KeySize]
	}
}
