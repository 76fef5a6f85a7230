// Package wire holds the fixed-width integer primitives used by the packet
// and tlv codecs.
//
// Two byte orders are in use on the wire. A covers the packet header flag and
// length fields plus every packet type, tlv length, and tlv type code. B covers
// integer values carried inside tlv buffers. Both are fixed by interoperating
// peers and must not be swapped for "network order" by convention.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/danmuck/tlvwire/internal/protocol"
)

const Uint32Size = 4

type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Order is one of the two wire byte orders.
type Order struct {
	name string
	bo   byteOrder
}

var (
	// A stores the least significant byte first.
	A = Order{name: "A", bo: binary.LittleEndian}
	// B stores the most significant byte first.
	B = Order{name: "B", bo: binary.BigEndian}
)

// Uint32 decodes the first four bytes of b.
func (o Order) Uint32(b []byte) (uint32, error) {
	if len(b) < Uint32Size {
		return 0, fmt.Errorf("%w: order %s u32 needs %d bytes, have %d", protocol.ErrTruncatedInput, o.name, Uint32Size, len(b))
	}
	return o.bo.Uint32(b[:Uint32Size]), nil
}

// Bytes encodes v into a fresh four byte slice.
func (o Order) Bytes(v uint32) []byte {
	buf := make([]byte, Uint32Size)
	o.bo.PutUint32(buf, v)
	return buf
}

// Append appends the four byte encoding of v to dst.
func (o Order) Append(dst []byte, v uint32) []byte {
	return o.bo.AppendUint32(dst, v)
}

// Uint64 decodes the first eight bytes of b.
func (o Order) Uint64(b []byte) (uint64, error) {
	if len(b) < 8 {
		return 0, fmt.Errorf("%w: order %s u64 needs 8 bytes, have %d", protocol.ErrTruncatedInput, o.name, len(b))
	}
	return o.bo.Uint64(b[:8]), nil
}

func (o Order) Append64(dst []byte, v uint64) []byte {
	return o.bo.AppendUint64(dst, v)
}

func (o Order) String() string {
	return o.name
}
