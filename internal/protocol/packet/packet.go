package packet

import (
	"fmt"

	"github.com/danmuck/tlvwire/internal/protocol"
	"github.com/danmuck/tlvwire/internal/protocol/tlv"
)

// DecompressedBuffer caches the inflated value of one compressed tlv.
type DecompressedBuffer struct {
	Type   tlv.Type
	Buffer []byte
	Length uint32
}

// Packet is one complete wire message.
//
// Header.Length is not kept in sync with TLVs. Callers that add records must
// call SyncLength, or set the length themselves, before Encode.
type Packet struct {
	Header Header
	// TLVs is nil when the packet carries no payload.
	TLVs []tlv.Tlv

	decompressed []DecompressedBuffer
	local        bool
}

// New returns an empty local packet with a default header.
func New() Packet {
	return Packet{Header: NewHeader(), local: true}
}

// Create returns a local packet of type pt holding t. The header length is
// left at HeaderLen.
func Create(pt tlv.PacketType, t tlv.Tlv) Packet {
	p := New()
	p.Header.Type = pt
	p.AddTLV(t)
	return p
}

// Local reports whether the packet was assembled here rather than decoded
// from the wire.
func (p *Packet) Local() bool {
	return p.local
}

func (p *Packet) SetHeader(h Header) {
	p.Header = h
}

func (p *Packet) AddTLV(t tlv.Tlv) {
	if p.TLVs == nil {
		p.TLVs = make([]tlv.Tlv, 0, 5)
	}
	p.TLVs = append(p.TLVs, t)
}

func (p *Packet) SetTLVs(list []tlv.Tlv) {
	p.TLVs = list
}

// PayloadLength sums the value lengths of every tlv, excluding tlv headers.
func (p *Packet) PayloadLength() uint32 {
	var n uint32
	for _, t := range p.TLVs {
		n += t.Length()
	}
	return n
}

// WireLength is the size Encode will produce.
func (p *Packet) WireLength() uint32 {
	n := uint32(HeaderLen)
	for _, t := range p.TLVs {
		n += uint32(t.EncodedLen())
	}
	return n
}

// SyncLength sets Header.Length to WireLength.
func (p *Packet) SyncLength() {
	p.Header.Length = p.WireLength()
}

func (p *Packet) DecompressedBuffers() []DecompressedBuffer {
	return p.decompressed
}

func (p *Packet) SetDecompressedBuffers(bufs []DecompressedBuffer) {
	p.decompressed = bufs
}

// Encode emits the header followed by every tlv in stored order. Header.Length
// is written as set.
func Encode(p Packet) []byte {
	n := HeaderLen
	for _, t := range p.TLVs {
		n += t.EncodedLen()
	}
	out := appendHeader(make([]byte, 0, n), p.Header)
	for _, t := range p.TLVs {
		out = tlv.AppendEncoded(out, t)
	}
	return out
}

// Decode decodes one packet from b using protocol.DefaultLimits. Bytes past
// Header.Length are ignored.
func Decode(b []byte) (Packet, error) {
	p, _, err := DecodePrefix(b, protocol.DefaultLimits())
	return p, err
}

func DecodeLimits(b []byte, limits protocol.Limits) (Packet, error) {
	p, _, err := DecodePrefix(b, limits)
	return p, err
}

// DecodePrefix decodes the packet at the start of b and returns the bytes
// that follow it.
func DecodePrefix(b []byte, limits protocol.Limits) (Packet, []byte, error) {
	h, err := DecodeHeader(b)
	if err != nil {
		return Packet{}, b, err
	}
	if h.Length < HeaderLen {
		return Packet{}, b, fmt.Errorf("%w: packet length %d below header size %d", protocol.ErrInvalidLength, h.Length, HeaderLen)
	}
	if h.Length > limits.MaxPacketBytes {
		return Packet{}, b, fmt.Errorf("%w: packet declares %d bytes, limit %d", protocol.ErrOversizedLength, h.Length, limits.MaxPacketBytes)
	}
	bodyLen := int(h.Length) - HeaderLen
	body := b[HeaderLen:]
	if bodyLen > len(body) {
		return Packet{}, b, fmt.Errorf("%w: packet body declares %d bytes, have %d", protocol.ErrTruncatedValue, bodyLen, len(body))
	}

	p := Packet{Header: h}
	if bodyLen != 0 {
		list, err := tlv.DecodeListLimits(body[:bodyLen], limits)
		if err != nil {
			return Packet{}, b, fmt.Errorf("packet payload: %w", err)
		}
		p.TLVs = list
	}
	return p, body[bodyLen:], nil
}
