// Package compress inflates and deflates channel data carried in tlv values.
//
// A compressed value is the uncompressed size (u32, order B) followed by a
// zlib stream. Channels opened with tlv.ChannelFlagCompress send their
// ChannelData this way; the packet codec itself only carries the bytes.
package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/danmuck/tlvwire/internal/protocol"
	"github.com/danmuck/tlvwire/internal/protocol/packet"
	"github.com/danmuck/tlvwire/internal/protocol/tlv"
	"github.com/danmuck/tlvwire/internal/protocol/wire"
	"github.com/klauspost/compress/zlib"
)

// Deflate compresses data into the sized zlib value format.
func Deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(wire.B.Bytes(uint32(len(data))))
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("compress: deflate: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress: deflate close: %w", err)
	}
	return buf.Bytes(), nil
}

// Inflate decompresses a sized zlib value. The declared size is checked
// against limit before any output buffer is allocated, and the stream must
// produce exactly that many bytes.
func Inflate(value []byte, limit uint32) ([]byte, error) {
	size, err := wire.B.Uint32(value)
	if err != nil {
		return nil, fmt.Errorf("compress: size prefix: %w", err)
	}
	if size > limit {
		return nil, fmt.Errorf("%w: compressed value declares %d bytes, limit %d", protocol.ErrOversizedLength, size, limit)
	}
	zr, err := zlib.NewReader(bytes.NewReader(value[wire.Uint32Size:]))
	if err != nil {
		return nil, fmt.Errorf("compress: open stream: %w", err)
	}
	defer zr.Close()

	out := make([]byte, size)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, fmt.Errorf("%w: inflate: %v", protocol.ErrTruncatedValue, err)
	}
	var extra [1]byte
	if n, _ := zr.Read(extra[:]); n != 0 {
		return nil, fmt.Errorf("%w: inflated data exceeds declared %d bytes", protocol.ErrInvalidLength, size)
	}
	return out, nil
}

// NewChannelData builds a ChannelData tlv, deflating data when compressed is
// set.
func NewChannelData(data []byte, compressed bool) (tlv.Tlv, error) {
	if !compressed {
		return tlv.NewRaw(tlv.ChannelData, data), nil
	}
	value, err := Deflate(data)
	if err != nil {
		return tlv.Tlv{}, err
	}
	return tlv.Tlv{Type: tlv.ChannelData, Value: value}, nil
}

// ChannelCompressed reports whether the packet's Flags tlv carries
// tlv.ChannelFlagCompress.
func ChannelCompressed(p *packet.Packet) bool {
	for _, t := range p.TLVs {
		if t.Type != tlv.Flags {
			continue
		}
		flags, err := t.Uint()
		if err != nil {
			continue
		}
		return flags&tlv.ChannelFlagCompress != 0
	}
	return false
}

// InflateChannelData fills the packet's decompressed buffer cache with every
// ChannelData value when the packet is flagged compressed. It returns the
// number of buffers cached.
func InflateChannelData(p *packet.Packet, limit uint32) (int, error) {
	if !ChannelCompressed(p) {
		return 0, nil
	}
	bufs := make([]packet.DecompressedBuffer, 0, 1)
	for i, t := range p.TLVs {
		if t.Type != tlv.ChannelData {
			continue
		}
		out, err := Inflate(t.Value, limit)
		if err != nil {
			return 0, fmt.Errorf("channel data tlv %d: %w", i, err)
		}
		bufs = append(bufs, packet.DecompressedBuffer{
			Type:   t.Type,
			Buffer: out,
			Length: uint32(len(out)),
		})
	}
	p.SetDecompressedBuffers(bufs)
	return len(bufs), nil
}
