// Package transport moves packets over byte streams.
//
// Ownership boundary:
// - exact-length reads of header and body from an io.Reader
// - optional xor obfuscation of everything after the key
// - traffic logging and metrics
//
// Packet semantics stay in internal/protocol/packet.
package transport

import (
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/tlvwire/internal/observability"
	"github.com/danmuck/tlvwire/internal/protocol"
	"github.com/danmuck/tlvwire/internal/protocol/packet"
	"github.com/danmuck/tlvwire/internal/protocol/wire"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options configures a Reader or Writer.
type Options struct {
	Limits     protocol.Limits
	Obfuscated bool
	Logger     *zerolog.Logger
}

func DefaultOptions() Options {
	return Options{Limits: protocol.DefaultLimits()}
}

func (o Options) logger() zerolog.Logger {
	if o.Logger != nil {
		return *o.Logger
	}
	return log.Logger
}

// Reader decodes packets from a stream.
type Reader struct {
	r    io.Reader
	opts Options
	log  zerolog.Logger
}

func NewReader(r io.Reader, opts Options) *Reader {
	return &Reader{r: r, opts: opts, log: opts.logger().With().Str("component", "transport.reader").Logger()}
}

// ReadPacket reads one packet and returns it with its raw wire bytes, as
// received. io.EOF is returned only when the stream ends cleanly between
// packets.
func (r *Reader) ReadPacket() (packet.Packet, []byte, error) {
	var head [packet.HeaderLen]byte
	if _, err := io.ReadFull(r.r, head[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return packet.Packet{}, nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return packet.Packet{}, nil, r.reject(fmt.Errorf("%w: stream ended inside packet header", protocol.ErrTruncatedInput))
		}
		return packet.Packet{}, nil, err
	}

	plainHead := head
	if r.opts.Obfuscated {
		Obfuscate(plainHead[:])
	}
	length, err := wire.A.Uint32(plainHead[24:28])
	if err != nil {
		return packet.Packet{}, nil, r.reject(err)
	}
	if length < packet.HeaderLen {
		return packet.Packet{}, nil, r.reject(fmt.Errorf("%w: packet length %d below header size", protocol.ErrInvalidLength, length))
	}
	if length > r.opts.Limits.MaxPacketBytes {
		return packet.Packet{}, nil, r.reject(fmt.Errorf("%w: packet declares %d bytes, limit %d", protocol.ErrOversizedLength, length, r.opts.Limits.MaxPacketBytes))
	}

	raw := make([]byte, length)
	copy(raw, head[:])
	if _, err := io.ReadFull(r.r, raw[packet.HeaderLen:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return packet.Packet{}, nil, r.reject(fmt.Errorf("%w: stream ended inside packet body", protocol.ErrTruncatedValue))
		}
		return packet.Packet{}, nil, err
	}

	plain := raw
	if r.opts.Obfuscated {
		plain = make([]byte, len(raw))
		copy(plain, raw)
		Obfuscate(plain)
	}
	p, err := packet.DecodeLimits(plain, r.opts.Limits)
	if err != nil {
		return packet.Packet{}, nil, r.reject(err)
	}

	observability.RecordPacket(observability.DirectionIn, p.Header.Type.String(), len(raw))
	r.log.Debug().
		Str("type", p.Header.Type.String()).
		Str("session", p.Header.Session().String()).
		Uint32("length", p.Header.Length).
		Int("tlvs", len(p.TLVs)).
		Msg("packet received")
	return p, raw, nil
}

func (r *Reader) reject(err error) error {
	observability.RecordDecodeError(err)
	r.log.Warn().Err(err).Str("reason", observability.DecodeErrorReason(err)).Msg("packet rejected")
	return err
}

// Writer encodes packets onto a stream.
type Writer struct {
	w    io.Writer
	opts Options
	log  zerolog.Logger
}

func NewWriter(w io.Writer, opts Options) *Writer {
	return &Writer{w: w, opts: opts, log: opts.logger().With().Str("component", "transport.writer").Logger()}
}

// WritePacket encodes p as is. The header length must already match the
// payload. When obfuscation is on, a fresh key replaces Header.Key.
func (w *Writer) WritePacket(p packet.Packet) error {
	if p.Header.Length != p.WireLength() {
		w.log.Warn().
			Uint32("header_length", p.Header.Length).
			Uint32("wire_length", p.WireLength()).
			Msg("packet header length does not match payload")
	}
	if w.opts.Obfuscated {
		key, err := RandomKey()
		if err != nil {
			return err
		}
		p.Header.Key = key
	}
	buf := packet.Encode(p)
	if w.opts.Obfuscated {
		Obfuscate(buf)
	}
	if _, err := w.w.Write(buf); err != nil {
		return fmt.Errorf("transport: write packet: %w", err)
	}
	observability.RecordPacket(observability.DirectionOut, p.Header.Type.String(), len(buf))
	w.log.Debug().
		Str("type", p.Header.Type.String()).
		Int("bytes", len(buf)).
		Msg("packet sent")
	return nil
}
