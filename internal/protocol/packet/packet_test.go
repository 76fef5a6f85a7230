package packet

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/danmuck/tlvwire/internal/protocol"
	"github.com/danmuck/tlvwire/internal/protocol/tlv"
)

func sampleHeader() Header {
	return Header{
		Key:             Key{0xDE, 0xAD, 0xBE, 0xEF},
		SessionGUID:     GUID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		EncryptionFlags: 0x01,
		Length:          HeaderLen,
		Type:            tlv.PacketResponse,
	}
}

func TestHeaderLayout(t *testing.T) {
	b := EncodeHeader(sampleHeader())
	if len(b) != HeaderLen {
		t.Fatalf("header len %d", len(b))
	}
	if !bytes.Equal(b[0:4], []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Fatalf("key bytes %v", b[0:4])
	}
	if b[4] != 1 || b[19] != 16 {
		t.Fatalf("guid bytes %v", b[4:20])
	}
	if !bytes.Equal(b[20:32], []byte{1, 0, 0, 0, 32, 0, 0, 0, 1, 0, 0, 0}) {
		t.Fatalf("flags/length/type bytes %v", b[20:32])
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	in := sampleHeader()
	b := EncodeHeader(in)
	out, err := DecodeHeader(b)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if out != in {
		t.Fatalf("header mismatch: got=%+v want=%+v", out, in)
	}
	if !bytes.Equal(EncodeHeader(out), b) {
		t.Fatalf("encode(decode(bytes)) differs")
	}
}

func TestHeaderRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, pt := range tlv.PacketTypes() {
		for i := 0; i < 200; i++ {
			b := make([]byte, HeaderLen)
			rng.Read(b[:28])
			copy(b[28:], pt.Bytes())

			h, err := DecodeHeader(b)
			if err != nil {
				t.Fatalf("%s: decode header: %v", pt, err)
			}
			if h.Type != pt {
				t.Fatalf("%s: decoded type %s", pt, h.Type)
			}
			if got := EncodeHeader(h); !bytes.Equal(got, b) {
				t.Fatalf("%s: encode(decode(bytes)) differs\n got=%x\nwant=%x", pt, got, b)
			}
		}
	}
}

func TestNewHeaderDefaults(t *testing.T) {
	h := NewHeader()
	if h.Length != HeaderLen || h.Type != tlv.PacketRequest || h.EncryptionFlags != 0 {
		t.Fatalf("unexpected defaults: %+v", h)
	}
	if h.Key != (Key{}) || h.SessionGUID != (GUID{}) {
		t.Fatalf("key/guid not zeroed: %+v", h)
	}
}

func TestDecodeHeaderTruncated(t *testing.T) {
	_, err := DecodeHeader(make([]byte, HeaderLen-1))
	if !errors.Is(err, protocol.ErrTruncatedInput) {
		t.Fatalf("expected ErrTruncatedInput, got %v", err)
	}
}

func TestPacketRoundTrip(t *testing.T) {
	p := New()
	p.Header.SessionGUID = NewSessionGUID()
	p.AddTLV(tlv.NewString(tlv.Method, "core_channel_write"))
	p.AddTLV(tlv.NewString(tlv.RequestID, "99"))
	p.AddTLV(tlv.NewUint(tlv.ChannelID, 3))
	p.AddTLV(tlv.NewRaw(tlv.ChannelData, []byte("hello")))
	p.SyncLength()

	b := Encode(p)
	if uint32(len(b)) != p.Header.Length {
		t.Fatalf("encoded %d bytes, header says %d", len(b), p.Header.Length)
	}
	out, err := Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Local() {
		t.Fatalf("decoded packet must be remote")
	}
	if out.Header != p.Header {
		t.Fatalf("header mismatch: got=%+v want=%+v", out.Header, p.Header)
	}
	if len(out.TLVs) != len(p.TLVs) {
		t.Fatalf("expected %d tlvs, got %d", len(p.TLVs), len(out.TLVs))
	}
	if !bytes.Equal(Encode(out), b) {
		t.Fatalf("round-trip mismatch")
	}
}

func TestDecodeEmptyPayload(t *testing.T) {
	p := New()
	out, err := Decode(Encode(p))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.TLVs != nil {
		t.Fatalf("expected absent tlv list, got %v", out.TLVs)
	}
	if out.PayloadLength() != 0 {
		t.Fatalf("payload length %d", out.PayloadLength())
	}
}

func TestDecodeIgnoresBytesPastLength(t *testing.T) {
	p := Create(tlv.PacketRequest, tlv.NewUint(tlv.Result, 0))
	p.SyncLength()
	b := append(Encode(p), 0xAA, 0xBB, 0xCC)
	out, rest, err := DecodePrefix(b, protocol.DefaultLimits())
	if err != nil {
		t.Fatalf("decode prefix: %v", err)
	}
	if len(out.TLVs) != 1 {
		t.Fatalf("expected 1 tlv, got %d", len(out.TLVs))
	}
	if !bytes.Equal(rest, []byte{0xAA, 0xBB, 0xCC}) {
		t.Fatalf("unexpected rest %v", rest)
	}
}

func TestDecodeTruncatedInput(t *testing.T) {
	for _, n := range []int{0, 1, 16, HeaderLen - 1} {
		_, err := Decode(make([]byte, n))
		if !errors.Is(err, protocol.ErrTruncatedInput) {
			t.Fatalf("len=%d: expected ErrTruncatedInput, got %v", n, err)
		}
	}
}

func TestDecodeTruncatedBody(t *testing.T) {
	p := Create(tlv.PacketRequest, tlv.NewString(tlv.Method, "abc"))
	p.SyncLength()
	b := Encode(p)
	_, err := Decode(b[:len(b)-2])
	if !errors.Is(err, protocol.ErrTruncatedValue) {
		t.Fatalf("expected ErrTruncatedValue, got %v", err)
	}
}

func TestDecodeLengthBelowHeader(t *testing.T) {
	h := NewHeader()
	h.Length = 8
	_, err := Decode(EncodeHeader(h))
	if !errors.Is(err, protocol.ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
}

func TestDecodeOversizedLength(t *testing.T) {
	h := NewHeader()
	h.Length = 0xFFFFFFFF
	_, err := Decode(EncodeHeader(h))
	if !errors.Is(err, protocol.ErrOversizedLength) {
		t.Fatalf("expected ErrOversizedLength, got %v", err)
	}
	limits := protocol.Limits{MaxPacketBytes: 40, MaxValueBytes: 40}
	p := Create(tlv.PacketRequest, tlv.NewString(tlv.Method, "too long for the limit"))
	p.SyncLength()
	if _, err := DecodeLimits(Encode(p), limits); !errors.Is(err, protocol.ErrOversizedLength) {
		t.Fatalf("custom limit: expected ErrOversizedLength, got %v", err)
	}
}

func TestDecodePayloadTrailingGarbage(t *testing.T) {
	p := Create(tlv.PacketRequest, tlv.NewUint(tlv.Result, 0))
	p.TLVs = nil
	body := append(tlv.Encode(tlv.NewUint(tlv.Result, 0)), 1, 2, 3, 4, 5)
	p.Header.Length = uint32(HeaderLen + len(body))
	b := append(EncodeHeader(p.Header), body...)
	_, err := Decode(b)
	if !errors.Is(err, protocol.ErrTrailingGarbage) {
		t.Fatalf("expected ErrTrailingGarbage, got %v", err)
	}
}

func TestCreateLeavesLengthUnsynced(t *testing.T) {
	p := Create(tlv.PacketPlainRequest, tlv.NewString(tlv.Method, "core_loadlib"))
	if !p.Local() {
		t.Fatalf("created packet must be local")
	}
	if p.Header.Type != tlv.PacketPlainRequest {
		t.Fatalf("type %s", p.Header.Type)
	}
	if p.Header.Length != HeaderLen {
		t.Fatalf("length must stay at default, got %d", p.Header.Length)
	}
	b := Encode(p)
	if uint32(len(b)) == p.Header.Length {
		t.Fatalf("encode must not rewrite length")
	}
	got, err := DecodeHeader(b)
	if err != nil || got.Length != HeaderLen {
		t.Fatalf("encoded header length %d err %v", got.Length, err)
	}
}

func TestPayloadAndWireLength(t *testing.T) {
	p := New()
	p.AddTLV(tlv.NewRaw(tlv.Data, make([]byte, 10)))
	p.AddTLV(tlv.NewUint(tlv.Result, 1))
	if p.PayloadLength() != 14 {
		t.Fatalf("payload length %d", p.PayloadLength())
	}
	if p.WireLength() != HeaderLen+8+10+8+4 {
		t.Fatalf("wire length %d", p.WireLength())
	}
	if p.Header.Length != HeaderLen {
		t.Fatalf("payload helpers must not touch header length")
	}
}

func TestSessionGUID(t *testing.T) {
	g := NewSessionGUID()
	h := NewHeader()
	h.SessionGUID = g
	parsed, err := ParseSessionGUID(h.Session().String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != g {
		t.Fatalf("guid mismatch")
	}
	if _, err := ParseSessionGUID("not-a-guid"); err == nil {
		t.Fatalf("expected parse error")
	}
}
