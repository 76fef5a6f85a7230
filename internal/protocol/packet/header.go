package packet

import (
	"fmt"

	"github.com/danmuck/tlvwire/internal/protocol"
	"github.com/danmuck/tlvwire/internal/protocol/tlv"
	"github.com/danmuck/tlvwire/internal/protocol/wire"
	"github.com/google/uuid"
)

const (
	KeySize  = 4
	GUIDSize = 16

	// HeaderLen is the fixed packet header size:
	// key(4) | session guid(16) | encryption flags(4) | length(4) | type(4).
	HeaderLen = KeySize + GUIDSize + 12
)

type (
	Key  [KeySize]byte
	GUID [GUIDSize]byte
)

// Header is the fixed packet header. Length is the total packet size on the
// wire, header included, and is never recomputed by the codec.
type Header struct {
	Key             Key
	SessionGUID     GUID
	EncryptionFlags uint32
	Length          uint32
	Type            tlv.PacketType
}

// NewHeader returns the default header: zeroed key, guid and flags, a request
// type, and a length covering the header alone.
func NewHeader() Header {
	return Header{
		Length: HeaderLen,
		Type:   tlv.PacketRequest,
	}
}

// Session returns the session guid as a uuid.
func (h Header) Session() uuid.UUID {
	return uuid.UUID(h.SessionGUID)
}

// NewSessionGUID returns a random session guid.
func NewSessionGUID() GUID {
	return GUID(uuid.New())
}

// ParseSessionGUID parses the canonical uuid text form.
func ParseSessionGUID(s string) (GUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return GUID{}, fmt.Errorf("packet: parse session guid: %w", err)
	}
	return GUID(id), nil
}

func EncodeHeader(h Header) []byte {
	return appendHeader(make([]byte, 0, HeaderLen), h)
}

func appendHeader(dst []byte, h Header) []byte {
	dst = append(dst, h.Key[:]...)
	dst = append(dst, h.SessionGUID[:]...)
	dst = wire.A.Append(dst, h.EncryptionFlags)
	dst = wire.A.Append(dst, h.Length)
	dst = wire.A.Append(dst, h.Type.Code())
	return dst
}

// DecodeHeader decodes the first HeaderLen bytes of b.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, fmt.Errorf("%w: packet header needs %d bytes, have %d", protocol.ErrTruncatedInput, HeaderLen, len(b))
	}
	var h Header
	copy(h.Key[:], b[0:4])
	copy(h.SessionGUID[:], b[4:20])
	flags, err := wire.A.Uint32(b[20:24])
	if err != nil {
		return Header{}, err
	}
	length, err := wire.A.Uint32(b[24:28])
	if err != nil {
		return Header{}, err
	}
	pt, err := tlv.PacketTypeFromBytes(b[28:32])
	if err != nil {
		return Header{}, err
	}
	h.EncryptionFlags = flags
	h.Length = length
	h.Type = pt
	return h, nil
}
