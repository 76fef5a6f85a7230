package tlv

import (
	"fmt"

	"github.com/danmuck/tlvwire/internal/protocol"
	"github.com/danmuck/tlvwire/internal/protocol/wire"
)

// HeaderLen is the encoded size of a tlv header: value length then type code,
// both order A.
const HeaderLen = 8

// Header is the fixed tlv header. Length counts value bytes only.
type Header struct {
	Length uint32
	Type   Type
}

// Tlv is one type-length-value record. The value is opaque; group types carry
// a nested tlv list that callers expand with Children.
type Tlv struct {
	Type  Type
	Value []byte
}

// New creates a tlv holding a copy of value.
func New(t Type, value []byte) Tlv {
	buf := make([]byte, len(value))
	copy(buf, value)
	return Tlv{Type: t, Value: buf}
}

func (t Tlv) Length() uint32 {
	return uint32(len(t.Value))
}

func (t Tlv) Header() Header {
	return Header{Length: t.Length(), Type: t.Type}
}

// EncodedLen is the size of the record on the wire, header included.
func (t Tlv) EncodedLen() int {
	return HeaderLen + len(t.Value)
}

func EncodeHeader(h Header) []byte {
	buf := make([]byte, 0, HeaderLen)
	buf = wire.A.Append(buf, h.Length)
	buf = wire.A.Append(buf, h.Type.Code())
	return buf
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, fmt.Errorf("%w: tlv header needs %d bytes, have %d", protocol.ErrTruncatedInput, HeaderLen, len(b))
	}
	length, err := wire.A.Uint32(b[0:4])
	if err != nil {
		return Header{}, err
	}
	t, err := TypeFromBytes(b[4:8])
	if err != nil {
		return Header{}, err
	}
	return Header{Length: length, Type: t}, nil
}

// Encode emits the header followed by the value verbatim.
func Encode(t Tlv) []byte {
	return AppendEncoded(make([]byte, 0, t.EncodedLen()), t)
}

func AppendEncoded(dst []byte, t Tlv) []byte {
	dst = wire.A.Append(dst, t.Length())
	dst = wire.A.Append(dst, t.Type.Code())
	return append(dst, t.Value...)
}

func EncodeList(list []Tlv) []byte {
	n := 0
	for _, t := range list {
		n += t.EncodedLen()
	}
	out := make([]byte, 0, n)
	for _, t := range list {
		out = AppendEncoded(out, t)
	}
	return out
}

// DecodeOne decodes the record at the start of b and returns it with the
// unread remainder, using protocol.DefaultLimits.
func DecodeOne(b []byte) (Tlv, []byte, error) {
	return DecodeOneLimits(b, protocol.DefaultLimits())
}

func DecodeOneLimits(b []byte, limits protocol.Limits) (Tlv, []byte, error) {
	t, rest, err := viewOne(b, limits)
	if err != nil {
		return Tlv{}, b, err
	}
	val := make([]byte, len(t.Value))
	copy(val, t.Value)
	t.Value = val
	return t, rest, nil
}

// viewOne is DecodeOneLimits without the copy: the value aliases b.
func viewOne(b []byte, limits protocol.Limits) (Tlv, []byte, error) {
	h, err := DecodeHeader(b)
	if err != nil {
		return Tlv{}, b, err
	}
	if h.Length > limits.MaxValueBytes {
		return Tlv{}, b, fmt.Errorf("%w: tlv %s declares %d value bytes, limit %d", protocol.ErrOversizedLength, h.Type, h.Length, limits.MaxValueBytes)
	}
	body := b[HeaderLen:]
	if uint64(h.Length) > uint64(len(body)) {
		return Tlv{}, b, fmt.Errorf("%w: tlv %s declares %d value bytes, have %d", protocol.ErrTruncatedValue, h.Type, h.Length, len(body))
	}
	return Tlv{Type: h.Type, Value: body[:h.Length:h.Length]}, body[h.Length:], nil
}

// DecodeList decodes consecutive records until fewer than HeaderLen bytes
// remain, using protocol.DefaultLimits.
func DecodeList(b []byte) ([]Tlv, error) {
	return DecodeListLimits(b, protocol.DefaultLimits())
}

// DecodeListLimits decodes consecutive records. Empty input yields a nil list.
// A leftover fragment shorter than a header is reported with
// ErrTrailingGarbage alongside every record decoded before it.
func DecodeListLimits(b []byte, limits protocol.Limits) ([]Tlv, error) {
	if len(b) == 0 {
		return nil, nil
	}
	list := make([]Tlv, 0, 4)
	offset := 0
	rest := b
	for len(rest) >= HeaderLen {
		t, next, err := DecodeOneLimits(rest, limits)
		if err != nil {
			return nil, fmt.Errorf("tlv at offset %d: %w", offset, err)
		}
		list = append(list, t)
		offset += t.EncodedLen()
		rest = next
	}
	if len(rest) > 0 {
		return list, fmt.Errorf("%w: %d bytes at offset %d", protocol.ErrTrailingGarbage, len(rest), offset)
	}
	return list, nil
}

// NewGroup encodes children as the value of a group or complex tlv.
func NewGroup(t Type, children ...Tlv) Tlv {
	return Tlv{Type: t, Value: EncodeList(children)}
}

// Children decodes the value as a nested tlv list. It does not recurse.
func (t Tlv) Children() ([]Tlv, error) {
	return DecodeList(t.Value)
}

func (t Tlv) ChildrenLimits(limits protocol.Limits) ([]Tlv, error) {
	return DecodeListLimits(t.Value, limits)
}

// WalkChildren calls fn for each record in the value, in order, without
// copying: every child's Value aliases t.Value and must be copied if kept
// after fn returns. A non-nil error from fn stops the walk. Decode errors,
// including a trailing fragment, are returned after the records before them
// have been visited.
func (t Tlv) WalkChildren(limits protocol.Limits, fn func(Tlv) error) error {
	offset := 0
	rest := t.Value
	for len(rest) >= HeaderLen {
		child, next, err := viewOne(rest, limits)
		if err != nil {
			return fmt.Errorf("tlv at offset %d: %w", offset, err)
		}
		if err := fn(child); err != nil {
			return err
		}
		offset += child.EncodedLen()
		rest = next
	}
	if len(rest) > 0 {
		return fmt.Errorf("%w: %d bytes at offset %d", protocol.ErrTrailingGarbage, len(rest), offset)
	}
	return nil
}
