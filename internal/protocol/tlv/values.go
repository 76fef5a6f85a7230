package tlv

import (
	"bytes"
	"fmt"

	"github.com/danmuck/tlvwire/internal/protocol"
	"github.com/danmuck/tlvwire/internal/protocol/wire"
)

// NewString creates a string tlv. Peers expect a trailing NUL.
func NewString(t Type, v string) Tlv {
	buf := make([]byte, len(v)+1)
	copy(buf, v)
	return Tlv{Type: t, Value: buf}
}

// NewUint creates a uint tlv, four bytes order B.
func NewUint(t Type, v uint32) Tlv {
	return Tlv{Type: t, Value: wire.B.Bytes(v)}
}

// NewQword creates a qword tlv, eight bytes order B.
func NewQword(t Type, v uint64) Tlv {
	return Tlv{Type: t, Value: wire.B.Append64(make([]byte, 0, 8), v)}
}

// NewBool creates a bool tlv.
func NewBool(t Type, v bool) Tlv {
	b := byte(0)
	if v {
		b = 1
	}
	return Tlv{Type: t, Value: []byte{b}}
}

// NewRaw creates a raw tlv holding a copy of v.
func NewRaw(t Type, v []byte) Tlv {
	return New(t, v)
}

func (t Tlv) expectMeta(meta uint32) error {
	if t.Type.Meta()&meta == 0 {
		return fmt.Errorf("%w: %s is not meta %#x", protocol.ErrTypeMismatch, t.Type, meta)
	}
	return nil
}

// String returns the value up to the first NUL.
func (t Tlv) String() (string, error) {
	if err := t.expectMeta(MetaString); err != nil {
		return "", err
	}
	v := t.Value
	if i := bytes.IndexByte(v, 0); i >= 0 {
		v = v[:i]
	}
	return string(v), nil
}

func (t Tlv) Uint() (uint32, error) {
	if err := t.expectMeta(MetaUint); err != nil {
		return 0, err
	}
	if len(t.Value) != 4 {
		return 0, fmt.Errorf("%w: uint %s has %d bytes", protocol.ErrInvalidValue, t.Type, len(t.Value))
	}
	return wire.B.Uint32(t.Value)
}

func (t Tlv) Qword() (uint64, error) {
	if err := t.expectMeta(MetaQword); err != nil {
		return 0, err
	}
	if len(t.Value) != 8 {
		return 0, fmt.Errorf("%w: qword %s has %d bytes", protocol.ErrInvalidValue, t.Type, len(t.Value))
	}
	return wire.B.Uint64(t.Value)
}

func (t Tlv) Bool() (bool, error) {
	if err := t.expectMeta(MetaBool); err != nil {
		return false, err
	}
	if len(t.Value) != 1 {
		return false, fmt.Errorf("%w: bool %s has %d bytes", protocol.ErrInvalidValue, t.Type, len(t.Value))
	}
	return t.Value[0] != 0, nil
}

// Raw returns a copy of the value for raw types.
func (t Tlv) Raw() ([]byte, error) {
	if err := t.expectMeta(MetaRaw); err != nil {
		return nil, err
	}
	buf := make([]byte, len(t.Value))
	copy(buf, t.Value)
	return buf, nil
}
