package protocol

import "errors"

var (
	ErrTruncatedInput  = errors.New("protocol: truncated input")
	ErrTruncatedValue  = errors.New("protocol: truncated value")
	ErrOversizedLength = errors.New("protocol: declared length exceeds limit")
	ErrTrailingGarbage = errors.New("protocol: trailing bytes shorter than a tlv header")
	ErrInvalidLength   = errors.New("protocol: invalid length")
	ErrTypeMismatch    = errors.New("protocol: tlv meta type mismatch")
	ErrInvalidValue    = errors.New("protocol: invalid tlv value")
)
