package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/tlvwire/internal/protocol"
	"github.com/danmuck/tlvwire/internal/protocol/packet"
	"github.com/danmuck/tlvwire/internal/protocol/tlv"
)

const (
	// rawPreview caps how many bytes of a raw value are printed.
	rawPreview = 32
	// maxGroupDepth caps group expansion; top-level records are depth 1.
	maxGroupDepth = 32
)

func dumpPacket(w io.Writer, p packet.Packet, limits protocol.Limits) {
	h := p.Header
	fmt.Fprintf(w, "packet %s session=%s length=%d flags=%#x key=%s\n",
		h.Type, h.Session(), h.Length, h.EncryptionFlags, hex.EncodeToString(h.Key[:]))
	for _, t := range p.TLVs {
		dumpTLV(w, t, 1, limits)
	}
}

func dumpTLV(w io.Writer, t tlv.Tlv, depth int, limits protocol.Limits) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%s (%#08x) len=%d", indent, t.Type, t.Type.Code(), t.Length())

	if t.Type.IsGroup() {
		fmt.Fprintln(w)
		if depth >= maxGroupDepth {
			fmt.Fprintf(w, "%s  ! nesting too deep\n", indent)
			return
		}
		err := t.WalkChildren(limits, func(c tlv.Tlv) error {
			dumpTLV(w, c, depth+1, limits)
			return nil
		})
		if err != nil {
			fmt.Fprintf(w, "%s  ! %v\n", indent, err)
		}
		return
	}
	fmt.Fprintf(w, " %s\n", formatValue(t))
}

func formatValue(t tlv.Tlv) string {
	if t.Type == tlv.Invalid {
		return rawHex(t.Value)
	}
	meta := t.Type.Meta()
	switch {
	case meta&tlv.MetaString != 0:
		if s, err := t.String(); err == nil {
			return fmt.Sprintf("%q", s)
		}
	case meta&tlv.MetaUint != 0:
		if v, err := t.Uint(); err == nil {
			return fmt.Sprintf("%d", v)
		}
	case meta&tlv.MetaQword != 0:
		if v, err := t.Qword(); err == nil {
			return fmt.Sprintf("%d", v)
		}
	case meta&tlv.MetaBool != 0:
		if v, err := t.Bool(); err == nil {
			return fmt.Sprintf("%t", v)
		}
	}
	return rawHex(t.Value)
}

func rawHex(b []byte) string {
	if len(b) <= rawPreview {
		return hex.EncodeToString(b)
	}
	return fmt.Sprintf("%s... (%d bytes)", hex.EncodeToString(b[:rawPreview]), len(b))
}
