package transport

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/danmuck/tlvwire/internal/protocol"
	"github.com/danmuck/tlvwire/internal/protocol/packet"
	"github.com/danmuck/tlvwire/internal/protocol/tlv"
	"github.com/danmuck/tlvwire/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(method string) packet.Packet {
	p := packet.Create(tlv.PacketRequest, tlv.NewString(tlv.Method, method))
	p.AddTLV(tlv.NewString(tlv.RequestID, "1"))
	p.Header.SessionGUID = packet.NewSessionGUID()
	p.SyncLength()
	return p
}

func TestReadWriteStreamRoundTrip(t *testing.T) {
	testlog.Start(t)
	for _, obfuscated := range []bool{false, true} {
		opts := DefaultOptions()
		opts.Obfuscated = obfuscated

		var buf bytes.Buffer
		w := NewWriter(&buf, opts)
		in := []packet.Packet{request("core_enumextcmd"), request("stdapi_sys_config_getuid"), packet.New()}
		for _, p := range in {
			require.NoError(t, w.WritePacket(p))
		}

		r := NewReader(&buf, opts)
		for i, want := range in {
			got, raw, err := r.ReadPacket()
			require.NoError(t, err, "packet %d", i)
			assert.Equal(t, int(want.Header.Length), len(raw))
			assert.Equal(t, want.Header.SessionGUID, got.Header.SessionGUID)
			assert.Equal(t, want.Header.Type, got.Header.Type)
			assert.Len(t, got.TLVs, len(want.TLVs))
			assert.False(t, got.Local())
			if obfuscated {
				assert.NotEqual(t, packet.Key{}, got.Header.Key)
			}
		}
		_, _, err := r.ReadPacket()
		assert.ErrorIs(t, err, io.EOF)
	}
}

func TestReaderTruncatedHeader(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{1, 2, 3}), DefaultOptions())
	_, _, err := r.ReadPacket()
	assert.ErrorIs(t, err, protocol.ErrTruncatedInput)
	assert.False(t, errors.Is(err, io.EOF))
}

func TestReaderTruncatedBody(t *testing.T) {
	b := packet.Encode(request("core_channel_close"))
	r := NewReader(bytes.NewReader(b[:len(b)-3]), DefaultOptions())
	_, _, err := r.ReadPacket()
	assert.ErrorIs(t, err, protocol.ErrTruncatedValue)
}

func TestReaderRejectsOversizedBeforeReadingBody(t *testing.T) {
	h := packet.NewHeader()
	h.Length = 1 << 30
	r := NewReader(bytes.NewReader(packet.EncodeHeader(h)), DefaultOptions())
	_, _, err := r.ReadPacket()
	assert.ErrorIs(t, err, protocol.ErrOversizedLength)
}

func TestReaderRejectsLengthBelowHeader(t *testing.T) {
	h := packet.NewHeader()
	h.Length = 4
	r := NewReader(bytes.NewReader(packet.EncodeHeader(h)), DefaultOptions())
	_, _, err := r.ReadPacket()
	assert.ErrorIs(t, err, protocol.ErrInvalidLength)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestWriterPropagatesErrors(t *testing.T) {
	w := NewWriter(failingWriter{}, DefaultOptions())
	err := w.WritePacket(request("core_shutdown"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}
