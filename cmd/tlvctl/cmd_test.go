package main

import (
	"bytes"
	"encoding/hex"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/tlvwire/internal/protocol"
	"github.com/danmuck/tlvwire/internal/protocol/packet"
	"github.com/danmuck/tlvwire/internal/protocol/tlv"
	"github.com/danmuck/tlvwire/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSession = "8f0e3a52-4c1d-4b7a-9e2f-5d6c7b8a9f01"

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestBuildPacket(t *testing.T) {
	p, err := buildPacket(encodeOptions{
		Method:     "core_channel_write",
		RequestID:  "42",
		Session:    testSession,
		PacketType: "response",
		ChannelID:  3,
		Data:       "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, tlv.PacketResponse, p.Header.Type)
	assert.Equal(t, p.WireLength(), p.Header.Length)
	assert.Equal(t, testSession, p.Header.Session().String())
	require.Len(t, p.TLVs, 5)
	assert.Equal(t, tlv.ChannelData, p.TLVs[4].Type)
	assert.Equal(t, []byte("hello"), p.TLVs[4].Value)

	_, err = buildPacket(encodeOptions{Method: "x", PacketType: "bogus"})
	assert.Error(t, err)
	_, err = buildPacket(encodeOptions{Method: "x", PacketType: "request", Session: "nope"})
	assert.Error(t, err)
}

func TestEncodeThenDecode(t *testing.T) {
	testlog.Start(t)
	for _, obfuscated := range []string{"--obfuscated=false", "--obfuscated=true"} {
		encoded, err := run(t, "", "encode", obfuscated,
			"--method", "core_channel_write",
			"--request-id", "7",
			"--session", testSession,
			"--channel-id", "3",
			"--data", "hello hello hello",
			"--compress")
		require.NoError(t, err)

		decoded, err := run(t, encoded, "decode", "--hex", obfuscated)
		require.NoError(t, err)
		assert.Contains(t, decoded, "packet request session="+testSession)
		assert.Contains(t, decoded, `method (0x00010001) len=19 "core_channel_write"`)
		assert.Contains(t, decoded, `request_id`)
		assert.Contains(t, decoded, "inflated channel_data len=17 "+hex.EncodeToString([]byte("hello hello hello")))
	}
}

func TestDecodeExpandsGroups(t *testing.T) {
	p := packet.Create(tlv.PacketResponse, tlv.NewString(tlv.Method, "core_enumextcmd"))
	p.AddTLV(tlv.NewGroup(tlv.TransportGroup,
		tlv.NewString(tlv.TransportURL, "tcp://10.0.0.1:4444"),
		tlv.NewUint(tlv.TransportTimeout, 300),
	))
	p.SyncLength()

	var out bytes.Buffer
	n, err := decodeStream(&out, packet.Encode(p), defaultCLIConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, out.String(), "\n    transport_url")
	assert.Contains(t, out.String(), "300")
}

func TestDecodeReportsBadPacket(t *testing.T) {
	h := packet.NewHeader()
	h.Length = 4
	_, err := run(t, hex.EncodeToString(packet.EncodeHeader(h)), "decode", "--hex")
	require.Error(t, err)
	assert.ErrorIs(t, err, protocol.ErrInvalidLength)
}

func TestCaptureThenJournal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "journal")

	var stream bytes.Buffer
	for _, method := range []string{"core_loadlib", "stdapi_fs_ls"} {
		p, err := buildPacket(encodeOptions{Method: method, RequestID: "1", PacketType: "request"})
		require.NoError(t, err)
		stream.Write(packet.Encode(p))
	}

	out, err := run(t, hex.EncodeToString(stream.Bytes()), "capture", "--hex", "--journal", dir)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, " in request "))

	out, err = run(t, "", "journal", "--journal", dir)
	require.NoError(t, err)
	first := strings.Index(out, "core_loadlib")
	second := strings.Index(out, "stdapi_fs_ls")
	require.True(t, first >= 0 && second >= 0, out)
	assert.Less(t, first, second)
}

func TestDecodeStopsAtMaxGroupDepth(t *testing.T) {
	inner := tlv.NewUint(tlv.Result, 0)
	for i := 0; i < 1000; i++ {
		inner = tlv.NewGroup(tlv.Exception, inner)
	}
	p := packet.Create(tlv.PacketResponse, inner)
	p.SyncLength()

	var out bytes.Buffer
	n, err := decodeStream(&out, packet.Encode(p), defaultCLIConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, maxGroupDepth, strings.Count(out.String(), "exception ("))
	assert.Equal(t, 1, strings.Count(out.String(), "! nesting too deep"))
	assert.NotContains(t, out.String(), "result (")
}

func TestDecodeWithinMaxGroupDepth(t *testing.T) {
	inner := tlv.NewUint(tlv.Result, 7)
	for i := 1; i < maxGroupDepth; i++ {
		inner = tlv.NewGroup(tlv.Exception, inner)
	}
	p := packet.Create(tlv.PacketResponse, inner)
	p.SyncLength()

	var out bytes.Buffer
	_, err := decodeStream(&out, packet.Encode(p), defaultCLIConfig())
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "nesting too deep")
	assert.Contains(t, out.String(), "result (0x00020004) len=4 7")
}
