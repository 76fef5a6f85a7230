package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/danmuck/tlvwire/internal/protocol/compress"
	"github.com/danmuck/tlvwire/internal/protocol/packet"
	"github.com/danmuck/tlvwire/internal/protocol/tlv"
	"github.com/danmuck/tlvwire/internal/transport"
	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"
)

type encodeOptions struct {
	Method     string
	RequestID  string
	Session    string
	PacketType string
	ChannelID  uint32
	Data       string
	Compress   bool
}

func newEncodeCmd(a *app) *cobra.Command {
	var opts encodeOptions
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Build a packet and print it as hex",
		Long: `Build a single packet from flags, sync its length and print the wire bytes
as hex. With --obfuscated a random key is generated and applied.

Example:
  tlvctl encode --method core_channel_write --channel-id 3 --data hello --compress`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := buildPacket(opts)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := transport.NewWriter(&buf, a.cfg.transportOptions()).WritePacket(p); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(buf.Bytes()))
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.Method, "method", "", "method name")
	flags.StringVar(&opts.RequestID, "request-id", "", "request id (default: generated)")
	flags.StringVar(&opts.Session, "session", "", "session guid (default: random)")
	flags.StringVar(&opts.PacketType, "type", tlv.PacketRequest.String(), "packet type (request, response, plain_request, plain_response)")
	flags.Uint32Var(&opts.ChannelID, "channel-id", 0, "channel id")
	flags.StringVar(&opts.Data, "data", "", "channel data")
	flags.BoolVar(&opts.Compress, "compress", false, "zlib compress channel data")
	_ = cmd.MarkFlagRequired("method")
	return cmd
}

func parsePacketType(name string) (tlv.PacketType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, pt := range tlv.PacketTypes() {
		if pt.String() == name {
			return pt, nil
		}
	}
	return tlv.PacketInvalid, fmt.Errorf("unknown packet type %q", name)
}

func buildPacket(opts encodeOptions) (packet.Packet, error) {
	pt, err := parsePacketType(opts.PacketType)
	if err != nil {
		return packet.Packet{}, err
	}

	p := packet.Create(pt, tlv.NewString(tlv.Method, opts.Method))

	requestID := strings.TrimSpace(opts.RequestID)
	if requestID == "" {
		requestID = ksuid.New().String()
	}
	p.AddTLV(tlv.NewString(tlv.RequestID, requestID))

	if opts.Session != "" {
		guid, err := packet.ParseSessionGUID(opts.Session)
		if err != nil {
			return packet.Packet{}, err
		}
		p.Header.SessionGUID = guid
	} else {
		p.Header.SessionGUID = packet.NewSessionGUID()
	}

	if opts.ChannelID != 0 {
		p.AddTLV(tlv.NewUint(tlv.ChannelID, opts.ChannelID))
	}
	if opts.Data != "" {
		var flags uint32
		if opts.Compress {
			flags |= tlv.ChannelFlagCompress
		}
		p.AddTLV(tlv.NewUint(tlv.Flags, flags))
		data, err := compress.NewChannelData([]byte(opts.Data), opts.Compress)
		if err != nil {
			return packet.Packet{}, err
		}
		p.AddTLV(data)
	}

	p.SyncLength()
	return p, nil
}
