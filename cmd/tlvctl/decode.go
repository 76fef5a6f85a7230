package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/tlvwire/internal/protocol/compress"
	"github.com/danmuck/tlvwire/internal/transport"
	"github.com/spf13/cobra"
)

func newDecodeCmd(a *app) *cobra.Command {
	var asHex bool
	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode a packet stream and print a tlv tree",
		Long: `Decode every packet in a file, or stdin, and print its header and tlvs.
Group tlvs are expanded recursively. Compressed channel data is inflated and
reported after the tree.

Example:
  tlvctl decode --hex capture.hex`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args, asHex)
			if err != nil {
				return err
			}
			n, err := decodeStream(cmd.OutOrStdout(), data, a.cfg)
			if err != nil {
				return fmt.Errorf("packet %d: %w", n, err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asHex, "hex", false, "input is hex text")
	return cmd
}

// decodeStream prints every packet in data and returns how many were
// decoded.
func decodeStream(w io.Writer, data []byte, cfg cliConfig) (int, error) {
	r := transport.NewReader(bytes.NewReader(data), cfg.transportOptions())
	n := 0
	for {
		p, _, err := r.ReadPacket()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		dumpPacket(w, p, cfg.Limits)
		if compress.ChannelCompressed(&p) {
			if _, err := compress.InflateChannelData(&p, cfg.Limits.MaxValueBytes); err != nil {
				fmt.Fprintf(w, "  ! inflate channel data: %v\n", err)
			}
			for _, buf := range p.DecompressedBuffers() {
				fmt.Fprintf(w, "  inflated %s len=%d %s\n", buf.Type, buf.Length, rawHex(buf.Buffer))
			}
		}
		n++
	}
}
