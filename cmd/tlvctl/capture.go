package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/tlvwire/internal/capture"
	"github.com/danmuck/tlvwire/internal/transport"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newCaptureCmd(a *app) *cobra.Command {
	var (
		asHex    bool
		outbound bool
	)
	cmd := &cobra.Command{
		Use:   "capture [file]",
		Short: "Append every packet in a stream to the journal",
		Long: `Read a packet stream from a file, or stdin, and store each packet's raw
wire bytes in the journal. Packets are validated before they are stored.

Example:
  tlvctl capture --journal local/journal session.bin`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args, asHex)
			if err != nil {
				return err
			}
			j, err := capture.Open(a.cfg.Journal)
			if err != nil {
				return err
			}
			defer j.Close()

			dir := capture.DirectionIn
			if outbound {
				dir = capture.DirectionOut
			}
			n, err := captureStream(cmd.OutOrStdout(), j, dir, data, a.cfg)
			log.Info().Str("journal", a.cfg.Journal).Int("packets", n).Msg("capture finished")
			return err
		},
	}
	cmd.Flags().BoolVar(&asHex, "hex", false, "input is hex text")
	cmd.Flags().BoolVar(&outbound, "outbound", false, "record packets as outbound")
	cmd.Flags().String("journal", "", "journal directory (overrides config)")
	return cmd
}

func captureStream(w io.Writer, j *capture.Journal, dir capture.Direction, data []byte, cfg cliConfig) (int, error) {
	r := transport.NewReader(bytes.NewReader(data), cfg.transportOptions())
	n := 0
	for {
		p, raw, err := r.ReadPacket()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("packet %d: %w", n, err)
		}
		id, err := j.Append(dir, raw)
		if err != nil {
			return n, err
		}
		fmt.Fprintf(w, "%s %s %s %d bytes\n", id, dir, p.Header.Type, len(raw))
		n++
	}
}
