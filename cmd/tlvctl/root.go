package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danmuck/tlvwire/internal/logging"
	"github.com/spf13/cobra"
)

// app carries resolved configuration from the root command to its children.
type app struct {
	cfg cliConfig
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: defaultCLIConfig()}

	root := &cobra.Command{
		Use:   "tlvctl",
		Short: "Inspect and build tlv packets",
		Long: `tlvctl decodes, builds and journals controller/agent packets.

Packets are read as a raw byte stream, or as hex with --hex.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.resolve(cmd)
		},
	}

	root.PersistentFlags().String("config", "", "TOML config file")
	root.PersistentFlags().Bool("obfuscated", false, "packets are xor obfuscated after the key")
	root.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")

	root.AddCommand(
		newDecodeCmd(a),
		newEncodeCmd(a),
		newCaptureCmd(a),
		newJournalCmd(a),
	)
	return root
}

// resolve applies the config file and then explicit flags.
func (a *app) resolve(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if path, _ := flags.GetString("config"); path != "" {
		cfg, err := loadConfig(path)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	if flags.Changed("obfuscated") {
		a.cfg.Obfuscated, _ = flags.GetBool("obfuscated")
	}
	if flags.Changed("log-level") {
		a.cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Lookup("journal") != nil && flags.Changed("journal") {
		a.cfg.Journal, _ = flags.GetString("journal")
	}

	logging.ConfigureRuntime()
	if a.cfg.LogLevel != "" && !logging.SetLevel(a.cfg.LogLevel) {
		return fmt.Errorf("unknown log level %q", a.cfg.LogLevel)
	}
	return nil
}

// readInput reads the named file, or stdin when no file is given, and
// decodes it from hex when asHex is set.
func readInput(cmd *cobra.Command, args []string, asHex bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return nil, err
	}
	if !asHex {
		return data, nil
	}
	clean := strings.Join(strings.Fields(string(data)), "")
	out, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("decode hex input: %w", err)
	}
	return out, nil
}
