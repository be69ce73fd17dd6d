// Package cmd wires icecorectl's cobra commands: inspecting table
// metadata, planning scans, staging schema edits, and printing the
// resulting commit payloads without sending them.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/marmotdata/icecore/catalog"
	"github.com/marmotdata/icecore/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "icecorectl",
	Short: "icecorectl inspects and evolves tables against a catalog.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		configureLogging(cfg.Logging.Level, cfg.Logging.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to icecorectl config file (default: ./icecorectl.yaml)")
	rootCmd.AddCommand(metadataCmd, planCmd, schemaCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func configureLogging(level, format string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if strings.ToLower(format) == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// parseIdentifier splits a dotted table identifier ("ns.sub.table")
// into catalog.Identifier's namespace parts and table name.
func parseIdentifier(s string) (catalog.Identifier, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 1 || parts[len(parts)-1] == "" {
		return catalog.Identifier{}, fmt.Errorf("invalid table identifier %q", s)
	}
	return catalog.Identifier{Namespace: parts[:len(parts)-1], Name: parts[len(parts)-1]}, nil
}
