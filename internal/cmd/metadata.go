package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	icecore "github.com/marmotdata/icecore"
	"github.com/marmotdata/icecore/internal/config"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata <table>",
	Short: "Print a table's current metadata as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIdentifier(args[0])
		if err != nil {
			return err
		}
		cfg := config.Get()
		fileIO := buildFileIO(cfg)
		cat, err := buildCatalog(cmd.Context(), cfg, fileIO)
		if err != nil {
			return err
		}
		table, err := icecore.LoadTable(cmd.Context(), cat, fileIO, id)
		if err != nil {
			return fmt.Errorf("load table: %w", err)
		}
		b, err := json.MarshalIndent(table.Metadata(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	},
}
