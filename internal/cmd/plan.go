package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	icecore "github.com/marmotdata/icecore"
	"github.com/marmotdata/icecore/internal/config"
)

var (
	planSnapshotID int64
	planRef        string
	planFilter     string
	planSelect     []string
	planLimit      int
)

var planCmd = &cobra.Command{
	Use:   "plan <table>",
	Short: "Plan a scan and print the resulting file-scan tasks.",
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

		scan := table.Scan()
		if planSnapshotID != 0 {
			scan = scan.SnapshotID(planSnapshotID)
		}
		if planRef != "" {
			scan = scan.UseRef(planRef)
		}
		if len(planSelect) > 0 {
			scan = scan.Select(planSelect...)
		}
		if planLimit > 0 {
			scan = scan.Limit(planLimit)
		}
		if planFilter != "" {
			scan, err = scan.FilterString(planFilter)
			if err != nil {
				return err
			}
		}

		tasks, err := scan.PlanFiles(cmd.Context())
		if err != nil {
			return fmt.Errorf("plan: %w", err)
		}
		for _, t := range tasks {
			fmt.Printf("%s\tsize=%d\tdeletes=%d\n", t.DataFile.FilePath, t.Length, len(t.DeleteFiles))
		}
		fmt.Printf("%d tasks\n", len(tasks))
		return nil
	},
}

func init() {
	planCmd.Flags().Int64Var(&planSnapshotID, "snapshot-id", 0, "plan against a specific snapshot ID")
	planCmd.Flags().StringVar(&planRef, "ref", "", "plan against the snapshot a named branch/tag resolves to")
	planCmd.Flags().StringVar(&planFilter, "filter", "", "row predicate in the icecore predicate DSL")
	planCmd.Flags().StringSliceVar(&planSelect, "select", nil, "dotted column paths to project (default: all)")
	planCmd.Flags().IntVar(&planLimit, "limit", 0, "cap the number of emitted tasks")
}
