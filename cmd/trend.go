package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-r6-metrics/internal/report"
)

var trendCmd = &cobra.Command{
	Use:   "trend <profile-id|name>",
	Short: "Chronological per-match performance trend for a player",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

func runTrend(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := resolvePlayer(db, args[0])
	if err != nil {
		return err
	}
	if id == "" {
		fmt.Println("no matches found")
		return nil
	}
	entries, err := db.GetAllPlayerMatchRecords(id)
	if err != nil {
		return fmt.Errorf("query records: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("no matches found")
		return nil
	}

	report.PrintTrendTable(os.Stdout, entries)
	return nil
}
