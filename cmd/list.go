package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-r6-metrics/internal/report"
	"github.com/pable/go-r6-metrics/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored matches",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	return printMatchList(db)
}

func printMatchList(db *storage.DB) error {
	matches, err := db.ListMatches()
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	if len(matches) == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'r6metrics ingest <match.json>' to add one.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-14s  %-18s  %-19s  %-10s  %6s  %s\n",
		"ID", "MAP", "DATE", "TYPE", "SCORE", "ROUNDS")
	fmt.Fprintf(os.Stdout, "%-14s  %-18s  %-19s  %-10s  %6s  %s\n",
		"──────────────", "──────────────────", "───────────────────", "──────────", "──────", "──────")
	for _, m := range matches {
		score := fmt.Sprintf("%d-%d", m.Team0Score, m.Team1Score)
		fmt.Fprintf(os.Stdout, "%-14s  %-18s  %-19s  %-10s  %6s  %d\n",
			report.ShortID(m.MatchID), m.MapName, m.Timestamp, m.MatchType, score, m.Rounds)
	}
	return nil
}
