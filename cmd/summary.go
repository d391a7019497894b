package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pable/go-r6-metrics/internal/storage"
)

// summaryCmd is the cobra command for displaying a high-level database overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the database",
	Long: `Display aggregate statistics about all matches stored in the database:
total match count, date range, map breakdown with attack/defense round wins,
most active players, and match type distribution.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func summaryTable() *tablewriter.Table {
	return tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	return printSummary(db)
}

func printSummary(db *storage.DB) error {
	ov, err := db.GetDBOverview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.TotalMatches == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'r6metrics ingest <match.json>' to add one.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n=== Database Summary ===\n\n")
	fmt.Fprintf(os.Stdout, "  Matches stored : %d\n", ov.TotalMatches)
	fmt.Fprintf(os.Stdout, "  Date range     : %s → %s\n", ov.EarliestMatch, ov.LatestMatch)
	fmt.Fprintf(os.Stdout, "  Unique maps    : %d\n", ov.UniqueMaps)
	fmt.Fprintf(os.Stdout, "  Players seen   : %d\n", ov.UniquePlayers)
	fmt.Fprintf(os.Stdout, "  Total rounds   : %d\n", ov.TotalRounds)

	maps, err := db.GetMapStats()
	if err != nil {
		return fmt.Errorf("get map stats: %w", err)
	}
	fmt.Fprintf(os.Stdout, "\n--- Maps ---\n\n")
	mt := summaryTable()
	mt.Header("MAP", "MATCHES", "ATK WINS", "DEF WINS", "ATK WIN%")
	for _, m := range maps {
		total := m.AtkWins + m.DefWins
		atkPct := 0.0
		if total > 0 {
			atkPct = 100.0 * float64(m.AtkWins) / float64(total)
		}
		mt.Append(
			m.MapName,
			fmt.Sprintf("%d", m.Matches),
			fmt.Sprintf("%d", m.AtkWins),
			fmt.Sprintf("%d", m.DefWins),
			fmt.Sprintf("%.0f%%", atkPct),
		)
	}
	mt.Render()

	players, err := db.GetTopPlayersByMatches(10)
	if err != nil {
		return fmt.Errorf("get top players: %w", err)
	}
	fmt.Fprintf(os.Stdout, "\n--- Most Active Players ---\n\n")
	pt := summaryTable()
	pt.Header("NAME", "PROFILE ID", "MATCHES", "K/D", "KOST%", "WIN%")
	for _, p := range players {
		pt.Append(
			p.Username,
			p.ProfileID,
			fmt.Sprintf("%d", p.Matches),
			fmt.Sprintf("%.2f", p.AvgKD),
			fmt.Sprintf("%.0f%%", p.AvgKOST),
			fmt.Sprintf("%.0f%%", p.WinPct),
		)
	}
	pt.Render()

	// Only shown when more than one type is present.
	types, err := db.GetMatchTypeCounts()
	if err != nil {
		return fmt.Errorf("get match types: %w", err)
	}
	if len(types) > 1 {
		fmt.Fprintf(os.Stdout, "\n--- Match Types ---\n\n")
		tt := summaryTable()
		tt.Header("TYPE", "MATCHES")
		for _, t := range types {
			tt.Append(t.MatchType, fmt.Sprintf("%d", t.Matches))
		}
		tt.Render()
	}

	return nil
}
