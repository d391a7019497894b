package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-r6-metrics/internal/report"
	"github.com/pable/go-r6-metrics/internal/storage"
)

var (
	showPlayerID string
	showEvents   int
)

var showCmd = &cobra.Command{
	Use:   "show <id-prefix>",
	Short: "Show stored match stats by match id prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showPlayerID, "player", "", "highlight player profile id")
	showCmd.Flags().IntVar(&showEvents, "events", -1, "also print the event feed of this round (0 for all rounds)")
}

func runShow(cmd *cobra.Command, args []string) error {
	prefix := args[0]

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	match, err := db.GetMatchByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query match: %w", err)
	}
	if match == nil {
		fmt.Fprintf(os.Stderr, "No match found with id prefix %q\n", prefix)
		return nil
	}
	if err := showMatch(db, match.MatchID, showPlayerID); err != nil {
		return err
	}
	if showEvents < 0 {
		return nil
	}

	events, err := db.GetEvents(match.MatchID, showEvents)
	if err != nil {
		return fmt.Errorf("get events: %w", err)
	}
	names, err := db.GetPlayerNames()
	if err != nil {
		return fmt.Errorf("get player names: %w", err)
	}
	fmt.Fprintln(os.Stdout)
	report.PrintEventTable(os.Stdout, events, names)
	return nil
}

// showMatch prints the summary, player and round tables of a stored match.
func showMatch(db *storage.DB, matchID, focusID string) error {
	match, err := db.GetMatchByPrefix(matchID)
	if err != nil || match == nil {
		return fmt.Errorf("match not found: %s", matchID)
	}
	stats, err := db.GetPlayerMatchRecords(matchID)
	if err != nil {
		return fmt.Errorf("get player records: %w", err)
	}
	rounds, err := db.GetRoundSummaries(matchID)
	if err != nil {
		return fmt.Errorf("get rounds: %w", err)
	}

	report.PrintMatchSummary(os.Stdout, *match)
	report.PrintPlayerTable(stats, focusID)
	fmt.Fprintln(os.Stdout)
	report.PrintRoundTable(os.Stdout, rounds)
	return nil
}
