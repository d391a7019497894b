package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-r6-metrics/internal/model"
	"github.com/pable/go-r6-metrics/internal/report"
)

var (
	roundsClutch bool
	roundsWon    bool
	roundsSide   string
	roundsEvents bool
)

// roundsCmd is the cobra command for per-round drill-down for one player in one match.
var roundsCmd = &cobra.Command{
	Use:   "rounds <id-prefix> [<profile-id>]",
	Short: "Per-round drill-down for one match, optionally for one player",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runRounds,
}

func init() {
	roundsCmd.Flags().BoolVar(&roundsClutch, "clutch", false, "only show rounds where the player was last alive")
	roundsCmd.Flags().BoolVar(&roundsWon, "won", false, "only show won rounds")
	roundsCmd.Flags().StringVar(&roundsSide, "side", "", "filter by side: ATK or DEF")
	roundsCmd.Flags().BoolVar(&roundsEvents, "events", false, "also print the event feed of the shown rounds")
}

// filterRounds applies --clutch, --won and --side.
func filterRounds(recs []model.PlayerRoundRecord, clutch, won bool, side string) ([]model.PlayerRoundRecord, error) {
	side = strings.ToUpper(side)
	if side != "" && side != "ATK" && side != "DEF" {
		return nil, fmt.Errorf("invalid side %q: want ATK or DEF", side)
	}
	var out []model.PlayerRoundRecord
	for _, r := range recs {
		if clutch && r.OneVsX == nil {
			continue
		}
		if won && !r.Won {
			continue
		}
		if side == "ATK" && !r.Attacking || side == "DEF" && r.Attacking {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// runRounds loads per-round records for a match and prints the drill-down table.
func runRounds(cmd *cobra.Command, args []string) error {
	prefix := args[0]
	var profileID string
	if len(args) > 1 {
		profileID = args[1]
	}

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

	recs, err := db.GetPlayerRoundRecords(match.MatchID, profileID)
	if err != nil {
		return fmt.Errorf("get round records: %w", err)
	}
	if len(recs) == 0 {
		fmt.Fprintf(os.Stderr, "No round data found for player %s in match %s\n", profileID, prefix)
		return nil
	}
	recs, err = filterRounds(recs, roundsClutch, roundsWon, roundsSide)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(os.Stderr, "No rounds match the given filters.")
		return nil
	}

	names, err := db.GetPlayerNames()
	if err != nil {
		return fmt.Errorf("get player names: %w", err)
	}
	fmt.Fprintf(os.Stdout, "\n%s  |  %s\n\n", match.MapName, match.Timestamp)
	report.PrintPlayerRoundTable(os.Stdout, recs, names)

	if !roundsEvents {
		return nil
	}
	shown := make(map[int]bool)
	for _, r := range recs {
		shown[r.RoundNumber] = true
	}
	all, err := db.GetEvents(match.MatchID, 0)
	if err != nil {
		return fmt.Errorf("get events: %w", err)
	}
	var events []model.TaggedEvent
	for _, e := range all {
		if shown[e.RoundNumber] {
			events = append(events, e)
		}
	}
	fmt.Fprintln(os.Stdout)
	report.PrintEventTable(os.Stdout, events, names)
	return nil
}
