package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pable/go-r6-metrics/internal/model"
	"github.com/pable/go-r6-metrics/internal/report"
	"github.com/pable/go-r6-metrics/internal/storage"
)

// playerCmd is the cobra command for cross-match aggregate analysis of one or more players.
var playerCmd = &cobra.Command{
	Use:   "player <profile-id|name> [<profile-id|name>...]",
	Short: "Cross-match analysis for one or more players",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlayer,
}

// runPlayer loads all match records for each player, builds cross-match
// aggregates, and prints the overview and map/side tables.
func runPlayer(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	return printPlayers(db, args)
}

// printPlayers prints aggregate and per-map tables for each player query.
func printPlayers(db *storage.DB, args []string) error {
	var allAggs []model.PlayerAggregate
	var allMaps []model.PlayerMapAggregate

	for _, arg := range args {
		id, err := resolvePlayer(db, arg)
		if err != nil {
			return err
		}
		if id == "" {
			fmt.Fprintf(os.Stderr, "No player found for %q\n", arg)
			continue
		}

		entries, err := db.GetAllPlayerMatchRecords(id)
		if err != nil {
			return fmt.Errorf("query records for %s: %w", id, err)
		}
		if len(entries) == 0 {
			fmt.Fprintf(os.Stderr, "No data found for profile %s\n", id)
			continue
		}
		allAggs = append(allAggs, buildAggregate(entries))
		allMaps = append(allMaps, buildMapAggregates(entries)...)
	}

	if len(allAggs) == 0 {
		return nil
	}

	fmt.Fprintln(os.Stdout)
	report.PrintPlayerAggregateOverview(os.Stdout, allAggs)
	fmt.Fprintln(os.Stdout)
	report.PrintPlayerMapTable(os.Stdout, allMaps)
	return nil
}

// resolvePlayer accepts a profile id or a unique username fragment.
func resolvePlayer(db *storage.DB, query string) (string, error) {
	found, err := db.FindPlayers(query)
	if err != nil {
		return "", fmt.Errorf("find player %q: %w", query, err)
	}
	for _, p := range found {
		if p.ID == query {
			return p.ID, nil
		}
	}
	switch len(found) {
	case 0:
		return "", nil
	case 1:
		return found[0].ID, nil
	}
	names := make([]string, len(found))
	for i, p := range found {
		names[i] = fmt.Sprintf("%s (%s)", p.DisplayName, p.ID)
	}
	return "", fmt.Errorf("%q matches several players: %v", query, names)
}

// buildAggregate sums match records oldest first. The username is taken from
// the most recent match.
func buildAggregate(entries []model.PlayerMatchEntry) model.PlayerAggregate {
	last := entries[len(entries)-1].Record
	agg := model.PlayerAggregate{
		PlayerID: last.PlayerID,
		Username: last.Username,
		Matches:  len(entries),
	}
	for _, e := range entries {
		s := e.Record
		if s.WinMatch != nil {
			if *s.WinMatch {
				agg.WonMatches++
			} else {
				agg.LostMatches++
			}
		}
		agg.RoundsPlayed += s.RoundsPlayed
		agg.Kills += s.Kills
		agg.Deaths += s.Deaths
		agg.Headshots += s.Headshots
		agg.WonRounds += s.WonRounds
		agg.LostRounds += s.LostRounds
		agg.AtkWonRounds += s.AtkWonRounds
		agg.AtkLostRounds += s.AtkLostRounds
		agg.DefWonRounds += s.DefWonRounds
		agg.DefLostRounds += s.DefLostRounds
		agg.OpeningKills += s.OpeningKills
		agg.OpeningDeaths += s.OpeningDeaths
		agg.Refrags += s.Refrags
		agg.KOSTRounds += s.KOSTRounds
	}
	return agg
}

// buildMapAggregates groups match records by map, most played first.
func buildMapAggregates(entries []model.PlayerMatchEntry) []model.PlayerMapAggregate {
	username := entries[len(entries)-1].Record.Username
	m := make(map[string]*model.PlayerMapAggregate)

	for _, e := range entries {
		s := e.Record
		a := m[e.MapName]
		if a == nil {
			a = &model.PlayerMapAggregate{PlayerID: s.PlayerID, Username: username, MapName: e.MapName}
			m[e.MapName] = a
		}
		a.Matches++
		a.Kills += s.Kills
		a.Deaths += s.Deaths
		a.AtkWonRounds += s.AtkWonRounds
		a.AtkLostRounds += s.AtkLostRounds
		a.DefWonRounds += s.DefWonRounds
		a.DefLostRounds += s.DefLostRounds
	}

	out := make([]model.PlayerMapAggregate, 0, len(m))
	for _, v := range m {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Matches != out[j].Matches {
			return out[i].Matches > out[j].Matches
		}
		return out[i].MapName < out[j].MapName
	})
	return out
}
