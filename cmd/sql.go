package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pable/go-r6-metrics/internal/storage"
)

const schemaHelp = `Schema overview:
  players(profile_id, username, last_seen)
  matches(match_id, source_hash, recording_player_id, recording_player_name, match_timestamp,
    game_mode, map_id, map_name, match_type, game_version, winner_team_index,
    team0_score, team1_score, team0_starting_side, prep_duration, round_duration, plant_duration)
  rounds(match_id, round_number, site, winner_team_index, atk_team_index, def_team_index,
    time_to_entry, opening_advantage_team_index, ok_refrag, clutch, win_condition, plant_time)
  player_rounds(match_id, round_number, profile_id, team_index, operator, spawn, kills, death,
    headshots, plant, defuse, refrags, got_retaliated, traded, opening_kill, opening_death,
    one_vs_x, kost, won, attacking)
  player_matches(match_id, profile_id, username, team_index, rounds_played, kills, deaths,
    headshots, won_rounds, lost_rounds, atk_won_rounds, atk_lost_rounds, def_won_rounds,
    def_lost_rounds, oks, oks_atk, ods, ods_atk, refrags, got_retaliated, kost_rounds, kost, win_match)
  events(match_id, round_number, seq, profile_id, target_profile_id, type, phase,
    time_elapsed_seconds, is_refrag, was_retaliated, operator, headshot)

Booleans are stored as 0/1. Timestamps are UTC "YYYY-MM-DD HH:MM:SS".`

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the metrics database",
	Long:  "Run an arbitrary SQL query against the metrics database and print results as a table.\n\n" + schemaHelp,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	return printQuery(db, query)
}

// printQuery runs query and renders the result as a table on stdout.
func printQuery(db *storage.DB, query string) error {
	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}
