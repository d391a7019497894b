package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/pable/go-r6-metrics/internal/model"
)

// MatchExists returns true if a match with the given id is already stored.
func (db *DB) MatchExists(matchID string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM matches WHERE match_id = ?", matchID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertMatch stores a full extraction result in one transaction. Player names
// are upserted so the name from the most recent match wins. A match id that is
// already stored returns ErrMatchExists and nothing is written.
func (db *DB) InsertMatch(res *model.MatchResult) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	m := res.Match
	var count int
	if err := tx.QueryRow("SELECT COUNT(1) FROM matches WHERE match_id = ?", m.MatchID).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%s: %w", m.MatchID, ErrMatchExists)
	}

	if err := upsertPlayers(tx, res.Players, m.Timestamp); err != nil {
		return err
	}
	_, err = tx.Exec(`
		INSERT INTO matches(
			match_id, source_hash, recording_player_id, recording_player_name,
			match_timestamp, game_mode, map_id, map_name, match_type, game_version,
			winner_team_index, team0_score, team1_score, team0_starting_side,
			prep_duration, round_duration, plant_duration
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		m.MatchID, m.SourceHash, m.RecordingPlayerID, m.RecordingPlayerName,
		m.Timestamp, m.GameMode, m.MapID, m.MapName, m.MatchType, m.GameVersion,
		nullInt(m.WinnerTeamIndex), m.Team0Score, m.Team1Score, m.Team0StartingSide,
		m.PrepDuration, m.RoundDuration, m.PlantDuration,
	)
	if err != nil {
		return fmt.Errorf("insert match %s: %w", m.MatchID, err)
	}
	if err := insertRounds(tx, m.MatchID, res.Rounds); err != nil {
		return err
	}
	if err := insertPlayerRounds(tx, m.MatchID, res.PlayerRounds); err != nil {
		return err
	}
	if err := insertPlayerMatches(tx, m.MatchID, res.PlayerMatches); err != nil {
		return err
	}
	if err := insertEvents(tx, m.MatchID, res.Events); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertPlayers(tx *sql.Tx, players []model.PlayerIdentity, seen string) error {
	stmt, err := tx.Prepare(`
		INSERT INTO players(profile_id, username, last_seen) VALUES (?,?,?)
		ON CONFLICT(profile_id) DO UPDATE SET
			username = excluded.username,
			last_seen = excluded.last_seen
		WHERE excluded.last_seen >= players.last_seen`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range players {
		if _, err := stmt.Exec(p.ID, p.DisplayName, seen); err != nil {
			return fmt.Errorf("upsert player %s: %w", p.ID, err)
		}
	}
	return nil
}

func insertRounds(tx *sql.Tx, matchID string, rounds []model.RoundSummary) error {
	stmt, err := tx.Prepare(`
		INSERT INTO rounds(
			match_id, round_number, site, winner_team_index, atk_team_index, def_team_index,
			time_to_entry, opening_advantage_team_index, ok_refrag, clutch, win_condition, plant_time
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rounds {
		_, err = stmt.Exec(
			matchID, r.RoundNumber, r.Site, nullInt(r.WinnerTeamIndex), r.AtkTeamIndex, r.DefTeamIndex,
			nullInt(r.TimeToEntry), nullInt(r.OpeningAdvantageTeamIndex),
			boolInt(r.OKRefrag), boolInt(r.Clutch), string(r.WinCondition), nullInt(r.PlantTime),
		)
		if err != nil {
			return fmt.Errorf("insert round %d: %w", r.RoundNumber, err)
		}
	}
	return nil
}

func insertPlayerRounds(tx *sql.Tx, matchID string, recs []model.PlayerRoundRecord) error {
	stmt, err := tx.Prepare(`
		INSERT INTO player_rounds(
			match_id, round_number, profile_id, team_index, operator, spawn,
			kills, death, headshots, plant, defuse, refrags, got_retaliated, traded,
			opening_kill, opening_death, one_vs_x, kost, won, attacking
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range recs {
		_, err = stmt.Exec(
			matchID, r.RoundNumber, r.PlayerID, r.TeamIndex, nullString(r.Operator), r.Spawn,
			r.Kills, boolInt(r.Death), r.Headshots, boolInt(r.Plant), boolInt(r.Defuse),
			r.Refrags, boolInt(r.GotRetaliated), boolInt(r.Traded),
			boolInt(r.OpeningKill), boolInt(r.OpeningDeath), nullInt(r.OneVsX),
			boolInt(r.KOST), boolInt(r.Won), boolInt(r.Attacking),
		)
		if err != nil {
			return fmt.Errorf("insert player_round %d/%s: %w", r.RoundNumber, r.PlayerID, err)
		}
	}
	return nil
}

func insertPlayerMatches(tx *sql.Tx, matchID string, recs []model.PlayerMatchRecord) error {
	stmt, err := tx.Prepare(`
		INSERT INTO player_matches(
			match_id, profile_id, username, team_index, rounds_played,
			kills, deaths, headshots, won_rounds, lost_rounds,
			atk_won_rounds, atk_lost_rounds, def_won_rounds, def_lost_rounds,
			oks, oks_atk, ods, ods_atk, refrags, got_retaliated,
			kost_rounds, kost, win_match
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range recs {
		_, err = stmt.Exec(
			matchID, r.PlayerID, r.Username, r.TeamIndex, r.RoundsPlayed,
			r.Kills, r.Deaths, r.Headshots, r.WonRounds, r.LostRounds,
			r.AtkWonRounds, r.AtkLostRounds, r.DefWonRounds, r.DefLostRounds,
			r.OpeningKills, r.OpeningKillsAtk, r.OpeningDeaths, r.OpeningDeathsAtk,
			r.Refrags, r.GotRetaliated, r.KOSTRounds, r.KOST, nullBool(r.WinMatch),
		)
		if err != nil {
			return fmt.Errorf("insert player_match %s: %w", r.PlayerID, err)
		}
	}
	return nil
}

func insertEvents(tx *sql.Tx, matchID string, events []model.TaggedEvent) error {
	stmt, err := tx.Prepare(`
		INSERT INTO events(
			match_id, round_number, seq, profile_id, target_profile_id, type, phase,
			time_elapsed_seconds, is_refrag, was_retaliated, operator, headshot
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		_, err = stmt.Exec(
			matchID, e.RoundNumber, e.Seq, e.ActorID, nullString(e.TargetID), e.Type.String(), string(e.Phase),
			e.ElapsedSeconds, boolInt(e.IsRefrag), boolInt(e.WasRetaliated), nullString(e.Operator), boolInt(e.Headshot),
		)
		if err != nil {
			return fmt.Errorf("insert event %d/%d: %w", e.RoundNumber, e.Seq, err)
		}
	}
	return nil
}

// DeleteMatch removes a match and everything derived from it. Player names are kept.
func (db *DB) DeleteMatch(matchID string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"events", "player_matches", "player_rounds", "rounds", "matches"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE match_id = ?", matchID); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	return tx.Commit()
}

const matchSummaryColumns = `
	m.match_id, m.map_name, m.match_timestamp, m.game_mode, m.match_type,
	m.team0_score, m.team1_score, m.winner_team_index, m.recording_player_name,
	(SELECT COUNT(1) FROM rounds r WHERE r.match_id = m.match_id)`

func scanMatchSummary(sc interface{ Scan(...any) error }) (model.MatchSummary, error) {
	var s model.MatchSummary
	var winner sql.NullInt64
	err := sc.Scan(&s.MatchID, &s.MapName, &s.Timestamp, &s.GameMode, &s.MatchType,
		&s.Team0Score, &s.Team1Score, &winner, &s.RecordedBy, &s.Rounds)
	s.WinnerTeamIndex = intPtr(winner)
	return s, err
}

// ListMatches returns all stored match summaries, newest first.
func (db *DB) ListMatches() ([]model.MatchSummary, error) {
	rows, err := db.conn.Query(`SELECT` + matchSummaryColumns + `
		FROM matches m ORDER BY m.match_timestamp DESC, m.match_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MatchSummary
	for rows.Next() {
		s, err := scanMatchSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetMatchByPrefix finds the first match whose id starts with the given prefix.
// It returns nil when nothing matches.
func (db *DB) GetMatchByPrefix(prefix string) (*model.MatchSummary, error) {
	row := db.conn.QueryRow(`SELECT`+matchSummaryColumns+`
		FROM matches m WHERE m.match_id LIKE ? ORDER BY m.match_id LIMIT 1`, prefix+"%")
	s, err := scanMatchSummary(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetRoundSummaries returns the rounds of a match in order.
func (db *DB) GetRoundSummaries(matchID string) ([]model.RoundSummary, error) {
	rows, err := db.conn.Query(`
		SELECT round_number, site, winner_team_index, atk_team_index, def_team_index,
		       time_to_entry, opening_advantage_team_index, ok_refrag, clutch, win_condition, plant_time
		FROM rounds WHERE match_id = ? ORDER BY round_number`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RoundSummary
	for rows.Next() {
		var r model.RoundSummary
		var winner, entry, adv, plant sql.NullInt64
		var cond string
		if err := rows.Scan(&r.RoundNumber, &r.Site, &winner, &r.AtkTeamIndex, &r.DefTeamIndex,
			&entry, &adv, &r.OKRefrag, &r.Clutch, &cond, &plant); err != nil {
			return nil, err
		}
		r.WinnerTeamIndex = intPtr(winner)
		r.TimeToEntry = intPtr(entry)
		r.OpeningAdvantageTeamIndex = intPtr(adv)
		r.PlantTime = intPtr(plant)
		r.WinCondition = model.WinCondition(cond)
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetPlayerMatchRecords returns all player records for a match, ordered by kills desc then id.
func (db *DB) GetPlayerMatchRecords(matchID string) ([]model.PlayerMatchRecord, error) {
	rows, err := db.conn.Query(`
		SELECT`+playerMatchColumns+`
		FROM player_matches WHERE match_id = ?
		ORDER BY kills DESC, profile_id`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerMatchRecord
	for rows.Next() {
		r, err := scanPlayerMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const playerMatchColumns = `
	profile_id, username, team_index, rounds_played,
	kills, deaths, headshots, won_rounds, lost_rounds,
	atk_won_rounds, atk_lost_rounds, def_won_rounds, def_lost_rounds,
	oks, oks_atk, ods, ods_atk, refrags, got_retaliated,
	kost_rounds, kost, win_match`

func scanPlayerMatch(sc interface{ Scan(...any) error }, extra ...any) (model.PlayerMatchRecord, error) {
	var r model.PlayerMatchRecord
	var winMatch sql.NullBool
	dest := append(extra,
		&r.PlayerID, &r.Username, &r.TeamIndex, &r.RoundsPlayed,
		&r.Kills, &r.Deaths, &r.Headshots, &r.WonRounds, &r.LostRounds,
		&r.AtkWonRounds, &r.AtkLostRounds, &r.DefWonRounds, &r.DefLostRounds,
		&r.OpeningKills, &r.OpeningKillsAtk, &r.OpeningDeaths, &r.OpeningDeathsAtk,
		&r.Refrags, &r.GotRetaliated, &r.KOSTRounds, &r.KOST, &winMatch,
	)
	if err := sc.Scan(dest...); err != nil {
		return r, err
	}
	if winMatch.Valid {
		w := winMatch.Bool
		r.WinMatch = &w
	}
	return r, nil
}

// GetAllPlayerMatchRecords returns every stored match record for a profile id
// across all matches, oldest first, joined with the match map and timestamp.
func (db *DB) GetAllPlayerMatchRecords(profileID string) ([]model.PlayerMatchEntry, error) {
	rows, err := db.conn.Query(`
		SELECT m.match_id, m.map_name, m.match_timestamp,`+prefixed("p.", playerMatchColumns)+`
		FROM player_matches p
		JOIN matches m ON m.match_id = p.match_id
		WHERE p.profile_id = ?
		ORDER BY m.match_timestamp, m.match_id`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerMatchEntry
	for rows.Next() {
		var e model.PlayerMatchEntry
		r, err := scanPlayerMatch(rows, &e.MatchID, &e.MapName, &e.Timestamp)
		if err != nil {
			return nil, err
		}
		e.Record = r
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetPlayerRoundRecords returns the per-round records of a match in round order.
// An empty profileID returns every player.
func (db *DB) GetPlayerRoundRecords(matchID, profileID string) ([]model.PlayerRoundRecord, error) {
	rows, err := db.conn.Query(`
		SELECT round_number, profile_id, team_index, operator, spawn,
		       kills, death, headshots, plant, defuse, refrags, got_retaliated, traded,
		       opening_kill, opening_death, one_vs_x, kost, won, attacking
		FROM player_rounds
		WHERE match_id = ? AND (? = '' OR profile_id = ?)
		ORDER BY round_number, team_index, profile_id`, matchID, profileID, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerRoundRecord
	for rows.Next() {
		var r model.PlayerRoundRecord
		var op sql.NullString
		var oneVsX sql.NullInt64
		if err := rows.Scan(&r.RoundNumber, &r.PlayerID, &r.TeamIndex, &op, &r.Spawn,
			&r.Kills, &r.Death, &r.Headshots, &r.Plant, &r.Defuse, &r.Refrags, &r.GotRetaliated, &r.Traded,
			&r.OpeningKill, &r.OpeningDeath, &oneVsX, &r.KOST, &r.Won, &r.Attacking); err != nil {
			return nil, err
		}
		r.Operator = strPtr(op)
		r.OneVsX = intPtr(oneVsX)
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetEvents returns the tagged events of one round in feed order, or of the
// whole match when round is 0.
func (db *DB) GetEvents(matchID string, round int) ([]model.TaggedEvent, error) {
	rows, err := db.conn.Query(`
		SELECT round_number, seq, profile_id, target_profile_id, type, phase,
		       time_elapsed_seconds, is_refrag, was_retaliated, operator, headshot
		FROM events
		WHERE match_id = ? AND (? = 0 OR round_number = ?)
		ORDER BY round_number, seq`, matchID, round, round)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TaggedEvent
	for rows.Next() {
		var e model.TaggedEvent
		var target, op sql.NullString
		var typ, phase string
		if err := rows.Scan(&e.RoundNumber, &e.Seq, &e.ActorID, &target, &typ, &phase,
			&e.ElapsedSeconds, &e.IsRefrag, &e.WasRetaliated, &op, &e.Headshot); err != nil {
			return nil, err
		}
		if err := e.Type.UnmarshalText([]byte(typ)); err != nil {
			return nil, err
		}
		e.Phase = model.Phase(phase)
		e.TargetID = strPtr(target)
		e.Operator = strPtr(op)
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetPlayerNames returns the stored username for every known profile id.
func (db *DB) GetPlayerNames() (map[string]string, error) {
	rows, err := db.conn.Query("SELECT profile_id, username FROM players")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}

// FindPlayers returns players whose profile id or username contains query.
func (db *DB) FindPlayers(query string) ([]model.PlayerIdentity, error) {
	rows, err := db.conn.Query(`
		SELECT profile_id, username FROM players
		WHERE profile_id = ? OR username LIKE ?
		ORDER BY username, profile_id`, query, "%"+query+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerIdentity
	for rows.Next() {
		var p model.PlayerIdentity
		if err := rows.Scan(&p.ID, &p.DisplayName); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// prefixed qualifies every column in a comma-separated list with alias.
func prefixed(alias, cols string) string {
	parts := strings.Split(cols, ",")
	for i, c := range parts {
		parts[i] = " " + alias + strings.TrimSpace(c)
	}
	return strings.Join(parts, ",")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullBool(p *bool) any {
	if p == nil {
		return nil
	}
	return boolInt(*p)
}

func nullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func strPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
