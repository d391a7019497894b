package storage

import (
	"database/sql"
	"fmt"
)

// DBOverview holds database-wide totals for the summary command.
type DBOverview struct {
	TotalMatches  int
	EarliestMatch string
	LatestMatch   string
	UniqueMaps    int
	UniquePlayers int
	TotalRounds   int
}

// MapStat holds per-map match and round-side win counts.
type MapStat struct {
	MapName string
	Matches int
	AtkWins int
	DefWins int
}

// TopPlayer is a player ranked by number of stored matches.
type TopPlayer struct {
	ProfileID string
	Username  string
	Matches   int
	AvgKD     float64
	AvgKOST   float64 // percent
	WinPct    float64
}

// MatchTypeCount is the number of stored matches per match type.
type MatchTypeCount struct {
	MatchType string
	Matches   int
}

// GetDBOverview returns database-wide totals.
func (db *DB) GetDBOverview() (*DBOverview, error) {
	var ov DBOverview
	var earliest, latest sql.NullString
	err := db.conn.QueryRow(`
		SELECT COUNT(1), MIN(match_timestamp), MAX(match_timestamp), COUNT(DISTINCT map_name)
		FROM matches`).Scan(&ov.TotalMatches, &earliest, &latest, &ov.UniqueMaps)
	if err != nil {
		return nil, fmt.Errorf("count matches: %w", err)
	}
	ov.EarliestMatch = earliest.String
	ov.LatestMatch = latest.String

	if err := db.conn.QueryRow("SELECT COUNT(DISTINCT profile_id) FROM player_matches").Scan(&ov.UniquePlayers); err != nil {
		return nil, fmt.Errorf("count players: %w", err)
	}
	if err := db.conn.QueryRow("SELECT COUNT(1) FROM rounds").Scan(&ov.TotalRounds); err != nil {
		return nil, fmt.Errorf("count rounds: %w", err)
	}
	return &ov, nil
}

// GetMapStats returns per-map match counts and round wins by side, most played first.
func (db *DB) GetMapStats() ([]MapStat, error) {
	rows, err := db.conn.Query(`
		SELECT m.map_name,
		       COUNT(DISTINCT m.match_id),
		       COALESCE(SUM(CASE WHEN r.winner_team_index = r.atk_team_index THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN r.winner_team_index = r.def_team_index THEN 1 ELSE 0 END), 0)
		FROM matches m
		LEFT JOIN rounds r ON r.match_id = m.match_id
		GROUP BY m.map_name
		ORDER BY COUNT(DISTINCT m.match_id) DESC, m.map_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MapStat
	for rows.Next() {
		var s MapStat
		if err := rows.Scan(&s.MapName, &s.Matches, &s.AtkWins, &s.DefWins); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetTopPlayersByMatches returns the limit players with the most stored matches.
func (db *DB) GetTopPlayersByMatches(limit int) ([]TopPlayer, error) {
	rows, err := db.conn.Query(`
		SELECT p.profile_id,
		       COALESCE(pl.username, MAX(p.username)),
		       COUNT(1),
		       CAST(SUM(p.kills) AS REAL) / MAX(SUM(p.deaths), 1),
		       100.0 * SUM(p.kost_rounds) / MAX(SUM(p.rounds_played), 1),
		       100.0 * SUM(CASE WHEN p.win_match = 1 THEN 1 ELSE 0 END) / COUNT(1)
		FROM player_matches p
		LEFT JOIN players pl ON pl.profile_id = p.profile_id
		GROUP BY p.profile_id
		ORDER BY COUNT(1) DESC, SUM(p.kills) DESC, p.profile_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopPlayer
	for rows.Next() {
		var p TopPlayer
		if err := rows.Scan(&p.ProfileID, &p.Username, &p.Matches, &p.AvgKD, &p.AvgKOST, &p.WinPct); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetMatchTypeCounts returns the number of matches per match type.
func (db *DB) GetMatchTypeCounts() ([]MatchTypeCount, error) {
	rows, err := db.conn.Query(`
		SELECT match_type, COUNT(1) FROM matches
		GROUP BY match_type ORDER BY COUNT(1) DESC, match_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MatchTypeCount
	for rows.Next() {
		var c MatchTypeCount
		if err := rows.Scan(&c.MatchType, &c.Matches); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// QueryRaw runs an arbitrary query and returns column names and rows rendered
// as strings. NULL renders as "NULL".
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(x)
			case float64:
				row[i] = fmt.Sprintf("%.4g", x)
			default:
				row[i] = fmt.Sprint(x)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}
