// Package pgstore mirrors extracted matches into a shared Postgres database.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pable/go-r6-metrics/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// ErrMatchExists is returned by SaveMatch when the match id is already stored.
var ErrMatchExists = errors.New("match already stored")

const timestampLayout = "2006-01-02 15:04:05"

type Store struct {
	pool *pgxpool.Pool
}

// Open creates a connection pool for url and checks it with a ping.
func Open(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// MatchExists reports whether a match id is already stored.
func (s *Store) MatchExists(ctx context.Context, matchID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM matches WHERE match_id = $1)`, matchID).Scan(&exists)
	return exists, err
}

// SaveMatch writes a full extraction result in one transaction. Player names
// are upserted so the name seen in the most recent match wins.
func (s *Store) SaveMatch(ctx context.Context, res *model.MatchResult) error {
	m := res.Match
	ts, err := parseTimestamp(m.Timestamp)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO matches (
			match_id, source_hash, recording_player_id, recording_player_name,
			match_timestamp, game_mode, map_id, map_name, match_type, game_version,
			winner_team_index, team0_score, team1_score, team0_starting_side,
			prep_duration, round_duration, plant_duration
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (match_id) DO NOTHING`,
		m.MatchID, m.SourceHash, m.RecordingPlayerID, m.RecordingPlayerName,
		ts, m.GameMode, m.MapID, m.MapName, m.MatchType, m.GameVersion,
		m.WinnerTeamIndex, m.Team0Score, m.Team1Score, m.Team0StartingSide,
		m.PrepDuration, m.RoundDuration, m.PlantDuration,
	)
	if err != nil {
		return fmt.Errorf("insert match %s: %w", m.MatchID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", m.MatchID, ErrMatchExists)
	}

	br := tx.SendBatch(ctx, buildBatch(res, ts))
	if err := br.Close(); err != nil {
		return fmt.Errorf("write match %s: %w", m.MatchID, err)
	}
	return tx.Commit(ctx)
}

// DeleteMatch removes a match and its derived rows.
func (s *Store) DeleteMatch(ctx context.Context, matchID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM matches WHERE match_id = $1`, matchID)
	return err
}

// PlayerName returns the stored username for a profile id.
func (s *Store) PlayerName(ctx context.Context, profileID string) (string, error) {
	var name string
	err := s.pool.QueryRow(ctx, `SELECT username FROM players WHERE profile_id = $1`, profileID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return name, err
}

func buildBatch(res *model.MatchResult, ts time.Time) *pgx.Batch {
	id := res.Match.MatchID
	b := &pgx.Batch{}

	for _, p := range res.Players {
		b.Queue(`
			INSERT INTO players (profile_id, username, last_seen) VALUES ($1,$2,$3)
			ON CONFLICT (profile_id) DO UPDATE SET
				username = EXCLUDED.username,
				last_seen = EXCLUDED.last_seen
			WHERE EXCLUDED.last_seen >= players.last_seen`,
			p.ID, p.DisplayName, ts)
	}
	for _, r := range res.Rounds {
		b.Queue(`
			INSERT INTO rounds (
				match_id, round_number, site, winner_team_index, atk_team_index, def_team_index,
				time_to_entry, opening_advantage_team_index, ok_refrag, clutch, win_condition, plant_time
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			id, r.RoundNumber, r.Site, r.WinnerTeamIndex, r.AtkTeamIndex, r.DefTeamIndex,
			r.TimeToEntry, r.OpeningAdvantageTeamIndex, r.OKRefrag, r.Clutch, string(r.WinCondition), r.PlantTime)
	}
	for _, r := range res.PlayerRounds {
		b.Queue(`
			INSERT INTO player_rounds (
				match_id, round_number, profile_id, team_index, operator, spawn,
				kills, death, headshots, plant, defuse, refrags, got_retaliated, traded,
				opening_kill, opening_death, one_vs_x, kost, won, attacking
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
			id, r.RoundNumber, r.PlayerID, r.TeamIndex, r.Operator, r.Spawn,
			r.Kills, r.Death, r.Headshots, r.Plant, r.Defuse, r.Refrags, r.GotRetaliated, r.Traded,
			r.OpeningKill, r.OpeningDeath, r.OneVsX, r.KOST, r.Won, r.Attacking)
	}
	for _, r := range res.PlayerMatches {
		b.Queue(`
			INSERT INTO player_matches (
				match_id, profile_id, username, team_index, rounds_played,
				kills, deaths, headshots, won_rounds, lost_rounds,
				atk_won_rounds, atk_lost_rounds, def_won_rounds, def_lost_rounds,
				oks, oks_atk, ods, ods_atk, refrags, got_retaliated,
				kost_rounds, kost, win_match
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`,
			id, r.PlayerID, r.Username, r.TeamIndex, r.RoundsPlayed,
			r.Kills, r.Deaths, r.Headshots, r.WonRounds, r.LostRounds,
			r.AtkWonRounds, r.AtkLostRounds, r.DefWonRounds, r.DefLostRounds,
			r.OpeningKills, r.OpeningKillsAtk, r.OpeningDeaths, r.OpeningDeathsAtk, r.Refrags, r.GotRetaliated,
			r.KOSTRounds, r.KOST, r.WinMatch)
	}
	for _, e := range res.Events {
		b.Queue(`
			INSERT INTO events (
				match_id, round_number, seq, profile_id, target_profile_id, type, phase,
				time_elapsed_seconds, is_refrag, was_retaliated, operator, headshot
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			id, e.RoundNumber, e.Seq, e.ActorID, e.TargetID, e.Type.String(), string(e.Phase),
			e.ElapsedSeconds, e.IsRefrag, e.WasRetaliated, e.Operator, e.Headshot)
	}
	return b
}

func parseTimestamp(s string) (time.Time, error) {
	ts, err := time.ParseInLocation(timestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("match timestamp %q: %w", s, err)
	}
	return ts, nil
}
