package model

import (
	"encoding/json"
	"fmt"
)

// ---- Raw document emitted by the replay decoder ----

// Named is the {"name": ...} wrapper the decoder uses for event types and operators.
type Named struct {
	Name string `json:"name"`
}

type MatchInfo struct {
	MatchID         string   `json:"Match ID"`
	RecordingPlayer []string `json:"Recording Player"` // [username, profile id]
	GameMode        string   `json:"Game Mode"`
	MatchType       string   `json:"Match Type"`
	Version         string   `json:"Version"`
	Timestamp       string   `json:"Timestamp"` // "2025-08-28 23:48:41 +0200"
}

// RecordingPlayerID returns the profile id of the player who recorded the replay, or "".
func (m MatchInfo) RecordingPlayerID() string {
	if len(m.RecordingPlayer) < 2 {
		return ""
	}
	return m.RecordingPlayer[1]
}

// RecordingPlayerName returns the username of the recording player, or "".
func (m MatchInfo) RecordingPlayerName() string {
	if len(m.RecordingPlayer) < 1 {
		return ""
	}
	return m.RecordingPlayer[0]
}

type RawMap struct {
	Name string      `json:"name"`
	ID   json.Number `json:"id"`
}

type RawTeam struct {
	Name  string `json:"name"`
	Role  string `json:"role"` // "Attack" or "Defense"
	Score int    `json:"score"`
	Won   bool   `json:"won"`
}

type RawPlayer struct {
	ProfileID string `json:"profileID"`
	Username  string `json:"username"`
	TeamIndex int    `json:"teamIndex"`
	Operator  *Named `json:"operator"`
	Spawn     string `json:"spawn"`
}

type RawEvent struct {
	Type          Named   `json:"type"`
	Username      string  `json:"username"`
	Target        string  `json:"target"`
	Operator      *Named  `json:"operator"`
	TimeInSeconds float64 `json:"timeInSeconds"` // countdown within the current phase
	Headshot      *bool   `json:"headshot"`
}

type RawRound struct {
	Map     RawMap            `json:"map"`
	Site    string            `json:"site"`
	Teams   []RawTeam         `json:"teams"`
	Players []RawPlayer       `json:"players"`
	Feed    []RawEvent        `json:"matchFeedback"`
	Stats   []json.RawMessage `json:"stats"` // end-of-round player stats; empty for aborted rounds
}

type RawMatch struct {
	Info       MatchInfo  `json:"Match_Info"`
	Rounds     []RawRound `json:"rounds"`
	SourceHash string     `json:"-"`
}

// ---- Tagged event stream ----

type EventType int

const (
	EventOther EventType = iota
	EventKill
	EventDeath
	EventOperatorSwap
	EventPlantComplete
	EventDisableComplete
)

// EventTypeFromName maps decoder feed type names onto EventType.
func EventTypeFromName(name string) EventType {
	switch name {
	case "Kill":
		return EventKill
	case "Death":
		return EventDeath
	case "OperatorSwap":
		return EventOperatorSwap
	case "DefuserPlantComplete":
		return EventPlantComplete
	case "DefuserDisableComplete":
		return EventDisableComplete
	default:
		return EventOther
	}
}

func (t EventType) String() string {
	switch t {
	case EventKill:
		return "Kill"
	case EventDeath:
		return "Death"
	case EventOperatorSwap:
		return "OperatorSwap"
	case EventPlantComplete:
		return "PlantComplete"
	case EventDisableComplete:
		return "DisableComplete"
	default:
		return "Other"
	}
}

func (t EventType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *EventType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Kill":
		*t = EventKill
	case "Death":
		*t = EventDeath
	case "OperatorSwap":
		*t = EventOperatorSwap
	case "PlantComplete":
		*t = EventPlantComplete
	case "DisableComplete":
		*t = EventDisableComplete
	case "Other":
		*t = EventOther
	default:
		return fmt.Errorf("unknown event type %q", b)
	}
	return nil
}

// Phase is the lifecycle phase an event happened in.
type Phase string

const (
	PhasePrep    Phase = "prep"
	PhaseRound   Phase = "round"
	PhasePlant   Phase = "plant"
	PhaseUnknown Phase = "unknown"
)

type TaggedEvent struct {
	RoundNumber    int       `json:"round_number"`
	Seq            int       `json:"seq"` // position within the round feed
	ActorID        string    `json:"actor_id"`
	TargetID       *string   `json:"target_id"`
	Type           EventType `json:"type"`
	Phase          Phase     `json:"phase"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	IsRefrag       bool      `json:"is_refrag"`
	WasRetaliated  bool      `json:"was_retaliated"`
	Operator       *string   `json:"operator"`
	Headshot       bool      `json:"headshot"`
}

// Target returns the target id or "" when the event has none.
func (e *TaggedEvent) Target() string {
	if e.TargetID == nil {
		return ""
	}
	return *e.TargetID
}

// ---- Derived records ----

type PlayerIdentity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type WinCondition string

const (
	WinByTime  WinCondition = "time"
	WinByPlant WinCondition = "plant"
	WinByKills WinCondition = "kills"
)

type RoundSummary struct {
	RoundNumber               int          `json:"round_number"`
	Site                      string       `json:"site"`
	WinnerTeamIndex           *int         `json:"winner_team_index"`
	AtkTeamIndex              int          `json:"atk_team_index"`
	DefTeamIndex              int          `json:"def_team_index"`
	TimeToEntry               *int         `json:"time_to_entry"`
	OpeningAdvantageTeamIndex *int         `json:"opening_advantage_team_index"`
	OKRefrag                  bool         `json:"ok_refrag"`
	Clutch                    bool         `json:"clutch"`
	WinCondition              WinCondition `json:"win_condition"`
	PlantTime                 *int         `json:"plant_time"`
}

type PlayerRoundRecord struct {
	RoundNumber   int     `json:"round_number"`
	PlayerID      string  `json:"player_id"`
	TeamIndex     int     `json:"team_index"`
	Operator      *string `json:"operator"`
	Spawn         string  `json:"spawn"`
	Kills         int     `json:"kills"`
	Death         bool    `json:"death"`
	Headshots     int     `json:"headshots"`
	Plant         bool    `json:"plant"`
	Defuse        bool    `json:"defuse"`
	Refrags       int     `json:"refrags"`
	GotRetaliated bool    `json:"got_retaliated"`
	Traded        bool    `json:"traded"` // the kill that eliminated this player was retaliated
	OpeningKill   bool    `json:"opening_kill"`
	OpeningDeath  bool    `json:"opening_death"`
	OneVsX        *int    `json:"one_vs_x"`
	KOST          bool    `json:"kost"`
	Won           bool    `json:"won"`
	Attacking     bool    `json:"attacking"`
}

type PlayerMatchRecord struct {
	PlayerID         string  `json:"player_id"`
	Username         string  `json:"username"`
	TeamIndex        int     `json:"team_index"`
	RoundsPlayed     int     `json:"rounds_played"`
	Kills            int     `json:"kills"`
	Deaths           int     `json:"deaths"`
	Headshots        int     `json:"headshots"`
	WonRounds        int     `json:"won_rounds"`
	LostRounds       int     `json:"lost_rounds"`
	AtkWonRounds     int     `json:"atk_won_rounds"`
	AtkLostRounds    int     `json:"atk_lost_rounds"`
	DefWonRounds     int     `json:"def_won_rounds"`
	DefLostRounds    int     `json:"def_lost_rounds"`
	OpeningKills     int     `json:"oks"`
	OpeningKillsAtk  int     `json:"oks_atk"`
	OpeningDeaths    int     `json:"ods"`
	OpeningDeathsAtk int     `json:"ods_atk"`
	Refrags          int     `json:"refrags"`
	GotRetaliated    int     `json:"got_retaliated"`
	KOSTRounds       int     `json:"kost_rounds"`
	KOST             float64 `json:"kost"`
	WinMatch         *bool   `json:"win_match"`
}

func (s *PlayerMatchRecord) KDRatio() float64 {
	if s.Deaths == 0 {
		return float64(s.Kills)
	}
	return float64(s.Kills) / float64(s.Deaths)
}

func (s *PlayerMatchRecord) HSPercent() float64 {
	if s.Kills == 0 {
		return 0
	}
	return float64(s.Headshots) / float64(s.Kills) * 100
}

type MatchAttributes struct {
	MatchID             string `json:"match_id"`
	RecordingPlayerID   string `json:"recording_player_id"`
	RecordingPlayerName string `json:"recording_player_name"`
	Timestamp           string `json:"timestamp"`
	GameMode            string `json:"game_mode"`
	MapID               string `json:"map_id"`
	MapName             string `json:"map"`
	MatchType           string `json:"match_type"`
	GameVersion         string `json:"game_version"`
	WinnerTeamIndex     *int   `json:"winner_team_index"`
	Team0Score          int    `json:"team0_score"`
	Team1Score          int    `json:"team1_score"`
	Team0StartingSide   string `json:"team0_starting_side"` // "ATK" or "DEF"
	PrepDuration        int    `json:"prep_duration"`
	RoundDuration       int    `json:"round_duration"`
	PlantDuration       int    `json:"plant_duration"`
	SourceHash          string `json:"source_hash,omitempty"`
}

// MatchResult is everything extracted from one match document.
type MatchResult struct {
	Match         MatchAttributes     `json:"match"`
	Players       []PlayerIdentity    `json:"players"`
	Rounds        []RoundSummary      `json:"rounds"`
	PlayerRounds  []PlayerRoundRecord `json:"player_rounds"`
	PlayerMatches []PlayerMatchRecord `json:"player_matches"`
	Events        []TaggedEvent       `json:"events"`
}

// ---- Store-side read models ----

// MatchSummary is a lightweight record for list/show commands.
type MatchSummary struct {
	MatchID         string
	MapName         string
	Timestamp       string
	GameMode        string
	MatchType       string
	Team0Score      int
	Team1Score      int
	WinnerTeamIndex *int
	RecordedBy      string
	Rounds          int
}

// PlayerMatchEntry is one stored player-match record with its match context.
type PlayerMatchEntry struct {
	MatchID   string
	MapName   string
	Timestamp string
	Record    PlayerMatchRecord
}

// PlayerMapAggregate holds one player's totals on a single map.
type PlayerMapAggregate struct {
	PlayerID string
	Username string
	MapName  string
	Matches  int

	Kills, Deaths               int
	AtkWonRounds, AtkLostRounds int
	DefWonRounds, DefLostRounds int
}

func (a *PlayerMapAggregate) AtkWinPct() float64 {
	return pct(a.AtkWonRounds, a.AtkWonRounds+a.AtkLostRounds)
}

func (a *PlayerMapAggregate) DefWinPct() float64 {
	return pct(a.DefWonRounds, a.DefWonRounds+a.DefLostRounds)
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// PlayerAggregate holds stats for a single player aggregated across all stored matches.
type PlayerAggregate struct {
	PlayerID string
	Username string
	Matches  int

	WonMatches, LostMatches     int
	RoundsPlayed                int
	Kills, Deaths, Headshots    int
	WonRounds, LostRounds       int
	AtkWonRounds, AtkLostRounds int
	DefWonRounds, DefLostRounds int
	OpeningKills, OpeningDeaths int
	Refrags                     int
	KOSTRounds                  int
}

func (a *PlayerAggregate) KDRatio() float64 {
	if a.Deaths == 0 {
		return float64(a.Kills)
	}
	return float64(a.Kills) / float64(a.Deaths)
}

func (a *PlayerAggregate) HSPercent() float64 {
	if a.Kills == 0 {
		return 0
	}
	return float64(a.Headshots) / float64(a.Kills) * 100
}

func (a *PlayerAggregate) KOSTPct() float64 {
	if a.RoundsPlayed == 0 {
		return 0
	}
	return float64(a.KOSTRounds) / float64(a.RoundsPlayed) * 100
}

func (a *PlayerAggregate) WinPct() float64 {
	if a.RoundsPlayed == 0 {
		return 0
	}
	return float64(a.WonRounds) / float64(a.RoundsPlayed) * 100
}
