package aggregator

import (
	"go.uber.org/zap"

	"github.com/pable/go-r6-metrics/internal/model"
)

// Extractor runs the extraction pipeline over one match document at a time.
// It holds no per-match state and may be reused.
type Extractor struct {
	logger *zap.Logger
}

// New returns an Extractor that reports degraded input on logger.
// A nil logger discards everything.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Aggregate extracts a MatchResult from raw with logging disabled.
func Aggregate(raw *model.RawMatch) (*model.MatchResult, error) {
	return New(nil).Aggregate(raw)
}

// Aggregate computes round summaries, player-round and player-match records
// and the tagged event stream from a RawMatch. raw is not modified.
func (x *Extractor) Aggregate(raw *model.RawMatch) (*model.MatchResult, error) {
	norm, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	log := x.logger.With(zap.String("match_id", norm.Info.MatchID))
	if dropped := len(raw.Rounds) - len(norm.Rounds); dropped > 0 {
		log.Debug("trimmed aborted rounds", zap.Int("dropped", dropped), zap.Int("kept", len(norm.Rounds)))
	}

	roster := BuildRoster(norm.Rounds)
	x.logRoster(log, roster, norm.Rounds)

	res := &model.MatchResult{
		Match:   matchAttributes(norm),
		Players: roster.Identities(),
	}

	// ---- Per-round passes, chronological. ----

	for i, round := range norm.Rounds {
		number := i + 1
		names, err := roster.nameIndex(number, round.Players)
		if err != nil {
			return nil, err
		}
		tagged, err := TagPhases(number, round.Feed, names)
		if err != nil {
			return nil, err
		}
		CorrelateRefrags(tagged.Events)

		outcome, err := DeriveRoundOutcome(tagged, round)
		if err != nil {
			return nil, err
		}
		if outcome.Summary.WinnerTeamIndex == nil {
			log.Debug("round has no winning team", zap.Int("round", number))
		}
		for _, p := range round.Players {
			if p.Operator == nil || p.Operator.Name == "" {
				log.Debug("player has no operator", zap.Int("round", number), zap.String("player_id", p.ProfileID))
			}
		}

		res.Rounds = append(res.Rounds, outcome.Summary)
		res.PlayerRounds = append(res.PlayerRounds, AggregatePlayerRounds(tagged, round, outcome)...)
		res.Events = append(res.Events, tagged.Events...)
	}

	// ---- Match-level fold. ----

	res.PlayerMatches = AggregatePlayerMatches(res.PlayerRounds, roster, res.Match.WinnerTeamIndex)
	log.Debug("extracted match",
		zap.Int("rounds", len(res.Rounds)),
		zap.Int("players", len(res.Players)),
		zap.Int("events", len(res.Events)))
	return res, nil
}

func (x *Extractor) logRoster(log *zap.Logger, roster *Roster, rounds []model.RawRound) {
	if roster.Len() != rosterSize {
		log.Debug("roster is not two full teams", zap.Int("players", roster.Len()))
	}
	seen := make(map[string]string, roster.Len())
	for i, round := range rounds {
		for _, p := range round.Players {
			if p.Username == "" {
				continue
			}
			prev, ok := seen[p.ProfileID]
			seen[p.ProfileID] = p.Username
			if ok && prev != p.Username {
				log.Debug("display name refreshed",
					zap.Int("round", i+1),
					zap.String("player_id", p.ProfileID),
					zap.String("old", prev),
					zap.String("new", p.Username))
			}
		}
	}
}

// matchAttributes derives match-level fields. Scores come from the last
// round; starting side from the first.
func matchAttributes(norm *NormalizedMatch) model.MatchAttributes {
	first := norm.Rounds[0]
	last := norm.Rounds[len(norm.Rounds)-1]

	attrs := model.MatchAttributes{
		MatchID:             norm.Info.MatchID,
		RecordingPlayerID:   norm.Info.RecordingPlayerID(),
		RecordingPlayerName: norm.Info.RecordingPlayerName(),
		Timestamp:           norm.Timestamp,
		GameMode:            norm.Info.GameMode,
		MapID:               first.Map.ID.String(),
		MapName:             model.MapName(first.Map.ID.String()),
		MatchType:           norm.Info.MatchType,
		GameVersion:         norm.Info.Version,
		Team0Score:          last.Teams[0].Score,
		Team1Score:          last.Teams[1].Score,
		Team0StartingSide:   "DEF",
		PrepDuration:        PrepDuration,
		RoundDuration:       RoundDuration,
		PlantDuration:       PlantDuration,
		SourceHash:          norm.SourceHash,
	}
	if first.Teams[0].Role == "Attack" {
		attrs.Team0StartingSide = "ATK"
	}
	attrs.WinnerTeamIndex = matchWinner(attrs.Team0Score, attrs.Team1Score)
	return attrs
}
