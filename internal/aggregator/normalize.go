package aggregator

import (
	"fmt"
	"strings"
	"time"

	"github.com/pable/go-r6-metrics/internal/model"
)

const (
	rawTimestampLayout = "2006-01-02 15:04:05 -0700"
	timestampLayout    = "2006-01-02 15:04:05"
)

// NormalizedMatch is the raw document with aborted rounds trimmed and its
// timestamp moved into the reference timezone.
type NormalizedMatch struct {
	Info       model.MatchInfo
	Rounds     []model.RawRound
	Timestamp  string
	SourceHash string
}

// TrimAbortedRounds drops trailing rounds that carry no end-of-round stats.
// Only the tail is trimmed; an empty round followed by a completed one is kept.
func TrimAbortedRounds(rounds []model.RawRound) []model.RawRound {
	keep := len(rounds)
	for keep > 0 && len(rounds[keep-1].Stats) == 0 {
		keep--
	}
	return rounds[:keep]
}

// NormalizeTimestamp parses "<date> <time> <±HHMM>" (a trailing zone name is
// ignored) and returns the instant as "2006-01-02 15:04:05" in UTC.
func NormalizeTimestamp(s string) (string, error) {
	fields := strings.Fields(s)
	if len(fields) < 3 {
		return "", malformed("Match_Info.Timestamp", "want \"<date> <time> <±HHMM>\", got %q", s)
	}
	t, err := time.Parse(rawTimestampLayout, strings.Join(fields[:3], " "))
	if err != nil {
		return "", malformed("Match_Info.Timestamp", "%v", err)
	}
	return t.UTC().Format(timestampLayout), nil
}

// Normalize validates the document shape, trims aborted rounds and normalizes
// the match timestamp. The input is not modified.
func Normalize(raw *model.RawMatch) (*NormalizedMatch, error) {
	if raw == nil {
		return nil, malformed("document", "nil RawMatch")
	}
	ts, err := NormalizeTimestamp(raw.Info.Timestamp)
	if err != nil {
		return nil, err
	}
	rounds := TrimAbortedRounds(raw.Rounds)
	if len(rounds) == 0 {
		return nil, malformed("rounds", "no completed rounds")
	}
	for i, r := range rounds {
		if len(r.Teams) != 2 {
			return nil, malformed(fmt.Sprintf("rounds[%d].teams", i), "want 2 teams, got %d", len(r.Teams))
		}
		for _, p := range r.Players {
			if p.TeamIndex != 0 && p.TeamIndex != 1 {
				return nil, malformed(fmt.Sprintf("rounds[%d].players", i), "player %q has team index %d", p.Username, p.TeamIndex)
			}
		}
	}
	return &NormalizedMatch{
		Info:       raw.Info,
		Rounds:     rounds,
		Timestamp:  ts,
		SourceHash: raw.SourceHash,
	}, nil
}
