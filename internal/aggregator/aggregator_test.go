package aggregator

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pable/go-r6-metrics/internal/model"
)

// sampleMatch is four completed rounds and one aborted one.
func sampleMatch() *model.RawMatch {
	r1 := makeRound(1, clutchFeed()...)

	r2 := makeRound(0,
		kill(atk1, def1, 40),
		swap(atk1, 44),
		kill(def2, atk2, 150),
		kill(atk3, def2, 146),
		plant(atk4, 90),
		kill(def3, atk3, 43),
		kill(atk4, def3, 40),
	)

	r3 := makeRound(0,
		kill(atk1, def1, 2),
		plant(atk2, 175),
		kill(def2, atk1, 42),
		kill(atk2, def2, 30),
		kill(atk2, def3, 20),
		kill(atk3, def4, 15),
		kill(atk3, def5, 10),
	)
	r3.Teams[0].Role, r3.Teams[1].Role = "Defense", "Attack"

	r4 := makeRound(0,
		death(def5, 170),
		kill(atk5, def4, 100),
	)
	r4.Players[6].Username = "d2-new"
	r4.Feed = append(r4.Feed, model.RawEvent{
		Type: model.Named{Name: "Kill"}, Username: username(def1), Target: "d2-new", TimeInSeconds: 90,
	})

	return makeRaw(r1, r2, r3, r4, aborted())
}

func TestAggregate_EndToEnd(t *testing.T) {
	res, err := Aggregate(sampleMatch())
	require.NoError(t, err)

	m := res.Match
	assert.Equal(t, "match-1", m.MatchID)
	assert.Equal(t, atk1, m.RecordingPlayerID)
	assert.Equal(t, username(atk1), m.RecordingPlayerName)
	assert.Equal(t, "2025-08-28 21:48:41", m.Timestamp)
	assert.Equal(t, "407193663917", m.MapID)
	assert.Equal(t, "Clubhouse", m.MapName)
	assert.Equal(t, "Y10S2", m.GameVersion)
	assert.Equal(t, "ATK", m.Team0StartingSide)
	assert.Equal(t, 3, m.Team0Score)
	assert.Equal(t, 1, m.Team1Score)
	require.NotNil(t, m.WinnerTeamIndex)
	assert.Equal(t, 0, *m.WinnerTeamIndex)
	assert.Equal(t, 45, m.PrepDuration)
	assert.Equal(t, 180, m.RoundDuration)
	assert.Equal(t, 45, m.PlantDuration)
	assert.Equal(t, "testhash", m.SourceHash)

	require.Len(t, res.Rounds, 4)
	assert.Len(t, res.Players, 10)
	assert.Len(t, res.PlayerRounds, 40)
	assert.Len(t, res.PlayerMatches, 10)

	for _, p := range res.Players {
		if p.ID == def2 {
			assert.Equal(t, "d2-new", p.DisplayName)
		}
	}

	r1 := res.Rounds[0]
	assert.True(t, r1.Clutch)
	assert.Equal(t, model.WinByKills, r1.WinCondition)

	r2 := res.Rounds[1]
	assert.Equal(t, model.WinByPlant, r2.WinCondition)
	require.NotNil(t, r2.TimeToEntry)
	assert.Equal(t, 5, *r2.TimeToEntry, "prep kill opens the round")

	r3 := res.Rounds[2]
	assert.Equal(t, 1, r3.AtkTeamIndex)
	assert.Equal(t, 0, r3.DefTeamIndex)
	assert.True(t, r3.OKRefrag)

	r4 := res.Rounds[3]
	require.NotNil(t, r4.OpeningAdvantageTeamIndex)
	assert.Equal(t, 0, *r4.OpeningAdvantageTeamIndex)

	a1 := findPlayerMatch(res.PlayerMatches, atk1)
	require.NotNil(t, a1)
	assert.Equal(t, 4, a1.RoundsPlayed)
	require.NotNil(t, a1.WinMatch)
	assert.True(t, *a1.WinMatch)

	d5 := findPlayerRound(res.PlayerRounds, 1, def5)
	require.NotNil(t, d5.OneVsX)
	assert.Equal(t, 5, *d5.OneVsX)

	// events are emitted round by round in feed order
	prevRound, prevSeq := 0, -1
	for _, ev := range res.Events {
		if ev.RoundNumber != prevRound {
			assert.Greater(t, ev.RoundNumber, prevRound)
			prevRound, prevSeq = ev.RoundNumber, -1
		}
		assert.Equal(t, prevSeq+1, ev.Seq)
		prevSeq = ev.Seq
	}
}

func TestAggregate_RoundsPlayedEqualsWonPlusLost(t *testing.T) {
	res, err := Aggregate(sampleMatch())
	require.NoError(t, err)
	for _, m := range res.PlayerMatches {
		assert.Equal(t, m.RoundsPlayed, m.WonRounds+m.LostRounds, m.PlayerID)
		assert.Equal(t, m.WonRounds, m.AtkWonRounds+m.DefWonRounds, m.PlayerID)
		assert.Equal(t, m.LostRounds, m.AtkLostRounds+m.DefLostRounds, m.PlayerID)
	}
	for _, r := range res.Rounds {
		assert.Equal(t, 1, r.AtkTeamIndex+r.DefTeamIndex)
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	first, err := Aggregate(sampleMatch())
	require.NoError(t, err)
	second, err := Aggregate(sampleMatch())
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestAggregate_DoesNotModifyInput(t *testing.T) {
	raw := sampleMatch()
	before, err := json.Marshal(raw)
	require.NoError(t, err)

	_, err = Aggregate(raw)
	require.NoError(t, err)

	after, err := json.Marshal(raw)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestAggregate_UnknownEventUser(t *testing.T) {
	raw := makeRaw(makeRound(0), makeRound(1, kill(atk1, "ghost", 100)))
	_, err := Aggregate(raw)

	var ire *IdentityResolutionError
	require.True(t, errors.As(err, &ire), "got %v", err)
	assert.Equal(t, 2, ire.Round)
}

func TestAggregate_LateSubstitute(t *testing.T) {
	r2 := makeRound(1)
	r2.Players[9] = player("sub", 1)
	_, err := Aggregate(makeRaw(makeRound(0), r2))

	var ire *IdentityResolutionError
	require.True(t, errors.As(err, &ire), "got %v", err)
	assert.Equal(t, "sub", ire.PlayerID)
}

func TestAggregate_Malformed(t *testing.T) {
	_, err := Aggregate(makeRaw(aborted()))
	var mie *MalformedInputError
	assert.True(t, errors.As(err, &mie))
}

func TestExtractor_LogsDegradedInput(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	x := New(zap.New(core))

	raw := sampleMatch()
	raw.Rounds[1].Players[0].Operator = nil
	_, err := x.Aggregate(raw)
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("trimmed aborted rounds").Len())
	assert.Equal(t, 1, logs.FilterMessage("player has no operator").Len())
	assert.Equal(t, 1, logs.FilterMessage("display name refreshed").Len())
	assert.Equal(t, 1, logs.FilterMessage("extracted match").Len())
}

func TestExtractor_LogsEachRenameOnce(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	x := New(zap.New(core))

	r2 := makeRound(0)
	r2.Players[6].Username = "d2-mid"
	r3 := makeRound(1)
	r3.Players[6].Username = "d2-mid"
	r4 := makeRound(0)
	r4.Players[6].Username = "d2-late"

	_, err := x.Aggregate(makeRaw(makeRound(1), r2, r3, r4))
	require.NoError(t, err)

	renames := logs.FilterMessage("display name refreshed").AllUntimed()
	require.Len(t, renames, 2)
	first := renames[0].ContextMap()
	assert.Equal(t, def2, first["player_id"])
	assert.Equal(t, username(def2), first["old"])
	assert.Equal(t, "d2-mid", first["new"])
	assert.EqualValues(t, 2, first["round"])
	second := renames[1].ContextMap()
	assert.Equal(t, "d2-mid", second["old"])
	assert.Equal(t, "d2-late", second["new"])
	assert.EqualValues(t, 4, second["round"])
}

func TestNew_NilLogger(t *testing.T) {
	x := New(nil)
	require.NotNil(t, x.logger)
	_, err := x.Aggregate(makeRaw(makeRound(0)))
	assert.NoError(t, err)
}
