package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-r6-metrics/internal/model"
)

func playerRounds(t *testing.T, winner int, feed ...model.RawEvent) []model.PlayerRoundRecord {
	t.Helper()
	tr, out := derive(t, winner, feed...)
	return AggregatePlayerRounds(tr, makeRound(winner, feed...), out)
}

func TestAggregatePlayerRounds_OneRecordPerPlayer(t *testing.T) {
	recs := playerRounds(t, 0, kill(atk1, def1, 100))
	require.Len(t, recs, 10)
	for i, p := range fullLobby() {
		assert.Equal(t, p.ProfileID, recs[i].PlayerID)
		assert.Equal(t, p.TeamIndex, recs[i].TeamIndex)
		assert.Equal(t, 1, recs[i].RoundNumber)
		require.NotNil(t, recs[i].Operator)
		assert.Equal(t, "Ash", *recs[i].Operator)
		assert.Equal(t, "Main Lobby", recs[i].Spawn)
		assert.Equal(t, p.TeamIndex == 0, recs[i].Won)
		assert.Equal(t, p.TeamIndex == 0, recs[i].Attacking)
	}
}

func TestAggregatePlayerRounds_Counts(t *testing.T) {
	recs := playerRounds(t, 0,
		headshot(atk1, def1, 150),
		kill(atk1, def2, 140),
		plant(atk2, 100),
		death(atk3, 30),
		disable(def3, 5),
	)
	a1 := findPlayerRound(recs, 1, atk1)
	assert.Equal(t, 2, a1.Kills)
	assert.Equal(t, 1, a1.Headshots)
	assert.False(t, a1.Death)
	assert.True(t, a1.KOST)

	assert.True(t, findPlayerRound(recs, 1, def1).Death)
	assert.True(t, findPlayerRound(recs, 1, def2).Death)
	assert.True(t, findPlayerRound(recs, 1, atk2).Plant)
	assert.True(t, findPlayerRound(recs, 1, atk3).Death)
	assert.True(t, findPlayerRound(recs, 1, def3).Defuse)
}

func TestAggregatePlayerRounds_OpeningDuel(t *testing.T) {
	recs := playerRounds(t, 1,
		swap(atk1, 44),
		kill(def1, atk2, 160),
		kill(def1, atk3, 150),
	)
	assert.True(t, findPlayerRound(recs, 1, def1).OpeningKill)
	assert.True(t, findPlayerRound(recs, 1, atk2).OpeningDeath)
	assert.False(t, findPlayerRound(recs, 1, atk3).OpeningDeath)

	n := 0
	for _, r := range recs {
		if r.OpeningKill {
			n++
		}
	}
	assert.Equal(t, 1, n)
}

func TestAggregatePlayerRounds_DeathBeforeFirstKill(t *testing.T) {
	recs := playerRounds(t, 1,
		death(atk4, 170),
		kill(def1, atk2, 160),
	)
	assert.True(t, findPlayerRound(recs, 1, atk4).OpeningDeath)
	assert.False(t, findPlayerRound(recs, 1, atk2).OpeningDeath)
	assert.True(t, findPlayerRound(recs, 1, def1).OpeningKill, "killer still comes from the first kill")

	n := 0
	for _, r := range recs {
		if r.OpeningKill {
			n++
		}
	}
	assert.Equal(t, 1, n)
}

func TestAggregatePlayerRounds_NoKillNoOpeningKiller(t *testing.T) {
	recs := playerRounds(t, 1, death(atk4, 170))
	assert.True(t, findPlayerRound(recs, 1, atk4).OpeningDeath)
	for _, r := range recs {
		assert.False(t, r.OpeningKill)
	}
}

func TestAggregatePlayerRounds_RefragAndTrade(t *testing.T) {
	recs := playerRounds(t, 1,
		kill(atk1, def1, 100),
		kill(def2, atk1, 96),
	)
	a1 := findPlayerRound(recs, 1, atk1)
	assert.True(t, a1.GotRetaliated)
	assert.True(t, a1.Death)
	assert.True(t, a1.KOST, "got a kill")

	d1 := findPlayerRound(recs, 1, def1)
	assert.True(t, d1.Death)
	assert.True(t, d1.Traded)
	assert.Equal(t, 0, d1.Kills)
	assert.False(t, d1.KOST, "being traded alone does not count")

	d2 := findPlayerRound(recs, 1, def2)
	assert.Equal(t, 1, d2.Refrags)
}

func TestAggregatePlayerRounds_TradedVictimWithoutKOST(t *testing.T) {
	recs := playerRounds(t, 1,
		kill(def1, atk1, 150),
		kill(atk2, def1, 147),
	)
	a1 := findPlayerRound(recs, 1, atk1)
	assert.Zero(t, a1.Kills)
	assert.True(t, a1.Death)
	assert.False(t, a1.Won)
	assert.False(t, a1.GotRetaliated)
	assert.True(t, a1.Traded)
	assert.False(t, a1.KOST)

	d1 := findPlayerRound(recs, 1, def1)
	assert.True(t, d1.GotRetaliated)
	assert.True(t, d1.KOST)
}

func TestAggregatePlayerRounds_KOST(t *testing.T) {
	recs := playerRounds(t, 1,
		kill(atk1, def1, 100),
		kill(atk2, def2, 60),
	)
	// survived on the winning side
	assert.True(t, findPlayerRound(recs, 1, def3).KOST)
	// died untraded on the winning side
	assert.False(t, findPlayerRound(recs, 1, def1).KOST)
	// survived on the losing side with no kill
	assert.False(t, findPlayerRound(recs, 1, atk3).KOST)
}

func TestAggregatePlayerRounds_OneVsX(t *testing.T) {
	recs := playerRounds(t, 1, clutchFeed()...)

	d5 := findPlayerRound(recs, 1, def5)
	require.NotNil(t, d5.OneVsX)
	assert.Equal(t, 5, *d5.OneVsX)
	assert.Equal(t, 5, d5.Kills)

	a5 := findPlayerRound(recs, 1, atk5)
	require.NotNil(t, a5.OneVsX)
	assert.Equal(t, 1, *a5.OneVsX)

	for _, id := range []string{atk1, def1, def4} {
		assert.Nil(t, findPlayerRound(recs, 1, id).OneVsX, id)
	}
}

func TestAggregatePlayerRounds_MissingOperator(t *testing.T) {
	tr, out := derive(t, 0)
	r := makeRound(0)
	r.Players[2].Operator = nil
	recs := AggregatePlayerRounds(tr, r, out)
	assert.Nil(t, recs[2].Operator)
}
