package aggregator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-r6-metrics/internal/model"
)

func TestBuildRoster_StopsAtTenPlayers(t *testing.T) {
	r1 := makeRound(0)
	r2 := makeRound(1)
	r2.Players[9] = player("sub", 1)

	roster := BuildRoster([]model.RawRound{r1, r2})
	assert.Equal(t, 10, roster.Len())
	_, ok := roster.Lookup("sub")
	assert.False(t, ok, "a player first seen after the roster is full must not be recorded")
}

func TestBuildRoster_GrowsUntilFull(t *testing.T) {
	r1 := makeRound(0)
	r1.Players = r1.Players[:8]
	r2 := makeRound(1)

	roster := BuildRoster([]model.RawRound{r1, r2})
	assert.Equal(t, 10, roster.Len())
	_, ok := roster.Lookup(def5)
	assert.True(t, ok)
}

func TestBuildRoster_LatestNameWins(t *testing.T) {
	r1 := makeRound(0)
	r2 := makeRound(1)
	r2.Players[0].Username = "renamed"
	r3 := makeRound(1)
	r3.Players[0].Username = "renamed-again"

	roster := BuildRoster([]model.RawRound{r1, r2, r3})
	got, ok := roster.Lookup(atk1)
	require.True(t, ok)
	assert.Equal(t, "renamed-again", got.DisplayName)

	other, _ := roster.Lookup(atk2)
	assert.Equal(t, username(atk2), other.DisplayName)
}

func TestRoster_IdentitiesSorted(t *testing.T) {
	r := makeRound(0)
	// reverse the player order; output order must not depend on it
	for i, j := 0, len(r.Players)-1; i < j; i, j = i+1, j-1 {
		r.Players[i], r.Players[j] = r.Players[j], r.Players[i]
	}
	ids := BuildRoster([]model.RawRound{r}).Identities()
	require.Len(t, ids, 10)
	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1].ID, ids[i].ID)
	}
}

func TestRoster_NameIndex(t *testing.T) {
	r1 := makeRound(0)
	roster := BuildRoster([]model.RawRound{r1})

	idx, err := roster.nameIndex(1, r1.Players)
	require.NoError(t, err)
	assert.Equal(t, def3, idx[username(def3)])

	r2 := makeRound(0)
	r2.Players[4] = player("stranger", 0)
	_, err = roster.nameIndex(2, r2.Players)
	var ire *IdentityResolutionError
	require.True(t, errors.As(err, &ire))
	assert.Equal(t, 2, ire.Round)
	assert.Equal(t, "stranger", ire.PlayerID)
}
