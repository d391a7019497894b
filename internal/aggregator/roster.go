package aggregator

import (
	"sort"

	"github.com/pable/go-r6-metrics/internal/model"
)

// rosterSize is two five-player teams.
const rosterSize = 10

// Roster is the stable set of match participants keyed by profile id.
// It is read-only once built.
type Roster struct {
	byID map[string]model.PlayerIdentity
}

// BuildRoster records every profile id seen in round order until ten players
// are known, then refreshes display names so the latest observed name wins.
func BuildRoster(rounds []model.RawRound) *Roster {
	r := &Roster{byID: make(map[string]model.PlayerIdentity, rosterSize)}
	for _, round := range rounds {
		for _, p := range round.Players {
			if p.ProfileID == "" {
				continue
			}
			if _, ok := r.byID[p.ProfileID]; ok {
				continue
			}
			r.byID[p.ProfileID] = model.PlayerIdentity{ID: p.ProfileID, DisplayName: p.Username}
		}
		if len(r.byID) == rosterSize {
			break
		}
	}

	for _, round := range rounds {
		for _, p := range round.Players {
			id, ok := r.byID[p.ProfileID]
			if !ok || p.Username == "" {
				continue
			}
			id.DisplayName = p.Username
			r.byID[p.ProfileID] = id
		}
	}
	return r
}

// Lookup returns the identity recorded for a profile id.
func (r *Roster) Lookup(id string) (model.PlayerIdentity, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// Len returns the number of rostered players.
func (r *Roster) Len() int { return len(r.byID) }

// Identities returns all rostered players ordered by profile id.
func (r *Roster) Identities() []model.PlayerIdentity {
	out := make([]model.PlayerIdentity, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// nameIndex maps the usernames of one round onto profile ids. Every round
// participant must already be rostered.
func (r *Roster) nameIndex(roundNumber int, players []model.RawPlayer) (map[string]string, error) {
	idx := make(map[string]string, len(players))
	for _, p := range players {
		if _, ok := r.byID[p.ProfileID]; !ok {
			return nil, &IdentityResolutionError{Round: roundNumber, Username: p.Username, PlayerID: p.ProfileID}
		}
		idx[p.Username] = p.ProfileID
	}
	return idx, nil
}
