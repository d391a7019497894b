package aggregator

import (
	"fmt"

	"github.com/pable/go-r6-metrics/internal/model"
)

// lastStanding is the first moment a team was down to a single player.
type lastStanding struct {
	playerID  string
	opponents int
}

// RoundOutcome is a round summary together with the survivor bookkeeping
// the per-player records need.
type RoundOutcome struct {
	Summary model.RoundSummary

	// lastAlive is indexed by team; nil when the team never dropped to one.
	lastAlive [2]*lastStanding
}

// aliveSets tracks which players of each team are still alive.
type aliveSets [2]map[string]struct{}

func newAliveSets(players []model.RawPlayer) aliveSets {
	s := aliveSets{{}, {}}
	for _, p := range players {
		s[p.TeamIndex][p.ProfileID] = struct{}{}
	}
	return s
}

// remove eliminates id and reports the team it was on. Repeated or unknown
// ids are ignored.
func (s aliveSets) remove(id string) (int, bool) {
	for team := range s {
		if _, ok := s[team][id]; ok {
			delete(s[team], id)
			return team, true
		}
	}
	return 0, false
}

func (s aliveSets) survivor(team int) string {
	for id := range s[team] {
		return id
	}
	return ""
}

// sideIndices returns the attacking and defending team indices.
func sideIndices(roundNumber int, teams []model.RawTeam) (atk, def int, err error) {
	a0 := teams[0].Role == "Attack"
	a1 := teams[1].Role == "Attack"
	switch {
	case a0 && !a1:
		return 0, 1, nil
	case a1 && !a0:
		return 1, 0, nil
	}
	return 0, 0, malformed(fmt.Sprintf("rounds[%d].teams", roundNumber-1), "want exactly one attacking team, got roles %q and %q", teams[0].Role, teams[1].Role)
}

func roundWinner(teams []model.RawTeam) *int {
	for i, t := range teams {
		if t.Won {
			w := i
			return &w
		}
	}
	return nil
}

// DeriveRoundOutcome replays the round's eliminations against its starting
// rosters. It expects refrags to be correlated already.
func DeriveRoundOutcome(tr *TaggedRound, raw model.RawRound) (*RoundOutcome, error) {
	atk, def, err := sideIndices(tr.Number, raw.Teams)
	if err != nil {
		return nil, err
	}
	out := &RoundOutcome{Summary: model.RoundSummary{
		RoundNumber:     tr.Number,
		Site:            raw.Site,
		WinnerTeamIndex: roundWinner(raw.Teams),
		AtkTeamIndex:    atk,
		DefTeamIndex:    def,
		WinCondition:    model.WinByTime,
		PlantTime:       tr.PlantTime,
	}}
	sum := &out.Summary

	alive := newAliveSets(raw.Players)
	firstKill := -1
	for i := range tr.Events {
		ev := &tr.Events[i]
		var victim string
		switch ev.Type {
		case model.EventPlantComplete:
			if sum.WinCondition == model.WinByTime {
				sum.WinCondition = model.WinByPlant
			}
			continue
		case model.EventKill:
			if firstKill < 0 {
				firstKill = i
				t := ev.ElapsedSeconds
				sum.TimeToEntry = &t
			}
			victim = ev.Target()
		case model.EventDeath:
			victim = ev.ActorID
		default:
			continue
		}

		team, ok := alive.remove(victim)
		if !ok {
			continue
		}
		if sum.OpeningAdvantageTeamIndex == nil {
			adv := 1 - team
			sum.OpeningAdvantageTeamIndex = &adv
		}
		if len(alive[team]) == 1 && out.lastAlive[team] == nil {
			out.lastAlive[team] = &lastStanding{playerID: alive.survivor(team), opponents: len(alive[1-team])}
		}
		if sum.WinCondition == model.WinByTime && (len(alive[0]) == 0 || len(alive[1]) == 0) {
			sum.WinCondition = model.WinByKills
		}
	}

	if w := sum.WinnerTeamIndex; w != nil && out.lastAlive[*w] != nil {
		sum.Clutch = true
	}
	if firstKill >= 0 {
		opener := tr.Events[firstKill].ActorID
		for _, ev := range tr.Events[firstKill+1:] {
			if ev.Type == model.EventKill && ev.IsRefrag && ev.Target() == opener {
				sum.OKRefrag = true
				break
			}
		}
	}
	return out, nil
}
