package aggregator

import (
	"sort"

	"github.com/pable/go-r6-metrics/internal/model"
)

// matchWinner compares the final team scores. A draw has no winner.
func matchWinner(team0, team1 int) *int {
	var w int
	switch {
	case team0 > team1:
		w = 0
	case team1 > team0:
		w = 1
	default:
		return nil
	}
	return &w
}

// AggregatePlayerMatches folds player-round records into one record per
// player. Records must be in round order; a player's match team is the team
// of their latest round. Output is sorted by kills descending, then id.
func AggregatePlayerMatches(records []model.PlayerRoundRecord, roster *Roster, winner *int) []model.PlayerMatchRecord {
	byID := make(map[string]*model.PlayerMatchRecord)
	for _, r := range records {
		m, ok := byID[r.PlayerID]
		if !ok {
			m = &model.PlayerMatchRecord{PlayerID: r.PlayerID}
			if id, ok := roster.Lookup(r.PlayerID); ok {
				m.Username = id.DisplayName
			}
			byID[r.PlayerID] = m
		}
		m.TeamIndex = r.TeamIndex
		m.RoundsPlayed++
		m.Kills += r.Kills
		m.Headshots += r.Headshots
		m.Refrags += r.Refrags
		if r.Death {
			m.Deaths++
		}
		if r.GotRetaliated {
			m.GotRetaliated++
		}
		if r.KOST {
			m.KOSTRounds++
		}

		switch {
		case r.Won && r.Attacking:
			m.WonRounds++
			m.AtkWonRounds++
		case r.Won:
			m.WonRounds++
			m.DefWonRounds++
		case r.Attacking:
			m.LostRounds++
			m.AtkLostRounds++
		default:
			m.LostRounds++
			m.DefLostRounds++
		}

		if r.OpeningKill {
			m.OpeningKills++
			if r.Attacking {
				m.OpeningKillsAtk++
			}
		}
		if r.OpeningDeath {
			m.OpeningDeaths++
			if r.Attacking {
				m.OpeningDeathsAtk++
			}
		}
	}

	out := make([]model.PlayerMatchRecord, 0, len(byID))
	for _, m := range byID {
		if m.RoundsPlayed > 0 {
			m.KOST = float64(m.KOSTRounds) / float64(m.RoundsPlayed)
		}
		if winner != nil {
			won := *winner == m.TeamIndex
			m.WinMatch = &won
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kills != out[j].Kills {
			return out[i].Kills > out[j].Kills
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}
