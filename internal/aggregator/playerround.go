package aggregator

import "github.com/pable/go-r6-metrics/internal/model"

// openingDuel returns the actor of the round's first Kill and the first
// eliminated player. A Death logged before any Kill makes its actor the
// victim; the killer still comes from the first Kill.
func openingDuel(events []model.TaggedEvent) (killer, victim string) {
	for i := range events {
		ev := &events[i]
		switch ev.Type {
		case model.EventKill:
			if victim == "" {
				victim = ev.Target()
			}
			return ev.ActorID, victim
		case model.EventDeath:
			if victim == "" {
				victim = ev.ActorID
			}
		}
	}
	return "", victim
}

// AggregatePlayerRounds folds one round's events into a record per round
// participant, in the order the round lists its players.
func AggregatePlayerRounds(tr *TaggedRound, raw model.RawRound, outcome *RoundOutcome) []model.PlayerRoundRecord {
	sum := &outcome.Summary
	recs := make([]model.PlayerRoundRecord, 0, len(raw.Players))
	index := make(map[string]int, len(raw.Players))
	for _, p := range raw.Players {
		if _, dup := index[p.ProfileID]; dup {
			continue
		}
		rec := model.PlayerRoundRecord{
			RoundNumber: tr.Number,
			PlayerID:    p.ProfileID,
			TeamIndex:   p.TeamIndex,
			Spawn:       p.Spawn,
			Won:         sum.WinnerTeamIndex != nil && *sum.WinnerTeamIndex == p.TeamIndex,
			Attacking:   p.TeamIndex == sum.AtkTeamIndex,
		}
		if p.Operator != nil && p.Operator.Name != "" {
			op := p.Operator.Name
			rec.Operator = &op
		}
		index[p.ProfileID] = len(recs)
		recs = append(recs, rec)
	}
	lookup := func(id string) *model.PlayerRoundRecord {
		if i, ok := index[id]; ok {
			return &recs[i]
		}
		return nil
	}

	for i := range tr.Events {
		ev := &tr.Events[i]
		switch ev.Type {
		case model.EventKill:
			if r := lookup(ev.ActorID); r != nil {
				r.Kills++
				if ev.Headshot {
					r.Headshots++
				}
				if ev.IsRefrag {
					r.Refrags++
				}
				if ev.WasRetaliated {
					r.GotRetaliated = true
				}
			}
			if r := lookup(ev.Target()); r != nil {
				r.Death = true
				if ev.WasRetaliated {
					r.Traded = true
				}
			}
		case model.EventDeath:
			if r := lookup(ev.ActorID); r != nil {
				r.Death = true
			}
		case model.EventPlantComplete:
			if r := lookup(ev.ActorID); r != nil {
				r.Plant = true
			}
		case model.EventDisableComplete:
			if r := lookup(ev.ActorID); r != nil {
				r.Defuse = true
			}
		}
	}

	killer, victim := openingDuel(tr.Events)
	if r := lookup(killer); r != nil {
		r.OpeningKill = true
	}
	if r := lookup(victim); r != nil {
		r.OpeningDeath = true
	}

	for team, ls := range outcome.lastAlive {
		if ls == nil {
			continue
		}
		if r := lookup(ls.playerID); r != nil && r.TeamIndex == team {
			n := ls.opponents
			r.OneVsX = &n
		}
	}

	for i := range recs {
		r := &recs[i]
		r.KOST = r.Kills > 0 ||
			(r.Won && !r.Death) ||
			(r.Death && r.GotRetaliated)
	}
	return recs
}
