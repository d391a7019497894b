package aggregator

import (
	"github.com/pable/go-r6-metrics/internal/model"
)

// Phase lengths in seconds. Feed times count down from these.
const (
	PrepDuration  = 45
	RoundDuration = 180
	PlantDuration = 45
)

// TaggedRound is one round's feed resolved to player ids with a phase and
// elapsed time on every event.
type TaggedRound struct {
	Number    int
	Events    []model.TaggedEvent
	PlantTime *int
}

// elapsed converts a countdown reading into seconds since the phase began.
func elapsed(duration int, countdown float64) int {
	e := float64(duration) - countdown
	if e < 0 {
		return 0
	}
	return int(e)
}

func phaseDuration(p model.Phase, plantDown bool) int {
	switch p {
	case model.PhasePrep:
		return PrepDuration
	case model.PhaseRound:
		return RoundDuration
	case model.PhasePlant:
		return PlantDuration
	}
	// unclassified events run on the live clock
	if plantDown {
		return PlantDuration
	}
	return RoundDuration
}

// TagPhases resolves feed usernames through names and assigns each event a
// phase and an elapsed time. Every event at or before the last OperatorSwap
// belongs to prep, since the decoder cannot tell prep and action kills apart.
func TagPhases(roundNumber int, feed []model.RawEvent, names map[string]string) (*TaggedRound, error) {
	tr := &TaggedRound{Number: roundNumber, Events: make([]model.TaggedEvent, len(feed))}
	plantClock := make([]bool, len(feed))
	plantDown := false
	lastSwap := -1

	for i, raw := range feed {
		typ := model.EventTypeFromName(raw.Type.Name)
		ev := model.TaggedEvent{RoundNumber: roundNumber, Seq: i, Type: typ}

		switch typ {
		case model.EventOperatorSwap:
			ev.Phase = model.PhasePrep
			lastSwap = i
		case model.EventKill, model.EventDeath:
			ev.Phase = model.PhaseRound
			if plantDown {
				ev.Phase = model.PhasePlant
			}
		case model.EventPlantComplete:
			ev.Phase = model.PhaseRound
		case model.EventDisableComplete:
			ev.Phase = model.PhasePlant
		default:
			ev.Phase = model.PhaseUnknown
		}
		plantClock[i] = plantDown

		if err := resolveActors(&ev, raw, names); err != nil {
			return nil, err
		}
		if raw.Operator != nil && raw.Operator.Name != "" {
			op := raw.Operator.Name
			ev.Operator = &op
		}
		ev.Headshot = raw.Headshot != nil && *raw.Headshot

		if typ == model.EventPlantComplete && tr.PlantTime == nil {
			pt := elapsed(RoundDuration, raw.TimeInSeconds)
			tr.PlantTime = &pt
		}
		if typ == model.EventPlantComplete {
			plantDown = true
		}
		tr.Events[i] = ev
	}

	for i := 0; i <= lastSwap; i++ {
		tr.Events[i].Phase = model.PhasePrep
	}
	for i := range tr.Events {
		ev := &tr.Events[i]
		ev.ElapsedSeconds = elapsed(phaseDuration(ev.Phase, plantClock[i]), feed[i].TimeInSeconds)
	}
	return tr, nil
}

// resolveActors fills actor and target ids. Kills and deaths must name a
// known player; other events without a username keep an empty actor.
func resolveActors(ev *model.TaggedEvent, raw model.RawEvent, names map[string]string) error {
	if raw.Username == "" {
		if ev.Type == model.EventKill || ev.Type == model.EventDeath {
			return &IdentityResolutionError{Round: ev.RoundNumber}
		}
	} else {
		id, ok := names[raw.Username]
		if !ok {
			return &IdentityResolutionError{Round: ev.RoundNumber, Username: raw.Username}
		}
		ev.ActorID = id
	}

	if raw.Target != "" {
		id, ok := names[raw.Target]
		if !ok {
			return &IdentityResolutionError{Round: ev.RoundNumber, Username: raw.Target}
		}
		ev.TargetID = &id
	} else if ev.Type == model.EventKill {
		return &IdentityResolutionError{Round: ev.RoundNumber}
	}
	return nil
}
