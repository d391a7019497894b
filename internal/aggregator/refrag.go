package aggregator

import "github.com/pable/go-r6-metrics/internal/model"

// RefragWindow is the longest gap in seconds between a kill and the kill that avenges it.
const RefragWindow = 7

// CorrelateRefrags walks a round's kills in feed order. For each kill it scans
// the earlier kills of the round from most recent backward, and pairs it with
// the first one whose killer is the current victim and that is not yet avenged.
// The scan stops at the window edge or at an incomparable phase.
func CorrelateRefrags(events []model.TaggedEvent) {
	kills := make([]int, 0, len(events))
	for i := range events {
		cur := &events[i]
		if cur.Type != model.EventKill {
			continue
		}
		for k := len(kills) - 1; k >= 0; k-- {
			prev := &events[kills[k]]
			diff, ok := refragGap(prev, cur)
			if !ok || diff > RefragWindow {
				break
			}
			if prev.WasRetaliated || prev.ActorID != cur.Target() {
				continue
			}
			prev.WasRetaliated = true
			cur.IsRefrag = true
			break
		}
		kills = append(kills, i)
	}
}

// refragGap returns the seconds between two kills. A kill in the action phase
// and one after the plant are bridged across the plant boundary.
func refragGap(prev, cur *model.TaggedEvent) (int, bool) {
	switch {
	case prev.Phase == cur.Phase:
		d := cur.ElapsedSeconds - prev.ElapsedSeconds
		return d, d >= 0
	case prev.Phase == model.PhaseRound && cur.Phase == model.PhasePlant:
		return (RoundDuration - prev.ElapsedSeconds) + cur.ElapsedSeconds, true
	}
	return 0, false
}
