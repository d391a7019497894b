package aggregator

import (
	"encoding/json"

	"github.com/pable/go-r6-metrics/internal/model"
)

// IDs for test players. Team 0 attacks in rounds built by makeRound.
const (
	atk1 = "a1"
	atk2 = "a2"
	atk3 = "a3"
	atk4 = "a4"
	atk5 = "a5"
	def1 = "d1"
	def2 = "d2"
	def3 = "d3"
	def4 = "d4"
	def5 = "d5"
)

var (
	attackers = []string{atk1, atk2, atk3, atk4, atk5}
	defenders = []string{def1, def2, def3, def4, def5}
)

const testTimestamp = "2025-08-28 23:48:41 +0200"

func username(id string) string { return "u-" + id }

func player(id string, team int) model.RawPlayer {
	return model.RawPlayer{
		ProfileID: id,
		Username:  username(id),
		TeamIndex: team,
		Operator:  &model.Named{Name: "Ash"},
		Spawn:     "Main Lobby",
	}
}

func fullLobby() []model.RawPlayer {
	players := make([]model.RawPlayer, 0, 10)
	for _, id := range attackers {
		players = append(players, player(id, 0))
	}
	for _, id := range defenders {
		players = append(players, player(id, 1))
	}
	return players
}

func event(typ, actor, target string, countdown float64) model.RawEvent {
	ev := model.RawEvent{Type: model.Named{Name: typ}, TimeInSeconds: countdown}
	if actor != "" {
		ev.Username = username(actor)
	}
	if target != "" {
		ev.Target = username(target)
	}
	return ev
}

func kill(killer, victim string, countdown float64) model.RawEvent {
	return event("Kill", killer, victim, countdown)
}

func headshot(killer, victim string, countdown float64) model.RawEvent {
	ev := kill(killer, victim, countdown)
	hs := true
	ev.Headshot = &hs
	return ev
}

func death(victim string, countdown float64) model.RawEvent {
	return event("Death", victim, "", countdown)
}

func swap(actor string, countdown float64) model.RawEvent {
	return event("OperatorSwap", actor, "", countdown)
}

func plant(actor string, countdown float64) model.RawEvent {
	return event("DefuserPlantComplete", actor, "", countdown)
}

func disable(actor string, countdown float64) model.RawEvent {
	return event("DefuserDisableComplete", actor, "", countdown)
}

// makeRound creates a completed round with a full lobby where team 0 attacks.
// winner < 0 leaves both teams unflagged.
func makeRound(winner int, feed ...model.RawEvent) model.RawRound {
	teams := []model.RawTeam{
		{Name: "Orange", Role: "Attack"},
		{Name: "Blue", Role: "Defense"},
	}
	if winner >= 0 {
		teams[winner].Won = true
	}
	return model.RawRound{
		Map:     model.RawMap{Name: "CLUBHOUSE", ID: json.Number("407193663917")},
		Site:    "2F Gym, 2F Bedroom",
		Teams:   teams,
		Players: fullLobby(),
		Feed:    feed,
		Stats:   []json.RawMessage{json.RawMessage(`{}`)},
	}
}

// aborted returns a round with no end-of-round stats.
func aborted() model.RawRound {
	r := makeRound(-1)
	r.Stats = nil
	return r
}

// withScores stamps running team scores onto rounds in order.
func withScores(rounds ...model.RawRound) []model.RawRound {
	var s0, s1 int
	for i := range rounds {
		for t := range rounds[i].Teams {
			if rounds[i].Teams[t].Won {
				if t == 0 {
					s0++
				} else {
					s1++
				}
			}
		}
		rounds[i].Teams[0].Score = s0
		rounds[i].Teams[1].Score = s1
	}
	return rounds
}

func makeRaw(rounds ...model.RawRound) *model.RawMatch {
	return &model.RawMatch{
		Info: model.MatchInfo{
			MatchID:         "match-1",
			RecordingPlayer: []string{username(atk1), atk1},
			GameMode:        "Bomb",
			MatchType:       "Ranked",
			Version:         "Y10S2",
			Timestamp:       testTimestamp,
		},
		Rounds:     withScores(rounds...),
		SourceHash: "testhash",
	}
}

// tag resolves and phase-tags a feed against the full lobby.
func tag(number int, feed ...model.RawEvent) *TaggedRound {
	names := make(map[string]string)
	for _, p := range fullLobby() {
		names[p.Username] = p.ProfileID
	}
	tr, err := TagPhases(number, feed, names)
	if err != nil {
		panic(err)
	}
	return tr
}

func findPlayerRound(recs []model.PlayerRoundRecord, round int, id string) *model.PlayerRoundRecord {
	for i := range recs {
		if recs[i].RoundNumber == round && recs[i].PlayerID == id {
			return &recs[i]
		}
	}
	return nil
}

func findPlayerMatch(recs []model.PlayerMatchRecord, id string) *model.PlayerMatchRecord {
	for i := range recs {
		if recs[i].PlayerID == id {
			return &recs[i]
		}
	}
	return nil
}
