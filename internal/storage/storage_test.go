package storage

import (
	"errors"
	"testing"

	"github.com/pable/go-r6-metrics/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func intp(v int) *int { return &v }
func strp(v string) *string { return &v }
func boolp(v bool) *bool { return &v }

// sampleResult builds a two-round match between p1 (team 0) and p2 (team 1).
func sampleResult(matchID, ts, p1Name string) *model.MatchResult {
	return &model.MatchResult{
		Match: model.MatchAttributes{
			MatchID: matchID, RecordingPlayerID: "p1", RecordingPlayerName: p1Name,
			Timestamp: ts, GameMode: "Bomb", MapID: "407193663917", MapName: "Clubhouse",
			MatchType: "Ranked", GameVersion: "Y10S2",
			WinnerTeamIndex: intp(0), Team0Score: 2, Team1Score: 0, Team0StartingSide: "ATK",
			PrepDuration: 45, RoundDuration: 180, PlantDuration: 45, SourceHash: "hash-" + matchID,
		},
		Players: []model.PlayerIdentity{{ID: "p1", DisplayName: p1Name}, {ID: "p2", DisplayName: "Bravo"}},
		Rounds: []model.RoundSummary{
			{RoundNumber: 1, Site: "2F Gym", WinnerTeamIndex: intp(0), AtkTeamIndex: 0, DefTeamIndex: 1,
				TimeToEntry: intp(30), OpeningAdvantageTeamIndex: intp(0), Clutch: true,
				WinCondition: model.WinByKills},
			{RoundNumber: 2, Site: "B Garage", WinnerTeamIndex: intp(0), AtkTeamIndex: 1, DefTeamIndex: 0,
				WinCondition: model.WinByPlant, PlantTime: intp(120), OKRefrag: true},
		},
		PlayerRounds: []model.PlayerRoundRecord{
			{RoundNumber: 1, PlayerID: "p1", TeamIndex: 0, Operator: strp("Ash"), Spawn: "Main Gate",
				Kills: 1, Headshots: 1, OpeningKill: true, OneVsX: intp(1), KOST: true, Won: true, Attacking: true},
			{RoundNumber: 1, PlayerID: "p2", TeamIndex: 1, Death: true, OpeningDeath: true},
			{RoundNumber: 2, PlayerID: "p1", TeamIndex: 0, Kills: 1, KOST: true, Won: true, Refrags: 1},
			{RoundNumber: 2, PlayerID: "p2", TeamIndex: 1, Operator: strp("Smoke"), Death: true, Traded: true, KOST: true, Attacking: true},
		},
		PlayerMatches: []model.PlayerMatchRecord{
			{PlayerID: "p1", Username: p1Name, TeamIndex: 0, RoundsPlayed: 2, Kills: 2, Headshots: 1,
				WonRounds: 2, AtkWonRounds: 1, DefWonRounds: 1, OpeningKills: 1, OpeningKillsAtk: 1,
				Refrags: 1, KOSTRounds: 2, KOST: 1, WinMatch: boolp(true)},
			{PlayerID: "p2", Username: "Bravo", TeamIndex: 1, RoundsPlayed: 2, Deaths: 2,
				LostRounds: 2, AtkLostRounds: 1, DefLostRounds: 1, OpeningDeaths: 1,
				KOSTRounds: 1, KOST: 0.5, WinMatch: boolp(false)},
		},
		Events: []model.TaggedEvent{
			{RoundNumber: 1, Seq: 0, ActorID: "p1", Type: model.EventOperatorSwap, Phase: model.PhasePrep, ElapsedSeconds: 1, Operator: strp("Ash")},
			{RoundNumber: 1, Seq: 1, ActorID: "p1", TargetID: strp("p2"), Type: model.EventKill, Phase: model.PhaseRound, ElapsedSeconds: 30, Headshot: true},
			{RoundNumber: 2, Seq: 0, ActorID: "p1", TargetID: strp("p2"), Type: model.EventKill, Phase: model.PhasePlant, ElapsedSeconds: 4, IsRefrag: true},
			{RoundNumber: 2, Seq: 1, Type: model.EventOther, Phase: model.PhaseUnknown, ElapsedSeconds: 9},
		},
	}
}

func TestMatchInsertAndExists(t *testing.T) {
	db := openMemDB(t)

	if err := db.InsertMatch(sampleResult("m-abc123", "2025-08-28 21:48:41", "Alpha")); err != nil {
		t.Fatalf("InsertMatch: %v", err)
	}

	exists, err := db.MatchExists("m-abc123")
	if err != nil {
		t.Fatalf("MatchExists: %v", err)
	}
	if !exists {
		t.Error("expected match to exist after insert")
	}

	exists2, _ := db.MatchExists("nonexistent")
	if exists2 {
		t.Error("expected non-existent match to not exist")
	}
}

func TestInsertMatchDuplicate(t *testing.T) {
	db := openMemDB(t)

	res := sampleResult("dup", "2025-08-28 21:48:41", "Alpha")
	if err := db.InsertMatch(res); err != nil {
		t.Fatalf("first InsertMatch: %v", err)
	}
	err := db.InsertMatch(res)
	if !errors.Is(err, ErrMatchExists) {
		t.Fatalf("second InsertMatch: want ErrMatchExists, got %v", err)
	}

	rounds, _ := db.GetRoundSummaries("dup")
	if len(rounds) != 2 {
		t.Errorf("duplicate insert must not add rows: got %d rounds", len(rounds))
	}
}

func TestInsertMatchRollsBack(t *testing.T) {
	db := openMemDB(t)

	res := sampleResult("broken", "2025-08-28 21:48:41", "Alpha")
	res.Events = append(res.Events, res.Events[0]) // duplicate primary key
	if err := db.InsertMatch(res); err == nil {
		t.Fatal("expected insert error")
	}

	exists, _ := db.MatchExists("broken")
	if exists {
		t.Error("failed insert must leave no match row")
	}
	names, _ := db.GetPlayerNames()
	if len(names) != 0 {
		t.Errorf("failed insert must leave no players, got %v", names)
	}
}

func TestListMatches(t *testing.T) {
	db := openMemDB(t)

	db.InsertMatch(sampleResult("m1", "2025-01-01 10:00:00", "Alpha"))
	db.InsertMatch(sampleResult("m2", "2025-02-01 10:00:00", "Alpha"))

	list, err := db.ListMatches()
	if err != nil {
		t.Fatalf("ListMatches: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(list))
	}
	// Ordered by timestamp DESC; m2 should be first.
	if list[0].MatchID != "m2" {
		t.Errorf("expected m2 first (newest), got %s", list[0].MatchID)
	}
	if list[0].Rounds != 2 || list[0].MapName != "Clubhouse" || list[0].RecordedBy != "Alpha" {
		t.Errorf("unexpected summary %+v", list[0])
	}
	if list[0].WinnerTeamIndex == nil || *list[0].WinnerTeamIndex != 0 {
		t.Errorf("expected winner 0, got %v", list[0].WinnerTeamIndex)
	}
}

func TestGetMatchByPrefix(t *testing.T) {
	db := openMemDB(t)

	db.InsertMatch(sampleResult("deadbeef-1234", "2025-01-01 10:00:00", "Alpha"))

	s, err := db.GetMatchByPrefix("deadb")
	if err != nil {
		t.Fatalf("GetMatchByPrefix: %v", err)
	}
	if s == nil {
		t.Fatal("expected match for prefix 'deadb'")
	}
	if s.MatchID != "deadbeef-1234" {
		t.Errorf("unexpected id %s", s.MatchID)
	}

	s2, err := db.GetMatchByPrefix("ffffffff")
	if err != nil {
		t.Fatalf("GetMatchByPrefix no-match: %v", err)
	}
	if s2 != nil {
		t.Error("expected nil for unknown prefix")
	}
}

func TestRoundAndEventRoundTrip(t *testing.T) {
	db := openMemDB(t)
	want := sampleResult("m1", "2025-01-01 10:00:00", "Alpha")
	if err := db.InsertMatch(want); err != nil {
		t.Fatalf("InsertMatch: %v", err)
	}

	rounds, err := db.GetRoundSummaries("m1")
	if err != nil {
		t.Fatalf("GetRoundSummaries: %v", err)
	}
	if len(rounds) != 2 {
		t.Fatalf("expected 2 rounds, got %d", len(rounds))
	}
	r1, r2 := rounds[0], rounds[1]
	if !r1.Clutch || r1.WinCondition != model.WinByKills || r1.TimeToEntry == nil || *r1.TimeToEntry != 30 {
		t.Errorf("round 1 mismatch: %+v", r1)
	}
	if r1.PlantTime != nil {
		t.Errorf("round 1 plant time: want nil, got %d", *r1.PlantTime)
	}
	if r2.PlantTime == nil || *r2.PlantTime != 120 || !r2.OKRefrag || r2.AtkTeamIndex != 1 {
		t.Errorf("round 2 mismatch: %+v", r2)
	}
	if r2.OpeningAdvantageTeamIndex != nil {
		t.Error("round 2 opening advantage: want nil")
	}

	events, err := db.GetEvents("m1", 0)
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	k := events[1]
	if k.Type != model.EventKill || k.Target() != "p2" || !k.Headshot || k.Phase != model.PhaseRound {
		t.Errorf("kill mismatch: %+v", k)
	}
	if events[3].Type != model.EventOther || events[3].TargetID != nil || events[3].ActorID != "" {
		t.Errorf("other event mismatch: %+v", events[3])
	}

	round2, _ := db.GetEvents("m1", 2)
	if len(round2) != 2 || !round2[0].IsRefrag {
		t.Errorf("round 2 events mismatch: %+v", round2)
	}
}

func TestPlayerRecordsRoundTrip(t *testing.T) {
	db := openMemDB(t)
	db.InsertMatch(sampleResult("m1", "2025-01-01 10:00:00", "Alpha"))

	pm, err := db.GetPlayerMatchRecords("m1")
	if err != nil {
		t.Fatalf("GetPlayerMatchRecords: %v", err)
	}
	if len(pm) != 2 {
		t.Fatalf("expected 2 player rows, got %d", len(pm))
	}
	// Ordered by kills DESC.
	alpha := pm[0]
	if alpha.PlayerID != "p1" || alpha.Kills != 2 || alpha.KOSTRounds != 2 || alpha.OpeningKillsAtk != 1 {
		t.Errorf("p1 stats mismatch: %+v", alpha)
	}
	if alpha.WinMatch == nil || !*alpha.WinMatch {
		t.Error("p1 should have won the match")
	}
	if pm[1].KOST != 0.5 {
		t.Errorf("p2 KOST: want 0.5, got %f", pm[1].KOST)
	}

	pr, err := db.GetPlayerRoundRecords("m1", "p2")
	if err != nil {
		t.Fatalf("GetPlayerRoundRecords: %v", err)
	}
	if len(pr) != 2 {
		t.Fatalf("expected 2 rounds for p2, got %d", len(pr))
	}
	if pr[0].Operator != nil || !pr[0].OpeningDeath {
		t.Errorf("p2 round 1 mismatch: %+v", pr[0])
	}
	if pr[1].Operator == nil || *pr[1].Operator != "Smoke" || !pr[1].Traded || !pr[1].Attacking {
		t.Errorf("p2 round 2 mismatch: %+v", pr[1])
	}

	all, _ := db.GetPlayerRoundRecords("m1", "")
	if len(all) != 4 {
		t.Errorf("expected 4 player rounds, got %d", len(all))
	}
	if all[0].OneVsX == nil || *all[0].OneVsX != 1 {
		t.Errorf("p1 round 1 one_vs_x mismatch: %v", all[0].OneVsX)
	}
}

func TestPlayerNameNewestWins(t *testing.T) {
	db := openMemDB(t)

	db.InsertMatch(sampleResult("new", "2025-03-01 10:00:00", "AlphaNew"))
	db.InsertMatch(sampleResult("old", "2025-01-01 10:00:00", "AlphaOld"))

	names, err := db.GetPlayerNames()
	if err != nil {
		t.Fatalf("GetPlayerNames: %v", err)
	}
	if names["p1"] != "AlphaNew" {
		t.Errorf("expected newest name AlphaNew, got %q", names["p1"])
	}

	found, err := db.FindPlayers("alphan")
	if err != nil {
		t.Fatalf("FindPlayers: %v", err)
	}
	if len(found) != 1 || found[0].ID != "p1" {
		t.Errorf("FindPlayers: got %+v", found)
	}
}

func TestGetAllPlayerMatchRecords(t *testing.T) {
	db := openMemDB(t)
	db.InsertMatch(sampleResult("m2", "2025-02-01 10:00:00", "Alpha"))
	db.InsertMatch(sampleResult("m1", "2025-01-01 10:00:00", "Alpha"))

	entries, err := db.GetAllPlayerMatchRecords("p1")
	if err != nil {
		t.Fatalf("GetAllPlayerMatchRecords: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].MatchID != "m1" || entries[0].MapName != "Clubhouse" || entries[0].Record.Kills != 2 {
		t.Errorf("unexpected first entry %+v", entries[0])
	}
}

func TestDeleteMatch(t *testing.T) {
	db := openMemDB(t)
	db.InsertMatch(sampleResult("m1", "2025-01-01 10:00:00", "Alpha"))
	db.InsertMatch(sampleResult("m2", "2025-02-01 10:00:00", "Alpha"))

	if err := db.DeleteMatch("m1"); err != nil {
		t.Fatalf("DeleteMatch: %v", err)
	}
	if ok, _ := db.MatchExists("m1"); ok {
		t.Error("m1 should be gone")
	}
	if ev, _ := db.GetEvents("m1", 0); len(ev) != 0 {
		t.Errorf("m1 events should be gone, got %d", len(ev))
	}
	if ok, _ := db.MatchExists("m2"); !ok {
		t.Error("m2 should remain")
	}
}
