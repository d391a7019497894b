package report

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-r6-metrics/internal/model"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

// PrintMatchSummary prints a one-line summary header for the match.
func PrintMatchSummary(w io.Writer, s model.MatchSummary) {
	fmt.Fprintf(w, "\nMap: %s  |  Date: %s  |  Type: %s  |  Score: %d – %d  |  Recorded by: %s  |  ID: %s\n\n",
		s.MapName, s.Timestamp, s.MatchType, s.Team0Score, s.Team1Score, s.RecordedBy, ShortID(s.MatchID))
}

// ShortID truncates a match id for display.
func ShortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// PrintPlayerTable prints the player-match table to stdout.
// If focusID is non-empty, that player's row is marked with ">".
func PrintPlayerTable(stats []model.PlayerMatchRecord, focusID string) {
	PrintPlayerTableTo(os.Stdout, stats, focusID)
}

// PrintPlayerTableTo writes the player-match table to the provided writer.
func PrintPlayerTableTo(w io.Writer, stats []model.PlayerMatchRecord, focusID string) {
	table := newTable(w)
	table.Header(" ", "NAME", "TEAM", "RND", "K", "D", "K/D", "HS%", "KOST%",
		"OK", "OD", "REFRAG", "ATK_W/L", "DEF_W/L", "RESULT")

	for i := range stats {
		s := &stats[i]
		marker := " "
		if focusID != "" && s.PlayerID == focusID {
			marker = ">"
		}
		table.Append(
			marker,
			s.Username,
			strconv.Itoa(s.TeamIndex),
			strconv.Itoa(s.RoundsPlayed),
			strconv.Itoa(s.Kills),
			strconv.Itoa(s.Deaths),
			fmt.Sprintf("%.2f", s.KDRatio()),
			fmt.Sprintf("%.0f%%", s.HSPercent()),
			fmt.Sprintf("%.0f%%", s.KOST*100),
			strconv.Itoa(s.OpeningKills),
			strconv.Itoa(s.OpeningDeaths),
			strconv.Itoa(s.Refrags),
			fmt.Sprintf("%d/%d", s.AtkWonRounds, s.AtkLostRounds),
			fmt.Sprintf("%d/%d", s.DefWonRounds, s.DefLostRounds),
			matchResult(s.WinMatch),
		)
	}
	table.Render()
}

func matchResult(win *bool) string {
	switch {
	case win == nil:
		return "DRAW"
	case *win:
		return "WIN"
	default:
		return "LOSS"
	}
}

// PrintRoundTable prints one row per round with its outcome attributes.
func PrintRoundTable(w io.Writer, rounds []model.RoundSummary) {
	table := newTable(w)
	table.Header("RND", "SITE", "ATK", "WINNER", "CONDITION", "ENTRY", "OPENING", "PLANT", "CLUTCH", "OK_REFRAG")

	for _, r := range rounds {
		table.Append(
			strconv.Itoa(r.RoundNumber),
			r.Site,
			strconv.Itoa(r.AtkTeamIndex),
			optInt(r.WinnerTeamIndex),
			string(r.WinCondition),
			optSeconds(r.TimeToEntry),
			optInt(r.OpeningAdvantageTeamIndex),
			optSeconds(r.PlantTime),
			yesNo(r.Clutch),
			yesNo(r.OKRefrag),
		)
	}
	table.Render()
}

// PrintPlayerRoundTable prints per-round records. names maps profile ids to usernames.
func PrintPlayerRoundTable(w io.Writer, recs []model.PlayerRoundRecord, names map[string]string) {
	table := newTable(w)
	table.Header("RND", "PLAYER", "SIDE", "OPERATOR", "K", "D", "HS", "REFRAG", "TRADED",
		"OK", "OD", "1vX", "PLANT", "DEFUSE", "KOST", "WON")

	for _, r := range recs {
		op := "—"
		if r.Operator != nil {
			op = *r.Operator
		}
		table.Append(
			strconv.Itoa(r.RoundNumber),
			displayName(names, r.PlayerID),
			side(r.Attacking),
			op,
			strconv.Itoa(r.Kills),
			yesNo(r.Death),
			strconv.Itoa(r.Headshots),
			strconv.Itoa(r.Refrags),
			yesNo(r.Traded),
			yesNo(r.OpeningKill),
			yesNo(r.OpeningDeath),
			optInt(r.OneVsX),
			yesNo(r.Plant),
			yesNo(r.Defuse),
			yesNo(r.KOST),
			yesNo(r.Won),
		)
	}
	table.Render()
}

// PrintEventTable prints the tagged event stream of a round or match.
func PrintEventTable(w io.Writer, events []model.TaggedEvent, names map[string]string) {
	table := newTable(w)
	table.Header("RND", "#", "PHASE", "T", "TYPE", "ACTOR", "TARGET", "FLAGS")

	for i := range events {
		e := &events[i]
		target := ""
		if e.TargetID != nil {
			target = displayName(names, *e.TargetID)
		}
		var flags string
		if e.Headshot {
			flags += "HS "
		}
		if e.IsRefrag {
			flags += "REFRAG "
		}
		if e.WasRetaliated {
			flags += "TRADED "
		}
		if e.Operator != nil {
			flags += *e.Operator
		}
		table.Append(
			strconv.Itoa(e.RoundNumber),
			strconv.Itoa(e.Seq),
			string(e.Phase),
			fmt.Sprintf("%ds", e.ElapsedSeconds),
			e.Type.String(),
			displayName(names, e.ActorID),
			target,
			flags,
		)
	}
	table.Render()
}

// PrintPlayerAggregateOverview prints overall performance aggregated across all stored matches.
func PrintPlayerAggregateOverview(w io.Writer, aggs []model.PlayerAggregate) {
	table := newTable(w)
	table.Header("PLAYER", "MATCHES", "W-L", "RND", "K", "D", "K/D", "HS%", "KOST%",
		"RND_WIN%", "OK", "OD", "REFRAG", "ATK_W/L", "DEF_W/L")

	for i := range aggs {
		a := &aggs[i]
		table.Append(
			a.Username,
			strconv.Itoa(a.Matches),
			fmt.Sprintf("%d-%d", a.WonMatches, a.LostMatches),
			strconv.Itoa(a.RoundsPlayed),
			strconv.Itoa(a.Kills),
			strconv.Itoa(a.Deaths),
			fmt.Sprintf("%.2f", a.KDRatio()),
			fmt.Sprintf("%.0f%%", a.HSPercent()),
			fmt.Sprintf("%.0f%%", a.KOSTPct()),
			fmt.Sprintf("%.0f%%", a.WinPct()),
			strconv.Itoa(a.OpeningKills),
			strconv.Itoa(a.OpeningDeaths),
			strconv.Itoa(a.Refrags),
			fmt.Sprintf("%d/%d", a.AtkWonRounds, a.AtkLostRounds),
			fmt.Sprintf("%d/%d", a.DefWonRounds, a.DefLostRounds),
		)
	}
	table.Render()
}

// PrintPlayerMapTable prints per-map totals with attack and defense round win rates.
func PrintPlayerMapTable(w io.Writer, aggs []model.PlayerMapAggregate) {
	table := newTable(w)
	table.Header("PLAYER", "MAP", "MATCHES", "K", "D", "ATK_WIN%", "DEF_WIN%")

	for i := range aggs {
		a := &aggs[i]
		table.Append(
			a.Username,
			a.MapName,
			strconv.Itoa(a.Matches),
			strconv.Itoa(a.Kills),
			strconv.Itoa(a.Deaths),
			sidePct(a.AtkWonRounds, a.AtkLostRounds, a.AtkWinPct()),
			sidePct(a.DefWonRounds, a.DefLostRounds, a.DefWinPct()),
		)
	}
	table.Render()
}

func sidePct(won, lost int, pct float64) string {
	if won+lost == 0 {
		return "—"
	}
	return fmt.Sprintf("%.0f%% (%d)", pct, won+lost)
}

func displayName(names map[string]string, id string) string {
	if id == "" {
		return ""
	}
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return id
}

func optInt(p *int) string {
	if p == nil {
		return "—"
	}
	return strconv.Itoa(*p)
}

func optSeconds(p *int) string {
	if p == nil {
		return "—"
	}
	return fmt.Sprintf("%ds", *p)
}

func yesNo(b bool) string {
	if b {
		return "Y"
	}
	return ""
}

func side(attacking bool) string {
	if attacking {
		return "ATK"
	}
	return "DEF"
}

// PrintTrendTable prints one row per stored match for a player, oldest first.
func PrintTrendTable(w io.Writer, entries []model.PlayerMatchEntry) {
	table := newTable(w)
	table.Header("DATE", "MAP", "ID", "RND", "K", "D", "K/D", "HS%", "KOST%", "OK", "OD", "RESULT")

	for i := range entries {
		e := &entries[i]
		r := &e.Record
		table.Append(
			e.Timestamp,
			e.MapName,
			ShortID(e.MatchID),
			strconv.Itoa(r.RoundsPlayed),
			strconv.Itoa(r.Kills),
			strconv.Itoa(r.Deaths),
			fmt.Sprintf("%.2f", r.KDRatio()),
			fmt.Sprintf("%.0f%%", r.HSPercent()),
			fmt.Sprintf("%.0f%%", r.KOST*100),
			strconv.Itoa(r.OpeningKills),
			strconv.Itoa(r.OpeningDeaths),
			matchResult(r.WinMatch),
		)
	}
	table.Render()
}
