package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-r6-metrics/internal/model"
)

const analyzeSystemPrompt = `You are a Rainbow Six Siege performance analyst. You are given structured data
from a replay-parsing tool and a question from the player.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific numbers when making a claim.
- If the data is insufficient to answer confidently, say so explicitly.
- Be concise and actionable, focus on what the player can actually improve.
- Avoid generic Siege advice unless it directly explains a pattern in the data.

Metrics glossary:
- K/D: Kills ÷ deaths. 1.0 is break-even.
- KOST%: % rounds with a Kill, Objective (plant/defuse), Survival or Trade. Good: >65%.
- Opening kill/death (OK/OD): first elimination of the round, high strategic value.
- Refrag: a kill on the enemy who killed a teammate within 7 seconds.
- Traded: the player's killer was refragged.
- 1vX: the player was the last one alive on their team against X opponents.
- ATK/DEF W/L: rounds won/lost on attack and defense.
- Win condition: how a round ended (kills, plant, time).`

var (
	analyzeModel  string
	analyzeAPIKey string

	analyzePlayerMap   string
	analyzePlayerSince string
	analyzePlayerLast  int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "AI-powered grounded analysis (requires ANTHROPIC_API_KEY)",
}

var analyzePlayerCmd = &cobra.Command{
	Use:   "player <profile-id|name> <question>",
	Short: "Analyze a player's aggregate stats with AI",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzePlayer,
}

var analyzeMatchCmd = &cobra.Command{
	Use:   "match <id-prefix> <question>",
	Short: "Analyze a single match with AI",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzeMatch,
}

func init() {
	analyzeCmd.PersistentFlags().StringVar(&analyzeModel, "model", "", "Anthropic model to use (default $R6METRICS_ANALYZE_MODEL)")
	analyzeCmd.PersistentFlags().StringVar(&analyzeAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")

	analyzePlayerCmd.Flags().StringVar(&analyzePlayerMap, "map", "", "filter to a specific map (e.g. Clubhouse)")
	analyzePlayerCmd.Flags().StringVar(&analyzePlayerSince, "since", "", "filter to matches on or after this date (YYYY-MM-DD)")
	analyzePlayerCmd.Flags().IntVar(&analyzePlayerLast, "last", 0, "only use the N most recent matches")

	analyzeCmd.AddCommand(analyzePlayerCmd)
	analyzeCmd.AddCommand(analyzeMatchCmd)
}

func runAnalyzePlayer(cmd *cobra.Command, args []string) error {
	question := args[1]

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := resolvePlayer(db, args[0])
	if err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("no player found for %q", args[0])
	}
	entries, err := db.GetAllPlayerMatchRecords(id)
	if err != nil {
		return fmt.Errorf("query records: %w", err)
	}
	entries = filterEntries(entries, analyzePlayerMap, analyzePlayerSince, analyzePlayerLast)
	if len(entries) == 0 {
		return fmt.Errorf("no data found for profile %s (after filters)", id)
	}

	filters := map[string]any{
		"map":   analyzePlayerMap,
		"since": analyzePlayerSince,
		"last":  analyzePlayerLast,
	}
	contextJSON, err := buildPlayerContext(buildAggregate(entries), buildMapAggregates(entries), filters)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	return callAnthropic(cmd.Context(), contextJSON, question)
}

func runAnalyzeMatch(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	match, err := db.GetMatchByPrefix(args[0])
	if err != nil {
		return fmt.Errorf("find match: %w", err)
	}
	if match == nil {
		return fmt.Errorf("no match found with id prefix %q", args[0])
	}
	question := args[1]

	stats, err := db.GetPlayerMatchRecords(match.MatchID)
	if err != nil {
		return fmt.Errorf("query player records: %w", err)
	}
	rounds, err := db.GetRoundSummaries(match.MatchID)
	if err != nil {
		return fmt.Errorf("query rounds: %w", err)
	}

	contextJSON, err := buildMatchContext(match, stats, rounds)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	return callAnthropic(cmd.Context(), contextJSON, question)
}

// filterEntries applies --map, --since and --last. entries are oldest first.
func filterEntries(entries []model.PlayerMatchEntry, mapName, since string, last int) []model.PlayerMatchEntry {
	var out []model.PlayerMatchEntry
	for _, e := range entries {
		if mapName != "" && !strings.EqualFold(e.MapName, mapName) {
			continue
		}
		// Timestamps are "YYYY-MM-DD HH:MM:SS" so string order is time order.
		if since != "" && e.Timestamp < since {
			continue
		}
		out = append(out, e)
	}
	if last > 0 && len(out) > last {
		out = out[len(out)-last:]
	}
	return out
}

// buildPlayerContext serialises aggregated player data into compact JSON.
func buildPlayerContext(agg model.PlayerAggregate, maps []model.PlayerMapAggregate, filters map[string]any) (string, error) {
	type mapEntry struct {
		Map       string  `json:"map"`
		Matches   int     `json:"matches"`
		Kills     int     `json:"kills"`
		Deaths    int     `json:"deaths"`
		AtkWinPct float64 `json:"atk_round_win_pct"`
		DefWinPct float64 `json:"def_round_win_pct"`
	}
	perMap := make([]mapEntry, 0, len(maps))
	for i := range maps {
		m := &maps[i]
		perMap = append(perMap, mapEntry{
			Map:       m.MapName,
			Matches:   m.Matches,
			Kills:     m.Kills,
			Deaths:    m.Deaths,
			AtkWinPct: round2(m.AtkWinPct()),
			DefWinPct: round2(m.DefWinPct()),
		})
	}

	doc := map[string]any{
		"subject":          "player",
		"player":           agg.Username,
		"matches_analyzed": agg.Matches,
		"filters":          filters,
		"overview": map[string]any{
			"matches_won":   agg.WonMatches,
			"matches_lost":  agg.LostMatches,
			"rounds":        agg.RoundsPlayed,
			"kd":            round2(agg.KDRatio()),
			"hs_pct":        round2(agg.HSPercent()),
			"kost_pct":      round2(agg.KOSTPct()),
			"round_win_pct": round2(agg.WinPct()),
			"kills":         agg.Kills,
			"deaths":        agg.Deaths,
			"refrags":       agg.Refrags,
		},
		"opening": map[string]any{
			"kills":  agg.OpeningKills,
			"deaths": agg.OpeningDeaths,
		},
		"sides": map[string]any{
			"atk": fmt.Sprintf("%d/%d", agg.AtkWonRounds, agg.AtkLostRounds),
			"def": fmt.Sprintf("%d/%d", agg.DefWonRounds, agg.DefLostRounds),
		},
		"maps": perMap,
	}

	b, err := json.Marshal(doc)
	return string(b), err
}

// buildMatchContext serialises a single match into compact JSON.
func buildMatchContext(match *model.MatchSummary, stats []model.PlayerMatchRecord, rounds []model.RoundSummary) (string, error) {
	type playerEntry struct {
		Name     string  `json:"name"`
		Team     int     `json:"team"`
		KD       float64 `json:"kd"`
		KOSTPct  float64 `json:"kost_pct"`
		Kills    int     `json:"kills"`
		Deaths   int     `json:"deaths"`
		HSPct    float64 `json:"hs_pct"`
		OpeningK int     `json:"opening_k"`
		OpeningD int     `json:"opening_d"`
		Refrags  int     `json:"refrags"`
		AtkWL    string  `json:"atk_w_l"`
		DefWL    string  `json:"def_w_l"`
	}
	players := make([]playerEntry, 0, len(stats))
	for i := range stats {
		s := &stats[i]
		players = append(players, playerEntry{
			Name:     s.Username,
			Team:     s.TeamIndex,
			KD:       round2(s.KDRatio()),
			KOSTPct:  round2(s.KOST * 100),
			Kills:    s.Kills,
			Deaths:   s.Deaths,
			HSPct:    round2(s.HSPercent()),
			OpeningK: s.OpeningKills,
			OpeningD: s.OpeningDeaths,
			Refrags:  s.Refrags,
			AtkWL:    fmt.Sprintf("%d/%d", s.AtkWonRounds, s.AtkLostRounds),
			DefWL:    fmt.Sprintf("%d/%d", s.DefWonRounds, s.DefLostRounds),
		})
	}

	doc := map[string]any{
		"subject": "match",
		"map":     match.MapName,
		"date":    match.Timestamp,
		"score":   fmt.Sprintf("%d-%d", match.Team0Score, match.Team1Score),
		"type":    match.MatchType,
		"players": players,
		"rounds":  rounds,
	}

	b, err := json.Marshal(doc)
	return string(b), err
}

// round2 rounds a float64 to 2 decimal places.
func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

// callAnthropic streams a response from the Anthropic API and prints it to stdout.
func callAnthropic(ctx context.Context, dataJSON, question string) error {
	apiKey := analyzeAPIKey
	if apiKey == "" && cfg != nil {
		apiKey = cfg.AnthropicAPIKey
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}
	modelID := analyzeModel
	if modelID == "" && cfg != nil {
		modelID = cfg.AnalyzeModel
	}
	logger.Debug("analyze request", zap.String("model", modelID), zap.Int("context_bytes", len(dataJSON)))

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)

	fmt.Fprintln(os.Stdout, "\n─── AI Analysis ─────────────────────────────────────")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: analyzeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(os.Stdout, delta.Delta.AsTextDelta().Text)
			}
		}
	}
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")

	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed, check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}
