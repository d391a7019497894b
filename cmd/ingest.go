package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-r6-metrics/internal/aggregator"
	"github.com/pable/go-r6-metrics/internal/parser"
	"github.com/pable/go-r6-metrics/internal/pgstore"
	"github.com/pable/go-r6-metrics/internal/report"
	"github.com/pable/go-r6-metrics/internal/storage"
)

var (
	ingestPlayerID string
	ingestPG       bool
	ingestQuiet    bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <match.json|dir>...",
	Short: "Extract stats from r6-dissect dumps and store them",
	Long: `Extract stats from one or more r6-dissect JSON dumps (.json, .json.gz, .json.zst,
.json.bz2) and store them in the SQLite database. Directories are walked for match files.
With --pg the result is also written to the Postgres database in $DATABASE_URL.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestPlayerID, "player", "", "focus player profile id")
	ingestCmd.Flags().BoolVar(&ingestPG, "pg", false, "also write to Postgres ($DATABASE_URL)")
	ingestCmd.Flags().BoolVarP(&ingestQuiet, "quiet", "q", false, "do not print match tables")
}

func runIngest(cmd *cobra.Command, args []string) error {
	files, err := collectMatchFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no match files found")
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	var pg *pgstore.Store
	if ingestPG {
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("--pg needs DATABASE_URL")
		}
		ctx := cmd.Context()
		pg, err = pgstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	x := aggregator.New(logger)
	var failed int
	for _, path := range files {
		if err := ingestFile(cmd.Context(), x, db, pg, path); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

func ingestFile(ctx context.Context, x *aggregator.Extractor, db *storage.DB, pg *pgstore.Store, path string) error {
	log := logger.With(zap.String("file", path))
	if !ingestQuiet {
		fmt.Fprintf(os.Stdout, "Parsing %s...\n", path)
	}
	raw, err := parser.ParseFile(path)
	if err != nil {
		return err
	}

	matchID := raw.Info.MatchID
	exists, err := db.MatchExists(matchID)
	if err != nil {
		return fmt.Errorf("check match: %w", err)
	}
	if exists {
		log.Info("match already stored", zap.String("match_id", matchID))
		if ingestQuiet {
			return nil
		}
		fmt.Fprintf(os.Stdout, "Match %s already stored, showing cached results.\n", report.ShortID(matchID))
		return showMatch(db, matchID, ingestPlayerID)
	}

	res, err := x.Aggregate(raw)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if err := db.InsertMatch(res); err != nil {
		return fmt.Errorf("store match: %w", err)
	}
	log.Info("stored match", zap.String("match_id", matchID), zap.Int("rounds", len(res.Rounds)))

	if pg != nil {
		err := pg.SaveMatch(ctx, res)
		switch {
		case errors.Is(err, pgstore.ErrMatchExists):
			log.Info("match already in postgres", zap.String("match_id", matchID))
		case err != nil:
			return fmt.Errorf("postgres: %w", err)
		}
	}

	if ingestQuiet {
		return nil
	}
	return showMatch(db, matchID, ingestPlayerID)
}

// collectMatchFiles expands directories into the match files they contain.
func collectMatchFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && parser.IsMatchFile(d.Name()) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}
