package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-r6-metrics/internal/pgstore"
)

var (
	dropForce bool
	dropMatch string
	dropPG    bool
)

// dropCmd deletes the metrics database file or a single match.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the metrics database or one match",
	Long: `Permanently delete the SQLite metrics database. All stored match data will be lost.
Re-ingest your dumps afterwards to rebuild. With --match only that match is removed,
and --pg removes it from Postgres as well.`,
	Args: cobra.NoArgs,
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
	dropCmd.Flags().StringVar(&dropMatch, "match", "", "delete only the match with this id prefix")
	dropCmd.Flags().BoolVar(&dropPG, "pg", false, "with --match, also delete from Postgres ($DATABASE_URL)")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if dropMatch != "" {
		return dropOneMatch(cmd)
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if err := os.Remove(dbPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}

func dropOneMatch(cmd *cobra.Command) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	match, err := db.GetMatchByPrefix(dropMatch)
	if err != nil {
		return fmt.Errorf("query match: %w", err)
	}
	if match == nil {
		fmt.Fprintf(os.Stderr, "No match found with id prefix %q\n", dropMatch)
		return nil
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete match %s (%s, %s)\n", match.MatchID, match.MapName, match.Timestamp)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if err := db.DeleteMatch(match.MatchID); err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	if dropPG {
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("--pg needs DATABASE_URL")
		}
		pg, err := pgstore.Open(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer pg.Close()
		if err := pg.DeleteMatch(cmd.Context(), match.MatchID); err != nil {
			return fmt.Errorf("delete from postgres: %w", err)
		}
	}
	fmt.Fprintf(os.Stdout, "Deleted match: %s\n", match.MatchID)
	return nil
}
