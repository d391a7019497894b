package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-r6-metrics/internal/report"
	"github.com/pable/go-r6-metrics/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the database. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func runShell(_ *cobra.Command, _ []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	cGreeting.Println("r6metrics shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("r6metrics")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if done := shellDispatch(db, line); done {
			return nil
		}
	}
	return scanner.Err()
}

// shellDispatch runs one REPL line and reports whether the session should end.
func shellDispatch(db *storage.DB, line string) bool {
	tokens := strings.Fields(line)
	cmd, args := tokens[0], tokens[1:]

	var err error
	switch cmd {
	case "exit", "quit":
		return true
	case "help":
		shellHelp()
	case "list":
		err = printMatchList(db)
	case "summary":
		err = printSummary(db)
	case "show":
		if len(args) == 0 {
			cError.Fprintln(os.Stderr, "usage: show <id-prefix> [--player <profile-id>]")
			return false
		}
		err = shellShow(db, args[0], flagValue(args[1:], "--player"))
	case "rounds":
		if len(args) == 0 {
			cError.Fprintln(os.Stderr, "usage: rounds <id-prefix> [<profile-id>]")
			return false
		}
		err = shellRounds(db, args)
	case "player":
		if len(args) == 0 {
			cError.Fprintln(os.Stderr, "usage: player <profile-id|name> [...]")
			return false
		}
		err = printPlayers(db, args)
	case "sql":
		if len(args) == 0 {
			cError.Fprintln(os.Stderr, "usage: sql <query>")
			return false
		}
		err = printQuery(db, strings.TrimSpace(strings.TrimPrefix(line, cmd)))
	default:
		cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", cmd)
	}
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return false
}

// flagValue returns the token following name in args, or "".
func flagValue(args []string, name string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == name {
			return args[i+1]
		}
	}
	return ""
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list all stored matches"},
		{"summary", "database overview"},
		{"show <id-prefix>", "show a match's stats"},
		{"show <id-prefix> --player <id>", "same, highlighting one player"},
		{"rounds <id-prefix> [<profile-id>]", "per-round drill-down"},
		{"player <profile-id|name> [...]", "cross-match analysis for one or more players"},
		{"sql <query>", "run a raw SQL query"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-38s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func shellShow(db *storage.DB, prefix, playerID string) error {
	match, err := db.GetMatchByPrefix(prefix)
	if err != nil {
		return err
	}
	if match == nil {
		return fmt.Errorf("no match found with prefix %q", prefix)
	}
	return showMatch(db, match.MatchID, playerID)
}

func shellRounds(db *storage.DB, args []string) error {
	match, err := db.GetMatchByPrefix(args[0])
	if err != nil {
		return err
	}
	if match == nil {
		return fmt.Errorf("no match found with prefix %q", args[0])
	}
	var profileID string
	if len(args) > 1 {
		profileID = args[1]
	}
	recs, err := db.GetPlayerRoundRecords(match.MatchID, profileID)
	if err != nil {
		return err
	}
	names, err := db.GetPlayerNames()
	if err != nil {
		return err
	}
	report.PrintPlayerRoundTable(os.Stdout, recs, names)
	return nil
}
