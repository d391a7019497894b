package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-r6-metrics/internal/aggregator"
	"github.com/pable/go-r6-metrics/internal/parser"
)

var (
	extractOut    string
	extractIndent bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <match.json>",
	Short: "Extract stats from a dump and print them as JSON",
	Long:  "Run the extraction pipeline on one r6-dissect dump and write the result as JSON without touching the database.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "", "write JSON to this file instead of stdout")
	extractCmd.Flags().BoolVar(&extractIndent, "indent", true, "indent JSON output")
}

func runExtract(cmd *cobra.Command, args []string) error {
	raw, err := parser.ParseFile(args[0])
	if err != nil {
		return err
	}
	res, err := aggregator.New(logger).Aggregate(raw)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	var w io.Writer = os.Stdout
	if extractOut != "" {
		f, err := os.Create(extractOut)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	if extractIndent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
