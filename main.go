// Package main is the entry point for the r6metrics CLI tool, which extracts
// Rainbow Six Siege match statistics from r6-dissect replay dumps.
package main

import "github.com/pable/go-r6-metrics/cmd"

func main() {
	cmd.Execute()
}
