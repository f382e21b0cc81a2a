package commands

import (
	"fmt"
	"log/slog"
	"os"
	"statcrawl/internal/roster"
	"statcrawl/lib/osutil"
	"statcrawl/lib/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rosterCmd)
}

// readRoster loads and parses a roster, lines that were not in the structured format are logged.
func readRoster(cmd *cobra.Command, source string) ([]roster.PlayerQuery, []roster.ParsedLine) {
	text, err := roster.NewLoader(telemetry.SlogAPI{}).Load(cmd.Context(), source)
	if err != nil {
		osutil.Fatal("failed to load roster", err)
	}
	queries, notable, err := roster.ParseString(text)
	if err != nil {
		osutil.Fatal("failed to parse roster", err)
	}
	for _, line := range notable {
		if line.Err != nil {
			slog.Warn("roster line dropped", "line", line.LineNo, "err", line.Err)
			continue
		}
		slog.Warn("roster line without parentheses, split on whitespace", "line", line.LineNo, "query", roster.Format(line.Query))
	}
	return queries, notable
}

func renderNotable(notable []roster.ParsedLine) {
	if len(notable) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(os.Stderr)
	t.AppendHeader(table.Row{"Line", "Kind", "Input", "Result"})
	for _, line := range notable {
		result := roster.Format(line.Query)
		if line.Err != nil {
			result = line.Err.Error()
		}
		t.AppendRow(table.Row{line.LineNo, line.Kind.String(), line.Raw, result})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

var rosterCmd = &cobra.Command{
	Use:   "roster <path | url | ->",
	Short: "Prints a roster normalized to `name (school, position)`, one player per line.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		queries, notable := readRoster(cmd, args[0])
		for _, q := range queries {
			fmt.Fprintln(cmd.OutOrStdout(), roster.Format(q))
		}
		renderNotable(notable)
	},
}
