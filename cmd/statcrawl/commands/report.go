package commands

import (
	"errors"
	"os"
	"statcrawl/internal/store"
	"statcrawl/lib/osutil"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	reportDb      *string
	reportRun     *int64
	reportList    *bool
	reportRecords *bool
)

func init() {
	reportDb = reportCmd.Flags().String("db", "", "The sqlite file runs were recorded in, overrides output.db.")
	reportRun = reportCmd.Flags().Int64("run", 0, "The run to print, the latest one if unset.")
	reportList = reportCmd.Flags().Bool("list", false, "List the recorded runs instead.")
	reportRecords = reportCmd.Flags().Bool("records", false, "Also print every player's records.")
	rootCmd.AddCommand(reportCmd)
}

func renderRuns(runs []store.RunSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Run", "Started", "Took", "Roster", "Players", "Ok"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.ID,
			r.StartedAt.Format(time.DateTime),
			r.FinishedAt.Sub(r.StartedAt).String(),
			r.Source,
			r.Players,
			r.Ok,
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func renderRun(run store.Run, records bool) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("run %d, %s", run.ID, run.StartedAt.Format(time.DateTime))
	t.AppendHeader(table.Row{"#", "Player", "Position", "Status", "Records", "Failed At", "Error"})
	for i, p := range run.Players {
		t.AppendRow(table.Row{i + 1, p.Key(), p.Position, p.Status, len(p.Records), p.FailedAt, p.Error})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()

	if !records {
		return
	}
	for _, p := range run.Players {
		if len(p.Records) == 0 {
			continue
		}
		rt := table.NewWriter()
		rt.SetOutputMirror(os.Stdout)
		rt.SetTitle(p.Key())

		var header table.Row
		for _, name := range p.Records[0].Names() {
			header = append(header, name)
		}
		rt.AppendHeader(header)
		for _, record := range p.Records {
			var row table.Row
			for _, value := range record.Values() {
				row = append(row, value)
			}
			rt.AppendRow(row)
		}
		rt.SetStyle(table.StyleLight)
		rt.Render()
	}
}

var reportCmd = &cobra.Command{
	Use:   "report [--db <runs.db>] [--run <id> | --list] [--records]",
	Short: "Prints a recorded run.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		if cmd.Flags().Changed("db") {
			cfg.Output.Db = store.Config{File: *reportDb}
		}
		if !cfg.Output.Db.Enabled() {
			osutil.Fatal("no run store", errNoStore)
		}

		db, err := store.Open(ctx, cfg.Output.Db)
		if err != nil {
			osutil.Fatal("failed to open run store", err)
		}
		defer db.Close()

		if *reportList {
			runs, err := db.ListRuns(ctx)
			if err != nil {
				osutil.Fatal("failed to list runs", err)
			}
			renderRuns(runs)
			return
		}

		var run store.Run
		if *reportRun > 0 {
			run, err = db.LoadRun(ctx, *reportRun)
		} else {
			run, err = db.LatestRun(ctx)
		}
		if err != nil {
			osutil.Fatal("failed to load run", err)
		}
		renderRun(run, *reportRecords)
	},
}

var errNoStore = errors.New("set output.db in the config or pass --db")
