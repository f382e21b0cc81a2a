package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"statcrawl/internal/export"
	"statcrawl/internal/scraper"
	"statcrawl/internal/store"
	"statcrawl/lib/browser"
	"statcrawl/lib/chrono"
	"statcrawl/lib/osutil"
	"statcrawl/lib/telemetry"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	scrapeRoster   *string
	scrapeOut      *string
	scrapeDb       *string
	scrapeHeadless *bool
)

func init() {
	scrapeRoster = scrapeCmd.Flags().String("roster", "", "The roster to scrape: a file, an http(s) url or - for stdin.")
	scrapeOut = scrapeCmd.Flags().String("out", "", "The xlsx workbook to write, overrides output.xlsx.")
	scrapeDb = scrapeCmd.Flags().String("db", "", "A sqlite file to record the run in, overrides output.db.")
	scrapeHeadless = scrapeCmd.Flags().Bool("headless", true, "Run the browser without a window, overrides headless.")
	scrapeCmd.MarkFlagRequired("roster")
	rootCmd.AddCommand(scrapeCmd)
}

func renderResults(results *scraper.Results, elapsed time.Duration) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Player", "Position", "Status", "Records", "Failed At", "Error"})
	for i, result := range results.All() {
		failedAt := ""
		errText := ""
		if result.Status == scraper.StatusFailed {
			failedAt = result.FailedAt.String()
		}
		if result.Err != nil {
			errText = result.Err.Error()
		}
		t.AppendRow(table.Row{
			i + 1,
			result.Query.Key(),
			result.Query.Position.Label(),
			result.Status.String(),
			len(result.Records),
			failedAt,
			errText,
		})
	}
	t.AppendFooter(table.Row{
		"",
		fmt.Sprintf("%d players", results.Len()),
		"",
		fmt.Sprintf(
			"ok %d, no data %d, failed %d",
			results.Count(scraper.StatusOk),
			results.Count(scraper.StatusNoData),
			results.Count(scraper.StatusFailed),
		),
		"",
		"",
		elapsed.Round(time.Second).String(),
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape --roster <path | url | -> [--out <records.xlsx>] [--db <runs.db>]",
	Short: "Looks up every player of a roster and exports their season records.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		if cmd.Flags().Changed("out") {
			cfg.Output.Xlsx = *scrapeOut
		}
		if cmd.Flags().Changed("db") {
			cfg.Output.Db = store.Config{File: *scrapeDb}
		}
		if cmd.Flags().Changed("headless") {
			cfg.Headless = scrapeHeadless
		}

		opts, err := cfg.ScraperOptions()
		if err != nil {
			osutil.Fatal("invalid config", err)
		}

		queries, _ := readRoster(cmd, *scrapeRoster)
		if len(queries) == 0 {
			osutil.Fatal("nothing to scrape", errors.New("the roster has no players"))
		}
		slog.Info("roster loaded", "players", len(queries))

		chromeOpts, err := cfg.ChromeOptions()
		if err != nil {
			osutil.Fatal("invalid config", err)
		}
		session, err := browser.NewChrome(ctx, chromeOpts)
		if err != nil {
			osutil.Fatal("failed to start browser", err)
		}

		clock := chrono.StandardImpl{}
		tel := telemetry.SlogAPI{}

		started := clock.Now()
		results := scraper.NewRunner(opts, clock, tel).Run(ctx, session, queries)
		finished := clock.Now()

		renderResults(results, finished.Sub(started))

		if cfg.Output.Xlsx != "" {
			err = export.NewWriter(tel).WriteFile(results, cfg.Output.Xlsx)
			switch {
			case errors.Is(err, export.ErrNothingToExport):
				slog.Warn("no workbook written", "err", err)
			case err != nil:
				slog.Error("failed to write workbook", "path", cfg.Output.Xlsx, "err", err)
			default:
				slog.Info("workbook written", "path", cfg.Output.Xlsx)
			}
		}

		if cfg.Output.Db.Enabled() {
			// the scrape context may be cancelled by now, the run is still recorded
			saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			defer cancel()

			db, err := store.Open(saveCtx, cfg.Output.Db)
			if err != nil {
				osutil.Fatal("failed to open run store", err)
			}
			defer db.Close()

			id, err := db.SaveRun(saveCtx, started, finished, *scrapeRoster, results)
			if err != nil {
				osutil.Fatal("failed to record run", err)
			}
			slog.Info("run recorded", "run", id)
		}
	},
}
