package config

import (
	"os"
	"path/filepath"
	"statcrawl/internal/scraper"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	config, err := Load(filepath.Join(t.TempDir(), "statcrawl.json5"))
	require.NoError(t, err)
	require.Equal(t, Defaults(), config)

	opts, err := config.ScraperOptions()
	require.NoError(t, err)
	require.Equal(t, scraper.DefaultTimeouts(), opts.Timeouts)
	require.Equal(t, DefaultBaseURL, opts.BaseURL)
	require.True(t, config.IsHeadless())
}

func TestLoadMergesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "statcrawl.json5")
	err := os.WriteFile(path, []byte(`{
		headless: false,
		timeouts: { element: "30s", navigate: "2m", start: "45s" },
		layout: { record_root: "div.record_table" },
		pace: 12,
	}`), 0600)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "statcrawl.local.json5"), []byte(`{
		output: { db: { file: "runs.db" } },
	}`), 0600)
	require.NoError(t, err)

	config, err := Load(path)
	require.NoError(t, err)

	require.False(t, config.IsHeadless())
	require.Equal(t, "runs.db", config.Output.Db.File)
	require.Equal(t, "player_records.xlsx", config.Output.Xlsx)
	require.Equal(t, "div.record_table", config.Layout.RecordRoot)
	require.Equal(t, scraper.DefaultLayout().Options, config.Layout.Options)
	require.Equal(t, "학교명", config.Placeholders.School)

	opts, err := config.ScraperOptions()
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, opts.Timeouts.Element)
	require.Equal(t, scraper.DefaultTimeouts().Settle, opts.Timeouts.Settle)
	require.Equal(t, 2*time.Minute, opts.Timeouts.Navigate)
	require.Equal(t, 12.0, opts.PlayersPerMinute)

	chrome, err := config.ChromeOptions()
	require.NoError(t, err)
	require.False(t, chrome.Headless)
	require.Equal(t, 45*time.Second, chrome.StartTimeout)
}

func TestScraperOptionsRejectsBadValues(t *testing.T) {
	config := Defaults()
	config.Timeouts.Settle = "soon"
	_, err := config.ScraperOptions()
	require.ErrorContains(t, err, "timeouts.settle")

	config = Defaults()
	config.Timeouts.Navigate = "-1s"
	_, err = config.ScraperOptions()
	require.ErrorContains(t, err, "timeouts.navigate")

	config = Defaults()
	config.Timeouts.Start = ""
	_, err = config.ChromeOptions()
	require.ErrorContains(t, err, "timeouts.start")

	config = Defaults()
	config.Pace = -1
	_, err = config.ScraperOptions()
	require.Error(t, err)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statcrawl.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{ headless: `), 0600))
	_, err := Load(path)
	require.Error(t, err)
}
