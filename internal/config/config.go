// Package config is the configuration of a scrape, read from statcrawl.json5.
package config

import (
	"fmt"
	"statcrawl/internal/scraper"
	"statcrawl/internal/store"
	"statcrawl/lib/browser"
	"statcrawl/lib/configutil"
	"time"
)

const DefaultPath = "statcrawl.json5"

const DefaultBaseURL = "https://www.korea-baseball.com/record/record/player_record?kind_cd=31&lig_idx=&group_no=&part_no=&record_type=1&begin_year=2020&end_year=2025&club_idx=&person_no=&group_part_idx="

// Timeouts are Go duration strings, e.g. "15s" or "500ms".
type Timeouts struct {
	Element    string `json:"element"`
	Settle     string `json:"settle"`
	PageSettle string `json:"page_settle"`
	Navigate   string `json:"navigate"`
	// Start bounds launching the browser.
	Start string `json:"start"`
}

type Output struct {
	// Xlsx is the workbook path, empty skips the export.
	Xlsx string `json:"xlsx"`
	// Db is where runs are recorded, leaving it empty skips recording.
	Db store.Config `json:"db"`
}

type Config struct {
	BaseURL string `json:"base_url"`
	// Headless is a pointer so that an explicit false in the file survives defaulting.
	Headless   *bool  `json:"headless"`
	UserAgent  string `json:"user_agent"`
	ChromePath string `json:"chrome_path"`

	Timeouts     Timeouts             `json:"timeouts"`
	Layout       scraper.Layout       `json:"layout"`
	Placeholders scraper.Placeholders `json:"placeholders"`
	// Pace is the number of players started per minute, 0 does not limit.
	Pace float64 `json:"pace"`

	Output Output `json:"output"`
}

func Defaults() Config {
	headless := true
	timeouts := scraper.DefaultTimeouts()
	return Config{
		BaseURL:  DefaultBaseURL,
		Headless: &headless,
		Timeouts: Timeouts{
			Element:    timeouts.Element.String(),
			Settle:     timeouts.Settle.String(),
			PageSettle: timeouts.PageSettle.String(),
			Navigate:   timeouts.Navigate.String(),
			Start:      (30 * time.Second).String(),
		},
		Layout:       scraper.DefaultLayout(),
		Placeholders: scraper.DefaultPlaceholders(),
		Output: Output{
			Xlsx: "player_records.xlsx",
		},
	}
}

// Load reads path and its .local override, anything they leave out is taken from Defaults.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath
	}
	config, err := configutil.ReadWithDefaults(path, Defaults())
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return config, nil
}

func (c Config) IsHeadless() bool {
	return c.Headless == nil || *c.Headless
}

func parseDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("timeouts.%s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("timeouts.%s: negative duration %s", name, value)
	}
	return d, nil
}

func (t Timeouts) Parse() (scraper.Timeouts, error) {
	var out scraper.Timeouts
	var err error
	out.Element, err = parseDuration("element", t.Element)
	if err != nil {
		return out, err
	}
	out.Settle, err = parseDuration("settle", t.Settle)
	if err != nil {
		return out, err
	}
	out.PageSettle, err = parseDuration("page_settle", t.PageSettle)
	if err != nil {
		return out, err
	}
	out.Navigate, err = parseDuration("navigate", t.Navigate)
	if err != nil {
		return out, err
	}
	return out, nil
}

func (c Config) ScraperOptions() (scraper.Options, error) {
	timeouts, err := c.Timeouts.Parse()
	if err != nil {
		return scraper.Options{}, err
	}
	if c.BaseURL == "" {
		return scraper.Options{}, fmt.Errorf("base_url is empty")
	}
	if c.Pace < 0 {
		return scraper.Options{}, fmt.Errorf("pace must not be negative, got %v", c.Pace)
	}
	return scraper.Options{
		BaseURL:          c.BaseURL,
		Layout:           c.Layout,
		Placeholders:     c.Placeholders,
		Timeouts:         timeouts,
		PlayersPerMinute: c.Pace,
	}, nil
}

func (c Config) ChromeOptions() (browser.ChromeOptions, error) {
	start, err := parseDuration("start", c.Timeouts.Start)
	if err != nil {
		return browser.ChromeOptions{}, err
	}
	return browser.ChromeOptions{
		Headless:     c.IsHeadless(),
		UserAgent:    c.UserAgent,
		ExecPath:     c.ChromePath,
		StartTimeout: start,
	}, nil
}
