package scraper

import (
	"context"
	"fmt"
	"statcrawl/internal/roster"
	"statcrawl/lib/browser"
	"time"
)

const testURL = "https://example.test/player_record"

// fakeSite is a scripted record page. The player dropdown lists the players of whichever
// school was selected last, the way the real page narrows it.
type fakeSite struct {
	layout Layout

	schools []string
	// players is keyed by the core text of a school option.
	players map[string][]string
	// markup is keyed by player core text and position.
	markup map[string]string

	// hook runs before every operation, a non-nil error is returned from the operation.
	hook func(op, arg string) error

	open     string
	school   string
	player   string
	searched bool
	slot     string

	navigations int
	closes      int
	selected    []browser.Option
	// timeouts holds the last timeout passed to each operation.
	timeouts map[string]time.Duration
}

func newFakeSite() *fakeSite {
	return &fakeSite{
		layout:   DefaultLayout(),
		schools:  []string{"학교명"},
		players:  map[string][]string{},
		markup:   map[string]string{},
		timeouts: map[string]time.Duration{},
	}
}

func markupKey(player string, position roster.Position) string {
	return player + "/" + position.String()
}

func (f *fakeSite) addSchool(display string, players ...string) {
	f.schools = append(f.schools, display)
	f.players[CoreText(display)] = append([]string{"선수명"}, players...)
}

func (f *fakeSite) addRecords(player string, position roster.Position, markup string) {
	f.markup[markupKey(player, position)] = markup
}

func (f *fakeSite) run(op, arg string) error {
	if f.hook == nil {
		return nil
	}
	return f.hook(op, arg)
}

func (f *fakeSite) listed() []string {
	switch f.open {
	case "school":
		return f.schools
	case "player":
		players, ok := f.players[CoreText(f.school)]
		if !ok {
			return []string{"선수명"}
		}
		return players
	}
	return nil
}

func (f *fakeSite) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	f.timeouts["navigate"] = timeout
	if err := f.run("navigate", url); err != nil {
		return err
	}
	f.navigations++
	f.open = ""
	f.school = ""
	f.player = ""
	f.searched = false
	f.slot = ""
	return ctx.Err()
}

func (f *fakeSite) WaitForElement(ctx context.Context, selector string, timeout time.Duration) error {
	if err := f.run("wait", selector); err != nil {
		return err
	}
	switch selector {
	case f.layout.Ready:
		return nil
	case f.layout.BatterResults, f.layout.PitcherResults:
		if f.slot == selector {
			return nil
		}
	}
	return browser.ErrTimeout
}

func (f *fakeSite) OpenDropdown(ctx context.Context, trigger string, timeout time.Duration) error {
	if err := f.run("open", trigger); err != nil {
		return err
	}
	switch trigger {
	case f.layout.SchoolTrigger:
		f.open = "school"
	case f.layout.PlayerTrigger:
		f.open = "player"
	default:
		return browser.ErrTimeout
	}
	return nil
}

func (f *fakeSite) ListOptions(ctx context.Context, options string, timeout time.Duration) ([]browser.Option, error) {
	if err := f.run("list", f.open); err != nil {
		return nil, err
	}
	if f.open == "" {
		return nil, browser.ErrTimeout
	}
	var out []browser.Option
	for i, text := range f.listed() {
		out = append(out, browser.Option{Index: i, Text: text})
	}
	return out, nil
}

func (f *fakeSite) SelectOption(ctx context.Context, options string, option browser.Option, timeout time.Duration) error {
	f.timeouts["select"] = timeout
	if err := f.run("select", option.Text); err != nil {
		return err
	}
	listed := f.listed()
	if option.Index < 0 || option.Index >= len(listed) || listed[option.Index] != option.Text {
		return browser.ErrStale
	}
	f.selected = append(f.selected, option)
	switch f.open {
	case "school":
		f.school = option.Text
		f.player = ""
	case "player":
		f.player = option.Text
	}
	f.open = ""
	return nil
}

func (f *fakeSite) Click(ctx context.Context, selector string, timeout time.Duration) error {
	if err := f.run("click", selector); err != nil {
		return err
	}
	switch selector {
	case f.layout.PositionSearch:
		if f.player == "" {
			return browser.ErrClickIntercepted
		}
		f.searched = true
		return nil
	case f.layout.BatterSlot, f.layout.PitcherSlot:
		if !f.searched {
			return browser.ErrNotFound
		}
		f.slot = f.layout.BatterResults
		if selector == f.layout.PitcherSlot {
			f.slot = f.layout.PitcherResults
		}
		return nil
	}
	return browser.ErrNotFound
}

func (f *fakeSite) ReadContainerMarkup(ctx context.Context, selector string, timeout time.Duration) (string, error) {
	if err := f.run("read", selector); err != nil {
		return "", err
	}
	if selector != f.slot {
		return "", browser.ErrNotFound
	}
	position := roster.PositionBatter
	if selector == f.layout.PitcherResults {
		position = roster.PositionPitcher
	}
	markup, ok := f.markup[markupKey(CoreText(f.player), position)]
	if !ok {
		return "<div></div>", nil
	}
	return markup, nil
}

func (f *fakeSite) Close() error {
	f.closes++
	return nil
}

func recordMarkup(header []string, rows ...[]string) string {
	out := `<div id="Record"><div class="profile_view"><ul>`
	writeRow := func(cells []string) {
		out += "<li>"
		for _, c := range cells {
			out += fmt.Sprintf("<span>%s</span>", c)
		}
		out += "</li>"
	}
	writeRow(header)
	for _, row := range rows {
		writeRow(row)
	}
	return out + `</ul></div></div>`
}

func testTimeouts() Timeouts {
	return Timeouts{
		Element:    time.Second,
		Settle:     10 * time.Millisecond,
		PageSettle: 20 * time.Millisecond,
		Navigate:   2 * time.Second,
	}
}
