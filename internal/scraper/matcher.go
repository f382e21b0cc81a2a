package scraper

import (
	"context"
	"fmt"
	"statcrawl/internal/assert"
	"statcrawl/lib/browser"
	"statcrawl/lib/chrono"
	"statcrawl/lib/telemetry"
	"statcrawl/lib/textutil"
	"strings"
)

const (
	report_matcher_list  = "matcher.list"
	report_matcher_match = "matcher.match"
)

// UIOption is a rendered dropdown item. It is only meaningful while the dropdown it was
// read from stays open and unchanged.
type UIOption struct {
	Index       int
	DisplayText string
	// CoreText is DisplayText cut at its first parenthesis and trimmed, options are compared
	// by it so that qualifiers like `대전고 (대전)` don't get in the way.
	CoreText string
}

func CoreText(display string) string {
	if i := strings.Index(display, "("); i >= 0 {
		display = display[:i]
	}
	return strings.TrimSpace(display)
}

func NewUIOption(index int, display string) UIOption {
	display = strings.TrimSpace(display)
	return UIOption{
		Index:       index,
		DisplayText: display,
		CoreText:    CoreText(display),
	}
}

func uiOptionsFrom(options []browser.Option) []UIOption {
	out := make([]UIOption, len(options))
	for i, o := range options {
		out[i] = NewUIOption(o.Index, o.Text)
	}
	return out
}

func selectable(option UIOption, placeholder string) bool {
	return option.CoreText != "" && option.CoreText != placeholder
}

// FindOption returns the first selectable option, in rendered order, whose core text is
// exactly target. When several options share a core text the first one always wins.
func FindOption(options []UIOption, target, placeholder string) (UIOption, bool) {
	target = strings.TrimSpace(target)
	for _, option := range options {
		if !selectable(option, placeholder) {
			continue
		}
		if option.CoreText == target {
			return option, true
		}
	}
	return UIOption{}, false
}

// Matcher resolves a target against an open dropdown and activates the match.
type Matcher struct {
	session  browser.Session
	clock    chrono.API
	timeouts Timeouts
	tel      telemetry.API
}

func NewMatcher(session browser.Session, clock chrono.API, timeouts Timeouts, tel telemetry.API) Matcher {
	assert.NotNil(session)
	assert.NotNil(clock)
	assert.NotNil(tel)

	return Matcher{
		session:  session,
		clock:    clock,
		timeouts: timeouts,
		tel:      tel,
	}
}

func (m Matcher) reportOptions(options []UIOption) {
	m.tel.ReportDebug(report_matcher_list, len(options))
	for _, option := range options {
		m.tel.ReportDebug(
			report_matcher_list,
			fmt.Sprintf("[%02d] full: %q core: %q", option.Index+1, option.DisplayText, option.CoreText),
		)
	}
}

func (m Matcher) reportNotFound(options []UIOption, target, placeholder string) {
	var cores []string
	for _, option := range options {
		if selectable(option, placeholder) {
			cores = append(cores, option.CoreText)
		}
	}
	nearest := textutil.Nearest(target, cores, 3)
	hints := make([]string, len(nearest))
	for i, c := range nearest {
		hints[i] = fmt.Sprintf("%s (%.2f)", c.Text, c.Similarity)
	}
	m.tel.ReportWarning(
		report_matcher_match,
		fmt.Errorf("no option matches %q", target),
		fmt.Sprintf("%d selectable options", len(cores)),
		fmt.Sprintf("nearest: %s", strings.Join(hints, ", ")),
	)
}

// Match selects the option whose core text equals target out of the options listed under
// the options selector. A failed click is not retried, it is reported as ClickFailed.
func (m Matcher) Match(ctx context.Context, optionsSelector string, options []UIOption, target, placeholder string) (NavigationResult, error) {
	m.reportOptions(options)

	option, found := FindOption(options, target, placeholder)
	if !found {
		m.reportNotFound(options, target, placeholder)
		return NotFound, fmt.Errorf("option %q not listed", target)
	}
	m.tel.ReportDebug(report_matcher_match, "matched", target, option.DisplayText)

	err := m.session.SelectOption(ctx, optionsSelector, browser.Option{
		Index: option.Index,
		Text:  option.DisplayText,
	}, m.timeouts.Element)
	if err != nil {
		m.tel.ReportWarning(report_matcher_match, fmt.Errorf("activate %q: %w", option.DisplayText, err))
		return ClickFailed, err
	}

	err = m.clock.Sleep(ctx, m.timeouts.Settle)
	if err != nil {
		return Timeout, err
	}
	return Success, nil
}
