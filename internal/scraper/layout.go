package scraper

import (
	"fmt"
	"statcrawl/internal/roster"
	"time"
)

// Layout holds every selector the scraper relies on. Page selectors are XPath, the record
// selectors are CSS and are applied to the markup read out of the results container.
type Layout struct {
	// Ready is awaited after each reload before anything is touched.
	Ready         string `json:"ready"`
	SchoolTrigger string `json:"school_trigger"`
	PlayerTrigger string `json:"player_trigger"`
	// Options matches the items of whichever dropdown is currently open.
	Options        string `json:"options"`
	PositionSearch string `json:"position_search"`
	BatterSlot     string `json:"batter_slot"`
	PitcherSlot    string `json:"pitcher_slot"`
	BatterResults  string `json:"batter_results"`
	PitcherResults string `json:"pitcher_results"`

	RecordRoot string `json:"record_root"`
	RecordRow  string `json:"record_row"`
	HeaderRow  string `json:"header_row"`
	RecordCell string `json:"record_cell"`
}

func DefaultLayout() Layout {
	return Layout{
		Ready:          `//*[@id="recordForm"]/div/div[3]/div[1]/div[3]`,
		SchoolTrigger:  `//*[@id="recordForm"]/div/div[3]/div[1]/div[3]`,
		PlayerTrigger:  `//*[@id="recordForm"]/div/div[3]/div[1]/div[4]`,
		Options:        `//div[contains(@class, 'abs_select') and contains(@class, 'on')]//ul/li`,
		PositionSearch: `//*[@id="recordForm"]/div/div[3]/div[1]/div[6]/a`,
		BatterSlot:     `//*[@id="recordForm"]/div/div[3]/div[2]/ul/li[1]/a`,
		PitcherSlot:    `//*[@id="recordForm"]/div/div[3]/div[2]/ul/li[2]/a`,
		BatterResults:  `//*[@id='Record']/div[2]`,
		PitcherResults: `//*[@id='Record']/div[1]`,

		RecordRoot: "div.profile_view",
		RecordRow:  "li",
		HeaderRow:  "li:first-child",
		RecordCell: "span",
	}
}

// PositionSlot is the fixed option clicked for the coarse position.
func (l Layout) PositionSlot(position roster.Position) (string, error) {
	switch position {
	case roster.PositionBatter:
		return l.BatterSlot, nil
	case roster.PositionPitcher:
		return l.PitcherSlot, nil
	}
	return "", fmt.Errorf("%w: %v", roster.ErrUnknownPosition, position)
}

// ResultsContainer is where the records for the coarse position are rendered.
func (l Layout) ResultsContainer(position roster.Position) (string, error) {
	switch position {
	case roster.PositionBatter:
		return l.BatterResults, nil
	case roster.PositionPitcher:
		return l.PitcherResults, nil
	}
	return "", fmt.Errorf("%w: %v", roster.ErrUnknownPosition, position)
}

// Placeholders are the non-selectable default entries of the dropdowns.
type Placeholders struct {
	School string `json:"school"`
	Player string `json:"player"`
}

func DefaultPlaceholders() Placeholders {
	return Placeholders{
		School: "학교명",
		Player: "선수명",
	}
}

type Timeouts struct {
	// Element bounds every wait for an element precondition.
	Element time.Duration
	// Settle is slept after a click so dependent UI can react.
	Settle time.Duration
	// PageSettle is slept after reloads and after triggering the position search.
	PageSettle time.Duration
	// Navigate bounds each reload of the record page.
	Navigate time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Element:    15 * time.Second,
		Settle:     500 * time.Millisecond,
		PageSettle: time.Second,
		Navigate:   60 * time.Second,
	}
}
