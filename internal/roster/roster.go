// Package roster turns a free-text list of players into queries the scraper can run.
package roster

import (
	"errors"
	"fmt"
	"strings"
)

// Position is the coarse fielding category the record site groups statistics by.
type Position int

const (
	PositionUnknown Position = iota
	PositionBatter
	PositionPitcher
)

func (p Position) String() string {
	switch p {
	case PositionBatter:
		return "Batter"
	case PositionPitcher:
		return "Pitcher"
	}
	return "Unknown"
}

// Label is the label the roster and the record site use for the position.
func (p Position) Label() string {
	switch p {
	case PositionBatter:
		return "타자"
	case PositionPitcher:
		return "투수"
	}
	return ""
}

var ErrUnknownPosition = errors.New("unknown position")

var positionLabels = map[string]Position{
	"내야수": PositionBatter,
	"외야수": PositionBatter,
	"포수":  PositionBatter,
	"타자":  PositionBatter,
	"투수":  PositionPitcher,

	"infielder":  PositionBatter,
	"outfielder": PositionBatter,
	"catcher":    PositionBatter,
	"batter":     PositionBatter,
	"pitcher":    PositionPitcher,
}

// NormalizePosition collapses a detailed position label into its coarse category.
func NormalizePosition(label string) (Position, error) {
	position, ok := positionLabels[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return PositionUnknown, fmt.Errorf("%w: %q", ErrUnknownPosition, label)
	}
	return position, nil
}

// PlayerQuery identifies one player to look up.
type PlayerQuery struct {
	Name     string
	School   string
	Position Position
}

// Key identifies the query in results, two queries with the same name and school share a key.
func (q PlayerQuery) Key() string {
	return q.Name + "_" + q.School
}

// Format renders the query in the structured roster format, parsing the output yields
// the same query.
func Format(q PlayerQuery) string {
	return fmt.Sprintf("%s (%s, %s)", q.Name, q.School, q.Position.Label())
}
