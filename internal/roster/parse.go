package roster

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"statcrawl/lib/textutil"
	"strings"
)

// ParseKind tags how a roster line was interpreted.
type ParseKind int

const (
	// Skipped lines carry no player: blank lines and round delimiters.
	Skipped ParseKind = iota
	// Structured lines matched `Name (School, Position)` or `Name (School-History Position)`.
	Structured
	// PositionalFallback lines had no parentheses and were split on whitespace.
	PositionalFallback
	// Unparseable lines are dropped with an InputFormatError.
	Unparseable
)

func (k ParseKind) String() string {
	switch k {
	case Skipped:
		return "skipped"
	case Structured:
		return "structured"
	case PositionalFallback:
		return "positional-fallback"
	case Unparseable:
		return "unparseable"
	}
	return "unknown"
}

// InputFormatError describes a roster line that could not be turned into a query.
type InputFormatError struct {
	LineNo int
	Line   string
	Reason error
}

func (e *InputFormatError) Error() string {
	return fmt.Sprintf("roster line %d %q: %v", e.LineNo, e.Line, e.Reason)
}

func (e *InputFormatError) Unwrap() error {
	return e.Reason
}

// ParsedLine is the tagged result of parsing one roster line.
type ParsedLine struct {
	LineNo int
	Raw    string
	Kind   ParseKind
	Query  PlayerQuery
	Err    error
}

var (
	roundDelimiterRegex = regexp.MustCompile(`^\d+\s*→$`)
	structuredRegex     = regexp.MustCompile(`^\s*([^\s(]+)\s*\((.+)\)\s*$`)
)

// finalSchool resolves a school history like `덕수고-고려대` to the last school attended.
func finalSchool(history string) string {
	parts := strings.Split(history, "-")
	return strings.TrimSpace(parts[len(parts)-1])
}

func splitDetails(details string) (school string, position string, ok bool) {
	if i := strings.LastIndex(details, ","); i >= 0 {
		school = strings.TrimSpace(details[:i])
		position = strings.TrimSpace(details[i+1:])
		return school, position, school != "" && position != ""
	}
	fields := strings.Fields(details)
	if len(fields) < 2 {
		return "", "", false
	}
	return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1], true
}

func buildQuery(name, schoolHistory, positionLabel string) (PlayerQuery, error) {
	position, err := NormalizePosition(positionLabel)
	if err != nil {
		return PlayerQuery{}, err
	}
	school := finalSchool(schoolHistory)
	if school == "" {
		return PlayerQuery{}, fmt.Errorf("empty school in %q", schoolHistory)
	}
	return PlayerQuery{
		Name:     name,
		School:   school,
		Position: position,
	}, nil
}

// ParseLine interprets one roster line. lineNo is only used for error reporting.
func ParseLine(lineNo int, raw string) ParsedLine {
	line := strings.TrimSpace(raw)
	out := ParsedLine{LineNo: lineNo, Raw: raw}

	if line == "" || roundDelimiterRegex.MatchString(line) {
		out.Kind = Skipped
		return out
	}

	fail := func(reason error) ParsedLine {
		out.Kind = Unparseable
		out.Err = &InputFormatError{LineNo: lineNo, Line: line, Reason: reason}
		return out
	}

	if groups := structuredRegex.FindStringSubmatch(line); groups != nil {
		school, position, ok := splitDetails(textutil.CollapseSpaces(groups[2]))
		if !ok {
			return fail(fmt.Errorf("cannot separate school and position in %q", groups[2]))
		}
		query, err := buildQuery(strings.TrimSpace(groups[1]), school, position)
		if err != nil {
			return fail(err)
		}
		out.Kind = Structured
		out.Query = query
		return out
	}

	if strings.ContainsAny(line, "()") {
		return fail(fmt.Errorf("unbalanced parentheses"))
	}
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return fail(fmt.Errorf("expected `name (school, position)` or `name school position`"))
	}
	query, err := buildQuery(
		fields[0],
		strings.Join(fields[1:len(fields)-1], " "),
		fields[len(fields)-1],
	)
	if err != nil {
		return fail(err)
	}
	out.Kind = PositionalFallback
	out.Query = query
	return out
}

// Parse reads a roster, returning the queries in input order along with every line
// that was not Structured so that warnings stay auditable.
func Parse(r io.Reader) ([]PlayerQuery, []ParsedLine, error) {
	var queries []PlayerQuery
	var notable []ParsedLine

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		parsed := ParseLine(lineNo, scanner.Text())
		switch parsed.Kind {
		case Structured:
			queries = append(queries, parsed.Query)
		case PositionalFallback:
			queries = append(queries, parsed.Query)
			notable = append(notable, parsed)
		case Unparseable:
			notable = append(notable, parsed)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read roster: %w", err)
	}
	return queries, notable, nil
}

// ParseString is Parse over an in-memory roster.
func ParseString(text string) ([]PlayerQuery, []ParsedLine, error) {
	return Parse(strings.NewReader(text))
}
