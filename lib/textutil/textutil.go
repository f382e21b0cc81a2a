package textutil

import (
	"regexp"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName lowercases the name and removes all whitespace.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// CollapseSpaces trims the string and replaces runs of whitespace with a single space.
func CollapseSpaces(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

type Candidate struct {
	Text       string
	Similarity float64
}

// Nearest ranks candidates by Jaro-Winkler similarity to target (after NormalizeName)
// and returns at most n of them, most similar first. Candidates with no similarity
// at all are left out.
func Nearest(target string, candidates []string, n int) []Candidate {
	normalizedTarget := NormalizeName(target)

	var ranked []Candidate
	for _, c := range candidates {
		similarity := matchr.JaroWinkler(normalizedTarget, NormalizeName(c), false)
		if similarity <= 0 {
			continue
		}
		ranked = append(ranked, Candidate{Text: c, Similarity: similarity})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
