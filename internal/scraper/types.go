package scraper

import (
	"errors"
	"statcrawl/internal/roster"
)

var (
	// ErrShapeMismatch marks a record row whose value count disagrees with the header.
	ErrShapeMismatch = errors.New("row shape does not match header")
	// ErrNoDataExtracted marks a player whose page was reached but held no records.
	ErrNoDataExtracted = errors.New("no records extracted")
)

// NavigationResult is the outcome of a single navigation step.
type NavigationResult int

const (
	Success NavigationResult = iota
	NotFound
	ClickFailed
	Timeout
)

func (r NavigationResult) String() string {
	switch r {
	case Success:
		return "success"
	case NotFound:
		return "not-found"
	case ClickFailed:
		return "click-failed"
	case Timeout:
		return "timeout"
	}
	return "unknown"
}

// State is a position in the navigation towards a player's records.
type State int

const (
	StateStart State = iota
	StateSchoolSelected
	StatePlayerSelected
	StatePositionSearchTriggered
	StatePositionCategorySelected
	StateRecordReady
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateSchoolSelected:
		return "school-selected"
	case StatePlayerSelected:
		return "player-selected"
	case StatePositionSearchTriggered:
		return "position-search-triggered"
	case StatePositionCategorySelected:
		return "position-category-selected"
	case StateRecordReady:
		return "record-ready"
	case StateAborted:
		return "aborted"
	}
	return "unknown"
}

// Field is one column of a record.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// StatRecord is one season (row) of a player's statistics, fields are in header order.
type StatRecord []Field

// Get returns the value of the first field with the given name.
func (r StatRecord) Get(name string) (string, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

func (r StatRecord) Names() []string {
	out := make([]string, len(r))
	for i, f := range r {
		out[i] = f.Name
	}
	return out
}

func (r StatRecord) Values() []string {
	out := make([]string, len(r))
	for i, f := range r {
		out[i] = f.Value
	}
	return out
}

type Status int

const (
	StatusOk Status = iota
	StatusNoData
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusNoData:
		return "no-data"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// PlayerResult is what a single query produced. Err is set for Failed results and for
// NoData results that were caused by an error rather than an empty table.
type PlayerResult struct {
	Query   roster.PlayerQuery
	Records []StatRecord
	Status  Status

	// FailedAt is the last state reached before the navigation aborted.
	FailedAt State
	// Result is the outcome of the step that aborted the navigation.
	Result NavigationResult
	Err    error
}

// Results maps query keys to results while remembering the order keys were first seen.
type Results struct {
	keys  []string
	byKey map[string]PlayerResult
}

func NewResults() *Results {
	return &Results{byKey: map[string]PlayerResult{}}
}

// Put stores a result under its query key, a result with the same key is overwritten in place.
func (r *Results) Put(result PlayerResult) {
	key := result.Query.Key()
	if _, exists := r.byKey[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.byKey[key] = result
}

func (r *Results) Get(key string) (PlayerResult, bool) {
	result, ok := r.byKey[key]
	return result, ok
}

func (r *Results) Keys() []string {
	return append([]string(nil), r.keys...)
}

func (r *Results) Len() int {
	return len(r.keys)
}

// All returns the results in key order.
func (r *Results) All() []PlayerResult {
	out := make([]PlayerResult, len(r.keys))
	for i, key := range r.keys {
		out[i] = r.byKey[key]
	}
	return out
}

// Count returns how many results have the given status.
func (r *Results) Count(status Status) int {
	n := 0
	for _, result := range r.byKey {
		if result.Status == status {
			n++
		}
	}
	return n
}
