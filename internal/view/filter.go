// Package view derives what the presentation shows from a buffer snapshot:
// the filtered and sorted record list, search suggestions, and row
// expansion state. Everything here is a pure function of its inputs.
package view

import (
	"slices"
	"strings"

	"github.com/crimson-sun/logstream/internal/model"
)

// LevelSet is a set of levels. The zero value is empty and matches nothing.
type LevelSet uint8

// AllLevels contains every level. One bit per entry of model.Levels.
const AllLevels LevelSet = 1<<4 - 1

func levelBit(l model.Level) LevelSet { return 1 << l.Rank() }

// NewLevelSet returns a set holding levels.
func NewLevelSet(levels ...model.Level) LevelSet {
	var s LevelSet
	for _, l := range levels {
		s |= levelBit(l)
	}
	return s
}

// Has reports whether l is in the set.
func (s LevelSet) Has(l model.Level) bool { return s&levelBit(l) != 0 }

// Toggle adds l when absent and removes it when present.
func (s LevelSet) Toggle(l model.Level) LevelSet { return s ^ levelBit(l) }

// List returns the members in ascending severity.
func (s LevelSet) List() []model.Level {
	var out []model.Level
	for _, l := range model.Levels {
		if s.Has(l) {
			out = append(out, l)
		}
	}
	return out
}

// Query holds the three independent filters.
type Query struct {
	Text     string
	Levels   LevelSet
	Services []string // source names; empty means no restriction
}

// DefaultQuery matches every record.
func DefaultQuery() Query {
	return Query{Levels: AllLevels}
}

// Match reports whether rec passes text AND level AND service filters.
func (q Query) Match(rec model.LogRecord) bool {
	return q.match(rec, strings.ToLower(q.Text))
}

func (q Query) match(rec model.LogRecord, needle string) bool {
	return matchText(rec, needle) &&
		q.Levels.Has(rec.Level) &&
		(len(q.Services) == 0 || slices.Contains(q.Services, rec.SourceName))
}

// matchText is a case-insensitive substring test over message, source name,
// and client IP. needle must already be lower-cased.
func matchText(rec model.LogRecord, needle string) bool {
	if needle == "" {
		return true
	}
	return containsFold(rec.Message, needle) ||
		containsFold(rec.SourceName, needle) ||
		containsFold(rec.ClientIP, needle)
}

func containsFold(s, lowerNeedle string) bool {
	return s != "" && strings.Contains(strings.ToLower(s), lowerNeedle)
}

// Apply filters records and orders the survivors. records is not modified.
func Apply(records []model.LogRecord, q Query, s Sort) []model.LogRecord {
	out := make([]model.LogRecord, 0, len(records))
	needle := strings.ToLower(q.Text)
	for _, rec := range records {
		if q.match(rec, needle) {
			out = append(out, rec)
		}
	}
	s.sort(out)
	return out
}

// Services lists the distinct source names in records, sorted, for the
// service filter picker.
func Services(records []model.LogRecord) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, rec := range records {
		if _, ok := seen[rec.SourceName]; ok {
			continue
		}
		seen[rec.SourceName] = struct{}{}
		out = append(out, rec.SourceName)
	}
	slices.Sort(out)
	return out
}
