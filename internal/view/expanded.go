package view

import "github.com/crimson-sun/logstream/internal/model"

// Expanded is the set of record ids whose detail rows are open. Values are
// never mutated in place; every operation returns a new set.
type Expanded map[string]struct{}

// Has reports whether id is expanded.
func (e Expanded) Has(id string) bool {
	_, ok := e[id]
	return ok
}

// Toggle returns a copy of e with id flipped.
func (e Expanded) Toggle(id string) Expanded {
	out := make(Expanded, len(e)+1)
	for k := range e {
		out[k] = struct{}{}
	}
	if _, ok := out[id]; ok {
		delete(out, id)
	} else {
		out[id] = struct{}{}
	}
	return out
}

// Prune returns a copy of e without ids that are no longer in records.
// e itself is returned when nothing needs removing.
func (e Expanded) Prune(records []model.LogRecord) Expanded {
	if len(e) == 0 {
		return e
	}
	live := make(map[string]struct{}, len(records))
	for _, rec := range records {
		live[rec.ID] = struct{}{}
	}
	stale := false
	for id := range e {
		if _, ok := live[id]; !ok {
			stale = true
			break
		}
	}
	if !stale {
		return e
	}
	out := make(Expanded, len(e))
	for id := range e {
		if _, ok := live[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}
