package view

import (
	"testing"
	"time"

	"github.com/crimson-sun/logstream/internal/model"
)

var base = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func mk(id string, sec int, level model.Level, source, msg string) model.LogRecord {
	return model.LogRecord{
		ID:         id,
		Time:       base.Add(time.Duration(sec) * time.Second),
		Level:      level,
		SourceName: source,
		Message:    msg,
	}
}

func ids(records []model.LogRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestQueryMatch(t *testing.T) {
	r := mk("1", 0, model.LevelWarn, "Web-1", "Disk nearly FULL")
	r.ClientIP = "10.0.0.7"

	tests := []struct {
		name string
		q    Query
		want bool
	}{
		{"default", DefaultQuery(), true},
		{"message case-insensitive", Query{Text: "full", Levels: AllLevels}, true},
		{"source", Query{Text: "web", Levels: AllLevels}, true},
		{"client ip", Query{Text: "0.0.7", Levels: AllLevels}, true},
		{"no text match", Query{Text: "cpu", Levels: AllLevels}, false},
		{"level excluded", Query{Levels: NewLevelSet(model.LevelError)}, false},
		{"empty level set", Query{}, false},
		{"service included", Query{Levels: AllLevels, Services: []string{"db", "Web-1"}}, true},
		{"service excluded", Query{Levels: AllLevels, Services: []string{"db"}}, false},
		{"all three", Query{Text: "disk", Levels: NewLevelSet(model.LevelWarn), Services: []string{"Web-1"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Match(r); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLevelSet(t *testing.T) {
	s := NewLevelSet(model.LevelDebug, model.LevelError)
	if !s.Has(model.LevelDebug) || s.Has(model.LevelInfo) {
		t.Errorf("set = %v", s.List())
	}
	s = s.Toggle(model.LevelDebug).Toggle(model.LevelWarn)
	if got := s.List(); len(got) != 2 || got[0] != model.LevelWarn || got[1] != model.LevelError {
		t.Errorf("List() = %v", got)
	}
	if len(AllLevels.List()) != len(model.Levels) {
		t.Errorf("AllLevels = %v", AllLevels.List())
	}
}

func TestApplyFiltersAndSorts(t *testing.T) {
	records := []model.LogRecord{
		mk("c", 3, model.LevelInfo, "api", "gamma"),
		mk("b", 2, model.LevelError, "db", "beta"),
		mk("a", 1, model.LevelInfo, "api", "alpha"),
	}
	got := Apply(records, Query{Levels: NewLevelSet(model.LevelInfo)}, Sort{Field: FieldTimestamp, Direction: DirAsc})
	if want := []string{"a", "c"}; !equal(ids(got), want) {
		t.Errorf("Apply() = %v, want %v", ids(got), want)
	}
	if records[0].ID != "c" {
		t.Error("Apply reordered its input")
	}
}

func TestServices(t *testing.T) {
	records := []model.LogRecord{
		mk("1", 0, model.LevelInfo, "web", ""),
		mk("2", 0, model.LevelInfo, "api", ""),
		mk("3", 0, model.LevelInfo, "web", ""),
	}
	if got := Services(records); !equal(got, []string{"api", "web"}) {
		t.Errorf("Services() = %v", got)
	}
	if got := Services(nil); len(got) != 0 {
		t.Errorf("Services(nil) = %v", got)
	}
}
