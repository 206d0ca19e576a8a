package view

import (
	"testing"

	"github.com/crimson-sun/logstream/internal/model"
)

func TestSortToggleCycle(t *testing.T) {
	s := DefaultSort()
	steps := []Sort{
		{FieldTimestamp, DirAsc},
		{FieldTimestamp, DirNone},
		{FieldTimestamp, DirDesc},
	}
	for i, want := range steps {
		s = s.Toggle(FieldTimestamp)
		if s != want {
			t.Fatalf("step %d: %+v, want %+v", i, s, want)
		}
	}
	if s = s.Toggle(FieldLevel); s != (Sort{FieldLevel, DirDesc}) {
		t.Errorf("new field = %+v, want desc", s)
	}
}

func TestSortFields(t *testing.T) {
	records := []model.LogRecord{
		mk("1", 2, model.LevelWarn, "beta", "b message"),
		mk("2", 1, model.LevelError, "Alpha", "C message"),
		mk("3", 3, model.LevelDebug, "gamma", "a message"),
		mk("4", 1, model.LevelWarn, "alpha", "b message"),
	}

	tests := []struct {
		sort Sort
		want []string
	}{
		{Sort{FieldTimestamp, DirDesc}, []string{"3", "1", "2", "4"}},
		{Sort{FieldTimestamp, DirAsc}, []string{"2", "4", "1", "3"}},
		{Sort{FieldLevel, DirDesc}, []string{"2", "1", "4", "3"}},
		{Sort{FieldLevel, DirAsc}, []string{"3", "1", "4", "2"}},
		{Sort{FieldMessage, DirAsc}, []string{"3", "1", "4", "2"}},
		{Sort{FieldSource, DirAsc}, []string{"2", "4", "1", "3"}},
		{Sort{FieldSource, DirNone}, []string{"1", "2", "3", "4"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.sort.Field)+"/"+tt.sort.Direction.String(), func(t *testing.T) {
			got := ids(Apply(records, DefaultQuery(), tt.sort))
			if !equal(got, tt.want) {
				t.Errorf("order = %v, want %v", got, tt.want)
			}
		})
	}
}
