package view

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/crimson-sun/logstream/internal/model"
)

// Field is a sortable column.
type Field string

const (
	FieldTimestamp Field = "timestamp"
	FieldLevel     Field = "level"
	FieldSource    Field = "source"
	FieldMessage   Field = "message"
)

// Direction is a sort direction. DirNone keeps buffer order.
type Direction int

const (
	DirNone Direction = iota
	DirAsc
	DirDesc
)

func (d Direction) String() string {
	switch d {
	case DirAsc:
		return "asc"
	case DirDesc:
		return "desc"
	}
	return "none"
}

// Sort selects the ordering column and direction.
type Sort struct {
	Field     Field
	Direction Direction
}

// DefaultSort shows the newest records first.
func DefaultSort() Sort {
	return Sort{Field: FieldTimestamp, Direction: DirDesc}
}

// Toggle returns the sort after the user selects field. Selecting the
// current field cycles desc → asc → none → desc; a new field starts at desc.
func (s Sort) Toggle(field Field) Sort {
	if s.Field != field {
		return Sort{Field: field, Direction: DirDesc}
	}
	switch s.Direction {
	case DirDesc:
		s.Direction = DirAsc
	case DirAsc:
		s.Direction = DirNone
	default:
		s.Direction = DirDesc
	}
	return s
}

// sort orders records in place. The sort is stable so equal keys keep
// buffer order.
func (s Sort) sort(records []model.LogRecord) {
	if s.Direction == DirNone {
		return
	}
	cmp := s.comparator()
	if s.Direction == DirDesc {
		asc := cmp
		cmp = func(a, b model.LogRecord) int { return -asc(a, b) }
	}
	slices.SortStableFunc(records, cmp)
}

func (s Sort) comparator() func(a, b model.LogRecord) int {
	switch s.Field {
	case FieldLevel:
		return func(a, b model.LogRecord) int { return a.Level.Rank() - b.Level.Rank() }
	case FieldSource:
		c := collate.New(language.Und, collate.IgnoreCase)
		return func(a, b model.LogRecord) int { return c.CompareString(a.SourceName, b.SourceName) }
	case FieldMessage:
		c := collate.New(language.Und, collate.IgnoreCase)
		return func(a, b model.LogRecord) int { return c.CompareString(a.Message, b.Message) }
	default:
		return func(a, b model.LogRecord) int {
			if c := a.Time.Compare(b.Time); c != 0 {
				return c
			}
			return strings.Compare(a.Timestamp, b.Timestamp)
		}
	}
}
