package timestamp

import (
	"testing"
	"time"

	"github.com/crimson-sun/logstream/internal/model"
)

var now = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func clock() time.Time { return now }

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		in     []model.TimestampValue
		wantMS int64
		wantOK bool
	}{
		{"nanos string", []model.TimestampValue{{Text: "1700000000000000000"}}, 1700000000000, true},
		{"nanos truncate", []model.TimestampValue{{Text: "1700000000123999999"}}, 1700000000123, true},
		{"millis number", []model.TimestampValue{{Text: "1700000000000", Numeric: true}}, 1700000000000, true},
		{"millis float", []model.TimestampValue{{Text: "1.7e12", Numeric: true}}, 1700000000000, true},
		{"rfc3339", []model.TimestampValue{{Text: "2023-11-14T22:13:20.5Z"}}, 1700000000500, true},
		{"first wins", []model.TimestampValue{{Text: "garbage"}, {Text: "1700000000000", Numeric: true}}, now.UnixMilli(), false},
		{"millis at range limit", []model.TimestampValue{{Text: "8640000000000000", Numeric: true}}, 8640000000000000, true},
		{"nanos as number", []model.TimestampValue{{Text: "1700000000000000000", Numeric: true}}, now.UnixMilli(), false},
		{"millis beyond range", []model.TimestampValue{{Text: "-8640000000000001", Numeric: true}}, now.UnixMilli(), false},
		{"float beyond range", []model.TimestampValue{{Text: "1e300", Numeric: true}}, now.UnixMilli(), false},
		{"nanos beyond range", []model.TimestampValue{{Text: "99999999999999999999999999"}}, now.UnixMilli(), false},
		{"missing", nil, now.UnixMilli(), false},
		{"bad", []model.TimestampValue{{Text: "yesterday"}}, now.UnixMilli(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.in, clock)
			if ok != tt.wantOK || got.UnixMilli() != tt.wantMS {
				t.Errorf("Resolve() = %d, %v; want %d, %v", got.UnixMilli(), ok, tt.wantMS, tt.wantOK)
			}
		})
	}
}

func TestResolveBeyondInt64(t *testing.T) {
	// 9.3e18 ns overflows int64 but its millisecond value fits.
	got, ok := Resolve([]model.TimestampValue{{Text: "9300000000000000000"}}, clock)
	if !ok || got.UnixMilli() != 9300000000000 {
		t.Errorf("Resolve() = %d, %v", got.UnixMilli(), ok)
	}
}

func TestResolveLocalDate(t *testing.T) {
	got, ok := Resolve([]model.TimestampValue{{Text: "2024-05-06 07:08:09.123"}}, clock)
	if !ok {
		t.Fatal("expected date without zone to parse")
	}
	want := time.Date(2024, 5, 6, 7, 8, 9, 123_000_000, time.Local)
	if !got.Equal(want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestFormat(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 45_000_000, time.Local)
	if got := Format(ts); got != "07:08:09.045" {
		t.Errorf("Format() = %q", got)
	}
}
