// Package timestamp converts the timestamp encodings seen on the wire into a
// resolved instant and its display form.
package timestamp

import (
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/crimson-sun/logstream/internal/model"
)

// DisplayLayout is the fixed display format: 24-hour clock with milliseconds.
const DisplayLayout = "15:04:05.000"

const nanosPerMilli = 1_000_000

// maxMillis bounds representable instants to ±100,000,000 days around the
// epoch, the range of an ECMAScript Date.
const maxMillis = 8_640_000_000_000_000

var bigNanosPerMilli = big.NewInt(nanosPerMilli)

// dateLayouts are tried in order for non-numeric timestamp strings.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	time.RFC1123Z,
	time.RFC1123,
	"02/Jan/2006:15:04:05 -0700",
}

// Resolve returns the instant encoded by the first candidate, truncated to
// millisecond precision. Only the first candidate is considered, matching the
// alias priority of the wire format. When there is no candidate or it cannot
// be parsed, now() is returned and ok is false.
func Resolve(candidates []model.TimestampValue, now func() time.Time) (t time.Time, ok bool) {
	if len(candidates) == 0 {
		slog.Debug("event has no timestamp, using current time")
		return now(), false
	}
	c := candidates[0]

	var err error
	switch {
	case c.Numeric:
		t, err = parseMillis(c.Text)
	case isDigits(c.Text):
		t, err = parseNanos(c.Text)
	default:
		t, err = parseDate(c.Text)
	}
	if err != nil {
		slog.Debug("unparseable timestamp, using current time", "value", c.Text, "error", err)
		return now(), false
	}
	return t, true
}

// Format renders t in DisplayLayout using the local time zone.
func Format(t time.Time) string {
	return t.Local().Format(DisplayLayout)
}

// parseNanos interprets a decimal string as nanoseconds since the epoch.
// Values beyond int64 are divided with math/big so no precision is lost.
func parseNanos(s string) (time.Time, error) {
	if ns, err := strconv.ParseInt(s, 10, 64); err == nil {
		return fromMillis(s, ns/nanosPerMilli)
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return time.Time{}, &strconv.NumError{Func: "parseNanos", Num: s, Err: strconv.ErrSyntax}
	}
	ms := new(big.Int).Quo(n, bigNanosPerMilli)
	if !ms.IsInt64() {
		return time.Time{}, &strconv.NumError{Func: "parseNanos", Num: s, Err: strconv.ErrRange}
	}
	return fromMillis(s, ms.Int64())
}

// parseMillis interprets a JSON number as milliseconds since the epoch.
func parseMillis(s string) (time.Time, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return fromMillis(s, ms)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, err
	}
	if f > maxMillis || f < -maxMillis {
		return time.Time{}, &strconv.NumError{Func: "parseMillis", Num: s, Err: strconv.ErrRange}
	}
	return time.UnixMilli(int64(f)), nil
}

// fromMillis rejects instants outside ±maxMillis.
func fromMillis(s string, ms int64) (time.Time, error) {
	if ms > maxMillis || ms < -maxMillis {
		return time.Time{}, &strconv.NumError{Func: "fromMillis", Num: s, Err: strconv.ErrRange}
	}
	return time.UnixMilli(ms), nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.Truncate(time.Millisecond), nil
		}
	}
	return time.Time{}, err
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
