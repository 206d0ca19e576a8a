package model

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/valyala/fastjson"
)

// ErrMalformedFrame is returned when an inbound frame is not a JSON object.
var ErrMalformedFrame = errors.New("malformed frame")

// TimestampValue is one timestamp candidate as it appeared on the wire.
type TimestampValue struct {
	Text    string
	Numeric bool // true when the wire value was a JSON number
}

// RawLogEvent is the untrusted event shape received over the stream.
// Every field is optional; empty strings mean absent.
type RawLogEvent struct {
	ID         string
	Timestamps []TimestampValue // candidates in alias priority order
	Message    string
	Severity   string
	Service    string
	Attributes map[string]any
}

// Wire aliases, in priority order.
var (
	timestampKeys = []string{"timeUnixNano", "time_unix_nano", "time", "timestamp"}
	messageKeys   = []string{"body", "message", "Body"}
	severityKeys  = []string{"severity_text", "severityText", "level"}
	serviceKeys   = []string{"serviceName", "service_name", "service"}
	attributeKeys = []string{"logAttributes", "log_attributes"}
)

var parserPool fastjson.ParserPool

// ParseRawLogEvent decodes one stream frame. Any JSON object is accepted;
// fields under unknown keys or of unexpected types are ignored.
func ParseRawLogEvent(data []byte) (RawLogEvent, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return RawLogEvent{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if v.Type() != fastjson.TypeObject {
		return RawLogEvent{}, fmt.Errorf("%w: top level is %s", ErrMalformedFrame, v.Type())
	}

	ev := RawLogEvent{
		ID:       scalarString(v.Get("id")),
		Message:  firstString(v, messageKeys),
		Severity: firstString(v, severityKeys),
		Service:  firstString(v, serviceKeys),
	}

	for _, k := range timestampKeys {
		tv := v.Get(k)
		if tv == nil {
			continue
		}
		switch tv.Type() {
		case fastjson.TypeString:
			if s := string(tv.GetStringBytes()); s != "" {
				ev.Timestamps = append(ev.Timestamps, TimestampValue{Text: s})
			}
		case fastjson.TypeNumber:
			ev.Timestamps = append(ev.Timestamps, TimestampValue{Text: tv.String(), Numeric: true})
		}
	}

	for _, k := range attributeKeys {
		av := v.Get(k)
		if av != nil && av.Type() == fastjson.TypeObject {
			ev.Attributes, _ = toAny(av).(map[string]any)
			break
		}
	}

	return ev, nil
}

func firstString(v *fastjson.Value, keys []string) string {
	for _, k := range keys {
		if s := scalarString(v.Get(k)); s != "" {
			return s
		}
	}
	return ""
}

// scalarString renders strings and numbers as text; anything else is absent.
func scalarString(v *fastjson.Value) string {
	if v == nil {
		return ""
	}
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		return v.String()
	}
	return ""
}

// toAny converts a fastjson value into the plain Go shapes encoding/json
// would produce: map[string]any, []any, string, float64, bool, nil.
func toAny(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeObject:
		obj, _ := v.Object()
		m := make(map[string]any, obj.Len())
		obj.Visit(func(key []byte, val *fastjson.Value) {
			m[string(key)] = toAny(val)
		})
		return m
	case fastjson.TypeArray:
		arr, _ := v.Array()
		out := make([]any, len(arr))
		for i, e := range arr {
			out[i] = toAny(e)
		}
		return out
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		f, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return v.String()
		}
		return f
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	}
	return nil
}
