package classifier

import (
	"github.com/crimson-sun/logstream/internal/model"
)

// Attribute keys that signal each source family.
var (
	HTTPKeys      = []string{"http.method", "http.path", "http.status_code"}
	ContainerKeys = []string{"container.name", "container.id", "container", "docker.container"}
	UnitKeys      = []string{"systemd.unit", "journal.unit", "_SYSTEMD_UNIT"}
	FilePathKeys  = []string{"file_path"}
)

// rule assigns a source type when matches reports true.
type rule struct {
	source  model.SourceType
	matches func(attrs map[string]any) bool
}

// rules is evaluated top to bottom and the first match wins. An HTTP access
// log forwarded from a container carries both families and must come out as
// http, so the order is fixed.
var rules = []rule{
	{model.SourceHTTP, func(a map[string]any) bool { return AnyPresent(a, HTTPKeys...) }},
	{model.SourceDocker, func(a map[string]any) bool { return AnyPresent(a, ContainerKeys...) }},
	{model.SourceJournald, func(a map[string]any) bool { return AnyPresent(a, UnitKeys...) }},
	{model.SourceFile, func(a map[string]any) bool {
		return AnyPresent(a, FilePathKeys...) || a["source_type"] == "file"
	}},
}

// Classify assigns exactly one source type to an attribute bag.
func Classify(attrs map[string]any) model.SourceType {
	if len(attrs) == 0 {
		return model.SourceUnknown
	}
	for _, r := range rules {
		if r.matches(attrs) {
			return r.source
		}
	}
	return model.SourceUnknown
}

// AnyPresent reports whether any key holds a present value.
func AnyPresent(attrs map[string]any, keys ...string) bool {
	for _, k := range keys {
		if Present(attrs[k]) {
			return true
		}
	}
	return false
}

// Present reports whether v carries a value: not nil, not an empty string,
// not false, not numeric zero.
func Present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	}
	return true
}
