// Package extractor derives type-specific fields from a classified event.
// Every function here is total: missing or mistyped attributes produce empty
// fields, never errors.
package extractor

import (
	"strconv"
	"strings"

	"github.com/crimson-sun/logstream/internal/engine/classifier"
	"github.com/crimson-sun/logstream/internal/model"
)

// UnknownName is the source name used when no alias resolves.
const UnknownName = "unknown"

// HTTP extracts request fields. It returns nil when method, path, or status
// is missing or the method is not a bare token; such records are rendered
// generically.
func HTTP(attrs map[string]any) *model.HTTPFields {
	method := strings.ToUpper(String(attrs, "http.method"))
	path := String(attrs, "http.path")
	status, _ := Int(attrs, "http.status_code")
	if !ValidMethod(method) || path == "" || status == 0 {
		return nil
	}
	f := &model.HTTPFields{
		Method:     method,
		Path:       path,
		StatusCode: status,
		ClientIP:   String(attrs, "http.client_ip"),
		UserAgent:  String(attrs, "http.user_agent"),
		Host:       String(attrs, "http.host"),
	}
	if d, ok := Float(attrs, "http.response_time_ms"); ok {
		f.DurationMS = &d
	}
	return f
}

// Docker extracts container identity. The container name falls back to the
// event's service alias.
func Docker(attrs map[string]any, service string) *model.DockerFields {
	name := String(attrs, "container.name", "docker.container", "container")
	if name == "" {
		name = service
	}
	return &model.DockerFields{
		ContainerName: name,
		ContainerID:   String(attrs, "container.id"),
		Image:         String(attrs, "container.image", "docker.image"),
	}
}

// Journald extracts the systemd unit. The message attribute wins over the
// event body when both exist.
func Journald(attrs map[string]any, body string) *model.JournaldFields {
	msg := String(attrs, "message")
	if msg == "" {
		msg = body
	}
	return &model.JournaldFields{
		Unit:    String(attrs, "systemd.unit", "journal.unit", "_SYSTEMD_UNIT", "unit"),
		Message: msg,
	}
}

// File extracts the file path, falling back to the service alias, and
// inspects the body for an embedded request line.
func File(attrs map[string]any, service, body string) *model.FileFields {
	path := String(attrs, classifier.FilePathKeys...)
	if path == "" {
		path = service
	}
	return &model.FileFields{
		Path:    path,
		Request: ParseRequestLine(body),
	}
}

// ValidMethod reports whether method is a non-empty run of A-Z.
func ValidMethod(method string) bool {
	if method == "" {
		return false
	}
	for i := 0; i < len(method); i++ {
		if method[i] < 'A' || method[i] > 'Z' {
			return false
		}
	}
	return true
}

// SplitPath splits a full file path on its final separator. dir is empty
// when the path has no separator or the separator is the first character.
func SplitPath(full string) (name, dir string) {
	i := strings.LastIndexAny(full, `/\`)
	if i < 0 {
		return full, ""
	}
	name = full[i+1:]
	if name == "" {
		name = full
	}
	return name, full[:i]
}

// String returns the first present attribute among keys as text.
func String(attrs map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := attrs[k]
		if !ok || !classifier.Present(v) {
			continue
		}
		switch x := v.(type) {
		case string:
			return x
		case float64:
			return strconv.FormatFloat(x, 'f', -1, 64)
		case int:
			return strconv.Itoa(x)
		case bool:
			return strconv.FormatBool(x)
		}
	}
	return ""
}

// Int returns the first attribute among keys that holds a whole number,
// either as a JSON number or a numeric string.
func Int(attrs map[string]any, keys ...string) (int, bool) {
	for _, k := range keys {
		switch x := attrs[k].(type) {
		case float64:
			return int(x), true
		case int:
			return x, true
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// Float returns the first attribute among keys that holds a number.
func Float(attrs map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch x := attrs[k].(type) {
		case float64:
			return x, true
		case int:
			return float64(x), true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}
