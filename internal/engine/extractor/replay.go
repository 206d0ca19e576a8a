package extractor

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/crimson-sun/logstream/internal/model"
)

// Redacted replaces the value of every sensitive key before rendering.
const Redacted = "[REDACTED]"

// DefaultHost is used when a request carries no host attribute.
const DefaultHost = "localhost:3000"

// sensitiveMarkers are matched against keys lower-cased with separators removed.
var sensitiveMarkers = []string{"password", "passwd", "secret", "token", "apikey", "authorization", "cookie"}

// IsSensitiveKey reports whether values stored under key must not be shown.
func IsSensitiveKey(key string) bool {
	k := strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ', '.':
			return -1
		}
		return r
	}, strings.ToLower(key))
	for _, m := range sensitiveMarkers {
		if strings.Contains(k, m) {
			return true
		}
	}
	return false
}

// Redact returns a deep copy of v with the values of sensitive keys replaced
// by Redacted at every nesting level.
func Redact(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			if IsSensitiveKey(k) {
				out[k] = Redacted
				continue
			}
			out[k] = Redact(val)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(x))
		for k, val := range x {
			if IsSensitiveKey(k) {
				out[k] = Redacted
				continue
			}
			out[k] = val
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Redact(e)
		}
		return out
	}
	return v
}

// Replay renders a curl command that reproduces the request behind a record.
// It reports false for records that carry no request: non-HTTP records, HTTP
// records with incomplete fields or a method that is not a bare token, and
// file records whose body is not an access-log line.
func Replay(rec model.LogRecord) (string, bool) {
	var method, path string
	switch rec.SourceType {
	case model.SourceHTTP:
		if rec.HTTP == nil {
			return "", false
		}
		method, path = rec.HTTP.Method, rec.HTTP.Path
	case model.SourceFile:
		if rec.File == nil || rec.File.Request == nil {
			return "", false
		}
		method, path = rec.File.Request.Method, rec.File.Request.Path
	default:
		return "", false
	}
	if !ValidMethod(method) {
		return "", false
	}

	attrs := rec.Attributes
	host := String(attrs, "http.host")
	if host == "" {
		host = DefaultHost
	}
	scheme := "https"
	if strings.Contains(host, "localhost") || strings.HasPrefix(host, "127.") {
		scheme = "http"
	}

	headers := stringMap(firstValue(attrs, "http.request_headers", "headers"))
	body := renderBody(firstValue(attrs, "http.request_body", "body"))
	if body != "" && !hasBody(method) {
		body = ""
	}
	if body != "" && !hasHeader(headers, "Content-Type") {
		headers["Content-Type"] = "application/json"
	}

	target := scheme + "://" + host + redactPath(path, stringMap(firstValue(attrs, "http.query", "query")))

	var b strings.Builder
	fmt.Fprintf(&b, "curl -X %s", method)
	for _, k := range sortedKeys(headers) {
		fmt.Fprintf(&b, " \\\n  -H %s", shellQuote(k+": "+headers[k]))
	}
	if body != "" {
		fmt.Fprintf(&b, " \\\n  -d %s", shellQuote(body))
	}
	fmt.Fprintf(&b, " \\\n  %s", shellQuote(target))
	return b.String(), true
}

func hasBody(method string) bool {
	switch method {
	case "POST", "PUT", "PATCH":
		return true
	}
	return false
}

func hasHeader(h map[string]string, name string) bool {
	for k := range h {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

func firstValue(attrs map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := attrs[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// stringMap flattens a map attribute into redacted header-style strings.
func stringMap(v any) map[string]string {
	out := map[string]string{}
	m, ok := Redact(v).(map[string]any)
	if !ok {
		return out
	}
	for k, val := range m {
		out[k] = scalarText(val)
	}
	return out
}

func scalarText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	case map[string]any, []any:
		data, _ := json.Marshal(x)
		return string(data)
	}
	return fmt.Sprint(v)
}

// renderBody redacts a request body given as a JSON value, a JSON string,
// or a form-encoded string.
func renderBody(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		var parsed any
		if err := json.Unmarshal([]byte(x), &parsed); err == nil {
			if _, isScalar := parsed.(string); !isScalar {
				data, _ := json.Marshal(Redact(parsed))
				return string(data)
			}
		}
		if strings.Contains(x, "=") {
			if form, err := url.ParseQuery(x); err == nil {
				return encodeQuery(redactValues(form))
			}
		}
		return x
	default:
		data, err := json.Marshal(Redact(x))
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// redactPath redacts sensitive query parameters already in the path and
// merges extra query attributes.
func redactPath(path string, extra map[string]string) string {
	base, rawQuery, _ := strings.Cut(path, "?")
	values, _ := url.ParseQuery(rawQuery)
	if values == nil {
		values = url.Values{}
	}
	for k, v := range extra {
		values.Set(k, v)
	}
	if len(values) == 0 {
		return base
	}
	return base + "?" + encodeQuery(redactValues(values))
}

func redactValues(values url.Values) url.Values {
	for k := range values {
		if IsSensitiveKey(k) {
			values[k] = []string{Redacted}
		}
	}
	return values
}

// encodeQuery is url.Values.Encode that leaves the redaction marker readable.
func encodeQuery(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		for _, v := range values[k] {
			ev := url.QueryEscape(v)
			if v == Redacted {
				ev = v
			}
			parts = append(parts, url.QueryEscape(k)+"="+ev)
		}
	}
	return strings.Join(parts, "&")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
