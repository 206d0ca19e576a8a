package view

import (
	"strings"

	"github.com/crimson-sun/logstream/internal/model"
)

// MaxSuggestions caps the suggestion list.
const MaxSuggestions = 5

// Suggestion columns.
const (
	ColumnMessage  = "Message"
	ColumnSource   = "Source"
	ColumnClientIP = "IP Address"
	ColumnMethod   = "Method"
)

// Suggestion is a completion candidate drawn from a record field.
type Suggestion struct {
	Text     string
	Column   string
	RecordID string
}

// Suggest scans records in buffer order for case-insensitive substring
// matches of query and returns at most MaxSuggestions results, unique by
// (Text, Column). An empty query yields none.
func Suggest(records []model.LogRecord, query string) []Suggestion {
	if query == "" {
		return nil
	}
	needle := strings.ToLower(query)

	type key struct{ text, column string }
	seen := make(map[key]struct{})
	var out []Suggestion

	for _, rec := range records {
		fields := [...]struct{ text, column string }{
			{rec.Message, ColumnMessage},
			{rec.SourceName, ColumnSource},
			{rec.ClientIP, ColumnClientIP},
			{rec.Method, ColumnMethod},
		}
		for _, f := range fields {
			if !containsFold(f.text, needle) {
				continue
			}
			k := key{f.text, f.column}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, Suggestion{Text: f.text, Column: f.column, RecordID: rec.ID})
			if len(out) == MaxSuggestions {
				return out
			}
		}
	}
	return out
}
