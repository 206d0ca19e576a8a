package extractor

import (
	"regexp"
	"strconv"

	"github.com/crimson-sun/logstream/internal/model"
)

var (
	// combinedLog matches the common and combined access log formats:
	//   127.0.0.1 - frank [10/Oct/2000:13:55:36 -0700] "GET /a.gif HTTP/1.0" 200 2326 "http://x/" "Mozilla/4.08"
	combinedLog = regexp.MustCompile(
		`^(\S+) \S+ \S+ \[[^\]]+\] "([A-Z]+) (\S+)(?: (HTTP/[0-9.]+))?" (\d{3}) (?:\d+|-)(?: "([^"]*)" "([^"]*)")?`)

	// simpleRequest matches a bare "METHOD /path" anywhere in a message.
	simpleRequest = regexp.MustCompile(
		`\b(GET|POST|PUT|PATCH|DELETE|HEAD|OPTIONS)\s+(/\S*)`)
)

// ParseRequestLine recovers an HTTP request from a free-text log message.
// It returns nil when the message does not look like a request.
func ParseRequestLine(msg string) *model.RequestLine {
	if m := combinedLog.FindStringSubmatch(msg); m != nil {
		status, _ := strconv.Atoi(m[5])
		return &model.RequestLine{
			ClientIP:  m[1],
			Method:    m[2],
			Path:      m[3],
			Protocol:  m[4],
			Status:    status,
			Referer:   dash(m[6]),
			UserAgent: dash(m[7]),
		}
	}
	if m := simpleRequest.FindStringSubmatch(msg); m != nil {
		return &model.RequestLine{Method: m[1], Path: m[2]}
	}
	return nil
}

// dash treats the access-log placeholder "-" as empty.
func dash(s string) string {
	if s == "-" {
		return ""
	}
	return s
}
