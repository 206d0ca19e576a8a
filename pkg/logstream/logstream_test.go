package logstream

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestNormalizer() *Normalizer {
	n := 0
	return New(
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
	)
}

func TestNormalizeHTTPFrame(t *testing.T) {
	n := newTestNormalizer()
	rec, err := n.Normalize([]byte(`{
		"timeUnixNano": "1700000000000000000",
		"severity_text": "warning",
		"serviceName": "api",
		"body": "slow login",
		"logAttributes": {
			"http.method": "post",
			"http.path": "/login",
			"http.status_code": 401,
			"http.request_body": {"user": "ann", "password": "hunter2"}
		}
	}`))
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}

	if rec.SourceType != "http" || rec.Source != "api" {
		t.Errorf("source = %s/%s, want http/api", rec.SourceType, rec.Source)
	}
	if rec.Level != "WARN" {
		t.Errorf("Level = %q, want WARN", rec.Level)
	}
	if rec.Time.UnixMilli() != 1700000000000 {
		t.Errorf("Time = %d ms, want 1700000000000", rec.Time.UnixMilli())
	}
	if rec.Method != "POST" || rec.StatusCode != 401 {
		t.Errorf("method/status = %s/%d", rec.Method, rec.StatusCode)
	}
	if rec.ID != "id-1" {
		t.Errorf("ID = %q, want generated id-1", rec.ID)
	}
	if !strings.HasPrefix(rec.Replay, "curl -X POST") {
		t.Errorf("Replay = %q", rec.Replay)
	}
	if strings.Contains(rec.Replay, "hunter2") {
		t.Errorf("Replay leaked a password: %s", rec.Replay)
	}
}

func TestNormalizeFileFrame(t *testing.T) {
	n := newTestNormalizer()
	rec, err := n.Normalize([]byte(`{"id":"f1","body":"started","logAttributes":{"file_path":"/var/log/app/server.log"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if rec.Source != "server.log" || rec.Directory != "/var/log/app" {
		t.Errorf("source=%q dir=%q", rec.Source, rec.Directory)
	}
	if rec.Time != fixedNow {
		t.Errorf("missing timestamp should resolve to now, got %v", rec.Time)
	}
	if rec.Replay != "" {
		t.Errorf("plain file record should have no replay, got %q", rec.Replay)
	}
}

func TestNormalizeMalformed(t *testing.T) {
	n := newTestNormalizer()
	for _, frame := range []string{"", "not json", "[1,2]", `"str"`} {
		if _, err := n.Normalize([]byte(frame)); !errors.Is(err, ErrMalformedFrame) {
			t.Errorf("Normalize(%q) error = %v, want ErrMalformedFrame", frame, err)
		}
	}
}

func TestNormalizeBatchSkipsMalformed(t *testing.T) {
	n := newTestNormalizer()
	recs, err := n.NormalizeBatch([][]byte{
		[]byte(`{"id":"a","body":"one"}`),
		[]byte(`oops`),
		[]byte(`{"id":"b","body":"two"}`),
	})
	if len(recs) != 2 || recs[0].ID != "a" || recs[1].ID != "b" {
		t.Fatalf("records = %+v", recs)
	}
	if !errors.Is(err, ErrMalformedFrame) || !strings.Contains(err.Error(), "frame 1") {
		t.Errorf("err = %v", err)
	}
}

func TestNormalizeLog(t *testing.T) {
	n := newTestNormalizer()
	ts := time.Date(2026, 3, 1, 8, 30, 15, 123_456_789, time.UTC)
	rec := n.NormalizeLog(Log{
		Message:    "disk full",
		Time:       ts,
		Severity:   "crit",
		Attributes: map[string]any{"systemd.unit": "backup.service"},
	})

	if rec.SourceType != "journald" || rec.Source != "backup.service" {
		t.Errorf("source = %s/%s", rec.SourceType, rec.Source)
	}
	if rec.Level != "ERROR" {
		t.Errorf("Level = %q, want ERROR", rec.Level)
	}
	if !rec.Time.Equal(ts.Truncate(time.Millisecond)) {
		t.Errorf("Time = %v, want %v", rec.Time, ts.Truncate(time.Millisecond))
	}
	if rec.Service != "unknown" {
		t.Errorf("Service = %q, want unknown", rec.Service)
	}
}

func TestNormalizeLogZeroTime(t *testing.T) {
	rec := newTestNormalizer().NormalizeLog(Log{Message: "x"})
	if rec.Time != fixedNow || rec.SourceType != "unknown" || rec.Level != "INFO" {
		t.Errorf("got %+v", rec)
	}
}

func TestConcurrentNormalize(t *testing.T) {
	n := New()
	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			frame := fmt.Sprintf(`{"body":"line %d","logAttributes":{"container.name":"web-%d"}}`, i, i)
			rec, err := n.Normalize([]byte(frame))
			if err != nil {
				errs <- err
				return
			}
			if rec.Source != fmt.Sprintf("web-%d", i) {
				errs <- fmt.Errorf("goroutine %d: source %q", i, rec.Source)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
