package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crimson-sun/logstream/internal/model"
)

func TestHandlerExposesCounters(t *testing.T) {
	FrameReceived()
	FrameDropped()
	Buffered(7, 1)
	Dialed(DialNoAuth)
	State(model.StateOpen)

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rr.Body)

	for _, want := range []string{
		"logstream_frames_received_total",
		"logstream_frames_dropped_total",
		"logstream_records_evicted_total",
		"logstream_buffered_records 7",
		`logstream_dial_attempts_total{outcome="no_auth"}`,
		"logstream_connection_state 2",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0") }()
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Serve() = %v, want nil after cancel", err)
	}
}

func TestServeBadAddress(t *testing.T) {
	if err := Serve(context.Background(), "not-an-address"); err == nil {
		t.Error("Serve() should fail to listen")
	}
}
