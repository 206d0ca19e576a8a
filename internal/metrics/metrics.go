// Package metrics exposes stream ingestion counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crimson-sun/logstream/internal/model"
)

var (
	framesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "logstream_frames_received_total",
		Help: "Stream frames received, including malformed ones",
	})
	framesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "logstream_frames_dropped_total",
		Help: "Stream frames dropped because they could not be parsed",
	})
	recordsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "logstream_records_evicted_total",
		Help: "Records evicted from the bounded buffer",
	})
	bufferedRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "logstream_buffered_records",
		Help: "Records currently held in the buffer",
	})
	dialAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logstream_dial_attempts_total",
		Help: "Stream connection attempts by outcome",
	}, []string{"outcome"})
	connState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "logstream_connection_state",
		Help: "Connection state: 0 disconnected, 1 connecting, 2 open, 3 closing",
	})
)

// Dial outcomes.
const (
	DialOK     = "ok"
	DialError  = "error"
	DialNoAuth = "no_auth"
)

// FrameReceived counts one inbound frame.
func FrameReceived() { framesReceived.Inc() }

// FrameDropped counts one malformed frame.
func FrameDropped() { framesDropped.Inc() }

// Buffered records the buffer size after an insertion and any evictions.
func Buffered(size, evicted int) {
	bufferedRecords.Set(float64(size))
	if evicted > 0 {
		recordsEvicted.Add(float64(evicted))
	}
}

// Dialed counts a connection attempt.
func Dialed(outcome string) { dialAttempts.WithLabelValues(outcome).Inc() }

// State records the current connection state.
func State(s model.ConnState) { connState.Set(float64(s)) }

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

const shutdownTimeout = 5 * time.Second

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
