package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/crimson-sun/logstream/internal/model"
)

type recordingOutput struct {
	mu     sync.Mutex
	ids    []string
	closed bool
	err    error
	delay  time.Duration
}

func (r *recordingOutput) Write(_ context.Context, rec model.LogRecord) error {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	r.ids = append(r.ids, rec.ID)
	r.mu.Unlock()
	return r.err
}

func (r *recordingOutput) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func (r *recordingOutput) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}

func rec(id string) model.LogRecord {
	return model.LogRecord{ID: id, Level: model.LevelInfo, Message: "m"}
}

func TestRecordsFlowThroughInOrder(t *testing.T) {
	inner := &recordingOutput{}
	a := New(inner, WithBufferSize(16))

	want := []string{"a", "b", "c", "d"}
	for _, id := range want {
		if err := a.Write(context.Background(), rec(id)); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	if len(inner.ids) != len(want) {
		t.Fatalf("got %d records, want %d", len(inner.ids), len(want))
	}
	for i := range want {
		if inner.ids[i] != want[i] {
			t.Fatalf("order mismatch at %d: %v", i, inner.ids)
		}
	}
	if !inner.closed {
		t.Fatal("inner output should be closed")
	}
}

func TestFullQueueDropsWithoutBlocking(t *testing.T) {
	inner := &recordingOutput{delay: 50 * time.Millisecond}
	a := New(inner, WithBufferSize(1))

	start := time.Now()
	for i := 0; i < 20; i++ {
		a.Write(context.Background(), rec("burst"))
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("Write blocked for %v", elapsed)
	}
	a.Close()

	if a.Dropped() == 0 {
		t.Error("expected some records to be dropped")
	}
	if inner.count() == 0 {
		t.Error("expected some records to be delivered")
	}
	if int64(inner.count())+a.Dropped() != 20 {
		t.Errorf("delivered %d + dropped %d != 20", inner.count(), a.Dropped())
	}
}

func TestBlockOnFullWaitsForSpace(t *testing.T) {
	inner := &recordingOutput{delay: 20 * time.Millisecond}
	a := New(inner, WithBufferSize(1), WithBlockOnFull())

	for i := 0; i < 5; i++ {
		if err := a.Write(context.Background(), rec("b")); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}
	a.Close()

	if inner.count() != 5 || a.Dropped() != 0 {
		t.Fatalf("delivered %d dropped %d, want 5 and 0", inner.count(), a.Dropped())
	}
}

func TestBlockOnFullHonorsContext(t *testing.T) {
	inner := &recordingOutput{delay: time.Second}
	a := New(inner, WithBufferSize(1), WithBlockOnFull())
	defer a.Close()

	a.Write(context.Background(), rec("1"))
	a.Write(context.Background(), rec("2"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := a.Write(ctx, rec("3")); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestErrorCallbackInvoked(t *testing.T) {
	inner := &recordingOutput{err: errors.New("write failed")}
	var errorCount atomic.Int64
	a := New(inner, WithBufferSize(16), WithOnError(func(error) {
		errorCount.Add(1)
	}))

	for i := 0; i < 5; i++ {
		a.Write(context.Background(), rec("failing"))
	}
	a.Close()

	if errorCount.Load() != 5 {
		t.Errorf("error callback called %d times, want 5", errorCount.Load())
	}
}

func TestCloseIdempotent(t *testing.T) {
	a := New(&recordingOutput{}, WithBufferSize(16))
	a.Write(context.Background(), rec("x"))

	if err := a.Close(); err != nil {
		t.Fatalf("first Close error: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close error: %v", err)
	}
	select {
	case <-a.done:
	case <-time.After(time.Second):
		t.Fatal("drain goroutine did not exit after Close")
	}
}
