package pipeline

import (
	"errors"
	"log/slog"

	"github.com/crimson-sun/logstream/internal/connector"
	"github.com/crimson-sun/logstream/internal/connector/auth"
	"github.com/crimson-sun/logstream/internal/metrics"
	"github.com/crimson-sun/logstream/internal/model"
)

// event is something that happened off the loop. handle applies it and
// reports whether visible state changed.
type event interface {
	handle(p *Pipeline) bool
}

type command struct {
	apply func(*Pipeline)
	done  chan struct{}
}

type dialResult struct {
	gen  uint64
	conn connector.Conn
	err  error
}

func (ev dialResult) handle(p *Pipeline) bool {
	if ev.gen != p.gen {
		// A newer attempt or a teardown superseded this one.
		if ev.conn != nil {
			ev.conn.Close()
		}
		return false
	}
	p.dialCancel = nil

	switch {
	case errors.Is(ev.err, auth.ErrUnavailable):
		metrics.Dialed(metrics.DialNoAuth)
		slog.Warn("no credential available, staying disconnected", "service", p.service.Name)
		p.authMissing = true
		p.setState(model.StateDisconnected)
	case ev.err != nil:
		metrics.Dialed(metrics.DialError)
		slog.Warn("stream connection failed", "service", p.service.Name, "error", ev.err)
		p.lastErr = ev.err.Error()
		p.setState(model.StateDisconnected)
		p.scheduleRetry()
	default:
		metrics.Dialed(metrics.DialOK)
		slog.Info("stream open", "service", p.service.Name, "generation", ev.gen)
		p.conn = ev.conn
		p.attempts = 0
		p.setState(model.StateOpen)
		go p.read(ev.gen, ev.conn)
	}
	return true
}

type frame struct {
	gen  uint64
	data []byte
}

func (ev frame) handle(p *Pipeline) bool {
	if ev.gen != p.gen {
		return false
	}
	metrics.FrameReceived()
	rec, err := p.engine.NormalizeFrame(ev.data)
	if err != nil {
		metrics.FrameDropped()
		p.dropped++
		slog.Warn("dropping frame", "error", err, "bytes", len(ev.data))
		return false
	}
	p.insert(rec)
	return true
}

type connClosed struct {
	gen uint64
	err error
}

func (ev connClosed) handle(p *Pipeline) bool {
	if ev.gen != p.gen {
		return false
	}
	slog.Info("stream closed", "service", p.service.Name, "error", ev.err)
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
	p.setState(model.StateDisconnected)
	p.scheduleRetry()
	return true
}

type retryDue struct {
	gen uint64
}

func (ev retryDue) handle(p *Pipeline) bool {
	if ev.gen != p.gen {
		return false
	}
	p.retry = nil
	if p.state != model.StateDisconnected || !p.wanted() {
		return false
	}
	p.connect()
	return true
}
