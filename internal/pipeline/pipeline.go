// Package pipeline owns one live log session: the stream connection, the
// bounded buffer, and the view state derived from them. Every mutation runs
// on a single loop goroutine; readers see immutable snapshots.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/crimson-sun/logstream/internal/buffer"
	"github.com/crimson-sun/logstream/internal/connector"
	"github.com/crimson-sun/logstream/internal/connector/auth"
	"github.com/crimson-sun/logstream/internal/engine"
	"github.com/crimson-sun/logstream/internal/metrics"
	"github.com/crimson-sun/logstream/internal/model"
	"github.com/crimson-sun/logstream/internal/output"
	"github.com/crimson-sun/logstream/internal/view"
)

// ErrStopped is returned by controls once Run has returned.
var ErrStopped = errors.New("pipeline: stopped")

const eventQueueSize = 256

// Reconnect configures automatic reconnection after a transport error or
// remote close. The zero value disables it.
type Reconnect struct {
	Enabled     bool
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// delay returns the wait before retry number attempt (0-based).
func (r Reconnect) delay(attempt int) time.Duration {
	d := r.BaseDelay
	if d <= 0 {
		d = time.Second
	}
	for i := 0; i < attempt; i++ {
		d *= 2
		if r.MaxDelay > 0 && d >= r.MaxDelay {
			return r.MaxDelay
		}
	}
	if r.MaxDelay > 0 && d > r.MaxDelay {
		return r.MaxDelay
	}
	return d
}

// Config holds the session settings.
type Config struct {
	StreamBase  string        // ws:// or http:// base of the log backend
	Live        bool          // initial live mode
	Capacity    int           // buffer capacity; 0 selects buffer.DefaultCapacity
	DialTimeout time.Duration // 0 means no bound
	Reconnect   Reconnect
}

// Pipeline connects a stream dialer, the normalizer, the buffer and any
// output sinks into one session.
type Pipeline struct {
	dialer  connector.Dialer
	creds   auth.TokenSource
	engine  *engine.Engine
	outputs []output.Output
	cfg     Config

	cmds    chan command
	events  chan event
	done    chan struct{}
	running atomic.Bool
	snap    atomic.Pointer[Snapshot]

	subsMu sync.Mutex
	subs   map[chan struct{}]struct{}

	// Loop-owned state.
	loopCtx     context.Context
	buf         *buffer.Buffer
	state       model.ConnState
	service     *model.Service
	live        bool
	query       view.Query
	sort        view.Sort
	expanded    view.Expanded
	authMissing bool
	lastErr     string
	dropped     int
	gen         uint64
	conn        connector.Conn
	dialCancel  context.CancelFunc
	attempts    int
	retry       *time.Timer
}

// New creates a Pipeline. Run must be called before any control is used.
func New(d connector.Dialer, creds auth.TokenSource, eng *engine.Engine, cfg Config, outs ...output.Output) *Pipeline {
	p := &Pipeline{
		dialer:   d,
		creds:    creds,
		engine:   eng,
		outputs:  outs,
		cfg:      cfg,
		cmds:     make(chan command),
		events:   make(chan event, eventQueueSize),
		done:     make(chan struct{}),
		subs:     make(map[chan struct{}]struct{}),
		buf:      buffer.New(cfg.Capacity),
		live:     cfg.Live,
		query:    view.DefaultQuery(),
		sort:     view.DefaultSort(),
		expanded: view.Expanded{},
	}
	p.publish()
	return p
}

// Run processes controls and stream events until ctx is cancelled. The open
// connection, if any, is closed before Run returns.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return errors.New("pipeline: already running")
	}
	defer close(p.done)
	p.loopCtx = ctx

	for {
		select {
		case <-ctx.Done():
			p.teardown()
			p.publish()
			return ctx.Err()
		case c := <-p.cmds:
			c.apply(p)
			p.publish()
			close(c.done)
		case ev := <-p.events:
			if ev.handle(p) && len(p.events) == 0 {
				p.publish()
			}
		}
	}
}

// Close closes the output sinks. Call it after Run has returned.
func (p *Pipeline) Close() error {
	var errs []error
	for _, o := range p.outputs {
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Snapshot returns the latest published view. It never returns nil.
func (p *Pipeline) Snapshot() *Snapshot { return p.snap.Load() }

// Subscribe returns a channel that receives a value whenever a new snapshot
// is published. Notifications coalesce; read Snapshot after each one. The
// returned function unsubscribes and closes the channel; it may be called
// more than once.
func (p *Pipeline) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	p.subsMu.Lock()
	p.subs[ch] = struct{}{}
	p.subsMu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.subsMu.Lock()
			delete(p.subs, ch)
			close(ch)
			p.subsMu.Unlock()
		})
	}
}

// subscribers reports how many subscriptions are live.
func (p *Pipeline) subscribers() int {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()
	return len(p.subs)
}

func (p *Pipeline) publish() {
	p.snap.Store(p.snapshot())
	p.subsMu.Lock()
	for ch := range p.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	p.subsMu.Unlock()
}

func (p *Pipeline) setState(s model.ConnState) {
	if p.state == s {
		return
	}
	slog.Debug("connection state", "from", p.state, "to", s, "generation", p.gen)
	p.state = s
	metrics.State(s)
}

// post delivers an event from a helper goroutine to the loop. It gives up
// once the loop has exited and reports whether the event was delivered.
func (p *Pipeline) post(ev event) bool {
	select {
	case p.events <- ev:
		return true
	case <-p.done:
		return false
	}
}

// wanted reports whether a connection should exist.
func (p *Pipeline) wanted() bool { return p.live && p.service != nil }

// connect starts a new connection attempt under a fresh generation. Token
// lookup and dialing run off the loop; the result comes back as an event.
func (p *Pipeline) connect() {
	p.gen++
	gen := p.gen
	svc := *p.service
	p.authMissing = false
	p.lastErr = ""
	p.setState(model.StateConnecting)

	ctx, cancel := context.WithCancel(p.loopCtx)
	p.dialCancel = cancel

	go func() {
		defer cancel()
		conn, err := p.dial(ctx, svc)
		if !p.post(dialResult{gen: gen, conn: conn, err: err}) && conn != nil {
			conn.Close()
		}
	}()
}

func (p *Pipeline) dial(ctx context.Context, svc model.Service) (connector.Conn, error) {
	token, err := p.creds.Token(ctx)
	if err == nil && token == "" {
		err = auth.ErrUnavailable
	}
	if err != nil {
		return nil, err
	}

	target, err := connector.StreamURL(p.cfg.StreamBase, svc.ID, token)
	if err != nil {
		return nil, err
	}
	if p.cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.DialTimeout)
		defer cancel()
	}
	slog.Debug("dialing stream", "url", connector.RedactURL(target))
	return p.dialer.Dial(ctx, target)
}

// read forwards frames from conn to the loop in receive order until the
// connection fails.
func (p *Pipeline) read(gen uint64, conn connector.Conn) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			p.post(connClosed{gen: gen, err: err})
			return
		}
		if !p.post(frame{gen: gen, data: data}) {
			return
		}
	}
}

// teardown closes any connection or pending attempt and invalidates their
// generation so late events from them are ignored.
func (p *Pipeline) teardown() {
	p.gen++
	p.attempts = 0
	if p.retry != nil {
		p.retry.Stop()
		p.retry = nil
	}
	if p.dialCancel != nil {
		p.dialCancel()
		p.dialCancel = nil
	}
	if p.conn != nil {
		p.setState(model.StateClosing)
		p.publish()
		if err := p.conn.Close(); err != nil {
			slog.Debug("closing stream", "error", err)
		}
		p.conn = nil
	}
	p.setState(model.StateDisconnected)
}

// scheduleRetry arms the reconnect timer when the policy allows another
// attempt.
func (p *Pipeline) scheduleRetry() {
	rc := p.cfg.Reconnect
	if !rc.Enabled || !p.wanted() {
		return
	}
	if rc.MaxAttempts > 0 && p.attempts >= rc.MaxAttempts {
		slog.Warn("reconnect attempts exhausted", "attempts", p.attempts)
		return
	}
	d := rc.delay(p.attempts)
	p.attempts++
	gen := p.gen
	slog.Info("reconnecting", "in", d, "attempt", p.attempts)
	p.retry = time.AfterFunc(d, func() { p.post(retryDue{gen: gen}) })
}

func (p *Pipeline) insert(rec model.LogRecord) {
	evicted := p.buf.Push(rec)
	metrics.Buffered(p.buf.Len(), evicted)
	for _, o := range p.outputs {
		if err := o.Write(p.loopCtx, rec); err != nil {
			slog.Warn("output write failed", "id", rec.ID, "error", err)
		}
	}
}

// do runs fn on the loop and waits until it has been applied and the
// resulting snapshot published.
func (p *Pipeline) do(ctx context.Context, fn func(*Pipeline)) error {
	c := command{apply: fn, done: make(chan struct{})}
	select {
	case p.cmds <- c:
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return ErrStopped
	}
	select {
	case <-c.done:
		return nil
	case <-p.done:
		return ErrStopped
	}
}
