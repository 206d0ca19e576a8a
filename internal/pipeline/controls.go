package pipeline

import (
	"context"
	"log/slog"
	"slices"

	"github.com/crimson-sun/logstream/internal/metrics"
	"github.com/crimson-sun/logstream/internal/model"
	"github.com/crimson-sun/logstream/internal/view"
)

// SelectService switches the session to svc. Any open connection is closed
// first and the buffer is cleared; a new connection starts if live mode is
// on.
func (p *Pipeline) SelectService(ctx context.Context, svc model.Service) error {
	return p.do(ctx, func(p *Pipeline) {
		slog.Info("service selected", "service", svc.Name, "id", svc.ID)
		p.teardown()
		p.service = &svc
		p.buf.Clear()
		p.expanded = view.Expanded{}
		p.authMissing = false
		p.lastErr = ""
		metrics.Buffered(0, 0)
		if p.wanted() {
			p.connect()
		}
	})
}

// SetLive turns live mode on or off. Turning it off closes the connection;
// turning it on connects when a service is selected.
func (p *Pipeline) SetLive(ctx context.Context, live bool) error {
	return p.do(ctx, func(p *Pipeline) { p.setLive(live) })
}

// ToggleLive flips live mode.
func (p *Pipeline) ToggleLive(ctx context.Context) error {
	return p.do(ctx, func(p *Pipeline) { p.setLive(!p.live) })
}

func (p *Pipeline) setLive(live bool) {
	if p.live == live {
		return
	}
	p.live = live
	p.teardown()
	if p.wanted() {
		p.connect()
	}
}

// SetQuery replaces the search text.
func (p *Pipeline) SetQuery(ctx context.Context, text string) error {
	return p.do(ctx, func(p *Pipeline) { p.query.Text = text })
}

// SetLevels replaces the level filter.
func (p *Pipeline) SetLevels(ctx context.Context, levels view.LevelSet) error {
	return p.do(ctx, func(p *Pipeline) { p.query.Levels = levels })
}

// ToggleLevel adds or removes one level from the level filter.
func (p *Pipeline) ToggleLevel(ctx context.Context, l model.Level) error {
	return p.do(ctx, func(p *Pipeline) { p.query.Levels = p.query.Levels.Toggle(l) })
}

// SetServices replaces the service filter. An empty list removes the
// restriction.
func (p *Pipeline) SetServices(ctx context.Context, names []string) error {
	names = slices.Clone(names)
	return p.do(ctx, func(p *Pipeline) { p.query.Services = names })
}

// ToggleService adds or removes one source name from the service filter.
func (p *Pipeline) ToggleService(ctx context.Context, name string) error {
	return p.do(ctx, func(p *Pipeline) {
		if i := slices.Index(p.query.Services, name); i >= 0 {
			p.query.Services = slices.Delete(slices.Clone(p.query.Services), i, i+1)
		} else {
			p.query.Services = append(slices.Clone(p.query.Services), name)
		}
	})
}

// ToggleSort selects a sort field, cycling direction on repeat selection.
func (p *Pipeline) ToggleSort(ctx context.Context, f view.Field) error {
	return p.do(ctx, func(p *Pipeline) { p.sort = p.sort.Toggle(f) })
}

// ToggleExpanded opens or closes the detail row of a record.
func (p *Pipeline) ToggleExpanded(ctx context.Context, id string) error {
	return p.do(ctx, func(p *Pipeline) { p.expanded = p.expanded.Toggle(id) })
}

// Clear empties the buffer. The connection is left alone.
func (p *Pipeline) Clear(ctx context.Context) error {
	return p.do(ctx, func(p *Pipeline) {
		p.buf.Clear()
		p.expanded = view.Expanded{}
		metrics.Buffered(0, 0)
	})
}
