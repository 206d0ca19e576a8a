package pipeline

import (
	"github.com/crimson-sun/logstream/internal/model"
	"github.com/crimson-sun/logstream/internal/view"
)

// Snapshot is the presentation view of a session at one instant. It is
// immutable once published; callers must not modify its slices or maps.
type Snapshot struct {
	Records     []model.LogRecord // filtered and sorted
	Total       int               // records held in the buffer
	Capacity    int
	Sources     []string // distinct source names in the buffer
	Suggestions []view.Suggestion

	State   model.ConnState
	Service *model.Service // nil until one is selected
	Live    bool

	Query    view.Query
	Sort     view.Sort
	Expanded view.Expanded

	// AuthUnavailable is set when the last attempt found no credential.
	AuthUnavailable bool
	LastError       string
	Dropped         int // malformed frames since start
}

// Connected reports whether the stream is open.
func (s *Snapshot) Connected() bool { return s.State == model.StateOpen }

func (p *Pipeline) snapshot() *Snapshot {
	all := p.buf.Snapshot()
	p.expanded = p.expanded.Prune(all)

	var svc *model.Service
	if p.service != nil {
		cp := *p.service
		svc = &cp
	}
	return &Snapshot{
		Records:         view.Apply(all, p.query, p.sort),
		Total:           len(all),
		Capacity:        p.buf.Cap(),
		Sources:         view.Services(all),
		Suggestions:     view.Suggest(all, p.query.Text),
		State:           p.state,
		Service:         svc,
		Live:            p.live,
		Query:           p.query,
		Sort:            p.sort,
		Expanded:        p.expanded,
		AuthUnavailable: p.authMissing,
		LastError:       p.lastErr,
		Dropped:         p.dropped,
	}
}
