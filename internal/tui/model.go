// Package tui is the interactive terminal presentation of a log session.
// It renders pipeline snapshots and forwards key presses to the pipeline's
// controls; it owns no log state of its own.
package tui

import (
	"context"
	"errors"
	"log/slog"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/crimson-sun/logstream/internal/model"
	"github.com/crimson-sun/logstream/internal/pipeline"
	"github.com/crimson-sun/logstream/internal/view"
)

// Controller is the part of a session the viewer drives.
type Controller interface {
	Snapshot() *pipeline.Snapshot
	Subscribe() (<-chan struct{}, func())

	SelectService(ctx context.Context, svc model.Service) error
	ToggleLive(ctx context.Context) error
	SetQuery(ctx context.Context, text string) error
	ToggleLevel(ctx context.Context, l model.Level) error
	ToggleService(ctx context.Context, name string) error
	SetServices(ctx context.Context, names []string) error
	ToggleSort(ctx context.Context, f view.Field) error
	ToggleExpanded(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

type mode int

const (
	modeList mode = iota
	modeSearch
	modeServicePicker
	modeSourcePicker
)

// snapshotMsg signals that the controller published a new snapshot.
type snapshotMsg struct{}

// controlDoneMsg reports that the control in flight returned.
type controlDoneMsg struct{ err error }

// pendingControl is a control call waiting for the one in flight.
type pendingControl struct {
	fn    func(ctx context.Context) error
	query bool // a later query replaces it while queued
}

// Model is the bubbletea model of the viewer.
type Model struct {
	ctx         context.Context
	ctl         Controller
	updates     <-chan struct{}
	unsubscribe func()

	// Controls run one at a time in the order the keys arrived.
	busy  bool
	queue []pendingControl
	services []model.Service

	snap *pipeline.Snapshot

	mode         mode
	cursor       int // index into snap.Records
	offset       int // first visible record
	pickerCursor int

	search textinput.Model
	help   help.Model
	keys   KeyMap
	theme  Theme

	width  int
	height int
	status string
}

// NewModel creates a viewer over ctl. services populates the service
// picker, which is shown until a service is selected.
func NewModel(ctx context.Context, ctl Controller, services []model.Service) Model {
	updates, unsubscribe := ctl.Subscribe()
	if unsubscribe == nil {
		unsubscribe = func() {}
	}

	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "search message, source, ip"
	search.CharLimit = 256
	search.Cursor.SetMode(cursor.CursorStatic)

	m := Model{
		ctx:         ctx,
		ctl:         ctl,
		updates:     updates,
		unsubscribe: unsubscribe,
		services:    services,
		snap:        ctl.Snapshot(),
		search:      search,
		help:        help.New(),
		keys:        DefaultKeyMap,
		theme:       DefaultTheme,
		width:       100,
		height:      30,
	}
	if m.snap.Service == nil {
		m.mode = modeServicePicker
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return waitForSnapshot(m.updates)
}

func waitForSnapshot(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return snapshotMsg{}
	}
}

// enqueue schedules a blocking pipeline control. Only one control is in
// flight at a time; the next starts when controlDoneMsg arrives. A queued
// query is replaced by a newer one.
func (m *Model) enqueue(fn func(ctx context.Context) error, query bool) tea.Cmd {
	if n := len(m.queue); query && n > 0 && m.queue[n-1].query {
		m.queue = append(m.queue[:n-1:n-1], pendingControl{fn: fn, query: true})
	} else {
		m.queue = append(m.queue[:len(m.queue):len(m.queue)], pendingControl{fn: fn, query: query})
	}
	if m.busy {
		return nil
	}
	return m.next()
}

// next starts the oldest queued control, if any.
func (m *Model) next() tea.Cmd {
	if len(m.queue) == 0 {
		m.busy = false
		return nil
	}
	c := m.queue[0]
	m.queue = m.queue[1:]
	m.busy = true
	ctx := m.ctx
	return func() tea.Msg { return controlDoneMsg{c.fn(ctx)} }
}

// send queues a control and returns the updated model.
func (m Model) send(fn func(ctx context.Context) error) (tea.Model, tea.Cmd) {
	cmd := m.enqueue(fn, false)
	return m, cmd
}

// sendQuery queues a query push alongside cmd.
func (m Model) sendQuery(text string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	ctl := m.ctl
	q := m.enqueue(func(ctx context.Context) error { return ctl.SetQuery(ctx, text) }, true)
	return m, tea.Batch(cmd, q)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.clampCursor()
		return m, nil

	case snapshotMsg:
		m.refresh()
		return m, waitForSnapshot(m.updates)

	case controlDoneMsg:
		if msg.err != nil {
			slog.Warn("control failed", "error", msg.err)
			m.status = msg.err.Error()
		}
		cmd := m.next()
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) && (m.mode != modeSearch || msg.String() == "ctrl+c") {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.handleSearchKeys(msg)
		case modeServicePicker:
			return m.handleServicePickerKeys(msg)
		case modeSourcePicker:
			return m.handleSourcePickerKeys(msg)
		default:
			return m.handleListKeys(msg)
		}
	}
	return m, nil
}

func (m *Model) refresh() {
	m.snap = m.ctl.Snapshot()
	if m.snap.Service == nil && m.mode == modeList {
		m.mode = modeServicePicker
	}
	m.clampCursor()
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Up):
		m.cursor--
	case key.Matches(msg, k.Down):
		m.cursor++
	case key.Matches(msg, k.PageUp):
		m.cursor -= m.listHeight()
	case key.Matches(msg, k.PageDown):
		m.cursor += m.listHeight()
	case key.Matches(msg, k.Home):
		m.cursor = 0
	case key.Matches(msg, k.End):
		m.cursor = len(m.snap.Records) - 1
	case key.Matches(msg, k.Expand):
		if rec, ok := m.selected(); ok {
			id := rec.ID
			return m.send(func(ctx context.Context) error { return m.ctl.ToggleExpanded(ctx, id) })
		}
	case key.Matches(msg, k.Search):
		m.mode = modeSearch
		m.search.SetValue(m.snap.Query.Text)
		m.search.CursorEnd()
		return m, m.search.Focus()
	case key.Matches(msg, k.ClearSearch):
		if m.snap.Query.Text != "" {
			return m.sendQuery("", nil)
		}
	case key.Matches(msg, k.LevelDebug):
		return m.send(m.toggleLevel(model.LevelDebug))
	case key.Matches(msg, k.LevelInfo):
		return m.send(m.toggleLevel(model.LevelInfo))
	case key.Matches(msg, k.LevelWarn):
		return m.send(m.toggleLevel(model.LevelWarn))
	case key.Matches(msg, k.LevelError):
		return m.send(m.toggleLevel(model.LevelError))
	case key.Matches(msg, k.SortTime):
		return m.send(m.toggleSort(view.FieldTimestamp))
	case key.Matches(msg, k.SortLevel):
		return m.send(m.toggleSort(view.FieldLevel))
	case key.Matches(msg, k.SortSource):
		return m.send(m.toggleSort(view.FieldSource))
	case key.Matches(msg, k.SortMessage):
		return m.send(m.toggleSort(view.FieldMessage))
	case key.Matches(msg, k.Live):
		return m.send(m.ctl.ToggleLive)
	case key.Matches(msg, k.Clear):
		return m.send(m.ctl.Clear)
	case key.Matches(msg, k.SourceFilter):
		m.mode = modeSourcePicker
		m.pickerCursor = 0
	case key.Matches(msg, k.ServicePicker):
		m.mode = modeServicePicker
		m.pickerCursor = 0
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	m.clampCursor()
	return m, nil
}

func (m Model) toggleLevel(l model.Level) func(ctx context.Context) error {
	ctl := m.ctl
	return func(ctx context.Context) error { return ctl.ToggleLevel(ctx, l) }
}

func (m Model) toggleSort(f view.Field) func(ctx context.Context) error {
	ctl := m.ctl
	return func(ctx context.Context) error { return ctl.ToggleSort(ctx, f) }
}

// handleSearchKeys feeds the search input and pushes every change to the
// pipeline so results and suggestions follow each keystroke.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel), msg.Type == tea.KeyEnter:
		m.mode = modeList
		m.search.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Accept):
		if len(m.snap.Suggestions) > 0 {
			m.search.SetValue(m.snap.Suggestions[0].Text)
			m.search.CursorEnd()
			return m.sendQuery(m.search.Value(), nil)
		}
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if after := m.search.Value(); after != before {
		return m.sendQuery(after, cmd)
	}
	return m, cmd
}

func (m Model) handleServicePickerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.pickerCursor = max(m.pickerCursor-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.pickerCursor = min(m.pickerCursor+1, max(len(m.services)-1, 0))
	case key.Matches(msg, m.keys.Cancel):
		if m.snap.Service != nil {
			m.mode = modeList
		}
	case key.Matches(msg, m.keys.Select):
		if m.pickerCursor < len(m.services) {
			svc := m.services[m.pickerCursor]
			m.mode = modeList
			m.cursor, m.offset = 0, 0
			return m.send(func(ctx context.Context) error { return m.ctl.SelectService(ctx, svc) })
		}
	}
	return m, nil
}

func (m Model) handleSourcePickerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sources := m.snap.Sources
	switch {
	case key.Matches(msg, m.keys.Up):
		m.pickerCursor = max(m.pickerCursor-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.pickerCursor = min(m.pickerCursor+1, max(len(sources)-1, 0))
	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.SourceFilter):
		m.mode = modeList
	case key.Matches(msg, m.keys.Clear):
		return m.send(func(ctx context.Context) error { return m.ctl.SetServices(ctx, nil) })
	case key.Matches(msg, m.keys.Select):
		if m.pickerCursor < len(sources) {
			name := sources[m.pickerCursor]
			return m.send(func(ctx context.Context) error { return m.ctl.ToggleService(ctx, name) })
		}
	}
	return m, nil
}

func (m Model) selected() (model.LogRecord, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Records) {
		return model.LogRecord{}, false
	}
	return m.snap.Records[m.cursor], true
}

// clampCursor keeps the cursor on a record and inside the visible window.
func (m *Model) clampCursor() {
	n := len(m.snap.Records)
	m.cursor = max(min(m.cursor, n-1), 0)
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	m.offset = max(min(m.offset, n-1), 0)
}

// Run starts the viewer and blocks until the user quits or ctx ends.
func Run(ctx context.Context, ctl Controller, services []model.Service) error {
	return run(ctx, NewModel(ctx, ctl, services), tea.WithAltScreen())
}

func run(ctx context.Context, m Model, opts ...tea.ProgramOption) error {
	defer m.unsubscribe()
	p := tea.NewProgram(m, append(opts, tea.WithContext(ctx))...)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
