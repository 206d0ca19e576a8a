package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the log viewer.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding

	Expand key.Binding // open or close the detail row
	Select key.Binding // confirm in pickers

	Search      key.Binding
	Accept      key.Binding // take the first suggestion
	Cancel      key.Binding
	ClearSearch key.Binding

	LevelDebug key.Binding
	LevelInfo  key.Binding
	LevelWarn  key.Binding
	LevelError key.Binding

	SortTime    key.Binding
	SortLevel   key.Binding
	SortSource  key.Binding
	SortMessage key.Binding

	Live          key.Binding
	Clear         key.Binding
	SourceFilter  key.Binding
	ServicePicker key.Binding

	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap is the built-in binding set.
var DefaultKeyMap = KeyMap{
	Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
	Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	Home:     key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
	End:      key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),

	Expand: key.NewBinding(key.WithKeys("enter", "x"), key.WithHelp("enter", "details")),
	Select: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "select")),

	Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Accept:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "suggestion")),
	Cancel:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	ClearSearch: key.NewBinding(key.WithKeys("backspace"), key.WithHelp("⌫", "clear search")),

	LevelDebug: key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "debug")),
	LevelInfo:  key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "info")),
	LevelWarn:  key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "warn")),
	LevelError: key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "error")),

	SortTime:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "sort time")),
	SortLevel:   key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "sort level")),
	SortSource:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort source")),
	SortMessage: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "sort message")),

	Live:          key.NewBinding(key.WithKeys("p", " "), key.WithHelp("p", "live/pause")),
	Clear:         key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
	SourceFilter:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter sources")),
	ServicePicker: key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "switch service")),

	Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Expand, k.Live, k.SourceFilter, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End},
		{k.Search, k.Accept, k.Expand, k.Cancel},
		{k.LevelDebug, k.LevelInfo, k.LevelWarn, k.LevelError},
		{k.SortTime, k.SortLevel, k.SortSource, k.SortMessage},
		{k.Live, k.Clear, k.SourceFilter, k.ServicePicker, k.Quit},
	}
}
