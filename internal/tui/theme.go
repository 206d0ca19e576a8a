package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/crimson-sun/logstream/internal/model"
)

// Theme is the color palette. Colors are ANSI 256 codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	LevelDebug lipgloss.Color
	LevelInfo  lipgloss.Color
	LevelWarn  lipgloss.Color
	LevelError lipgloss.Color

	SourceHTTP     lipgloss.Color
	SourceDocker   lipgloss.Color
	SourceJournald lipgloss.Color
	SourceFile     lipgloss.Color

	StateOpen       lipgloss.Color
	StateConnecting lipgloss.Color
	StateDown       lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	Warning          lipgloss.Color
}

// DefaultTheme targets dark terminals.
var DefaultTheme = Theme{
	NormalText:         "252",
	FaintText:          "243",
	SelectedBackground: "237",
	SelectedForeground: "255",
	LevelDebug:         "245",
	LevelInfo:          "39",
	LevelWarn:          "214",
	LevelError:         "196",
	SourceHTTP:         "75",
	SourceDocker:       "38",
	SourceJournald:     "141",
	SourceFile:         "180",
	StateOpen:          "42",
	StateConnecting:    "220",
	StateDown:          "203",
	HeaderForeground:   "255",
	BorderColor:        "240",
	Warning:            "214",
}

// LevelColor returns the color for a level.
func (t Theme) LevelColor(l model.Level) lipgloss.Color {
	switch l {
	case model.LevelDebug:
		return t.LevelDebug
	case model.LevelWarn:
		return t.LevelWarn
	case model.LevelError:
		return t.LevelError
	}
	return t.LevelInfo
}

// SourceColor returns the color for a source type.
func (t Theme) SourceColor(s model.SourceType) lipgloss.Color {
	switch s {
	case model.SourceHTTP:
		return t.SourceHTTP
	case model.SourceDocker:
		return t.SourceDocker
	case model.SourceJournald:
		return t.SourceJournald
	case model.SourceFile:
		return t.SourceFile
	}
	return t.NormalText
}

// StateColor returns the indicator color for a connection state.
func (t Theme) StateColor(s model.ConnState) lipgloss.Color {
	switch s {
	case model.StateOpen:
		return t.StateOpen
	case model.StateConnecting, model.StateClosing:
		return t.StateConnecting
	}
	return t.StateDown
}
