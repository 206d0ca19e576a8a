package tui

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/crimson-sun/logstream/internal/engine/extractor"
	"github.com/crimson-sun/logstream/internal/model"
	"github.com/crimson-sun/logstream/internal/view"
)

const (
	timeWidth   = 12
	levelWidth  = 5
	sourceWidth = 28
)

// View implements tea.Model.
func (m Model) View() string {
	switch m.mode {
	case modeServicePicker:
		return m.renderServicePicker()
	case modeSourcePicker:
		return m.renderSourcePicker()
	}

	var lines []string
	lines = append(lines, m.renderHeader())
	if w := m.renderWarning(); w != "" {
		lines = append(lines, w)
	}
	lines = append(lines, m.renderSearchLine())
	if m.mode == modeSearch {
		lines = append(lines, m.renderSuggestions()...)
	}
	lines = append(lines, m.renderColumnHeader())
	lines = append(lines, m.renderRows()...)
	body := strings.Join(lines, "\n")

	footer := lipgloss.NewStyle().Foreground(m.theme.FaintText).Render(m.help.View(m.keys))
	if m.status != "" {
		footer = lipgloss.NewStyle().Foreground(m.theme.Warning).Render(m.status)
	}
	pad := m.height - lipgloss.Height(body) - lipgloss.Height(footer)
	if pad > 0 {
		body += strings.Repeat("\n", pad)
	}
	return body + "\n" + footer
}

// chromeHeight is the number of lines around the record list.
func (m Model) chromeHeight() int {
	h := 3 + lipgloss.Height(m.help.View(m.keys)) // header, search line, column header, help
	if m.renderWarning() != "" {
		h++
	}
	if m.mode == modeSearch {
		h += len(m.snap.Suggestions)
	}
	return h
}

func (m Model) listHeight() int {
	return max(m.height-m.chromeHeight(), 1)
}

func (m Model) renderHeader() string {
	s := m.snap
	title := lipgloss.NewStyle().Bold(true).Foreground(m.theme.HeaderForeground).Render("logstream")

	service := "no service"
	if s.Service != nil {
		service = s.Service.Name
	}
	state := lipgloss.NewStyle().Foreground(m.theme.StateColor(s.State)).Render("● " + s.State.String())
	live := "paused"
	if s.Live {
		live = "live"
	}

	parts := []string{
		title,
		service,
		state,
		live,
		fmt.Sprintf("%d/%d", s.Total, s.Capacity),
		m.renderLevels(),
		"sort " + sortLabel(s.Sort),
	}
	if s.Dropped > 0 {
		parts = append(parts, fmt.Sprintf("%d dropped", s.Dropped))
	}
	sep := lipgloss.NewStyle().Foreground(m.theme.BorderColor).Render(" │ ")
	return ansi.Truncate(strings.Join(parts, sep), m.width, "…")
}

func (m Model) renderLevels() string {
	var b strings.Builder
	for _, l := range model.Levels {
		label := string(l[0])
		style := lipgloss.NewStyle().Foreground(m.theme.FaintText)
		if m.snap.Query.Levels.Has(l) {
			style = lipgloss.NewStyle().Bold(true).Foreground(m.theme.LevelColor(l))
		}
		b.WriteString(style.Render(label))
	}
	return b.String()
}

func sortLabel(s view.Sort) string {
	switch s.Direction {
	case view.DirAsc:
		return string(s.Field) + " ↑"
	case view.DirDesc:
		return string(s.Field) + " ↓"
	}
	return "none"
}

// renderWarning explains why the stream is not connected.
func (m Model) renderWarning() string {
	s := m.snap
	style := lipgloss.NewStyle().Foreground(m.theme.Warning)
	switch {
	case s.AuthUnavailable:
		return style.Render("not connected: no credential available (set --session-token or --cookie-file)")
	case s.State == model.StateDisconnected && s.LastError != "":
		return style.Render("not connected: " + ansi.Truncate(s.LastError, max(m.width-15, 10), "…"))
	}
	return ""
}

func (m Model) renderSearchLine() string {
	faint := lipgloss.NewStyle().Foreground(m.theme.FaintText)
	var search string
	switch {
	case m.mode == modeSearch:
		search = m.search.View()
	case m.snap.Query.Text != "":
		search = "/" + m.snap.Query.Text
	default:
		search = faint.Render("/ to search")
	}
	if names := m.snap.Query.Services; len(names) > 0 {
		search += faint.Render("   sources: ") + strings.Join(names, ", ")
	}
	if len(m.snap.Records) != m.snap.Total {
		search += faint.Render(fmt.Sprintf("   %d shown", len(m.snap.Records)))
	}
	return search
}

func (m Model) renderSuggestions() []string {
	faint := lipgloss.NewStyle().Foreground(m.theme.FaintText)
	lines := make([]string, 0, len(m.snap.Suggestions))
	for i, sg := range m.snap.Suggestions {
		marker := "  "
		if i == 0 {
			marker = "⇥ "
		}
		lines = append(lines, ansi.Truncate(marker+sg.Text+faint.Render("  "+sg.Column), m.width, "…"))
	}
	return lines
}

func (m Model) renderColumnHeader() string {
	style := lipgloss.NewStyle().Bold(true).Foreground(m.theme.FaintText)
	h := fmt.Sprintf("%-*s %-*s %-*s %s", timeWidth, "TIME", levelWidth, "LEVEL", sourceWidth, "SOURCE", "MESSAGE")
	return style.Render(ansi.Truncate(h, m.width, ""))
}

// renderRows renders records from the scroll offset, including open detail
// rows, until the list area is full.
func (m Model) renderRows() []string {
	recs := m.snap.Records
	if len(recs) == 0 {
		msg := "waiting for logs…"
		if !m.snap.Connected() {
			msg = "not connected"
		}
		if m.snap.Total > 0 {
			msg = "no records match the current filters"
		}
		return []string{lipgloss.NewStyle().Foreground(m.theme.FaintText).Render(msg)}
	}

	budget := m.listHeight()
	var lines []string
	for i := m.offset; i < len(recs) && len(lines) < budget; i++ {
		rec := recs[i]
		lines = append(lines, m.renderRow(rec, i == m.cursor))
		if m.snap.Expanded.Has(rec.ID) {
			for _, d := range detailLines(rec) {
				lines = append(lines, lipgloss.NewStyle().Foreground(m.theme.FaintText).Render(ansi.Truncate("    "+d, m.width, "…")))
			}
		}
	}
	if len(lines) > budget {
		lines = lines[:budget]
	}
	return lines
}

func (m Model) renderRow(rec model.LogRecord, selected bool) string {
	level := lipgloss.NewStyle().Width(levelWidth).Foreground(m.theme.LevelColor(rec.Level)).Render(string(rec.Level))
	source := lipgloss.NewStyle().Foreground(m.theme.SourceColor(rec.SourceType)).
		Render(ansi.Truncate(sourceCell(rec), sourceWidth, "…"))
	source += strings.Repeat(" ", max(sourceWidth-ansi.StringWidth(ansi.Strip(source)), 0))

	msgWidth := max(m.width-timeWidth-levelWidth-sourceWidth-3, 10)
	message := ansi.Truncate(strings.ReplaceAll(rec.Message, "\n", " "), msgWidth, "…")

	row := fmt.Sprintf("%-*s %s %s %s", timeWidth, rec.Timestamp, level, source, message)
	if selected {
		return lipgloss.NewStyle().
			Background(m.theme.SelectedBackground).
			Foreground(m.theme.SelectedForeground).
			Width(m.width).
			Render(ansi.Strip(row))
	}
	return row
}

// sourceCell is the source column of a row.
func sourceCell(rec model.LogRecord) string {
	switch rec.SourceType {
	case model.SourceHTTP:
		if h := rec.HTTP; h != nil {
			return fmt.Sprintf("%s %d %s", h.Method, h.StatusCode, h.Path)
		}
		return rec.SourceName
	case model.SourceDocker:
		return "docker " + rec.SourceName
	case model.SourceJournald:
		return "unit " + rec.SourceName
	case model.SourceFile:
		return rec.SourceName
	case model.SourceUnknown:
		return rec.SourceName
	}
	return rec.SourceName
}

// detailLines is the expanded view of a record: the typed payload, the
// redacted attribute bag, and a reproduction command when the record
// carries a request.
func detailLines(rec model.LogRecord) []string {
	var lines []string
	switch rec.SourceType {
	case model.SourceHTTP:
		if h := rec.HTTP; h != nil {
			lines = append(lines, fmt.Sprintf("request  %s %s → %d", h.Method, h.Path, h.StatusCode))
			if h.DurationMS != nil {
				lines = append(lines, fmt.Sprintf("duration %.1fms", *h.DurationMS))
			}
			lines = appendField(lines, "client", h.ClientIP)
			lines = appendField(lines, "agent", h.UserAgent)
			lines = appendField(lines, "host", h.Host)
		}
	case model.SourceDocker:
		if d := rec.Docker; d != nil {
			lines = appendField(lines, "container", d.ContainerName)
			lines = appendField(lines, "id", d.ContainerID)
			lines = appendField(lines, "image", d.Image)
		}
	case model.SourceJournald:
		if j := rec.Journald; j != nil {
			lines = appendField(lines, "unit", j.Unit)
		}
	case model.SourceFile:
		lines = appendField(lines, "file", rec.SourceName)
		lines = appendField(lines, "dir", rec.DirectoryPath)
		if rec.File != nil && rec.File.Request != nil {
			r := rec.File.Request
			lines = append(lines, fmt.Sprintf("request  %s %s %s → %d", r.Method, r.Path, r.Protocol, r.Status))
			lines = appendField(lines, "client", r.ClientIP)
		}
	case model.SourceUnknown:
	}
	lines = appendField(lines, "service", rec.Service)
	lines = appendField(lines, "id", rec.ID)

	attrs, _ := extractor.Redact(rec.Attributes).(map[string]any)
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		lines = append(lines, k+" = "+attrText(attrs[k]))
	}

	if cmd, ok := extractor.Replay(rec); ok {
		lines = append(lines, "replay:")
		lines = append(lines, strings.Split(cmd, "\n")...)
	}
	return lines
}

func appendField(lines []string, label, value string) []string {
	if value == "" {
		return lines
	}
	return append(lines, fmt.Sprintf("%-8s %s", label, value))
}

func attrText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func (m Model) renderServicePicker() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(m.theme.HeaderForeground).Render("Select a service")
	lines := []string{title, ""}
	if len(m.services) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(m.theme.Warning).Render("no services available"))
	}
	for i, svc := range m.services {
		line := svc.Name
		if svc.Description != "" {
			line += lipgloss.NewStyle().Foreground(m.theme.FaintText).Render("  " + svc.Description)
		}
		lines = append(lines, m.pickerLine(line, i == m.pickerCursor))
	}
	lines = append(lines, "", lipgloss.NewStyle().Foreground(m.theme.FaintText).Render("enter select · esc back · q quit"))
	return strings.Join(lines, "\n")
}

func (m Model) renderSourcePicker() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(m.theme.HeaderForeground).Render("Filter sources")
	lines := []string{title, ""}
	if len(m.snap.Sources) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(m.theme.FaintText).Render("no sources yet"))
	}
	for i, name := range m.snap.Sources {
		box := "[ ] "
		if slices.Contains(m.snap.Query.Services, name) {
			box = "[x] "
		}
		lines = append(lines, m.pickerLine(box+name, i == m.pickerCursor))
	}
	lines = append(lines, "", lipgloss.NewStyle().Foreground(m.theme.FaintText).Render("enter toggle · c clear (all sources) · esc back"))
	return strings.Join(lines, "\n")
}

func (m Model) pickerLine(text string, selected bool) string {
	if selected {
		return lipgloss.NewStyle().
			Background(m.theme.SelectedBackground).
			Foreground(m.theme.SelectedForeground).
			Render("› " + ansi.Strip(text))
	}
	return "  " + text
}
