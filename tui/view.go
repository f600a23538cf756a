package tui

import (
	"fmt"
	"strings"

	"blockmerge/engine"
	"blockmerge/text"
	"blockmerge/types"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

// --- Styles ---
var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	faintStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))
	addedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	removedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	editedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("179"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	resolvedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
)

func (m Model) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	phase := m.coord.Phase()
	switch {
	case phase == engine.PhaseStreaming:
		return fmt.Sprintf("%s %s", m.spinner.View(), headerStyle.Render("Receiving replacement..."))
	case m.coord.Err() != nil:
		return errorStyle.Render("Stream failed")
	}

	segments := m.coord.Segments()
	resolved, total := m.coord.AggregateProgress()
	title := headerStyle.Render("Review")
	if len(segments) > 0 {
		seg := segments[m.segment]
		title += fmt.Sprintf("  segment %d/%d  lines %d+", m.segment+1, len(segments), seg.StartLine)
	}
	return title + faintStyle.Render(fmt.Sprintf("  resolved %d/%d  default %s", resolved, total, m.def))
}

func (m Model) renderFooter() string {
	var help []string
	for _, k := range m.keys.ShortHelp() {
		h := k.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	line := faintStyle.Render(m.clip(strings.Join(help, " • ")))
	if m.status != "" {
		line = m.clip(m.status) + "\n" + line
	}
	return line
}

// renderBody returns the viewport content and the line of the selected
// block, or -1 when nothing is selected.
func (m Model) renderBody() (string, int) {
	if err := m.coord.Err(); err != nil {
		return errorStyle.Render(err.Error()) + "\n\n" + faintStyle.Render("Press q to quit."), -1
	}
	if m.coord.Phase() != engine.PhaseReady {
		return m.renderPreviews(), -1
	}
	segments := m.coord.Segments()
	if len(segments) == 0 {
		return faintStyle.Render("Nothing to review."), -1
	}
	return m.renderSegment(segments[m.segment])
}

func (m Model) renderPreviews() string {
	var b strings.Builder
	for _, p := range m.coord.Previews() {
		b.WriteString(headerStyle.Render(fmt.Sprintf("Segment %d", p.Index+1)))
		b.WriteString("\n")
		if p.Pending {
			b.WriteString(pendingStyle.Render("  waiting..."))
			b.WriteString("\n")
			continue
		}
		for _, line := range p.Lines {
			b.WriteString(m.previewLine(line))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) previewLine(line text.PreviewLine) string {
	content := m.clip(fmt.Sprintf("%4d %s", line.Number, line.Text))
	switch line.Hint {
	case text.HintNew:
		return addedStyle.Render(content)
	case text.HintEdited:
		return editedStyle.Render(content)
	default:
		return faintStyle.Render(content)
	}
}

func (m Model) renderSegment(seg *engine.Segment) (string, int) {
	indices := seg.Decisions.Indices()
	selected := -1
	if m.cursor < len(indices) {
		selected = indices[m.cursor]
	}

	var lines []string
	focus := -1
	for i := range seg.Blocks {
		b := &seg.Blocks[i]
		if !b.IsModified() {
			for j, l := range b.Lines {
				lines = append(lines, faintStyle.Render(m.clip(fmt.Sprintf("%4d   %s", b.OriginalStart+j, l))))
			}
			continue
		}

		if b.Index == selected {
			focus = len(lines)
		}
		lines = append(lines, m.blockHeader(b, seg.Decisions.Get(b.Index), b.Index == selected))
		for j, l := range b.OriginalLines {
			lines = append(lines, removedStyle.Render(m.clip(fmt.Sprintf("%4d - %s", b.OriginalStart+j, l))))
		}
		for _, l := range b.ReplacementLines {
			lines = append(lines, addedStyle.Render(m.clip(fmt.Sprintf("     + %s", l))))
		}
	}
	return strings.Join(lines, "\n"), focus
}

func (m Model) blockHeader(b *text.Block, d types.Decision, selected bool) string {
	label := fmt.Sprintf("block %d", b.Index)
	if b.IsMove() {
		label += fmt.Sprintf(" (moved, pairs with %d)", b.MovePeer)
	}
	state := pendingStyle.Render("pending")
	if d.IsResolved() {
		state = resolvedStyle.Render(d.String())
	}
	if selected {
		return selectedStyle.Render("▶ "+label) + " " + state
	}
	return "  " + label + " " + state
}

func (m Model) clip(s string) string {
	if m.width <= 1 {
		return s
	}
	return truncate.StringWithTail(s, uint(m.width), "…")
}
