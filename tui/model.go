package tui

import (
	"context"
	"errors"
	"fmt"

	"blockmerge/decision"
	"blockmerge/engine"
	"blockmerge/logger"
	"blockmerge/types"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Outcome is how the review ended
type Outcome struct {
	Replacements []types.Replacement
	Cancelled    bool
	Err          error
}

// --- Messages ---

type streamEventMsg struct{ event engine.Event }

type streamDoneMsg struct{ err error }

type decisionMsg struct {
	segment int
	decision.Notification
}

// --- Model ---

type Model struct {
	coord *engine.Coordinator
	def   types.Decision
	keys  KeyMap
	send  func(tea.Msg)

	spinner  spinner.Model
	viewport viewport.Model
	width    int
	height   int
	ready    bool

	segment    int
	cursor     int // position in the current segment's modified indices
	subscribed bool
	unsubs     []func()
	status     string
	outcome    Outcome
	done       bool
}

// New creates the review model. send delivers messages back into the running
// program; it may be nil when the model is driven directly.
func New(coord *engine.Coordinator, def types.Decision, send func(tea.Msg)) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		coord:    coord,
		def:      def,
		keys:     reviewKeys,
		send:     send,
		spinner:  s,
		viewport: viewport.New(80, 20),
		width:    80,
		height:   24,
	}
}

// Outcome returns how the review ended
func (m Model) Outcome() Outcome {
	return m.outcome
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-4, 3)
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case streamEventMsg:
		m.refresh()
		return m, nil

	case streamDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, engine.ErrSessionClosed) {
			var streamErr *engine.StreamError
			if !errors.As(msg.err, &streamErr) && !errors.Is(msg.err, context.Canceled) {
				m.status = "stream stopped: " + msg.err.Error()
			}
		}
		m.subscribe()
		m.refresh()
		return m, nil

	case decisionMsg:
		if msg.segment == m.segment {
			m.status = fmt.Sprintf("block %d: %s (%d/%d resolved)", msg.Index, msg.Decision, msg.Resolved, msg.Total)
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if m.coord.Phase() != engine.PhaseStreaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.coord.Cancel()
		m.unsubscribe()
		m.outcome = Outcome{Cancelled: true}
		m.done = true
		return m, tea.Quit
	}

	if m.coord.Phase() != engine.PhaseReady {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if key.Matches(msg, m.keys.Finalize) {
		reps, err := m.coord.Finalize(m.def)
		m.unsubscribe()
		m.outcome = Outcome{Replacements: reps, Err: err}
		m.done = true
		return m, tea.Quit
	}

	segments := m.coord.Segments()
	if len(segments) == 0 {
		return m, nil
	}
	seg := segments[m.segment]
	indices := seg.Decisions.Indices()

	switch {
	case key.Matches(msg, m.keys.Next):
		if m.cursor < len(indices)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Prev):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.NextSegment):
		m.segment = (m.segment + 1) % len(segments)
		m.cursor = 0
	case key.Matches(msg, m.keys.PrevSegment):
		m.segment = (m.segment - 1 + len(segments)) % len(segments)
		m.cursor = 0
	case key.Matches(msg, m.keys.Incoming):
		m.setCurrent(seg, indices, types.DecisionIncoming)
	case key.Matches(msg, m.keys.Current):
		m.setCurrent(seg, indices, types.DecisionCurrent)
	case key.Matches(msg, m.keys.Both):
		m.setCurrent(seg, indices, types.DecisionBoth)
	case key.Matches(msg, m.keys.Undo):
		if m.cursor < len(indices) {
			seg.Decisions.Undo(indices[m.cursor])
		}
	case key.Matches(msg, m.keys.AllIncoming):
		seg.Decisions.AcceptAllIncoming()
	case key.Matches(msg, m.keys.AllCurrent):
		seg.Decisions.AcceptAllCurrent()
	case key.Matches(msg, m.keys.Reset):
		seg.Decisions.ResetAll()
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	m.refresh()
	return m, nil
}

func (m *Model) setCurrent(seg *engine.Segment, indices []int, d types.Decision) {
	if m.cursor < len(indices) {
		seg.Decisions.Set(indices[m.cursor], d)
	}
}

// subscribe registers decision listeners once the segments exist. Listeners
// run inside Update, so they hand the message to the program asynchronously.
func (m *Model) subscribe() {
	if m.subscribed || m.send == nil {
		return
	}
	m.subscribed = true
	send := m.send
	for _, seg := range m.coord.Segments() {
		segment := seg.Index
		unsub := seg.Decisions.Subscribe(func(n decision.Notification) {
			go send(decisionMsg{segment: segment, Notification: n})
		})
		m.unsubs = append(m.unsubs, unsub)
	}
	logger.Debug("tui: subscribed to %d segments", len(m.unsubs))
}

func (m *Model) unsubscribe() {
	for _, unsub := range m.unsubs {
		unsub()
	}
	m.unsubs = nil
}

// refresh re-renders the scrollable body and keeps the selected block visible
func (m *Model) refresh() {
	body, focus := m.renderBody()
	m.viewport.SetContent(body)
	if focus < 0 {
		return
	}
	if focus < m.viewport.YOffset {
		m.viewport.SetYOffset(focus)
	} else if focus >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(focus - m.viewport.Height + 1)
	}
}
