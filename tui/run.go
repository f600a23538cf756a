package tui

import (
	"context"
	"fmt"

	"blockmerge/engine"
	"blockmerge/source"
	"blockmerge/types"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the review UI while stream feeds the coordinator and returns how
// the user ended the review. Applying the replacements is left to the caller.
func Run(ctx context.Context, coord *engine.Coordinator, stream engine.ChunkStream, def types.Decision) (Outcome, error) {
	var p *tea.Program
	send := func(msg tea.Msg) { p.Send(msg) }
	options := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if source.StdinPiped() {
		// The replacement came in on stdin; keys come from the terminal.
		options = append(options, tea.WithInputTTY())
	}
	p = tea.NewProgram(New(coord, def, send), options...)

	go func() {
		err := coord.Run(ctx, stream, func(ev engine.Event) {
			p.Send(streamEventMsg{event: ev})
		})
		p.Send(streamDoneMsg{err: err})
	}()

	final, err := p.Run()
	stream.Cancel()
	if err != nil {
		coord.Cancel()
		return Outcome{}, fmt.Errorf("review UI: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return Outcome{}, fmt.Errorf("review UI returned %T", final)
	}
	return m.Outcome(), nil
}
