package chat

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// KeyAck acknowledges with a single keypress read through bubbletea, which
// puts a terminal input into raw mode for the duration of the wait.
type KeyAck struct {
	In  io.Reader
	Out io.Writer
}

// ackModel quits on the first key. Ctrl+C is reported as an interrupt.
type ackModel struct {
	interrupted bool
	pressed     bool
}

func (m ackModel) Init() tea.Cmd { return nil }

func (m ackModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		if key.Type == tea.KeyCtrlC {
			m.interrupted = true
		}
		m.pressed = true
		return m, tea.Quit
	}
	return m, nil
}

func (m ackModel) View() string { return "" }

// Wait blocks until any key is pressed.
func (k KeyAck) Wait(ctx context.Context) error {
	p := tea.NewProgram(ackModel{},
		tea.WithContext(ctx),
		tea.WithInput(k.In),
		tea.WithOutput(k.Out),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	)

	final, err := p.Run()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read keypress: %w", err)
	}
	if m, ok := final.(ackModel); ok && m.interrupted {
		return ErrInterrupted
	}
	return nil
}
