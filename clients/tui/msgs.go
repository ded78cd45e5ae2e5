package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dohr-michael/jarvis/internal/events"
	"github.com/dohr-michael/jarvis/internal/tasks"
)

// busEventMsg carries an event bus event into the bubbletea loop.
type busEventMsg struct {
	event events.Event
}

// busClosedMsg signals that the event bus subscription ended.
type busClosedMsg struct{}

// refreshedMsg signals that a mutation finished and the list should be
// re-derived from the tracker.
type refreshedMsg struct{}

// extractedMsg reports the outcome of a voice-to-task run.
type extractedMsg struct {
	created []tasks.Task
	err     error
}

// errMsg carries an operational error into the status line.
type errMsg struct {
	err error
}

// waitForEvent returns a command that blocks on the bus channel.
func waitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return busClosedMsg{}
		}
		return busEventMsg{event: e}
	}
}
