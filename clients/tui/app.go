package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dohr-michael/jarvis/internal/events"
	"github.com/dohr-michael/jarvis/internal/tasks"
	"github.com/dohr-michael/jarvis/internal/tracker"
	"github.com/dohr-michael/jarvis/internal/voice"
)

// mode is the interaction mode of the app.
type mode int

const (
	modeList mode = iota
	modeAdd
	modeListening
)

// App is the root bubbletea model.
type App struct {
	tracker *tracker.Tracker
	capture *voice.Capture

	eventCh     <-chan events.Event
	unsubscribe func()

	mode   mode
	list   []tasks.Task
	cursor int
	opts   tracker.ViewOptions

	// Add form state
	titleInput textinput.Model
	dueInput   textinput.Model
	labelIdx   int
	focusDue   bool

	// Live transcript while listening
	transcript string

	status string
	width  int
	height int
}

// NewApp creates the TUI. capture may be nil when voice is not
// configured, the v key is then disabled.
func NewApp(tr *tracker.Tracker, capture *voice.Capture, bus *events.Bus) *App {
	title := textinput.New()
	title.Placeholder = "Task title..."
	title.Prompt = "> "
	title.CharLimit = 0

	due := textinput.New()
	due.Placeholder = time.Now().Format("2006-01-02")
	due.Prompt = "> "
	due.CharLimit = 10

	a := &App{
		tracker:    tr,
		capture:    capture,
		titleInput: title,
		dueInput:   due,
		labelIdx:   -1,
	}
	if bus != nil {
		a.eventCh, a.unsubscribe = bus.SubscribeChan(64)
	}
	a.reload()
	return a
}

// Init starts listening on the event bus.
func (a *App) Init() tea.Cmd {
	if a.eventCh != nil {
		return waitForEvent(a.eventCh)
	}
	return nil
}

// reload re-derives the visible list from the tracker cache.
func (a *App) reload() {
	a.list = a.tracker.View(a.opts, time.Now())
	if a.cursor >= len(a.list) {
		a.cursor = len(a.list) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// Update handles messages and updates state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case busEventMsg:
		return a.handleBusEvent(msg.event)

	case busClosedMsg:
		return a, nil

	case refreshedMsg:
		a.reload()
		return a, nil

	case extractedMsg:
		a.mode = modeList
		a.transcript = ""
		switch {
		case msg.err != nil && len(msg.created) == 0:
			a.status = ErrorStyle.Render(fmt.Sprintf("extraction failed: %v", msg.err))
		case msg.err != nil:
			a.status = ErrorStyle.Render(fmt.Sprintf("created %d task(s), some drafts failed", len(msg.created)))
		default:
			a.status = fmt.Sprintf("created %d task(s) from voice", len(msg.created))
		}
		a.reload()
		return a, nil

	case errMsg:
		a.status = ErrorStyle.Render(msg.err.Error())
		return a, nil

	case tea.KeyMsg:
		switch a.mode {
		case modeAdd:
			return a.updateAdd(msg)
		case modeListening:
			return a.updateListening(msg)
		default:
			return a.updateList(msg)
		}
	}

	return a, nil
}

// handleBusEvent refreshes on task mutations and mirrors the voice
// session, which may be driven by another frontend over the gateway.
func (a *App) handleBusEvent(e events.Event) (tea.Model, tea.Cmd) {
	switch e.Type {
	case events.EventTaskCreated, events.EventTaskToggled, events.EventTaskDeleted:
		a.reload()
	case events.EventVoicePartial:
		if p, ok := events.GetVoicePartialPayload(e); ok {
			a.transcript = p.Transcript
		}
	case events.EventVoiceError:
		if p, ok := events.GetVoiceErrorPayload(e); ok {
			a.status = ErrorStyle.Render("voice: " + p.Error)
		}
		if a.mode == modeListening {
			a.mode = modeList
			a.transcript = ""
		}
	case events.EventExtractCompleted:
		if p, ok := events.GetExtractCompletedPayload(e); ok {
			a.status = fmt.Sprintf("created %d task(s) from voice", p.Created)
		}
		a.reload()
	}
	return a, waitForEvent(a.eventCh)
}

func (a *App) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if a.unsubscribe != nil {
			a.unsubscribe()
		}
		return a, tea.Quit

	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}

	case "down", "j":
		if a.cursor < len(a.list)-1 {
			a.cursor++
		}

	case "t":
		a.opts.TodayOnly = !a.opts.TodayOnly
		a.reload()

	case "c":
		a.opts.ShowCompleted = !a.opts.ShowCompleted
		a.reload()

	case " ":
		if len(a.list) == 0 {
			break
		}
		id := a.list[a.cursor].ID
		return a, func() tea.Msg {
			if _, err := a.tracker.Toggle(context.Background(), id); err != nil {
				return errMsg{err: err}
			}
			return refreshedMsg{}
		}

	case "d":
		if len(a.list) == 0 {
			break
		}
		id := a.list[a.cursor].ID
		return a, func() tea.Msg {
			if err := a.tracker.Remove(context.Background(), id); err != nil {
				return errMsg{err: err}
			}
			return refreshedMsg{}
		}

	case "a":
		a.mode = modeAdd
		a.status = ""
		a.titleInput.SetValue("")
		a.dueInput.SetValue("")
		a.labelIdx = -1
		a.focusDue = false
		return a, a.titleInput.Focus()

	case "v":
		if a.capture == nil {
			a.status = MutedStyle.Render("voice capture not configured")
			break
		}
		if err := a.capture.Start(context.Background()); err != nil {
			a.status = ErrorStyle.Render(err.Error())
			break
		}
		a.mode = modeListening
		a.transcript = ""
		a.status = ""
	}

	return a, nil
}

func (a *App) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = modeList
		a.titleInput.Blur()
		a.dueInput.Blur()
		return a, nil

	case "tab":
		a.focusDue = !a.focusDue
		if a.focusDue {
			a.titleInput.Blur()
			return a, a.dueInput.Focus()
		}
		a.dueInput.Blur()
		return a, a.titleInput.Focus()

	case "ctrl+l":
		// Cycle label: none -> Work -> Personal -> Urgent -> none
		a.labelIdx++
		if a.labelIdx >= len(tasks.Labels) {
			a.labelIdx = -1
		}
		return a, nil

	case "enter":
		return a.submitAdd()
	}

	var cmd tea.Cmd
	if a.focusDue {
		a.dueInput, cmd = a.dueInput.Update(msg)
	} else {
		a.titleInput, cmd = a.titleInput.Update(msg)
	}
	return a, cmd
}

func (a *App) submitAdd() (tea.Model, tea.Cmd) {
	title := a.titleInput.Value()

	due := time.Now()
	if v := strings.TrimSpace(a.dueInput.Value()); v != "" {
		day, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			a.status = ErrorStyle.Render(fmt.Sprintf("invalid due date %q", v))
			return a, nil
		}
		due = day
	}
	due = time.Date(due.Year(), due.Month(), due.Day(), 12, 0, 0, 0, time.Local)

	label := ""
	if a.labelIdx >= 0 {
		label = tasks.Labels[a.labelIdx].Name
	}

	a.mode = modeList
	a.titleInput.Blur()
	a.dueInput.Blur()

	return a, func() tea.Msg {
		if _, err := a.tracker.Add(context.Background(), title, due, label); err != nil {
			return errMsg{err: err}
		}
		return refreshedMsg{}
	}
}

func (a *App) updateListening(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		// Discard the session without extracting.
		a.capture.Stop()
		a.mode = modeList
		a.transcript = ""
		a.status = MutedStyle.Render("voice capture discarded")
		return a, nil

	case "v", "enter":
		capture := a.capture
		tr := a.tracker
		return a, func() tea.Msg {
			transcript, err := capture.Stop()
			if err != nil {
				return extractedMsg{err: err}
			}
			if transcript == "" {
				return extractedMsg{}
			}
			created, err := tr.AddFromTranscript(context.Background(), transcript, time.Now(), time.Local)
			return extractedMsg{created: created, err: err}
		}

	case "ctrl+c":
		a.capture.Stop()
		if a.unsubscribe != nil {
			a.unsubscribe()
		}
		return a, tea.Quit
	}
	return a, nil
}

// View renders the application.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Jarvis Tasks"))
	b.WriteString("\n\n")

	switch a.mode {
	case modeAdd:
		b.WriteString(a.viewAdd())
	case modeListening:
		b.WriteString(a.viewListening())
	default:
		b.WriteString(a.viewList())
	}

	b.WriteString("\n")
	b.WriteString(a.viewStatusBar())
	return b.String()
}

func (a *App) viewList() string {
	if len(a.list) == 0 {
		return MutedStyle.Render("No tasks. Press a to add one.") + "\n"
	}

	var b strings.Builder
	for i, t := range a.list {
		cursor := "  "
		if i == a.cursor {
			cursor = CursorStyle.Render("> ")
		}

		check := "[ ]"
		title := t.Title
		if t.Complete {
			check = "[x]"
			title = DoneStyle.Render(title)
		}

		line := fmt.Sprintf("%s%s %s  %s", cursor, check, t.DueDate.Format("Jan 02"), title)
		if t.Label != "" {
			color, _ := tasks.LabelColor(t.Label)
			line += "  " + LabelStyle(color).Render(t.Label)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) viewAdd() string {
	label := "none"
	if a.labelIdx >= 0 {
		l := tasks.Labels[a.labelIdx]
		label = LabelStyle(l.Color).Render(l.Name)
	}

	var b strings.Builder
	b.WriteString("New task\n\n")
	b.WriteString("Title " + a.titleInput.View() + "\n")
	b.WriteString("Due   " + a.dueInput.View() + "\n")
	b.WriteString("Label " + label + "\n\n")
	b.WriteString(MutedStyle.Render("enter save · tab switch field · ctrl+l cycle label · esc cancel"))
	b.WriteString("\n")
	return b.String()
}

func (a *App) viewListening() string {
	var b strings.Builder
	b.WriteString(ListeningStyle.Render("● Listening..."))
	b.WriteString("\n\n")
	if a.transcript != "" {
		b.WriteString(a.transcript)
	} else {
		b.WriteString(MutedStyle.Render("Speak now"))
	}
	b.WriteString("\n\n")
	b.WriteString(MutedStyle.Render("v/enter stop and extract · esc discard"))
	b.WriteString("\n")
	return b.String()
}

func (a *App) viewStatusBar() string {
	filters := []string{}
	if a.opts.TodayOnly {
		filters = append(filters, "today")
	}
	if a.opts.ShowCompleted {
		filters = append(filters, "completed")
	}
	filter := "all"
	if len(filters) > 0 {
		filter = strings.Join(filters, "+")
	}

	help := "a add · space toggle · d delete · t today · c completed · v voice · q quit"
	left := fmt.Sprintf("%d task(s) · %s", len(a.list), filter)
	if a.status != "" {
		left = a.status
	}

	bar := left + "  " + MutedStyle.Render(help)
	if a.width > 0 {
		return StatusBarStyle.Width(a.width).Render(bar)
	}
	return StatusBarStyle.Render(bar)
}

var _ tea.Model = (*App)(nil)
