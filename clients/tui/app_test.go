package tui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dohr-michael/jarvis/internal/tasks"
	"github.com/dohr-michael/jarvis/internal/tracker"
	"github.com/dohr-michael/jarvis/internal/voice"
)

func newTestApp(t *testing.T) (*App, *tracker.Tracker) {
	t.Helper()
	store := tasks.NewFileStore(filepath.Join(t.TempDir(), "store"))
	tr := tracker.New(store, nil, nil)
	if err := tr.Load(t.Context()); err != nil {
		t.Fatalf("load tracker: %v", err)
	}
	return NewApp(tr, nil, nil), tr
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestAppView_Empty(t *testing.T) {
	app, _ := newTestApp(t)
	view := app.View()
	if !strings.Contains(view, "No tasks") {
		t.Errorf("empty view: %q", view)
	}
}

func TestAppView_ListAndFilters(t *testing.T) {
	app, tr := newTestApp(t)
	due := time.Date(time.Now().Year()+1, 6, 11, 12, 0, 0, 0, time.Local)

	task, err := tr.Add(t.Context(), "Submit the report", due, "Urgent")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	app.reload()

	view := app.View()
	if !strings.Contains(view, "Submit the report") {
		t.Errorf("view missing task: %q", view)
	}

	// Completed tasks disappear unless the filter shows them
	if _, err := tr.Toggle(t.Context(), task.ID); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	app.reload()
	if strings.Contains(app.View(), "Submit the report") {
		t.Error("completed task should be hidden by default")
	}

	app.Update(key("c"))
	if !strings.Contains(app.View(), "Submit the report") {
		t.Error("completed task should show with the completed filter")
	}

	// Due date next year, today filter hides it
	app.Update(key("t"))
	if strings.Contains(app.View(), "Submit the report") {
		t.Error("future task should be hidden by the today filter")
	}
}

func TestAppToggleViaKeys(t *testing.T) {
	app, tr := newTestApp(t)
	task, _ := tr.Add(t.Context(), "Call mom", time.Now(), "Personal")
	app.reload()

	_, cmd := app.Update(key(" "))
	if cmd == nil {
		t.Fatal("expected toggle command")
	}
	if msg := cmd(); msg == nil {
		t.Fatal("expected toggle result message")
	}

	got, ok := tr.Get(task.ID)
	if !ok || !got.Complete {
		t.Errorf("task not toggled: %+v", got)
	}
}

func TestAppAddForm(t *testing.T) {
	app, tr := newTestApp(t)

	app.Update(key("a"))
	if app.mode != modeAdd {
		t.Fatalf("mode: got %v, want add", app.mode)
	}

	app.titleInput.SetValue("Water the plants")
	app.dueInput.SetValue("2030-01-02")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected submit command")
	}
	cmd()

	list := tr.Tasks()
	if len(list) != 1 || list[0].Title != "Water the plants" {
		t.Fatalf("tasks: %+v", list)
	}
	want := time.Date(2030, 1, 2, 12, 0, 0, 0, time.Local)
	if !list[0].DueDate.Equal(want) {
		t.Errorf("due: got %v, want %v", list[0].DueDate, want)
	}
}

func TestAppAddForm_InvalidDate(t *testing.T) {
	app, _ := newTestApp(t)

	app.Update(key("a"))
	app.titleInput.SetValue("x")
	app.dueInput.SetValue("soon")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("invalid date must not submit")
	}
	if !strings.Contains(app.status, "invalid due date") {
		t.Errorf("status: %q", app.status)
	}
}

func TestAppVoiceUnconfigured(t *testing.T) {
	app, _ := newTestApp(t)

	app.Update(key("v"))
	if app.mode != modeList {
		t.Error("voice key without capture must stay in list mode")
	}
	if !strings.Contains(app.View(), "voice capture not configured") {
		t.Errorf("status: %q", app.status)
	}
}

func TestAppListeningEscDiscards(t *testing.T) {
	store := tasks.NewFileStore(filepath.Join(t.TempDir(), "store"))
	tr := tracker.New(store, nil, nil)
	if err := tr.Load(t.Context()); err != nil {
		t.Fatalf("load tracker: %v", err)
	}
	rec := voice.NewStreamRecognizer()
	capture := voice.NewCapture(rec, nil, "en-US")
	defer capture.Destroy()
	app := NewApp(tr, capture, nil)

	app.Update(key("v"))
	if app.mode != modeListening {
		t.Fatalf("mode: got %v, want listening", app.mode)
	}
	if err := rec.Push("buy milk"); err != nil {
		t.Fatalf("push: %v", err)
	}

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd != nil {
		t.Fatal("discard must not run extraction")
	}
	if app.mode != modeList {
		t.Fatalf("mode: got %v, want list", app.mode)
	}
	if app.transcript != "" {
		t.Errorf("transcript kept after discard: %q", app.transcript)
	}
	if !strings.Contains(app.status, "discarded") {
		t.Errorf("status: %q", app.status)
	}

	// The session ended, nothing was created and nothing is left to stop.
	if _, err := capture.Stop(); !errors.Is(err, voice.ErrNotListening) {
		t.Fatalf("Stop after discard: got %v, want ErrNotListening", err)
	}
	if len(tr.Tasks()) != 0 {
		t.Error("discarded session must not create tasks")
	}
}
