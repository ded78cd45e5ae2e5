package tracker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dohr-michael/jarvis/internal/events"
	"github.com/dohr-michael/jarvis/internal/extract"
	"github.com/dohr-michael/jarvis/internal/tasks"
)

type fakeExtractor struct {
	drafts []extract.Draft
	err    error
}

func (f *fakeExtractor) Extract(ctx context.Context, transcript string, referenceDate time.Time, loc *time.Location) ([]extract.Draft, error) {
	return f.drafts, f.err
}

func newTracker(t *testing.T, extractor Extractor) *Tracker {
	t.Helper()
	store := tasks.NewFileStore(filepath.Join(t.TempDir(), "store"))
	tr := New(store, extractor, nil)
	if err := tr.Load(t.Context()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return tr
}

func TestTracker_AddAndGet(t *testing.T) {
	tr := newTracker(t, nil)
	due := time.Date(2024, 6, 11, 12, 0, 0, 0, time.Local)

	task, err := tr.Add(t.Context(), "Submit the report", due, "Urgent")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if task.ID == "" {
		t.Fatal("expected generated id")
	}

	got, ok := tr.Get(task.ID)
	if !ok {
		t.Fatal("task missing from cache")
	}
	if got.Title != "Submit the report" || got.Label != "Urgent" {
		t.Errorf("cached task: got %+v", got)
	}
}

func TestTracker_AddRejectsEmptyTitle(t *testing.T) {
	tr := newTracker(t, nil)

	_, err := tr.Add(t.Context(), "   ", time.Now(), "Work")
	if !errors.Is(err, tasks.ErrEmptyTitle) {
		t.Fatalf("Add: got %v, want ErrEmptyTitle", err)
	}
	if len(tr.Tasks()) != 0 {
		t.Error("rejected add must not touch the cache")
	}
}

func TestTracker_Toggle(t *testing.T) {
	tr := newTracker(t, nil)
	task, err := tr.Add(t.Context(), "Call mom", time.Now(), "Personal")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	toggled, err := tr.Toggle(t.Context(), task.ID)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !toggled.Complete {
		t.Error("expected complete after first toggle")
	}

	toggled, err = tr.Toggle(t.Context(), task.ID)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if toggled.Complete {
		t.Error("expected incomplete after second toggle")
	}
}

func TestTracker_ToggleUnknownID(t *testing.T) {
	tr := newTracker(t, nil)
	if _, err := tr.Toggle(t.Context(), "task_missing"); !errors.Is(err, tasks.ErrNotFound) {
		t.Fatalf("Toggle: got %v, want ErrNotFound", err)
	}
}

func TestTracker_Remove(t *testing.T) {
	tr := newTracker(t, nil)
	task, _ := tr.Add(t.Context(), "Water the plants", time.Now(), "Personal")

	if err := tr.Remove(t.Context(), task.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := tr.Get(task.ID); ok {
		t.Error("removed task still cached")
	}

	// Absent id is a no-op, not an error.
	if err := tr.Remove(t.Context(), task.ID); err != nil {
		t.Fatalf("Remove absent: %v", err)
	}
}

func TestTracker_AddFromTranscript(t *testing.T) {
	due := time.Date(2024, 6, 11, 12, 0, 0, 0, time.Local)
	tr := newTracker(t, &fakeExtractor{drafts: []extract.Draft{
		{Title: "Submit the report", DueDate: due, Label: "Urgent"},
		{Title: "Book flights", DueDate: due.AddDate(0, 0, 3), Label: "Personal"},
	}})

	created, err := tr.AddFromTranscript(t.Context(), "submit the report tomorrow, urgent, and book flights", time.Now(), time.Local)
	if err != nil {
		t.Fatalf("AddFromTranscript: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created: got %d, want 2", len(created))
	}
	if len(tr.Tasks()) != 2 {
		t.Errorf("cache: got %d tasks, want 2", len(tr.Tasks()))
	}
}

func TestTracker_AddFromTranscriptExtractionFailure(t *testing.T) {
	tr := newTracker(t, &fakeExtractor{err: extract.ErrMalformedResponse})

	created, err := tr.AddFromTranscript(t.Context(), "mumble", time.Now(), time.Local)
	if !errors.Is(err, extract.ErrMalformedResponse) {
		t.Fatalf("err: got %v, want ErrMalformedResponse", err)
	}
	if created != nil {
		t.Errorf("created: got %+v, want nil", created)
	}
	if len(tr.Tasks()) != 0 {
		t.Error("failed extraction must not create tasks")
	}
}

func TestTracker_AddFromTranscriptDraftsIndependent(t *testing.T) {
	// An invalid draft title fails its own create but not the others.
	due := time.Date(2024, 6, 11, 12, 0, 0, 0, time.Local)
	tr := newTracker(t, &fakeExtractor{drafts: []extract.Draft{
		{Title: "  ", DueDate: due, Label: "Work"},
		{Title: "Ship the release", DueDate: due, Label: "Work"},
	}})

	created, err := tr.AddFromTranscript(t.Context(), "ship it", time.Now(), time.Local)
	if !errors.Is(err, tasks.ErrEmptyTitle) {
		t.Fatalf("err: got %v, want ErrEmptyTitle for the failed draft", err)
	}
	if len(created) != 1 || created[0].Title != "Ship the release" {
		t.Fatalf("created: got %+v", created)
	}

	// The whitespace-only draft never reached the store.
	stored := tr.Tasks()
	if len(stored) != 1 || stored[0].Title != "Ship the release" {
		t.Fatalf("stored: got %+v", stored)
	}
}

func TestTracker_PublishesEvents(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()
	ch, unsubscribe := bus.SubscribeChan(16)
	defer unsubscribe()

	store := tasks.NewFileStore(filepath.Join(t.TempDir(), "store"))
	tr := New(store, nil, bus)
	if err := tr.Load(t.Context()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	task, _ := tr.Add(t.Context(), "Pay rent", time.Now(), "Urgent")
	tr.Toggle(t.Context(), task.ID)
	tr.Remove(t.Context(), task.ID)

	want := []events.EventType{events.EventTaskCreated, events.EventTaskToggled, events.EventTaskDeleted}
	for _, w := range want {
		select {
		case e := <-ch:
			if e.Type != w {
				t.Fatalf("event: got %v, want %v", e.Type, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %v", w)
		}
	}
}

func TestApplyView(t *testing.T) {
	loc := time.Local
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, loc)
	today := time.Date(2024, 6, 10, 12, 0, 0, 0, loc)
	tomorrow := today.AddDate(0, 0, 1)

	list := []tasks.Task{
		{ID: "a", Title: "later", DueDate: tomorrow},
		{ID: "b", Title: "done today", DueDate: today, Complete: true},
		{ID: "c", Title: "today", DueDate: today},
	}

	got := ApplyView(list, ViewOptions{}, now)
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "a" {
		t.Fatalf("default view: got %+v", ids(got))
	}

	got = ApplyView(list, ViewOptions{TodayOnly: true}, now)
	if len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("today view: got %+v", ids(got))
	}

	got = ApplyView(list, ViewOptions{ShowCompleted: true}, now)
	if len(got) != 3 {
		t.Fatalf("completed view: got %+v", ids(got))
	}

	// The input order is untouched.
	if list[0].ID != "a" || list[1].ID != "b" || list[2].ID != "c" {
		t.Error("ApplyView must not reorder its input")
	}
}

func TestApplyView_StableForEqualDueDates(t *testing.T) {
	due := time.Date(2024, 6, 10, 12, 0, 0, 0, time.Local)
	list := []tasks.Task{
		{ID: "first", DueDate: due, Title: "x"},
		{ID: "second", DueDate: due, Title: "y"},
	}
	got := ApplyView(list, ViewOptions{}, due)
	if got[0].ID != "first" || got[1].ID != "second" {
		t.Fatalf("insertion order not preserved: %+v", ids(got))
	}
}

func ids(list []tasks.Task) []string {
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = t.ID
	}
	return out
}
