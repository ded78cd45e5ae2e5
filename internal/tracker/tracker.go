// Package tracker coordinates the task store, the extraction client and
// the event bus behind a single serialized mutation surface.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dohr-michael/jarvis/internal/events"
	"github.com/dohr-michael/jarvis/internal/extract"
	"github.com/dohr-michael/jarvis/internal/tasks"
)

// Extractor turns a transcript into task drafts.
type Extractor interface {
	Extract(ctx context.Context, transcript string, referenceDate time.Time, loc *time.Location) ([]extract.Draft, error)
}

// ViewOptions selects which tasks a view includes.
type ViewOptions struct {
	TodayOnly     bool
	ShowCompleted bool
}

// Tracker owns the in-memory task cache and serializes every mutation.
// The cache is only ever re-derived from store responses, never patched
// from what a mutation was expected to do.
type Tracker struct {
	store     tasks.Store
	extractor Extractor
	bus       *events.Bus

	mu    sync.Mutex
	cache []tasks.Task
}

// New creates a Tracker. extractor and bus may be nil, voice-to-task
// and event publication are then disabled.
func New(store tasks.Store, extractor Extractor, bus *events.Bus) *Tracker {
	return &Tracker{store: store, extractor: extractor, bus: bus}
}

// Load seeds the store and fills the cache. A load failure leaves the
// tracker usable with an empty cache.
func (t *Tracker) Load(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Init(); err != nil {
		slog.Error("tracker: init store", "error", err)
		t.cache = []tasks.Task{}
		return fmt.Errorf("init store: %w", err)
	}
	list, err := t.store.GetAll()
	if err != nil {
		slog.Error("tracker: load tasks", "error", err)
		t.cache = []tasks.Task{}
		return fmt.Errorf("load tasks: %w", err)
	}
	t.cache = list
	return nil
}

// Tasks returns a snapshot of the cached task list.
func (t *Tracker) Tasks() []tasks.Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]tasks.Task, len(t.cache))
	copy(out, t.cache)
	return out
}

// Get returns a cached task by id.
func (t *Tracker) Get(id string) (tasks.Task, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, task := range t.cache {
		if task.ID == id {
			return task, true
		}
	}
	return tasks.Task{}, false
}

// Add validates the title and creates a task.
func (t *Tracker) Add(ctx context.Context, title string, dueDate time.Time, label string) (tasks.Task, error) {
	return t.create(ctx, title, dueDate, label, events.TaskSourceManual)
}

// create is the single persistence path for new tasks, every caller
// gets the same title validation before the store is touched.
func (t *Tracker) create(ctx context.Context, title string, dueDate time.Time, label string, via events.TaskSource) (tasks.Task, error) {
	title, err := tasks.ValidateTitle(title)
	if err != nil {
		return tasks.Task{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	id, err := t.store.Create(title, dueDate, label)
	if err != nil {
		return tasks.Task{}, fmt.Errorf("create task: %w", err)
	}
	if err := t.refreshLocked(); err != nil {
		return tasks.Task{}, err
	}

	created, err := t.store.GetByID(id)
	if err != nil {
		return tasks.Task{}, fmt.Errorf("read back task %s: %w", id, err)
	}

	t.publish(events.TaskCreatedPayload{
		TaskID:  created.ID,
		Title:   created.Title,
		DueDate: created.DueDate,
		Label:   created.Label,
		Via:     via,
	})
	return created, nil
}

// AddFromTranscript extracts drafts from a transcript and creates a task
// per draft. Draft creation is independent, one failing draft does not
// discard the remaining ones. Tasks that did persist are returned even
// when some drafts failed, the failures come back joined in the error.
func (t *Tracker) AddFromTranscript(ctx context.Context, transcript string, referenceDate time.Time, loc *time.Location) ([]tasks.Task, error) {
	if t.extractor == nil {
		return nil, fmt.Errorf("extraction not configured")
	}

	started := time.Now()
	drafts, err := t.extractor.Extract(ctx, transcript, referenceDate, loc)
	if err != nil {
		t.publish(events.ExtractFailedPayload{Transcript: transcript, Error: err.Error()})
		return nil, err
	}

	var created []tasks.Task
	var draftErrs []error
	for _, draft := range drafts {
		task, err := t.create(ctx, draft.Title, draft.DueDate, draft.Label, events.TaskSourceVoice)
		if err != nil {
			slog.Error("tracker: create draft", "title", draft.Title, "error", err)
			draftErrs = append(draftErrs, fmt.Errorf("draft %q: %w", draft.Title, err))
			continue
		}
		created = append(created, task)
	}

	t.publish(events.ExtractCompletedPayload{
		Transcript: transcript,
		Drafts:     len(drafts),
		Created:    len(created),
		Duration:   time.Since(started),
	})
	return created, errors.Join(draftErrs...)
}

// Toggle flips the completion flag of a task. The new flag is computed
// from the store's current record, not from the cache.
func (t *Tracker) Toggle(ctx context.Context, id string) (tasks.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, err := t.store.GetByID(id)
	if err != nil {
		return tasks.Task{}, fmt.Errorf("toggle task %s: %w", id, err)
	}

	list, err := t.store.SetComplete(id, !current.Complete)
	if err != nil {
		return tasks.Task{}, fmt.Errorf("toggle task %s: %w", id, err)
	}
	t.cache = list

	toggled := current
	toggled.Complete = !current.Complete
	for _, task := range list {
		if task.ID == id {
			toggled = task
			break
		}
	}

	t.publish(events.TaskToggledPayload{TaskID: id, Complete: toggled.Complete})
	return toggled, nil
}

// Remove deletes a task. Removing an absent id is not an error.
func (t *Tracker) Remove(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Delete(id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	if err := t.refreshLocked(); err != nil {
		return err
	}

	t.publish(events.TaskDeletedPayload{TaskID: id})
	return nil
}

// refreshLocked re-derives the cache from the store. Callers hold t.mu.
func (t *Tracker) refreshLocked() error {
	list, err := t.store.GetAll()
	if err != nil {
		return fmt.Errorf("refresh tasks: %w", err)
	}
	t.cache = list
	return nil
}

// View returns the cached tasks filtered and sorted for display.
func (t *Tracker) View(opts ViewOptions, now time.Time) []tasks.Task {
	return ApplyView(t.Tasks(), opts, now)
}

// ApplyView sorts tasks by due date ascending and applies the view
// filters. The input slice is not modified.
func ApplyView(list []tasks.Task, opts ViewOptions, now time.Time) []tasks.Task {
	out := make([]tasks.Task, 0, len(list))
	for _, task := range list {
		if !opts.ShowCompleted && task.Complete {
			continue
		}
		if opts.TodayOnly && !sameDay(task.DueDate, now) {
			continue
		}
		out = append(out, task)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out
}

func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func (t *Tracker) publish(payload events.EventPayload) {
	if t.bus == nil {
		return
	}
	t.bus.Publish(events.NewTypedEvent(events.SourceTracker, payload))
}
