// Package tasks provides the task model and persistent task stores.
package tasks

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task is the sole persisted entity.
// The JSON shape matches the on-disk record: {id, title, dueDate, label, complete}.
type Task struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	DueDate  time.Time `json:"dueDate"`
	Label    string    `json:"label"`
	Complete bool      `json:"complete"`
}

// Label pairs a category name with its display color.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Labels is the closed set of category labels.
// Unknown labels are stored as-is and simply miss a display color.
var Labels = []Label{
	{Name: "Work", Color: "#EF4444"},
	{Name: "Personal", Color: "#3B82F6"},
	{Name: "Urgent", Color: "#F59E0B"},
}

// LabelColor returns the display color for a label name.
func LabelColor(name string) (string, bool) {
	for _, l := range Labels {
		if l.Name == name {
			return l.Color, true
		}
	}
	return "", false
}

// KnownLabel reports whether name belongs to the closed label set.
func KnownLabel(name string) bool {
	_, ok := LabelColor(name)
	return ok
}

// ErrEmptyTitle is returned when a task title is empty after trimming.
var ErrEmptyTitle = errors.New("task title is empty")

// ValidateTitle trims the title and rejects empty or whitespace-only values.
func ValidateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", ErrEmptyTitle
	}
	return trimmed, nil
}

// GenerateTaskID creates a unique task identifier.
func GenerateTaskID() string {
	u := uuid.New().String()
	return "task_" + strings.ReplaceAll(u[:8], "-", "")
}
