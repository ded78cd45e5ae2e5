package gateway

import (
	"context"
	"time"

	"github.com/dohr-michael/jarvis/internal/tracker"
)

// wsTaskHandler implements ws.TaskHandler on top of the tracker.
type wsTaskHandler struct {
	tracker *tracker.Tracker
}

func (h *wsTaskHandler) Add(ctx context.Context, title, dueDate, label string) (any, error) {
	due, err := parseDueDate(dueDate)
	if err != nil {
		return nil, err
	}
	task, err := h.tracker.Add(ctx, title, due, label)
	if err != nil {
		return nil, err
	}
	return toTaskJSON(task), nil
}

func (h *wsTaskHandler) List(ctx context.Context, todayOnly, showCompleted bool) (any, error) {
	opts := tracker.ViewOptions{TodayOnly: todayOnly, ShowCompleted: showCompleted}
	return toTaskListJSON(h.tracker.View(opts, time.Now())), nil
}
