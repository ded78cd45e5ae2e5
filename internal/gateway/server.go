// Package gateway exposes the tracker over HTTP and WebSocket.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dohr-michael/jarvis/internal/events"
	"github.com/dohr-michael/jarvis/internal/gateway/ws"
	"github.com/dohr-michael/jarvis/internal/tasks"
	"github.com/dohr-michael/jarvis/internal/tracker"
)

// Server is the Jarvis gateway HTTP server.
type Server struct {
	httpServer *http.Server
	hub        *ws.Hub
	bus        *events.Bus
	tracker    *tracker.Tracker
	host       string
	port       int
}

// NewServer creates a new gateway server. voice may be nil when no
// recognizer backend is configured.
func NewServer(tr *tracker.Tracker, voice ws.VoiceHandler, bus *events.Bus, host string, port int) *Server {
	s := &Server{
		bus:     bus,
		tracker: tr,
		host:    host,
		port:    port,
	}
	s.hub = ws.NewHub(bus, voice, &wsTaskHandler{tracker: tr})

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	// Routes
	r.Get("/api/health", s.handleHealth)
	r.Get("/api/ws", s.hub.ServeWS)
	r.Get("/api/events", s.handleEvents)

	// API: tasks
	r.Get("/api/tasks", s.handleListTasks)
	r.Post("/api/tasks", s.handleAddTask)
	r.Post("/api/tasks/{id}/toggle", s.handleToggleTask)
	r.Delete("/api/tasks/{id}", s.handleDeleteTask)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: r,
	}

	return s
}

// Start begins listening. It blocks until the server is stopped.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	slog.Info("Jarvis gateway listening", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limitStr := r.URL.Query().Get("limit")
	limit := 50
	if limitStr != "" {
		fmt.Sscanf(limitStr, "%d", &limit)
	}

	history := s.bus.History(limit)

	w.Header().Set("Content-Type", "application/json")

	type eventJSON struct {
		ID        string             `json:"id"`
		Type      string             `json:"type"`
		Timestamp string             `json:"timestamp"`
		Source    events.EventSource `json:"source"`
		Payload   map[string]any     `json:"payload"`
	}

	result := make([]eventJSON, len(history))
	for i, e := range history {
		result[i] = eventJSON{
			ID:        e.ID,
			Type:      string(e.Type),
			Timestamp: e.Timestamp.Format(time.RFC3339Nano),
			Source:    e.Source,
			Payload:   e.Payload,
		}
	}

	json.NewEncoder(w).Encode(result)
}

// taskJSON is the wire shape of a task, the label color is resolved for
// clients that render it.
type taskJSON struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	DueDate  time.Time `json:"dueDate"`
	Label    string    `json:"label"`
	Color    string    `json:"color,omitempty"`
	Complete bool      `json:"complete"`
}

func toTaskJSON(t tasks.Task) taskJSON {
	color, _ := tasks.LabelColor(t.Label)
	return taskJSON{
		ID:       t.ID,
		Title:    t.Title,
		DueDate:  t.DueDate,
		Label:    t.Label,
		Color:    color,
		Complete: t.Complete,
	}
}

func toTaskListJSON(list []tasks.Task) []taskJSON {
	out := make([]taskJSON, len(list))
	for i, t := range list {
		out[i] = toTaskJSON(t)
	}
	return out
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	opts := tracker.ViewOptions{
		TodayOnly:     r.URL.Query().Get("today") == "true",
		ShowCompleted: r.URL.Query().Get("completed") == "true",
	}
	list := s.tracker.View(opts, time.Now())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTaskListJSON(list))
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title   string `json:"title"`
		DueDate string `json:"dueDate"`
		Label   string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	due, err := parseDueDate(body.DueDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	task, err := s.tracker.Add(r.Context(), body.Title, due, body.Label)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toTaskJSON(task))
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	task, err := s.tracker.Toggle(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, tasks.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTaskJSON(task))
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.tracker.Remove(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseDueDate accepts a plain ISO date or a full timestamp. Plain dates
// resolve to noon local time.
func parseDueDate(value string) (time.Time, error) {
	if value == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, time.Local), nil
	}
	if day, err := time.ParseInLocation("2006-01-02", value, time.Local); err == nil {
		return time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, time.Local), nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid dueDate %q", value)
	}
	return ts, nil
}
