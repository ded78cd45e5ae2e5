package tasks

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqlSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id       TEXT PRIMARY KEY,
	title    TEXT NOT NULL,
	due_date TEXT NOT NULL,
	label    TEXT NOT NULL DEFAULT '',
	complete INTEGER NOT NULL DEFAULT 0
);`

// SQLStore persists tasks in an embedded SQLite database keyed by task id,
// avoiding the full-collection rewrite of the file backend.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore opens (or creates) the database at path.
func NewSQLStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storageErr("open sqlite", err)
	}
	// Mutations are serialized through a single connection.
	db.SetMaxOpenConns(1)
	return &SQLStore{db: db}, nil
}

// Init creates the schema if it does not exist. Safe to call on every launch.
func (s *SQLStore) Init() error {
	if _, err := s.db.Exec(sqlSchema); err != nil {
		return storageErr("init schema", err)
	}
	return nil
}

// Create inserts a new incomplete task and returns its id.
func (s *SQLStore) Create(title string, dueDate time.Time, label string) (string, error) {
	id := GenerateTaskID()
	_, err := s.db.Exec(
		`INSERT INTO tasks (id, title, due_date, label, complete) VALUES (?, ?, ?, ?, 0)`,
		id, title, dueDate.Format(time.RFC3339Nano), label,
	)
	if err != nil {
		return "", storageErr("insert task", err)
	}
	return id, nil
}

// GetAll returns every task in insertion order.
func (s *SQLStore) GetAll() ([]Task, error) {
	rows, err := s.db.Query(`SELECT id, title, due_date, label, complete FROM tasks ORDER BY rowid`)
	if err != nil {
		return nil, storageErr("query tasks", err)
	}
	defer rows.Close()

	list := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("scan tasks", err)
	}
	return list, nil
}

// GetByID returns the task with the given id, or ErrNotFound.
func (s *SQLStore) GetByID(id string) (Task, error) {
	row := s.db.QueryRow(`SELECT id, title, due_date, label, complete FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, err
	}
	return t, nil
}

// SetComplete updates the complete flag. An absent id is a silent no-op.
// The refreshed list is returned.
func (s *SQLStore) SetComplete(id string, complete bool) ([]Task, error) {
	v := 0
	if complete {
		v = 1
	}
	if _, err := s.db.Exec(`UPDATE tasks SET complete = ? WHERE id = ?`, v, id); err != nil {
		return nil, storageErr("update task", err)
	}
	return s.GetAll()
}

// Delete removes the task with the given id. Absent ids are a no-op.
func (s *SQLStore) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return storageErr("delete task", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (Task, error) {
	var t Task
	var due string
	var complete int
	if err := r.Scan(&t.ID, &t.Title, &due, &t.Label, &complete); err != nil {
		if err == sql.ErrNoRows {
			return Task{}, err
		}
		return Task{}, fmt.Errorf("scan task: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339Nano, due)
	if err != nil {
		return Task{}, fmt.Errorf("parse due date %q: %w", due, err)
	}
	t.DueDate = parsed
	t.Complete = complete != 0
	return t, nil
}
