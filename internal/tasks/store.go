package tasks

import (
	"errors"
	"fmt"
	"time"

	"github.com/dohr-michael/jarvis/internal/config"
)

// ErrNotFound is returned by GetByID when no task has the given id.
var ErrNotFound = errors.New("task not found")

// StorageError wraps a read or write failure against the persistence
// layer. Callers abort the operation and keep whatever state they had.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// Store defines the persistence interface for tasks.
//
// SetComplete and Delete silently no-op when the id is absent; callers that
// need an error must check existence with GetByID first. SetComplete returns
// the refreshed list so callers can rebuild their view from authoritative
// state instead of patching it.
type Store interface {
	Init() error
	Create(title string, dueDate time.Time, label string) (string, error)
	GetAll() ([]Task, error)
	GetByID(id string) (Task, error)
	SetComplete(id string, complete bool) ([]Task, error)
	Delete(id string) error
	Close() error
}

// Open creates the configured store backend.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(cfg.Path), nil
	case "sqlite":
		return NewSQLStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}
