package tasks

import (
	"time"

	"github.com/dohr-michael/jarvis/internal/storage/kvstore"
)

// tasksKey is the single storage key holding the whole task collection.
const tasksKey = "tasks"

// FileStore persists the task collection as one JSON array under a single
// storage key. Every mutation rewrites the full collection atomically.
type FileStore struct {
	kv *kvstore.KVStore
}

// NewFileStore creates a FileStore rooted at baseDir.
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{kv: kvstore.NewKVStore(baseDir)}
}

// Init seeds the storage key with an empty list if it does not exist.
// Safe to call on every launch.
func (fs *FileStore) Init() error {
	fs.kv.Lock()
	defer fs.kv.Unlock()

	return storageErr("init", fs.kv.Ensure(tasksKey, []Task{}))
}

// load reads the full collection. A missing key yields an empty list.
// Callers must hold the appropriate lock.
func (fs *FileStore) load() ([]Task, error) {
	var list []Task
	if _, err := fs.kv.Get(tasksKey, &list); err != nil {
		return nil, storageErr("load tasks", err)
	}
	if list == nil {
		list = []Task{}
	}
	return list, nil
}

// Create appends a new incomplete task and persists the full list.
// Returns the freshly generated id.
func (fs *FileStore) Create(title string, dueDate time.Time, label string) (string, error) {
	fs.kv.Lock()
	defer fs.kv.Unlock()

	list, err := fs.load()
	if err != nil {
		return "", err
	}

	t := Task{
		ID:      GenerateTaskID(),
		Title:   title,
		DueDate: dueDate,
		Label:   label,
	}
	list = append(list, t)

	if err := fs.kv.Set(tasksKey, list); err != nil {
		return "", storageErr("write tasks", err)
	}
	return t.ID, nil
}

// GetAll returns every task in storage order.
func (fs *FileStore) GetAll() ([]Task, error) {
	fs.kv.RLock()
	defer fs.kv.RUnlock()

	return fs.load()
}

// GetByID returns the first task with the given id, or ErrNotFound.
func (fs *FileStore) GetByID(id string) (Task, error) {
	fs.kv.RLock()
	defer fs.kv.RUnlock()

	list, err := fs.load()
	if err != nil {
		return Task{}, err
	}
	for _, t := range list {
		if t.ID == id {
			return t, nil
		}
	}
	return Task{}, ErrNotFound
}

// SetComplete rewrites the matching task's complete flag and persists the
// full list. An absent id is a silent no-op. The refreshed list is returned.
func (fs *FileStore) SetComplete(id string, complete bool) ([]Task, error) {
	fs.kv.Lock()
	defer fs.kv.Unlock()

	list, err := fs.load()
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			list[i].Complete = complete
		}
	}

	if err := fs.kv.Set(tasksKey, list); err != nil {
		return nil, storageErr("write tasks", err)
	}
	return list, nil
}

// Delete removes the matching task (if any) and persists the filtered list.
func (fs *FileStore) Delete(id string) error {
	fs.kv.Lock()
	defer fs.kv.Unlock()

	list, err := fs.load()
	if err != nil {
		return err
	}

	filtered := make([]Task, 0, len(list))
	for _, t := range list {
		if t.ID != id {
			filtered = append(filtered, t)
		}
	}

	return storageErr("write tasks", fs.kv.Set(tasksKey, filtered))
}

// Close is a no-op for the file backend.
func (fs *FileStore) Close() error { return nil }
