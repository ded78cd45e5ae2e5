// Package kvstore provides a small file-backed key-value store.
// Each key maps to one JSON document persisted as its own file; writes
// replace the whole document atomically via temp file + rename.
package kvstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// KVStore persists JSON documents under baseDir, one file per key.
type KVStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewKVStore creates a KVStore rooted at baseDir.
func NewKVStore(baseDir string) *KVStore {
	return &KVStore{baseDir: baseDir}
}

// Lock acquires an exclusive lock. Callers hold it across read-modify-write cycles.
func (kv *KVStore) Lock() { kv.mu.Lock() }

// Unlock releases an exclusive lock.
func (kv *KVStore) Unlock() { kv.mu.Unlock() }

// RLock acquires a shared read lock.
func (kv *KVStore) RLock() { kv.mu.RLock() }

// RUnlock releases a shared read lock.
func (kv *KVStore) RUnlock() { kv.mu.RUnlock() }

// Path returns the file path backing a key.
func (kv *KVStore) Path(key string) string {
	return filepath.Join(kv.baseDir, key+".json")
}

// Ensure seeds the key with defaultValue if it does not exist yet.
// Existing data is never touched, so calling it repeatedly is safe.
func (kv *KVStore) Ensure(key string, defaultValue any) error {
	if _, err := os.Stat(kv.Path(key)); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", key, err)
	}

	if err := os.MkdirAll(kv.baseDir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	return kv.Set(key, defaultValue)
}

// Get reads and unmarshals the document for key into out.
// Returns false with a nil error when the key does not exist.
func (kv *KVStore) Get(key string, out any) (bool, error) {
	data, err := os.ReadFile(kv.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", key, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

// Set atomically replaces the document for key using a temp file + rename.
func (kv *KVStore) Set(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	if err := os.MkdirAll(kv.baseDir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	path := kv.Path(key)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s tmp: %w", key, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", key, err)
	}

	return nil
}
