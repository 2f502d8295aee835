// Package persistence provides durable storage for the simulation: a
// file-per-key JSON store for live subsystem state and a SQLite archive for
// the event history.
package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by Load when no record exists for a key.
var ErrNotFound = errors.New("persistence: record not found")

// FileStore keeps one JSON file per key inside a single directory. Writes
// replace the whole record through a temp file and rename, so a crash never
// leaves a half-written file behind.
type FileStore struct {
	dir string
}

// OpenFileStore creates the directory if needed and returns a store over it.
func OpenFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory backing this store.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Save marshals v and atomically replaces the record for key.
func (s *FileStore) Save(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("temp file for %s: %w", key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

// Load unmarshals the record for key into v.
func (s *FileStore) Load(key string, v any) error {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

// LoadAll scans the directory and calls fn for each stored key with its raw
// JSON. Unreadable files abort the scan; the caller decides what is fatal.
func (s *FileStore) LoadAll(fn func(key string, data []byte) error) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("scan %s: %w", s.dir, err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		key := strings.TrimSuffix(name, ".json")
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := fn(key, data); err != nil {
			return fmt.Errorf("load %s: %w", key, err)
		}
	}
	return nil
}

// Delete removes the record for key. Missing records are not an error.
func (s *FileStore) Delete(key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
