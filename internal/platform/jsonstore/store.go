// Package jsonstore persists a slice of records as a single JSON file.
// Every collection is rewritten whole on save; mutations run under a
// per-collection mutex so concurrent load-mutate-save cycles cannot
// clobber each other.
package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Collection is a flat-file JSON store for a single record type.
type Collection[T any] struct {
	path string
	mu   sync.Mutex
}

// NewCollection creates a collection backed by the given file path.
// The file is created lazily on first save.
func NewCollection[T any](path string) *Collection[T] {
	return &Collection[T]{path: path}
}

// Path returns the backing file path.
func (c *Collection[T]) Path() string {
	return c.path
}

// Load reads and decodes the full collection. A missing or blank file
// is an empty collection, not an error.
func (c *Collection[T]) Load() ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

// SaveAll overwrites the backing file with the given records.
func (c *Collection[T]) SaveAll(items []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(items)
}

// Update runs fn inside a single locked load-mutate-save cycle. fn
// returns the new collection contents and whether a write is needed;
// returning false skips the save so read-only passes leave the file
// untouched.
func (c *Collection[T]) Update(fn func(items []T) ([]T, bool, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load()
	if err != nil {
		return err
	}
	updated, write, err := fn(items)
	if err != nil {
		return err
	}
	if !write {
		return nil
	}
	return c.save(updated)
}

func (c *Collection[T]) load() ([]T, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.path, err)
	}
	return items, nil
}

func (c *Collection[T]) save(items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.path, err)
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", c.path, err)
	}
	return nil
}
