// Package jsonstore keeps whole-file JSON arrays on disk. It backs the
// degraded-mode mirror that serves reads while the primary database is down.
package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound is returned when no record matches a lookup.
var ErrNotFound = errors.New("jsonstore: record not found")

// Collection is a typed view over one JSON file holding an array of T.
// Reads always load the file fresh; writes replace it wholesale.
type Collection[T any] struct {
	path string
	mu   sync.Mutex
}

// Open returns the collection stored at dir/name.json. The file is created
// lazily on first write.
func Open[T any](dir, name string) *Collection[T] {
	return &Collection[T]{path: filepath.Join(dir, name+".json")}
}

// Path returns the backing file path.
func (c *Collection[T]) Path() string {
	return c.path
}

// Load returns every record. A missing or empty file yields an empty slice.
func (c *Collection[T]) Load() ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.read()
}

// Find returns the first record accepted by match.
func (c *Collection[T]) Find(match func(T) bool) (T, error) {
	var zero T
	items, err := c.Load()
	if err != nil {
		return zero, err
	}
	for _, item := range items {
		if match(item) {
			return item, nil
		}
	}
	return zero, ErrNotFound
}

// Filter returns the records accepted by match, in file order.
func (c *Collection[T]) Filter(match func(T) bool) ([]T, error) {
	items, err := c.Load()
	if err != nil {
		return nil, err
	}
	result := make([]T, 0, len(items))
	for _, item := range items {
		if match == nil || match(item) {
			result = append(result, item)
		}
	}
	return result, nil
}

// Mutate loads the records, applies fn and writes the result back. The file
// is left untouched when fn returns an error.
func (c *Collection[T]) Mutate(fn func([]T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.read()
	if err != nil {
		return err
	}
	updated, err := fn(items)
	if err != nil {
		return err
	}
	return c.write(updated)
}

// Upsert replaces the record for which same returns true, or appends item.
func (c *Collection[T]) Upsert(item T, same func(T) bool) error {
	return c.Mutate(func(items []T) ([]T, error) {
		for i := range items {
			if same(items[i]) {
				items[i] = item
				return items, nil
			}
		}
		return append(items, item), nil
	})
}

// Delete removes every record accepted by match and reports how many were
// removed.
func (c *Collection[T]) Delete(match func(T) bool) (int, error) {
	removed := 0
	err := c.Mutate(func(items []T) ([]T, error) {
		kept := items[:0]
		for _, item := range items {
			if match(item) {
				removed++
				continue
			}
			kept = append(kept, item)
		}
		return kept, nil
	})
	return removed, err
}

func (c *Collection[T]) read() ([]T, error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", filepath.Base(c.path), err)
	}
	if len(raw) == 0 {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(c.path), err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *Collection[T]) write(items []T) error {
	if items == nil {
		items = []T{}
	}
	payload, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(c.path), err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("prepare data directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filepath.Base(c.path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", filepath.Base(c.path), err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", filepath.Base(c.path), err)
	}
	return nil
}
