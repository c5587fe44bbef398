package repository

import (
	"strings"

	"github.com/noah-isme/campus-placement-api/pkg/jsonstore"
)

// mirror is the JSON-file copy of one entity collection.
type mirror[T any] struct {
	col *jsonstore.Collection[T]
	id  func(*T) string
}

func newMirror[T any](dataDir, name string, id func(*T) string) mirror[T] {
	return mirror[T]{col: jsonstore.Open[T](dataDir, name), id: id}
}

func (m mirror[T]) all() ([]T, error) {
	return m.col.Load()
}

func (m mirror[T]) filter(match func(*T) bool) ([]T, error) {
	return m.col.Filter(func(item T) bool { return match(&item) })
}

func (m mirror[T]) findBy(match func(*T) bool) (*T, error) {
	item, err := m.col.Find(func(item T) bool { return match(&item) })
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (m mirror[T]) find(id string) (*T, error) {
	return m.findBy(func(item *T) bool { return m.id(item) == id })
}

func (m mirror[T]) upsert(item *T) error {
	id := m.id(item)
	return m.col.Upsert(*item, func(existing T) bool { return m.id(&existing) == id })
}

// insert appends item, failing with ErrDuplicate when unique reports a clash.
func (m mirror[T]) insert(item *T, unique func(existing, candidate *T) bool) error {
	return m.col.Mutate(func(items []T) ([]T, error) {
		for i := range items {
			if m.id(&items[i]) == m.id(item) || (unique != nil && unique(&items[i], item)) {
				return nil, ErrDuplicate
			}
		}
		return append(items, *item), nil
	})
}

// update replaces the stored record and fails when it does not exist.
func (m mirror[T]) update(item *T) error {
	id := m.id(item)
	return m.col.Mutate(func(items []T) ([]T, error) {
		for i := range items {
			if m.id(&items[i]) == id {
				items[i] = *item
				return items, nil
			}
		}
		return nil, jsonstore.ErrNotFound
	})
}

func (m mirror[T]) remove(id string) (bool, error) {
	n, err := m.col.Delete(func(item T) bool { return m.id(&item) == id })
	return n > 0, err
}

func (m mirror[T]) removeWhere(match func(*T) bool) (int, error) {
	return m.col.Delete(func(item T) bool { return match(&item) })
}

func equalFold(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}

// modify applies fn to the stored record with id.
func (m mirror[T]) modify(id string, fn func(*T)) error {
	return m.col.Mutate(func(items []T) ([]T, error) {
		for i := range items {
			if m.id(&items[i]) == id {
				fn(&items[i])
				return items, nil
			}
		}
		return nil, jsonstore.ErrNotFound
	})
}
