package jsonstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func TestCollectionMissingFileIsEmpty(t *testing.T) {
	col := Open[record](t.TempDir(), "internships")

	items, err := col.Load()
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = col.Find(func(r record) bool { return r.ID == "INT001" })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCollectionUpsertAndDelete(t *testing.T) {
	dir := t.TempDir()
	col := Open[record](dir, "internships")
	byID := func(id string) func(record) bool {
		return func(r record) bool { return r.ID == id }
	}

	require.NoError(t, col.Upsert(record{ID: "INT001", Title: "Backend"}, byID("INT001")))
	require.NoError(t, col.Upsert(record{ID: "INT002", Title: "Frontend"}, byID("INT002")))
	require.NoError(t, col.Upsert(record{ID: "INT001", Title: "Backend Go"}, byID("INT001")))

	items, err := col.Load()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Backend Go", items[0].Title)

	removed, err := col.Delete(byID("INT002"))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	reopened := Open[record](dir, "internships")
	items, err = reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, []record{{ID: "INT001", Title: "Backend Go"}}, items)
}

func TestCollectionCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ipps.json"), []byte("{not json"), 0o644))

	col := Open[record](dir, "ipps")
	_, err := col.Load()
	require.Error(t, err)

	err = col.Mutate(func(items []record) ([]record, error) { return items, nil })
	require.Error(t, err)
	raw, _ := os.ReadFile(col.Path())
	assert.Equal(t, "{not json", string(raw))
}
