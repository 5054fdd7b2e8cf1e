package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibdb/src/internal/entry"
)

func newEntry(label, typ string) *entry.Entry {
	f := entry.NewFields()
	f.Set(entry.KeyType, typ)
	return entry.New(label, f)
}

func newDB(t *testing.T) *Database {
	t.Helper()
	d := Open(filepath.Join(t.TempDir(), "lit", "literature.yaml"), nil)
	created, err := d.Create()
	require.NoError(t, err)
	require.True(t, created)
	return d
}

func TestLoad_MissingFile(t *testing.T) {
	d := Open(filepath.Join(t.TempDir(), "none.yaml"), nil)
	assert.False(t, d.Exists())
	err := d.Load()
	assert.True(t, errors.Is(err, ErrNotInitialized))
	assert.ErrorIs(t, d.Update(entry.NewBatch()), ErrNotLoaded)
	assert.ErrorIs(t, d.Save(), ErrNotLoaded)
}

func TestUpdateSaveReload_PreservesOrder(t *testing.T) {
	d := newDB(t)
	require.NoError(t, d.Update(entry.NewBatch(newEntry("b", "book"), newEntry("a", "article"))))
	assert.True(t, d.Dirty())
	require.NoError(t, d.Save())
	assert.False(t, d.Dirty())

	raw, err := os.ReadFile(d.Path())
	require.NoError(t, err)
	assert.Equal(t,
		"---\nb:\n  ENTRYTYPE: book\n  ID: b\n...\n---\na:\n  ENTRYTYPE: article\n  ID: a\n...\n",
		string(raw))

	other := Open(d.Path(), nil)
	require.NoError(t, other.Load())
	assert.Equal(t, []string{"b", "a"}, other.Labels())
	assert.Equal(t, 2, other.Len())
}

func TestUpdate_ReplacesWithoutMerging(t *testing.T) {
	d := newDB(t)
	first := newEntry("x", "article")
	first.Fields.Set("title", "Old")
	require.NoError(t, d.Update(entry.NewBatch(first, newEntry("y", "book"))))

	require.NoError(t, d.Update(entry.NewBatch(newEntry("x", "misc"))))
	got, ok := d.Get("x")
	require.True(t, ok)
	assert.Equal(t, "misc", got.Type())
	assert.False(t, got.Fields.Has("title"))
	assert.Equal(t, []string{"x", "y"}, d.Labels())
}

func TestRename(t *testing.T) {
	d := newDB(t)
	require.NoError(t, d.Update(entry.NewBatch(newEntry("x", "article"))))
	require.NoError(t, d.Save())
	require.NoError(t, d.Rename("x", "z"))
	assert.True(t, d.Dirty())
	assert.True(t, d.Has("z"))
	assert.False(t, d.Has("x"))
	assert.Error(t, d.Rename("missing", "q"))
}

func TestReload_DiscardsUnsaved(t *testing.T) {
	d := newDB(t)
	require.NoError(t, d.Update(entry.NewBatch(newEntry("x", "article"))))
	require.NoError(t, d.Reload())
	assert.Equal(t, 0, d.Len())
	assert.True(t, d.Loaded())
}

func TestCreate_DoesNotOverwrite(t *testing.T) {
	d := newDB(t)
	require.NoError(t, d.Update(entry.NewBatch(newEntry("x", "article"))))
	require.NoError(t, d.Save())

	again := Open(d.Path(), nil)
	created, err := again.Create()
	require.NoError(t, err)
	assert.False(t, created)
	require.NoError(t, again.Load())
	assert.Equal(t, 1, again.Len())
}

func TestLock_Exclusive(t *testing.T) {
	d := newDB(t)
	require.NoError(t, d.Lock())

	other := Open(d.Path(), nil)
	assert.ErrorIs(t, other.Lock(), ErrLocked)

	require.NoError(t, d.Unlock())
	require.NoError(t, other.Lock())
	require.NoError(t, other.Unlock())
	assert.NoError(t, Open(d.Path(), nil).Unlock())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- not\n- a mapping\n"), 0o644))
	assert.Error(t, Open(path, nil).Load())
}

func TestLockPath(t *testing.T) {
	d := newDB(t)
	assert.Equal(t, d.Path()+".lock", d.LockPath())
	require.NoError(t, d.Lock())
	_, err := os.Stat(d.LockPath())
	assert.NoError(t, err)
	require.NoError(t, d.Unlock())
}
