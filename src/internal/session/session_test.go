package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibdb/src/internal/store"
)

func TestSetup_FromConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("EDITOR", "")
	db := filepath.Join(home, "lib", "refs.yaml")
	cfgPath := filepath.Join(home, "bib.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database:\n  file: "+db+"\n  git: true\ncommands:\n  edit:\n    editor: nano\n"), 0o644))

	s := &Session{}
	require.NoError(t, s.Setup(Options{ConfigPath: cfgPath, Verbosity: 2}))
	t.Cleanup(func() { _ = s.Close() })

	assert.Equal(t, db, s.DB().Path())
	assert.Same(t, s.DB(), s.DB())
	assert.Equal(t, filepath.Dir(db), s.Repo().Root)
	assert.True(t, s.Tracker().Enabled)
	assert.Equal(t, "nano", s.Editor.Command)
	_, ok := s.Parsers.Lookup("doi")
	assert.True(t, ok)
}

func TestSetup_MissingExplicitConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	s := &Session{}
	assert.Error(t, s.Setup(Options{ConfigPath: filepath.Join(t.TempDir(), "nope.yaml")}))
}

func TestLocked_ExcludesSecondSession(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	s := &Session{}
	require.NoError(t, s.Setup(Options{}))
	s.Config.Database.File = filepath.Join(t.TempDir(), "lit.yaml")

	other := New(s.Config, nil)
	ran := false
	err := s.Locked(func(*store.Database) error {
		ran = true
		return other.Locked(func(*store.Database) error { return nil })
	})
	assert.True(t, ran)
	assert.ErrorIs(t, err, store.ErrLocked)

	// released afterwards
	assert.NoError(t, other.Locked(func(*store.Database) error { return nil }))
}
