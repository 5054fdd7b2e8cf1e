package initcmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibdb/src/internal/session/sessiontest"
)

func run(t *testing.T, env *sessiontest.Env, args ...string) (string, error) {
	t.Helper()
	cmd := New(env.Session)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInit_CreatesDatabase(t *testing.T) {
	env := sessiontest.New(t)
	env.Config.Database.File = filepath.Join(filepath.Dir(env.DBPath), "nested", "lit.yaml")
	out, err := run(t, env)
	require.NoError(t, err)
	assert.Equal(t, "created "+env.Config.Database.File+"\n", out)
	fi, err := os.Stat(env.Config.Database.File)
	require.NoError(t, err)
	assert.Zero(t, fi.Size())
}

func TestInit_DoesNotOverwrite(t *testing.T) {
	env := sessiontest.New(t)
	env.WriteDB(t, "---\na:\n  ID: a\n...\n")
	out, err := run(t, env)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, env.Logs.String(), "already exists")
	assert.Equal(t, "---\na:\n  ID: a\n...\n", env.ReadDB(t))
}

func TestInit_Git(t *testing.T) {
	env := sessiontest.New(t)
	env.Git(t) // sets up identity; init must tolerate an existing repository
	_, err := run(t, env, "--git")
	require.NoError(t, err)
	assert.Equal(t, []string{"Auto-commit: InitCommand"}, env.Subjects(t))
}

func TestInit_GitWarnsWhenTrackingDisabled(t *testing.T) {
	env := sessiontest.New(t)
	env.Git(t)
	env.Config.Database.Git = false
	_, err := run(t, env, "-g")
	require.NoError(t, err)
	assert.Contains(t, env.Logs.String(), "git-tracking is disabled")
	assert.Equal(t, []string{"Auto-commit: InitCommand"}, env.Subjects(t))
}

func TestInit_GitCreatesRepository(t *testing.T) {
	env := sessiontest.New(t)
	sessiontest.GitIdentity(t)
	env.Config.Database.Git = true
	_, err := run(t, env, "--git")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(filepath.Dir(env.DBPath), ".git"))
	assert.NoError(t, err)
	assert.Equal(t, []string{"Auto-commit: InitCommand"}, env.Subjects(t))
}

func TestInit_GitExcludesLockAndRerunIsQuiet(t *testing.T) {
	env := sessiontest.New(t)
	env.Git(t)
	_, err := run(t, env, "--git")
	require.NoError(t, err)
	_, err = run(t, env, "--git")
	require.NoError(t, err)
	assert.NotContains(t, env.Logs.String(), "failed")
	assert.Equal(t, []string{"Auto-commit: InitCommand"}, env.Subjects(t))

	b, err := os.ReadFile(filepath.Join(filepath.Dir(env.DBPath), ".git", "info", "exclude"))
	require.NoError(t, err)
	assert.Contains(t, string(b), filepath.Base(env.DBPath)+".lock\n")
}
