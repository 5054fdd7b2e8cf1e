package undocmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibdb/src/internal/gitutil"
	"bibdb/src/internal/session/sessiontest"
)

func run(t *testing.T, env *sessiontest.Env, args ...string) error {
	t.Helper()
	cmd := New(env.Session)
	cmd.SetArgs(args)
	return cmd.Execute()
}

// commitDB writes content and records it with subject.
func commitDB(t *testing.T, env *sessiontest.Env, repo *gitutil.Repo, content, subject string) {
	t.Helper()
	env.WriteDB(t, content)
	require.NoError(t, repo.Commit([]string{env.DBPath}, subject, ""))
}

func TestUndo_TrackingDisabled(t *testing.T) {
	env := sessiontest.New(t)
	require.NoError(t, run(t, env))
	assert.Contains(t, env.Logs.String(), "You must enable git-tracking")
}

func TestUndo_NotInitialized(t *testing.T) {
	env := sessiontest.New(t)
	env.Config.Database.Git = true
	require.NoError(t, run(t, env))
	assert.Contains(t, env.Logs.String(), "not initialized git-tracking")
}

func TestUndo_WalksBackThroughAutoCommits(t *testing.T) {
	env := sessiontest.New(t)
	repo := env.Git(t)
	commitDB(t, env, repo, "", "Auto-commit: InitCommand")
	commitDB(t, env, repo, "---\na:\n  ID: a\n...\n", "Auto-commit: AddCommand")
	commitDB(t, env, repo, "---\na:\n  ID: a\n  title: T\n...\n", "Auto-commit: EditCommand")

	require.NoError(t, run(t, env))
	assert.Equal(t, "---\na:\n  ID: a\n...\n", env.ReadDB(t))
	assert.True(t, env.DB().Loaded())
	assert.Equal(t, []string{"a"}, env.DB().Labels())

	require.NoError(t, run(t, env))
	assert.Equal(t, "", env.ReadDB(t))
	assert.Contains(t, env.Logs.String(), "as it was already undone")

	// only the init commit is left
	err := run(t, env)
	assert.True(t, errors.Is(err, ErrNothingToUndo))
	assert.Contains(t, env.Logs.String(), msgNothingToUndo)

	subjects := env.Subjects(t)
	require.Len(t, subjects, 5)
	assert.True(t, strings.HasPrefix(subjects[0], "Undo "))
	assert.True(t, strings.HasPrefix(subjects[1], "Undo "))
}

func TestUndo_ManualCommitNeedsForce(t *testing.T) {
	env := sessiontest.New(t)
	repo := env.Git(t)
	commitDB(t, env, repo, "", "Auto-commit: InitCommand")
	commitDB(t, env, repo, "---\nm:\n  ID: m\n...\n", "hand edit")

	assert.ErrorIs(t, run(t, env), ErrNothingToUndo)
	assert.Equal(t, "---\nm:\n  ID: m\n...\n", env.ReadDB(t))

	require.NoError(t, run(t, env, "--force"))
	assert.Equal(t, "", env.ReadDB(t))
}

func TestUndo_EmptyHistory(t *testing.T) {
	env := sessiontest.New(t)
	env.Git(t)
	assert.ErrorIs(t, run(t, env), ErrNothingToUndo)
}

// scriptedGit answers git log with a fixed history and fails every revert.
type scriptedGit struct{ calls [][]string }

func (g *scriptedGit) Run(name string, args ...string) (string, string, error) {
	g.calls = append(g.calls, args)
	for _, a := range args {
		switch a {
		case "log":
			return "c2 Auto-commit: AddCommand\nc1 Auto-commit: InitCommand\n", "", nil
		case "revert":
			return "", "error: your local changes would be overwritten", errors.New("exit status 1")
		}
	}
	return "", "", nil
}

func TestUndo_RevertFailureDoesNotReload(t *testing.T) {
	env := sessiontest.New(t)
	env.Config.Database.Git = true
	require.NoError(t, os.Mkdir(filepath.Join(filepath.Dir(env.DBPath), ".git"), 0o755))
	g := &scriptedGit{}
	env.GitRunner = g
	env.WriteDB(t, "")

	require.NoError(t, run(t, env))
	assert.Contains(t, env.Logs.String(), "Undo was unsuccessful")
	assert.False(t, env.DB().Loaded())
	require.Len(t, g.calls, 3)
	assert.Equal(t, []string{"-C", filepath.Dir(env.DBPath), "revert", "--no-commit", "c2"}, g.calls[1])
	assert.Equal(t, []string{"-C", filepath.Dir(env.DBPath), "revert", "--abort"}, g.calls[2])
}
