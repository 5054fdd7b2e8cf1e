// Package sessiontest builds throwaway sessions for command tests: a database
// file in a temp dir, a scripted editor, captured logs and, on request, a
// real git repository or stand-in metadata servers.
package sessiontest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"bibdb/src/internal/config"
	"bibdb/src/internal/editor"
	"bibdb/src/internal/gitutil"
	"bibdb/src/internal/httpx"
	"bibdb/src/internal/logger"
	"bibdb/src/internal/parsers"
	"bibdb/src/internal/session"
)

// Editor is a scripted editor.Runner. Edit receives the file content and
// returns what the "user" saved.
type Editor struct {
	Edit  func(string) string
	Err   error
	Calls int
	// Seen holds the content the editor was opened with, per call.
	Seen []string
}

// Run implements editor.Runner.
func (e *Editor) Run(_ context.Context, _ string, file string) error {
	e.Calls++
	b, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	e.Seen = append(e.Seen, string(b))
	if e.Err != nil {
		return e.Err
	}
	if e.Edit == nil {
		return nil
	}
	return os.WriteFile(file, []byte(e.Edit(string(b))), 0o600)
}

// Env is a session rooted in a temp dir.
type Env struct {
	*session.Session
	Logs   *bytes.Buffer
	Editor *Editor
	DBPath string
}

// New returns an Env whose database file does not exist yet.
func New(t testing.TB) *Env {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Database: config.Database{File: filepath.Join(dir, "literature.yaml")},
		Commands: config.Commands{Edit: config.Edit{DefaultEntryType: config.DefaultEntryType, Editor: "vi"}},
		Logging:  config.Logging{Level: "debug"},
		Network: config.Network{
			Timeout:        time.Second,
			DOIURL:         "http://127.0.0.1:1/doi",
			ArxivURL:       "http://127.0.0.1:1/arxiv",
			OpenLibraryURL: "http://127.0.0.1:1/books",
			GoogleBooksURL: "http://127.0.0.1:1/google",
		},
	}
	logs := &bytes.Buffer{}
	s := session.New(cfg, logger.New(logs, zerolog.DebugLevel))
	ed := &Editor{}
	s.Editor = &editor.Editor{Command: cfg.Commands.Edit.Editor, Runner: ed}
	return &Env{Session: s, Logs: logs, Editor: ed, DBPath: cfg.Database.File}
}

// WriteDB replaces the database file content.
func (e *Env) WriteDB(t testing.TB, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(e.DBPath, []byte(content), 0o644))
}

// ReadDB returns the database file content.
func (e *Env) ReadDB(t testing.TB) string {
	t.Helper()
	b, err := os.ReadFile(e.DBPath)
	require.NoError(t, err)
	return string(b)
}

// Serve points every network parser at h, mounted under /doi, /arxiv, /books
// and /google.
func (e *Env) Serve(t testing.TB, h http.Handler) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	e.Config.Network.DOIURL = srv.URL + "/doi"
	e.Config.Network.ArxivURL = srv.URL + "/arxiv"
	e.Config.Network.OpenLibraryURL = srv.URL + "/books"
	e.Config.Network.GoogleBooksURL = srv.URL + "/google"
	e.Parsers = parsers.NewRegistry(parsers.Deps{
		HTTP:    httpx.New(e.Config.Network.Timeout),
		Network: e.Config.Network,
		Log:     e.Log,
	})
}

// Git enables tracking and initializes a real repository next to the
// database.
func (e *Env) Git(t testing.TB) *gitutil.Repo {
	t.Helper()
	GitIdentity(t)
	e.Config.Database.Git = true
	repo := e.Repo()
	require.NoError(t, repo.Init())
	return repo
}

// GitIdentity isolates git from the user's configuration and gives it a
// committer. The test is skipped when git is not installed.
func GitIdentity(t testing.TB) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("GIT_AUTHOR_NAME", "test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.com")
}

// Subjects returns the commit subjects, newest first.
func (e *Env) Subjects(t testing.TB) []string {
	t.Helper()
	log, err := e.Repo().Log()
	require.NoError(t, err)
	out := make([]string, 0, len(log))
	for _, c := range log {
		out = append(out, c.Message)
	}
	return out
}
