// Package session carries everything one bib invocation needs: the merged
// configuration, the logger, the parser registry, the editor and a lazily
// opened database. Commands receive a *Session instead of reaching for
// package globals.
package session

import (
	"io"

	"bibdb/src/internal/config"
	"bibdb/src/internal/editor"
	"bibdb/src/internal/gitutil"
	"bibdb/src/internal/httpx"
	"bibdb/src/internal/logger"
	"bibdb/src/internal/parsers"
	"bibdb/src/internal/store"
)

// Options are the root command flags that shape a session.
type Options struct {
	ConfigPath string
	Verbosity  int
}

// Session is the per-invocation context.
type Session struct {
	Config  *config.Config
	Log     *logger.Logger
	Parsers *parsers.Registry
	Editor  *editor.Editor
	// GitRunner overrides how git is executed; nil means the real binary.
	GitRunner gitutil.Runner

	db     *store.Database
	closer io.Closer
}

// New wires a session from an already loaded configuration.
func New(cfg *config.Config, log *logger.Logger) *Session {
	if log == nil {
		log = logger.Nop()
	}
	return &Session{
		Config: cfg,
		Log:    log,
		Parsers: parsers.NewRegistry(parsers.Deps{
			HTTP:    httpx.New(cfg.Network.Timeout),
			Network: cfg.Network,
			Log:     log,
		}),
		Editor: editor.New(cfg.Commands.Edit.Editor),
	}
}

// Setup loads the configuration, builds the CLI logger and wires the rest
// into s. It is called once by the root command before any subcommand runs.
func (s *Session) Setup(opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	log, closer, err := logger.NewCLI(logger.Options{
		Level:     cfg.Logging.Level,
		Verbosity: opts.Verbosity,
		File:      cfg.Logging.File,
	})
	if err != nil {
		return err
	}
	*s = *New(cfg, log)
	s.closer = closer
	s.Log.Debug().Str("database", cfg.Database.File).Bool("git", cfg.Database.Git).Msg("configuration loaded")
	return nil
}

// DB returns the database, opening it on first use. Nothing is read until
// the caller loads it.
func (s *Session) DB() *store.Database {
	if s.db == nil {
		s.db = store.Open(s.Config.Database.File, s.Log)
	}
	return s.db
}

// Repo returns the git repository that tracks the database directory.
func (s *Session) Repo() *gitutil.Repo {
	r := gitutil.NewRepo(s.DB().Root())
	if s.GitRunner != nil {
		r.Runner = s.GitRunner
	}
	return r
}

// Tracker returns the auto-commit tracker honoring database.git.
func (s *Session) Tracker() *gitutil.Tracker {
	return &gitutil.Tracker{Repo: s.Repo(), Enabled: s.Config.Database.Git, Log: s.Log.Component("git")}
}

// Locked runs fn while holding the database's advisory lock.
func (s *Session) Locked(fn func(db *store.Database) error) error {
	db := s.DB()
	if err := db.Lock(); err != nil {
		return err
	}
	defer func() {
		if err := db.Unlock(); err != nil {
			s.Log.Warn().Err(err).Msg("releasing database lock")
		}
	}()
	return fn(db)
}

// Close flushes and closes the optional log file.
func (s *Session) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
