// Package initcmd creates the database file and, optionally, the git
// repository that tracks it.
package initcmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"bibdb/src/internal/gitutil"
	"bibdb/src/internal/history"
	"bibdb/src/internal/session"
	"bibdb/src/internal/store"
)

// New returns the init command.
func New(s *session.Session) *cobra.Command {
	var git bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the database file (and a git repository with --git)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(s, git, cmd)
		},
	}
	cmd.Flags().BoolVarP(&git, "git", "g", false, "initialize git-tracking of the database")
	return cmd
}

// Run creates the database file unless it exists. With git it also
// initializes the repository and records an InitCommand auto-commit.
func Run(s *session.Session, git bool, cmd *cobra.Command) error {
	log := s.Log.Component("init")
	return s.Locked(func(db *store.Database) error {
		created, err := db.Create()
		if err != nil {
			return fmt.Errorf("create database: %w", err)
		}
		if created {
			log.Info().Str("file", db.Path()).Msg("created database file")
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", db.Path())
		} else {
			log.Warn().Str("file", db.Path()).Msg("database file already exists, not overwriting it")
		}
		if !git {
			return nil
		}
		if !s.Config.Database.Git {
			log.Warn().Msg("git-tracking is disabled in the configuration (database.git); later changes will not be committed until it is enabled")
		}
		repo := s.Repo()
		if !repo.IsInitialized() {
			if err := repo.Init(); err != nil {
				return err
			}
			log.Info().Str("root", repo.Root).Msg("initialized git repository")
		}
		if err := repo.Exclude(filepath.Base(db.LockPath())); err != nil {
			log.Warn().Err(err).Msg("could not exclude the lock file from git")
		}
		subject := gitutil.AutoCommitPrefix + " " + history.InitCommand
		body := `{"git": true}`
		if err := repo.Commit([]string{db.Path()}, subject, body); err != nil {
			log.Error().Err(err).Msg("initial commit failed")
		}
		return nil
	})
}
