// Package undocmd reverts the most recent undoable database change recorded
// in git.
package undocmd

import (
	"errors"

	"github.com/spf13/cobra"

	"bibdb/src/internal/history"
	"bibdb/src/internal/session"
	"bibdb/src/internal/store"
)

const (
	msgTrackingDisabled = "You must enable git-tracking in order to use the `undo` command. Set `database.git: true` in the configuration."
	msgNotInitialized   = "You have configured, but not initialized git-tracking. Please consult `bib init --help` for more information on how to do so."
	msgNothingToUndo    = "Could not find a commit to undo. Please commit something first!"
	msgUndoFailed       = "Undo was unsuccessful. Please consult the logs and git history of your database for more information."
)

// ErrNothingToUndo is returned when no eligible commit exists.
var ErrNothingToUndo = errors.New(msgNothingToUndo)

// New returns the undo command.
func New(s *session.Session) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Undo the last auto-committed change to the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(s, force)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "allow undoing non auto-committed changes")
	return cmd
}

// Run reverts the newest eligible commit and reloads the database. Missing
// or uninitialized tracking is reported and otherwise ignored.
func Run(s *session.Session, force bool) error {
	log := s.Log.Component("undo")
	if !s.Config.Database.Git {
		log.Error().Msg(msgTrackingDisabled)
		return nil
	}
	repo := s.Repo()
	if !repo.IsInitialized() {
		log.Error().Str("root", repo.Root).Msg(msgNotInitialized)
		return nil
	}

	return s.Locked(func(db *store.Database) error {
		log.Debug().Msg("obtaining git log")
		commits, err := repo.Log()
		if err != nil {
			log.Error().Err(err).Msg(msgUndoFailed)
			return nil
		}
		d := history.Plan(commits, force)
		for _, sha := range d.Skipped {
			log.Info().Str("sha", sha).Msgf("Skipping %s as it was already undone", sha)
		}
		if !d.Found {
			log.Warn().Msg(msgNothingToUndo)
			return ErrNothingToUndo
		}
		log.Debug().Str("sha", d.Target.SHA).Str("message", d.Target.Message).Msg("attempting to undo")
		if err := repo.Revert(d.Target.SHA); err != nil {
			log.Error().Err(err).Str("sha", d.Target.SHA).Msg(msgUndoFailed)
			return nil
		}
		if err := db.Reload(); err != nil {
			log.Warn().Err(err).Msg("database could not be reloaded after undo")
			return nil
		}
		log.Info().Str("sha", d.Target.SHA).Msg("undid commit")
		return nil
	})
}
