package main

import (
	"github.com/spf13/cobra"

	"bibdb/src/cmd/bib/undocmd"
	"bibdb/src/internal/session"
)

// newUndoCmd creates the "undo" command reverting the latest auto-commit.
func newUndoCmd(s *session.Session) *cobra.Command { return undocmd.New(s) }
