package main

import (
	"github.com/spf13/cobra"

	"bibdb/src/cmd/bib/editcmd"
	"bibdb/src/internal/session"
)

func newEditCmd(s *session.Session) *cobra.Command { return editcmd.New(s) }
