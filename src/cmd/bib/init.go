package main

import (
	"github.com/spf13/cobra"

	"bibdb/src/cmd/bib/initcmd"
	"bibdb/src/internal/session"
)

func newInitCmd(s *session.Session) *cobra.Command { return initcmd.New(s) }
