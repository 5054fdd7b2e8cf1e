package main

import (
	"github.com/spf13/cobra"

	"bibdb/src/cmd/bib/exportcmd"
	"bibdb/src/internal/session"
)

func newExportCmd(s *session.Session) *cobra.Command { return exportcmd.New(s) }
