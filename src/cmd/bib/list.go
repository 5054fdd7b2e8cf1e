package main

import (
	"github.com/spf13/cobra"

	"bibdb/src/cmd/bib/listcmd"
	"bibdb/src/internal/session"
)

func newListCmd(s *session.Session) *cobra.Command { return listcmd.New(s) }
