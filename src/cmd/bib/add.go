package main

import (
	"github.com/spf13/cobra"

	"bibdb/src/cmd/bib/addcmd"
	"bibdb/src/internal/session"
)

// newAddCmd builds "add" with one flag per registered parser.
func newAddCmd(s *session.Session) *cobra.Command { return addcmd.New(s) }
