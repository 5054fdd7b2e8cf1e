package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bibdb/src/internal/config"
	"bibdb/src/internal/session"
)

func newRootCmd(sess *session.Session) *cobra.Command {
	var opts session.Options
	root := &cobra.Command{
		Use:           "bib",
		Short:         "Plain-text YAML bibliography manager",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return sess.Setup(opts)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = sess.Close()
		},
	}
	root.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "configuration file (default $XDG_CONFIG_HOME/bib/config.yaml)")
	root.PersistentFlags().CountVarP(&opts.Verbosity, "verbose", "v", "increase log verbosity (repeatable)")

	// Attach subcommands
	root.AddCommand(newInitCmd(sess))
	root.AddCommand(newAddCmd(sess))
	root.AddCommand(newEditCmd(sess))
	root.AddCommand(newListCmd(sess))
	root.AddCommand(newExportCmd(sess))
	root.AddCommand(newUndoCmd(sess))
	return root
}

// newSession returns a placeholder session; the root command's Setup
// replaces it with the loaded configuration before any subcommand runs.
// Building it up front gives add its per-parser flags.
func newSession() *session.Session { return session.New(&config.Config{}, nil) }

func execute(args []string) error {
	root := newRootCmd(newSession())
	root.SetArgs(args)
	return root.Execute()
}

func main() {
	if err := execute(os.Args[1:]); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
