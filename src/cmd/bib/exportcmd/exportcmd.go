package exportcmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bibdb/src/internal/entry"
	"bibdb/src/internal/session"
)

// New returns the export command that writes all, or the named, entries as
// BibTeX and/or YAML. "-" as a path writes to stdout.
func New(s *session.Session) *cobra.Command {
	var bibOut, yamlOut string
	cmd := &cobra.Command{
		Use:   "export [--bibtex FILE] [--yaml FILE] [label...]",
		Short: "Export entries to a BibTeX or YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if bibOut == "" && yamlOut == "" {
				return fmt.Errorf("at least one of --bibtex or --yaml is required")
			}
			db := s.DB()
			if err := db.Load(); err != nil {
				return err
			}
			log := s.Log.Component("export")
			entries := db.Entries()
			if len(args) > 0 {
				entries = entries[:0:0]
				for _, l := range args {
					e, ok := db.Get(l)
					if !ok {
						log.Warn().Str("label", l).Msg("no such entry, skipping")
						continue
					}
					entries = append(entries, e)
				}
			}
			if bibOut != "" {
				if err := write(cmd, bibOut, entries, bibtex); err != nil {
					return err
				}
			}
			if yamlOut != "" {
				if err := write(cmd, yamlOut, entries, (*entry.Entry).ToYAML); err != nil {
					return err
				}
			}
			log.Info().Int("entries", len(entries)).Msg("export finished")
			return nil
		},
	}
	cmd.Flags().StringVarP(&bibOut, "bibtex", "b", "", "BibTeX output file")
	cmd.Flags().StringVarP(&yamlOut, "yaml", "y", "", "YAML output file")
	return cmd
}

func bibtex(e *entry.Entry) (string, error) { return e.ToBibTeX(), nil }

func write(cmd *cobra.Command, path string, entries []*entry.Entry, render func(*entry.Entry) (string, error)) error {
	var sb strings.Builder
	for _, e := range entries {
		s, err := render(e)
		if err != nil {
			return err
		}
		sb.WriteString(s)
	}
	if path == "-" {
		_, err := io.WriteString(cmd.OutOrStdout(), sb.String())
		return err
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return err
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return err
}
