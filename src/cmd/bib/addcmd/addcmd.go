package addcmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"bibdb/src/cmd/bib/editcmd"
	"bibdb/src/internal/entry"
	"bibdb/src/internal/parsers"
	"bibdb/src/internal/session"
	"bibdb/src/internal/store"
)

const (
	msgAdded   = "'%s' was added to the database."
	msgExists  = "You tried to add a new entry '%s' which already exists! Please use `bib edit %s` instead!"
	msgNoInput = "Neither an input to parse nor a label for manual creation specified!"
	pdfParser  = "pdf"
)

// ErrNoInput is logged when neither a source nor a label was given.
var ErrNoInput = errors.New(msgNoInput)

// Source is where the entries of one add come from. It is one of Manual,
// Identifier or File.
type Source interface {
	Name() string
}

// Manual creates a stub entry under Label and opens it in the editor.
type Manual struct{ Label string }

// Identifier is text handed to the parser named Kind: a DOI, an arXiv ID,
// an ISBN, or BibTeX/YAML given inline or as a path.
type Identifier struct{ Kind, Value string }

// File is a document whose text is mined for a DOI.
type File struct{ Path string }

func (Manual) Name() string       { return "manual" }
func (i Identifier) Name() string { return i.Kind }
func (File) Name() string         { return pdfParser }

// Request is one parsed `bib add` invocation.
type Request struct {
	Source Source
	Label  string
	Files  []string
	Tags   []string
	// Args is recorded as the auto-commit body.
	Args map[string]any
}

// localFlagSet reports whether any of cmd's own flags was given. Inherited
// flags such as --verbose do not count.
func localFlagSet(cmd *cobra.Command) bool {
	set := false
	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		set = set || f.Changed
	})
	return set
}

// New returns the add command. One flag per registered parser is generated;
// at most one of them may be given.
func New(s *session.Session) *cobra.Command {
	var label string
	var files []string
	inputs := map[string]*string{}
	cmd := &cobra.Command{
		Use:   "add [--label L] [--file F...] [--<source> INPUT] [tags...]",
		Short: "Add entries parsed from an identifier, BibTeX/YAML or a PDF, or create one manually",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !localFlagSet(cmd) {
				_ = cmd.Usage()
				return fmt.Errorf("add: no arguments given")
			}
			values := map[string]string{}
			for name, v := range inputs {
				if cmd.Flags().Changed(name) {
					values[name] = *v
				}
			}
			req := Request{Label: strings.TrimSpace(label), Files: files, Tags: args}
			req.Args = map[string]any{"label": nilIfEmpty(req.Label), "file": files, "tags": args}
			for _, p := range s.Parsers.All() {
				req.Args[p.Name()] = nilIfEmpty(values[p.Name()])
			}
			src, err := selectSource(s.Parsers, values, req.Label)
			if err != nil {
				s.Log.Component("add").Error().Msg(err.Error())
				return nil
			}
			req.Source = src
			return Run(cmd.Context(), s, req, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&label, "label", "l", "", "the label for the new database entry")
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "files associated with this entry")
	var names []string
	for _, p := range s.Parsers.All() {
		inputs[p.Name()] = cmd.Flags().StringP(p.Name(), p.Short(), "", p.Help())
		names = append(names, p.Name())
	}
	cmd.MarkFlagsMutuallyExclusive(names...)
	return cmd
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// selectSource picks the first given parser input in registry order, falling
// back to manual creation when only a label is present.
func selectSource(reg *parsers.Registry, values map[string]string, label string) (Source, error) {
	for _, p := range reg.All() {
		v, ok := values[p.Name()]
		if !ok {
			continue
		}
		if p.Name() == pdfParser {
			return File{Path: v}, nil
		}
		return Identifier{Kind: p.Name(), Value: v}, nil
	}
	if label != "" {
		return Manual{Label: label}, nil
	}
	return nil, ErrNoInput
}

// Run executes the add pipeline: gather, override label/file/tags, merge,
// edit manual entries, save, commit and report.
func Run(ctx context.Context, s *session.Session, req Request, out io.Writer) error {
	log := s.Log.Component("add")
	batch, manual, err := gather(ctx, s, req.Source)
	if err != nil {
		log.Error().Err(err).Str("source", req.Source.Name()).Msg("could not gather entries")
		return nil
	}
	if err := applyOverrides(batch, req); err != nil {
		return err
	}

	return s.Locked(func(db *store.Database) error {
		if err := db.Load(); err != nil {
			return err
		}
		if manual && db.Has(req.Label) {
			log.Warn().Str("label", req.Label).Msgf(msgExists, req.Label, req.Label)
			return nil
		}
		if err := db.Update(batch); err != nil {
			return err
		}
		labels := batch.Labels()
		if manual {
			final, _, err := editcmd.Interactive(ctx, s.Editor, db, req.Label)
			if err != nil {
				log.Error().Err(err).Str("label", req.Label).Msg("editing the new entry failed, keeping it as created")
			}
			labels = []string{final}
		}
		if err := db.Save(); err != nil {
			return err
		}
		if err := s.Tracker().AutoCommit("AddCommand", req.Args, db.Path()); err != nil {
			log.Error().Err(err).Msg("auto-commit failed")
		}
		for _, l := range labels {
			msg := fmt.Sprintf(msgAdded, l)
			_, _ = fmt.Fprintln(out, msg)
			log.Info().Str("label", l).Msg(msg)
		}
		return nil
	})
}

func gather(ctx context.Context, s *session.Session, src Source) (*entry.Batch, bool, error) {
	switch src := src.(type) {
	case Manual:
		s.Log.Component("add").Warn().Str("label", src.Label).Msgf("No input to parse. Creating new entry '%s' manually.", src.Label)
		fields := entry.NewFields()
		fields.Set(entry.KeyType, s.Config.Commands.Edit.DefaultEntryType)
		return entry.NewBatch(entry.New(src.Label, fields)), true, nil
	case Identifier:
		b, err := parse(ctx, s.Parsers, src.Kind, src.Value)
		return b, false, err
	case File:
		b, err := parse(ctx, s.Parsers, pdfParser, src.Path)
		return b, false, err
	case nil:
		return nil, false, ErrNoInput
	}
	return nil, false, fmt.Errorf("unsupported source %T", src)
}

func parse(ctx context.Context, reg *parsers.Registry, name, input string) (*entry.Batch, error) {
	p, ok := reg.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("no parser named %q", name)
	}
	return p.Parse(ctx, input)
}

// applyOverrides applies --label, --file and tags. Each requires the batch
// to hold exactly one entry.
func applyOverrides(b *entry.Batch, req Request) error {
	if req.Label != "" {
		e, err := b.Only()
		if err != nil {
			return fmt.Errorf("--label: %w", err)
		}
		old := e.Label
		if old != req.Label {
			if err := b.Rename(old, req.Label); err != nil {
				return err
			}
		}
	}
	if len(req.Files) > 0 {
		e, err := b.Only()
		if err != nil {
			return fmt.Errorf("--file: %w", err)
		}
		if err := e.SetFile(req.Files...); err != nil {
			return err
		}
	}
	if len(req.Tags) > 0 {
		e, err := b.Only()
		if err != nil {
			return fmt.Errorf("tags: %w", err)
		}
		e.SetTags(req.Tags)
	}
	return nil
}
