package editcmd

import (
    "context"
    "errors"
    "fmt"
    "strings"

    "github.com/spf13/cobra"

    "bibdb/src/internal/editor"
    "bibdb/src/internal/entry"
    "bibdb/src/internal/session"
    "bibdb/src/internal/store"
    "bibdb/src/internal/stringsx"
)

// ErrLabelTaken is returned when an edit renames an entry onto an existing label.
var ErrLabelTaken = errors.New("label already exists")

// New returns the edit command that opens an entry in the editor or sets
// fields given as field=value.
func New(s *session.Session) *cobra.Command {
    var add bool
    cmd := &cobra.Command{
        Use:   "edit <label> [field=value...]",
        Short: "Edit an entry in $EDITOR, or set fields directly with field=value",
        Args:  cobra.MinimumNArgs(1),
        RunE: func(cmd *cobra.Command, args []string) error {
            label, assignments, err := parseEditArgs(args)
            if err != nil { return err }
            return execute(cmd.Context(), s, label, add, assignments)
        },
    }
    cmd.Flags().BoolVarP(&add, "add", "a", false, "create a new entry for an unknown label")
    return cmd
}

func execute(ctx context.Context, s *session.Session, label string, add bool, assignments map[string]string) error {
    if err := disallowIDEdits(assignments); err != nil { return err }
    log := s.Log.Component("edit")
    return s.Locked(func(db *store.Database) error {
        if err := db.Load(); err != nil { return err }
        if db.Has(label) && add {
            log.Warn().Str("label", label).Msgf("Entry '%s' already exists! Ignoring the `--add` argument.", label)
            add = false
        }
        if !db.Has(label) {
            if !add {
                log.Error().Str("label", label).Msgf("No entry with the label '%s' could be found. Use `--add` to add a new entry with this label.", label)
                return nil
            }
            fields := entry.NewFields()
            fields.Set(entry.KeyType, s.Config.Commands.Edit.DefaultEntryType)
            if err := db.Update(entry.NewBatch(entry.New(label, fields))); err != nil { return err }
        }

        final := label
        changed := add
        if len(assignments) > 0 {
            c, err := applyAssignments(db, label, assignments)
            if err != nil { log.Error().Err(err).Msg("could not apply field assignments"); return nil }
            changed = changed || c
        } else {
            l, c, err := Interactive(ctx, s.Editor, db, label)
            if err != nil { log.Error().Err(err).Str("label", label).Msg("edit failed"); return nil }
            final, changed = l, changed || c
        }
        if !changed {
            log.Info().Msg("No changes detected.")
            return nil
        }

        if err := db.Save(); err != nil { return err }
        if err := s.Tracker().AutoCommit("EditCommand", nil, db.Path()); err != nil {
            log.Error().Err(err).Msg("auto-commit failed")
        }
        log.Info().Str("label", final).Msgf("'%s' was successfully edited.", label)
        return nil
    })
}

// Interactive opens label's entry from db in the editor and applies the
// result to db in memory. It returns the label the entry ends up under and
// whether anything changed. Nothing is saved.
func Interactive(ctx context.Context, ed *editor.Editor, db *store.Database, label string) (string, bool, error) {
    old, ok := db.Get(label)
    if !ok { return label, false, fmt.Errorf("no entry with label %q", label) }
    before, err := old.ToYAML()
    if err != nil { return label, false, err }
    after, err := ed.Edit(ctx, before)
    if err != nil { return label, false, err }
    batch, _, err := entry.ParseYAML(after)
    if err != nil { return label, false, fmt.Errorf("edited entry is not valid YAML: %w", err) }
    edited, err := batch.Only()
    if err != nil { return label, false, fmt.Errorf("edited file: %w", err) }
    if edited.Equal(old) { return label, false, nil }
    if edited.Label != label {
        if db.Has(edited.Label) { return label, false, fmt.Errorf("%w: %s", ErrLabelTaken, edited.Label) }
        if err := db.Rename(label, edited.Label); err != nil { return label, false, err }
    }
    if err := db.Update(entry.NewBatch(edited)); err != nil { return label, false, err }
    return edited.Label, true, nil
}

func disallowIDEdits(assignments map[string]string) error {
    for k := range assignments {
        if k == entry.KeyID { return fmt.Errorf("editing '%s' is not supported, rename the entry in the editor instead", entry.KeyID) }
    }
    return nil
}

// applyAssignments sets fields on a copy of the entry. An empty value removes
// the field; tags and file go through their setters.
func applyAssignments(db *store.Database, label string, assignments map[string]string) (bool, error) {
    old, _ := db.Get(label)
    e := old.Clone()
    for key, val := range assignments {
        val = strings.TrimSpace(val)
        switch {
        case val == "":
            if key == entry.KeyType { return false, fmt.Errorf("%s cannot be empty", entry.KeyType) }
            e.Fields.Delete(key)
        case key == "tags":
            e.SetTags(strings.Split(val, ","))
        case key == "file":
            if err := e.SetFile(splitCSV(val)...); err != nil { return false, err }
        default:
            e.Fields.Set(key, val)
        }
    }
    if e.Equal(old) { return false, nil }
    return true, db.Update(entry.NewBatch(e))
}

// parseEditArgs takes the first bare argument as the label and every
// key=value argument as an assignment.
func parseEditArgs(args []string) (label string, assigns map[string]string, err error) {
    assigns = map[string]string{}
    for _, a := range args {
        if k, v, ok := stringsx.KeyValue(a); ok { assigns[k] = v; continue }
        if label != "" { return "", nil, fmt.Errorf("unexpected argument %q, only one label can be edited at a time", a) }
        label = strings.TrimSpace(a)
    }
    if label == "" { return "", nil, fmt.Errorf("a label is required") }
    return label, assigns, nil
}

func splitCSV(s string) []string { parts := strings.Split(s, ","); out := make([]string, 0, len(parts)); for _, p := range parts { p = strings.TrimSpace(p); if p != "" { out = append(out, p) } }; return out }
