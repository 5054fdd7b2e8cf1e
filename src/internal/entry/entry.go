// Package entry holds the bibliography record model: a label plus an ordered
// field mapping, its BibTeX and YAML encodings, and ordered batches of entries.
package entry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Reserved field names.
const (
	KeyID   = "ID"
	KeyType = "ENTRYTYPE"
)

// Entry is a single bibliographic record.
type Entry struct {
	Label  string
	Fields *Fields
}

// New builds an Entry whose ID field mirrors label. A nil fields starts empty.
func New(label string, fields *Fields) *Entry {
	if fields == nil {
		fields = NewFields()
	}
	e := &Entry{Fields: fields}
	e.SetLabel(label)
	return e
}

// SetLabel sets the label and the ID field together.
func (e *Entry) SetLabel(label string) {
	e.Label = label
	e.Fields.Set(KeyID, label)
}

// Type returns the ENTRYTYPE field.
func (e *Entry) Type() string { return e.Fields.String(KeyType) }

// SetTags stores the tags field: tokens are trimmed, leading '+' characters
// stripped, empties dropped, and the rest joined with ", ".
func (e *Entry) SetTags(tags []string) {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimLeft(strings.TrimSpace(t), "+")
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	e.Fields.Set("tags", strings.Join(out, ", "))
}

// SetFile stores the file field as absolute path(s). A single path is kept as
// a string, several as a list.
func (e *Entry) SetFile(paths ...string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no file given")
	}
	abs := make([]string, 0, len(paths))
	for _, p := range paths {
		a, err := AbsPath(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		abs = append(abs, a)
	}
	if len(abs) == 1 {
		e.Fields.Set("file", abs[0])
		return nil
	}
	e.Fields.SetList("file", abs)
	return nil
}

// AbsPath expands a leading ~ and makes p absolute.
func AbsPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return filepath.Abs(p)
}

// Equal reports whether both entries carry the same label and the same
// key/value set. Field order is ignored.
func (e *Entry) Equal(o *Entry) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.Label == o.Label && e.Fields.Equal(o.Fields)
}

// Clone returns a deep copy.
func (e *Entry) Clone() *Entry {
	return &Entry{Label: e.Label, Fields: e.Fields.Clone()}
}
