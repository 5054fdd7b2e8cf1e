// Package history decides which commit an undo should revert. It works on a
// materialized, newest-first commit list and never touches git itself.
package history

import (
	"strings"

	"bibdb/src/internal/gitutil"
)

// Kind classifies a commit message.
type Kind int

const (
	// Manual is any commit bib did not make itself.
	Manual Kind = iota
	// Auto is an "Auto-commit: <Command>" commit.
	Auto
	// UndoOf is an "Undo <sha>" commit.
	UndoOf
)

// InitCommand names the auto-commit made by `bib init --git`. It is never
// undone without force.
const InitCommand = "InitCommand"

// Classified is a commit with its decoded kind. Command is set for Auto,
// Target for UndoOf.
type Classified struct {
	gitutil.Commit
	Kind    Kind
	Command string
	Target  string
}

// Classify decodes a commit message by its first and last words.
func Classify(c gitutil.Commit) Classified {
	out := Classified{Commit: c, Kind: Manual}
	words := strings.Fields(c.Message)
	if len(words) == 0 {
		return out
	}
	last := words[len(words)-1]
	switch words[0] {
	case "Undo":
		out.Kind, out.Target = UndoOf, last
	case gitutil.AutoCommitPrefix:
		out.Kind, out.Command = Auto, last
	}
	return out
}

// Eligible reports whether c may be undone. force only lowers the bar.
func (c Classified) Eligible(force bool) bool {
	if force {
		return true
	}
	return c.Kind == Auto && c.Command != InitCommand
}

// Decision is the outcome of Plan.
type Decision struct {
	// Target is the commit to revert; valid only when Found.
	Target gitutil.Commit
	Found  bool
	// Skipped lists commits passed over because a later commit undid them.
	Skipped []string
}

// Plan walks commits newest first. "Undo <sha>" commits are never targets
// themselves; they mark sha as already undone. The first remaining eligible
// commit is chosen.
func Plan(commits []gitutil.Commit, force bool) Decision {
	var d Decision
	undone := map[string]bool{}
	for _, raw := range commits {
		c := Classify(raw)
		if c.Kind == UndoOf {
			undone[c.Target] = true
			continue
		}
		if undone[c.SHA] {
			d.Skipped = append(d.Skipped, c.SHA)
			continue
		}
		if c.Eligible(force) {
			d.Target, d.Found = raw, true
			return d
		}
	}
	return d
}
