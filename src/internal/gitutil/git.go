package gitutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"bibdb/src/internal/logger"
)

// Runner abstracts command execution for testability.
type Runner interface {
	Run(name string, args ...string) (stdout string, stderr string, err error)
}

type defaultRunner struct{}

// Run executes the named program with args and returns stdout, stderr, and error.
func (defaultRunner) Run(name string, args ...string) (string, string, error) {
	cmd := exec.Command(name, args...)
	var out, errB bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errB
	err := cmd.Run()
	return out.String(), errB.String(), err
}

// AutoCommitPrefix starts the subject of every commit bib makes on its own.
const AutoCommitPrefix = "Auto-commit:"

// Commit is one line of the one-line git log.
type Commit struct {
	SHA     string
	Message string
}

// Repo runs git against the directory holding the database file. Every
// invocation passes -C Root, so the process working directory is irrelevant.
type Repo struct {
	Root   string
	Runner Runner
}

// NewRepo returns a Repo for root backed by the real git binary.
func NewRepo(root string) *Repo {
	return &Repo{Root: root, Runner: defaultRunner{}}
}

func (r *Repo) git(args ...string) (string, string, error) {
	return r.Runner.Run("git", append([]string{"-C", r.Root}, args...)...)
}

// IsInitialized reports whether Root contains a .git directory.
func (r *Repo) IsInitialized() bool {
	_, err := os.Stat(filepath.Join(r.Root, ".git"))
	return err == nil
}

// Init runs git init in Root.
func (r *Repo) Init() error {
	if _, stderr, err := r.git("init", "--quiet"); err != nil {
		return fmt.Errorf("git init failed: %v: %s", err, stderr)
	}
	return nil
}

// Commit stages paths and commits them with subject and an optional body.
// Nothing staged for paths is success and creates no commit.
func (r *Repo) Commit(paths []string, subject, body string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := r.add(paths); err != nil {
		return err
	}
	staged, err := r.staged(paths)
	if err != nil {
		return err
	}
	if !staged {
		return nil
	}
	args := []string{"commit", "--no-gpg-sign", "--quiet", "--message", subject}
	if strings.TrimSpace(body) != "" {
		args = append(args, "--message", body)
	}
	if noChange, err := r.commit(args...); err != nil && !noChange {
		return err
	}
	return nil
}

// add stages additions, modifications, and deletions for the provided paths.
func (r *Repo) add(paths []string) error {
	args := append([]string{"add", "-A", "--"}, paths...)
	if _, stderr, err := r.git(args...); err != nil {
		return fmt.Errorf("git add failed: %v: %s", err, stderr)
	}
	return nil
}

// staged reports whether the index differs from HEAD for paths.
func (r *Repo) staged(paths []string) (bool, error) {
	args := append([]string{"diff", "--cached", "--name-only", "--"}, paths...)
	stdout, stderr, err := r.git(args...)
	if err != nil {
		return false, fmt.Errorf("git diff failed: %v: %s", err, stderr)
	}
	return strings.TrimSpace(stdout) != "", nil
}

// Exclude appends patterns missing from .git/info/exclude, keeping files
// such as the database lock out of "git status".
func (r *Repo) Exclude(patterns ...string) error {
	path := filepath.Join(r.Root, ".git", "info", "exclude")
	current, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	have := map[string]bool{}
	for _, l := range strings.Split(string(current), "\n") {
		have[strings.TrimSpace(l)] = true
	}
	var add strings.Builder
	if len(current) > 0 && !bytes.HasSuffix(current, []byte("\n")) {
		add.WriteString("\n")
	}
	for _, p := range patterns {
		if !have[p] {
			add.WriteString(p + "\n")
			have[p] = true
		}
	}
	if strings.TrimSpace(add.String()) == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(add.String()); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// commit attempts to create a commit. It returns (noChange=true) when there
// is nothing to commit, which callers treat as success.
func (r *Repo) commit(args ...string) (noChange bool, err error) {
	stdout, stderr, runErr := r.git(args...)
	if runErr == nil {
		return false, nil
	}
	// Some Git versions indicate no-op on stdout or stderr; treat as noChange.
	combined := append([]byte(stderr), []byte(stdout)...)
	if bytes.Contains(combined, []byte("nothing to commit")) ||
		bytes.Contains(combined, []byte("nothing added to commit")) ||
		bytes.Contains(combined, []byte("no changes added to commit")) ||
		bytes.Contains(combined, []byte("working tree clean")) {
		return true, nil
	}
	return false, fmt.Errorf("git commit failed: %v: %s%s", runErr, stderr, stdout)
}

// Log returns the history newest first. A repository without commits yields
// an empty log.
func (r *Repo) Log() ([]Commit, error) {
	stdout, stderr, err := r.Runner.Run("git", "--no-pager", "-C", r.Root, "log", "--oneline", "--no-decorate", "--no-abbrev")
	if err != nil {
		if strings.Contains(stderr, "does not have any commits") {
			return nil, nil
		}
		return nil, fmt.Errorf("git log failed: %v: %s", err, stderr)
	}
	return ParseLog(stdout), nil
}

// ParseLog splits `git log --oneline` output into commits.
func ParseLog(out string) []Commit {
	var commits []Commit
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sha, msg, _ := strings.Cut(line, " ")
		commits = append(commits, Commit{SHA: sha, Message: strings.TrimSpace(msg)})
	}
	return commits
}

// UndoMessage is the subject of the commit that reverts sha.
func UndoMessage(sha string) string { return "Undo " + sha }

// Revert applies the inverse of sha to the working tree and commits it as
// "Undo <sha>". A failed revert is aborted so the tree is left as it was.
func (r *Repo) Revert(sha string) error {
	if _, stderr, err := r.git("revert", "--no-commit", sha); err != nil {
		_, _, _ = r.git("revert", "--abort")
		return fmt.Errorf("git revert failed: %v: %s", err, stderr)
	}
	if _, stderr, err := r.git("commit", "--no-gpg-sign", "--quiet", "--message", UndoMessage(sha)); err != nil {
		return fmt.Errorf("git commit failed: %v: %s", err, stderr)
	}
	return nil
}

// ErrNotInitialized is returned when tracking is enabled but Root has no
// repository yet.
var ErrNotInitialized = errors.New("git tracking is configured but not initialized, see `bib init --help`")

// Tracker records database mutations as auto-commits when tracking is on.
type Tracker struct {
	Repo    *Repo
	Enabled bool
	Log     *logger.Logger
}

// AutoCommit commits paths with the subject "Auto-commit: <command>" and the
// JSON-encoded args as body. Disabled tracking is a no-op; an uninitialized
// repository is reported as a warning only.
func (t *Tracker) AutoCommit(command string, args any, paths ...string) error {
	if t == nil || !t.Enabled {
		return nil
	}
	if !t.Repo.IsInitialized() {
		t.Log.Warn().Str("root", t.Repo.Root).Msg(ErrNotInitialized.Error())
		return nil
	}
	body := ""
	if args != nil {
		b, err := json.MarshalIndent(args, "", "  ")
		if err != nil {
			return fmt.Errorf("encode commit body: %w", err)
		}
		body = string(b)
	}
	subject := AutoCommitPrefix + " " + command
	if err := t.Repo.Commit(paths, subject, body); err != nil {
		return err
	}
	t.Log.Debug().Str("command", command).Msg("auto-committed database change")
	return nil
}
