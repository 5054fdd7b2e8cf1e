// Package editor hands text to the user's external editor and reads it back.
package editor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner launches command on file and waits for it to exit.
type Runner interface {
	Run(ctx context.Context, command, file string) error
}

type shellRunner struct{}

// Run executes `sh -c "<command> <file>"` attached to the terminal, so that
// editor settings like "code --wait" keep working.
func (shellRunner) Run(ctx context.Context, command, file string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", command+" "+shellQuote(file))
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// ErrNoEditor is returned when no editor command is configured.
var ErrNoEditor = errors.New("no editor configured, set $EDITOR or commands.edit.editor")

// Editor edits text through a temporary YAML file.
type Editor struct {
	Command string
	Runner  Runner
}

// New returns an Editor running command through the shell.
func New(command string) *Editor {
	return &Editor{Command: command, Runner: shellRunner{}}
}

// Edit writes initial to a temporary bib-*.yaml file, opens it in the editor
// and returns the file content once the editor exits. The file is removed
// afterwards.
func (e *Editor) Edit(ctx context.Context, initial string) (string, error) {
	if strings.TrimSpace(e.Command) == "" {
		return "", ErrNoEditor
	}
	f, err := os.CreateTemp("", "bib-*.yaml")
	if err != nil {
		return "", err
	}
	path := f.Name()
	defer os.Remove(path)
	if _, err := f.WriteString(initial); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	if err := e.Runner.Run(ctx, e.Command, path); err != nil {
		return "", fmt.Errorf("editor %q: %w", e.Command, err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
