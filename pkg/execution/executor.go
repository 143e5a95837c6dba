/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: executor.go
Description: Command executor for the fuzz report pipeline. Runs short-lived external
tools (git, the dev container wrapper, uname) with a bounded timeout and returns their
trimmed standard output, or a CommandError carrying the exit status and stderr.
*/

package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kleascm/fuzz-report/pkg/failure"
)

// Runner runs a command and returns its trimmed output or a failure.
// An empty dir runs the command in the process working directory.
type Runner interface {
	Run(ctx context.Context, dir string, argv []string) (string, error)
}

// CommandError describes a command that could not be started or exited non-zero
type CommandError struct {
	Argv     []string
	Dir      string
	ExitCode int // -1 when the command never ran
	Stderr   string
	TimedOut bool
	Err      error
}

func (e *CommandError) Error() string {
	var b strings.Builder
	switch {
	case e.TimedOut:
		fmt.Fprintf(&b, "timed out running %q", e.Argv)
	case e.ExitCode >= 0:
		fmt.Fprintf(&b, "%q exited with status %d", e.Argv, e.ExitCode)
	default:
		fmt.Fprintf(&b, "failed to run %q: %v", e.Argv, e.Err)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, "\n%s", e.Stderr)
	}
	return b.String()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ProcessExecutor implements Runner with os/exec
type ProcessExecutor struct {
	Timeout time.Duration
}

// NewProcessExecutor creates an executor that kills commands running longer than timeout
func NewProcessExecutor(timeout time.Duration) *ProcessExecutor {
	return &ProcessExecutor{Timeout: timeout}
}

// Run executes argv in dir. Output is decoded as UTF-8 and stripped of
// surrounding whitespace.
func (e *ProcessExecutor) Run(ctx context.Context, dir string, argv []string) (string, error) {
	if len(argv) == 0 || argv[0] == "" {
		return "", failure.New(failure.KindInvalidInput, "command", "empty command line")
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, resolveBinary(dir, argv[0]), argv[1:]...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		cmdErr := &CommandError{
			Argv:     argv,
			Dir:      dir,
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		return "", failure.Wrap(failure.KindCommand, argv[0], cmdErr)
	}

	out := stdout.Bytes()
	if !utf8.Valid(out) {
		return "", failure.New(failure.KindCommand, argv[0], "output of %q is not valid UTF-8", argv)
	}
	return strings.TrimSpace(string(out)), nil
}

// resolveBinary anchors relative paths such as tools/devtool to dir.
// Bare names are left for PATH lookup.
func resolveBinary(dir, bin string) string {
	if dir == "" || filepath.IsAbs(bin) || !strings.ContainsRune(bin, filepath.Separator) {
		return bin
	}
	path, err := filepath.Abs(filepath.Join(dir, bin))
	if err != nil {
		return filepath.Join(dir, bin)
	}
	return path
}
