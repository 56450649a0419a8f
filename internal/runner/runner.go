// Package runner executes generated scripts in an isolated process.
//
// Scripts are materialized as transient files and handed to an external
// runner binary (uv by default) that resolves the dependencies declared in
// the script's metadata header and executes it in a fresh environment.
// A non-zero exit is a normal, reportable outcome; only failing to launch
// the runner at all is a runner fault.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
)

// DefaultBin is the runner binary resolved from PATH when none is configured.
const DefaultBin = "uv"

// ErrRunnerUnavailable indicates the runner binary could not be launched at
// all. It is distinct from a script exiting non-zero, which is reported via
// the Record.
var ErrRunnerUnavailable = errors.New("script runner unavailable")

// Record holds the captured outcome of a single script execution.
type Record struct {
	Output   string
	ExitCode int
}

// Succeeded reports whether the execution exited cleanly.
func (r *Record) Succeeded() bool {
	return r.ExitCode == 0
}

// Runner executes a self-contained script and captures its outcome.
type Runner interface {
	Run(ctx context.Context, script string) (*Record, error)
}

// UVRunner runs scripts with `uv run`, which creates an environment for the
// dependencies declared in the script before executing it.
type UVRunner struct {
	Bin string // runner binary; DefaultBin if empty
	Dir string // directory for transient script files; os.TempDir() if empty
}

// NewUVRunner creates a UVRunner using the given binary.
func NewUVRunner(bin string) *UVRunner {
	if bin == "" {
		bin = DefaultBin
	}
	return &UVRunner{Bin: bin}
}

// Run materializes the script as a transient file, executes it, and removes
// the file on every exit path. Exit 0 routes captured stdout into the
// record; non-zero routes captured stderr, prefixed so downstream consumers
// can tell diagnostic output from success output by inspection.
func (r *UVRunner) Run(ctx context.Context, script string) (*Record, error) {
	dir := r.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("goalrun-%s.py", uuid.New().String()[:8]))
	if err := os.WriteFile(path, []byte(script), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write script file: %w", err)
	}
	defer os.Remove(path)

	bin := r.Bin
	if bin == "" {
		bin = DefaultBin
	}

	cmd := exec.CommandContext(ctx, bin, "run", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// The runner never started: binary missing, not executable.
			return nil, fmt.Errorf("%w: %v", ErrRunnerUnavailable, err)
		}
		return &Record{
			Output:   "Error:\n" + stderr.String(),
			ExitCode: exitErr.ExitCode(),
		}, nil
	}

	return &Record{Output: stdout.String(), ExitCode: 0}, nil
}
