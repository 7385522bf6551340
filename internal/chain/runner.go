package chain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Runner abstracts exec calls to the chain binary for testability.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// CommandError carries the stderr of a failed chain binary invocation.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if line := extractErrorLine(e.Stderr); line != "" {
		return line
	}
	if s := lastLine(e.Stderr); s != "" {
		return s
	}
	return e.Err.Error()
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExecRunner runs the chain binary as a subprocess.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := commandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return stdout.Bytes(), fmt.Errorf("%s: %w", filepath.Base(name), ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.Bytes(), &CommandError{Args: args, Stderr: stderr.String(), Err: err}
		}
		return stdout.Bytes(), fmt.Errorf("%s: %w", filepath.Base(name), err)
	}
	return stdout.Bytes(), nil
}

// commandContext creates an exec.CommandContext with DYLD_LIBRARY_PATH set
// so macOS builds of the chain binary find libwasmvm.dylib next to them.
func commandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)

	binDir := filepath.Dir(name)
	if binDir == "" || binDir == "." {
		return cmd
	}
	newPath := binDir
	if existing := os.Getenv("DYLD_LIBRARY_PATH"); existing != "" {
		newPath = newPath + ":" + existing
	}
	cmd.Env = append(os.Environ(), "DYLD_LIBRARY_PATH="+newPath)
	return cmd
}

func extractErrorLine(s string) string {
	for _, l := range strings.Split(s, "\n") {
		if strings.Contains(l, "rpc error:") ||
			strings.Contains(l, "failed to execute message") ||
			strings.Contains(l, "insufficient") ||
			strings.Contains(l, "unauthorized") ||
			strings.Contains(l, "key not found") ||
			strings.Contains(l, "connection refused") ||
			strings.Contains(l, "account sequence mismatch") {
			return strings.TrimSpace(l)
		}
	}
	return ""
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
