// Package executor wraps os/exec behind an interface so that the database
// client tools can be mocked in tests.
package executor

import (
	"context"
	"io"
	"os"
	"os/exec"
)

// CommandExecutor runs external commands. Run is for short-lived commands
// whose combined output is consumed at once; Start is for long-running
// processes that the caller supervises while they stream to stdout/stderr.
type CommandExecutor interface {
	Run(ctx context.Context, env []string, name string, args ...string) ([]byte, error)
	Start(ctx context.Context, env []string, stdout, stderr io.Writer, name string, args ...string) (Process, error)
}

// Process is a handle on a started command.
type Process interface {
	// Wait blocks until the command exits and returns its exit error, if any.
	Wait() error
	// Kill forcibly terminates the command.
	Kill() error
}

// DefaultExecutor is the default command executor using os/exec.
type DefaultExecutor struct{}

var _ CommandExecutor = (*DefaultExecutor)(nil)

// Run executes a command with additional environment variables and returns
// its combined output.
func (e *DefaultExecutor) Run(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	return cmd.CombinedOutput()
}

// Start launches a command without waiting for it.
func (e *DefaultExecutor) Start(ctx context.Context, env []string, stdout, stderr io.Writer, name string, args ...string) (Process, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &osProcess{cmd: cmd}, nil
}

type osProcess struct {
	cmd *exec.Cmd
}

func (p *osProcess) Wait() error {
	return p.cmd.Wait()
}

func (p *osProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}
