package export

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// ShellCommand is one external program invocation.
type ShellCommand struct {
	Name             string
	Arguments        []string
	WorkingDirectory string
}

// ExecutionResult captures a finished command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner runs external commands.
type CommandRunner interface {
	Run(ctx context.Context, command ShellCommand) (ExecutionResult, error)
}

// OSCommandRunner executes commands using os/exec. A non-zero exit status is
// reported in ExecutionResult, not as an error.
type OSCommandRunner struct{}

func (OSCommandRunner) Run(ctx context.Context, command ShellCommand) (ExecutionResult, error) {
	cmd := exec.CommandContext(ctx, command.Name, command.Arguments...)
	if command.WorkingDirectory != "" {
		cmd.Dir = command.WorkingDirectory
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return ExecutionResult{StandardOutput: stdout.String(), StandardError: stderr.String(), ExitCode: exitErr.ExitCode()}, nil
		}
		return ExecutionResult{}, err
	}
	return ExecutionResult{StandardOutput: stdout.String(), StandardError: stderr.String()}, nil
}
