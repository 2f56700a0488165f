// Package infra implements infrastructure concerns (engine subprocess, process
// lookup, audit storage, quote files, end-time file).
package infra

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/blissctl/internal/domain"
)

// LaunchFailureExitCode is the exit code of the synthetic outcome returned
// when the engine executable cannot be started.
const LaunchFailureExitCode int32 = 127

// LaunchFailureMessage is the stderr text of the synthetic outcome.
func LaunchFailureMessage(path string) string {
	return fmt.Sprintf("%s at %s. Install or build Bliss first.", domain.LaunchFailureMarker, path)
}

// CommandRunner abstracts subprocess execution for testing.
type CommandRunner interface {
	// Run executes name with args, writing output to the given buffers.
	Run(name string, args []string, stdout, stderr *bytes.Buffer) error
}

// RealCommandRunner executes real system commands.
type RealCommandRunner struct{}

// Run executes a command and waits for it to complete.
// Not bound to a context: an in-flight engine call always runs to completion.
func (r *RealCommandRunner) Run(name string, args []string, stdout, stderr *bytes.Buffer) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = nil
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// ExecEngineClient implements domain.EngineClient by spawning the engine.
type ExecEngineClient struct {
	paths     EnginePaths
	cmdRunner CommandRunner
	logger    *zap.Logger
}

// NewExecEngineClient creates an engine client resolving paths on every call.
func NewExecEngineClient(paths EnginePaths, logger *zap.Logger) *ExecEngineClient {
	return NewExecEngineClientWithRunner(paths, &RealCommandRunner{}, logger)
}

// NewExecEngineClientWithRunner creates a client with an injectable runner (for testing).
func NewExecEngineClientWithRunner(paths EnginePaths, runner CommandRunner, logger *zap.Logger) *ExecEngineClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecEngineClient{
		paths:     paths,
		cmdRunner: runner,
		logger:    logger,
	}
}

// ExecutablePath returns the currently resolved engine path.
func (c *ExecEngineClient) ExecutablePath() string {
	path, _ := ResolveExecutable(c.paths)
	return path
}

// Run invokes the engine and returns its outcome.
func (c *ExecEngineClient) Run(args ...string) domain.CommandOutcome {
	path, found := ResolveExecutable(c.paths)
	if !found {
		c.logger.Debug("no executable engine candidate, using installed path",
			zap.String("path", path))
	}

	var stdout, stderr bytes.Buffer
	err := c.cmdRunner.Run(path, args, &stdout, &stderr)

	outcome := domain.CommandOutcome{
		Stdout: decodeOutput(stdout.Bytes()),
		Stderr: decodeOutput(stderr.Bytes()),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			c.logger.Warn("failed to launch engine",
				zap.String("path", path),
				zap.Strings("args", args),
				zap.Error(err))
			outcome = domain.CommandOutcome{
				ExitCode: LaunchFailureExitCode,
				Stderr:   LaunchFailureMessage(path),
			}
			recordEngineInvocation(args, outcome.ExitCode)
			return outcome
		}
		outcome.ExitCode = int32(exitErr.ExitCode())
	}

	c.logger.Debug("engine invoked",
		zap.Strings("args", args),
		zap.Int32("exit_code", outcome.ExitCode))
	recordEngineInvocation(args, outcome.ExitCode)
	return outcome
}

// decodeOutput substitutes an empty string for output that is not valid UTF-8.
func decodeOutput(b []byte) string {
	if !utf8.Valid(b) {
		return ""
	}
	return string(b)
}

// Ensure ExecEngineClient implements domain.EngineClient.
var _ domain.EngineClient = (*ExecEngineClient)(nil)
