package checker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/sevigo/constraint-warden/internal/config"
	"github.com/sevigo/constraint-warden/internal/core"
)

// ExecChecker runs the external checker as a subprocess, one invocation per
// commit, and decodes a JSON CheckResult from its stdout. The process is
// handed the project, owner, user and commit hash the same way the model
// server's own plugin runner is driven.
type ExecChecker struct {
	command string
	args    []string
	logger  *slog.Logger
}

// NewExecChecker creates an ExecChecker from configuration.
func NewExecChecker(cfg config.CheckerConfig, logger *slog.Logger) *ExecChecker {
	return &ExecChecker{command: cfg.Command, args: cfg.Args, logger: logger}
}

// Check invokes the checker process for one commit. A non-zero exit or
// undecodable output is an error, surfaced to the dispatcher as a fault.
func (c *ExecChecker) Check(ctx context.Context, event core.CommitEvent) (*core.CheckResult, error) {
	args := make([]string, 0, len(c.args)+7)
	args = append(args, c.args...)
	args = append(args, event.ProjectName,
		"-o", event.Owner,
		"-u", event.Data.UserID,
		"-c", event.Data.CommitHash,
	)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.command, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Debug("running checker process", "command", c.command, "project", event.ProjectName)

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("checker process failed: %w (stderr: %s)", err, truncate(stderr.String(), 512))
	}

	var result core.CheckResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode checker output: %w", err)
	}
	return &result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
