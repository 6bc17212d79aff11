package agent

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/autoclaude/autoclaude/internal/config"
)

// CLIRunner spawns the configured agent CLI with the prompt as the last
// positional argument and captures its output.
type CLIRunner struct {
	cfg config.Agent
}

// NewCLIRunner creates a runner for the given agent config. It is the
// default Factory.
func NewCLIRunner(cfg config.Agent) Runner {
	return &CLIRunner{cfg: cfg}
}

func (r *CLIRunner) Name() string { return r.cfg.Cmd }

// Run spawns the agent process. A non-zero exit is reported through
// ExitCode, not as an error; partial output is still useful to the
// caller. Only timeouts and spawn failures populate Err.
func (r *CLIRunner) Run(ctx context.Context, req Request) *Response {
	start := time.Now()

	args := append(r.cfg.EffectiveArgs(), req.Prompt)

	timeout := time.Duration(r.cfg.Timeout()) * time.Second
	if req.TimeoutSec > 0 {
		timeout = time.Duration(req.TimeoutSec) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.cfg.Cmd, args...)
	cmd.Dir = req.WorkDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	resp := &Response{
		Output:   stdout.String(),
		Duration: time.Since(start).Seconds(),
	}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			resp.ExitCode = -1
			resp.Err = fmt.Errorf("agent %s timed out after %ds", r.cfg.Cmd, int(timeout.Seconds()))
			return resp
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			resp.ExitCode = exitErr.ExitCode()
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				resp.Output += "\n" + msg
			}
			return resp
		}
		resp.ExitCode = -1
		resp.Err = fmt.Errorf("spawn agent %s: %w", r.cfg.Cmd, err)
	}

	return resp
}

// Available checks whether the agent CLI exists in PATH.
func Available(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}
