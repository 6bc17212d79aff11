// Package agent invokes coding-agent CLIs (claude, gemini, codex, ...)
// as opaque subprocesses and parses the structured bits of their output.
package agent

import (
	"context"

	"github.com/autoclaude/autoclaude/internal/config"
)

// Request is one prompt handed to an agent.
type Request struct {
	Prompt     string // full prompt text
	WorkDir    string // directory the agent runs in
	TimeoutSec int    // overrides the configured timeout when > 0
}

// Response is what came back.
type Response struct {
	Output   string  // agent stdout
	ExitCode int     // 0 = success
	Duration float64 // seconds
	Err      error   // timeout or spawn failure; non-zero exits are not errors
}

// Failed reports whether the invocation should be treated as a failure.
func (r *Response) Failed() bool {
	return r.Err != nil || r.ExitCode != 0
}

// Runner executes agent requests.
type Runner interface {
	Run(ctx context.Context, req Request) *Response
	Name() string
}

// Factory builds a Runner from an agent config. The executor takes one
// so tests can substitute a stub.
type Factory func(cfg config.Agent) Runner
