// Package config loads the per-project autoclaude configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration stored at .autoclaude/config.yaml.
type Config struct {
	Version  int      `yaml:"version"`
	Agent    Agent    `yaml:"agent"`              // executes subtasks and drafts specs
	Reviewer *Agent   `yaml:"reviewer,omitempty"` // optional QA step after execution
	Defaults Defaults `yaml:"defaults"`
}

// Agent describes a coding-agent CLI and how to invoke it.
type Agent struct {
	Cmd        string   `yaml:"cmd"`                   // claude, gemini, codex, ...
	Args       []string `yaml:"args,omitempty"`        // extra CLI arguments
	AutoAccept bool     `yaml:"auto_accept,omitempty"` // skip permission prompts
	TimeoutSec int      `yaml:"timeout_sec,omitempty"` // per-subtask timeout (0 = 600)
}

// Defaults holds execution defaults a run can override per invocation.
type Defaults struct {
	Workers    int    `yaml:"workers,omitempty"`     // parallel subtasks per phase (0 = 1)
	Parallel   bool   `yaml:"parallel,omitempty"`    // run phase subtasks concurrently
	BaseBranch string `yaml:"base_branch,omitempty"` // branch worktrees start from
	Worktree   bool   `yaml:"worktree,omitempty"`    // execute in an isolated worktree
}

// EffectiveArgs returns the final args for the agent CLI, injecting
// non-interactive and auto-accept flags for known tools. The prompt is
// appended by the runner, not here.
func (a Agent) EffectiveArgs() []string {
	args := make([]string, len(a.Args))
	copy(args, a.Args)

	switch a.Cmd {
	case "claude":
		if !containsAny(args, "-p", "--print") {
			args = prepend(args, "--print")
		}
		if a.AutoAccept && !containsAny(args, "--dangerously-skip-permissions", "--permission-mode") {
			args = prepend(args, "--dangerously-skip-permissions")
		}
	case "gemini":
		if a.AutoAccept && !containsAny(args, "-y", "--yolo") {
			args = prepend(args, "--yolo")
		}
	case "codex":
		if a.AutoAccept && !containsAny(args, "--full-auto", "--approval-mode") {
			args = prepend(args, "--full-auto")
		}
	}

	return args
}

// Timeout returns the effective per-subtask timeout in seconds.
func (a Agent) Timeout() int {
	if a.TimeoutSec > 0 {
		return a.TimeoutSec
	}
	return 600
}

// EffectiveWorkers returns the worker count, never below one.
func (d Defaults) EffectiveWorkers() int {
	if d.Workers > 0 {
		return d.Workers
	}
	return 1
}

// Load reads and validates the config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Default returns a starter config wired to the claude CLI.
func Default() *Config {
	return &Config{
		Version: 1,
		Agent: Agent{
			Cmd:        "claude",
			AutoAccept: true,
		},
		Defaults: Defaults{
			Workers:    1,
			BaseBranch: "main",
		},
	}
}

func (c *Config) validate() error {
	if c.Agent.Cmd == "" {
		return fmt.Errorf("agent: cmd is required")
	}
	if c.Reviewer != nil && c.Reviewer.Cmd == "" {
		return fmt.Errorf("reviewer: cmd is required when a reviewer is configured")
	}
	if c.Defaults.Workers < 0 {
		return fmt.Errorf("defaults: workers must not be negative")
	}
	return nil
}

func containsAny(slice []string, targets ...string) bool {
	for _, s := range slice {
		for _, t := range targets {
			if s == t {
				return true
			}
		}
	}
	return false
}

func prepend(slice []string, val string) []string {
	return append([]string{val}, slice...)
}
