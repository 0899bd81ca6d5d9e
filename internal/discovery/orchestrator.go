// Package discovery drives the supervisor and parser across the agent
// tool fallback chain to produce one normalized result per run.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"scout/internal/agent"
	"scout/internal/extract"
	"scout/internal/types"
)

var (
	// ErrNoToolAvailable means every tool in the chain was exhausted
	// without a usable response
	ErrNoToolAvailable = errors.New("no agent tool produced a usable response")

	// ErrUnusableOutput marks an attempt whose output no parsing
	// strategy could recover
	ErrUnusableOutput = errors.New("agent output could not be parsed")
)

// smokeHeadline is the summary used for a passed pipeline check
const smokeHeadline = "Pipeline check passed (smoke mode)"

// ToolRunner runs one supervised tool invocation. Satisfied by
// *agent.Supervisor; substituted in tests.
type ToolRunner interface {
	Run(ctx context.Context, tool agent.Tool, agentID, prompt string, timeout time.Duration) (*agent.RunOutput, error)
}

// Orchestrator tries each tool in a fixed priority order, strictly
// serially: one external agent process alive per attempt.
type Orchestrator struct {
	runner  ToolRunner
	chain   []agent.Tool
	agentID string
	timeout time.Duration
	log     *slog.Logger
}

// New creates an orchestrator over the given tool chain
func New(runner ToolRunner, chain []agent.Tool, agentID string, timeout time.Duration, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		runner:  runner,
		chain:   chain,
		agentID: agentID,
		timeout: timeout,
		log:     log,
	}
}

// Discover executes the job against the tool chain and returns one
// normalized result. A tool that is unavailable, times out with no
// output, or emits unparseable output advances the chain; only
// exhausting every tool is fatal.
func (o *Orchestrator) Discover(ctx context.Context, job types.DiscoveryJob) (*types.DiscoveryResult, error) {
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job: %w", err)
	}
	if len(o.chain) == 0 {
		return nil, ErrNoToolAvailable
	}

	message := deliveredPrompt(job)

	var lastErr error
	for _, tool := range o.chain {
		out, err := o.runner.Run(ctx, tool, o.agentID, message, o.timeout)
		if err != nil {
			lastErr = err
			if errors.Is(err, agent.ErrToolUnavailable) {
				o.log.Info("agent tool not installed, advancing chain", "tool", tool)
			} else {
				o.log.Warn("agent tool attempt failed, advancing chain", "tool", tool, "error", err)
			}
			continue
		}

		outcome := extract.FromRaw(out.Stdout)
		if outcome == nil {
			lastErr = fmt.Errorf("%s: %w", tool, ErrUnusableOutput)
			o.log.Warn("no parsing strategy recovered a payload, advancing chain",
				"tool", tool, "stdout_bytes", len(out.Stdout))
			continue
		}

		if outcome.Ack {
			if job.Mode == types.ModeSmoke {
				o.log.Info("smoke acknowledgment received", "tool", tool)
				return smokeResult(tool), nil
			}
			// A bare acknowledgment in real mode means the tool skipped
			// the actual work
			lastErr = fmt.Errorf("%s: acknowledgment without payload: %w", tool, ErrUnusableOutput)
			o.log.Warn("real-mode run returned a bare acknowledgment, advancing chain", "tool", tool)
			continue
		}

		result := outcome.Result
		result.Source = string(tool)
		if out.Salvaged {
			// Partial output recovered from an abnormal termination is a
			// soft success, never reported as completed
			result.Metadata.Completed = false
			o.log.Warn("using salvaged partial result",
				"tool", tool, "candidates", len(result.Candidates))
		}

		if job.Mode == types.ModeReal && len(result.Candidates) == 0 {
			o.log.Warn("discovery returned zero candidates (degraded result)",
				"tool", tool, "headline", result.Summary.Headline)
		} else {
			o.log.Info("discovery result recovered",
				"tool", tool,
				"candidates", len(result.Candidates),
				"completed", result.Metadata.Completed)
		}
		return result, nil
	}

	if lastErr != nil {
		return nil, errors.Join(ErrNoToolAvailable, lastErr)
	}
	return nil, ErrNoToolAvailable
}

// deliveredPrompt folds the system instructions and the user request
// into the single -m message the agent tools accept. The output-schema
// contract lives in the system prompt, so it must reach the tool.
func deliveredPrompt(job types.DiscoveryJob) string {
	if job.SystemPrompt == "" {
		return job.UserPrompt
	}
	return job.SystemPrompt + "\n\n" + job.UserPrompt
}

// smokeResult builds the zero-candidate result for a passed pipeline check
func smokeResult(tool agent.Tool) *types.DiscoveryResult {
	return &types.DiscoveryResult{
		Candidates: []types.Candidate{},
		Summary:    types.Summary{Headline: smokeHeadline},
		Metadata:   types.Metadata{Completed: true},
		Source:     string(tool),
	}
}
