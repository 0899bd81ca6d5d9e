package discovery

import (
	"context"
	"errors"
	"strings"

	"scout/internal/agent"
)

// Reason is a small, user-facing failure category with a targeted
// remediation hint
type Reason string

const (
	ReasonTimeout            Reason = "timeout"
	ReasonRateLimited        Reason = "rate_limited"
	ReasonAgentNotConfigured Reason = "agent_not_configured"
	ReasonInvalidAgentOutput Reason = "invalid_agent_output"
	ReasonUnknown            Reason = "unknown"
)

// Classify maps an error from the run pipeline onto a reason code
func Classify(err error) Reason {
	if err == nil {
		return ReasonUnknown
	}
	if errors.Is(err, agent.ErrToolUnavailable) {
		return ReasonAgentNotConfigured
	}

	// Rate limiting outranks the generic categories: a tool that died
	// because an upstream throttled it usually says so on stderr, which
	// the supervisor carries in the error text
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") {
		return ReasonRateLimited
	}

	switch {
	case errors.Is(err, agent.ErrTimeoutNoOutput), errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, ErrUnusableOutput), errors.Is(err, agent.ErrOutputLimit):
		return ReasonInvalidAgentOutput
	}
	return ReasonUnknown
}

// Hint returns the remediation guidance for a reason
func (r Reason) Hint() string {
	switch r {
	case ReasonTimeout:
		return "The agent ran out of time. Increase discovery_timeout in the config, or narrow the profile so the search converges faster."
	case ReasonRateLimited:
		return "An upstream service is rate limiting. Wait a few minutes before rerunning, or reduce run frequency."
	case ReasonAgentNotConfigured:
		return "No agent tool is installed. Install openclaw or clawdbot and make sure it is on your PATH, then run 'scout doctor' to verify."
	case ReasonInvalidAgentOutput:
		return "The agent replied but not with a recognizable result. Rerun; if it persists, the tool version may be incompatible ('scout doctor' checks minimum versions)."
	default:
		return "Unexpected failure. Rerun with --verbose and check the log output."
	}
}
