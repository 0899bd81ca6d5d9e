// Package agent spawns and supervises external autonomous-agent tool
// processes for discovery runs.
package agent

import (
	"fmt"
	"strconv"
)

// Tool identifies an interchangeable agent CLI in the fallback chain
type Tool string

const (
	// ToolOpenClaw is the primary agent CLI
	ToolOpenClaw Tool = "openclaw"
	// ToolClawdbot is the fallback agent CLI
	ToolClawdbot Tool = "clawdbot"
)

// IsValid checks if the tool value is valid
func (t Tool) IsValid() bool {
	switch t {
	case ToolOpenClaw, ToolClawdbot:
		return true
	}
	return false
}

// Executable returns the binary name the tool is invoked as
func (t Tool) Executable() string {
	return string(t)
}

// DefaultChain returns the tool fallback order used when the config file
// does not override it
func DefaultChain() []Tool {
	return []Tool{ToolOpenClaw, ToolClawdbot}
}

// ParseChain converts configured tool names into a validated chain
func ParseChain(names []string) ([]Tool, error) {
	if len(names) == 0 {
		return DefaultChain(), nil
	}
	chain := make([]Tool, 0, len(names))
	for _, name := range names {
		tool := Tool(name)
		if !tool.IsValid() {
			return nil, fmt.Errorf("unknown agent tool: %q", name)
		}
		chain = append(chain, tool)
	}
	return chain, nil
}

// buildArgs constructs the agent invocation arguments. The prompt is
// passed as a single opaque argument so its content is never interpreted
// by a shell, and the timeout is forwarded to the tool as a cooperative
// deadline.
func buildArgs(agentID, sessionID, prompt string, timeoutSeconds int) []string {
	return []string{
		"agent",
		"--json",
		"--timeout", strconv.Itoa(timeoutSeconds),
		"--agent", agentID,
		"--session-id", sessionID,
		"-m", prompt,
	}
}
