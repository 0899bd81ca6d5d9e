package discovery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scout/internal/agent"
	"scout/internal/types"
)

// stubRunner replays a canned response per tool and records attempt order
type stubRunner struct {
	responses map[agent.Tool]stubResponse
	attempts  []agent.Tool
	prompts   []string
}

type stubResponse struct {
	out *agent.RunOutput
	err error
}

func (s *stubRunner) Run(_ context.Context, tool agent.Tool, _, prompt string, _ time.Duration) (*agent.RunOutput, error) {
	s.attempts = append(s.attempts, tool)
	s.prompts = append(s.prompts, prompt)
	resp, ok := s.responses[tool]
	if !ok {
		return nil, fmt.Errorf("%s: %w", tool, agent.ErrToolUnavailable)
	}
	return resp.out, resp.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newOrchestrator(runner ToolRunner) *Orchestrator {
	return New(runner, agent.DefaultChain(), "conn-scout", time.Minute, testLogger())
}

func realJob() types.DiscoveryJob {
	return types.DiscoveryJob{UserPrompt: "find collaborators", Mode: types.ModeReal}
}

const resultPayload = `{"candidates":[{"name":"Ada Park","evidence_urls":["https://a","https://b"]}],"summary":{"headline":"1 match"},"metadata":{"completed":true}}`

func TestDiscoverFirstToolSucceeds(t *testing.T) {
	runner := &stubRunner{responses: map[agent.Tool]stubResponse{
		agent.ToolOpenClaw: {out: &agent.RunOutput{Stdout: resultPayload}},
	}}
	result, err := newOrchestrator(runner).Discover(context.Background(), realJob())
	require.NoError(t, err)
	assert.Equal(t, []agent.Tool{agent.ToolOpenClaw}, runner.attempts)
	assert.Equal(t, "openclaw", result.Source)
	assert.Len(t, result.Candidates, 1)
	assert.True(t, result.Metadata.Completed)
}

func TestDiscoverDeliversSystemInstructionsWithUserPrompt(t *testing.T) {
	runner := &stubRunner{responses: map[agent.Tool]stubResponse{
		agent.ToolOpenClaw: {out: &agent.RunOutput{Stdout: resultPayload}},
	}}
	job := types.DiscoveryJob{
		SystemPrompt: "Respond with a single JSON object",
		UserPrompt:   "find collaborators",
		Mode:         types.ModeReal,
	}
	_, err := newOrchestrator(runner).Discover(context.Background(), job)
	require.NoError(t, err)
	require.Len(t, runner.prompts, 1)
	assert.Contains(t, runner.prompts[0], "Respond with a single JSON object")
	assert.Contains(t, runner.prompts[0], "find collaborators")
	assert.Less(t, strings.Index(runner.prompts[0], "Respond"),
		strings.Index(runner.prompts[0], "find collaborators"),
		"system instructions come before the user request")
}

func TestDiscoverEmptySystemPromptDeliveredVerbatim(t *testing.T) {
	runner := &stubRunner{responses: map[agent.Tool]stubResponse{
		agent.ToolOpenClaw: {out: &agent.RunOutput{Stdout: resultPayload}},
	}}
	_, err := newOrchestrator(runner).Discover(context.Background(), realJob())
	require.NoError(t, err)
	require.Len(t, runner.prompts, 1)
	assert.Equal(t, "find collaborators", runner.prompts[0])
}

func TestDiscoverFallsBackOnUnavailableTool(t *testing.T) {
	runner := &stubRunner{responses: map[agent.Tool]stubResponse{
		agent.ToolOpenClaw: {err: fmt.Errorf("openclaw: %w", agent.ErrToolUnavailable)},
		agent.ToolClawdbot: {out: &agent.RunOutput{Stdout: resultPayload}},
	}}
	result, err := newOrchestrator(runner).Discover(context.Background(), realJob())
	require.NoError(t, err)
	assert.Equal(t, []agent.Tool{agent.ToolOpenClaw, agent.ToolClawdbot}, runner.attempts)
	assert.Equal(t, "clawdbot", result.Source)
}

func TestDiscoverFallsBackOnUnparseableOutput(t *testing.T) {
	runner := &stubRunner{responses: map[agent.Tool]stubResponse{
		agent.ToolOpenClaw: {out: &agent.RunOutput{Stdout: "sorry, I gave up"}},
		agent.ToolClawdbot: {out: &agent.RunOutput{Stdout: resultPayload}},
	}}
	result, err := newOrchestrator(runner).Discover(context.Background(), realJob())
	require.NoError(t, err)
	assert.Equal(t, "clawdbot", result.Source)
}

func TestDiscoverExhaustedChainIsFatal(t *testing.T) {
	runner := &stubRunner{responses: map[agent.Tool]stubResponse{}}
	_, err := newOrchestrator(runner).Discover(context.Background(), realJob())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoToolAvailable)
	assert.ErrorIs(t, err, agent.ErrToolUnavailable)
	assert.Equal(t, []agent.Tool{agent.ToolOpenClaw, agent.ToolClawdbot}, runner.attempts)
}

func TestDiscoverSalvagedResultMarkedIncomplete(t *testing.T) {
	// The tool was killed after its timeout but had already written a
	// valid payload claiming completion
	runner := &stubRunner{responses: map[agent.Tool]stubResponse{
		agent.ToolOpenClaw: {out: &agent.RunOutput{Stdout: resultPayload, Salvaged: true}},
	}}
	result, err := newOrchestrator(runner).Discover(context.Background(), realJob())
	require.NoError(t, err)
	assert.False(t, result.Metadata.Completed)
	assert.Len(t, result.Candidates, 1)
	assert.Equal(t, "Ada Park", result.Candidates[0].Name)
}

func TestDiscoverSmokeAck(t *testing.T) {
	runner := &stubRunner{responses: map[agent.Tool]stubResponse{
		agent.ToolOpenClaw: {out: &agent.RunOutput{Stdout: `{"status":"ok"}`}},
	}}
	job := types.DiscoveryJob{UserPrompt: "ping", Mode: types.ModeSmoke}
	result, err := newOrchestrator(runner).Discover(context.Background(), job)
	require.NoError(t, err)
	assert.Empty(t, result.Candidates)
	assert.Equal(t, smokeHeadline, result.Summary.Headline)
	assert.True(t, result.Metadata.Completed)
}

func TestDiscoverRealModeAckAdvancesChain(t *testing.T) {
	runner := &stubRunner{responses: map[agent.Tool]stubResponse{
		agent.ToolOpenClaw: {out: &agent.RunOutput{Stdout: "OK"}},
		agent.ToolClawdbot: {out: &agent.RunOutput{Stdout: resultPayload}},
	}}
	result, err := newOrchestrator(runner).Discover(context.Background(), realJob())
	require.NoError(t, err)
	assert.Equal(t, "clawdbot", result.Source)
}

func TestDiscoverZeroCandidatesIsDegradedNotFatal(t *testing.T) {
	runner := &stubRunner{responses: map[agent.Tool]stubResponse{
		agent.ToolOpenClaw: {out: &agent.RunOutput{Stdout: `{"candidates":[],"summary":{"headline":"no matches this week"}}`}},
	}}
	result, err := newOrchestrator(runner).Discover(context.Background(), realJob())
	require.NoError(t, err)
	assert.Empty(t, result.Candidates)
	assert.Equal(t, "no matches this week", result.Summary.Headline)
}

func TestDiscoverInvalidJobRejected(t *testing.T) {
	runner := &stubRunner{responses: map[agent.Tool]stubResponse{}}
	_, err := newOrchestrator(runner).Discover(context.Background(), types.DiscoveryJob{Mode: types.ModeReal})
	require.Error(t, err)
	assert.Empty(t, runner.attempts, "invalid job must not spawn any tool")
}
