package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	// maxCaptureBytes caps each captured stream. Exceeding it is a
	// deterministic failure, not silent truncation.
	maxCaptureBytes = 8 * 1024 * 1024

	// defaultKillGrace is how long past the cooperative deadline the
	// process gets before the hard kill
	defaultKillGrace = 10 * time.Second
)

var (
	// ErrToolUnavailable means the tool executable is not installed.
	// Local to one tool; callers advance the fallback chain.
	ErrToolUnavailable = errors.New("agent tool not available")

	// ErrTimeoutNoOutput means the process terminated abnormally without
	// producing any stdout to salvage
	ErrTimeoutNoOutput = errors.New("agent tool produced no output before termination")

	// ErrOutputLimit means a stream exceeded the capture bound
	ErrOutputLimit = errors.New("agent tool output exceeded capture limit")
)

// RunOutput is the outcome of one supervised tool invocation
type RunOutput struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Salvaged is true when the process terminated abnormally but had
	// already written output worth recovering
	Salvaged bool
	Duration time.Duration
}

// Supervisor runs one agent tool process at a time, draining its streams
// under a cooperative-then-forced timeout.
type Supervisor struct {
	log       *slog.Logger
	killGrace time.Duration

	// lookPath resolves a tool executable; replaced in tests
	lookPath func(name string) (string, error)
}

// NewSupervisor creates a supervisor logging through the given sink
func NewSupervisor(log *slog.Logger) *Supervisor {
	return &Supervisor{
		log:       log,
		killGrace: defaultKillGrace,
		lookPath:  exec.LookPath,
	}
}

// Run invokes the tool with the composed prompt and waits for it to
// finish. The timeout is passed to the tool as a soft deadline; the
// process is killed killGrace after that if it does not self-terminate.
// On abnormal termination any accumulated stdout is returned as a
// salvaged result rather than discarded.
func (s *Supervisor) Run(ctx context.Context, tool Tool, agentID, prompt string, timeout time.Duration) (*RunOutput, error) {
	path, err := s.lookPath(tool.Executable())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tool, ErrToolUnavailable)
	}

	sessionID := uuid.NewString()
	args := buildArgs(agentID, sessionID, prompt, int(timeout.Seconds()))

	// Hard deadline backstops the cooperative one
	hardCtx, cancel := context.WithTimeout(ctx, timeout+s.killGrace)
	defer cancel()

	cmd := exec.CommandContext(hardCtx, path, args...)
	// If the tool forked helpers that inherited its pipes, force-close
	// them shortly after the kill so the drain goroutines cannot hang
	cmd.WaitDelay = s.killGrace

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", tool, err)
	}

	s.log.Debug("agent tool started",
		"tool", tool,
		"session_id", sessionID,
		"timeout", timeout)

	// Drain both streams concurrently so a full pipe buffer on either
	// side cannot stall the child. The errgroup is the single join point
	// for the two readers.
	stdout := newCappedBuffer(maxCaptureBytes)
	stderr := newCappedBuffer(maxCaptureBytes)

	g, _ := errgroup.WithContext(hardCtx)
	g.Go(func() error { return drain(stdout, stdoutPipe, cancel) })
	g.Go(func() error { return drain(stderr, stderrPipe, cancel) })

	drainErr := g.Wait()
	waitErr := cmd.Wait()
	elapsed := time.Since(start)

	out := &RunOutput{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
		Duration: elapsed,
	}

	if drainErr != nil && errors.Is(drainErr, ErrOutputLimit) {
		return nil, fmt.Errorf("%s: %w", tool, ErrOutputLimit)
	}

	if waitErr == nil {
		s.log.Debug("agent tool exited cleanly",
			"tool", tool,
			"duration", elapsed,
			"stdout_bytes", len(out.Stdout))
		return out, nil
	}

	// Abnormal exit: non-zero, killed, or signaled. Salvage whatever the
	// tool managed to write before it died.
	if strings.TrimSpace(out.Stdout) != "" {
		out.Salvaged = true
		s.log.Warn("agent tool terminated abnormally, salvaging partial output",
			"tool", tool,
			"exit_code", out.ExitCode,
			"duration", elapsed,
			"stdout_bytes", len(out.Stdout))
		return out, nil
	}

	s.log.Warn("agent tool terminated with no output",
		"tool", tool,
		"exit_code", out.ExitCode,
		"duration", elapsed,
		"stderr_tail", tail(out.Stderr, 500))
	return nil, fmt.Errorf("%s (exit %d, stderr: %s): %w",
		tool, out.ExitCode, tail(out.Stderr, 200), ErrTimeoutNoOutput)
}

// drain copies a stream into its accumulator. On overflow it cancels the
// process context so the child dies instead of blocking on a dead pipe.
func drain(dst *cappedBuffer, src io.Reader, cancel context.CancelFunc) error {
	_, err := io.Copy(dst, src)
	if err != nil && errors.Is(err, ErrOutputLimit) {
		cancel()
		return err
	}
	// Pipe close errors from the child dying are expected
	return nil
}

// cappedBuffer accumulates stream output up to a fixed bound
type cappedBuffer struct {
	mu    sync.Mutex
	buf   strings.Builder
	limit int
}

func newCappedBuffer(limit int) *cappedBuffer {
	return &cappedBuffer{limit: limit}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.buf.Len()+len(p) > b.limit {
		return 0, ErrOutputLimit
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// tail returns the last n bytes of s for compact error reporting
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
