package discovery

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"scout/internal/agent"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Reason
	}{
		{
			name: "tool unavailable",
			err:  fmt.Errorf("openclaw: %w", agent.ErrToolUnavailable),
			want: ReasonAgentNotConfigured,
		},
		{
			name: "chain exhausted, all tools missing",
			err:  errors.Join(ErrNoToolAvailable, fmt.Errorf("clawdbot: %w", agent.ErrToolUnavailable)),
			want: ReasonAgentNotConfigured,
		},
		{
			name: "no output before termination",
			err:  fmt.Errorf("openclaw (exit 2, stderr: ): %w", agent.ErrTimeoutNoOutput),
			want: ReasonTimeout,
		},
		{
			name: "context deadline",
			err:  fmt.Errorf("discover: %w", context.DeadlineExceeded),
			want: ReasonTimeout,
		},
		{
			name: "rate limit mentioned on stderr wins over timeout",
			err:  fmt.Errorf("openclaw (exit 2, stderr: upstream rate limit exceeded): %w", agent.ErrTimeoutNoOutput),
			want: ReasonRateLimited,
		},
		{
			name: "429 in upload error",
			err:  errors.New("upload failed: status 429"),
			want: ReasonRateLimited,
		},
		{
			name: "unparseable output",
			err:  errors.Join(ErrNoToolAvailable, fmt.Errorf("openclaw: %w", ErrUnusableOutput)),
			want: ReasonInvalidAgentOutput,
		},
		{
			name: "output limit",
			err:  fmt.Errorf("openclaw: %w", agent.ErrOutputLimit),
			want: ReasonInvalidAgentOutput,
		},
		{
			name: "anything else",
			err:  errors.New("disk on fire"),
			want: ReasonUnknown,
		},
		{
			name: "nil",
			err:  nil,
			want: ReasonUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestEveryReasonHasAHint(t *testing.T) {
	for _, r := range []Reason{ReasonTimeout, ReasonRateLimited, ReasonAgentNotConfigured, ReasonInvalidAgentOutput, ReasonUnknown} {
		assert.NotEmpty(t, r.Hint(), "reason %s", r)
	}
}
