package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"scout/internal/config"
	"scout/internal/types"
)

func TestAssembleBrief(t *testing.T) {
	cfg := config.Default()
	cfg.WorkspaceID = "ws-1"
	cfg.Profile = "embedded Go folks"

	started := time.Date(2026, 8, 29, 7, 0, 0, 0, time.UTC)
	result := &types.DiscoveryResult{
		Candidates: []types.Candidate{
			{Name: "Ada Park", EvidenceURLs: []string{"https://a", "https://b"}},
		},
		Summary:  types.Summary{Headline: "1 match"},
		Metadata: types.Metadata{SearchesPerformed: 3, Completed: true},
		Source:   "openclaw",
	}

	brief := assembleBrief(cfg, types.ModeReal, result, started)

	assert.Equal(t, "ws-1", brief.WorkspaceID)
	assert.Equal(t, "2026-08-29T07:00:00Z", brief.RunID)
	assert.NotEmpty(t, brief.ProjectProfileHash)
	assert.Equal(t, types.ModeReal, brief.RunMetadata.Mode)
	assert.Equal(t, "openclaw", brief.RunMetadata.SourceTool)
	assert.Equal(t, 3, brief.RunMetadata.SearchesPerformed)
	assert.True(t, brief.RunMetadata.Completed)
	assert.Equal(t, result.Candidates, brief.Candidates)
	assert.Equal(t, []string{"Reach out to Ada Park"}, brief.NextActions)
}

func TestAssembleBriefProfileHashTracksChanges(t *testing.T) {
	started := time.Now().UTC()
	result := &types.DiscoveryResult{}

	cfg := config.Default()
	cfg.Profile = "profile one"
	first := assembleBrief(cfg, types.ModeReal, result, started)

	cfg.Profile = "profile two"
	second := assembleBrief(cfg, types.ModeReal, result, started)

	assert.NotEqual(t, first.ProjectProfileHash, second.ProjectProfileHash)
}

func TestNextActions(t *testing.T) {
	t.Run("incomplete run suggests rerun", func(t *testing.T) {
		actions := nextActions(&types.DiscoveryResult{
			Candidates: []types.Candidate{{Name: "Ada"}},
			Metadata:   types.Metadata{Completed: false},
		})
		assert.Contains(t, actions, "Reach out to Ada")
		assert.Contains(t, actions[len(actions)-1], "cut short")
	})

	t.Run("zero candidates with headline", func(t *testing.T) {
		actions := nextActions(&types.DiscoveryResult{
			Summary:  types.Summary{Headline: "nothing new"},
			Metadata: types.Metadata{Completed: true},
		})
		assert.Len(t, actions, 1)
		assert.Contains(t, actions[0], "broadening")
	})

	t.Run("empty result", func(t *testing.T) {
		assert.Empty(t, nextActions(&types.DiscoveryResult{}))
	})
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want string
	}{
		{"plain triple", "openclaw 1.4.2", "v1.4.2"},
		{"v-prefixed", "clawdbot version v2.3.0", "v2.3.0"},
		{"with build chatter", "clawdbot 2.3.0\nbuilt 2026-08-01", "v2.3.0"},
		{"no version", "usage: openclaw [command]", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseVersion(tt.out))
		})
	}
}
