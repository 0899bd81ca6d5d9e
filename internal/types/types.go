// Package types defines the domain types shared across the scout pipeline.
package types

import (
	"fmt"
	"time"
)

// Mode selects how much real work a discovery run performs
type Mode string

const (
	// ModeSmoke exercises the full pipeline without real external lookups
	ModeSmoke Mode = "smoke"
	// ModeReal performs an actual discovery search
	ModeReal Mode = "real"
)

// IsValid checks if the mode value is valid
func (m Mode) IsValid() bool {
	switch m {
	case ModeSmoke, ModeReal:
		return true
	}
	return false
}

// DiscoveryJob is the prompt-and-mode package handed to an agent tool for
// one run attempt. Immutable once built.
type DiscoveryJob struct {
	SystemPrompt string `json:"system_prompt"`
	UserPrompt   string `json:"user_prompt"`
	Mode         Mode   `json:"mode"`
}

// Validate checks if the job has valid field values
func (j *DiscoveryJob) Validate() error {
	if j.UserPrompt == "" {
		return fmt.Errorf("user prompt is required")
	}
	if !j.Mode.IsValid() {
		return fmt.Errorf("invalid mode: %s", j.Mode)
	}
	return nil
}

// Scores holds the per-dimension scoring for a candidate plus the
// weighted final score
type Scores struct {
	Relevance    float64 `json:"relevance"`
	Reachability float64 `json:"reachability"`
	Authority    float64 `json:"authority"`
	Recency      float64 `json:"recency"`
	Evidence     float64 `json:"evidence"`
	FinalScore   float64 `json:"final_score"`
}

// Candidate is one person surfaced by a discovery run
type Candidate struct {
	Name              string   `json:"name"`
	Handle            string   `json:"handle,omitempty"`
	Role              string   `json:"role,omitempty"`
	Company           string   `json:"company,omitempty"`
	WhyMatch          []string `json:"why_match,omitempty"`
	EvidenceURLs      []string `json:"evidence_urls,omitempty"`
	RiskFlags         []string `json:"risk_flags,omitempty"`
	Scores            *Scores  `json:"scores,omitempty"`
	LastActivity      string   `json:"last_activity,omitempty"`
	SuggestedIntro    string   `json:"suggested_intro,omitempty"`
	SuggestedFollowup string   `json:"suggested_followup,omitempty"`
}

// Identifiers returns the non-empty identifier strings (name, company,
// handle) used for avoid-list matching
func (c *Candidate) Identifiers() []string {
	var ids []string
	for _, id := range []string{c.Name, c.Company, c.Handle} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Summary is the narrative portion of a discovery result
type Summary struct {
	Headline       string   `json:"headline"`
	KeyInsights    []string `json:"key_insights,omitempty"`
	VenuesSearched []string `json:"venues_searched,omitempty"`
}

// Metadata records what the agent tool actually did during a run.
// Completed=false marks a result salvaged from a timed-out process.
type Metadata struct {
	SearchesPerformed   int  `json:"searches_performed"`
	PagesFetched        int  `json:"pages_fetched"`
	CandidatesEvaluated int  `json:"candidates_evaluated"`
	Completed           bool `json:"completed"`
}

// DiscoveryResult is the structured payload recovered from one successful
// tool attempt
type DiscoveryResult struct {
	Candidates []Candidate `json:"candidates"`
	Summary    Summary     `json:"summary"`
	Metadata   Metadata    `json:"metadata"`
	// Source tags which tool produced the result
	Source string `json:"source,omitempty"`
}

// RunMetadata describes the execution of one run inside a brief
type RunMetadata struct {
	Mode                Mode      `json:"mode"`
	SourceTool          string    `json:"source_tool,omitempty"`
	StartedAt           time.Time `json:"started_at"`
	DurationSeconds     float64   `json:"duration_seconds"`
	SearchesPerformed   int       `json:"searches_performed"`
	PagesFetched        int       `json:"pages_fetched"`
	CandidatesEvaluated int       `json:"candidates_evaluated"`
	Completed           bool      `json:"completed"`
}

// ConnectionBrief is the finalized result bundle for one run. It is
// created once per run and handed by reference to the validation gate,
// uploader, and archiver; none of them mutate it.
type ConnectionBrief struct {
	WorkspaceID        string      `json:"workspace_id"`
	RunID              string      `json:"run_id"`
	ProjectProfileHash string      `json:"project_profile_hash"`
	RunMetadata        RunMetadata `json:"run_metadata"`
	Candidates         []Candidate `json:"candidates"`
	NextActions        []string    `json:"next_actions,omitempty"`
	Summary            Summary     `json:"summary"`
}
